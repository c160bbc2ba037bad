package config

import (
	"crypto/rand"
	"encoding/hex"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DefaultAPIKey est la clé statique historique, acceptée tant que CHKTR_API_KEY n'est pas défini.
const DefaultAPIKey = "A-KEY-GNERATED-BY-A-KEY-MANAGEMENT-SYSTEM"

// Backends de stockage des paniers
const (
	BackendRedis  = "redis"
	BackendScylla = "scylla"
	BackendMemory = "memory"
)

type RedisConfig struct {
	Addr         string
	Password     string
	DB           int
	InstanceName string
}

type ScyllaConfig struct {
	Hosts    []string
	Keyspace string
	Username string
	Password string
	Timeout  time.Duration
	NumConns int
}

// Config regroupe toute la configuration du processus. Elle est construite une fois
// au démarrage puis passée explicitement aux composants.
type Config struct {
	Port        string
	GinMode     string
	CartBackend string
	CartTTL     time.Duration

	Redis  RedisConfig
	Scylla ScyllaConfig

	APIKey    string
	AppKeys   AppKeyRegistry
	Clients   ClientRegistry
	JWTSecret []byte
	TokenTTL  time.Duration

	RateLimitPerMinute int
	CORSOrigins        []string

	OTLPEndpoint string
	ServiceName  string
}

// Load lit le fichier .env (s'il existe) puis les variables d'environnement.
func Load() *Config {
	err := godotenv.Load(".env")
	if err != nil {
		log.Println("⚠️  Aucun fichier .env trouvé, on continue avec les variables d'environnement du système")
	} else {
		log.Println("✅ Fichier .env chargé avec succès")
	}
	return FromEnv()
}

// FromEnv construit la configuration sans toucher au fichier .env.
func FromEnv() *Config {
	cfg := &Config{
		Port:        getenvDefault("PORT", "5000"),
		GinMode:     os.Getenv("GIN_MODE"),
		CartBackend: strings.ToLower(getenvDefault("CART_BACKEND", BackendRedis)),
		CartTTL:     getenvDuration("CART_TTL", 24*time.Hour),

		Redis: RedisConfig{
			Addr:         getenvDefault("REDIS_HOST", "localhost:6379"),
			Password:     os.Getenv("REDIS_PASSWORD"),
			DB:           getenvInt("REDIS_DB", 0),
			InstanceName: os.Getenv("REDIS_INSTANCE_NAME"),
		},
		Scylla: ScyllaConfig{
			Hosts:    splitList(getenvDefault("SCYLLA_HOSTS", "127.0.0.1")),
			Keyspace: getenvDefault("SCYLLA_KEYSPACE", "chktr"),
			Username: os.Getenv("SCYLLA_USERNAME"),
			Password: os.Getenv("SCYLLA_PASSWORD"),
			Timeout:  getenvDuration("SCYLLA_TIMEOUT", 5*time.Second),
			NumConns: getenvInt("SCYLLA_NUM_CONNS", 2),
		},

		APIKey:   getenvDefault("CHKTR_API_KEY", DefaultAPIKey),
		AppKeys:  ParseAppKeys(os.Getenv("CHKTR_APP_KEYS")),
		Clients:  ParseClients(os.Getenv("CHKTR_CLIENTS")),
		TokenTTL: getenvDuration("TOKEN_TTL", time.Hour),

		RateLimitPerMinute: getenvInt("RATE_LIMIT_PER_MINUTE", 0),
		CORSOrigins:        splitList(os.Getenv("CORS_ORIGINS")),

		OTLPEndpoint: os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		ServiceName:  getenvDefault("OTEL_SERVICE_NAME", "chktr-api"),
	}

	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		cfg.JWTSecret = []byte(secret)
	} else {
		cfg.JWTSecret = randomSecret()
		log.Println("⚠️  JWT_SECRET absent : secret aléatoire généré, les jetons ne survivront pas au redémarrage")
	}

	return cfg
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("⚠️  %s invalide (%q), valeur par défaut %d utilisée", key, v, def)
		return def
	}
	return n
}

func getenvDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Printf("⚠️  %s invalide (%q), valeur par défaut %s utilisée", key, v, def)
		return def
	}
	return d
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func randomSecret() []byte {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		log.Fatalf("❌ Impossible de générer un secret JWT: %v", err)
	}
	return []byte(hex.EncodeToString(b))
}
