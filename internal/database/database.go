package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/gocql/gocql"
	"github.com/redis/go-redis/v9"

	"chktr_back_end/internal/config"
)

// =============================================
// REDIS
// =============================================

// ConnectRedis ouvre le client Redis et vérifie la connexion par un Ping.
func ConnectRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("impossible de se connecter à Redis (%s): %w", cfg.Addr, err)
	}

	log.Printf("✅ Connecté à Redis (%s)", cfg.Addr)
	return client, nil
}

// =============================================
// SCYLLA DB
// =============================================

// createScyllaCluster crée la configuration de cluster pour le keyspace des paniers
func createScyllaCluster(cfg config.ScyllaConfig) *gocql.ClusterConfig {
	cluster := gocql.NewCluster(cfg.Hosts...)
	cluster.Keyspace = cfg.Keyspace
	cluster.Consistency = gocql.Quorum
	cluster.Timeout = cfg.Timeout
	cluster.NumConns = cfg.NumConns
	cluster.ReconnectInterval = 1 * time.Second

	if cfg.Username != "" {
		cluster.Authenticator = gocql.PasswordAuthenticator{
			Username: cfg.Username,
			Password: cfg.Password,
		}
	}

	// Politique de sélection d'hôtes optimisée
	cluster.PoolConfig.HostSelectionPolicy = gocql.TokenAwareHostPolicy(gocql.RoundRobinHostPolicy())

	return cluster
}

// ConnectScylla ouvre une session sur le keyspace configuré et crée la table des paniers.
func ConnectScylla(cfg config.ScyllaConfig, ddl string) (*gocql.Session, error) {
	session, err := createScyllaCluster(cfg).CreateSession()
	if err != nil {
		return nil, fmt.Errorf("erreur création session pour %s: %w", cfg.Keyspace, err)
	}

	if ddl != "" {
		if err := session.Query(ddl).Exec(); err != nil {
			session.Close()
			return nil, fmt.Errorf("erreur création schéma %s: %w", cfg.Keyspace, err)
		}
	}

	log.Printf("✅ Nouvelle session ScyllaDB pour keyspace '%s'", cfg.Keyspace)
	return session, nil
}
