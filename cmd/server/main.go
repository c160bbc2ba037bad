package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"chktr_back_end/internal/cache"
	"chktr_back_end/internal/config"
	"chktr_back_end/internal/database"
	"chktr_back_end/internal/routes"
	"chktr_back_end/internal/services"
	"chktr_back_end/internal/telemetry"
)

// backend regroupe les capacités fournies par le stockage choisi.
type backend struct {
	store   cache.Cache
	broker  cache.Broker
	counter cache.Counter
	auth    cache.Cache // vérifications de secret client, hors de la table des paniers
	closers []io.Closer
	// caches mémoire à purger périodiquement
	local []*cache.MemoryCache
}

const janitorInterval = time.Minute

func main() {
	cfg := config.Load()

	if cfg.GinMode != "" {
		gin.SetMode(cfg.GinMode)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTracer, err := telemetry.InitTracerProvider(ctx, cfg.OTLPEndpoint, cfg.ServiceName)
	if err != nil {
		log.Fatalf("❌ Impossible d'initialiser le traçage: %v", err)
	}

	b, err := openBackend(ctx, cfg)
	if err != nil {
		log.Fatalf("❌ %v", err)
	}

	for _, m := range b.local {
		go m.RunJanitor(ctx, janitorInterval)
	}

	carts := services.NewCartService(b.store, cfg.CartTTL, b.broker)

	r := routes.NewEngine(cfg)
	routes.RegisterRoutes(r, routes.Deps{
		Config:  cfg,
		Carts:   carts,
		Store:   b.store,
		Broker:  b.broker,
		Counter: b.counter,
		Auth:    cache.NewAuthCache(b.auth),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// graceful shutdown
	idleConnsClosed := make(chan struct{})
	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		<-sig

		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancelShutdown()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("❌ Arrêt du serveur HTTP: %v", err)
		}
		cancel()
		if err := shutdownTracer(shutdownCtx); err != nil {
			log.Printf("❌ Arrêt du traçage: %v", err)
		}
		close(idleConnsClosed)
	}()

	log.Printf("🚀 Serveur chktr lancé sur le port %s (backend %s)", cfg.Port, cfg.CartBackend)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("❌ listen: %v", err)
	}

	<-idleConnsClosed
	for _, c := range b.closers {
		if err := c.Close(); err != nil {
			log.Printf("⚠️ Fermeture backend: %v", err)
		}
	}
	log.Println("👋 Serveur arrêté")
}

func openBackend(ctx context.Context, cfg *config.Config) (*backend, error) {
	switch cfg.CartBackend {
	case config.BackendRedis:
		client, err := database.ConnectRedis(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		rc := cache.NewRedisCache(client, cfg.Redis.InstanceName)
		return &backend{store: rc, broker: rc, counter: rc, auth: rc, closers: []io.Closer{rc}}, nil

	case config.BackendScylla:
		session, err := database.ConnectScylla(cfg.Scylla, cache.CartsTableDDL)
		if err != nil {
			return nil, err
		}
		sc := cache.NewScyllaCache(session)
		// Scylla n'a pas de pub/sub : événements, compteurs et cache d'auth restent locaux à l'instance
		local := cache.NewMemoryCache()
		log.Println("⚠️ Backend Scylla : synchronisation temps réel et rate limit limités à cette instance")
		return &backend{store: sc, broker: local, counter: local, auth: local, closers: []io.Closer{sc}, local: []*cache.MemoryCache{local}}, nil

	case config.BackendMemory:
		mc := cache.NewMemoryCache()
		log.Println("⚠️ Backend mémoire : les paniers sont perdus au redémarrage")
		return &backend{store: mc, broker: mc, counter: mc, auth: mc, local: []*cache.MemoryCache{mc}}, nil

	default:
		return nil, fmt.Errorf("CART_BACKEND inconnu: %q", cfg.CartBackend)
	}
}
