package routes

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"chktr_back_end/internal/cache"
	"chktr_back_end/internal/config"
	"chktr_back_end/internal/handlers"
	"chktr_back_end/internal/middleware"
)

// Deps regroupe ce dont les routes ont besoin ; construit dans cmd/server.
type Deps struct {
	Config  *config.Config
	Carts   handlers.CartStore
	Store   cache.Cache
	Broker  cache.Subscriber
	Counter cache.Counter
	Auth    *cache.AuthCache
}

// NewEngine crée le moteur gin avec les middlewares communs.
func NewEngine(cfg *config.Config) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	// Les anciens clients appellent /api/Cart/... : on redirige vers la route en minuscules
	r.RedirectFixedPath = true

	if cfg.OTLPEndpoint != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}

	corsCfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders: []string{"X-RateLimit-Limit", "X-RateLimit-Remaining"},
		MaxAge:        12 * time.Hour,
	}
	if len(cfg.CORSOrigins) == 0 {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.CORSOrigins
	}
	r.Use(cors.New(corsCfg))

	return r
}

func RegisterRoutes(r *gin.Engine, deps Deps) {
	cfg := deps.Config

	carts := handlers.NewCartHandler(deps.Carts)
	items := handlers.NewCartItemHandler(deps.Carts)
	tokens := handlers.NewTokenHandler(cfg.Clients, deps.Auth, cfg.JWTSecret, cfg.TokenTTL)
	health := handlers.NewHealthHandler(deps.Store)

	r.GET("/health", health.Check)
	r.POST("/connect/token", tokens.Token)

	api := r.Group("/api")
	api.Use(middleware.AuthRequired(middleware.AuthOptions{
		APIKey:    cfg.APIKey,
		AppKeys:   cfg.AppKeys,
		JWTSecret: cfg.JWTSecret,
	}))
	api.Use(middleware.APIRateLimit(deps.Counter, cfg.RateLimitPerMinute))
	{
		// Panier
		api.GET("/cart/:key", carts.Get)
		api.POST("/cart", carts.Create)
		api.PUT("/cart/:key", carts.Update)
		api.DELETE("/cart/:key", carts.Delete)

		// Lignes du panier
		api.GET("/cartitem/:key/:index", items.Get)
		api.POST("/cartitem/:key", items.Add)
		api.PUT("/cartitem/:key", items.Replace)
		api.DELETE("/cartitem/:key/:index", items.Delete)

		// Synchronisation temps réel
		if deps.Broker != nil {
			watch := handlers.NewWatchHandler(deps.Carts, deps.Broker)
			api.GET("/cart/:key/watch", watch.Watch)
		}
	}
}
