package middleware

import (
	"crypto/subtle"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"chktr_back_end/internal/config"
	"chktr_back_end/internal/utils"
)

// ContextApp est la clé gin de l'application authentifiée.
const ContextApp = "app"

// DefaultApp désigne un appel authentifié par la clé statique.
const DefaultApp = "default"

// AuthOptions décrit les trois façons d'être admis sur /api.
type AuthOptions struct {
	APIKey    string
	AppKeys   config.AppKeyRegistry
	JWTSecret []byte
}

// AuthRequired vérifie le header Authorization avant tout handler.
func AuthRequired(opts AuthOptions) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Token manquant"})
			c.Abort()
			return
		}

		if opts.APIKey != "" && subtle.ConstantTimeCompare([]byte(authHeader), []byte(opts.APIKey)) == 1 {
			c.Set(ContextApp, DefaultApp)
			c.Next()
			return
		}

		if app, ok := opts.AppKeys.Lookup(authHeader); ok {
			c.Set(ContextApp, app)
			c.Next()
			return
		}

		scheme, tokenString, found := strings.Cut(authHeader, " ")
		if !found || !strings.EqualFold(scheme, "Bearer") || len(opts.JWTSecret) == 0 {
			log.Printf("❌ Authorization refusée pour %s %s", c.Request.Method, c.Request.URL.Path)
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Clé d'API invalide"})
			c.Abort()
			return
		}

		claims, err := utils.ParseAppToken(strings.TrimSpace(tokenString), opts.JWTSecret)
		if err != nil {
			log.Printf("❌ Erreur parsing JWT: %v", err)
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Token invalide"})
			c.Abort()
			return
		}

		c.Set(ContextApp, claims.App)
		c.Next()
	}
}
