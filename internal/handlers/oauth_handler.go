package handlers

import (
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"chktr_back_end/internal/cache"
	"chktr_back_end/internal/config"
	"chktr_back_end/internal/utils"
)

const grantClientCredentials = "client_credentials"

// TokenHandler délivre des jetons d'application (grant client_credentials).
type TokenHandler struct {
	clients  config.ClientRegistry
	verified *cache.AuthCache
	secret   []byte
	ttl      time.Duration
}

// NewTokenHandler accepte un AuthCache nil : chaque demande refait alors la vérification Argon2.
func NewTokenHandler(clients config.ClientRegistry, verified *cache.AuthCache, secret []byte, ttl time.Duration) *TokenHandler {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &TokenHandler{
		clients:  clients,
		verified: verified,
		secret:   secret,
		ttl:      ttl,
	}
}

func tokenError(c *gin.Context, status int, code string) {
	c.Header("Cache-Control", "no-store")
	c.JSON(status, gin.H{"error": code})
}

// 🔑 POST /connect/token
func (h *TokenHandler) Token(c *gin.Context) {
	if c.PostForm("grant_type") != grantClientCredentials {
		tokenError(c, http.StatusBadRequest, "unsupported_grant_type")
		return
	}

	clientID, clientSecret, ok := clientCredentials(c)
	if !ok {
		tokenError(c, http.StatusUnauthorized, "invalid_client")
		return
	}

	if scope := strings.TrimSpace(c.PostForm("scope")); scope != "" {
		for _, s := range strings.Fields(scope) {
			if s != utils.APIScope {
				tokenError(c, http.StatusBadRequest, "invalid_scope")
				return
			}
		}
	}

	if !h.authenticate(c, clientID, clientSecret) {
		log.Printf("❌ Client refusé: %s", clientID)
		tokenError(c, http.StatusUnauthorized, "invalid_client")
		return
	}

	token, _, err := utils.GenerateAppToken(clientID, h.secret, h.ttl)
	if err != nil {
		log.Printf("❌ Erreur génération jeton pour %s: %v", clientID, err)
		tokenError(c, http.StatusInternalServerError, "server_error")
		return
	}

	c.Header("Cache-Control", "no-store")
	c.JSON(http.StatusOK, gin.H{
		"access_token": token,
		"token_type":   "Bearer",
		"expires_in":   int(h.ttl.Seconds()),
		"scope":        utils.APIScope,
	})
}

// clientCredentials lit le client en Basic (valeurs url-encodées) ou dans le formulaire.
func clientCredentials(c *gin.Context) (string, string, bool) {
	if id, secret, ok := c.Request.BasicAuth(); ok {
		if uid, err := url.QueryUnescape(id); err == nil {
			id = uid
		}
		if usecret, err := url.QueryUnescape(secret); err == nil {
			secret = usecret
		}
		return id, secret, id != "" && secret != ""
	}
	id, secret := c.PostForm("client_id"), c.PostForm("client_secret")
	return id, secret, id != "" && secret != ""
}

func (h *TokenHandler) authenticate(c *gin.Context, clientID, clientSecret string) bool {
	hash, ok := h.clients[clientID]
	if !ok {
		return false
	}

	ctx := c.Request.Context()
	if h.verified != nil {
		if ok, err := h.verified.IsVerified(ctx, clientID, hash, clientSecret); err != nil {
			log.Printf("⚠️ Cache d'authentification indisponible: %v", err)
		} else if ok {
			return true
		}
	}

	valid, err := utils.VerifySecret(clientSecret, hash)
	if err != nil {
		log.Printf("❌ Hash invalide pour le client %s: %v", clientID, err)
		return false
	}
	if !valid {
		return false
	}

	if h.verified != nil {
		if err := h.verified.MarkVerified(ctx, clientID, hash, clientSecret); err != nil {
			log.Printf("⚠️ Impossible de mettre en cache la vérification de %s: %v", clientID, err)
		}
	}
	return true
}
