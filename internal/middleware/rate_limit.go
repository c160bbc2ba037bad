package middleware

import (
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"chktr_back_end/internal/cache"
)

const APICooldown = 1 * time.Minute

// APIRateLimit limite le nombre de requêtes par application et par minute.
// Un maxPerMinute <= 0 désactive la limite.
func APIRateLimit(counter cache.Counter, maxPerMinute int) gin.HandlerFunc {
	return func(c *gin.Context) {
		if counter == nil || maxPerMinute <= 0 {
			c.Next()
			return
		}

		app := c.GetString(ContextApp)
		if app == "" {
			app = c.ClientIP()
		}
		key := "api_requests:" + app

		requests, err := counter.Increment(c.Request.Context(), key, APICooldown)
		if err != nil {
			// Le compteur ne doit pas bloquer l'API
			log.Printf("⚠️ Rate limit indisponible pour %s: %v", app, err)
			c.Next()
			return
		}

		remaining := int64(maxPerMinute) - requests
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Limit", strconv.Itoa(maxPerMinute))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

		if requests > int64(maxPerMinute) {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":       "Trop de requêtes. Réessayez dans 1 minute",
				"retry_after": int(APICooldown.Seconds()),
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
