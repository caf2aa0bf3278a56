// Package auth scopes every tracking request to a storefront. Each site gets
// its own API key; the resolved site id travels on the request context and is
// what the archive and handlers key their data by.
package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/shopmetrics/conversion-engine/internal/logging"
)

// ctxSiteID is the request-context key carrying the authenticated site id.
const ctxSiteID = "auth.site_id"

// APIKeyMiddleware resolves X-API-Key to a site id and rejects requests that
// carry no known key. Rejections are logged with the request path and client
// address; the presented key itself is never logged.
func APIKeyMiddleware(keys map[string]string) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := strings.TrimSpace(c.GetHeader("X-API-Key"))

		siteID, ok := keys[key]
		if !ok || key == "" {
			logging.Warn().
				Str("path", c.Request.URL.Path).
				Str("client", c.ClientIP()).
				Msg("request rejected: unknown api key")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		c.Set(ctxSiteID, siteID)
		c.Next()
	}
}

// SiteID returns the authenticated site id, or "" when the request never
// passed the middleware.
func SiteID(c *gin.Context) string {
	return c.GetString(ctxSiteID)
}
