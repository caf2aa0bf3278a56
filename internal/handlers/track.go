package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/shopmetrics/conversion-engine/internal/auth"
	"github.com/shopmetrics/conversion-engine/internal/dispatch"
	"github.com/shopmetrics/conversion-engine/internal/models"
)

// RegisterTrackRoutes registers the canonical-event ingestion endpoint.
//
// POST /track
// - Requires X-API-Key (site context)
// - Accepts one canonical event; issues device/session ids when absent
// - Destination fan-out and archival happen off the request path; their
//   failures never surface here
func RegisterTrackRoutes(r gin.IRoutes, d *dispatch.Dispatcher) {
	r.POST("/track", func(c *gin.Context) {
		siteID := auth.SiteID(c)
		if siteID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		var req models.TrackRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON payload"})
			return
		}

		if req.EventName == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "event_name required"})
			return
		}
		if !models.EventName(req.EventName).Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown event_name"})
			return
		}

		// Fall back to transport metadata when the payload omits it.
		if req.UserAgent == "" {
			req.UserAgent = c.Request.UserAgent()
		}
		if req.Referrer == "" {
			req.Referrer = c.Request.Referer()
		}

		resp := d.Track(c.Request.Context(), siteID, req)
		c.JSON(http.StatusOK, resp)
	})
}
