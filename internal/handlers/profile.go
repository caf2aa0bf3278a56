package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/shopmetrics/conversion-engine/internal/behavior"
)

// RegisterProfileRoutes registers the behavior-record serving endpoint.
//
// GET /profile?device_id=...
// - Requires X-API-Key (site context)
// - Returns the identity's behavior record with churn re-evaluated against
//   the current clock, plus the derived segment and audience memberships
//
// DELETE /profile?device_id=...
// - Explicit reset: the only way a behavior record is removed
func RegisterProfileRoutes(r gin.IRoutes, scorer *behavior.Scorer) {
	r.GET("/profile", func(c *gin.Context) {
		deviceID := c.Query("device_id")
		if deviceID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "device_id required"})
			return
		}

		rec, ok := scorer.Record(deviceID)
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "unknown device_id"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"record":    rec,
			"segment":   behavior.Segment(rec),
			"audiences": scorer.Memberships(rec),
		})
	})

	r.DELETE("/profile", func(c *gin.Context) {
		deviceID := c.Query("device_id")
		if deviceID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "device_id required"})
			return
		}
		scorer.Reset(deviceID)
		c.Status(http.StatusNoContent)
	})
}
