package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/shopmetrics/conversion-engine/internal/models"
	"github.com/shopmetrics/conversion-engine/internal/touchpoint"
)

// RegisterAttributionRoutes registers the attribution serving endpoint.
//
// GET /attribution?device_id=...&model=...
// - Requires X-API-Key (site context)
// - Returns the weight map for the requested model; attribution is null
//   when the identity has no recorded touchpoints
func RegisterAttributionRoutes(r gin.IRoutes, ledger *touchpoint.Ledger) {
	r.GET("/attribution", func(c *gin.Context) {
		deviceID := c.Query("device_id")
		model := models.AttributionModel(c.Query("model"))

		if deviceID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "device_id required"})
			return
		}
		if model == "" {
			model = models.LastTouch
		}
		if !models.ValidAttributionModel(model) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown attribution model"})
			return
		}

		attribution := ledger.Attribution(deviceID, model)
		c.JSON(http.StatusOK, gin.H{
			"device_id":   deviceID,
			"model":       model,
			"attribution": attribution,
		})
	})
}
