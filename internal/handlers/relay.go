package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/shopmetrics/conversion-engine/internal/models"
	"github.com/shopmetrics/conversion-engine/internal/relay"
)

// RegisterRelayRoutes registers the server-side conversion relay.
//
// POST /conversion-relay
// - eventId must equal the id used for the in-browser pixel delivery of the
//   same conversion; the platform deduplicates the two
// - Purchase events are additionally deduplicated here within the TTL window
// - PII is hashed before leaving the process
//
// GET /conversion-relay
// - Health probe: configuration state with a masked pixel id
func RegisterRelayRoutes(r gin.IRoutes, f *relay.Forwarder) {
	r.POST("/conversion-relay", func(c *gin.Context) {
		var req models.ConversionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, models.ConversionResponse{
				Success: false,
				Error:   models.ErrInvalidPayload,
			})
			return
		}

		res := f.Forward(c.Request.Context(), req)
		c.JSON(res.Status, res.Body)
	})

	r.GET("/conversion-relay", func(c *gin.Context) {
		c.JSON(http.StatusOK, f.Health())
	})
}
