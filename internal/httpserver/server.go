package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shopmetrics/conversion-engine/internal/auth"
	"github.com/shopmetrics/conversion-engine/internal/behavior"
	"github.com/shopmetrics/conversion-engine/internal/config"
	"github.com/shopmetrics/conversion-engine/internal/dispatch"
	"github.com/shopmetrics/conversion-engine/internal/handlers"
	"github.com/shopmetrics/conversion-engine/internal/relay"
	"github.com/shopmetrics/conversion-engine/internal/store"
	"github.com/shopmetrics/conversion-engine/internal/touchpoint"
)

// Deps are the engine components the router serves.
type Deps struct {
	Dispatcher *dispatch.Dispatcher
	Forwarder  *relay.Forwarder
	Ledger     *touchpoint.Ledger
	Scorer     *behavior.Scorer
	Archive    store.EventArchive
}

// NewRouter wires public endpoints and authenticated APIs.
// Public: /health, /ready, /metricsz
// Authenticated: /track, /conversion-relay, /attribution, /profile
func NewRouter(cfg config.Config, deps Deps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())

	// Liveness: confirms the process is running.
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Readiness: confirms the event archive is reachable.
	r.GET("/ready", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), time.Second)
		defer cancel()

		if err := deps.Archive.Ping(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	// Operational metrics.
	r.GET("/metricsz", gin.WrapH(promhttp.Handler()))

	// Auth group enforces site context via X-API-Key.
	authGroup := r.Group("/")
	authGroup.Use(auth.APIKeyMiddleware(cfg.APIKeys))

	handlers.RegisterTrackRoutes(authGroup, deps.Dispatcher)
	handlers.RegisterRelayRoutes(authGroup, deps.Forwarder)
	handlers.RegisterAttributionRoutes(authGroup, deps.Ledger)
	handlers.RegisterProfileRoutes(authGroup, deps.Scorer)

	return r
}
