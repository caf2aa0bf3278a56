package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shopmetrics/conversion-engine/internal/behavior"
	"github.com/shopmetrics/conversion-engine/internal/config"
	"github.com/shopmetrics/conversion-engine/internal/dispatch"
	"github.com/shopmetrics/conversion-engine/internal/dispatch/destinations"
	"github.com/shopmetrics/conversion-engine/internal/httpserver"
	"github.com/shopmetrics/conversion-engine/internal/identity"
	"github.com/shopmetrics/conversion-engine/internal/logging"
	"github.com/shopmetrics/conversion-engine/internal/relay"
	"github.com/shopmetrics/conversion-engine/internal/store"
	"github.com/shopmetrics/conversion-engine/internal/touchpoint"
)

// main boots the engine: config → logging → archive → components → HTTP server.
func main() {
	// Construct runtime config once; components receive it explicitly
	// rather than reading ambient environment state.
	cfg, err := config.Load()
	if err != nil {
		logging.Error().Err(err).Msg("configuration invalid")
		os.Exit(1)
	}

	logging.Init(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	// Durable archive when DB_URL is set, otherwise in-memory.
	archive, err := newArchive(cfg)
	if err != nil {
		logging.Error().Err(err).Msg("event archive unavailable")
		os.Exit(1)
	}
	defer archive.Close()

	ids := identity.NewManager(nil)
	ledger := touchpoint.NewLedger(nil)
	scorer := behavior.NewScorer(nil)
	registry := newRegistry(cfg.Destinations)

	dispatcher := dispatch.New(ids, ledger, scorer, registry, archive, nil)
	forwarder := relay.NewForwarder(cfg.Relay, relay.NewMemoryIdempotencyStore(nil), nil, nil, nil)

	router := httpserver.NewRouter(cfg, httpserver.Deps{
		Dispatcher: dispatcher,
		Forwarder:  forwarder,
		Ledger:     ledger,
		Scorer:     scorer,
		Archive:    archive,
	})

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logging.Info().
			Str("addr", cfg.ListenAddr).
			Int("destinations", len(registry.Clients())).
			Bool("relay_configured", cfg.Relay.Configured()).
			Msg("server started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error().Err(err).Msg("server stopped")
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logging.Error().Err(err).Msg("shutdown incomplete")
	}
	logging.Info().Msg("server stopped")
}

// newArchive selects the event archive implementation from configuration.
func newArchive(cfg config.Config) (store.EventArchive, error) {
	if cfg.DBURL == "" {
		logging.Warn().Msg("DB_URL not set, using in-memory event archive")
		return store.NewMemoryArchive(), nil
	}

	pg, err := store.NewPostgresArchive(cfg.DBURL)
	if err != nil {
		return nil, err
	}
	// Ensure required tables/indexes exist so a fresh database needs no
	// separate migration step.
	if err := pg.EnsureSchema(); err != nil {
		pg.Close()
		return nil, err
	}
	return pg, nil
}

// newRegistry builds the destination registry from configuration. A platform
// without a credential is simply omitted; it is never probed at dispatch
// time.
func newRegistry(dests config.DestinationsConfig) *destinations.Registry {
	var clients []destinations.Client

	add := func(platform string, dc config.DestinationConfig) {
		if !dc.Enabled() {
			return
		}
		clients = append(clients, destinations.NewBeaconClient(platform, dc.Endpoint, dc.Credential, nil))
	}
	add(destinations.PlatformMeta, dests.Meta)
	add(destinations.PlatformGoogle, dests.Google)
	add(destinations.PlatformTikTok, dests.TikTok)
	add(destinations.PlatformPinterest, dests.Pinterest)
	add(destinations.PlatformSnapchat, dests.Snapchat)

	return destinations.NewRegistry(clients...)
}
