// Package relay forwards client-reported conversions server-side to the ad
// platform's conversion-ingestion API, hashing PII first and guaranteeing
// at-most-one forwarded Purchase per event id within the idempotency window.
package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/shopmetrics/conversion-engine/internal/config"
	"github.com/shopmetrics/conversion-engine/internal/logging"
	"github.com/shopmetrics/conversion-engine/internal/metrics"
	"github.com/shopmetrics/conversion-engine/internal/models"
)

// sweepProbability is the chance each request triggers a lazy sweep of the
// idempotency store; probabilistic cleanup bounds map growth without a
// background timer.
const sweepProbability = 0.1

// outboundEvent is the single-event envelope sent to the platform.
type outboundEvent struct {
	EventName      string                 `json:"event_name"`
	EventTime      int64                  `json:"event_time"`
	EventID        string                 `json:"event_id"`
	EventSourceURL string                 `json:"event_source_url,omitempty"`
	ActionSource   string                 `json:"action_source"`
	UserData       map[string]string      `json:"user_data"`
	CustomData     map[string]interface{} `json:"custom_data,omitempty"`
}

type outboundEnvelope struct {
	Data          []outboundEvent `json:"data"`
	TestEventCode string          `json:"test_event_code,omitempty"`
}

// Result is the outcome of one Forward call: the HTTP status to answer with
// plus the response body.
type Result struct {
	Status int
	Body   models.ConversionResponse
}

// Forwarder is the server-side conversion relay.
type Forwarder struct {
	cfg        config.RelayConfig
	store      IdempotencyStore
	httpClient *http.Client

	now func() time.Time
	// shouldSweep decides per-request whether to sweep; injectable for
	// deterministic tests.
	shouldSweep func() bool
}

// NewForwarder constructs the relay. httpClient nil means a client bounded
// by cfg.Timeout; now/shouldSweep nil mean real clock and the ~10% coin.
func NewForwarder(cfg config.RelayConfig, store IdempotencyStore, httpClient *http.Client, now func() time.Time, shouldSweep func() bool) *Forwarder {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if now == nil {
		now = time.Now
	}
	if shouldSweep == nil {
		shouldSweep = func() bool { return rand.Float64() < sweepProbability }
	}
	return &Forwarder{
		cfg:         cfg,
		store:       store,
		httpClient:  httpClient,
		now:         now,
		shouldSweep: shouldSweep,
	}
}

// Forward validates, deduplicates, hashes, and relays one conversion.
// Validation order is fixed: configuration, then eventName, then eventId.
// A suppressed duplicate is success, not an error; a platform rejection is
// surfaced with the platform's status and raw body and is never retried
// beyond the single bounded transport retry.
func (f *Forwarder) Forward(ctx context.Context, req models.ConversionRequest) Result {
	if !f.cfg.Configured() {
		metrics.RelayRequests.WithLabelValues("invalid").Inc()
		return Result{
			Status: http.StatusInternalServerError,
			Body:   models.ConversionResponse{Success: false, Error: models.ErrInvalidConfig},
		}
	}
	if req.EventName == "" || req.EventID == "" {
		metrics.RelayRequests.WithLabelValues("invalid").Inc()
		return Result{
			Status: http.StatusBadRequest,
			Body:   models.ConversionResponse{Success: false, Error: models.ErrInvalidPayload},
		}
	}

	isPurchase := models.EventName(req.EventName) == models.Purchase

	if isPurchase && f.store.Seen(req.EventID, f.cfg.IdempotencyTTL) {
		// Already forwarded within the TTL: idempotent short-circuit,
		// no outbound call.
		metrics.RelayRequests.WithLabelValues("duplicate").Inc()
		logging.Info().
			Str("event_id", req.EventID).
			Msg("duplicate purchase suppressed")
		return Result{
			Status: http.StatusOK,
			Body:   models.ConversionResponse{Success: true, EventID: req.EventID},
		}
	}

	if f.shouldSweep() {
		evicted := f.store.Sweep(f.cfg.IdempotencyTTL)
		metrics.IdempotencySweeps.Inc()
		metrics.IdempotencyEvictions.Add(float64(evicted))
	}

	envelope := outboundEnvelope{
		Data: []outboundEvent{{
			EventName:      req.EventName,
			EventTime:      f.now().Unix(),
			EventID:        req.EventID,
			EventSourceURL: req.EventSourceURL,
			ActionSource:   "website",
			UserData:       buildUserData(req),
			CustomData:     buildCustomData(req),
		}},
		TestEventCode: f.cfg.TestEventCode,
	}

	status, body, traceID, err := f.post(ctx, envelope)
	if err != nil {
		metrics.RelayRequests.WithLabelValues("rejected").Inc()
		logging.Error().Err(err).Str("event_id", req.EventID).Msg("conversion relay delivery failed")
		return Result{
			Status: http.StatusBadGateway,
			Body:   models.ConversionResponse{Success: false, EventID: req.EventID, Error: err.Error()},
		}
	}
	if status < 200 || status > 299 {
		// Platform rejection: pass the status and raw body through and
		// do not mark the event idempotent, so a legitimate retry can
		// still succeed.
		metrics.RelayRequests.WithLabelValues("rejected").Inc()
		logging.Warn().
			Int("status", status).
			Str("event_id", req.EventID).
			Msg("conversion rejected by platform")
		return Result{
			Status: status,
			Body:   models.ConversionResponse{Success: false, EventID: req.EventID, Error: body},
		}
	}

	if isPurchase {
		f.store.Mark(req.EventID)
	}
	metrics.RelayRequests.WithLabelValues("forwarded").Inc()

	return Result{
		Status: http.StatusOK,
		Body:   models.ConversionResponse{Success: true, EventID: req.EventID, TraceID: traceID},
	}
}

// post delivers the envelope to the platform's events endpoint with the
// access token as a query credential. The call is bounded by the client
// timeout and retried at most once, on transport errors and 5xx responses
// only.
func (f *Forwarder) post(ctx context.Context, envelope outboundEnvelope) (status int, body, traceID string, err error) {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return 0, "", "", fmt.Errorf("encode envelope: %w", err)
	}

	endpoint := fmt.Sprintf("%s/%s/events?access_token=%s",
		f.cfg.APIBase, f.cfg.PixelID, url.QueryEscape(f.cfg.AccessToken))

	attempt := func() error {
		req, reqErr := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
		if reqErr != nil {
			return backoff.Permanent(reqErr)
		}
		req.Header.Set("Content-Type", "application/json")

		start := time.Now()
		resp, doErr := f.httpClient.Do(req)
		metrics.RelayOutboundDuration.Observe(time.Since(start).Seconds())
		if doErr != nil {
			return doErr
		}
		defer resp.Body.Close()

		raw, readErr := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		if readErr != nil {
			return readErr
		}

		status = resp.StatusCode
		body = string(raw)
		if status >= 500 {
			return fmt.Errorf("platform returned %d", status)
		}
		return nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewConstantBackOff(200*time.Millisecond), 1), ctx)
	if retryErr := backoff.Retry(attempt, policy); retryErr != nil {
		if status >= 500 {
			// Both attempts got a 5xx: surface the platform response
			// rather than the retry error.
			return status, body, "", nil
		}
		return 0, "", "", retryErr
	}

	traceID = extractTraceID(body)
	return status, body, traceID, nil
}

// extractTraceID pulls the platform's trace id out of a success response,
// if present.
func extractTraceID(body string) string {
	var parsed struct {
		FBTraceID string `json:"fbtrace_id"`
		TraceID   string `json:"trace_id"`
	}
	if err := json.Unmarshal([]byte(body), &parsed); err != nil {
		return ""
	}
	if parsed.FBTraceID != "" {
		return parsed.FBTraceID
	}
	return parsed.TraceID
}

// Health reports whether the relay's required secrets are configured,
// exposing only a masked suffix of the pixel id.
func (f *Forwarder) Health() models.RelayHealth {
	return models.RelayHealth{
		Status:     "ok",
		Configured: f.cfg.Configured(),
		PixelID:    f.cfg.MaskedPixelID(),
		TestMode:   f.cfg.TestEventCode != "",
	}
}
