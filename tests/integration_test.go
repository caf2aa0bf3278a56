package tests

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopmetrics/conversion-engine/internal/behavior"
	"github.com/shopmetrics/conversion-engine/internal/config"
	"github.com/shopmetrics/conversion-engine/internal/dispatch"
	"github.com/shopmetrics/conversion-engine/internal/dispatch/destinations"
	"github.com/shopmetrics/conversion-engine/internal/httpserver"
	"github.com/shopmetrics/conversion-engine/internal/identity"
	"github.com/shopmetrics/conversion-engine/internal/relay"
	"github.com/shopmetrics/conversion-engine/internal/store"
	"github.com/shopmetrics/conversion-engine/internal/touchpoint"
)

////////////////////////////////////////////////////////////////////////////////
// INTEGRATION TEST SUITE
//
// These tests validate the engine end-to-end over HTTP:
//
//   Client → HTTP API → Auth → Identity/Touchpoints/Behavior → Fan-out
//                             → Conversion Relay → (stub) ad platform
//
// The service runs in-process against the in-memory archive and a stubbed
// conversion-ingestion endpoint, so the suite needs no external services.
////////////////////////////////////////////////////////////////////////////////

const (
	site1Key = "site-key-111"
	site2Key = "site-key-222"
)

// engine is one fully wired service instance plus its collaborator stubs.
type engine struct {
	srv      *httptest.Server
	platform *httptest.Server
	archive  *store.MemoryArchive

	platformCalls  []string // raw outbound bodies received by the stub
	platformStatus int
}

// newEngine assembles the full router the way cmd/api does, with a stub ad
// platform behind the relay.
func newEngine(t *testing.T) *engine {
	t.Helper()

	e := &engine{platformStatus: http.StatusOK}
	e.platform = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		e.platformCalls = append(e.platformCalls, string(raw))
		w.WriteHeader(e.platformStatus)
		_, _ = w.Write([]byte(`{"events_received":1,"fbtrace_id":"it-trace"}`))
	}))
	t.Cleanup(e.platform.Close)

	cfg := config.Config{
		APIKeys: map[string]string{site1Key: "site1", site2Key: "site2"},
		Relay: config.RelayConfig{
			PixelID:        "pixel-987654",
			AccessToken:    "it-token",
			APIBase:        e.platform.URL,
			Timeout:        2 * time.Second,
			IdempotencyTTL: time.Hour,
		},
	}

	ids := identity.NewManager(nil)
	ledger := touchpoint.NewLedger(nil)
	scorer := behavior.NewScorer(nil)
	e.archive = store.NewMemoryArchive()

	never := func() bool { return false }
	router := httpserver.NewRouter(cfg, httpserver.Deps{
		Dispatcher: dispatch.New(ids, ledger, scorer, destinations.NewRegistry(), e.archive, nil),
		Forwarder:  relay.NewForwarder(cfg.Relay, relay.NewMemoryIdempotencyStore(nil), nil, nil, never),
		Ledger:     ledger,
		Scorer:     scorer,
		Archive:    e.archive,
	})

	e.srv = httptest.NewServer(router)
	t.Cleanup(e.srv.Close)
	return e
}

// unique generates a unique string so tests never collide.
func unique(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
}

////////////////////////////////////////////////////////////////////////////////
// GENERIC HTTP HELPERS
////////////////////////////////////////////////////////////////////////////////

// httpGet performs a GET request with optional API key.
func (e *engine) httpGet(t *testing.T, apiKey, path string) (int, []byte) {
	t.Helper()

	req, _ := http.NewRequest("GET", e.srv.URL+path, nil)
	if apiKey != "" {
		req.Header.Set("X-API-Key", apiKey)
	}

	resp, err := (&http.Client{Timeout: 5 * time.Second}).Do(req)
	if err != nil {
		t.Fatalf("GET %s failed: %v", path, err)
	}
	defer resp.Body.Close()

	b, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, b
}

// postJSON performs a POST with a JSON body and optional API key.
func (e *engine) postJSON(t *testing.T, apiKey, path string, payload any) (int, []byte) {
	t.Helper()

	b, _ := json.Marshal(payload)

	req, _ := http.NewRequest("POST", e.srv.URL+path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		req.Header.Set("X-API-Key", apiKey)
	}

	resp, err := (&http.Client{Timeout: 5 * time.Second}).Do(req)
	if err != nil {
		t.Fatalf("POST %s failed: %v", path, err)
	}
	defer resp.Body.Close()

	out, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, out
}

// track posts one canonical event and returns the issued identity.
func (e *engine) track(t *testing.T, apiKey string, payload map[string]any) (deviceID, sessionID string) {
	t.Helper()

	s, b := e.postJSON(t, apiKey, "/track", payload)
	if s != http.StatusOK {
		t.Fatalf("track expected 200 got %d: %s", s, b)
	}

	var resp struct {
		DeviceID  string `json:"device_id"`
		SessionID string `json:"session_id"`
	}
	if err := json.Unmarshal(b, &resp); err != nil {
		t.Fatalf("invalid track response: %v", err)
	}
	return resp.DeviceID, resp.SessionID
}

////////////////////////////////////////////////////////////////////////////////
// HEALTH & READINESS TESTS
////////////////////////////////////////////////////////////////////////////////

// Health endpoint = liveness check (server process running).
func TestHealth_ReturnsOK(t *testing.T) {
	e := newEngine(t)
	if s, _ := e.httpGet(t, "", "/health"); s != http.StatusOK {
		t.Fatalf("health expected 200 got %d", s)
	}
}

// Ready endpoint = dependency readiness (event archive reachable).
func TestReady_ReturnsOK(t *testing.T) {
	e := newEngine(t)
	if s, _ := e.httpGet(t, "", "/ready"); s != http.StatusOK {
		t.Fatalf("ready expected 200 got %d", s)
	}
}

////////////////////////////////////////////////////////////////////////////////
// TRACK CONTRACT TESTS
////////////////////////////////////////////////////////////////////////////////

// Request without API key must be rejected.
func TestTrack_UnauthorizedWithoutAPIKey(t *testing.T) {
	e := newEngine(t)

	s, _ := e.postJSON(t, "", "/track", map[string]any{"event_name": "PageView"})
	if s != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", s)
	}
}

// Unknown canonical event names should return 400.
func TestTrack_BadRequestOnUnknownEvent(t *testing.T) {
	e := newEngine(t)

	s, _ := e.postJSON(t, site1Key, "/track", map[string]any{"event_name": "login"})
	if s != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", s)
	}
}

// First track issues identity; later calls with those ids keep them.
func TestTrack_IssuesStableIdentity(t *testing.T) {
	e := newEngine(t)

	dev, sess := e.track(t, site1Key, map[string]any{"event_name": "PageView"})
	dev2, sess2 := e.track(t, site1Key, map[string]any{
		"event_name": "PageView",
		"device_id":  dev,
		"session_id": sess,
	})

	if dev2 != dev || sess2 != sess {
		t.Fatalf("identity changed: %s/%s vs %s/%s", dev2, sess2, dev, sess)
	}
}

////////////////////////////////////////////////////////////////////////////////
// LIFECYCLE / ATTRIBUTION JOURNEY TESTS
////////////////////////////////////////////////////////////////////////////////

// A full visitor journey: browsing promotes to lead, purchasing to customer,
// and campaign arrivals feed the attribution models.
func TestJourney_LifecycleAndAttribution(t *testing.T) {
	e := newEngine(t)

	dev, sess := e.track(t, site1Key, map[string]any{
		"event_name": "PageView",
		"campaign":   map[string]any{"utm_source": "google", "utm_medium": "cpc", "utm_campaign": "spring"},
	})

	for i := 0; i < 5; i++ {
		e.track(t, site1Key, map[string]any{
			"event_name": "PageView",
			"device_id":  dev,
			"session_id": sess,
		})
	}

	// 6 page views → lead.
	s, b := e.httpGet(t, site1Key, "/profile?device_id="+dev)
	if s != http.StatusOK {
		t.Fatalf("profile expected 200 got %d", s)
	}
	var profile struct {
		Record struct {
			LifecycleStage string `json:"lifecycle_stage"`
		} `json:"record"`
		Segment struct {
			Segment string `json:"segment"`
		} `json:"segment"`
	}
	if err := json.Unmarshal(b, &profile); err != nil {
		t.Fatal(err)
	}
	if profile.Record.LifecycleStage != "lead" {
		t.Fatalf("stage = %s, want lead after 6 page views", profile.Record.LifecycleStage)
	}

	// Purchase → customer / first_time.
	e.track(t, site1Key, map[string]any{
		"event_name": "Purchase",
		"device_id":  dev,
		"session_id": sess,
		"data":       map[string]any{"value": 150.0},
	})
	_, b = e.httpGet(t, site1Key, "/profile?device_id="+dev)
	if err := json.Unmarshal(b, &profile); err != nil {
		t.Fatal(err)
	}
	if profile.Record.LifecycleStage != "customer" || profile.Segment.Segment != "first_time" {
		t.Fatalf("profile = %s/%s, want customer/first_time", profile.Record.LifecycleStage, profile.Segment.Segment)
	}

	// The campaign arrival is attributable under every model.
	s, b = e.httpGet(t, site1Key, "/attribution?device_id="+dev+"&model=first_touch")
	if s != http.StatusOK {
		t.Fatalf("attribution expected 200 got %d", s)
	}
	var attr struct {
		Attribution *struct {
			Weights map[string]float64 `json:"weights"`
		} `json:"attribution"`
	}
	if err := json.Unmarshal(b, &attr); err != nil {
		t.Fatal(err)
	}
	if attr.Attribution == nil || attr.Attribution.Weights["google/cpc/spring"] != 1.0 {
		t.Fatalf("attribution = %+v, want full first-touch weight on google/cpc/spring", attr.Attribution)
	}
}

// An identity with no touchpoints yields a null attribution, not an error.
func TestAttribution_NullWithoutTouchpoints(t *testing.T) {
	e := newEngine(t)

	dev, _ := e.track(t, site1Key, map[string]any{"event_name": "PageView"})

	s, b := e.httpGet(t, site1Key, "/attribution?device_id="+dev+"&model=linear")
	if s != http.StatusOK {
		t.Fatalf("expected 200 got %d", s)
	}
	var attr struct {
		Attribution *json.RawMessage `json:"attribution"`
	}
	if err := json.Unmarshal(b, &attr); err != nil {
		t.Fatal(err)
	}
	if attr.Attribution != nil && string(*attr.Attribution) != "null" {
		t.Fatalf("attribution = %s, want null", *attr.Attribution)
	}
}

////////////////////////////////////////////////////////////////////////////////
// CONVERSION RELAY TESTS
////////////////////////////////////////////////////////////////////////////////

func conversionPayload(eventID string) map[string]any {
	return map[string]any{
		"eventName":      "Purchase",
		"eventId":        eventID,
		"email":          "buyer@example.com",
		"value":          59.0,
		"currency":       "USD",
		"orderId":        "order-1",
		"eventSourceUrl": "https://shop.example/confirm",
	}
}

// Repeated relays of the same purchase produce exactly one platform call.
func TestRelay_PurchaseDeduplicated(t *testing.T) {
	e := newEngine(t)
	eventID := unique("evt")

	for i := 0; i < 3; i++ {
		s, b := e.postJSON(t, site1Key, "/conversion-relay", conversionPayload(eventID))
		if s != http.StatusOK {
			t.Fatalf("relay call %d expected 200 got %d: %s", i, s, b)
		}
		var resp struct {
			Success bool   `json:"success"`
			EventID string `json:"eventId"`
		}
		if err := json.Unmarshal(b, &resp); err != nil {
			t.Fatal(err)
		}
		if !resp.Success || resp.EventID != eventID {
			t.Fatalf("relay response = %+v", resp)
		}
	}

	if n := len(e.platformCalls); n != 1 {
		t.Fatalf("platform calls = %d, want exactly 1", n)
	}
}

// Missing eventId must 400 without reaching the platform.
func TestRelay_MissingEventIDRejected(t *testing.T) {
	e := newEngine(t)

	payload := conversionPayload("")
	delete(payload, "eventId")
	s, b := e.postJSON(t, site1Key, "/conversion-relay", payload)

	if s != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", s)
	}
	var resp struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(b, &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Error != "INVALID_PAYLOAD" {
		t.Fatalf("error = %s, want INVALID_PAYLOAD", resp.Error)
	}
	if len(e.platformCalls) != 0 {
		t.Fatal("invalid request reached the platform")
	}
}

// Raw PII must never appear in the outbound platform payload.
func TestRelay_PIIHashedOutbound(t *testing.T) {
	e := newEngine(t)

	e.postJSON(t, site1Key, "/conversion-relay", conversionPayload(unique("evt")))

	if len(e.platformCalls) != 1 {
		t.Fatalf("platform calls = %d, want 1", len(e.platformCalls))
	}
	if bytes.Contains([]byte(e.platformCalls[0]), []byte("buyer@example.com")) {
		t.Fatal("raw email leaked to platform payload")
	}
}

// Health probe reports configuration without exposing the pixel id.
func TestRelay_HealthMasked(t *testing.T) {
	e := newEngine(t)

	s, b := e.httpGet(t, site1Key, "/conversion-relay")
	if s != http.StatusOK {
		t.Fatalf("expected 200 got %d", s)
	}
	var h struct {
		Configured bool   `json:"configured"`
		PixelID    string `json:"pixelId"`
	}
	if err := json.Unmarshal(b, &h); err != nil {
		t.Fatal(err)
	}
	if !h.Configured || h.PixelID != "***7654" {
		t.Fatalf("health = %+v, want configured with masked pixel id", h)
	}
}

////////////////////////////////////////////////////////////////////////////////
// ARCHIVE TESTS
////////////////////////////////////////////////////////////////////////////////

// Tracked events land in the archive tagged with the calling site.
func TestArchive_SiteTaggedEvents(t *testing.T) {
	e := newEngine(t)

	e.track(t, site1Key, map[string]any{"event_name": "Search"})
	e.track(t, site2Key, map[string]any{"event_name": "Search"})

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		evs := e.archive.Events()
		if len(evs) == 2 {
			sites := map[string]int{}
			for _, ev := range evs {
				sites[ev.SiteID]++
			}
			if sites["site1"] != 1 || sites["site2"] != 1 {
				t.Fatalf("site tagging = %v", sites)
			}
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("events never archived")
}
