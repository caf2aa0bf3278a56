package destinations

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// defaultEndpoints are used when configuration does not override a
// platform's beacon endpoint.
var defaultEndpoints = map[string]string{
	PlatformMeta:      "https://www.facebook.com/tr",
	PlatformGoogle:    "https://www.google-analytics.com/g/collect",
	PlatformTikTok:    "https://analytics.tiktok.com/api/v2/pixel",
	PlatformPinterest: "https://ct.pinterest.com/v3",
	PlatformSnapchat:  "https://tr.snapchat.com/p",
}

// BeaconClient delivers translated events to one platform's collection
// endpoint over HTTP. Delivery is best-effort; the dispatcher logs failures
// and never retries.
type BeaconClient struct {
	platform   string
	endpoint   string
	credential string
	httpClient *http.Client
}

// NewBeaconClient builds a client for platform. endpoint falls back to the
// platform default when empty; httpClient falls back to a 5s-timeout client.
func NewBeaconClient(platform, endpoint, credential string, httpClient *http.Client) *BeaconClient {
	if endpoint == "" {
		endpoint = defaultEndpoints[platform]
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 5 * time.Second}
	}
	return &BeaconClient{
		platform:   platform,
		endpoint:   endpoint,
		credential: credential,
		httpClient: httpClient,
	}
}

// Platform returns the registry key.
func (b *BeaconClient) Platform() string { return b.platform }

// Send POSTs the translated event. The credential (pixel/tag/site id) rides
// in the body; platforms requiring query credentials encode them in the
// configured endpoint.
func (b *BeaconClient) Send(ctx context.Context, event string, data map[string]interface{}) error {
	payload := map[string]interface{}{
		"id":    b.credential,
		"event": event,
		"data":  data,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("%s: encode beacon: %w", b.platform, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%s: build request: %w", b.platform, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s: send beacon: %w", b.platform, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%s: beacon rejected: status %d", b.platform, resp.StatusCode)
	}
	return nil
}
