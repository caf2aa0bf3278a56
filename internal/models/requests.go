package models

// TrackRequest is the POST /track payload. device_id/session_id are optional;
// when absent the service issues them and returns both so the client can
// persist them for subsequent calls.
type TrackRequest struct {
	DeviceID  string `json:"device_id,omitempty"`
	SessionID string `json:"session_id,omitempty"`

	EventName string                 `json:"event_name"`
	Data      map[string]interface{} `json:"data,omitempty"`

	PageURL   string `json:"page_url,omitempty"`
	Referrer  string `json:"referrer,omitempty"`
	UserAgent string `json:"user_agent,omitempty"`

	Campaign CampaignParams `json:"campaign,omitempty"`
}

// TrackResponse is returned by POST /track.
type TrackResponse struct {
	DeviceID  string `json:"device_id"`
	SessionID string `json:"session_id"`
	EventName string `json:"event_name"`
}

// ConversionRequest is the POST /conversion-relay payload. EventID is the
// deduplication key and MUST match the id used for the in-browser pixel
// delivery of the same conversion.
type ConversionRequest struct {
	EventName      string `json:"eventName"`
	EventID        string `json:"eventId"`
	EventSourceURL string `json:"eventSourceUrl,omitempty"`

	// PII fields, hashed before leaving the process.
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	City      string `json:"city,omitempty"`
	State     string `json:"state,omitempty"`
	ZipCode   string `json:"zipCode,omitempty"`
	Country   string `json:"country,omitempty"`

	// Browser click/cookie identifiers, passed through unhashed.
	FBC string `json:"fbc,omitempty"`
	FBP string `json:"fbp,omitempty"`

	// Value fields, passed through after dropping empty keys.
	Value           *float64                 `json:"value,omitempty"`
	Currency        string                   `json:"currency,omitempty"`
	ContentIDs      []string                 `json:"contentIds,omitempty"`
	ContentType     string                   `json:"contentType,omitempty"`
	ContentName     string                   `json:"contentName,omitempty"`
	ContentCategory string                   `json:"contentCategory,omitempty"`
	Contents        []map[string]interface{} `json:"contents,omitempty"`
	NumItems        *int                     `json:"numItems,omitempty"`
	OrderID         string                   `json:"orderId,omitempty"`
}

// ConversionResponse is returned by POST /conversion-relay.
type ConversionResponse struct {
	Success bool   `json:"success"`
	EventID string `json:"eventId,omitempty"`
	TraceID string `json:"traceId,omitempty"`
	Error   string `json:"error,omitempty"`
}

// RelayHealth is returned by GET /conversion-relay. PixelID is masked to its
// last four characters so the probe never reveals the credential.
type RelayHealth struct {
	Status     string `json:"status"`
	Configured bool   `json:"configured"`
	PixelID    string `json:"pixelId"`
	TestMode   bool   `json:"testMode"`
}

// Error codes surfaced on the relay contract.
const (
	ErrInvalidPayload = "INVALID_PAYLOAD"
	ErrInvalidConfig  = "INVALID_CONFIG"
)
