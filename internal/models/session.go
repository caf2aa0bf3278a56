package models

import "time"

// DeviceClass is the coarse hardware classification derived from user agent.
type DeviceClass string

const (
	DeviceMobile  DeviceClass = "mobile"
	DeviceTablet  DeviceClass = "tablet"
	DeviceDesktop DeviceClass = "desktop"
)

// SessionEvent is one canonical event recorded against a session.
type SessionEvent struct {
	Name      EventName              `json:"event_name"`
	Timestamp time.Time              `json:"timestamp"`
	Data      map[string]interface{} `json:"data,omitempty"`
}

// SessionRecord captures one visit: start context plus the events that
// occurred during it.
type SessionRecord struct {
	ID         string      `json:"session_id"`
	DeviceID   string      `json:"device_id"`
	StartedAt  time.Time   `json:"started_at"`
	Referrer   string      `json:"referrer,omitempty"`
	LandingURL string      `json:"landing_url,omitempty"`
	Device     DeviceClass `json:"device"`
	OS         string      `json:"os"`
	Browser    string      `json:"browser"`

	Campaign CampaignParams `json:"campaign,omitempty"`
	Events   []SessionEvent `json:"events,omitempty"`
}
