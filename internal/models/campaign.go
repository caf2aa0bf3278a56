package models

import "time"

// CampaignParams are the marketing attribution parameters captured from a
// visit's landing URL (utm_* plus click id).
type CampaignParams struct {
	Source   string `json:"utm_source,omitempty"`
	Medium   string `json:"utm_medium,omitempty"`
	Campaign string `json:"utm_campaign,omitempty"`
	Term     string `json:"utm_term,omitempty"`
	Content  string `json:"utm_content,omitempty"`
	ID       string `json:"utm_id,omitempty"`
}

// Empty reports whether no campaign field is set. Direct/organic arrivals are
// empty and never create touchpoints.
func (c CampaignParams) Empty() bool {
	return c.Source == "" && c.Medium == "" && c.Campaign == "" &&
		c.Term == "" && c.Content == "" && c.ID == ""
}

// Touchpoint is one recorded campaign-bearing visit.
type Touchpoint struct {
	CampaignParams
	Timestamp time.Time `json:"timestamp"`
}

// Key renders the attribution key "source/medium/campaign". Missing fields
// render as the literal "direct"/"none" so that organic and paid touchpoints
// aggregate under stable keys.
func (t Touchpoint) Key() string {
	src := t.Source
	if src == "" {
		src = "direct"
	}
	med := t.Medium
	if med == "" {
		med = "none"
	}
	camp := t.Campaign
	if camp == "" {
		camp = "none"
	}
	return src + "/" + med + "/" + camp
}

// AttributionModel selects how conversion credit is split across touchpoints.
type AttributionModel string

const (
	FirstTouch AttributionModel = "first_touch"
	LastTouch  AttributionModel = "last_touch"
	Linear     AttributionModel = "linear"
	TimeDecay  AttributionModel = "time_decay"
)

// ValidAttributionModel reports whether m is a supported model name.
func ValidAttributionModel(m AttributionModel) bool {
	switch m {
	case FirstTouch, LastTouch, Linear, TimeDecay:
		return true
	}
	return false
}

// Attribution is the result of applying one model to an identity's
// touchpoint history. Weights sum to 1.0 across keys.
type Attribution struct {
	Model       AttributionModel   `json:"model"`
	Touchpoints []Touchpoint       `json:"touchpoints"`
	Weights     map[string]float64 `json:"weights"`
}
