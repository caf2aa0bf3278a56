package models

import "time"

// LifecycleStage is the coarse customer-maturity classification.
type LifecycleStage string

const (
	StageVisitor       LifecycleStage = "visitor"
	StageLead          LifecycleStage = "lead"
	StageCustomer      LifecycleStage = "customer"
	StageLoyalCustomer LifecycleStage = "loyal_customer"
	StageChurned       LifecycleStage = "churned"
)

// BehaviorRecord is the per-identity rolling behavior state. One record per
// device id, created on first event, mutated on every subsequent event.
type BehaviorRecord struct {
	DeviceID string `json:"device_id"`

	// Engagement counters.
	SessionCount   int `json:"session_count"`
	TotalPageViews int `json:"total_page_views"`
	SearchCount    int `json:"search_count"`

	// Product/category interaction sets (ids seen at least once).
	ProductsViewed   map[string]struct{} `json:"-"`
	CategoriesViewed map[string]struct{} `json:"-"`
	ContentViewed    map[string]struct{} `json:"-"`

	// Cart/wishlist counters.
	CartAdds     int `json:"cart_adds"`
	WishlistAdds int `json:"wishlist_adds"`

	// Purchase counters.
	PurchaseCount  int       `json:"purchase_count"`
	TotalRevenue   float64   `json:"total_revenue"`
	AvgOrderValue  float64   `json:"avg_order_value"`
	LastPurchaseAt time.Time `json:"last_purchase_at,omitempty"`

	LifecycleStage        LifecycleStage `json:"lifecycle_stage"`
	ConversionProbability float64        `json:"conversion_probability"`
	ChurnRisk             float64        `json:"churn_risk"`

	FirstSeenAt time.Time `json:"first_seen_at"`
	LastSeenAt  time.Time `json:"last_seen_at"`
}

// CustomerSegment is a derived marketing segment plus a value tier.
type CustomerSegment struct {
	Segment string `json:"segment"` // loyal, first_time, returning, at_risk, engaged, browsers, visitors
	Value   string `json:"value"`   // high, medium, low
}

// Audience names for retargeting list membership. A record can belong to
// several at once.
const (
	AudienceCartAbandoners = "cart_abandoners"
	AudienceProductViewers = "product_viewers"
	AudiencePastPurchasers = "past_purchasers"
	AudienceHighIntent     = "high_intent"
	AudienceWinBack        = "win_back"
)
