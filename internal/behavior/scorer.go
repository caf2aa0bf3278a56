// Package behavior maintains the per-identity behavior record: engagement
// counters, lifecycle stage, conversion-probability and churn-risk scores,
// and the segment/audience projections derived from them.
package behavior

import (
	"sync"
	"time"

	"github.com/shopmetrics/conversion-engine/internal/models"
)

// Lifecycle thresholds and scoring constants.
const (
	leadPageViewThreshold  = 5  // visitor -> lead once totalPageViews exceeds this
	loyalPurchaseThreshold = 3  // customer -> loyal_customer at this cumulative count
	churnGraceDays         = 60 // churn risk is 0 up to here
	churnedAfterDays       = 90 // beyond here the stage is forced to churned
)

// Scorer holds one BehaviorRecord per device id. Records are created on the
// first event for a new identity and mutated on every subsequent one; they
// are removed only by explicit Reset.
type Scorer struct {
	mu      sync.Mutex
	records map[string]*models.BehaviorRecord

	now func() time.Time
}

// NewScorer constructs an empty Scorer. now overrides the clock in tests;
// nil means time.Now.
func NewScorer(now func() time.Time) *Scorer {
	if now == nil {
		now = time.Now
	}
	return &Scorer{
		records: make(map[string]*models.BehaviorRecord),
		now:     now,
	}
}

func (s *Scorer) getOrCreate(deviceID string) *models.BehaviorRecord {
	rec := s.records[deviceID]
	if rec == nil {
		rec = &models.BehaviorRecord{
			DeviceID:         deviceID,
			ProductsViewed:   make(map[string]struct{}),
			CategoriesViewed: make(map[string]struct{}),
			ContentViewed:    make(map[string]struct{}),
			LifecycleStage:   models.StageVisitor,
			FirstSeenAt:      s.now(),
		}
		s.records[deviceID] = rec
	}
	return rec
}

// RecordSession increments the session counter; called once per new session.
func (s *Scorer) RecordSession(deviceID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := s.getOrCreate(deviceID)
	rec.SessionCount++
	rec.LastSeenAt = s.now()
}

// Apply folds one canonical event into the identity's record and returns a
// snapshot of the updated state.
func (s *Scorer) Apply(deviceID string, name models.EventName, data map[string]interface{}) models.BehaviorRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := s.getOrCreate(deviceID)
	now := s.now()
	rec.LastSeenAt = now

	switch name {
	case models.PageView:
		rec.TotalPageViews++
		if rec.LifecycleStage == models.StageVisitor && rec.TotalPageViews > leadPageViewThreshold {
			rec.LifecycleStage = models.StageLead
		}

	case models.ViewContent:
		if id := stringField(data, "product_id", "content_id"); id != "" {
			if _, seen := rec.ProductsViewed[id]; !seen {
				rec.ProductsViewed[id] = struct{}{}
				rec.ConversionProbability = clampScore(rec.ConversionProbability + 5)
			}
		}
		if cat := stringField(data, "category", "content_category"); cat != "" {
			rec.CategoriesViewed[cat] = struct{}{}
		}
		if name := stringField(data, "content_name"); name != "" {
			rec.ContentViewed[name] = struct{}{}
		}

	case models.Search:
		rec.SearchCount++

	case models.AddToCart:
		rec.CartAdds++
		rec.ConversionProbability = clampScore(rec.ConversionProbability + 15)

	case models.AddToWishlist:
		rec.WishlistAdds++
		rec.ConversionProbability = clampScore(rec.ConversionProbability + 10)

	case models.InitiateCheckout:
		rec.ConversionProbability = clampScore(rec.ConversionProbability + 25)

	case models.CompleteRegistration:
		rec.ConversionProbability = clampScore(rec.ConversionProbability + 20)
		if rec.LifecycleStage == models.StageVisitor {
			rec.LifecycleStage = models.StageLead
		}

	case models.Purchase:
		rec.PurchaseCount++
		rec.TotalRevenue += floatField(data, "value")
		rec.AvgOrderValue = rec.TotalRevenue / float64(rec.PurchaseCount)
		rec.LastPurchaseAt = now

		// Purchase sets a flat probability, not an additive delta, and
		// a purchase always clears churn (a churned identity reverts).
		rec.ConversionProbability = 80
		rec.ChurnRisk = 0
		if rec.PurchaseCount >= loyalPurchaseThreshold {
			rec.LifecycleStage = models.StageLoyalCustomer
		} else {
			rec.LifecycleStage = models.StageCustomer
		}
	}

	s.refreshChurn(rec)
	return snapshot(rec)
}

// Record returns a snapshot of the identity's record with churn risk and
// stage re-evaluated against the current clock, or false if no record
// exists yet.
func (s *Scorer) Record(deviceID string) (models.BehaviorRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := s.records[deviceID]
	if rec == nil {
		return models.BehaviorRecord{}, false
	}
	s.refreshChurn(rec)
	return snapshot(rec), true
}

// Memberships returns the record's retargeting audience memberships evaluated
// against the scorer's clock, so the recency windows stay deterministic under
// an injected clock.
func (s *Scorer) Memberships(rec models.BehaviorRecord) []string {
	return Audiences(rec, s.now())
}

// Reset removes the identity's record. The only way a record is deleted.
func (s *Scorer) Reset(deviceID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, deviceID)
}

// refreshChurn applies the churn-risk formula against lastPurchaseAt:
// 0 while within the 60-day grace window, (days-60)*1.5 between 60 and 90
// days, and (days-90)*2 with the stage forced to churned beyond 90 days.
// Only identities that have purchased are subject to churn.
func (s *Scorer) refreshChurn(rec *models.BehaviorRecord) {
	if rec.PurchaseCount == 0 || rec.LastPurchaseAt.IsZero() {
		return
	}

	days := s.now().Sub(rec.LastPurchaseAt).Hours() / 24
	switch {
	case days <= churnGraceDays:
		rec.ChurnRisk = 0
	case days <= churnedAfterDays:
		rec.ChurnRisk = clampScore((days - churnGraceDays) * 1.5)
	default:
		rec.ChurnRisk = clampScore((days - churnedAfterDays) * 2)
		rec.LifecycleStage = models.StageChurned
	}
}

func clampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// snapshot copies the record so callers never observe later mutations. The
// interaction sets are copied shallowly into fresh maps.
func snapshot(rec *models.BehaviorRecord) models.BehaviorRecord {
	out := *rec
	out.ProductsViewed = copySet(rec.ProductsViewed)
	out.CategoriesViewed = copySet(rec.CategoriesViewed)
	out.ContentViewed = copySet(rec.ContentViewed)
	return out
}

func copySet(in map[string]struct{}) map[string]struct{} {
	out := make(map[string]struct{}, len(in))
	for k := range in {
		out[k] = struct{}{}
	}
	return out
}

// stringField returns the first present non-empty string among keys.
func stringField(data map[string]interface{}, keys ...string) string {
	for _, k := range keys {
		if v, ok := data[k].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

// floatField returns data[key] as a float64, accepting JSON numbers and
// integer literals.
func floatField(data map[string]interface{}, key string) float64 {
	switch v := data[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	}
	return 0
}
