package behavior

import (
	"time"

	"github.com/shopmetrics/conversion-engine/internal/models"
)

// Segment derives the marketing segment for a record. The branch order is a
// fixed priority: a churned high-spender must surface as at_risk, never
// loyal, regardless of historical purchase count.
func Segment(rec models.BehaviorRecord) models.CustomerSegment {
	switch {
	case rec.LifecycleStage == models.StageLoyalCustomer:
		return models.CustomerSegment{Segment: "loyal", Value: "high"}

	case rec.LifecycleStage == models.StageCustomer:
		seg := "returning"
		if rec.PurchaseCount == 1 {
			seg = "first_time"
		}
		value := "medium"
		if rec.AvgOrderValue > 100 {
			value = "high"
		}
		return models.CustomerSegment{Segment: seg, Value: value}

	case rec.LifecycleStage == models.StageChurned:
		value := "medium"
		if rec.TotalRevenue > 200 {
			value = "high"
		}
		return models.CustomerSegment{Segment: "at_risk", Value: value}

	case rec.CartAdds > 0 || rec.WishlistAdds > 0:
		value := "low"
		if rec.ConversionProbability > 50 {
			value = "medium"
		}
		return models.CustomerSegment{Segment: "engaged", Value: value}

	case rec.TotalPageViews > 10:
		return models.CustomerSegment{Segment: "browsers", Value: "low"}
	}

	return models.CustomerSegment{Segment: "visitors", Value: "low"}
}

// Audiences derives retargeting audience membership. Each predicate is
// evaluated independently; a record can belong to several audiences at once.
func Audiences(rec models.BehaviorRecord, now time.Time) []string {
	var out []string

	if rec.CartAdds > 0 && rec.PurchaseCount == 0 &&
		!rec.LastSeenAt.IsZero() && now.Sub(rec.LastSeenAt) <= 7*24*time.Hour {
		out = append(out, models.AudienceCartAbandoners)
	}
	if len(rec.ProductsViewed) >= 1 && rec.CartAdds == 0 {
		out = append(out, models.AudienceProductViewers)
	}
	if rec.PurchaseCount > 0 && !rec.LastPurchaseAt.IsZero() &&
		now.Sub(rec.LastPurchaseAt) <= 90*24*time.Hour {
		out = append(out, models.AudiencePastPurchasers)
	}
	if rec.SessionCount >= 3 && rec.TotalPageViews >= 10 {
		out = append(out, models.AudienceHighIntent)
	}
	if rec.ChurnRisk > 50 {
		out = append(out, models.AudienceWinBack)
	}

	return out
}
