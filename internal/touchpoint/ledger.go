// Package touchpoint maintains the per-identity marketing touchpoint ledger
// and computes attribution weights under the supported models.
package touchpoint

import (
	"math"
	"sync"
	"time"

	"github.com/shopmetrics/conversion-engine/internal/models"
)

// maxTouchpoints bounds the ledger; the oldest entry is evicted first.
const maxTouchpoints = 10

// decayHalfLifeDays is the time-decay constant: weight ∝ exp(-ageDays/7).
const decayHalfLifeDays = 7.0

type deviceLedger struct {
	first       *models.Touchpoint // write-once
	last        *models.Touchpoint // write-always
	touchpoints []models.Touchpoint
}

// Ledger records campaign-bearing arrivals per device id. Direct/organic
// arrivals (no campaign fields) never create touchpoints.
type Ledger struct {
	mu      sync.Mutex
	devices map[string]*deviceLedger

	now func() time.Time
}

// NewLedger constructs an empty Ledger. now overrides the clock in tests;
// nil means time.Now.
func NewLedger(now func() time.Time) *Ledger {
	if now == nil {
		now = time.Now
	}
	return &Ledger{
		devices: make(map[string]*deviceLedger),
		now:     now,
	}
}

// RecordArrival appends a touchpoint when at least one campaign field is
// present. The first-touch record is immutable once written; the last-touch
// record is overwritten every time; the list keeps the most recent 10.
func (l *Ledger) RecordArrival(deviceID string, params models.CampaignParams) {
	if params.Empty() {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	d := l.devices[deviceID]
	if d == nil {
		d = &deviceLedger{}
		l.devices[deviceID] = d
	}

	tp := models.Touchpoint{CampaignParams: params, Timestamp: l.now()}

	if d.first == nil {
		first := tp
		d.first = &first
	}
	last := tp
	d.last = &last

	d.touchpoints = append(d.touchpoints, tp)
	if len(d.touchpoints) > maxTouchpoints {
		d.touchpoints = d.touchpoints[len(d.touchpoints)-maxTouchpoints:]
	}
}

// FirstTouch returns a copy of the immutable first touchpoint, or nil.
func (l *Ledger) FirstTouch(deviceID string) *models.Touchpoint {
	l.mu.Lock()
	defer l.mu.Unlock()

	if d := l.devices[deviceID]; d != nil && d.first != nil {
		tp := *d.first
		return &tp
	}
	return nil
}

// LastTouch returns a copy of the most recent touchpoint, or nil.
func (l *Ledger) LastTouch(deviceID string) *models.Touchpoint {
	l.mu.Lock()
	defer l.mu.Unlock()

	if d := l.devices[deviceID]; d != nil && d.last != nil {
		tp := *d.last
		return &tp
	}
	return nil
}

// Touchpoints returns a copy of the bounded touchpoint list, newest last.
func (l *Ledger) Touchpoints(deviceID string) []models.Touchpoint {
	l.mu.Lock()
	defer l.mu.Unlock()

	d := l.devices[deviceID]
	if d == nil || len(d.touchpoints) == 0 {
		return nil
	}
	out := make([]models.Touchpoint, len(d.touchpoints))
	copy(out, d.touchpoints)
	return out
}

// Attribution computes the weight map for the requested model. Returns nil
// when the model's required inputs do not exist (no touchpoints recorded).
// Weights are keyed by "source/medium/campaign" and sum to 1.0; duplicates of
// the same key accumulate.
func (l *Ledger) Attribution(deviceID string, model models.AttributionModel) *models.Attribution {
	switch model {
	case models.FirstTouch:
		tp := l.FirstTouch(deviceID)
		if tp == nil {
			return nil
		}
		return &models.Attribution{
			Model:       model,
			Touchpoints: []models.Touchpoint{*tp},
			Weights:     map[string]float64{tp.Key(): 1.0},
		}

	case models.LastTouch:
		tp := l.LastTouch(deviceID)
		if tp == nil {
			return nil
		}
		return &models.Attribution{
			Model:       model,
			Touchpoints: []models.Touchpoint{*tp},
			Weights:     map[string]float64{tp.Key(): 1.0},
		}

	case models.Linear:
		tps := l.Touchpoints(deviceID)
		if len(tps) == 0 {
			return nil
		}
		weights := make(map[string]float64, len(tps))
		share := 1.0 / float64(len(tps))
		for _, tp := range tps {
			weights[tp.Key()] += share
		}
		return &models.Attribution{Model: model, Touchpoints: tps, Weights: weights}

	case models.TimeDecay:
		tps := l.Touchpoints(deviceID)
		if len(tps) == 0 {
			return nil
		}
		now := l.now()
		raw := make([]float64, len(tps))
		var total float64
		for i, tp := range tps {
			ageDays := now.Sub(tp.Timestamp).Hours() / 24
			if ageDays < 0 {
				ageDays = 0
			}
			raw[i] = math.Exp(-ageDays / decayHalfLifeDays)
			total += raw[i]
		}
		weights := make(map[string]float64, len(tps))
		for i, tp := range tps {
			weights[tp.Key()] += raw[i] / total
		}
		return &models.Attribution{Model: model, Touchpoints: tps, Weights: weights}
	}

	return nil
}
