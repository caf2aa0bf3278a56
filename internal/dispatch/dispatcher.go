// Package dispatch is the canonical-event entry point: it resolves identity,
// records touchpoints, updates behavior state, fans the event out to every
// enabled destination, and archives the raw event asynchronously.
package dispatch

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/shopmetrics/conversion-engine/internal/behavior"
	"github.com/shopmetrics/conversion-engine/internal/dispatch/destinations"
	"github.com/shopmetrics/conversion-engine/internal/identity"
	"github.com/shopmetrics/conversion-engine/internal/logging"
	"github.com/shopmetrics/conversion-engine/internal/metrics"
	"github.com/shopmetrics/conversion-engine/internal/models"
	"github.com/shopmetrics/conversion-engine/internal/store"
	"github.com/shopmetrics/conversion-engine/internal/touchpoint"
)

// sendTimeout bounds each fire-and-forget destination delivery after the
// originating request has already returned.
const sendTimeout = 10 * time.Second

// Dispatcher wires the engine components behind a single Track call.
type Dispatcher struct {
	ids      *identity.Manager
	ledger   *touchpoint.Ledger
	scorer   *behavior.Scorer
	registry *destinations.Registry
	archive  store.EventArchive

	now func() time.Time
}

// New constructs a Dispatcher. now overrides the clock in tests; nil means
// time.Now.
func New(ids *identity.Manager, ledger *touchpoint.Ledger, scorer *behavior.Scorer, registry *destinations.Registry, archive store.EventArchive, now func() time.Time) *Dispatcher {
	if now == nil {
		now = time.Now
	}
	return &Dispatcher{
		ids:      ids,
		ledger:   ledger,
		scorer:   scorer,
		registry: registry,
		archive:  archive,
		now:      now,
	}
}

// Track processes one canonical event. Destination deliveries and the
// archive write happen off the request path; their failures are logged and
// never surfaced — checkout completes regardless of tracking outcome.
func (d *Dispatcher) Track(ctx context.Context, siteID string, req models.TrackRequest) models.TrackResponse {
	name := models.EventName(req.EventName)

	deviceID := d.ids.GetOrCreateDeviceID(req.DeviceID)
	sess, created := d.ids.GetOrCreateSession(deviceID, req.SessionID, req.Referrer, req.PageURL, req.UserAgent, req.Campaign)
	if created {
		d.scorer.RecordSession(deviceID)
		d.ledger.RecordArrival(deviceID, sess.Campaign)
	} else if name == models.PageView {
		// A mid-session navigation can carry fresh campaign params
		// (e.g. the visitor clicked another ad); record it as a new
		// arrival. The ledger ignores empty params.
		d.ledger.RecordArrival(deviceID, req.Campaign)
	}

	d.scorer.Apply(deviceID, name, req.Data)

	enriched := d.enrich(req.Data, sess.Campaign)

	d.ids.AppendEvent(sess.ID, models.SessionEvent{
		Name:      name,
		Timestamp: d.now(),
		Data:      enriched,
	})

	metrics.EventsTracked.WithLabelValues(string(name)).Inc()

	d.fanOut(name, enriched)
	d.archiveAsync(siteID, deviceID, sess.ID, name, enriched)

	return models.TrackResponse{
		DeviceID:  deviceID,
		SessionID: sess.ID,
		EventName: string(name),
	}
}

// enrich merges the session's arrival campaign parameters into the event
// data without mutating the caller's map. Event data wins on key collision.
func (d *Dispatcher) enrich(data map[string]interface{}, campaign models.CampaignParams) map[string]interface{} {
	out := make(map[string]interface{}, len(data)+6)
	if campaign.Source != "" {
		out["utm_source"] = campaign.Source
	}
	if campaign.Medium != "" {
		out["utm_medium"] = campaign.Medium
	}
	if campaign.Campaign != "" {
		out["utm_campaign"] = campaign.Campaign
	}
	if campaign.Term != "" {
		out["utm_term"] = campaign.Term
	}
	if campaign.Content != "" {
		out["utm_content"] = campaign.Content
	}
	if campaign.ID != "" {
		out["utm_id"] = campaign.ID
	}
	for k, v := range data {
		out[k] = v
	}
	return out
}

// fanOut delivers the event to every enabled destination concurrently. Each
// destination is independent: a missing translation or a failed send is
// logged and skipped, never an error to the caller or to its peers.
func (d *Dispatcher) fanOut(name models.EventName, data map[string]interface{}) {
	for _, client := range d.registry.Clients() {
		mapped, ok := destinations.Translate(client.Platform(), name)
		if !ok {
			metrics.FanoutSends.WithLabelValues(client.Platform(), "unmapped").Inc()
			logging.Debug().
				Str("platform", client.Platform()).
				Str("event", string(name)).
				Msg("no destination translation, event skipped")
			continue
		}

		go func(client destinations.Client, mapped string) {
			ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
			defer cancel()

			if err := client.Send(ctx, mapped, data); err != nil {
				metrics.FanoutSends.WithLabelValues(client.Platform(), "failed").Inc()
				logging.Warn().
					Err(err).
					Str("platform", client.Platform()).
					Str("event", mapped).
					Msg("destination delivery failed")
				return
			}
			metrics.FanoutSends.WithLabelValues(client.Platform(), "sent").Inc()
		}(client, mapped)
	}
}

// archiveAsync persists the raw canonical event off the request path.
// Failures are logged and swallowed; there is no retry.
func (d *Dispatcher) archiveAsync(siteID, deviceID, sessionID string, name models.EventName, data map[string]interface{}) {
	ev := store.ArchivedEvent{
		SiteID:    siteID,
		EventID:   uuid.New().String(),
		DeviceID:  deviceID,
		SessionID: sessionID,
		EventName: name,
		Timestamp: d.now(),
		Data:      data,
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
		defer cancel()

		inserted, err := d.archive.InsertEvent(ctx, ev)
		switch {
		case err != nil:
			metrics.ArchiveWrites.WithLabelValues("error").Inc()
			logging.Warn().Err(err).Str("event", string(name)).Msg("event archive write failed")
		case !inserted:
			metrics.ArchiveWrites.WithLabelValues("duplicate").Inc()
		default:
			metrics.ArchiveWrites.WithLabelValues("ok").Inc()
		}
	}()
}
