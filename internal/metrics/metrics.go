// Package metrics exposes Prometheus instrumentation for the tracking engine:
// ingestion throughput, fan-out outcomes per destination, relay outcomes, and
// idempotency-store activity.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// EventsTracked counts canonical events accepted on /track.
	EventsTracked = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tracking_events_total",
			Help: "Total canonical events accepted for tracking",
		},
		[]string{"event_name"},
	)

	// FanoutSends counts destination deliveries by platform and outcome
	// (sent, failed, unmapped).
	FanoutSends = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fanout_sends_total",
			Help: "Total fan-out deliveries by destination platform and outcome",
		},
		[]string{"platform", "outcome"},
	)

	// RelayRequests counts conversion-relay requests by outcome
	// (forwarded, duplicate, rejected, invalid).
	RelayRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "conversion_relay_requests_total",
			Help: "Total conversion relay requests by outcome",
		},
		[]string{"outcome"},
	)

	// RelayOutboundDuration observes the latency of outbound platform calls.
	RelayOutboundDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "conversion_relay_outbound_duration_seconds",
			Help:    "Duration of outbound conversion-ingestion calls",
			Buckets: prometheus.DefBuckets,
		},
	)

	// IdempotencySweeps counts lazy idempotency-store sweeps and how many
	// expired entries each evicted.
	IdempotencySweeps = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "idempotency_sweeps_total",
			Help: "Total lazy sweeps of the idempotency store",
		},
	)

	// IdempotencyEvictions counts entries evicted by lazy sweeps.
	IdempotencyEvictions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "idempotency_evictions_total",
			Help: "Total expired idempotency entries evicted",
		},
	)

	// ArchiveWrites counts async event-archive writes by outcome.
	ArchiveWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "event_archive_writes_total",
			Help: "Total async event archive writes by outcome (ok, duplicate, error)",
		},
		[]string{"outcome"},
	)
)
