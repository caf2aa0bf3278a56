package store

import (
	"context"
	"sync"
	"time"

	"github.com/shopmetrics/conversion-engine/internal/models"
)

// ArchivedEvent is the durable form of one tracked canonical event.
type ArchivedEvent struct {
	SiteID    string
	EventID   string
	DeviceID  string
	SessionID string
	EventName models.EventName
	Timestamp time.Time
	Data      map[string]interface{}
}

// EventArchive is the async storage sink the dispatcher writes tracked
// events to. Implementations must be safe for concurrent use. Postgres backs
// production; the in-memory archive backs tests and credential-less dev.
type EventArchive interface {
	// InsertEvent persists ev, returning inserted=false for duplicates
	// (same site + event id).
	InsertEvent(ctx context.Context, ev ArchivedEvent) (bool, error)
	// Ping reports whether the backing store is reachable.
	Ping(ctx context.Context) error
	Close()
}

// MemoryArchive is a process-local EventArchive used in tests and when no
// DB_URL is configured.
type MemoryArchive struct {
	mu     sync.Mutex
	events []ArchivedEvent
	seen   map[[2]string]struct{} // (siteID, eventID)
}

// NewMemoryArchive constructs an empty in-memory archive.
func NewMemoryArchive() *MemoryArchive {
	return &MemoryArchive{seen: make(map[[2]string]struct{})}
}

// InsertEvent stores ev, deduplicating on (site, event id) like the
// Postgres implementation's unique constraint.
func (m *MemoryArchive) InsertEvent(_ context.Context, ev ArchivedEvent) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := [2]string{ev.SiteID, ev.EventID}
	if _, dup := m.seen[key]; dup {
		return false, nil
	}
	m.seen[key] = struct{}{}
	m.events = append(m.events, ev)
	return true, nil
}

// Ping always succeeds for the in-memory archive.
func (m *MemoryArchive) Ping(context.Context) error { return nil }

// Close is a no-op.
func (m *MemoryArchive) Close() {}

// Events returns a copy of everything archived so far, oldest first.
func (m *MemoryArchive) Events() []ArchivedEvent {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]ArchivedEvent, len(m.events))
	copy(out, m.events)
	return out
}
