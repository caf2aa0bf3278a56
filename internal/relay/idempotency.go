package relay

import (
	"sync"
	"time"
)

// IdempotencyStore tracks forwarded Purchase event ids so the second
// delivery of the same conversion (pixel + server) is suppressed. Entries
// expire after the TTL; eviction is lazy via Sweep. The interface exists so
// a multi-instance deployment can substitute a shared TTL-capable store
// without touching the forwarder.
type IdempotencyStore interface {
	// Seen reports whether eventID was marked within the last ttl.
	Seen(eventID string, ttl time.Duration) bool
	// Mark records eventID as forwarded now.
	Mark(eventID string)
	// Sweep evicts entries older than ttl and returns how many it removed.
	Sweep(ttl time.Duration) int
}

// MemoryIdempotencyStore is the process-local IdempotencyStore.
type MemoryIdempotencyStore struct {
	mu      sync.Mutex
	entries map[string]time.Time // eventID -> firstSeenAt

	now func() time.Time
}

// NewMemoryIdempotencyStore constructs an empty store. now overrides the
// clock in tests; nil means time.Now.
func NewMemoryIdempotencyStore(now func() time.Time) *MemoryIdempotencyStore {
	if now == nil {
		now = time.Now
	}
	return &MemoryIdempotencyStore{
		entries: make(map[string]time.Time),
		now:     now,
	}
}

// Seen reports whether eventID is present and younger than ttl. Expired
// entries are left for Sweep; they no longer suppress.
func (s *MemoryIdempotencyStore) Seen(eventID string, ttl time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	firstSeen, ok := s.entries[eventID]
	if !ok {
		return false
	}
	return s.now().Sub(firstSeen) < ttl
}

// Mark records eventID with the current time. Re-marking refreshes the
// first-seen timestamp only if the entry had expired.
func (s *MemoryIdempotencyStore) Mark(eventID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[eventID] = s.now()
}

// Sweep removes entries older than ttl.
func (s *MemoryIdempotencyStore) Sweep(ttl time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-ttl)
	evicted := 0
	for id, firstSeen := range s.entries {
		if firstSeen.Before(cutoff) {
			delete(s.entries, id)
			evicted++
		}
	}
	return evicted
}

// Len returns the current entry count (expired entries included until swept).
func (s *MemoryIdempotencyStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
