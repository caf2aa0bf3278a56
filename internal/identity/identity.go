// Package identity assigns and tracks the stable device identifier and the
// per-visit session for each client. It performs no network or blocking I/O;
// everything is local state construction.
package identity

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/shopmetrics/conversion-engine/internal/models"
)

// Manager issues device and session identifiers and keeps the live session
// records. Device ids, once issued, are never regenerated for the same
// client; session ids are regenerated each visit.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*models.SessionRecord // sessionID -> record
	devices  map[string]struct{}              // known device ids

	now func() time.Time
}

// NewManager constructs an empty Manager. now overrides the clock in tests;
// nil means time.Now.
func NewManager(now func() time.Time) *Manager {
	if now == nil {
		now = time.Now
	}
	return &Manager{
		sessions: make(map[string]*models.SessionRecord),
		devices:  make(map[string]struct{}),
		now:      now,
	}
}

// GetOrCreateDeviceID returns the supplied device id (registering it if
// unseen) or issues a fresh one when the client has none yet.
func (m *Manager) GetOrCreateDeviceID(deviceID string) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	if deviceID == "" {
		deviceID = uuid.New().String()
	}
	m.devices[deviceID] = struct{}{}
	return deviceID
}

// StartSession creates a new session for the device, capturing arrival
// context. The previous session, if any, is left untouched; callers hold the
// returned session id for the rest of the visit.
func (m *Manager) StartSession(deviceID, referrer, landingURL, userAgent string, campaign models.CampaignParams) *models.SessionRecord {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := &models.SessionRecord{
		ID:         uuid.New().String(),
		DeviceID:   deviceID,
		StartedAt:  m.now(),
		Referrer:   referrer,
		LandingURL: landingURL,
		Device:     ClassifyDevice(userAgent),
		OS:         ClassifyOS(userAgent),
		Browser:    ClassifyBrowser(userAgent),
		Campaign:   campaign,
	}
	m.sessions[s.ID] = s
	return s
}

// Session returns the live session record for id, or nil if unknown.
func (m *Manager) Session(id string) *models.SessionRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessions[id]
}

// AppendEvent records a canonical event against the session's event list.
// Unknown session ids are ignored; the caller has already resolved the
// session via GetOrCreateSession.
func (m *Manager) AppendEvent(sessionID string, ev models.SessionEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.sessions[sessionID]; ok {
		s.Events = append(s.Events, ev)
	}
}

// GetOrCreateSession resolves the session for a request: reuse the supplied
// live session, or lazily start a new one (the dispatcher initializes the
// session on the first tracked event of a visit). created reports whether a
// new session was started.
func (m *Manager) GetOrCreateSession(deviceID, sessionID, referrer, landingURL, userAgent string, campaign models.CampaignParams) (s *models.SessionRecord, created bool) {
	if sessionID != "" {
		if s := m.Session(sessionID); s != nil && s.DeviceID == deviceID {
			return s, false
		}
	}
	return m.StartSession(deviceID, referrer, landingURL, userAgent, campaign), true
}
