// Package destinations holds the fan-out destination clients and the
// per-platform event vocabulary tables. A destination that is not configured
// is simply absent from the registry; it is never probed at dispatch time.
package destinations

import (
	"context"

	"github.com/shopmetrics/conversion-engine/internal/models"
)

// Client delivers one translated event to a destination platform.
// Implementations must be safe for concurrent use.
type Client interface {
	// Platform is the registry key, e.g. "meta".
	Platform() string
	// Send delivers the already-translated event name with enriched data.
	Send(ctx context.Context, event string, data map[string]interface{}) error
}

// Registry is the fixed set of enabled destinations, built once at startup
// from configuration.
type Registry struct {
	clients []Client
}

// NewRegistry builds a registry over the given clients. Clients whose
// platform has no mapping table are dropped at construction, not probed
// repeatedly at dispatch time.
func NewRegistry(clients ...Client) *Registry {
	r := &Registry{}
	for _, c := range clients {
		if _, ok := mappings[c.Platform()]; !ok {
			continue
		}
		r.clients = append(r.clients, c)
	}
	return r
}

// Clients returns the enabled destination clients.
func (r *Registry) Clients() []Client {
	return r.clients
}

// Translate looks up the platform's vocabulary for a canonical event.
// ok=false means the platform has no translation and the event is skipped
// for that destination.
func Translate(platform string, name models.EventName) (string, bool) {
	table, ok := mappings[platform]
	if !ok {
		return "", false
	}
	mapped, ok := table[name]
	return mapped, ok
}

// Platforms returns the platform names that have mapping tables.
func Platforms() []string {
	out := make([]string, 0, len(mappings))
	for p := range mappings {
		out = append(out, p)
	}
	return out
}
