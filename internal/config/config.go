package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is the explicit runtime configuration for the engine, constructed
// once at process start and passed into each component. No component reads
// ambient environment state after boot.
type Config struct {
	ListenAddr string `env:"LISTEN_ADDR" envDefault:":8080"`

	// DBURL enables the durable Postgres event archive. Empty means the
	// in-memory archive is used (single-instance / local dev).
	DBURL string `env:"DB_URL"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	// APIKeys format: "site1:key1,site2:key2" (maps apiKey -> siteID).
	APIKeysRaw string            `env:"API_KEYS"`
	APIKeys    map[string]string `env:"-"`

	Relay        RelayConfig        `envPrefix:"RELAY_"`
	Destinations DestinationsConfig `envPrefix:"DEST_"`

	// DestinationsFile optionally points at a YAML file overriding
	// destination endpoints (test sinks, regional endpoints).
	DestinationsFile string `env:"DESTINATIONS_FILE"`
}

// RelayConfig configures the server-side conversion relay.
type RelayConfig struct {
	PixelID     string `env:"PIXEL_ID"`
	AccessToken string `env:"ACCESS_TOKEN"`
	// TestEventCode routes forwarded events to the platform's test
	// console when set.
	TestEventCode string `env:"TEST_EVENT_CODE"`
	// APIBase is the conversion-ingestion endpoint prefix.
	APIBase string `env:"API_BASE" envDefault:"https://graph.facebook.com/v18.0"`

	// Timeout bounds the outbound platform call.
	Timeout time.Duration `env:"TIMEOUT" envDefault:"10s"`
	// IdempotencyTTL is the Purchase deduplication window.
	IdempotencyTTL time.Duration `env:"IDEMPOTENCY_TTL" envDefault:"1h"`
}

// Configured reports whether both required relay secrets are present.
func (r RelayConfig) Configured() bool {
	return r.PixelID != "" && r.AccessToken != ""
}

// MaskedPixelID returns "***" plus the last four characters of the pixel id,
// for health probes that must not reveal the credential. Ids of four
// characters or fewer are masked entirely.
func (r RelayConfig) MaskedPixelID() string {
	if r.PixelID == "" {
		return ""
	}
	if len(r.PixelID) <= 4 {
		return "***"
	}
	return "***" + r.PixelID[len(r.PixelID)-4:]
}

// DestinationConfig configures one fan-out destination. A destination with an
// empty credential is disabled; that is never an error.
type DestinationConfig struct {
	Credential string `env:"CREDENTIAL"`
	Endpoint   string `env:"ENDPOINT"`
}

// Enabled reports whether the destination participates in fan-out.
func (d DestinationConfig) Enabled() bool { return d.Credential != "" }

// DestinationsConfig holds the per-platform fan-out destinations.
type DestinationsConfig struct {
	Meta      DestinationConfig `envPrefix:"META_"`
	Google    DestinationConfig `envPrefix:"GOOGLE_"`
	TikTok    DestinationConfig `envPrefix:"TIKTOK_"`
	Pinterest DestinationConfig `envPrefix:"PINTEREST_"`
	Snapchat  DestinationConfig `envPrefix:"SNAPCHAT_"`
}

// Load reads configuration from environment variables and applies the
// optional destinations override file.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	keys, err := parseAPIKeys(cfg.APIKeysRaw)
	if err != nil {
		return Config{}, err
	}
	cfg.APIKeys = keys

	if cfg.DestinationsFile != "" {
		if err := cfg.applyDestinationsFile(cfg.DestinationsFile); err != nil {
			return Config{}, err
		}
	}

	return cfg, nil
}

// parseAPIKeys parses "site1:key1,site2:key2" into apiKey -> siteID.
func parseAPIKeys(raw string) (map[string]string, error) {
	keys := map[string]string{}
	raw = strings.TrimSpace(raw)
	if raw != "" {
		for _, p := range strings.Split(raw, ",") {
			p = strings.TrimSpace(p)
			if p == "" {
				continue
			}
			parts := strings.SplitN(p, ":", 2)
			if len(parts) != 2 {
				return nil, errors.New(`API_KEYS must be "site:key,site:key"`)
			}
			site := strings.TrimSpace(parts[0])
			key := strings.TrimSpace(parts[1])
			if site == "" || key == "" {
				return nil, errors.New(`API_KEYS must be "site:key,site:key"`)
			}
			keys[key] = site
		}
	}

	// Local dev fallback so the service runs out-of-the-box.
	if len(keys) == 0 {
		keys["site-key-123"] = "site1"
	}
	return keys, nil
}
