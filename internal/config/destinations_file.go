package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// destinationsFile is the YAML override document. Only non-empty fields
// override what the environment provided.
type destinationsFile struct {
	Destinations map[string]struct {
		Credential string `yaml:"credential"`
		Endpoint   string `yaml:"endpoint"`
	} `yaml:"destinations"`
}

// applyDestinationsFile merges a YAML destinations file over the
// environment-derived destination config. Unknown platform names are an
// error so typos do not silently disable a destination.
func (c *Config) applyDestinationsFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read destinations file: %w", err)
	}

	var f destinationsFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return fmt.Errorf("parse destinations file: %w", err)
	}

	for name, ov := range f.Destinations {
		var dst *DestinationConfig
		switch name {
		case "meta":
			dst = &c.Destinations.Meta
		case "google":
			dst = &c.Destinations.Google
		case "tiktok":
			dst = &c.Destinations.TikTok
		case "pinterest":
			dst = &c.Destinations.Pinterest
		case "snapchat":
			dst = &c.Destinations.Snapchat
		default:
			return fmt.Errorf("destinations file: unknown platform %q", name)
		}
		if ov.Credential != "" {
			dst.Credential = ov.Credential
		}
		if ov.Endpoint != "" {
			dst.Endpoint = ov.Endpoint
		}
	}
	return nil
}
