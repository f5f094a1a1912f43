package client

import (
	"fmt"
	"runtime"
	"strconv"
	"strings"
)

// LibraryVersion is the library version reported in the default user agent.
const LibraryVersion = "0.1.0"

// DefaultType is the entity type used when none is configured.
const DefaultType = "default"

// Config describes how to reach the broker.
type Config struct {
	// URL is the broker base URL. Entity paths are resolved relative to it, so
	// a path prefix needs a trailing slash.
	URL       string `json:"url" mapstructure:"url"`
	AuthToken string `json:"auth_token" mapstructure:"auth_token"`
	// Type is the entity type every operation is scoped to.
	Type string `json:"type,omitempty" mapstructure:"type"`
	// StrictSSL controls TLS certificate verification. Only an explicit false
	// disables it.
	StrictSSL *bool  `json:"strictssl,omitempty" mapstructure:"strictssl"`
	UserAgent string `json:"user_agent,omitempty" mapstructure:"user_agent"`
}

// Normalize returns a copy of c with defaults filled in.
func (c Config) Normalize() Config {
	if c.Type == "" {
		c.Type = DefaultType
	}
	if c.StrictSSL == nil || *c.StrictSSL {
		strict := true
		c.StrictSSL = &strict
	}
	if c.UserAgent == "" {
		c.UserAgent = DefaultUserAgent()
	}
	return c
}

// Strict reports whether TLS certificates are verified.
func (c Config) Strict() bool {
	return c.StrictSSL == nil || *c.StrictSSL
}

// DefaultUserAgent identifies the library, the Go runtime and the platform.
func DefaultUserAgent() string {
	return fmt.Sprintf("ngsi-client-go/%s (+https://github.com/joelanford/ngsi-client-go) go/%s (%s; %s)",
		LibraryVersion, strings.TrimPrefix(runtime.Version(), "go"), runtime.GOOS, runtime.GOARCH)
}

// ConfigFromSettings builds a normalized Config from loosely typed settings,
// such as viper's AllSettings or a decoded YAML document. Values of the wrong
// type are treated as absent.
func ConfigFromSettings(settings map[string]any) Config {
	var cfg Config
	cfg.URL, _ = settings["url"].(string)
	cfg.AuthToken, _ = settings["auth_token"].(string)
	cfg.Type, _ = settings["type"].(string)
	cfg.UserAgent, _ = settings["user_agent"].(string)

	switch v := settings["strictssl"].(type) {
	case bool:
		cfg.StrictSSL = &v
	case string:
		if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			cfg.StrictSSL = &b
		}
	}
	return cfg.Normalize()
}
