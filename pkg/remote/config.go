// Package remote talks to an external phishing classification service.
package remote

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// DefaultTimeout bounds a remote call when the configuration does not.
const DefaultTimeout = 5 * time.Second

// RedactedKey replaces the API key in Redacted copies.
const RedactedKey = "********"

// Config describes how to reach the remote classifier. Timeout is encoded in
// JSON as milliseconds.
type Config struct {
	Enabled  bool
	Endpoint string
	APIKey   string
	Timeout  time.Duration
}

// DefaultConfig returns a disabled configuration with the default timeout.
func DefaultConfig() Config {
	return Config{Timeout: DefaultTimeout}
}

// Active reports whether remote classification should be attempted. Enabling
// the classifier has no effect until an endpoint is set.
func (c Config) Active() bool {
	return c.Enabled && strings.TrimSpace(c.Endpoint) != ""
}

// Validate checks that an enabled configuration is usable.
func (c Config) Validate() error {
	endpoint := strings.TrimSpace(c.Endpoint)
	if endpoint == "" {
		if c.Enabled {
			return errors.New("remote classifier is enabled but no endpoint is configured")
		}
		return nil
	}
	u, err := url.Parse(endpoint)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid remote endpoint %q: must be an absolute http(s) URL", endpoint)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("invalid remote timeout %s", c.Timeout)
	}
	return nil
}

// EffectiveTimeout returns Timeout, or DefaultTimeout when unset.
func (c Config) EffectiveTimeout() time.Duration {
	if c.Timeout <= 0 {
		return DefaultTimeout
	}
	return c.Timeout
}

// Redacted returns a copy safe to print or log.
func (c Config) Redacted() Config {
	if c.APIKey != "" {
		c.APIKey = RedactedKey
	}
	return c
}

type configJSON struct {
	Enabled  bool   `json:"enabled"`
	Endpoint string `json:"endpoint"`
	APIKey   string `json:"apiKey"`
	Timeout  int64  `json:"timeout"`
}

func (c Config) MarshalJSON() ([]byte, error) {
	return json.Marshal(configJSON{
		Enabled:  c.Enabled,
		Endpoint: c.Endpoint,
		APIKey:   c.APIKey,
		Timeout:  c.Timeout.Milliseconds(),
	})
}

func (c *Config) UnmarshalJSON(data []byte) error {
	raw := configJSON{Timeout: DefaultTimeout.Milliseconds()}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*c = Config{
		Enabled:  raw.Enabled,
		Endpoint: raw.Endpoint,
		APIKey:   raw.APIKey,
		Timeout:  time.Duration(raw.Timeout) * time.Millisecond,
	}
	return nil
}

// ConfigPatch is a partial update. Nil fields are left untouched.
type ConfigPatch struct {
	Enabled  *bool   `json:"enabled,omitempty"`
	Endpoint *string `json:"endpoint,omitempty"`
	APIKey   *string `json:"apiKey,omitempty"`
	// Timeout in milliseconds.
	Timeout *int64 `json:"timeout,omitempty"`
}

// Apply returns c with the non-nil fields of p applied.
func (c Config) Apply(p ConfigPatch) Config {
	if p.Enabled != nil {
		c.Enabled = *p.Enabled
	}
	if p.Endpoint != nil {
		c.Endpoint = strings.TrimSpace(*p.Endpoint)
	}
	if p.APIKey != nil {
		c.APIKey = *p.APIKey
	}
	if p.Timeout != nil {
		c.Timeout = time.Duration(*p.Timeout) * time.Millisecond
	}
	return c
}
