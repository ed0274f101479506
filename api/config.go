package api

import "fmt"

// Config controls the HTTP server.
type Config struct {
	Addr string `json:"addr"`
	// AuthToken, when set, is required as a Bearer token on /api routes.
	AuthToken string `json:"auth_token"`
	// ReadTimeoutSeconds bounds reading a request, headers included.
	ReadTimeoutSeconds int `json:"read_timeout_seconds"`
}

// SetDefaults applies the listen address and timeouts.
func (c *Config) SetDefaults() {
	if c.Addr == "" {
		c.Addr = ":8080"
	}
	if c.ReadTimeoutSeconds <= 0 {
		c.ReadTimeoutSeconds = 10
	}
}

// Validate checks the listen address.
func (c Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("api: addr is required")
	}
	return nil
}
