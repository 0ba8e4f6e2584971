package square

import (
	"errors"
	"time"
)

const (
	// ProductionBaseURL is the production API endpoint
	ProductionBaseURL = "https://connect.squareup.com"
	// SandboxBaseURL is the sandbox API endpoint
	SandboxBaseURL = "https://connect.squareupsandbox.com"

	// apiVersion is sent on every request; Square versions breaking
	// changes behind this header
	apiVersion = "2024-01-18"
)

// ErrConfigMissingBaseURL indicates the adapter was built without an API host
var ErrConfigMissingBaseURL = errors.New("square: base URL is required")

// Config holds configuration for the Square API adapter
type Config struct {
	// BaseURL is the API host (production or sandbox)
	BaseURL string
	// Timeout is the per-request HTTP timeout
	Timeout time.Duration
}

// NewConfig creates a production configuration with defaults
func NewConfig() Config {
	return Config{
		BaseURL: ProductionBaseURL,
		Timeout: 30 * time.Second,
	}
}

// Validate checks the configuration for required fields
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return ErrConfigMissingBaseURL
	}
	if c.Timeout == 0 {
		c.Timeout = 30 * time.Second
	}
	return nil
}
