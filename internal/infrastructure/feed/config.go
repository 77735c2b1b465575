package feed

import (
	"errors"
	"time"
)

// DefaultBaseURL is the public-auction listing endpoint
const DefaultBaseURL = "http://openapi.onbid.co.kr/openapi/services/KamcoPblsalThingInquireSvc/getKamcoPbctCltrList"

// Config holds configuration for the upstream listing feed
type Config struct {
	// BaseURL is the listing endpoint
	BaseURL string
	// ServiceKey is the credential issued by the data portal
	ServiceKey string
	// Timeout bounds one page request including the body read
	Timeout time.Duration
	// RequestsPerSecond caps the outbound request rate across all workers
	RequestsPerSecond float64
	// Burst is the limiter bucket size
	Burst int
	// MaxResponseBytes caps how much of a page body is read
	MaxResponseBytes int64
}

// Errors for feed configuration
var (
	ErrMissingBaseURL    = errors.New("feed: base url is required")
	ErrMissingServiceKey = errors.New("feed: service key is required")
	ErrInvalidRate       = errors.New("feed: requests per second must be positive")
)

// DefaultConfig returns a configuration with defaults and the given credential
func DefaultConfig(serviceKey string) Config {
	return Config{
		BaseURL:           DefaultBaseURL,
		ServiceKey:        serviceKey,
		Timeout:           60 * time.Second,
		RequestsPerSecond: 5,
		Burst:             5,
		MaxResponseBytes:  256 << 20,
	}
}

// Validate validates the feed configuration and fills zero-valued limits
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return ErrMissingBaseURL
	}
	if c.ServiceKey == "" {
		return ErrMissingServiceKey
	}
	if c.RequestsPerSecond <= 0 {
		return ErrInvalidRate
	}
	if c.Burst <= 0 {
		c.Burst = 1
	}
	if c.Timeout <= 0 {
		c.Timeout = 60 * time.Second
	}
	if c.MaxResponseBytes <= 0 {
		c.MaxResponseBytes = 256 << 20
	}
	return nil
}
