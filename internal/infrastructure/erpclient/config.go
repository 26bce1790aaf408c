package erpclient

import (
	"errors"
	"net/url"
	"time"
)

// Config holds the remote ERP web service settings.
type Config struct {
	// BaseURL is the REST root, for example https://erp.example.com/services/rest/v1
	BaseURL string
	// Token is sent as a bearer token on every call.
	Token string
	// Timeout bounds a single HTTP round trip.
	Timeout time.Duration
	// RateLimitRPS caps outbound calls per second; zero disables limiting.
	RateLimitRPS float64
	RateBurst    int
	UserAgent    string
}

// Errors for client configuration
var (
	ErrConfigMissingBaseURL = errors.New("erpclient: base URL is required")
	ErrConfigInvalidBaseURL = errors.New("erpclient: base URL must be absolute")
	ErrConfigMissingToken   = errors.New("erpclient: token is required")
)

const (
	defaultTimeout   = 30 * time.Second
	defaultUserAgent = "ordersync/1.0"
)

// Validate checks the configuration and fills defaults.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return ErrConfigMissingBaseURL
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ErrConfigInvalidBaseURL
	}
	if c.Token == "" {
		return ErrConfigMissingToken
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	if c.RateBurst <= 0 {
		c.RateBurst = 1
	}
	if c.UserAgent == "" {
		c.UserAgent = defaultUserAgent
	}
	return nil
}
