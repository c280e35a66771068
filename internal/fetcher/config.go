package fetcher

import "time"

// Defaults applied by WithDefaults when a Config field is zero.
const (
	defaultUserAgent      = "ThreadSync/1.0"
	defaultRequestTimeout = 30 * time.Second
	defaultRequestDelay   = 500 * time.Millisecond
	defaultParallelism    = 2
	defaultMaxPages       = 200
)

// Config holds the tunables for the thread fetcher.
type Config struct {
	// UserAgent sent with every request.
	UserAgent string

	// RequestTimeout bounds a single page request.
	RequestTimeout time.Duration

	// RequestDelay is the pause between requests to the same host.
	RequestDelay time.Duration

	// Parallelism caps concurrent requests to the same host.
	Parallelism int

	// MaxPages caps the pagination walk for a single thread fetch.
	MaxPages int

	// Cookie is sent verbatim as the Cookie header when non-empty,
	// for forums that require an authenticated session.
	Cookie string
}

// WithDefaults returns a copy of the config with zero fields replaced
// by defaults.
func (c Config) WithDefaults() Config {
	if c.UserAgent == "" {
		c.UserAgent = defaultUserAgent
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = defaultRequestTimeout
	}
	if c.RequestDelay <= 0 {
		c.RequestDelay = defaultRequestDelay
	}
	if c.Parallelism <= 0 {
		c.Parallelism = defaultParallelism
	}
	if c.MaxPages <= 0 {
		c.MaxPages = defaultMaxPages
	}
	return c
}
