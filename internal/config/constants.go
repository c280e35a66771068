package config

import "time"

// Default configuration values.
const (
	DefaultServerAddress      = ":8060"
	DefaultServerReadTimeout  = 30 * time.Second
	DefaultServerWriteTimeout = 30 * time.Second
	DefaultServerIdleTimeout  = 60 * time.Second

	DefaultDBHost            = "localhost"
	DefaultDBPort            = 5432
	DefaultDBUser            = "postgres"
	DefaultDBName            = "threadsync"
	DefaultDBSSLMode         = "disable"
	DefaultDBMaxOpenConns    = 25
	DefaultDBMaxIdleConns    = 5
	DefaultDBConnMaxLifetime = 5 * time.Minute

	DefaultUserAgent      = "ThreadSync/1.0"
	DefaultRequestTimeout = 30 * time.Second
	DefaultRequestDelay   = 500 * time.Millisecond
	DefaultParallelism    = 2
	DefaultMaxPages       = 200

	DefaultMaxConcurrentSyncs = 4
	DefaultFetchTimeout       = 5 * time.Minute

	DefaultTimezone = "UTC"

	DefaultSearchIndex   = "threadsync_posts"
	DefaultSearchTimeout = 30 * time.Second

	DefaultLogLevel    = "info"
	DefaultLogEncoding = "console"
)
