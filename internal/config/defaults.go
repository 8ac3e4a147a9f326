package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultFeedRestURL    = "https://hermes.pyth.network"
	DefaultFeedWSURL      = "wss://hermes.pyth.network/ws"
	DefaultFeedTimeout    = 10 * time.Second
	DefaultFeedMaxRetries = 3
	DefaultFeedStaleAfter = 60 * time.Second

	DefaultDBPort    = 5432
	DefaultDBSSLMode = "prefer"
	DefaultMaxConns  = 10
	DefaultMinConns  = 2

	DefaultVolatilityAmplifier = 30_000 // 3x
	DefaultTrendMin            = 1_000  // 10%
	DefaultTrendMax            = 50_000 // 500%

	DefaultTravelDuration = 5 * time.Second

	DefaultBatchSize     = 500
	DefaultFlushInterval = 1 * time.Second
	DefaultBufferSize    = 4096

	DefaultSnapshotInterval = 30 * time.Second

	DefaultWatchInterval = 2 * time.Second

	DefaultServerPort = 8080
)

func (c *GameConfig) applyDefaults() {
	// Feed defaults
	if c.Feed.RestURL == "" {
		c.Feed.RestURL = DefaultFeedRestURL
	}
	if c.Feed.WSURL == "" {
		c.Feed.WSURL = DefaultFeedWSURL
	}
	if c.Feed.Timeout == 0 {
		c.Feed.Timeout = DefaultFeedTimeout
	}
	if c.Feed.MaxRetries == 0 {
		c.Feed.MaxRetries = DefaultFeedMaxRetries
	}
	if c.Feed.StaleAfter == 0 {
		c.Feed.StaleAfter = DefaultFeedStaleAfter
	}

	// Database defaults
	applyDBDefaults(&c.Database.Postgres)

	// Oracle defaults
	if c.Oracle.VolatilityAmplifier == 0 {
		c.Oracle.VolatilityAmplifier = DefaultVolatilityAmplifier
	}
	if c.Oracle.TrendMin == 0 {
		c.Oracle.TrendMin = DefaultTrendMin
	}
	if c.Oracle.TrendMax == 0 {
		c.Oracle.TrendMax = DefaultTrendMax
	}

	// Travel defaults
	if c.Travel.DefaultDuration == 0 {
		c.Travel.DefaultDuration = DefaultTravelDuration
	}

	// Writer defaults
	if c.Writer.BatchSize == 0 {
		c.Writer.BatchSize = DefaultBatchSize
	}
	if c.Writer.FlushInterval == 0 {
		c.Writer.FlushInterval = DefaultFlushInterval
	}
	if c.Writer.BufferSize == 0 {
		c.Writer.BufferSize = DefaultBufferSize
	}

	// Snapshot defaults
	if c.Snapshot.Interval == 0 {
		c.Snapshot.Interval = DefaultSnapshotInterval
	}

	// Watcher defaults
	if c.Watcher.Interval == 0 {
		c.Watcher.Interval = DefaultWatchInterval
	}

	// Server defaults
	if c.Server.Port == 0 {
		c.Server.Port = DefaultServerPort
	}
}

func applyDBDefaults(db *DBConfig) {
	if db.Port == 0 {
		db.Port = DefaultDBPort
	}
	if db.SSLMode == "" {
		db.SSLMode = DefaultDBSSLMode
	}
	if db.MaxConns == 0 {
		db.MaxConns = DefaultMaxConns
	}
	if db.MinConns == 0 {
		db.MinConns = DefaultMinConns
	}
}
