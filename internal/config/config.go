package config

import "time"

// GameConfig is the root configuration for a game daemon instance.
type GameConfig struct {
	Instance InstanceConfig `yaml:"instance"`
	Feed     FeedConfig     `yaml:"feed"`
	Database DatabaseConfig `yaml:"database"`
	Oracle   OracleConfig   `yaml:"oracle"`
	Travel   TravelConfig   `yaml:"travel"`
	Writer   WriterConfig   `yaml:"writer"`
	Snapshot SnapshotConfig `yaml:"snapshot"`
	Watcher  WatcherConfig  `yaml:"watcher"`
	Server   ServerConfig   `yaml:"server"`
}

// InstanceConfig identifies this daemon.
type InstanceConfig struct {
	ID string `yaml:"id"`
}

// FeedConfig holds external price feed settings.
type FeedConfig struct {
	RestURL    string        `yaml:"rest_url"`
	WSURL      string        `yaml:"ws_url"`
	APIKey     string        `yaml:"api_key"`
	Timeout    time.Duration `yaml:"timeout"`
	MaxRetries int           `yaml:"max_retries"`
	StaleAfter time.Duration `yaml:"stale_after"` // Streamed quotes older than this are discarded
}

// DatabaseConfig holds the Postgres connection for the trade log.
type DatabaseConfig struct {
	Postgres DBConfig `yaml:"postgres"`
}

// DBConfig holds a single database connection.
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int    `yaml:"max_conns"`
	MinConns int    `yaml:"min_conns"`
}

// OracleConfig holds price oracle settings.
//
// BlendFeed is false by default: the oracle starts in fallback mode and an
// operator enables feed blending once the external feed is confirmed healthy.
type OracleConfig struct {
	BlendFeed           bool  `yaml:"blend_feed"`
	VolatilityAmplifier int64 `yaml:"volatility_amplifier"` // Basis points
	TrendMin            int64 `yaml:"trend_min"`            // Basis points
	TrendMax            int64 `yaml:"trend_max"`            // Basis points
}

// TravelConfig holds travel state machine settings.
type TravelConfig struct {
	DefaultDuration time.Duration `yaml:"default_duration"`
}

// WriterConfig holds trade log writer settings.
type WriterConfig struct {
	BatchSize     int           `yaml:"batch_size"`
	FlushInterval time.Duration `yaml:"flush_interval"`
	BufferSize    int           `yaml:"buffer_size"`
}

// SnapshotConfig holds merchant snapshot writer settings.
type SnapshotConfig struct {
	Interval time.Duration `yaml:"interval"`
}

// WatcherConfig holds reconciliation watcher settings.
type WatcherConfig struct {
	Interval time.Duration `yaml:"interval"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port int `yaml:"port"`
}
