package config

import (
	"errors"
	"fmt"
)

// Validate checks that all required fields are set and values are valid.
func (c *GameConfig) Validate() error {
	if c.Instance.ID == "" {
		return errors.New("instance.id is required")
	}

	if c.Feed.RestURL == "" {
		return errors.New("feed.rest_url is required")
	}
	if c.Feed.MaxRetries < 0 {
		return errors.New("feed.max_retries must be >= 0")
	}

	// An empty host runs the daemon without persistence.
	if c.Database.Postgres.Host != "" {
		if err := c.Database.Postgres.validate("database.postgres"); err != nil {
			return err
		}
	}

	if c.Oracle.VolatilityAmplifier < 1 {
		return errors.New("oracle.volatility_amplifier must be >= 1")
	}
	if c.Oracle.TrendMin < 1 {
		return errors.New("oracle.trend_min must be >= 1")
	}
	if c.Oracle.TrendMax < c.Oracle.TrendMin {
		return fmt.Errorf("oracle.trend_max (%d) cannot be below trend_min (%d)",
			c.Oracle.TrendMax, c.Oracle.TrendMin)
	}

	if c.Travel.DefaultDuration <= 0 {
		return errors.New("travel.default_duration must be positive")
	}

	if c.Writer.BatchSize < 1 {
		return errors.New("writer.batch_size must be >= 1")
	}
	if c.Writer.BufferSize < 1 {
		return errors.New("writer.buffer_size must be >= 1")
	}

	if c.Snapshot.Interval <= 0 {
		return errors.New("snapshot.interval must be positive")
	}

	if c.Watcher.Interval <= 0 {
		return errors.New("watcher.interval must be positive")
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}

	return nil
}

func (db *DBConfig) validate(prefix string) error {
	if db.Host == "" {
		return fmt.Errorf("%s.host is required", prefix)
	}
	if db.Name == "" {
		return fmt.Errorf("%s.name is required", prefix)
	}
	if db.User == "" {
		return fmt.Errorf("%s.user is required", prefix)
	}
	if db.Password == "" {
		return fmt.Errorf("%s.password is required", prefix)
	}
	if db.MaxConns < 1 {
		return fmt.Errorf("%s.max_conns must be >= 1", prefix)
	}
	if db.MinConns < 0 {
		return fmt.Errorf("%s.min_conns must be >= 0", prefix)
	}
	if db.MinConns > db.MaxConns {
		return fmt.Errorf("%s.min_conns (%d) cannot exceed max_conns (%d)", prefix, db.MinConns, db.MaxConns)
	}
	return nil
}
