package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	yaml := `
instance:
  id: test-gamed
feed:
  rest_url: https://hermes.example.test
database:
  postgres:
    host: localhost
    port: 5432
    name: test_db
    user: testuser
    password: testpass
`
	path := writeTempFile(t, yaml)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Instance.ID != "test-gamed" {
		t.Errorf("Instance.ID = %q, want %q", cfg.Instance.ID, "test-gamed")
	}
	if cfg.Feed.RestURL != "https://hermes.example.test" {
		t.Errorf("Feed.RestURL = %q, want %q", cfg.Feed.RestURL, "https://hermes.example.test")
	}
	if cfg.Database.Postgres.Host != "localhost" {
		t.Errorf("Database.Postgres.Host = %q, want %q", cfg.Database.Postgres.Host, "localhost")
	}
}

func TestLoadWithEnvSubstitution(t *testing.T) {
	t.Setenv("TEST_DB_PASSWORD", "secret123")

	yaml := `
instance:
  id: test-gamed
database:
  postgres:
    host: localhost
    name: test_db
    user: testuser
    password: ${TEST_DB_PASSWORD}
`
	path := writeTempFile(t, yaml)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Database.Postgres.Password != "secret123" {
		t.Errorf("Database.Postgres.Password = %q, want %q", cfg.Database.Postgres.Password, "secret123")
	}
}

func TestLoadWithDefaults(t *testing.T) {
	yaml := `
instance:
  id: test-gamed
database:
  postgres:
    host: localhost
    name: test_db
    user: testuser
    password: testpass
`
	path := writeTempFile(t, yaml)

	cfg, err := LoadWithDefaults(path)
	if err != nil {
		t.Fatalf("LoadWithDefaults failed: %v", err)
	}

	// Check defaults were applied
	if cfg.Feed.RestURL != DefaultFeedRestURL {
		t.Errorf("Feed.RestURL = %q, want default %q", cfg.Feed.RestURL, DefaultFeedRestURL)
	}
	if cfg.Feed.Timeout != DefaultFeedTimeout {
		t.Errorf("Feed.Timeout = %v, want default %v", cfg.Feed.Timeout, DefaultFeedTimeout)
	}
	if cfg.Database.Postgres.Port != DefaultDBPort {
		t.Errorf("Database.Postgres.Port = %d, want default %d", cfg.Database.Postgres.Port, DefaultDBPort)
	}
	if cfg.Oracle.VolatilityAmplifier != DefaultVolatilityAmplifier {
		t.Errorf("Oracle.VolatilityAmplifier = %d, want default %d", cfg.Oracle.VolatilityAmplifier, DefaultVolatilityAmplifier)
	}
	if cfg.Oracle.BlendFeed {
		t.Error("Oracle.BlendFeed = true, want false (start in fallback)")
	}
	if cfg.Travel.DefaultDuration != DefaultTravelDuration {
		t.Errorf("Travel.DefaultDuration = %v, want default %v", cfg.Travel.DefaultDuration, DefaultTravelDuration)
	}
	if cfg.Server.Port != DefaultServerPort {
		t.Errorf("Server.Port = %d, want default %d", cfg.Server.Port, DefaultServerPort)
	}
}

func TestValidate(t *testing.T) {
	valid := GameConfig{
		Instance: InstanceConfig{ID: "test"},
		Feed:     FeedConfig{RestURL: "https://hermes.example.test"},
		Database: DatabaseConfig{
			Postgres: DBConfig{Host: "localhost", Name: "db", User: "user", Password: "pass", MaxConns: 10, MinConns: 2},
		},
		Oracle:  OracleConfig{VolatilityAmplifier: 30_000, TrendMin: 1_000, TrendMax: 50_000},
		Travel:  TravelConfig{DefaultDuration: 5 * time.Second},
		Writer:   WriterConfig{BatchSize: 500, FlushInterval: time.Second, BufferSize: 4096},
		Snapshot: SnapshotConfig{Interval: 30 * time.Second},
		Watcher:  WatcherConfig{Interval: 2 * time.Second},
		Server:  ServerConfig{Port: 8080},
	}

	tests := []struct {
		name    string
		mutate  func(*GameConfig)
		wantErr string
	}{
		{
			name:    "valid config",
			mutate:  func(c *GameConfig) {},
			wantErr: "",
		},
		{
			name:    "missing instance id",
			mutate:  func(c *GameConfig) { c.Instance.ID = "" },
			wantErr: "instance.id is required",
		},
		{
			name:    "missing feed url",
			mutate:  func(c *GameConfig) { c.Feed.RestURL = "" },
			wantErr: "feed.rest_url is required",
		},
		{
			name:    "empty postgres host disables persistence",
			mutate:  func(c *GameConfig) { c.Database.Postgres.Host = "" },
			wantErr: "",
		},
		{
			name: "postgres host without database name",
			mutate: func(c *GameConfig) {
				c.Database.Postgres.Name = ""
			},
			wantErr: "database.postgres.name is required",
		},
		{
			name:    "missing postgres password",
			mutate:  func(c *GameConfig) { c.Database.Postgres.Password = "" },
			wantErr: "database.postgres.password is required",
		},
		{
			name: "min_conns exceeds max_conns",
			mutate: func(c *GameConfig) {
				c.Database.Postgres.MaxConns = 5
				c.Database.Postgres.MinConns = 10
			},
			wantErr: "database.postgres.min_conns (10) cannot exceed max_conns (5)",
		},
		{
			name: "trend band inverted",
			mutate: func(c *GameConfig) {
				c.Oracle.TrendMin = 20_000
				c.Oracle.TrendMax = 10_000
			},
			wantErr: "oracle.trend_max (10000) cannot be below trend_min (20000)",
		},
		{
			name:    "zero travel duration",
			mutate:  func(c *GameConfig) { c.Travel.DefaultDuration = 0 },
			wantErr: "travel.default_duration must be positive",
		},
		{
			name:    "bad server port",
			mutate:  func(c *GameConfig) { c.Server.Port = 70_000 },
			wantErr: "server.port must be between 1 and 65535, got 70000",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() unexpected error: %v", err)
				}
			} else {
				if err == nil {
					t.Errorf("Validate() expected error %q, got nil", tt.wantErr)
				} else if err.Error() != tt.wantErr {
					t.Errorf("Validate() error = %q, want %q", err.Error(), tt.wantErr)
				}
			}
		})
	}
}

func writeTempFile(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	return path
}
