package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfig_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Cache.SearchTTL() != 5*time.Minute {
		t.Errorf("expected 5m search TTL, got %v", cfg.Cache.SearchTTL())
	}
	if cfg.Cache.SummaryTTL() != time.Hour {
		t.Errorf("expected 1h summary TTL, got %v", cfg.Cache.SummaryTTL())
	}
	if cfg.Search.NearbyRadius != 10 || cfg.Search.NearbyLimit != 6 || cfg.Search.SimilarLimit != 6 {
		t.Errorf("unexpected nearby/similar defaults: %+v", cfg.Search)
	}
	if cfg.Search.DefaultPerPage != 15 || cfg.Search.MaxPerPage != 100 {
		t.Errorf("unexpected pagination defaults: %+v", cfg.Search)
	}
}

func TestLoadConfig_ExpandsEnvVars(t *testing.T) {
	t.Setenv("TEST_REDIS_ADDR", "redis.internal:6379")

	path := filepath.Join(t.TempDir(), "config.yaml")
	yamlData := `
http:
  port: 9000
cache:
  driver: redis
  redis:
    addr: ${TEST_REDIS_ADDR}
    password: ${TEST_REDIS_PASSWORD:-secret}
search:
  max_per_page: 50
`
	if err := os.WriteFile(path, []byte(yamlData), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.HTTP.Port != 9000 {
		t.Errorf("expected port 9000, got %d", cfg.HTTP.Port)
	}
	if cfg.Cache.Redis.Addr != "redis.internal:6379" {
		t.Errorf("expected expanded addr, got %q", cfg.Cache.Redis.Addr)
	}
	if cfg.Cache.Redis.Password != "secret" {
		t.Errorf("expected default password, got %q", cfg.Cache.Redis.Password)
	}
	if cfg.Search.MaxPerPage != 50 {
		t.Errorf("expected max_per_page 50, got %d", cfg.Search.MaxPerPage)
	}
	if cfg.Search.DefaultPerPage != 15 {
		t.Errorf("expected untouched default_per_page 15, got %d", cfg.Search.DefaultPerPage)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"postgres", func(c *Config) { c.Database.Type = "postgres" }, false},
		{"unknown database", func(c *Config) { c.Database.Type = "sqlite" }, true},
		{"bad port", func(c *Config) { c.HTTP.Port = 70000 }, true},
		{"redis without addr", func(c *Config) { c.Cache.Driver = "redis" }, true},
		{"tiered without shared tier", func(c *Config) { c.Cache.Driver = "tiered" }, true},
		{"tiered over memcached", func(c *Config) {
			c.Cache.Driver = "tiered"
			c.Cache.Memcached.Hosts = []string{"localhost:11211"}
		}, false},
		{"tiered over redis", func(c *Config) {
			c.Cache.Driver = "tiered"
			c.Cache.Redis.Addr = "localhost:6379"
		}, false},
		{"memcached without hosts", func(c *Config) { c.Cache.Driver = "memcached" }, true},
		{"unknown cache driver", func(c *Config) { c.Cache.Driver = "disk" }, true},
		{"per page above max", func(c *Config) { c.Search.DefaultPerPage = 200 }, true},
		{"bad run time", func(c *Config) { c.SavedSearches.DailyRunTime = "7am" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestParseDailyRunTime(t *testing.T) {
	h, m, err := ParseDailyRunTime(" 02:30 ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h != 2 || m != 30 {
		t.Errorf("expected 02:30, got %02d:%02d", h, m)
	}

	if _, _, err := ParseDailyRunTime("25:00"); err == nil {
		t.Error("expected error for out-of-range hour")
	}
}
