package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	HTTP          HTTPConfig          `yaml:"http"`
	Database      DatabaseConfig      `yaml:"database"`
	Cache         CacheConfig         `yaml:"cache"`
	Search        SearchConfig        `yaml:"search"`
	Auth          AuthConfig          `yaml:"auth"`
	RateLimit     RateLimitConfig     `yaml:"rate_limit"`
	SavedSearches SavedSearchesConfig `yaml:"saved_searches"`
	Messaging     MessagingConfig     `yaml:"messaging"`
	Logging       LoggingConfig       `yaml:"logging"`
	Timezone      string              `yaml:"timezone"`
}

// HTTPConfig contains HTTP server settings
type HTTPConfig struct {
	Port         int      `yaml:"port"`
	AllowOrigins []string `yaml:"allow_origins"`
}

// DatabaseConfig contains database settings
type DatabaseConfig struct {
	Type     string         `yaml:"type"` // mysql, postgres
	MySQL    MySQLConfig    `yaml:"mysql"`
	Postgres PostgresConfig `yaml:"postgres"`
}

// MySQLConfig contains MySQL connection settings
type MySQLConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
}

// PostgresConfig contains PostgreSQL connection settings
type PostgresConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"sslmode"`
}

// CacheConfig contains result cache settings
type CacheConfig struct {
	Driver            string          `yaml:"driver"` // memory, redis, memcached, tiered
	SearchTTLSeconds  int             `yaml:"search_ttl_seconds"`
	SummaryTTLSeconds int             `yaml:"summary_ttl_seconds"`
	LocalMaxSize      int64           `yaml:"local_max_size"`
	Redis             RedisConfig     `yaml:"redis"`
	Memcached         MemcachedConfig `yaml:"memcached"`
}

// RedisConfig contains Redis connection settings
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// MemcachedConfig contains memcached connection settings
type MemcachedConfig struct {
	Hosts []string `yaml:"hosts"`
}

// SearchConfig contains property search settings
type SearchConfig struct {
	DefaultPerPage int               `yaml:"default_per_page"`
	MaxPerPage     int               `yaml:"max_per_page"`
	NearbyRadius   float64           `yaml:"nearby_radius_miles"`
	NearbyLimit    int               `yaml:"nearby_limit"`
	SimilarLimit   int               `yaml:"similar_limit"`
	SuggestLimit   int               `yaml:"suggestion_limit"`
	Meilisearch    MeilisearchConfig `yaml:"meilisearch"`
}

// MeilisearchConfig contains Meilisearch connection settings
type MeilisearchConfig struct {
	Host   string `yaml:"host"`
	APIKey string `yaml:"api_key"`
}

// AuthConfig contains token verification settings
type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
}

// RateLimitConfig contains rate limiting settings
type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled"`
	RequestsPerMinute int  `yaml:"requests_per_minute"`
	RequestsPerHour   int  `yaml:"requests_per_hour"`
}

// SavedSearchesConfig contains saved-search notifier settings
type SavedSearchesConfig struct {
	Enabled      bool   `yaml:"enabled"`
	DailyRunTime string `yaml:"daily_run_time"`
	BatchLimit   int    `yaml:"batch_limit"`
}

// MessagingConfig contains message broker settings
type MessagingConfig struct {
	AMQPURL  string `yaml:"amqp_url"`
	Exchange string `yaml:"exchange"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Env   string `yaml:"env"`   // prod, dev, local
	Level string `yaml:"level"` // debug, info, warn, error
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Port:         8084,
			AllowOrigins: []string{"http://localhost:3000"},
		},
		Database: DatabaseConfig{
			Type: "mysql",
			MySQL: MySQLConfig{
				Host:     "localhost",
				Port:     3306,
				User:     "realestate_user",
				Database: "realestate_db",
			},
			Postgres: PostgresConfig{
				Host:     "localhost",
				Port:     5432,
				User:     "realestate_user",
				Database: "realestate_db",
				SSLMode:  "disable",
			},
		},
		Cache: CacheConfig{
			Driver:            "memory",
			SearchTTLSeconds:  300,
			SummaryTTLSeconds: 3600,
			LocalMaxSize:      5000,
		},
		Search: SearchConfig{
			DefaultPerPage: 15,
			MaxPerPage:     100,
			NearbyRadius:   10,
			NearbyLimit:    6,
			SimilarLimit:   6,
			SuggestLimit:   10,
		},
		RateLimit: RateLimitConfig{
			Enabled:           true,
			RequestsPerMinute: 60,
			RequestsPerHour:   1800,
		},
		SavedSearches: SavedSearchesConfig{
			Enabled:      false,
			DailyRunTime: "07:00",
			BatchLimit:   100,
		},
		Messaging: MessagingConfig{
			Exchange: "saved_search.events",
		},
		Logging: LoggingConfig{
			Env:   "local",
			Level: "info",
		},
		Timezone: "UTC",
	}
}

// LoadConfig loads configuration from a YAML file
func LoadConfig(filepath string) (*Config, error) {
	// Start with default config
	config := DefaultConfig()

	// If file doesn't exist, return default config
	if _, err := os.Stat(filepath); os.IsNotExist(err) {
		config.ApplyDefaults()
		return config, nil
	}

	data, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := Parse(data, config); err != nil {
		return nil, err
	}
	return config, nil
}

// Parse expands environment references in data and decodes it over config
func Parse(data []byte, config *Config) error {
	data = expandEnvVars(data)

	if err := yaml.Unmarshal(data, config); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	config.ApplyDefaults()

	if err := config.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.Port <= 0 {
		c.HTTP.Port = 8084
	}
	if c.Database.Type == "" {
		c.Database.Type = "mysql"
	}
	if c.Cache.Driver == "" {
		c.Cache.Driver = "memory"
	}
	if c.Cache.SearchTTLSeconds <= 0 {
		c.Cache.SearchTTLSeconds = 300
	}
	if c.Cache.SummaryTTLSeconds <= 0 {
		c.Cache.SummaryTTLSeconds = 3600
	}
	if c.Cache.LocalMaxSize <= 0 {
		c.Cache.LocalMaxSize = 5000
	}
	if c.Search.DefaultPerPage <= 0 {
		c.Search.DefaultPerPage = 15
	}
	if c.Search.MaxPerPage <= 0 {
		c.Search.MaxPerPage = 100
	}
	if c.Search.NearbyRadius <= 0 {
		c.Search.NearbyRadius = 10
	}
	if c.Search.NearbyLimit <= 0 {
		c.Search.NearbyLimit = 6
	}
	if c.Search.SimilarLimit <= 0 {
		c.Search.SimilarLimit = 6
	}
	if c.Search.SuggestLimit <= 0 {
		c.Search.SuggestLimit = 10
	}
	if c.SavedSearches.DailyRunTime == "" {
		c.SavedSearches.DailyRunTime = "07:00"
	}
	if c.SavedSearches.BatchLimit <= 0 {
		c.SavedSearches.BatchLimit = 100
	}
	if c.Messaging.Exchange == "" {
		c.Messaging.Exchange = "saved_search.events"
	}
	if c.Logging.Env == "" {
		c.Logging.Env = "local"
	}
	if c.Timezone == "" {
		c.Timezone = "UTC"
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	switch c.Database.Type {
	case "mysql", "postgres":
	default:
		return fmt.Errorf("database.type must be \"mysql\" or \"postgres\", got %q", c.Database.Type)
	}
	switch c.Cache.Driver {
	case "memory":
	case "redis":
		if c.Cache.Redis.Addr == "" {
			return fmt.Errorf("cache.redis.addr is required for the redis driver")
		}
	case "memcached":
		if len(c.Cache.Memcached.Hosts) == 0 {
			return fmt.Errorf("cache.memcached.hosts is required for the memcached driver")
		}
	case "tiered":
		if c.Cache.Redis.Addr == "" && len(c.Cache.Memcached.Hosts) == 0 {
			return fmt.Errorf("cache.redis.addr or cache.memcached.hosts is required for the tiered driver")
		}
	default:
		return fmt.Errorf("cache.driver must be one of memory, redis, memcached, tiered, got %q", c.Cache.Driver)
	}
	if c.Search.DefaultPerPage > c.Search.MaxPerPage {
		return fmt.Errorf("search.default_per_page (%d) exceeds search.max_per_page (%d)",
			c.Search.DefaultPerPage, c.Search.MaxPerPage)
	}
	if _, _, err := ParseDailyRunTime(c.SavedSearches.DailyRunTime); err != nil {
		return fmt.Errorf("saved_searches.daily_run_time: %w", err)
	}
	return nil
}

// SearchTTL returns the search result cache TTL as a duration
func (c *CacheConfig) SearchTTL() time.Duration {
	return time.Duration(c.SearchTTLSeconds) * time.Second
}

// SummaryTTL returns the rating summary cache TTL as a duration
func (c *CacheConfig) SummaryTTL() time.Duration {
	return time.Duration(c.SummaryTTLSeconds) * time.Second
}

// ParseDailyRunTime parses an "HH:MM" string
func ParseDailyRunTime(value string) (int, int, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(value))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid time %q, expected HH:MM", value)
	}
	return t.Hour(), t.Minute(), nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1])
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
