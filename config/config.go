package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig
	Lookup    LookupConfig
	Cache     CacheConfig
	RateLimit RateLimitConfig
	Quota     QuotaConfig
	Logging   LoggingConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// LookupConfig holds the remote AI lookup service configuration
type LookupConfig struct {
	APIKey            string        `mapstructure:"api_key"`
	BaseURL           string        `mapstructure:"base_url"`
	Timeout           time.Duration `mapstructure:"timeout"`
	RequestsPerMinute int           `mapstructure:"requests_per_minute"`
}

// CacheConfig holds both cache tiers' configuration
type CacheConfig struct {
	MemoryMaxEntries int    `mapstructure:"memory_max_entries"`
	MemoryMaxBytes   int64  `mapstructure:"memory_max_bytes"`
	RedisEnabled     bool   `mapstructure:"redis_enabled"`
	RedisAddr        string `mapstructure:"redis_addr"`
	RedisPassword    string `mapstructure:"redis_password"`
	RedisDB          int    `mapstructure:"redis_db"`
}

// RateLimitConfig holds the per-user search limits
type RateLimitConfig struct {
	Window     time.Duration `mapstructure:"window"`
	PerWindow  int           `mapstructure:"per_window"`
	DailyLimit int           `mapstructure:"daily_limit"`
}

// QuotaConfig holds the daily-quota persistence settings
type QuotaConfig struct {
	DBPath string `mapstructure:"db_path"`
}

// LoggingConfig holds logger settings
type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	v := viper.New()

	// Set config name and paths
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/nutriscan/")

	// Environment variable settings: NUTRISCAN_RATELIMIT_DAILY_LIMIT
	// overrides ratelimit.daily_limit, and so on
	v.SetEnvPrefix("NUTRISCAN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set default values
	setDefaults(v)

	// Read config file (optional - will use env vars if file doesn't exist)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found; using environment variables and defaults
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Validate configuration
	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"*"})

	// Lookup defaults; the API key defaults to empty so an unconfigured
	// deployment degrades to a clear "not configured" error rather than
	// failing startup
	v.SetDefault("lookup.api_key", "")
	v.SetDefault("lookup.base_url", "https://api.nutriscan.app")
	v.SetDefault("lookup.timeout", "30s")
	v.SetDefault("lookup.requests_per_minute", 20)

	// Cache defaults
	v.SetDefault("cache.memory_max_entries", 20)
	v.SetDefault("cache.memory_max_bytes", 5*1024*1024)
	v.SetDefault("cache.redis_enabled", false)
	v.SetDefault("cache.redis_addr", "localhost:6379")
	v.SetDefault("cache.redis_db", 0)

	// Rate limit defaults
	v.SetDefault("ratelimit.window", "60s")
	v.SetDefault("ratelimit.per_window", 2)
	v.SetDefault("ratelimit.daily_limit", 10)

	// Quota defaults; empty path keeps the counter in memory only
	v.SetDefault("quota.db_path", "nutriscan.db")

	// Logging defaults
	v.SetDefault("logging.level", "info")
}

// validate validates the configuration
func validate(config *Config) error {
	if config.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}

	if config.RateLimit.Window <= 0 {
		return fmt.Errorf("rate limit window must be positive, got: %s", config.RateLimit.Window)
	}
	if config.RateLimit.PerWindow <= 0 {
		return fmt.Errorf("rate limit per_window must be positive, got: %d", config.RateLimit.PerWindow)
	}
	if config.RateLimit.DailyLimit <= 0 {
		return fmt.Errorf("rate limit daily_limit must be positive, got: %d", config.RateLimit.DailyLimit)
	}

	if config.Cache.RedisEnabled && config.Cache.RedisAddr == "" {
		return fmt.Errorf("redis address is required when the redis cache tier is enabled")
	}

	return nil
}
