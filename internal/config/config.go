// Package config provides application configuration management using Viper.
// Configuration is loaded from YAML files and environment variables.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Database DatabaseConfig `mapstructure:"database"`
	Engine   EngineConfig   `mapstructure:"engine"`
	Sweep    SweepConfig    `mapstructure:"sweep"`
	Dispatch DispatchConfig `mapstructure:"dispatch"`
	Logger   LoggerConfig   `mapstructure:"logger"`
	Sentry   SentryConfig   `mapstructure:"sentry"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

// AppConfig holds application-level settings.
type AppConfig struct {
	Name  string `mapstructure:"name"`
	Env   string `mapstructure:"env"` // development, staging, production
	Port  int    `mapstructure:"port"`
	Debug bool   `mapstructure:"debug"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	Name         string        `mapstructure:"name"`
	User         string        `mapstructure:"user"`
	Password     string        `mapstructure:"password"`
	SSLMode      string        `mapstructure:"ssl_mode"`
	MaxOpenConns int           `mapstructure:"max_open_conns"`
	MaxIdleConns int           `mapstructure:"max_idle_conns"`
	MaxLifetime  time.Duration `mapstructure:"max_lifetime"`
}

// DSN returns the PostgreSQL connection string.
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

// EngineConfig holds every scoring/promotion/notification tunable.
// All knobs live here so there are no magic numbers inside the engine.
type EngineConfig struct {
	// DecayDays is the window over which an item's weight falls from 1.0
	// to MinWeight.
	DecayDays float64 `mapstructure:"decay_days"`
	// MinWeight is the decay floor; weight never drops below it.
	MinWeight float64 `mapstructure:"min_weight"`

	// Per-signal score weights.
	ReplyWeight float64 `mapstructure:"reply_weight"`
	LikeWeight  float64 `mapstructure:"like_weight"`
	ViewWeight  float64 `mapstructure:"view_weight"`

	// ScoreTTL bounds how stale a cached score snapshot may get before a
	// read recomputes it.
	ScoreTTL time.Duration `mapstructure:"score_ttl"`
	// CacheKeyPrefix namespaces the engine's redis keys.
	CacheKeyPrefix string `mapstructure:"cache_key_prefix"`

	// PostToSpotThreshold is the score at which a post becomes a spot.
	PostToSpotThreshold float64 `mapstructure:"post_to_spot_threshold"`
	// SpotToChallengePct is the top fraction of spot-tier items (by score)
	// promoted to challenge on each sweep.
	SpotToChallengePct float64 `mapstructure:"spot_to_challenge_pct"`
	// GuardTTL is the execution-guard window preventing duplicate
	// promotions of the same transition.
	GuardTTL time.Duration `mapstructure:"guard_ttl"`

	// LikeMilestoneInterval fires a milestone notification every N likes.
	LikeMilestoneInterval int64 `mapstructure:"like_milestone_interval"`
	// PopularThreshold is the score above which a recent item counts as
	// having "entered popular" (one-time notification).
	PopularThreshold float64 `mapstructure:"popular_threshold"`
}

// SweepConfig holds periodic promotion sweep settings.
type SweepConfig struct {
	Interval  time.Duration `mapstructure:"interval"`
	Budget    time.Duration `mapstructure:"budget"`
	OnStartup bool          `mapstructure:"on_startup"`
}

// DispatchConfig holds the external notification dispatch endpoint settings.
type DispatchConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
	Retry   RetryConfig   `mapstructure:"retry"`
	CB      CBConfig      `mapstructure:"circuit_breaker"`
}

// RetryConfig holds retry settings.
type RetryConfig struct {
	MaxAttempts int           `mapstructure:"max_attempts"`
	WaitTime    time.Duration `mapstructure:"wait_time"`
	MaxWaitTime time.Duration `mapstructure:"max_wait_time"`
}

// CBConfig holds circuit breaker settings.
type CBConfig struct {
	MaxRequests  uint32        `mapstructure:"max_requests"`
	Interval     time.Duration `mapstructure:"interval"`
	Timeout      time.Duration `mapstructure:"timeout"`
	FailureRatio float64       `mapstructure:"failure_ratio"`
}

// LoggerConfig holds logging settings.
type LoggerConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json, console
	Output string `mapstructure:"output"` // stdout, stderr, file path
}

// SentryConfig holds Sentry error tracking settings.
type SentryConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	DSN         string  `mapstructure:"dsn"`
	Environment string  `mapstructure:"environment"`
	SampleRate  float64 `mapstructure:"sample_rate"`
}

// RedisConfig holds Redis connection settings for caching and guards.
type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// Load reads configuration from file and environment variables.
// Priority: env vars > config file > defaults
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults
	setDefaults(v)

	// Config file settings
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Config file not found, continue with defaults + env vars
	}

	// Environment variable settings
	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Unmarshal config
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.name", "engagement-engine")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", 8080)
	v.SetDefault("app.debug", true)

	// Database defaults
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "engagement")
	v.SetDefault("database.user", "app")
	v.SetDefault("database.password", "secret")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.max_lifetime", "5m")

	// Engine defaults
	v.SetDefault("engine.decay_days", 14.0)
	v.SetDefault("engine.min_weight", 0.1)
	v.SetDefault("engine.reply_weight", 1.0)
	v.SetDefault("engine.like_weight", 3.0)
	v.SetDefault("engine.view_weight", 2.0)
	v.SetDefault("engine.score_ttl", "30m")
	v.SetDefault("engine.cache_key_prefix", "engagement")
	v.SetDefault("engine.post_to_spot_threshold", 50.0)
	v.SetDefault("engine.spot_to_challenge_pct", 0.30)
	v.SetDefault("engine.guard_ttl", "1h")
	v.SetDefault("engine.like_milestone_interval", 50)
	v.SetDefault("engine.popular_threshold", 100.0)

	// Sweep defaults
	v.SetDefault("sweep.interval", "10m")
	v.SetDefault("sweep.budget", "2m")
	v.SetDefault("sweep.on_startup", true)

	// Dispatch defaults
	v.SetDefault("dispatch.base_url", "http://localhost:8090")
	v.SetDefault("dispatch.timeout", "10s")
	v.SetDefault("dispatch.retry.max_attempts", 2)
	v.SetDefault("dispatch.retry.wait_time", "500ms")
	v.SetDefault("dispatch.retry.max_wait_time", "2s")
	v.SetDefault("dispatch.circuit_breaker.max_requests", 3)
	v.SetDefault("dispatch.circuit_breaker.interval", "60s")
	v.SetDefault("dispatch.circuit_breaker.timeout", "30s")
	v.SetDefault("dispatch.circuit_breaker.failure_ratio", 0.5)

	// Logger defaults
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.output", "stdout")

	// Sentry defaults
	v.SetDefault("sentry.enabled", false)
	v.SetDefault("sentry.dsn", "")
	v.SetDefault("sentry.environment", "development")
	v.SetDefault("sentry.sample_rate", 1.0)

	// Redis defaults
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
}
