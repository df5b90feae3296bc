package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Supabase SupabaseConfig `mapstructure:"supabase"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Plan     PlanConfig     `mapstructure:"plan"`
	Scoring  ScoringConfig  `mapstructure:"scoring"`
	Insights InsightsConfig `mapstructure:"insights"`
	Worker   WorkerConfig   `mapstructure:"worker"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	// Level is the minimum level to emit: debug, info, warn, error
	Level string `mapstructure:"level"`
	// Format is "json" or "text"
	Format string `mapstructure:"format"`
}

// WorkerConfig sizes the background task queue.
type WorkerConfig struct {
	QueueSize int `mapstructure:"queue_size"`
	Workers   int `mapstructure:"workers"`
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Port string `mapstructure:"port"`
	Env  string `mapstructure:"env"`
}

// SupabaseConfig holds Supabase-specific configuration
type SupabaseConfig struct {
	URL        string `mapstructure:"url"`
	ServiceKey string `mapstructure:"service_key"`
}

// PlanConfig locates the versioned step catalog file.
// When the path is empty the built-in catalog is used.
type PlanConfig struct {
	CatalogPath string `mapstructure:"catalog_path"`
}

// ScoringConfig holds the tunable constants of the scoring engine.
// These are product heuristics, not derived values, so they stay
// adjustable without a redeploy.
type ScoringConfig struct {
	// QualifyingScore is the minimum daily score for a day to count toward a streak
	QualifyingScore float64 `mapstructure:"qualifying_score"`
	// StreakLookbackDays bounds the backward walk of the streak tracker
	StreakLookbackDays int `mapstructure:"streak_lookback_days"`
	// TimerSkipSeconds is the time credited as saved per skipped waiting period
	TimerSkipSeconds int `mapstructure:"timer_skip_seconds"`
	// ProductSkipSeconds is the time credited as saved per skipped product
	ProductSkipSeconds int `mapstructure:"product_skip_seconds"`
	// TimerSkipWeightPercent caps the effectiveness lost to skipped waiting periods
	TimerSkipWeightPercent float64 `mapstructure:"timer_skip_weight_percent"`
	// ExerciseEndWeightPercent caps the effectiveness lost to early-ended exercises
	ExerciseEndWeightPercent float64 `mapstructure:"exercise_end_weight_percent"`
	// ApplicationPoints is the point value earned by one completed product application
	ApplicationPoints float64 `mapstructure:"application_points"`
}

// InsightsConfig holds the tunables of the correlation insight generator.
type InsightsConfig struct {
	// MinRatedWeeks is the number of rated weeks required before any
	// correlation insight is produced
	MinRatedWeeks int `mapstructure:"min_rated_weeks"`
	// SignificanceThreshold is the minimum deviation from baseline, in the
	// metric's own unit, for a metric to qualify as a driver
	SignificanceThreshold float64 `mapstructure:"significance_threshold"`
	// PatternWindowDays is the trailing window for day-of-week and
	// notification-timing analysis
	PatternWindowDays int `mapstructure:"pattern_window_days"`
}

// Load reads configuration from environment variables and config files
func Load() (*Config, error) {
	v := viper.New()

	// Set default values
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.env", "development")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("plan.catalog_path", "")
	v.SetDefault("scoring.qualifying_score", 7.0)
	v.SetDefault("scoring.streak_lookback_days", 365)
	v.SetDefault("scoring.timer_skip_seconds", 30)
	v.SetDefault("scoring.product_skip_seconds", 45)
	v.SetDefault("scoring.timer_skip_weight_percent", 30.0)
	v.SetDefault("scoring.exercise_end_weight_percent", 50.0)
	v.SetDefault("scoring.application_points", 10.0)
	v.SetDefault("insights.min_rated_weeks", 4)
	v.SetDefault("insights.significance_threshold", 0.5)
	v.SetDefault("insights.pattern_window_days", 30)
	v.SetDefault("worker.queue_size", 128)
	v.SetDefault("worker.workers", 2)

	// Read from environment variables
	v.SetEnvPrefix("RITUAL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Also bind to non-prefixed environment variables for backward compatibility
	v.BindEnv("server.port", "PORT")
	v.BindEnv("supabase.url", "SUPABASE_URL")
	v.BindEnv("supabase.service_key", "SUPABASE_SERVICE_KEY")

	// Read from config file if it exists
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	// It's okay if config file doesn't exist
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Validate required fields
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate checks that all required configuration values are present
func (c *Config) Validate() error {
	if c.Supabase.URL == "" {
		return fmt.Errorf("SUPABASE_URL is required")
	}
	if c.Supabase.ServiceKey == "" {
		return fmt.Errorf("SUPABASE_SERVICE_KEY is required")
	}
	if c.Scoring.QualifyingScore < 0 || c.Scoring.QualifyingScore > 10 {
		return fmt.Errorf("scoring.qualifying_score must be within [0, 10]")
	}
	if c.Insights.MinRatedWeeks < 1 {
		return fmt.Errorf("insights.min_rated_weeks must be at least 1")
	}
	return nil
}
