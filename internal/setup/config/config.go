package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

var (
	ErrConfigFileNotFound    = errors.New("could not find config file in any config path")
	ErrConfigVersionMissing  = errors.New("config file is missing version field")
	ErrConfigVersionMismatch = errors.New("config file version mismatch")
)

// CurrentVersion of the config file.
const CurrentVersion = 1

// Config represents the entire application configuration.
type Config struct {
	// Version of the config file.
	Version    int        `koanf:"version"`
	Debug      Debug      `koanf:"debug"`
	Retry      Retry      `koanf:"retry"`
	PostgreSQL PostgreSQL `koanf:"postgresql"`
	Redis      Redis      `koanf:"redis"`
	Breaker    Breaker    `koanf:"circuit_breaker"`
	Moderation Moderation `koanf:"moderation"`
}

// Debug contains debug-related configuration.
type Debug struct {
	// Log level (debug, info, warn, error).
	LogLevel string `koanf:"log_level"`
	// Maximum log sessions to keep.
	MaxLogsToKeep int `koanf:"max_logs_to_keep"`
}

// Retry contains retry configuration for database operations.
type Retry struct {
	// Maximum retry attempts.
	MaxRetries uint64 `koanf:"max_retries"`
	// Initial retry delay in milliseconds.
	Delay int `koanf:"delay"`
	// Maximum retry delay in milliseconds.
	MaxDelay int `koanf:"max_delay"`
}

// PostgreSQL contains database connection configuration.
type PostgreSQL struct {
	// Database hostname.
	Host string `koanf:"host"`
	// Database port.
	Port int `koanf:"port"`
	// Database username.
	User string `koanf:"user"`
	// Database password.
	Password string `koanf:"password"`
	// Database name.
	DBName string `koanf:"db_name"`
	// Maximum open connections.
	MaxOpenConns int `koanf:"max_open_conns"`
	// Maximum idle connections.
	MaxIdleConns int `koanf:"max_idle_conns"`
	// Connection lifetime in minutes.
	MaxLifetime int `koanf:"max_lifetime"`
	// Idle timeout in minutes.
	MaxIdleTime int `koanf:"max_idle_time"`
}

// Redis contains Redis connection configuration.
type Redis struct {
	// Redis hostname.
	Host string `koanf:"host"`
	// Redis port.
	Port int `koanf:"port"`
	// Redis username.
	Username string `koanf:"username"`
	// Redis password.
	Password string `koanf:"password"`
}

// Breaker contains circuit breaker configuration for enforcement side effects.
type Breaker struct {
	// Maximum number of requests allowed to pass through when the circuit is half-open.
	MaxRequests uint32 `koanf:"max_requests"`
	// The cyclic period of the closed state in seconds.
	Interval int `koanf:"interval"`
	// The period of the open state in seconds.
	Timeout int `koanf:"timeout"`
}

// CategoryThresholds are the per-category cutoffs for boolean category flags.
type CategoryThresholds struct {
	Toxicity float64 `koanf:"toxicity"`
	Spam     float64 `koanf:"spam"`
	NSFW     float64 `koanf:"nsfw"`
}

// RiskLevelBounds are the ordered lower bounds for risk level buckets.
type RiskLevelBounds struct {
	Low      float64 `koanf:"low"`
	Medium   float64 `koanf:"medium"`
	High     float64 `koanf:"high"`
	Critical float64 `koanf:"critical"`
}

// PunishmentDurations control how long automatic restrictions last.
type PunishmentDurations struct {
	// Mute duration in hours for high risk decisions.
	MuteHours int `koanf:"mute_hours"`
	// Ban duration in hours for critical risk decisions.
	BanHours int `koanf:"ban_hours"`
}

// Moderation contains pipeline tuning for scoring, queueing, and enforcement.
type Moderation struct {
	// Number of concurrent pipeline workers.
	WorkerCount int `koanf:"worker_count"`
	// Number of queue items to claim per batch.
	BatchSize int `koanf:"batch_size"`
	// Maximum processing attempts before dead-lettering.
	MaxAttempts int `koanf:"max_attempts"`
	// Base retry delay in milliseconds; doubles per attempt.
	RetryBaseDelay int `koanf:"retry_base_delay"`
	// Per-stage timeout in milliseconds for classifier and sentiment stages.
	StageTimeout int `koanf:"stage_timeout"`
	// Synchronous submission budget in milliseconds.
	SyncTimeout int `koanf:"sync_timeout"`
	// Decision cache TTL in minutes.
	DecisionCacheTTL int `koanf:"decision_cache_ttl"`
	// Maximum concurrent classifier evaluations.
	MaxConcurrentScores int64 `koanf:"max_concurrent_scores"`
	// Fixed spam increment when the statistical classifier predicts spam.
	ClassifierBoost float64 `koanf:"classifier_boost"`
	// Fixed toxicity increment for strongly negative sentiment.
	SentimentBoost float64 `koanf:"sentiment_boost"`
	// Compound polarity below which sentiment counts as strongly negative.
	SentimentThreshold float64 `koanf:"sentiment_threshold"`
	// Degraded stages tolerated before overall health reports degraded.
	DegradedThreshold int64 `koanf:"degraded_threshold"`

	Thresholds  CategoryThresholds  `koanf:"thresholds"`
	RiskLevels  RiskLevelBounds     `koanf:"risk_levels"`
	Punishments PunishmentDurations `koanf:"punishments"`
}

// DefaultModeration returns the calibrated pipeline defaults. Tests and
// the config loader both start from these values.
func DefaultModeration() Moderation {
	return Moderation{
		WorkerCount:         4,
		BatchSize:           25,
		MaxAttempts:         3,
		RetryBaseDelay:      2000,
		StageTimeout:        2000,
		SyncTimeout:         5000,
		DecisionCacheTTL:    1440,
		MaxConcurrentScores: 8,
		ClassifierBoost:     0.3,
		SentimentBoost:      0.2,
		SentimentThreshold:  -0.5,
		DegradedThreshold:   5,
		Thresholds:          CategoryThresholds{Toxicity: 0.6, Spam: 0.5, NSFW: 0.4},
		RiskLevels:          RiskLevelBounds{Low: 0.2, Medium: 0.4, High: 0.6, Critical: 0.8},
		Punishments:         PunishmentDurations{MuteHours: 24, BanHours: 168},
	}
}

// LoadConfig loads the configuration from the first sentinel.toml found
// in the search paths. Returns the config along with the used config directory.
func LoadConfig() (*Config, string, error) {
	k := koanf.New(".")

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, "", fmt.Errorf("failed to get home directory: %w", err)
	}

	configPaths := []string{
		".sentinel",
		homeDir + "/.sentinel/config",
		"/etc/sentinel/config",
		"/app/config",
		"config",
		".",
	}

	var usedConfigPath string

	for _, path := range configPaths {
		configPath := fmt.Sprintf("%s/sentinel.toml", path)
		if err := k.Load(file.Provider(configPath), toml.Parser()); err == nil {
			usedConfigPath = path
			break
		}
	}

	if usedConfigPath == "" {
		return nil, "", fmt.Errorf("%w: sentinel.toml", ErrConfigFileNotFound)
	}

	config := Config{Moderation: DefaultModeration()}
	if err := k.Unmarshal("", &config); err != nil {
		return nil, "", fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := checkConfigVersion(config.Version); err != nil {
		return nil, "", err
	}

	return &config, usedConfigPath, nil
}

// checkConfigVersion checks if the config file version is correct.
func checkConfigVersion(current int) error {
	if current == 0 {
		return fmt.Errorf("%w: sentinel.toml", ErrConfigVersionMissing)
	}

	if current != CurrentVersion {
		return fmt.Errorf("%w: sentinel.toml (got: %d, expected: %d)",
			ErrConfigVersionMismatch, current, CurrentVersion)
	}

	return nil
}
