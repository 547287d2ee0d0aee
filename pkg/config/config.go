// Package config loads process settings from the environment.
//
// Every key is read from a TRANSFER_-prefixed environment variable, for example
// TRANSFER_LOCK_TIMEOUT=2s. Values from .env files are applied first and never
// override variables already present in the environment.
package config

import (
	"errors"
	"fmt"
	"time"

	"funds-transfer/pkg/journal"
	"funds-transfer/pkg/logging"
	"funds-transfer/pkg/resilience"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.uber.org/multierr"
)

// EnvPrefix is prepended to every key when reading the environment.
const EnvPrefix = "TRANSFER"

// Keys understood by Load.
const (
	KeyLockTimeout                = "LOCK_TIMEOUT"
	KeyBreakerEnabled             = "BREAKER_ENABLED"
	KeyBreakerConsecutiveTimeouts = "BREAKER_CONSECUTIVE_TIMEOUTS"
	KeyBreakerCooldown            = "BREAKER_COOLDOWN"
	KeyBreakerHalfOpenRequests    = "BREAKER_HALF_OPEN_REQUESTS"
	KeyJournalQueueSize           = "JOURNAL_QUEUE_SIZE"
	KeyJournalWorkers             = "JOURNAL_WORKERS"
	KeyJournalMaxWait             = "JOURNAL_MAX_WAIT"
	KeyLogLevel                   = "LOG_LEVEL"
	KeyLogFormat                  = "LOG_FORMAT"
	KeyLogDevelopment             = "LOG_DEV"
	KeyAPIAddress                 = "API_ADDRESS"
	KeyMetricsNamespace           = "METRICS_NAMESPACE"
)

// ErrInvalidConfig is returned when a loaded value is out of range.
var ErrInvalidConfig = errors.New("config: invalid configuration")

// Config holds application configuration.
type Config struct {
	LockTimeout time.Duration

	BreakerEnabled             bool
	BreakerConsecutiveTimeouts uint32
	BreakerCooldown            time.Duration
	BreakerHalfOpenRequests    uint32

	JournalQueueSize int
	JournalWorkers   int
	JournalMaxWait   time.Duration

	LogLevel       string
	LogFormat      string
	LogDevelopment bool

	APIAddress       string
	MetricsNamespace string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(KeyLockTimeout, "5s")
	v.SetDefault(KeyBreakerEnabled, true)
	v.SetDefault(KeyBreakerConsecutiveTimeouts, 5)
	v.SetDefault(KeyBreakerCooldown, "10s")
	v.SetDefault(KeyBreakerHalfOpenRequests, 1)
	v.SetDefault(KeyJournalQueueSize, 1024)
	v.SetDefault(KeyJournalWorkers, 2)
	v.SetDefault(KeyJournalMaxWait, "10ms")
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, "json")
	v.SetDefault(KeyLogDevelopment, false)
	v.SetDefault(KeyAPIAddress, ":8080")
	v.SetDefault(KeyMetricsNamespace, "funds_transfer")
}

// Load reads the configuration from the environment.
// With no arguments it tries ./.env and ignores its absence; named files must exist.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		// Attempt to load .env file, ignore error if it doesn't exist
		_ = godotenv.Load()
	} else if err := godotenv.Load(envFiles...); err != nil {
		return nil, fmt.Errorf("config: load env files: %w", err)
	}

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	setDefaults(v)
	v.AutomaticEnv()

	cfg := &Config{
		LockTimeout:                v.GetDuration(KeyLockTimeout),
		BreakerEnabled:             v.GetBool(KeyBreakerEnabled),
		BreakerConsecutiveTimeouts: v.GetUint32(KeyBreakerConsecutiveTimeouts),
		BreakerCooldown:            v.GetDuration(KeyBreakerCooldown),
		BreakerHalfOpenRequests:    v.GetUint32(KeyBreakerHalfOpenRequests),
		JournalQueueSize:           v.GetInt(KeyJournalQueueSize),
		JournalWorkers:             v.GetInt(KeyJournalWorkers),
		JournalMaxWait:             v.GetDuration(KeyJournalMaxWait),
		LogLevel:                   v.GetString(KeyLogLevel),
		LogFormat:                  v.GetString(KeyLogFormat),
		LogDevelopment:             v.GetBool(KeyLogDevelopment),
		APIAddress:                 v.GetString(KeyAPIAddress),
		MetricsNamespace:           v.GetString(KeyMetricsNamespace),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports every out-of-range value at once.
func (c *Config) Validate() error {
	var errs error
	if c.LockTimeout <= 0 {
		errs = multierr.Append(errs, fmt.Errorf("%s must be positive, got %s", KeyLockTimeout, c.LockTimeout))
	}
	if c.BreakerEnabled {
		if c.BreakerConsecutiveTimeouts == 0 {
			errs = multierr.Append(errs, fmt.Errorf("%s must be positive", KeyBreakerConsecutiveTimeouts))
		}
		if c.BreakerCooldown <= 0 {
			errs = multierr.Append(errs, fmt.Errorf("%s must be positive, got %s", KeyBreakerCooldown, c.BreakerCooldown))
		}
		if c.BreakerHalfOpenRequests == 0 {
			errs = multierr.Append(errs, fmt.Errorf("%s must be positive", KeyBreakerHalfOpenRequests))
		}
	}
	if c.JournalQueueSize <= 0 {
		errs = multierr.Append(errs, fmt.Errorf("%s must be positive, got %d", KeyJournalQueueSize, c.JournalQueueSize))
	}
	if c.JournalWorkers <= 0 {
		errs = multierr.Append(errs, fmt.Errorf("%s must be positive, got %d", KeyJournalWorkers, c.JournalWorkers))
	}
	if c.JournalMaxWait < 0 {
		errs = multierr.Append(errs, fmt.Errorf("%s cannot be negative, got %s", KeyJournalMaxWait, c.JournalMaxWait))
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("%s: %w", KeyLogLevel, err))
	}
	if c.LogFormat != "json" && c.LogFormat != "console" {
		errs = multierr.Append(errs, fmt.Errorf("%s must be json or console, got %q", KeyLogFormat, c.LogFormat))
	}

	if errs != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errs)
	}
	return nil
}

// LoggingConfig translates the log settings into a logging.Config.
func (c *Config) LoggingConfig() logging.Config {
	lc := logging.DefaultConfig()
	if c.LogDevelopment {
		lc = logging.DevelopmentConfig()
	}
	lc.Level = c.LogLevel
	lc.Format = c.LogFormat
	return lc
}

// BreakerConfig translates the breaker settings into a resilience.BreakerConfig.
func (c *Config) BreakerConfig() resilience.BreakerConfig {
	return resilience.BreakerConfig{
		Enabled:             c.BreakerEnabled,
		ConsecutiveTimeouts: c.BreakerConsecutiveTimeouts,
		Cooldown:            c.BreakerCooldown,
		HalfOpenRequests:    c.BreakerHalfOpenRequests,
	}
}

// JournalConfig translates the journal settings into a journal.Config.
// A zero JournalMaxWait drops immediately when the queue is full.
func (c *Config) JournalConfig() journal.Config {
	jc := journal.DefaultConfig()
	jc.QueueSize = c.JournalQueueSize
	jc.Workers = c.JournalWorkers
	jc.MaxWaitTime = c.JournalMaxWait
	if jc.MaxWaitTime == 0 {
		jc.MaxWaitTime = -1
	}
	return jc
}
