package resilience

import (
	"time"
)

// BreakerConfig configures the per-account circuit breakers that guard
// transaction lock acquisition.
type BreakerConfig struct {
	// Enabled turns the breakers on. When false, acquisitions go straight to the account.
	Enabled bool

	// ConsecutiveTimeouts is the number of lock timeouts in a row that opens
	// an account's breaker. Default: 5
	ConsecutiveTimeouts uint32

	// Cooldown is the period of the open state after which the breaker becomes half-open.
	// Default: 10s
	Cooldown time.Duration

	// HalfOpenRequests is the number of acquisitions allowed through while half-open.
	// Default: 1
	HalfOpenRequests uint32
}

// DefaultBreakerConfig returns sensible defaults for breaker configuration.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		Enabled:             true,
		ConsecutiveTimeouts: 5,
		Cooldown:            10 * time.Second,
		HalfOpenRequests:    1,
	}
}

// DisabledBreakerConfig returns a configuration with breakers turned off.
func DisabledBreakerConfig() BreakerConfig {
	c := DefaultBreakerConfig()
	c.Enabled = false
	return c
}

// WithCooldown returns a copy of the config with the specified cooldown.
func (c BreakerConfig) WithCooldown(cooldown time.Duration) BreakerConfig {
	c.Cooldown = cooldown
	return c
}

// WithConsecutiveTimeouts returns a copy of the config with the specified trip threshold.
func (c BreakerConfig) WithConsecutiveTimeouts(n uint32) BreakerConfig {
	c.ConsecutiveTimeouts = n
	return c
}

// normalized fills zero values with defaults.
func (c BreakerConfig) normalized() BreakerConfig {
	defaults := DefaultBreakerConfig()
	if c.ConsecutiveTimeouts == 0 {
		c.ConsecutiveTimeouts = defaults.ConsecutiveTimeouts
	}
	if c.Cooldown <= 0 {
		c.Cooldown = defaults.Cooldown
	}
	if c.HalfOpenRequests == 0 {
		c.HalfOpenRequests = defaults.HalfOpenRequests
	}
	return c
}
