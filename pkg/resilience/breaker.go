package resilience

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"funds-transfer/pkg/account"
	"funds-transfer/pkg/logging"
	"funds-transfer/pkg/metrics"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// ErrCircuitOpen is the cause of a lock timeout reported while an account's
// breaker is open and the lock was busy. It also matches account.ErrLockTimeout.
var ErrCircuitOpen error = circuitOpenError{}

type circuitOpenError struct{}

func (circuitOpenError) Error() string {
	return "resilience: circuit breaker open"
}

func (circuitOpenError) Is(target error) bool {
	return target == account.ErrLockTimeout
}

// IsCircuitOpen checks if the given error was produced by an open breaker.
func IsCircuitOpen(err error) bool {
	return errors.Is(err, ErrCircuitOpen)
}

// Breakers holds one circuit breaker per account and runs transaction lock
// acquisitions through it. Only lock timeouts count as failures; a caller
// cancelling its own context says nothing about the account.
type Breakers struct {
	config  BreakerConfig
	metrics metrics.MetricsCollector
	logger  *logging.Logger

	mu       sync.RWMutex
	breakers map[int64]*gobreaker.CircuitBreaker
}

// NewBreakers creates a breaker set with the given configuration.
func NewBreakers(config BreakerConfig) *Breakers {
	return NewBreakersWithMetrics(config, metrics.NoOpCollector{})
}

// NewBreakersWithMetrics creates a breaker set that reports state changes to metricsCollector.
func NewBreakersWithMetrics(config BreakerConfig, metricsCollector metrics.MetricsCollector) *Breakers {
	if metricsCollector == nil {
		metricsCollector = metrics.NoOpCollector{}
	}
	if config.Enabled {
		config = config.normalized()
	}

	return &Breakers{
		config:   config,
		metrics:  metricsCollector,
		logger:   logging.Global().Named("resilience"),
		breakers: make(map[int64]*gobreaker.CircuitBreaker),
	}
}

// Enabled reports whether acquisitions go through breakers.
func (b *Breakers) Enabled() bool {
	return b.config.Enabled
}

// Acquire obtains acct's transaction lock through the account's breaker.
// While the breaker is open the lock is still tried once, without waiting; if it
// is busy the error is a *account.LockTimeoutError that Is ErrCircuitOpen.
func (b *Breakers) Acquire(ctx context.Context, acct account.Account, timeout time.Duration) (account.Unlocker, error) {
	if !b.config.Enabled {
		return acct.AcquireTransactionLock(ctx, timeout)
	}

	cb := b.breaker(acct.ID())
	result, err := cb.Execute(func() (interface{}, error) {
		return acct.AcquireTransactionLock(ctx, timeout)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return b.tryAcquire(ctx, acct, cb.State())
		}
		return nil, err
	}

	return result.(account.Unlocker), nil
}

// tryAcquire is the no-wait attempt made while a breaker rejects waiting acquisitions.
func (b *Breakers) tryAcquire(ctx context.Context, acct account.Account, state gobreaker.State) (account.Unlocker, error) {
	if err := ctx.Err(); err != nil {
		return nil, &account.LockTimeoutError{AccountID: acct.ID(), Cause: err}
	}

	if unlock, ok := acct.TryAcquireTransactionLock(); ok {
		b.logger.Debug("circuit breaker open - lock was free",
			logging.AccountID(acct.ID()),
			zap.String("state", state.String()),
		)
		return unlock, nil
	}

	b.logger.Warn("circuit breaker open - lock busy, not waiting",
		logging.AccountID(acct.ID()),
		zap.String("state", state.String()),
	)
	return nil, &account.LockTimeoutError{AccountID: acct.ID(), Cause: ErrCircuitOpen}
}

// State returns the breaker state of the given account.
// Accounts that never acquired through the set report closed.
func (b *Breakers) State(id int64) metrics.CircuitState {
	b.mu.RLock()
	cb, ok := b.breakers[id]
	b.mu.RUnlock()
	if !ok {
		return metrics.CircuitClosed
	}
	return toCircuitState(cb.State())
}

// breaker returns the breaker for id, creating it on first use.
func (b *Breakers) breaker(id int64) *gobreaker.CircuitBreaker {
	b.mu.RLock()
	cb, ok := b.breakers[id]
	b.mu.RUnlock()
	if ok {
		return cb
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if cb, ok = b.breakers[id]; ok {
		return cb
	}
	cb = gobreaker.NewCircuitBreaker(b.settings(id))
	b.breakers[id] = cb
	return cb
}

func (b *Breakers) settings(id int64) gobreaker.Settings {
	name := strconv.FormatInt(id, 10)
	threshold := b.config.ConsecutiveTimeouts

	return gobreaker.Settings{
		Name:        name,
		MaxRequests: b.config.HalfOpenRequests,
		Timeout:     b.config.Cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		IsSuccessful: isSuccessful,
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			b.logger.Warn("circuit breaker state changed",
				logging.AccountID(id),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
			b.metrics.RecordCircuitState(name, toCircuitState(to))
		},
	}
}

// isSuccessful counts everything except an expired lock wait as a success.
func isSuccessful(err error) bool {
	if err == nil {
		return true
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	return !errors.Is(err, account.ErrLockTimeout)
}

func toCircuitState(state gobreaker.State) metrics.CircuitState {
	switch state {
	case gobreaker.StateOpen:
		return metrics.CircuitOpen
	case gobreaker.StateHalfOpen:
		return metrics.CircuitHalfOpen
	default:
		return metrics.CircuitClosed
	}
}
