// Package transfer moves funds between registry accounts.
//
// A transfer validates its arguments without taking any lock, then acquires the
// transaction locks of both accounts in canonical order (lower id first), withdraws
// from the source and deposits into the destination. If the deposit fails the
// withdrawal is reversed before either lock is released, so no reader ever sees the
// intermediate state of a failed transfer. Transfers over disjoint account pairs
// never contend.
package transfer

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"funds-transfer/pkg/account"
	"funds-transfer/pkg/journal"
	"funds-transfer/pkg/ledger"
	"funds-transfer/pkg/logging"
	"funds-transfer/pkg/metrics"
	"funds-transfer/pkg/registry"
	"funds-transfer/pkg/resilience"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Config configures a Coordinator.
type Config struct {
	// LockTimeout bounds the wait for each transaction lock (default: 5s)
	LockTimeout time.Duration

	// Breaker configures the per-account circuit breakers around lock acquisition
	Breaker resilience.BreakerConfig

	// Journal receives committed entries after the locks are released. Optional.
	Journal *journal.Journal

	// Metrics receives transfer outcomes and lock waits (default: no-op)
	Metrics metrics.MetricsCollector

	// Logger is the coordinator logger (default: the global logger)
	Logger *logging.Logger
}

// DefaultConfig returns the default coordinator configuration.
func DefaultConfig() Config {
	return Config{
		LockTimeout: account.DefaultLockTimeout,
		Breaker:     resilience.DefaultBreakerConfig(),
		Metrics:     metrics.NoOpCollector{},
	}
}

// Coordinator performs transfers between the accounts of a registry.
type Coordinator struct {
	registry *registry.Registry
	config   Config
	breakers *resilience.Breakers
	journal  *journal.Journal
	metrics  metrics.MetricsCollector
	logger   *logging.Logger

	reports singleflight.Group
}

// New creates a coordinator over reg.
func New(reg *registry.Registry, config Config) *Coordinator {
	if config.LockTimeout <= 0 {
		config.LockTimeout = account.DefaultLockTimeout
	}
	if config.Metrics == nil {
		config.Metrics = metrics.NoOpCollector{}
	}
	logger := config.Logger
	if logger == nil {
		logger = logging.Global()
	}
	logger = logger.Named("transfer")

	c := &Coordinator{
		registry: reg,
		config:   config,
		breakers: resilience.NewBreakersWithMetrics(config.Breaker, config.Metrics),
		journal:  config.Journal,
		metrics:  config.Metrics,
		logger:   logger,
	}

	logger.Info("transfer coordinator initialized",
		zap.Int("accounts", reg.Len()),
		zap.Duration("lock_timeout", config.LockTimeout),
		zap.Bool("breakers", config.Breaker.Enabled),
		zap.Bool("journal", config.Journal != nil),
	)

	return c
}

// Registry returns the registry the coordinator works on.
func (c *Coordinator) Registry() *registry.Registry {
	return c.registry
}

// BreakerState returns the circuit breaker state of an account.
func (c *Coordinator) BreakerState(id int64) metrics.CircuitState {
	return c.breakers.State(id)
}

// BreakersEnabled reports whether lock acquisition goes through circuit breakers.
func (c *Coordinator) BreakersEnabled() bool {
	return c.breakers.Enabled()
}

// Journal returns the configured journal, or nil.
func (c *Coordinator) Journal() *journal.Journal {
	return c.journal
}

// Transfer moves amount from account fromID to account toID and returns the
// committed entry.
//
// Validation happens before any lock is taken, in this order: both accounts
// exist (every missing one is reported), they differ, the amount is positive. A failed withdrawal (typically an
// *account.InsufficientFundsError) is returned unchanged with nothing mutated.
// A failed deposit is compensated and reported as ErrReversed; if compensation
// also fails the error is a *CompensationFailedError.
func (c *Coordinator) Transfer(ctx context.Context, fromID, toID int64, amount decimal.Decimal) (ledger.Entry, error) {
	start := time.Now()
	logger := c.logger.With(
		logging.FromAccount(fromID),
		logging.ToAccount(toID),
		logging.Amount(amount),
	)
	logger.Debug("starting transfer")

	entry, committed, err := c.transfer(ctx, fromID, toID, amount)

	duration := time.Since(start)
	outcome := ClassifyError(err)
	c.metrics.RecordTransfer(outcome, duration)

	// Locks are released by now
	c.publish(ctx, committed)

	switch outcome {
	case OutcomeSuccess:
		logger.Info("transfer completed",
			logging.TransferID(entry.TransferID),
			zap.Duration("duration", duration),
		)
	case OutcomeCompensationFailed:
		logger.Error("transfer failed and could not be reversed",
			zap.String("outcome", outcome),
			zap.Error(err),
		)
	default:
		logger.Warn("transfer aborted",
			zap.String("outcome", outcome),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
	}

	return entry, err
}

// transfer runs the protocol and returns the forward entry on success together
// with every entry appended to an account log.
func (c *Coordinator) transfer(ctx context.Context, fromID, toID int64, amount decimal.Decimal) (ledger.Entry, []ledger.Entry, error) {
	from, fromErr := c.registry.Lookup(fromID)
	to, toErr := c.registry.Lookup(toID)
	if fromID == toID {
		toErr = nil
	}
	if err := multierr.Combine(fromErr, toErr); err != nil {
		return ledger.Entry{}, nil, err
	}
	if fromID == toID {
		return ledger.Entry{}, nil, ErrSameAccount
	}
	if !amount.IsPositive() {
		return ledger.Entry{}, nil, account.ErrInvalidAmount
	}

	low, high := Order(from, to)

	unlockLow, err := c.acquire(ctx, low)
	if err != nil {
		return ledger.Entry{}, nil, err
	}
	defer unlockLow.Unlock()

	unlockHigh, err := c.acquire(ctx, high)
	if err != nil {
		return ledger.Entry{}, nil, err
	}
	defer unlockHigh.Unlock()

	entry := ledger.NewEntry(uuid.New(), fromID, toID, amount)

	if err := from.Withdraw(amount); err != nil {
		return ledger.Entry{}, nil, err
	}
	from.AppendEntry(entry)

	if err := to.Deposit(amount); err != nil {
		reversal, cerr := c.compensate(from, entry, err)
		if cerr != nil {
			return ledger.Entry{}, []ledger.Entry{entry}, cerr
		}
		return ledger.Entry{}, []ledger.Entry{entry, reversal},
			fmt.Errorf("%w: transfer %s: deposit into account %d: %w", ErrReversed, entry.TransferID, toID, err)
	}
	to.AppendEntry(entry)

	return entry, []ledger.Entry{entry}, nil
}

// compensate restores the source balance after a failed deposit and records the
// reversal in the source log. Both transaction locks must be held.
func (c *Coordinator) compensate(from account.Account, entry ledger.Entry, depositErr error) (ledger.Entry, error) {
	logger := c.logger.With(logging.TransferID(entry.TransferID), logging.AccountID(from.ID()))

	if err := from.Deposit(entry.Amount); err != nil {
		c.metrics.RecordCompensation(false)
		return ledger.Entry{}, &CompensationFailedError{
			TransferID: entry.TransferID,
			From:       entry.From,
			To:         entry.To,
			Amount:     entry.Amount,
			Err:        multierr.Combine(depositErr, err),
		}
	}

	reversal := entry.Reverse()
	from.AppendEntry(reversal)
	c.metrics.RecordCompensation(true)

	logger.Warn("withdrawal reversed after failed deposit",
		logging.Amount(entry.Amount),
		zap.NamedError("deposit_error", depositErr),
	)

	return reversal, nil
}

// acquire takes acct's transaction lock through its breaker and records the wait.
func (c *Coordinator) acquire(ctx context.Context, acct account.Account) (account.Unlocker, error) {
	start := time.Now()
	unlock, err := c.breakers.Acquire(ctx, acct, c.config.LockTimeout)
	c.metrics.RecordLockWait(strconv.FormatInt(acct.ID(), 10), err == nil, time.Since(start))
	return unlock, err
}

// publish hands committed entries to the journal. Delivery problems are logged
// and never change the transfer outcome.
func (c *Coordinator) publish(ctx context.Context, entries []ledger.Entry) {
	if c.journal == nil || len(entries) == 0 {
		return
	}

	// The transfer is committed; the caller cancelling now must not lose the entries.
	ctx = context.WithoutCancel(ctx)
	for _, entry := range entries {
		if err := c.journal.Publish(ctx, entry); err != nil {
			c.logger.Warn("journal publish failed",
				logging.TransferID(entry.TransferID),
				zap.String("entry_id", entry.ID.String()),
				zap.Error(err),
			)
		}
	}
}
