package account

import (
	"context"
	"time"

	"funds-transfer/pkg/ledger"

	"github.com/shopspring/decimal"
)

// DefaultLockTimeout bounds the wait for a transaction lock when no timeout is given.
const DefaultLockTimeout = 5 * time.Second

// Account defines the interface every account implementation must satisfy.
// An account has two independent lock domains: one guarding the balance and its
// entry log, and an exclusive transaction lock that brackets a whole transfer.
type Account interface {
	// ID returns the immutable account identifier.
	// It is also the canonical order key for lock acquisition.
	ID() int64

	// Balance returns the current balance under a shared read lock.
	Balance() decimal.Decimal

	// Deposit adds amount to the balance.
	// Returns ErrInvalidAmount if amount is not positive.
	Deposit(amount decimal.Decimal) error

	// Withdraw subtracts amount from the balance.
	// Returns ErrInvalidAmount if amount is not positive, or an *InsufficientFundsError
	// if the balance cannot cover it. The balance is never left negative.
	Withdraw(amount decimal.Decimal) error

	// AppendEntry appends an entry to the account's log.
	// It does not block balance readers.
	AppendEntry(entry ledger.Entry)

	// Entries returns a copy of the log in chronological order.
	Entries() []ledger.Entry

	// AcquireTransactionLock waits up to timeout for the exclusive transaction lock.
	// A non-positive timeout means DefaultLockTimeout. Returns a *LockTimeoutError if the
	// lock was not obtained, either because the wait expired or because ctx was done.
	// The returned Unlocker must be released on every exit path.
	AcquireTransactionLock(ctx context.Context, timeout time.Duration) (Unlocker, error)

	// TryAcquireTransactionLock takes the transaction lock without waiting.
	// It reports false if another holder owns it.
	TryAcquireTransactionLock() (Unlocker, bool)
}

// Unlocker releases a transaction lock. Unlock is safe to call more than once;
// only the first call releases.
type Unlocker interface {
	Unlock()
}

// UnlockFunc adapts a plain function to Unlocker.
type UnlockFunc func()

// Unlock calls f.
func (f UnlockFunc) Unlock() {
	f()
}

// EffectiveTimeout returns timeout, or DefaultLockTimeout if timeout is not positive.
func EffectiveTimeout(timeout time.Duration) time.Duration {
	if timeout <= 0 {
		return DefaultLockTimeout
	}
	return timeout
}
