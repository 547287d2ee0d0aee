package memory

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"funds-transfer/pkg/account"
	"funds-transfer/pkg/ledger"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/semaphore"
)

// Account is an in-memory account that satisfies the account.Account interface.
// Balance and log have independent read/write locks; the transaction lock is a
// weighted semaphore of size one so acquisition can be bounded by a context.
type Account struct {
	id int64

	// balance is only mutated while balanceMu is held for writing
	balance   decimal.Decimal
	balanceMu sync.RWMutex

	// entries is append-only; insertion order is chronological order
	entries []ledger.Entry
	logMu   sync.RWMutex

	// tx is held while a transfer owns the account
	tx   *semaphore.Weighted
	held atomic.Bool
}

var _ account.Account = (*Account)(nil)

// New creates an account with the given id and opening balance.
// Returns account.ErrNegativeBalance if initial is negative.
func New(id int64, initial decimal.Decimal) (*Account, error) {
	if initial.IsNegative() {
		return nil, account.ErrNegativeBalance
	}

	return &Account{
		id:      id,
		balance: initial,
		tx:      semaphore.NewWeighted(1),
	}, nil
}

// ID returns the account identifier.
func (a *Account) ID() int64 {
	return a.id
}

// Balance returns the current balance.
func (a *Account) Balance() decimal.Decimal {
	a.balanceMu.RLock()
	defer a.balanceMu.RUnlock()

	return a.balance
}

// Deposit adds amount to the balance.
func (a *Account) Deposit(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return account.ErrInvalidAmount
	}

	a.balanceMu.Lock()
	a.balance = a.balance.Add(amount)
	a.balanceMu.Unlock()

	return nil
}

// Withdraw subtracts amount from the balance.
// The sufficiency check and the mutation happen under one write lock.
func (a *Account) Withdraw(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return account.ErrInvalidAmount
	}

	a.balanceMu.Lock()
	defer a.balanceMu.Unlock()

	if a.balance.LessThan(amount) {
		return &account.InsufficientFundsError{
			AccountID: a.id,
			Requested: amount,
			Available: a.balance,
		}
	}

	a.balance = a.balance.Sub(amount)
	return nil
}

// AppendEntry appends an entry to the log.
func (a *Account) AppendEntry(entry ledger.Entry) {
	a.logMu.Lock()
	a.entries = append(a.entries, entry)
	a.logMu.Unlock()
}

// Entries returns a copy of the log.
func (a *Account) Entries() []ledger.Entry {
	a.logMu.RLock()
	defer a.logMu.RUnlock()

	out := make([]ledger.Entry, len(a.entries))
	copy(out, a.entries)
	return out
}

// AcquireTransactionLock waits for the transaction lock until the timeout expires
// or ctx is done, whichever comes first.
func (a *Account) AcquireTransactionLock(ctx context.Context, timeout time.Duration) (account.Unlocker, error) {
	timeout = account.EffectiveTimeout(timeout)

	if err := ctx.Err(); err != nil {
		return nil, &account.LockTimeoutError{AccountID: a.id, Timeout: timeout, Cause: err}
	}
	if a.tx.TryAcquire(1) {
		return a.unlocker(), nil
	}

	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := a.tx.Acquire(waitCtx, 1); err != nil {
		// A nil cause means the lock timeout itself expired
		return nil, &account.LockTimeoutError{AccountID: a.id, Timeout: timeout, Cause: ctx.Err()}
	}
	return a.unlocker(), nil
}

// TryAcquireTransactionLock takes the transaction lock only if it is free.
func (a *Account) TryAcquireTransactionLock() (account.Unlocker, bool) {
	if !a.tx.TryAcquire(1) {
		return nil, false
	}
	return a.unlocker(), true
}

// Locked reports whether a transfer currently holds the transaction lock.
func (a *Account) Locked() bool {
	return a.held.Load()
}

// unlocker marks the lock held and returns a release function bound to that
// one acquisition.
func (a *Account) unlocker() account.Unlocker {
	a.held.Store(true)

	var once sync.Once
	return account.UnlockFunc(func() {
		once.Do(func() {
			a.held.Store(false)
			a.tx.Release(1)
		})
	})
}
