package mock

import (
	"context"
	"sync/atomic"
	"time"

	"funds-transfer/pkg/account"
	"funds-transfer/pkg/ledger"

	"github.com/shopspring/decimal"
)

// Account wraps a real account.Account for testing.
// Each hook, when set, replaces the call to the wrapped account; otherwise the
// call is forwarded. Call counts are tracked for every operation.
type Account struct {
	// Base receives every call whose hook is nil
	Base account.Account

	// Function hooks - set these to customize behavior
	DepositFunc  func(amount decimal.Decimal) error
	WithdrawFunc func(amount decimal.Decimal) error
	AcquireFunc  func(ctx context.Context, timeout time.Duration) (account.Unlocker, error)
	TryFunc      func() (account.Unlocker, bool)

	// Call tracking (must use atomic operations for race-free access)
	depositCalls  int64
	withdrawCalls int64
	acquireCalls  int64
	appendCalls   int64
}

var _ account.Account = (*Account)(nil)

// Wrap returns a mock that forwards to base until hooks are set.
func Wrap(base account.Account) *Account {
	return &Account{Base: base}
}

// ID forwards to the base account.
func (m *Account) ID() int64 {
	return m.Base.ID()
}

// Balance forwards to the base account.
func (m *Account) Balance() decimal.Decimal {
	return m.Base.Balance()
}

// Deposit implements account.Account.Deposit with optional custom behavior.
func (m *Account) Deposit(amount decimal.Decimal) error {
	atomic.AddInt64(&m.depositCalls, 1)
	if m.DepositFunc != nil {
		return m.DepositFunc(amount)
	}
	return m.Base.Deposit(amount)
}

// Withdraw implements account.Account.Withdraw with optional custom behavior.
func (m *Account) Withdraw(amount decimal.Decimal) error {
	atomic.AddInt64(&m.withdrawCalls, 1)
	if m.WithdrawFunc != nil {
		return m.WithdrawFunc(amount)
	}
	return m.Base.Withdraw(amount)
}

// AppendEntry forwards to the base account.
func (m *Account) AppendEntry(entry ledger.Entry) {
	atomic.AddInt64(&m.appendCalls, 1)
	m.Base.AppendEntry(entry)
}

// Entries forwards to the base account.
func (m *Account) Entries() []ledger.Entry {
	return m.Base.Entries()
}

// AcquireTransactionLock implements account.Account.AcquireTransactionLock with optional custom behavior.
func (m *Account) AcquireTransactionLock(ctx context.Context, timeout time.Duration) (account.Unlocker, error) {
	atomic.AddInt64(&m.acquireCalls, 1)
	if m.AcquireFunc != nil {
		return m.AcquireFunc(ctx, timeout)
	}
	return m.Base.AcquireTransactionLock(ctx, timeout)
}

// TryAcquireTransactionLock implements account.Account.TryAcquireTransactionLock with optional custom behavior.
// It counts towards AcquireCalls.
func (m *Account) TryAcquireTransactionLock() (account.Unlocker, bool) {
	atomic.AddInt64(&m.acquireCalls, 1)
	if m.TryFunc != nil {
		return m.TryFunc()
	}
	return m.Base.TryAcquireTransactionLock()
}

// DepositCalls returns the number of times Deposit was called.
func (m *Account) DepositCalls() int64 {
	return atomic.LoadInt64(&m.depositCalls)
}

// WithdrawCalls returns the number of times Withdraw was called.
func (m *Account) WithdrawCalls() int64 {
	return atomic.LoadInt64(&m.withdrawCalls)
}

// AcquireCalls returns the number of lock acquisition attempts, waiting or not.
func (m *Account) AcquireCalls() int64 {
	return atomic.LoadInt64(&m.acquireCalls)
}

// AppendCalls returns the number of times AppendEntry was called.
func (m *Account) AppendCalls() int64 {
	return atomic.LoadInt64(&m.appendCalls)
}

// Reset resets all call counters.
func (m *Account) Reset() {
	atomic.StoreInt64(&m.depositCalls, 0)
	atomic.StoreInt64(&m.withdrawCalls, 0)
	atomic.StoreInt64(&m.acquireCalls, 0)
	atomic.StoreInt64(&m.appendCalls, 0)
}

// ErrInjected is a mock error for hooks that simulate a failing operation
var ErrInjected = &mockError{"injected failure"}

type mockError struct {
	msg string
}

func (e *mockError) Error() string {
	return "mock: " + e.msg
}
