package account

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Account operation errors.
var (
	// ErrInvalidAmount is returned when an amount is zero or negative
	ErrInvalidAmount = errors.New("account: amount must be positive")

	// ErrNegativeBalance is returned when an account is opened with a negative balance
	ErrNegativeBalance = errors.New("account: initial balance cannot be negative")

	// ErrInsufficientFunds is returned when a withdrawal exceeds the balance
	ErrInsufficientFunds = errors.New("account: insufficient funds")

	// ErrLockTimeout is returned when the transaction lock could not be acquired in time
	ErrLockTimeout = errors.New("account: transaction lock timeout")
)

// InsufficientFundsError carries the diagnostics of a rejected withdrawal.
type InsufficientFundsError struct {
	AccountID int64
	Requested decimal.Decimal
	Available decimal.Decimal
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("account %d: insufficient funds, requested $%s, available $%s",
		e.AccountID, e.Requested.StringFixed(2), e.Available.StringFixed(2))
}

// Is makes errors.Is(err, ErrInsufficientFunds) hold.
func (e *InsufficientFundsError) Is(target error) bool {
	return target == ErrInsufficientFunds
}

// LockTimeoutError reports a transaction lock that was not acquired.
// Cause is context.DeadlineExceeded or context.Canceled when the caller's
// context ended the wait, and nil when the lock timeout itself expired.
type LockTimeoutError struct {
	AccountID int64
	Timeout   time.Duration
	Cause     error
}

func (e *LockTimeoutError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("account %d: transaction lock not acquired: %v", e.AccountID, e.Cause)
	}
	return fmt.Sprintf("account %d: unable to acquire transaction lock within %s", e.AccountID, e.Timeout)
}

// Unwrap exposes both ErrLockTimeout and the context cause.
func (e *LockTimeoutError) Unwrap() []error {
	if e.Cause == nil {
		return []error{ErrLockTimeout}
	}
	return []error{ErrLockTimeout, e.Cause}
}

// IsInsufficientFunds checks if the given error indicates a rejected withdrawal.
func IsInsufficientFunds(err error) bool {
	return errors.Is(err, ErrInsufficientFunds)
}

// IsLockTimeout checks if the given error indicates a transaction lock was not acquired.
func IsLockTimeout(err error) bool {
	return errors.Is(err, ErrLockTimeout)
}
