package account

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestIsInsufficientFunds(t *testing.T) {
	insufficient := &InsufficientFundsError{
		AccountID: 3,
		Requested: decimal.NewFromInt(100000),
		Available: decimal.NewFromInt(10000),
	}

	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"typed error", insufficient, true},
		{"wrapped typed error", fmt.Errorf("transfer: %w", insufficient), true},
		{"sentinel", ErrInsufficientFunds, true},
		{"other error", ErrInvalidAmount, false},
		{"nil error", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsInsufficientFunds(tt.err); got != tt.expected {
				t.Errorf("IsInsufficientFunds(%v) = %v, want %v", tt.err, got, tt.expected)
			}
		})
	}
}

func TestInsufficientFundsError_Message(t *testing.T) {
	err := &InsufficientFundsError{
		AccountID: 3,
		Requested: decimal.NewFromInt(100000),
		Available: decimal.RequireFromString("10000.5"),
	}

	want := "account 3: insufficient funds, requested $100000.00, available $10000.50"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}

	var target *InsufficientFundsError
	if !errors.As(fmt.Errorf("wrap: %w", err), &target) {
		t.Fatal("errors.As failed to find InsufficientFundsError")
	}
	if target.AccountID != 3 {
		t.Errorf("AccountID = %d, want 3", target.AccountID)
	}
}

func TestLockTimeoutError(t *testing.T) {
	tests := []struct {
		name       string
		err        *LockTimeoutError
		isCanceled bool
		isDeadline bool
	}{
		{
			name: "timeout expired",
			err:  &LockTimeoutError{AccountID: 1, Timeout: time.Second},
		},
		{
			name:       "caller canceled",
			err:        &LockTimeoutError{AccountID: 1, Timeout: time.Second, Cause: context.Canceled},
			isCanceled: true,
		},
		{
			name:       "caller deadline",
			err:        &LockTimeoutError{AccountID: 1, Timeout: time.Second, Cause: context.DeadlineExceeded},
			isDeadline: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !IsLockTimeout(tt.err) {
				t.Error("expected IsLockTimeout to hold")
			}
			if got := errors.Is(tt.err, context.Canceled); got != tt.isCanceled {
				t.Errorf("errors.Is(context.Canceled) = %v, want %v", got, tt.isCanceled)
			}
			if got := errors.Is(tt.err, context.DeadlineExceeded); got != tt.isDeadline {
				t.Errorf("errors.Is(context.DeadlineExceeded) = %v, want %v", got, tt.isDeadline)
			}
		})
	}
}

func TestEffectiveTimeout(t *testing.T) {
	if got := EffectiveTimeout(0); got != DefaultLockTimeout {
		t.Errorf("EffectiveTimeout(0) = %v, want %v", got, DefaultLockTimeout)
	}
	if got := EffectiveTimeout(-time.Second); got != DefaultLockTimeout {
		t.Errorf("EffectiveTimeout(-1s) = %v, want %v", got, DefaultLockTimeout)
	}
	if got := EffectiveTimeout(time.Millisecond); got != time.Millisecond {
		t.Errorf("EffectiveTimeout(1ms) = %v, want 1ms", got)
	}
}
