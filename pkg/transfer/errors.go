package transfer

import (
	"context"
	"errors"
	"fmt"

	"funds-transfer/pkg/account"
	"funds-transfer/pkg/registry"
	"funds-transfer/pkg/resilience"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
)

// Transfer errors.
var (
	// ErrSameAccount is returned when source and destination are the same account
	ErrSameAccount = errors.New("transfer: source and destination accounts cannot be the same")

	// ErrReversed is returned when the deposit failed and the withdrawal was compensated.
	// Balances are back to their values before the transfer.
	ErrReversed = errors.New("transfer: deposit failed, withdrawal reversed")

	// ErrCompensationFailed is returned when the compensating deposit itself failed.
	// The source account is short by the transfer amount.
	ErrCompensationFailed = errors.New("transfer: compensation failed")
)

// CompensationFailedError carries everything needed to repair a transfer whose
// withdrawal could not be reversed. It is terminal: the coordinator does not retry.
type CompensationFailedError struct {
	TransferID uuid.UUID
	From       int64
	To         int64
	Amount     decimal.Decimal
	// Err combines the deposit failure and the compensation failure
	Err error
}

func (e *CompensationFailedError) Error() string {
	return fmt.Sprintf("transfer %s: compensation failed, $%s withdrawn from account %d was not restored: %v",
		e.TransferID, e.Amount.StringFixed(2), e.From, e.Err)
}

// Is makes errors.Is(err, ErrCompensationFailed) hold.
func (e *CompensationFailedError) Is(target error) bool {
	return target == ErrCompensationFailed
}

// Unwrap returns the combined causes.
func (e *CompensationFailedError) Unwrap() error {
	return e.Err
}

// Causes returns the individual failures, deposit first.
func (e *CompensationFailedError) Causes() []error {
	return multierr.Errors(e.Err)
}

// IsCompensationFailed checks if the given error reports a failed compensation.
func IsCompensationFailed(err error) bool {
	return errors.Is(err, ErrCompensationFailed)
}

// IsReversed checks if the given error reports a compensated transfer.
func IsReversed(err error) bool {
	return errors.Is(err, ErrReversed)
}

// Outcome labels produced by ClassifyError.
const (
	OutcomeSuccess            = "success"
	OutcomeInvalidAmount      = "invalid_amount"
	OutcomeInsufficientFunds  = "insufficient_funds"
	OutcomeAccountNotFound    = "account_not_found"
	OutcomeSameAccount        = "same_account"
	OutcomeLockTimeout        = "lock_timeout"
	OutcomeCircuitOpen        = "circuit_open"
	OutcomeCanceled           = "canceled"
	OutcomeReversed           = "reversed"
	OutcomeCompensationFailed = "compensation_failed"
	OutcomeError              = "error"
)

// ClassifyError maps a Transfer error to a short outcome label for metrics and logs.
func ClassifyError(err error) string {
	switch {
	case err == nil:
		return OutcomeSuccess
	case errors.Is(err, ErrCompensationFailed):
		return OutcomeCompensationFailed
	case errors.Is(err, ErrReversed):
		return OutcomeReversed
	case errors.Is(err, resilience.ErrCircuitOpen):
		return OutcomeCircuitOpen
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return OutcomeCanceled
	case errors.Is(err, account.ErrLockTimeout):
		return OutcomeLockTimeout
	case errors.Is(err, registry.ErrAccountNotFound):
		return OutcomeAccountNotFound
	case errors.Is(err, ErrSameAccount):
		return OutcomeSameAccount
	case errors.Is(err, account.ErrInvalidAmount):
		return OutcomeInvalidAmount
	case errors.Is(err, account.ErrInsufficientFunds):
		return OutcomeInsufficientFunds
	default:
		return OutcomeError
	}
}
