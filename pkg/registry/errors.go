package registry

import (
	"errors"
	"fmt"
)

// Registry errors.
var (
	// ErrAccountNotFound is returned when an id is not registered
	ErrAccountNotFound = errors.New("registry: account not found")

	// ErrDuplicateAccount is returned when two accounts share an id
	ErrDuplicateAccount = errors.New("registry: duplicate account id")

	// ErrNilAccount is returned when a nil account is registered
	ErrNilAccount = errors.New("registry: nil account")
)

// AccountNotFoundError names the id that failed to resolve.
type AccountNotFoundError struct {
	ID int64
}

func (e *AccountNotFoundError) Error() string {
	return fmt.Sprintf("account %d not found in the system", e.ID)
}

// Is makes errors.Is(err, ErrAccountNotFound) hold.
func (e *AccountNotFoundError) Is(target error) bool {
	return target == ErrAccountNotFound
}

// DuplicateAccountError names an id registered twice.
type DuplicateAccountError struct {
	ID int64
}

func (e *DuplicateAccountError) Error() string {
	return fmt.Sprintf("registry: account %d registered twice", e.ID)
}

// Is makes errors.Is(err, ErrDuplicateAccount) hold.
func (e *DuplicateAccountError) Is(target error) bool {
	return target == ErrDuplicateAccount
}

// OpeningError reports an account that could not be opened.
type OpeningError struct {
	ID  int64
	Err error
}

func (e *OpeningError) Error() string {
	return fmt.Sprintf("registry: open account %d: %v", e.ID, e.Err)
}

func (e *OpeningError) Unwrap() error {
	return e.Err
}

// IsNotFound checks if the given error indicates an unknown account id.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrAccountNotFound)
}
