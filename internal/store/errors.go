package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound reports an unknown user, session, spin or credit request.
	ErrNotFound = errors.New("not found")

	// ErrInsufficientFunds reports that the in-transaction balance guard
	// rejected a debit. The balance is untouched when this is returned.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrAlreadyProcessed reports a credit request that already left the
	// pending state.
	ErrAlreadyProcessed = errors.New("credit request already processed")

	// ErrPendingRequest reports that the user already has a pending credit
	// request.
	ErrPendingRequest = errors.New("pending credit request exists")
)

// StorageError wraps an infrastructure fault. Retryable errors (lock
// contention, timeouts) are safe to retry at the unit-of-work level
// because every multi-row unit is transactional.
type StorageError struct {
	Op        string
	Err       error
	Retryable bool
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// IsRetryable reports whether err is a StorageError safe to retry.
func IsRetryable(err error) bool {
	var se *StorageError
	return errors.As(err, &se) && se.Retryable
}

// storageErr classifies a driver error. SQLite lock contention and context
// deadlines are transient; everything else is not.
func storageErr(op string, err error) error {
	return &StorageError{Op: op, Err: err, Retryable: isTransient(err)}
}

func isTransient(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") ||
		strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "database table is locked")
}
