package ledger

import (
	"errors"
	"fmt"
)

var (
	// ErrSessionRevealed rejects play on a session whose secret has been
	// disclosed; a revealed seed can no longer back a fairness proof.
	ErrSessionRevealed = errors.New("session already revealed")

	// ErrInvalidAmount rejects non-positive deposit amounts.
	ErrInvalidAmount = errors.New("amount must be positive")
)

// InsufficientFundsError is a business rejection, not a system fault. The
// balance observed at rejection time is carried so callers can surface the
// shortfall.
type InsufficientFundsError struct {
	Balance int64
	Stake   int64
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds: balance %d, stake %d (short %d)",
		e.Balance, e.Stake, e.Stake-e.Balance)
}

// Shortfall returns how much the stake exceeds the balance.
func (e *InsufficientFundsError) Shortfall() int64 {
	return e.Stake - e.Balance
}
