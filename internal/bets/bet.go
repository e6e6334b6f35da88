package bets

import (
	"errors"
	"fmt"

	"github.com/MJE43/fair-roulette-go/internal/engine"
)

// ErrInvalidBet marks a malformed wager. Callers reject the request before
// any funds are touched.
var ErrInvalidBet = errors.New("invalid bet")

// Type discriminates the bet variants.
type Type string

const (
	TypeColor    Type = "color"
	TypeOddEven  Type = "odd_even"
	TypeLowHigh  Type = "low_high"
	TypeDozen    Type = "dozen"
	TypeColumn   Type = "column"
	TypeStraight Type = "straight"
)

// Parity is the side of an odd_even bet.
type Parity string

const (
	Odd  Parity = "odd"
	Even Parity = "even"
)

// Range is the side of a low_high bet.
type Range string

const (
	Low  Range = "low"  // pockets 1-18
	High Range = "high" // pockets 19-36
)

// Bet is a single wager against one spin. Exactly one shape field is
// meaningful per Type: Side for color, Parity for odd_even, Range for
// low_high, Which for dozen/column, Number for straight. Amount is the
// stake in minor units and must be positive.
type Bet struct {
	Type   Type
	Side   engine.Color
	Parity Parity
	Range  Range
	Which  int
	Number int
	Amount int64
}

// Multiplier returns the fixed payout multiplier for a bet type. The table
// is part of the house ruleset: straight 35x, dozen/column 2x, the even
// chances 1x.
func Multiplier(t Type) int64 {
	switch t {
	case TypeStraight:
		return 35
	case TypeDozen, TypeColumn:
		return 2
	default:
		return 1
	}
}

// Validate checks the bet shape and stake. It returns an error wrapping
// ErrInvalidBet describing the first problem found.
func (b Bet) Validate() error {
	if b.Amount <= 0 {
		return fmt.Errorf("%w: amount must be positive", ErrInvalidBet)
	}

	switch b.Type {
	case TypeColor:
		if b.Side != engine.Red && b.Side != engine.Black {
			return fmt.Errorf("%w: color side must be red or black", ErrInvalidBet)
		}
	case TypeOddEven:
		if b.Parity != Odd && b.Parity != Even {
			return fmt.Errorf("%w: odd_even side must be odd or even", ErrInvalidBet)
		}
	case TypeLowHigh:
		if b.Range != Low && b.Range != High {
			return fmt.Errorf("%w: low_high side must be low or high", ErrInvalidBet)
		}
	case TypeDozen, TypeColumn:
		if b.Which < 1 || b.Which > 3 {
			return fmt.Errorf("%w: %s selection must be 1, 2 or 3", ErrInvalidBet, b.Type)
		}
	case TypeStraight:
		if b.Number < 0 || b.Number >= engine.Pockets {
			return fmt.Errorf("%w: straight number must be 0-36", ErrInvalidBet)
		}
	default:
		return fmt.Errorf("%w: unknown bet type %q", ErrInvalidBet, b.Type)
	}

	return nil
}
