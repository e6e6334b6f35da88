package bets

import (
	"fmt"

	"github.com/MJE43/fair-roulette-go/internal/engine"
)

// Result is the settlement of a bet against a spin outcome. Payout is the
// gross amount credited on a win (stake times multiplier) and zero on a
// loss; the reserved stake is only consumed when the bet loses.
type Result struct {
	Won    bool  `json:"won"`
	Payout int64 `json:"payout"`
}

// Resolve settles a validated bet against the pocket of a spin.
//
// Pocket 0 loses every outside bet: it has no color side, no parity, and
// belongs to no range, dozen or column. Only a straight bet on 0 can win
// on a green spin.
func Resolve(b Bet, pocket int) (Result, error) {
	if err := b.Validate(); err != nil {
		return Result{}, err
	}
	if pocket < 0 || pocket >= engine.Pockets {
		return Result{}, fmt.Errorf("pocket %d out of range", pocket)
	}

	var won bool
	switch b.Type {
	case TypeColor:
		won = engine.ColorOf(pocket) == b.Side
	case TypeOddEven:
		if pocket != 0 {
			if pocket%2 == 0 {
				won = b.Parity == Even
			} else {
				won = b.Parity == Odd
			}
		}
	case TypeLowHigh:
		if pocket != 0 {
			if pocket <= 18 {
				won = b.Range == Low
			} else {
				won = b.Range == High
			}
		}
	case TypeDozen:
		won = pocket != 0 && (pocket-1)/12+1 == b.Which
	case TypeColumn:
		// Column 1 holds 1,4,...,34; column 2 holds 2,5,...,35; column 3
		// holds 3,6,...,36 — so column c matches pocket%3 == c%3.
		won = pocket != 0 && pocket%3 == b.Which%3
	case TypeStraight:
		won = pocket == b.Number
	}

	if !won {
		return Result{}, nil
	}

	return Result{Won: true, Payout: b.Amount * Multiplier(b.Type)}, nil
}
