package bets

import (
	"errors"
	"testing"

	"github.com/MJE43/fair-roulette-go/internal/engine"
)

func TestResolveTable(t *testing.T) {
	tests := []struct {
		name       string
		bet        Bet
		pocket     int
		wantWon    bool
		wantPayout int64
	}{
		{"red wins on red", Bet{Type: TypeColor, Side: engine.Red, Amount: 100}, 32, true, 100},
		{"red loses on black", Bet{Type: TypeColor, Side: engine.Red, Amount: 100}, 17, false, 0},
		{"red loses on zero", Bet{Type: TypeColor, Side: engine.Red, Amount: 100}, 0, false, 0},
		{"black loses on zero", Bet{Type: TypeColor, Side: engine.Black, Amount: 100}, 0, false, 0},

		{"odd wins on 17", Bet{Type: TypeOddEven, Parity: Odd, Amount: 100}, 17, true, 100},
		{"even wins on 32", Bet{Type: TypeOddEven, Parity: Even, Amount: 100}, 32, true, 100},
		{"even loses on zero", Bet{Type: TypeOddEven, Parity: Even, Amount: 100}, 0, false, 0},

		{"low wins on 18", Bet{Type: TypeLowHigh, Range: Low, Amount: 100}, 18, true, 100},
		{"high wins on 19", Bet{Type: TypeLowHigh, Range: High, Amount: 100}, 19, true, 100},
		{"low loses on 19", Bet{Type: TypeLowHigh, Range: Low, Amount: 100}, 19, false, 0},
		{"high loses on zero", Bet{Type: TypeLowHigh, Range: High, Amount: 100}, 0, false, 0},

		{"dozen 1 wins on 1", Bet{Type: TypeDozen, Which: 1, Amount: 100}, 1, true, 200},
		{"dozen 1 wins on 12", Bet{Type: TypeDozen, Which: 1, Amount: 100}, 12, true, 200},
		{"dozen 2 wins on 13", Bet{Type: TypeDozen, Which: 2, Amount: 100}, 13, true, 200},
		{"dozen 3 wins on 36", Bet{Type: TypeDozen, Which: 3, Amount: 100}, 36, true, 200},
		{"dozen 1 loses on 13", Bet{Type: TypeDozen, Which: 1, Amount: 100}, 13, false, 0},
		{"dozen 1 loses on zero", Bet{Type: TypeDozen, Which: 1, Amount: 100}, 0, false, 0},

		{"column 1 wins on 1", Bet{Type: TypeColumn, Which: 1, Amount: 100}, 1, true, 200},
		{"column 1 wins on 34", Bet{Type: TypeColumn, Which: 1, Amount: 100}, 34, true, 200},
		{"column 2 wins on 35", Bet{Type: TypeColumn, Which: 2, Amount: 100}, 35, true, 200},
		{"column 3 wins on 3", Bet{Type: TypeColumn, Which: 3, Amount: 100}, 3, true, 200},
		{"column 3 wins on 36", Bet{Type: TypeColumn, Which: 3, Amount: 100}, 36, true, 200},
		{"column 2 loses on 1", Bet{Type: TypeColumn, Which: 2, Amount: 100}, 1, false, 0},
		{"column 3 loses on zero", Bet{Type: TypeColumn, Which: 3, Amount: 100}, 0, false, 0},

		{"straight 17 wins on 17", Bet{Type: TypeStraight, Number: 17, Amount: 5}, 17, true, 175},
		{"straight 17 loses on 18", Bet{Type: TypeStraight, Number: 17, Amount: 5}, 18, false, 0},
		{"straight 0 wins on zero", Bet{Type: TypeStraight, Number: 0, Amount: 100}, 0, true, 3500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Resolve(tt.bet, tt.pocket)
			if err != nil {
				t.Fatalf("Resolve() error = %v", err)
			}
			if got.Won != tt.wantWon {
				t.Errorf("Won = %v, want %v", got.Won, tt.wantWon)
			}
			if got.Payout != tt.wantPayout {
				t.Errorf("Payout = %d, want %d", got.Payout, tt.wantPayout)
			}
		})
	}
}

func TestValidateRejectsMalformedBets(t *testing.T) {
	tests := []struct {
		name string
		bet  Bet
	}{
		{"zero amount", Bet{Type: TypeColor, Side: engine.Red, Amount: 0}},
		{"negative amount", Bet{Type: TypeStraight, Number: 5, Amount: -100}},
		{"green color side", Bet{Type: TypeColor, Side: engine.Green, Amount: 100}},
		{"bogus color side", Bet{Type: TypeColor, Side: "purple", Amount: 100}},
		{"bogus parity", Bet{Type: TypeOddEven, Parity: "prime", Amount: 100}},
		{"bogus range", Bet{Type: TypeLowHigh, Range: "mid", Amount: 100}},
		{"dozen zero", Bet{Type: TypeDozen, Which: 0, Amount: 100}},
		{"dozen four", Bet{Type: TypeDozen, Which: 4, Amount: 100}},
		{"column negative", Bet{Type: TypeColumn, Which: -1, Amount: 100}},
		{"straight negative", Bet{Type: TypeStraight, Number: -1, Amount: 100}},
		{"straight 37", Bet{Type: TypeStraight, Number: 37, Amount: 100}},
		{"unknown type", Bet{Type: "split", Amount: 100}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.bet.Validate()
			if !errors.Is(err, ErrInvalidBet) {
				t.Errorf("Validate() error = %v, want ErrInvalidBet", err)
			}

			// Resolve must refuse the same bet without touching anything.
			if _, err := Resolve(tt.bet, 17); !errors.Is(err, ErrInvalidBet) {
				t.Errorf("Resolve() error = %v, want ErrInvalidBet", err)
			}
		})
	}
}

func TestMultiplierTable(t *testing.T) {
	want := map[Type]int64{
		TypeStraight: 35,
		TypeDozen:    2,
		TypeColumn:   2,
		TypeColor:    1,
		TypeOddEven:  1,
		TypeLowHigh:  1,
	}

	for typ, mult := range want {
		if got := Multiplier(typ); got != mult {
			t.Errorf("Multiplier(%s) = %d, want %d", typ, got, mult)
		}
	}
}
