package api

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/MJE43/fair-roulette-go/internal/bets"
	"github.com/MJE43/fair-roulette-go/internal/engine"
	"github.com/MJE43/fair-roulette-go/internal/store"
)

// Money crosses the wire as decimal major units ("10.50"); the engine
// works in integer minor units. Sub-cent precision is rejected at the
// boundary so a request can never stake an amount the ledger cannot
// represent.

func toCents(d decimal.Decimal) (int64, error) {
	cents := d.Mul(decimal.NewFromInt(100))
	if !cents.IsInteger() {
		return 0, fmt.Errorf("amount %s has sub-cent precision", d)
	}
	return cents.IntPart(), nil
}

func fromCents(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}

type sessionResponse struct {
	SessionID      string `json:"session_id"`
	ServerSeedHash string `json:"server_seed_hash"`
}

type revealResponse struct {
	SessionID      string `json:"session_id"`
	ServerSeed     string `json:"server_seed"`
	ServerSeedHash string `json:"server_seed_hash"`
	Revealed       bool   `json:"revealed"`
}

type betPayload struct {
	Type   string          `json:"type"`
	Side   string          `json:"side,omitempty"`
	Which  int             `json:"which,omitempty"`
	Number int             `json:"number"`
	Amount decimal.Decimal `json:"amount"`
}

type betRequest struct {
	ClientSeed string     `json:"client_seed"`
	Bet        betPayload `json:"bet"`
}

// toBet maps the wire shape onto the engine's bet. The "side" field is
// overloaded per type: a color name, "odd"/"even" or "low"/"high".
func (p betPayload) toBet() (bets.Bet, error) {
	amount, err := toCents(p.Amount)
	if err != nil {
		return bets.Bet{}, fmt.Errorf("%w: %v", bets.ErrInvalidBet, err)
	}

	b := bets.Bet{
		Type:   bets.Type(p.Type),
		Which:  p.Which,
		Number: p.Number,
		Amount: amount,
	}
	switch b.Type {
	case bets.TypeColor:
		b.Side = engine.Color(p.Side)
	case bets.TypeOddEven:
		b.Parity = bets.Parity(p.Side)
	case bets.TypeLowHigh:
		b.Range = bets.Range(p.Side)
	}
	return b, nil
}

type spinDTO struct {
	Nonce      uint64 `json:"nonce"`
	ClientSeed string `json:"client_seed"`
	Pocket     int    `json:"pocket"`
	Color      string `json:"color"`
	Tag        string `json:"hmac_hex"`
	BetType    string `json:"bet_type,omitempty"`
	Stake      string `json:"stake,omitempty"`
	Won        bool   `json:"won"`
	Payout     string `json:"payout"`
}

func spinToDTO(sp store.Spin) spinDTO {
	return spinDTO{
		Nonce:      sp.Nonce,
		ClientSeed: sp.ClientSeed,
		Pocket:     sp.Pocket,
		Color:      sp.Color,
		Tag:        sp.Tag,
		BetType:    sp.BetType,
		Stake:      fromCents(sp.Stake).String(),
		Won:        sp.Won,
		Payout:     fromCents(sp.Payout).String(),
	}
}

type userDTO struct {
	ID        string    `json:"id"`
	Balance   string    `json:"balance"`
	TotalWon  string    `json:"total_won"`
	TotalLost string    `json:"total_lost"`
	CreatedAt time.Time `json:"created_at"`
}

func userToDTO(u store.User) userDTO {
	return userDTO{
		ID:        u.ID,
		Balance:   fromCents(u.Balance).String(),
		TotalWon:  fromCents(u.TotalWon).String(),
		TotalLost: fromCents(u.TotalLost).String(),
		CreatedAt: u.CreatedAt,
	}
}

type betResultDTO struct {
	Won    bool   `json:"won"`
	Payout string `json:"payout"`
}

type placementResponse struct {
	Spin      spinDTO      `json:"spin"`
	BetResult betResultDTO `json:"bet_result"`
	User      userDTO      `json:"user"`
}

type spinHistoryResponse struct {
	SessionID string    `json:"session_id"`
	Revealed  bool      `json:"revealed"`
	Spins     []spinDTO `json:"spins"`
}

type verifyRequest struct {
	ServerSeed string `json:"server_seed"`
	ClientSeed string `json:"client_seed"`
	Nonce      uint64 `json:"nonce"`
}

type verifyResponse struct {
	ServerSeedHash string `json:"server_seed_hash"`
	Pocket         int    `json:"pocket"`
	Color          string `json:"color"`
	Tag            string `json:"hmac_hex"`
}

type depositRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

type creditRequestPayload struct {
	Amount decimal.Decimal `json:"amount"`
	Note   string          `json:"note,omitempty"`
}

type creditDenyPayload struct {
	Note string `json:"note,omitempty"`
}

type creditDTO struct {
	ID         string     `json:"id"`
	UserID     string     `json:"user_id"`
	Amount     string     `json:"amount"`
	Status     string     `json:"status"`
	Note       string     `json:"note,omitempty"`
	ReviewerID string     `json:"reviewer_id,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	ReviewedAt *time.Time `json:"reviewed_at,omitempty"`
}

func creditToDTO(cr store.CreditRequest) creditDTO {
	return creditDTO{
		ID:         cr.ID,
		UserID:     cr.UserID,
		Amount:     fromCents(cr.Amount).String(),
		Status:     cr.Status,
		Note:       cr.Note,
		ReviewerID: cr.ReviewerID,
		CreatedAt:  cr.CreatedAt,
		ReviewedAt: cr.ReviewedAt,
	}
}
