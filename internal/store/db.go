package store

import (
	"context"
	"time"
)

// DB is the persistence interface for the roulette engine. Settlement and
// credit approval are all-or-nothing units: either every row they touch
// persists or none does.
type DB interface {
	Close() error
	Migrate() error

	EnsureUser(ctx context.Context, id string) error
	GetUser(ctx context.Context, id string) (*User, error)
	Deposit(ctx context.Context, id string, amount int64) (*User, error)

	CreateSession(ctx context.Context, session *Session) error
	GetSession(ctx context.Context, id string) (*Session, error)
	RevealSession(ctx context.Context, id string) (*Session, error)

	ApplySettlement(ctx context.Context, st Settlement) (*User, error)
	ListSpins(ctx context.Context, sessionID string, limit, offset int) ([]Spin, error)

	CreateCreditRequest(ctx context.Context, req *CreditRequest) error
	GetCreditRequest(ctx context.Context, id string) (*CreditRequest, error)
	ListCreditRequests(ctx context.Context, status string) ([]CreditRequest, error)
	ApproveCreditRequest(ctx context.Context, id, reviewerID string) (*CreditRequest, error)
	DenyCreditRequest(ctx context.Context, id, reviewerID, note string) (*CreditRequest, error)
}

// User is the engine's view of a player account. Balance and the lifetime
// counters are in minor units and mutate only through settlement, deposits
// and credit approval.
type User struct {
	ID        string    `json:"id" db:"id"`
	Balance   int64     `json:"balance" db:"balance"`
	TotalWon  int64     `json:"total_won" db:"total_won"`
	TotalLost int64     `json:"total_lost" db:"total_lost"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Session is one commit-reveal lifecycle. SecretSeed never changes after
// creation and is never exposed until Revealed flips true; Nonce is the
// next nonce to consume.
type Session struct {
	ID         string    `json:"id" db:"id"`
	UserID     string    `json:"user_id" db:"user_id"`
	SecretSeed string    `json:"-" db:"secret_seed"`
	Commitment string    `json:"server_seed_hash" db:"commitment"`
	Nonce      uint64    `json:"nonce" db:"nonce"`
	Revealed   bool      `json:"revealed" db:"revealed"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// Spin is one immutable entry in a session's nonce-ordered history,
// carrying the bet resolution it settled.
type Spin struct {
	ID         string    `json:"id" db:"id"`
	SessionID  string    `json:"session_id" db:"session_id"`
	Nonce      uint64    `json:"nonce" db:"nonce"`
	ClientSeed string    `json:"client_seed" db:"client_seed"`
	Tag        string    `json:"hmac_hex" db:"verification_tag"`
	Pocket     int       `json:"pocket" db:"pocket"`
	Color      string    `json:"color" db:"color"`
	BetType    string    `json:"bet_type" db:"bet_type"`
	Stake      int64     `json:"stake" db:"stake"`
	Won        bool      `json:"won" db:"won"`
	Payout     int64     `json:"payout" db:"payout"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// Settlement is the single atomic unit for one bet: debit the stake,
// credit the payout, bump the lifetime counters, consume the session
// nonce and append the spin record.
type Settlement struct {
	Spin      Spin
	UserID    string
	Stake     int64
	Payout    int64
	WonDelta  int64
	LostDelta int64
}

// Credit request statuses. The lifecycle is pending -> approved|denied,
// one way.
const (
	CreditPending  = "pending"
	CreditApproved = "approved"
	CreditDenied   = "denied"
)

// CreditRequest is a player's ask for funds, settled by a reviewer.
type CreditRequest struct {
	ID         string       `json:"id" db:"id"`
	UserID     string       `json:"user_id" db:"user_id"`
	Amount     int64        `json:"amount" db:"amount"`
	Status     string       `json:"status" db:"status"`
	Note       string       `json:"note,omitempty" db:"note"`
	ReviewerID string       `json:"reviewer_id,omitempty" db:"reviewer_id"`
	CreatedAt  time.Time    `json:"created_at" db:"created_at"`
	ReviewedAt *time.Time   `json:"reviewed_at,omitempty" db:"reviewed_at"`
}
