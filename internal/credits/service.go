// Package credits implements the credit-request workflow: a player asks
// for funds, a reviewer approves or denies, and approval credits the
// balance through the same atomic discipline as bet settlement.
package credits

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/MJE43/fair-roulette-go/internal/store"
)

// ErrInvalidAmount rejects non-positive credit amounts.
var ErrInvalidAmount = errors.New("credit amount must be positive")

// Service drives credit requests over the store.
type Service struct {
	db  store.DB
	log *zap.Logger
}

// NewService creates a credits service.
func NewService(db store.DB, log *zap.Logger) *Service {
	return &Service{db: db, log: log}
}

// Request files a pending credit request for the user. A user can have at
// most one pending request at a time.
func (s *Service) Request(ctx context.Context, userID string, amount int64, note string) (*store.CreditRequest, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if err := s.db.EnsureUser(ctx, userID); err != nil {
		return nil, err
	}

	req := &store.CreditRequest{UserID: userID, Amount: amount, Note: note}
	if err := s.db.CreateCreditRequest(ctx, req); err != nil {
		return nil, err
	}

	s.log.Info("credit requested",
		zap.String("request_id", req.ID),
		zap.String("user_id", userID),
		zap.Int64("amount", amount),
	)
	return req, nil
}

// List returns credit requests newest first, optionally filtered by
// status.
func (s *Service) List(ctx context.Context, status string) ([]store.CreditRequest, error) {
	return s.db.ListCreditRequests(ctx, status)
}

// Get retrieves a single credit request by id.
func (s *Service) Get(ctx context.Context, id string) (*store.CreditRequest, error) {
	return s.db.GetCreditRequest(ctx, id)
}

// Approve settles a pending request and credits the user's balance as one
// unit. Requests that already left pending are rejected.
func (s *Service) Approve(ctx context.Context, requestID, reviewerID string) (*store.CreditRequest, error) {
	req, err := s.db.ApproveCreditRequest(ctx, requestID, reviewerID)
	if err != nil {
		return nil, err
	}

	s.log.Info("credit approved",
		zap.String("request_id", req.ID),
		zap.String("user_id", req.UserID),
		zap.String("reviewer_id", reviewerID),
		zap.Int64("amount", req.Amount),
	)
	return req, nil
}

// Deny settles a pending request without crediting anything.
func (s *Service) Deny(ctx context.Context, requestID, reviewerID, note string) (*store.CreditRequest, error) {
	req, err := s.db.DenyCreditRequest(ctx, requestID, reviewerID, note)
	if err != nil {
		return nil, err
	}

	s.log.Info("credit denied",
		zap.String("request_id", req.ID),
		zap.String("reviewer_id", reviewerID),
	)
	return req, nil
}
