package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/MJE43/fair-roulette-go/internal/bets"
	"github.com/MJE43/fair-roulette-go/internal/credits"
	"github.com/MJE43/fair-roulette-go/internal/ledger"
	"github.com/MJE43/fair-roulette-go/internal/store"
)

type errorBody struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

type errorEnvelope struct {
	Error errorBody `json:"error"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Warn("write response", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, code, message string, details map[string]interface{}) {
	s.writeJSON(w, status, errorEnvelope{Error: errorBody{
		Code:    code,
		Message: message,
		Details: details,
	}})
}

// handleError maps domain errors onto HTTP statuses. Business rejections
// are 4xx; only transport and storage faults reach 5xx.
func (s *Server) handleError(w http.ResponseWriter, err error) {
	var insufficient *ledger.InsufficientFundsError
	var storageErr *store.StorageError

	switch {
	case errors.As(err, &insufficient):
		s.writeError(w, http.StatusBadRequest, "insufficient_funds", insufficient.Error(), map[string]interface{}{
			"balance":   fromCents(insufficient.Balance).String(),
			"stake":     fromCents(insufficient.Stake).String(),
			"shortfall": fromCents(insufficient.Shortfall()).String(),
		})
	case errors.Is(err, bets.ErrInvalidBet):
		s.writeError(w, http.StatusBadRequest, "invalid_bet", err.Error(), nil)
	case errors.Is(err, ledger.ErrInvalidAmount), errors.Is(err, credits.ErrInvalidAmount):
		s.writeError(w, http.StatusBadRequest, "invalid_amount", err.Error(), nil)
	case errors.Is(err, store.ErrNotFound):
		s.writeError(w, http.StatusNotFound, "not_found", "resource not found", nil)
	case errors.Is(err, ledger.ErrSessionRevealed):
		s.writeError(w, http.StatusConflict, "session_revealed", err.Error(), nil)
	case errors.Is(err, store.ErrAlreadyProcessed):
		s.writeError(w, http.StatusConflict, "already_processed", err.Error(), nil)
	case errors.Is(err, store.ErrPendingRequest):
		s.writeError(w, http.StatusConflict, "pending_request", err.Error(), nil)
	case errors.As(err, &storageErr):
		s.log.Error("storage fault", zap.Error(err), zap.Bool("retryable", storageErr.Retryable))
		if storageErr.Retryable {
			s.writeError(w, http.StatusServiceUnavailable, "storage_unavailable", "storage temporarily unavailable", nil)
			return
		}
		s.writeError(w, http.StatusInternalServerError, "internal", "internal error", nil)
	default:
		s.log.Error("unhandled error", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "internal", "internal error", nil)
	}
}
