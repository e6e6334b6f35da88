package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/MJE43/fair-roulette-go/internal/engine"
	"github.com/MJE43/fair-roulette-go/internal/seeds"
	"github.com/MJE43/fair-roulette-go/internal/store"
)

// handleOpenSession starts a commit-reveal session. Only the commitment
// leaves the server.
func (s *Server) handleOpenSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.ledger.OpenSession(r.Context(), userIDFrom(r.Context()))
	if err != nil {
		s.handleError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, sessionResponse{
		SessionID:      sess.ID,
		ServerSeedHash: sess.Commitment,
	})
}

// handlePlaceBet settles one bet against the session's next nonce.
func (s *Server) handlePlaceBet(w http.ResponseWriter, r *http.Request) {
	var req betRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid_json", "invalid JSON body", nil)
		return
	}

	bet, err := req.Bet.toBet()
	if err != nil {
		s.handleError(w, err)
		return
	}

	placement, err := s.ledger.PlaceBet(r.Context(), userIDFrom(r.Context()), chi.URLParam(r, "id"), bet, req.ClientSeed)
	if err != nil {
		s.handleError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, placementResponse{
		Spin: spinToDTO(placement.Spin),
		BetResult: betResultDTO{
			Won:    placement.Result.Won,
			Payout: fromCents(placement.Result.Payout).String(),
		},
		User: userToDTO(placement.User),
	})
}

// handleListSpins returns the session's nonce-ordered history.
func (s *Server) handleListSpins(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 0)
	offset := queryInt(r, "offset", 0)

	history, err := s.ledger.ListSpins(r.Context(), userIDFrom(r.Context()), chi.URLParam(r, "id"), limit, offset)
	if err != nil {
		s.handleError(w, err)
		return
	}

	spins := make([]spinDTO, 0, len(history.Spins))
	for _, sp := range history.Spins {
		spins = append(spins, spinToDTO(sp))
	}
	s.writeJSON(w, http.StatusOK, spinHistoryResponse{
		SessionID: history.SessionID,
		Revealed:  history.Revealed,
		Spins:     spins,
	})
}

// handleReveal discloses the secret seed and retires the session from
// play. Repeated reveals return the same seed.
func (s *Server) handleReveal(w http.ResponseWriter, r *http.Request) {
	sess, err := s.ledger.Reveal(r.Context(), userIDFrom(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		s.handleError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, revealResponse{
		SessionID:      sess.ID,
		ServerSeed:     sess.SecretSeed,
		ServerSeedHash: sess.Commitment,
		Revealed:       sess.Revealed,
	})
}

// handleVerify re-derives an outcome from disclosed inputs. Stateless:
// anyone holding a revealed seed can audit any spin.
func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid_json", "invalid JSON body", nil)
		return
	}
	if req.ServerSeed == "" {
		s.writeError(w, http.StatusBadRequest, "validation_error", "server_seed is required", nil)
		return
	}

	out := engine.Derive(req.ServerSeed, req.ClientSeed, req.Nonce)
	s.writeJSON(w, http.StatusOK, verifyResponse{
		ServerSeedHash: seeds.Commit(req.ServerSeed),
		Pocket:         out.Pocket,
		Color:          string(out.Color),
		Tag:            out.Tag,
	})
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	u, err := s.ledger.User(r.Context(), userIDFrom(r.Context()))
	if err != nil {
		s.handleError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, userToDTO(*u))
}

func (s *Server) handleDeposit(w http.ResponseWriter, r *http.Request) {
	var req depositRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid_json", "invalid JSON body", nil)
		return
	}
	amount, err := toCents(req.Amount)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid_amount", err.Error(), nil)
		return
	}

	u, err := s.ledger.Deposit(r.Context(), userIDFrom(r.Context()), amount)
	if err != nil {
		s.handleError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, userToDTO(*u))
}

func (s *Server) handleCreditRequest(w http.ResponseWriter, r *http.Request) {
	var req creditRequestPayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid_json", "invalid JSON body", nil)
		return
	}
	amount, err := toCents(req.Amount)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid_amount", err.Error(), nil)
		return
	}

	cr, err := s.credits.Request(r.Context(), userIDFrom(r.Context()), amount, req.Note)
	if err != nil {
		s.handleError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, creditToDTO(*cr))
}

func (s *Server) handleCreditList(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	switch status {
	case "", store.CreditPending, store.CreditApproved, store.CreditDenied:
	default:
		s.writeError(w, http.StatusBadRequest, "validation_error", "unknown status filter", nil)
		return
	}

	reqs, err := s.credits.List(r.Context(), status)
	if err != nil {
		s.handleError(w, err)
		return
	}
	out := make([]creditDTO, 0, len(reqs))
	for _, cr := range reqs {
		out = append(out, creditToDTO(cr))
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreditApprove(w http.ResponseWriter, r *http.Request) {
	cr, err := s.credits.Approve(r.Context(), chi.URLParam(r, "id"), userIDFrom(r.Context()))
	if err != nil {
		s.handleError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, creditToDTO(*cr))
}

func (s *Server) handleCreditDeny(w http.ResponseWriter, r *http.Request) {
	var req creditDenyPayload
	if r.Body != nil {
		// The note is optional; an empty body is fine.
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	cr, err := s.credits.Deny(r.Context(), chi.URLParam(r, "id"), userIDFrom(r.Context()), req.Note)
	if err != nil {
		s.handleError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, creditToDTO(*cr))
}

func queryInt(r *http.Request, key string, fallback int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
