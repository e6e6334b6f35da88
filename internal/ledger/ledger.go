// Package ledger is the single point of truth for spendable balances. It
// owns the settlement sequence for every bet: reserve the stake, derive
// the outcome, resolve the bet and persist the lot as one unit.
package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"

	"github.com/MJE43/fair-roulette-go/internal/bets"
	"github.com/MJE43/fair-roulette-go/internal/engine"
	"github.com/MJE43/fair-roulette-go/internal/seeds"
	"github.com/MJE43/fair-roulette-go/internal/store"
)

const (
	settleRetries = 3
	settleBackoff = 50 * time.Millisecond
)

// Ledger coordinates sessions, spins and balances over the store.
type Ledger struct {
	db    store.DB
	locks *sessionLocks
	log   *zap.Logger
}

// New creates a ledger over the given store.
func New(db store.DB, log *zap.Logger) *Ledger {
	return &Ledger{
		db:    db,
		locks: newSessionLocks(),
		log:   log,
	}
}

// Placement is the full result of one settled bet.
type Placement struct {
	Spin   store.Spin
	Result bets.Result
	User   store.User
}

// SpinHistory is a session's nonce-ordered spin list with its reveal
// status.
type SpinHistory struct {
	SessionID string
	Revealed  bool
	Spins     []store.Spin
}

// OpenSession generates a fresh secret seed, commits to it and persists
// the session. The secret itself is never returned here; callers only see
// the commitment until reveal.
func (l *Ledger) OpenSession(ctx context.Context, userID string) (*store.Session, error) {
	if err := l.db.EnsureUser(ctx, userID); err != nil {
		return nil, err
	}

	secret := seeds.NewSecret()
	sess := &store.Session{
		UserID:     userID,
		SecretSeed: secret,
		Commitment: seeds.Commit(secret),
	}
	if err := l.db.CreateSession(ctx, sess); err != nil {
		return nil, err
	}

	l.log.Info("session opened",
		zap.String("session_id", sess.ID),
		zap.String("user_id", userID),
		zap.String("commitment", sess.Commitment),
	)
	return sess, nil
}

// Reveal marks the session revealed and returns it, secret included, so
// the player can check hash(secret) against the commitment. Reveal is
// idempotent; only the session owner may reveal.
func (l *Ledger) Reveal(ctx context.Context, userID, sessionID string) (*store.Session, error) {
	if _, err := l.ownedSession(ctx, userID, sessionID); err != nil {
		return nil, err
	}

	unlock := l.locks.lock(sessionID)
	defer unlock()

	sess, err := l.db.RevealSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	l.log.Info("session revealed",
		zap.String("session_id", sessionID),
		zap.Uint64("spins", sess.Nonce),
	)
	return sess, nil
}

// PlaceBet runs the settlement sequence for one bet. Work on the same
// session is serialized by a per-session lock, so the nonce counter is
// consumed exactly once per spin and balance checks cannot interleave.
//
// Once the settlement transaction starts there is no partial state to
// abandon: the debit, the payout, the counters, the nonce and the spin
// record persist together or not at all.
func (l *Ledger) PlaceBet(ctx context.Context, userID, sessionID string, bet bets.Bet, clientSeed string) (*Placement, error) {
	// Malformed wagers are rejected before any funds are touched.
	if err := bet.Validate(); err != nil {
		return nil, err
	}

	unlock := l.locks.lock(sessionID)
	defer unlock()

	sess, err := l.ownedSession(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.Revealed {
		return nil, ErrSessionRevealed
	}

	user, err := l.db.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.Balance < bet.Amount {
		return nil, &InsufficientFundsError{Balance: user.Balance, Stake: bet.Amount}
	}

	nonce := sess.Nonce
	outcome := engine.Derive(sess.SecretSeed, clientSeed, nonce)

	result, err := bets.Resolve(bet, outcome.Pocket)
	if err != nil {
		return nil, err
	}

	st := store.Settlement{
		Spin: store.Spin{
			SessionID:  sessionID,
			Nonce:      nonce,
			ClientSeed: clientSeed,
			Tag:        outcome.Tag,
			Pocket:     outcome.Pocket,
			Color:      string(outcome.Color),
			BetType:    string(bet.Type),
			Stake:      bet.Amount,
			Won:        result.Won,
			Payout:     result.Payout,
		},
		UserID: userID,
		Stake:  bet.Amount,
		Payout: result.Payout,
	}
	if result.Won {
		st.WonDelta = result.Payout
	} else {
		st.LostDelta = bet.Amount
	}

	// The unit is all-or-nothing, so transient storage faults are safe to
	// retry whole.
	var snapshot *store.User
	backoff := retry.WithMaxRetries(settleRetries, retry.NewFibonacci(settleBackoff))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		u, err := l.db.ApplySettlement(ctx, st)
		if err != nil {
			if store.IsRetryable(err) {
				return retry.RetryableError(err)
			}
			return err
		}
		snapshot = u
		return nil
	})
	if err != nil {
		// Another session of the same user may have drained the balance
		// between the check and the transaction's own guard.
		if errors.Is(err, store.ErrInsufficientFunds) {
			return nil, &InsufficientFundsError{Balance: user.Balance, Stake: bet.Amount}
		}
		return nil, err
	}

	l.log.Info("bet settled",
		zap.String("session_id", sessionID),
		zap.Uint64("nonce", nonce),
		zap.String("bet_type", string(bet.Type)),
		zap.Int64("stake", bet.Amount),
		zap.Int("pocket", outcome.Pocket),
		zap.Bool("won", result.Won),
		zap.Int64("payout", result.Payout),
	)

	return &Placement{Spin: st.Spin, Result: result, User: *snapshot}, nil
}

// ListSpins returns the session's spins by increasing nonce together with
// the reveal status. limit <= 0 lists everything.
func (l *Ledger) ListSpins(ctx context.Context, userID, sessionID string, limit, offset int) (*SpinHistory, error) {
	sess, err := l.ownedSession(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}

	spins, err := l.db.ListSpins(ctx, sessionID, limit, offset)
	if err != nil {
		return nil, err
	}

	return &SpinHistory{SessionID: sessionID, Revealed: sess.Revealed, Spins: spins}, nil
}

// Deposit credits amount to the user's spendable balance.
func (l *Ledger) Deposit(ctx context.Context, userID string, amount int64) (*store.User, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if err := l.db.EnsureUser(ctx, userID); err != nil {
		return nil, err
	}

	user, err := l.db.Deposit(ctx, userID, amount)
	if err != nil {
		return nil, err
	}

	l.log.Info("deposit applied",
		zap.String("user_id", userID),
		zap.Int64("amount", amount),
	)
	return user, nil
}

// User returns the current account snapshot.
func (l *Ledger) User(ctx context.Context, userID string) (*store.User, error) {
	return l.db.GetUser(ctx, userID)
}

// ownedSession loads a session and hides its existence from non-owners.
func (l *Ledger) ownedSession(ctx context.Context, userID, sessionID string) (*store.Session, error) {
	sess, err := l.db.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.UserID != userID {
		return nil, store.ErrNotFound
	}
	return sess, nil
}
