package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// SQLiteDB implements the DB interface using SQLite.
type SQLiteDB struct {
	db *sql.DB
}

// NewSQLiteDB opens a SQLite database at path.
func NewSQLiteDB(path string) (*SQLiteDB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// WAL for concurrent readers, a bounded busy timeout so lock waits
	// surface as retryable errors instead of hanging.
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", pragma, err)
		}
	}

	return &SQLiteDB{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteDB) Close() error {
	return s.db.Close()
}

// Migrate applies the embedded schema migrations.
func (s *SQLiteDB) Migrate() error {
	goose.SetBaseFS(migrationsFS)
	goose.SetLogger(goose.NopLogger())

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set dialect: %w", err)
	}
	if err := goose.Up(s.db, "migrations"); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	return nil
}

// EnsureUser creates a zero-balance account row for an externally owned
// user id the first time this subsystem sees it.
func (s *SQLiteDB) EnsureUser(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id) VALUES (?) ON CONFLICT(id) DO NOTHING`, id)
	if err != nil {
		return storageErr("ensure user", err)
	}
	return nil
}

// GetUser retrieves a user snapshot by id.
func (s *SQLiteDB) GetUser(ctx context.Context, id string) (*User, error) {
	var u User
	err := s.db.QueryRowContext(ctx,
		`SELECT id, balance, total_won, total_lost, created_at FROM users WHERE id = ?`, id).
		Scan(&u.ID, &u.Balance, &u.TotalWon, &u.TotalLost, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, storageErr("get user", err)
	}
	return &u, nil
}

// Deposit credits amount to the user's balance and returns the updated
// snapshot. The credit is a relative update so it cannot lose a concurrent
// settlement.
func (s *SQLiteDB) Deposit(ctx context.Context, id string, amount int64) (*User, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, storageErr("begin deposit", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE users SET balance = balance + ? WHERE id = ?`, amount, id)
	if err != nil {
		return nil, storageErr("deposit", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, ErrNotFound
	}

	u, err := userInTx(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, storageErr("commit deposit", err)
	}
	return u, nil
}

// CreateSession persists a new session with its secret and commitment.
func (s *SQLiteDB) CreateSession(ctx context.Context, session *Session) error {
	if session.ID == "" {
		session.ID = uuid.New().String()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (id, user_id, secret_seed, commitment, nonce, revealed)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		session.ID, session.UserID, session.SecretSeed, session.Commitment,
		session.Nonce, session.Revealed,
	)
	if err != nil {
		return storageErr("create session", err)
	}
	return nil
}

// GetSession retrieves a session by id.
func (s *SQLiteDB) GetSession(ctx context.Context, id string) (*Session, error) {
	var sess Session
	err := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, secret_seed, commitment, nonce, revealed, created_at
		 FROM sessions WHERE id = ?`, id).
		Scan(&sess.ID, &sess.UserID, &sess.SecretSeed, &sess.Commitment,
			&sess.Nonce, &sess.Revealed, &sess.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, storageErr("get session", err)
	}
	return &sess, nil
}

// RevealSession marks the session revealed and returns it. Revealing an
// already revealed session is a no-op, so reveal is idempotent.
func (s *SQLiteDB) RevealSession(ctx context.Context, id string) (*Session, error) {
	_, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET revealed = 1 WHERE id = ?`, id)
	if err != nil {
		return nil, storageErr("reveal session", err)
	}
	return s.GetSession(ctx, id)
}

// ApplySettlement runs the settlement unit for one bet as a single
// transaction: consume the session nonce, move the stake and payout
// through the user's balance and lifetime counters, and append the spin.
// Either every row persists or none does.
func (s *SQLiteDB) ApplySettlement(ctx context.Context, st Settlement) (*User, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, storageErr("begin settlement", err)
	}
	defer tx.Rollback()

	// Consume the nonce. The guard on the current value and the revealed
	// flag backstops the caller's session lock: if it ever misses, the
	// serialization contract was broken and the unit must not persist.
	res, err := tx.ExecContext(ctx,
		`UPDATE sessions SET nonce = nonce + 1 WHERE id = ? AND nonce = ? AND revealed = 0`,
		st.Spin.SessionID, st.Spin.Nonce)
	if err != nil {
		return nil, storageErr("consume nonce", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, &StorageError{
			Op:  "consume nonce",
			Err: fmt.Errorf("session %s nonce %d not consumable", st.Spin.SessionID, st.Spin.Nonce),
		}
	}

	// Check-and-debit as one statement: the balance guard makes overdraft
	// impossible even against concurrent mutations from other sessions.
	res, err = tx.ExecContext(ctx,
		`UPDATE users
		 SET balance = balance - ? + ?,
		     total_won = total_won + ?,
		     total_lost = total_lost + ?
		 WHERE id = ? AND balance >= ?`,
		st.Stake, st.Payout, st.WonDelta, st.LostDelta, st.UserID, st.Stake)
	if err != nil {
		return nil, storageErr("settle balance", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := userInTx(ctx, tx, st.UserID); errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, ErrInsufficientFunds
	}

	spin := st.Spin
	if spin.ID == "" {
		spin.ID = uuid.New().String()
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO spins (id, session_id, nonce, client_seed, verification_tag,
		                    pocket, color, bet_type, stake, won, payout)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		spin.ID, spin.SessionID, spin.Nonce, spin.ClientSeed, spin.Tag,
		spin.Pocket, spin.Color, spin.BetType, spin.Stake, spin.Won, spin.Payout)
	if err != nil {
		return nil, storageErr("insert spin", err)
	}

	u, err := userInTx(ctx, tx, st.UserID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, storageErr("commit settlement", err)
	}
	return u, nil
}

// ListSpins retrieves a session's spins ordered by increasing nonce.
// limit <= 0 means no limit.
func (s *SQLiteDB) ListSpins(ctx context.Context, sessionID string, limit, offset int) ([]Spin, error) {
	if limit <= 0 {
		limit = -1 // SQLite: LIMIT -1 is unlimited
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, session_id, nonce, client_seed, verification_tag,
		        pocket, color, bet_type, stake, won, payout, created_at
		 FROM spins WHERE session_id = ?
		 ORDER BY nonce LIMIT ? OFFSET ?`,
		sessionID, limit, offset)
	if err != nil {
		return nil, storageErr("list spins", err)
	}
	defer rows.Close()

	var spins []Spin
	for rows.Next() {
		var sp Spin
		err := rows.Scan(&sp.ID, &sp.SessionID, &sp.Nonce, &sp.ClientSeed, &sp.Tag,
			&sp.Pocket, &sp.Color, &sp.BetType, &sp.Stake, &sp.Won, &sp.Payout, &sp.CreatedAt)
		if err != nil {
			return nil, storageErr("scan spin", err)
		}
		spins = append(spins, sp)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("list spins", err)
	}
	return spins, nil
}

// CreateCreditRequest inserts a pending credit request, rejecting it when
// the user already has one pending. The existence check runs inside the
// insert transaction.
func (s *SQLiteDB) CreateCreditRequest(ctx context.Context, req *CreditRequest) error {
	if req.ID == "" {
		req.ID = uuid.New().String()
	}
	req.Status = CreditPending

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storageErr("begin credit request", err)
	}
	defer tx.Rollback()

	var pending int
	err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM credit_requests WHERE user_id = ? AND status = ?`,
		req.UserID, CreditPending).Scan(&pending)
	if err != nil {
		return storageErr("check pending credit", err)
	}
	if pending > 0 {
		return ErrPendingRequest
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO credit_requests (id, user_id, amount, status, note)
		 VALUES (?, ?, ?, ?, ?)`,
		req.ID, req.UserID, req.Amount, req.Status, req.Note)
	if err != nil {
		return storageErr("create credit request", err)
	}

	if err := tx.Commit(); err != nil {
		return storageErr("commit credit request", err)
	}
	return nil
}

// GetCreditRequest retrieves a credit request by id.
func (s *SQLiteDB) GetCreditRequest(ctx context.Context, id string) (*CreditRequest, error) {
	return creditRequest(ctx, s.db, id)
}

// ListCreditRequests retrieves credit requests newest first, optionally
// filtered by status.
func (s *SQLiteDB) ListCreditRequests(ctx context.Context, status string) ([]CreditRequest, error) {
	query := `SELECT id, user_id, amount, status, note, reviewer_id, created_at, reviewed_at
	          FROM credit_requests`
	args := []interface{}{}
	if status != "" {
		query += ` WHERE status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storageErr("list credit requests", err)
	}
	defer rows.Close()

	var reqs []CreditRequest
	for rows.Next() {
		var r CreditRequest
		var reviewedAt sql.NullTime
		err := rows.Scan(&r.ID, &r.UserID, &r.Amount, &r.Status, &r.Note,
			&r.ReviewerID, &r.CreatedAt, &reviewedAt)
		if err != nil {
			return nil, storageErr("scan credit request", err)
		}
		if reviewedAt.Valid {
			r.ReviewedAt = &reviewedAt.Time
		}
		reqs = append(reqs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("list credit requests", err)
	}
	return reqs, nil
}

// ApproveCreditRequest flips a pending request to approved and credits the
// user's balance in the same transaction.
func (s *SQLiteDB) ApproveCreditRequest(ctx context.Context, id, reviewerID string) (*CreditRequest, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, storageErr("begin credit approval", err)
	}
	defer tx.Rollback()

	req, err := settleCreditInTx(ctx, tx, id, reviewerID, CreditApproved, "")
	if err != nil {
		return nil, err
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE users SET balance = balance + ? WHERE id = ?`, req.Amount, req.UserID)
	if err != nil {
		return nil, storageErr("credit balance", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, ErrNotFound
	}

	if err := tx.Commit(); err != nil {
		return nil, storageErr("commit credit approval", err)
	}
	return req, nil
}

// DenyCreditRequest flips a pending request to denied.
func (s *SQLiteDB) DenyCreditRequest(ctx context.Context, id, reviewerID, note string) (*CreditRequest, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, storageErr("begin credit denial", err)
	}
	defer tx.Rollback()

	req, err := settleCreditInTx(ctx, tx, id, reviewerID, CreditDenied, note)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, storageErr("commit credit denial", err)
	}
	return req, nil
}

// settleCreditInTx performs the one-way pending -> approved|denied
// transition, guarded on the current status.
func settleCreditInTx(ctx context.Context, tx *sql.Tx, id, reviewerID, status, note string) (*CreditRequest, error) {
	set := `status = ?, reviewer_id = ?, reviewed_at = CURRENT_TIMESTAMP`
	args := []interface{}{status, reviewerID}
	if note != "" {
		set += `, note = ?`
		args = append(args, note)
	}
	args = append(args, id, CreditPending)

	res, err := tx.ExecContext(ctx,
		`UPDATE credit_requests SET `+set+` WHERE id = ? AND status = ?`, args...)
	if err != nil {
		return nil, storageErr("settle credit request", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := creditRequest(ctx, tx, id); errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, ErrAlreadyProcessed
	}

	return creditRequest(ctx, tx, id)
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

func creditRequest(ctx context.Context, q querier, id string) (*CreditRequest, error) {
	var r CreditRequest
	var reviewedAt sql.NullTime
	err := q.QueryRowContext(ctx,
		`SELECT id, user_id, amount, status, note, reviewer_id, created_at, reviewed_at
		 FROM credit_requests WHERE id = ?`, id).
		Scan(&r.ID, &r.UserID, &r.Amount, &r.Status, &r.Note,
			&r.ReviewerID, &r.CreatedAt, &reviewedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, storageErr("get credit request", err)
	}
	if reviewedAt.Valid {
		r.ReviewedAt = &reviewedAt.Time
	}
	return &r, nil
}

func userInTx(ctx context.Context, tx *sql.Tx, id string) (*User, error) {
	var u User
	err := tx.QueryRowContext(ctx,
		`SELECT id, balance, total_won, total_lost, created_at FROM users WHERE id = ?`, id).
		Scan(&u.ID, &u.Balance, &u.TotalWon, &u.TotalLost, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, storageErr("get user", err)
	}
	return &u, nil
}
