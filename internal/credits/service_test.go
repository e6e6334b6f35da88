package credits

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/MJE43/fair-roulette-go/internal/store"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	db, err := store.NewSQLiteDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := db.Migrate(); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return NewService(db, zap.NewNop())
}

func TestRequestRejectsBadAmounts(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	for _, amount := range []int64{0, -1, -5000} {
		if _, err := s.Request(ctx, "user-1", amount, ""); !errors.Is(err, ErrInvalidAmount) {
			t.Errorf("Request(%d) error = %v, want ErrInvalidAmount", amount, err)
		}
	}
}

func TestRequestCreatesUserAndPendingRequest(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	req, err := s.Request(ctx, "user-1", 5000, "starting stack")
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	if req.Status != store.CreditPending {
		t.Errorf("status = %q, want %q", req.Status, store.CreditPending)
	}
	if req.ID == "" {
		t.Error("request id not assigned")
	}

	// The user exists immediately, with a zero balance until approval.
	u, err := s.db.GetUser(ctx, "user-1")
	if err != nil {
		t.Fatalf("GetUser failed: %v", err)
	}
	if u.Balance != 0 {
		t.Errorf("balance = %d, want 0 before approval", u.Balance)
	}
}

func TestApproveCreditsBalance(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	req, err := s.Request(ctx, "user-1", 5000, "")
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}

	approved, err := s.Approve(ctx, req.ID, "admin-1")
	if err != nil {
		t.Fatalf("Approve failed: %v", err)
	}
	if approved.Status != store.CreditApproved {
		t.Errorf("status = %q, want %q", approved.Status, store.CreditApproved)
	}
	if approved.ReviewerID != "admin-1" {
		t.Errorf("reviewer = %q, want admin-1", approved.ReviewerID)
	}

	u, err := s.db.GetUser(ctx, "user-1")
	if err != nil {
		t.Fatalf("GetUser failed: %v", err)
	}
	if u.Balance != 5000 {
		t.Errorf("balance = %d, want 5000", u.Balance)
	}
}

func TestDenyLeavesBalanceUntouched(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	req, err := s.Request(ctx, "user-1", 5000, "")
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}

	denied, err := s.Deny(ctx, req.ID, "admin-1", "no")
	if err != nil {
		t.Fatalf("Deny failed: %v", err)
	}
	if denied.Status != store.CreditDenied {
		t.Errorf("status = %q, want %q", denied.Status, store.CreditDenied)
	}

	u, err := s.db.GetUser(ctx, "user-1")
	if err != nil {
		t.Fatalf("GetUser failed: %v", err)
	}
	if u.Balance != 0 {
		t.Errorf("balance = %d, want 0 after denial", u.Balance)
	}

	// Denial frees the user to file again.
	if _, err := s.Request(ctx, "user-1", 100, ""); err != nil {
		t.Errorf("Request after denial failed: %v", err)
	}
}

func TestOnePendingRequestPerUser(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	if _, err := s.Request(ctx, "user-1", 5000, ""); err != nil {
		t.Fatalf("first Request failed: %v", err)
	}
	if _, err := s.Request(ctx, "user-1", 100, ""); !errors.Is(err, store.ErrPendingRequest) {
		t.Errorf("second Request error = %v, want ErrPendingRequest", err)
	}
	// A different user is unaffected.
	if _, err := s.Request(ctx, "user-2", 100, ""); err != nil {
		t.Errorf("Request for other user failed: %v", err)
	}
}

func TestListFiltersByStatus(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	a, _ := s.Request(ctx, "user-1", 1000, "")
	b, _ := s.Request(ctx, "user-2", 2000, "")
	if _, err := s.Approve(ctx, a.ID, "admin-1"); err != nil {
		t.Fatalf("Approve failed: %v", err)
	}

	pending, err := s.List(ctx, store.CreditPending)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(pending) != 1 || pending[0].ID != b.ID {
		t.Errorf("pending list = %+v, want exactly request %s", pending, b.ID)
	}

	all, err := s.List(ctx, "")
	if err != nil {
		t.Fatalf("List all failed: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("all list has %d entries, want 2", len(all))
	}
}

func TestSettlingTwiceFails(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	req, err := s.Request(ctx, "user-1", 1000, "")
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	if _, err := s.Approve(ctx, req.ID, "admin-1"); err != nil {
		t.Fatalf("Approve failed: %v", err)
	}
	if _, err := s.Deny(ctx, req.ID, "admin-2", ""); !errors.Is(err, store.ErrAlreadyProcessed) {
		t.Errorf("Deny after approve error = %v, want ErrAlreadyProcessed", err)
	}
	if _, err := s.Approve(ctx, req.ID, "admin-2"); !errors.Is(err, store.ErrAlreadyProcessed) {
		t.Errorf("double Approve error = %v, want ErrAlreadyProcessed", err)
	}
}
