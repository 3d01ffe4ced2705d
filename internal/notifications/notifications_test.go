package notifications

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/covalynce/covalynce-cli/internal/model"
)

type fakeBackend struct {
	listFn    func(ctx context.Context, userID string) ([]model.Notification, error)
	countFn   func(ctx context.Context, userID string) (int, error)
	readFn    func(ctx context.Context, userID, notificationID string) error
	readAllFn func(ctx context.Context, userID string) error
}

func (f *fakeBackend) Notifications(ctx context.Context, userID string) ([]model.Notification, error) {
	if f.listFn == nil {
		return nil, nil
	}
	return f.listFn(ctx, userID)
}

func (f *fakeBackend) UnreadCount(ctx context.Context, userID string) (int, error) {
	if f.countFn == nil {
		return 0, nil
	}
	return f.countFn(ctx, userID)
}

func (f *fakeBackend) MarkRead(ctx context.Context, userID, notificationID string) error {
	if f.readFn == nil {
		return nil
	}
	return f.readFn(ctx, userID, notificationID)
}

func (f *fakeBackend) MarkAllRead(ctx context.Context, userID string) error {
	if f.readAllFn == nil {
		return nil
	}
	return f.readAllFn(ctx, userID)
}

func seeded() *fakeBackend {
	return &fakeBackend{
		listFn: func(context.Context, string) ([]model.Notification, error) {
			return []model.Notification{
				{ID: "n1", Title: "Card posted"},
				{ID: "n2", Title: "New trend", Read: true},
				{ID: "n3", Title: "Payment due"},
			}, nil
		},
		countFn: func(context.Context, string) (int, error) { return 2, nil },
	}
}

func TestLoadCachesFeedAndBadge(t *testing.T) {
	s := NewStore(seeded(), zap.NewNop())

	if err := s.Load(context.Background(), "u1", nil); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := len(s.All()); got != 3 {
		t.Errorf("items = %d, want 3", got)
	}
	if got := s.Unread(); got != 2 {
		t.Errorf("unread = %d, want 2", got)
	}
}

func TestMarkReadPatchesLocally(t *testing.T) {
	backend := seeded()
	s := NewStore(backend, zap.NewNop())
	if err := s.Load(context.Background(), "u1", nil); err != nil {
		t.Fatalf("Load: %v", err)
	}

	if err := s.MarkRead(context.Background(), "u1", "n1"); err != nil {
		t.Fatalf("MarkRead: %v", err)
	}
	if got := s.Unread(); got != 1 {
		t.Errorf("unread = %d, want 1", got)
	}
	if items := s.All(); !items[0].Read {
		t.Error("n1 not flagged read locally")
	}

	// Already-read items must not drive the badge below reality.
	if err := s.MarkRead(context.Background(), "u1", "n2"); err != nil {
		t.Fatalf("MarkRead: %v", err)
	}
	if got := s.Unread(); got != 1 {
		t.Errorf("unread = %d after re-reading n2, want 1", got)
	}
}

func TestMarkReadBackendFailureLeavesCache(t *testing.T) {
	backend := seeded()
	backend.readFn = func(context.Context, string, string) error {
		return errors.New("gone away")
	}
	s := NewStore(backend, zap.NewNop())
	if err := s.Load(context.Background(), "u1", nil); err != nil {
		t.Fatalf("Load: %v", err)
	}

	if err := s.MarkRead(context.Background(), "u1", "n1"); err == nil {
		t.Fatal("expected error")
	}
	if got := s.Unread(); got != 2 {
		t.Errorf("unread = %d, want untouched 2", got)
	}
}

func TestMarkAllRead(t *testing.T) {
	s := NewStore(seeded(), zap.NewNop())
	if err := s.Load(context.Background(), "u1", nil); err != nil {
		t.Fatalf("Load: %v", err)
	}

	if err := s.MarkAllRead(context.Background(), "u1"); err != nil {
		t.Fatalf("MarkAllRead: %v", err)
	}
	if got := s.Unread(); got != 0 {
		t.Errorf("unread = %d, want 0", got)
	}
	for _, n := range s.All() {
		if !n.Read {
			t.Errorf("%s still unread", n.ID)
		}
	}
}

func TestLoadStaleDiscard(t *testing.T) {
	s := NewStore(seeded(), zap.NewNop())

	if err := s.Load(context.Background(), "u1", func() bool { return true }); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := len(s.All()); got != 0 {
		t.Errorf("items = %d, want stale response discarded", got)
	}
}
