// Package notifications caches the activity feed and its unread badge.
// The badge count comes from the server once and is then maintained
// locally as items are marked read, so the header never flickers while
// a mark-read call is in flight.
package notifications

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/covalynce/covalynce-cli/internal/model"
)

// Backend is the slice of the API the notification feed needs.
type Backend interface {
	Notifications(ctx context.Context, userID string) ([]model.Notification, error)
	UnreadCount(ctx context.Context, userID string) (int, error)
	MarkRead(ctx context.Context, userID, notificationID string) error
	MarkAllRead(ctx context.Context, userID string) error
}

// Store is the notification feed state.
type Store struct {
	backend Backend
	logger  *zap.Logger

	mu     sync.Mutex
	items  []model.Notification
	unread int
}

// NewStore constructs an empty notification Store.
func NewStore(backend Backend, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{backend: backend, logger: logger}
}

// Load refetches the feed and the unread count together.
func (s *Store) Load(ctx context.Context, userID string, stale func() bool) error {
	items, err := s.backend.Notifications(ctx, userID)
	if err != nil {
		return err
	}
	count, err := s.backend.UnreadCount(ctx, userID)
	if err != nil {
		return err
	}
	if stale != nil && stale() {
		return nil
	}
	s.mu.Lock()
	s.items = items
	s.unread = count
	s.mu.Unlock()
	return nil
}

// All returns a snapshot of the feed.
func (s *Store) All() []model.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Notification, len(s.items))
	copy(out, s.items)
	return out
}

// Unread returns the cached unread badge count.
func (s *Store) Unread() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unread
}

// MarkRead flags one notification read on the backend and patches the
// cached item and badge locally; already-read items are left alone.
func (s *Store) MarkRead(ctx context.Context, userID, notificationID string) error {
	if err := s.backend.MarkRead(ctx, userID, notificationID); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		if s.items[i].ID == notificationID && !s.items[i].Read {
			s.items[i].Read = true
			if s.unread > 0 {
				s.unread--
			}
			break
		}
	}
	return nil
}

// MarkAllRead flags every notification read and zeroes the badge.
func (s *Store) MarkAllRead(ctx context.Context, userID string) error {
	if err := s.backend.MarkAllRead(ctx, userID); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		s.items[i].Read = true
	}
	s.unread = 0
	return nil
}
