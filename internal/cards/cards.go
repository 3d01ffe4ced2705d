// Package cards owns the pending-card collection and its action
// pipeline: optimistic apply with rollback, sequential bulk actions,
// search filtering, bulk selection and the edit sub-flow. Membership
// in the collection is the sole definition of "still pending"; a card
// leaves the collection the instant a terminal action is requested and
// only returns if the backend call fails.
package cards

import (
	"context"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/covalynce/covalynce-cli/internal/model"
	"github.com/covalynce/covalynce-cli/internal/toast"
)

// Backend is the slice of the API the card pipeline needs.
type Backend interface {
	SyncCards(ctx context.Context, userID string) ([]model.Card, error)
	CardHistory(ctx context.Context, userID string) ([]model.Card, error)
	Apply(ctx context.Context, userID string, action model.Action, cardID, content string, platform model.Platform) error
	NotifySlack(ctx context.Context, userID, cardID string) error
	Rephrase(ctx context.Context, userID, content string) (string, error)
	GenerateImage(ctx context.Context, userID, prompt, cardID string) (string, error)
}

// Toaster is the feedback sink for user-facing pipeline results.
type Toaster interface {
	Add(message string, severity toast.Severity) string
}

// Router switches the top-level view. Used only for the synthetic
// usage-limit card, which routes to settings instead of the network.
type Router interface {
	SetView(v model.View)
}

// ActionState tracks an optimistic action through its lifecycle.
type ActionState int

const (
	// StatePending means the card was removed locally and the
	// backend call is outstanding.
	StatePending ActionState = iota
	// StateCommitted means the backend accepted the action.
	StateCommitted
	// StateRolledBack means the backend call failed and the card
	// snapshot was re-inserted into the collection.
	StateRolledBack
)

// Receipt reports the outcome of one optimistic action.
type Receipt struct {
	CardID string
	Action model.Action
	State  ActionState
}

// Store is the card collection and action pipeline.
type Store struct {
	backend Backend
	toasts  Toaster
	router  Router
	logger  *zap.Logger

	mu       sync.Mutex
	cards    []model.Card
	history  []model.Card
	search   string
	selected map[string]struct{}
	selOrder []string
	loading  bool

	editor editorState
}

// NewStore constructs an empty card Store.
func NewStore(backend Backend, toasts Toaster, router Router, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		backend:  backend,
		toasts:   toasts,
		router:   router,
		logger:   logger,
		selected: make(map[string]struct{}),
	}
}

// Load replaces the collection with the backend's current list. A
// stale probe returning true discards the response instead of applying
// it; the collection keeps whatever the live session last wrote.
func (s *Store) Load(ctx context.Context, userID string, stale func() bool) error {
	s.setLoading(true)
	defer s.setLoading(false)

	fetched, err := s.backend.SyncCards(ctx, userID)
	if err != nil {
		return err
	}
	if stale != nil && stale() {
		s.logger.Debug("discarding stale card sync", zap.String("user_id", userID))
		return nil
	}

	s.mu.Lock()
	s.cards = fetched
	s.mu.Unlock()
	return nil
}

// LoadHistory fetches the resolved-card history.
func (s *Store) LoadHistory(ctx context.Context, userID string) error {
	fetched, err := s.backend.CardHistory(ctx, userID)
	if err != nil {
		s.toasts.Add("Failed to load card history", toast.Error)
		s.mu.Lock()
		s.history = nil
		s.mu.Unlock()
		return err
	}
	s.mu.Lock()
	s.history = fetched
	s.mu.Unlock()
	return nil
}

// History returns the last loaded history snapshot.
func (s *Store) History() []model.Card {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Card, len(s.history))
	copy(out, s.history)
	return out
}

// All returns a snapshot of the full collection in current order.
func (s *Store) All() []model.Card {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Card, len(s.cards))
	copy(out, s.cards)
	return out
}

// Count returns the number of pending cards.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.cards)
}

// Get looks a pending card up by id.
func (s *Store) Get(id string) (model.Card, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.cards {
		if c.ID == id {
			return c, true
		}
	}
	return model.Card{}, false
}

// Apply runs one terminal action through the optimistic pipeline: the
// card leaves the collection immediately, the backend call follows,
// and a failure re-inserts the snapshot (append semantics; the
// original position is not restored). The synthetic "limit" id never
// reaches the network: it routes to the settings screen.
func (s *Store) Apply(ctx context.Context, userID, cardID string, action model.Action, platform model.Platform) Receipt {
	if cardID == model.LimitCardID {
		s.router.SetView(model.ViewSettings)
		return Receipt{CardID: cardID, Action: action, State: StateCommitted}
	}

	snapshot, had := s.remove(cardID)
	receipt := Receipt{CardID: cardID, Action: action, State: StatePending}

	if platform == "" {
		platform = model.PlatformLinkedIn
	}
	if err := s.backend.Apply(ctx, userID, action, cardID, snapshot.Content, platform); err != nil {
		s.logger.Warn("card action failed, rolling back",
			zap.String("card_id", cardID),
			zap.String("action", string(action)),
			zap.Error(err))
		if had {
			s.mu.Lock()
			s.cards = append(s.cards, snapshot)
			s.mu.Unlock()
		}
		receipt.State = StateRolledBack
		return receipt
	}
	receipt.State = StateCommitted

	// Engineering cards executed to Slack get a secondary
	// notification. Its failure never rolls the action back and is
	// never shown to the user.
	if action == model.ActionExecute && snapshot.Category == model.CategoryEngineering && platform == model.PlatformSlack {
		if err := s.backend.NotifySlack(ctx, userID, cardID); err != nil {
			s.logger.Warn("slack notification failed", zap.String("card_id", cardID), zap.Error(err))
		}
	}
	return receipt
}

// remove takes the card out of the collection, returning its snapshot.
func (s *Store) remove(cardID string) (model.Card, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, c := range s.cards {
		if c.ID == cardID {
			s.cards = append(s.cards[:i], s.cards[i+1:]...)
			return c, true
		}
	}
	return model.Card{}, false
}

// BulkAction applies approve (execute) or discard (dismiss) to every
// selected card, strictly sequentially in selection insertion order,
// then clears the selection and emits one summary toast. Sequencing is
// the point: the backend observes the calls in the order the user
// picked the cards.
func (s *Store) BulkAction(ctx context.Context, userID string, approve bool) int {
	s.mu.Lock()
	ids := make([]string, len(s.selOrder))
	copy(ids, s.selOrder)
	s.mu.Unlock()
	if len(ids) == 0 {
		return 0
	}

	action := model.ActionDismiss
	label := "Discarded"
	if approve {
		action = model.ActionExecute
		label = "Approved"
	}

	processed := 0
	for _, id := range ids {
		card, ok := s.Get(id)
		if !ok {
			continue
		}
		platform := card.Platform
		if platform == "" {
			platform = model.PlatformLinkedIn
		}
		s.Apply(ctx, userID, id, action, platform)
		processed++
	}

	s.ClearSelection()
	s.toasts.Add(label+" "+strconv.Itoa(processed)+" card(s)", toast.Success)
	return processed
}

// Toggle flips a card id in and out of the selection set. Toggling the
// same id twice restores the prior state.
func (s *Store) Toggle(cardID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.selected[cardID]; ok {
		delete(s.selected, cardID)
		for i, id := range s.selOrder {
			if id == cardID {
				s.selOrder = append(s.selOrder[:i], s.selOrder[i+1:]...)
				break
			}
		}
		return
	}
	s.selected[cardID] = struct{}{}
	s.selOrder = append(s.selOrder, cardID)
}

// Selected reports whether the card id is in the selection set.
func (s *Store) Selected(cardID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.selected[cardID]
	return ok
}

// SelectionCount returns the size of the selection set.
func (s *Store) SelectionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.selected)
}

// ClearSelection empties the selection set.
func (s *Store) ClearSelection() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = make(map[string]struct{})
	s.selOrder = nil
}

// SetSearch updates the live search query.
func (s *Store) SetSearch(query string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.search = query
}

// Filtered returns the cards matching the current query: an empty
// query passes everything through in order; otherwise a card matches
// when its content or category contains the query case-insensitively.
// Filtering never mutates the underlying collection.
func (s *Store) Filtered() []model.Card {
	s.mu.Lock()
	defer s.mu.Unlock()
	return filter(s.cards, s.search)
}

func filter(cards []model.Card, query string) []model.Card {
	out := make([]model.Card, 0, len(cards))
	if query == "" {
		return append(out, cards...)
	}
	q := strings.ToLower(query)
	for _, c := range cards {
		if strings.Contains(strings.ToLower(c.Content), q) ||
			strings.Contains(strings.ToLower(string(c.Category)), q) {
			out = append(out, c)
		}
	}
	return out
}

// ByCategory partitions the filtered cards into the three dashboard
// columns.
func (s *Store) ByCategory() map[model.Category][]model.Card {
	cols := map[model.Category][]model.Card{
		model.CategoryMarketing:   {},
		model.CategoryEngineering: {},
		model.CategoryStrategy:    {},
	}
	for _, c := range s.Filtered() {
		cols[c.Category] = append(cols[c.Category], c)
	}
	return cols
}

func (s *Store) setLoading(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = v
}

// Loading reports whether a card sync is outstanding.
func (s *Store) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}
