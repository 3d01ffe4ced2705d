package cards

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/covalynce/covalynce-cli/internal/toast"
)

// ErrNoDraft is returned by editor operations when no edit session is
// open.
var ErrNoDraft = errors.New("cards: no draft open")

type editorState struct {
	open     bool
	cardID   string
	content  string
	imageURL string
	limiter  *rate.Limiter
}

// OpenEditor starts an edit session for a pending card. The draft is a
// snapshot: the collection entry stays untouched until SaveDraft.
func (s *Store) OpenEditor(cardID string) bool {
	card, ok := s.Get(cardID)
	if !ok {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.openDraft(card.ID, card.Content, card.ImageURL)
	return true
}

// OpenDraft starts an edit session over free content not backed by a
// collection card, such as a competitor post lifted into the composer.
// SaveDraft is a no-op for these sessions; the draft is consumed by the
// caller.
func (s *Store) OpenDraft(content string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.openDraft("", content, "")
}

func (s *Store) openDraft(cardID, content, imageURL string) {
	s.editor = editorState{
		open:     true,
		cardID:   cardID,
		content:  content,
		imageURL: imageURL,
		limiter:  rate.NewLimiter(rate.Every(2*time.Second), 1),
	}
}

// Draft returns the current draft content and image, and whether an
// edit session is open.
func (s *Store) Draft() (content, imageURL string, open bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.editor.content, s.editor.imageURL, s.editor.open
}

// SetDraft replaces the draft content.
func (s *Store) SetDraft(content string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.editor.open {
		s.editor.content = content
	}
}

// RephraseDraft asks the backend to rewrite the draft. On failure the
// draft keeps the user's text and a warning toast is raised; the edit
// session survives either way.
func (s *Store) RephraseDraft(ctx context.Context, userID string) error {
	s.mu.Lock()
	if !s.editor.open {
		s.mu.Unlock()
		return ErrNoDraft
	}
	if !s.editor.limiter.Allow() {
		s.mu.Unlock()
		s.toasts.Add("Hold on, the last rewrite is still settling", toast.Warning)
		return nil
	}
	content := s.editor.content
	s.mu.Unlock()

	rephrased, err := s.backend.Rephrase(ctx, userID, content)
	if err != nil {
		s.logger.Warn("rephrase failed", zap.Error(err))
		s.toasts.Add("Could not rephrase content", toast.Warning)
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.editor.open {
		s.editor.content = rephrased
	}
	return nil
}

// GenerateDraftImage asks the backend for an image matching the draft.
// An empty draft is rejected locally before any network call.
func (s *Store) GenerateDraftImage(ctx context.Context, userID string) error {
	s.mu.Lock()
	if !s.editor.open {
		s.mu.Unlock()
		return ErrNoDraft
	}
	if s.editor.content == "" {
		s.mu.Unlock()
		s.toasts.Add("Write some content first", toast.Warning)
		return nil
	}
	if !s.editor.limiter.Allow() {
		s.mu.Unlock()
		s.toasts.Add("Hold on, the last image is still generating", toast.Warning)
		return nil
	}
	content := s.editor.content
	cardID := s.editor.cardID
	s.mu.Unlock()

	imageURL, err := s.backend.GenerateImage(ctx, userID, content, cardID)
	if err != nil {
		s.logger.Warn("image generation failed", zap.Error(err))
		s.toasts.Add("Could not generate image", toast.Warning)
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.editor.open {
		s.editor.imageURL = imageURL
	}
	return nil
}

// SaveDraft commits the draft back into the collection card it was
// opened from, by id lookup, and closes the edit session. No refetch
// happens; the local collection is the source of truth until the next
// sync. Saving a free draft just closes the session.
func (s *Store) SaveDraft() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.editor.open {
		return
	}
	if s.editor.cardID != "" {
		for i := range s.cards {
			if s.cards[i].ID == s.editor.cardID {
				s.cards[i].Content = s.editor.content
				s.cards[i].ImageURL = s.editor.imageURL
				break
			}
		}
	}
	s.editor = editorState{}
}

// CloseEditor abandons the draft without touching the collection.
func (s *Store) CloseEditor() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.editor = editorState{}
}
