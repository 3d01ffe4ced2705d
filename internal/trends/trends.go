// Package trends holds the competitor-intelligence screen state: the
// tracked-competitor list, location-gated trending content, meme
// templates, AI preferences and usage counters. Trending content is
// never fetched until the user has supplied a location.
package trends

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/covalynce/covalynce-cli/internal/model"
	"github.com/covalynce/covalynce-cli/internal/toast"
)

// Backend is the slice of the API the trends screen needs.
type Backend interface {
	Competitors(ctx context.Context, userID string) ([]model.Competitor, error)
	AddCompetitor(ctx context.Context, userID, name, platform, handle string) error
	CompetitorPosts(ctx context.Context, userID, competitorID string) ([]model.CompetitorPost, error)
	Learn(ctx context.Context, userID, competitorID string) error
	Trending(ctx context.Context, userID, location string) ([]model.Trend, []model.MemeTemplate, error)
	Usage(ctx context.Context, userID string) (model.UsageStats, error)
	AIPreferences(ctx context.Context, userID string) (model.AIPreferences, error)
	SaveAIPreferences(ctx context.Context, userID string, prefs model.AIPreferences) error
	EditMeme(ctx context.Context, userID, templateID, topText, bottomText string) (string, error)
}

// Toaster is the feedback sink for trends-screen results.
type Toaster interface {
	Add(message string, severity toast.Severity) string
}

// ErrNoLocation is returned when trending content is requested before a
// location has been set.
var ErrNoLocation = errors.New("trends: no location set")

// Store is the trends-screen state container.
type Store struct {
	backend Backend
	toasts  Toaster
	logger  *zap.Logger

	mu          sync.Mutex
	competitors []model.Competitor
	selected    string
	posts       []model.CompetitorPost
	location    string
	trending    []model.Trend
	memes       []model.MemeTemplate
	prefs       model.AIPreferences
	usage       model.UsageStats
}

// NewStore constructs an empty trends Store. Preferences start at the
// product defaults until the backend answers.
func NewStore(backend Backend, toasts Toaster, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		backend: backend,
		toasts:  toasts,
		logger:  logger,
		prefs:   model.DefaultAIPreferences(),
	}
}

// LoadCompetitors refetches the tracked-competitor list.
func (s *Store) LoadCompetitors(ctx context.Context, userID string, stale func() bool) error {
	list, err := s.backend.Competitors(ctx, userID)
	if err != nil {
		return err
	}
	if stale != nil && stale() {
		return nil
	}
	s.mu.Lock()
	s.competitors = list
	s.mu.Unlock()
	return nil
}

// Competitors returns a snapshot of the tracked list.
func (s *Store) Competitors() []model.Competitor {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Competitor, len(s.competitors))
	copy(out, s.competitors)
	return out
}

// AddCompetitor starts tracking a new account and refetches the list.
func (s *Store) AddCompetitor(ctx context.Context, userID, name, platform, handle string) error {
	if err := s.backend.AddCompetitor(ctx, userID, name, platform, handle); err != nil {
		s.toasts.Add("Failed to add competitor", toast.Error)
		return err
	}
	s.toasts.Add("Now tracking "+name, toast.Success)
	return s.LoadCompetitors(ctx, userID, nil)
}

// SelectCompetitor loads recent posts for one competitor and fires a
// silent training pass over them. A failing training pass is logged
// and otherwise invisible; the posts still show.
func (s *Store) SelectCompetitor(ctx context.Context, userID, competitorID string) error {
	posts, err := s.backend.CompetitorPosts(ctx, userID, competitorID)
	if err != nil {
		s.toasts.Add("Failed to load posts", toast.Error)
		return err
	}
	s.mu.Lock()
	s.selected = competitorID
	s.posts = posts
	s.mu.Unlock()

	if err := s.backend.Learn(ctx, userID, competitorID); err != nil {
		s.logger.Warn("competitor learn pass failed",
			zap.String("competitor_id", competitorID), zap.Error(err))
	}
	return nil
}

// Posts returns the posts of the currently selected competitor.
func (s *Store) Posts() (competitorID string, posts []model.CompetitorPost) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.CompetitorPost, len(s.posts))
	copy(out, s.posts)
	return s.selected, out
}

// SetLocation records the user's location. The trending feed stays
// empty until one is set.
func (s *Store) SetLocation(location string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.location = location
}

// Location returns the current location, "" when unset.
func (s *Store) Location() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.location
}

// LoadTrending fetches trending content and meme templates for the
// current location. Without a location no request is made.
func (s *Store) LoadTrending(ctx context.Context, userID string) error {
	s.mu.Lock()
	location := s.location
	s.mu.Unlock()
	if location == "" {
		return ErrNoLocation
	}

	trending, memes, err := s.backend.Trending(ctx, userID, location)
	if err != nil {
		s.toasts.Add("Failed to load trending content", toast.Error)
		return err
	}
	s.mu.Lock()
	s.trending = trending
	s.memes = memes
	s.mu.Unlock()
	return nil
}

// Trending returns the last loaded trending feed.
func (s *Store) Trending() []model.Trend {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Trend, len(s.trending))
	copy(out, s.trending)
	return out
}

// Memes returns the last loaded meme templates.
func (s *Store) Memes() []model.MemeTemplate {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.MemeTemplate, len(s.memes))
	copy(out, s.memes)
	return out
}

// ComposeMeme renders captions onto a template and returns the image
// URL for the composer.
func (s *Store) ComposeMeme(ctx context.Context, userID, templateID, topText, bottomText string) (string, error) {
	imageURL, err := s.backend.EditMeme(ctx, userID, templateID, topText, bottomText)
	if err != nil {
		s.toasts.Add("Failed to compose meme", toast.Error)
		return "", err
	}
	return imageURL, nil
}

// LoadUsage refetches the AI usage counters.
func (s *Store) LoadUsage(ctx context.Context, userID string, stale func() bool) error {
	stats, err := s.backend.Usage(ctx, userID)
	if err != nil {
		return err
	}
	if stale != nil && stale() {
		return nil
	}
	s.mu.Lock()
	s.usage = stats
	s.mu.Unlock()
	return nil
}

// Usage returns the last loaded usage counters.
func (s *Store) Usage() model.UsageStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.usage
}

// LoadPreferences refetches the AI preferences, falling back to the
// product defaults when the backend has none stored.
func (s *Store) LoadPreferences(ctx context.Context, userID string, stale func() bool) error {
	prefs, err := s.backend.AIPreferences(ctx, userID)
	if err != nil {
		return err
	}
	if stale != nil && stale() {
		return nil
	}
	s.mu.Lock()
	s.prefs = prefs
	s.mu.Unlock()
	return nil
}

// Preferences returns the current AI preferences.
func (s *Store) Preferences() model.AIPreferences {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.prefs
}

// SavePreferences stores updated AI preferences and keeps them locally
// once the backend confirms.
func (s *Store) SavePreferences(ctx context.Context, userID string, prefs model.AIPreferences) error {
	if err := s.backend.SaveAIPreferences(ctx, userID, prefs); err != nil {
		s.toasts.Add("Failed to save preferences", toast.Error)
		return err
	}
	s.mu.Lock()
	s.prefs = prefs
	s.mu.Unlock()
	s.toasts.Add("Preferences saved", toast.Success)
	return nil
}
