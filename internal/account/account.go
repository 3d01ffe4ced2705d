// Package account owns the profile, settings, privacy and billing
// state: plan and usage, the BYOK OpenAI key, email and password
// changes, the data export and erasure flows, and the plan-upgrade
// checkout.
package account

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/covalynce/covalynce-cli/internal/api"
	"github.com/covalynce/covalynce-cli/internal/localstore"
	"github.com/covalynce/covalynce-cli/internal/model"
	"github.com/covalynce/covalynce-cli/internal/session"
	"github.com/covalynce/covalynce-cli/internal/toast"
)

// Plan upgrades are a single fixed product: Pro at 2900 INR.
const (
	UpgradeAmount   = 2900
	UpgradeCurrency = "INR"
)

// Backend is the slice of the API the account screens need.
type Backend interface {
	Profile(ctx context.Context, userID string) (model.Profile, error)
	UpdateSettings(ctx context.Context, userID, openAIKey string) error
	UpdateEmail(ctx context.Context, userID, email string) error
	UpdatePassword(ctx context.Context, userID, password string) error
	ExportData(ctx context.Context, userID string) (json.RawMessage, error)
	DeleteData(ctx context.Context, userID string) error
	CreateOrder(ctx context.Context, userID string, amount int, currency string) (api.PaymentOrder, error)
	VerifyPayment(ctx context.Context, userID, orderID, paymentID, signature string) error
}

// Toaster is the feedback sink for account operations.
type Toaster interface {
	Add(message string, severity toast.Severity) string
}

// SessionEnder terminates the local session after account erasure.
type SessionEnder interface {
	Logout()
}

// ErrWeakPassword is returned when a password change fails the
// strength checks.
var ErrWeakPassword = errors.New("account: password too weak")

// Store is the account state container.
type Store struct {
	backend Backend
	store   *localstore.Store
	toasts  Toaster
	ender   SessionEnder
	logger  *zap.Logger

	// exportDir is where GDPR exports are written.
	exportDir string

	mu      sync.Mutex
	profile model.Profile
	loaded  bool
}

// NewStore constructs the account Store. Exports land in exportDir,
// the working directory when empty.
func NewStore(backend Backend, store *localstore.Store, toasts Toaster, ender SessionEnder, exportDir string, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	if exportDir == "" {
		exportDir = "."
	}
	return &Store{
		backend:   backend,
		store:     store,
		toasts:    toasts,
		ender:     ender,
		exportDir: exportDir,
		logger:    logger,
	}
}

// LoadProfile refetches plan, usage and the stored key flag.
func (s *Store) LoadProfile(ctx context.Context, userID string, stale func() bool) error {
	profile, err := s.backend.Profile(ctx, userID)
	if err != nil {
		return err
	}
	if stale != nil && stale() {
		return nil
	}
	s.mu.Lock()
	s.profile = profile
	s.loaded = true
	s.mu.Unlock()
	return nil
}

// Profile returns the last loaded profile and whether one has been
// loaded at all.
func (s *Store) Profile() (model.Profile, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.profile, s.loaded
}

// IsPro reports whether the loaded profile is on the pro plan.
func (s *Store) IsPro() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.profile.Plan == model.PlanPro
}

// SaveOpenAIKey stores the user-supplied OpenAI key. The key itself is
// never logged and never echoed back in feedback.
func (s *Store) SaveOpenAIKey(ctx context.Context, userID, key string) error {
	if strings.TrimSpace(key) == "" {
		s.toasts.Add("Please enter a key", toast.Warning)
		return errors.New("account: empty key")
	}
	if err := s.backend.UpdateSettings(ctx, userID, key); err != nil {
		s.toasts.Add("Failed to save key", toast.Error)
		return err
	}
	s.toasts.Add("Key saved", toast.Success)
	return nil
}

// ChangeEmail updates the account email address.
func (s *Store) ChangeEmail(ctx context.Context, userID, email string) error {
	if err := s.backend.UpdateEmail(ctx, userID, email); err != nil {
		s.toasts.Add("Failed to update email", toast.Error)
		return err
	}
	s.toasts.Add("Email updated", toast.Success)
	return nil
}

// ChangePassword updates the account password. The same strength rules
// that gate signup apply here; a weak password never reaches the
// backend.
func (s *Store) ChangePassword(ctx context.Context, userID, password string) error {
	if strength := session.CheckPasswordStrength(password); strength.Score < 5 {
		s.toasts.Add("Password is missing: "+strings.Join(strength.Feedback, ", "), toast.Warning)
		return ErrWeakPassword
	}
	if err := s.backend.UpdatePassword(ctx, userID, password); err != nil {
		s.toasts.Add("Failed to update password", toast.Error)
		return err
	}
	s.toasts.Add("Password updated", toast.Success)
	return nil
}

// ExportData downloads the full account export and writes it to a
// dated file, returning the path.
func (s *Store) ExportData(ctx context.Context, userID string) (string, error) {
	raw, err := s.backend.ExportData(ctx, userID)
	if err != nil {
		s.toasts.Add("Failed to export data", toast.Error)
		return "", err
	}
	name := "covalynce-export-" + time.Now().Format("2006-01-02") + ".json"
	path := filepath.Join(s.exportDir, name)
	if err := os.WriteFile(path, raw, 0o600); err != nil {
		s.toasts.Add("Failed to write export file", toast.Error)
		return "", err
	}
	s.toasts.Add("Data exported to "+name, toast.Success)
	return path, nil
}

// DeleteAllData erases the account server-side, wipes local state and
// ends the session. Callers gate this behind an explicit confirmation
// dialog; there is no undo.
func (s *Store) DeleteAllData(ctx context.Context, userID string) error {
	if err := s.backend.DeleteData(ctx, userID); err != nil {
		s.toasts.Add("Failed to delete data", toast.Error)
		return err
	}
	if err := s.store.Clear(); err != nil {
		s.logger.Warn("failed to clear local state after erasure", zap.Error(err))
	}
	s.mu.Lock()
	s.profile = model.Profile{}
	s.loaded = false
	s.mu.Unlock()

	s.toasts.Add("All data deleted", toast.Success)
	s.ender.Logout()
	return nil
}

// StartUpgrade opens a checkout order for the pro plan.
func (s *Store) StartUpgrade(ctx context.Context, userID string) (api.PaymentOrder, error) {
	order, err := s.backend.CreateOrder(ctx, userID, UpgradeAmount, UpgradeCurrency)
	if err != nil {
		s.toasts.Add("Failed to start checkout", toast.Error)
		return api.PaymentOrder{}, err
	}
	return order, nil
}

// CompleteUpgrade verifies a finished checkout and refetches the
// profile so the new plan shows immediately.
func (s *Store) CompleteUpgrade(ctx context.Context, userID, orderID, paymentID, signature string) error {
	if err := s.backend.VerifyPayment(ctx, userID, orderID, paymentID, signature); err != nil {
		s.toasts.Add("Payment verification failed", toast.Error)
		return err
	}
	s.toasts.Add("Welcome to Pro!", toast.Success)
	return s.LoadProfile(ctx, userID, nil)
}
