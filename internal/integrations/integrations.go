// Package integrations manages the connected-provider registry and the
// consent flow that gates every new OAuth connection. No authorization
// redirect is ever produced before the user has explicitly ticked the
// consent box for the exact permission list on screen.
package integrations

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/covalynce/covalynce-cli/internal/localstore"
	"github.com/covalynce/covalynce-cli/internal/model"
	"github.com/covalynce/covalynce-cli/internal/toast"
)

// Backend is the slice of the API the integrations registry needs.
type Backend interface {
	Integrations(ctx context.Context, userID string) ([]model.Integration, error)
	ProviderPermissions(ctx context.Context, provider string) ([]string, error)
	DisableIntegration(ctx context.Context, userID, provider string) error
}

// Toaster is the feedback sink for connection results.
type Toaster interface {
	Add(message string, severity toast.Severity) string
}

// Phase tracks where a connection attempt currently is.
type Phase int

const (
	// PhaseIdle means no connection attempt is in flight.
	PhaseIdle Phase = iota
	// PhaseFetchingPermissions means the grant list is being loaded.
	PhaseFetchingPermissions
	// PhaseAwaitingConsent means the consent dialog is on screen.
	PhaseAwaitingConsent
	// PhaseRedirecting means consent was given and the authorize URL
	// has been handed out; the flow completes at the callback.
	PhaseRedirecting
)

// ErrConsentRequired is returned when Proceed is called before the
// consent box is ticked.
var ErrConsentRequired = errors.New("integrations: consent box not checked")

// ErrUnknownProvider is returned for providers outside the registry.
var ErrUnknownProvider = errors.New("integrations: unknown provider")

// Manager owns the connected-provider list and one consent flow at a
// time.
type Manager struct {
	backend Backend
	store   *localstore.Store
	toasts  Toaster
	logger  *zap.Logger

	// ClientIDs maps provider name to its OAuth client id.
	clientIDs   map[string]string
	redirectURI string

	mu             sync.Mutex
	connected      []model.Integration
	phase          Phase
	provider       string
	permissions    []string
	consentChecked bool
}

// NewManager constructs the registry. redirectURI is where the local
// callback listener answers.
func NewManager(backend Backend, store *localstore.Store, toasts Toaster, clientIDs map[string]string, redirectURI string, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		backend:     backend,
		store:       store,
		toasts:      toasts,
		logger:      logger,
		clientIDs:   clientIDs,
		redirectURI: redirectURI,
	}
}

// Refresh refetches the connected list from the backend. A stale probe
// returning true discards the response.
func (m *Manager) Refresh(ctx context.Context, userID string, stale func() bool) error {
	list, err := m.backend.Integrations(ctx, userID)
	if err != nil {
		return err
	}
	if stale != nil && stale() {
		return nil
	}
	m.mu.Lock()
	m.connected = list
	m.mu.Unlock()
	return nil
}

// Connected returns a snapshot of the registry.
func (m *Manager) Connected() []model.Integration {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Integration, len(m.connected))
	copy(out, m.connected)
	return out
}

// IsConnected reports whether the provider appears in the registry.
func (m *Manager) IsConnected(provider string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, in := range m.connected {
		if in.Provider == provider {
			return true
		}
	}
	return false
}

// Phase returns the current consent-flow phase and the provider it
// concerns.
func (m *Manager) Phase() (Phase, string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.phase, m.provider
}

// Permissions returns the grant list shown in the consent dialog.
func (m *Manager) Permissions() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.permissions...)
}

// Connect starts a consent flow for the provider: the grant list is
// fetched and the dialog opens with the consent box unchecked. A
// failed fetch still opens the dialog with an empty list; the user can
// proceed, just with nothing itemised.
func (m *Manager) Connect(ctx context.Context, provider string) error {
	if !Supported(provider) {
		return ErrUnknownProvider
	}

	m.mu.Lock()
	m.phase = PhaseFetchingPermissions
	m.provider = provider
	m.consentChecked = false
	m.permissions = nil
	m.mu.Unlock()

	perms, err := m.backend.ProviderPermissions(ctx, provider)
	if err != nil {
		m.logger.Warn("permission fetch failed", zap.String("provider", provider), zap.Error(err))
		perms = nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.provider != provider || m.phase != PhaseFetchingPermissions {
		// The user cancelled or switched providers mid-fetch.
		return nil
	}
	m.permissions = perms
	m.phase = PhaseAwaitingConsent
	return nil
}

// SetConsentChecked records the state of the consent box.
func (m *Manager) SetConsentChecked(checked bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.consentChecked = checked
}

// Proceed finishes the consent dialog. With the box unchecked it
// refuses and no redirect happens. With the box checked it persists
// the pending provider and the permission snapshot, then returns the
// provider's authorization URL for the browser.
func (m *Manager) Proceed() (string, error) {
	m.mu.Lock()
	if m.phase != PhaseAwaitingConsent {
		m.mu.Unlock()
		return "", errors.New("integrations: no consent dialog open")
	}
	if !m.consentChecked {
		m.mu.Unlock()
		m.toasts.Add("Please review and accept the permissions first", toast.Warning)
		return "", ErrConsentRequired
	}
	provider := m.provider
	permissions := append([]string(nil), m.permissions...)
	m.phase = PhaseRedirecting
	m.mu.Unlock()

	if err := m.store.SetPending(provider, permissions); err != nil {
		m.logger.Warn("failed to persist pending consent", zap.Error(err))
	}

	url, ok := AuthorizeURL(provider, m.clientIDs[provider], m.redirectURI)
	if !ok {
		return "", ErrUnknownProvider
	}
	return url, nil
}

// Cancel abandons the consent flow and clears any persisted pending
// state. Cancelling is always safe: nothing has been granted yet.
func (m *Manager) Cancel() {
	m.mu.Lock()
	m.phase = PhaseIdle
	m.provider = ""
	m.permissions = nil
	m.consentChecked = false
	m.mu.Unlock()

	if err := m.store.ClearPending(); err != nil {
		m.logger.Warn("failed to clear pending consent", zap.Error(err))
	}
}

// Complete marks a connection attempt finished (the callback landed)
// and resets the flow.
func (m *Manager) Complete() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.phase = PhaseIdle
	m.provider = ""
	m.permissions = nil
	m.consentChecked = false
}

// Disable disconnects a provider and refetches the registry. There is
// no optimistic removal: the entry disappears only once the backend
// confirms.
func (m *Manager) Disable(ctx context.Context, userID, provider string) error {
	if err := m.backend.DisableIntegration(ctx, userID, provider); err != nil {
		m.toasts.Add("Failed to disconnect "+provider, toast.Error)
		return err
	}
	m.toasts.Add("Disconnected "+provider, toast.Success)
	return m.Refresh(ctx, userID, nil)
}
