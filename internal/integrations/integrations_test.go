package integrations

import (
	"context"
	"errors"
	"net/url"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/covalynce/covalynce-cli/internal/localstore"
	"github.com/covalynce/covalynce-cli/internal/model"
	"github.com/covalynce/covalynce-cli/internal/toast"
)

type fakeBackend struct {
	integrationsFn func(ctx context.Context, userID string) ([]model.Integration, error)
	permissionsFn  func(ctx context.Context, provider string) ([]string, error)
	disableFn      func(ctx context.Context, userID, provider string) error
}

func (f *fakeBackend) Integrations(ctx context.Context, userID string) ([]model.Integration, error) {
	if f.integrationsFn == nil {
		return nil, nil
	}
	return f.integrationsFn(ctx, userID)
}

func (f *fakeBackend) ProviderPermissions(ctx context.Context, provider string) ([]string, error) {
	if f.permissionsFn == nil {
		return []string{"Read things", "Write things"}, nil
	}
	return f.permissionsFn(ctx, provider)
}

func (f *fakeBackend) DisableIntegration(ctx context.Context, userID, provider string) error {
	if f.disableFn == nil {
		return nil
	}
	return f.disableFn(ctx, userID, provider)
}

type fakeToaster struct {
	messages []string
}

func (f *fakeToaster) Add(message string, severity toast.Severity) string {
	f.messages = append(f.messages, message)
	return message
}

func newManager(t *testing.T, backend *fakeBackend) (*Manager, *localstore.Store, *fakeToaster) {
	t.Helper()
	store := localstore.New(filepath.Join(t.TempDir(), "state.json"))
	toasts := &fakeToaster{}
	ids := map[string]string{
		ProviderGitHub: "gh-client-id",
		ProviderSlack:  "slack-client-id",
	}
	m := NewManager(backend, store, toasts, ids, "http://localhost:8910/auth/callback", zap.NewNop())
	return m, store, toasts
}

func TestProceedRefusesWithoutConsent(t *testing.T) {
	m, store, toasts := newManager(t, &fakeBackend{})

	if err := m.Connect(context.Background(), ProviderGitHub); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if phase, _ := m.Phase(); phase != PhaseAwaitingConsent {
		t.Fatalf("phase = %v, want PhaseAwaitingConsent", phase)
	}

	got, err := m.Proceed()
	if !errors.Is(err, ErrConsentRequired) {
		t.Errorf("err = %v, want ErrConsentRequired", err)
	}
	if got != "" {
		t.Errorf("got a redirect URL %q without consent", got)
	}
	if phase, _ := m.Phase(); phase != PhaseAwaitingConsent {
		t.Error("refusal changed the phase")
	}
	if state := store.Snapshot(); state.PendingProvider != "" {
		t.Error("pending consent persisted without consent")
	}
	if len(toasts.messages) != 1 {
		t.Errorf("toasts = %v, want one warning", toasts.messages)
	}
}

func TestProceedWithConsent(t *testing.T) {
	backend := &fakeBackend{
		permissionsFn: func(context.Context, string) ([]string, error) {
			return []string{"Access repositories"}, nil
		},
	}
	m, store, _ := newManager(t, backend)

	if err := m.Connect(context.Background(), ProviderGitHub); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	m.SetConsentChecked(true)

	got, err := m.Proceed()
	if err != nil {
		t.Fatalf("Proceed: %v", err)
	}

	u, err := url.Parse(got)
	if err != nil {
		t.Fatalf("Proceed returned unparsable URL %q: %v", got, err)
	}
	if u.Host != "github.com" {
		t.Errorf("host = %q, want github.com", u.Host)
	}
	q := u.Query()
	if q.Get("client_id") != "gh-client-id" {
		t.Errorf("client_id = %q", q.Get("client_id"))
	}
	if q.Get("scope") != "repo" {
		t.Errorf("scope = %q, want repo", q.Get("scope"))
	}
	if q.Get("state") != ProviderGitHub {
		t.Errorf("state = %q, want provider name", q.Get("state"))
	}
	if !strings.Contains(q.Get("redirect_uri"), "localhost:8910") {
		t.Errorf("redirect_uri = %q", q.Get("redirect_uri"))
	}

	state := store.Snapshot()
	if state.PendingProvider != ProviderGitHub {
		t.Errorf("pending provider = %q", state.PendingProvider)
	}
	if len(state.PendingPermissions) != 1 || state.PendingPermissions[0] != "Access repositories" {
		t.Errorf("pending permissions = %v", state.PendingPermissions)
	}
}

func TestConnectPermissionFetchFailureOpensEmptyDialog(t *testing.T) {
	backend := &fakeBackend{
		permissionsFn: func(context.Context, string) ([]string, error) {
			return nil, errors.New("upstream 500")
		},
	}
	m, _, _ := newManager(t, backend)

	if err := m.Connect(context.Background(), ProviderSlack); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if phase, provider := m.Phase(); phase != PhaseAwaitingConsent || provider != ProviderSlack {
		t.Errorf("phase = %v provider = %q, want dialog open for slack", phase, provider)
	}
	if perms := m.Permissions(); len(perms) != 0 {
		t.Errorf("permissions = %v, want empty list", perms)
	}
}

func TestConnectUnknownProvider(t *testing.T) {
	m, _, _ := newManager(t, &fakeBackend{})
	if err := m.Connect(context.Background(), "myspace"); !errors.Is(err, ErrUnknownProvider) {
		t.Errorf("err = %v, want ErrUnknownProvider", err)
	}
}

func TestCancelClearsPending(t *testing.T) {
	m, store, _ := newManager(t, &fakeBackend{})
	if err := m.Connect(context.Background(), ProviderGitHub); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	m.SetConsentChecked(true)
	if _, err := m.Proceed(); err != nil {
		t.Fatalf("Proceed: %v", err)
	}

	m.Cancel()

	if phase, _ := m.Phase(); phase != PhaseIdle {
		t.Errorf("phase = %v, want PhaseIdle", phase)
	}
	if state := store.Snapshot(); state.PendingProvider != "" {
		t.Errorf("pending provider = %q, want cleared", state.PendingProvider)
	}
}

func TestDisableRefetchesRegistry(t *testing.T) {
	calls := 0
	backend := &fakeBackend{
		integrationsFn: func(context.Context, string) ([]model.Integration, error) {
			calls++
			if calls == 1 {
				return []model.Integration{{ID: "i1", Provider: ProviderSlack}}, nil
			}
			return nil, nil
		},
	}
	m, _, toasts := newManager(t, backend)
	if err := m.Refresh(context.Background(), "u1", nil); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if !m.IsConnected(ProviderSlack) {
		t.Fatal("slack not connected after first refresh")
	}

	if err := m.Disable(context.Background(), "u1", ProviderSlack); err != nil {
		t.Fatalf("Disable: %v", err)
	}
	if m.IsConnected(ProviderSlack) {
		t.Error("slack still connected after disable + refetch")
	}
	if len(toasts.messages) != 1 || !strings.Contains(toasts.messages[0], "Disconnected") {
		t.Errorf("toasts = %v", toasts.messages)
	}
}

func TestRefreshDiscardsStaleResponse(t *testing.T) {
	backend := &fakeBackend{
		integrationsFn: func(context.Context, string) ([]model.Integration, error) {
			return []model.Integration{{ID: "i1", Provider: ProviderGitHub}}, nil
		},
	}
	m, _, _ := newManager(t, backend)

	if err := m.Refresh(context.Background(), "u1", func() bool { return true }); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if m.IsConnected(ProviderGitHub) {
		t.Error("stale refresh applied")
	}
}
