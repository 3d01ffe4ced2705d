// Package session owns the client identity and the top-level view
// state machine. All session transitions (credential auth, OAuth,
// demo login, logout) funnel through the Controller, which persists
// identity across restarts and triggers the dashboard bootstrap once
// a session exists.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/covalynce/covalynce-cli/internal/api"
	"github.com/covalynce/covalynce-cli/internal/localstore"
	"github.com/covalynce/covalynce-cli/internal/model"
)

// Demo identities assigned by the two demo buttons. They bypass
// network auth entirely and must not be reachable from any other path.
const (
	DemoUserFree = "demo_user_free"
	DemoUserPro  = "demo_user_pro"
)

// AuthBackend is the slice of the API the Controller needs.
type AuthBackend interface {
	// SignUp creates an account and returns its credentials.
	SignUp(ctx context.Context, email, password string) (api.Credentials, error)
	// SignIn authenticates existing credentials.
	SignIn(ctx context.Context, email, password string) (api.Credentials, error)
	// ExchangeOAuthCode finalizes an OAuth login on the backend.
	ExchangeOAuthCode(ctx context.Context, provider, code, userID, redirectURI string) error
	// RecordConsent stores a consent snapshot captured before the
	// OAuth redirect.
	RecordConsent(ctx context.Context, userID, provider string, permissions []string) error
}

// BootstrapFunc loads the data the active session's views need. It is
// invoked once per established session with the session's user id and
// a staleness probe: implementations must discard any response that
// arrives after stale() starts returning true.
type BootstrapFunc func(userID string, stale func() bool)

// Controller is the single owner of session identity and the view
// router. All mutation happens under one mutex; reads return copies.
type Controller struct {
	backend AuthBackend
	store   *localstore.Store
	logger  *zap.Logger

	mu        sync.Mutex
	view      model.View
	userID    string
	authError string
	loading   bool
	gen       uint64
	bootstrap BootstrapFunc
}

// NewController constructs a Controller starting at the LOGIN view.
func NewController(backend AuthBackend, store *localstore.Store, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{
		backend: backend,
		store:   store,
		logger:  logger,
		view:    model.ViewLogin,
	}
}

// OnSession registers the bootstrap invoked whenever a session is
// established (sign-in, sign-up, OAuth, demo, resume).
func (c *Controller) OnSession(fn BootstrapFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bootstrap = fn
}

// View returns the active top-level view.
func (c *Controller) View() model.View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view
}

// SetView switches the active view. Views behind the session are
// forced back to LOGIN while no identity exists.
func (c *Controller) SetView(v model.View) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.userID == "" && v != model.ViewLogin && v != model.ViewSignup {
		c.view = model.ViewLogin
		return
	}
	c.view = v
}

// UserID returns the signed-in user id, or "" when logged out.
func (c *Controller) UserID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.userID
}

// AuthError returns the inline auth form error, if any.
func (c *Controller) AuthError() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.authError
}

// SetAuthError surfaces an inline auth message. Other flows (consent
// gating) reuse the same slot the original client did.
func (c *Controller) SetAuthError(msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.authError = msg
}

// Stale reports whether gen belongs to a session generation that has
// since been replaced. Late fetch responses carrying a stale
// generation must be dropped instead of applied to current state.
func (c *Controller) Stale(gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return gen != c.gen
}

// Resume restores a persisted session at startup. An expired access
// token is treated as no session: resuming into a dead dashboard only
// produces a wall of 401s.
func (c *Controller) Resume() bool {
	state := c.store.Snapshot()
	if state.UserID == "" {
		return false
	}
	if state.Token != "" && tokenExpired(state.Token) {
		c.logger.Info("persisted token expired, discarding session",
			zap.String("user_id", state.UserID))
		if err := c.store.Clear(); err != nil {
			c.logger.Warn("failed to clear state file", zap.Error(err))
		}
		return false
	}
	c.establish(state.UserID)
	return true
}

// tokenExpired parses the token without verifying its signature; the
// client has no key material and only needs the exp claim.
func tokenExpired(token string) bool {
	parser := jwt.NewParser()
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		// Opaque (non-JWT) tokens are assumed live; the backend
		// decides.
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return exp.Before(time.Now())
}

// SignUp registers credentials and opens the dashboard. On failure the
// backend's message is surfaced inline and the view does not advance.
func (c *Controller) SignUp(ctx context.Context, email, password string) error {
	return c.credentialAuth(ctx, email, password, c.backend.SignUp, "Sign up failed")
}

// SignIn authenticates credentials and opens the dashboard, with the
// same failure semantics as SignUp.
func (c *Controller) SignIn(ctx context.Context, email, password string) error {
	return c.credentialAuth(ctx, email, password, c.backend.SignIn, "Sign in failed")
}

func (c *Controller) credentialAuth(
	ctx context.Context,
	email, password string,
	auth func(context.Context, string, string) (api.Credentials, error),
	fallback string,
) error {
	c.setLoading(true)
	defer c.setLoading(false)
	c.SetAuthError("")

	creds, err := auth(ctx, email, password)
	if err != nil {
		c.SetAuthError(authMessage(err, fallback))
		return err
	}
	if err := c.store.SetSession(creds.UserID, creds.AccessToken); err != nil {
		c.logger.Warn("failed to persist session", zap.Error(err))
	}
	c.establish(creds.UserID)
	return nil
}

// authMessage prefers the backend's error detail, falling back to a
// generic label for transport failures.
func authMessage(err error, fallback string) string {
	var apiErr *api.Error
	if errors.As(err, &apiErr) && apiErr.Detail != "" {
		return apiErr.Detail
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return fallback
}

// DemoLogin assigns the fixed demo identity for the tier ("pro" or
// anything else for free) without touching the network.
func (c *Controller) DemoLogin(tier string) {
	uid := DemoUserFree
	if strings.EqualFold(tier, "pro") {
		uid = DemoUserPro
	}
	if err := c.store.SetSession(uid, ""); err != nil {
		c.logger.Warn("failed to persist demo session", zap.Error(err))
	}
	c.establish(uid)
}

// CompleteOAuth finalizes a provider redirect carrying an
// authorization code. If no local identity exists yet one is
// fabricated, mirroring first-time OAuth sign-in. A consent pending
// from before the redirect is recorded server-side before the
// dashboard opens.
func (c *Controller) CompleteOAuth(ctx context.Context, code, redirectURI string) error {
	state := c.store.Snapshot()
	provider := state.PendingProvider
	if provider == "" {
		provider = "github"
	}
	uid := state.UserID
	if uid == "" {
		uid = "user_" + uuid.NewString()[:9]
	}

	c.setLoading(true)
	defer c.setLoading(false)

	if err := c.backend.ExchangeOAuthCode(ctx, provider, code, uid, redirectURI); err != nil {
		c.SetAuthError("Authentication failed")
		return fmt.Errorf("oauth exchange: %w", err)
	}

	if state.PendingProvider != "" {
		if err := c.backend.RecordConsent(ctx, uid, state.PendingProvider, state.PendingPermissions); err != nil {
			// Consent recording is retried implicitly on the next
			// connect; the login itself stands.
			c.logger.Warn("failed to record consent",
				zap.String("provider", state.PendingProvider), zap.Error(err))
		}
	}

	if err := c.store.SetSession(uid, state.Token); err != nil {
		c.logger.Warn("failed to persist session", zap.Error(err))
	}
	if err := c.store.ClearPending(); err != nil {
		c.logger.Warn("failed to clear pending consent", zap.Error(err))
	}
	c.establish(uid)
	return nil
}

// Logout clears all persisted identity and returns to LOGIN. The
// generation bump invalidates any fetch still in flight.
func (c *Controller) Logout() {
	if err := c.store.Clear(); err != nil {
		c.logger.Warn("failed to clear state file", zap.Error(err))
	}
	c.mu.Lock()
	c.userID = ""
	c.authError = ""
	c.view = model.ViewLogin
	c.gen++
	c.mu.Unlock()
}

// establish records the identity, opens the dashboard and kicks the
// bootstrap with a staleness probe bound to this session generation.
func (c *Controller) establish(userID string) {
	c.mu.Lock()
	c.userID = userID
	c.authError = ""
	c.view = model.ViewDashboard
	c.gen++
	gen := c.gen
	bootstrap := c.bootstrap
	c.mu.Unlock()

	if bootstrap != nil {
		bootstrap(userID, func() bool { return c.Stale(gen) })
	}
}

func (c *Controller) setLoading(v bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loading = v
}

// Loading reports whether an auth request is outstanding.
func (c *Controller) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}
