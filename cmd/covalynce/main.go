// Package main initializes and starts the Covalynce terminal client:
// configuration, logging, the persisted local state, the typed backend
// client, the per-screen stores and the localhost OAuth callback
// listener, then hands control to the interactive shell.
package main

import (
	"cmp"
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/covalynce/covalynce-cli/internal/account"
	"github.com/covalynce/covalynce-cli/internal/api"
	"github.com/covalynce/covalynce-cli/internal/cards"
	"github.com/covalynce/covalynce-cli/internal/config"
	"github.com/covalynce/covalynce-cli/internal/integrations"
	"github.com/covalynce/covalynce-cli/internal/localstore"
	"github.com/covalynce/covalynce-cli/internal/modal"
	"github.com/covalynce/covalynce-cli/internal/notifications"
	"github.com/covalynce/covalynce-cli/internal/oauthcallback"
	"github.com/covalynce/covalynce-cli/internal/session"
	"github.com/covalynce/covalynce-cli/internal/toast"
	"github.com/covalynce/covalynce-cli/internal/trends"
)

var (
	// version holds the build version set via ldflags.
	version string
	// buildDate holds the build timestamp set via ldflags.
	buildDate string
)

func main() {
	var (
		configPath string
		showVer    bool
	)
	flag.StringVar(&configPath, "config", "covalynce.yaml", "path to config file")
	flag.BoolVar(&showVer, "version", false, "show build version and date")
	flag.Parse()

	if showVer {
		fmt.Printf("Covalynce Client\nVersion: %s\nBuild Date: %s\n",
			cmp.Or(version, "N/A"), cmp.Or(buildDate, "N/A"))
		return
	}

	logger, err := newLogger()
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to init logger:", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Fatal("cannot load config", zap.Error(err))
	}

	store := localstore.New(cfg.State.File)
	if err := store.Load(); err != nil {
		logger.Fatal("cannot load state file", zap.Error(err))
	}

	backend := api.NewClient(cfg.API.URL, nil, logger)
	toasts := toast.NewQueue(toast.DefaultTTL)
	modals := modal.NewStack()
	sess := session.NewController(backend, store, logger)

	cardStore := cards.NewStore(backend, toasts, sess, logger)
	clientIDs := map[string]string{
		integrations.ProviderGitHub:   cfg.OAuth.GitHubClientID,
		integrations.ProviderLinkedIn: cfg.OAuth.LinkedInClientID,
		integrations.ProviderSlack:    cfg.OAuth.SlackClientID,
		integrations.ProviderGoogle:   cfg.OAuth.GoogleClientID,
		integrations.ProviderFacebook: cfg.OAuth.FacebookClientID,
	}
	redirectURI := "http://" + cfg.OAuth.CallbackAddr + "/auth/callback"
	integr := integrations.NewManager(backend, store, toasts, clientIDs, redirectURI, logger)
	trendStore := trends.NewStore(backend, toasts, logger)
	notifStore := notifications.NewStore(backend, logger)
	acctStore := account.NewStore(backend, store, toasts, sess, "", logger)

	// Every new session loads the dashboard data in the background.
	// Each loader carries the staleness probe so a response landing
	// after logout or re-login is dropped.
	sess.OnSession(func(userID string, stale func() bool) {
		go loadAll(cardStore, integr, trendStore, notifStore, acctStore, userID, stale, logger)
	})

	listener := oauthcallback.NewListener(cfg.OAuth.CallbackAddr, redirectURI, sess, logger)
	listener.OnComplete = func(err error) {
		if err != nil {
			return
		}
		integr.Complete()
		if uid := sess.UserID(); uid != "" {
			ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			if err := integr.Refresh(ctx, uid, nil); err != nil {
				logger.Warn("integration refresh after callback failed", zap.Error(err))
			}
		}
	}
	if err := listener.Start(); err != nil {
		logger.Warn("callback listener unavailable, OAuth connect disabled", zap.Error(err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = listener.Shutdown(ctx)
	}()

	if sess.Resume() {
		fmt.Println("Welcome back,", sess.UserID())
	}

	sh := &shell{
		sess:     sess,
		cards:    cardStore,
		integr:   integr,
		trends:   trendStore,
		notifs:   notifStore,
		account:  acctStore,
		toasts:   toasts,
		modals:   modals,
		logger:   logger,
		authAddr: redirectURI,
	}
	sh.run()
}

// loadAll fetches everything the dashboard shows. Failures are
// independent: a down trends endpoint must not blank the card columns.
func loadAll(
	cardStore *cards.Store,
	integr *integrations.Manager,
	trendStore *trends.Store,
	notifStore *notifications.Store,
	acctStore *account.Store,
	userID string,
	stale func() bool,
	logger *zap.Logger,
) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := cardStore.Load(ctx, userID, stale); err != nil {
		logger.Warn("card sync failed", zap.Error(err))
	}
	if err := acctStore.LoadProfile(ctx, userID, stale); err != nil {
		logger.Warn("profile load failed", zap.Error(err))
	}
	if err := integr.Refresh(ctx, userID, stale); err != nil {
		logger.Warn("integration load failed", zap.Error(err))
	}
	if err := notifStore.Load(ctx, userID, stale); err != nil {
		logger.Warn("notification load failed", zap.Error(err))
	}
	if err := trendStore.LoadCompetitors(ctx, userID, stale); err != nil {
		logger.Warn("competitor load failed", zap.Error(err))
	}
	if err := trendStore.LoadUsage(ctx, userID, stale); err != nil {
		logger.Warn("usage load failed", zap.Error(err))
	}
	if err := trendStore.LoadPreferences(ctx, userID, stale); err != nil {
		logger.Warn("preference load failed", zap.Error(err))
	}
}

// newLogger builds a console logger writing to stderr so shell output
// on stdout stays readable.
func newLogger() (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{"stderr"}
	cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	return cfg.Build()
}
