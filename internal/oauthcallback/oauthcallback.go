// Package oauthcallback runs the short-lived localhost listener that
// receives the provider's redirect after the user authorizes in the
// browser. It extracts the authorization code and hands it to the
// session controller; the listener itself holds no state.
package oauthcallback

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/covalynce/covalynce-cli/internal/middleware"
)

// Completer finishes an OAuth connection from a received code.
type Completer interface {
	CompleteOAuth(ctx context.Context, code, redirectURI string) error
}

// Listener is the localhost callback endpoint.
type Listener struct {
	addr        string
	redirectURI string
	completer   Completer
	logger      *zap.Logger

	// OnComplete fires after a callback lands, successfully or not.
	// The dashboard uses it to refetch the integration registry.
	OnComplete func(err error)

	srv *http.Server
}

// NewListener builds a listener answering on addr. redirectURI must be
// the exact value used when the authorize URL was built.
func NewListener(addr, redirectURI string, completer Completer, logger *zap.Logger) *Listener {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Listener{
		addr:        addr,
		redirectURI: redirectURI,
		completer:   completer,
		logger:      logger,
	}
}

// Router returns the HTTP handler serving the callback routes.
func (l *Listener) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.WithRequestLogging(l.logger))
	r.Get("/auth/callback", l.handleCallback)
	r.Get("/auth/{provider}/callback", l.handleCallback)
	return r
}

func (l *Listener) handleCallback(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	if code == "" {
		http.Error(w, "missing authorization code", http.StatusBadRequest)
		if l.OnComplete != nil {
			l.OnComplete(errors.New("oauthcallback: missing code"))
		}
		return
	}

	err := l.completer.CompleteOAuth(r.Context(), code, l.redirectURI)
	if err != nil {
		l.logger.Warn("oauth completion failed", zap.Error(err))
		http.Error(w, "connection failed, return to the app and retry", http.StatusBadGateway)
	} else {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte("<html><body><p>Connected. You can close this window.</p></body></html>"))
	}
	if l.OnComplete != nil {
		l.OnComplete(err)
	}
}

// Start serves the callback routes in the background until Shutdown.
func (l *Listener) Start() error {
	l.srv = &http.Server{
		Addr:              l.addr,
		Handler:           l.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		errc <- l.srv.ListenAndServe()
	}()
	select {
	case err := <-errc:
		return err
	case <-time.After(100 * time.Millisecond):
		return nil
	}
}

// Shutdown stops the listener gracefully.
func (l *Listener) Shutdown(ctx context.Context) error {
	if l.srv == nil {
		return nil
	}
	err := l.srv.Shutdown(ctx)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
