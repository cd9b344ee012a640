// Package httpapi exposes the token lifecycle over HTTP: the OAuth redirect
// callback the brokerage sends the browser back to, plus the status and
// logout surfaces the dashboard UI calls.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/saurabhpnd/tradeauth/internal/logging"
	"github.com/saurabhpnd/tradeauth/internal/tokenstore"
	"github.com/saurabhpnd/tradeauth/internal/upstox"
)

const shutdownTimeout = 5 * time.Second

type Server struct {
	address       string
	store         *tokenstore.Store
	oauth         *upstox.OAuthClient
	logger        logging.Logger
	sessionSecret []byte
	sessionTTL    time.Duration
	states        *stateRegistry
}

func NewServer(address string, l logging.Logger, store *tokenstore.Store, oauth *upstox.OAuthClient, sessionSecret string, sessionTTL time.Duration) *Server {
	return &Server{
		address:       address,
		logger:        l.With("module", "httpapi"),
		store:         store,
		oauth:         oauth,
		sessionSecret: []byte(sessionSecret),
		sessionTTL:    sessionTTL,
		states:        newStateRegistry(),
	}
}

// Handler builds the route table. Exposed separately so tests can drive the
// API through httptest without binding a port.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", s.handleHealthz)
	mux.HandleFunc("GET /auth/login", s.handleLogin)
	mux.HandleFunc("GET /auth/callback", s.handleCallback)
	mux.Handle("GET /auth/status", s.sessionAuth(http.HandlerFunc(s.handleStatus)))
	mux.Handle("POST /auth/logout", s.sessionAuth(http.HandlerFunc(s.handleLogout)))

	return s.requestLogger(mux)
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.address,
		Handler: s.Handler(),
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "stopping HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info(ctx, "starting HTTP server", "address", s.address)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}
