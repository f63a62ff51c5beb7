// Package web serves the flash message endpoints over HTTP.
package web

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"github.com/leapstack-labs/prefixsql/internal/flash"
	"golang.org/x/sync/errgroup"
)

// SessionName is the cookie name of the flash session.
const SessionName = "prefixsql"

// Server serves flash messages backed by cookie sessions.
type Server struct {
	addr         string
	sessionStore *sessions.CookieStore
	flashConfig  flash.Config
	logger       *slog.Logger
}

// Config holds configuration for the server.
type Config struct {
	Addr          string
	SessionSecret string
	Flash         flash.Config
	Logger        *slog.Logger
}

// NewServer creates a new server instance. Without a session secret a random
// one is generated, so sessions do not survive a restart.
func NewServer(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	secret := cfg.SessionSecret
	if secret == "" {
		secret = uuid.NewString() + uuid.NewString()
		logger.Warn("no session secret configured, using a random one")
	}

	sessionStore := sessions.NewCookieStore([]byte(secret))
	sessionStore.MaxAge(86400) // 1 day
	sessionStore.Options.Path = "/"
	sessionStore.Options.HttpOnly = true
	sessionStore.Options.SameSite = http.SameSiteLaxMode

	addr := cfg.Addr
	if addr == "" {
		addr = ":8080"
	}

	return &Server{
		addr:         addr,
		sessionStore: sessionStore,
		flashConfig:  cfg.Flash,
		logger:       logger,
	}
}

// Handler returns the router with all routes mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewMux()
	r.Use(
		middleware.RequestID,
		middleware.Recoverer,
	)
	SetupRoutes(r, NewHandlers(s.sessionStore, s.flashConfig, s.logger))
	return r
}

// Serve starts the server and blocks until ctx is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	s.logger.Info("starting server", "addr", s.addr)

	eg, egctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Addr:    s.addr,
		Handler: s.Handler(),
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: 10 * time.Second,
	}

	eg.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Debug("shutting down server...")
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}
