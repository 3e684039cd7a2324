// Package server wires the daemon together: router, middleware, the
// read-only store handle, the backend, and graceful shutdown.
//
// The composition root lives in New/setupRoutes — every dependency is
// assembled here and nowhere else. Each layer only receives what it
// needs: the backend gets the AccountReader interface (not the concrete
// sqlite.DB), handlers get the backend, the router gets handlers.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/mudauth/internal/auth"
	"github.com/sakif/mudauth/internal/config"
	"github.com/sakif/mudauth/internal/handler"
	"github.com/sakif/mudauth/internal/middleware"
	sqliteRepo "github.com/sakif/mudauth/internal/repository/sqlite"
	"github.com/sakif/mudauth/internal/service"
)

// Server owns the HTTP router and the account database handle. The
// handle is the only long-lived resource: opened here, closed during
// shutdown.
type Server struct {
	router *chi.Mux
	config config.Config
	logger *slog.Logger
	db     *sqliteRepo.DB // nil when the backend is disabled
}

// New creates a Server from the given config.
//
// A missing or unopenable store path does not abort startup: the server
// comes up with a disabled backend so that every authentication call
// fails closed while the operational endpoints (health, capabilities)
// stay reachable. A broken session secret does abort — without it the
// login flow cannot issue tokens at all.
func New(cfg config.Config, logger *slog.Logger) (*Server, error) {
	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
	}

	backend := s.buildBackend()

	tokens, err := auth.NewTokenService(cfg.SessionSecret, cfg.SessionTTL)
	if err != nil {
		s.closeDB()
		return nil, fmt.Errorf("creating token service: %w", err)
	}

	s.setupRoutes(backend, tokens)
	return s, nil
}

// buildBackend opens the account database read-only and constructs the
// backend over it, or a disabled backend when that is impossible.
func (s *Server) buildBackend() *service.Backend {
	if err := s.config.RequireStorePath(); err != nil {
		s.logger.Error("account store not configured — authentication disabled",
			slog.String("error", err.Error()),
		)
		return service.NewDisabledBackend(s.logger)
	}

	db, err := sqliteRepo.New(s.config.StorePath)
	if err != nil {
		s.logger.Error("account store unopenable — authentication disabled",
			slog.String("path", s.config.StorePath),
			slog.String("error", err.Error()),
		)
		return service.NewDisabledBackend(s.logger)
	}

	s.db = db
	return service.NewBackend(db, auth.NewVerifier(), s.logger)
}

func (s *Server) setupRoutes(backend *service.Backend, tokens *auth.TokenService) {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	authHandler := handler.NewAuthHandler(backend, tokens, s.logger)
	userHandler := handler.NewUserHandler(backend, s.logger)

	s.router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	s.router.Route("/api", func(r chi.Router) {
		r.Post("/auth/login", authHandler.HandleLogin)
		r.Post("/auth/logout", authHandler.HandleLogout)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireSession(tokens))
			r.Get("/auth/me", authHandler.HandleMe)
			r.Get("/users", userHandler.HandleList)
			r.Get("/users/count", userHandler.HandleCount)
			r.Get("/users/{name}", userHandler.HandleGet)
		})

		r.Get("/backend/capabilities", userHandler.HandleCapabilities)
	})
}

// Handler exposes the router, mainly for httptest in handler tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) closeDB() {
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.logger.Warn("closing account store", slog.String("error", err.Error()))
		}
		s.db = nil
	}
}

// Start runs the HTTP server until SIGINT/SIGTERM, then shuts down
// gracefully: stop accepting connections, give in-flight requests 30
// seconds, release the account database file handle.
func (s *Server) Start() error {
	defer s.closeDB()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("store", s.config.StorePath),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
