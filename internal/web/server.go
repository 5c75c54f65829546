package web

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/hashicorp/go-hclog"
	"github.com/kozaktomas/face-quiz/internal/app"
	"github.com/kozaktomas/face-quiz/internal/logging"
	"github.com/kozaktomas/face-quiz/internal/web/handlers"
	"github.com/kozaktomas/face-quiz/internal/web/middleware"
	"github.com/kozaktomas/face-quiz/internal/web/static"
)

// Server represents the web server
type Server struct {
	shell          *app.Shell
	router         *chi.Mux
	httpServer     *http.Server
	sessionManager *middleware.SessionManager
	pages          *template.Template
	logger         hclog.Logger
}

// NewServer creates the web shell for shell listening on addr.
func NewServer(shell *app.Shell, addr string) (*Server, error) {
	pages, err := static.Templates()
	if err != nil {
		return nil, fmt.Errorf("parsing templates: %w", err)
	}

	logger := logging.OrNull(shell.Logger).Named("web")
	r := chi.NewRouter()

	// A request may capture and upload, then start or submit: allow two API calls.
	timeout := 2 * shell.Config.API.Timeout
	if timeout <= 0 {
		timeout = time.Minute
	}

	// Every browser gets its own views; closing them releases the camera.
	sessionManager := middleware.NewSessionManager(shell.Config.Web.SessionSecret, func() io.Closer {
		return handlers.NewViews(shell)
	}, logger.Named("sessions"))

	s := &Server{
		shell:          shell,
		router:         r,
		sessionManager: sessionManager,
		pages:          pages,
		logger:         logger,
	}

	// Set up middleware stack
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(middleware.RequestLogger(logger))
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Timeout(timeout))
	r.Use(middleware.SecurityHeaders())

	// Set up routes
	s.setupRoutes()

	// Create HTTP server
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: timeout + 10*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.sessionManager.StartCleanup()
	s.logger.Info("starting web server", "addr", s.httpServer.Addr, "api", s.shell.Client.BaseURL())
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server and releases every camera stream.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down web server")

	err := s.httpServer.Shutdown(ctx)

	// Stop the session cleanup goroutine
	s.sessionManager.Stop()

	if err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}
	return nil
}

// Router returns the chi router for testing
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Sessions returns the view session manager.
func (s *Server) Sessions() *middleware.SessionManager {
	return s.sessionManager
}
