// Package app composes the views of face-quiz around one session store,
// API client and camera.
package app

import (
	"fmt"

	"github.com/hashicorp/go-hclog"
	"github.com/kozaktomas/face-quiz/internal/account"
	"github.com/kozaktomas/face-quiz/internal/camera"
	"github.com/kozaktomas/face-quiz/internal/config"
	"github.com/kozaktomas/face-quiz/internal/faceapi"
	"github.com/kozaktomas/face-quiz/internal/facecapture"
	"github.com/kozaktomas/face-quiz/internal/logging"
	"github.com/kozaktomas/face-quiz/internal/metrics"
	"github.com/kozaktomas/face-quiz/internal/quiz"
	"github.com/kozaktomas/face-quiz/internal/session"
)

// Shell holds the shared dependencies and builds views on top of them.
// The session store is injected read-only everywhere except the login view.
type Shell struct {
	Config  *config.Config
	Logger  hclog.Logger
	Metrics *metrics.Metrics
	Store   *session.Store
	Client  *faceapi.Client
	Camera  camera.Device
}

// Option overrides a dependency built from the config.
type Option func(*Shell)

// WithStore uses store instead of opening cfg.Session.Path.
func WithStore(store *session.Store) Option {
	return func(s *Shell) {
		s.Store = store
	}
}

// WithCamera uses dev instead of the configured camera.
func WithCamera(dev camera.Device) Option {
	return func(s *Shell) {
		s.Camera = dev
	}
}

// WithMetrics records into m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Shell) {
		s.Metrics = m
	}
}

// New builds the shell from cfg.
func New(cfg *config.Config, logger hclog.Logger, opts ...Option) (*Shell, error) {
	s := &Shell{
		Config: cfg,
		Logger: logging.OrNull(logger),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.Store == nil {
		store, err := session.Open(cfg.Session.Path)
		if err != nil {
			return nil, fmt.Errorf("could not open session: %w", err)
		}
		s.Store = store
	}

	if s.Camera == nil {
		dev, err := camera.FromConfig(cfg.Camera)
		if err != nil {
			return nil, fmt.Errorf("could not set up camera: %w", err)
		}
		s.Camera = dev
	}

	clientOpts := []faceapi.Option{
		faceapi.WithTimeout(cfg.API.Timeout),
		faceapi.WithRateLimit(cfg.API.RateLimit, cfg.API.RateWindow),
		faceapi.WithLogger(s.Logger.Named("api")),
		faceapi.WithMetrics(s.Metrics),
	}
	if cfg.API.CaptureDir != "" {
		clientOpts = append(clientOpts, faceapi.WithCaptureDir(cfg.API.CaptureDir))
	}
	client, err := faceapi.New(cfg.API.URL, s.Store, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("could not create API client: %w", err)
	}
	s.Client = client

	return s, nil
}

// CaptureOptions returns the frame capture settings from the config.
func (s *Shell) CaptureOptions() camera.CaptureOptions {
	return camera.CaptureOptions{
		DefaultWidth:  s.Config.Camera.Width,
		DefaultHeight: s.Config.Camera.Height,
		Quality:       s.Config.Camera.Quality,
	}
}

// RegisterView returns a new registration view.
func (s *Shell) RegisterView() *account.RegisterView {
	return account.NewRegisterView(s.Client, s.Logger)
}

// LoginView returns a new login view; it is the only holder of the store's writer side.
func (s *Shell) LoginView(alert account.Alerter) *account.LoginView {
	return account.NewLoginView(s.Client, s.Store, alert, s.Logger)
}

// PasswordResetView returns a new password reset view.
func (s *Shell) PasswordResetView() *account.PasswordResetView {
	return account.NewPasswordResetView(s.Client, s.Logger)
}

// FaceCaptureView returns an inactive face capture view on the shared camera.
func (s *Shell) FaceCaptureView() *facecapture.View {
	return facecapture.New(s.Camera, s.Client,
		facecapture.WithCaptureOptions(s.CaptureOptions()),
		facecapture.WithLogger(s.Logger),
		facecapture.WithMetrics(s.Metrics),
	)
}

// QuizView returns an idle quiz view.
func (s *Shell) QuizView() *quiz.View {
	return quiz.New(s.Client, s.Logger, s.Metrics)
}
