package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/kozaktomas/face-quiz/internal/web/handlers"
	"github.com/kozaktomas/face-quiz/internal/web/middleware"
	"github.com/kozaktomas/face-quiz/internal/web/static"
)

func (s *Server) setupRoutes() {
	pageHandler := handlers.NewPageHandler(s.pages, s.logger)

	// Health check and metrics (no view session)
	s.router.Get("/health", handlers.HealthCheck)
	s.router.Handle("/metrics", s.shell.Metrics.Handler())
	s.router.Handle("/assets/*", http.StripPrefix("/assets/", http.FileServer(static.GetFileSystem())))

	s.router.Group(func(r chi.Router) {
		r.Use(middleware.WithSession(s.sessionManager))
		r.Use(middleware.NoStore)

		r.Get("/", pageHandler.Index)
		r.Get("/camera/frame.jpg", handlers.CameraFrame)

		r.Post("/register", pageHandler.Register)
		r.Post("/login", pageHandler.Login)
		r.Post("/face/register", pageHandler.FaceRegister)
		r.Post("/face/verify", pageHandler.FaceVerify)
		r.Post("/quiz/start", pageHandler.QuizStart)
		r.Post("/quiz/reauth", pageHandler.QuizReauth)
		r.Post("/quiz/submit", pageHandler.QuizSubmit)
		r.Post("/quiz/reset", pageHandler.QuizReset)
		r.Post("/password-reset/request", pageHandler.PasswordResetRequest)
		r.Post("/password-reset/confirm", pageHandler.PasswordResetConfirm)
	})
}
