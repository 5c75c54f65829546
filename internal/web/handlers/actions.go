package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/kozaktomas/face-quiz/internal/faceapi"
	"github.com/kozaktomas/face-quiz/internal/quiz"
)

// Form actions run the view operation and redirect back to the page. Outcomes
// are shown through the view state, so operation errors are only logged.

// Register handles the registration form.
func (h *PageHandler) Register(w http.ResponseWriter, r *http.Request) {
	views := mustGetViews(w, r)
	if views == nil {
		return
	}
	r.ParseForm()

	err := views.Register.Submit(r.Context(), faceapi.RegisterRequest{
		Email:    r.PostFormValue("email"),
		Password: r.PostFormValue("password"),
		FullName: strings.TrimSpace(r.PostFormValue("full_name")),
	})
	h.logOutcome("register", err)
	redirectTo(w, r, "register")
}

// Login handles the login form.
func (h *PageHandler) Login(w http.ResponseWriter, r *http.Request) {
	views := mustGetViews(w, r)
	if views == nil {
		return
	}
	r.ParseForm()

	err := views.Login.Submit(r.Context(), faceapi.Credentials{
		Email:    r.PostFormValue("email"),
		Password: r.PostFormValue("password"),
	})
	h.logOutcome("login", err)
	redirectTo(w, r, "login")
}

// FaceRegister uploads a frame as the reference face.
func (h *PageHandler) FaceRegister(w http.ResponseWriter, r *http.Request) {
	views := mustGetViews(w, r)
	if views == nil {
		return
	}

	err := views.withFaceCapture(r.Context(), func(face *faceAction) error {
		_, err := face.RegisterFace(r.Context())
		return err
	})
	h.logOutcome("face register", err)
	redirectTo(w, r, "login")
}

// FaceVerify uploads a frame for verification. The result only updates the
// face status; re-authenticating a quiz goes through QuizReauth.
func (h *PageHandler) FaceVerify(w http.ResponseWriter, r *http.Request) {
	views := mustGetViews(w, r)
	if views == nil {
		return
	}

	err := views.withFaceCapture(r.Context(), func(face *faceAction) error {
		_, err := face.Verify(r.Context(), nil)
		return err
	})
	h.logOutcome("face verify", err)
	redirectTo(w, r, "login")
}

// QuizStart starts a quiz attempt.
func (h *PageHandler) QuizStart(w http.ResponseWriter, r *http.Request) {
	views := mustGetViews(w, r)
	if views == nil {
		return
	}

	err := views.Quiz.Start(r.Context())
	h.logOutcome("quiz start", err)
	redirectTo(w, r, "quiz")
}

// QuizReauth verifies the face for a quiz awaiting re-authentication.
func (h *PageHandler) QuizReauth(w http.ResponseWriter, r *http.Request) {
	views := mustGetViews(w, r)
	if views == nil {
		return
	}
	err := views.withFaceCapture(r.Context(), func(face *faceAction) error {
		return views.Quiz.Reauthenticate(r.Context(), face)
	})
	h.logOutcome("quiz re-authentication", err)
	redirectTo(w, r, "quiz")
}

// QuizSubmit replaces the selected answers with the form's and submits the
// quiz. Questions left on the empty option are not answered. An invalid
// choice rejects the whole form and keeps the previous selection.
func (h *PageHandler) QuizSubmit(w http.ResponseWriter, r *http.Request) {
	views := mustGetViews(w, r)
	if views == nil {
		return
	}
	r.ParseForm()

	snap := views.Quiz.Snapshot()
	if snap.Quiz != nil {
		answers := make(map[faceapi.QuestionID]string)
		for _, q := range snap.Quiz.Questions {
			if choice := r.PostFormValue(questionField(string(q.ID))); choice != "" {
				answers[q.ID] = choice
			}
		}
		if err := views.Quiz.SetAnswers(answers); err != nil {
			if errors.Is(err, quiz.ErrUnknownQuestion) || errors.Is(err, quiz.ErrInvalidChoice) {
				respondError(w, http.StatusBadRequest, err.Error())
				return
			}
			h.logOutcome("quiz answers", err)
		}
	}

	err := views.Quiz.Submit(r.Context())
	h.logOutcome("quiz submit", err)
	redirectTo(w, r, "quiz")
}

// QuizReset discards the current attempt.
func (h *PageHandler) QuizReset(w http.ResponseWriter, r *http.Request) {
	views := mustGetViews(w, r)
	if views == nil {
		return
	}
	views.Quiz.Reset()
	redirectTo(w, r, "quiz")
}

// PasswordResetRequest asks for a reset token.
func (h *PageHandler) PasswordResetRequest(w http.ResponseWriter, r *http.Request) {
	views := mustGetViews(w, r)
	if views == nil {
		return
	}
	r.ParseForm()

	err := views.Reset.Request(r.Context(), r.PostFormValue("email"))
	h.logOutcome("password reset request", err)
	redirectTo(w, r, "password-reset")
}

// PasswordResetConfirm sets a new password.
func (h *PageHandler) PasswordResetConfirm(w http.ResponseWriter, r *http.Request) {
	views := mustGetViews(w, r)
	if views == nil {
		return
	}
	r.ParseForm()

	err := views.Reset.Confirm(r.Context(), r.PostFormValue("token"), r.PostFormValue("new_password"))
	h.logOutcome("password reset confirm", err)
	redirectTo(w, r, "password-reset")
}

func (h *PageHandler) logOutcome(action string, err error) {
	if err == nil {
		h.logger.Debug("action done", "action", action)
		return
	}
	h.logger.Info("action failed", "action", action, "error", sanitizeForLog(err.Error()))
}
