package handlers

import (
	"bytes"
	"html/template"
	"net/http"

	"github.com/hashicorp/go-hclog"
	"github.com/kozaktomas/face-quiz/internal/logging"
	"github.com/kozaktomas/face-quiz/internal/quiz"
)

// PageHandler renders the single page and serves the form actions.
type PageHandler struct {
	pages  *template.Template
	logger hclog.Logger
}

// NewPageHandler creates a page handler rendering with pages.
func NewPageHandler(pages *template.Template, logger hclog.Logger) *PageHandler {
	return &PageHandler{pages: pages, logger: logging.OrNull(logger).Named("web")}
}

type pageData struct {
	Alerts         []string
	RegisterStatus string
	TokenStatus    string
	LoggedIn       bool
	Face           faceData
	Quiz           quizData
	ResetStatus    string
	ResetToken     string
}

type faceData struct {
	Status string
}

type quizData struct {
	Stage     string
	Message   string
	Title     string
	Questions []questionData
}

type questionData struct {
	Field   string // form field name, q_<id>
	Prompt  string
	Choices []choiceData
}

type choiceData struct {
	Value    string
	Selected bool
}

func questionField(id string) string {
	return "q_" + id
}

func newQuizData(snap quiz.Snapshot) quizData {
	data := quizData{Stage: snap.Stage.String(), Message: snap.Message}
	if snap.Quiz == nil {
		return data
	}

	data.Title = snap.Quiz.Title
	for _, q := range snap.Quiz.Questions {
		question := questionData{Field: questionField(string(q.ID)), Prompt: q.Prompt}
		for _, c := range q.Choices {
			question.Choices = append(question.Choices, choiceData{
				Value:    c,
				Selected: snap.Answers[q.ID] == c,
			})
		}
		data.Questions = append(data.Questions, question)
	}
	return data
}

// Index renders the page for the request's views.
func (h *PageHandler) Index(w http.ResponseWriter, r *http.Request) {
	views := mustGetViews(w, r)
	if views == nil {
		return
	}

	data := pageData{
		Alerts:         views.TakeAlerts(),
		RegisterStatus: views.Register.Status(),
		TokenStatus:    views.Login.TokenStatus(),
		LoggedIn:       views.Login.FaceCaptureAvailable(),
		Face:           faceData{Status: views.FaceStatus()},
		Quiz:           newQuizData(views.Quiz.Snapshot()),
		ResetStatus:    views.Reset.Status(),
		ResetToken:     views.Reset.IssuedToken(),
	}

	var buf bytes.Buffer
	if err := h.pages.ExecuteTemplate(&buf, "index.html", data); err != nil {
		h.logger.Error("rendering page failed", "error", err)
		http.Error(w, "failed to render page", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	buf.WriteTo(w)
}
