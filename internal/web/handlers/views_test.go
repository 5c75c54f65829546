package handlers

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kozaktomas/face-quiz/internal/camera"
	"github.com/kozaktomas/face-quiz/internal/camera/mock"
	"github.com/kozaktomas/face-quiz/internal/faceapi"
	"github.com/kozaktomas/face-quiz/internal/facecapture"
	"github.com/kozaktomas/face-quiz/internal/quiz"
	"github.com/kozaktomas/face-quiz/internal/web/middleware"
)

func TestViews_Alerts(t *testing.T) {
	v := &Views{}
	v.Alert("Login failed")
	v.Alert("Invalid credentials")

	alerts := v.TakeAlerts()
	if len(alerts) != 2 || alerts[0] != "Login failed" {
		t.Errorf("TakeAlerts() = %v", alerts)
	}
	if again := v.TakeAlerts(); len(again) != 0 {
		t.Errorf("second TakeAlerts() = %v, want empty", again)
	}
}

func TestNewQuizData(t *testing.T) {
	snap := quiz.Snapshot{
		Stage: quiz.StageInProgress,
		Quiz: &quiz.Quiz{
			ID:    1,
			Title: "T",
			Questions: []faceapi.Question{
				{ID: "1", Prompt: "2+2?", Choices: []string{"3", "4"}},
				{ID: "2", Prompt: "3+3?", Choices: []string{"6", "9"}},
			},
		},
		Answers: map[faceapi.QuestionID]string{"1": "4"},
	}

	data := newQuizData(snap)
	if data.Stage != "in-progress" || data.Title != "T" || len(data.Questions) != 2 {
		t.Fatalf("newQuizData() = %+v", data)
	}
	if data.Questions[0].Field != "q_1" {
		t.Errorf("Field = %q, want q_1", data.Questions[0].Field)
	}
	if data.Questions[0].Choices[0].Selected || !data.Questions[0].Choices[1].Selected {
		t.Errorf("question 1 choices = %+v, want 4 selected", data.Questions[0].Choices)
	}
	for _, c := range data.Questions[1].Choices {
		if c.Selected {
			t.Errorf("unanswered question has selected choice %q", c.Value)
		}
	}
}

func TestNewQuizData_NoQuiz(t *testing.T) {
	data := newQuizData(quiz.Snapshot{Stage: quiz.StageDone, Message: "Score: 2"})
	if data.Stage != "done" || data.Message != "Score: 2" || data.Questions != nil {
		t.Errorf("newQuizData() = %+v", data)
	}
}

func TestMustGetViews_NoSession(t *testing.T) {
	recorder := httptest.NewRecorder()
	if v := mustGetViews(recorder, httptest.NewRequest(http.MethodGet, "/", nil)); v != nil {
		t.Error("expected nil views without a session")
	}
	if recorder.Code != http.StatusInternalServerError {
		t.Errorf("expected status 500, got %d", recorder.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	views := &Views{}
	req = req.WithContext(middleware.SetSessionInContext(req.Context(), &middleware.Session{State: views}))
	if got := viewsFromRequest(req); got != views {
		t.Error("views not taken from the session")
	}
}

type uploaderFunc func(ctx context.Context, endpoint string, frame []byte) (*faceapi.FaceResult, error)

func (f uploaderFunc) UploadFace(ctx context.Context, endpoint string, frame []byte) (*faceapi.FaceResult, error) {
	return f(ctx, endpoint, frame)
}

func newFaceViews(dev camera.Device, raw string) *Views {
	api := uploaderFunc(func(ctx context.Context, endpoint string, frame []byte) (*faceapi.FaceResult, error) {
		return &faceapi.FaceResult{Match: true, Raw: []byte(raw)}, nil
	})
	return &Views{newFace: func() *facecapture.View { return facecapture.New(dev, api) }}
}

func TestWithFaceCapture_ReleasesCamera(t *testing.T) {
	dev := mock.NewDevice()
	views := newFaceViews(camera.NewExclusive(dev), `{"match":true}`)

	for range 2 {
		err := views.withFaceCapture(context.Background(), func(face *faceAction) error {
			_, err := face.RegisterFace(context.Background())
			return err
		})
		if err != nil {
			t.Fatalf("withFaceCapture() error = %v", err)
		}
	}
	if dev.Acquired() != 2 || dev.Released() != 2 {
		t.Errorf("acquired %d, released %d, want 2 and 2", dev.Acquired(), dev.Released())
	}
	if got := views.FaceStatus(); got != `{"match":true}` {
		t.Errorf("FaceStatus() = %q", got)
	}
}

func TestWithFaceCapture_StaleActionDiscarded(t *testing.T) {
	ctx := context.Background()
	uploads := 0
	api := uploaderFunc(func(ctx context.Context, endpoint string, frame []byte) (*faceapi.FaceResult, error) {
		uploads++
		return &faceapi.FaceResult{Match: true, Raw: []byte(fmt.Sprintf(`{"upload":%d}`, uploads))}, nil
	})
	dev := mock.NewDevice()
	views := &Views{newFace: func() *facecapture.View { return facecapture.New(dev, api) }}
	called := false

	err := views.withFaceCapture(ctx, func(older *faceAction) error {
		// A newer action completes while the older one is still running.
		views.withFaceCapture(ctx, func(newer *faceAction) error {
			_, err := newer.RegisterFace(ctx)
			return err
		})

		_, err := older.Verify(ctx, func(*faceapi.FaceResult) { called = true })
		return err
	})
	if err != nil {
		t.Fatalf("withFaceCapture() error = %v", err)
	}
	if called {
		t.Error("stale verify result handed on")
	}
	if got := views.FaceStatus(); got != `{"upload":1}` {
		t.Errorf("FaceStatus() = %q, want the newer action's status", got)
	}
}
