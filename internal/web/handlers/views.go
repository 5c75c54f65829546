package handlers

import (
	"context"
	"net/http"
	"sync"

	"github.com/kozaktomas/face-quiz/internal/account"
	"github.com/kozaktomas/face-quiz/internal/app"
	"github.com/kozaktomas/face-quiz/internal/faceapi"
	"github.com/kozaktomas/face-quiz/internal/facecapture"
	"github.com/kozaktomas/face-quiz/internal/quiz"
	"github.com/kozaktomas/face-quiz/internal/web/middleware"
)

// Views is the set of views one browser works with. The camera is never held
// between requests: every face action activates its own face capture view
// and releases the device before the handler returns.
type Views struct {
	Register *account.RegisterView
	Login    *account.LoginView
	Reset    *account.PasswordResetView
	Quiz     *quiz.View

	newFace func() *facecapture.View

	mu         sync.Mutex
	alerts     []string
	faceStatus string
	faceSeq    uint64 // incremented for every face action
}

// NewViews builds a fresh set of views on shell.
func NewViews(shell *app.Shell) *Views {
	v := &Views{
		Register: shell.RegisterView(),
		Reset:    shell.PasswordResetView(),
		Quiz:     shell.QuizView(),
		newFace:  shell.FaceCaptureView,
	}
	v.Login = shell.LoginView(v)
	return v
}

// Alert queues a message shown as an alert dialog on the next page render.
func (v *Views) Alert(message string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.alerts = append(v.alerts, message)
}

// TakeAlerts returns and clears the queued alerts.
func (v *Views) TakeAlerts() []string {
	v.mu.Lock()
	defer v.mu.Unlock()
	alerts := v.alerts
	v.alerts = nil
	return alerts
}

// FaceStatus is the status of the newest face action.
func (v *Views) FaceStatus() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.faceStatus
}

func (v *Views) currentFace(seq uint64) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return seq == v.faceSeq
}

// faceAction is one activation of the face capture view.
type faceAction struct {
	*facecapture.View
	views *Views
	seq   uint64
}

// Verify hands the result to onResult only while no newer face action
// was started by the same browser.
func (a *faceAction) Verify(ctx context.Context, onResult facecapture.ResultFunc) (*faceapi.FaceResult, error) {
	if onResult == nil {
		return a.View.Verify(ctx, nil)
	}
	return a.View.Verify(ctx, func(result *faceapi.FaceResult) {
		if a.views.currentFace(a.seq) {
			onResult(result)
		}
	})
}

// withFaceCapture runs fn on a freshly opened face capture view and releases
// the camera afterwards. The resulting status is kept unless a newer face
// action started meanwhile.
func (v *Views) withFaceCapture(ctx context.Context, fn func(*faceAction) error) error {
	v.mu.Lock()
	v.faceSeq++
	action := &faceAction{View: v.newFace(), views: v, seq: v.faceSeq}
	v.mu.Unlock()
	defer action.Close()

	err := action.Open(ctx)
	if err == nil {
		err = fn(action)
	}

	v.mu.Lock()
	if action.seq == v.faceSeq {
		v.faceStatus = action.Status()
	}
	v.mu.Unlock()
	return err
}

// preview captures one JPEG frame. It leaves the face status alone.
func (v *Views) preview(ctx context.Context) ([]byte, error) {
	face := v.newFace()
	defer face.Close()
	if err := face.Open(ctx); err != nil {
		return nil, err
	}
	return face.Preview(ctx)
}

// Close implements io.Closer for the view session. Nothing is held between
// requests, so there is nothing to release.
func (v *Views) Close() error {
	return nil
}

// viewsFromRequest returns the views of the request's session.
func viewsFromRequest(r *http.Request) *Views {
	session := middleware.GetSessionFromContext(r.Context())
	if session == nil {
		return nil
	}
	views, _ := session.State.(*Views)
	return views
}

// mustGetViews writes a 500 and returns nil when the request has no views.
func mustGetViews(w http.ResponseWriter, r *http.Request) *Views {
	views := viewsFromRequest(r)
	if views == nil {
		respondError(w, http.StatusInternalServerError, "no view session")
	}
	return views
}
