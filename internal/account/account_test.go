package account

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kozaktomas/face-quiz/internal/faceapi"
	"github.com/kozaktomas/face-quiz/internal/session"
)

// setupMockServer starts an API answering each path with the given status and body.
func setupMockServer(t *testing.T, responses map[string]struct {
	status int
	body   string
}) *faceapi.Client {
	t.Helper()
	mux := http.NewServeMux()
	for path, resp := range responses {
		mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(resp.status)
			fmt.Fprint(w, resp.body)
		})
	}
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	client, err := faceapi.New(server.URL, nil)
	if err != nil {
		t.Fatalf("faceapi.New() error = %v", err)
	}
	return client
}

type response = struct {
	status int
	body   string
}

// recordingAlerter collects alerts.
type recordingAlerter struct {
	messages []string
}

func (a *recordingAlerter) Alert(message string) {
	a.messages = append(a.messages, message)
}

func TestRegisterView(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		expected string
		wantErr  bool
	}{
		{"success", http.StatusOK, `{"id": 1, "email": "a@b.c"}`, "Registered successfully", false},
		{"success without body", http.StatusCreated, `{}`, "Registered successfully", false},
		{"detail", http.StatusBadRequest, `{"detail": "Email already registered"}`, "Email already registered", true},
		{"no detail", http.StatusInternalServerError, `{"error": "oops"}`, "Error", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := setupMockServer(t, map[string]response{
				faceapi.PathRegister: {tt.status, tt.body},
			})
			view := NewRegisterView(client, nil)

			err := view.Submit(context.Background(), faceapi.RegisterRequest{Email: "a@b.c", Password: "pw"})
			if (err != nil) != tt.wantErr {
				t.Errorf("Submit() error = %v, wantErr %v", err, tt.wantErr)
			}
			if view.Status() != tt.expected {
				t.Errorf("Status() = %q, want %q", view.Status(), tt.expected)
			}
		})
	}
}

func TestRegisterView_EmptyFieldsSubmitted(t *testing.T) {
	var got map[string]any
	mux := http.NewServeMux()
	mux.HandleFunc(faceapi.PathRegister, func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&got)
		w.Write([]byte(`{}`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()
	client, _ := faceapi.New(server.URL, nil)

	if err := NewRegisterView(client, nil).Submit(context.Background(), faceapi.RegisterRequest{}); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if got["email"] != "" || got["password"] != "" {
		t.Errorf("body = %v, want empty email and password", got)
	}
}

func TestLoginView_Success(t *testing.T) {
	client := setupMockServer(t, map[string]response{
		faceapi.PathLogin: {http.StatusOK, `{"access_token": "abc", "token_type": "bearer"}`},
	})
	path := filepath.Join(t.TempDir(), "session.yaml")
	store, err := session.Open(path)
	if err != nil {
		t.Fatalf("session.Open() error = %v", err)
	}
	alerts := &recordingAlerter{}
	view := NewLoginView(client, store, alerts, nil)

	if view.TokenStatus() != "Not logged in" || view.FaceCaptureAvailable() {
		t.Fatalf("fresh view: TokenStatus() = %q", view.TokenStatus())
	}

	if err := view.Submit(context.Background(), faceapi.Credentials{Email: "a@b.c", Password: "pw"}); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	if store.Token() != "abc" {
		t.Errorf("store token = %q, want abc", store.Token())
	}
	if view.TokenStatus() != "Received" {
		t.Errorf("TokenStatus() = %q, want Received", view.TokenStatus())
	}
	if !view.FaceCaptureAvailable() {
		t.Error("face capture should be available after login")
	}
	if len(alerts.messages) != 0 {
		t.Errorf("unexpected alerts: %v", alerts.messages)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("state file not written: %v", err)
	}
	if !strings.Contains(string(data), "access_token: abc") {
		t.Errorf("state file = %q", data)
	}
}

func TestLoginView_Failure(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		expected string
	}{
		{"detail", http.StatusUnauthorized, `{"detail": "Invalid credentials"}`, "Invalid credentials"},
		{"no detail", http.StatusInternalServerError, `{"message": "down"}`, "Login failed"},
		{"no token", http.StatusOK, `{"token_type": "bearer"}`, "Login failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := setupMockServer(t, map[string]response{
				faceapi.PathLogin: {tt.status, tt.body},
			})
			store := session.NewMemory()
			alerts := &recordingAlerter{}
			view := NewLoginView(client, store, alerts, nil)

			if err := view.Submit(context.Background(), faceapi.Credentials{}); err == nil {
				t.Error("expected error")
			}
			if store.Token() != "" {
				t.Errorf("failed login stored token %q", store.Token())
			}
			if len(alerts.messages) != 1 || alerts.messages[0] != tt.expected {
				t.Errorf("alerts = %v, want [%q]", alerts.messages, tt.expected)
			}
			if view.TokenStatus() != "Not logged in" {
				t.Errorf("TokenStatus() = %q", view.TokenStatus())
			}
		})
	}
}

func TestLoginView_FailureKeepsPreviousToken(t *testing.T) {
	client := setupMockServer(t, map[string]response{
		faceapi.PathLogin: {http.StatusUnauthorized, `{"detail": "nope"}`},
	})
	store := session.NewMemory()
	store.SetToken("old")

	var alerted string
	view := NewLoginView(client, store, AlertFunc(func(m string) { alerted = m }), nil)
	view.Submit(context.Background(), faceapi.Credentials{Email: "x", Password: "y"})

	if store.Token() != "old" {
		t.Errorf("token = %q, want old", store.Token())
	}
	if alerted != "nope" {
		t.Errorf("alert = %q, want nope", alerted)
	}
}

func TestPasswordResetView(t *testing.T) {
	client := setupMockServer(t, map[string]response{
		faceapi.PathPasswordResetRequest: {http.StatusOK, `{"status": "ok", "token": "reset-1"}`},
		faceapi.PathPasswordResetConfirm: {http.StatusOK, `{"status": "password updated"}`},
	})
	view := NewPasswordResetView(client, nil)

	if err := view.Request(context.Background(), "a@b.c"); err != nil {
		t.Fatalf("Request() error = %v", err)
	}
	if view.Status() != "ok" {
		t.Errorf("Status() = %q, want ok", view.Status())
	}
	if view.IssuedToken() != "reset-1" {
		t.Errorf("IssuedToken() = %q, want reset-1", view.IssuedToken())
	}

	if err := view.Confirm(context.Background(), view.IssuedToken(), "new-pw"); err != nil {
		t.Fatalf("Confirm() error = %v", err)
	}
	if view.Status() != "Password updated" {
		t.Errorf("Status() = %q, want Password updated", view.Status())
	}
	if view.IssuedToken() != "" {
		t.Errorf("IssuedToken() = %q after confirm, want empty", view.IssuedToken())
	}
}

func TestPasswordResetView_InvalidToken(t *testing.T) {
	client := setupMockServer(t, map[string]response{
		faceapi.PathPasswordResetConfirm: {http.StatusBadRequest, `{"detail": "Invalid or expired token"}`},
	})
	view := NewPasswordResetView(client, nil)

	if err := view.Confirm(context.Background(), "bad", "pw"); err == nil {
		t.Fatal("expected error")
	}
	if view.Status() != "Invalid or expired token" {
		t.Errorf("Status() = %q", view.Status())
	}
}
