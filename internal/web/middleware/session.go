package middleware

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"
)

const (
	sessionCookieName  = "face_quiz_session"
	sessionIdleTimeout = 30 * time.Minute
	cleanupInterval    = 5 * time.Minute
)

// Session is one browser's set of views. State is created by the manager's
// factory and closed when the session expires or the manager stops.
// ExpiresAt moves forward on every use.
type Session struct {
	ID        string
	State     io.Closer
	CreatedAt time.Time
	ExpiresAt time.Time
}

// SessionManager hands out cookie-identified sessions and expires idle ones.
type SessionManager struct {
	secret   []byte
	newState func() io.Closer
	logger   hclog.Logger
	sessions map[string]*Session
	mu       sync.RWMutex
	now      func() time.Time

	stop     chan struct{}
	stopOnce sync.Once
}

// NewSessionManager creates a session manager. newState builds the per-session
// state; it must not be nil.
func NewSessionManager(secret string, newState func() io.Closer, logger hclog.Logger) *SessionManager {
	// Use a default secret if none provided (for development)
	if secret == "" {
		secret = "face-quiz-dev-secret-change-in-production"
	}
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &SessionManager{
		secret:   []byte(secret),
		newState: newState,
		logger:   logger,
		sessions: make(map[string]*Session),
		now:      time.Now,
		stop:     make(chan struct{}),
	}
}

// CreateSession creates a new session with fresh state.
func (sm *SessionManager) CreateSession() *Session {
	now := sm.now()
	session := &Session{
		ID:        uuid.NewString(),
		State:     sm.newState(),
		CreatedAt: now,
		ExpiresAt: now.Add(sessionIdleTimeout),
	}

	sm.mu.Lock()
	sm.sessions[session.ID] = session
	sm.mu.Unlock()

	sm.logger.Debug("view session created", "session", session.ID)
	return session
}

// GetSession retrieves a live session by ID and extends its idle deadline.
func (sm *SessionManager) GetSession(sessionID string) *Session {
	now := sm.now()

	sm.mu.Lock()
	session, ok := sm.sessions[sessionID]
	if !ok {
		sm.mu.Unlock()
		return nil
	}
	if now.After(session.ExpiresAt) {
		delete(sm.sessions, sessionID)
		sm.mu.Unlock()
		sm.closeState(session)
		return nil
	}
	session.ExpiresAt = now.Add(sessionIdleTimeout)
	sm.mu.Unlock()
	return session
}

// DeleteSession removes a session and closes its state.
func (sm *SessionManager) DeleteSession(sessionID string) {
	sm.mu.Lock()
	session, ok := sm.sessions[sessionID]
	delete(sm.sessions, sessionID)
	sm.mu.Unlock()

	if ok {
		sm.closeState(session)
	}
}

// Count returns the number of sessions held.
func (sm *SessionManager) Count() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.sessions)
}

func (sm *SessionManager) closeState(session *Session) {
	if session.State == nil {
		return
	}
	if err := session.State.Close(); err != nil {
		sm.logger.Warn("closing view session failed", "session", session.ID, "error", err)
	}
}

// Cleanup removes expired sessions.
func (sm *SessionManager) Cleanup() {
	now := sm.now()
	var expired []*Session

	sm.mu.Lock()
	for id, session := range sm.sessions {
		if now.After(session.ExpiresAt) {
			expired = append(expired, session)
			delete(sm.sessions, id)
		}
	}
	sm.mu.Unlock()

	for _, session := range expired {
		sm.closeState(session)
	}
	if len(expired) > 0 {
		sm.logger.Debug("expired view sessions removed", "count", len(expired))
	}
}

// StartCleanup runs Cleanup periodically until Stop is called.
func (sm *SessionManager) StartCleanup() {
	go func() {
		ticker := time.NewTicker(cleanupInterval)
		defer ticker.Stop()
		for {
			select {
			case <-sm.stop:
				return
			case <-ticker.C:
				sm.Cleanup()
			}
		}
	}()
}

// Stop ends the cleanup loop and closes every session's state.
func (sm *SessionManager) Stop() {
	sm.stopOnce.Do(func() {
		close(sm.stop)

		sm.mu.Lock()
		sessions := sm.sessions
		sm.sessions = make(map[string]*Session)
		sm.mu.Unlock()

		for _, session := range sessions {
			sm.closeState(session)
		}
	})
}

// SetSessionCookie sets the session cookie on the response
func (sm *SessionManager) SetSessionCookie(w http.ResponseWriter, session *Session) {
	// Sign the session ID
	signature := sm.signData(session.ID)
	cookieValue := session.ID + "." + signature

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    cookieValue,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
}

// GetSessionFromRequest extracts the session from the signed cookie.
func (sm *SessionManager) GetSessionFromRequest(r *http.Request) *Session {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil {
		return nil
	}
	sessionID, signature, ok := strings.Cut(cookie.Value, ".")
	if !ok || !sm.verifySignature(sessionID, signature) {
		return nil
	}
	return sm.GetSession(sessionID)
}

// signData creates an HMAC signature for data
func (sm *SessionManager) signData(data string) string {
	h := hmac.New(sha256.New, sm.secret)
	h.Write([]byte(data))
	return base64.URLEncoding.EncodeToString(h.Sum(nil))
}

// verifySignature verifies an HMAC signature
func (sm *SessionManager) verifySignature(data, signature string) bool {
	expected := sm.signData(data)
	return hmac.Equal([]byte(signature), []byte(expected))
}
