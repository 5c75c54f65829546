// Package account implements the registration, login and password reset views.
package account

import (
	"context"
	"sync"

	"github.com/hashicorp/go-hclog"
	"github.com/kozaktomas/face-quiz/internal/faceapi"
	"github.com/kozaktomas/face-quiz/internal/logging"
	"github.com/kozaktomas/face-quiz/internal/session"
)

// Status texts.
const (
	StatusRegistered      = "Registered successfully"
	StatusRegisterFailed  = "Error"
	StatusLoginFailed     = "Login failed"
	StatusPasswordUpdated = "Password updated"
	TokenReceived         = "Received"
	TokenMissing          = "Not logged in"
)

// Registrar creates accounts.
type Registrar interface {
	Register(ctx context.Context, in faceapi.RegisterRequest) (*faceapi.User, error)
}

// Authenticator exchanges credentials for a token.
type Authenticator interface {
	Login(ctx context.Context, creds faceapi.Credentials) (*faceapi.Token, error)
}

// PasswordResetter drives the reset-token flow.
type PasswordResetter interface {
	RequestPasswordReset(ctx context.Context, email string) (*faceapi.ResetTicket, error)
	ConfirmPasswordReset(ctx context.Context, token, newPassword string) error
}

// Alerter shows a blocking message to the user.
type Alerter interface {
	Alert(message string)
}

// AlertFunc adapts a function to Alerter.
type AlertFunc func(message string)

// Alert implements Alerter.
func (f AlertFunc) Alert(message string) { f(message) }

// TokenStore is the part of the session store the login view needs.
type TokenStore interface {
	session.Reader
	session.Writer
}

// failureMessage returns the server detail, or fallback when there is none.
func failureMessage(err error, fallback string) string {
	if apiErr, ok := faceapi.AsAPIError(err); ok && apiErr.Detail != "" {
		return apiErr.Detail
	}
	return fallback
}

// RegisterView submits registrations. No client-side validation is done.
type RegisterView struct {
	api    Registrar
	logger hclog.Logger

	mu     sync.Mutex
	status string
}

// NewRegisterView creates the view.
func NewRegisterView(api Registrar, logger hclog.Logger) *RegisterView {
	return &RegisterView{api: api, logger: logging.OrNull(logger).Named("register")}
}

// Submit registers the account; FullName is optional.
func (v *RegisterView) Submit(ctx context.Context, in faceapi.RegisterRequest) error {
	_, err := v.api.Register(ctx, in)

	v.mu.Lock()
	defer v.mu.Unlock()
	if err != nil {
		v.status = failureMessage(err, StatusRegisterFailed)
		v.logger.Info("registration failed", "email", in.Email, "error", err)
		return err
	}
	v.status = StatusRegistered
	v.logger.Info("account registered", "email", in.Email)
	return nil
}

// Status returns the last outcome, empty before the first submission.
func (v *RegisterView) Status() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.status
}

// LoginView submits credentials and is the only writer of the session token.
type LoginView struct {
	api    Authenticator
	store  TokenStore
	alert  Alerter
	logger hclog.Logger
}

// NewLoginView creates the view. Failures are reported through alert.
func NewLoginView(api Authenticator, store TokenStore, alert Alerter, logger hclog.Logger) *LoginView {
	return &LoginView{
		api:    api,
		store:  store,
		alert:  alert,
		logger: logging.OrNull(logger).Named("login"),
	}
}

// Submit logs in. On success the token is written to the store; on failure
// the store is left untouched and the user is alerted.
func (v *LoginView) Submit(ctx context.Context, creds faceapi.Credentials) error {
	token, err := v.api.Login(ctx, creds)
	if err != nil {
		v.logger.Info("login failed", "email", creds.Email, "error", err)
		v.alert.Alert(failureMessage(err, StatusLoginFailed))
		return err
	}

	if err := v.store.SetToken(token.AccessToken); err != nil {
		v.logger.Error("could not store token", "error", err)
		v.alert.Alert(StatusLoginFailed + ": " + err.Error())
		return err
	}
	v.logger.Info("logged in", "email", creds.Email, "token_type", token.TokenType)
	return nil
}

// TokenStatus returns Received when a token is held, else Not logged in.
func (v *LoginView) TokenStatus() string {
	if v.store.Token() != "" {
		return TokenReceived
	}
	return TokenMissing
}

// FaceCaptureAvailable reports whether the face capture view should be shown.
func (v *LoginView) FaceCaptureAvailable() bool {
	return v.store.Token() != ""
}

// PasswordResetView requests reset tokens and sets new passwords.
type PasswordResetView struct {
	api    PasswordResetter
	logger hclog.Logger

	mu     sync.Mutex
	status string
	token  string
}

// NewPasswordResetView creates the view.
func NewPasswordResetView(api PasswordResetter, logger hclog.Logger) *PasswordResetView {
	return &PasswordResetView{api: api, logger: logging.OrNull(logger).Named("password-reset")}
}

// Request asks for a reset token. Demo deployments echo the token back;
// it is then available from IssuedToken.
func (v *PasswordResetView) Request(ctx context.Context, email string) error {
	ticket, err := v.api.RequestPasswordReset(ctx, email)

	v.mu.Lock()
	defer v.mu.Unlock()
	if err != nil {
		v.status = failureMessage(err, StatusRegisterFailed)
		v.token = ""
		return err
	}
	v.status = ticket.Status
	v.token = ticket.Token
	v.logger.Info("password reset requested", "email", email)
	return nil
}

// Confirm sets newPassword using a reset token.
func (v *PasswordResetView) Confirm(ctx context.Context, token, newPassword string) error {
	err := v.api.ConfirmPasswordReset(ctx, token, newPassword)

	v.mu.Lock()
	defer v.mu.Unlock()
	if err != nil {
		v.status = failureMessage(err, StatusRegisterFailed)
		return err
	}
	v.status = StatusPasswordUpdated
	v.token = ""
	return nil
}

// Status returns the last outcome.
func (v *PasswordResetView) Status() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.status
}

// IssuedToken returns the reset token echoed by the last request, if any.
func (v *PasswordResetView) IssuedToken() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.token
}
