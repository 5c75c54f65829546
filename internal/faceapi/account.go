package faceapi

import (
	"context"
	"encoding/json"
	"errors"
)

// Register creates an account. Any 2xx body is accepted; the returned User
// is zero when the body does not describe one.
func (c *Client) Register(ctx context.Context, in RegisterRequest) (*User, error) {
	req, err := jsonRequest("register", PathRegister, false, in)
	if err != nil {
		return nil, err
	}
	body, err := c.do(ctx, req)
	if err != nil {
		return nil, err
	}

	var user User
	_ = json.Unmarshal(body, &user)
	return &user, nil
}

// Login exchanges credentials for an access token.
func (c *Client) Login(ctx context.Context, creds Credentials) (*Token, error) {
	req, err := jsonRequest("login", PathLogin, false, creds)
	if err != nil {
		return nil, err
	}
	token, err := doJSON[Token](ctx, c, req)
	if err != nil {
		return nil, err
	}
	if token.AccessToken == "" {
		return nil, errors.New("login response carried no access token")
	}
	return token, nil
}

// RequestPasswordReset asks the API to issue a reset token for email.
func (c *Client) RequestPasswordReset(ctx context.Context, email string) (*ResetTicket, error) {
	req, err := jsonRequest("password_reset_request", PathPasswordResetRequest, false, map[string]string{
		"email": email,
	})
	if err != nil {
		return nil, err
	}
	return doJSON[ResetTicket](ctx, c, req)
}

// ConfirmPasswordReset sets a new password using a reset token.
func (c *Client) ConfirmPasswordReset(ctx context.Context, token, newPassword string) error {
	req, err := jsonRequest("password_reset_confirm", PathPasswordResetConfirm, false, map[string]string{
		"token":        token,
		"new_password": newPassword,
	})
	if err != nil {
		return err
	}
	_, err = c.do(ctx, req)
	return err
}
