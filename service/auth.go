package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/getkayan/medgas/client"
	"github.com/getkayan/medgas/domain"
	"github.com/getkayan/medgas/logger"
	"github.com/getkayan/medgas/session"
	"go.uber.org/zap"
)

// LoginResult is the backend's answer to a successful login.
type LoginResult struct {
	AccessToken string      `json:"access_token"`
	TokenType   string      `json:"token_type"`
	Usuario     domain.User `json:"usuario"`
}

// AuthService owns every transition of the session store except the 401
// teardown, which belongs to the client pipeline.
type AuthService struct {
	c     *client.Client
	store *session.Store
}

// Login exchanges form-encoded credentials for a token and stores the
// session. It is the only call that writes a session.
func (a *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	form := url.Values{}
	form.Set("username", email)
	form.Set("password", password)

	var res LoginResult
	err := a.c.Call(ctx, &client.Request{Method: http.MethodPost, Path: "/auth/login", Form: form}, &res)
	if err != nil {
		return nil, err
	}
	if res.AccessToken == "" {
		return nil, fmt.Errorf("service: login response carried no access token")
	}

	user := res.Usuario
	if err := a.store.Set(ctx, session.Session{Token: res.AccessToken, User: &user}); err != nil {
		return nil, err
	}

	logger.Log.Info("logged in", zap.Int("user_id", user.ID), zap.String("role", string(user.Rol)))
	return &res, nil
}

// Logout notifies the server and then clears the local session whatever the
// server answered. A 401 means the server already considers the session
// gone, so it is not reported.
func (a *AuthService) Logout(ctx context.Context) error {
	callErr := a.c.Post(ctx, "/auth/logout", nil, nil, nil)
	if errors.Is(callErr, client.ErrSessionInvalidated) {
		callErr = nil
	}
	if callErr != nil {
		logger.Log.Warn("server logout failed, clearing local session anyway", zap.Error(callErr))
	}

	return errors.Join(callErr, a.store.Clear(ctx))
}

func (a *AuthService) RecoverPassword(ctx context.Context, email string) (*Message, error) {
	var msg Message
	if err := a.c.Post(ctx, "/auth/recuperar-password", map[string]string{"email": email}, nil, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// ResetPassword completes a recovery and ends any local session.
func (a *AuthService) ResetPassword(ctx context.Context, token, newPassword string) (*Message, error) {
	body := map[string]string{"token": token, "new_password": newPassword}

	var msg Message
	if err := a.c.Post(ctx, "/auth/reset-password", body, nil, &msg); err != nil {
		return nil, err
	}
	if err := a.store.Clear(ctx); err != nil {
		return &msg, err
	}
	return &msg, nil
}
