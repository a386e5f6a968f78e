package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
)

const (
	pathSignUp  = "/auth/v1/signup"
	pathToken   = "/auth/v1/token"
	pathLogout  = "/auth/v1/logout"
	pathRecover = "/auth/v1/recover"
	pathVerify  = "/auth/v1/verify"
	pathUser    = "/auth/v1/user"
)

func grant(kind string) url.Values {
	return url.Values{"grant_type": {kind}}
}

// SignUp creates an account. When the backend confirms immediately the
// returned session becomes current and SIGNED_IN is emitted.
func (c *Client) SignUp(ctx context.Context, params SignUpParams) (*AuthResponse, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodPost, pathSignUp, nil, "", params, &raw); err != nil {
		return nil, err
	}

	var probe struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	if probe.AccessToken == "" {
		var user User
		if err := json.Unmarshal(raw, &user); err != nil {
			return nil, fmt.Errorf("decoding response: %w", err)
		}
		return &AuthResponse{User: &user}, nil
	}

	var session Session
	if err := json.Unmarshal(raw, &session); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	if err := c.setSession(ctx, &session, EventSignedIn); err != nil {
		return nil, err
	}
	return &AuthResponse{User: session.User, Session: &session}, nil
}

func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*Session, error) {
	body := map[string]string{"email": email, "password": password}

	var session Session
	if err := c.do(ctx, http.MethodPost, pathToken, grant("password"), "", body, &session); err != nil {
		return nil, err
	}
	if err := c.setSession(ctx, &session, EventSignedIn); err != nil {
		return nil, err
	}
	return &session, nil
}

// RefreshSession exchanges the current refresh token for a new session.
func (c *Client) RefreshSession(ctx context.Context) (*Session, error) {
	current := c.currentSession()
	if current == nil || current.RefreshToken == "" {
		return nil, ErrNoSession
	}
	return c.refresh(ctx, current.RefreshToken)
}

func (c *Client) refresh(ctx context.Context, refreshToken string) (*Session, error) {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	c.mu.Lock()
	current, gen := c.session, c.gen
	c.mu.Unlock()

	if current == nil {
		return nil, ErrNoSession
	}
	// another caller may have refreshed while we waited
	if current.RefreshToken != refreshToken {
		return current, nil
	}

	body := map[string]string{"refresh_token": refreshToken}

	var session Session
	if err := c.do(ctx, http.MethodPost, pathToken, grant("refresh_token"), "", body, &session); err != nil {
		return nil, err
	}

	c.fillExpiry(&session)
	ok, err := c.commit(ctx, &session, EventTokenRefreshed, &gen)
	if err != nil {
		return nil, err
	}
	if !ok {
		// signed out or replaced during the request
		if current := c.currentSession(); current != nil {
			return current, nil
		}
		return nil, ErrNoSession
	}
	return &session, nil
}

// SignOut revokes the current session and forgets it locally. A session
// the backend no longer recognizes is forgotten as well. Any other failure
// leaves the current session in place.
func (c *Client) SignOut(ctx context.Context) error {
	if current := c.currentSession(); current != nil {
		err := c.do(ctx, http.MethodPost, pathLogout, url.Values{"scope": {"global"}}, current.AccessToken, nil, nil)
		if err != nil && !isStaleSession(err) {
			return err
		}
	}
	return c.clearSession(ctx)
}

func isStaleSession(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	switch apiErr.Status {
	case http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound:
		return true
	}
	return false
}

// ResetPasswordForEmail asks the backend to email a recovery code.
func (c *Client) ResetPasswordForEmail(ctx context.Context, email string) error {
	body := map[string]string{"email": email}
	return c.do(ctx, http.MethodPost, pathRecover, nil, "", body, nil)
}

// VerifyOTP exchanges a one-time code for a session, which becomes current.
func (c *Client) VerifyOTP(ctx context.Context, params VerifyParams) (*Session, error) {
	var session Session
	if err := c.do(ctx, http.MethodPost, pathVerify, nil, "", params, &session); err != nil {
		return nil, err
	}
	if err := c.setSession(ctx, &session, EventSignedIn); err != nil {
		return nil, err
	}
	return &session, nil
}

// UpdateUser changes attributes of the signed-in user.
func (c *Client) UpdateUser(ctx context.Context, attrs UserAttributes) (*User, error) {
	current := c.currentSession()
	if current == nil {
		return nil, ErrNoSession
	}

	var user User
	if err := c.do(ctx, http.MethodPut, pathUser, nil, current.AccessToken, attrs, &user); err != nil {
		return nil, err
	}

	updated := *current
	updated.User = &user
	if err := c.setSession(ctx, &updated, EventUserUpdated); err != nil {
		return nil, err
	}
	return &user, nil
}
