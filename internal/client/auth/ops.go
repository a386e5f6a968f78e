package auth

import (
	"context"

	"github.com/dmitrijs2005/gophsession/internal/client/identity"
	"github.com/dmitrijs2005/gophsession/internal/client/navigation"
)

// begin marks an operation as running and clears the previous error.
func (m *Manager) begin() {
	m.publish(func(s *State) {
		s.IsLoading = true
		s.Error = ""
	})
}

// fail ends an operation with an error message.
func (m *Manager) fail(ctx context.Context, op string, err error, def string) {
	msg := messageFor(err, def)
	m.log.Warn(ctx, "operation failed", "op", op, "error", err)
	m.publish(func(s *State) {
		s.IsLoading = false
		s.Error = msg
	})
}

// Register validates the input, checks the username is free and signs up.
func (m *Manager) Register(ctx context.Context, creds Credentials) State {
	return m.submit(ctx, "register", func(ctx context.Context) {
		m.begin()

		if err := validateUsername(creds.Username); err != nil {
			m.fail(ctx, "register", err, msgSignUpFailed)
			return
		}
		if err := validatePasswords(creds.Password, creds.ConfirmPassword); err != nil {
			m.fail(ctx, "register", err, msgSignUpFailed)
			return
		}

		if m.dir != nil {
			taken, err := m.dir.UsernameTaken(ctx, creds.Username)
			if err != nil {
				m.log.Warn(ctx, "username lookup failed, continuing", "username", creds.Username, "error", err)
			}
			if taken {
				m.fail(ctx, "register", invalid(msgUsernameTaken), msgSignUpFailed)
				return
			}
		}

		resp, err := m.backend.SignUp(ctx, identity.SignUpParams{
			Email:    normalizeEmail(creds.Email),
			Password: creds.Password,
			Data: map[string]any{
				"username":   creds.Username,
				"bio":        "",
				"avatar_url": "",
			},
		})
		if err != nil {
			m.fail(ctx, "register", err, msgSignUpFailed)
			return
		}

		m.publish(func(s *State) {
			s.setSession(resp.Session)
			s.User = resp.User
			s.Flow = nil
			s.IsLoading = false
		})
	})
}

func (m *Manager) SignIn(ctx context.Context, email, password string) State {
	return m.submit(ctx, "sign-in", func(ctx context.Context) {
		m.begin()

		session, err := m.backend.SignInWithPassword(ctx, normalizeEmail(email), password)
		if err != nil {
			m.fail(ctx, "sign-in", err, msgSignInFailed)
			return
		}

		m.publish(func(s *State) {
			s.setSession(session)
			s.Flow = nil
			s.IsLoading = false
		})
	})
}

// SignOut ends the session. On failure the session is left untouched.
func (m *Manager) SignOut(ctx context.Context) State {
	return m.submit(ctx, "sign-out", func(ctx context.Context) {
		m.begin()

		if err := m.backend.SignOut(ctx); err != nil {
			m.fail(ctx, "sign-out", err, msgSignOutFailed)
			return
		}

		m.publish(func(s *State) {
			s.setSession(nil)
			s.Flow = nil
			s.IsLoading = false
		})
	})
}

// RequestPasswordReset emails a one-time code and starts a new ResetFlow,
// replacing any earlier one.
func (m *Manager) RequestPasswordReset(ctx context.Context, email string) State {
	return m.submit(ctx, "reset-password", func(ctx context.Context) {
		m.begin()

		email := normalizeEmail(email)
		if err := m.backend.ResetPasswordForEmail(ctx, email); err != nil {
			m.fail(ctx, "reset-password", err, msgResetFailed)
			return
		}

		flow := &ResetFlow{ID: m.newFlowID(), Email: email, Stage: FlowCodeSent}
		if _, ok := m.publish(func(s *State) {
			s.Flow = flow
			s.IsLoading = false
		}); ok {
			m.nav.Push(navigation.RouteVerifyOTP, map[string]string{"email": email})
		}
	})
}

// VerifyOneTimeCode checks the emailed code for flow. On success the flow
// advances to FlowCodeVerified and the backend's SIGNED_IN notification
// routes to the update-password screen.
func (m *Manager) VerifyOneTimeCode(ctx context.Context, flow ResetFlow, code string) State {
	return m.submit(ctx, "verify-otp", func(ctx context.Context) {
		current := m.store.get().Flow
		m.begin()

		if current == nil || current.ID != flow.ID {
			m.fail(ctx, "verify-otp", invalid(msgFlowExpired), msgInvalidOTP)
			return
		}
		token, err := normalizeOTP(code)
		if err != nil {
			m.fail(ctx, "verify-otp", err, msgInvalidOTP)
			return
		}

		session, err := m.backend.VerifyOTP(ctx, identity.VerifyParams{
			Email: current.Email,
			Token: token,
			Type:  identity.OTPRecovery,
		})
		if err != nil {
			m.fail(ctx, "verify-otp", err, msgInvalidOTP)
			return
		}

		// SIGNED_IN from the backend is queued behind this command and
		// sees the verified stage.
		verified := &ResetFlow{ID: current.ID, Email: current.Email, Stage: FlowCodeVerified}
		m.publish(func(s *State) {
			s.setSession(session)
			s.Flow = verified
			s.IsLoading = false
		})
	})
}

// UpdatePassword sets the new password for a verified flow, ends the
// recovery session and returns to the sign-in screen.
func (m *Manager) UpdatePassword(ctx context.Context, flow ResetFlow, newPassword string) State {
	return m.submit(ctx, "update-password", func(ctx context.Context) {
		current := m.store.get().Flow
		m.begin()

		if current == nil || current.ID != flow.ID {
			m.fail(ctx, "update-password", invalid(msgFlowExpired), msgUpdateFailed)
			return
		}
		if current.Stage != FlowCodeVerified {
			m.fail(ctx, "update-password", invalid(msgCodeNotVerified), msgUpdateFailed)
			return
		}

		if _, err := m.backend.UpdateUser(ctx, identity.UserAttributes{Password: newPassword}); err != nil {
			m.fail(ctx, "update-password", err, msgUpdateFailed)
			return
		}

		if _, ok := m.publish(func(s *State) { s.Flow = nil }); !ok {
			return
		}

		if err := m.backend.SignOut(ctx); err != nil {
			m.log.Warn(ctx, "ending recovery session failed", "error", err)
		} else {
			m.publish(func(s *State) { s.setSession(nil) })
		}

		if _, ok := m.publish(func(s *State) { s.IsLoading = false }); ok {
			m.nav.Replace(navigation.RouteSignIn)
		}
	})
}

// ClearError drops the current error message.
func (m *Manager) ClearError(ctx context.Context) State {
	return m.submit(ctx, "clear-error", func(context.Context) {
		m.publish(func(s *State) { s.Error = "" })
	})
}
