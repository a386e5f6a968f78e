package auth

import (
	"github.com/dmitrijs2005/gophsession/internal/client/identity"
	"github.com/google/uuid"
)

// FlowStage is the progress of a password reset.
type FlowStage int

const (
	FlowCodeSent FlowStage = iota + 1
	FlowCodeVerified
)

func (s FlowStage) String() string {
	switch s {
	case FlowCodeSent:
		return "code-sent"
	case FlowCodeVerified:
		return "code-verified"
	}
	return "unknown"
}

// ResetFlow identifies one password-reset attempt.
type ResetFlow struct {
	ID    uuid.UUID
	Email string
	Stage FlowStage
}

// State is an immutable snapshot of the authentication state.
// IsAuthenticated always equals Session != nil once loading has finished.
type State struct {
	IsAuthenticated bool
	IsLoading       bool
	User            *identity.User
	Session         *identity.Session
	// Error is empty when the last operation succeeded.
	Error   string
	Flow    *ResetFlow
	Version uint64
}

// InitialState is the state before the persisted session is restored.
func InitialState() State {
	return State{IsLoading: true}
}

// UpdatingPassword reports whether a verified reset flow is waiting for
// the new password.
func (s State) UpdatingPassword() bool {
	return s.Flow != nil && s.Flow.Stage == FlowCodeVerified
}

// Credentials is the input of Register.
type Credentials struct {
	Username        string
	Email           string
	Password        string
	ConfirmPassword string
}

func (s *State) setSession(session *identity.Session) {
	s.Session = session
	s.User = nil
	if session != nil {
		s.User = session.User
	}
	s.IsAuthenticated = session != nil
}
