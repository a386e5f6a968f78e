package identity

import (
	"encoding/json"
	"time"
)

// Event names a change of the current session.
type Event string

const (
	EventInitialSession   Event = "INITIAL_SESSION"
	EventSignedIn         Event = "SIGNED_IN"
	EventSignedOut        Event = "SIGNED_OUT"
	EventTokenRefreshed   Event = "TOKEN_REFRESHED"
	EventUserUpdated      Event = "USER_UPDATED"
	EventPasswordRecovery Event = "PASSWORD_RECOVERY"
)

// User is the identity record attached to a session.
// Username is taken from user_metadata.username.
type User struct {
	ID        string         `json:"id"`
	Email     string         `json:"email"`
	Username  string         `json:"-"`
	Metadata  map[string]any `json:"user_metadata,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

func (u *User) UnmarshalJSON(data []byte) error {
	type plain User
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*u = User(p)
	if name, ok := u.Metadata["username"].(string); ok {
		u.Username = name
	}
	return nil
}

// Session is the token bundle returned by sign-in, refresh and verify.
type Session struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	ExpiresAt    int64  `json:"expires_at,omitempty"`
	User         *User  `json:"user"`
}

// ExpiresWithin reports whether the access token expires before now+margin.
// A session with unknown expiry never expires.
func (s *Session) ExpiresWithin(now time.Time, margin time.Duration) bool {
	if s.ExpiresAt == 0 {
		return false
	}
	return !now.Add(margin).Before(time.Unix(s.ExpiresAt, 0))
}

// SignUpParams is the body of a sign-up request. Data becomes user_metadata.
type SignUpParams struct {
	Email    string         `json:"email"`
	Password string         `json:"password"`
	Data     map[string]any `json:"data,omitempty"`
}

// AuthResponse carries the result of a sign-up. Session is nil when the
// backend requires email confirmation before issuing tokens.
type AuthResponse struct {
	User    *User
	Session *Session
}

// OTPType selects the verification flow of VerifyOTP.
type OTPType string

const (
	OTPRecovery OTPType = "recovery"
	OTPSignup   OTPType = "signup"
	OTPEmail    OTPType = "email"
)

type VerifyParams struct {
	Email string  `json:"email"`
	Token string  `json:"token"`
	Type  OTPType `json:"type"`
}

// UserAttributes is the body of an update-user request.
type UserAttributes struct {
	Email    string         `json:"email,omitempty"`
	Password string         `json:"password,omitempty"`
	Data     map[string]any `json:"data,omitempty"`
}
