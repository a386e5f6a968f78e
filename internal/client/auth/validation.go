package auth

import (
	"errors"
	"regexp"
	"strings"

	"github.com/dmitrijs2005/gophsession/internal/client/identity"
)

const (
	msgSignUpFailed     = "An error occurred during sign up"
	msgSignInFailed     = "An error occurred during sign in"
	msgSignOutFailed    = "An error occurred during sign out"
	msgResetFailed      = "An error occurred while requesting a password reset"
	msgInvalidOTP       = "Invalid OTP"
	msgUpdateFailed     = "An error occurred while updating the password"
	msgRestoreFailed    = "An error occurred while restoring the session"
	msgInvalidUsername  = "Username must be 3-20 characters long and contain only letters, numbers, and underscores"
	msgUsernameTaken    = "Username already taken"
	msgPasswordMismatch = "Passwords do not match"
	msgFlowExpired      = "Password reset session expired"
	msgCodeNotVerified  = "Verify the reset code before choosing a new password"
	otpLength           = 6
)

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_]{3,20}$`)

// ValidationError is a precondition failure detected before any network call.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func invalid(msg string) error { return &ValidationError{Message: msg} }

func validateUsername(username string) error {
	if !usernamePattern.MatchString(username) {
		return invalid(msgInvalidUsername)
	}
	return nil
}

func validatePasswords(password, confirm string) error {
	if confirm != "" && confirm != password {
		return invalid(msgPasswordMismatch)
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// normalizeOTP drops everything but digits and requires otpLength of them.
func normalizeOTP(code string) (string, error) {
	var b strings.Builder
	for _, r := range code {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	if b.Len() != otpLength {
		return "", invalid(msgInvalidOTP)
	}
	return b.String(), nil
}

// messageFor reduces err to the text stored in State.Error: the validation
// or backend message when there is one, def otherwise.
func messageFor(err error, def string) string {
	var v *ValidationError
	if errors.As(err, &v) {
		return v.Message
	}
	var apiErr *identity.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return def
}
