package auth

import (
	"errors"
	"fmt"
	"testing"

	"github.com/dmitrijs2005/gophsession/internal/client/identity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateUsername(t *testing.T) {
	for _, ok := range []string{"abc", "gopher_42", "ABCDEFGHIJKLMNOPQRST"} {
		assert.NoError(t, validateUsername(ok), ok)
	}
	for _, bad := range []string{"", "ab", "with space", "dash-ed", "ümlaut", "ABCDEFGHIJKLMNOPQRSTU"} {
		err := validateUsername(bad)
		var v *ValidationError
		require.ErrorAs(t, err, &v, bad)
		assert.Equal(t, msgInvalidUsername, v.Message)
	}
}

func TestValidatePasswords(t *testing.T) {
	assert.NoError(t, validatePasswords("a", ""))
	assert.NoError(t, validatePasswords("a", "a"))
	assert.EqualError(t, validatePasswords("a", "b"), msgPasswordMismatch)
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "user@example.com", normalizeEmail("  USER@Example.com\t"))
}

func TestNormalizeOTP(t *testing.T) {
	code, err := normalizeOTP(" 123-456 ")
	require.NoError(t, err)
	assert.Equal(t, "123456", code)

	for _, bad := range []string{"", "12345", "1234567", "abc123"} {
		_, err := normalizeOTP(bad)
		assert.EqualError(t, err, msgInvalidOTP, bad)
	}
}

func TestMessageFor(t *testing.T) {
	apiErr := &identity.APIError{Status: 400, Message: "Invalid login credentials"}

	assert.Equal(t, "Invalid login credentials", messageFor(apiErr, "default"))
	assert.Equal(t, "Invalid login credentials", messageFor(fmt.Errorf("wrapped: %w", apiErr), "default"))
	assert.Equal(t, msgUsernameTaken, messageFor(invalid(msgUsernameTaken), "default"))
	assert.Equal(t, "default", messageFor(errors.New("io"), "default"))
	assert.Equal(t, "default", messageFor(&identity.APIError{Status: 500}, "default"))
}
