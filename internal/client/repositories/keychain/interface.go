package keychain

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/dmitrijs2005/gophsession/internal/common"
)

// MaxValueSize is the largest value, in bytes, a keychain accepts.
const MaxValueSize = common.SecureStoreValueLimit

var (
	ErrValueTooLarge = errors.New("keychain value too large")
	ErrInvalidKey    = errors.New("invalid keychain key")
	ErrDeviceLocked  = errors.New("device passphrase does not match")
)

// Repository is a small, size-constrained secure key/value store.
// GetItem returns ok=false with a nil error when the key is absent.
type Repository interface {
	SetItem(ctx context.Context, key, value string) error
	GetItem(ctx context.Context, key string) (value string, ok bool, err error)
	DeleteItem(ctx context.Context, key string) error
}

var keyPattern = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

func validateKey(key string) error {
	if !keyPattern.MatchString(key) {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return nil
}

func validateValue(key, value string) error {
	if len(value) > MaxValueSize {
		return fmt.Errorf("%w: %s is %d bytes, limit %d", ErrValueTooLarge, key, len(value), MaxValueSize)
	}
	return nil
}
