// Package securestore persists string values by splitting each one into a
// per-write AES-256 key, kept in a size-constrained keychain, and the
// AES-CTR ciphertext, kept in an unconstrained blob store.
//
// Both halves are stored hex-encoded under the same key. A value is only
// readable while both halves exist.
package securestore

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophsession/internal/client/repositories/blobs"
	"github.com/dmitrijs2005/gophsession/internal/client/repositories/keychain"
	"github.com/dmitrijs2005/gophsession/internal/common"
	"github.com/dmitrijs2005/gophsession/internal/cryptox"
	"github.com/dmitrijs2005/gophsession/internal/logging"
	"go.uber.org/multierr"
)

// ErrCorrupted is returned when a stored key or ciphertext cannot be decoded.
var ErrCorrupted = errors.New("stored value is corrupted")

// Store is safe for concurrent use as long as the underlying repositories are.
type Store struct {
	keys    keychain.Repository
	blobs   blobs.Repository
	log     logging.Logger
	metrics bool

	// newKey is swapped in tests to observe key regeneration.
	newKey func() ([]byte, error)
}

type Option func(*Store)

// WithMetrics enables debug-level storage metrics after every encrypt and decrypt.
func WithMetrics(enabled bool) Option {
	return func(s *Store) { s.metrics = enabled }
}

func NewStore(keys keychain.Repository, blobStore blobs.Repository, log logging.Logger, opts ...Option) *Store {
	s := &Store{
		keys:   keys,
		blobs:  blobStore,
		log:    log,
		newKey: cryptox.GenerateSessionKey,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// GetItem returns ok=false when either half is missing.
func (s *Store) GetItem(ctx context.Context, key string) (string, bool, error) {
	cipherHex, ok, err := s.blobs.GetItem(ctx, key)
	if err != nil {
		return "", false, fmt.Errorf("reading ciphertext: %w", err)
	}
	if !ok {
		return "", false, nil
	}

	keyHex, ok, err := s.keys.GetItem(ctx, key)
	if err != nil {
		return "", false, fmt.Errorf("reading encryption key: %w", err)
	}
	if !ok {
		s.log.Warn(ctx, "encryption key missing, treating value as absent", "key", key)
		return "", false, nil
	}

	encKey, err := hex.DecodeString(keyHex)
	if err != nil {
		return "", false, fmt.Errorf("%w: key %s: %v", ErrCorrupted, key, err)
	}
	defer common.WipeByteArray(encKey)

	plain, err := cryptox.DecryptCTR(encKey, cipherHex)
	if err != nil {
		return "", false, fmt.Errorf("%w: key %s: %v", ErrCorrupted, key, err)
	}

	s.logMetrics(ctx, key, plain, keyHex, cipherHex)
	return plain, true, nil
}

// SetItem encrypts value under a freshly generated key. The key is written
// before the ciphertext, so a failed second write leaves the value absent.
func (s *Store) SetItem(ctx context.Context, key, value string) error {
	encKey, err := s.newKey()
	if err != nil {
		return err
	}
	defer common.WipeByteArray(encKey)

	cipherHex, err := cryptox.EncryptCTR(encKey, value)
	if err != nil {
		return fmt.Errorf("encrypting %s: %w", key, err)
	}

	keyHex := hex.EncodeToString(encKey)
	if err := s.keys.SetItem(ctx, key, keyHex); err != nil {
		return fmt.Errorf("writing encryption key: %w", err)
	}
	if err := s.blobs.SetItem(ctx, key, cipherHex); err != nil {
		return fmt.Errorf("writing ciphertext: %w", err)
	}

	s.logMetrics(ctx, key, value, keyHex, cipherHex)
	return nil
}

// RemoveItem attempts both deletions and reports every failure.
func (s *Store) RemoveItem(ctx context.Context, key string) error {
	var err error
	if kerr := s.keys.DeleteItem(ctx, key); kerr != nil {
		err = multierr.Append(err, fmt.Errorf("deleting encryption key: %w", kerr))
	}
	if berr := s.blobs.RemoveItem(ctx, key); berr != nil {
		err = multierr.Append(err, fmt.Errorf("deleting ciphertext: %w", berr))
	}
	return err
}
