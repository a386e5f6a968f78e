package securestore

import (
	"context"
	"math"

	"github.com/dmitrijs2005/gophsession/internal/client/repositories/keychain"
)

// StorageMetrics describes the footprint of one stored value.
type StorageMetrics struct {
	ValueSize       int
	EncryptedSize   int
	KeySize         int
	KeychainLimit   int
	KeychainSafe    bool
	OverheadPercent int
}

// measure sizes a stored value. KeySize is the key as the keychain holds
// it, hex encoded.
func measure(value, keyHex, cipherHex string) StorageMetrics {
	m := StorageMetrics{
		ValueSize:     len(value),
		EncryptedSize: len(cipherHex),
		KeySize:       len(keyHex),
		KeychainLimit: keychain.MaxValueSize,
	}
	m.KeychainSafe = m.KeySize <= m.KeychainLimit
	if m.ValueSize > 0 {
		m.OverheadPercent = int(math.Round((float64(m.EncryptedSize)/float64(m.ValueSize) - 1) * 100))
	}
	return m
}

func (s *Store) logMetrics(ctx context.Context, key, value, keyHex, cipherHex string) {
	if !s.metrics {
		return
	}
	m := measure(value, keyHex, cipherHex)
	s.log.Debug(ctx, "storage metrics",
		"key", key,
		"value_bytes", m.ValueSize,
		"encrypted_bytes", m.EncryptedSize,
		"key_bytes", m.KeySize,
		"keychain_limit", m.KeychainLimit,
		"keychain_safe", m.KeychainSafe,
		"overhead_pct", m.OverheadPercent,
	)
	if !m.KeychainSafe {
		s.log.Warn(ctx, "encryption key exceeds keychain limit", "key", key)
	}
}
