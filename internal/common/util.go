package common

import (
	"crypto/rand"
	"fmt"
)

// RandomBytes returns size bytes from crypto/rand.
func RandomBytes(size int) ([]byte, error) {
	b := make([]byte, size)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("reading random bytes: %w", err)
	}
	return b, nil
}

// GenerateRandByteArray is RandomBytes for callers that cannot continue
// without randomness. It panics if the system source fails.
func GenerateRandByteArray(size int) []byte {
	b, err := RandomBytes(size)
	if err != nil {
		panic(err)
	}
	return b
}

// WipeByteArray zeroes b in place. A nil slice is a no-op.
func WipeByteArray(b []byte) {
	clear(b)
}
