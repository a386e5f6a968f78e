package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophsession/internal/common"
)

// SessionKeySize is the size of the per-write AES-256 key.
const SessionKeySize = 32

// ErrInvalidKeySize is returned when a CTR key is not SessionKeySize bytes.
var ErrInvalidKeySize = errors.New("invalid key size")

// initialCounter is the first CTR counter block: the 128-bit big-endian
// integer 1.
func initialCounter() []byte {
	iv := make([]byte, aes.BlockSize)
	iv[aes.BlockSize-1] = 1
	return iv
}

// GenerateSessionKey returns a fresh random AES-256 key.
func GenerateSessionKey() ([]byte, error) {
	key, err := common.RandomBytes(SessionKeySize)
	if err != nil {
		return nil, fmt.Errorf("generating session key: %w", err)
	}
	return key, nil
}

func ctrStream(key []byte) (cipher.Stream, error) {
	if len(key) != SessionKeySize {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrInvalidKeySize, len(key), SessionKeySize)
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("creating cipher: %w", err)
	}
	return cipher.NewCTR(block, initialCounter()), nil
}

// EncryptCTR encrypts the UTF-8 bytes of plaintext with AES-256-CTR starting
// at counter 1 and returns the ciphertext hex-encoded.
//
// The counter is fixed, so a key must never encrypt two different values.
// Callers generate a new key for every call.
func EncryptCTR(key []byte, plaintext string) (string, error) {
	stream, err := ctrStream(key)
	if err != nil {
		return "", err
	}
	src := []byte(plaintext)
	dst := make([]byte, len(src))
	stream.XORKeyStream(dst, src)
	return hex.EncodeToString(dst), nil
}

// DecryptCTR reverses EncryptCTR.
func DecryptCTR(key []byte, cipherHex string) (string, error) {
	stream, err := ctrStream(key)
	if err != nil {
		return "", err
	}
	src, err := hex.DecodeString(cipherHex)
	if err != nil {
		return "", fmt.Errorf("decoding ciphertext: %w", err)
	}
	dst := make([]byte, len(src))
	stream.XORKeyStream(dst, src)
	return string(dst), nil
}
