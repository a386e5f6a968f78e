// Package cryptox holds the symmetric primitives used by the client storage
// layers: Argon2id key derivation, verifiers, AES-256-CTR for session values,
// and XChaCha20-Poly1305 for sealing keychain entries.
package cryptox

import (
	"crypto/sha256"

	"golang.org/x/crypto/argon2"
)

// MasterKeySize is the length of keys produced by DeriveMasterKey.
const MasterKeySize = 32

// MakeVerifier returns a value that proves knowledge of masterKey without
// revealing it. It is stored next to the salt and compared on unlock.
func MakeVerifier(masterKey []byte) []byte {
	hash := sha256.Sum256(masterKey)
	return hash[:]
}

// DeriveMasterKey stretches password with salt using Argon2id.
func DeriveMasterKey(password []byte, salt []byte) []byte {
	return argon2.IDKey(password, salt, 1, 64*1024, 4, MasterKeySize)
}
