// Package common contains constants and small helpers shared across
// gophsession components.
package common

const (
	// APIKeyHeaderName carries the project's anonymous key on every request
	// to the identity backend.
	APIKeyHeaderName = "apikey"

	// SessionKeyPrefix and SessionKeySuffix frame the storage key under which
	// the identity client persists its session: sb-<project-ref>-auth-token.
	SessionKeyPrefix = "sb-"
	SessionKeySuffix = "-auth-token"

	// SecureStoreValueLimit is the per-item ceiling of the constrained
	// secure store, in bytes.
	SecureStoreValueLimit = 2048
)
