// Package metadata stores small unencrypted facts about the local install,
// such as the keychain's device salt and verifier.
package metadata

import (
	"context"
)

const (
	KeyDeviceSalt     = "device_salt"
	KeyDeviceVerifier = "device_verifier"
)

// Device is the material needed to re-derive and check the keychain's
// device key. Neither field is secret.
type Device struct {
	Salt     []byte
	Verifier []byte
}

// Repository is a byte-valued key/value table. Get returns (nil, nil) when
// the key is absent.
type Repository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	LoadDevice(ctx context.Context) (Device, bool, error)
	SaveDevice(ctx context.Context, d Device) error
}
