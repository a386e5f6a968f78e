// Package keychain implements the constrained secure store: a key/value
// store with a 2048-byte per-value ceiling, meant to hold encryption keys
// only.
//
// Implementations
//
//   - SQLiteRepository: persistent. Every value is sealed with
//     XChaCha20-Poly1305 under a device key derived (Argon2id) from a device
//     passphrase and a per-install salt kept in the metadata table. The device
//     key lives in a memguard enclave while the repository is open.
//   - MemoryRepository: process-lifetime. Every value sits in its own
//     memguard enclave, encrypted in RAM.
//
// Keys must match [A-Za-z0-9._-]+, the alphabet accepted by mobile OS secure
// stores.
package keychain
