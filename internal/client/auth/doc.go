// Package auth owns the client's authentication state.
//
// # Overview
//
// Manager runs every operation (register, sign in, sign out, password
// recovery) and every session-change notification from the identity backend
// through one FIFO mailbox drained by a single goroutine. State changes are
// therefore applied one at a time, in arrival order, and each one bumps
// State.Version.
//
// Operations never return errors. A failure is reduced to a message in
// State.Error and the resulting snapshot is returned to the caller.
// Other readers observe the same snapshots through Subscribe.
//
// # Password recovery
//
// RequestPasswordReset starts a ResetFlow. The flow value must be passed
// back to VerifyOneTimeCode and UpdatePassword; a stale flow is rejected.
// While a verified flow is active, a SIGNED_IN notification routes to the
// update-password screen instead of home.
//
// # Lifetime
//
// Start launches the loop and restores the persisted session. Close stops
// it: in-flight backend calls are cancelled, queued operations are answered
// with the last snapshot, and no further state is published.
package auth
