// Package identity is an HTTP client for a GoTrue-compatible identity
// backend (the auth API of Supabase).
//
// # Overview
//
// Client covers the password flows used by the CLI: sign up, sign in, sign
// out, password recovery via an emailed one-time code, and password update.
// The current session is persisted through a SessionStorage under the key
// sb-<project-ref>-auth-token and restored by GetSession.
//
// # Events
//
// Every change of the current session is broadcast to listeners registered
// with OnAuthStateChange. Listeners run in registration order on the
// goroutine that caused the change. Deliveries are serialized, so a listener
// never observes two events at once.
//
// # Error Handling
//
// Non-2xx responses are returned as *APIError carrying the backend message.
// 401 and 403 responses also match ErrUnauthorized; transport failures match
// ErrUnavailable.
package identity
