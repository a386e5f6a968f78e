// Package cli provides the interactive gophsession command-line client.
//
// The CLI stands in for the sign-in, sign-up, password-reset and home
// screens. Each command collects form input, calls the auth manager and
// prints the resulting state. A background watcher subscribes to the
// manager's snapshots and applies the route guard, so the current screen
// always matches the session.
//
// Commands:
//   - register, login, logout
//   - reset, verify, update-password (password recovery)
//   - status, back, clear
//
// The REPL is started via App.Root(ctx), which blocks until the user exits.
// See App, StartStateWatcher, and runREPL for details.
package cli
