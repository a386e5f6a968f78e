// Package profiles answers whether a username is already registered.
//
// Usernames live in the public users table of the backend database. The
// table is reachable either through PostgREST (RESTDirectory) or directly
// over a Postgres connection (PostgresRepository).
package profiles

import (
	"context"
	"errors"
)

// ErrLookupFailed wraps unexpected directory responses.
var ErrLookupFailed = errors.New("username lookup failed")

// Directory reports whether a username is taken.
type Directory interface {
	UsernameTaken(ctx context.Context, username string) (bool, error)
}
