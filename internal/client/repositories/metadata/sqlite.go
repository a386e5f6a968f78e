package metadata

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophsession/internal/dbx"
)

// ErrIncompleteDevice means only one half of the device record exists.
var ErrIncompleteDevice = errors.New("device metadata is incomplete")

// SQLiteRepository keeps metadata in the local SQLite database.
type SQLiteRepository struct {
	db dbx.DBTX
}

var _ Repository = (*SQLiteRepository)(nil)

// NewSQLiteRepository accepts a *sql.DB or a *sql.Tx, so the device record
// can be created in the same transaction that first reads it.
func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := r.db.QueryRowContext(ctx, `SELECT value FROM metadata WHERE key = ?`, key).Scan(&value)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, nil
	case err != nil:
		return nil, fmt.Errorf("failed to get metadata[%s]: %w", key, err)
	}
	return value, nil
}

func (r *SQLiteRepository) Set(ctx context.Context, key string, value []byte) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO metadata (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return fmt.Errorf("failed to set metadata[%s]: %w", key, err)
	}
	return nil
}

// LoadDevice returns ok=false on a fresh install. A salt without a verifier,
// or the reverse, is ErrIncompleteDevice.
func (r *SQLiteRepository) LoadDevice(ctx context.Context) (Device, bool, error) {
	salt, err := r.Get(ctx, KeyDeviceSalt)
	if err != nil {
		return Device{}, false, err
	}
	verifier, err := r.Get(ctx, KeyDeviceVerifier)
	if err != nil {
		return Device{}, false, err
	}

	switch {
	case salt == nil && verifier == nil:
		return Device{}, false, nil
	case salt == nil || verifier == nil:
		return Device{}, false, ErrIncompleteDevice
	}
	return Device{Salt: salt, Verifier: verifier}, true, nil
}

func (r *SQLiteRepository) SaveDevice(ctx context.Context, d Device) error {
	if err := r.Set(ctx, KeyDeviceSalt, d.Salt); err != nil {
		return err
	}
	return r.Set(ctx, KeyDeviceVerifier, d.Verifier)
}
