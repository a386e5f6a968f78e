package keychain

import (
	"context"
	"crypto/subtle"
	"database/sql"
	"errors"
	"fmt"

	"github.com/awnumar/memguard"
	"github.com/dmitrijs2005/gophsession/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/gophsession/internal/common"
	"github.com/dmitrijs2005/gophsession/internal/cryptox"
	"github.com/dmitrijs2005/gophsession/internal/dbx"
)

const deviceSaltSize = 32

// SQLiteRepository is a Repository persisted in the local SQLite database.
type SQLiteRepository struct {
	db        *sql.DB
	deviceKey *memguard.Enclave
}

var _ Repository = (*SQLiteRepository)(nil)

// NewSQLiteRepository unlocks the keychain with passphrase. On first use it
// creates the device salt and verifier; afterwards a different passphrase
// yields ErrDeviceLocked. The tables come from the client migrations.
func NewSQLiteRepository(ctx context.Context, db *sql.DB, passphrase []byte) (*SQLiteRepository, error) {
	var deviceKey []byte

	err := dbx.WithTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		meta := metadata.NewSQLiteRepository(tx)

		dev, ok, err := meta.LoadDevice(ctx)
		if err != nil {
			return err
		}

		if !ok {
			salt := common.GenerateRandByteArray(deviceSaltSize)
			deviceKey = cryptox.DeriveMasterKey(passphrase, salt)
			return meta.SaveDevice(ctx, metadata.Device{Salt: salt, Verifier: cryptox.MakeVerifier(deviceKey)})
		}

		candidate := cryptox.DeriveMasterKey(passphrase, dev.Salt)
		if subtle.ConstantTimeCompare(dev.Verifier, cryptox.MakeVerifier(candidate)) == 0 {
			common.WipeByteArray(candidate)
			return ErrDeviceLocked
		}
		deviceKey = candidate
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("unlocking keychain: %w", err)
	}

	// NewEnclave wipes deviceKey
	return &SQLiteRepository{db: db, deviceKey: memguard.NewEnclave(deviceKey)}, nil
}

func aad(key string) []byte {
	return []byte("keychain:" + key)
}

func (r *SQLiteRepository) SetItem(ctx context.Context, key, value string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	if err := validateValue(key, value); err != nil {
		return err
	}

	dk, err := r.deviceKey.Open()
	if err != nil {
		return fmt.Errorf("opening device key: %w", err)
	}
	defer dk.Destroy()

	sealed, err := cryptox.Seal(dk.Bytes(), []byte(value), aad(key))
	if err != nil {
		return fmt.Errorf("sealing keychain[%s]: %w", key, err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO keychain (key, sealed, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET sealed = excluded.sealed, updated_at = excluded.updated_at
	`, key, sealed)
	if err != nil {
		return fmt.Errorf("failed to set keychain[%s]: %w", key, err)
	}
	return nil
}

func (r *SQLiteRepository) GetItem(ctx context.Context, key string) (string, bool, error) {
	if err := validateKey(key); err != nil {
		return "", false, err
	}

	var sealed []byte
	err := r.db.QueryRowContext(ctx, `SELECT sealed FROM keychain WHERE key = ?`, key).Scan(&sealed)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get keychain[%s]: %w", key, err)
	}

	dk, err := r.deviceKey.Open()
	if err != nil {
		return "", false, fmt.Errorf("opening device key: %w", err)
	}
	defer dk.Destroy()

	plain, err := cryptox.Open(dk.Bytes(), sealed, aad(key))
	if err != nil {
		return "", false, fmt.Errorf("failed to open keychain[%s]: %w", key, err)
	}
	defer common.WipeByteArray(plain)

	return string(plain), true, nil
}

func (r *SQLiteRepository) DeleteItem(ctx context.Context, key string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx, `DELETE FROM keychain WHERE key = ?`, key)
	if err != nil {
		return fmt.Errorf("failed to delete keychain[%s]: %w", key, err)
	}
	return nil
}
