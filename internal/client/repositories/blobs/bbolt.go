package blobs

import (
	"context"
	"fmt"

	"go.etcd.io/bbolt"
)

var blobsBucket = []byte("blobs")

// BoltRepository stores values in a single bbolt bucket.
type BoltRepository struct {
	db *bbolt.DB
}

var _ Repository = (*BoltRepository)(nil)

// NewBoltRepository returns a Repository backed by the given bbolt database.
func NewBoltRepository(db *bbolt.DB) (*BoltRepository, error) {
	err := db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(blobsBucket)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("creating blobs bucket: %w", err)
	}
	return &BoltRepository{db: db}, nil
}

// NewBoltRepositoryFromFile opens a bbolt database at path.
func NewBoltRepositoryFromFile(path string, options *bbolt.Options) (*BoltRepository, error) {
	db, err := bbolt.Open(path, 0600, options)
	if err != nil {
		return nil, fmt.Errorf("opening bbolt db: %w", err)
	}
	r, err := NewBoltRepository(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return r, nil
}

// Close closes the underlying bbolt database.
func (r *BoltRepository) Close() error {
	return r.db.Close()
}

func (r *BoltRepository) GetItem(_ context.Context, key string) (string, bool, error) {
	var (
		value string
		ok    bool
	)
	err := r.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(blobsBucket).Get([]byte(key))
		if data == nil {
			return nil
		}
		// data is only valid inside the transaction
		value, ok = string(data), true
		return nil
	})
	if err != nil {
		return "", false, fmt.Errorf("failed to get blob[%s]: %w", key, err)
	}
	return value, ok, nil
}

func (r *BoltRepository) SetItem(_ context.Context, key, value string) error {
	err := r.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(blobsBucket).Put([]byte(key), []byte(value))
	})
	if err != nil {
		return fmt.Errorf("failed to set blob[%s]: %w", key, err)
	}
	return nil
}

func (r *BoltRepository) RemoveItem(_ context.Context, key string) error {
	err := r.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(blobsBucket).Delete([]byte(key))
	})
	if err != nil {
		return fmt.Errorf("failed to remove blob[%s]: %w", key, err)
	}
	return nil
}
