package keychain

import (
	"context"
	"fmt"
	"sync"

	"github.com/awnumar/memguard"
)

// MemoryRepository keeps each value in its own memguard enclave.
// A nil enclave stands for the empty string, which memguard cannot hold.
type MemoryRepository struct {
	mu    sync.RWMutex
	items map[string]*memguard.Enclave
}

var _ Repository = (*MemoryRepository)(nil)

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{items: make(map[string]*memguard.Enclave)}
}

func (r *MemoryRepository) SetItem(_ context.Context, key, value string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	if err := validateValue(key, value); err != nil {
		return err
	}

	enclave := memguard.NewEnclave([]byte(value))

	r.mu.Lock()
	r.items[key] = enclave
	r.mu.Unlock()
	return nil
}

func (r *MemoryRepository) GetItem(_ context.Context, key string) (string, bool, error) {
	if err := validateKey(key); err != nil {
		return "", false, err
	}

	r.mu.RLock()
	enclave, ok := r.items[key]
	r.mu.RUnlock()

	if !ok {
		return "", false, nil
	}
	if enclave == nil {
		return "", true, nil
	}

	buf, err := enclave.Open()
	if err != nil {
		return "", false, fmt.Errorf("opening keychain[%s]: %w", key, err)
	}
	defer buf.Destroy()

	return string(buf.Bytes()), true, nil
}

func (r *MemoryRepository) DeleteItem(_ context.Context, key string) error {
	if err := validateKey(key); err != nil {
		return err
	}

	r.mu.Lock()
	delete(r.items, key)
	r.mu.Unlock()
	return nil
}

// Len reports how many keys are held.
func (r *MemoryRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items)
}
