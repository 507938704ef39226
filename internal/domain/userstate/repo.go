package userstate

import (
	"context"
	"sync"
)

// Repository persists opaque blobs under string keys. Load returns
// ErrNotFound for a key that was never saved or has been deleted.
type Repository interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, blob []byte) error
	Delete(ctx context.Context, keys ...string) error
	Close() error
}

// =========== In-memory Repository ===========

type memoryRepo struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

// NewMemoryRepo returns a process-local repository. Nothing survives a
// restart.
func NewMemoryRepo() Repository {
	return &memoryRepo{blobs: make(map[string][]byte)}
}

func (r *memoryRepo) Load(_ context.Context, key string) ([]byte, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.blobs[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), b...), nil
}

func (r *memoryRepo) Save(_ context.Context, key string, blob []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.blobs[key] = append([]byte(nil), blob...)
	return nil
}

func (r *memoryRepo) Delete(_ context.Context, keys ...string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, k := range keys {
		delete(r.blobs, k)
	}
	return nil
}

func (r *memoryRepo) Close() error { return nil }
