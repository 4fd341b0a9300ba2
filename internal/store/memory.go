package store

import (
	"context"
	"sync"
)

// MemoryStore is an in-memory BlobStore used in tests and as the default
// backend when no persistence is configured.
type MemoryStore struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{blobs: make(map[string][]byte)}
}

// Put stores a copy of data under its content identifier.
func (s *MemoryStore) Put(_ context.Context, data []byte) (string, error) {
	cid := ContentID(data)
	blob := make([]byte, len(data))
	copy(blob, data)

	s.mu.Lock()
	s.blobs[cid] = blob
	s.mu.Unlock()
	return cid, nil
}

// Get returns a copy of the blob for cid.
func (s *MemoryStore) Get(_ context.Context, cid string) ([]byte, error) {
	s.mu.RLock()
	blob, ok := s.blobs[cid]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]byte, len(blob))
	copy(out, blob)
	return out, nil
}

// Pin reports whether the blob exists; in-memory blobs are never evicted.
func (s *MemoryStore) Pin(_ context.Context, cid string) error {
	s.mu.RLock()
	_, ok := s.blobs[cid]
	s.mu.RUnlock()
	if !ok {
		return ErrNotFound
	}
	return nil
}

// Len reports the number of stored blobs.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.blobs)
}
