package credentials

import (
	"context"
	"sync"
)

// Store persists encrypted credential records. At most one record exists
// per (userID, service) pair; Upsert overwrites.
type Store interface {
	// Upsert creates or replaces the record for (userID, service).
	Upsert(ctx context.Context, userID, service, encryptedPayload string) error

	// Find returns the encrypted payload for (userID, service). The
	// second return value is false when no record exists.
	Find(ctx context.Context, userID, service string) (string, bool, error)

	// Delete removes the record for (userID, service). Deleting a
	// missing record is a no-op.
	Delete(ctx context.Context, userID, service string) error
}

// memoryStore is an in-memory Store used in tests and single-node setups.
type memoryStore struct {
	mu      sync.RWMutex
	records map[storeKey]string
}

type storeKey struct {
	userID  string
	service string
}

// NewMemoryStore creates an in-memory credential store.
func NewMemoryStore() Store {
	return &memoryStore{records: make(map[storeKey]string)}
}

func (s *memoryStore) Upsert(_ context.Context, userID, service, encryptedPayload string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[storeKey{userID, service}] = encryptedPayload
	return nil
}

func (s *memoryStore) Find(_ context.Context, userID, service string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	payload, ok := s.records[storeKey{userID, service}]
	return payload, ok, nil
}

func (s *memoryStore) Delete(_ context.Context, userID, service string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, storeKey{userID, service})
	return nil
}
