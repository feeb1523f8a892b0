package identity

import (
	"context"
	"sync"
)

// memoryDirectory is an in-memory Directory used in tests and for
// static user sets loaded at startup.
type memoryDirectory struct {
	mu    sync.RWMutex
	byID  map[string]Identity
	byUsr map[string]Identity
}

// NewMemoryDirectory creates a Directory holding the given identities.
func NewMemoryDirectory(users ...Identity) Directory {
	d := &memoryDirectory{
		byID:  make(map[string]Identity, len(users)),
		byUsr: make(map[string]Identity, len(users)),
	}
	for _, u := range users {
		d.byID[u.UserID] = u
		d.byUsr[u.Username] = u
	}
	return d
}

func (d *memoryDirectory) GetUserByID(_ context.Context, userID string) (Identity, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	user, ok := d.byID[userID]
	if !ok {
		return Identity{}, ErrUserNotFound
	}
	return user, nil
}

func (d *memoryDirectory) GetUserByUsername(_ context.Context, username string) (Identity, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	user, ok := d.byUsr[username]
	if !ok {
		return Identity{}, ErrUserNotFound
	}
	return user, nil
}
