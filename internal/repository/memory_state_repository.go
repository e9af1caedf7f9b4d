package repository

import (
	"context"
	"errors"
	"sync"
	"time"
)

// MemoryLoginStateRepository keeps login states in process memory when Redis is disabled.
type MemoryLoginStateRepository struct {
	mu     sync.Mutex
	states map[string]time.Time
	now    func() time.Time
}

// NewMemoryLoginStateRepository builds an empty store.
func NewMemoryLoginStateRepository() *MemoryLoginStateRepository {
	return &MemoryLoginStateRepository{states: make(map[string]time.Time), now: time.Now}
}

func (r *MemoryLoginStateRepository) Save(_ context.Context, state string, ttl time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	r.sweep(now)
	if _, ok := r.states[state]; ok {
		return errors.New("login state already exists")
	}
	r.states[state] = now.Add(ttl)
	return nil
}

func (r *MemoryLoginStateRepository) Consume(_ context.Context, state string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	expiresAt, ok := r.states[state]
	if !ok {
		return false, nil
	}
	delete(r.states, state)
	return r.now().Before(expiresAt), nil
}

func (r *MemoryLoginStateRepository) sweep(now time.Time) {
	for state, expiresAt := range r.states {
		if !now.Before(expiresAt) {
			delete(r.states, state)
		}
	}
}
