package directory

import (
	"context"
	"sync"
	"time"
)

// MemoryRepository is an in-memory Repository used by tests and local
// development seeding.
type MemoryRepository struct {
	mu         sync.RWMutex
	principals map[string]*Principal

	// UpdateErr, when set, is returned from UpdateLastActivity. Lets tests
	// exercise the session guard's fail-open path.
	UpdateErr error
}

// NewMemoryRepository constructs an empty MemoryRepository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{principals: make(map[string]*Principal)}
}

// Put inserts or replaces a principal.
func (r *MemoryRepository) Put(p *Principal) {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *p
	r.principals[p.ID] = &clone
}

// FindByID returns a copy of the stored principal.
func (r *MemoryRepository) FindByID(ctx context.Context, id string) (*Principal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.principals[id]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *p
	if p.LastActivity != nil {
		t := *p.LastActivity
		clone.LastActivity = &t
	}
	return &clone, nil
}

// UpdateLastActivity overwrites the activity timestamp, last writer wins.
func (r *MemoryRepository) UpdateLastActivity(ctx context.Context, id string, at time.Time) error {
	if r.UpdateErr != nil {
		return r.UpdateErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.principals[id]
	if !ok {
		return ErrNotFound
	}
	t := at
	p.LastActivity = &t
	return nil
}

var _ Repository = (*MemoryRepository)(nil)
