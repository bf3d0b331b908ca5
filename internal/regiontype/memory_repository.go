package regiontype

import (
	"context"
	"sync"
)

// InMemoryRepository is an in-memory implementation of Repository.
type InMemoryRepository struct {
	mu      sync.RWMutex
	types   map[int64]*RegionType
	byLabel map[string]int64
	nextID  int64
}

// NewInMemoryRepository creates a new in-memory region type repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		types:   make(map[int64]*RegionType),
		byLabel: make(map[string]int64),
	}
}

// Get retrieves a region type by ID.
func (r *InMemoryRepository) Get(_ context.Context, id int64) (*RegionType, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rt, ok := r.types[id]
	if !ok {
		return nil, ErrTypeNotFound
	}
	cpy := *rt
	return &cpy, nil
}

// FindByLabel retrieves a region type by its exact label.
func (r *InMemoryRepository) FindByLabel(_ context.Context, label string) (*RegionType, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byLabel[label]
	if !ok {
		return nil, ErrTypeNotFound
	}
	cpy := *r.types[id]
	return &cpy, nil
}

// Create inserts the type and sets its ID.
func (r *InMemoryRepository) Create(_ context.Context, rt *RegionType) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.byLabel[rt.Label]; taken {
		return ErrTypeTaken
	}

	r.nextID++
	rt.ID = r.nextID
	cpy := *rt
	r.types[rt.ID] = &cpy
	r.byLabel[rt.Label] = rt.ID
	return nil
}

// Update overwrites an existing type.
func (r *InMemoryRepository) Update(_ context.Context, rt *RegionType) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.types[rt.ID]
	if !ok {
		return ErrTypeNotFound
	}
	if owner, taken := r.byLabel[rt.Label]; taken && owner != rt.ID {
		return ErrTypeTaken
	}

	delete(r.byLabel, existing.Label)
	cpy := *rt
	r.types[rt.ID] = &cpy
	r.byLabel[rt.Label] = rt.ID
	return nil
}

// Delete removes a type by ID.
func (r *InMemoryRepository) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rt, ok := r.types[id]
	if !ok {
		return ErrTypeNotFound
	}
	delete(r.byLabel, rt.Label)
	delete(r.types, id)
	return nil
}

// Ensure InMemoryRepository implements Repository interface.
var _ Repository = (*InMemoryRepository)(nil)
