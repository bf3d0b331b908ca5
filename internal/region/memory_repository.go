package region

import (
	"context"
	"sync"
)

type coordinates struct {
	lat float64
	lon float64
}

// InMemoryRepository is an in-memory implementation of Repository.
// Coordinate uniqueness is enforced under the write lock, like the unique
// constraint of the Postgres schema.
type InMemoryRepository struct {
	mu      sync.RWMutex
	regions map[int64]*Region
	nextID  int64
}

// NewInMemoryRepository creates a new in-memory region repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		regions: make(map[int64]*Region),
	}
}

// Get retrieves a region by ID.
func (r *InMemoryRepository) Get(_ context.Context, id int64) (*Region, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	reg, ok := r.regions[id]
	if !ok {
		return nil, ErrRegionNotFound
	}
	return clone(reg), nil
}

// ExistsAt reports whether a region sits at exactly these coordinates.
func (r *InMemoryRepository) ExistsAt(_ context.Context, latitude, longitude float64) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.existsAtLocked(coordinates{latitude, longitude}), nil
}

func (r *InMemoryRepository) existsAtLocked(c coordinates) bool {
	return r.occupiedByOtherLocked(c, 0)
}

func (r *InMemoryRepository) occupiedByOtherLocked(c coordinates, self int64) bool {
	for id, reg := range r.regions {
		if id != self && reg.Latitude == c.lat && reg.Longitude == c.lon {
			return true
		}
	}
	return false
}

// Create inserts the region and sets its ID.
func (r *InMemoryRepository) Create(_ context.Context, reg *Region) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.existsAtLocked(coordinates{reg.Latitude, reg.Longitude}) {
		return ErrCoordinatesTaken
	}

	r.nextID++
	reg.ID = r.nextID
	r.regions[reg.ID] = clone(reg)
	return nil
}

// Update overwrites an existing region.
func (r *InMemoryRepository) Update(_ context.Context, reg *Region) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.regions[reg.ID]; !ok {
		return ErrRegionNotFound
	}
	if r.occupiedByOtherLocked(coordinates{reg.Latitude, reg.Longitude}, reg.ID) {
		return ErrCoordinatesTaken
	}
	r.regions[reg.ID] = clone(reg)
	return nil
}

// Delete removes a region by ID.
func (r *InMemoryRepository) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.regions[id]; !ok {
		return ErrRegionNotFound
	}
	delete(r.regions, id)
	return nil
}

// clone deep-copies a region so callers never share pointer fields with the store.
func clone(reg *Region) *Region {
	cpy := *reg
	if reg.RegionTypeID != nil {
		v := *reg.RegionTypeID
		cpy.RegionTypeID = &v
	}
	if reg.ParentRegion != nil {
		v := *reg.ParentRegion
		cpy.ParentRegion = &v
	}
	return &cpy
}

// Ensure InMemoryRepository implements Repository interface.
var _ Repository = (*InMemoryRepository)(nil)
