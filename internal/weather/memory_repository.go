package weather

import (
	"context"
	"sort"
	"sync"
	"time"
)

// InMemoryRepository is an in-memory implementation of Repository, keyed by
// region.
type InMemoryRepository struct {
	mu       sync.RWMutex
	byRegion map[int64]*Data
	nextID   int64
}

// NewInMemoryRepository creates a new in-memory weather repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		byRegion: make(map[int64]*Data),
	}
}

// GetByRegionID retrieves the weather of a region.
func (r *InMemoryRepository) GetByRegionID(_ context.Context, regionID int64) (*Data, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.byRegion[regionID]
	if !ok {
		return nil, ErrWeatherNotFound
	}
	return d.clone(), nil
}

// Search returns matching records ordered by measurement time, then ID.
func (r *InMemoryRepository) Search(_ context.Context, filter SearchFilter, offset, limit int) ([]*Data, error) {
	r.mu.RLock()
	var matched []*Data
	for _, d := range r.byRegion {
		if filter.Matches(d) {
			matched = append(matched, d.clone())
		}
	}
	r.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].MeasuredAt.Equal(matched[j].MeasuredAt) {
			return matched[i].MeasuredAt.Before(matched[j].MeasuredAt)
		}
		return matched[i].ID < matched[j].ID
	})

	if offset >= len(matched) {
		return []*Data{}, nil
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], nil
}

// Create inserts the record and sets its ID.
func (r *InMemoryRepository) Create(_ context.Context, d *Data) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byRegion[d.RegionID]; exists {
		return ErrWeatherExists
	}

	r.nextID++
	d.ID = r.nextID
	r.byRegion[d.RegionID] = d.clone()
	return nil
}

// Update overwrites the weather of d.RegionID.
func (r *InMemoryRepository) Update(_ context.Context, d *Data) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.byRegion[d.RegionID]
	if !ok {
		return ErrWeatherNotFound
	}
	d.ID = existing.ID
	d.CreatedAt = existing.CreatedAt
	r.byRegion[d.RegionID] = d.clone()
	return nil
}

// UpdateForecastIDs applies fn to the forecast ids under the write lock.
func (r *InMemoryRepository) UpdateForecastIDs(_ context.Context, regionID int64, at time.Time, fn func([]int64) []int64) (*Data, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	d, ok := r.byRegion[regionID]
	if !ok {
		return nil, ErrWeatherNotFound
	}
	d.ForecastIDs = fn(append([]int64{}, d.ForecastIDs...))
	d.UpdatedAt = at
	return d.clone(), nil
}

// DeleteByRegionID removes the weather of a region.
func (r *InMemoryRepository) DeleteByRegionID(_ context.Context, regionID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byRegion[regionID]; !ok {
		return ErrWeatherNotFound
	}
	delete(r.byRegion, regionID)
	return nil
}

// Ensure InMemoryRepository implements Repository interface.
var _ Repository = (*InMemoryRepository)(nil)
