package forecast

import (
	"context"
	"sync"
)

// InMemoryRepository is an in-memory implementation of Repository.
type InMemoryRepository struct {
	mu        sync.RWMutex
	forecasts map[int64]*Forecast
	nextID    int64
}

// NewInMemoryRepository creates a new in-memory forecast repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		forecasts: make(map[int64]*Forecast),
	}
}

// Get retrieves a forecast by ID.
func (r *InMemoryRepository) Get(_ context.Context, id int64) (*Forecast, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	f, ok := r.forecasts[id]
	if !ok {
		return nil, ErrForecastNotFound
	}
	cpy := *f
	return &cpy, nil
}

// Create inserts the forecast and sets its ID.
func (r *InMemoryRepository) Create(_ context.Context, f *Forecast) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	f.ID = r.nextID
	cpy := *f
	r.forecasts[f.ID] = &cpy
	return nil
}

// Update overwrites an existing forecast.
func (r *InMemoryRepository) Update(_ context.Context, f *Forecast) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.forecasts[f.ID]; !ok {
		return ErrForecastNotFound
	}
	cpy := *f
	r.forecasts[f.ID] = &cpy
	return nil
}

// Delete removes a forecast by ID.
func (r *InMemoryRepository) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.forecasts[id]; !ok {
		return ErrForecastNotFound
	}
	delete(r.forecasts, id)
	return nil
}

// Ensure InMemoryRepository implements Repository interface.
var _ Repository = (*InMemoryRepository)(nil)
