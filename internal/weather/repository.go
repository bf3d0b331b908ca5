package weather

import (
	"context"
	"time"
)

// Repository defines the interface for weather persistence.
type Repository interface {
	// GetByRegionID retrieves the weather of a region.
	// Returns ErrWeatherNotFound if the region has none.
	GetByRegionID(ctx context.Context, regionID int64) (*Data, error)

	// Search returns matching records ordered by measurement time, then ID.
	Search(ctx context.Context, filter SearchFilter, offset, limit int) ([]*Data, error)

	// Create inserts the record and sets its ID.
	// Returns ErrWeatherExists if the region already has weather.
	Create(ctx context.Context, d *Data) error

	// Update overwrites the weather of d.RegionID.
	// Returns ErrWeatherNotFound if the region has none.
	Update(ctx context.Context, d *Data) error

	// UpdateForecastIDs replaces the forecast ids of a region's weather with
	// fn applied to the current ids, atomically with respect to other writers.
	// Returns ErrWeatherNotFound if the region has none.
	UpdateForecastIDs(ctx context.Context, regionID int64, at time.Time, fn func([]int64) []int64) (*Data, error)

	// DeleteByRegionID removes the weather of a region.
	// Returns ErrWeatherNotFound if the region has none.
	DeleteByRegionID(ctx context.Context, regionID int64) error
}

// AtomicRegionUpdater is implemented by repositories able to rename a region
// and overwrite its weather in a single transaction.
type AtomicRegionUpdater interface {
	// UpdateWithRegionName renames region d.RegionID and overwrites its
	// weather. Either both writes commit or neither does.
	UpdateWithRegionName(ctx context.Context, d *Data, regionName string) error
}
