package region

import "context"

// Repository defines the interface for region persistence.
type Repository interface {
	// Get retrieves a region by ID.
	// Returns ErrRegionNotFound if the region doesn't exist.
	Get(ctx context.Context, id int64) (*Region, error)

	// ExistsAt reports whether a region sits at exactly these coordinates.
	ExistsAt(ctx context.Context, latitude, longitude float64) (bool, error)

	// Create inserts the region and sets its ID.
	// Returns ErrCoordinatesTaken if the coordinates are in use.
	Create(ctx context.Context, r *Region) error

	// Update overwrites an existing region.
	// Returns ErrRegionNotFound if the region doesn't exist.
	Update(ctx context.Context, r *Region) error

	// Delete removes a region by ID.
	// Returns ErrRegionNotFound if the region doesn't exist.
	Delete(ctx context.Context, id int64) error
}
