package regiontype

import "context"

// Repository defines the interface for region type persistence.
type Repository interface {
	// Get retrieves a region type by ID.
	// Returns ErrTypeNotFound if the type doesn't exist.
	Get(ctx context.Context, id int64) (*RegionType, error)

	// FindByLabel retrieves a region type by its exact label.
	// Returns ErrTypeNotFound if no type carries the label.
	FindByLabel(ctx context.Context, label string) (*RegionType, error)

	// Create inserts the type and sets its ID.
	// Returns ErrTypeTaken if the label is in use.
	Create(ctx context.Context, rt *RegionType) error

	// Update overwrites an existing type.
	// Returns ErrTypeNotFound or ErrTypeTaken.
	Update(ctx context.Context, rt *RegionType) error

	// Delete removes a type by ID.
	// Returns ErrTypeNotFound if the type doesn't exist.
	Delete(ctx context.Context, id int64) error
}
