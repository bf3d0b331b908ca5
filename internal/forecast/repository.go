package forecast

import "context"

// Repository defines the interface for forecast persistence.
type Repository interface {
	// Get retrieves a forecast by ID.
	// Returns ErrForecastNotFound if the forecast doesn't exist.
	Get(ctx context.Context, id int64) (*Forecast, error)

	// Create inserts the forecast and sets its ID.
	Create(ctx context.Context, f *Forecast) error

	// Update overwrites an existing forecast.
	// Returns ErrForecastNotFound if the forecast doesn't exist.
	Update(ctx context.Context, f *Forecast) error

	// Delete removes a forecast by ID.
	// Returns ErrForecastNotFound if the forecast doesn't exist.
	Delete(ctx context.Context, id int64) error
}
