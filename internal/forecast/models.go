// Package forecast stores weather forecasts. Forecasts reference a region id
// but are not checked against the region catalogue.
package forecast

import (
	"time"

	"github.com/climatica/climatica/internal/apperr"
	"github.com/climatica/climatica/internal/weather"
)

// ErrForecastNotFound is returned for unknown forecast ids.
var ErrForecastNotFound = apperr.NotFound("forecast not found")

// Forecast is a predicted weather state of a region at a point in time.
type Forecast struct {
	ID          int64
	RegionID    int64
	DateTime    time.Time
	Temperature float64
	Condition   weather.Condition
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
