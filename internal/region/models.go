// Package region manages named geographic points owned by accounts.
package region

import (
	"time"

	"github.com/climatica/climatica/internal/apperr"
)

// Region errors.
var (
	ErrRegionNotFound   = apperr.NotFound("region not found")
	ErrCoordinatesTaken = apperr.Conflict("a region already exists at these coordinates")
	ErrNotAllowed       = apperr.Forbidden("not allowed to modify this region")
)

// Region is a named geographic point. (Latitude, Longitude) is unique across
// all regions, compared exactly.
type Region struct {
	ID             int64
	Name           string
	Latitude       float64
	Longitude      float64
	RegionTypeID   *int64
	ParentRegion   *string
	OwnerAccountID int64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
