// Package regiontype manages the catalogue of region type labels.
package regiontype

import "github.com/climatica/climatica/internal/apperr"

// Region type errors.
var (
	ErrTypeNotFound = apperr.NotFound("region type not found")
	ErrTypeTaken    = apperr.Conflict("region type already exists")
)

// RegionType is a unique label regions can be classified by.
type RegionType struct {
	ID    int64
	Label string
}
