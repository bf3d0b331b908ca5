// Package weather keeps the current weather snapshot of each region and the
// forecast ids attached to it.
package weather

import (
	"errors"
	"time"

	"github.com/climatica/climatica/internal/api/models"
	"github.com/climatica/climatica/internal/apperr"
)

// Weather errors.
var (
	ErrWeatherNotFound = apperr.NotFound("no weather data for region")
	ErrWeatherExists   = apperr.Conflict("region already has weather data")

	// ErrRegionSyncFailed is returned when the region was renamed but the
	// weather record could not be written.
	ErrRegionSyncFailed = errors.New("region and weather update did not complete")
)

// UnknownRegionName is reported for weather whose region no longer exists.
const UnknownRegionName = "Unknown Region"

// Search bounds used when a time filter is omitted.
var (
	MinTime = time.Date(1, time.January, 1, 0, 0, 0, 0, time.UTC)
	MaxTime = time.Date(9999, time.December, 31, 23, 59, 59, 999999000, time.UTC)
)

// Condition is the general weather state.
type Condition string

const (
	ConditionClear  Condition = "CLEAR"
	ConditionCloudy Condition = "CLOUDY"
	ConditionRain   Condition = "RAIN"
	ConditionSnow   Condition = "SNOW"
	ConditionFog    Condition = "FOG"
	ConditionStorm  Condition = "STORM"
)

// Valid reports whether c is one of the known conditions.
func (c Condition) Valid() bool {
	switch c {
	case ConditionClear, ConditionCloudy, ConditionRain, ConditionSnow, ConditionFog, ConditionStorm:
		return true
	}
	return false
}

// ConditionFieldError describes an unknown condition submitted in field.
func ConditionFieldError(field string) models.FieldError {
	return models.FieldError{
		Field:   field,
		Message: "must be one of CLEAR, CLOUDY, RAIN, SNOW, FOG, STORM",
		Code:    "INVALID_VALUE",
	}
}

// Data is the weather snapshot of one region. A region has at most one.
type Data struct {
	ID                  int64
	RegionID            int64
	Temperature         float64
	Humidity            float64
	WindSpeed           float64
	Condition           Condition
	PrecipitationAmount float64
	MeasuredAt          time.Time
	ForecastIDs         []int64 // ordered, duplicates allowed
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// SearchFilter selects weather records. RegionID and Condition are optional;
// Start and End are inclusive.
type SearchFilter struct {
	RegionID  *int64
	Condition *Condition
	Start     time.Time
	End       time.Time
}

// Matches reports whether d satisfies every filter.
func (f SearchFilter) Matches(d *Data) bool {
	if f.RegionID != nil && d.RegionID != *f.RegionID {
		return false
	}
	if f.Condition != nil && d.Condition != *f.Condition {
		return false
	}
	return !d.MeasuredAt.Before(f.Start) && !d.MeasuredAt.After(f.End)
}

// clone copies d so callers never share the forecast slice with the store.
func (d *Data) clone() *Data {
	cpy := *d
	cpy.ForecastIDs = append([]int64{}, d.ForecastIDs...)
	return &cpy
}
