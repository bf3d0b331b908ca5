package weather

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/climatica/climatica/internal/api/models"
	"github.com/climatica/climatica/internal/apperr"
	"github.com/climatica/climatica/internal/observability"
	"github.com/climatica/climatica/internal/region"
	"github.com/climatica/climatica/internal/telemetry"
)

const tracerName = "github.com/climatica/climatica/internal/weather"

// Region sync modes and outcomes.
const (
	syncModeTransaction = "transaction"
	syncModeSaga        = "saga"

	syncSuccess      = "success"
	syncFailed       = "failed"
	syncCompensated  = "compensated"
	syncInconsistent = "inconsistent"
)

// Regions is the view of the region service the weather service needs.
type Regions interface {
	Get(ctx context.Context, id int64) (*models.Region, error)
	Rename(ctx context.Context, id int64, name string) (*models.Region, error)
	IsAuthorizedToUpdate(actorID, id int64) bool
}

// ServiceConfig holds configuration for the weather service.
type ServiceConfig struct {
	// Repository stores weather records. When it also implements
	// AtomicRegionUpdater, region renames run in the same transaction as the
	// weather write.
	Repository Repository

	// Regions resolves and renames regions.
	Regions Regions

	Logger  zerolog.Logger
	Clock   clockwork.Clock
	Metrics *observability.Metrics
}

// Service provides weather operations.
type Service struct {
	repo    Repository
	regions Regions
	log     zerolog.Logger
	clock   clockwork.Clock
	metrics *observability.Metrics
}

// NewService creates a new weather service.
func NewService(cfg ServiceConfig) *Service {
	clock := cfg.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Service{
		repo:    cfg.Repository,
		regions: cfg.Regions,
		log:     cfg.Logger.With().Str("component", "weather").Logger(),
		clock:   clock,
		metrics: cfg.Metrics,
	}
}

// GetByRegionID returns the weather of a region.
func (s *Service) GetByRegionID(ctx context.Context, regionID int64) (*models.WeatherData, error) {
	if regionID <= 0 {
		return nil, apperr.Invalid("regionId", "must be positive")
	}

	d, err := s.repo.GetByRegionID(ctx, regionID)
	if err != nil {
		return nil, err
	}
	return s.toAPIWeather(ctx, d)
}

// Search returns a page of weather records. Omitted time bounds are open.
func (s *Service) Search(ctx context.Context, input models.WeatherSearch, offset, limit int) ([]models.WeatherData, error) {
	var fieldErrors []models.FieldError
	if input.RegionID != nil && *input.RegionID <= 0 {
		fieldErrors = append(fieldErrors, models.FieldError{Field: "regionId", Message: "must be positive", Code: "OUT_OF_RANGE"})
	}
	if offset < 0 {
		fieldErrors = append(fieldErrors, models.FieldError{Field: "from", Message: "must not be negative", Code: "OUT_OF_RANGE"})
	}
	if limit <= 0 {
		fieldErrors = append(fieldErrors, models.FieldError{Field: "size", Message: "must be positive", Code: "OUT_OF_RANGE"})
	}

	filter := SearchFilter{
		RegionID: input.RegionID,
		Start:    MinTime,
		End:      MaxTime,
	}
	if input.WeatherCondition != nil {
		c := Condition(*input.WeatherCondition)
		if !c.Valid() {
			fieldErrors = append(fieldErrors, ConditionFieldError("weatherCondition"))
		}
		filter.Condition = &c
	}
	if len(fieldErrors) > 0 {
		return nil, &apperr.ValidationError{Errors: fieldErrors}
	}

	if input.StartDateTime != nil {
		filter.Start = input.StartDateTime.Time()
	}
	if input.EndDateTime != nil {
		filter.End = input.EndDateTime.Time()
	}

	found, err := s.repo.Search(ctx, filter, offset, limit)
	if err != nil {
		return nil, err
	}

	items := make([]models.WeatherData, 0, len(found))
	for _, d := range found {
		item, err := s.toAPIWeather(ctx, d)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	return items, nil
}

// Create records the weather of an existing region.
func (s *Service) Create(ctx context.Context, input *models.WeatherCreateRequest) (*models.WeatherData, error) {
	var fieldErrors []models.FieldError
	if input.RegionID <= 0 {
		fieldErrors = append(fieldErrors, models.FieldError{Field: "regionId", Message: "must be positive", Code: "OUT_OF_RANGE"})
	}
	if input.MeasurementDateTime == nil {
		fieldErrors = append(fieldErrors, models.FieldError{Field: "measurementDateTime", Message: "is required", Code: "REQUIRED"})
	}
	fieldErrors = append(fieldErrors, validateAmounts(input.WindSpeed, input.PrecipitationAmount)...)
	if !Condition(input.WeatherCondition).Valid() {
		fieldErrors = append(fieldErrors, ConditionFieldError("weatherCondition"))
	}
	if len(fieldErrors) > 0 {
		return nil, &apperr.ValidationError{Errors: fieldErrors}
	}

	reg, err := s.regions.Get(ctx, input.RegionID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	d := &Data{
		RegionID:            input.RegionID,
		Temperature:         input.Temperature,
		Humidity:            input.Humidity,
		WindSpeed:           input.WindSpeed,
		Condition:           Condition(input.WeatherCondition),
		PrecipitationAmount: input.PrecipitationAmount,
		MeasuredAt:          input.MeasurementDateTime.Time(),
		ForecastIDs:         append([]int64{}, input.WeatherForecast...),
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if err := s.repo.Create(ctx, d); err != nil {
		if errors.Is(err, ErrWeatherExists) {
			s.metrics.Conflict(observability.EntityWeather)
		}
		return nil, err
	}

	s.metrics.Created(observability.EntityWeather)
	s.log.Debug().Int64("region_id", d.RegionID).Str("condition", string(d.Condition)).Msg("weather recorded")

	result := toAPIWeather(d, reg.Name)
	return &result, nil
}

// UpdateWeatherAndRegion overwrites the weather of a region and renames the
// region on behalf of actorID, who must be allowed to update the region. The
// region is written first.
func (s *Service) UpdateWeatherAndRegion(ctx context.Context, actorID, regionID int64, input *models.WeatherUpdateRequest) (*models.WeatherData, error) {
	if fieldErrors := validateUpdate(regionID, input); len(fieldErrors) > 0 {
		return nil, &apperr.ValidationError{Errors: fieldErrors}
	}

	reg, err := s.regions.Get(ctx, regionID)
	if err != nil {
		return nil, err
	}
	if !s.regions.IsAuthorizedToUpdate(actorID, regionID) {
		return nil, region.ErrNotAllowed
	}
	d, err := s.repo.GetByRegionID(ctx, regionID)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(*input.RegionName)
	d.Temperature = *input.Temperature
	d.Humidity = *input.Humidity
	d.WindSpeed = *input.WindSpeed
	d.Condition = Condition(*input.WeatherCondition)
	d.PrecipitationAmount = *input.PrecipitationAmount
	d.MeasuredAt = input.MeasurementDateTime.Time()
	d.UpdatedAt = s.clock.Now()

	if err := s.syncRegionAndWeather(ctx, reg.Name, name, d); err != nil {
		return nil, err
	}

	result := toAPIWeather(d, name)
	return &result, nil
}

// syncRegionAndWeather writes the region name and d, in one transaction when
// the repository supports it and as a compensated two-step write otherwise.
func (s *Service) syncRegionAndWeather(ctx context.Context, previousName, name string, d *Data) error {
	ctx, span := telemetry.Tracer(tracerName).Start(ctx, "weather.syncRegionAndWeather",
		trace.WithAttributes(attribute.Int64("region.id", d.RegionID)))
	defer span.End()

	var err error
	if atomic, ok := s.repo.(AtomicRegionUpdater); ok {
		span.SetAttributes(attribute.String("region_sync.mode", syncModeTransaction))
		if err = atomic.UpdateWithRegionName(ctx, d, name); err != nil {
			s.metrics.RegionWeatherSync(syncModeTransaction, syncFailed)
		} else {
			s.metrics.RegionWeatherSync(syncModeTransaction, syncSuccess)
		}
	} else {
		span.SetAttributes(attribute.String("region_sync.mode", syncModeSaga))
		err = s.renameThenUpdate(ctx, previousName, name, d)
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "region sync failed")
	}
	return err
}

// renameThenUpdate renames the region, then writes d. When the weather write
// fails the rename is reverted.
func (s *Service) renameThenUpdate(ctx context.Context, previousName, name string, d *Data) error {
	if _, err := s.regions.Rename(ctx, d.RegionID, name); err != nil {
		s.metrics.RegionWeatherSync(syncModeSaga, syncFailed)
		return err
	}

	updateErr := s.repo.Update(ctx, d)
	if updateErr == nil {
		s.metrics.RegionWeatherSync(syncModeSaga, syncSuccess)
		return nil
	}

	logger := s.log.With().
		Int64("region_id", d.RegionID).
		Str("previous_name", previousName).
		Str("new_name", name).
		AnErr("update_error", updateErr).
		Logger()

	if _, err := s.regions.Rename(ctx, d.RegionID, previousName); err != nil {
		s.metrics.RegionWeatherSync(syncModeSaga, syncInconsistent)
		logger.Error().Err(err).Msg("region renamed but weather not updated; restoring the previous name failed")
	} else {
		s.metrics.RegionWeatherSync(syncModeSaga, syncCompensated)
		logger.Warn().Msg("weather update failed; region name restored")
	}

	return fmt.Errorf("%w: %w", ErrRegionSyncFailed, updateErr)
}

// DeleteByRegionID removes the weather of a region.
func (s *Service) DeleteByRegionID(ctx context.Context, regionID int64) error {
	if regionID <= 0 {
		return apperr.Invalid("regionId", "must be positive")
	}

	if err := s.repo.DeleteByRegionID(ctx, regionID); err != nil {
		return err
	}

	s.metrics.Deleted(observability.EntityWeather)
	return nil
}

// MergeForecastIntoRegion appends forecastID to the forecast ids of the
// region's weather. Duplicates are kept.
func (s *Service) MergeForecastIntoRegion(ctx context.Context, regionID, forecastID int64) (*models.WeatherData, error) {
	d, err := s.repo.UpdateForecastIDs(ctx, regionID, s.clock.Now(), func(ids []int64) []int64 {
		return append(ids, forecastID)
	})
	if err != nil {
		return nil, err
	}
	return s.toAPIWeather(ctx, d)
}

// RemoveForecastFromRegion removes the first occurrence of forecastID from
// the forecast ids of the region's weather. A missing id is not an error.
func (s *Service) RemoveForecastFromRegion(ctx context.Context, regionID, forecastID int64) (*models.WeatherData, error) {
	d, err := s.repo.UpdateForecastIDs(ctx, regionID, s.clock.Now(), func(ids []int64) []int64 {
		for i, id := range ids {
			if id == forecastID {
				return append(ids[:i], ids[i+1:]...)
			}
		}
		return ids
	})
	if err != nil {
		return nil, err
	}
	return s.toAPIWeather(ctx, d)
}

// toAPIWeather resolves the region name of d.
func (s *Service) toAPIWeather(ctx context.Context, d *Data) (*models.WeatherData, error) {
	name := UnknownRegionName
	reg, err := s.regions.Get(ctx, d.RegionID)
	switch {
	case err == nil:
		name = reg.Name
	case !errors.Is(err, region.ErrRegionNotFound):
		return nil, err
	}

	result := toAPIWeather(d, name)
	return &result, nil
}

func validateUpdate(regionID int64, input *models.WeatherUpdateRequest) []models.FieldError {
	var errs []models.FieldError
	required := func(field string) {
		errs = append(errs, models.FieldError{Field: field, Message: "is required", Code: "REQUIRED"})
	}

	if regionID <= 0 {
		errs = append(errs, models.FieldError{Field: "regionId", Message: "must be positive", Code: "OUT_OF_RANGE"})
	}
	if input.RegionName == nil || strings.TrimSpace(*input.RegionName) == "" {
		required("regionName")
	}
	if input.Temperature == nil {
		required("temperature")
	}
	if input.Humidity == nil {
		required("humidity")
	}
	if input.WindSpeed == nil {
		required("windSpeed")
	}
	if input.PrecipitationAmount == nil {
		required("precipitationAmount")
	}
	if input.MeasurementDateTime == nil {
		required("measurementDateTime")
	}
	if input.WeatherCondition == nil {
		required("weatherCondition")
	} else if !Condition(*input.WeatherCondition).Valid() {
		errs = append(errs, ConditionFieldError("weatherCondition"))
	}

	if input.WindSpeed != nil && input.PrecipitationAmount != nil {
		errs = append(errs, validateAmounts(*input.WindSpeed, *input.PrecipitationAmount)...)
	}
	return errs
}

func validateAmounts(windSpeed, precipitation float64) []models.FieldError {
	var errs []models.FieldError
	if windSpeed < 0 {
		errs = append(errs, models.FieldError{Field: "windSpeed", Message: "must not be negative", Code: "OUT_OF_RANGE"})
	}
	if precipitation < 0 {
		errs = append(errs, models.FieldError{Field: "precipitationAmount", Message: "must not be negative", Code: "OUT_OF_RANGE"})
	}
	return errs
}

// toAPIWeather converts a domain Data to an API WeatherData.
func toAPIWeather(d *Data, regionName string) models.WeatherData {
	ids := d.ForecastIDs
	if ids == nil {
		ids = []int64{}
	}
	return models.WeatherData{
		ID:                  d.ID,
		RegionID:            d.RegionID,
		RegionName:          regionName,
		Temperature:         d.Temperature,
		Humidity:            d.Humidity,
		WindSpeed:           d.WindSpeed,
		WeatherCondition:    models.WeatherCondition(d.Condition),
		PrecipitationAmount: d.PrecipitationAmount,
		MeasurementDateTime: models.Timestamp(d.MeasuredAt),
		WeatherForecast:     ids,
	}
}
