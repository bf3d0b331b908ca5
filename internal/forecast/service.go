package forecast

import (
	"context"
	"errors"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/climatica/climatica/internal/api/models"
	"github.com/climatica/climatica/internal/apperr"
	"github.com/climatica/climatica/internal/observability"
	"github.com/climatica/climatica/internal/weather"
)

// ServiceConfig holds configuration for the forecast service.
type ServiceConfig struct {
	Repository Repository
	Logger     zerolog.Logger
	Clock      clockwork.Clock
	Metrics    *observability.Metrics
}

// Service provides forecast operations.
type Service struct {
	repo    Repository
	log     zerolog.Logger
	clock   clockwork.Clock
	metrics *observability.Metrics
}

// NewService creates a new forecast service.
func NewService(cfg ServiceConfig) *Service {
	clock := cfg.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Service{
		repo:    cfg.Repository,
		log:     cfg.Logger.With().Str("component", "forecast").Logger(),
		clock:   clock,
		metrics: cfg.Metrics,
	}
}

// Get retrieves a forecast by ID.
func (s *Service) Get(ctx context.Context, id int64) (*models.Forecast, error) {
	f, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	result := toAPIForecast(f)
	return &result, nil
}

// Create stores a forecast. The region is not looked up.
func (s *Service) Create(ctx context.Context, input *models.ForecastCreateRequest) (*models.Forecast, error) {
	var fieldErrors []models.FieldError
	if input.RegionID <= 0 {
		fieldErrors = append(fieldErrors, models.FieldError{Field: "regionId", Message: "must be positive", Code: "OUT_OF_RANGE"})
	}
	if input.DateTime == nil {
		fieldErrors = append(fieldErrors, models.FieldError{Field: "dateTime", Message: "is required", Code: "REQUIRED"})
	}
	if !weather.Condition(input.WeatherCondition).Valid() {
		fieldErrors = append(fieldErrors, weather.ConditionFieldError("weatherCondition"))
	}
	if len(fieldErrors) > 0 {
		return nil, &apperr.ValidationError{Errors: fieldErrors}
	}

	now := s.clock.Now()
	f := &Forecast{
		RegionID:    input.RegionID,
		DateTime:    input.DateTime.Time(),
		Temperature: input.Temperature,
		Condition:   weather.Condition(input.WeatherCondition),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Create(ctx, f); err != nil {
		return nil, err
	}

	s.metrics.Created(observability.EntityForecast)
	s.log.Debug().Int64("forecast_id", f.ID).Int64("region_id", f.RegionID).Msg("forecast created")

	result := toAPIForecast(f)
	return &result, nil
}

// Update overwrites the date of a forecast and whichever of temperature and
// condition are supplied.
func (s *Service) Update(ctx context.Context, id int64, input *models.ForecastUpdateRequest) (*models.Forecast, error) {
	var fieldErrors []models.FieldError
	if input.DateTime == nil {
		fieldErrors = append(fieldErrors, models.FieldError{Field: "dateTime", Message: "is required", Code: "REQUIRED"})
	}
	if input.WeatherCondition != nil && !weather.Condition(*input.WeatherCondition).Valid() {
		fieldErrors = append(fieldErrors, weather.ConditionFieldError("weatherCondition"))
	}
	if len(fieldErrors) > 0 {
		return nil, &apperr.ValidationError{Errors: fieldErrors}
	}

	f, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	f.DateTime = input.DateTime.Time()
	if input.Temperature != nil {
		f.Temperature = *input.Temperature
	}
	if input.WeatherCondition != nil {
		f.Condition = weather.Condition(*input.WeatherCondition)
	}
	f.UpdatedAt = s.clock.Now()

	if err := s.repo.Update(ctx, f); err != nil {
		return nil, err
	}

	result := toAPIForecast(f)
	return &result, nil
}

// Delete removes a forecast. It reports false, not an error, when the
// forecast does not exist.
func (s *Service) Delete(ctx context.Context, id int64) (bool, error) {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, ErrForecastNotFound) {
			return false, nil
		}
		return false, err
	}

	s.metrics.Deleted(observability.EntityForecast)
	return true, nil
}

// toAPIForecast converts a domain Forecast to an API Forecast.
func toAPIForecast(f *Forecast) models.Forecast {
	return models.Forecast{
		ID:               f.ID,
		RegionID:         f.RegionID,
		DateTime:         models.Timestamp(f.DateTime),
		Temperature:      f.Temperature,
		WeatherCondition: models.WeatherCondition(f.Condition),
	}
}
