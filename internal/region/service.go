package region

import (
	"context"
	"errors"
	"strings"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/climatica/climatica/internal/api/models"
	"github.com/climatica/climatica/internal/apperr"
	"github.com/climatica/climatica/internal/authz"
	"github.com/climatica/climatica/internal/observability"
)

// ServiceConfig holds configuration for the region service.
type ServiceConfig struct {
	Repository Repository
	Logger     zerolog.Logger
	Clock      clockwork.Clock
	Metrics    *observability.Metrics

	// CanUpdate and CanDelete gate mutations. Nil means authz.AllowAll.
	CanUpdate authz.Policy
	CanDelete authz.Policy
}

// Service provides region operations.
type Service struct {
	repo      Repository
	log       zerolog.Logger
	clock     clockwork.Clock
	metrics   *observability.Metrics
	canUpdate authz.Policy
	canDelete authz.Policy
}

// NewService creates a new region service.
func NewService(cfg ServiceConfig) *Service {
	clock := cfg.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Service{
		repo:      cfg.Repository,
		log:       cfg.Logger.With().Str("component", "region").Logger(),
		clock:     clock,
		metrics:   cfg.Metrics,
		canUpdate: authz.OrDefault(cfg.CanUpdate),
		canDelete: authz.OrDefault(cfg.CanDelete),
	}
}

// Get retrieves a region by ID.
func (s *Service) Get(ctx context.Context, id int64) (*models.Region, error) {
	reg, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	result := toAPIRegion(reg)
	return &result, nil
}

// Create creates a region owned by ownerID. The exact (latitude, longitude)
// pair must not be in use.
func (s *Service) Create(ctx context.Context, ownerID int64, input *models.RegionRequest) (*models.Region, error) {
	if fieldErrors := validateInput(input); len(fieldErrors) > 0 {
		return nil, &apperr.ValidationError{Errors: fieldErrors}
	}

	taken, err := s.repo.ExistsAt(ctx, *input.Latitude, *input.Longitude)
	if err != nil {
		return nil, err
	}
	if taken {
		s.metrics.Conflict(observability.EntityRegion)
		return nil, ErrCoordinatesTaken
	}

	now := s.clock.Now()
	reg := &Region{
		Name:           strings.TrimSpace(*input.Name),
		Latitude:       *input.Latitude,
		Longitude:      *input.Longitude,
		RegionTypeID:   input.RegionTypeID,
		ParentRegion:   input.ParentRegion,
		OwnerAccountID: ownerID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.repo.Create(ctx, reg); err != nil {
		if errors.Is(err, ErrCoordinatesTaken) {
			s.metrics.Conflict(observability.EntityRegion)
		}
		return nil, err
	}

	s.metrics.Created(observability.EntityRegion)
	s.log.Debug().Int64("region_id", reg.ID).Int64("owner_id", ownerID).Msg("region created")

	result := toAPIRegion(reg)
	return &result, nil
}

// Update replaces the attributes of a region on behalf of actorID. The
// owner is preserved. Coordinates are not pre-checked for uniqueness here;
// a collision is still rejected by the repository.
func (s *Service) Update(ctx context.Context, actorID, id int64, input *models.RegionRequest) (*models.Region, error) {
	if fieldErrors := validateInput(input); len(fieldErrors) > 0 {
		return nil, &apperr.ValidationError{Errors: fieldErrors}
	}

	reg, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if !s.IsAuthorizedToUpdate(actorID, id) {
		return nil, ErrNotAllowed
	}

	reg.Name = strings.TrimSpace(*input.Name)
	reg.Latitude = *input.Latitude
	reg.Longitude = *input.Longitude
	reg.RegionTypeID = input.RegionTypeID
	reg.ParentRegion = input.ParentRegion
	reg.UpdatedAt = s.clock.Now()

	if err := s.repo.Update(ctx, reg); err != nil {
		if errors.Is(err, ErrCoordinatesTaken) {
			s.metrics.Conflict(observability.EntityRegion)
		}
		return nil, err
	}

	result := toAPIRegion(reg)
	return &result, nil
}

// Delete removes a region on behalf of actorID. It reports false, not an
// error, when the region does not exist.
func (s *Service) Delete(ctx context.Context, actorID, id int64) (bool, error) {
	if _, err := s.repo.Get(ctx, id); err != nil {
		if errors.Is(err, ErrRegionNotFound) {
			return false, nil
		}
		return false, err
	}

	if !s.IsAuthorizedToDelete(actorID, id) {
		return false, ErrNotAllowed
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, ErrRegionNotFound) {
			return false, nil
		}
		return false, err
	}

	s.metrics.Deleted(observability.EntityRegion)
	return true, nil
}

// Rename sets the name of region id. It bypasses the update policy and is
// meant for internal callers keeping a denormalised name in sync.
func (s *Service) Rename(ctx context.Context, id int64, name string) (*models.Region, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.Invalid("regionName", "is required")
	}

	reg, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	reg.Name = name
	reg.UpdatedAt = s.clock.Now()
	if err := s.repo.Update(ctx, reg); err != nil {
		return nil, err
	}

	result := toAPIRegion(reg)
	return &result, nil
}

// OwnerOnly returns a policy permitting only the owning account of a region.
// Unknown regions are denied.
func OwnerOnly(repo Repository) authz.Policy {
	return func(actorID, regionID int64) bool {
		reg, err := repo.Get(context.Background(), regionID)
		if err != nil {
			return false
		}
		return reg.OwnerAccountID == actorID
	}
}

// IsAuthorizedToUpdate reports whether actorID may update region id.
func (s *Service) IsAuthorizedToUpdate(actorID, id int64) bool {
	return s.canUpdate(actorID, id)
}

// IsAuthorizedToDelete reports whether actorID may delete region id.
func (s *Service) IsAuthorizedToDelete(actorID, id int64) bool {
	return s.canDelete(actorID, id)
}

func validateInput(input *models.RegionRequest) []models.FieldError {
	var errs []models.FieldError

	if input.Name == nil || strings.TrimSpace(*input.Name) == "" {
		errs = append(errs, models.FieldError{Field: "name", Message: "is required", Code: "REQUIRED"})
	}

	switch {
	case input.Latitude == nil:
		errs = append(errs, models.FieldError{Field: "latitude", Message: "is required", Code: "REQUIRED"})
	case *input.Latitude < -90 || *input.Latitude > 90:
		errs = append(errs, models.FieldError{Field: "latitude", Message: "must be between -90 and 90", Code: "OUT_OF_RANGE"})
	}

	switch {
	case input.Longitude == nil:
		errs = append(errs, models.FieldError{Field: "longitude", Message: "is required", Code: "REQUIRED"})
	case *input.Longitude < -180 || *input.Longitude > 180:
		errs = append(errs, models.FieldError{Field: "longitude", Message: "must be between -180 and 180", Code: "OUT_OF_RANGE"})
	}

	return errs
}

// toAPIRegion converts a domain Region to an API Region.
func toAPIRegion(reg *Region) models.Region {
	return models.Region{
		ID:           reg.ID,
		Name:         reg.Name,
		Latitude:     reg.Latitude,
		Longitude:    reg.Longitude,
		RegionTypeID: reg.RegionTypeID,
		ParentRegion: reg.ParentRegion,
		AccountID:    reg.OwnerAccountID,
	}
}
