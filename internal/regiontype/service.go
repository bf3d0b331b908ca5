package regiontype

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"

	"github.com/climatica/climatica/internal/api/models"
	"github.com/climatica/climatica/internal/apperr"
	"github.com/climatica/climatica/internal/observability"
)

// ServiceConfig holds configuration for the region type service.
type ServiceConfig struct {
	Repository Repository
	Logger     zerolog.Logger
	Metrics    *observability.Metrics
}

// Service provides region type operations.
type Service struct {
	repo    Repository
	log     zerolog.Logger
	metrics *observability.Metrics
}

// NewService creates a new region type service.
func NewService(cfg ServiceConfig) *Service {
	return &Service{
		repo:    cfg.Repository,
		log:     cfg.Logger.With().Str("component", "regiontype").Logger(),
		metrics: cfg.Metrics,
	}
}

// Get retrieves a region type by ID.
func (s *Service) Get(ctx context.Context, id int64) (*models.RegionType, error) {
	rt, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	result := toAPIRegionType(rt)
	return &result, nil
}

// Create adds a region type with a unique label.
func (s *Service) Create(ctx context.Context, label string) (*models.RegionType, error) {
	label, err := normalizeLabel(label)
	if err != nil {
		return nil, err
	}

	if err := s.ensureLabelFree(ctx, label, 0); err != nil {
		return nil, err
	}

	rt := &RegionType{Label: label}
	if err := s.repo.Create(ctx, rt); err != nil {
		if errors.Is(err, ErrTypeTaken) {
			s.metrics.Conflict(observability.EntityRegionType)
		}
		return nil, err
	}

	s.metrics.Created(observability.EntityRegionType)
	s.log.Debug().Int64("type_id", rt.ID).Str("type", rt.Label).Msg("region type created")

	result := toAPIRegionType(rt)
	return &result, nil
}

// Update relabels a region type. Keeping its own label is not a conflict.
func (s *Service) Update(ctx context.Context, id int64, label string) (*models.RegionType, error) {
	label, err := normalizeLabel(label)
	if err != nil {
		return nil, err
	}

	rt, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.ensureLabelFree(ctx, label, id); err != nil {
		return nil, err
	}

	rt.Label = label
	if err := s.repo.Update(ctx, rt); err != nil {
		if errors.Is(err, ErrTypeTaken) {
			s.metrics.Conflict(observability.EntityRegionType)
		}
		return nil, err
	}

	result := toAPIRegionType(rt)
	return &result, nil
}

// Delete removes a region type. Regions referencing it keep the dangling id.
// It reports false, not an error, when the type does not exist.
func (s *Service) Delete(ctx context.Context, id int64) (bool, error) {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, ErrTypeNotFound) {
			return false, nil
		}
		return false, err
	}

	s.metrics.Deleted(observability.EntityRegionType)
	return true, nil
}

// ensureLabelFree fails with ErrTypeTaken when a type other than self
// carries label.
func (s *Service) ensureLabelFree(ctx context.Context, label string, self int64) error {
	existing, err := s.repo.FindByLabel(ctx, label)
	switch {
	case errors.Is(err, ErrTypeNotFound):
		return nil
	case err != nil:
		return err
	case existing.ID != self:
		s.metrics.Conflict(observability.EntityRegionType)
		return ErrTypeTaken
	default:
		return nil
	}
}

func normalizeLabel(label string) (string, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return "", apperr.Invalid("type", "is required")
	}
	return label, nil
}

// toAPIRegionType converts a domain RegionType to an API RegionType.
func toAPIRegionType(rt *RegionType) models.RegionType {
	return models.RegionType{ID: rt.ID, Type: rt.Label}
}
