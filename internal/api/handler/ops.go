// Package handler provides HTTP handlers for the Climatica API.
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/climatica/climatica/internal/api/models"
	"github.com/climatica/climatica/internal/api/response"
)

// ReadinessChecker reports whether a dependency can serve traffic.
type ReadinessChecker interface {
	Check(ctx context.Context) error
}

// OpsHandler serves the /ops probes.
type OpsHandler struct {
	version   string
	buildTime string
	database  ReadinessChecker
	clock     clockwork.Clock
	started   time.Time
	log       zerolog.Logger
}

// OpsConfig holds configuration for the ops handler.
type OpsConfig struct {
	Version   string
	BuildTime string
	// Database is nil when the service runs on in-memory storage.
	Database ReadinessChecker
	Clock    clockwork.Clock
	Logger   zerolog.Logger
}

// NewOpsHandler creates a new OpsHandler.
func NewOpsHandler(cfg OpsConfig) *OpsHandler {
	clock := cfg.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &OpsHandler{
		version:   cfg.Version,
		buildTime: cfg.BuildTime,
		database:  cfg.Database,
		clock:     clock,
		started:   clock.Now(),
		log:       cfg.Logger,
	}
}

// HealthCheck handles GET /ops/health. It never touches dependencies.
func (h *OpsHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	now := h.clock.Now()
	response.JSON(w, r, http.StatusOK, models.Health{
		Status:    models.HealthStatusOK,
		Time:      models.Timestamp(now),
		Version:   h.version,
		BuildTime: h.buildTime,
		Uptime:    now.Sub(h.started).Truncate(time.Second).String(),
	})
}

// ReadinessCheck handles GET /ops/ready.
func (h *OpsHandler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	storage := models.Dependency{Name: "storage", Status: models.HealthStatusOK, Backend: "memory"}

	if h.database != nil {
		storage.Backend = "postgres"
		if err := h.database.Check(r.Context()); err != nil {
			h.log.Warn().Err(err).Str("dependency", storage.Name).Msg("readiness check failed")
			response.ServiceUnavailable(w, r, "database is not reachable")
			return
		}
	}

	response.JSON(w, r, http.StatusOK, models.Readiness{
		Status:       models.HealthStatusOK,
		Time:         models.Timestamp(h.clock.Now()),
		Dependencies: []models.Dependency{storage},
	})
}
