package database

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker/v2"
)

// ErrCircuitOpen is returned by HealthChecker.Check while the breaker is open.
var ErrCircuitOpen = errors.New("database health circuit open")

// Pinger is satisfied by *pgxpool.Pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthConfig holds configuration for the database health checker.
type HealthConfig struct {
	// Timeout bounds a single ping.
	// Default: 2 seconds
	Timeout time.Duration

	// OpenTimeout is the period of open state before switching to half-open.
	// Default: 30 seconds
	OpenTimeout time.Duration

	// OnStateChange is called when the breaker state changes.
	OnStateChange func(name string, from gobreaker.State, to gobreaker.State)
}

// HealthChecker pings the database behind a circuit breaker, so a failing
// database is not hammered by readiness probes.
type HealthChecker struct {
	pinger  Pinger
	timeout time.Duration
	breaker *gobreaker.CircuitBreaker[struct{}]
}

// NewHealthChecker creates a HealthChecker for the given pinger.
func NewHealthChecker(p Pinger, cfg HealthConfig) *HealthChecker {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 2 * time.Second
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = 30 * time.Second
	}

	settings := gobreaker.Settings{
		Name:        "postgres",
		MaxRequests: 1,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: readyToTrip,
	}
	if cfg.OnStateChange != nil {
		settings.OnStateChange = cfg.OnStateChange
	}

	return &HealthChecker{
		pinger:  p,
		timeout: cfg.Timeout,
		breaker: gobreaker.NewCircuitBreaker[struct{}](settings),
	}
}

// readyToTrip opens the breaker after three consecutive failed pings.
func readyToTrip(counts gobreaker.Counts) bool {
	return counts.ConsecutiveFailures >= 3
}

// Check pings the database. It returns ErrCircuitOpen without pinging while
// the breaker is open.
func (h *HealthChecker) Check(ctx context.Context) error {
	_, err := h.breaker.Execute(func() (struct{}, error) {
		pingCtx, cancel := context.WithTimeout(ctx, h.timeout)
		defer cancel()
		return struct{}{}, h.pinger.Ping(pingCtx)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return ErrCircuitOpen
	}
	return err
}

// State returns the current breaker state.
func (h *HealthChecker) State() gobreaker.State {
	return h.breaker.State()
}
