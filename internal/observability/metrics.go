// Package observability holds the Prometheus domain metrics of the service.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "climatica"

// Metrics holds the Prometheus counters recorded by the domain services.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	AccountsRegistered prometheus.Counter
	Logins             *prometheus.CounterVec // labels: outcome={success,unknown_account,bad_password}
	EntitiesCreated    *prometheus.CounterVec // labels: entity
	EntitiesDeleted    *prometheus.CounterVec // labels: entity
	Conflicts          *prometheus.CounterVec // labels: entity
	RegionWeatherSyncs *prometheus.CounterVec // labels: mode={transaction,saga}, outcome={success,compensated,inconsistent}
}

// NewMetrics creates and registers all domain metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.AccountsRegistered,
		m.Logins,
		m.EntitiesCreated,
		m.EntitiesDeleted,
		m.Conflicts,
		m.RegionWeatherSyncs,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, so tests can
// build as many as they need.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		AccountsRegistered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "accounts_registered_total",
			Help:      "Total accounts created through registration.",
		}),
		Logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "logins_total",
			Help:      "Login attempts by outcome.",
		}, []string{"outcome"}),
		EntitiesCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "entities_created_total",
			Help:      "Records created by entity.",
		}, []string{"entity"}),
		EntitiesDeleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "entities_deleted_total",
			Help:      "Records deleted by entity.",
		}, []string{"entity"}),
		Conflicts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "uniqueness_conflicts_total",
			Help:      "Writes rejected by a uniqueness rule, by entity.",
		}, []string{"entity"}),
		RegionWeatherSyncs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "region_weather_syncs_total",
			Help:      "Combined region and weather updates by mode and outcome.",
		}, []string{"mode", "outcome"}),
	}
}

// Entity labels.
const (
	EntityAccount    = "account"
	EntityRegion     = "region"
	EntityRegionType = "region_type"
	EntityWeather    = "weather"
	EntityForecast   = "forecast"
)

// Registered records a successful registration.
func (m *Metrics) Registered() {
	if m == nil {
		return
	}
	m.AccountsRegistered.Inc()
}

// Login records a login attempt outcome.
func (m *Metrics) Login(outcome string) {
	if m == nil {
		return
	}
	m.Logins.WithLabelValues(outcome).Inc()
}

// Created records a created record of the given entity.
func (m *Metrics) Created(entity string) {
	if m == nil {
		return
	}
	m.EntitiesCreated.WithLabelValues(entity).Inc()
}

// Deleted records a deleted record of the given entity.
func (m *Metrics) Deleted(entity string) {
	if m == nil {
		return
	}
	m.EntitiesDeleted.WithLabelValues(entity).Inc()
}

// Conflict records a uniqueness rejection for the given entity.
func (m *Metrics) Conflict(entity string) {
	if m == nil {
		return
	}
	m.Conflicts.WithLabelValues(entity).Inc()
}

// RegionWeatherSync records the outcome of a combined region and weather update.
func (m *Metrics) RegionWeatherSync(mode, outcome string) {
	if m == nil {
		return
	}
	m.RegionWeatherSyncs.WithLabelValues(mode, outcome).Inc()
}
