// Package api provides the HTTP API for Climatica.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/climatica/climatica/internal/account"
	"github.com/climatica/climatica/internal/api/handler"
	"github.com/climatica/climatica/internal/api/middleware"
	"github.com/climatica/climatica/internal/auth"
	"github.com/climatica/climatica/internal/forecast"
	"github.com/climatica/climatica/internal/region"
	"github.com/climatica/climatica/internal/regiontype"
	"github.com/climatica/climatica/internal/weather"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Version     string
	BuildTime   string
	Logger      zerolog.Logger
	ServiceName string
	Metrics     *middleware.Metrics

	// Database backs the readiness probe. Nil reports in-memory storage.
	Database handler.ReadinessChecker
	// RequireTLS rejects requests forwarded over plain HTTP.
	RequireTLS bool
	// AuthRateLimit and StandardRateLimit default to the middleware budgets.
	AuthRateLimit     middleware.RateLimitConfig
	StandardRateLimit middleware.RateLimitConfig
	// MetricsHandler serves GET /ops/metrics. Defaults to promhttp.Handler().
	MetricsHandler http.Handler

	AuthService       *auth.Service
	AccountService    *account.Service
	RegionService     *region.Service
	RegionTypeService *regiontype.Service
	WeatherService    *weather.Service
	ForecastService   *forecast.Service
}

// NewRouter creates a new chi router with all API routes configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "climatica-api"
	}
	metricsHandler := cfg.MetricsHandler
	if metricsHandler == nil {
		metricsHandler = promhttp.Handler()
	}

	// Global middleware, outermost first
	r.Use(middleware.RequestID)
	r.Use(middleware.Tracing(serviceName))
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware())
	}
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.RequireTLS(cfg.RequireTLS))
	r.Use(middleware.RequireJSON)
	r.Use(middleware.ContentTypeJSON)

	// Initialize handlers
	opsHandler := handler.NewOpsHandler(handler.OpsConfig{
		Version:   cfg.Version,
		BuildTime: cfg.BuildTime,
		Database:  cfg.Database,
		Logger:    cfg.Logger,
	})
	accountHandler := handler.NewAccountHandler(cfg.AccountService, cfg.AuthService, cfg.Logger)
	regionHandler := handler.NewRegionHandler(cfg.RegionService, cfg.RegionTypeService, cfg.Logger)
	weatherHandler := handler.NewWeatherHandler(cfg.WeatherService, cfg.ForecastService, cfg.Logger)

	authMiddleware := middleware.Auth(cfg.AuthService)
	authRateLimit := middleware.RateLimitByIP(cfg.AuthRateLimit.Or(middleware.AuthRateLimit))
	accountRateLimit := middleware.RateLimitByAccount(cfg.StandardRateLimit.Or(middleware.StandardRateLimit))

	// Ops endpoints (public)
	r.Route("/ops", func(r chi.Router) {
		r.Get("/health", opsHandler.HealthCheck)
		r.Get("/ready", opsHandler.ReadinessCheck)
		r.Method(http.MethodGet, "/metrics", metricsHandler)
	})

	// Identity endpoints (public) - strict rate limiting
	r.Group(func(r chi.Router) {
		r.Use(authRateLimit)
		r.With(middleware.OptionalAuth(cfg.AuthService)).Post("/registration", accountHandler.Register)
		r.Post("/login", accountHandler.Login)
	})

	// Everything else requires an access token
	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)
		r.Use(accountRateLimit)

		r.Route("/accounts", func(r chi.Router) {
			r.Get("/search", accountHandler.SearchAccounts)
			r.Route("/{accountId}", func(r chi.Router) {
				r.Get("/", accountHandler.GetAccount)
				r.Put("/", accountHandler.UpdateAccount)
				r.Delete("/", accountHandler.DeleteAccount)
			})
		})

		r.Route("/region", func(r chi.Router) {
			r.Post("/", regionHandler.CreateRegion)

			r.Route("/types", func(r chi.Router) {
				r.Post("/", regionHandler.CreateRegionType)
				r.Route("/{typeId}", func(r chi.Router) {
					r.Get("/", regionHandler.GetRegionType)
					r.Put("/", regionHandler.UpdateRegionType)
					r.Delete("/", regionHandler.DeleteRegionType)
				})
			})

			r.Route("/weather", func(r chi.Router) {
				r.Post("/", weatherHandler.CreateWeather)
				r.Get("/search", weatherHandler.SearchWeather)

				r.Route("/forecast", func(r chi.Router) {
					r.Post("/", weatherHandler.CreateForecast)
					r.Route("/{forecastId}", func(r chi.Router) {
						r.Get("/", weatherHandler.GetForecast)
						r.Put("/", weatherHandler.UpdateForecast)
						r.Delete("/", weatherHandler.DeleteForecast)
					})
				})

				r.Route("/{regionId}", func(r chi.Router) {
					r.Get("/", weatherHandler.GetWeather)
					r.Put("/", weatherHandler.UpdateWeather)
					r.Delete("/", weatherHandler.DeleteWeather)
				})
			})

			r.Route("/{regionId}", func(r chi.Router) {
				r.Get("/", regionHandler.GetRegion)
				r.Put("/", regionHandler.UpdateRegion)
				r.Delete("/", regionHandler.DeleteRegion)

				r.Post("/weather/{forecastId}", weatherHandler.MergeForecast)
				r.Delete("/weather/{forecastId}", weatherHandler.RemoveForecast)
			})
		})
	})

	return r
}
