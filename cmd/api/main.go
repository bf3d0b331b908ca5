// Package main provides the entrypoint for the Climatica API server.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"

	"github.com/climatica/climatica/internal/account"
	"github.com/climatica/climatica/internal/api"
	"github.com/climatica/climatica/internal/api/handler"
	"github.com/climatica/climatica/internal/api/middleware"
	"github.com/climatica/climatica/internal/auth"
	"github.com/climatica/climatica/internal/authz"
	"github.com/climatica/climatica/internal/config"
	"github.com/climatica/climatica/internal/database"
	"github.com/climatica/climatica/internal/forecast"
	"github.com/climatica/climatica/internal/observability"
	"github.com/climatica/climatica/internal/region"
	"github.com/climatica/climatica/internal/regiontype"
	"github.com/climatica/climatica/internal/telemetry"
	"github.com/climatica/climatica/internal/weather"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

// repositories holds the storage backend of every service.
type repositories struct {
	accounts    account.Repository
	regions     region.Repository
	regionTypes regiontype.Repository
	weather     weather.Repository
	forecasts   forecast.Repository
}

func memoryRepositories() repositories {
	return repositories{
		accounts:    account.NewInMemoryRepository(),
		regions:     region.NewInMemoryRepository(),
		regionTypes: regiontype.NewInMemoryRepository(),
		weather:     weather.NewInMemoryRepository(),
		forecasts:   forecast.NewInMemoryRepository(),
	}
}

func postgresRepositories(pool *pgxpool.Pool) repositories {
	return repositories{
		accounts:    account.NewPostgresRepository(pool),
		regions:     region.NewPostgresRepository(pool),
		regionTypes: regiontype.NewPostgresRepository(pool),
		weather:     weather.NewPostgresRepository(pool),
		forecasts:   forecast.NewPostgresRepository(pool),
	}
}

func newLogger(cfg *config.Config, serviceName string) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	var log zerolog.Logger
	if cfg.LogFormat == "console" {
		log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
	} else {
		log = zerolog.New(os.Stdout)
	}

	return log.Level(level).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()
}

func main() {
	const serviceName = "climatica-api"

	cfg, err := config.Load()
	if err != nil {
		bootLog := zerolog.New(os.Stderr)
		bootLog.Fatal().Err(err).Msg("failed to load configuration")
	}

	log := newLogger(cfg, serviceName)

	log.Info().
		Str("build_time", BuildTime).
		Str("env", cfg.Env).
		Str("store", cfg.StoreDriver).
		Msg("starting Climatica API")

	// Initialize OpenTelemetry
	ctx := context.Background()

	tp, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    serviceName,
		ServiceVersion: Version,
		Environment:    cfg.Env,
		OTLPEndpoint:   cfg.Telemetry.OTLPEndpoint,
		Enabled:        cfg.Telemetry.Enabled,
		SampleRatio:    cfg.Telemetry.SampleRatio,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize telemetry")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()

	if cfg.Telemetry.Enabled {
		log.Info().
			Str("otlp_endpoint", cfg.Telemetry.OTLPEndpoint).
			Msg("OpenTelemetry initialized")
	}

	// Initialize metrics
	httpMetrics, err := middleware.NewMetrics()
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize metrics")
		os.Exit(1) //nolint:gocritic // intentional exit, telemetry cleanup is best-effort
	}
	domainMetrics := observability.NewMetrics()

	// Storage
	repos := memoryRepositories()
	var readiness handler.ReadinessChecker
	if cfg.StoreDriver == config.StorePostgres {
		dbConfig := cfg.Database
		pool, err := database.ConnectWithRetry(ctx, database.Config{
			DSN:             dbConfig.DSN(),
			MaxConns:        int32(dbConfig.MaxConns), //nolint:gosec // bounded by config validation
			MinConns:        int32(dbConfig.MinConns), //nolint:gosec // bounded by config validation
			MaxConnLifetime: dbConfig.MaxConnLifetime,
			ConnectTimeout:  dbConfig.ConnectTimeout,
		}, log)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to database")
		}
		defer pool.Close()

		if err := database.Migrate(ctx, pool); err != nil {
			log.Fatal().Err(err).Msg("failed to apply database schema")
		}

		log.Info().
			Str("host", dbConfig.Host).
			Int("port", dbConfig.Port).
			Str("database", dbConfig.Name).
			Msg("database connected")

		repos = postgresRepositories(pool)
		readiness = database.NewHealthChecker(pool, database.HealthConfig{
			OnStateChange: func(name string, from, to gobreaker.State) {
				log.Warn().
					Str("breaker", name).
					Str("from", from.String()).
					Str("to", to.String()).
					Msg("database health circuit state changed")
			},
		})
	} else {
		log.Warn().Msg("using in-memory storage - data is lost on restart")
	}

	if cfg.UsesDefaultSigningKey() {
		log.Warn().Msg("using default JWT signing key - not secure for production")
	}

	// Authorization policies
	accountPolicy := authz.FromMode(cfg.AuthzMode)
	regionPolicy := authz.FromMode(cfg.AuthzMode)
	if cfg.AuthzMode == "self" {
		regionPolicy = region.OwnerOnly(repos.regions)
	}

	// Services
	accountService := account.NewService(account.ServiceConfig{
		Repository: repos.accounts,
		Hasher:     account.NewBcryptHasher(0),
		Logger:     log,
		Metrics:    domainMetrics,
		CanUpdate:  accountPolicy,
		CanDelete:  accountPolicy,
	})

	jwtService := auth.NewJWTService(auth.JWTConfig{
		SigningKey: cfg.JWT.SigningKey,
		Issuer:     cfg.JWT.Issuer,
		Audience:   cfg.JWT.Audience,
		TTL:        cfg.JWT.TTL,
	})
	authService := auth.NewService(auth.ServiceConfig{
		Accounts:   accountService,
		JWTService: jwtService,
	})

	regionService := region.NewService(region.ServiceConfig{
		Repository: repos.regions,
		Logger:     log,
		Metrics:    domainMetrics,
		CanUpdate:  regionPolicy,
		CanDelete:  regionPolicy,
	})
	regionTypeService := regiontype.NewService(regiontype.ServiceConfig{
		Repository: repos.regionTypes,
		Logger:     log,
		Metrics:    domainMetrics,
	})
	weatherService := weather.NewService(weather.ServiceConfig{
		Repository: repos.weather,
		Regions:    regionService,
		Logger:     log,
		Metrics:    domainMetrics,
	})
	forecastService := forecast.NewService(forecast.ServiceConfig{
		Repository: repos.forecasts,
		Logger:     log,
		Metrics:    domainMetrics,
	})
	log.Info().Str("authz_mode", cfg.AuthzMode).Msg("services initialized")

	// Create router with configuration
	router := api.NewRouter(api.RouterConfig{
		Version:           Version,
		BuildTime:         BuildTime,
		Logger:            log,
		ServiceName:       serviceName,
		Metrics:           httpMetrics,
		Database:          readiness,
		RequireTLS:        cfg.RequireTLS,
		AuthRateLimit:     perMinute(cfg.RateLimit.AuthPerMinute),
		StandardRateLimit: perMinute(cfg.RateLimit.StandardPerMinute),
		AuthService:       authService,
		AccountService:    accountService,
		RegionService:     regionService,
		RegionTypeService: regionTypeService,
		WeatherService:    weatherService,
		ForecastService:   forecastService,
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().
			Str("addr", server.Addr).
			Msg("server listening")

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
		os.Exit(1)
	}

	log.Info().Msg("server stopped")
}

func perMinute(n int) middleware.RateLimitConfig {
	return middleware.RateLimitConfig{RequestLimit: n, WindowLength: time.Minute}
}
