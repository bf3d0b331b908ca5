// Package config loads the runtime configuration of the API server.
//
// Values are resolved in three layers: built-in defaults, an optional YAML
// file named by CONFIG_FILE, and environment variables (including a .env file
// in the working directory). Later layers win.
package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultSigningKey is used when no JWT signing key is configured.
const DefaultSigningKey = "local-dev-signing-key-change-in-production"

// Storage drivers.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
)

// Config is the runtime configuration of the API server.
type Config struct {
	Port            string        `yaml:"port"`
	Env             string        `yaml:"env"`
	LogLevel        string        `yaml:"log_level"`
	LogFormat       string        `yaml:"log_format"`
	StoreDriver     string        `yaml:"store_driver"`
	AuthzMode       string        `yaml:"authz_mode"`
	RequireTLS      bool          `yaml:"require_tls"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Database  DatabaseConfig  `yaml:"database"`
	JWT       JWTConfig       `yaml:"jwt"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// RateLimitConfig holds per-minute request budgets. Zero keeps the server
// defaults.
type RateLimitConfig struct {
	AuthPerMinute     int `yaml:"auth_per_minute"`
	StandardPerMinute int `yaml:"standard_per_minute"`
}

// DatabaseConfig locates the PostgreSQL server. URL, when set, takes
// precedence over the individual fields.
type DatabaseConfig struct {
	URL             string        `yaml:"url"`
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	Name            string        `yaml:"name"`
	SSLMode         string        `yaml:"ssl_mode"`
	MaxConns        int           `yaml:"max_conns"`
	MinConns        int           `yaml:"min_conns"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"`
	ConnectTimeout  time.Duration `yaml:"connect_timeout"`
}

// DSN returns the postgres:// connection URL.
func (d DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     net.JoinHostPort(d.Host, strconv.Itoa(d.Port)),
		Path:     "/" + d.Name,
		RawQuery: url.Values{"sslmode": {d.SSLMode}}.Encode(),
	}
	return u.String()
}

// JWTConfig configures access token signing.
type JWTConfig struct {
	SigningKey string        `yaml:"signing_key"`
	Issuer     string        `yaml:"issuer"`
	Audience   string        `yaml:"audience"`
	TTL        time.Duration `yaml:"ttl"`
}

// TelemetryConfig configures OpenTelemetry export.
type TelemetryConfig struct {
	Enabled      bool    `yaml:"enabled"`
	OTLPEndpoint string  `yaml:"otlp_endpoint"`
	SampleRatio  float64 `yaml:"sample_ratio"`
}

func defaults() Config {
	return Config{
		Port:            "8080",
		Env:             "development",
		LogLevel:        "info",
		LogFormat:       "json",
		StoreDriver:     StorePostgres,
		AuthzMode:       "allow",
		ShutdownTimeout: 30 * time.Second,
		Database: DatabaseConfig{
			Host:            "localhost",
			Port:            5432,
			User:            "climatica",
			Password:        "localdev",
			Name:            "climatica",
			SSLMode:         "disable",
			MaxConns:        10,
			MinConns:        2,
			MaxConnLifetime: 5 * time.Minute,
			ConnectTimeout:  30 * time.Second,
		},
		JWT: JWTConfig{
			SigningKey: DefaultSigningKey,
			Issuer:     "https://api.climatica.dev",
			Audience:   "climatica-api",
			TTL:        time.Hour,
		},
		Telemetry: TelemetryConfig{
			OTLPEndpoint: "localhost:4317",
			SampleRatio:  1,
		},
	}
}

// Load resolves the configuration from defaults, CONFIG_FILE and the
// environment, then validates it.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := defaults()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// UsesDefaultSigningKey reports whether tokens are signed with the
// development key.
func (c *Config) UsesDefaultSigningKey() bool {
	return c.JWT.SigningKey == DefaultSigningKey
}

func (c *Config) applyEnv() error {
	setString(&c.Port, "APP_PORT")
	setString(&c.Env, "APP_ENV")
	setString(&c.LogLevel, "LOG_LEVEL")
	setString(&c.LogFormat, "LOG_FORMAT")
	setString(&c.StoreDriver, "STORE_DRIVER")
	setString(&c.AuthzMode, "AUTHZ_MODE")
	setString(&c.JWT.SigningKey, "JWT_SIGNING_KEY")
	setString(&c.JWT.Issuer, "JWT_ISSUER")
	setString(&c.JWT.Audience, "JWT_AUDIENCE")
	setString(&c.Telemetry.OTLPEndpoint, "OTEL_EXPORTER_OTLP_ENDPOINT")
	setString(&c.Database.URL, "DATABASE_URL")
	setString(&c.Database.Host, "DB_HOST")
	setString(&c.Database.User, "DB_USER")
	setString(&c.Database.Password, "DB_PASSWORD")
	setString(&c.Database.Name, "DB_NAME")
	setString(&c.Database.SSLMode, "DB_SSL_MODE")

	for key, dst := range map[string]*int{
		"DB_PORT":      &c.Database.Port,
		"DB_MAX_CONNS": &c.Database.MaxConns,
		"DB_MIN_CONNS": &c.Database.MinConns,

		"RATE_LIMIT_AUTH_PER_MINUTE":     &c.RateLimit.AuthPerMinute,
		"RATE_LIMIT_STANDARD_PER_MINUTE": &c.RateLimit.StandardPerMinute,
	} {
		if err := setInt(dst, key); err != nil {
			return err
		}
	}
	for key, dst := range map[string]*time.Duration{
		"DB_CONN_MAX_LIFETIME": &c.Database.MaxConnLifetime,
		"DB_CONNECT_TIMEOUT":   &c.Database.ConnectTimeout,
		"SHUTDOWN_TIMEOUT":     &c.ShutdownTimeout,
		"JWT_TTL":              &c.JWT.TTL,
	} {
		if err := setDuration(dst, key); err != nil {
			return err
		}
	}

	if err := setBool(&c.Telemetry.Enabled, "OTEL_ENABLED"); err != nil {
		return err
	}
	if err := setBool(&c.RequireTLS, "REQUIRE_TLS"); err != nil {
		return err
	}

	if v := os.Getenv("OTEL_SAMPLE_RATIO"); v != "" {
		ratio, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid OTEL_SAMPLE_RATIO %q: %w", v, err)
		}
		c.Telemetry.SampleRatio = ratio
	}

	return nil
}

func (c *Config) validate() error {
	var errs []error

	if _, err := strconv.Atoi(c.Port); err != nil {
		errs = append(errs, fmt.Errorf("port must be numeric, got %q", c.Port))
	}
	switch c.StoreDriver {
	case StoreMemory, StorePostgres:
	default:
		errs = append(errs, fmt.Errorf("store driver must be %q or %q, got %q", StoreMemory, StorePostgres, c.StoreDriver))
	}
	switch c.AuthzMode {
	case "allow", "self", "deny":
	default:
		errs = append(errs, fmt.Errorf("authz mode must be allow, self or deny, got %q", c.AuthzMode))
	}
	switch c.LogFormat {
	case "json", "console":
	default:
		errs = append(errs, fmt.Errorf("log format must be json or console, got %q", c.LogFormat))
	}
	if c.JWT.SigningKey == "" {
		errs = append(errs, errors.New("JWT signing key is required (set JWT_SIGNING_KEY or jwt.signing_key)"))
	}
	if c.JWT.TTL <= 0 {
		errs = append(errs, errors.New("JWT TTL must be positive"))
	}
	if c.ShutdownTimeout <= 0 {
		errs = append(errs, errors.New("shutdown timeout must be positive"))
	}
	if c.RateLimit.AuthPerMinute < 0 || c.RateLimit.StandardPerMinute < 0 {
		errs = append(errs, errors.New("rate limits must not be negative"))
	}
	if c.StoreDriver == StorePostgres {
		errs = append(errs, c.Database.validate())
	}
	if c.Env == "production" && c.UsesDefaultSigningKey() {
		errs = append(errs, errors.New("the development JWT signing key cannot be used in production"))
	}

	return errors.Join(errs...)
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setBool(dst *bool, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	*dst = b
	return nil
}

func setInt(dst *int, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	*dst = n
	return nil
}

func setDuration(dst *time.Duration, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	*dst = d
	return nil
}

func (d DatabaseConfig) validate() error {
	var errs []error
	if d.URL == "" && (d.Host == "" || d.Name == "") {
		errs = append(errs, errors.New("database host and name are required unless DATABASE_URL is set"))
	}
	if d.URL == "" && (d.Port <= 0 || d.Port > 65535) {
		errs = append(errs, fmt.Errorf("database port out of range: %d", d.Port))
	}
	if d.MaxConns < 1 || d.MinConns < 0 || d.MinConns > d.MaxConns {
		errs = append(errs, fmt.Errorf("database pool bounds invalid: min %d, max %d", d.MinConns, d.MaxConns))
	}
	if d.ConnectTimeout <= 0 {
		errs = append(errs, errors.New("database connect timeout must be positive"))
	}
	return errors.Join(errs...)
}
