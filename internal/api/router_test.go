package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/climatica/climatica/internal/account"
	"github.com/climatica/climatica/internal/api"
	"github.com/climatica/climatica/internal/api/handler"
	"github.com/climatica/climatica/internal/api/models"
	"github.com/climatica/climatica/internal/auth"
	"github.com/climatica/climatica/internal/forecast"
	"github.com/climatica/climatica/internal/observability"
	"github.com/climatica/climatica/internal/region"
	"github.com/climatica/climatica/internal/regiontype"
	"github.com/climatica/climatica/internal/weather"
)

type failingChecker struct{}

type healthyChecker struct{}

func (healthyChecker) Check(_ context.Context) error { return nil }

func (failingChecker) Check(_ context.Context) error {
	return errors.New("connection refused")
}

// newTestRouter wires every service over in-memory repositories.
func newTestRouter(database handler.ReadinessChecker) http.Handler {
	logger := zerolog.New(io.Discard)
	metrics := observability.NewMetricsForTesting()

	accounts := account.NewService(account.ServiceConfig{
		Repository: account.NewInMemoryRepository(),
		Hasher:     account.NewBcryptHasher(bcrypt.MinCost),
		Logger:     logger,
		Metrics:    metrics,
	})
	jwtService := auth.NewJWTService(auth.JWTConfig{
		SigningKey: "test-secret-key-for-testing-only",
		Issuer:     "https://api.climatica.dev",
		Audience:   "climatica-api",
	})
	regions := region.NewService(region.ServiceConfig{
		Repository: region.NewInMemoryRepository(),
		Logger:     logger,
		Metrics:    metrics,
	})

	return api.NewRouter(api.RouterConfig{
		Version:   "test",
		BuildTime: "2024-01-01T00:00:00Z",
		Logger:    logger,
		Database:  database,
		AuthService: auth.NewService(auth.ServiceConfig{
			Accounts:   accounts,
			JWTService: jwtService,
		}),
		AccountService: accounts,
		RegionService:  regions,
		RegionTypeService: regiontype.NewService(regiontype.ServiceConfig{
			Repository: regiontype.NewInMemoryRepository(),
			Logger:     logger,
			Metrics:    metrics,
		}),
		WeatherService: weather.NewService(weather.ServiceConfig{
			Repository: weather.NewInMemoryRepository(),
			Regions:    regions,
			Logger:     logger,
			Metrics:    metrics,
		}),
		ForecastService: forecast.NewService(forecast.ServiceConfig{
			Repository: forecast.NewInMemoryRepository(),
			Logger:     logger,
			Metrics:    metrics,
		}),
	})
}

// send performs a request against the router. A non-empty token is sent as a
// Bearer credential.
func send(t *testing.T, router http.Handler, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	t.Helper()

	reqBody := io.Reader(http.NoBody)
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reqBody = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

// signUp registers an account and logs it in, returning its ID and token.
func signUp(t *testing.T, router http.Handler, email string) (int64, string) {
	t.Helper()

	w := send(t, router, http.MethodPost, "/registration", models.RegistrationRequest{
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     email,
		Password:  "s3cret",
	}, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = send(t, router, http.MethodPost, "/login", models.LoginRequest{Email: email, Password: "s3cret"}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	login := decode[models.LoginResponse](t, w)
	return login.ID, login.AccessToken
}

func ptr[T any](v T) *T { return &v }

func TestRouter_HealthCheck(t *testing.T) {
	router := newTestRouter(nil)

	w := send(t, router, http.MethodGet, "/ops/health", nil, "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.NotEmpty(t, w.Header().Get("X-Request-Id"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))

	health := decode[models.Health](t, w)
	assert.Equal(t, models.HealthStatusOK, health.Status)
	assert.Equal(t, "test", health.Version)
	assert.NotEmpty(t, health.Uptime)
}

func TestRouter_ReadinessCheck(t *testing.T) {
	t.Run("in-memory storage", func(t *testing.T) {
		w := send(t, newTestRouter(nil), http.MethodGet, "/ops/ready", nil, "")

		assert.Equal(t, http.StatusOK, w.Code)
		ready := decode[models.Readiness](t, w)
		assert.Equal(t, models.HealthStatusOK, ready.Status)
		require.Len(t, ready.Dependencies, 1)
		assert.Equal(t, "storage", ready.Dependencies[0].Name)
		assert.Equal(t, "memory", ready.Dependencies[0].Backend)
	})

	t.Run("database reachable", func(t *testing.T) {
		w := send(t, newTestRouter(healthyChecker{}), http.MethodGet, "/ops/ready", nil, "")

		assert.Equal(t, http.StatusOK, w.Code)
		ready := decode[models.Readiness](t, w)
		require.Len(t, ready.Dependencies, 1)
		assert.Equal(t, "postgres", ready.Dependencies[0].Backend)
	})

	t.Run("database unreachable", func(t *testing.T) {
		w := send(t, newTestRouter(failingChecker{}), http.MethodGet, "/ops/ready", nil, "")

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Equal(t, "application/problem+json", w.Header().Get("Content-Type"))
	})
}

func TestRouter_Metrics(t *testing.T) {
	w := send(t, newTestRouter(nil), http.MethodGet, "/ops/metrics", nil, "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/plain")
}

func TestRouter_ProtectedRoutesRequireToken(t *testing.T) {
	router := newTestRouter(nil)

	paths := []string{
		"/accounts/search",
		"/accounts/1",
		"/region/1",
		"/region/types/1",
		"/region/weather/1",
		"/region/weather/search",
		"/region/weather/forecast/1",
	}
	for _, path := range paths {
		t.Run(path, func(t *testing.T) {
			w := send(t, router, http.MethodGet, path, nil, "")
			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}
}

func TestRouter_Registration(t *testing.T) {
	router := newTestRouter(nil)

	input := models.RegistrationRequest{
		FirstName: " Ada ",
		LastName:  "Lovelace",
		Email:     "Ada@Example.com",
		Password:  "s3cret",
	}

	w := send(t, router, http.MethodPost, "/registration", input, "")
	require.Equal(t, http.StatusCreated, w.Code)

	created := decode[models.Account](t, w)
	assert.Equal(t, "/accounts/"+strconv.FormatInt(created.ID, 10), w.Header().Get("Location"))
	assert.Equal(t, "Ada", created.FirstName)
	assert.Equal(t, "ada@example.com", created.Email)
	assert.NotContains(t, w.Body.String(), "s3cret")

	t.Run("duplicate email", func(t *testing.T) {
		input.Email = "ADA@example.com "
		w := send(t, router, http.MethodPost, "/registration", input, "")
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("invalid email", func(t *testing.T) {
		input.Email = "not-an-email"
		w := send(t, router, http.MethodPost, "/registration", input, "")
		require.Equal(t, http.StatusBadRequest, w.Code)

		problem := decode[models.Problem](t, w)
		require.Len(t, problem.Errors, 1)
		assert.Equal(t, "email", problem.Errors[0].Field)
	})

	t.Run("malformed body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/registration", bytes.NewBufferString("{"))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("form body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/registration", bytes.NewBufferString("email=a%40b.c"))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
		problem := decode[models.Problem](t, rec)
		assert.Equal(t, models.ProblemTypeUnsupportedMediaType, problem.Type)
	})
}

func TestRouter_Registration_RefusedWhenAuthenticated(t *testing.T) {
	router := newTestRouter(nil)
	_, token := signUp(t, router, "ada@example.com")

	w := send(t, router, http.MethodPost, "/registration", models.RegistrationRequest{
		FirstName: "Grace",
		LastName:  "Hopper",
		Email:     "grace@example.com",
		Password:  "cobol",
	}, token)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRouter_Login(t *testing.T) {
	router := newTestRouter(nil)
	id, token := signUp(t, router, "ada@example.com")

	assert.Positive(t, id)
	assert.NotEmpty(t, token)

	tests := []struct {
		name  string
		input models.LoginRequest
	}{
		{"wrong password", models.LoginRequest{Email: "ada@example.com", Password: "nope"}},
		{"unknown email", models.LoginRequest{Email: "nobody@example.com", Password: "s3cret"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := send(t, router, http.MethodPost, "/login", tt.input, "")
			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}
}

func TestRouter_Accounts(t *testing.T) {
	router := newTestRouter(nil)
	id, token := signUp(t, router, "ada@example.com")
	otherID, _ := signUp(t, router, "grace@example.com")
	path := "/accounts/" + strconv.FormatInt(id, 10)

	t.Run("get", func(t *testing.T) {
		w := send(t, router, http.MethodGet, path, nil, token)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "ada@example.com", decode[models.Account](t, w).Email)
	})

	t.Run("search", func(t *testing.T) {
		w := send(t, router, http.MethodGet, "/accounts/search?email=example.com&from=0&size=1", nil, token)
		require.Equal(t, http.StatusOK, w.Code)
		page := decode[[]models.Account](t, w)
		require.Len(t, page, 1)
		assert.Equal(t, id, page[0].ID)

		w = send(t, router, http.MethodGet, "/accounts/search?email=example.com&from=1&size=1", nil, token)
		require.Equal(t, http.StatusOK, w.Code)
		page = decode[[]models.Account](t, w)
		require.Len(t, page, 1)
		assert.Equal(t, otherID, page[0].ID)
	})

	t.Run("invalid paging", func(t *testing.T) {
		for _, query := range []string{"size=0", "from=-1", "size=ten"} {
			w := send(t, router, http.MethodGet, "/accounts/search?"+query, nil, token)
			assert.Equal(t, http.StatusBadRequest, w.Code, query)
		}
	})

	t.Run("invalid path id", func(t *testing.T) {
		for _, raw := range []string{"abc", "0", "-4"} {
			w := send(t, router, http.MethodGet, "/accounts/"+raw, nil, token)
			assert.Equal(t, http.StatusBadRequest, w.Code, raw)
		}
	})

	t.Run("update", func(t *testing.T) {
		w := send(t, router, http.MethodPut, path, models.AccountUpdateRequest{
			FirstName: "Augusta",
			LastName:  "King",
			Email:     "augusta@example.com",
		}, token)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "Augusta", decode[models.Account](t, w).FirstName)
	})

	t.Run("update to taken email", func(t *testing.T) {
		w := send(t, router, http.MethodPut, path, models.AccountUpdateRequest{
			FirstName: "Augusta",
			LastName:  "King",
			Email:     "grace@example.com",
		}, token)
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("delete", func(t *testing.T) {
		otherPath := "/accounts/" + strconv.FormatInt(otherID, 10)

		w := send(t, router, http.MethodDelete, otherPath, nil, token)
		assert.Equal(t, http.StatusNoContent, w.Code)

		w = send(t, router, http.MethodDelete, otherPath, nil, token)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestRouter_Regions(t *testing.T) {
	router := newTestRouter(nil)
	ownerID, token := signUp(t, router, "ada@example.com")

	w := send(t, router, http.MethodPost, "/region", models.RegionRequest{
		Name:      ptr("Alps"),
		Latitude:  ptr(46.5),
		Longitude: ptr(9.8),
	}, token)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	created := decode[models.Region](t, w)
	path := "/region/" + strconv.FormatInt(created.ID, 10)
	assert.Equal(t, path, w.Header().Get("Location"))
	assert.Equal(t, ownerID, created.AccountID)

	t.Run("duplicate coordinates", func(t *testing.T) {
		w := send(t, router, http.MethodPost, "/region", models.RegionRequest{
			Name:      ptr("Other"),
			Latitude:  ptr(46.5),
			Longitude: ptr(9.8),
		}, token)
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("missing latitude", func(t *testing.T) {
		w := send(t, router, http.MethodPost, "/region", models.RegionRequest{
			Name:      ptr("Other"),
			Longitude: ptr(9.8),
		}, token)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("get", func(t *testing.T) {
		w := send(t, router, http.MethodGet, path, nil, token)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "Alps", decode[models.Region](t, w).Name)
	})

	t.Run("update", func(t *testing.T) {
		w := send(t, router, http.MethodPut, path, models.RegionRequest{
			Name:      ptr("Swiss Alps"),
			Latitude:  ptr(46.6),
			Longitude: ptr(9.9),
		}, token)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "Swiss Alps", decode[models.Region](t, w).Name)
	})

	t.Run("delete", func(t *testing.T) {
		w := send(t, router, http.MethodDelete, path, nil, token)
		assert.Equal(t, http.StatusNoContent, w.Code)

		w = send(t, router, http.MethodDelete, path, nil, token)
		assert.Equal(t, http.StatusNotFound, w.Code)

		w = send(t, router, http.MethodGet, path, nil, token)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestRouter_RegionTypes(t *testing.T) {
	router := newTestRouter(nil)
	_, token := signUp(t, router, "ada@example.com")

	w := send(t, router, http.MethodPost, "/region/types", models.RegionTypeRequest{Type: "mountain"}, token)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	created := decode[models.RegionType](t, w)
	path := "/region/types/" + strconv.FormatInt(created.ID, 10)

	w = send(t, router, http.MethodPost, "/region/types", models.RegionTypeRequest{Type: " mountain "}, token)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = send(t, router, http.MethodPost, "/region/types", models.RegionTypeRequest{Type: "  "}, token)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = send(t, router, http.MethodPut, path, models.RegionTypeRequest{Type: "mountain"}, token)
	assert.Equal(t, http.StatusOK, w.Code, "renaming to its own label is not a conflict")

	w = send(t, router, http.MethodPut, path, models.RegionTypeRequest{Type: "valley"}, token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "valley", decode[models.RegionType](t, w).Type)

	w = send(t, router, http.MethodGet, path, nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "valley", decode[models.RegionType](t, w).Type)

	w = send(t, router, http.MethodDelete, path, nil, token)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = send(t, router, http.MethodDelete, path, nil, token)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouter_WeatherLifecycle(t *testing.T) {
	router := newTestRouter(nil)
	_, token := signUp(t, router, "ada@example.com")

	w := send(t, router, http.MethodPost, "/region", models.RegionRequest{
		Name:      ptr("Alps"),
		Latitude:  ptr(46.5),
		Longitude: ptr(9.8),
	}, token)
	require.Equal(t, http.StatusCreated, w.Code)
	regionID := decode[models.Region](t, w).ID
	weatherPath := "/region/weather/" + strconv.FormatInt(regionID, 10)

	w = send(t, router, http.MethodPost, "/region/weather", map[string]interface{}{
		"regionId":            regionID,
		"temperature":         -5.0,
		"humidity":            80.0,
		"windSpeed":           12.0,
		"weatherCondition":    "SNOW",
		"precipitationAmount": 3.0,
		"measurementDateTime": "2024-01-15T10:00:00Z",
	}, token)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, weatherPath, w.Header().Get("Location"))

	created := decode[models.WeatherData](t, w)
	assert.Equal(t, "Alps", created.RegionName)
	assert.Equal(t, models.ConditionSnow, created.WeatherCondition)

	t.Run("one record per region", func(t *testing.T) {
		w := send(t, router, http.MethodPost, "/region/weather", map[string]interface{}{
			"regionId":            regionID,
			"weatherCondition":    "CLEAR",
			"measurementDateTime": "2024-01-16T10:00:00Z",
		}, token)
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("unknown condition", func(t *testing.T) {
		w := send(t, router, http.MethodPost, "/region/weather", map[string]interface{}{
			"regionId":            regionID,
			"weatherCondition":    "HURRICANE",
			"measurementDateTime": "2024-01-16T10:00:00Z",
		}, token)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("update renames the region", func(t *testing.T) {
		w := send(t, router, http.MethodPut, weatherPath, map[string]interface{}{
			"regionName":          "Alpen",
			"temperature":         2.0,
			"humidity":            60.0,
			"windSpeed":           5.0,
			"weatherCondition":    "CLOUDY",
			"precipitationAmount": 0.0,
			"measurementDateTime": "2024-01-16T10:00:00Z",
		}, token)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		updated := decode[models.WeatherData](t, w)
		assert.Equal(t, "Alpen", updated.RegionName)
		assert.Equal(t, models.ConditionCloudy, updated.WeatherCondition)

		w = send(t, router, http.MethodGet, "/region/"+strconv.FormatInt(regionID, 10), nil, token)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "Alpen", decode[models.Region](t, w).Name)
	})

	t.Run("update requires every field", func(t *testing.T) {
		w := send(t, router, http.MethodPut, weatherPath, map[string]interface{}{"regionName": "Alpen"}, token)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("search", func(t *testing.T) {
		w := send(t, router, http.MethodGet,
			"/region/weather/search?weatherCondition=CLOUDY&startDateTime=2024-01-16T10:00:00Z&endDateTime=2024-01-16T10:00:00Z", nil, token)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Len(t, decode[[]models.WeatherData](t, w), 1)

		w = send(t, router, http.MethodGet, "/region/weather/search?weatherCondition=SNOW", nil, token)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, decode[[]models.WeatherData](t, w))

		w = send(t, router, http.MethodGet, "/region/weather/search?startDateTime=yesterday", nil, token)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("forecast ids", func(t *testing.T) {
		forecastPath := "/region/" + strconv.FormatInt(regionID, 10) + "/weather/"

		send(t, router, http.MethodPost, forecastPath+"7", nil, token)
		w := send(t, router, http.MethodPost, forecastPath+"8", nil, token)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, []int64{7, 8}, decode[models.WeatherData](t, w).WeatherForecast)

		w = send(t, router, http.MethodDelete, forecastPath+"7", nil, token)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, []int64{8}, decode[models.WeatherData](t, w).WeatherForecast)

		w = send(t, router, http.MethodPost, "/region/999/weather/7", nil, token)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("delete", func(t *testing.T) {
		w := send(t, router, http.MethodDelete, weatherPath, nil, token)
		assert.Equal(t, http.StatusNoContent, w.Code)

		w = send(t, router, http.MethodGet, weatherPath, nil, token)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestRouter_Forecasts(t *testing.T) {
	router := newTestRouter(nil)
	_, token := signUp(t, router, "ada@example.com")

	w := send(t, router, http.MethodPost, "/region/weather/forecast", map[string]interface{}{
		"regionId":         4,
		"dateTime":         "2024-02-01T06:00:00Z",
		"temperature":      1.5,
		"weatherCondition": "FOG",
	}, token)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	created := decode[models.Forecast](t, w)
	path := "/region/weather/forecast/" + strconv.FormatInt(created.ID, 10)
	assert.Equal(t, path, w.Header().Get("Location"))

	w = send(t, router, http.MethodPut, path, map[string]interface{}{
		"temperature": 3.0,
	}, token)
	assert.Equal(t, http.StatusBadRequest, w.Code, "dateTime is required")

	w = send(t, router, http.MethodPut, path, map[string]interface{}{
		"dateTime":         "2024-02-01T09:00:00Z",
		"weatherCondition": "CLEAR",
	}, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	updated := decode[models.Forecast](t, w)
	assert.Equal(t, models.ConditionClear, updated.WeatherCondition)
	assert.Equal(t, 1.5, updated.Temperature)

	w = send(t, router, http.MethodGet, path, nil, token)
	assert.Equal(t, http.StatusOK, w.Code)

	w = send(t, router, http.MethodDelete, path, nil, token)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = send(t, router, http.MethodDelete, path, nil, token)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
