package middleware_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/climatica/climatica/internal/api/middleware"
	"github.com/climatica/climatica/internal/api/models"
)

func hitFrom(handler http.Handler, ip string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/login", http.NoBody)
	req.RemoteAddr = ip
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestRateLimitByIP(t *testing.T) {
	tests := []struct {
		name  string
		limit int
		ips   []string
		want  []int
	}{
		{
			name:  "within budget",
			limit: 3,
			ips:   []string{"192.0.2.1:1", "192.0.2.1:2", "192.0.2.1:3"},
			want:  []int{200, 200, 200},
		},
		{
			name:  "over budget",
			limit: 2,
			ips:   []string{"192.0.2.2:1", "192.0.2.2:2", "192.0.2.2:3"},
			want:  []int{200, 200, 429},
		},
		{
			name:  "separate budget per ip",
			limit: 1,
			ips:   []string{"192.0.2.3:1", "192.0.2.3:2", "192.0.2.4:1"},
			want:  []int{200, 429, 200},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := middleware.RateLimitByIP(middleware.RateLimitConfig{
				RequestLimit: tt.limit,
				WindowLength: time.Minute,
			})(http.HandlerFunc(plainOK))

			for i, ip := range tt.ips {
				assert.Equal(t, tt.want[i], hitFrom(handler, ip).Code, "request %d from %s", i+1, ip)
			}
		})
	}
}

func TestRateLimitByAccount_KeysOnAccountID(t *testing.T) {
	cfg := middleware.RateLimitConfig{RequestLimit: 2, WindowLength: time.Minute}

	jwtService := newTestJWTService()
	handler := middleware.Auth(createTestAuthService(t))(
		middleware.RateLimitByAccount(cfg)(okHandler()),
	)

	token, _, err := jwtService.GenerateAccessToken(1)
	require.NoError(t, err)
	otherToken, _, err := jwtService.GenerateAccessToken(2)
	require.NoError(t, err)

	send := func(token, ip string) int {
		req := httptest.NewRequest(http.MethodGet, "/region/1", http.NoBody)
		req.RemoteAddr = ip
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	// The same account is limited across IPs.
	assert.Equal(t, http.StatusOK, send(token, "198.51.100.1:1"))
	assert.Equal(t, http.StatusOK, send(token, "198.51.100.2:1"))
	assert.Equal(t, http.StatusTooManyRequests, send(token, "198.51.100.3:1"))

	// Another account from the same IP is not.
	assert.Equal(t, http.StatusOK, send(otherToken, "198.51.100.1:1"))
}

func TestRateLimit_ExceededProblem(t *testing.T) {
	handler := middleware.RequestID(
		middleware.RateLimitByIP(middleware.RateLimitConfig{
			RequestLimit: 1,
			WindowLength: 90 * time.Second,
		})(http.HandlerFunc(plainOK)),
	)

	require.Equal(t, http.StatusOK, hitFrom(handler, "203.0.113.1:1").Code)
	rec := hitFrom(handler, "203.0.113.1:1")

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "90", rec.Header().Get("Retry-After"))

	var problem models.Problem
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
	assert.Equal(t, models.ProblemTypeTooManyRequests, problem.Type)
	assert.Equal(t, "/login", problem.Instance)
	assert.NotEmpty(t, problem.TraceID)
}

func TestRateLimitConfig_Or(t *testing.T) {
	custom := middleware.RateLimitConfig{RequestLimit: 5, WindowLength: time.Second}

	assert.Equal(t, custom, custom.Or(middleware.AuthRateLimit))
	assert.Equal(t, middleware.AuthRateLimit, middleware.RateLimitConfig{}.Or(middleware.AuthRateLimit))
	assert.Equal(t, middleware.StandardRateLimit, middleware.RateLimitConfig{RequestLimit: 5}.Or(middleware.StandardRateLimit))

	assert.Equal(t, 10, middleware.AuthRateLimit.RequestLimit)
	assert.Equal(t, 100, middleware.StandardRateLimit.RequestLimit)
}
