package response_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/climatica/climatica/internal/api/middleware"
	"github.com/climatica/climatica/internal/api/models"
	"github.com/climatica/climatica/internal/api/response"
)

// serve runs write behind the RequestID middleware with a fixed inbound id.
func serve(method, path string, write func(http.ResponseWriter, *http.Request)) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, http.NoBody)
	req.Header.Set(middleware.RequestIDHeader, "req-fixed")
	rec := httptest.NewRecorder()
	middleware.RequestID(http.HandlerFunc(write)).ServeHTTP(rec, req)
	return rec
}

func TestSuccessResponses(t *testing.T) {
	tests := []struct {
		name         string
		write        func(http.ResponseWriter, *http.Request)
		wantStatus   int
		wantLocation string
		wantBody     string
	}{
		{
			name: "json",
			write: func(w http.ResponseWriter, r *http.Request) {
				response.JSON(w, r, http.StatusOK, map[string]int64{"id": 4})
			},
			wantStatus: http.StatusOK,
			wantBody:   `{"id":4}`,
		},
		{
			name: "created",
			write: func(w http.ResponseWriter, r *http.Request) {
				response.Created(w, r, "/region/types/9", map[string]string{"type": "Mountain"})
			},
			wantStatus:   http.StatusCreated,
			wantLocation: "/region/types/9",
			wantBody:     `{"type":"Mountain"}`,
		},
		{
			name: "created without location",
			write: func(w http.ResponseWriter, r *http.Request) {
				response.Created(w, r, "", nil)
			},
			wantStatus: http.StatusCreated,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(http.MethodPost, "/region", tt.write)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			assert.Equal(t, "req-fixed", rec.Header().Get(middleware.RequestIDHeader))
			assert.Equal(t, tt.wantLocation, rec.Header().Get("Location"))
			if tt.wantBody == "" {
				assert.Zero(t, rec.Body.Len())
				return
			}
			assert.JSONEq(t, tt.wantBody, rec.Body.String())
		})
	}
}

func TestNoContent(t *testing.T) {
	rec := serve(http.MethodDelete, "/accounts/3", response.NoContent)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "req-fixed", rec.Header().Get(middleware.RequestIDHeader))
	assert.Zero(t, rec.Body.Len())
}

func TestJSON_WithoutRequestID(t *testing.T) {
	rec := httptest.NewRecorder()
	response.JSON(rec, httptest.NewRequest(http.MethodGet, "/ops/health", http.NoBody), http.StatusOK, nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	_, present := rec.Header()[middleware.RequestIDHeader]
	assert.False(t, present)
}

func TestProblemResponses(t *testing.T) {
	tests := []struct {
		name       string
		write      func(http.ResponseWriter, *http.Request)
		wantStatus int
		wantType   string
	}{
		{"bad request", func(w http.ResponseWriter, r *http.Request) {
			response.BadRequest(w, r, "bad", []models.FieldError{{Field: "name", Message: "is required"}})
		}, http.StatusBadRequest, models.ProblemTypeValidation},
		{"unauthorized", func(w http.ResponseWriter, r *http.Request) {
			response.Unauthorized(w, r, "bad")
		}, http.StatusUnauthorized, models.ProblemTypeUnauthorized},
		{"forbidden", func(w http.ResponseWriter, r *http.Request) {
			response.Forbidden(w, r, "bad")
		}, http.StatusForbidden, models.ProblemTypeForbidden},
		{"not found", func(w http.ResponseWriter, r *http.Request) {
			response.NotFound(w, r, "bad")
		}, http.StatusNotFound, models.ProblemTypeNotFound},
		{"conflict", func(w http.ResponseWriter, r *http.Request) {
			response.Conflict(w, r, "bad")
		}, http.StatusConflict, models.ProblemTypeConflict},
		{"internal", func(w http.ResponseWriter, r *http.Request) {
			response.InternalError(w, r, "bad")
		}, http.StatusInternalServerError, models.ProblemTypeInternal},
		{"unavailable", func(w http.ResponseWriter, r *http.Request) {
			response.ServiceUnavailable(w, r, "bad")
		}, http.StatusServiceUnavailable, models.ProblemTypeUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(http.MethodPut, "/region/weather/5", tt.write)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))

			var problem models.Problem
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&problem))
			assert.Equal(t, tt.wantType, problem.Type)
			assert.Equal(t, tt.wantStatus, problem.Status)
			assert.Equal(t, "bad", problem.Detail)
			assert.Equal(t, "req-fixed", problem.TraceID)
			assert.Equal(t, "/region/weather/5", problem.Instance)
		})
	}
}
