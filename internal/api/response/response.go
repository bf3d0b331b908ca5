// Package response provides utilities for HTTP response handling.
package response

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/climatica/climatica/internal/api/middleware"
	"github.com/climatica/climatica/internal/api/models"
	"github.com/climatica/climatica/internal/apperr"
)

// JSON writes data as a JSON body with the given status. The request id, if
// any, is echoed in X-Request-Id.
func JSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	writeJSON(w, r, status, data)
}

// Created writes a 201 response with a Location header when location is set.
func Created(w http.ResponseWriter, r *http.Request, location string, data any) {
	if location != "" {
		w.Header().Set("Location", location)
	}
	writeJSON(w, r, http.StatusCreated, data)
}

// NoContent writes a 204 response without a body.
func NoContent(w http.ResponseWriter, r *http.Request) {
	correlate(w, r)
	w.WriteHeader(http.StatusNoContent)
}

func correlate(w http.ResponseWriter, r *http.Request) {
	if id := middleware.GetRequestID(r.Context()); id != "" {
		w.Header().Set(middleware.RequestIDHeader, id)
	}
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	correlate(w, r)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// Error writes a Problem+JSON error response.
func Error(w http.ResponseWriter, r *http.Request, problem *models.Problem) {
	problem.At(r).Write(w)
}

func statusProblem(w http.ResponseWriter, r *http.Request, status int, detail string) {
	Error(w, r, models.NewStatusProblem(status, middleware.GetRequestID(r.Context()), detail))
}

// BadRequest writes a 400 Bad Request error response.
func BadRequest(w http.ResponseWriter, r *http.Request, detail string, errors []models.FieldError) {
	Error(w, r, models.NewBadRequest(middleware.GetRequestID(r.Context()), detail, errors))
}

// Unauthorized writes a 401 Unauthorized error response.
func Unauthorized(w http.ResponseWriter, r *http.Request, detail string) {
	statusProblem(w, r, http.StatusUnauthorized, detail)
}

// Forbidden writes a 403 Forbidden error response.
func Forbidden(w http.ResponseWriter, r *http.Request, detail string) {
	statusProblem(w, r, http.StatusForbidden, detail)
}

// NotFound writes a 404 Not Found error response.
func NotFound(w http.ResponseWriter, r *http.Request, detail string) {
	statusProblem(w, r, http.StatusNotFound, detail)
}

// Conflict writes a 409 Conflict error response.
func Conflict(w http.ResponseWriter, r *http.Request, detail string) {
	statusProblem(w, r, http.StatusConflict, detail)
}

// InternalError writes a 500 Internal Server Error response.
func InternalError(w http.ResponseWriter, r *http.Request, detail string) {
	statusProblem(w, r, http.StatusInternalServerError, detail)
}

// ServiceUnavailable writes a 503 Service Unavailable error response.
func ServiceUnavailable(w http.ResponseWriter, r *http.Request, detail string) {
	statusProblem(w, r, http.StatusServiceUnavailable, detail)
}

// FromError writes the problem response matching the kind of a service
// error. Unexpected errors are logged and reported without detail.
func FromError(w http.ResponseWriter, r *http.Request, log zerolog.Logger, err error) {
	detail := apperr.Message(err)

	switch apperr.KindOf(err) {
	case apperr.KindValidation:
		var validationErr *apperr.ValidationError
		if errors.As(err, &validationErr) {
			BadRequest(w, r, "request validation failed", validationErr.Errors)
			return
		}
		BadRequest(w, r, "request validation failed", nil)
	case apperr.KindUnauthorized:
		Unauthorized(w, r, detail)
	case apperr.KindForbidden:
		Forbidden(w, r, detail)
	case apperr.KindNotFound:
		NotFound(w, r, detail)
	case apperr.KindConflict:
		Conflict(w, r, detail)
	default:
		log.Error().
			Err(err).
			Str("request_id", middleware.GetRequestID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Msg("request failed")
		InternalError(w, r, "an unexpected error occurred")
	}
}
