package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/climatica/climatica/internal/api/middleware"
	"github.com/climatica/climatica/internal/apperr"
)

const (
	defaultFrom = 0
	defaultSize = 10
)

// actorID returns the authenticated account ID from the context, or 0 when
// the request is anonymous.
func actorID(ctx context.Context) int64 {
	id, _ := middleware.GetAccountID(ctx)
	return id
}

// pathID parses a positive integer URL parameter.
func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.Invalid(name, "must be a positive integer")
	}
	return id, nil
}

// page parses the from/size pagination query parameters.
func page(r *http.Request) (from, size int, err error) {
	q := r.URL.Query()
	from, size = defaultFrom, defaultSize

	if v := q.Get("from"); v != "" {
		if from, err = strconv.Atoi(v); err != nil {
			return 0, 0, apperr.Invalid("from", "must be an integer")
		}
	}
	if v := q.Get("size"); v != "" {
		if size, err = strconv.Atoi(v); err != nil {
			return 0, 0, apperr.Invalid("size", "must be an integer")
		}
	}
	return from, size, nil
}

// optionalQuery returns a pointer to the query value, or nil when absent.
func optionalQuery(r *http.Request, name string) *string {
	if !r.URL.Query().Has(name) {
		return nil
	}
	v := r.URL.Query().Get(name)
	return &v
}
