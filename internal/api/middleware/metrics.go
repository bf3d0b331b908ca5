package middleware

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/climatica/climatica/internal/telemetry"
)

const meterName = "github.com/climatica/climatica/internal/api/middleware"

// Metrics records OpenTelemetry HTTP server instruments.
type Metrics struct {
	duration metric.Float64Histogram
	requests metric.Int64Counter
	inFlight metric.Int64UpDownCounter
	size     metric.Int64Histogram
}

// NewMetrics creates the HTTP server instruments on the global meter.
func NewMetrics() (*Metrics, error) {
	meter := telemetry.Meter(meterName)

	duration, err1 := meter.Float64Histogram("http.server.request.duration",
		metric.WithDescription("Duration of HTTP server requests"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5),
	)
	requests, err2 := meter.Int64Counter("http.server.request.total",
		metric.WithDescription("HTTP server requests handled"),
		metric.WithUnit("{request}"),
	)
	inFlight, err3 := meter.Int64UpDownCounter("http.server.active_requests",
		metric.WithDescription("HTTP server requests in progress"),
		metric.WithUnit("{request}"),
	)
	size, err4 := meter.Int64Histogram("http.server.response.body.size",
		metric.WithDescription("Size of HTTP server response bodies"),
		metric.WithUnit("By"),
	)
	if err := errors.Join(err1, err2, err3, err4); err != nil {
		return nil, err
	}

	return &Metrics{duration: duration, requests: requests, inFlight: inFlight, size: size}, nil
}

// Middleware records one observation per request, labelled by route pattern
// so path ids do not explode cardinality. Probes under /ops/ are skipped.
func (m *Metrics) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isProbe(r) {
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			start := time.Now()
			method := metric.WithAttributes(attribute.String("http.request.method", r.Method))

			m.inFlight.Add(ctx, 1, method)
			defer m.inFlight.Add(ctx, -1, method)

			rec := record(w)
			next.ServeHTTP(rec, r)

			attrs := metric.WithAttributes(
				attribute.String("http.request.method", r.Method),
				attribute.String("http.route", routePattern(r)),
				attribute.String("http.response.status_code", strconv.Itoa(rec.status)),
				attribute.Bool("error", rec.status >= http.StatusBadRequest),
			)
			m.duration.Record(ctx, time.Since(start).Seconds(), attrs)
			m.requests.Add(ctx, 1, attrs)
			m.size.Record(ctx, rec.written, attrs)
		})
	}
}

// routePattern returns the matched chi route pattern, or "unmatched".
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unmatched"
}
