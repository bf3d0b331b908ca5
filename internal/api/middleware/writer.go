package middleware

import (
	"net/http"

	"github.com/climatica/climatica/internal/api/models"
)

// statusRecorder remembers the status code and body size written through it.
// Logger, Metrics and Tracing share it.
type statusRecorder struct {
	http.ResponseWriter
	status  int
	written int64
	wrote   bool
}

// record reuses w when an outer middleware already wrapped it.
func record(w http.ResponseWriter) *statusRecorder {
	if rec, ok := w.(*statusRecorder); ok {
		return rec
	}
	return &statusRecorder{ResponseWriter: w, status: http.StatusOK}
}

func (rw *statusRecorder) WriteHeader(code int) {
	if !rw.wrote {
		rw.status = code
		rw.wrote = true
	}
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *statusRecorder) Write(b []byte) (int, error) {
	rw.wrote = true
	n, err := rw.ResponseWriter.Write(b)
	rw.written += int64(n)
	return n, err
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (rw *statusRecorder) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// writeProblem writes a problem response from inside the middleware chain,
// where the response package cannot be imported.
func writeProblem(w http.ResponseWriter, r *http.Request, status int, detail string) {
	models.NewStatusProblem(status, GetRequestID(r.Context()), detail).At(r).Write(w)
}
