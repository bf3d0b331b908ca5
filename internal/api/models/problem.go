package models

import (
	"encoding/json"
	"net/http"
)

// Problem is an RFC 7807 error body, served as application/problem+json.
type Problem struct {
	Type     string       `json:"type"`
	Title    string       `json:"title"`
	Status   int          `json:"status"`
	Detail   string       `json:"detail,omitempty"`
	Instance string       `json:"instance,omitempty"`
	TraceID  string       `json:"traceId"`
	Errors   []FieldError `json:"errors,omitempty"`
}

// FieldError names one rejected request field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

const problemBase = "https://climatica.dev/problems/"

// Problem type URIs.
const (
	ProblemTypeValidation           = problemBase + "validation-error"
	ProblemTypeUnauthorized         = problemBase + "unauthorized"
	ProblemTypeForbidden            = problemBase + "forbidden"
	ProblemTypeNotFound             = problemBase + "not-found"
	ProblemTypeConflict             = problemBase + "conflict"
	ProblemTypeUnsupportedMediaType = problemBase + "unsupported-media-type"
	ProblemTypeTooManyRequests      = problemBase + "too-many-requests"
	ProblemTypeInternal             = problemBase + "internal-error"
	ProblemTypeUnavailable          = problemBase + "service-unavailable"
	ProblemTypeTLSRequired          = problemBase + "tls-required"
)

var problemTypes = map[int]struct{ uri, title string }{
	http.StatusBadRequest:           {ProblemTypeValidation, "Validation error"},
	http.StatusUnauthorized:         {ProblemTypeUnauthorized, "Unauthorized"},
	http.StatusForbidden:            {ProblemTypeForbidden, "Forbidden"},
	http.StatusNotFound:             {ProblemTypeNotFound, "Not found"},
	http.StatusConflict:             {ProblemTypeConflict, "Conflict"},
	http.StatusUnsupportedMediaType: {ProblemTypeUnsupportedMediaType, "Unsupported media type"},
	http.StatusTooManyRequests:      {ProblemTypeTooManyRequests, "Too many requests"},
	http.StatusInternalServerError:  {ProblemTypeInternal, "Internal server error"},
	http.StatusServiceUnavailable:   {ProblemTypeUnavailable, "Service unavailable"},
}

// NewProblem creates a Problem with an explicit type and title.
func NewProblem(problemType, title string, status int, traceID string) *Problem {
	return &Problem{
		Type:    problemType,
		Title:   title,
		Status:  status,
		TraceID: traceID,
	}
}

// NewStatusProblem creates a Problem whose type and title follow from the
// status code. Unlisted codes get about:blank and the standard status text.
func NewStatusProblem(status int, traceID, detail string) *Problem {
	pt, ok := problemTypes[status]
	if !ok {
		pt.uri, pt.title = "about:blank", http.StatusText(status)
	}
	p := NewProblem(pt.uri, pt.title, status, traceID)
	p.Detail = detail
	return p
}

// NewBadRequest creates a 400 problem carrying field errors.
func NewBadRequest(traceID, detail string, errors []FieldError) *Problem {
	p := NewStatusProblem(http.StatusBadRequest, traceID, detail)
	p.Errors = errors
	return p
}

// At sets the problem instance to the request path.
func (p *Problem) At(r *http.Request) *Problem {
	p.Instance = r.URL.Path
	return p
}

// Write writes the Problem as JSON to the ResponseWriter.
func (p *Problem) Write(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/problem+json")
	if p.TraceID != "" {
		w.Header().Set("X-Request-Id", p.TraceID)
	}
	w.WriteHeader(p.Status)
	_ = json.NewEncoder(w).Encode(p)
}
