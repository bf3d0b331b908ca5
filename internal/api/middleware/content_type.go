package middleware

import (
	"mime"
	"net/http"
)

// ContentTypeJSON defaults the response Content-Type to application/json.
// Handlers that set their own type keep it.
func ContentTypeJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if w.Header().Get("Content-Type") == "" {
			w.Header().Set("Content-Type", "application/json")
		}
		next.ServeHTTP(w, r)
	})
}

// RequireJSON rejects POST, PUT and PATCH requests whose declared body type
// is not application/json with a 415 problem. A missing Content-Type is
// accepted.
func RequireJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch:
		default:
			next.ServeHTTP(w, r)
			return
		}

		declared := r.Header.Get("Content-Type")
		if declared == "" {
			next.ServeHTTP(w, r)
			return
		}
		if mediaType, _, err := mime.ParseMediaType(declared); err != nil || mediaType != "application/json" {
			writeProblem(w, r, http.StatusUnsupportedMediaType, "request body must be application/json")
			return
		}

		next.ServeHTTP(w, r)
	})
}
