package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/climatica/climatica/internal/auth"
)

// accountIDKey is the context key for the authenticated account ID.
type accountIDKey struct{}

// TokenAuthenticator resolves an access token to an account ID.
type TokenAuthenticator interface {
	Authenticate(token string) (int64, error)
}

// Auth creates authentication middleware that validates JWT bearer tokens.
func Auth(authenticator TokenAuthenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeProblem(w, r, http.StatusUnauthorized, "missing authorization header")
				return
			}

			tokenString, ok := bearerToken(authHeader)
			if !ok {
				writeProblem(w, r, http.StatusUnauthorized, "invalid authorization header format")
				return
			}
			if tokenString == "" {
				writeProblem(w, r, http.StatusUnauthorized, "missing bearer token")
				return
			}

			accountID, err := authenticator.Authenticate(tokenString)
			if err != nil {
				switch {
				case errors.Is(err, auth.ErrAccessTokenExpired):
					writeProblem(w, r, http.StatusUnauthorized, "access token has expired")
				case errors.Is(err, auth.ErrInvalidAccessToken):
					writeProblem(w, r, http.StatusUnauthorized, "invalid access token")
				default:
					writeProblem(w, r, http.StatusUnauthorized, "authentication failed")
				}
				return
			}

			ctx := context.WithValue(r.Context(), accountIDKey{}, accountID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalAuth records the account of a valid bearer token when one is
// presented and lets every request through.
func OptionalAuth(authenticator TokenAuthenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, ok := bearerToken(r.Header.Get("Authorization"))
			if ok && tokenString != "" {
				if accountID, err := authenticator.Authenticate(tokenString); err == nil {
					r = r.WithContext(context.WithValue(r.Context(), accountIDKey{}, accountID))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// bearerToken extracts the token of a "Bearer <token>" header value. The
// scheme is matched case-insensitively.
func bearerToken(header string) (string, bool) {
	const bearerPrefix = "Bearer "
	if len(header) < len(bearerPrefix) || !strings.EqualFold(header[:len(bearerPrefix)], bearerPrefix) {
		return "", false
	}
	return header[len(bearerPrefix):], true
}

// GetAccountID retrieves the authenticated account ID from the context.
func GetAccountID(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(accountIDKey{}).(int64)
	return id, ok
}
