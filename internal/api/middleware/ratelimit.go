package middleware

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/httprate"
)

// RateLimitConfig is a fixed request budget per sliding window.
type RateLimitConfig struct {
	RequestLimit int
	WindowLength time.Duration
}

var (
	// AuthRateLimit guards registration and login: 10 requests per minute.
	AuthRateLimit = RateLimitConfig{RequestLimit: 10, WindowLength: time.Minute}

	// StandardRateLimit guards authenticated endpoints: 100 requests per minute.
	StandardRateLimit = RateLimitConfig{RequestLimit: 100, WindowLength: time.Minute}
)

// Or returns c, or fallback when c has no budget configured.
func (c RateLimitConfig) Or(fallback RateLimitConfig) RateLimitConfig {
	if c.RequestLimit <= 0 || c.WindowLength <= 0 {
		return fallback
	}
	return c
}

// RateLimitByIP limits requests per client IP as resolved by chi's RealIP.
func RateLimitByIP(cfg RateLimitConfig) func(http.Handler) http.Handler {
	return cfg.limit(httprate.KeyByRealIP)
}

// RateLimitByAccount limits requests per authenticated account, falling back
// to the client IP for anonymous requests.
func RateLimitByAccount(cfg RateLimitConfig) func(http.Handler) http.Handler {
	return cfg.limit(func(r *http.Request) (string, error) {
		if id, ok := GetAccountID(r.Context()); ok {
			return "account:" + strconv.FormatInt(id, 10), nil
		}
		return httprate.KeyByRealIP(r)
	})
}

func (c RateLimitConfig) limit(key httprate.KeyFunc) func(http.Handler) http.Handler {
	// httprate does not expose the reset time, so clients wait a full window.
	retryAfter := strconv.Itoa(int(math.Ceil(c.WindowLength.Seconds())))

	return httprate.Limit(c.RequestLimit, c.WindowLength,
		httprate.WithKeyFuncs(key),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Retry-After", retryAfter)
			writeProblem(w, r, http.StatusTooManyRequests, "Rate limit exceeded. Please try again later.")
		}),
	)
}
