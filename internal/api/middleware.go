package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/klauspost/compress/gzhttp"
	"golang.org/x/time/rate"
)

// CompressionMiddleware gzips responses of clients that accept it.
func CompressionMiddleware(next http.Handler) http.Handler {
	wrapper, err := gzhttp.NewWrapper(gzhttp.MinSize(1024), gzhttp.CompressionLevel(6))
	if err != nil {
		return gzhttp.GzipHandler(next)
	}
	return wrapper(next)
}

// NewRateLimitMiddleware limits the whole API to ratePerSecond requests with
// the given burst. All clients share one limiter.
func NewRateLimitMiddleware(ratePerSecond float64, burst int) func(http.Handler) http.Handler {
	if burst <= 0 {
		burst = int(ratePerSecond) + 1
	}
	limiter := rate.NewLimiter(rate.Limit(ratePerSecond), burst)
	retryAfter := int(time.Duration(float64(time.Second)/ratePerSecond).Seconds()) + 1

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				w.Header().Set("X-RateLimit-Limit", strconv.Itoa(burst))
				w.Header().Set("X-RateLimit-Remaining", "0")
				w.WriteHeader(http.StatusTooManyRequests)
				json.NewEncoder(w).Encode(map[string]interface{}{
					"code": http.StatusTooManyRequests,
					"text": "Rate limit exceeded. Please try again later.",
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
