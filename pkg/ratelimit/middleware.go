package ratelimit

import (
	"log/slog"
	"net"
	"net/http"

	"github.com/redditgrowth/reddit-manager/pkg/common"
)

// Middleware rejects over-limit requests with 429. Keys are client IPs,
// so it should run after a RealIP middleware.
func Middleware(limiter *Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := clientIP(r)
			if !limiter.Allow(key) {
				slog.Warn("Rate limit exceeded", "ip", key, "path", r.URL.Path)
				common.RespondError(w, r, http.StatusTooManyRequests, "Too many requests")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
