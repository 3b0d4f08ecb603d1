// Package middleware provides the two ambient HTTP middlewares wrapping
// every REST and WebSocket upgrade endpoint: a per-IP token-bucket rate
// limiter and a structured request logger.
//
// Adapted from the teacher's internal/middleware/middleware.go — same
// token-bucket shape and zap logging fields, generalized to sit in front of
// the coordinator's own mux instead of the gateway's.
package middleware

import (
	"net"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
)

// RateLimiter is a per-client-IP token bucket; a client exceeding rate
// requests per interval gets 429s until the bucket refills.
type RateLimiter struct {
	mu       sync.Mutex
	tokens   map[string]*bucket
	rate     int
	interval time.Duration
	logger   *zap.Logger
}

type bucket struct {
	tokens    int
	lastReset time.Time
}

// NewRateLimiter constructs a limiter allowing ratePerMinute requests per
// client IP, reset every minute.
func NewRateLimiter(ratePerMinute int, logger *zap.Logger) *RateLimiter {
	return &RateLimiter{
		tokens:   make(map[string]*bucket),
		rate:     ratePerMinute,
		interval: time.Minute,
		logger:   logger,
	}
}

// Middleware wraps next with the rate check.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.RemoteAddr
		if host, _, err := net.SplitHostPort(key); err == nil {
			key = host
		}
		if !rl.allow(key) {
			rl.logger.Warn("rate limit exceeded", zap.String("ip", r.RemoteAddr))
			http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (rl *RateLimiter) allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	b, ok := rl.tokens[key]
	if !ok {
		rl.tokens[key] = &bucket{tokens: rl.rate - 1, lastReset: now}
		return true
	}
	if now.Sub(b.lastReset) >= rl.interval {
		b.tokens = rl.rate - 1
		b.lastReset = now
		return true
	}
	if b.tokens > 0 {
		b.tokens--
		return true
	}
	return false
}

// LoggingMiddleware logs method, path, remote address, and duration for
// every request.
func LoggingMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)
			logger.Info("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("remote_addr", r.RemoteAddr),
				zap.Duration("duration", time.Since(start)),
			)
		})
	}
}
