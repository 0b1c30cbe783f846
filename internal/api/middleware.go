package api

import (
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/streamcast/streamcast-notify/internal/api/respond"
)

// --------------------------------------------------------------------------
// Request timing middleware
// --------------------------------------------------------------------------

// TimingMiddleware adds X-Process-Time header to all responses.
func TimingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		elapsed := time.Since(start)
		w.Header().Set("X-Process-Time", fmt.Sprintf("%.2fms", float64(elapsed.Microseconds())/1000.0))
	})
}

// --------------------------------------------------------------------------
// Rate limiting middleware (IP-based token bucket)
// --------------------------------------------------------------------------

// maxTrackedIPs caps the limiter map; reaching it triggers a stale sweep so
// the map cannot grow without bound under address churn.
const maxTrackedIPs = 10000

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type ipLimiter struct {
	mu       sync.Mutex
	limiters map[string]*limiterEntry
	rate     rate.Limit
	burst    int
	ttl      time.Duration // idle time after which an entry is evictable
}

func newIPLimiter(requestsPerWindow int, window time.Duration) *ipLimiter {
	rps := float64(requestsPerWindow) / window.Seconds()
	return &ipLimiter{
		limiters: make(map[string]*limiterEntry),
		rate:     rate.Limit(rps),
		burst:    requestsPerWindow / 2,
		ttl:      3 * window,
	}
}

func (l *ipLimiter) getLimiter(ip string) *rate.Limiter {
	now := time.Now()
	l.mu.Lock()
	defer l.mu.Unlock()
	if entry, exists := l.limiters[ip]; exists {
		entry.lastSeen = now
		return entry.limiter
	}
	if len(l.limiters) >= maxTrackedIPs {
		l.evictStale(now)
	}
	entry := &limiterEntry{limiter: rate.NewLimiter(l.rate, l.burst), lastSeen: now}
	l.limiters[ip] = entry
	return entry.limiter
}

// evictStale removes entries idle longer than ttl. Caller holds l.mu.
func (l *ipLimiter) evictStale(now time.Time) {
	for ip, entry := range l.limiters {
		if now.Sub(entry.lastSeen) > l.ttl {
			delete(l.limiters, ip)
		}
	}
}

// RateLimitMiddleware returns middleware that rate-limits by client IP.
func RateLimitMiddleware(requestsPerWindow int, window time.Duration) func(http.Handler) http.Handler {
	limiter := newIPLimiter(requestsPerWindow, window)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip, _, _ := net.SplitHostPort(r.RemoteAddr)
			if ip == "" {
				ip = r.RemoteAddr
			}

			if !limiter.getLimiter(ip).Allow() {
				w.Header().Set("Retry-After", fmt.Sprintf("%d", int(window.Seconds())))
				respond.WriteError(w, http.StatusTooManyRequests, respond.CodeRateLimited, "Too many requests")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
