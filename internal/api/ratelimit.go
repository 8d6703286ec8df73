// ABOUTME: Per-key in-memory rate limiter for state-changing requests.
// ABOUTME: Uses golang.org/x/time/rate with background cleanup of idle entries.
package api

import (
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/scarson/taskboard/internal/board"
)

type keyedRateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	r        rate.Limit
	burst    int
	evictTTL time.Duration
	lastSeen map[string]time.Time
	done     chan struct{}
	stopOnce sync.Once
}

func newKeyedRateLimiter(r rate.Limit, burst int, evictTTL time.Duration) *keyedRateLimiter {
	rl := &keyedRateLimiter{
		limiters: make(map[string]*rate.Limiter),
		lastSeen: make(map[string]time.Time),
		r:        r,
		burst:    burst,
		evictTTL: evictTTL,
		done:     make(chan struct{}),
	}
	go rl.cleanupLoop()
	return rl
}

// Allow reports whether key is within its rate limit.
func (rl *keyedRateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	l, ok := rl.limiters[key]
	if !ok {
		l = rate.NewLimiter(rl.r, rl.burst)
		rl.limiters[key] = l
	}
	rl.lastSeen[key] = time.Now()
	return l.Allow()
}

func (rl *keyedRateLimiter) cleanupLoop() {
	ticker := time.NewTicker(rl.evictTTL / 2)
	defer ticker.Stop()
	for {
		select {
		case <-rl.done:
			return
		case <-ticker.C:
		}
		rl.mu.Lock()
		cutoff := time.Now().Add(-rl.evictTTL)
		for key, last := range rl.lastSeen {
			if last.Before(cutoff) {
				delete(rl.limiters, key)
				delete(rl.lastSeen, key)
			}
		}
		rl.mu.Unlock()
	}
}

// Stop ends the cleanup goroutine. Safe to call more than once.
func (rl *keyedRateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.done) })
}

// writeRateLimit returns a middleware that limits unsafe requests per
// authenticated user, falling back to the client IP. Safe requests pass
// untouched. chi's RealIP middleware must run first so X-Forwarded-For is
// honoured behind a reverse proxy.
func (srv *Server) writeRateLimit() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if board.ClassifyHTTPMethod(r.Method) == board.Safe {
				next.ServeHTTP(w, r)
				return
			}
			if !srv.writeLimiter.Allow(rateKey(r)) {
				w.Header().Set("Retry-After", "1")
				http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func rateKey(r *http.Request) string {
	if id := userIDFrom(r); id != uuid.Nil {
		return "user:" + id.String()
	}
	ip := r.RemoteAddr
	if host, _, err := net.SplitHostPort(ip); err == nil {
		ip = host
	}
	return "ip:" + ip
}
