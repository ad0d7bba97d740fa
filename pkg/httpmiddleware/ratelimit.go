package httpmiddleware

import (
	"context"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// RateLimitConfig configures the sliding window rate limiter.
type RateLimitConfig struct {
	// Max is the number of requests allowed per key and window. Zero or
	// less disables limiting.
	Max    int
	Window time.Duration
	// Key extracts the limit key from a request. Defaults to ClientIP.
	// Use ForwardedClientIP only behind a proxy that overwrites the
	// forwarding headers.
	Key func(*http.Request) string
}

// counter approximates a sliding window from the current and previous fixed
// windows.
type counter struct {
	start time.Time
	curr  float64
	prev  float64
}

type limiter struct {
	max    int
	window time.Duration
	key    func(*http.Request) string
	now    func() time.Time

	mu       sync.Mutex
	counters map[string]*counter
}

func newLimiter(cfg RateLimitConfig) *limiter {
	key := cfg.Key
	if key == nil {
		key = ClientIP
	}
	return &limiter{
		max:      cfg.Max,
		window:   cfg.Window,
		key:      key,
		now:      time.Now,
		counters: make(map[string]*counter),
	}
}

// take records one request for key and reports whether it is allowed, how
// many requests remain and when the current window ends.
func (l *limiter) take(key string) (allowed bool, remaining int, reset time.Time) {
	now := l.now()
	start := now.Truncate(l.window)

	l.mu.Lock()
	defer l.mu.Unlock()

	c, ok := l.counters[key]
	switch {
	case !ok:
		c = &counter{start: start}
		l.counters[key] = c
	case start.Sub(c.start) == l.window:
		c.prev, c.curr, c.start = c.curr, 0, start
	case start.After(c.start):
		c.prev, c.curr, c.start = 0, 0, start
	}

	reset = start.Add(l.window)
	weight := 1 - float64(now.Sub(start))/float64(l.window)
	used := c.prev*weight + c.curr
	if used >= float64(l.max) {
		return false, 0, reset
	}
	c.curr++
	return true, max(l.max-int(math.Ceil(used+1)), 0), reset
}

// evict drops counters that no longer affect any decision.
func (l *limiter) evict() {
	cutoff := l.now().Truncate(l.window).Add(-l.window)

	l.mu.Lock()
	defer l.mu.Unlock()
	for key, c := range l.counters {
		if c.start.Before(cutoff) {
			delete(l.counters, key)
		}
	}
}

func (l *limiter) evictEvery(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.evict()
		}
	}
}

// RateLimit enforces a per-key sliding window limit. Rejected requests get
// 429 {"detail":"Too many requests"} with Retry-After. Every limited
// response carries X-RateLimit-Limit, X-RateLimit-Remaining and
// X-RateLimit-Reset. Stale counters are evicted until ctx is done.
func RateLimit(ctx context.Context, cfg RateLimitConfig) Middleware {
	if cfg.Max <= 0 || cfg.Window <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	l := newLimiter(cfg)
	go l.evictEvery(ctx, 2*cfg.Window)
	return l.middleware
}

func (l *limiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowed, remaining, reset := l.take(l.key(r))

		h := w.Header()
		h.Set("X-RateLimit-Limit", strconv.Itoa(l.max))
		h.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
		h.Set("X-RateLimit-Reset", strconv.FormatInt(reset.Unix(), 10))

		if !allowed {
			wait := reset.Sub(l.now())
			h.Set("Retry-After", strconv.Itoa(max(int(math.Ceil(wait.Seconds())), 1)))
			h.Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"detail":"Too many requests"}`))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ClientIP returns the host part of RemoteAddr.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// ForwardedClientIP returns the first X-Forwarded-For address, then
// X-Real-IP, then ClientIP. Clients control these headers.
func ForwardedClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	return ClientIP(r)
}
