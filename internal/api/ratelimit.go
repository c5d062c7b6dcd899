package api

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

// RateLimitConfig sizes the per-client token buckets of the debug server.
type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
	// Idle buckets are forgotten after twice this interval. Zero disables the sweep.
	CleanupInterval time.Duration
}

// DefaultRateLimitConfig lets an overlay page poll /api/hud several times a second.
var DefaultRateLimitConfig = RateLimitConfig{
	RequestsPerSecond: 20,
	Burst:             40,
	CleanupInterval:   5 * time.Minute,
}

type visitor struct {
	bucket *rate.Limiter
	seen   time.Time
}

// IPRateLimiter gives every client address its own token bucket.
type IPRateLimiter struct {
	cfg RateLimitConfig

	mu       sync.Mutex
	visitors map[string]*visitor

	allowed  atomic.Uint64
	rejected atomic.Uint64

	quit     chan struct{}
	quitOnce sync.Once
}

// RateLimitStats counts limiter decisions since start.
type RateLimitStats struct {
	Allowed  uint64
	Rejected uint64
}

// NewIPRateLimiter starts a limiter and, when cfg.CleanupInterval is set, its sweeper.
func NewIPRateLimiter(cfg RateLimitConfig) *IPRateLimiter {
	rl := &IPRateLimiter{
		cfg:      cfg,
		visitors: make(map[string]*visitor),
		quit:     make(chan struct{}),
	}
	if cfg.CleanupInterval > 0 {
		go rl.sweepLoop()
	}
	return rl
}

// Stop ends the sweeper. Safe to call more than once.
func (rl *IPRateLimiter) Stop() {
	rl.quitOnce.Do(func() { close(rl.quit) })
}

// Allow spends one token from ip's bucket.
func (rl *IPRateLimiter) Allow(ip string) bool {
	rl.mu.Lock()
	v, ok := rl.visitors[ip]
	if !ok {
		v = &visitor{bucket: rate.NewLimiter(rate.Limit(rl.cfg.RequestsPerSecond), rl.cfg.Burst)}
		rl.visitors[ip] = v
	}
	v.seen = time.Now()
	rl.mu.Unlock()

	if v.bucket.Allow() {
		rl.allowed.Add(1)
		return true
	}
	rl.rejected.Add(1)
	return false
}

func (rl *IPRateLimiter) sweepLoop() {
	ticker := time.NewTicker(rl.cfg.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-rl.quit:
			return
		case now := <-ticker.C:
			rl.sweep(now)
		}
	}
}

// sweep forgets clients idle for more than two cleanup intervals.
func (rl *IPRateLimiter) sweep(now time.Time) {
	cutoff := now.Add(-2 * rl.cfg.CleanupInterval)

	rl.mu.Lock()
	defer rl.mu.Unlock()
	for ip, v := range rl.visitors {
		if v.seen.Before(cutoff) {
			delete(rl.visitors, ip)
		}
	}
}

// Tracked returns how many client buckets are held.
func (rl *IPRateLimiter) Tracked() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.visitors)
}

// Stats returns allow/reject totals.
func (rl *IPRateLimiter) Stats() RateLimitStats {
	return RateLimitStats{Allowed: rl.allowed.Load(), Rejected: rl.rejected.Load()}
}

// Middleware answers 429 once a client's bucket is empty.
func (rl *IPRateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if rl.Allow(GetClientIP(r)) {
			next.ServeHTTP(w, r)
			return
		}
		RecordConnectionRejected("rate_limit")
		w.Header().Set("Retry-After", "1")
		http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
	})
}

// GetClientIP returns the first X-Forwarded-For hop, then X-Real-IP, then the
// socket peer. Forwarding headers are trusted as-is.
func GetClientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		return strings.TrimSpace(first)
	}
	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		return xri
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// ConnLimiter caps long-lived connections (websockets) per client address.
type ConnLimiter struct {
	max int

	mu    sync.Mutex
	conns map[string]int
}

// NewConnLimiter allows up to limit concurrent connections per address.
func NewConnLimiter(limit int) *ConnLimiter {
	return &ConnLimiter{max: limit, conns: make(map[string]int)}
}

// Acquire takes a slot for ip. Pair every true result with Release.
func (cl *ConnLimiter) Acquire(ip string) bool {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	if cl.conns[ip] >= cl.max {
		return false
	}
	cl.conns[ip]++
	return true
}

// Release returns a slot taken by Acquire.
func (cl *ConnLimiter) Release(ip string) {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	switch n := cl.conns[ip]; {
	case n > 1:
		cl.conns[ip] = n - 1
	case n == 1:
		delete(cl.conns, ip)
	}
}

// Count returns the open connections held by ip.
func (cl *ConnLimiter) Count(ip string) int {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	return cl.conns[ip]
}
