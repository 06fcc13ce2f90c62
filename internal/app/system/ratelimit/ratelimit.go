// internal/app/system/ratelimit/ratelimit.go
package ratelimit

import (
	"encoding/json"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Limiter is a set of token buckets keyed by an arbitrary string (client IP,
// email). Buckets idle for longer than the idle window are dropped.
// It is safe for concurrent use.
type Limiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	every   rate.Limit
	burst   int
	idle    time.Duration

	stopOnce sync.Once
	stopCh   chan struct{}
}

type bucket struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// New creates a limiter allowing perMinute requests per key on average,
// with bursts of up to burst.
func New(perMinute, burst int) *Limiter {
	if perMinute <= 0 {
		perMinute = 1
	}
	if burst <= 0 {
		burst = perMinute
	}
	l := &Limiter{
		buckets: make(map[string]*bucket),
		every:   rate.Every(time.Minute / time.Duration(perMinute)),
		burst:   burst,
		idle:    10 * time.Minute,
		stopCh:  make(chan struct{}),
	}
	go l.cleanupLoop(5 * time.Minute)
	return l
}

func (l *Limiter) get(key string, now time.Time) *bucket {
	l.mu.Lock()
	defer l.mu.Unlock()
	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{lim: rate.NewLimiter(l.every, l.burst)}
		l.buckets[key] = b
	}
	b.lastSeen = now
	return b
}

// Allow reports whether a request for key may proceed now.
func (l *Limiter) Allow(key string) bool {
	now := time.Now()
	return l.get(key, now).lim.AllowN(now, 1)
}

// RetryAfter estimates how long until key has a token again.
func (l *Limiter) RetryAfter(key string) time.Duration {
	now := time.Now()
	r := l.get(key, now).lim.ReserveN(now, 1)
	d := r.DelayFrom(now)
	r.CancelAt(now)
	return d
}

// Reset clears the bucket for a key.
func (l *Limiter) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.buckets, key)
}

// Close stops the background cleanup.
func (l *Limiter) Close() {
	l.stopOnce.Do(func() { close(l.stopCh) })
}

func (l *Limiter) sweep(now time.Time) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for key, b := range l.buckets {
		if now.Sub(b.lastSeen) > l.idle {
			delete(l.buckets, key)
			n++
		}
	}
	return n
}

// cleanupLoop periodically removes idle entries to prevent memory leaks.
func (l *Limiter) cleanupLoop(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case now := <-ticker.C:
			l.sweep(now)
		case <-l.stopCh:
			return
		}
	}
}

// ClientIP extracts the client IP from r.RemoteAddr. Proxy headers are not
// read here: behind a trusted proxy the router runs chi's middleware.RealIP
// (config trust_proxy), which rewrites RemoteAddr before this is called.
func ClientIP(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// TooMany writes 429 with the app's JSON error shape and a Retry-After hint.
func TooMany(w http.ResponseWriter, retryAfter time.Duration, message string) {
	secs := int(retryAfter.Round(time.Second).Seconds())
	if secs < 1 {
		secs = 1
	}
	w.Header().Set("Retry-After", strconv.Itoa(secs))
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusTooManyRequests)
	_ = json.NewEncoder(w).Encode(map[string]any{"success": false, "message": message})
}

// LoginLimiter throttles credential endpoints by client IP (middleware)
// and by target email (checked by the login handler after decoding).
type LoginLimiter struct {
	ip     *Limiter
	email  *Limiter
	logger *zap.Logger
}

// NewLoginLimiter allows perMinute attempts per IP with the given burst,
// and bursts of 5 attempts per email refilling at one a minute.
func NewLoginLimiter(perMinute, burst int, logger *zap.Logger) *LoginLimiter {
	return &LoginLimiter{
		ip:     New(perMinute, burst),
		email:  New(1, 5),
		logger: logger,
	}
}

// Middleware rejects requests from an IP that has exhausted its budget.
func (ll *LoginLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := ClientIP(r)
		if !ll.ip.Allow(ip) {
			ll.logger.Warn("rate limited", zap.String("ip", ip), zap.String("path", r.URL.Path))
			TooMany(w, ll.ip.RetryAfter(ip), "too many attempts; please wait a minute and try again")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// AllowEmail reports whether another login attempt for email may proceed.
func (ll *LoginLimiter) AllowEmail(email string) (bool, time.Duration) {
	key := strings.ToLower(strings.TrimSpace(email))
	if key == "" {
		return true, 0
	}
	if ll.email.Allow(key) {
		return true, 0
	}
	return false, ll.email.RetryAfter(key)
}

// ResetEmail clears the per-email budget after a successful login.
func (ll *LoginLimiter) ResetEmail(email string) {
	if key := strings.ToLower(strings.TrimSpace(email)); key != "" {
		ll.email.Reset(key)
	}
}

// Close stops both limiters' cleanup goroutines.
func (ll *LoginLimiter) Close() {
	ll.ip.Close()
	ll.email.Close()
}
