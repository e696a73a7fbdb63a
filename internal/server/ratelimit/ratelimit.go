// Package ratelimit throttles the gateway routes that forward credentials or
// expensive uploads to the backend, using one token bucket per client and rule.
package ratelimit

import (
	"encoding/json"
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Rule allows Limit requests per Window on one method and path, with bursts
// of up to Burst (Limit when zero).
type Rule struct {
	Method string
	Path   string
	Limit  int
	Window time.Duration
	Burst  int
}

// DefaultRules covers the credential routes and bulk analysis.
func DefaultRules() []Rule {
	return []Rule{
		{Method: http.MethodPost, Path: "/login", Limit: 10, Window: time.Minute, Burst: 5},
		{Method: http.MethodPost, Path: "/register", Limit: 5, Window: time.Hour, Burst: 3},
		{Method: http.MethodPost, Path: "/password-reset", Limit: 5, Window: time.Hour, Burst: 2},
		{Method: http.MethodPost, Path: "/password-reset-confirm", Limit: 10, Window: time.Hour, Burst: 3},
		{Method: http.MethodPost, Path: "/bulk-analysis", Limit: 20, Window: time.Hour, Burst: 3},
	}
}

// bucket is one client's limiter for one rule.
type bucket struct {
	lim  *rate.Limiter
	last time.Time
}

func (b *bucket) take(now time.Time) (ok bool, wait time.Duration) {
	b.last = now
	r := b.lim.ReserveN(now, 1)
	if !r.OK() {
		return false, 0
	}
	if d := r.DelayFrom(now); d > 0 {
		r.CancelAt(now)
		return false, d
	}
	return true, 0
}

// idleAfter is how long an untouched bucket is kept.
const idleAfter = time.Hour

// Limiter holds the buckets. It is safe for concurrent use.
type Limiter struct {
	rules []Rule
	now   func() time.Time

	mu        sync.Mutex
	buckets   map[string]*bucket
	lastSweep time.Time
}

// New returns a limiter enforcing rules.
func New(rules []Rule) *Limiter {
	return &Limiter{rules: rules, now: time.Now, buckets: make(map[string]*bucket)}
}

// Allow consumes a token for client on method and path. Requests no rule
// matches are always allowed. retryAfter is set when the request is refused.
func (l *Limiter) Allow(client, method, path string) (allowed bool, retryAfter time.Duration) {
	rule, ok := l.match(method, path)
	if !ok || rule.Limit <= 0 || rule.Window <= 0 {
		return true, 0
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.sweep(now)

	key := client + " " + rule.Method + " " + rule.Path
	b, exists := l.buckets[key]
	if !exists {
		capacity := rule.Burst
		if capacity <= 0 {
			capacity = rule.Limit
		}
		every := rate.Limit(float64(rule.Limit) / rule.Window.Seconds())
		b = &bucket{lim: rate.NewLimiter(every, capacity), last: now}
		l.buckets[key] = b
	}
	return b.take(now)
}

func (l *Limiter) match(method, path string) (Rule, bool) {
	for _, r := range l.rules {
		if r.Method == method && r.Path == path {
			return r, true
		}
	}
	return Rule{}, false
}

// sweep drops buckets idle long enough to be full again. Callers hold mu.
func (l *Limiter) sweep(now time.Time) {
	if now.Sub(l.lastSweep) < idleAfter {
		return
	}
	l.lastSweep = now
	for key, b := range l.buckets {
		if now.Sub(b.last) >= idleAfter {
			delete(l.buckets, key)
		}
	}
}

// Middleware refuses throttled requests with 429 and a Retry-After header.
func Middleware(l *Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			allowed, wait := l.Allow(ClientID(r), r.Method, r.URL.Path)
			if allowed {
				next.ServeHTTP(w, r)
				return
			}

			seconds := int(math.Ceil(wait.Seconds()))
			if seconds < 1 {
				seconds = 1
			}
			w.Header().Set("Retry-After", strconv.Itoa(seconds))
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"error":       "too many requests",
				"retry_after": seconds,
			})
		})
	}
}

// ClientID identifies the caller by remote IP.
func ClientID(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
