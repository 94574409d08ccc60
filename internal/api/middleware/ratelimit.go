package middleware

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Togather-Foundation/events-api/internal/config"
	"golang.org/x/time/rate"
)

const (
	limiterIdleTTL       = 15 * time.Minute
	limiterSweepInterval = 5 * time.Minute
)

// RateLimit applies a per-client token bucket of cfg.PerMinute requests per
// minute, bursting up to the same amount. Probe endpoints are never limited.
// A zero limit disables the middleware.
func RateLimit(cfg config.RateLimitConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if cfg.PerMinute <= 0 {
			return next
		}
		store := newLimiterStore(cfg.PerMinute, time.Now)
		retryAfter := strconv.Itoa(int(store.interval.Seconds()) + 1)

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/healthz" || r.URL.Path == "/readyz" {
				next.ServeHTTP(w, r)
				return
			}

			if !store.limiter(clientKey(r, cfg.TrustedProxyCIDRs)).Allow() {
				w.Header().Set("Retry-After", retryAfter)
				w.WriteHeader(http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

type limiterStore struct {
	mu        sync.Mutex
	limiters  map[string]*limiterEntry
	interval  time.Duration
	burst     int
	now       func() time.Time
	lastSweep time.Time
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newLimiterStore(perMinute int, now func() time.Time) *limiterStore {
	return &limiterStore{
		limiters:  make(map[string]*limiterEntry),
		interval:  time.Minute / time.Duration(perMinute),
		burst:     perMinute,
		now:       now,
		lastSweep: now(),
	}
}

func (s *limiterStore) limiter(key string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if now.Sub(s.lastSweep) > limiterSweepInterval {
		s.sweep(now)
	}

	if entry, ok := s.limiters[key]; ok {
		entry.lastSeen = now
		return entry.limiter
	}

	limiter := rate.NewLimiter(rate.Every(s.interval), s.burst)
	s.limiters[key] = &limiterEntry{limiter: limiter, lastSeen: now}
	return limiter
}

// sweep drops limiters idle longer than limiterIdleTTL. Caller holds s.mu.
func (s *limiterStore) sweep(now time.Time) {
	for key, entry := range s.limiters {
		if now.Sub(entry.lastSeen) > limiterIdleTTL {
			delete(s.limiters, key)
		}
	}
	s.lastSweep = now
}

func (s *limiterStore) size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.limiters)
}

// clientKey identifies the caller by connection IP. X-Forwarded-For and
// X-Real-IP are only honored when the connection comes from a trusted proxy.
func clientKey(r *http.Request, trustedProxyCIDRs []string) string {
	remoteIP := remoteHost(r)
	if isTrustedProxy(remoteIP, trustedProxyCIDRs) {
		if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
			first, _, _ := strings.Cut(forwarded, ",")
			if first = strings.TrimSpace(first); first != "" {
				return first
			}
		}
		if realIP := strings.TrimSpace(r.Header.Get("X-Real-IP")); realIP != "" {
			return realIP
		}
	}

	return remoteIP
}

func isTrustedProxy(ip string, trustedCIDRs []string) bool {
	if len(trustedCIDRs) == 0 {
		return false
	}

	parsedIP := net.ParseIP(ip)
	if parsedIP == nil {
		return false
	}

	for _, cidrStr := range trustedCIDRs {
		_, cidr, err := net.ParseCIDR(cidrStr)
		if err != nil {
			continue
		}
		if cidr.Contains(parsedIP) {
			return true
		}
	}
	return false
}
