package middleware

import (
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/utafrali/ShopyKart/pkg/httputil"
	"github.com/utafrali/ShopyKart/pkg/logger"
)

// RateLimitConfig configures the per-client token bucket limiter.
type RateLimitConfig struct {
	// RPS is the sustained refill rate per client. Zero or less disables limiting.
	RPS float64
	// Burst is the bucket size per client.
	Burst int
	// IdleTTL is how long an unseen client keeps its bucket.
	IdleTTL time.Duration
	// TrustProxyHeaders keys clients by X-Forwarded-For / X-Real-IP.
	TrustProxyHeaders bool
}

// Enabled reports whether the config describes an active limiter.
func (c RateLimitConfig) Enabled() bool {
	return c.RPS > 0
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// VisitorStore tracks one limiter per client key. Stale entries are swept on
// access, at most once per IdleTTL.
type VisitorStore struct {
	mu        sync.Mutex
	visitors  map[string]*visitor
	limit     rate.Limit
	burst     int
	ttl       time.Duration
	lastSweep time.Time
	now       func() time.Time
}

// NewVisitorStore creates a store from cfg, filling in defaults.
func NewVisitorStore(cfg RateLimitConfig) *VisitorStore {
	burst := cfg.Burst
	if burst < 1 {
		burst = int(math.Ceil(cfg.RPS))
	}
	if burst < 1 {
		burst = 1
	}
	ttl := cfg.IdleTTL
	if ttl <= 0 {
		ttl = 3 * time.Minute
	}
	return &VisitorStore{
		visitors: make(map[string]*visitor),
		limit:    rate.Limit(cfg.RPS),
		burst:    burst,
		ttl:      ttl,
		now:      time.Now,
	}
}

// Allow consumes one token for key and reports whether the request may pass.
func (s *VisitorStore) Allow(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if now.Sub(s.lastSweep) >= s.ttl {
		s.sweepLocked(now)
	}

	v, ok := s.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(s.limit, s.burst)}
		s.visitors[key] = v
	}
	v.lastSeen = now
	return v.limiter.AllowN(now, 1)
}

// Len returns the number of tracked clients.
func (s *VisitorStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.visitors)
}

func (s *VisitorStore) sweepLocked(now time.Time) {
	for key, v := range s.visitors {
		if now.Sub(v.lastSeen) > s.ttl {
			delete(s.visitors, key)
		}
	}
	s.lastSweep = now
}

// retryAfterSeconds is the wait for one token at the store's rate, rounded up.
func (s *VisitorStore) retryAfterSeconds() int {
	if s.limit <= 0 {
		return 1
	}
	secs := int(math.Ceil(1 / float64(s.limit)))
	if secs < 1 {
		secs = 1
	}
	return secs
}

// RateLimit returns middleware limiting each client to cfg.RPS with cfg.Burst.
// A disabled config returns a pass-through.
func RateLimit(cfg RateLimitConfig, log *slog.Logger) func(http.Handler) http.Handler {
	if !cfg.Enabled() {
		return func(next http.Handler) http.Handler { return next }
	}
	return rateLimitWithStore(NewVisitorStore(cfg), cfg.TrustProxyHeaders, log)
}

// rateLimitWithStore serves requests from an existing store.
func rateLimitWithStore(store *VisitorStore, trustProxy bool, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientIP(r, trustProxy)
			if store.Allow(ip) {
				next.ServeHTTP(w, r)
				return
			}

			log.WarnContext(r.Context(), "rate limit exceeded",
				slog.String("client_ip", ip),
				slog.String("path", r.URL.Path),
			)
			w.Header().Set("Retry-After", strconv.Itoa(store.retryAfterSeconds()))
			httputil.WriteJSON(w, http.StatusTooManyRequests, httputil.Response{Error: &httputil.ErrorResponse{
				Code:      "RATE_LIMITED",
				Message:   "too many requests",
				RequestID: logger.CorrelationIDFromContext(r.Context()),
			}})
		})
	}
}

// clientIP picks the limiter key. Proxy headers are only honored when trusted.
func clientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			first, _, _ := strings.Cut(xff, ",")
			if ip := strings.TrimSpace(first); ip != "" {
				return ip
			}
		}
		if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
			return xri
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
