package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/LzzJustBeYou/MedScore/internal/platform/auth"
)

// Limit is one token bucket policy.
type Limit struct {
	RequestsPerSecond float64
	BurstSize         int
}

// RateLimitConfig holds rate limiting configuration. Requests that run the
// score calculator draw from a separate Scoring bucket; a zero Scoring limit
// falls back to the general one.
type RateLimitConfig struct {
	RequestsPerSecond float64
	BurstSize         int
	Scoring           Limit
	// IdleTTL evicts buckets that have not been used for this long. Zero
	// keeps buckets forever.
	IdleTTL time.Duration
}

// DefaultRateLimitConfig returns default rate limiting settings.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		RequestsPerSecond: 100,
		BurstSize:         200,
		Scoring:           Limit{RequestsPerSecond: 20, BurstSize: 40},
		IdleTTL:           10 * time.Minute,
	}
}

func (c RateLimitConfig) general() Limit {
	return Limit{RequestsPerSecond: c.RequestsPerSecond, BurstSize: c.BurstSize}
}

func (c RateLimitConfig) scoring() Limit {
	if c.Scoring.RequestsPerSecond <= 0 || c.Scoring.BurstSize <= 0 {
		return c.general()
	}
	return c.Scoring
}

// ScoringRoute reports whether the matched route computes a score: the
// calculate endpoint, record creation and rescoring.
func ScoringRoute(c echo.Context) bool {
	path := c.Path()
	if strings.HasSuffix(path, "/calculate") {
		return true
	}
	if !strings.Contains(path, "/records") {
		return false
	}
	switch c.Request().Method {
	case http.MethodPost:
		return strings.HasSuffix(path, "/records")
	case http.MethodPut:
		return strings.HasSuffix(path, "/records/:id")
	}
	return false
}

type tokenBucket struct {
	tokens     float64
	maxTokens  float64
	refillRate float64 // per second
	lastRefill time.Time
	mu         sync.Mutex
}

func newTokenBucket(l Limit, now time.Time) *tokenBucket {
	return &tokenBucket{
		tokens:     float64(l.BurstSize),
		maxTokens:  float64(l.BurstSize),
		refillRate: l.RequestsPerSecond,
		lastRefill: now,
	}
}

func (b *tokenBucket) refill(now time.Time) {
	b.tokens += now.Sub(b.lastRefill).Seconds() * b.refillRate
	if b.tokens > b.maxTokens {
		b.tokens = b.maxTokens
	}
	b.lastRefill = now
}

// take consumes one token and returns what is left. ok is false when the
// bucket is empty.
func (b *tokenBucket) take(now time.Time) (remaining int, ok bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.refill(now)
	if b.tokens < 1 {
		return 0, false
	}
	b.tokens--
	return int(b.tokens), true
}

func (b *tokenBucket) retryAfter() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.refillRate <= 0 {
		return 1
	}
	return int((1-b.tokens)/b.refillRate) + 1
}

func (b *tokenBucket) idleSince(now time.Time) time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()
	return now.Sub(b.lastRefill)
}

// bucketStore holds per-client buckets for one policy.
type bucketStore struct {
	limit     Limit
	ttl       time.Duration
	now       func() time.Time
	mu        sync.Mutex
	buckets   map[string]*tokenBucket
	lastSweep time.Time
}

func newBucketStore(l Limit, ttl time.Duration, now func() time.Time) *bucketStore {
	return &bucketStore{
		limit:     l,
		ttl:       ttl,
		now:       now,
		buckets:   make(map[string]*tokenBucket),
		lastSweep: now(),
	}
}

func (s *bucketStore) get(key string) *tokenBucket {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ttl > 0 && now.Sub(s.lastSweep) >= s.ttl {
		for k, b := range s.buckets {
			if b.idleSince(now) >= s.ttl {
				delete(s.buckets, k)
			}
		}
		s.lastSweep = now
	}

	b, ok := s.buckets[key]
	if !ok {
		b = newTokenBucket(s.limit, now)
		s.buckets[key] = b
	}
	return b
}

func (s *bucketStore) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.buckets)
}

// RateLimit returns a rate limiting middleware keyed by client address and,
// once authenticated, by user.
func RateLimit(cfg RateLimitConfig) echo.MiddlewareFunc {
	return rateLimit(cfg, time.Now)
}

func rateLimit(cfg RateLimitConfig, now func() time.Time) echo.MiddlewareFunc {
	general := newBucketStore(cfg.general(), cfg.IdleTTL, now)
	scoring := newBucketStore(cfg.scoring(), cfg.IdleTTL, now)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := c.RealIP()
			if uid := auth.UserIDFromContext(c.Request().Context()); uid != "" {
				key = uid + ":" + key
			}

			store, policy := general, "general"
			if ScoringRoute(c) {
				store, policy = scoring, "scoring"
			}

			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", strconv.FormatFloat(store.limit.RequestsPerSecond, 'f', 0, 64))
			h.Set("X-RateLimit-Policy", policy)

			bucket := store.get(key)
			remaining, ok := bucket.take(now())
			if !ok {
				h.Set("Retry-After", strconv.Itoa(bucket.retryAfter()))
				h.Set("X-RateLimit-Remaining", "0")
				return echo.NewHTTPError(http.StatusTooManyRequests, "rate limit exceeded")
			}
			h.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
			return next(c)
		}
	}
}
