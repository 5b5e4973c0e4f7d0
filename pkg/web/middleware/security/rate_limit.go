package security

import (
	"math"
	"strconv"
	"sync"
	"time"

	"github.com/fluxorio/todo-service/pkg/web"
	"github.com/valyala/fasthttp"
	"golang.org/x/time/rate"
)

// RateLimitConfig configures rate limiting
type RateLimitConfig struct {
	// RequestsPerMinute is the sustained rate per client
	RequestsPerMinute int

	// RequestsPerSecond is used when RequestsPerMinute is zero
	RequestsPerSecond int

	// Burst is the bucket size. Defaults to one minute's worth of requests
	Burst int

	// KeyFunc extracts a key from the request to identify the client
	// Default: remote IP address
	KeyFunc func(ctx *web.FastRequestContext) string

	// OnLimitReached is called when rate limit is exceeded
	// If nil, returns 429 Too Many Requests
	OnLimitReached func(ctx *web.FastRequestContext) error

	// Now overrides the clock, for tests
	Now func() time.Time
}

// DefaultRateLimitConfig returns a default rate limit configuration
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		RequestsPerMinute: 100,
	}
}

const (
	sweepInterval = 5 * time.Minute
	idleTTL       = 10 * time.Minute
)

// rateLimiter keeps one token bucket per key
type rateLimiter struct {
	mu        sync.Mutex
	buckets   map[string]*clientBucket
	limit     rate.Limit
	burst     int
	now       func() time.Time
	lastSweep time.Time
}

type clientBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newRateLimiter(perMinute, burst int, now func() time.Time) *rateLimiter {
	if now == nil {
		now = time.Now
	}
	return &rateLimiter{
		buckets:   make(map[string]*clientBucket),
		limit:     rate.Limit(float64(perMinute) / 60.0),
		burst:     burst,
		now:       now,
		lastSweep: now(),
	}
}

// allow takes a token for key. When none is left it reports how long
// until the next token.
func (rl *rateLimiter) allow(key string) (bool, time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	if now.Sub(rl.lastSweep) > sweepInterval {
		for k, b := range rl.buckets {
			if now.Sub(b.lastSeen) > idleTTL {
				delete(rl.buckets, k)
			}
		}
		rl.lastSweep = now
	}

	bucket, ok := rl.buckets[key]
	if !ok {
		bucket = &clientBucket{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.buckets[key] = bucket
	}
	bucket.lastSeen = now

	r := bucket.limiter.ReserveN(now, 1)
	if !r.OK() {
		return false, time.Minute
	}
	if delay := r.DelayFrom(now); delay > 0 {
		r.CancelAt(now)
		return false, delay
	}
	return true, 0
}

// RateLimit middleware enforces a per-client token bucket.
// Each call creates an independent limiter, so routes can carry their own limits.
func RateLimit(config RateLimitConfig) web.FastMiddleware {
	perMinute := config.RequestsPerMinute
	if perMinute == 0 && config.RequestsPerSecond > 0 {
		perMinute = config.RequestsPerSecond * 60
	}
	if perMinute <= 0 {
		perMinute = 100
	}

	burst := config.Burst
	if burst <= 0 {
		burst = perMinute
	}

	keyFunc := config.KeyFunc
	if keyFunc == nil {
		keyFunc = func(ctx *web.FastRequestContext) string {
			return ctx.RequestCtx.RemoteIP().String()
		}
	}

	limiter := newRateLimiter(perMinute, burst, config.Now)
	limitHeader := strconv.Itoa(perMinute)

	return func(next web.FastRequestHandler) web.FastRequestHandler {
		return func(ctx *web.FastRequestContext) error {
			ok, wait := limiter.allow(keyFunc(ctx))
			ctx.RequestCtx.Response.Header.Set("X-RateLimit-Limit", limitHeader)
			if ok {
				return next(ctx)
			}

			retryAfter := int(math.Ceil(wait.Seconds()))
			if retryAfter < 1 {
				retryAfter = 1
			}
			ctx.RequestCtx.Response.Header.Set("Retry-After", strconv.Itoa(retryAfter))

			if config.OnLimitReached != nil {
				return config.OnLimitReached(ctx)
			}
			return ctx.JSONError(fasthttp.StatusTooManyRequests, "rate_limit_exceeded", "Too many requests")
		}
	}
}
