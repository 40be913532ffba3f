package httpx

import (
	"net/http"
	"sync"
	"time"

	"github.com/aussiebroadwan/immo/pkg/slogx"
	"golang.org/x/time/rate"
)

// RateLimitConfig defines the rate limiting parameters.
type RateLimitConfig struct {
	// RequestsPerWindow is the number of requests allowed in the time window
	RequestsPerWindow int
	// Window is the time window for rate limiting
	Window time.Duration
	// Burst allows for temporary bursts above the rate limit
	Burst int
}

// Enabled reports whether the config actually limits anything.
func (c RateLimitConfig) Enabled() bool {
	return c.RequestsPerWindow > 0 && c.Window > 0
}

// Common outbound profiles.
var (
	// StrictLimit for credential endpoints. Keeps a scripted client from
	// tripping the backend's brute force protection.
	StrictLimit = RateLimitConfig{
		RequestsPerWindow: 5,
		Window:            time.Minute,
		Burst:             5,
	}

	// ModerateLimit for everything else.
	ModerateLimit = RateLimitConfig{
		RequestsPerWindow: 100,
		Window:            time.Minute,
		Burst:             20,
	}
)

// KeyExtractor groups outgoing requests that share a limiter.
type KeyExtractor func(*http.Request) string

// HostKeyExtractor shares one limiter per backend host.
func HostKeyExtractor(r *http.Request) string { return r.URL.Host }

// PathKeyExtractor gives every endpoint its own limiter.
func PathKeyExtractor(r *http.Request) string { return r.URL.Host + r.URL.Path }

// rateLimiter manages rate limiters for different keys
type rateLimiter struct {
	limiters sync.Map // map[string]*rate.Limiter
	rate     rate.Limit
	burst    int
	mu       sync.Mutex
	// Cleanup old limiters periodically
	lastCleanup time.Time
}

func (rl *rateLimiter) getLimiter(key string) *rate.Limiter {
	if limiter, ok := rl.limiters.Load(key); ok {
		return limiter.(*rate.Limiter)
	}

	limiter := rate.NewLimiter(rl.rate, rl.burst)
	actual, _ := rl.limiters.LoadOrStore(key, limiter)

	rl.maybeCleanup()

	return actual.(*rate.Limiter)
}

// maybeCleanup drops limiters whose buckets are full, i.e. idle keys.
func (rl *rateLimiter) maybeCleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if time.Since(rl.lastCleanup) < 5*time.Minute {
		return
	}
	rl.lastCleanup = time.Now()

	rl.limiters.Range(func(key, value any) bool {
		if value.(*rate.Limiter).Tokens() >= float64(rl.burst) {
			rl.limiters.Delete(key)
		}
		return true
	})
}

// RateLimit delays outgoing requests so each key stays within config. A
// request whose context ends while waiting fails with the context error and
// is never sent. A disabled config returns a passthrough middleware.
func RateLimit(config RateLimitConfig, keyExtractor KeyExtractor) Middleware {
	if !config.Enabled() {
		return func(next http.RoundTripper) http.RoundTripper { return next }
	}
	if keyExtractor == nil {
		keyExtractor = HostKeyExtractor
	}

	burst := config.Burst
	if burst <= 0 {
		burst = 1
	}

	rl := &rateLimiter{
		rate:        rate.Limit(float64(config.RequestsPerWindow) / config.Window.Seconds()),
		burst:       burst,
		lastCleanup: time.Now(),
	}

	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
			ctx := r.Context()
			limiter := rl.getLimiter(keyExtractor(r))

			if !limiter.Allow() {
				slogx.FromContext(ctx).Debug("rate limit: delaying request", "endpoint", r.URL.Path)
				if err := limiter.Wait(ctx); err != nil {
					return nil, err
				}
			}
			return next.RoundTrip(r)
		})
	}
}
