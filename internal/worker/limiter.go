package worker

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

// DefaultIdleTTL is how long a key's bucket survives without traffic.
const DefaultIdleTTL = 10 * time.Minute

// Limiter is a set of token buckets keyed by an arbitrary string: a matcher
// provider name, an upstream host or a client address. Buckets idle for
// longer than the idle TTL are evicted; keys given a custom rate never are.
type Limiter struct {
	buckets      *gocache.Cache
	mu           sync.Mutex
	defaultRate  rate.Limit
	defaultBurst int
	idleTTL      time.Duration
}

// LimiterOption configures a Limiter.
type LimiterOption func(*Limiter)

// WithIdleTTL sets how long an unused bucket is kept.
func WithIdleTTL(d time.Duration) LimiterOption {
	return func(l *Limiter) {
		if d > 0 {
			l.idleTTL = d
		}
	}
}

// NewLimiter creates a new rate limiter
func NewLimiter(requestsPerSecond float64, burst int, opts ...LimiterOption) *Limiter {
	if burst <= 0 {
		burst = 5
	}

	l := &Limiter{
		defaultRate:  rate.Limit(requestsPerSecond),
		defaultBurst: burst,
		idleTTL:      DefaultIdleTTL,
	}
	for _, opt := range opts {
		opt(l)
	}

	// A bucket evicted before it refills would hand out a fresh burst.
	if requestsPerSecond > 0 {
		refill := time.Duration(float64(burst) / requestsPerSecond * float64(time.Second))
		l.idleTTL = max(l.idleTTL, refill)
	}

	l.buckets = gocache.New(l.idleTTL, l.idleTTL/2)
	return l
}

// Wait blocks until key may proceed or ctx is done. A nil Limiter never
// blocks.
func (l *Limiter) Wait(ctx context.Context, key string) error {
	if l == nil {
		return nil
	}
	return l.getLimiter(key).Wait(ctx)
}

// WaitURL rate limits by the host of rawURL
func (l *Limiter) WaitURL(ctx context.Context, rawURL string) error {
	host, err := extractHost(rawURL)
	if err != nil {
		return err
	}
	return l.Wait(ctx, host)
}

// Allow reports whether key may proceed now, consuming a token if so
func (l *Limiter) Allow(key string) bool {
	if l == nil {
		return true
	}
	return l.getLimiter(key).Allow()
}

// getLimiter returns the bucket for key, creating it if needed, and pushes
// back its expiry.
func (l *Limiter) getLimiter(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	if v, expires, found := l.buckets.GetWithExpiration(key); found {
		limiter := v.(*rate.Limiter)
		if !expires.IsZero() {
			l.buckets.Set(key, limiter, gocache.DefaultExpiration)
		}
		return limiter
	}

	limiter := rate.NewLimiter(l.defaultRate, l.defaultBurst)
	l.buckets.Set(key, limiter, gocache.DefaultExpiration)

	return limiter
}

// SetRate sets a custom rate limit for one key
func (l *Limiter) SetRate(key string, requestsPerSecond float64, burst int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if burst <= 0 {
		burst = l.defaultBurst
	}

	l.buckets.Set(key, rate.NewLimiter(rate.Limit(requestsPerSecond), burst), gocache.NoExpiration)
}

// Len returns the number of live buckets.
func (l *Limiter) Len() int {
	if l == nil {
		return 0
	}
	l.buckets.DeleteExpired()
	return l.buckets.ItemCount()
}

func extractHost(rawURL string) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	if parsed.Host == "" {
		return "", fmt.Errorf("no host in %q", rawURL)
	}
	return parsed.Host, nil
}
