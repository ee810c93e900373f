package match

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ppiankov/selah/internal/cache"
	"github.com/ppiankov/selah/internal/logging"
	"github.com/ppiankov/selah/internal/worker"
)

// Service wraps a Matcher with rate limiting and result caching.
type Service struct {
	matcher Matcher
	limiter *worker.Limiter
	cache   cache.Cache
	ttl     time.Duration
}

// NewService creates a Service. A nil limiter or cache disables that layer.
func NewService(m Matcher, limiter *worker.Limiter, c cache.Cache, ttl time.Duration) *Service {
	if c == nil {
		c = cache.Nop{}
	}
	return &Service{matcher: m, limiter: limiter, cache: c, ttl: ttl}
}

// Name returns the wrapped matcher's name
func (s *Service) Name() string {
	return s.matcher.Name()
}

// Result is a ranked response plus whether it came from the cache.
type Result struct {
	*Response
	Cached bool
}

// Match returns cached matches for an identical request, or waits for the
// provider's rate limit and asks it. Matches are sorted by score.
func (s *Service) Match(ctx context.Context, req Request) (*Result, error) {
	key := s.cacheKey(req)
	if data, ok := s.cache.Get(key); ok {
		var resp Response
		if err := json.Unmarshal(data, &resp); err == nil {
			return &Result{Response: &resp, Cached: true}, nil
		}
		_ = s.cache.Delete(key)
	}

	if err := s.limiter.Wait(ctx, s.matcher.Name()); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}

	start := time.Now()
	resp, err := s.matcher.Match(ctx, req)
	if err != nil {
		return nil, err
	}
	SortMatches(resp.Matches)

	logging.Default().Debug("matched songs",
		"matcher", s.matcher.Name(),
		"reference", req.Reference,
		"songs", len(req.Songs),
		"tokens", resp.TokensUsed,
		"took", time.Since(start).Round(time.Millisecond))

	if data, err := json.Marshal(resp); err == nil {
		if err := s.cache.Set(key, data, s.ttl); err != nil {
			logging.Default().Warn("failed to cache matches", "error", err)
		}
	}

	return &Result{Response: resp}, nil
}

// cacheKey covers everything that changes the answer: provider, model,
// passage, themes and every song's name and lyrics.
func (s *Service) cacheKey(req Request) string {
	h := sha256.New()
	for _, song := range req.Songs {
		_, _ = fmt.Fprintf(h, "%s\x00%s\x00", song.Name, song.Lyrics)
	}
	for _, theme := range req.Themes {
		_, _ = fmt.Fprintf(h, "%s\x00", theme)
	}
	return cache.CacheKey("match", s.matcher.Name(), req.Model, req.Passage, hex.EncodeToString(h.Sum(nil)))
}
