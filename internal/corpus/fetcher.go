package corpus

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/ppiankov/selah/internal/cache"
	"github.com/ppiankov/selah/internal/logging"
	"github.com/ppiankov/selah/internal/model"
	"github.com/ppiankov/selah/internal/util"
)

// fetchSleepFunc is the sleep function used between retries. Tests replace it.
var fetchSleepFunc = time.Sleep

const (
	fetchMaxAttempts = 3
	fetchBaseDelay   = 500 * time.Millisecond
)

// Fetcher downloads corpus files over HTTP
type Fetcher struct {
	httpClient *http.Client
	userAgent  string
	maxBytes   int64
	robots     *util.RobotsChecker
}

// NewFetcher creates a new Fetcher with the given configuration
func NewFetcher(cfg model.HTTPConfig) *Fetcher {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.Proxy = util.NewProxyFunc(cfg.HTTPProxy, cfg.HTTPSProxy, cfg.NoProxy)
	if cfg.InsecureTLS {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // opt-in via --insecure
	}

	client := &http.Client{
		Timeout:   cfg.Timeout,
		Transport: transport,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 3 {
				return fmt.Errorf("stopped after 3 redirects")
			}
			return nil
		},
	}

	f := &Fetcher{
		httpClient: client,
		userAgent:  cfg.UserAgent,
		maxBytes:   cfg.MaxBodyBytes,
	}
	if cfg.RespectRobots {
		f.robots = util.NewRobotsChecker(cfg.UserAgent, client)
	}
	return f
}

// FetchResult contains the downloaded body and response metadata
type FetchResult struct {
	Body         []byte
	StatusCode   int
	ContentType  string
	ETag         string
	LastModified string
	FinalURL     string
}

// Fetch downloads rawURL once
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*FetchResult, error) {
	if f.robots != nil {
		if err := f.robots.Check(ctx, rawURL); err != nil {
			return nil, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/plain,text/tab-separated-values;q=0.9,*/*;q=0.8")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status: %d %s", resp.StatusCode, resp.Status)
	}

	var body []byte
	if f.maxBytes > 0 {
		// Read one byte past the limit to detect truncation.
		body, err = io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
		if err == nil && int64(len(body)) > f.maxBytes {
			return nil, fmt.Errorf("read body: corpus exceeds %d bytes", f.maxBytes)
		}
	} else {
		body, err = io.ReadAll(resp.Body)
	}
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	return &FetchResult{
		Body:         body,
		StatusCode:   resp.StatusCode,
		ContentType:  resp.Header.Get("Content-Type"),
		ETag:         resp.Header.Get("ETag"),
		LastModified: resp.Header.Get("Last-Modified"),
		FinalURL:     resp.Request.URL.String(),
	}, nil
}

// FetchWithRetry calls Fetch up to three times, backing off exponentially
// between attempts. Only transient failures are retried.
func (f *Fetcher) FetchWithRetry(ctx context.Context, rawURL string) (*FetchResult, error) {
	var lastErr error
	for attempt := range fetchMaxAttempts {
		if attempt > 0 {
			delay := time.Duration(float64(fetchBaseDelay) * math.Pow(2, float64(attempt-1)))
			logging.Default().Debug("retrying corpus fetch", "url", rawURL, "attempt", attempt+1, "delay", delay)
			fetchSleepFunc(delay)
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		result, err := f.Fetch(ctx, rawURL)
		if err == nil {
			return result, nil
		}
		lastErr = err
		if !isRetryableFetchError(err) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("after %d attempts: %w", fetchMaxAttempts, lastErr)
}

// isRetryableFetchError reports whether err is worth another attempt:
// server errors, rate limiting and transport failures.
func isRetryableFetchError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, util.ErrDisallowed) || errors.Is(err, context.Canceled) {
		return false
	}
	msg := err.Error()
	if strings.HasPrefix(msg, "unexpected status: ") {
		code := strings.TrimPrefix(msg, "unexpected status: ")
		return strings.HasPrefix(code, "5") || strings.HasPrefix(code, "429")
	}
	return strings.HasPrefix(msg, "fetch: ")
}

// HTTPSource downloads the corpus from a URL. Successful downloads are kept
// in the cache so restarts do not hit the network.
type HTTPSource struct {
	URL     string
	Fetcher *Fetcher
	Cache   cache.Cache
	TTL     time.Duration
}

// NewHTTPSource creates an HTTPSource. A nil cache disables caching.
func NewHTTPSource(rawURL string, fetcher *Fetcher, c cache.Cache, ttl time.Duration) *HTTPSource {
	if c == nil {
		c = cache.Nop{}
	}
	return &HTTPSource{URL: rawURL, Fetcher: fetcher, Cache: c, TTL: ttl}
}

// Name returns the source URL
func (s *HTTPSource) Name() string {
	return s.URL
}

// Open returns the cached corpus or downloads it
func (s *HTTPSource) Open(ctx context.Context) (io.ReadCloser, error) {
	key := cache.CacheKey("corpus", s.URL)
	if data, ok := s.Cache.Get(key); ok {
		logging.Default().Debug("corpus cache hit", "url", s.URL, "bytes", len(data))
		return io.NopCloser(bytes.NewReader(data)), nil
	}

	result, err := s.Fetcher.FetchWithRetry(ctx, s.URL)
	if err != nil {
		return nil, fmt.Errorf("download corpus: %w", err)
	}

	if err := s.Cache.Set(key, result.Body, s.TTL); err != nil {
		logging.Default().Warn("failed to cache corpus", "url", s.URL, "error", err)
	}
	return io.NopCloser(bytes.NewReader(result.Body)), nil
}
