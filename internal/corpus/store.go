package corpus

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ppiankov/selah/internal/logging"
	"github.com/ppiankov/selah/internal/scripture"
)

// Store holds the current corpus. Reloads build a complete corpus before
// swapping it in, so readers see either the previous corpus or the new one,
// never a partial load.
type Store struct {
	src     Source
	opts    []scripture.Option
	current atomic.Pointer[scripture.Corpus]

	mu       sync.Mutex // serializes reloads
	loadedAt time.Time
}

// NewStore creates a store for src. It starts with an empty corpus; call
// Reload to load it.
func NewStore(src Source, opts ...scripture.Option) *Store {
	s := &Store{src: src, opts: opts}
	s.current.Store(scripture.Empty())
	return s
}

// NewStaticStore wraps an already loaded corpus. It cannot be reloaded.
func NewStaticStore(c *scripture.Corpus) *Store {
	s := &Store{}
	if c == nil {
		c = scripture.Empty()
	}
	s.current.Store(c)
	return s
}

// Current returns the corpus readers should use
func (s *Store) Current() *scripture.Corpus {
	return s.current.Load()
}

// Source returns the configured source, or nil for a static store
func (s *Store) Source() Source {
	return s.src
}

// LoadedAt returns when the current corpus was last swapped in
func (s *Store) LoadedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadedAt
}

// Reload reads the source and swaps in the new corpus. On failure the
// current corpus is kept and the error is returned.
func (s *Store) Reload(ctx context.Context) (*scripture.Corpus, error) {
	if s.src == nil {
		return s.Current(), nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	logger := logging.Default()
	start := time.Now()

	rc, err := s.src.Open(ctx)
	if err != nil {
		logger.Warn("corpus unavailable", "source", s.src.Name(), "error", err)
		return s.Current(), fmt.Errorf("load corpus %s: %w", s.src.Name(), err)
	}
	defer func() { _ = rc.Close() }()

	c, err := scripture.Parse(rc, s.opts...)
	if err != nil {
		logger.Warn("corpus unreadable", "source", s.src.Name(), "error", err)
		return s.Current(), fmt.Errorf("load corpus %s: %w", s.src.Name(), err)
	}

	s.current.Store(c)
	s.loadedAt = time.Now()
	logger.Info("corpus loaded",
		"source", s.src.Name(),
		"books", len(c.Books()),
		"verses", c.Len(),
		"took", time.Since(start).Round(time.Millisecond))

	return c, nil
}
