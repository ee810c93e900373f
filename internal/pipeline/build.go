package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/ppiankov/selah/internal/cache"
	"github.com/ppiankov/selah/internal/corpus"
	"github.com/ppiankov/selah/internal/logging"
	"github.com/ppiankov/selah/internal/lyrics"
	"github.com/ppiankov/selah/internal/match"
	"github.com/ppiankov/selah/internal/model"
	"github.com/ppiankov/selah/internal/scripture"
	"github.com/ppiankov/selah/internal/util"
	"github.com/ppiankov/selah/internal/worker"
)

// memoryTTL bounds how long the in-process cache layer holds an entry.
const memoryTTL = 10 * time.Minute

// Build assembles a pipeline from cfg and performs the initial corpus load.
// A corpus that fails to load is logged and left empty so lookups report
// the corpus as unavailable instead of aborting start-up.
func Build(ctx context.Context, cfg *model.Config) (*Pipeline, error) {
	c := NewCache(cfg.Cache)

	store := corpus.NewStore(NewSource(cfg, c), CorpusOptions(cfg.Corpus)...)
	if _, err := store.Reload(ctx); err != nil {
		logging.Default().Warn("continuing with an empty corpus", "error", err)
	}

	matcher, err := match.NewMatcher(match.ConfigFromModel(cfg.Matcher, cfg.HTTP))
	if err != nil {
		return nil, fmt.Errorf("create matcher: %w", err)
	}

	var limiter *worker.Limiter
	if cfg.RateLimiting.Enabled {
		limiter = worker.NewLimiter(cfg.RateLimiting.Rate, cfg.RateLimiting.Burst)
	}
	service := match.NewService(matcher, limiter, c, cfg.Cache.TTL)

	songs := lyrics.DirLoader{Dir: util.ExpandHome(cfg.Lyrics.Dir)}

	return NewPipeline(cfg, store, songs, service), nil
}

// NewCache returns the layered cache described by cfg, or a no-op cache
// when caching is disabled.
func NewCache(cfg model.CacheConfig) cache.Cache {
	if !cfg.Enabled {
		return cache.Nop{}
	}
	return cache.NewLayeredCache(memoryTTL, util.ExpandHome(cfg.Dir), cfg.TTL)
}

// NewSource picks the corpus source: a URL when configured, otherwise the
// local file.
func NewSource(cfg *model.Config, c cache.Cache) corpus.Source {
	if cfg.Corpus.URL != "" {
		return corpus.NewHTTPSource(cfg.Corpus.URL, corpus.NewFetcher(cfg.HTTP), c, cfg.Cache.TTL)
	}
	return corpus.FileSource{Path: util.ExpandHome(cfg.Corpus.Path)}
}

// CorpusOptions translates the corpus layout settings into load options
func CorpusOptions(cfg model.CorpusConfig) []scripture.Option {
	opts := []scripture.Option{
		scripture.WithHeaderLines(cfg.HeaderLines),
	}
	if cfg.Separator != "" {
		opts = append(opts, scripture.WithSeparator(cfg.Separator))
	}
	if cfg.StripMarkup {
		opts = append(opts, scripture.WithStripMarkup())
	}
	return opts
}
