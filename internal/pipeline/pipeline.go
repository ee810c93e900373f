package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/ppiankov/selah/internal/corpus"
	"github.com/ppiankov/selah/internal/lyrics"
	"github.com/ppiankov/selah/internal/match"
	"github.com/ppiankov/selah/internal/model"
	"github.com/ppiankov/selah/internal/scripture"
	"github.com/ppiankov/selah/internal/worker"
)

// snippetLength is the number of passage characters echoed in a report.
const snippetLength = 100

// Pipeline resolves references against the current corpus and matches the
// resulting passages to songs.
type Pipeline struct {
	store    *corpus.Store
	songs    lyrics.Loader
	matcher  *match.Service
	renderer *Renderer
	config   *model.Config
}

// NewPipeline wires the collaborators together. songs and matcher may be nil
// when only passage lookup is needed.
func NewPipeline(cfg *model.Config, store *corpus.Store, songs lyrics.Loader, matcher *match.Service) *Pipeline {
	return &Pipeline{
		store:    store,
		songs:    songs,
		matcher:  matcher,
		renderer: NewRenderer(),
		config:   cfg,
	}
}

// Corpus returns the corpus currently in use
func (p *Pipeline) Corpus() *scripture.Corpus {
	return p.store.Current()
}

// Store returns the corpus store
func (p *Pipeline) Store() *corpus.Store {
	return p.store
}

// Renderer returns the report renderer
func (p *Pipeline) Renderer() *Renderer {
	return p.renderer
}

// Passage resolves raw and extracts its text
func (p *Pipeline) Passage(ctx context.Context, raw scripture.RawReference) (*scripture.Passage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return scripture.Lookup(raw, p.store.Current())
}

// Match resolves raw, loads the song library and ranks every song against
// the passage.
func (p *Pipeline) Match(ctx context.Context, raw scripture.RawReference) (*model.MatchReport, error) {
	passage, err := p.Passage(ctx, raw)
	if err != nil {
		return nil, err
	}

	if p.songs == nil || p.matcher == nil {
		return nil, fmt.Errorf("song matching is not configured")
	}

	songs, err := p.songs.Songs(ctx)
	if err != nil {
		return nil, fmt.Errorf("load songs: %w", err)
	}

	inputs := make([]match.SongInput, len(songs))
	for i, s := range songs {
		inputs[i] = match.SongInput{Name: s.Name, Lyrics: s.Lyrics}
	}

	result, err := p.matcher.Match(ctx, match.Request{
		Passage:   passage.Text,
		Reference: passage.Resolved.String(),
		Songs:     inputs,
		Model:     p.config.Matcher.Model,
		MaxTokens: p.config.Matcher.MaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("match songs: %w", err)
	}

	matches := result.Matches
	if limit := p.config.Matcher.Limit; limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	if matches == nil {
		matches = []match.SongMatch{}
	}

	ref := passage.Resolved
	return &model.MatchReport{
		SearchQuery: model.SearchQuery{
			Book:           ref.Book,
			StartChapter:   ref.StartChapter,
			StartVerse:     ref.StartVerse,
			EndChapter:     ref.EndChapter,
			EndVerse:       ref.EndVerse,
			Reference:      ref.String(),
			PassageSnippet: scripture.Snippet(passage.Text, snippetLength),
		},
		TotalMatches: len(matches),
		Matches:      matches,
		Matcher:      p.matcher.Name(),
		Model:        result.Model,
		Cached:       result.Cached,
		GeneratedAt:  time.Now().UTC(),
	}, nil
}

// Batch resolves every line concurrently against the current corpus.
// Failed lines are reported individually and do not stop the batch.
func (p *Pipeline) Batch(ctx context.Context, lines []worker.ReferenceLine) *model.BatchReport {
	start := time.Now()
	processor := worker.NewBatchProcessor(p, p.config.Concurrency.Workers)
	results := processor.Process(ctx, lines)

	report := &model.BatchReport{
		Total: len(results),
		Items: make([]model.BatchItem, 0, len(results)),
	}
	for _, r := range results {
		item := model.BatchItem{Line: r.Line.Number, Input: r.Line.Text}
		if r.Error != nil {
			item.Error = r.Error.Error()
			report.Failed++
		} else {
			item.Reference = r.Passage.Resolved.String()
			item.Text = r.Passage.Text
			report.Succeeded++
		}
		report.Items = append(report.Items, item)
	}
	report.Duration = time.Since(start)

	return report
}
