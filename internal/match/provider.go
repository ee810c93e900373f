// Package match scores songs against a scripture passage. Providers range
// from an offline lexical scorer to hosted language models; all of them
// return the same ranked SongMatch list.
package match

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/ppiankov/selah/internal/model"
	"github.com/ppiankov/selah/internal/scripture"
)

// Matcher defines the interface for song matching providers
type Matcher interface {
	// Name returns the provider name
	Name() string

	// Match scores every song in the request against the passage
	Match(ctx context.Context, req Request) (*Response, error)

	// IsAvailable checks if the provider is properly configured and accessible
	IsAvailable(ctx context.Context) bool
}

// SongMatch is re-exported so callers need not import model.
type SongMatch = model.SongMatch

// SongInput is a song as sent to a matcher
type SongInput struct {
	Name   string `json:"name"`
	Lyrics string `json:"lyrics"`
}

// Request contains the input for matching
type Request struct {
	// Passage is the extracted passage text
	Passage string

	// Reference is the canonical reference, e.g. "John 3:16-18"
	Reference string

	// Songs is the STRICT allowlist of songs a model may name
	Songs []SongInput

	// Themes overrides DefaultThemes when non-empty
	Themes []string

	// Model is the specific model to use (provider-specific)
	Model string

	// MaxTokens limits the response length
	MaxTokens int
}

// Response contains the ranked matches
type Response struct {
	Matches    []SongMatch `json:"matches"`
	Model      string      `json:"model,omitempty"`
	TokensUsed int         `json:"tokens_used,omitempty"`
}

// Config holds matcher provider configuration
type Config struct {
	// Provider name: "lexical", "openai", "anthropic", "ollama", "space"
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for OpenAI/Anthropic, or the bearer token for a hosted space
	APIKey string

	// BaseURL for custom endpoints (Ollama, a hosted space)
	BaseURL string

	Timeout time.Duration

	// Strict rejects answers naming songs outside the request
	Strict bool

	MaxTokens int

	HTTPProxy  string
	HTTPSProxy string
	NoProxy    string
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Provider:  "lexical",
		Timeout:   60 * time.Second,
		Strict:    true,
		MaxTokens: 1000,
	}
}

// ConfigFromModel builds a matcher Config from the application config
func ConfigFromModel(mc model.MatcherConfig, hc model.HTTPConfig) Config {
	return Config{
		Provider:   mc.Provider,
		Model:      mc.Model,
		APIKey:     mc.APIKey,
		BaseURL:    mc.BaseURL,
		Timeout:    mc.Timeout,
		Strict:     mc.Strict,
		MaxTokens:  mc.MaxTokens,
		HTTPProxy:  hc.HTTPProxy,
		HTTPSProxy: hc.HTTPSProxy,
		NoProxy:    hc.NoProxy,
	}
}

// DefaultThemes are the themes songs and passages are compared on.
var DefaultThemes = []string{
	"Trust and Guidance", "Restoration and Peace", "Wrath and Judgment", "Jesus",
	"Resurrection", "Love", "Faith", "Hope", "Power", "Joy", "Victory", "Creation",
	"Suffering", "Grace", "Kingdom", "Sin", "Spirit", "Trinity", "Eternity",
	"Humble", "Wisdom", "Mercy", "Heaven", "Throne", "Covenant",
}

const systemPrompt = "You match worship songs to scripture passages. You answer with JSON only."

// maxPromptLyrics caps each song's lyrics in the prompt, in runes.
const maxPromptLyrics = 1200

// BuildPrompt constructs the prompt sent to language-model providers
func BuildPrompt(req Request) string {
	themes := req.Themes
	if len(themes) == 0 {
		themes = DefaultThemes
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Passage (%s):\n%s\n\n", req.Reference, req.Passage)
	fmt.Fprintf(&b, "Themes: %s\n\n", strings.Join(themes, ", "))
	b.WriteString(`RULES:
1. Score EVERY song below from 0 to 1 for how well it fits the passage.
2. You MUST ONLY use song names from the list. Do not invent songs.
3. For each song list the themes (from the theme list) that the song and passage share.
4. Answer with a JSON array: [{"name": "...", "score": 0.0, "themes": ["..."]}]

Songs:
`)
	for _, song := range req.Songs {
		fmt.Fprintf(&b, "\n## %s\n%s\n", song.Name, scripture.Snippet(song.Lyrics, maxPromptLyrics))
	}
	return b.String()
}

// parseMatches extracts the JSON array from a model answer and checks it
// against the request.
func parseMatches(answer string, req Request, strict bool) ([]SongMatch, error) {
	start := strings.Index(answer, "[")
	end := strings.LastIndex(answer, "]")
	if start < 0 || end < start {
		return nil, &LogicError{Details: "answer contains no JSON array"}
	}

	var matches []SongMatch
	if err := json.Unmarshal([]byte(answer[start:end+1]), &matches); err != nil {
		return nil, &LogicError{Details: fmt.Sprintf("decode matches: %v", err)}
	}

	if strict {
		if err := checkAllowlist(matches, req.Songs); err != nil {
			return nil, err
		}
	}

	for i := range matches {
		if matches[i].Themes == nil {
			matches[i].Themes = []string{}
		}
	}
	SortMatches(matches)
	return matches, nil
}

// checkAllowlist rejects matches naming songs that were not offered.
func checkAllowlist(matches []SongMatch, songs []SongInput) error {
	allowed := make(map[string]bool, len(songs))
	for _, s := range songs {
		allowed[s.Name] = true
	}
	for _, m := range matches {
		if !allowed[m.Name] {
			return &LogicError{Details: fmt.Sprintf("model named unknown song %q", m.Name)}
		}
	}
	return nil
}

func resolveModel(reqModel, configModel, fallback string) string {
	if reqModel != "" {
		return reqModel
	}
	if configModel != "" {
		return configModel
	}
	return fallback
}

func resolveMaxTokens(reqMax, configMax int) int {
	if reqMax > 0 {
		return reqMax
	}
	if configMax > 0 {
		return configMax
	}
	return 1000
}

func resolveTimeout(d, fallback time.Duration) time.Duration {
	if d > 0 {
		return d
	}
	return fallback
}

// SortMatches orders matches by score, highest first, then by name.
func SortMatches(matches []SongMatch) {
	slices.SortStableFunc(matches, func(a, b SongMatch) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})
}
