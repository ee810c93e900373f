package match

import (
	"fmt"
	"strings"
)

// NewMatcher creates a matcher based on configuration. An empty provider
// selects the lexical matcher.
func NewMatcher(config Config) (Matcher, error) {
	switch strings.ToLower(config.Provider) {
	case "", "lexical":
		return NewLexicalMatcher(), nil

	case "openai":
		return NewOpenAIProvider(config)

	case "anthropic", "claude":
		return NewAnthropicProvider(config)

	case "ollama":
		return NewOllamaProvider(config)

	case "space", "huggingface", "hf":
		return NewSpaceProvider(config)

	default:
		return nil, fmt.Errorf("unknown matcher provider: %s (supported: lexical, openai, anthropic, ollama, space)", config.Provider)
	}
}
