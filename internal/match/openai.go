package match

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/ppiankov/selah/internal/logging"
	"github.com/ppiankov/selah/internal/util"
)

// OpenAIProvider implements the Matcher interface for OpenAI models
type OpenAIProvider struct {
	client *openai.Client
	config Config
}

// NewOpenAIProvider creates a new OpenAI provider
func NewOpenAIProvider(config Config) (*OpenAIProvider, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}

	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.Proxy = util.NewProxyFunc(config.HTTPProxy, config.HTTPSProxy, config.NoProxy)
	clientConfig.HTTPClient = &http.Client{Transport: transport}

	return &OpenAIProvider{
		client: openai.NewClientWithConfig(clientConfig),
		config: config,
	}, nil
}

// Name returns the provider name
func (p *OpenAIProvider) Name() string {
	return "openai"
}

// IsAvailable lists models as a lightweight credentials check
func (p *OpenAIProvider) IsAvailable(ctx context.Context) bool {
	if _, err := p.client.ListModels(ctx); err != nil {
		logging.Default().Warn("OpenAI API check failed", "error", err)
		return false
	}
	return true
}

// Match scores songs using the Chat Completions API
func (p *OpenAIProvider) Match(ctx context.Context, req Request) (*Response, error) {
	model := resolveModel(req.Model, p.config.Model, openai.GPT4oMini)

	ctx, cancel := context.WithTimeout(ctx, resolveTimeout(p.config.Timeout, 60*time.Second))
	defer cancel()

	chatReq := openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: BuildPrompt(req)},
		},
		MaxTokens:   resolveMaxTokens(req.MaxTokens, p.config.MaxTokens),
		Temperature: 0.2,
	}

	resp, err := p.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return nil, classifyOpenAIError(err)
	}
	if len(resp.Choices) == 0 {
		return nil, &LogicError{Details: "no choices in OpenAI response"}
	}

	matches, err := parseMatches(strings.TrimSpace(resp.Choices[0].Message.Content), req, p.config.Strict)
	if err != nil {
		return nil, err
	}

	return &Response{
		Matches:    matches,
		Model:      model,
		TokensUsed: resp.Usage.TotalTokens,
	}, nil
}

func classifyOpenAIError(err error) error {
	if isTimeout(err) {
		return fmt.Errorf("OpenAI API: %w: %w", ErrUnavailable, err)
	}
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		if sentinel := classifyStatus(apiErr.HTTPStatusCode); sentinel != nil {
			return fmt.Errorf("OpenAI API: %w: %w", sentinel, err)
		}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		if sentinel := classifyStatus(reqErr.HTTPStatusCode); sentinel != nil {
			return fmt.Errorf("OpenAI API: %w: %w", sentinel, err)
		}
	}
	return fmt.Errorf("OpenAI API error: %w", err)
}
