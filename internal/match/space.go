package match

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ppiankov/selah/internal/logging"
	"github.com/ppiankov/selah/internal/util"
)

// SpaceProvider calls a hosted NLP space that embeds the passage and every
// song and returns ranked matches. Spaces sleep when idle, so the first call
// after a pause often fails with 503; that is reported as ErrUnavailable.
type SpaceProvider struct {
	baseURL    string
	token      string
	httpClient *http.Client
	config     Config
}

type spaceRequest struct {
	Data []string `json:"data"`
}

type spaceResponse struct {
	Data []json.RawMessage `json:"data"`
}

type spaceLogicError struct {
	Error string `json:"error"`
}

// NewSpaceProvider creates a provider for the space at config.BaseURL
func NewSpaceProvider(config Config) (*SpaceProvider, error) {
	if config.BaseURL == "" {
		return nil, fmt.Errorf("space base URL is required")
	}

	return &SpaceProvider{
		baseURL: strings.TrimSuffix(config.BaseURL, "/"),
		token:   config.APIKey,
		httpClient: &http.Client{
			Timeout: resolveTimeout(config.Timeout, 60*time.Second),
			Transport: &http.Transport{
				Proxy: util.NewProxyFunc(config.HTTPProxy, config.HTTPSProxy, config.NoProxy),
			},
		},
		config: config,
	}, nil
}

// Name returns the provider name
func (p *SpaceProvider) Name() string {
	return "space"
}

// IsAvailable checks that the space answers on its root URL
func (p *SpaceProvider) IsAvailable(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/", nil)
	if err != nil {
		return false
	}
	p.authorize(req)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		logging.Default().Warn("space availability check failed", "url", p.baseURL, "error", err)
		return false
	}
	defer func() { _ = resp.Body.Close() }()

	return resp.StatusCode < 500
}

// Match posts the passage and song list to the space's predict endpoint
func (p *SpaceProvider) Match(ctx context.Context, req Request) (*Response, error) {
	songsJSON, err := json.Marshal(req.Songs)
	if err != nil {
		return nil, fmt.Errorf("marshal songs: %w", err)
	}

	body, err := json.Marshal(spaceRequest{Data: []string{req.Passage, string(songsJSON)}})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/run/predict", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	p.authorize(httpReq)

	httpResp, err := p.httpClient.Do(httpReq)
	if err != nil {
		if isTimeout(err) {
			return nil, fmt.Errorf("space: %w: %w", ErrUnavailable, err)
		}
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = httpResp.Body.Close() }()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if httpResp.StatusCode != http.StatusOK {
		if sentinel := classifyStatus(httpResp.StatusCode); sentinel != nil {
			return nil, fmt.Errorf("space returned %d: %w", httpResp.StatusCode, sentinel)
		}
		return nil, fmt.Errorf("space returned %d: %s", httpResp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	var resp spaceResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, &LogicError{Details: "empty data in space response"}
	}

	first := bytes.TrimSpace(resp.Data[0])
	if len(first) > 0 && first[0] == '{' {
		var logicErr spaceLogicError
		if err := json.Unmarshal(first, &logicErr); err == nil && logicErr.Error != "" {
			return nil, &LogicError{Details: logicErr.Error}
		}
	}

	matches, err := parseMatches(string(first), req, p.config.Strict)
	if err != nil {
		return nil, err
	}

	return &Response{Matches: matches, Model: p.baseURL}, nil
}

func (p *SpaceProvider) authorize(req *http.Request) {
	if p.token != "" {
		req.Header.Set("Authorization", "Bearer "+p.token)
	}
}
