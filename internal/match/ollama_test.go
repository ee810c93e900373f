package match

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestOllamaProvider_Match_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			t.Errorf("Expected path /api/generate, got %s", r.URL.Path)
		}
		var req ollamaRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Model != "llama3.1:8b" || req.Stream {
			t.Errorf("Unexpected request: %+v", req)
		}

		resp := ollamaResponse{
			Model:    "llama3.1:8b",
			Response: `{"matches":[{"name":"Holy Holy Holy","score":0.7,"themes":["Trinity"]}]}`,
			Done:     true,
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	provider, _ := NewOllamaProvider(Config{BaseURL: server.URL, Model: "llama3.1:8b", Strict: true})
	resp, err := provider.Match(context.Background(), Request{Passage: "three in one", Songs: testSongs})
	if err != nil {
		t.Fatalf("Match failed: %v", err)
	}
	if resp.Matches[0].Name != "Holy Holy Holy" {
		t.Errorf("Unexpected matches: %+v", resp.Matches)
	}
	if resp.TokensUsed == 0 {
		t.Error("Expected token estimate when counts are missing")
	}
}

func TestOllamaProvider_RequiresModel(t *testing.T) {
	provider, _ := NewOllamaProvider(Config{BaseURL: "http://127.0.0.1:1"})
	if _, err := provider.Match(context.Background(), Request{Passage: "x"}); err == nil {
		t.Error("Expected error when no model is configured")
	}
}

func TestOllamaProvider_IsAvailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/tags" {
			_, _ = w.Write([]byte(`{"models":[]}`))
			return
		}
		http.NotFound(w, r)
	}))
	defer server.Close()

	provider, _ := NewOllamaProvider(Config{BaseURL: server.URL})
	if !provider.IsAvailable(context.Background()) {
		t.Error("Expected provider to be available")
	}
}
