package match

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestSpaceProvider_Match_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/run/predict" {
			t.Errorf("Expected path /run/predict, got %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer hf-token" {
			t.Errorf("Unexpected Authorization header: %s", r.Header.Get("Authorization"))
		}

		var req spaceRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Data) != 2 {
			t.Fatalf("Unexpected request body: %+v (%v)", req, err)
		}
		var songs []SongInput
		if err := json.Unmarshal([]byte(req.Data[1]), &songs); err != nil || len(songs) != len(testSongs) {
			t.Errorf("Expected songs_json with %d songs, got %v (%v)", len(testSongs), songs, err)
		}

		_, _ = w.Write([]byte(`{"data":[[{"name":"Holy Holy Holy","score":0.31,"themes":[]},{"name":"Amazing Grace","score":0.52,"themes":["Grace"]}]]}`))
	}))
	defer server.Close()

	provider, err := NewSpaceProvider(Config{BaseURL: server.URL, APIKey: "hf-token", Strict: true})
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}

	resp, err := provider.Match(context.Background(), Request{Passage: "grace", Songs: testSongs})
	if err != nil {
		t.Fatalf("Match failed: %v", err)
	}
	if resp.Matches[0].Name != "Amazing Grace" || resp.Matches[1].Score != 0.31 {
		t.Errorf("Unexpected matches: %+v", resp.Matches)
	}
}

func TestSpaceProvider_Match_LogicError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":[{"error":"songs_json is not a list"}]}`))
	}))
	defer server.Close()

	provider, _ := NewSpaceProvider(Config{BaseURL: server.URL})
	_, err := provider.Match(context.Background(), Request{Passage: "x", Songs: testSongs})

	var logicErr *LogicError
	if !errors.As(err, &logicErr) {
		t.Fatalf("Expected LogicError, got %v", err)
	}
	if logicErr.Details != "songs_json is not a list" {
		t.Errorf("Unexpected details: %s", logicErr.Details)
	}
	if !errors.Is(err, ErrLogic) {
		t.Error("Expected LogicError to unwrap to ErrLogic")
	}
}

func TestSpaceProvider_Match_Sleeping(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	provider, _ := NewSpaceProvider(Config{BaseURL: server.URL})
	if _, err := provider.Match(context.Background(), Request{Passage: "x"}); !errors.Is(err, ErrUnavailable) {
		t.Errorf("Expected ErrUnavailable, got %v", err)
	}
}

func TestSpaceProvider_Match_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	provider, _ := NewSpaceProvider(Config{BaseURL: server.URL, Timeout: 20 * time.Millisecond})
	if _, err := provider.Match(context.Background(), Request{Passage: "x"}); !errors.Is(err, ErrUnavailable) {
		t.Errorf("Expected ErrUnavailable on timeout, got %v", err)
	}
}

func TestNewSpaceProvider_RequiresURL(t *testing.T) {
	if _, err := NewSpaceProvider(Config{}); err == nil {
		t.Error("Expected error for missing base URL")
	}
}
