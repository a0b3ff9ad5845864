package embedding

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/nori266/hn-filtered/internal/config"
	"github.com/nori266/hn-filtered/internal/domain"
)

func TestOpenAIEmbed(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer sk-test" {
			t.Errorf("unexpected auth header: %s", got)
		}

		var payload struct {
			Input []string `json:"input"`
			Model string   `json:"model"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if len(payload.Input) != 1 || payload.Input[0] != "rust programming" {
			t.Errorf("unexpected input: %v", payload.Input)
		}

		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{
				{"embedding": []float32{0.1, 0.2, 0.3}, "index": 0},
			},
		})
	}))
	defer server.Close()

	e := NewOpenAIEmbedder(config.EmbeddingConfig{
		Endpoint: server.URL,
		Model:    "text-embedding-3-small",
		APIKey:   "sk-test",
	})

	vec, err := e.Embed(context.Background(), "rust programming")
	if err != nil {
		t.Fatalf("Embed error: %v", err)
	}
	if len(vec) != 3 || vec[1] != 0.2 {
		t.Fatalf("unexpected vector: %v", vec)
	}
}

func TestOpenAIEmbedProviderError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer server.Close()

	e := NewOpenAIEmbedder(config.EmbeddingConfig{Endpoint: server.URL, APIKey: "sk"})

	_, err := e.Embed(context.Background(), "anything")
	if err == nil {
		t.Fatal("expected provider error")
	}
	if !errors.Is(err, domain.ErrEmbeddingFailed) {
		t.Fatalf("expected ErrEmbeddingFailed, got %v", err)
	}
}
