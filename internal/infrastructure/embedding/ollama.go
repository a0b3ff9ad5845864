package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/nori266/hn-filtered/internal/config"
	"github.com/nori266/hn-filtered/internal/domain"
	"github.com/nori266/hn-filtered/internal/ports"
)

// OllamaEmbedder calls a local Ollama instance's embeddings endpoint.
type OllamaEmbedder struct {
	endpoint string
	model    string
	timeout  time.Duration
	client   *http.Client
}

var _ ports.Embedder = (*OllamaEmbedder)(nil)

// NewOllamaEmbedder builds a client from configuration. The endpoint
// defaults to a local instance.
func NewOllamaEmbedder(cfg config.EmbeddingConfig) *OllamaEmbedder {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = "http://localhost:11434/api/embeddings"
	}
	return &OllamaEmbedder{
		endpoint: endpoint,
		model:    cfg.Model,
		timeout:  timeout,
		client:   &http.Client{Timeout: timeout},
	}
}

// Embed maps text to a vector. Failures wrap domain.ErrEmbeddingFailed.
func (e *OllamaEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	body, err := json.Marshal(map[string]any{
		"model":  e.model,
		"prompt": text,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: marshal payload: %v", domain.ErrEmbeddingFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", domain.ErrEmbeddingFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrEmbeddingFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: ollama returned %s", domain.ErrEmbeddingFailed, resp.Status)
	}

	var parsed struct {
		Embedding []float32 `json:"embedding"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", domain.ErrEmbeddingFailed, err)
	}
	if len(parsed.Embedding) == 0 {
		return nil, fmt.Errorf("%w: ollama returned no embedding", domain.ErrEmbeddingFailed)
	}

	return parsed.Embedding, nil
}
