package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/nori266/hn-filtered/internal/config"
	"github.com/nori266/hn-filtered/internal/domain"
	"github.com/nori266/hn-filtered/internal/ports"
)

// OpenAIEmbedder calls an OpenAI-compatible embeddings endpoint.
// Request: {"input": ["text"], "model": "..."}; response carries one
// embedding per input.
type OpenAIEmbedder struct {
	endpoint string
	model    string
	apiKey   string
	timeout  time.Duration
	client   *http.Client
}

var _ ports.Embedder = (*OpenAIEmbedder)(nil)

// NewOpenAIEmbedder builds a client from configuration.
func NewOpenAIEmbedder(cfg config.EmbeddingConfig) *OpenAIEmbedder {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &OpenAIEmbedder{
		endpoint: cfg.Endpoint,
		model:    cfg.Model,
		apiKey:   cfg.APIKey,
		timeout:  timeout,
		client:   &http.Client{Timeout: timeout},
	}
}

// Embed maps text to a vector. Failures wrap domain.ErrEmbeddingFailed.
func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	body, err := json.Marshal(map[string]any{
		"input": []string{text},
		"model": e.model,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: marshal payload: %v", domain.ErrEmbeddingFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", domain.ErrEmbeddingFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.apiKey)

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrEmbeddingFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("%w: provider returned %s: %s",
			domain.ErrEmbeddingFailed, resp.Status, strings.TrimSpace(string(payload)))
	}

	var parsed struct {
		Data []struct {
			Embedding []float32 `json:"embedding"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", domain.ErrEmbeddingFailed, err)
	}
	if len(parsed.Data) != 1 || len(parsed.Data[0].Embedding) == 0 {
		return nil, fmt.Errorf("%w: provider returned no embedding", domain.ErrEmbeddingFailed)
	}

	return parsed.Data[0].Embedding, nil
}
