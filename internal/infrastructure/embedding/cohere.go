package embedding

import (
	"context"
	"fmt"
	"net/http"
	"time"

	cohere "github.com/cohere-ai/cohere-go/v2"
	cohereclient "github.com/cohere-ai/cohere-go/v2/client"

	"github.com/nori266/hn-filtered/internal/config"
	"github.com/nori266/hn-filtered/internal/domain"
	"github.com/nori266/hn-filtered/internal/ports"
)

// CohereEmbedder maps text to vectors via the Cohere Embed v2 API.
type CohereEmbedder struct {
	client  *cohereclient.Client
	model   string
	timeout time.Duration
}

var _ ports.Embedder = (*CohereEmbedder)(nil)

// NewCohereEmbedder builds an SDK-backed embedder from configuration.
func NewCohereEmbedder(cfg config.EmbeddingConfig) *CohereEmbedder {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	model := cfg.Model
	if model == "" {
		model = "embed-english-v3.0"
	}
	client := cohereclient.NewClient(
		cohereclient.WithToken(cfg.APIKey),
		cohereclient.WithHTTPClient(&http.Client{Timeout: timeout}),
	)
	return &CohereEmbedder{client: client, model: model, timeout: timeout}
}

// Embed maps text to a vector. Failures wrap domain.ErrEmbeddingFailed.
func (e *CohereEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	resp, err := e.client.V2.Embed(ctx, &cohere.V2EmbedRequest{
		Texts:          []string{text},
		Model:          e.model,
		InputType:      cohere.EmbedInputTypeSearchDocument,
		EmbeddingTypes: []cohere.EmbeddingType{cohere.EmbeddingTypeFloat},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: cohere embed: %v", domain.ErrEmbeddingFailed, err)
	}
	if resp == nil || resp.Embeddings == nil || len(resp.Embeddings.Float) != 1 {
		return nil, fmt.Errorf("%w: cohere returned no embedding", domain.ErrEmbeddingFailed)
	}

	vec := resp.Embeddings.Float[0]
	out := make([]float32, len(vec))
	for i, v := range vec {
		out[i] = float32(v)
	}
	return out, nil
}
