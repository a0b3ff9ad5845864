package embedding

import (
	"fmt"

	"github.com/nori266/hn-filtered/internal/config"
	"github.com/nori266/hn-filtered/internal/domain"
	"github.com/nori266/hn-filtered/internal/ports"
)

// New selects the embedding provider named in configuration.
func New(cfg config.EmbeddingConfig) (ports.Embedder, error) {
	switch cfg.Provider {
	case "openai":
		return NewOpenAIEmbedder(cfg), nil
	case "cohere":
		return NewCohereEmbedder(cfg), nil
	case "ollama":
		return NewOllamaEmbedder(cfg), nil
	default:
		return nil, fmt.Errorf("%w: unknown embedding provider %q", domain.ErrConfigInvalid, cfg.Provider)
	}
}
