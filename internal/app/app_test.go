package app

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nori266/hn-filtered/internal/config"
)

func testConfig(t *testing.T, kind string) config.Config {
	t.Helper()

	cfg := config.Config{
		Logging:  config.LoggingConfig{Level: "error", Format: "text"},
		Database: config.DatabaseConfig{Path: filepath.Join(t.TempDir(), "items.db")},
		Source: config.SourceConfig{
			Kind: kind,
			HackerNews: config.HackerNewsConfig{
				BaseURL:     "https://hacker-news.firebaseio.com/v0",
				MinComments: 10,
				Window:      24 * time.Hour,
			},
		},
		Filter: config.FilterConfig{
			SimilarityThreshold:     0.7,
			MaxItemsPerRun:          100,
			VerificationBatchSize:   10,
			VerificationConcurrency: 4,
		},
		Embedding: config.EmbeddingConfig{Provider: "ollama", Endpoint: "http://localhost:11434", Model: "nomic-embed-text"},
		LLM:       config.LLMConfig{Provider: "ollama", Endpoint: "http://localhost:11434", Model: "llama3"},
		Topics:    config.TopicsConfig{File: "topics.txt"},
	}

	switch kind {
	case config.SourceKindNewsAPI:
		cfg.Source.NewsAPI = config.NewsAPIConfig{BaseURL: "https://newsapi.org/v2", Source: "hacker-news", APIKey: "nk-test"}
	case config.SourceKindRSS:
		cfg.Source.RSS = config.RSSConfig{FeedURL: "https://example.org/feed.xml"}
	}
	return cfg
}

// Every source kind Validate accepts must also be registered, so a validated
// configuration can never fail to resolve its source at startup.
func TestNewResolvesEveryValidatedSourceKind(t *testing.T) {
	for _, kind := range config.SourceKinds {
		t.Run(kind, func(t *testing.T) {
			cfg := testConfig(t, kind)
			require.NoError(t, cfg.Validate())

			application, err := New(cfg, nil)
			require.NoError(t, err)
			require.NoError(t, application.Close())
		})
	}
}

func TestNewRejectsUnknownSourceKind(t *testing.T) {
	cfg := testConfig(t, "usenet")

	_, err := New(cfg, nil)
	require.Error(t, err)
}
