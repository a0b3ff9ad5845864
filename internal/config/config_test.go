package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nori266/hn-filtered/internal/domain"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv(configPathEnv, "")
	t.Setenv(groqAPIKeyEnv, "")
	t.Setenv(openAIAPIKeyEnv, "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, SourceKindHackerNews, cfg.Source.Kind)
	assert.Equal(t, 0.7, cfg.Filter.SimilarityThreshold)
	assert.Equal(t, 100, cfg.Filter.MaxItemsPerRun)
	assert.True(t, cfg.Filter.UseContentForEmbedding)
	assert.False(t, cfg.Filter.UseContentForVerify)
}

func TestLoadFileAndEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	raw := []byte(`
filter:
  similarity_threshold: 0.55
  max_items_per_run: 25
llm:
  provider: groq
  model: llama-3.3-70b-versatile
`)
	require.NoError(t, os.WriteFile(path, raw, 0o600))

	t.Setenv(configPathEnv, path)
	t.Setenv(groqAPIKeyEnv, "gk-test")
	t.Setenv(databasePathEnv, "/tmp/override.db")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 0.55, cfg.Filter.SimilarityThreshold)
	assert.Equal(t, 25, cfg.Filter.MaxItemsPerRun)
	assert.Equal(t, "llama-3.3-70b-versatile", cfg.LLM.Model)
	assert.Equal(t, "gk-test", cfg.LLM.APIKey)
	assert.Equal(t, "/tmp/override.db", cfg.Database.Path)
	// Fields the file omits keep their defaults.
	assert.Equal(t, 10, cfg.Filter.VerificationBatchSize)
}

func TestLoadMissingConfigFileIsFatal(t *testing.T) {
	t.Setenv(configPathEnv, filepath.Join(t.TempDir(), "nope.yaml"))

	_, err := Load()
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrConfigInvalid)
}

func TestLoadUnparseableConfigFileIsFatal(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("filter: [not a mapping"), 0o600))

	t.Setenv(configPathEnv, path)

	_, err := Load()
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrConfigInvalid)
}

func TestValidate(t *testing.T) {
	base := defaultConfig()
	base.LLM.APIKey = "gk"
	base.Embedding.APIKey = "sk"

	require.NoError(t, base.Validate())

	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"threshold too high", func(c *Config) { c.Filter.SimilarityThreshold = 1.5 }},
		{"threshold too low", func(c *Config) { c.Filter.SimilarityThreshold = -1.5 }},
		{"zero max items", func(c *Config) { c.Filter.MaxItemsPerRun = 0 }},
		{"zero batch size", func(c *Config) { c.Filter.VerificationBatchSize = 0 }},
		{"unknown source", func(c *Config) { c.Source.Kind = "usenet" }},
		{"rss without feed", func(c *Config) { c.Source.Kind = "rss" }},
		{"newsapi without key", func(c *Config) { c.Source.Kind = "newsapi"; c.Source.NewsAPI.APIKey = "" }},
		{"groq without key", func(c *Config) { c.LLM.APIKey = "" }},
		{"openai embeddings without key", func(c *Config) { c.Embedding.APIKey = "" }},
		{"unknown llm provider", func(c *Config) { c.LLM.Provider = "bard" }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := base
			tc.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrConfigInvalid)
		})
	}
}

func TestValidateOllamaNeedsNoKeys(t *testing.T) {
	cfg := defaultConfig()
	cfg.Embedding.Provider = "ollama"
	cfg.Embedding.APIKey = ""
	cfg.LLM.Provider = "ollama"
	cfg.LLM.APIKey = ""

	require.NoError(t, cfg.Validate())
}
