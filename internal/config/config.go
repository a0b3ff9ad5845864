package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/nori266/hn-filtered/internal/domain"
)

const (
	configPathEnv   = "HN_FILTERED_CONFIG"
	databasePathEnv = "DATABASE_PATH"
	groqAPIKeyEnv   = "GROQ_API_KEY"
	openAIAPIKeyEnv = "OPENAI_API_KEY"
	cohereAPIKeyEnv = "COHERE_API_KEY"
	newsAPIKeyEnv   = "NEWS_API_KEY"
)

// Source kinds accepted by Validate; app wiring registers one implementation
// per kind.
const (
	SourceKindHackerNews = "hacker-news"
	SourceKindNewsAPI    = "newsapi"
	SourceKindRSS        = "rss"
)

// SourceKinds lists every kind a validated configuration may carry.
var SourceKinds = []string{SourceKindHackerNews, SourceKindNewsAPI, SourceKindRSS}

// Config holds all settings required across the application.
type Config struct {
	Logging   LoggingConfig   `yaml:"logging"`
	Database  DatabaseConfig  `yaml:"database"`
	Source    SourceConfig    `yaml:"source"`
	Filter    FilterConfig    `yaml:"filter"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	LLM       LLMConfig       `yaml:"llm"`
	Topics    TopicsConfig    `yaml:"topics"`
	Export    ExportConfig    `yaml:"export"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
}

// LoggingConfig controls slog construction.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// DatabaseConfig describes the embedded SQLite store.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// SourceConfig selects and parameterizes the fetch collaborator.
type SourceConfig struct {
	Kind       string           `yaml:"kind"`
	HackerNews HackerNewsConfig `yaml:"hackernews"`
	NewsAPI    NewsAPIConfig    `yaml:"newsapi"`
	RSS        RSSConfig        `yaml:"rss"`
}

// HackerNewsConfig describes the HN Firebase API source.
type HackerNewsConfig struct {
	BaseURL     string        `yaml:"baseUrl"`
	MinComments int           `yaml:"minComments"`
	Window      time.Duration `yaml:"window"`
}

// NewsAPIConfig describes a NewsAPI.org source.
type NewsAPIConfig struct {
	BaseURL string `yaml:"baseUrl"`
	Source  string `yaml:"source"`
	APIKey  string `yaml:"apiKey"`
}

// RSSConfig describes an RSS/Atom feed source.
type RSSConfig struct {
	FeedURL string `yaml:"feedUrl"`
}

// FilterConfig carries the two-stage filtering knobs.
type FilterConfig struct {
	SimilarityThreshold     float64 `yaml:"similarity_threshold"`
	UseContentForEmbedding  bool    `yaml:"use_content_for_embedding"`
	UseContentForVerify     bool    `yaml:"use_content_for_verification"`
	MaxItemsPerRun          int     `yaml:"max_items_per_run"`
	VerificationBatchSize   int     `yaml:"verification_batch_size"`
	VerificationConcurrency int     `yaml:"verification_concurrency"`
}

// EmbeddingConfig selects and parameterizes the embedding provider.
type EmbeddingConfig struct {
	Provider string        `yaml:"provider"`
	Endpoint string        `yaml:"endpoint"`
	Model    string        `yaml:"model"`
	APIKey   string        `yaml:"apiKey"`
	Timeout  time.Duration `yaml:"timeout"`
}

// LLMConfig selects and parameterizes the verification provider.
type LLMConfig struct {
	Provider    string        `yaml:"provider"`
	Endpoint    string        `yaml:"endpoint"`
	Model       string        `yaml:"model"`
	APIKey      string        `yaml:"apiKey"`
	Timeout     time.Duration `yaml:"timeout"`
	MaxAttempts int           `yaml:"maxAttempts"`
}

// TopicsConfig points at the topics file (one topic per line).
type TopicsConfig struct {
	File string `yaml:"file"`
}

// ExportConfig enables the markdown digest written after a run.
type ExportConfig struct {
	MarkdownPath string `yaml:"markdownPath"`
}

// SchedulerConfig enables unattended recurring runs when Interval > 0.
type SchedulerConfig struct {
	Interval time.Duration `yaml:"interval"`
}

// Load reads the optional .env file, the YAML configuration (if present), and
// applies environment overrides for secrets. An explicitly named configuration
// file that cannot be read or parsed is fatal, never silently defaulted.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("%w: read config file %s: %v", domain.ErrConfigInvalid, path, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("%w: parse config file %s: %v", domain.ErrConfigInvalid, path, err)
		}
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(databasePathEnv); v != "" {
		c.Database.Path = v
	}
	if v := os.Getenv(newsAPIKeyEnv); v != "" {
		c.Source.NewsAPI.APIKey = v
	}
	if v := os.Getenv(groqAPIKeyEnv); v != "" && c.LLM.Provider == "groq" {
		c.LLM.APIKey = v
	}
	switch c.Embedding.Provider {
	case "openai":
		if v := os.Getenv(openAIAPIKeyEnv); v != "" {
			c.Embedding.APIKey = v
		}
	case "cohere":
		if v := os.Getenv(cohereAPIKeyEnv); v != "" {
			c.Embedding.APIKey = v
		}
	}
}

// Validate rejects out-of-range settings and missing credentials. All
// failures wrap domain.ErrConfigInvalid and are fatal at startup.
func (c Config) Validate() error {
	if c.Filter.SimilarityThreshold < -1 || c.Filter.SimilarityThreshold > 1 {
		return fmt.Errorf("%w: similarity_threshold %.2f outside [-1, 1]", domain.ErrConfigInvalid, c.Filter.SimilarityThreshold)
	}
	if c.Filter.MaxItemsPerRun <= 0 {
		return fmt.Errorf("%w: max_items_per_run must be positive", domain.ErrConfigInvalid)
	}
	if c.Filter.VerificationBatchSize <= 0 {
		return fmt.Errorf("%w: verification_batch_size must be positive", domain.ErrConfigInvalid)
	}

	switch c.Source.Kind {
	case SourceKindHackerNews:
	case SourceKindNewsAPI:
		if c.Source.NewsAPI.APIKey == "" {
			return fmt.Errorf("%w: newsapi source requires an API key", domain.ErrConfigInvalid)
		}
	case SourceKindRSS:
		if c.Source.RSS.FeedURL == "" {
			return fmt.Errorf("%w: rss source requires a feed URL", domain.ErrConfigInvalid)
		}
	default:
		return fmt.Errorf("%w: unknown source kind %q", domain.ErrConfigInvalid, c.Source.Kind)
	}

	switch c.Embedding.Provider {
	case "openai", "cohere":
		if c.Embedding.APIKey == "" {
			return fmt.Errorf("%w: embedding provider %s requires an API key", domain.ErrConfigInvalid, c.Embedding.Provider)
		}
	case "ollama":
	default:
		return fmt.Errorf("%w: unknown embedding provider %q", domain.ErrConfigInvalid, c.Embedding.Provider)
	}

	switch c.LLM.Provider {
	case "groq":
		if c.LLM.APIKey == "" {
			return fmt.Errorf("%w: llm provider groq requires an API key", domain.ErrConfigInvalid)
		}
	case "ollama":
	default:
		return fmt.Errorf("%w: unknown llm provider %q", domain.ErrConfigInvalid, c.LLM.Provider)
	}

	return nil
}

func defaultConfig() Config {
	return Config{
		Logging:  LoggingConfig{Level: "info", Format: "text"},
		Database: DatabaseConfig{Path: "articles.db"},
		Source: SourceConfig{
			Kind: SourceKindHackerNews,
			HackerNews: HackerNewsConfig{
				BaseURL:     "https://hacker-news.firebaseio.com/v0",
				MinComments: 10,
				Window:      24 * time.Hour,
			},
			NewsAPI: NewsAPIConfig{BaseURL: "https://newsapi.org/v2"},
		},
		Filter: FilterConfig{
			SimilarityThreshold:     0.7,
			UseContentForEmbedding:  true,
			UseContentForVerify:     false,
			MaxItemsPerRun:          100,
			VerificationBatchSize:   10,
			VerificationConcurrency: 4,
		},
		Embedding: EmbeddingConfig{
			Provider: "openai",
			Endpoint: "https://api.openai.com/v1/embeddings",
			Model:    "text-embedding-3-small",
			Timeout:  30 * time.Second,
		},
		LLM: LLMConfig{
			Provider:    "groq",
			Endpoint:    "https://api.groq.com/openai/v1/chat/completions",
			Model:       "moonshotai/kimi-k2-instruct",
			Timeout:     60 * time.Second,
			MaxAttempts: 3,
		},
		Topics: TopicsConfig{File: "topics.txt"},
	}
}
