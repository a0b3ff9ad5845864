package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/nori266/hn-filtered/internal/config"
	"github.com/nori266/hn-filtered/internal/domain"
	"github.com/nori266/hn-filtered/internal/infrastructure/embedding"
	"github.com/nori266/hn-filtered/internal/infrastructure/extract"
	"github.com/nori266/hn-filtered/internal/infrastructure/llm"
	"github.com/nori266/hn-filtered/internal/infrastructure/scheduler"
	"github.com/nori266/hn-filtered/internal/infrastructure/source"
	"github.com/nori266/hn-filtered/internal/infrastructure/storage"
	"github.com/nori266/hn-filtered/internal/logging"
	"github.com/nori266/hn-filtered/internal/matcher"
	"github.com/nori266/hn-filtered/internal/usecase"
)

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg      config.Config
	logger   *slog.Logger
	store    *storage.SQLiteRepository
	pipeline *usecase.Pipeline
}

// New builds a runnable application instance from validated configuration.
func New(cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level, cfg.Logging.Format)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	store, err := storage.Open(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	httpClient := &http.Client{Timeout: 30 * time.Second}

	registry := source.NewRegistry()
	registry.Register(config.SourceKindHackerNews, source.NewHackerNewsSource(cfg.Source.HackerNews, httpClient, baseLogger.With("component", "source.hackernews")))
	registry.Register(config.SourceKindNewsAPI, source.NewNewsAPISource(cfg.Source.NewsAPI, httpClient))
	registry.Register(config.SourceKindRSS, source.NewRSSSource(cfg.Source.RSS))

	src, err := registry.Resolve(cfg.Source.Kind)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("resolve source: %w", err)
	}

	embedder, err := embedding.New(cfg.Embedding)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("build embedder: %w", err)
	}

	verifier, err := llm.New(cfg.LLM, cfg.Filter.UseContentForVerify, cfg.Filter.VerificationConcurrency, baseLogger.With("component", "verifier"))
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("build verifier: %w", err)
	}

	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		Source:     src,
		Repository: store,
		Matcher:    matcher.New(embedder, cfg.Filter.UseContentForEmbedding, baseLogger.With("component", "matcher")),
		Verifier:   verifier,
		Extractor:  extract.NewReadabilityExtractor(httpClient, 20*time.Second, baseLogger.With("component", "extractor")),
		Logger:     baseLogger.With("component", "pipeline"),
	})

	return &Application{
		cfg:      cfg,
		logger:   baseLogger,
		store:    store,
		pipeline: pipeline,
	}, nil
}

// Run executes the pipeline once, or on a fixed interval when the scheduler
// is enabled. It returns after the single run, or when ctx ends.
func (a *Application) Run(ctx context.Context) error {
	if a.cfg.Scheduler.Interval <= 0 {
		return a.runOnce(ctx, time.Now())
	}

	sched := usecase.NewScheduler(
		scheduler.NewIntervalScheduler(a.cfg.Scheduler.Interval),
		func(runCtx context.Context, trigger time.Time) {
			if err := a.runOnce(runCtx, trigger); err != nil {
				a.logger.Error("scheduled run failed", "error", err)
			}
		},
	)
	if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	defer func() { _ = sched.Stop(context.Background()) }()

	<-ctx.Done()
	return nil
}

// History prints previously confirmed-relevant items from the store, newest
// first. A zero window means everything ever recorded.
func (a *Application) History(ctx context.Context, window time.Duration) error {
	var since *time.Time
	if window > 0 {
		cutoff := time.Now().Add(-window)
		since = &cutoff
	}

	stored, err := a.store.QueryRelevant(ctx, since)
	if err != nil {
		return fmt.Errorf("query history: %w", err)
	}

	for _, entry := range stored {
		fmt.Printf("%s\n  %s\n", entry.Item.Title, entry.Item.URL)
		for _, match := range entry.Verdict.RelevantMatches() {
			fmt.Printf("  matched: %s (%.2f)\n", match.Topic.Raw, match.Similarity)
		}
	}
	a.logger.Info("history listed", "count", len(stored))
	return nil
}

// Close releases held resources.
func (a *Application) Close() error {
	if a.store == nil {
		return nil
	}
	return a.store.Close()
}

func (a *Application) runOnce(ctx context.Context, trigger time.Time) error {
	topics, err := a.loadTopics()
	if err != nil {
		return err
	}

	req := usecase.RunRequest{
		SessionID:           trigger.UTC().Format("20060102T150405Z"),
		Topics:              topics,
		SimilarityThreshold: a.cfg.Filter.SimilarityThreshold,
		MaxItems:            a.cfg.Filter.MaxItemsPerRun,
		BatchSize:           a.cfg.Filter.VerificationBatchSize,
		ExtractContent:      a.cfg.Filter.UseContentForEmbedding || a.cfg.Filter.UseContentForVerify,
	}

	run := a.pipeline.Start(ctx, req)

	var collected []usecase.Result
	for result := range run.Results() {
		collected = append(collected, result)
		fmt.Printf("%s\n  %s\n", result.Item.Title, result.Item.URL)
		for _, match := range result.Verdict.RelevantMatches() {
			fmt.Printf("  matched: %s (%.2f)\n", match.Topic.Raw, match.Similarity)
		}
	}

	summary := run.Summary()
	a.logger.Info("run finished",
		"session", req.SessionID,
		"fetched", summary.Fetched,
		"seen", summary.Seen,
		"shortlisted", summary.Shortlisted,
		"relevant", summary.Relevant,
		"incomplete", summary.Incomplete,
	)

	if a.cfg.Export.MarkdownPath != "" && len(collected) > 0 {
		digest := usecase.BuildMarkdown(collected)
		if err := os.WriteFile(a.cfg.Export.MarkdownPath, []byte(digest), 0o644); err != nil {
			a.logger.Error("write markdown digest", "path", a.cfg.Export.MarkdownPath, "error", err)
		}
	}

	if summary.Incomplete {
		return summary.Err
	}
	return nil
}

func (a *Application) loadTopics() ([]domain.Topic, error) {
	raw, err := os.ReadFile(a.cfg.Topics.File)
	if err != nil {
		return nil, fmt.Errorf("read topics file %s: %w", a.cfg.Topics.File, err)
	}
	topics := domain.ParseTopics(string(raw))
	if len(topics) == 0 {
		return nil, fmt.Errorf("topics file %s contains no topics", a.cfg.Topics.File)
	}
	return topics, nil
}
