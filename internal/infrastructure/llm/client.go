package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/sync/errgroup"

	"github.com/nori266/hn-filtered/internal/config"
	"github.com/nori266/hn-filtered/internal/domain"
	"github.com/nori266/hn-filtered/internal/ports"
)

// completer is the minimal transport contract a verification provider must
// satisfy: submit a prompt, receive the model's text.
type completer interface {
	complete(ctx context.Context, prompt string) (string, error)
}

// retryableError marks transient provider failures (rate limits, timeouts)
// that deserve another attempt.
type retryableError struct{ err error }

func (e *retryableError) Error() string { return e.err.Error() }
func (e *retryableError) Unwrap() error { return e.err }

// Client is the verification client: it reconciles each item against all of
// its shortlisted topics in one model request, with retries and bounded
// concurrent fan-out inside a batch. Results are always aligned with the
// input order.
type Client struct {
	provider    completer
	useContent  bool
	maxAttempts int
	concurrency int
	logger      *slog.Logger
}

var _ ports.Verifier = (*Client)(nil)

// New builds the provider named in configuration. Missing credentials are
// rejected here, at startup, and never retried.
func New(cfg config.LLMConfig, useContent bool, concurrency int, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var provider completer
	switch cfg.Provider {
	case "groq":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("%w: llm provider groq requires an API key", domain.ErrConfigInvalid)
		}
		provider = newChatCompleter(cfg)
	case "ollama":
		provider = newOllamaCompleter(cfg)
	default:
		return nil, fmt.Errorf("%w: unknown llm provider %q", domain.ErrConfigInvalid, cfg.Provider)
	}

	maxAttempts := cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	if concurrency <= 0 {
		concurrency = 1
	}

	return &Client{
		provider:    provider,
		useContent:  useContent,
		maxAttempts: maxAttempts,
		concurrency: concurrency,
		logger:      logger,
	}, nil
}

// VerifyBatch verifies every entry and returns results aligned with the
// input. A malformed response or exhausted retries degrade that item to
// "not relevant, unverifiable" without failing the batch; the error is
// non-nil only when the context is cancelled.
func (c *Client) VerifyBatch(ctx context.Context, entries []ports.BatchEntry) ([]domain.VerificationResult, error) {
	results := make([]domain.VerificationResult, len(entries))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)

	for i, entry := range entries {
		i, entry := i, entry
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = c.verifyItem(gctx, entry)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("verify batch: %w", err)
	}
	return results, nil
}

func (c *Client) verifyItem(ctx context.Context, entry ports.BatchEntry) domain.VerificationResult {
	topics := entry.Candidate.Topics()
	prompt := buildPrompt(entry.Item, topics, c.useContent)

	response, err := c.completeWithRetry(ctx, prompt)
	if err != nil {
		c.logger.Warn("verification failed, marking item unverifiable",
			"item", entry.Item.ID, "error", err)
		return unverifiable(entry, fmt.Errorf("%w: %v", domain.ErrVerificationFailed, err))
	}

	answers, ok := parseAnswers(response, len(topics))
	if !ok {
		c.logger.Warn("unparseable verification response, marking item unverifiable",
			"item", entry.Item.ID)
		return unverifiable(entry, fmt.Errorf("%w: unparseable response", domain.ErrVerificationFailed))
	}

	result := domain.VerificationResult{
		ItemID:     entry.Item.ID,
		Verified:   true,
		VerifiedAt: time.Now().UTC(),
	}
	for i, score := range entry.Candidate.Scores {
		answer, found := answers[i]
		relevant := found && strings.HasPrefix(answer, "yes")
		result.Matches = append(result.Matches, domain.TopicVerdict{
			Topic:      score.Topic,
			Relevant:   relevant,
			Answer:     answer,
			Similarity: score.Score,
		})
		if relevant {
			result.IsRelevant = true
		}
	}
	return result
}

// completeWithRetry retries transient provider failures with exponential
// backoff up to maxAttempts.
func (c *Client) completeWithRetry(ctx context.Context, prompt string) (string, error) {
	var response string

	operation := func() error {
		resp, err := c.provider.complete(ctx, prompt)
		if err != nil {
			var transient *retryableError
			if errors.As(err, &transient) {
				return err
			}
			return backoff.Permanent(err)
		}
		response = resp
		return nil
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), uint64(c.maxAttempts-1)),
		ctx,
	)
	if err := backoff.Retry(operation, policy); err != nil {
		return "", err
	}
	return response, nil
}

func unverifiable(entry ports.BatchEntry, cause error) domain.VerificationResult {
	result := domain.VerificationResult{
		ItemID:     entry.Item.ID,
		Verified:   false,
		IsRelevant: false,
		Rationale:  cause.Error(),
		VerifiedAt: time.Now().UTC(),
	}
	for _, score := range entry.Candidate.Scores {
		result.Matches = append(result.Matches, domain.TopicVerdict{
			Topic:      score.Topic,
			Relevant:   false,
			Similarity: score.Score,
		})
	}
	return result
}
