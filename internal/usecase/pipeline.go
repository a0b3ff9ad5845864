package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/nori266/hn-filtered/internal/domain"
	"github.com/nori266/hn-filtered/internal/ports"
)

// PipelineDeps wires all driven adapters into the filtering pipeline.
type PipelineDeps struct {
	Source     ports.ItemSource
	Repository ports.ItemRepository
	Matcher    ports.Shortlister
	Verifier   ports.Verifier
	Extractor  ports.Extractor
	Logger     *slog.Logger
}

// Pipeline implements the two-stage filtering workflow: dedupe against the
// store, shortlist by embedding similarity, verify shortlisted items with
// the model in batches, persist every verdict, and emit confirmed-relevant
// items incrementally in fetch order.
type Pipeline struct {
	source     ports.ItemSource
	repository ports.ItemRepository
	matcher    ports.Shortlister
	verifier   ports.Verifier
	extractor  ports.Extractor
	logger     *slog.Logger
}

// RunRequest carries one session's topics and filtering options. Nothing is
// shared between runs, so concurrent sessions stay isolated.
type RunRequest struct {
	SessionID           string
	Topics              []domain.Topic
	SimilarityThreshold float64
	MaxItems            int
	BatchSize           int
	ExtractContent      bool
}

// Result is one confirmed-relevant item with its verdict.
type Result struct {
	Item    domain.Item
	Verdict domain.VerificationResult
}

// Summary describes how a run went. Incomplete is set when a fatal error
// stopped the run early; everything emitted before it remains valid.
type Summary struct {
	Fetched     int
	Seen        int
	Shortlisted int
	Relevant    int
	Incomplete  bool
	Err         error
}

// Run is a handle on an in-flight pipeline execution.
type Run struct {
	results chan Result
	done    chan struct{}
	summary Summary
}

// Results streams confirmed-relevant items as they become available. The
// channel closes when the run ends.
func (r *Run) Results() <-chan Result {
	return r.results
}

// Summary blocks until the run ends and returns its outcome.
func (r *Run) Summary() Summary {
	<-r.done
	return r.summary
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		source:     deps.Source,
		repository: deps.Repository,
		matcher:    deps.Matcher,
		verifier:   deps.Verifier,
		extractor:  deps.Extractor,
		logger:     logger,
	}
}

// Start launches one pipeline run. Results stream through the returned
// handle; cancellation of ctx stops new external calls promptly and leaves
// committed records intact.
func (p *Pipeline) Start(ctx context.Context, req RunRequest) *Run {
	run := &Run{
		results: make(chan Result, req.BatchSize),
		done:    make(chan struct{}),
	}
	go func() {
		defer close(run.done)
		defer close(run.results)
		run.summary = p.execute(ctx, req, run.results)
	}()
	return run
}

func (p *Pipeline) execute(ctx context.Context, req RunRequest, out chan<- Result) Summary {
	var summary Summary

	if len(req.Topics) == 0 {
		p.logger.Warn("no topics provided, nothing to match", "session", req.SessionID)
		return summary
	}

	items, err := p.source.Fetch(ctx, req.MaxItems)
	if err != nil {
		summary.Incomplete = true
		summary.Err = fmt.Errorf("fetch items: %w", err)
		return summary
	}
	summary.Fetched = len(items)
	p.logger.Info("fetched candidate items", "session", req.SessionID, "count", len(items))

	var batch []ports.BatchEntry
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		err := p.verifyAndEmit(ctx, batch, out, &summary)
		batch = batch[:0]
		return err
	}

	for _, item := range items {
		if err := ctx.Err(); err != nil {
			summary.Incomplete = true
			summary.Err = err
			return summary
		}

		seen, err := p.repository.HasSeen(ctx, item.ID)
		if err != nil {
			summary.Incomplete = true
			summary.Err = fmt.Errorf("check item %s: %w", item.ID, err)
			return summary
		}
		if seen {
			summary.Seen++
			p.logger.Debug("skipping already processed item", "item", item.ID)
			continue
		}

		p.enrichContent(ctx, &item, req)

		candidate, err := p.matcher.Shortlist(ctx, item, req.Topics, req.SimilarityThreshold)
		if err != nil {
			// Recoverable: the item is skipped without a record so a
			// later run can retry it.
			p.logger.Warn("shortlist failed, skipping item", "item", item.ID, "error", err)
			continue
		}
		if candidate == nil {
			if err := p.recordUnmatched(ctx, item); err != nil {
				summary.Incomplete = true
				summary.Err = err
				return summary
			}
			continue
		}

		summary.Shortlisted++
		batch = append(batch, ports.BatchEntry{Item: item, Candidate: *candidate})
		if len(batch) >= req.BatchSize {
			if err := flush(); err != nil {
				summary.Incomplete = true
				summary.Err = err
				return summary
			}
		}
	}

	if err := flush(); err != nil {
		summary.Incomplete = true
		summary.Err = err
	}
	return summary
}

// verifyAndEmit submits one batch, persists every verdict, and emits the
// relevant ones in batch order.
func (p *Pipeline) verifyAndEmit(ctx context.Context, batch []ports.BatchEntry, out chan<- Result, summary *Summary) error {
	results, err := p.verifier.VerifyBatch(ctx, batch)
	if err != nil {
		return fmt.Errorf("verify batch: %w", err)
	}

	for i, verdict := range results {
		item := batch[i].Item
		if err := p.repository.Record(ctx, item, verdict); err != nil {
			return fmt.Errorf("record item %s: %w", item.ID, err)
		}
		if !verdict.IsRelevant {
			continue
		}
		summary.Relevant++
		select {
		case out <- Result{Item: item, Verdict: verdict}:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// enrichContent fills in the item body when content-based filtering wants it
// and the source did not provide one. Extraction failures degrade to
// title-only matching.
func (p *Pipeline) enrichContent(ctx context.Context, item *domain.Item, req RunRequest) {
	if !req.ExtractContent || p.extractor == nil {
		return
	}
	if strings.TrimSpace(item.Content) != "" || item.URL == "" {
		return
	}

	content, err := p.extractor.Extract(ctx, item.URL)
	if err != nil {
		p.logger.Warn("content extraction failed, falling back to title", "item", item.ID, "error", err)
		return
	}
	item.Content = content
}

// recordUnmatched persists an explicit negative for items the pre-filter
// rejected, so later runs skip them via HasSeen.
func (p *Pipeline) recordUnmatched(ctx context.Context, item domain.Item) error {
	verdict := domain.VerificationResult{ItemID: item.ID}
	if err := p.repository.Record(ctx, item, verdict); err != nil {
		return fmt.Errorf("record unmatched item %s: %w", item.ID, err)
	}
	return nil
}
