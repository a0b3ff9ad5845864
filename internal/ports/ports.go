package ports

import (
	"context"
	"time"

	"github.com/nori266/hn-filtered/internal/domain"
)

// ItemSource pulls a finite, ordered sequence of raw items from one upstream
// provider. The limit bounds how many items a run may fetch.
type ItemSource interface {
	Fetch(ctx context.Context, limit int) ([]domain.Item, error)
}

// ItemRepository is the durable ledger of processed items and their verdicts.
type ItemRepository interface {
	// HasSeen reports whether the item identifier was recorded before.
	HasSeen(ctx context.Context, id string) (bool, error)
	// Record upserts the item and its verdict, keyed on the item
	// identifier. Calling it twice with identical arguments must leave the
	// store unchanged.
	Record(ctx context.Context, item domain.Item, verdict domain.VerificationResult) error
	// QueryRelevant returns confirmed-relevant items, newest first.
	// A nil since returns the full history.
	QueryRelevant(ctx context.Context, since *time.Time) ([]domain.StoredItem, error)
}

// Embedder maps text to a fixed-dimension vector. Stable for the same input
// within one run.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Shortlister is the cheap stage-1 filter: it scores an item against every
// topic and keeps those at or above the threshold. A nil candidate means no
// topic qualified.
type Shortlister interface {
	Shortlist(ctx context.Context, item domain.Item, topics []domain.Topic, threshold float64) (*domain.SimilarityCandidate, error)
}

// BatchEntry pairs an item with its shortlisted topics for verification.
type BatchEntry struct {
	Item      domain.Item
	Candidate domain.SimilarityCandidate
}

// Verifier obtains the authoritative relevance verdict for a batch of items.
// The returned slice is aligned with the input; per-item failures degrade to
// unverified results instead of failing the batch. The error is non-nil only
// when the context is cancelled.
type Verifier interface {
	VerifyBatch(ctx context.Context, entries []BatchEntry) ([]domain.VerificationResult, error)
}

// Extractor fetches and extracts the readable body text of an article URL.
type Extractor interface {
	Extract(ctx context.Context, url string) (string, error)
}

// Scheduler drives recurring pipeline executions.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
