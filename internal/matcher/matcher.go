package matcher

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/nori266/hn-filtered/internal/domain"
	"github.com/nori266/hn-filtered/internal/ports"
)

// Matcher is the stage-1 pre-filter: it embeds items and topics and keeps
// the topics whose cosine similarity clears the threshold. Topic vectors are
// cached for the lifetime of the matcher (one run); no cross-run stability
// is assumed.
type Matcher struct {
	embedder   ports.Embedder
	useContent bool
	logger     *slog.Logger

	mu        sync.Mutex
	topicVecs map[string][]float32
}

var _ ports.Shortlister = (*Matcher)(nil)

// New builds a matcher. useContent selects the item's body text for
// embedding when available; the title is used otherwise.
func New(embedder ports.Embedder, useContent bool, logger *slog.Logger) *Matcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Matcher{
		embedder:   embedder,
		useContent: useContent,
		logger:     logger,
		topicVecs:  map[string][]float32{},
	}
}

// Shortlist embeds the item once, scores it against every topic, and returns
// the topics with similarity >= threshold sorted descending. A nil candidate
// means no topic qualified. Embedding provider failures wrap
// domain.ErrEmbeddingFailed.
func (m *Matcher) Shortlist(ctx context.Context, item domain.Item, topics []domain.Topic, threshold float64) (*domain.SimilarityCandidate, error) {
	if len(topics) == 0 {
		return nil, nil
	}

	itemVec, err := m.embedder.Embed(ctx, m.itemText(item))
	if err != nil {
		return nil, fmt.Errorf("embed item %s: %w", item.ID, err)
	}

	var scores []domain.TopicScore
	for _, topic := range topics {
		topicVec, err := m.topicVector(ctx, topic)
		if err != nil {
			return nil, fmt.Errorf("embed topic %q: %w", topic.Raw, err)
		}

		score := cosineSimilarity(itemVec, topicVec)
		if score >= threshold {
			scores = append(scores, domain.TopicScore{Topic: topic, Score: score})
		}
	}

	if len(scores) == 0 {
		return nil, nil
	}

	sort.SliceStable(scores, func(i, j int) bool { return scores[i].Score > scores[j].Score })

	return &domain.SimilarityCandidate{ItemID: item.ID, Scores: scores}, nil
}

// Score returns the cosine similarity of two texts. Symmetric and
// deterministic for fixed embeddings.
func (m *Matcher) Score(ctx context.Context, itemText, topicText string) (float64, error) {
	a, err := m.embedder.Embed(ctx, itemText)
	if err != nil {
		return 0, fmt.Errorf("embed item text: %w", err)
	}
	b, err := m.embedder.Embed(ctx, topicText)
	if err != nil {
		return 0, fmt.Errorf("embed topic text: %w", err)
	}
	return cosineSimilarity(a, b), nil
}

// itemText picks the text to embed: body when enabled and present, title
// otherwise. The degradation to title-only is logged, not an error.
func (m *Matcher) itemText(item domain.Item) string {
	if m.useContent {
		if content := strings.TrimSpace(item.Content); content != "" {
			return content
		}
		m.logger.Warn("no extracted content, embedding title only", "item", item.ID)
	}
	return item.Title
}

func (m *Matcher) topicVector(ctx context.Context, topic domain.Topic) ([]float32, error) {
	m.mu.Lock()
	vec, ok := m.topicVecs[topic.Normalized]
	m.mu.Unlock()
	if ok {
		return vec, nil
	}

	vec, err := m.embedder.Embed(ctx, topic.Normalized)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.topicVecs[topic.Normalized] = vec
	m.mu.Unlock()
	return vec, nil
}

// cosineSimilarity returns the cosine of the angle between two vectors in
// [-1, 1]. Mismatched dimensions or a zero vector score 0.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
