package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nori266/hn-filtered/internal/domain"
)

func TestBuildMarkdown(t *testing.T) {
	t.Parallel()

	results := []Result{
		{
			Item: domain.Item{Title: "Rust 2.0 announced", URL: "https://example.org/rust"},
			Verdict: domain.VerificationResult{
				IsRelevant: true,
				Matches: []domain.TopicVerdict{
					{Topic: domain.NewTopic("rust programming"), Relevant: true, Answer: "yes", Similarity: 0.91},
					{Topic: domain.NewTopic("web frameworks"), Relevant: false, Answer: "no", Similarity: 0.72},
				},
			},
		},
		{
			Item: domain.Item{Title: "TiKV internals", URL: "https://example.org/tikv"},
			Verdict: domain.VerificationResult{
				IsRelevant: true,
				Matches: []domain.TopicVerdict{
					{Topic: domain.NewTopic("distributed databases"), Relevant: true, Answer: "yes", Similarity: 0.85},
				},
			},
		},
	}

	got := BuildMarkdown(results)

	want := "# Verified News Links\n\n" +
		"- [Rust 2.0 announced](https://example.org/rust)\n" +
		"  - Matched Topic: rust programming (similarity: 0.91)\n" +
		"- [TiKV internals](https://example.org/tikv)\n" +
		"  - Matched Topic: distributed databases (similarity: 0.85)\n"
	assert.Equal(t, want, got)
}

func TestBuildMarkdownEmpty(t *testing.T) {
	t.Parallel()

	assert.Empty(t, BuildMarkdown(nil))
}
