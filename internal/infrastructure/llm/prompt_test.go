package llm

import (
	"strings"
	"testing"

	"github.com/nori266/hn-filtered/internal/domain"
)

func TestBuildPrompt(t *testing.T) {
	t.Parallel()

	item := domain.Item{Title: "New Rust async runtime released", Content: "Very long body."}
	topics := []domain.Topic{domain.NewTopic("rust programming"), domain.NewTopic("distributed databases")}

	prompt := buildPrompt(item, topics, false)

	if !strings.Contains(prompt, "Article Title: New Rust async runtime released") {
		t.Fatalf("title missing from prompt:\n%s", prompt)
	}
	if !strings.Contains(prompt, "1. rust programming") || !strings.Contains(prompt, "2. distributed databases") {
		t.Fatalf("numbered topics missing from prompt:\n%s", prompt)
	}
	if strings.Contains(prompt, "Article Content") {
		t.Fatal("content included although disabled")
	}

	withContent := buildPrompt(item, topics, true)
	if !strings.Contains(withContent, "Article Content: Very long body.") {
		t.Fatalf("content missing although enabled:\n%s", withContent)
	}
}

func TestBuildPromptClipsContent(t *testing.T) {
	t.Parallel()

	item := domain.Item{Title: "t", Content: strings.Repeat("x", maxContentRunes+500)}
	prompt := buildPrompt(item, []domain.Topic{domain.NewTopic("a")}, true)

	if strings.Count(prompt, "x") != maxContentRunes {
		t.Fatalf("content not clipped to %d runes", maxContentRunes)
	}
}

func TestParseAnswers(t *testing.T) {
	t.Parallel()

	response := "Sure, here are the answers:\n1. yes\n 2. no\n3. Yes, definitely\nnot a line\n9. yes"
	answers, ok := parseAnswers(response, 3)
	if !ok {
		t.Fatal("expected parse to succeed")
	}

	if answers[0] != "yes" {
		t.Fatalf("unexpected answer for topic 1: %q", answers[0])
	}
	if answers[1] != "no" {
		t.Fatalf("unexpected answer for topic 2: %q", answers[1])
	}
	if answers[2] != "yes, definitely" {
		t.Fatalf("unexpected answer for topic 3: %q", answers[2])
	}
	if _, found := answers[8]; found {
		t.Fatal("out-of-range answer should be dropped")
	}
}

func TestParseAnswersMalformed(t *testing.T) {
	t.Parallel()

	if _, ok := parseAnswers("I cannot help with that.", 2); ok {
		t.Fatal("expected parse failure for prose-only response")
	}
	if _, ok := parseAnswers("", 2); ok {
		t.Fatal("expected parse failure for empty response")
	}
}
