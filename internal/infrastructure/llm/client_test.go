package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nori266/hn-filtered/internal/config"
	"github.com/nori266/hn-filtered/internal/domain"
	"github.com/nori266/hn-filtered/internal/ports"
)

func chatResponse(t *testing.T, w http.ResponseWriter, content string) {
	t.Helper()
	_ = json.NewEncoder(w).Encode(map[string]any{
		"choices": []map[string]any{
			{"message": map[string]string{"content": content}},
		},
	})
}

func promptFrom(t *testing.T, r *http.Request) string {
	t.Helper()
	var payload struct {
		Messages []struct {
			Content string `json:"content"`
		} `json:"messages"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		t.Errorf("decode request: %v", err)
		return ""
	}
	if len(payload.Messages) == 0 {
		return ""
	}
	return payload.Messages[0].Content
}

func newClient(t *testing.T, endpoint string, concurrency int) *Client {
	t.Helper()
	client, err := New(config.LLMConfig{
		Provider:    "groq",
		Endpoint:    endpoint,
		Model:       "test-model",
		APIKey:      "gk-test",
		MaxAttempts: 3,
	}, false, concurrency, nil)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	return client
}

func entry(id, title string, topics ...string) ports.BatchEntry {
	scores := make([]domain.TopicScore, len(topics))
	for i, topic := range topics {
		scores[i] = domain.TopicScore{Topic: domain.NewTopic(topic), Score: 0.8}
	}
	return ports.BatchEntry{
		Item:      domain.Item{ID: id, Title: title},
		Candidate: domain.SimilarityCandidate{ItemID: id, Scores: scores},
	}
}

func TestVerifyBatch(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		prompt := promptFrom(t, r)
		switch {
		case strings.Contains(prompt, "Rust runtime"):
			chatResponse(t, w, "1. yes\n2. no")
		default:
			chatResponse(t, w, "1. no\n2. no")
		}
	}))
	defer server.Close()

	client := newClient(t, server.URL, 2)

	entries := []ports.BatchEntry{
		entry("1", "Rust runtime", "rust programming", "distributed databases"),
		entry("2", "Pizza recipes", "rust programming", "distributed databases"),
	}

	results, err := client.VerifyBatch(context.Background(), entries)
	if err != nil {
		t.Fatalf("VerifyBatch error: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}

	first := results[0]
	if first.ItemID != "1" || !first.Verified || !first.IsRelevant {
		t.Fatalf("unexpected first result: %+v", first)
	}
	if len(first.Matches) != 2 || !first.Matches[0].Relevant || first.Matches[1].Relevant {
		t.Fatalf("unexpected first matches: %+v", first.Matches)
	}

	second := results[1]
	if second.ItemID != "2" || !second.Verified || second.IsRelevant {
		t.Fatalf("unexpected second result: %+v", second)
	}
}

func TestVerifyBatchPartialFailureIsolation(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		prompt := promptFrom(t, r)
		if strings.Contains(prompt, "Broken item") {
			chatResponse(t, w, "I'm sorry, I can't answer that.")
			return
		}
		chatResponse(t, w, "1. yes")
	}))
	defer server.Close()

	client := newClient(t, server.URL, 1)

	entries := []ports.BatchEntry{
		entry("ok-1", "Fine item", "topic"),
		entry("bad", "Broken item", "topic"),
		entry("ok-2", "Another fine item", "topic"),
	}

	results, err := client.VerifyBatch(context.Background(), entries)
	if err != nil {
		t.Fatalf("VerifyBatch error: %v", err)
	}

	if !results[0].Verified || !results[0].IsRelevant {
		t.Fatalf("first item should verify: %+v", results[0])
	}
	if results[1].Verified || results[1].IsRelevant {
		t.Fatalf("malformed item should degrade to unverifiable: %+v", results[1])
	}
	if results[1].Rationale == "" {
		t.Fatal("unverifiable item should carry a rationale")
	}
	if !results[2].Verified || !results[2].IsRelevant {
		t.Fatalf("third item should verify despite the broken one: %+v", results[2])
	}
}

func TestVerifyBatchRetriesRateLimit(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, "rate limited", http.StatusTooManyRequests)
			return
		}
		chatResponse(t, w, "1. yes")
	}))
	defer server.Close()

	client := newClient(t, server.URL, 1)

	results, err := client.VerifyBatch(context.Background(), []ports.BatchEntry{entry("1", "Item", "topic")})
	if err != nil {
		t.Fatalf("VerifyBatch error: %v", err)
	}
	if !results[0].Verified || !results[0].IsRelevant {
		t.Fatalf("expected success after retry: %+v", results[0])
	}
	if calls.Load() != 2 {
		t.Fatalf("expected 2 attempts, got %d", calls.Load())
	}
}

func TestVerifyBatchExhaustedRetries(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := newClient(t, server.URL, 1)

	results, err := client.VerifyBatch(context.Background(), []ports.BatchEntry{entry("1", "Item", "topic")})
	if err != nil {
		t.Fatalf("batch must survive a per-item failure: %v", err)
	}
	if results[0].Verified || results[0].IsRelevant {
		t.Fatalf("expected unverifiable result: %+v", results[0])
	}
	if calls.Load() != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls.Load())
	}
}

func TestVerifyBatchPreservesOrderUnderConcurrency(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		prompt := promptFrom(t, r)
		// The first item finishes last.
		if strings.Contains(prompt, "Slow item") {
			time.Sleep(150 * time.Millisecond)
		}
		chatResponse(t, w, "1. yes")
	}))
	defer server.Close()

	client := newClient(t, server.URL, 4)

	entries := []ports.BatchEntry{
		entry("slow", "Slow item", "topic"),
		entry("fast-1", "Fast item one", "topic"),
		entry("fast-2", "Fast item two", "topic"),
	}

	results, err := client.VerifyBatch(context.Background(), entries)
	if err != nil {
		t.Fatalf("VerifyBatch error: %v", err)
	}

	for i, want := range []string{"slow", "fast-1", "fast-2"} {
		if results[i].ItemID != want {
			t.Fatalf("result %d out of order: expected %s, got %s", i, want, results[i].ItemID)
		}
	}
}

func TestNewRequiresCredentials(t *testing.T) {
	t.Parallel()

	_, err := New(config.LLMConfig{Provider: "groq"}, false, 1, nil)
	if !errors.Is(err, domain.ErrConfigInvalid) {
		t.Fatalf("expected ErrConfigInvalid, got %v", err)
	}
}

func TestVerifyBatchCancelled(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		chatResponse(t, w, "1. yes")
	}))
	defer server.Close()

	client := newClient(t, server.URL, 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := client.VerifyBatch(ctx, []ports.BatchEntry{entry("1", "Item", "topic")}); err == nil {
		t.Fatal("expected error for cancelled context")
	}
}
