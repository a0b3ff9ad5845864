package source

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/nori266/hn-filtered/internal/config"
	"github.com/nori266/hn-filtered/internal/domain"
	"github.com/nori266/hn-filtered/internal/ports"
)

// HackerNewsSource fetches new stories from the HN Firebase API. Stories are
// walked newest-first and the walk stops at the configured time window, so
// the result is chronological and bounded.
type HackerNewsSource struct {
	baseURL     string
	minComments int
	window      time.Duration
	client      *http.Client
	logger      *slog.Logger
}

var _ ports.ItemSource = (*HackerNewsSource)(nil)

type hnStory struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	URL         string `json:"url"`
	Time        int64  `json:"time"`
	Descendants int    `json:"descendants"`
	Type        string `json:"type"`
}

// NewHackerNewsSource wires an HTTP client; a nil client gets a default with
// a request timeout.
func NewHackerNewsSource(cfg config.HackerNewsConfig, client *http.Client, logger *slog.Logger) *HackerNewsSource {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	if logger == nil {
		logger = slog.Default()
	}
	window := cfg.Window
	if window <= 0 {
		window = 24 * time.Hour
	}
	return &HackerNewsSource{
		baseURL:     cfg.BaseURL,
		minComments: cfg.MinComments,
		window:      window,
		client:      client,
		logger:      logger,
	}
}

// Fetch returns recent stories with enough discussion, newest first, up to
// the limit. Failures wrap domain.ErrFetchFailed.
func (s *HackerNewsSource) Fetch(ctx context.Context, limit int) ([]domain.Item, error) {
	var storyIDs []int64
	if err := s.getJSON(ctx, s.baseURL+"/newstories.json", &storyIDs); err != nil {
		return nil, fmt.Errorf("%w: list new stories: %v", domain.ErrFetchFailed, err)
	}

	cutoff := time.Now().Add(-s.window).Unix()
	items := make([]domain.Item, 0, limit)
	inWindow := 0

	for _, id := range storyIDs {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrFetchFailed, err)
		}

		var story hnStory
		if err := s.getJSON(ctx, fmt.Sprintf("%s/item/%d.json", s.baseURL, id), &story); err != nil {
			return nil, fmt.Errorf("%w: story %d: %v", domain.ErrFetchFailed, id, err)
		}
		if story.ID == 0 {
			continue
		}

		// newstories is ordered newest-first, so the first story past
		// the window ends the walk.
		if story.Time < cutoff {
			break
		}
		inWindow++

		if story.Descendants < s.minComments || story.URL == "" {
			continue
		}

		items = append(items, domain.Item{
			ID:            fmt.Sprintf("hn-%d", story.ID),
			Title:         story.Title,
			URL:           story.URL,
			Source:        "hacker-news",
			PublishedAt:   time.Unix(story.Time, 0).UTC(),
			CommentCount:  story.Descendants,
			DiscussionURL: fmt.Sprintf("https://news.ycombinator.com/item?id=%d", story.ID),
		})
		if len(items) >= limit {
			break
		}
	}

	s.logger.Info("fetched hacker news stories",
		"in_window", inWindow,
		"min_comments", s.minComments,
		"fetched", len(items))

	return items, nil
}

func (s *HackerNewsSource) getJSON(ctx context.Context, url string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("hacker news returned %s", resp.Status)
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
