package source

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/nori266/hn-filtered/internal/config"
	"github.com/nori266/hn-filtered/internal/domain"
	"github.com/nori266/hn-filtered/internal/ports"
)

// RSSSource fetches items from a single RSS/Atom feed.
type RSSSource struct {
	feedURL string
	parser  *gofeed.Parser
}

var _ ports.ItemSource = (*RSSSource)(nil)

// NewRSSSource builds a source for the configured feed URL.
func NewRSSSource(cfg config.RSSConfig) *RSSSource {
	return &RSSSource{feedURL: cfg.FeedURL, parser: gofeed.NewParser()}
}

// Fetch parses the feed and returns up to limit entries in feed order.
func (s *RSSSource) Fetch(ctx context.Context, limit int) ([]domain.Item, error) {
	feed, err := s.parser.ParseURLWithContext(s.feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: parse feed %s: %v", domain.ErrFetchFailed, s.feedURL, err)
	}

	host := s.feedURL
	if parsed, err := url.Parse(s.feedURL); err == nil && parsed.Host != "" {
		host = parsed.Host
	}

	items := make([]domain.Item, 0, limit)
	for _, entry := range feed.Items {
		if entry.Link == "" {
			continue
		}

		id := entry.GUID
		if id == "" {
			id = entry.Link
		}

		publishedAt := time.Time{}
		if entry.PublishedParsed != nil {
			publishedAt = entry.PublishedParsed.UTC()
		}

		items = append(items, domain.Item{
			ID:          id,
			Title:       entry.Title,
			URL:         entry.Link,
			Content:     entry.Description,
			Source:      host,
			PublishedAt: publishedAt,
		})
		if len(items) >= limit {
			break
		}
	}

	return items, nil
}
