package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/nori266/hn-filtered/internal/config"
	"github.com/nori266/hn-filtered/internal/domain"
	"github.com/nori266/hn-filtered/internal/ports"
)

// NewsAPISource fetches articles from a NewsAPI.org source id.
type NewsAPISource struct {
	baseURL string
	source  string
	apiKey  string
	client  *http.Client
}

var _ ports.ItemSource = (*NewsAPISource)(nil)

type newsAPIResponse struct {
	Status   string `json:"status"`
	Articles []struct {
		Title       string `json:"title"`
		URL         string `json:"url"`
		PublishedAt string `json:"publishedAt"`
		Description string `json:"description"`
	} `json:"articles"`
}

// NewNewsAPISource wires an HTTP client; a nil client gets a default.
func NewNewsAPISource(cfg config.NewsAPIConfig, client *http.Client) *NewsAPISource {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	return &NewsAPISource{
		baseURL: cfg.BaseURL,
		source:  cfg.Source,
		apiKey:  cfg.APIKey,
		client:  client,
	}
}

// Fetch requests up to limit articles from the configured source.
func (s *NewsAPISource) Fetch(ctx context.Context, limit int) ([]domain.Item, error) {
	query := url.Values{}
	query.Set("sources", s.source)
	query.Set("apiKey", s.apiKey)
	query.Set("pageSize", strconv.Itoa(limit))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/everything?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", domain.ErrFetchFailed, err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrFetchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: newsapi returned %s", domain.ErrFetchFailed, resp.Status)
	}

	var parsed newsAPIResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", domain.ErrFetchFailed, err)
	}

	items := make([]domain.Item, 0, len(parsed.Articles))
	for _, a := range parsed.Articles {
		if a.URL == "" {
			continue
		}
		publishedAt, _ := time.Parse(time.RFC3339, a.PublishedAt)
		items = append(items, domain.Item{
			ID:          a.URL,
			Title:       a.Title,
			URL:         a.URL,
			Content:     a.Description,
			Source:      s.source,
			PublishedAt: publishedAt,
		})
		if len(items) >= limit {
			break
		}
	}

	return items, nil
}
