package extract

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	neturl "net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"

	"github.com/nori266/hn-filtered/internal/ports"
)

// ReadabilityExtractor pulls the readable body text of an article page.
// Readability output is preferred; pages it cannot make sense of fall back
// to plain paragraph text.
type ReadabilityExtractor struct {
	client  *http.Client
	timeout time.Duration
	logger  *slog.Logger
}

var _ ports.Extractor = (*ReadabilityExtractor)(nil)

// NewReadabilityExtractor wires an HTTP client; a nil client gets a default.
func NewReadabilityExtractor(client *http.Client, timeout time.Duration, logger *slog.Logger) *ReadabilityExtractor {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ReadabilityExtractor{client: client, timeout: timeout, logger: logger}
}

// Extract downloads the page and returns its readable text. An empty string
// with a nil error means the page yielded no usable body; transport failures
// are returned as errors so the caller can decide to degrade.
func (e *ReadabilityExtractor) Extract(ctx context.Context, url string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "hn-filtered/1.0")

	resp, err := e.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("page returned %s", resp.Status)
	}

	pageURL, err := neturl.Parse(url)
	if err != nil {
		return "", fmt.Errorf("parse url: %w", err)
	}

	article, err := readability.FromReader(resp.Body, pageURL)
	if err != nil || strings.TrimSpace(article.TextContent) == "" {
		e.logger.Debug("readability yielded nothing, using paragraph fallback", "url", url)
		return e.fallback(ctx, url)
	}

	return strings.TrimSpace(article.TextContent), nil
}

// fallback re-fetches the page and concatenates its paragraph text.
func (e *ReadabilityExtractor) fallback(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "hn-filtered/1.0")

	resp, err := e.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("page returned %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", fmt.Errorf("parse page: %w", err)
	}

	return paragraphText(doc), nil
}

func paragraphText(doc *goquery.Document) string {
	var parts []string
	doc.Find("p").Each(func(_ int, sel *goquery.Selection) {
		if text := strings.TrimSpace(sel.Text()); text != "" {
			parts = append(parts, text)
		}
	})
	return strings.Join(parts, "\n\n")
}
