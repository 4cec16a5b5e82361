package parser

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"NewsAggregator/internal/domain"
	"NewsAggregator/internal/scanner"
)

const (
	userAgent    = "NewsAggregator/1.0"
	defaultLimit = 10
)

func defaultClient(client *http.Client) *http.Client {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	return client
}

func fetchDocument(ctx context.Context, client *http.Client, pageURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request document: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s returned %s", pageURL, resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}

	return doc, nil
}

// collector enforces the per-source contract: trimmed non-empty titles,
// absolute links, distinct titles, and the fetch limit.
type collector struct {
	base   *url.URL
	source string
	limit  int
	seen   map[string]struct{}
	items  []domain.Article
}

func newCollector(req scanner.Request) (*collector, error) {
	base, err := url.Parse(req.BaseURL)
	if err != nil || !base.IsAbs() {
		return nil, fmt.Errorf("invalid base url %q for site %s", req.BaseURL, req.SiteName)
	}

	limit := req.Limit
	if limit <= 0 {
		limit = defaultLimit
	}

	return &collector{
		base:   base,
		source: req.SiteName,
		limit:  limit,
		seen:   map[string]struct{}{},
		items:  make([]domain.Article, 0, limit),
	}, nil
}

// add keeps the item when it is complete and new; published is evaluated
// only for kept items.
func (c *collector) add(title, href string, published func() time.Time) bool {
	if c.full() {
		return false
	}

	title = strings.TrimSpace(title)
	href = strings.TrimSpace(href)
	if title == "" || href == "" {
		return false
	}
	if _, ok := c.seen[title]; ok {
		return false
	}

	link, err := resolveLink(c.base, href)
	if err != nil {
		return false
	}

	c.seen[title] = struct{}{}
	c.items = append(c.items, domain.Article{
		Title:     title,
		Link:      link,
		Published: published(),
		Source:    c.source,
	})
	return true
}

func (c *collector) full() bool {
	return len(c.items) >= c.limit
}

func (c *collector) articles() []domain.Article {
	return c.items
}

func resolveLink(base *url.URL, href string) (string, error) {
	ref, err := url.Parse(href)
	if err != nil {
		return "", fmt.Errorf("parse link %q: %w", href, err)
	}
	if ref.IsAbs() {
		return ref.String(), nil
	}
	return base.ResolveReference(ref).String(), nil
}
