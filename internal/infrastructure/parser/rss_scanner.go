package parser

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"

	"NewsAggregator/internal/domain"
	"NewsAggregator/internal/normalizer"
	"NewsAggregator/internal/scanner"
)

// RSSScanner reads RSS/Atom feeds; the feed URL is options["feed"] or the base URL.
type RSSScanner struct {
	client *http.Client
	dates  *normalizer.Normalizer
}

var _ scanner.Scanner = (*RSSScanner)(nil)

// NewRSSScanner wires an HTTP client; a nil client gets a 20s timeout.
func NewRSSScanner(client *http.Client, dates *normalizer.Normalizer) *RSSScanner {
	return &RSSScanner{client: defaultClient(client), dates: dates}
}

// Name identifies the strategy inside the registry.
func (r *RSSScanner) Name() string {
	return "rss"
}

// Scan parses the feed and keeps up to req.Limit items in feed order.
func (r *RSSScanner) Scan(ctx context.Context, req scanner.Request) ([]domain.Article, error) {
	col, err := newCollector(req)
	if err != nil {
		return nil, err
	}

	feedURL := req.BaseURL
	if v := req.Options["feed"]; v != "" {
		feedURL = v
	}

	fp := gofeed.NewParser()
	fp.Client = r.client
	fp.UserAgent = userAgent

	feed, err := fp.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", feedURL, err)
	}

	for _, item := range feed.Items {
		if col.full() {
			break
		}
		if item == nil {
			continue
		}
		col.add(item.Title, item.Link, func() time.Time {
			return r.published(item)
		})
	}

	return col.articles(), nil
}

func (r *RSSScanner) published(item *gofeed.Item) time.Time {
	switch {
	case item.PublishedParsed != nil:
		return item.PublishedParsed.In(r.dates.Location())
	case item.UpdatedParsed != nil:
		return item.UpdatedParsed.In(r.dates.Location())
	}
	return r.dates.Normalize(item.Published, normalizer.RuleISO)
}
