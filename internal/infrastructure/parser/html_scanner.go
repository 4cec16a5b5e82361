package parser

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"NewsAggregator/internal/domain"
	"NewsAggregator/internal/normalizer"
	"NewsAggregator/internal/scanner"
)

// Layout describes where a site keeps its headlines.
type Layout struct {
	// Containers are searched in order, first match each; empty means the whole page.
	Containers []string
	Item       string
	Title      string
	// Link selects the anchor; empty means the first anchor in the item.
	Link     string
	Time     string
	TimeAttr string
	Rules    []normalizer.Rule
}

// Chasa24Layout matches the 24chasa.bg front page: a top-stories section
// followed by the main grid, clock or day-month timestamps.
var Chasa24Layout = Layout{
	Containers: []string{"section.important-news-container", "div.main-grid"},
	Item:       "article",
	Title:      "h3.title a",
	Link:       "h3.title a",
	Time:       "time.time",
	Rules:      []normalizer.Rule{normalizer.RuleDayMonthClock, normalizer.RuleClock},
}

// DnevnikLayout matches dnevnik.bg, which publishes ISO instants in <time datetime>.
var DnevnikLayout = Layout{
	Item:     "article",
	Title:    "h3",
	Time:     "time",
	TimeAttr: "datetime",
	Rules:    []normalizer.Rule{normalizer.RuleISO},
}

// FaktiLayout matches fakti.bg, which writes "днес в 14:30 ч." style stamps.
var FaktiLayout = Layout{
	Item:  "article.panel.selected-ln",
	Title: "span.article-title",
	Time:  "div.ndt",
	Rules: []normalizer.Rule{normalizer.RuleRelativeDay},
}

// HTMLScanner scrapes one front page according to its layout.
type HTMLScanner struct {
	name   string
	layout Layout
	client *http.Client
	dates  *normalizer.Normalizer
}

var _ scanner.Scanner = (*HTMLScanner)(nil)

// NewHTMLScanner wires an HTTP client; a nil client gets a 20s timeout.
func NewHTMLScanner(name string, layout Layout, client *http.Client, dates *normalizer.Normalizer) *HTMLScanner {
	return &HTMLScanner{
		name:   name,
		layout: layout,
		client: defaultClient(client),
		dates:  dates,
	}
}

// NewChasa24Scanner builds the "24chasa" variant.
func NewChasa24Scanner(client *http.Client, dates *normalizer.Normalizer) *HTMLScanner {
	return NewHTMLScanner("24chasa", Chasa24Layout, client, dates)
}

// NewDnevnikScanner builds the "dnevnik" variant.
func NewDnevnikScanner(client *http.Client, dates *normalizer.Normalizer) *HTMLScanner {
	return NewHTMLScanner("dnevnik", DnevnikLayout, client, dates)
}

// NewFaktiScanner builds the "fakti" variant.
func NewFaktiScanner(client *http.Client, dates *normalizer.Normalizer) *HTMLScanner {
	return NewHTMLScanner("fakti", FaktiLayout, client, dates)
}

// Name identifies the strategy inside the registry.
func (h *HTMLScanner) Name() string {
	return h.name
}

// Scan downloads the page at req.BaseURL (or options["url"]) and extracts up to req.Limit articles.
func (h *HTMLScanner) Scan(ctx context.Context, req scanner.Request) ([]domain.Article, error) {
	col, err := newCollector(req)
	if err != nil {
		return nil, err
	}

	pageURL := req.BaseURL
	if v := req.Options["url"]; v != "" {
		pageURL = v
	}

	doc, err := fetchDocument(ctx, h.client, pageURL)
	if err != nil {
		return nil, err
	}

	h.extract(doc, col)
	return col.articles(), nil
}

func (h *HTMLScanner) extract(doc *goquery.Document, col *collector) {
	for _, container := range h.containers(doc) {
		container.Find(h.layout.Item).EachWithBreak(func(_ int, item *goquery.Selection) bool {
			h.extractItem(item, col)
			return !col.full()
		})
		if col.full() {
			return
		}
	}
}

func (h *HTMLScanner) containers(doc *goquery.Document) []*goquery.Selection {
	if len(h.layout.Containers) == 0 {
		return []*goquery.Selection{doc.Selection}
	}

	found := make([]*goquery.Selection, 0, len(h.layout.Containers))
	for _, sel := range h.layout.Containers {
		if s := doc.Find(sel).First(); s.Length() > 0 {
			found = append(found, s)
		}
	}
	return found
}

func (h *HTMLScanner) extractItem(item *goquery.Selection, col *collector) {
	title := item.Find(h.layout.Title).First().Text()

	linkSel := "a"
	if h.layout.Link != "" {
		linkSel = h.layout.Link
	}
	href, _ := item.Find(linkSel).First().Attr("href")

	col.add(title, href, func() time.Time {
		return h.dates.Normalize(h.rawTime(item), h.layout.Rules...)
	})
}

func (h *HTMLScanner) rawTime(item *goquery.Selection) string {
	if h.layout.Time == "" {
		return ""
	}
	el := item.Find(h.layout.Time).First()
	if h.layout.TimeAttr != "" {
		v, _ := el.Attr(h.layout.TimeAttr)
		return strings.TrimSpace(v)
	}
	return strings.TrimSpace(el.Text())
}
