package ports

import (
	"context"
	"time"

	"NewsAggregator/internal/domain"
)

// ArticleSource pulls fresh articles from upstream providers.
type ArticleSource interface {
	FetchAll(ctx context.Context) (domain.FetchResult, error)
}

// ListQuery selects one page of stored articles, newest first.
type ListQuery struct {
	Offset   int
	Limit    int
	Category domain.Category
}

// DayCount is one entry of the busiest-days ranking.
type DayCount struct {
	Day   string `json:"day"`
	Count int    `json:"count"`
}

// Stats aggregates the stored collection.
type Stats struct {
	Total      int                     `json:"total"`
	BySource   map[string]int          `json:"by_source"`
	ByCategory map[domain.Category]int `json:"by_category"`
	ByHour     map[int]int             `json:"by_hour"`
	TopDays    []DayCount              `json:"top_days"`
}

// ArticleStore is the persistent collection of articles.
type ArticleStore interface {
	// InTx runs fn inside one transaction; fn's error rolls everything back.
	InTx(ctx context.Context, fn func(tx ArticleTx) error) error
	List(ctx context.Context, q ListQuery) ([]domain.Article, error)
	Count(ctx context.Context, category domain.Category) (int, error)
	Stats(ctx context.Context, topDays int) (Stats, error)
}

// ArticleTx exposes the writes a refresh performs atomically.
type ArticleTx interface {
	DeleteAll(ctx context.Context) (int64, error)
	ExistsByTitle(ctx context.Context, title string) (bool, error)
	Insert(ctx context.Context, article domain.Article) (int64, error)
	ListUnclassified(ctx context.Context) ([]domain.Article, error)
	UpdateCategory(ctx context.Context, id int64, category domain.Category) error
}

// Classifier assigns categories to titles.
type Classifier interface {
	ClassifyTitle(title string) domain.Category
}

// Notifier streams cycle reports to Telegram or other channels.
type Notifier interface {
	PublishReport(ctx context.Context, report domain.CycleReport) error
}

// Scheduler controls when pipelines execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
