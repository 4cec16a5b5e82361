package parser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"NewsAggregator/internal/config"
	"NewsAggregator/internal/domain"
	"NewsAggregator/internal/ports"
	"NewsAggregator/internal/scanner"
)

// StrategySource implements ArticleSource by running every configured site
// through its registered scanner strategy.
type StrategySource struct {
	registry *scanner.Registry
	sites    []config.SourceConfig
	logger   *slog.Logger
	workers  int
	timeout  time.Duration
}

var _ ports.ArticleSource = (*StrategySource)(nil)

// SourceOptions bounds concurrency and the time one site may take.
type SourceOptions struct {
	Workers int
	Timeout time.Duration
}

// NewStrategySource wires scanner registry with config-defined sites.
func NewStrategySource(reg *scanner.Registry, sites []config.SourceConfig, opts SourceOptions, log *slog.Logger) *StrategySource {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &StrategySource{
		registry: reg,
		sites:    sites,
		logger:   log,
		workers:  opts.Workers,
		timeout:  opts.Timeout,
	}
}

// FetchAll queries every site concurrently. A failing site contributes no
// articles and one SourceFailure; the others are unaffected. Articles keep
// site configuration order, then page order within a site.
func (s *StrategySource) FetchAll(ctx context.Context) (domain.FetchResult, error) {
	if s.registry == nil {
		return domain.FetchResult{}, errors.New("scanner registry is not configured")
	}

	s.logger.Debug("fetch all", "sites", len(s.sites), "workers", s.workers)

	perSite := make([][]domain.Article, len(s.sites))
	errs := make([]error, len(s.sites))

	var g errgroup.Group
	g.SetLimit(s.workers)
	for i, site := range s.sites {
		g.Go(func() error {
			perSite[i], errs[i] = s.scanSite(ctx, site)
			return nil
		})
	}
	_ = g.Wait()

	var result domain.FetchResult
	for i, site := range s.sites {
		if errs[i] != nil {
			s.logger.Warn("site failed", "site", site.Name, "scanner", site.Scanner, "error", errs[i])
			result.Failures = append(result.Failures, domain.SourceFailure{
				Source: site.Name,
				Error:  errs[i].Error(),
			})
			continue
		}
		s.logger.Debug("site produced articles", "site", site.Name, "count", len(perSite[i]))
		result.Articles = append(result.Articles, perSite[i]...)
	}

	s.logger.Info("fetch finished", "articles", len(result.Articles), "failed_sites", len(result.Failures))
	return result, ctx.Err()
}

func (s *StrategySource) scanSite(ctx context.Context, site config.SourceConfig) (articles []domain.Article, err error) {
	defer func() {
		if r := recover(); r != nil {
			articles = nil
			err = fmt.Errorf("scanner %s panicked: %v", site.Scanner, r)
		}
	}()

	strategy, err := s.registry.Resolve(site.Scanner)
	if err != nil {
		return nil, err
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	results, err := strategy.Scan(ctx, scanner.Request{
		SiteName: site.Name,
		BaseURL:  site.BaseURL,
		Limit:    site.FetchLimit,
		Options:  site.Options,
	})
	if err != nil {
		return nil, fmt.Errorf("scan site %s: %w", site.Name, err)
	}

	if site.FetchLimit > 0 && len(results) > site.FetchLimit {
		results = results[:site.FetchLimit]
	}
	for i := range results {
		if results[i].Source == "" {
			results[i].Source = site.Name
		}
	}
	return results, nil
}
