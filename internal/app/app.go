package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"golang.org/x/sync/errgroup"

	"NewsAggregator/internal/classifier"
	"NewsAggregator/internal/config"
	"NewsAggregator/internal/infrastructure/api"
	"NewsAggregator/internal/infrastructure/parser"
	"NewsAggregator/internal/infrastructure/scheduler"
	"NewsAggregator/internal/infrastructure/storage"
	"NewsAggregator/internal/infrastructure/telegram"
	"NewsAggregator/internal/logging"
	"NewsAggregator/internal/normalizer"
	"NewsAggregator/internal/ports"
	"NewsAggregator/internal/scanner"
	"NewsAggregator/internal/usecase"
)

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg       config.Config
	logger    *slog.Logger
	store     *storage.SQLStore
	pipeline  *usecase.Pipeline
	scheduler *usecase.Scheduler
	server    *api.Server
}

// New opens the store and builds every component. Call Close when done.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	loc := cfg.Scheduler.Location()

	store, err := storage.Open(ctx, cfg.Database.Driver, cfg.Database.DSN, loc)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	dates := normalizer.New(loc, nil)
	registry := NewRegistry(nil, dates)

	source := parser.NewStrategySource(registry, cfg.Sources, parser.SourceOptions{
		Workers: cfg.Pipeline.Workers,
		Timeout: cfg.Pipeline.SourceTimeout,
	}, baseLogger.With("component", "source"))

	persister := usecase.NewPersister(
		store,
		classifier.New(cfg.Classifier.Keywords),
		cfg.Pipeline.Policy(),
		cfg.Pipeline.ClassifyInline(),
	)

	var notifier ports.Notifier
	if tg := cfg.Notifications.Telegram; tg.Enabled() {
		notifier = telegram.NewNotifier(tg.BotToken, tg.ChatID)
	}

	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		Source:    source,
		Persister: persister,
		Notifier:  notifier,
		Logger:    baseLogger.With("component", "pipeline"),
	})

	driver := scheduler.NewCronScheduler(cfg.Scheduler.Spec(), scheduler.Options{
		Location:   loc,
		RunOnStart: cfg.Scheduler.ShouldRunOnStart(),
		Logger:     baseLogger.With("component", "scheduler"),
	})

	return &Application{
		cfg:       cfg,
		logger:    baseLogger,
		store:     store,
		pipeline:  pipeline,
		scheduler: usecase.NewScheduler(driver, pipeline, baseLogger.With("component", "scheduler")),
		server:    api.NewServer(store, pipeline, baseLogger.With("component", "api")),
	}, nil
}

// NewRegistry registers every built-in scanner variant.
func NewRegistry(client *http.Client, dates *normalizer.Normalizer) *scanner.Registry {
	return scanner.NewRegistry(
		parser.NewChasa24Scanner(client, dates),
		parser.NewDnevnikScanner(client, dates),
		parser.NewFaktiScanner(client, dates),
		parser.NewRSSScanner(client, dates),
	)
}

// Run starts the scheduler and the HTTP API and blocks until ctx is done
// or either of them fails.
func (a *Application) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := a.scheduler.Start(ctx); err != nil {
			return fmt.Errorf("start scheduler: %w", err)
		}
		<-ctx.Done()
		return a.scheduler.Stop(context.Background())
	})

	g.Go(func() error {
		return a.server.Run(ctx, a.cfg.HTTP.Addr)
	})

	a.logger.Info("news aggregator running",
		"sources", len(a.cfg.Sources),
		"policy", a.cfg.Pipeline.Policy(),
		"schedule", a.cfg.Scheduler.Spec(),
		"addr", a.cfg.HTTP.Addr)

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// RunOnce performs a single ingestion cycle.
func (a *Application) RunOnce(ctx context.Context) error {
	_, err := a.pipeline.RunCycle(ctx)
	return err
}

// Close releases the store.
func (a *Application) Close() error {
	return a.store.Close()
}
