package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"NewsAggregator/internal/domain"
	"NewsAggregator/internal/ports"
)

var (
	// ErrCycleInProgress is returned when a trigger arrives while a cycle runs.
	ErrCycleInProgress = errors.New("ingestion cycle already in progress")
	// ErrPersistence wraps every store failure that aborted a cycle.
	ErrPersistence = errors.New("persistence failed")
)

// PipelineDeps wires all driven adapters into the orchestration pipeline.
type PipelineDeps struct {
	Source    ports.ArticleSource
	Persister *Persister
	Notifier  ports.Notifier
	Logger    *slog.Logger
	Now       func() time.Time
}

// Pipeline implements the fetch -> persist -> classify cycle. At most one
// cycle runs at a time.
type Pipeline struct {
	source    ports.ArticleSource
	persister *Persister
	notifier  ports.Notifier
	logger    *slog.Logger
	now       func() time.Time

	running sync.Mutex

	mu    sync.RWMutex
	state domain.CycleState
	last  *domain.CycleReport
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &Pipeline{
		source:    deps.Source,
		persister: deps.Persister,
		notifier:  deps.Notifier,
		logger:    logger,
		now:       now,
		state:     domain.StateIdle,
	}
}

// RunCycle performs one full refresh. Source failures are recorded in the
// report and never abort the cycle; a store failure does, wrapped in
// ErrPersistence, after rolling back. A concurrent call gets ErrCycleInProgress.
func (p *Pipeline) RunCycle(ctx context.Context) (domain.CycleReport, error) {
	if !p.running.TryLock() {
		return domain.CycleReport{}, ErrCycleInProgress
	}
	defer p.running.Unlock()
	defer p.setState(domain.StateIdle)

	report := domain.CycleReport{
		Policy:        p.persister.Policy(),
		FailedSources: []domain.SourceFailure{},
		StartedAt:     p.now(),
	}

	err := p.run(ctx, &report)
	report.Duration = p.now().Sub(report.StartedAt)
	if err != nil {
		report.Error = err.Error()
		p.logger.Error("cycle failed",
			"error", err,
			"fetched", report.Fetched,
			"failed_sources", len(report.FailedSources))
	} else {
		p.logger.Info("cycle finished",
			"policy", report.Policy,
			"fetched", report.Fetched,
			"persisted", report.Persisted,
			"classified", report.Classified,
			"failed_sources", len(report.FailedSources),
			"duration", report.Duration)
	}

	p.mu.Lock()
	p.last = &report
	p.mu.Unlock()

	p.notify(ctx, report)
	return report, err
}

func (p *Pipeline) run(ctx context.Context, report *domain.CycleReport) error {
	p.setState(domain.StateFetching)
	fetched, err := p.source.FetchAll(ctx)
	report.Fetched = len(fetched.Articles)
	report.FailedSources = append(report.FailedSources, fetched.Failures...)
	if err != nil {
		return fmt.Errorf("fetch: %w", err)
	}

	p.setState(domain.StatePersisting)
	res, err := p.persister.Persist(ctx, fetched.Articles, p.setState)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	report.Persisted = res.Inserted
	report.Classified = res.Classified

	return nil
}

// Status reports the current state and the most recent cycle.
func (p *Pipeline) Status() domain.PipelineStatus {
	p.mu.RLock()
	defer p.mu.RUnlock()

	status := domain.PipelineStatus{State: p.state}
	if p.last != nil {
		last := *p.last
		status.LastCycle = &last
	}
	return status
}

func (p *Pipeline) setState(state domain.CycleState) {
	p.mu.Lock()
	p.state = state
	p.mu.Unlock()
	p.logger.Debug("cycle state", "state", state)
}

func (p *Pipeline) notify(ctx context.Context, report domain.CycleReport) {
	if p.notifier == nil {
		return
	}
	if !report.Failed() && len(report.FailedSources) == 0 {
		return
	}
	if err := p.notifier.PublishReport(context.WithoutCancel(ctx), report); err != nil {
		p.logger.Warn("notify cycle report", "error", err)
	}
}
