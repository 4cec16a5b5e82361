package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"NewsAggregator/internal/logging"
	"NewsAggregator/internal/ports"
)

// Options tune the trigger.
type Options struct {
	Location   *time.Location
	RunOnStart bool
	Logger     *slog.Logger
}

// CronScheduler triggers the job on a cron spec ("@every 10m" or a
// five-field expression). A trigger that fires while the previous run is
// still going is skipped.
type CronScheduler struct {
	spec string
	opts Options

	mu   sync.Mutex
	cron *cron.Cron
}

var _ ports.Scheduler = (*CronScheduler)(nil)

// NewCronScheduler builds a scheduler configured via cron expression string.
func NewCronScheduler(spec string, opts Options) *CronScheduler {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	return &CronScheduler{spec: spec, opts: opts}
}

// Start registers the job and begins ticking; with RunOnStart the job also
// runs immediately. Cancelling ctx stops the scheduler.
func (c *CronScheduler) Start(ctx context.Context, job func(time.Time)) error {
	if job == nil {
		return errors.New("scheduler: nil job")
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cron != nil {
		return nil
	}

	logger := logging.CronLogger(c.opts.Logger)
	loc := c.opts.Location

	// one wrapped instance so the startup run and ticks share the skip guard
	wrapped := cron.NewChain(
		cron.Recover(logger),
		cron.SkipIfStillRunning(logger),
	).Then(cron.FuncJob(func() {
		job(time.Now().In(loc))
	}))

	cr := cron.New(cron.WithLocation(loc), cron.WithLogger(logger))
	if _, err := cr.AddJob(c.spec, wrapped); err != nil {
		return fmt.Errorf("parse schedule %q: %w", c.spec, err)
	}

	c.cron = cr
	cr.Start()
	c.opts.Logger.Info("scheduler started", "spec", c.spec, "timezone", loc.String(), "run_on_start", c.opts.RunOnStart)

	if c.opts.RunOnStart {
		go wrapped.Run()
	}

	go func() {
		<-ctx.Done()
		_ = c.Stop(context.Background())
	}()

	return nil
}

// Stop halts the scheduler and waits for a running job until ctx expires.
func (c *CronScheduler) Stop(ctx context.Context) error {
	c.mu.Lock()
	cr := c.cron
	c.cron = nil
	c.mu.Unlock()

	if cr == nil {
		return nil
	}

	select {
	case <-cr.Stop().Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
