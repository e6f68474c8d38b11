// Package cron provides scheduled background jobs using robfig/cron.
package cron

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Migrator re-applies category rules to stored transactions.
type Migrator interface {
	Migrate(ctx context.Context) (checked, updated int, err error)
}

// Scheduler manages background scheduled jobs using robfig/cron.
type Scheduler struct {
	cron     *cron.Cron
	migrator Migrator
	schedule string
	timeout  time.Duration
	logger   *slog.Logger

	mu      sync.Mutex // one migration at a time
	lastRun RunResult
}

// RunResult describes the most recent migration run.
type RunResult struct {
	StartedAt time.Time
	Checked   int
	Updated   int
	Err       error
}

// NewScheduler creates a new job scheduler running the category migration
// on the given standard 5-field cron schedule.
func NewScheduler(migrator Migrator, schedule string, logger *slog.Logger) *Scheduler {
	c := cron.New(cron.WithLogger(cron.VerbosePrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelDebug))))

	return &Scheduler{
		cron:     c,
		migrator: migrator,
		schedule: schedule,
		timeout:  30 * time.Minute,
		logger:   logger,
	}
}

// Start begins scheduled jobs.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.schedule, func() { s.run(context.Background()) }); err != nil {
		return fmt.Errorf("schedule category migration %q: %w", s.schedule, err)
	}

	s.cron.Start()
	s.logger.Info("cron scheduler started",
		slog.String("schedule", s.schedule),
		slog.Int("jobs", len(s.cron.Entries())),
	)
	return nil
}

// Stop gracefully stops all scheduled jobs. The returned context is done
// once running jobs have finished.
func (s *Scheduler) Stop() context.Context {
	s.logger.Info("cron scheduler stopping")
	return s.cron.Stop()
}

// RunNow triggers the category migration synchronously.
func (s *Scheduler) RunNow(ctx context.Context) RunResult {
	return s.run(ctx)
}

// LastRun returns the result of the latest finished migration.
func (s *Scheduler) LastRun() RunResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastRun
}

func (s *Scheduler) run(parent context.Context) RunResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, cancel := context.WithTimeout(parent, s.timeout)
	defer cancel()

	start := time.Now()
	s.logger.Info("starting category migration")

	checked, updated, err := s.migrator.Migrate(ctx)
	s.lastRun = RunResult{StartedAt: start, Checked: checked, Updated: updated, Err: err}
	if err != nil {
		s.logger.Error("category migration failed",
			slog.Int("checked", checked),
			slog.Int("updated", updated),
			slog.Any("error", err),
		)
		return s.lastRun
	}

	s.logger.Info("category migration completed",
		slog.Int("checked", checked),
		slog.Int("updated", updated),
		slog.Duration("elapsed", time.Since(start)),
	)
	return s.lastRun
}
