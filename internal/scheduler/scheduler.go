// Package scheduler runs the periodic delinquency sweep.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/mmynk/shopcredit/internal/ledger"
)

// Sweeper evaluates delinquency over all active orders.
type Sweeper interface {
	EvaluateAll(ctx context.Context, asOf time.Time) (ledger.SweepSummary, error)
}

// Scheduler triggers a sweep on a cron schedule. Overlapping ticks are
// skipped while a sweep is still running.
type Scheduler struct {
	cron    *cron.Cron
	sweeper Sweeper
	now     func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
}

// New parses schedule (standard five-field cron or a descriptor such as
// "@daily") and returns a stopped Scheduler.
func New(schedule string, sweeper Sweeper) (*Scheduler, error) {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		cron: cron.New(
			cron.WithLocation(time.UTC),
			cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
		),
		sweeper: sweeper,
		now:     time.Now,
		ctx:     ctx,
		cancel:  cancel,
	}
	if _, err := s.cron.AddFunc(schedule, s.tick); err != nil {
		cancel()
		return nil, fmt.Errorf("invalid delinquency schedule %q: %w", schedule, err)
	}
	return s, nil
}

// Start begins running sweeps in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
	slog.Info("Delinquency scheduler started", "next_run", s.cron.Entries()[0].Next)
}

// Stop prevents further sweeps and waits for a running one to finish.
// If ctx expires first, the running sweep is cancelled.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		s.cancel()
		return nil
	case <-ctx.Done():
		s.cancel()
		return ctx.Err()
	}
}

// RunOnce performs one sweep as of the current day.
func (s *Scheduler) RunOnce(ctx context.Context) (ledger.SweepSummary, error) {
	summary, err := s.sweeper.EvaluateAll(ctx, s.now())
	if err != nil {
		slog.Error("Delinquency sweep finished with errors",
			"as_of", summary.AsOf.Format("2006-01-02"),
			"scanned", summary.Scanned,
			"failed", summary.Failed,
			"error", err,
		)
		return summary, err
	}
	slog.Info("Delinquency sweep finished",
		"as_of", summary.AsOf.Format("2006-01-02"),
		"scanned", summary.Scanned,
		"newly_overdue", summary.NewlyOverdue,
		"defaulted", summary.Defaulted,
	)
	return summary, nil
}

func (s *Scheduler) tick() {
	s.RunOnce(s.ctx)
}
