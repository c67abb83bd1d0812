// Package scheduler advances the payout cycles of running groups on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"

	"github.com/AbdoViper23/halaqa-Save/internal/metrics"
	"github.com/AbdoViper23/halaqa-Save/internal/models"
)

// DefaultSpec runs the cycle job at midnight on the first day of each month.
const DefaultSpec = "0 0 1 * *"

// CycleStore is the subset of storage the scheduler needs.
type CycleStore interface {
	ListGroupsByStatus(ctx context.Context, status models.GroupStatus) ([]*models.RemoteGroup, error)
	AdvanceCycle(ctx context.Context, groupID string) (*models.RemoteGroup, error)
}

// Result counts what one run changed.
type Result struct {
	Started   int
	Advanced  int
	Completed int
	Failed    int
}

// Scheduler wraps a cron runner around the cycle job.
type Scheduler struct {
	cron   *cron.Cron
	store  CycleStore
	logger *slog.Logger
}

// New registers the cycle job under spec, a standard five-field cron expression.
func New(store CycleStore, spec string, logger *slog.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if spec == "" {
		spec = DefaultSpec
	}

	s := &Scheduler{
		cron:   cron.New(),
		store:  store,
		logger: logger,
	}
	if _, err := s.cron.AddFunc(spec, func() { s.RunOnce(context.Background()) }); err != nil {
		return nil, fmt.Errorf("register cycle job %q: %w", spec, err)
	}
	return s, nil
}

// Start runs the cron loop in its own goroutine.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("Cycle scheduler started")
}

// Stop halts the cron loop and waits for a running job to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("Cycle scheduler stopped")
}

// RunOnce starts every Full group and advances every Active one.
// A failure on one group is logged and does not stop the others.
func (s *Scheduler) RunOnce(ctx context.Context) Result {
	var res Result

	full, err := s.store.ListGroupsByStatus(ctx, models.GroupFull)
	if err != nil {
		s.logger.Error("Failed to list full groups", "error", err)
	}
	active, err := s.store.ListGroupsByStatus(ctx, models.GroupActive)
	if err != nil {
		s.logger.Error("Failed to list active groups", "error", err)
	}

	for _, g := range append(full, active...) {
		updated, err := s.store.AdvanceCycle(ctx, g.ID)
		if err != nil {
			res.Failed++
			metrics.RecordCycleAdvance("error")
			s.logger.Error("Failed to advance cycle", "group_id", g.ID, "error", err)
			continue
		}

		var result string
		switch {
		case models.GroupStatus(g.Status) == models.GroupFull:
			res.Started++
			result = "started"
		case models.GroupStatus(updated.Status) == models.GroupCompleted:
			res.Completed++
			result = "completed"
		default:
			res.Advanced++
			result = "advanced"
		}
		metrics.RecordCycleAdvance(result)
		s.logger.Info("Cycle advanced",
			"group_id", g.ID,
			"result", result,
			"cycle", updated.CurrentCycle,
		)
	}

	s.logger.Info("Cycle run finished",
		"started", res.Started,
		"advanced", res.Advanced,
		"completed", res.Completed,
		"failed", res.Failed,
	)
	return res
}
