package sweep

import (
	"context"
	"log/slog"
	"time"

	"github.com/shiftascent/shiftascent/internal/model"
	"github.com/shiftascent/shiftascent/internal/repository"
)

// Expirer resolves a single overdue promise. Implemented by the milestone
// service.
type Expirer interface {
	ExpireLocked(m model.Milestone, now time.Time) error
}

// Sweeper periodically breaks locked milestones whose deadline has passed.
// A deadline is a promise to the clock; the sweep is what makes it binding
// even when the user never comes back.
type Sweeper struct {
	repo     repository.MilestoneRepository
	expirer  Expirer
	interval time.Duration
}

func New(repo repository.MilestoneRepository, expirer Expirer, interval time.Duration) *Sweeper {
	return &Sweeper{
		repo:     repo,
		expirer:  expirer,
		interval: interval,
	}
}

// Run sweeps on a ticker until the context is cancelled. Safe to run on
// multiple instances: expiry goes through a compare-and-set, so redundant
// sweeps see zero rows and move on.
func (s *Sweeper) Run(ctx context.Context) {
	slog.Info("expiry sweep started", "interval", s.interval)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("expiry sweep stopped")
			return
		case now := <-ticker.C:
			s.Sweep(now)
		}
	}
}

// Sweep runs a single pass. Failures on one milestone do not stop the rest;
// anything missed is picked up next tick.
func (s *Sweeper) Sweep(now time.Time) {
	overdue, err := s.repo.LockedPastDeadline(now)
	if err != nil {
		slog.Error("expiry sweep query failed", "error", err)
		return
	}

	for _, m := range overdue {
		err = s.expirer.ExpireLocked(m, now)
		if err != nil {
			slog.Error("failed to expire promise", "error", err, "milestone_id", m.ID)
		}
	}

	if len(overdue) > 0 {
		slog.Info("expiry sweep pass complete", "expired", len(overdue))
	}
}
