package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Faheem12005/pathable-backend/internal/models"
)

// NightlyReport summarises one nightly pass.
type NightlyReport struct {
	LockedDate    string   `json:"locked_date"`
	Allocation    RunStats `json:"allocation"`
	PreparedDate  string   `json:"prepared_date"`
	PreparedCount int      `json:"prepared_count"`
}

// Scheduler drives the nightly cycle: freeze tomorrow, allocate it, then
// materialize the day after so riders can see and edit those requests.
type Scheduler struct {
	gate         LockGate
	engine       AllocationEngine
	materializer Materializer
	logger       *slog.Logger
	now          func() time.Time
}

func NewScheduler(gate LockGate, engine AllocationEngine, materializer Materializer, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		gate:         gate,
		engine:       engine,
		materializer: materializer,
		logger:       logger.With("component", "scheduler"),
		now:          time.Now,
	}
}

func (s *Scheduler) RunNightly(ctx context.Context, today time.Time) (*NightlyReport, error) {
	today = models.ServiceDate(today)
	tomorrow := today.AddDate(0, 0, 1)
	dayAfter := today.AddDate(0, 0, 2)
	report := &NightlyReport{
		LockedDate:   models.FormatDate(tomorrow),
		PreparedDate: models.FormatDate(dayAfter),
	}

	if err := s.gate.LockDate(ctx, tomorrow); err != nil {
		return report, err
	}
	stats, err := s.engine.RunAllocation(ctx, tomorrow)
	report.Allocation = stats
	if err != nil {
		return report, fmt.Errorf("allocate %s: %w", report.LockedDate, err)
	}
	created, err := s.materializer.MaterializeDefaults(ctx, dayAfter)
	if err != nil {
		return report, fmt.Errorf("prepare %s: %w", report.PreparedDate, err)
	}
	report.PreparedCount = created

	s.logger.Info("nightly cycle finished",
		"locked_date", report.LockedDate,
		"prepared_date", report.PreparedDate,
		"prepared", created)
	return report, nil
}

// Start runs RunNightly every day at hour:minute in loc until ctx is done.
func (s *Scheduler) Start(ctx context.Context, hour, minute int, loc *time.Location) {
	for {
		next := nextRunAt(s.now().In(loc), hour, minute)
		s.logger.Info("next nightly cycle scheduled", "at", next.Format(time.RFC3339))

		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}

		if _, err := s.RunNightly(ctx, s.now().In(loc)); err != nil {
			s.logger.Error("nightly cycle failed", "error", err)
		}
	}
}

// nextRunAt returns the first hour:minute strictly after now, in now's zone.
func nextRunAt(now time.Time, hour, minute int) time.Time {
	y, m, d := now.Date()
	next := time.Date(y, m, d, hour, minute, 0, 0, now.Location())
	if !next.After(now) {
		next = time.Date(y, m, d+1, hour, minute, 0, 0, now.Location())
	}
	return next
}
