package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/Faheem12005/pathable-backend/internal/models"
	"github.com/Faheem12005/pathable-backend/internal/repository"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

// RunStats is the summary of an allocation run. Repeated runs for the same
// date return the stats recorded by the first one.
type RunStats struct {
	Date                    string `json:"date"`
	TotalRequests           int    `json:"total_requests"`
	GroupsAllocated         int    `json:"groups_allocated"`
	HighPriorityAllocated   int    `json:"high_priority_allocated"`
	MediumPriorityAllocated int    `json:"medium_priority_allocated"`
	LowPriorityAllocated    int    `json:"low_priority_allocated"`
	Failed                  int    `json:"failed"`
}

func StatsFromRun(run *models.AllocationRun) RunStats {
	return RunStats{
		Date:                    models.FormatDate(run.RunDate),
		TotalRequests:           run.TotalRequests,
		GroupsAllocated:         run.GroupsAllocated,
		HighPriorityAllocated:   run.HighPriorityAllocated,
		MediumPriorityAllocated: run.MediumPriorityAllocated,
		LowPriorityAllocated:    run.LowPriorityAllocated,
		Failed:                  run.FailedAllocations,
	}
}

type AllocationEngine interface {
	RunAllocation(ctx context.Context, date time.Time) (RunStats, error)
	GetRun(ctx context.Context, date time.Time) (*models.AllocationRun, error)
	ListRuns(ctx context.Context, limit int) ([]models.AllocationRun, error)
}

type EngineDeps struct {
	Runs         repository.RunRepository
	Requests     repository.RequestRepository
	Groups       repository.GroupRepository
	Materializer Materializer
	Individual   IndividualBookingService
	Group        GroupBookingService
	Publisher    EventPublisher
	Logger       *slog.Logger
	// Workers bounds concurrent allocations within a phase. Values below 1
	// mean sequential.
	Workers int
}

type allocationEngine struct {
	runs         repository.RunRepository
	requests     repository.RequestRepository
	groups       repository.GroupRepository
	materializer Materializer
	individual   IndividualBookingService
	group        GroupBookingService
	publisher    EventPublisher
	logger       *slog.Logger
	workers      int
	now          func() time.Time
}

func NewAllocationEngine(d EngineDeps) AllocationEngine {
	return &allocationEngine{
		runs:         d.Runs,
		requests:     d.Requests,
		groups:       d.Groups,
		materializer: d.Materializer,
		individual:   d.Individual,
		group:        d.Group,
		publisher:    d.Publisher,
		logger:       d.Logger.With("component", "allocation_engine"),
		workers:      max(d.Workers, 1),
		now:          time.Now,
	}
}

type runTally struct {
	total  int
	groups atomic.Int64
	tiers  [3]atomic.Int64
	failed atomic.Int64
}

func (t *runTally) applyTo(run *models.AllocationRun) {
	run.TotalRequests = t.total
	run.GroupsAllocated = int(t.groups.Load())
	run.HighPriorityAllocated = int(t.tiers[models.TierHigh].Load())
	run.MediumPriorityAllocated = int(t.tiers[models.TierMedium].Load())
	run.LowPriorityAllocated = int(t.tiers[models.TierLow].Load())
	run.FailedAllocations = int(t.failed.Load())
}

func (e *allocationEngine) RunAllocation(ctx context.Context, date time.Time) (RunStats, error) {
	date = models.ServiceDate(date)
	log := e.logger.With("date", models.FormatDate(date))

	if existing, err := e.runs.FindByDate(ctx, nil, date); err == nil {
		log.Info("allocation already ran", "run_id", existing.ID, "status", existing.Status)
		return StatsFromRun(existing), nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return RunStats{}, fmt.Errorf("check allocation run: %w", err)
	}

	run := &models.AllocationRun{
		RunDate:    date,
		ExecutedAt: e.now().UTC(),
		Status:     models.RunRunning,
	}
	if err := e.runs.Create(ctx, run); err != nil {
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return RunStats{}, fmt.Errorf("create allocation run: %w", err)
		}
		// Lost the race to a concurrent caller.
		existing, ferr := e.runs.FindByDate(ctx, nil, date)
		if ferr != nil {
			return RunStats{}, fmt.Errorf("load allocation run: %w", ferr)
		}
		return StatsFromRun(existing), nil
	}
	log = log.With("run_id", run.ID)
	log.Info("allocation started")

	// Once the run row exists the pass must reach a terminal state: a
	// FAILED row blocks the date for good.
	runCtx := context.WithoutCancel(ctx)
	tally := &runTally{}
	runErr := e.execute(runCtx, run, tally, log)
	return e.finish(runCtx, run, tally, runErr, log)
}

func (e *allocationEngine) execute(ctx context.Context, run *models.AllocationRun, tally *runTally, log *slog.Logger) error {
	date := run.RunDate

	if _, err := e.materializer.MaterializeDefaults(ctx, date); err != nil {
		return err
	}
	pending, err := e.requests.FindPendingByDate(ctx, date)
	if err != nil {
		return fmt.Errorf("load pending requests: %w", err)
	}
	tally.total = len(pending)
	log.Info("pending requests loaded", "count", len(pending))
	if len(pending) == 0 {
		return nil
	}

	groupIDs, err := e.groups.FindGroupsWithPendingRequests(ctx, date)
	if err != nil {
		return fmt.Errorf("load groups: %w", err)
	}
	fanOut(ctx, e.workers, groupIDs, func(ctx context.Context, groupID string) {
		allocated, err := e.group.AllocateGroup(ctx, run.ID, groupID, date)
		switch {
		case err == nil && len(allocated) > 0:
			tally.groups.Add(1)
		case err == nil:
		case IsAllocationFailure(err):
			// Members stay pending and compete individually.
			log.Warn("group not allocated", "group_id", groupID, "reason", ReasonFor(err))
		default:
			log.Error("group allocation error", "group_id", groupID, "error", err)
		}
	})

	remaining, err := e.requests.FindPendingByDate(ctx, date)
	if err != nil {
		return fmt.Errorf("reload pending requests: %w", err)
	}
	byTier := make(map[models.Tier][]models.DailyRequest, 3)
	for _, r := range remaining {
		byTier[r.Tier()] = append(byTier[r.Tier()], r)
	}

	for _, tier := range []models.Tier{models.TierHigh, models.TierMedium, models.TierLow} {
		reqs := byTier[tier]
		log.Debug("allocating tier", "tier", tier.String(), "count", len(reqs))
		fanOut(ctx, e.workers, reqs, func(ctx context.Context, req models.DailyRequest) {
			out, err := e.individual.AllocateIndividual(ctx, run.ID, req.ID, date)
			switch {
			case err != nil:
				log.Error("request allocation error", "request_id", req.ID, "error", err)
				tally.failed.Add(1)
			case out.Allocated:
				tally.tiers[tier].Add(1)
			case out.Reason != ReasonNotPending:
				log.Warn("request not allocated", "request_id", req.ID, "reason", out.Reason)
				tally.failed.Add(1)
			}
		})
	}
	return nil
}

// finish persists the outcome. A bookkeeping failure after a clean pass still
// marks the run FAILED.
func (e *allocationEngine) finish(ctx context.Context, run *models.AllocationRun, tally *runTally, runErr error, log *slog.Logger) (RunStats, error) {
	tally.applyTo(run)
	finished := e.now().UTC()
	run.FinishedAt = &finished

	if runErr == nil {
		run.Status = models.RunCompleted
		err := e.runs.Save(ctx, run)
		if err == nil {
			stats := StatsFromRun(run)
			log.Info("allocation completed",
				"total", stats.TotalRequests,
				"groups", stats.GroupsAllocated,
				"high", stats.HighPriorityAllocated,
				"medium", stats.MediumPriorityAllocated,
				"low", stats.LowPriorityAllocated,
				"failed", stats.Failed)
			publish(e.publisher, log, EventAllocationCompleted, stats)
			return stats, nil
		}
		runErr = fmt.Errorf("save allocation run: %w", err)
	}

	msg := runErr.Error()
	run.Status = models.RunFailed
	run.ErrorMessage = &msg
	if err := e.runs.Save(ctx, run); err != nil {
		runErr = errors.Join(runErr, fmt.Errorf("mark run failed: %w", err))
	}
	log.Error("allocation failed", "error", runErr)
	publish(e.publisher, log, EventAllocationFailed, map[string]string{
		"date":  models.FormatDate(run.RunDate),
		"error": msg,
	})
	return StatsFromRun(run), runErr
}

func (e *allocationEngine) GetRun(ctx context.Context, date time.Time) (*models.AllocationRun, error) {
	run, err := e.runs.FindByDate(ctx, nil, models.ServiceDate(date))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRunNotFound
		}
		return nil, err
	}
	return run, nil
}

func (e *allocationEngine) ListRuns(ctx context.Context, limit int) ([]models.AllocationRun, error) {
	if limit <= 0 || limit > 100 {
		limit = 30
	}
	return e.runs.List(ctx, limit)
}

// fanOut runs fn over every item with at most workers in flight.
func fanOut[T any](ctx context.Context, workers int, items []T, fn func(context.Context, T)) {
	var g errgroup.Group
	g.SetLimit(max(workers, 1))
	for _, item := range items {
		g.Go(func() error {
			fn(ctx, item)
			return nil
		})
	}
	_ = g.Wait()
}
