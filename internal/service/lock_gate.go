package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Faheem12005/pathable-backend/internal/models"
	"github.com/Faheem12005/pathable-backend/internal/repository"
	"gorm.io/gorm"
)

// LockGate enforces the per-date booking freeze. Every seat or request
// mutation consults it first, inside the transaction doing the mutation.
type LockGate interface {
	IsLocked(ctx context.Context, date time.Time) (bool, error)
	EnsureNotLocked(ctx context.Context, tx *gorm.DB, date time.Time) error
	// EnsureWritable admits a locked date only for the allocation run that
	// is currently RUNNING for that date.
	EnsureWritable(ctx context.Context, tx *gorm.DB, date time.Time, runID string) error
	LockDate(ctx context.Context, date time.Time) error
}

type lockGate struct {
	locks     repository.LockRepository
	runs      repository.RunRepository
	publisher EventPublisher
	logger    *slog.Logger
	now       func() time.Time
}

func NewLockGate(locks repository.LockRepository, runs repository.RunRepository, publisher EventPublisher, logger *slog.Logger) LockGate {
	return &lockGate{
		locks:     locks,
		runs:      runs,
		publisher: publisher,
		logger:    logger.With("component", "lock_gate"),
		now:       time.Now,
	}
}

func (g *lockGate) IsLocked(ctx context.Context, date time.Time) (bool, error) {
	return g.locked(ctx, nil, models.ServiceDate(date))
}

func (g *lockGate) EnsureNotLocked(ctx context.Context, tx *gorm.DB, date time.Time) error {
	date = models.ServiceDate(date)
	locked, err := g.locked(ctx, tx, date)
	if err != nil {
		return err
	}
	if locked {
		return &LockedError{Date: date}
	}
	return nil
}

func (g *lockGate) EnsureWritable(ctx context.Context, tx *gorm.DB, date time.Time, runID string) error {
	date = models.ServiceDate(date)
	locked, err := g.locked(ctx, tx, date)
	if err != nil || !locked {
		return err
	}
	if runID == "" {
		return &LockedError{Date: date}
	}

	run, err := g.runs.FindByID(ctx, tx, runID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &LockedError{Date: date}
		}
		return fmt.Errorf("load allocation run: %w", err)
	}
	if run.Status != models.RunRunning || !models.ServiceDate(run.RunDate).Equal(date) {
		return &LockedError{Date: date}
	}
	return nil
}

func (g *lockGate) LockDate(ctx context.Context, date time.Time) error {
	date = models.ServiceDate(date)
	if err := g.locks.Lock(ctx, date, g.now().UTC()); err != nil {
		return fmt.Errorf("lock %s: %w", models.FormatDate(date), err)
	}
	g.logger.Info("date locked", "date", models.FormatDate(date))
	publish(g.publisher, g.logger, EventDateLocked, map[string]string{"date": models.FormatDate(date)})
	return nil
}

func (g *lockGate) locked(ctx context.Context, tx *gorm.DB, date time.Time) (bool, error) {
	lock, err := g.locks.FindByDate(ctx, tx, date)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("read daily lock: %w", err)
	}
	return lock.IsLocked, nil
}
