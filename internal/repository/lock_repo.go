package repository

import (
	"context"
	"time"

	"github.com/Faheem12005/pathable-backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type LockRepository interface {
	FindByDate(ctx context.Context, tx *gorm.DB, date time.Time) (*models.DailyLock, error)
	Lock(ctx context.Context, date time.Time, at time.Time) error
}

type lockRepository struct {
	db *gorm.DB
}

func NewLockRepository(db *gorm.DB) LockRepository {
	return &lockRepository{db: db}
}

// FindByDate reads the lock row with FOR SHARE so that a concurrent Lock
// waits for transactions that already passed the gate.
func (r *lockRepository) FindByDate(ctx context.Context, tx *gorm.DB, date time.Time) (*models.DailyLock, error) {
	var lock models.DailyLock
	q := conn(ctx, r.db, tx)
	if tx != nil {
		q = q.Clauses(forShare)
	}
	if err := q.Where("service_date = ?", date).First(&lock).Error; err != nil {
		return nil, err
	}
	return &lock, nil
}

// Lock flips the date to locked. Calling it again is a no-op; there is no unlock.
func (r *lockRepository) Lock(ctx context.Context, date time.Time, at time.Time) error {
	lock := models.DailyLock{ServiceDate: date, IsLocked: true, LockedAt: &at}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "service_date"}},
		DoUpdates: clause.Assignments(map[string]any{
			"is_locked": true,
			"locked_at": gorm.Expr("COALESCE(daily_locks.locked_at, EXCLUDED.locked_at)"),
		}),
	}).Create(&lock).Error
}
