package repository

import (
	"context"
	"time"

	"github.com/Faheem12005/pathable-backend/internal/models"
	"gorm.io/gorm"
)

type RunRepository interface {
	Create(ctx context.Context, run *models.AllocationRun) error
	FindByDate(ctx context.Context, tx *gorm.DB, date time.Time) (*models.AllocationRun, error)
	FindByID(ctx context.Context, tx *gorm.DB, id string) (*models.AllocationRun, error)
	Save(ctx context.Context, run *models.AllocationRun) error
	List(ctx context.Context, limit int) ([]models.AllocationRun, error)
}

type runRepository struct {
	db *gorm.DB
}

func NewRunRepository(db *gorm.DB) RunRepository {
	return &runRepository{db: db}
}

// Create inserts a RUNNING row. A second run for the same date fails with
// gorm.ErrDuplicatedKey because of the unique run_date index.
func (r *runRepository) Create(ctx context.Context, run *models.AllocationRun) error {
	return r.db.WithContext(ctx).Create(run).Error
}

func (r *runRepository) FindByDate(ctx context.Context, tx *gorm.DB, date time.Time) (*models.AllocationRun, error) {
	var run models.AllocationRun
	if err := conn(ctx, r.db, tx).Where("run_date = ?", date).First(&run).Error; err != nil {
		return nil, err
	}
	return &run, nil
}

func (r *runRepository) FindByID(ctx context.Context, tx *gorm.DB, id string) (*models.AllocationRun, error) {
	var run models.AllocationRun
	if err := conn(ctx, r.db, tx).Where("id = ?", id).First(&run).Error; err != nil {
		return nil, err
	}
	return &run, nil
}

func (r *runRepository) Save(ctx context.Context, run *models.AllocationRun) error {
	return r.db.WithContext(ctx).
		Model(&models.AllocationRun{}).
		Where("id = ?", run.ID).
		Updates(map[string]any{
			"finished_at":               run.FinishedAt,
			"total_requests":            run.TotalRequests,
			"groups_allocated":          run.GroupsAllocated,
			"high_priority_allocated":   run.HighPriorityAllocated,
			"medium_priority_allocated": run.MediumPriorityAllocated,
			"low_priority_allocated":    run.LowPriorityAllocated,
			"failed_allocations":        run.FailedAllocations,
			"status":                    run.Status,
			"error_message":             run.ErrorMessage,
		}).Error
}

func (r *runRepository) List(ctx context.Context, limit int) ([]models.AllocationRun, error) {
	var runs []models.AllocationRun
	q := r.db.WithContext(ctx).Order("run_date DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&runs).Error; err != nil {
		return nil, err
	}
	return runs, nil
}
