package repository

import (
	"context"
	"time"

	"github.com/Faheem12005/pathable-backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RequestRepository interface {
	Create(ctx context.Context, tx *gorm.DB, req *models.DailyRequest) error
	InsertIgnoringExisting(ctx context.Context, reqs []models.DailyRequest) (int64, error)
	Update(ctx context.Context, tx *gorm.DB, req *models.DailyRequest) error
	Delete(ctx context.Context, tx *gorm.DB, id string) error
	FindByUserAndDate(ctx context.Context, tx *gorm.DB, userID string, date time.Time) (*models.DailyRequest, error)
	FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id string) (*models.DailyRequest, error)
	FindByUserFrom(ctx context.Context, userID string, from time.Time) ([]models.DailyRequest, error)
	FindPendingByDate(ctx context.Context, date time.Time) ([]models.DailyRequest, error)
	FindPendingByGroupForUpdate(ctx context.Context, tx *gorm.DB, groupID string, date time.Time) ([]models.DailyRequest, error)
	MarkAllocated(ctx context.Context, tx *gorm.DB, id, busID, seatID string) error
	MarkFailed(ctx context.Context, tx *gorm.DB, id string) error
}

type requestRepository struct {
	db *gorm.DB
}

func NewRequestRepository(db *gorm.DB) RequestRepository {
	return &requestRepository{db: db}
}

func (r *requestRepository) Create(ctx context.Context, tx *gorm.DB, req *models.DailyRequest) error {
	return conn(ctx, r.db, tx).Create(req).Error
}

// InsertIgnoringExisting creates the given requests, skipping any
// (user, date) pair that already has one. It returns how many rows were
// actually inserted.
func (r *requestRepository) InsertIgnoringExisting(ctx context.Context, reqs []models.DailyRequest) (int64, error) {
	if len(reqs) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "date"}},
			DoNothing: true,
		}).
		CreateInBatches(&reqs, 200)
	return res.RowsAffected, res.Error
}

func (r *requestRepository) Update(ctx context.Context, tx *gorm.DB, req *models.DailyRequest) error {
	return conn(ctx, r.db, tx).Save(req).Error
}

func (r *requestRepository) Delete(ctx context.Context, tx *gorm.DB, id string) error {
	return conn(ctx, r.db, tx).Where("id = ?", id).Delete(&models.DailyRequest{}).Error
}

func (r *requestRepository) FindByUserAndDate(ctx context.Context, tx *gorm.DB, userID string, date time.Time) (*models.DailyRequest, error) {
	var req models.DailyRequest
	q := conn(ctx, r.db, tx)
	if tx != nil {
		q = q.Clauses(forUpdate)
	}
	if err := q.Where("user_id = ? AND date = ?", userID, date).First(&req).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *requestRepository) FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id string) (*models.DailyRequest, error) {
	var req models.DailyRequest
	if err := conn(ctx, r.db, tx).Clauses(forUpdate).Where("id = ?", id).First(&req).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *requestRepository) FindByUserFrom(ctx context.Context, userID string, from time.Time) ([]models.DailyRequest, error) {
	var reqs []models.DailyRequest
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND date >= ?", userID, from).
		Order("date ASC").
		Find(&reqs).Error
	return reqs, err
}

func (r *requestRepository) FindPendingByDate(ctx context.Context, date time.Time) ([]models.DailyRequest, error) {
	var reqs []models.DailyRequest
	err := r.db.WithContext(ctx).
		Where("date = ? AND status = ?", date, models.RequestPending).
		Order("created_at ASC, id ASC").
		Find(&reqs).Error
	return reqs, err
}

// FindPendingByGroupForUpdate locks the pending requests of every member of
// the group for date, in membership order.
func (r *requestRepository) FindPendingByGroupForUpdate(ctx context.Context, tx *gorm.DB, groupID string, date time.Time) ([]models.DailyRequest, error) {
	var reqs []models.DailyRequest
	err := conn(ctx, r.db, tx).
		Joins("JOIN group_members gm ON gm.user_id = daily_requests.user_id").
		Where("gm.group_id = ? AND daily_requests.date = ? AND daily_requests.status = ?", groupID, date, models.RequestPending).
		Order("gm.joined_at ASC, daily_requests.user_id ASC").
		Clauses(clause.Locking{Strength: "UPDATE", Table: clause.Table{Name: "daily_requests"}}).
		Find(&reqs).Error
	return reqs, err
}

func (r *requestRepository) MarkAllocated(ctx context.Context, tx *gorm.DB, id, busID, seatID string) error {
	return conn(ctx, r.db, tx).
		Model(&models.DailyRequest{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":            models.RequestAllocated,
			"allocated_bus_id":  busID,
			"allocated_seat_id": seatID,
		}).Error
}

func (r *requestRepository) MarkFailed(ctx context.Context, tx *gorm.DB, id string) error {
	return conn(ctx, r.db, tx).
		Model(&models.DailyRequest{}).
		Where("id = ?", id).
		Update("status", models.RequestFailed).Error
}
