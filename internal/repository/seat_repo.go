package repository

import (
	"context"
	"fmt"

	"github.com/Faheem12005/pathable-backend/internal/models"
	"gorm.io/gorm"
)

// seatOrder sorts labels naturally for the single-letter row convention
// ("A2" before "A10").
const seatOrder = "LEFT(seat_number, 1) ASC, LENGTH(seat_number) ASC, seat_number ASC"

type SeatRepository interface {
	FindFirstAvailableForUpdate(ctx context.Context, tx *gorm.DB, busID string) (*models.Seat, error)
	FindAvailableForUpdate(ctx context.Context, tx *gorm.DB, busID string) ([]models.Seat, error)
	CountAvailable(ctx context.Context, busID string) (int64, error)
	MarkUnavailable(ctx context.Context, tx *gorm.DB, seatIDs ...string) error
	FindByBus(ctx context.Context, busID string) ([]models.Seat, error)
	FindByID(ctx context.Context, id string) (*models.Seat, error)
}

type seatRepository struct {
	db *gorm.DB
}

func NewSeatRepository(db *gorm.DB) SeatRepository {
	return &seatRepository{db: db}
}

// FindFirstAvailableForUpdate locks and returns the lowest-labelled free seat.
// It returns gorm.ErrRecordNotFound when the bus is full, or when the only
// candidate was taken by the transaction this one waited on.
func (r *seatRepository) FindFirstAvailableForUpdate(ctx context.Context, tx *gorm.DB, busID string) (*models.Seat, error) {
	var seat models.Seat
	err := conn(ctx, r.db, tx).
		Clauses(forUpdate).
		Where("bus_id = ? AND is_available = ?", busID, true).
		Order(seatOrder).
		Take(&seat).Error
	if err != nil {
		return nil, err
	}
	return &seat, nil
}

func (r *seatRepository) FindAvailableForUpdate(ctx context.Context, tx *gorm.DB, busID string) ([]models.Seat, error) {
	var seats []models.Seat
	err := conn(ctx, r.db, tx).
		Clauses(forUpdate).
		Where("bus_id = ? AND is_available = ?", busID, true).
		Order(seatOrder).
		Find(&seats).Error
	return seats, err
}

// CountAvailable is a plain read without locks.
func (r *seatRepository) CountAvailable(ctx context.Context, busID string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&models.Seat{}).
		Where("bus_id = ? AND is_available = ?", busID, true).
		Count(&n).Error
	return n, err
}

// MarkUnavailable flips the seats and fails unless every one of them was
// still available.
func (r *seatRepository) MarkUnavailable(ctx context.Context, tx *gorm.DB, seatIDs ...string) error {
	if len(seatIDs) == 0 {
		return nil
	}
	res := conn(ctx, r.db, tx).
		Model(&models.Seat{}).
		Where("id IN ? AND is_available = ?", seatIDs, true).
		Update("is_available", false)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected != int64(len(seatIDs)) {
		return fmt.Errorf("seat availability changed: flipped %d of %d seats", res.RowsAffected, len(seatIDs))
	}
	return nil
}

func (r *seatRepository) FindByBus(ctx context.Context, busID string) ([]models.Seat, error) {
	var seats []models.Seat
	err := r.db.WithContext(ctx).
		Where("bus_id = ?", busID).
		Order(seatOrder).
		Find(&seats).Error
	return seats, err
}

func (r *seatRepository) FindByID(ctx context.Context, id string) (*models.Seat, error) {
	var seat models.Seat
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&seat).Error; err != nil {
		return nil, err
	}
	return &seat, nil
}
