package repository

import (
	"context"
	"time"

	"github.com/Faheem12005/pathable-backend/internal/models"
	"gorm.io/gorm"
)

type BookingRepository interface {
	Create(ctx context.Context, tx *gorm.DB, booking *models.Booking) error
	FindConfirmedByUserAndDate(ctx context.Context, tx *gorm.DB, userID string, date time.Time) (*models.Booking, error)
	FindByBusAndDate(ctx context.Context, busID string, date time.Time) ([]models.Booking, error)
}

type bookingRepository struct {
	db *gorm.DB
}

func NewBookingRepository(db *gorm.DB) BookingRepository {
	return &bookingRepository{db: db}
}

func (r *bookingRepository) Create(ctx context.Context, tx *gorm.DB, booking *models.Booking) error {
	return conn(ctx, r.db, tx).Create(booking).Error
}

func (r *bookingRepository) FindConfirmedByUserAndDate(ctx context.Context, tx *gorm.DB, userID string, date time.Time) (*models.Booking, error) {
	var booking models.Booking
	err := conn(ctx, r.db, tx).
		Where("user_id = ? AND date = ? AND status = ?", userID, date, models.BookingConfirmed).
		First(&booking).Error
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

func (r *bookingRepository) FindByBusAndDate(ctx context.Context, busID string, date time.Time) ([]models.Booking, error) {
	var bookings []models.Booking
	err := r.db.WithContext(ctx).
		Where("bus_id = ? AND date = ? AND status = ?", busID, date, models.BookingConfirmed).
		Order("created_at ASC").
		Find(&bookings).Error
	return bookings, err
}
