package repository

import (
	"context"

	"github.com/Faheem12005/pathable-backend/internal/models"
	"gorm.io/gorm"
)

type BusRepository interface {
	FindAll(ctx context.Context, tx *gorm.DB) ([]models.Bus, error)
	FindByID(ctx context.Context, tx *gorm.DB, id string) (*models.Bus, error)
}

type busRepository struct {
	db *gorm.DB
}

func NewBusRepository(db *gorm.DB) BusRepository {
	return &busRepository{db: db}
}

// FindAll returns the inventory in insertion order with routes loaded.
func (r *busRepository) FindAll(ctx context.Context, tx *gorm.DB) ([]models.Bus, error) {
	var buses []models.Bus
	err := conn(ctx, r.db, tx).
		Preload("Route").
		Order("created_at ASC, id ASC").
		Find(&buses).Error
	return buses, err
}

func (r *busRepository) FindByID(ctx context.Context, tx *gorm.DB, id string) (*models.Bus, error) {
	var bus models.Bus
	if err := conn(ctx, r.db, tx).Preload("Route").Where("id = ?", id).First(&bus).Error; err != nil {
		return nil, err
	}
	return &bus, nil
}
