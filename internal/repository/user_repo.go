package repository

import (
	"context"

	"github.com/Faheem12005/pathable-backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UserRepository interface {
	FindByID(ctx context.Context, tx *gorm.DB, id string) (*models.User, error)
	FindByIDs(ctx context.Context, ids []string) ([]models.User, error)
	FindByDefaultDay(ctx context.Context, day models.DayMask) ([]models.User, error)
	Upsert(ctx context.Context, user *models.User) error
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) FindByID(ctx context.Context, tx *gorm.DB, id string) (*models.User, error) {
	var user models.User
	if err := conn(ctx, r.db, tx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindByIDs(ctx context.Context, ids []string) ([]models.User, error) {
	var users []models.User
	if len(ids) == 0 {
		return users, nil
	}
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error
	return users, err
}

// FindByDefaultDay returns every user whose weekly pattern contains day.
func (r *userRepository) FindByDefaultDay(ctx context.Context, day models.DayMask) ([]models.User, error) {
	var users []models.User
	err := r.db.WithContext(ctx).
		Where("default_days & ? <> 0", int64(day)).
		Order("id ASC").
		Find(&users).Error
	return users, err
}

func (r *userRepository) Upsert(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "email", "home_lat", "home_lng", "default_days", "updated_at"}),
	}).Create(user).Error
}
