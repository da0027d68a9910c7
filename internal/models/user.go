package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User mirrors the profile service record. This service only reads it,
// apart from the upserts done by the profile consumer.
type User struct {
	ID          string    `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string    `gorm:"not null" json:"name"`
	Email       string    `gorm:"uniqueIndex;not null" json:"email"`
	HomeLat     float64   `gorm:"not null" json:"home_lat"`
	HomeLng     float64   `gorm:"not null" json:"home_lng"`
	DefaultDays DayMask   `gorm:"type:smallint;not null;default:0" json:"default_days"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}
