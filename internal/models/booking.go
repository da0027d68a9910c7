package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type BookingStatus string

const (
	BookingConfirmed BookingStatus = "CONFIRMED"
)

// Booking is the append-only audit record written when a seat is reserved.
type Booking struct {
	ID        string        `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    string        `gorm:"type:uuid;not null;index" json:"user_id"`
	BusID     string        `gorm:"type:uuid;not null;index" json:"bus_id"`
	SeatID    string        `gorm:"type:uuid;not null" json:"seat_id"`
	Date      time.Time     `gorm:"type:date;not null;index" json:"date"`
	Status    BookingStatus `gorm:"type:varchar(20);not null;default:'CONFIRMED'" json:"status"`
	CreatedAt time.Time     `json:"created_at"`
}

func (b *Booking) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	return nil
}
