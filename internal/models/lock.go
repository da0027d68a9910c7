package models

import "time"

// DailyLock freezes bookings and request edits for a service date.
type DailyLock struct {
	ServiceDate time.Time  `gorm:"type:date;primaryKey" json:"service_date"`
	IsLocked    bool       `gorm:"not null;default:false" json:"is_locked"`
	LockedAt    *time.Time `json:"locked_at,omitempty"`
}
