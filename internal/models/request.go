package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type RequestStatus string

const (
	RequestPending   RequestStatus = "PENDING"
	RequestAllocated RequestStatus = "ALLOCATED"
	RequestFailed    RequestStatus = "FAILED"
)

// Tier is the priority class a pending request is allocated in.
type Tier int

const (
	TierHigh Tier = iota
	TierMedium
	TierLow
)

func (t Tier) String() string {
	switch t {
	case TierHigh:
		return "HIGH"
	case TierMedium:
		return "MEDIUM"
	default:
		return "LOW"
	}
}

// DailyRequest is one user's travel need for one date.
type DailyRequest struct {
	ID              string        `gorm:"type:uuid;primaryKey" json:"id"`
	UserID          string        `gorm:"type:uuid;not null;uniqueIndex:unique_user_date_request,priority:1" json:"user_id"`
	Date            time.Time     `gorm:"type:date;not null;uniqueIndex:unique_user_date_request,priority:2;index" json:"date"`
	RequestLat      float64       `gorm:"not null" json:"request_lat"`
	RequestLng      float64       `gorm:"not null" json:"request_lng"`
	IsDefaultDay    bool          `gorm:"not null;default:false" json:"is_default_day"`
	IsModified      bool          `gorm:"not null;default:false" json:"is_modified"`
	Status          RequestStatus `gorm:"type:varchar(20);not null;default:'PENDING';index" json:"status"`
	AllocatedBusID  *string       `gorm:"type:uuid" json:"allocated_bus_id,omitempty"`
	AllocatedSeatID *string       `gorm:"type:uuid" json:"allocated_seat_id,omitempty"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

func (r *DailyRequest) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

// Tier classifies the request: untouched defaults first, modified
// defaults second, extra days last.
func (r *DailyRequest) Tier() Tier {
	switch {
	case r.IsDefaultDay && !r.IsModified:
		return TierHigh
	case r.IsDefaultDay:
		return TierMedium
	default:
		return TierLow
	}
}
