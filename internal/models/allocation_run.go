package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type RunStatus string

const (
	RunRunning   RunStatus = "RUNNING"
	RunCompleted RunStatus = "COMPLETED"
	RunFailed    RunStatus = "FAILED"
)

// AllocationRun records one nightly pass. At most one exists per date.
type AllocationRun struct {
	ID                      string     `gorm:"type:uuid;primaryKey" json:"id"`
	RunDate                 time.Time  `gorm:"type:date;not null;uniqueIndex" json:"run_date"`
	ExecutedAt              time.Time  `gorm:"not null" json:"executed_at"`
	FinishedAt              *time.Time `json:"finished_at,omitempty"`
	TotalRequests           int        `gorm:"not null;default:0" json:"total_requests"`
	GroupsAllocated         int        `gorm:"not null;default:0" json:"groups_allocated"`
	HighPriorityAllocated   int        `gorm:"not null;default:0" json:"high_priority_allocated"`
	MediumPriorityAllocated int        `gorm:"not null;default:0" json:"medium_priority_allocated"`
	LowPriorityAllocated    int        `gorm:"not null;default:0" json:"low_priority_allocated"`
	FailedAllocations       int        `gorm:"not null;default:0" json:"failed_allocations"`
	Status                  RunStatus  `gorm:"type:varchar(20);not null;default:'RUNNING'" json:"status"`
	ErrorMessage            *string    `json:"error_message,omitempty"`
}

func (r *AllocationRun) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}
