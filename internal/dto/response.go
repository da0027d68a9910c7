package dto

import (
	"time"

	"github.com/Faheem12005/pathable-backend/internal/models"
)

type BookingResponse struct {
	ID        string               `json:"id"`
	UserID    string               `json:"user_id"`
	BusID     string               `json:"bus_id"`
	SeatID    string               `json:"seat_id"`
	Date      string               `json:"date"`
	Status    models.BookingStatus `json:"status"`
	CreatedAt time.Time            `json:"created_at"`
}

type RequestResponse struct {
	ID              string               `json:"id"`
	UserID          string               `json:"user_id"`
	Date            string               `json:"date"`
	Lat             float64              `json:"lat"`
	Lng             float64              `json:"lng"`
	IsDefaultDay    bool                 `json:"is_default_day"`
	IsModified      bool                 `json:"is_modified"`
	Priority        string               `json:"priority"`
	Status          models.RequestStatus `json:"status"`
	AllocatedBusID  *string              `json:"allocated_bus_id,omitempty"`
	AllocatedSeatID *string              `json:"allocated_seat_id,omitempty"`
}

type RunResponse struct {
	ID                      string           `json:"id"`
	RunDate                 string           `json:"run_date"`
	Status                  models.RunStatus `json:"status"`
	ExecutedAt              time.Time        `json:"executed_at"`
	FinishedAt              *time.Time       `json:"finished_at,omitempty"`
	TotalRequests           int              `json:"total_requests"`
	GroupsAllocated         int              `json:"groups_allocated"`
	HighPriorityAllocated   int              `json:"high_priority_allocated"`
	MediumPriorityAllocated int              `json:"medium_priority_allocated"`
	LowPriorityAllocated    int              `json:"low_priority_allocated"`
	Failed                  int              `json:"failed"`
	ErrorMessage            *string          `json:"error_message,omitempty"`
}

type LockResponse struct {
	Date     string `json:"date"`
	IsLocked bool   `json:"is_locked"`
}

type ErrorResponse struct {
	Message string `json:"message"`
}

func ToBookingResponse(b *models.Booking) BookingResponse {
	return BookingResponse{
		ID:        b.ID,
		UserID:    b.UserID,
		BusID:     b.BusID,
		SeatID:    b.SeatID,
		Date:      models.FormatDate(b.Date),
		Status:    b.Status,
		CreatedAt: b.CreatedAt,
	}
}

func ToRequestResponse(r *models.DailyRequest) RequestResponse {
	return RequestResponse{
		ID:              r.ID,
		UserID:          r.UserID,
		Date:            models.FormatDate(r.Date),
		Lat:             r.RequestLat,
		Lng:             r.RequestLng,
		IsDefaultDay:    r.IsDefaultDay,
		IsModified:      r.IsModified,
		Priority:        r.Tier().String(),
		Status:          r.Status,
		AllocatedBusID:  r.AllocatedBusID,
		AllocatedSeatID: r.AllocatedSeatID,
	}
}

func ToRunResponse(r *models.AllocationRun) RunResponse {
	return RunResponse{
		ID:                      r.ID,
		RunDate:                 models.FormatDate(r.RunDate),
		Status:                  r.Status,
		ExecutedAt:              r.ExecutedAt,
		FinishedAt:              r.FinishedAt,
		TotalRequests:           r.TotalRequests,
		GroupsAllocated:         r.GroupsAllocated,
		HighPriorityAllocated:   r.HighPriorityAllocated,
		MediumPriorityAllocated: r.MediumPriorityAllocated,
		LowPriorityAllocated:    r.LowPriorityAllocated,
		Failed:                  r.FailedAllocations,
		ErrorMessage:            r.ErrorMessage,
	}
}
