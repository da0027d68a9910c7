package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/Faheem12005/pathable-backend/internal/models"
	"github.com/Faheem12005/pathable-backend/internal/repository"
	"gorm.io/gorm"
)

// locationTolerance is how far, in degrees on either axis, a pickup point may
// drift from home before the request counts as modified.
const locationTolerance = 0.0001

type Location struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type AssignmentStatus string

const (
	AssignmentNoRequest AssignmentStatus = "NO_REQUEST"
	AssignmentPending   AssignmentStatus = "PENDING"
	AssignmentFailed    AssignmentStatus = "FAILED"
	AssignmentAllocated AssignmentStatus = "ALLOCATED"
)

// Assignment is what a rider sees for one date.
type Assignment struct {
	Date       string           `json:"date"`
	Status     AssignmentStatus `json:"status"`
	BusID      *string          `json:"bus_id,omitempty"`
	RouteName  *string          `json:"route_name,omitempty"`
	SeatID     *string          `json:"seat_id,omitempty"`
	SeatNumber *string          `json:"seat_number,omitempty"`
	Pickup     *Location        `json:"pickup,omitempty"`
	Message    string           `json:"message"`
}

type RequestService interface {
	// Upsert records the user's travel need for date. A nil location means
	// the home location.
	Upsert(ctx context.Context, userID string, date time.Time, loc *Location) (*models.DailyRequest, error)
	Cancel(ctx context.Context, userID string, date time.Time) error
	List(ctx context.Context, userID string, from time.Time) ([]models.DailyRequest, error)
	Assignment(ctx context.Context, userID string, date time.Time) (*Assignment, error)
}

type requestService struct {
	tx       repository.Transactor
	gate     LockGate
	users    repository.UserRepository
	requests repository.RequestRepository
	buses    repository.BusRepository
	seats    repository.SeatRepository
	logger   *slog.Logger
	now      func() time.Time
}

func NewRequestService(d BookingDeps) RequestService {
	return &requestService{
		tx:       d.Tx,
		gate:     d.Gate,
		users:    d.Users,
		requests: d.Requests,
		buses:    d.Buses,
		seats:    d.Seats,
		logger:   d.Logger.With("component", "request_service"),
		now:      time.Now,
	}
}

func (s *requestService) Upsert(ctx context.Context, userID string, date time.Time, loc *Location) (*models.DailyRequest, error) {
	date = models.ServiceDate(date)
	var saved *models.DailyRequest

	err := s.tx.Transaction(ctx, func(tx *gorm.DB) error {
		if err := s.gate.EnsureNotLocked(ctx, tx, date); err != nil {
			return err
		}
		if date.Before(models.ServiceDate(s.now())) {
			return ErrPastDate
		}
		user, err := s.users.FindByID(ctx, tx, userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return fmt.Errorf("load user: %w", err)
		}

		lat, lng := user.HomeLat, user.HomeLng
		modified := false
		if loc != nil {
			lat, lng = loc.Lat, loc.Lng
			modified = math.Abs(lat-user.HomeLat) > locationTolerance ||
				math.Abs(lng-user.HomeLng) > locationTolerance
		}

		existing, err := s.requests.FindByUserAndDate(ctx, tx, userID, date)
		switch {
		case err == nil:
			if existing.Status == models.RequestAllocated {
				return ErrRequestAllocated
			}
			existing.RequestLat = lat
			existing.RequestLng = lng
			existing.IsModified = true
			existing.Status = models.RequestPending
			existing.AllocatedBusID = nil
			existing.AllocatedSeatID = nil
			if err := s.requests.Update(ctx, tx, existing); err != nil {
				return fmt.Errorf("update request: %w", err)
			}
			saved = existing
			return nil
		case errors.Is(err, gorm.ErrRecordNotFound):
		default:
			return fmt.Errorf("load request: %w", err)
		}

		req := &models.DailyRequest{
			UserID:       userID,
			Date:         date,
			RequestLat:   lat,
			RequestLng:   lng,
			IsDefaultDay: user.DefaultDays.Includes(date),
			IsModified:   modified,
			Status:       models.RequestPending,
		}
		if err := s.requests.Create(ctx, tx, req); err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		saved = req
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("request saved",
		"user_id", userID, "date", models.FormatDate(date), "tier", saved.Tier().String())
	return saved, nil
}

func (s *requestService) Cancel(ctx context.Context, userID string, date time.Time) error {
	date = models.ServiceDate(date)
	err := s.tx.Transaction(ctx, func(tx *gorm.DB) error {
		if err := s.gate.EnsureNotLocked(ctx, tx, date); err != nil {
			return err
		}
		req, err := s.requests.FindByUserAndDate(ctx, tx, userID, date)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrRequestNotFound
			}
			return fmt.Errorf("load request: %w", err)
		}
		if req.Status == models.RequestAllocated {
			return ErrRequestAllocated
		}
		return s.requests.Delete(ctx, tx, req.ID)
	})
	if err != nil {
		return err
	}
	s.logger.Info("request cancelled", "user_id", userID, "date", models.FormatDate(date))
	return nil
}

func (s *requestService) List(ctx context.Context, userID string, from time.Time) ([]models.DailyRequest, error) {
	return s.requests.FindByUserFrom(ctx, userID, models.ServiceDate(from))
}

func (s *requestService) Assignment(ctx context.Context, userID string, date time.Time) (*Assignment, error) {
	date = models.ServiceDate(date)
	a := &Assignment{Date: models.FormatDate(date)}

	req, err := s.requests.FindByUserAndDate(ctx, nil, userID, date)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			a.Status = AssignmentNoRequest
			a.Message = "No request for this date"
			return a, nil
		}
		return nil, fmt.Errorf("load request: %w", err)
	}
	a.Pickup = &Location{Lat: req.RequestLat, Lng: req.RequestLng}

	switch req.Status {
	case models.RequestPending:
		a.Status = AssignmentPending
		a.Message = "Allocation has not run yet"
		return a, nil
	case models.RequestFailed:
		a.Status = AssignmentFailed
		a.Message = "No seat could be allocated"
		return a, nil
	}

	a.Status = AssignmentAllocated
	a.Message = "Seat allocated"
	a.BusID = req.AllocatedBusID
	a.SeatID = req.AllocatedSeatID
	if req.AllocatedBusID != nil {
		bus, err := s.buses.FindByID(ctx, nil, *req.AllocatedBusID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("load bus: %w", err)
		}
		if bus != nil && bus.Route != nil {
			a.RouteName = &bus.Route.POIName
		}
	}
	if req.AllocatedSeatID != nil {
		seat, err := s.seats.FindByID(ctx, *req.AllocatedSeatID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("load seat: %w", err)
		}
		if seat != nil {
			a.SeatNumber = &seat.SeatNumber
		}
	}
	return a, nil
}
