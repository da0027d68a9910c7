package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Faheem12005/pathable-backend/internal/models"
	"github.com/Faheem12005/pathable-backend/internal/repository"
	"gorm.io/gorm"
)

type GroupBookingService interface {
	// BookGroup seats every member of the group on busID in one adjacent
	// block, or nobody.
	BookGroup(ctx context.Context, groupID, busID string, date time.Time) (*GroupBookingResult, error)
	// AllocateGroup places the group's pending requests for date during an
	// allocation run. It returns the requests it allocated.
	AllocateGroup(ctx context.Context, runID, groupID string, date time.Time) ([]models.DailyRequest, error)
}

type GroupBookingResult struct {
	GroupID   string           `json:"group_id"`
	BusID     string           `json:"bus_id"`
	Date      string           `json:"date"`
	GroupSize int              `json:"group_size"`
	Bookings  []models.Booking `json:"bookings"`
}

type groupBookingService struct {
	tx        repository.Transactor
	gate      LockGate
	matcher   BusMatcher
	seats     repository.SeatRepository
	buses     repository.BusRepository
	requests  repository.RequestRepository
	bookings  repository.BookingRepository
	groups    repository.GroupRepository
	publisher EventPublisher
	logger    *slog.Logger
}

func NewGroupBookingService(d BookingDeps) GroupBookingService {
	return &groupBookingService{
		tx:        d.Tx,
		gate:      d.Gate,
		matcher:   d.Matcher,
		seats:     d.Seats,
		buses:     d.Buses,
		requests:  d.Requests,
		bookings:  d.Bookings,
		groups:    d.Groups,
		publisher: d.Publisher,
		logger:    d.Logger.With("component", "group_booking"),
	}
}

func (s *groupBookingService) BookGroup(ctx context.Context, groupID, busID string, date time.Time) (*GroupBookingResult, error) {
	date = models.ServiceDate(date)
	result := &GroupBookingResult{GroupID: groupID, BusID: busID, Date: models.FormatDate(date)}

	err := s.tx.Transaction(ctx, func(tx *gorm.DB) error {
		if err := s.gate.EnsureNotLocked(ctx, tx, date); err != nil {
			return err
		}
		if _, err := s.groups.FindByID(ctx, tx, groupID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrGroupNotFound
			}
			return fmt.Errorf("load group: %w", err)
		}
		members, err := s.groups.FindMembers(ctx, tx, groupID)
		if err != nil {
			return fmt.Errorf("load members: %w", err)
		}
		if len(members) == 0 {
			return ErrEmptyGroup
		}
		if _, err := s.buses.FindByID(ctx, tx, busID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrBusNotFound
			}
			return fmt.Errorf("load bus: %w", err)
		}

		reqs := make([]*models.DailyRequest, len(members))
		for i, m := range members {
			if err := ensureNoBooking(ctx, s.bookings, tx, m.UserID, date); err != nil {
				return fmt.Errorf("member %s: %w", m.UserID, err)
			}
			req, err := s.requests.FindByUserAndDate(ctx, tx, m.UserID, date)
			if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("load request: %w", err)
			}
			reqs[i] = req
		}

		userIDs := make([]string, len(members))
		for i, m := range members {
			userIDs[i] = m.UserID
		}
		bookings, err := s.seatBlock(ctx, tx, busID, userIDs, date)
		if err != nil {
			return err
		}
		for i, req := range reqs {
			if req == nil {
				continue
			}
			if err := s.requests.MarkAllocated(ctx, tx, req.ID, busID, bookings[i].SeatID); err != nil {
				return err
			}
		}
		result.Bookings = bookings
		result.GroupSize = len(bookings)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("group booked",
		"group_id", groupID, "bus_id", busID, "size", result.GroupSize, "date", result.Date)
	publish(s.publisher, s.logger, EventGroupBookingConfirmed, result)
	return result, nil
}

func (s *groupBookingService) AllocateGroup(ctx context.Context, runID, groupID string, date time.Time) ([]models.DailyRequest, error) {
	date = models.ServiceDate(date)
	var allocated []models.DailyRequest

	err := s.tx.Transaction(ctx, func(tx *gorm.DB) error {
		allocated = nil
		if err := s.gate.EnsureWritable(ctx, tx, date, runID); err != nil {
			return err
		}
		reqs, err := s.requests.FindPendingByGroupForUpdate(ctx, tx, groupID, date)
		if err != nil {
			return fmt.Errorf("load group requests: %w", err)
		}
		if len(reqs) == 0 {
			return nil
		}

		// The earliest joined member decides the bus.
		bus, err := s.matcher.BestBusFor(ctx, tx, reqs[0].RequestLat, reqs[0].RequestLng)
		if err != nil {
			return err
		}

		userIDs := make([]string, len(reqs))
		for i := range reqs {
			userIDs[i] = reqs[i].UserID
		}
		bookings, err := s.seatBlock(ctx, tx, bus.ID, userIDs, date)
		if err != nil {
			return err
		}
		for i := range reqs {
			if err := s.requests.MarkAllocated(ctx, tx, reqs[i].ID, bus.ID, bookings[i].SeatID); err != nil {
				return err
			}
			reqs[i].Status = models.RequestAllocated
			reqs[i].AllocatedBusID = &bookings[i].BusID
			reqs[i].AllocatedSeatID = &bookings[i].SeatID
		}
		allocated = reqs
		return nil
	})
	if err != nil {
		return nil, err
	}
	return allocated, nil
}

// seatBlock locks the bus's free seats, picks one adjacent block and books
// it in order, seat i going to userIDs[i].
func (s *groupBookingService) seatBlock(ctx context.Context, tx *gorm.DB, busID string, userIDs []string, date time.Time) ([]models.Booking, error) {
	available, err := s.seats.FindAvailableForUpdate(ctx, tx, busID)
	if err != nil {
		return nil, fmt.Errorf("lock seats: %w", err)
	}
	block, err := pickGroupSeats(available, len(userIDs))
	if err != nil {
		return nil, err
	}

	ids := make([]string, len(block))
	for i := range block {
		ids[i] = block[i].ID
	}
	if err := s.seats.MarkUnavailable(ctx, tx, ids...); err != nil {
		return nil, fmt.Errorf("claim seats: %w", err)
	}

	bookings := make([]models.Booking, len(block))
	for i := range block {
		bookings[i] = models.Booking{
			UserID: userIDs[i],
			BusID:  busID,
			SeatID: block[i].ID,
			Date:   date,
			Status: models.BookingConfirmed,
		}
		if err := s.bookings.Create(ctx, tx, &bookings[i]); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return nil, fmt.Errorf("member %s: %w", userIDs[i], ErrAlreadyBooked)
			}
			return nil, fmt.Errorf("create booking: %w", err)
		}
	}
	return bookings, nil
}
