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

// maxSeatAttempts bounds how often a locked seat lookup is retried when it
// comes back empty while committed state still shows free seats.
const maxSeatAttempts = 3

type IndividualBookingService interface {
	// BookIndividual reserves the first free seat on busID for the user.
	BookIndividual(ctx context.Context, userID, busID string, date time.Time) (*models.Booking, error)
	// AllocateIndividual places one pending request during an allocation
	// run, falling back to other buses when the best one is full.
	AllocateIndividual(ctx context.Context, runID, requestID string, date time.Time) (IndividualOutcome, error)
}

// IndividualOutcome is the business result of AllocateIndividual. A
// returned error is reserved for infrastructure faults.
type IndividualOutcome struct {
	RequestID string
	Allocated bool
	Reason    FailureReason
	Booking   *models.Booking
}

type individualBookingService struct {
	tx        repository.Transactor
	gate      LockGate
	matcher   BusMatcher
	seats     repository.SeatRepository
	buses     repository.BusRepository
	requests  repository.RequestRepository
	bookings  repository.BookingRepository
	users     repository.UserRepository
	publisher EventPublisher
	logger    *slog.Logger
}

type BookingDeps struct {
	Tx        repository.Transactor
	Gate      LockGate
	Matcher   BusMatcher
	Seats     repository.SeatRepository
	Buses     repository.BusRepository
	Requests  repository.RequestRepository
	Bookings  repository.BookingRepository
	Users     repository.UserRepository
	Groups    repository.GroupRepository
	Publisher EventPublisher
	Logger    *slog.Logger
}

func NewIndividualBookingService(d BookingDeps) IndividualBookingService {
	return &individualBookingService{
		tx:        d.Tx,
		gate:      d.Gate,
		matcher:   d.Matcher,
		seats:     d.Seats,
		buses:     d.Buses,
		requests:  d.Requests,
		bookings:  d.Bookings,
		users:     d.Users,
		publisher: d.Publisher,
		logger:    d.Logger.With("component", "individual_booking"),
	}
}

func (s *individualBookingService) BookIndividual(ctx context.Context, userID, busID string, date time.Time) (*models.Booking, error) {
	date = models.ServiceDate(date)
	var booking *models.Booking

	err := s.tx.Transaction(ctx, func(tx *gorm.DB) error {
		if err := s.gate.EnsureNotLocked(ctx, tx, date); err != nil {
			return err
		}
		if _, err := s.users.FindByID(ctx, tx, userID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return fmt.Errorf("load user: %w", err)
		}
		if _, err := s.buses.FindByID(ctx, tx, busID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrBusNotFound
			}
			return fmt.Errorf("load bus: %w", err)
		}
		if err := ensureNoBooking(ctx, s.bookings, tx, userID, date); err != nil {
			return err
		}

		// Request rows are locked before seat rows on every path.
		req, err := s.requests.FindByUserAndDate(ctx, tx, userID, date)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("load request: %w", err)
		}

		seat, err := lockFreeSeat(ctx, s.seats, tx, busID)
		if err != nil {
			return err
		}
		booking, err = reserveSeat(ctx, s.seats, s.bookings, tx, userID, busID, seat, date)
		if err != nil {
			return err
		}
		if req != nil {
			return s.requests.MarkAllocated(ctx, tx, req.ID, busID, seat.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("seat booked",
		"user_id", userID, "bus_id", busID, "seat_id", booking.SeatID, "date", models.FormatDate(date))
	publish(s.publisher, s.logger, EventBookingConfirmed, booking)
	return booking, nil
}

func (s *individualBookingService) AllocateIndividual(ctx context.Context, runID, requestID string, date time.Time) (IndividualOutcome, error) {
	date = models.ServiceDate(date)
	var out IndividualOutcome

	err := s.tx.Transaction(ctx, func(tx *gorm.DB) error {
		out = IndividualOutcome{RequestID: requestID}
		if err := s.gate.EnsureWritable(ctx, tx, date, runID); err != nil {
			return err
		}

		req, err := s.requests.FindByIDForUpdate(ctx, tx, requestID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				out.Reason = ReasonNotPending
				return nil
			}
			return fmt.Errorf("load request: %w", err)
		}
		if req.Status != models.RequestPending {
			out.Reason = ReasonNotPending
			return nil
		}

		bus, err := s.matcher.BestBusFor(ctx, tx, req.RequestLat, req.RequestLng)
		if errors.Is(err, ErrNoBusesAvailable) {
			out.Reason = ReasonNoBus
			return s.requests.MarkFailed(ctx, tx, req.ID)
		}
		if err != nil {
			return err
		}

		busID, seat, err := s.seatWithFallback(ctx, tx, bus.ID)
		if errors.Is(err, ErrNoSeatsAvailable) {
			out.Reason = ReasonNoSeat
			return s.requests.MarkFailed(ctx, tx, req.ID)
		}
		if err != nil {
			return err
		}

		booking, err := reserveSeat(ctx, s.seats, s.bookings, tx, req.UserID, busID, seat, date)
		if err != nil {
			return err
		}
		if err := s.requests.MarkAllocated(ctx, tx, req.ID, busID, seat.ID); err != nil {
			return err
		}
		out.Allocated = true
		out.Booking = booking
		return nil
	})
	if err != nil {
		return IndividualOutcome{RequestID: requestID}, err
	}
	return out, nil
}

// seatWithFallback tries the preferred bus first, then every other bus in
// inventory order.
func (s *individualBookingService) seatWithFallback(ctx context.Context, tx *gorm.DB, preferred string) (string, *models.Seat, error) {
	seat, err := lockFreeSeat(ctx, s.seats, tx, preferred)
	if err == nil {
		return preferred, seat, nil
	}
	if !errors.Is(err, ErrNoSeatsAvailable) {
		return "", nil, err
	}

	buses, err := s.buses.FindAll(ctx, tx)
	if err != nil {
		return "", nil, fmt.Errorf("load buses: %w", err)
	}
	for _, bus := range buses {
		if bus.ID == preferred {
			continue
		}
		seat, err := lockFreeSeat(ctx, s.seats, tx, bus.ID)
		if err == nil {
			s.logger.Debug("using backup bus", "preferred_bus_id", preferred, "bus_id", bus.ID)
			return bus.ID, seat, nil
		}
		if !errors.Is(err, ErrNoSeatsAvailable) {
			return "", nil, err
		}
	}
	return "", nil, ErrNoSeatsAvailable
}

// lockFreeSeat locks the lowest ordered free seat on the bus. An empty locked
// read is retried while committed state still reports free seats, since a
// competing transaction may have just released its claim.
func lockFreeSeat(ctx context.Context, seats repository.SeatRepository, tx *gorm.DB, busID string) (*models.Seat, error) {
	for range maxSeatAttempts {
		seat, err := seats.FindFirstAvailableForUpdate(ctx, tx, busID)
		if err == nil {
			return seat, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("lock seat: %w", err)
		}
		n, err := seats.CountAvailable(ctx, busID)
		if err != nil {
			return nil, fmt.Errorf("count seats: %w", err)
		}
		if n == 0 {
			break
		}
	}
	return nil, ErrNoSeatsAvailable
}

func reserveSeat(ctx context.Context, seats repository.SeatRepository, bookings repository.BookingRepository,
	tx *gorm.DB, userID, busID string, seat *models.Seat, date time.Time) (*models.Booking, error) {
	if err := seats.MarkUnavailable(ctx, tx, seat.ID); err != nil {
		return nil, fmt.Errorf("claim seat %s: %w", seat.SeatNumber, err)
	}
	booking := &models.Booking{
		UserID: userID,
		BusID:  busID,
		SeatID: seat.ID,
		Date:   date,
		Status: models.BookingConfirmed,
	}
	if err := bookings.Create(ctx, tx, booking); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrAlreadyBooked
		}
		return nil, fmt.Errorf("create booking: %w", err)
	}
	return booking, nil
}

func ensureNoBooking(ctx context.Context, bookings repository.BookingRepository, tx *gorm.DB, userID string, date time.Time) error {
	_, err := bookings.FindConfirmedByUserAndDate(ctx, tx, userID, date)
	switch {
	case err == nil:
		return ErrAlreadyBooked
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil
	default:
		return fmt.Errorf("check existing booking: %w", err)
	}
}
