package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Faheem12005/pathable-backend/internal/models"
	"github.com/Faheem12005/pathable-backend/internal/repository"
	"gorm.io/gorm"
)

type SeatView struct {
	SeatID      string  `json:"seat_id"`
	SeatNumber  string  `json:"seat_number"`
	IsAvailable bool    `json:"is_available"`
	UserID      *string `json:"user_id,omitempty"`
	UserName    *string `json:"user_name,omitempty"`
}

type BusView struct {
	BusID          string     `json:"bus_id"`
	RouteName      string     `json:"route_name"`
	Endpoint       Location   `json:"endpoint"`
	Capacity       int        `json:"capacity"`
	AvailableSeats int        `json:"available_seats"`
	Seats          []SeatView `json:"seats,omitempty"`
}

type InventoryService interface {
	ListBuses(ctx context.Context) ([]BusView, error)
	// GetBus returns the bus with its seat map; occupants come from the
	// confirmed bookings for date.
	GetBus(ctx context.Context, busID string, date time.Time) (*BusView, error)
}

type inventoryService struct {
	buses    repository.BusRepository
	seats    repository.SeatRepository
	bookings repository.BookingRepository
	users    repository.UserRepository
}

func NewInventoryService(d BookingDeps) InventoryService {
	return &inventoryService{
		buses:    d.Buses,
		seats:    d.Seats,
		bookings: d.Bookings,
		users:    d.Users,
	}
}

func (s *inventoryService) ListBuses(ctx context.Context) ([]BusView, error) {
	buses, err := s.buses.FindAll(ctx, nil)
	if err != nil {
		return nil, err
	}
	views := make([]BusView, 0, len(buses))
	for i := range buses {
		n, err := s.seats.CountAvailable(ctx, buses[i].ID)
		if err != nil {
			return nil, fmt.Errorf("count seats: %w", err)
		}
		v := busView(&buses[i])
		v.AvailableSeats = int(n)
		views = append(views, v)
	}
	return views, nil
}

func (s *inventoryService) GetBus(ctx context.Context, busID string, date time.Time) (*BusView, error) {
	bus, err := s.buses.FindByID(ctx, nil, busID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBusNotFound
		}
		return nil, err
	}
	seats, err := s.seats.FindByBus(ctx, busID)
	if err != nil {
		return nil, fmt.Errorf("load seats: %w", err)
	}
	bookings, err := s.bookings.FindByBusAndDate(ctx, busID, models.ServiceDate(date))
	if err != nil {
		return nil, fmt.Errorf("load bookings: %w", err)
	}

	occupant := make(map[string]string, len(bookings))
	userIDs := make([]string, 0, len(bookings))
	for _, b := range bookings {
		occupant[b.SeatID] = b.UserID
		userIDs = append(userIDs, b.UserID)
	}
	users, err := s.users.FindByIDs(ctx, userIDs)
	if err != nil {
		return nil, fmt.Errorf("load riders: %w", err)
	}
	names := make(map[string]string, len(users))
	for _, u := range users {
		names[u.ID] = u.Name
	}

	v := busView(bus)
	v.Seats = make([]SeatView, 0, len(seats))
	for _, seat := range seats {
		sv := SeatView{SeatID: seat.ID, SeatNumber: seat.SeatNumber, IsAvailable: seat.IsAvailable}
		if seat.IsAvailable {
			v.AvailableSeats++
		}
		if uid, ok := occupant[seat.ID]; ok {
			sv.UserID = &uid
			if name, ok := names[uid]; ok {
				sv.UserName = &name
			}
		}
		v.Seats = append(v.Seats, sv)
	}
	return &v, nil
}

func busView(bus *models.Bus) BusView {
	v := BusView{BusID: bus.ID, Capacity: bus.Capacity}
	if bus.Route != nil {
		v.RouteName = bus.Route.POIName
		v.Endpoint = Location{Lat: bus.Route.EndLat, Lng: bus.Route.EndLng}
	}
	return v
}
