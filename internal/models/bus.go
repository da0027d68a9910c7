package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Route only matters here for its end point, which the bus matcher scores against.
type Route struct {
	ID      string  `gorm:"type:uuid;primaryKey" json:"id"`
	POIName string  `gorm:"column:poi_name;not null" json:"poi_name"`
	EndLat  float64 `gorm:"not null" json:"end_lat"`
	EndLng  float64 `gorm:"not null" json:"end_lng"`
}

func (r *Route) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

type Bus struct {
	ID        string    `gorm:"type:uuid;primaryKey" json:"id"`
	RouteID   string    `gorm:"type:uuid;not null;index" json:"route_id"`
	Capacity  int       `gorm:"not null" json:"capacity"`
	CreatedAt time.Time `json:"created_at"`

	Route *Route `gorm:"foreignKey:RouteID" json:"route,omitempty"`
}

func (b *Bus) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	return nil
}

// Seat is one physical slot. The label is a row letter followed by a
// numeric position, e.g. "A1".
//
// IsAvailable is a fleet-wide flag, not per date: allocation only ever clears
// it. Resetting seats for the next service day is owned by the fleet
// operations side, outside this service; bookings carry the date.
type Seat struct {
	ID          string `gorm:"type:uuid;primaryKey" json:"id"`
	BusID       string `gorm:"type:uuid;not null;uniqueIndex:idx_seats_bus_label,priority:1" json:"bus_id"`
	SeatNumber  string `gorm:"not null;uniqueIndex:idx_seats_bus_label,priority:2" json:"seat_number"`
	IsAvailable bool   `gorm:"not null;default:true" json:"is_available"`
}

func (s *Seat) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}
