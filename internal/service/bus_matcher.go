package service

import (
	"context"
	"fmt"
	"math"

	"github.com/Faheem12005/pathable-backend/internal/models"
	"github.com/Faheem12005/pathable-backend/internal/repository"
	"gorm.io/gorm"
)

// BusMatcher picks the bus a pickup point should ride on. Route solvers can
// replace the default behind this interface.
type BusMatcher interface {
	BestBusFor(ctx context.Context, tx *gorm.DB, lat, lng float64) (*models.Bus, error)
}

// NearestEndpointMatcher scores each bus by the straight-line distance from
// the pickup point to its route end point. Capacity is not considered.
type NearestEndpointMatcher struct {
	buses repository.BusRepository
}

func NewNearestEndpointMatcher(buses repository.BusRepository) *NearestEndpointMatcher {
	return &NearestEndpointMatcher{buses: buses}
}

func (m *NearestEndpointMatcher) BestBusFor(ctx context.Context, tx *gorm.DB, lat, lng float64) (*models.Bus, error) {
	buses, err := m.buses.FindAll(ctx, tx)
	if err != nil {
		return nil, fmt.Errorf("load buses: %w", err)
	}
	best := nearestBus(buses, lat, lng)
	if best == nil {
		return nil, ErrNoBusesAvailable
	}
	return best, nil
}

// nearestBus keeps the first bus on ties. Buses without a route are skipped.
func nearestBus(buses []models.Bus, lat, lng float64) *models.Bus {
	var best *models.Bus
	bestDist := math.Inf(1)
	for i := range buses {
		route := buses[i].Route
		if route == nil {
			continue
		}
		d := euclidean(lat, lng, route.EndLat, route.EndLng)
		if d < bestDist {
			bestDist = d
			best = &buses[i]
		}
	}
	return best
}

func euclidean(lat1, lng1, lat2, lng2 float64) float64 {
	return math.Hypot(lat1-lat2, lng1-lng2)
}
