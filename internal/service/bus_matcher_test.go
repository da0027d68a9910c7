package service

import (
	"testing"

	"github.com/Faheem12005/pathable-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNearestBus(t *testing.T) {
	buses := []models.Bus{
		{ID: "far", Route: &models.Route{EndLat: 10, EndLng: 10}},
		{ID: "near", Route: &models.Route{EndLat: 1, EndLng: 1}},
		{ID: "no-route"},
	}
	best := nearestBus(buses, 0, 0)
	require.NotNil(t, best)
	assert.Equal(t, "near", best.ID)
}

func TestNearestBus_TieKeepsFirst(t *testing.T) {
	buses := []models.Bus{
		{ID: "first", Route: &models.Route{EndLat: 1, EndLng: 0}},
		{ID: "second", Route: &models.Route{EndLat: -1, EndLng: 0}},
	}
	assert.Equal(t, "first", nearestBus(buses, 0, 0).ID)
}

func TestNearestEndpointMatcher_NoBuses(t *testing.T) {
	env := newTestEnv()
	_, err := env.deps.Matcher.BestBusFor(t.Context(), nil, 12.9, 77.6)
	assert.ErrorIs(t, err, ErrNoBusesAvailable)
}

func TestNearestEndpointMatcher_IgnoresCapacity(t *testing.T) {
	env := newTestEnv()
	env.store.addBus("full", 0, 0, "A1")
	env.store.takeSeat("full-A1")
	env.store.addBus("roomy", 5, 5, "A1", "A2")

	bus, err := env.deps.Matcher.BestBusFor(t.Context(), nil, 0.1, 0.1)
	require.NoError(t, err)
	assert.Equal(t, "full", bus.ID)
}
