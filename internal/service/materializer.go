package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Faheem12005/pathable-backend/internal/models"
	"github.com/Faheem12005/pathable-backend/internal/repository"
)

type Materializer interface {
	// MaterializeDefaults creates a pending request at the home location for
	// every user whose default days include date and who has none yet.
	// It returns the number of requests created.
	MaterializeDefaults(ctx context.Context, date time.Time) (int, error)
}

type defaultMaterializer struct {
	users    repository.UserRepository
	requests repository.RequestRepository
	logger   *slog.Logger
}

func NewMaterializer(users repository.UserRepository, requests repository.RequestRepository, logger *slog.Logger) Materializer {
	return &defaultMaterializer{
		users:    users,
		requests: requests,
		logger:   logger.With("component", "materializer"),
	}
}

func (m *defaultMaterializer) MaterializeDefaults(ctx context.Context, date time.Time) (int, error) {
	date = models.ServiceDate(date)
	users, err := m.users.FindByDefaultDay(ctx, models.WeekdayBit(date))
	if err != nil {
		return 0, fmt.Errorf("load default riders: %w", err)
	}

	reqs := make([]models.DailyRequest, 0, len(users))
	for _, u := range users {
		reqs = append(reqs, models.DailyRequest{
			UserID:       u.ID,
			Date:         date,
			RequestLat:   u.HomeLat,
			RequestLng:   u.HomeLng,
			IsDefaultDay: true,
			Status:       models.RequestPending,
		})
	}

	created, err := m.requests.InsertIgnoringExisting(ctx, reqs)
	if err != nil {
		return 0, fmt.Errorf("insert default requests: %w", err)
	}
	m.logger.Info("default requests materialized",
		"date", models.FormatDate(date), "eligible", len(users), "created", created)
	return int(created), nil
}
