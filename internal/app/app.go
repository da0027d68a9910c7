package app

import (
	"log/slog"
	"os"

	"github.com/Faheem12005/pathable-backend/config"
	"github.com/Faheem12005/pathable-backend/internal/repository"
	"github.com/Faheem12005/pathable-backend/internal/service"
	"gorm.io/gorm"
)

// Services is the assembled service graph shared by the binaries.
type Services struct {
	Users  repository.UserRepository
	Groups repository.GroupRepository

	Gate         service.LockGate
	Materializer service.Materializer
	Individual   service.IndividualBookingService
	Group        service.GroupBookingService
	Engine       service.AllocationEngine
	Requests     service.RequestService
	Inventory    service.InventoryService
	Scheduler    *service.Scheduler
}

func NewLogger(cfg *config.Config) *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
}

// Build wires repositories and services. publisher may be nil.
func Build(cfg *config.Config, db *gorm.DB, publisher service.EventPublisher, logger *slog.Logger) *Services {
	users := repository.NewUserRepository(db)
	groups := repository.NewGroupRepository(db)
	buses := repository.NewBusRepository(db)
	seats := repository.NewSeatRepository(db)
	requests := repository.NewRequestRepository(db)
	bookings := repository.NewBookingRepository(db)
	locks := repository.NewLockRepository(db)
	runs := repository.NewRunRepository(db)

	gate := service.NewLockGate(locks, runs, publisher, logger)
	deps := service.BookingDeps{
		Tx:        repository.NewTransactor(db),
		Gate:      gate,
		Matcher:   service.NewNearestEndpointMatcher(buses),
		Seats:     seats,
		Buses:     buses,
		Requests:  requests,
		Bookings:  bookings,
		Users:     users,
		Groups:    groups,
		Publisher: publisher,
		Logger:    logger,
	}
	materializer := service.NewMaterializer(users, requests, logger)
	individual := service.NewIndividualBookingService(deps)
	group := service.NewGroupBookingService(deps)
	engine := service.NewAllocationEngine(service.EngineDeps{
		Runs:         runs,
		Requests:     requests,
		Groups:       groups,
		Materializer: materializer,
		Individual:   individual,
		Group:        group,
		Publisher:    publisher,
		Logger:       logger,
		Workers:      cfg.AllocationWorkers,
	})

	return &Services{
		Users:        users,
		Groups:       groups,
		Gate:         gate,
		Materializer: materializer,
		Individual:   individual,
		Group:        group,
		Engine:       engine,
		Requests:     service.NewRequestService(deps),
		Inventory:    service.NewInventoryService(deps),
		Scheduler:    service.NewScheduler(gate, engine, materializer, logger),
	}
}
