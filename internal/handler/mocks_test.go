package handler

import (
	"context"
	"time"

	"github.com/Faheem12005/pathable-backend/internal/models"
	"github.com/Faheem12005/pathable-backend/internal/service"
	"gorm.io/gorm"
)

// --- Mock IndividualBookingService ---

type mockIndividualService struct {
	bookFn func(ctx context.Context, userID, busID string, date time.Time) (*models.Booking, error)
}

func (m *mockIndividualService) BookIndividual(ctx context.Context, userID, busID string, date time.Time) (*models.Booking, error) {
	return m.bookFn(ctx, userID, busID, date)
}
func (m *mockIndividualService) AllocateIndividual(ctx context.Context, runID, requestID string, date time.Time) (service.IndividualOutcome, error) {
	return service.IndividualOutcome{}, nil
}

// --- Mock GroupBookingService ---

type mockGroupService struct {
	bookFn func(ctx context.Context, groupID, busID string, date time.Time) (*service.GroupBookingResult, error)
}

func (m *mockGroupService) BookGroup(ctx context.Context, groupID, busID string, date time.Time) (*service.GroupBookingResult, error) {
	return m.bookFn(ctx, groupID, busID, date)
}
func (m *mockGroupService) AllocateGroup(ctx context.Context, runID, groupID string, date time.Time) ([]models.DailyRequest, error) {
	return nil, nil
}

// --- Mock AllocationEngine ---

type mockEngine struct {
	runFn  func(ctx context.Context, date time.Time) (service.RunStats, error)
	getFn  func(ctx context.Context, date time.Time) (*models.AllocationRun, error)
	listFn func(ctx context.Context, limit int) ([]models.AllocationRun, error)
}

func (m *mockEngine) RunAllocation(ctx context.Context, date time.Time) (service.RunStats, error) {
	return m.runFn(ctx, date)
}
func (m *mockEngine) GetRun(ctx context.Context, date time.Time) (*models.AllocationRun, error) {
	return m.getFn(ctx, date)
}
func (m *mockEngine) ListRuns(ctx context.Context, limit int) ([]models.AllocationRun, error) {
	return m.listFn(ctx, limit)
}

// --- Mock LockGate ---

type mockGate struct {
	locked  map[string]bool
	lockErr error
}

func (m *mockGate) IsLocked(ctx context.Context, date time.Time) (bool, error) {
	return m.locked[models.FormatDate(date)], nil
}
func (m *mockGate) EnsureNotLocked(ctx context.Context, tx *gorm.DB, date time.Time) error {
	return nil
}
func (m *mockGate) EnsureWritable(ctx context.Context, tx *gorm.DB, date time.Time, runID string) error {
	return nil
}
func (m *mockGate) LockDate(ctx context.Context, date time.Time) error {
	if m.lockErr != nil {
		return m.lockErr
	}
	if m.locked == nil {
		m.locked = map[string]bool{}
	}
	m.locked[models.FormatDate(date)] = true
	return nil
}

// --- Mock RequestService ---

type mockRequestService struct {
	upsertFn     func(ctx context.Context, userID string, date time.Time, loc *service.Location) (*models.DailyRequest, error)
	cancelFn     func(ctx context.Context, userID string, date time.Time) error
	listFn       func(ctx context.Context, userID string, from time.Time) ([]models.DailyRequest, error)
	assignmentFn func(ctx context.Context, userID string, date time.Time) (*service.Assignment, error)
}

func (m *mockRequestService) Upsert(ctx context.Context, userID string, date time.Time, loc *service.Location) (*models.DailyRequest, error) {
	return m.upsertFn(ctx, userID, date, loc)
}
func (m *mockRequestService) Cancel(ctx context.Context, userID string, date time.Time) error {
	return m.cancelFn(ctx, userID, date)
}
func (m *mockRequestService) List(ctx context.Context, userID string, from time.Time) ([]models.DailyRequest, error) {
	return m.listFn(ctx, userID, from)
}
func (m *mockRequestService) Assignment(ctx context.Context, userID string, date time.Time) (*service.Assignment, error) {
	return m.assignmentFn(ctx, userID, date)
}

// --- Mock InventoryService ---

type mockInventory struct {
	listFn func(ctx context.Context) ([]service.BusView, error)
	getFn  func(ctx context.Context, busID string, date time.Time) (*service.BusView, error)
}

func (m *mockInventory) ListBuses(ctx context.Context) ([]service.BusView, error) {
	return m.listFn(ctx)
}
func (m *mockInventory) GetBus(ctx context.Context, busID string, date time.Time) (*service.BusView, error) {
	return m.getFn(ctx, busID, date)
}
