package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/Faheem12005/pathable-backend/internal/models"
	"gorm.io/gorm"
)

// memStore is an in-memory stand-in for the Postgres schema. Transactions
// are serialised and roll back by restoring a snapshot, which is enough to
// check the all-or-nothing behaviour of the services.
type memStore struct {
	txMu sync.Mutex
	mu   sync.Mutex

	users    map[string]*models.User
	members  []models.GroupMember
	buses    []models.Bus
	seats    map[string]*models.Seat
	requests map[string]*models.DailyRequest
	bookings []models.Booking
	locks    map[string]*models.DailyLock
	runs     map[string]*models.AllocationRun

	seq   int
	clock time.Time

	// failOn makes the named operation return an error once.
	failOn map[string]error
}

func newMemStore() *memStore {
	return &memStore{
		users:    map[string]*models.User{},
		seats:    map[string]*models.Seat{},
		requests: map[string]*models.DailyRequest{},
		locks:    map[string]*models.DailyLock{},
		runs:     map[string]*models.AllocationRun{},
		clock:    time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC),
		failOn:   map[string]error{},
	}
}

func (s *memStore) nextID(prefix string) string {
	s.seq++
	return fmt.Sprintf("%s-%03d", prefix, s.seq)
}

func (s *memStore) tick() time.Time {
	s.clock = s.clock.Add(time.Second)
	return s.clock
}

func (s *memStore) fail(op string) error {
	if err, ok := s.failOn[op]; ok {
		delete(s.failOn, op)
		return err
	}
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// --- fixtures ---

func (s *memStore) addUser(id string, lat, lng float64, days ...string) *models.User {
	mask, err := models.ParseDayMask(days)
	if err != nil {
		panic(err)
	}
	u := &models.User{ID: id, Name: "rider " + id, Email: id + "@example.com", HomeLat: lat, HomeLng: lng, DefaultDays: mask}
	s.users[id] = u
	return u
}

// addBus creates a bus whose route ends at (lat, lng) with the given seat labels.
func (s *memStore) addBus(id string, lat, lng float64, labels ...string) *models.Bus {
	route := &models.Route{ID: "route-" + id, POIName: "POI " + id, EndLat: lat, EndLng: lng}
	s.buses = append(s.buses, models.Bus{ID: id, RouteID: route.ID, Capacity: len(labels), CreatedAt: s.tick(), Route: route})
	for _, l := range labels {
		seatID := id + "-" + l
		s.seats[seatID] = &models.Seat{ID: seatID, BusID: id, SeatNumber: l, IsAvailable: true}
	}
	return &s.buses[len(s.buses)-1]
}

func (s *memStore) addMember(groupID, userID string) {
	s.members = append(s.members, models.GroupMember{GroupID: groupID, UserID: userID, JoinedAt: s.tick()})
}

func (s *memStore) addRequest(userID string, date time.Time, lat, lng float64, isDefault, modified bool) *models.DailyRequest {
	r := &models.DailyRequest{
		ID: s.nextID("req"), UserID: userID, Date: models.ServiceDate(date),
		RequestLat: lat, RequestLng: lng, IsDefaultDay: isDefault, IsModified: modified,
		Status: models.RequestPending, CreatedAt: s.tick(),
	}
	s.requests[r.ID] = r
	return r
}

func (s *memStore) takeSeat(seatID string) {
	s.seats[seatID].IsAvailable = false
}

func (s *memStore) lockDate(date time.Time) {
	now := s.clock
	s.locks[models.FormatDate(date)] = &models.DailyLock{ServiceDate: models.ServiceDate(date), IsLocked: true, LockedAt: &now}
}

func (s *memStore) requestFor(userID string, date time.Time) *models.DailyRequest {
	for _, r := range s.requests {
		if r.UserID == userID && r.Date.Equal(models.ServiceDate(date)) {
			return r
		}
	}
	return nil
}

func (s *memStore) seatLabel(seatID string) string {
	return s.seats[seatID].SeatNumber
}

// --- transactor ---

type snapshot struct {
	seats    map[string]models.Seat
	requests map[string]models.DailyRequest
	bookings []models.Booking
}

func (s *memStore) snapshot() snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := snapshot{seats: map[string]models.Seat{}, requests: map[string]models.DailyRequest{}, bookings: slices.Clone(s.bookings)}
	for k, v := range s.seats {
		snap.seats[k] = *v
	}
	for k, v := range s.requests {
		snap.requests[k] = *v
	}
	return snap
}

func (s *memStore) restore(snap snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seats = map[string]*models.Seat{}
	for k, v := range snap.seats {
		s.seats[k] = &v
	}
	s.requests = map[string]*models.DailyRequest{}
	for k, v := range snap.requests {
		s.requests[k] = &v
	}
	s.bookings = snap.bookings
}

type memTx struct{ s *memStore }

func (t memTx) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	t.s.txMu.Lock()
	defer t.s.txMu.Unlock()
	snap := t.s.snapshot()
	if err := fn(nil); err != nil {
		t.s.restore(snap)
		return err
	}
	return nil
}


// --- repositories ---

type memUsers struct{ s *memStore }

func (r memUsers) FindByID(ctx context.Context, tx *gorm.DB, id string) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *u
	return &cp, nil
}

func (r memUsers) FindByIDs(ctx context.Context, ids []string) ([]models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []models.User
	for _, id := range ids {
		if u, ok := r.s.users[id]; ok {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (r memUsers) FindByDefaultDay(ctx context.Context, day models.DayMask) ([]models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("users.FindByDefaultDay"); err != nil {
		return nil, err
	}
	var out []models.User
	for _, id := range slices.Sorted(maps.Keys(r.s.users)) {
		if u := r.s.users[id]; u.DefaultDays&day != 0 {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (r memUsers) Upsert(ctx context.Context, user *models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *user
	r.s.users[user.ID] = &cp
	return nil
}

type memGroups struct{ s *memStore }

func (r memGroups) FindByID(ctx context.Context, tx *gorm.DB, id string) (*models.Group, error) {
	if id == "ghost-group" {
		return nil, gorm.ErrRecordNotFound
	}
	return &models.Group{ID: id, MaxSize: 4}, nil
}

func (r memGroups) FindMembers(ctx context.Context, tx *gorm.DB, groupID string) ([]models.GroupMember, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []models.GroupMember
	for _, m := range r.s.members {
		if m.GroupID == groupID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r memGroups) FindGroupsWithPendingRequests(ctx context.Context, date time.Time) ([]string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	seen := map[string]bool{}
	for _, m := range r.s.members {
		for _, req := range r.s.requests {
			if req.UserID == m.UserID && req.Date.Equal(date) && req.Status == models.RequestPending {
				seen[m.GroupID] = true
			}
		}
	}
	return slices.Sorted(maps.Keys(seen)), nil
}

func (r memGroups) UpsertGroup(ctx context.Context, group *models.Group) error { return nil }

func (r memGroups) AddMember(ctx context.Context, member *models.GroupMember) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.members = append(r.s.members, *member)
	return nil
}

func (r memGroups) RemoveMember(ctx context.Context, groupID, userID string) error { return nil }

type memBuses struct{ s *memStore }

func (r memBuses) FindAll(ctx context.Context, tx *gorm.DB) ([]models.Bus, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return slices.Clone(r.s.buses), nil
}

func (r memBuses) FindByID(ctx context.Context, tx *gorm.DB, id string) (*models.Bus, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, b := range r.s.buses {
		if b.ID == id {
			return &b, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

type memSeats struct{ s *memStore }

// naturalSeatLess mirrors the ORDER BY used by the seat repository.
func naturalSeatLess(a, b models.Seat) int {
	if c := strings.Compare(a.SeatNumber[:1], b.SeatNumber[:1]); c != 0 {
		return c
	}
	if len(a.SeatNumber) != len(b.SeatNumber) {
		return len(a.SeatNumber) - len(b.SeatNumber)
	}
	return strings.Compare(a.SeatNumber, b.SeatNumber)
}

func (r memSeats) available(busID string) []models.Seat {
	var out []models.Seat
	for _, seat := range r.s.seats {
		if seat.BusID == busID && seat.IsAvailable {
			out = append(out, *seat)
		}
	}
	slices.SortFunc(out, naturalSeatLess)
	return out
}

func (r memSeats) FindFirstAvailableForUpdate(ctx context.Context, tx *gorm.DB, busID string) (*models.Seat, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("seats.FindFirstAvailableForUpdate"); err != nil {
		return nil, err
	}
	seats := r.available(busID)
	if len(seats) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return &seats[0], nil
}

func (r memSeats) FindAvailableForUpdate(ctx context.Context, tx *gorm.DB, busID string) ([]models.Seat, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.available(busID), nil
}

func (r memSeats) CountAvailable(ctx context.Context, busID string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return int64(len(r.available(busID))), nil
}

func (r memSeats) MarkUnavailable(ctx context.Context, tx *gorm.DB, seatIDs ...string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, id := range seatIDs {
		seat, ok := r.s.seats[id]
		if !ok || !seat.IsAvailable {
			return fmt.Errorf("seat %s no longer available", id)
		}
	}
	for _, id := range seatIDs {
		r.s.seats[id].IsAvailable = false
	}
	return nil
}

func (r memSeats) FindByBus(ctx context.Context, busID string) ([]models.Seat, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []models.Seat
	for _, seat := range r.s.seats {
		if seat.BusID == busID {
			out = append(out, *seat)
		}
	}
	slices.SortFunc(out, naturalSeatLess)
	return out, nil
}

func (r memSeats) FindByID(ctx context.Context, id string) (*models.Seat, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	seat, ok := r.s.seats[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *seat
	return &cp, nil
}

type memRequests struct{ s *memStore }

func (r memRequests) Create(ctx context.Context, tx *gorm.DB, req *models.DailyRequest) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.requests {
		if existing.UserID == req.UserID && existing.Date.Equal(req.Date) {
			return gorm.ErrDuplicatedKey
		}
	}
	if req.ID == "" {
		req.ID = r.s.nextID("req")
	}
	req.CreatedAt = r.s.tick()
	cp := *req
	r.s.requests[req.ID] = &cp
	return nil
}

func (r memRequests) InsertIgnoringExisting(ctx context.Context, reqs []models.DailyRequest) (int64, error) {
	var n int64
	for i := range reqs {
		err := r.Create(ctx, nil, &reqs[i])
		if err == gorm.ErrDuplicatedKey {
			continue
		}
		if err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

func (r memRequests) Update(ctx context.Context, tx *gorm.DB, req *models.DailyRequest) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *req
	r.s.requests[req.ID] = &cp
	return nil
}

func (r memRequests) Delete(ctx context.Context, tx *gorm.DB, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.requests, id)
	return nil
}

func (r memRequests) FindByUserAndDate(ctx context.Context, tx *gorm.DB, userID string, date time.Time) (*models.DailyRequest, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, req := range r.s.requests {
		if req.UserID == userID && req.Date.Equal(date) {
			cp := *req
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r memRequests) FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id string) (*models.DailyRequest, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	req, ok := r.s.requests[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *req
	return &cp, nil
}

func (r memRequests) sorted(keep func(*models.DailyRequest) bool) []models.DailyRequest {
	var out []models.DailyRequest
	for _, req := range r.s.requests {
		if keep(req) {
			out = append(out, *req)
		}
	}
	slices.SortFunc(out, func(a, b models.DailyRequest) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out
}

func (r memRequests) FindByUserFrom(ctx context.Context, userID string, from time.Time) ([]models.DailyRequest, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.sorted(func(req *models.DailyRequest) bool {
		return req.UserID == userID && !req.Date.Before(from)
	}), nil
}

func (r memRequests) FindPendingByDate(ctx context.Context, date time.Time) ([]models.DailyRequest, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("requests.FindPendingByDate"); err != nil {
		return nil, err
	}
	return r.sorted(func(req *models.DailyRequest) bool {
		return req.Date.Equal(date) && req.Status == models.RequestPending
	}), nil
}

func (r memRequests) FindPendingByGroupForUpdate(ctx context.Context, tx *gorm.DB, groupID string, date time.Time) ([]models.DailyRequest, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []models.DailyRequest
	for _, m := range r.s.members {
		if m.GroupID != groupID {
			continue
		}
		for _, req := range r.s.requests {
			if req.UserID == m.UserID && req.Date.Equal(date) && req.Status == models.RequestPending {
				out = append(out, *req)
			}
		}
	}
	return out, nil
}

func (r memRequests) MarkAllocated(ctx context.Context, tx *gorm.DB, id, busID, seatID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	req, ok := r.s.requests[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	req.Status = models.RequestAllocated
	req.AllocatedBusID = &busID
	req.AllocatedSeatID = &seatID
	return nil
}

func (r memRequests) MarkFailed(ctx context.Context, tx *gorm.DB, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	req, ok := r.s.requests[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	req.Status = models.RequestFailed
	return nil
}

type memBookings struct{ s *memStore }

func (r memBookings) Create(ctx context.Context, tx *gorm.DB, booking *models.Booking) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, b := range r.s.bookings {
		if b.Status == models.BookingConfirmed && b.Date.Equal(booking.Date) &&
			(b.UserID == booking.UserID || b.SeatID == booking.SeatID) {
			return gorm.ErrDuplicatedKey
		}
	}
	booking.ID = r.s.nextID("booking")
	booking.CreatedAt = r.s.tick()
	r.s.bookings = append(r.s.bookings, *booking)
	return nil
}

func (r memBookings) FindConfirmedByUserAndDate(ctx context.Context, tx *gorm.DB, userID string, date time.Time) (*models.Booking, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, b := range r.s.bookings {
		if b.UserID == userID && b.Date.Equal(date) && b.Status == models.BookingConfirmed {
			return &b, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r memBookings) FindByBusAndDate(ctx context.Context, busID string, date time.Time) ([]models.Booking, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []models.Booking
	for _, b := range r.s.bookings {
		if b.BusID == busID && b.Date.Equal(date) {
			out = append(out, b)
		}
	}
	return out, nil
}

type memLocks struct{ s *memStore }

func (r memLocks) FindByDate(ctx context.Context, tx *gorm.DB, date time.Time) (*models.DailyLock, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	l, ok := r.s.locks[models.FormatDate(date)]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *l
	return &cp, nil
}

func (r memLocks) Lock(ctx context.Context, date time.Time, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	key := models.FormatDate(date)
	if l, ok := r.s.locks[key]; ok {
		l.IsLocked = true
		return nil
	}
	r.s.locks[key] = &models.DailyLock{ServiceDate: date, IsLocked: true, LockedAt: &at}
	return nil
}

type memRuns struct{ s *memStore }

func (r memRuns) Create(ctx context.Context, run *models.AllocationRun) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	key := models.FormatDate(run.RunDate)
	if _, ok := r.s.runs[key]; ok {
		return gorm.ErrDuplicatedKey
	}
	run.ID = r.s.nextID("run")
	cp := *run
	r.s.runs[key] = &cp
	return nil
}

func (r memRuns) FindByDate(ctx context.Context, tx *gorm.DB, date time.Time) (*models.AllocationRun, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	run, ok := r.s.runs[models.FormatDate(date)]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *run
	return &cp, nil
}

func (r memRuns) FindByID(ctx context.Context, tx *gorm.DB, id string) (*models.AllocationRun, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, run := range r.s.runs {
		if run.ID == id {
			cp := *run
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r memRuns) Save(ctx context.Context, run *models.AllocationRun) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("runs.Save"); err != nil {
		return err
	}
	cp := *run
	r.s.runs[models.FormatDate(run.RunDate)] = &cp
	return nil
}

func (r memRuns) List(ctx context.Context, limit int) ([]models.AllocationRun, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []models.AllocationRun
	for _, key := range slices.Backward(slices.Sorted(maps.Keys(r.s.runs))) {
		if len(out) == limit {
			break
		}
		out = append(out, *r.s.runs[key])
	}
	return out, nil
}

// --- publisher ---

type recordingPublisher struct {
	mu   sync.Mutex
	keys []string
	err  error
}

func (p *recordingPublisher) Publish(routingKey string, payload any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.keys = append(p.keys, routingKey)
	return p.err
}

func (p *recordingPublisher) published() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.keys)
}

// --- wiring ---

type testEnv struct {
	store     *memStore
	publisher *recordingPublisher
	gate      LockGate
	deps      BookingDeps
}

func newTestEnv() *testEnv {
	s := newMemStore()
	pub := &recordingPublisher{}
	logger := discardLogger()
	gate := NewLockGate(memLocks{s}, memRuns{s}, pub, logger)
	return &testEnv{
		store:     s,
		publisher: pub,
		gate:      gate,
		deps: BookingDeps{
			Tx:        memTx{s},
			Gate:      gate,
			Matcher:   NewNearestEndpointMatcher(memBuses{s}),
			Seats:     memSeats{s},
			Buses:     memBuses{s},
			Requests:  memRequests{s},
			Bookings:  memBookings{s},
			Users:     memUsers{s},
			Groups:    memGroups{s},
			Publisher: pub,
			Logger:    logger,
		},
	}
}

func (e *testEnv) engine(workers int) AllocationEngine {
	s := e.store
	return NewAllocationEngine(EngineDeps{
		Runs:         memRuns{s},
		Requests:     memRequests{s},
		Groups:       memGroups{s},
		Materializer: NewMaterializer(memUsers{s}, memRequests{s}, e.deps.Logger),
		Individual:   NewIndividualBookingService(e.deps),
		Group:        NewGroupBookingService(e.deps),
		Publisher:    e.publisher,
		Logger:       e.deps.Logger,
		Workers:      workers,
	})
}
