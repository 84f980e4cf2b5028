package service

import (
	"context"
	"sync"
	"time"

	"github.com/eazyparking/parking-bookings/internal/domain"
	"github.com/eazyparking/parking-bookings/internal/platform/payments"
)

// ---------- Mocks ----------

type mockLotRepo struct {
	mu   sync.Mutex
	lots map[int64]*domain.ParkingLot
}

func newMockLotRepo(lots ...*domain.ParkingLot) *mockLotRepo {
	m := &mockLotRepo{lots: make(map[int64]*domain.ParkingLot)}
	for _, l := range lots {
		m.lots[l.ID] = l
	}
	return m
}

func (m *mockLotRepo) Create(_ context.Context, in *domain.ParkingLotCreateReq) (*domain.ParkingLot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := int64(len(m.lots) + 1)
	lot := &domain.ParkingLot{ID: id, Location: in.Location, Price: in.Price, TotalSlot: in.TotalSlot}
	m.lots[id] = lot
	return lot, nil
}

func (m *mockLotRepo) GetByID(_ context.Context, id int64) (*domain.ParkingLot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	lot, ok := m.lots[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *lot
	return &cp, nil
}

func (m *mockLotRepo) List(_ context.Context) ([]domain.ParkingLot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.ParkingLot
	for _, l := range m.lots {
		out = append(out, *l)
	}
	return out, nil
}

func (m *mockLotRepo) Update(_ context.Context, id int64, _ domain.ParkingLotPatch) (*domain.ParkingLot, error) {
	return m.GetByID(context.Background(), id)
}

func (m *mockLotRepo) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.lots, id)
	return nil
}

func (m *mockLotRepo) Reserve(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reserveLocked(id)
}

func (m *mockLotRepo) reserveLocked(id int64) error {
	lot, ok := m.lots[id]
	if !ok {
		return domain.ErrNotFound
	}
	if lot.BookedSlot >= lot.TotalSlot {
		return domain.ErrCapacityExceeded
	}
	lot.BookedSlot++
	return nil
}

func (m *mockLotRepo) Release(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	lot, ok := m.lots[id]
	if !ok {
		return domain.ErrNotFound
	}
	if lot.BookedSlot > 0 {
		lot.BookedSlot--
	}
	return nil
}

func (m *mockLotRepo) booked(id int64) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lots[id].BookedSlot
}

type mockBookingRepo struct {
	mu       sync.Mutex
	lots     *mockLotRepo
	nextID   int64
	bookings map[int64]*domain.Booking
	vehicles *mockVehicleRepo
	consumed map[string]bool
	details  []domain.BookingDetail
}

func newMockBookingRepo(lots *mockLotRepo, vehicles *mockVehicleRepo) *mockBookingRepo {
	return &mockBookingRepo{
		lots:     lots,
		nextID:   1,
		bookings: make(map[int64]*domain.Booking),
		vehicles: vehicles,
		consumed: make(map[string]bool),
	}
}

func (m *mockBookingRepo) createLocked(in *domain.BookingCreateReq, bookRef string) (*domain.Booking, error) {
	m.lots.mu.Lock()
	err := m.lots.reserveLocked(in.ParkingLotID)
	var price int64
	if err == nil {
		// Snapshotted at creation, like the INSERT's price subselect.
		price = m.lots.lots[in.ParkingLotID].Price
	}
	m.lots.mu.Unlock()
	if err != nil {
		return nil, err
	}

	vehicleID := m.vehicles.add(in)
	b := &domain.Booking{
		ID:           m.nextID,
		BookRef:      bookRef,
		UserID:       in.UserID,
		ParkingLotID: in.ParkingLotID,
		VehicleID:    vehicleID,
		Amount:       price,
		PaymentID:    in.PaymentID,
		CreatedAt:    time.Now(),
	}
	m.nextID++
	m.bookings[b.ID] = b
	m.vehicles.link(vehicleID, b.ID, in.ParkingLotID)
	return b, nil
}

func (m *mockBookingRepo) Create(_ context.Context, in *domain.BookingCreateReq, bookRef string) (*domain.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.createLocked(in, bookRef)
}

func (m *mockBookingRepo) CreateConsumingToken(_ context.Context, jti string, in *domain.BookingCreateReq, bookRef string) (*domain.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.consumed[jti] {
		return nil, domain.ErrTokenAlreadyUsed
	}
	b, err := m.createLocked(in, bookRef)
	if err != nil {
		// Transaction semantics: a failed create leaves the token
		// unconsumed.
		return nil, err
	}
	m.consumed[jti] = true
	return b, nil
}

func (m *mockBookingRepo) GetByID(_ context.Context, id int64) (*domain.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return b, nil
}

func (m *mockBookingRepo) ListForUser(_ context.Context, userID int64, _, _ int) ([]domain.BookingDetail, error) {
	var out []domain.BookingDetail
	for _, d := range m.details {
		if d.UserID == userID {
			out = append(out, d)
		}
	}
	return out, nil
}

func (m *mockBookingRepo) ListForAdmin(_ context.Context, _ domain.BookingFilter) ([]domain.BookingDetail, error) {
	return m.details, nil
}

func (m *mockBookingRepo) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.bookings)
}

type mockVehicleRecord struct {
	vehicle   domain.Vehicle
	bookingID int64
	lotID     int64
}

type mockVehicleRepo struct {
	mu       sync.Mutex
	lots     *mockLotRepo
	nextID   int64
	vehicles map[int64]*mockVehicleRecord
}

func newMockVehicleRepo(lots *mockLotRepo) *mockVehicleRepo {
	return &mockVehicleRepo{lots: lots, nextID: 1, vehicles: make(map[int64]*mockVehicleRecord)}
}

func (m *mockVehicleRepo) add(in *domain.BookingCreateReq) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextID
	m.nextID++
	m.vehicles[id] = &mockVehicleRecord{
		vehicle: domain.Vehicle{
			ID:                 id,
			RegistrationNumber: in.RegistrationNumber,
			CompanyName:        in.CompanyName,
			CategoryID:         in.CategoryID,
			InTime:             in.InTime,
			Status:             domain.VehicleUpcoming,
		},
	}
	return id
}

func (m *mockVehicleRepo) link(vehicleID, bookingID, lotID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.vehicles[vehicleID].bookingID = bookingID
	m.vehicles[vehicleID].lotID = lotID
}

func (m *mockVehicleRepo) GetByID(_ context.Context, id int64) (*domain.Vehicle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.vehicles[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := rec.vehicle
	return &cp, nil
}

func (m *mockVehicleRepo) transition(id int64, from, to domain.VehicleStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.vehicles[id]
	if !ok {
		return domain.ErrNotFound
	}
	if rec.vehicle.Status != from {
		return domain.ErrInvalidState
	}
	rec.vehicle.Status = to
	return nil
}

func (m *mockVehicleRepo) CheckIn(_ context.Context, id int64) error {
	return m.transition(id, domain.VehicleUpcoming, domain.VehicleIn)
}

func (m *mockVehicleRepo) CheckOut(_ context.Context, id int64) error {
	if err := m.transition(id, domain.VehicleIn, domain.VehicleOut); err != nil {
		return err
	}
	m.mu.Lock()
	now := time.Now()
	m.vehicles[id].vehicle.OutTime = &now
	m.mu.Unlock()
	return nil
}

func (m *mockVehicleRepo) Settle(ctx context.Context, id int64, remark string) error {
	if err := m.transition(id, domain.VehicleOut, domain.VehicleSettled); err != nil {
		return err
	}
	m.mu.Lock()
	m.vehicles[id].vehicle.Remark = remark
	lotID := m.vehicles[id].lotID
	m.mu.Unlock()
	return m.lots.Release(ctx, lotID)
}

func (m *mockVehicleRepo) ListByStatus(_ context.Context, status domain.VehicleStatus, _, _ int) ([]domain.Vehicle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Vehicle
	for _, rec := range m.vehicles {
		if rec.vehicle.Status == status {
			out = append(out, rec.vehicle)
		}
	}
	return out, nil
}

type mockUserRepo struct {
	users map[int64]*domain.User
}

func newMockUserRepo(users ...*domain.User) *mockUserRepo {
	m := &mockUserRepo{users: make(map[int64]*domain.User)}
	for _, u := range users {
		m.users[u.ID] = u
	}
	return m
}

func (m *mockUserRepo) Create(_ context.Context, u *domain.User) (*domain.User, error) {
	for _, existing := range m.users {
		if existing.Email == u.Email && existing.Role == u.Role {
			return nil, domain.ErrConflict
		}
	}
	u.ID = int64(len(m.users) + 1)
	u.CreatedAt = time.Now()
	m.users[u.ID] = u
	return u, nil
}

func (m *mockUserRepo) FindByID(_ context.Context, id int64) (*domain.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return u, nil
}

func (m *mockUserRepo) FindByEmail(_ context.Context, email string, role domain.Role) (*domain.User, error) {
	for _, u := range m.users {
		if u.Email == email && u.Role == role {
			return u, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockUserRepo) List(_ context.Context, role domain.Role, _, _ int) ([]domain.User, error) {
	var out []domain.User
	for _, u := range m.users {
		if u.Role == role {
			out = append(out, *u)
		}
	}
	return out, nil
}

type mockCategoryRepo struct {
	cats map[int64]*domain.VehicleCategory
}

func newMockCategoryRepo(cats ...*domain.VehicleCategory) *mockCategoryRepo {
	m := &mockCategoryRepo{cats: make(map[int64]*domain.VehicleCategory)}
	for _, c := range cats {
		m.cats[c.ID] = c
	}
	return m
}

func (m *mockCategoryRepo) Create(_ context.Context, name string) (*domain.VehicleCategory, error) {
	c := &domain.VehicleCategory{ID: int64(len(m.cats) + 1), Name: name}
	m.cats[c.ID] = c
	return c, nil
}

func (m *mockCategoryRepo) GetByID(_ context.Context, id int64) (*domain.VehicleCategory, error) {
	c, ok := m.cats[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return c, nil
}

func (m *mockCategoryRepo) List(_ context.Context) ([]domain.VehicleCategory, error) {
	var out []domain.VehicleCategory
	for _, c := range m.cats {
		out = append(out, *c)
	}
	return out, nil
}

func (m *mockCategoryRepo) Rename(_ context.Context, id int64, name string) (*domain.VehicleCategory, error) {
	c, ok := m.cats[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	c.Name = name
	return c, nil
}

func (m *mockCategoryRepo) Delete(_ context.Context, id int64) error {
	delete(m.cats, id)
	return nil
}

type mockEventBus struct {
	mu       sync.Mutex
	subjects []string
}

func (m *mockEventBus) Publish(_ context.Context, subject string, _ interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subjects = append(m.subjects, subject)
	return nil
}

func (m *mockEventBus) Close() error { return nil }

func (m *mockEventBus) published(subject string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.subjects {
		if s == subject {
			return true
		}
	}
	return false
}

type mockProvider struct {
	mu       sync.Mutex
	sessions []payments.CreateSessionInput
	err      error
}

func (m *mockProvider) CreateCheckoutSession(_ context.Context, in payments.CreateSessionInput) (*payments.CheckoutSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	m.sessions = append(m.sessions, in)
	return &payments.CheckoutSession{ID: "cs_test_1", URL: "https://checkout.example/cs_test_1"}, nil
}

func (m *mockProvider) ParseWebhook(payload []byte, _ string) (*payments.WebhookResult, error) {
	return &payments.WebhookResult{SessionID: "cs_test_1", Token: string(payload), Completed: true}, nil
}
