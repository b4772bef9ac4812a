package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"vehicle_parking/internal/domain"
	"vehicle_parking/internal/lock"
	"vehicle_parking/internal/repository/memory"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []domain.ParkingEvent
}

func (p *recordingPublisher) Publish(_ context.Context, e domain.ParkingEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) types() []domain.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]domain.EventType, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

type testEnv struct {
	store        *memory.Store
	clock        *fakeClock
	events       *recordingPublisher
	auth         *AuthService
	parking      *ParkingService
	reservations *ReservationService
	reports      *ReportService
	admin        domain.Actor
	alice        domain.Actor
	bob          domain.Actor
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := memory.NewStore()
	clock := newFakeClock()
	pub := &recordingPublisher{}
	locker := lock.NewLocalLocker()
	logger := zerolog.Nop()

	env := &testEnv{store: store, clock: clock, events: pub}
	env.auth = NewAuthService(store.Users(), "test-secret", time.Hour, logger)
	env.parking = NewParkingService(store.ParkingLots(), store.ParkingSpots(), store.Reservations(), locker, pub, clock.Now, logger)
	env.reservations = NewReservationService(store.ParkingLots(), store.ParkingSpots(), store.Reservations(), env.parking, locker, pub, clock.Now, logger)
	env.reports = NewReportService(store.ParkingLots(), store.ParkingSpots(), store.Reservations(), logger)

	ctx := context.Background()
	admin, err := env.auth.EnsureBootstrapAdmin(ctx, "admin@123gmail.com", "admin")
	require.NoError(t, err)
	env.admin = admin.Actor()
	env.alice = env.register(t, "alice@example.com")
	env.bob = env.register(t, "bob@example.com")
	return env
}

func (e *testEnv) register(t *testing.T, username string) domain.Actor {
	t.Helper()
	u, err := e.auth.Register(context.Background(), domain.RegisterUserInput{
		Username: username, Password: "secret", FullName: "Test User", Address: "1 Road", PostalCode: 560001,
	})
	require.NoError(t, err)
	return u.Actor()
}

func (e *testEnv) createLot(t *testing.T, name string, price float64, capacity int) *domain.ParkingLot {
	t.Helper()
	lot, err := e.parking.CreateParkingLot(context.Background(), e.admin, domain.ParkingLotInput{
		Name: name, PricePerHour: price, Address: "MG Road", PostalCode: 560001, Capacity: capacity,
	})
	require.NoError(t, err)
	return lot
}

func (e *testEnv) counts(t *testing.T, lotID int) domain.SpotCounts {
	t.Helper()
	counts, err := e.store.ParkingSpots().CountByLot(context.Background())
	require.NoError(t, err)
	return counts[lotID]
}
