package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"vehicle_parking/internal/domain"
	"vehicle_parking/internal/repository/memory"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestParkingCost(t *testing.T) {
	start := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)

	hours, cost := ParkingCost(start, start.Add(2*time.Hour+59*time.Minute), 10)
	assert.Equal(t, int64(2), hours)
	assert.Equal(t, 20.0, cost)

	hours, cost = ParkingCost(start, start.Add(59*time.Minute), 10)
	assert.Zero(t, hours)
	assert.Zero(t, cost)

	_, cost = ParkingCost(start, start.Add(-time.Hour), 10)
	assert.Zero(t, cost)
}

func TestBookFlipsOneSpot(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	lot := env.createLot(t, "Central", 10, 3)

	res, err := env.reservations.Book(ctx, env.alice, lot.ID, "ka-01 ab 1234")
	require.NoError(t, err)
	assert.True(t, res.IsOpen())
	assert.False(t, res.ParkingCost.Valid)
	assert.Equal(t, "KA01AB1234", res.VehicleNo)
	assert.Equal(t, env.clock.Now(), res.StartTime)
	assert.Equal(t, domain.SpotCounts{Available: 2, Occupied: 1}, env.counts(t, lot.ID))

	spot, err := env.parking.GetParkingSpotByID(ctx, int(res.SpotID.Int64))
	require.NoError(t, err)
	assert.Equal(t, domain.SpotOccupied, spot.Status)
	assert.Contains(t, env.events.types(), domain.EventReservationBooked)
}

func TestBookLotFullIsNoOp(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	lot := env.createLot(t, "Tiny", 10, 1)

	_, err := env.reservations.Book(ctx, env.alice, lot.ID, "KA01AB1234")
	require.NoError(t, err)

	_, err = env.reservations.Book(ctx, env.bob, lot.ID, "KA02CD5678")
	assert.ErrorIs(t, err, ErrLotFull)
	assert.ErrorIs(t, err, ErrConflict)
	assert.Equal(t, domain.SpotCounts{Occupied: 1}, env.counts(t, lot.ID))

	views, err := env.store.Reservations().FindByUserID(ctx, env.bob.UserID)
	require.NoError(t, err)
	assert.Empty(t, views)
}

func TestBookValidatesInputAndRole(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	lot := env.createLot(t, "Central", 10, 1)

	_, err := env.reservations.Book(ctx, env.alice, lot.ID, "??")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = env.reservations.Book(ctx, env.admin, lot.ID, "KA01AB1234")
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = env.reservations.Book(ctx, env.alice, 999, "KA01AB1234")
	assert.ErrorIs(t, err, ErrLotNotFound)

	assert.Equal(t, domain.SpotCounts{Available: 1}, env.counts(t, lot.ID))
}

func TestReleaseBillsWholeHours(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	lot := env.createLot(t, "Central", 10, 2)

	res, err := env.reservations.Book(ctx, env.alice, lot.ID, "KA01AB1234")
	require.NoError(t, err)
	env.clock.Advance(2*time.Hour + 59*time.Minute)

	out, err := env.reservations.Release(ctx, env.alice, res.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), out.DurationHours)
	assert.Equal(t, 20.0, out.Cost)
	assert.False(t, out.Reservation.IsOpen())
	assert.Equal(t, env.clock.Now(), out.Reservation.EndTime.Time)
	assert.Equal(t, 20.0, out.Reservation.ParkingCost.Float64)
	assert.Equal(t, domain.SpotCounts{Available: 2}, env.counts(t, lot.ID))

	_, err = env.reservations.Release(ctx, env.alice, res.ID)
	assert.ErrorIs(t, err, ErrReservationClosed)
}

func TestReleaseByNonOwnerIsNoOp(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	lot := env.createLot(t, "Central", 10, 1)

	res, err := env.reservations.Book(ctx, env.alice, lot.ID, "KA01AB1234")
	require.NoError(t, err)

	_, err = env.reservations.Release(ctx, env.bob, res.ID)
	assert.ErrorIs(t, err, ErrNotOwner)
	assert.Equal(t, domain.SpotCounts{Occupied: 1}, env.counts(t, lot.ID))

	still, err := env.reservations.GetReservation(ctx, env.alice, res.ID)
	require.NoError(t, err)
	assert.True(t, still.IsOpen())

	_, err = env.reservations.Release(ctx, env.alice, 999)
	assert.ErrorIs(t, err, ErrReservationNotFound)
}

func TestBookReleaseRoundTripRestoresState(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	lot := env.createLot(t, "Central", 10, 3)
	before := env.counts(t, lot.ID)

	res, err := env.reservations.Book(ctx, env.alice, lot.ID, "KA01AB1234")
	require.NoError(t, err)
	_, err = env.reservations.Release(ctx, env.alice, res.ID)
	require.NoError(t, err)

	assert.Equal(t, before, env.counts(t, lot.ID))
	_, err = env.reservations.EstimateCost(ctx, env.admin, int(res.SpotID.Int64))
	assert.ErrorIs(t, err, ErrNoActiveReservation)
}

func TestEstimateCost(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	lot := env.createLot(t, "Central", 12, 1)

	res, err := env.reservations.Book(ctx, env.alice, lot.ID, "KA01AB1234")
	require.NoError(t, err)
	env.clock.Advance(90 * time.Minute)

	cost, err := env.reservations.EstimateCost(ctx, env.alice, int(res.SpotID.Int64))
	require.NoError(t, err)
	assert.Equal(t, 12.0, cost)

	_, err = env.reservations.EstimateCost(ctx, env.bob, int(res.SpotID.Int64))
	assert.ErrorIs(t, err, ErrNotOwner)
}

func TestConcurrentBookersOneSpot(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	lot := env.createLot(t, "Tiny", 10, 1)

	const bookers = 16
	actors := make([]domain.Actor, bookers)
	for i := range actors {
		actors[i] = env.register(t, fmt.Sprintf("user%d@example.com", i))
	}

	var wg sync.WaitGroup
	errs := make([]error, bookers)
	for i := 0; i < bookers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = env.reservations.Book(ctx, actors[i], lot.ID, "KA01AB1234")
		}(i)
	}
	wg.Wait()

	var ok, full int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, ErrLotFull), errors.Is(err, ErrDataIntegrityRace):
			full++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, bookers-1, full)
	assert.Equal(t, domain.SpotCounts{Occupied: 1}, env.counts(t, lot.ID))
}

type mockLocker struct {
	mock.Mock
}

func (m *mockLocker) Lock(ctx context.Context, key string) (func(), error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(func()), args.Error(1)
}

func TestBookReportsBusyLot(t *testing.T) {
	store := memory.NewStore()
	locker := new(mockLocker)
	locker.On("Lock", mock.Anything, "parking:lot:1").Return(nil, errors.New("timeout"))

	parking := NewParkingService(store.ParkingLots(), store.ParkingSpots(), store.Reservations(), locker, nil, nil, zerolog.Nop())
	svc := NewReservationService(store.ParkingLots(), store.ParkingSpots(), store.Reservations(), parking, locker, nil, nil, zerolog.Nop())

	_, err := svc.Book(context.Background(), domain.Actor{UserID: 5}, 1, "KA01AB1234")
	assert.ErrorIs(t, err, ErrLotBusy)
	assert.ErrorIs(t, err, ErrDataIntegrityRace)
	locker.AssertExpectations(t)
}

func TestUserDashboard(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	lot := env.createLot(t, "Central", 10, 2)

	first, err := env.reservations.Book(ctx, env.alice, lot.ID, "KA01AB1234")
	require.NoError(t, err)
	env.clock.Advance(time.Hour)
	second, err := env.reservations.Book(ctx, env.alice, lot.ID, "KA01AB9999")
	require.NoError(t, err)

	dash, err := env.reservations.UserDashboard(ctx, env.alice, "")
	require.NoError(t, err)
	assert.Len(t, dash.ParkingLots, 1)
	require.Len(t, dash.Reservations, 2)
	assert.Equal(t, second.ID, dash.Reservations[0].ID)
	assert.Equal(t, first.ID, dash.Reservations[1].ID)
	assert.Equal(t, "Central", dash.Reservations[0].LocationName)

	preview, err := env.reservations.PreviewBooking(ctx, env.bob, lot.ID)
	assert.ErrorIs(t, err, ErrLotFull)
	assert.Nil(t, preview)
}
