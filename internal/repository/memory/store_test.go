package memory

import (
	"context"
	"testing"
	"time"

	"vehicle_parking/internal/domain"
	"vehicle_parking/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedLot(t *testing.T, s *Store, name string, capacity int) *domain.ParkingLot {
	t.Helper()
	lot, err := s.ParkingLots().Create(context.Background(), &domain.ParkingLot{
		Name: name, PricePerHour: 10, Address: "1 Main St", PostalCode: 560001, Capacity: capacity,
	})
	require.NoError(t, err)
	return lot
}

func TestCreateLotCreatesSpotsInOrder(t *testing.T) {
	s := NewStore()
	lot := seedLot(t, s, "Central", 3)

	spots, err := s.ParkingSpots().FindByLotID(context.Background(), lot.ID)
	require.NoError(t, err)
	require.Len(t, spots, 3)
	for i, spot := range spots {
		assert.Equal(t, domain.SpotAvailable, spot.Status)
		if i > 0 {
			assert.Greater(t, spot.ID, spots[i-1].ID)
		}
	}
}

func TestUserCreateRejectsDuplicateHandle(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	_, err := s.Users().Create(ctx, &domain.User{Username: "a@x.com"})
	require.NoError(t, err)
	_, err = s.Users().Create(ctx, &domain.User{Username: "a@x.com"})
	assert.ErrorIs(t, err, repository.ErrDuplicateEntry)
}

func TestBookAndCloseRoundTrip(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	lot := seedLot(t, s, "Central", 2)
	start := time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC)

	res, err := s.Reservations().Book(ctx, lot.ID, &domain.Reservation{UserID: 7, VehicleNo: "KA01AB1234", StartTime: start})
	require.NoError(t, err)
	require.True(t, res.SpotID.Valid)

	spot, err := s.ParkingSpots().FindByID(ctx, int(res.SpotID.Int64))
	require.NoError(t, err)
	assert.Equal(t, domain.SpotOccupied, spot.Status)

	open, err := s.Reservations().FindOpenBySpotID(ctx, spot.ID)
	require.NoError(t, err)
	assert.Equal(t, res.ID, open.ID)

	closed, err := s.Reservations().Close(ctx, res.ID, start.Add(2*time.Hour), 20)
	require.NoError(t, err)
	assert.False(t, closed.IsOpen())
	assert.Equal(t, 20.0, closed.ParkingCost.Float64)

	spot, err = s.ParkingSpots().FindByID(ctx, spot.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SpotAvailable, spot.Status)

	_, err = s.Reservations().Close(ctx, res.ID, start.Add(3*time.Hour), 30)
	assert.ErrorIs(t, err, repository.ErrReservationClosed)

	_, err = s.Reservations().FindOpenBySpotID(ctx, spot.ID)
	assert.ErrorIs(t, err, repository.ErrNoActiveReservation)
}

func TestBookFullAndMissingLot(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	lot := seedLot(t, s, "Tiny", 1)

	_, err := s.Reservations().Book(ctx, lot.ID, &domain.Reservation{UserID: 1, VehicleNo: "A1", StartTime: time.Now()})
	require.NoError(t, err)

	_, err = s.Reservations().Book(ctx, lot.ID, &domain.Reservation{UserID: 2, VehicleNo: "B2", StartTime: time.Now()})
	assert.ErrorIs(t, err, repository.ErrNoAvailableSpot)

	_, err = s.Reservations().Book(ctx, 999, &domain.Reservation{UserID: 2, VehicleNo: "B2", StartTime: time.Now()})
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestDeleteRules(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	lot := seedLot(t, s, "Central", 2)

	res, err := s.Reservations().Book(ctx, lot.ID, &domain.Reservation{UserID: 1, VehicleNo: "A1", StartTime: time.Now()})
	require.NoError(t, err)
	occupiedID := int(res.SpotID.Int64)

	assert.ErrorIs(t, s.ParkingSpots().Delete(ctx, occupiedID), repository.ErrSpotOccupied)
	assert.ErrorIs(t, s.ParkingLots().DeleteWithSpots(ctx, lot.ID), repository.ErrLotHasOccupiedSpots)
	assert.ErrorIs(t, s.ParkingSpots().Delete(ctx, 12345), repository.ErrNotFound)

	spots, err := s.ParkingSpots().FindByLotID(ctx, lot.ID)
	require.NoError(t, err)
	assert.Len(t, spots, 2)

	_, err = s.Reservations().Close(ctx, res.ID, time.Now(), 10)
	require.NoError(t, err)
	require.NoError(t, s.ParkingLots().DeleteWithSpots(ctx, lot.ID))

	_, err = s.ParkingLots().FindByID(ctx, lot.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	spots, err = s.ParkingSpots().FindByLotID(ctx, lot.ID)
	require.NoError(t, err)
	assert.Empty(t, spots)

	kept, err := s.Reservations().FindByID(ctx, res.ID)
	require.NoError(t, err)
	assert.False(t, kept.SpotID.Valid)
	assert.False(t, kept.LotID.Valid)

	usage, err := s.Reservations().UsageByLocation(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []domain.UsageEntry{{LocationName: repository.DeletedLotName, Count: 1}}, usage)
}

func TestSearchLots(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	seedLot(t, s, "Central Mall", 1)
	seedLot(t, s, "Airport", 1)
	pin := 560001

	lots, err := s.ParkingLots().Search(ctx, domain.LotSearchFilter{NameContains: "cent"})
	require.NoError(t, err)
	require.Len(t, lots, 1)
	assert.Equal(t, "Central Mall", lots[0].Name)

	lots, err = s.ParkingLots().Search(ctx, domain.LotSearchFilter{PostalCode: &pin})
	require.NoError(t, err)
	assert.Len(t, lots, 2)
}

func TestCountAndRevenueByLot(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	a := seedLot(t, s, "A", 2)
	b := seedLot(t, s, "B", 1)

	res, err := s.Reservations().Book(ctx, a.ID, &domain.Reservation{UserID: 1, VehicleNo: "A1", StartTime: time.Now()})
	require.NoError(t, err)
	_, err = s.Reservations().Close(ctx, res.ID, time.Now(), 40)
	require.NoError(t, err)
	_, err = s.Reservations().Book(ctx, b.ID, &domain.Reservation{UserID: 1, VehicleNo: "A1", StartTime: time.Now()})
	require.NoError(t, err)

	counts, err := s.ParkingSpots().CountByLot(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.SpotCounts{Available: 2}, counts[a.ID])
	assert.Equal(t, domain.SpotCounts{Occupied: 1}, counts[b.ID])

	revenue, err := s.Reservations().RevenueByLot(ctx)
	require.NoError(t, err)
	assert.Equal(t, 40.0, revenue[a.ID])
	assert.Equal(t, 0.0, revenue[b.ID])
}

func TestDeleteSpotKeepsCapacityInvariant(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	lot := seedLot(t, s, "Central", 3)

	spots, err := s.ParkingSpots().FindByLotID(ctx, lot.ID)
	require.NoError(t, err)
	require.NoError(t, s.ParkingSpots().Delete(ctx, spots[1].ID))

	got, err := s.ParkingLots().FindByID(ctx, lot.ID)
	require.NoError(t, err)
	counts, err := s.ParkingSpots().CountByLot(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Capacity)
	assert.Equal(t, got.Capacity, counts[lot.ID].Total())
}

func TestUpdateSpotStatus(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	lot := seedLot(t, s, "Central", 2)

	first, err := s.ParkingSpots().FindFirstAvailableByLotID(ctx, lot.ID)
	require.NoError(t, err)
	require.NoError(t, s.ParkingSpots().UpdateStatus(ctx, first.ID, domain.SpotOccupied))

	next, err := s.ParkingSpots().FindFirstAvailableByLotID(ctx, lot.ID)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, next.ID)

	assert.ErrorIs(t, s.ParkingSpots().UpdateStatus(ctx, 999, domain.SpotAvailable), repository.ErrNotFound)
}
