package repository

import (
	"context"
	"errors"
	"time"

	"vehicle_parking/internal/domain"
)

var ErrNotFound = errors.New("record not found")
var ErrDuplicateEntry = errors.New("record already exists")
var ErrNoActiveReservation = errors.New("no open reservation for the given spot")
var ErrNoAvailableSpot = errors.New("no available spot in lot")
var ErrSpotClaimRace = errors.New("spot was claimed by a concurrent booking")
var ErrSpotOccupied = errors.New("spot is occupied")
var ErrLotHasOccupiedSpots = errors.New("lot has occupied spots")
var ErrReservationClosed = errors.New("reservation already closed")

// DeletedLotName labels usage rows whose lot no longer exists.
const DeletedLotName = "Deleted lot"

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	FindByID(ctx context.Context, id int) (*domain.User, error)
	FindAll(ctx context.Context) ([]domain.User, error)
}

type ParkingLotRepository interface {
	// Create inserts the lot and lot.Capacity available spots in one transaction.
	Create(ctx context.Context, lot *domain.ParkingLot) (*domain.ParkingLot, error)
	FindByID(ctx context.Context, id int) (*domain.ParkingLot, error)
	FindAll(ctx context.Context) ([]domain.ParkingLot, error)
	Search(ctx context.Context, filter domain.LotSearchFilter) ([]domain.ParkingLot, error)
	// Update writes metadata only; capacity and spots are untouched.
	Update(ctx context.Context, lot *domain.ParkingLot) (*domain.ParkingLot, error)
	// DeleteWithSpots removes every spot of the lot and then the lot itself.
	// It fails with ErrLotHasOccupiedSpots without deleting anything if a spot is occupied.
	DeleteWithSpots(ctx context.Context, id int) error
}

type ParkingSpotRepository interface {
	FindByID(ctx context.Context, id int) (*domain.ParkingSpot, error)
	// FindByLotID returns spots in creation order.
	FindByLotID(ctx context.Context, lotID int) ([]domain.ParkingSpot, error)
	FindFirstAvailableByLotID(ctx context.Context, lotID int) (*domain.ParkingSpot, error)
	UpdateStatus(ctx context.Context, id int, status domain.SpotStatus) error
	// Delete removes an available spot and decrements its lot's capacity.
	// Occupied spots yield ErrSpotOccupied.
	Delete(ctx context.Context, id int) error
	CountByLot(ctx context.Context) (map[int]domain.SpotCounts, error)
}

type ReservationRepository interface {
	// Book claims the first available spot of lotID and inserts the open
	// reservation in one transaction. r.SpotID and r.LotID are filled in.
	Book(ctx context.Context, lotID int, r *domain.Reservation) (*domain.Reservation, error)
	FindByID(ctx context.Context, id int) (*domain.Reservation, error)
	FindOpenBySpotID(ctx context.Context, spotID int) (*domain.Reservation, error)
	// Close stores end time and cost and frees the spot in one transaction.
	Close(ctx context.Context, id int, endTime time.Time, cost float64) (*domain.Reservation, error)
	FindByUserID(ctx context.Context, userID int) ([]domain.ReservationView, error)
	RevenueByLot(ctx context.Context) (map[int]float64, error)
	UsageByLocation(ctx context.Context, userID int) ([]domain.UsageEntry, error)
}
