// Package memory holds map-backed repositories. A single Store guards every
// relation with one mutex so multi-row operations are atomic like their SQL
// transactions.
package memory

import (
	"sync"
	"time"

	"vehicle_parking/internal/domain"
	"vehicle_parking/internal/repository"
)

type Store struct {
	mu sync.Mutex

	users        map[int]domain.User
	lots         map[int]domain.ParkingLot
	spots        map[int]domain.ParkingSpot
	reservations map[int]domain.Reservation

	nextUserID        int
	nextLotID         int
	nextSpotID        int
	nextReservationID int

	now func() time.Time
}

func NewStore() *Store {
	return &Store{
		users:        make(map[int]domain.User),
		lots:         make(map[int]domain.ParkingLot),
		spots:        make(map[int]domain.ParkingSpot),
		reservations: make(map[int]domain.Reservation),
		now:          func() time.Time { return time.Now().UTC() },
	}
}

func (s *Store) Users() repository.UserRepository               { return &userRepository{s: s} }
func (s *Store) ParkingLots() repository.ParkingLotRepository   { return &parkingLotRepository{s: s} }
func (s *Store) ParkingSpots() repository.ParkingSpotRepository { return &parkingSpotRepository{s: s} }
func (s *Store) Reservations() repository.ReservationRepository {
	return &reservationRepository{s: s}
}
