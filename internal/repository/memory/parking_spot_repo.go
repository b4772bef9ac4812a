package memory

import (
	"context"
	"sort"

	"vehicle_parking/internal/domain"
	"vehicle_parking/internal/repository"
)

type parkingSpotRepository struct {
	s *Store
}

func (r *parkingSpotRepository) FindByID(ctx context.Context, id int) (*domain.ParkingSpot, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	spot, ok := r.s.spots[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &spot, nil
}

func (r *parkingSpotRepository) FindByLotID(ctx context.Context, lotID int) ([]domain.ParkingSpot, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	return r.s.spotsOfLotLocked(lotID), nil
}

func (r *parkingSpotRepository) FindFirstAvailableByLotID(ctx context.Context, lotID int) (*domain.ParkingSpot, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	spot, ok := r.s.firstAvailableLocked(lotID)
	if !ok {
		return nil, repository.ErrNoAvailableSpot
	}
	return &spot, nil
}

func (r *parkingSpotRepository) UpdateStatus(ctx context.Context, id int, status domain.SpotStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	spot, ok := r.s.spots[id]
	if !ok {
		return repository.ErrNotFound
	}
	spot.Status = status
	spot.UpdatedAt = r.s.now()
	r.s.spots[id] = spot
	return nil
}

func (r *parkingSpotRepository) Delete(ctx context.Context, id int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	spot, ok := r.s.spots[id]
	if !ok {
		return repository.ErrNotFound
	}
	if spot.Status == domain.SpotOccupied {
		return repository.ErrSpotOccupied
	}
	r.s.deleteSpotLocked(id)
	if lot, ok := r.s.lots[spot.LotID]; ok {
		lot.Capacity--
		lot.UpdatedAt = r.s.now()
		r.s.lots[lot.ID] = lot
	}
	return nil
}

func (r *parkingSpotRepository) CountByLot(ctx context.Context) (map[int]domain.SpotCounts, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	counts := make(map[int]domain.SpotCounts)
	for _, spot := range r.s.spots {
		c := counts[spot.LotID]
		if spot.Status == domain.SpotOccupied {
			c.Occupied++
		} else {
			c.Available++
		}
		counts[spot.LotID] = c
	}
	return counts, nil
}

func (s *Store) spotsOfLotLocked(lotID int) []domain.ParkingSpot {
	spots := make([]domain.ParkingSpot, 0)
	for _, spot := range s.spots {
		if spot.LotID == lotID {
			spots = append(spots, spot)
		}
	}
	sort.Slice(spots, func(i, j int) bool { return spots[i].ID < spots[j].ID })
	return spots
}

func (s *Store) firstAvailableLocked(lotID int) (domain.ParkingSpot, bool) {
	for _, spot := range s.spotsOfLotLocked(lotID) {
		if spot.Status == domain.SpotAvailable {
			return spot, true
		}
	}
	return domain.ParkingSpot{}, false
}

// deleteSpotLocked removes the spot and detaches closed reservations from it.
func (s *Store) deleteSpotLocked(id int) {
	for resID, res := range s.reservations {
		if res.SpotID.Valid && int(res.SpotID.Int64) == id {
			res.SpotID.Valid = false
			res.SpotID.Int64 = 0
			s.reservations[resID] = res
		}
	}
	delete(s.spots, id)
}
