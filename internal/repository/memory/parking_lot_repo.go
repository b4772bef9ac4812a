package memory

import (
	"context"
	"sort"
	"strings"

	"vehicle_parking/internal/domain"
	"vehicle_parking/internal/repository"
)

type parkingLotRepository struct {
	s *Store
}

func (r *parkingLotRepository) Create(ctx context.Context, lot *domain.ParkingLot) (*domain.ParkingLot, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.nextLotID++
	now := r.s.now()
	lot.ID = r.s.nextLotID
	lot.CreatedAt = now
	lot.UpdatedAt = now
	lot.Spots = nil
	r.s.lots[lot.ID] = *lot

	for i := 0; i < lot.Capacity; i++ {
		r.s.nextSpotID++
		r.s.spots[r.s.nextSpotID] = domain.ParkingSpot{
			ID:        r.s.nextSpotID,
			LotID:     lot.ID,
			Status:    domain.SpotAvailable,
			CreatedAt: now,
			UpdatedAt: now,
		}
	}
	return lot, nil
}

func (r *parkingLotRepository) FindByID(ctx context.Context, id int) (*domain.ParkingLot, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	lot, ok := r.s.lots[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &lot, nil
}

func (r *parkingLotRepository) FindAll(ctx context.Context) ([]domain.ParkingLot, error) {
	return r.Search(ctx, domain.LotSearchFilter{})
}

func (r *parkingLotRepository) Search(ctx context.Context, filter domain.LotSearchFilter) ([]domain.ParkingLot, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	needle := strings.ToLower(filter.NameContains)
	lots := make([]domain.ParkingLot, 0)
	for _, lot := range r.s.lots {
		if filter.PostalCode != nil && lot.PostalCode != *filter.PostalCode {
			continue
		}
		if needle != "" && !strings.Contains(strings.ToLower(lot.Name), needle) {
			continue
		}
		lots = append(lots, lot)
	}
	sort.Slice(lots, func(i, j int) bool { return lots[i].ID < lots[j].ID })
	return lots, nil
}

func (r *parkingLotRepository) Update(ctx context.Context, lot *domain.ParkingLot) (*domain.ParkingLot, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored, ok := r.s.lots[lot.ID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	stored.Name = lot.Name
	stored.PricePerHour = lot.PricePerHour
	stored.Address = lot.Address
	stored.PostalCode = lot.PostalCode
	stored.UpdatedAt = r.s.now()
	r.s.lots[lot.ID] = stored
	return &stored, nil
}

func (r *parkingLotRepository) DeleteWithSpots(ctx context.Context, id int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.lots[id]; !ok {
		return repository.ErrNotFound
	}
	var spotIDs []int
	for _, spot := range r.s.spots {
		if spot.LotID != id {
			continue
		}
		if spot.Status == domain.SpotOccupied {
			return repository.ErrLotHasOccupiedSpots
		}
		spotIDs = append(spotIDs, spot.ID)
	}
	for _, spotID := range spotIDs {
		r.s.deleteSpotLocked(spotID)
	}
	for resID, res := range r.s.reservations {
		if res.LotID.Valid && int(res.LotID.Int64) == id {
			res.LotID.Valid = false
			res.LotID.Int64 = 0
			r.s.reservations[resID] = res
		}
	}
	delete(r.s.lots, id)
	return nil
}
