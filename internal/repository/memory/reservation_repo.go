package memory

import (
	"context"
	"sort"
	"time"

	"vehicle_parking/internal/domain"
	"vehicle_parking/internal/repository"
)

type reservationRepository struct {
	s *Store
}

func (r *reservationRepository) Book(ctx context.Context, lotID int, res *domain.Reservation) (*domain.Reservation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.lots[lotID]; !ok {
		return nil, repository.ErrNotFound
	}
	spot, ok := r.s.firstAvailableLocked(lotID)
	if !ok {
		return nil, repository.ErrNoAvailableSpot
	}

	now := r.s.now()
	spot.Status = domain.SpotOccupied
	spot.UpdatedAt = now
	r.s.spots[spot.ID] = spot

	r.s.nextReservationID++
	res.ID = r.s.nextReservationID
	res.SpotID.SetValid(int64(spot.ID))
	res.LotID.SetValid(int64(lotID))
	res.StartTime = res.StartTime.UTC()
	res.CreatedAt = now
	res.UpdatedAt = now
	r.s.reservations[res.ID] = *res
	return res, nil
}

func (r *reservationRepository) FindByID(ctx context.Context, id int) (*domain.Reservation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	res, ok := r.s.reservations[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &res, nil
}

func (r *reservationRepository) FindOpenBySpotID(ctx context.Context, spotID int) (*domain.Reservation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, res := range r.s.reservations {
		if res.IsOpen() && res.SpotID.Valid && int(res.SpotID.Int64) == spotID {
			return &res, nil
		}
	}
	return nil, repository.ErrNoActiveReservation
}

func (r *reservationRepository) Close(ctx context.Context, id int, endTime time.Time, cost float64) (*domain.Reservation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	res, ok := r.s.reservations[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if !res.IsOpen() {
		return nil, repository.ErrReservationClosed
	}

	now := r.s.now()
	res.EndTime.SetValid(endTime.UTC())
	res.ParkingCost.SetValid(cost)
	res.UpdatedAt = now
	r.s.reservations[id] = res

	if res.SpotID.Valid {
		if spot, ok := r.s.spots[int(res.SpotID.Int64)]; ok {
			spot.Status = domain.SpotAvailable
			spot.UpdatedAt = now
			r.s.spots[spot.ID] = spot
		}
	}
	return &res, nil
}

func (r *reservationRepository) FindByUserID(ctx context.Context, userID int) ([]domain.ReservationView, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	views := make([]domain.ReservationView, 0)
	for _, res := range r.s.reservations {
		if res.UserID != userID {
			continue
		}
		view := domain.ReservationView{Reservation: res}
		if res.LotID.Valid {
			if lot, ok := r.s.lots[int(res.LotID.Int64)]; ok {
				view.LocationName = lot.Name
			}
		}
		views = append(views, view)
	}
	sort.Slice(views, func(i, j int) bool {
		if !views[i].StartTime.Equal(views[j].StartTime) {
			return views[i].StartTime.After(views[j].StartTime)
		}
		return views[i].ID > views[j].ID
	})
	return views, nil
}

func (r *reservationRepository) RevenueByLot(ctx context.Context) (map[int]float64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	revenue := make(map[int]float64)
	for _, res := range r.s.reservations {
		if !res.LotID.Valid {
			continue
		}
		lotID := int(res.LotID.Int64)
		revenue[lotID] += res.ParkingCost.ValueOrZero()
	}
	return revenue, nil
}

func (r *reservationRepository) UsageByLocation(ctx context.Context, userID int) ([]domain.UsageEntry, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	counts := make(map[string]int)
	for _, res := range r.s.reservations {
		if res.UserID != userID {
			continue
		}
		name := repository.DeletedLotName
		if res.LotID.Valid {
			if lot, ok := r.s.lots[int(res.LotID.Int64)]; ok {
				name = lot.Name
			}
		}
		counts[name]++
	}

	usage := make([]domain.UsageEntry, 0, len(counts))
	for name, count := range counts {
		usage = append(usage, domain.UsageEntry{LocationName: name, Count: count})
	}
	sort.Slice(usage, func(i, j int) bool { return usage[i].LocationName < usage[j].LocationName })
	return usage, nil
}
