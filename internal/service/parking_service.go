package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"vehicle_parking/internal/domain"
	"vehicle_parking/internal/events"
	"vehicle_parking/internal/lock"
	"vehicle_parking/internal/repository"

	"github.com/rs/zerolog"
)

// ParkingService is the lot and spot registry.
type ParkingService struct {
	lotRepo         repository.ParkingLotRepository
	spotRepo        repository.ParkingSpotRepository
	reservationRepo repository.ReservationRepository
	locker          lock.Locker
	publisher       events.Publisher
	now             func() time.Time
	logger          zerolog.Logger
}

func NewParkingService(
	lotRepo repository.ParkingLotRepository,
	spotRepo repository.ParkingSpotRepository,
	reservationRepo repository.ReservationRepository,
	locker lock.Locker,
	publisher events.Publisher,
	now func() time.Time,
	logger zerolog.Logger,
) *ParkingService {
	if now == nil {
		now = time.Now
	}
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &ParkingService{
		lotRepo:         lotRepo,
		spotRepo:        spotRepo,
		reservationRepo: reservationRepo,
		locker:          locker,
		publisher:       publisher,
		now:             now,
		logger:          logger.With().Str("component", "parking_service").Logger(),
	}
}

// --- ParkingLot ---

// CreateParkingLot stores the lot together with in.Capacity available spots.
func (s *ParkingService) CreateParkingLot(ctx context.Context, actor domain.Actor, in domain.ParkingLotInput) (*domain.ParkingLot, error) {
	if err := RequireAdmin(actor); err != nil {
		return nil, err
	}
	if err := validateLotInput(in, true); err != nil {
		return nil, err
	}

	lot, err := s.lotRepo.Create(ctx, &domain.ParkingLot{
		Name:         in.Name,
		PricePerHour: in.PricePerHour,
		Address:      in.Address,
		PostalCode:   in.PostalCode,
		Capacity:     in.Capacity,
	})
	if err != nil {
		return nil, fmt.Errorf("ParkingService.CreateParkingLot: %w", err)
	}
	s.logger.Info().Int("lot_id", lot.ID).Int("capacity", lot.Capacity).Str("name", lot.Name).Msg("parking lot created")
	s.publish(ctx, events.NewEvent(domain.EventLotCreated, lot.ID, s.now()))
	return lot, nil
}

// GetParkingLotByID returns the lot with its spots in creation order.
func (s *ParkingService) GetParkingLotByID(ctx context.Context, id int) (*domain.ParkingLot, error) {
	lot, err := s.lotRepo.FindByID(ctx, id)
	if err != nil {
		return nil, lotError("ParkingService.GetParkingLotByID", err)
	}
	spots, err := s.spotRepo.FindByLotID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("ParkingService.GetParkingLotByID (spots): %w", err)
	}
	lot.Spots = spots
	return lot, nil
}

func (s *ParkingService) GetAllParkingLots(ctx context.Context) ([]domain.ParkingLot, error) {
	lots, err := s.lotRepo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("ParkingService.GetAllParkingLots: %w", err)
	}
	return lots, nil
}

// UpdateParkingLot edits metadata; capacity and spots never change here.
func (s *ParkingService) UpdateParkingLot(ctx context.Context, actor domain.Actor, id int, in domain.ParkingLotInput) (*domain.ParkingLot, error) {
	if err := RequireAdmin(actor); err != nil {
		return nil, err
	}
	if err := validateLotInput(in, false); err != nil {
		return nil, err
	}
	lot, err := s.lotRepo.FindByID(ctx, id)
	if err != nil {
		return nil, lotError("ParkingService.UpdateParkingLot", err)
	}
	lot.Name = in.Name
	lot.PricePerHour = in.PricePerHour
	lot.Address = in.Address
	lot.PostalCode = in.PostalCode

	updated, err := s.lotRepo.Update(ctx, lot)
	if err != nil {
		return nil, lotError("ParkingService.UpdateParkingLot", err)
	}
	s.logger.Info().Int("lot_id", id).Msg("parking lot updated")
	return updated, nil
}

// DeleteParkingLot removes the lot and all its spots under the lot lock.
// Nothing is deleted while any spot is occupied.
func (s *ParkingService) DeleteParkingLot(ctx context.Context, actor domain.Actor, id int) error {
	if err := RequireAdmin(actor); err != nil {
		return err
	}
	unlock, err := s.locker.Lock(ctx, lock.LotKey(id))
	if err != nil {
		return fmt.Errorf("%w (%v)", ErrLotBusy, err)
	}
	defer unlock()

	if err := s.lotRepo.DeleteWithSpots(ctx, id); err != nil {
		switch {
		case errors.Is(err, repository.ErrLotHasOccupiedSpots):
			return ErrLotHasOccupiedSpots
		default:
			return lotError("ParkingService.DeleteParkingLot", err)
		}
	}
	s.logger.Info().Int("lot_id", id).Msg("parking lot deleted")
	s.publish(ctx, events.NewEvent(domain.EventLotDeleted, id, s.now()))
	return nil
}

// --- ParkingSpot ---

func (s *ParkingService) GetSpotsByLotID(ctx context.Context, lotID int) ([]domain.ParkingSpot, error) {
	if _, err := s.lotRepo.FindByID(ctx, lotID); err != nil {
		return nil, lotError("ParkingService.GetSpotsByLotID", err)
	}
	spots, err := s.spotRepo.FindByLotID(ctx, lotID)
	if err != nil {
		return nil, fmt.Errorf("ParkingService.GetSpotsByLotID: %w", err)
	}
	return spots, nil
}

func (s *ParkingService) GetParkingSpotByID(ctx context.Context, spotID int) (*domain.ParkingSpot, error) {
	spot, err := s.spotRepo.FindByID(ctx, spotID)
	if err != nil {
		return nil, spotError("ParkingService.GetParkingSpotByID", err)
	}
	return spot, nil
}

// FindFirstAvailable returns the lowest-id available spot of the lot.
func (s *ParkingService) FindFirstAvailable(ctx context.Context, lotID int) (*domain.ParkingSpot, error) {
	if _, err := s.lotRepo.FindByID(ctx, lotID); err != nil {
		return nil, lotError("ParkingService.FindFirstAvailable", err)
	}
	spot, err := s.spotRepo.FindFirstAvailableByLotID(ctx, lotID)
	if err != nil {
		if errors.Is(err, repository.ErrNoAvailableSpot) {
			return nil, ErrLotFull
		}
		return nil, fmt.Errorf("ParkingService.FindFirstAvailable: %w", err)
	}
	return spot, nil
}

// DeleteParkingSpot removes a single available spot; the lot's capacity shrinks with it.
func (s *ParkingService) DeleteParkingSpot(ctx context.Context, actor domain.Actor, spotID int) error {
	if err := RequireAdmin(actor); err != nil {
		return err
	}
	spot, err := s.spotRepo.FindByID(ctx, spotID)
	if err != nil {
		return spotError("ParkingService.DeleteParkingSpot", err)
	}

	unlock, err := s.locker.Lock(ctx, lock.LotKey(spot.LotID))
	if err != nil {
		return fmt.Errorf("%w (%v)", ErrLotBusy, err)
	}
	defer unlock()

	if err := s.spotRepo.Delete(ctx, spotID); err != nil {
		if errors.Is(err, repository.ErrSpotOccupied) {
			return ErrSpotOccupied
		}
		return spotError("ParkingService.DeleteParkingSpot", err)
	}
	s.logger.Info().Int("spot_id", spotID).Int("lot_id", spot.LotID).Msg("parking spot deleted")

	event := events.NewEvent(domain.EventSpotDeleted, spot.LotID, s.now())
	event.SpotID = spotID
	s.publish(ctx, event)
	return nil
}

// SpotDetail is the admin view of one spot; occupied spots carry the open
// reservation and the cost accrued so far.
func (s *ParkingService) SpotDetail(ctx context.Context, actor domain.Actor, spotID int) (*domain.SpotDetail, error) {
	if err := RequireAdmin(actor); err != nil {
		return nil, err
	}
	spot, err := s.spotRepo.FindByID(ctx, spotID)
	if err != nil {
		return nil, spotError("ParkingService.SpotDetail", err)
	}
	lot, err := s.lotRepo.FindByID(ctx, spot.LotID)
	if err != nil {
		return nil, lotError("ParkingService.SpotDetail", err)
	}

	detail := &domain.SpotDetail{Spot: *spot, Lot: lot}
	if spot.Status != domain.SpotOccupied {
		return detail, nil
	}
	res, err := s.reservationRepo.FindOpenBySpotID(ctx, spotID)
	if err != nil {
		if errors.Is(err, repository.ErrNoActiveReservation) {
			s.logger.Warn().Int("spot_id", spotID).Msg("occupied spot has no open reservation")
			return detail, nil
		}
		return nil, fmt.Errorf("ParkingService.SpotDetail (reservation): %w", err)
	}
	_, cost := ParkingCost(res.StartTime, s.now(), lot.PricePerHour)
	detail.Reservation = res
	detail.EstimatedCost = &cost
	return detail, nil
}

// --- Search ---

// AdminSearch looks up reservations by user id, the owning lot of a spot id,
// or lots by location name. Empty criteria yield an empty result.
func (s *ParkingService) AdminSearch(ctx context.Context, actor domain.Actor, searchBy, term string) (*domain.AdminSearchResult, error) {
	if err := RequireAdmin(actor); err != nil {
		return nil, err
	}
	term = strings.TrimSpace(term)
	result := &domain.AdminSearchResult{SearchBy: searchBy, SearchTerm: term}
	if searchBy == "" || term == "" {
		return result, nil
	}

	switch searchBy {
	case domain.SearchByUserID:
		userID, err := strconv.Atoi(term)
		if err != nil {
			return nil, validationError("user id %q is not a number", term)
		}
		views, err := s.reservationRepo.FindByUserID(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("ParkingService.AdminSearch: %w", err)
		}
		result.Reservations = views

	case domain.SearchBySpotID:
		spotID, err := strconv.Atoi(term)
		if err != nil {
			return nil, validationError("spot id %q is not a number", term)
		}
		spot, err := s.spotRepo.FindByID(ctx, spotID)
		if errors.Is(err, repository.ErrNotFound) {
			return result, nil
		}
		if err != nil {
			return nil, fmt.Errorf("ParkingService.AdminSearch: %w", err)
		}
		lot, err := s.lotRepo.FindByID(ctx, spot.LotID)
		if errors.Is(err, repository.ErrNotFound) {
			return result, nil
		}
		if err != nil {
			return nil, fmt.Errorf("ParkingService.AdminSearch: %w", err)
		}
		result.Lots = []domain.ParkingLot{*lot}

	case domain.SearchByLocation:
		lots, err := s.lotRepo.Search(ctx, domain.LotSearchFilter{NameContains: term})
		if err != nil {
			return nil, fmt.Errorf("ParkingService.AdminSearch: %w", err)
		}
		result.Lots = lots

	default:
		return nil, validationError("invalid search category %q", searchBy)
	}
	return result, nil
}

// SearchLots matches an all-digit query against the pincode and anything
// else against the location name. An empty query lists every lot.
func (s *ParkingService) SearchLots(ctx context.Context, query string) ([]domain.ParkingLot, error) {
	query = strings.TrimSpace(query)
	var filter domain.LotSearchFilter
	if query != "" {
		if isDigits(query) {
			pin, err := strconv.Atoi(query)
			if err != nil {
				return nil, validationError("pincode %q is out of range", query)
			}
			filter.PostalCode = &pin
		} else {
			filter.NameContains = query
		}
	}
	lots, err := s.lotRepo.Search(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("ParkingService.SearchLots: %w", err)
	}
	return lots, nil
}

func (s *ParkingService) UserSearchLots(ctx context.Context, actor domain.Actor, query string) ([]domain.ParkingLot, error) {
	if err := RequireUser(actor); err != nil {
		return nil, err
	}
	return s.SearchLots(ctx, query)
}

func (s *ParkingService) publish(ctx context.Context, event domain.ParkingEvent) {
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn().Err(err).Str("event_type", string(event.Type)).Msg("failed to publish event")
	}
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

func lotError(op string, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrLotNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}

func spotError(op string, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrSpotNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}
