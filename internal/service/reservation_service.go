package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"vehicle_parking/internal/domain"
	"vehicle_parking/internal/events"
	"vehicle_parking/internal/lock"
	"vehicle_parking/internal/metrics"
	"vehicle_parking/internal/repository"

	"github.com/rs/zerolog"
)

// ParkingCost bills whole completed hours only; a negative span costs nothing.
func ParkingCost(start, end time.Time, pricePerHour float64) (int64, float64) {
	elapsed := end.Sub(start)
	if elapsed < 0 {
		return 0, 0
	}
	hours := int64(math.Floor(elapsed.Seconds() / 3600))
	return hours, float64(hours) * pricePerHour
}

// ReservationService is the reservation ledger. Booking is serialized per lot
// by the Locker; the repository additionally claims the spot with a
// conditional update so a lost race is reported instead of double-booking.
type ReservationService struct {
	lotRepo         repository.ParkingLotRepository
	spotRepo        repository.ParkingSpotRepository
	reservationRepo repository.ReservationRepository
	parking         *ParkingService
	locker          lock.Locker
	publisher       events.Publisher
	now             func() time.Time
	logger          zerolog.Logger
}

func NewReservationService(
	lotRepo repository.ParkingLotRepository,
	spotRepo repository.ParkingSpotRepository,
	reservationRepo repository.ReservationRepository,
	parking *ParkingService,
	locker lock.Locker,
	publisher events.Publisher,
	now func() time.Time,
	logger zerolog.Logger,
) *ReservationService {
	if now == nil {
		now = time.Now
	}
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &ReservationService{
		lotRepo:         lotRepo,
		spotRepo:        spotRepo,
		reservationRepo: reservationRepo,
		parking:         parking,
		locker:          locker,
		publisher:       publisher,
		now:             now,
		logger:          logger.With().Str("component", "reservation_service").Logger(),
	}
}

// PreviewBooking reports the spot a booking would take right now.
func (s *ReservationService) PreviewBooking(ctx context.Context, actor domain.Actor, lotID int) (*domain.BookingPreview, error) {
	if err := RequireUser(actor); err != nil {
		return nil, err
	}
	lot, err := s.lotRepo.FindByID(ctx, lotID)
	if err != nil {
		return nil, lotError("ReservationService.PreviewBooking", err)
	}
	spot, err := s.spotRepo.FindFirstAvailableByLotID(ctx, lotID)
	if err != nil {
		if errors.Is(err, repository.ErrNoAvailableSpot) {
			return nil, ErrLotFull
		}
		return nil, fmt.Errorf("ReservationService.PreviewBooking: %w", err)
	}
	return &domain.BookingPreview{Lot: *lot, AvailableSpot: spot.ID}, nil
}

// Book reserves the first available spot of lotID for the caller.
func (s *ReservationService) Book(ctx context.Context, actor domain.Actor, lotID int, vehicleNo string) (*domain.Reservation, error) {
	if err := RequireUser(actor); err != nil {
		return nil, err
	}
	vehicle, err := parseVehicleNo(vehicleNo)
	if err != nil {
		return nil, err
	}

	unlock, err := s.locker.Lock(ctx, lock.LotKey(lotID))
	if err != nil {
		metrics.IncBooking(metrics.OutcomeConflict)
		return nil, fmt.Errorf("%w (%v)", ErrLotBusy, err)
	}
	defer unlock()

	res, err := s.reservationRepo.Book(ctx, lotID, &domain.Reservation{
		UserID:    actor.UserID,
		VehicleNo: vehicle,
		StartTime: s.now().UTC(),
	})
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return nil, ErrLotNotFound
		case errors.Is(err, repository.ErrNoAvailableSpot):
			metrics.IncBooking(metrics.OutcomeLotFull)
			return nil, ErrLotFull
		case errors.Is(err, repository.ErrSpotClaimRace):
			metrics.IncBooking(metrics.OutcomeConflict)
			s.logger.Warn().Int("lot_id", lotID).Int("user_id", actor.UserID).Msg("lost spot claim race")
			return nil, ErrSpotClaimRace
		default:
			metrics.IncBooking(metrics.OutcomeError)
			return nil, fmt.Errorf("ReservationService.Book: %w", err)
		}
	}

	metrics.IncBooking(metrics.OutcomeBooked)
	s.logger.Info().
		Int("reservation_id", res.ID).
		Int("lot_id", lotID).
		Int64("spot_id", res.SpotID.Int64).
		Int("user_id", actor.UserID).
		Msg("spot booked")

	event := events.NewEvent(domain.EventReservationBooked, lotID, res.StartTime)
	event.SpotID = int(res.SpotID.Int64)
	event.SpotStatus = domain.SpotOccupied
	event.ReservationID = res.ID
	event.UserID = actor.UserID
	event.VehicleNo = res.VehicleNo
	s.publish(ctx, event)
	return res, nil
}

// Release closes the caller's reservation, bills whole hours and frees the spot.
func (s *ReservationService) Release(ctx context.Context, actor domain.Actor, reservationID int) (*domain.ReleaseResult, error) {
	if err := RequireUser(actor); err != nil {
		return nil, err
	}
	res, err := s.reservationRepo.FindByID(ctx, reservationID)
	if err != nil {
		return nil, reservationError("ReservationService.Release", err)
	}
	if res.UserID != actor.UserID {
		return nil, ErrNotOwner
	}
	if !res.IsOpen() {
		return nil, ErrReservationClosed
	}
	if !res.LotID.Valid {
		return nil, fmt.Errorf("ReservationService.Release: open reservation %d has no lot", res.ID)
	}
	lot, err := s.lotRepo.FindByID(ctx, int(res.LotID.Int64))
	if err != nil {
		return nil, lotError("ReservationService.Release", err)
	}

	end := s.now().UTC()
	hours, cost := ParkingCost(res.StartTime, end, lot.PricePerHour)
	closed, err := s.reservationRepo.Close(ctx, res.ID, end, cost)
	if err != nil {
		if errors.Is(err, repository.ErrReservationClosed) {
			return nil, ErrReservationClosed
		}
		return nil, reservationError("ReservationService.Release", err)
	}

	metrics.ObserveRelease(cost)
	s.logger.Info().
		Int("reservation_id", closed.ID).
		Int("lot_id", lot.ID).
		Int64("spot_id", closed.SpotID.Int64).
		Int("user_id", actor.UserID).
		Int64("hours", hours).
		Float64("cost", cost).
		Msg("spot released")

	event := events.NewEvent(domain.EventReservationReleased, lot.ID, end)
	event.SpotID = int(closed.SpotID.Int64)
	event.SpotStatus = domain.SpotAvailable
	event.ReservationID = closed.ID
	event.UserID = actor.UserID
	event.VehicleNo = closed.VehicleNo
	event.Cost = &cost
	s.publish(ctx, event)

	return &domain.ReleaseResult{Reservation: *closed, DurationHours: hours, Cost: cost}, nil
}

// EstimateCost is what releasing the spot's open reservation would cost now.
// Admins may ask about any spot, users only about their own reservation.
func (s *ReservationService) EstimateCost(ctx context.Context, actor domain.Actor, spotID int) (float64, error) {
	if err := requireAuthenticated(actor); err != nil {
		return 0, err
	}
	spot, err := s.spotRepo.FindByID(ctx, spotID)
	if err != nil {
		return 0, spotError("ReservationService.EstimateCost", err)
	}
	res, err := s.reservationRepo.FindOpenBySpotID(ctx, spotID)
	if err != nil {
		if errors.Is(err, repository.ErrNoActiveReservation) {
			return 0, ErrNoActiveReservation
		}
		return 0, fmt.Errorf("ReservationService.EstimateCost: %w", err)
	}
	if !actor.IsAdmin && res.UserID != actor.UserID {
		return 0, ErrNotOwner
	}
	lot, err := s.lotRepo.FindByID(ctx, spot.LotID)
	if err != nil {
		return 0, lotError("ReservationService.EstimateCost", err)
	}
	_, cost := ParkingCost(res.StartTime, s.now(), lot.PricePerHour)
	return cost, nil
}

func (s *ReservationService) GetReservation(ctx context.Context, actor domain.Actor, id int) (*domain.Reservation, error) {
	if err := requireAuthenticated(actor); err != nil {
		return nil, err
	}
	res, err := s.reservationRepo.FindByID(ctx, id)
	if err != nil {
		return nil, reservationError("ReservationService.GetReservation", err)
	}
	if !actor.IsAdmin && res.UserID != actor.UserID {
		return nil, ErrNotOwner
	}
	return res, nil
}

// UserDashboard lists searched lots and the caller's reservations, newest first.
func (s *ReservationService) UserDashboard(ctx context.Context, actor domain.Actor, query string) (*domain.UserDashboard, error) {
	lots, err := s.parking.UserSearchLots(ctx, actor, query)
	if err != nil {
		return nil, err
	}
	reservations, err := s.reservationRepo.FindByUserID(ctx, actor.UserID)
	if err != nil {
		return nil, fmt.Errorf("ReservationService.UserDashboard: %w", err)
	}
	return &domain.UserDashboard{User: actor, ParkingLots: lots, Reservations: reservations}, nil
}

func (s *ReservationService) publish(ctx context.Context, event domain.ParkingEvent) {
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn().Err(err).Str("event_type", string(event.Type)).Msg("failed to publish event")
	}
}

func reservationError(op string, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrReservationNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}
