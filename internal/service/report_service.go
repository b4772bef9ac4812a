package service

import (
	"context"
	"fmt"
	"io"

	"vehicle_parking/internal/domain"
	"vehicle_parking/internal/metrics"
	"vehicle_parking/internal/report"
	"vehicle_parking/internal/repository"

	"github.com/rs/zerolog"
)

// ReportService reads lots, spots and reservations without mutating them.
type ReportService struct {
	lotRepo         repository.ParkingLotRepository
	spotRepo        repository.ParkingSpotRepository
	reservationRepo repository.ReservationRepository
	logger          zerolog.Logger
}

func NewReportService(
	lotRepo repository.ParkingLotRepository,
	spotRepo repository.ParkingSpotRepository,
	reservationRepo repository.ReservationRepository,
	logger zerolog.Logger,
) *ReportService {
	return &ReportService{
		lotRepo:         lotRepo,
		spotRepo:        spotRepo,
		reservationRepo: reservationRepo,
		logger:          logger.With().Str("component", "report_service").Logger(),
	}
}

// AdminSummary has one row per lot in lot id order; Series mirrors Lots.
func (s *ReportService) AdminSummary(ctx context.Context, actor domain.Actor) (*domain.AdminSummary, error) {
	if err := RequireAdmin(actor); err != nil {
		return nil, err
	}
	return s.buildAdminSummary(ctx)
}

func (s *ReportService) buildAdminSummary(ctx context.Context) (*domain.AdminSummary, error) {
	lots, err := s.lotRepo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("ReportService.AdminSummary (lots): %w", err)
	}
	counts, err := s.spotRepo.CountByLot(ctx)
	if err != nil {
		return nil, fmt.Errorf("ReportService.AdminSummary (counts): %w", err)
	}
	revenue, err := s.reservationRepo.RevenueByLot(ctx)
	if err != nil {
		return nil, fmt.Errorf("ReportService.AdminSummary (revenue): %w", err)
	}

	summary := &domain.AdminSummary{
		Lots: make([]domain.LotSummary, 0, len(lots)),
		Series: domain.SummarySeries{
			LotNames:  make([]string, 0, len(lots)),
			Revenues:  make([]float64, 0, len(lots)),
			Available: make([]int, 0, len(lots)),
			Occupied:  make([]int, 0, len(lots)),
		},
	}
	for _, lot := range lots {
		name := lot.Name
		if name == "" {
			name = "Unnamed"
		}
		c := counts[lot.ID]
		row := domain.LotSummary{
			LotID:      lot.ID,
			Name:       name,
			PostalCode: lot.PostalCode,
			Available:  c.Available,
			Occupied:   c.Occupied,
			Revenue:    revenue[lot.ID],
		}
		summary.Lots = append(summary.Lots, row)
		summary.Series.LotNames = append(summary.Series.LotNames, row.Name)
		summary.Series.Revenues = append(summary.Series.Revenues, row.Revenue)
		summary.Series.Available = append(summary.Series.Available, row.Available)
		summary.Series.Occupied = append(summary.Series.Occupied, row.Occupied)
	}
	return summary, nil
}

// UserSummary counts the caller's reservations per location, ordered by name.
func (s *ReportService) UserSummary(ctx context.Context, actor domain.Actor) (*domain.UserSummary, error) {
	if err := RequireUser(actor); err != nil {
		return nil, err
	}
	usage, err := s.reservationRepo.UsageByLocation(ctx, actor.UserID)
	if err != nil {
		return nil, fmt.Errorf("ReportService.UserSummary: %w", err)
	}
	summary := &domain.UserSummary{
		Usage:     usage,
		Locations: make([]string, 0, len(usage)),
		Counts:    make([]int, 0, len(usage)),
	}
	for _, u := range usage {
		summary.Locations = append(summary.Locations, u.LocationName)
		summary.Counts = append(summary.Counts, u.Count)
	}
	return summary, nil
}

func (s *ReportService) ExportAdminSummary(ctx context.Context, actor domain.Actor, w io.Writer) error {
	summary, err := s.AdminSummary(ctx, actor)
	if err != nil {
		return err
	}
	if err := report.WriteAdminSummary(w, *summary); err != nil {
		return fmt.Errorf("ReportService.ExportAdminSummary: %w", err)
	}
	return nil
}

func (s *ReportService) ExportUserSummary(ctx context.Context, actor domain.Actor, w io.Writer) error {
	summary, err := s.UserSummary(ctx, actor)
	if err != nil {
		return err
	}
	if err := report.WriteUserSummary(w, *summary); err != nil {
		return fmt.Errorf("ReportService.ExportUserSummary: %w", err)
	}
	return nil
}

// RefreshOccupancyGauges copies the current spot counts into the metrics.
func (s *ReportService) RefreshOccupancyGauges(ctx context.Context) error {
	counts, err := s.spotRepo.CountByLot(ctx)
	if err != nil {
		return fmt.Errorf("ReportService.RefreshOccupancyGauges: %w", err)
	}
	metrics.SetLotOccupancy(counts)
	s.logger.Debug().Int("lots", len(counts)).Msg("occupancy gauges refreshed")
	return nil
}
