package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"vehicle_parking/internal/domain"
	"vehicle_parking/internal/repository"
)

type pgParkingSpotRepository struct {
	db *sql.DB
}

func NewPgParkingSpotRepository(db *sql.DB) repository.ParkingSpotRepository {
	return &pgParkingSpotRepository{db: db}
}

const spotColumns = `id, lot_id, status, created_at, updated_at`

func scanSpot(row rowScanner) (*domain.ParkingSpot, error) {
	spot := &domain.ParkingSpot{}
	if err := row.Scan(&spot.ID, &spot.LotID, &spot.Status, &spot.CreatedAt, &spot.UpdatedAt); err != nil {
		return nil, err
	}
	spot.CreatedAt = spot.CreatedAt.In(time.UTC)
	spot.UpdatedAt = spot.UpdatedAt.In(time.UTC)
	return spot, nil
}

func (r *pgParkingSpotRepository) FindByID(ctx context.Context, id int) (*domain.ParkingSpot, error) {
	query := `SELECT ` + spotColumns + ` FROM parking_spots WHERE id = $1`
	spot, err := scanSpot(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("ParkingSpotRepository.FindByID: %w", err)
	}
	return spot, nil
}

func (r *pgParkingSpotRepository) FindByLotID(ctx context.Context, lotID int) ([]domain.ParkingSpot, error) {
	query := `SELECT ` + spotColumns + ` FROM parking_spots WHERE lot_id = $1 ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, lotID)
	if err != nil {
		return nil, fmt.Errorf("ParkingSpotRepository.FindByLotID: %w", err)
	}
	defer rows.Close()

	var spots []domain.ParkingSpot
	for rows.Next() {
		spot, err := scanSpot(rows)
		if err != nil {
			return nil, fmt.Errorf("ParkingSpotRepository.FindByLotID (scanning row): %w", err)
		}
		spots = append(spots, *spot)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("ParkingSpotRepository.FindByLotID (rows error): %w", err)
	}
	return spots, nil
}

func (r *pgParkingSpotRepository) FindFirstAvailableByLotID(ctx context.Context, lotID int) (*domain.ParkingSpot, error) {
	query := `SELECT ` + spotColumns + ` FROM parking_spots
	           WHERE lot_id = $1 AND status = $2
	           ORDER BY id ASC LIMIT 1`
	spot, err := scanSpot(r.db.QueryRowContext(ctx, query, lotID, domain.SpotAvailable))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNoAvailableSpot
		}
		return nil, fmt.Errorf("ParkingSpotRepository.FindFirstAvailableByLotID: %w", err)
	}
	return spot, nil
}

func (r *pgParkingSpotRepository) UpdateStatus(ctx context.Context, id int, status domain.SpotStatus) error {
	query := `UPDATE parking_spots SET status = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2`
	result, err := r.db.ExecContext(ctx, query, status, id)
	if err != nil {
		return fmt.Errorf("ParkingSpotRepository.UpdateStatus: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("ParkingSpotRepository.UpdateStatus (checking rows affected): %w", err)
	}
	if rowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *pgParkingSpotRepository) Delete(ctx context.Context, id int) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("ParkingSpotRepository.Delete (begin): %w", err)
	}
	defer tx.Rollback()

	var lotID int
	query := `DELETE FROM parking_spots WHERE id = $1 AND status = $2 RETURNING lot_id`
	err = tx.QueryRowContext(ctx, query, id, domain.SpotAvailable).Scan(&lotID)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("ParkingSpotRepository.Delete: %w", err)
		}
		// Nothing deleted: either the spot is gone or it is occupied.
		var found int
		err = tx.QueryRowContext(ctx, `SELECT id FROM parking_spots WHERE id = $1`, id).Scan(&found)
		if errors.Is(err, sql.ErrNoRows) {
			return repository.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("ParkingSpotRepository.Delete (lookup): %w", err)
		}
		return repository.ErrSpotOccupied
	}

	// Capacity tracks the live spot count.
	capacityQuery := `UPDATE parking_lots SET maximum_no_of_spots = maximum_no_of_spots - 1,
	                   updated_at = CURRENT_TIMESTAMP WHERE id = $1`
	if _, err = tx.ExecContext(ctx, capacityQuery, lotID); err != nil {
		return fmt.Errorf("ParkingSpotRepository.Delete (capacity): %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("ParkingSpotRepository.Delete (commit): %w", err)
	}
	return nil
}

func (r *pgParkingSpotRepository) CountByLot(ctx context.Context) (map[int]domain.SpotCounts, error) {
	query := `SELECT lot_id,
	                 COUNT(*) FILTER (WHERE status = $1),
	                 COUNT(*) FILTER (WHERE status = $2)
	           FROM parking_spots GROUP BY lot_id`
	rows, err := r.db.QueryContext(ctx, query, domain.SpotAvailable, domain.SpotOccupied)
	if err != nil {
		return nil, fmt.Errorf("ParkingSpotRepository.CountByLot: %w", err)
	}
	defer rows.Close()

	counts := make(map[int]domain.SpotCounts)
	for rows.Next() {
		var lotID int
		var c domain.SpotCounts
		if err := rows.Scan(&lotID, &c.Available, &c.Occupied); err != nil {
			return nil, fmt.Errorf("ParkingSpotRepository.CountByLot (scanning row): %w", err)
		}
		counts[lotID] = c
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("ParkingSpotRepository.CountByLot (rows error): %w", err)
	}
	return counts, nil
}
