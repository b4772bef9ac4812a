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

type pgReservationRepository struct {
	db *sql.DB
}

func NewPgReservationRepository(db *sql.DB) repository.ReservationRepository {
	return &pgReservationRepository{db: db}
}

const reservationColumns = `id, user_id, spot_id, lot_id, vehicle_no, start_time, end_time, parking_cost, created_at, updated_at`

func scanReservation(row rowScanner, extra ...any) (*domain.Reservation, error) {
	res := &domain.Reservation{}
	dest := []any{
		&res.ID, &res.UserID, &res.SpotID, &res.LotID, &res.VehicleNo,
		&res.StartTime, &res.EndTime, &res.ParkingCost, &res.CreatedAt, &res.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	res.StartTime = res.StartTime.In(time.UTC)
	if res.EndTime.Valid {
		res.EndTime.Time = res.EndTime.Time.In(time.UTC)
	}
	res.CreatedAt = res.CreatedAt.In(time.UTC)
	res.UpdatedAt = res.UpdatedAt.In(time.UTC)
	return res, nil
}

func (r *pgReservationRepository) Book(ctx context.Context, lotID int, res *domain.Reservation) (*domain.Reservation, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("ReservationRepository.Book (begin): %w", err)
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRowContext(ctx, `SELECT id FROM parking_lots WHERE id = $1 FOR SHARE`, lotID).Scan(&exists)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("ReservationRepository.Book (lot): %w", err)
	}

	var spotID int
	findQuery := `SELECT id FROM parking_spots WHERE lot_id = $1 AND status = $2 ORDER BY id ASC LIMIT 1`
	err = tx.QueryRowContext(ctx, findQuery, lotID, domain.SpotAvailable).Scan(&spotID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNoAvailableSpot
		}
		return nil, fmt.Errorf("ReservationRepository.Book (scan spot): %w", err)
	}

	// Conditional flip: a concurrent booker that flipped the spot first leaves zero rows here.
	claimQuery := `UPDATE parking_spots SET status = $1, updated_at = CURRENT_TIMESTAMP
	                WHERE id = $2 AND status = $3`
	result, err := tx.ExecContext(ctx, claimQuery, domain.SpotOccupied, spotID, domain.SpotAvailable)
	if err != nil {
		return nil, fmt.Errorf("ReservationRepository.Book (claim spot): %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("ReservationRepository.Book (checking rows affected): %w", err)
	}
	if rowsAffected == 0 {
		return nil, repository.ErrSpotClaimRace
	}

	res.SpotID.SetValid(int64(spotID))
	res.LotID.SetValid(int64(lotID))
	insertQuery := `INSERT INTO reservations (user_id, spot_id, lot_id, vehicle_no, start_time)
	                 VALUES ($1, $2, $3, $4, $5) RETURNING id, created_at, updated_at`
	err = tx.QueryRowContext(ctx, insertQuery, res.UserID, res.SpotID, res.LotID, res.VehicleNo, res.StartTime).
		Scan(&res.ID, &res.CreatedAt, &res.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err, "reservations_open_spot_key") {
			return nil, repository.ErrSpotClaimRace
		}
		return nil, fmt.Errorf("ReservationRepository.Book (insert): %w", err)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("ReservationRepository.Book (commit): %w", err)
	}
	res.StartTime = res.StartTime.In(time.UTC)
	res.CreatedAt = res.CreatedAt.In(time.UTC)
	res.UpdatedAt = res.UpdatedAt.In(time.UTC)
	return res, nil
}

func (r *pgReservationRepository) FindByID(ctx context.Context, id int) (*domain.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE id = $1`
	res, err := scanReservation(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("ReservationRepository.FindByID: %w", err)
	}
	return res, nil
}

func (r *pgReservationRepository) FindOpenBySpotID(ctx context.Context, spotID int) (*domain.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations
	           WHERE spot_id = $1 AND end_time IS NULL`
	res, err := scanReservation(r.db.QueryRowContext(ctx, query, spotID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNoActiveReservation
		}
		return nil, fmt.Errorf("ReservationRepository.FindOpenBySpotID: %w", err)
	}
	return res, nil
}

func (r *pgReservationRepository) Close(ctx context.Context, id int, endTime time.Time, cost float64) (*domain.Reservation, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("ReservationRepository.Close (begin): %w", err)
	}
	defer tx.Rollback()

	query := `UPDATE reservations SET end_time = $2, parking_cost = $3, updated_at = CURRENT_TIMESTAMP
	           WHERE id = $1 AND end_time IS NULL
	           RETURNING ` + reservationColumns
	res, err := scanReservation(tx.QueryRowContext(ctx, query, id, endTime, cost))
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("ReservationRepository.Close: %w", err)
		}
		var found int
		err = tx.QueryRowContext(ctx, `SELECT id FROM reservations WHERE id = $1`, id).Scan(&found)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		if err != nil {
			return nil, fmt.Errorf("ReservationRepository.Close (lookup): %w", err)
		}
		return nil, repository.ErrReservationClosed
	}

	if res.SpotID.Valid {
		freeQuery := `UPDATE parking_spots SET status = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2`
		if _, err = tx.ExecContext(ctx, freeQuery, domain.SpotAvailable, res.SpotID.Int64); err != nil {
			return nil, fmt.Errorf("ReservationRepository.Close (free spot): %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("ReservationRepository.Close (commit): %w", err)
	}
	return res, nil
}

func (r *pgReservationRepository) FindByUserID(ctx context.Context, userID int) ([]domain.ReservationView, error) {
	query := `SELECT r.id, r.user_id, r.spot_id, r.lot_id, r.vehicle_no, r.start_time, r.end_time,
	                 r.parking_cost, r.created_at, r.updated_at, COALESCE(l.prime_location_name, '')
	           FROM reservations r
	           LEFT JOIN parking_lots l ON l.id = r.lot_id
	           WHERE r.user_id = $1
	           ORDER BY r.start_time DESC, r.id DESC`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("ReservationRepository.FindByUserID: %w", err)
	}
	defer rows.Close()

	var views []domain.ReservationView
	for rows.Next() {
		var location string
		res, err := scanReservation(rows, &location)
		if err != nil {
			return nil, fmt.Errorf("ReservationRepository.FindByUserID (scanning row): %w", err)
		}
		views = append(views, domain.ReservationView{Reservation: *res, LocationName: location})
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("ReservationRepository.FindByUserID (rows error): %w", err)
	}
	return views, nil
}

func (r *pgReservationRepository) RevenueByLot(ctx context.Context) (map[int]float64, error) {
	query := `SELECT lot_id, COALESCE(SUM(parking_cost), 0)
	           FROM reservations WHERE lot_id IS NOT NULL
	           GROUP BY lot_id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("ReservationRepository.RevenueByLot: %w", err)
	}
	defer rows.Close()

	revenue := make(map[int]float64)
	for rows.Next() {
		var lotID int
		var total float64
		if err := rows.Scan(&lotID, &total); err != nil {
			return nil, fmt.Errorf("ReservationRepository.RevenueByLot (scanning row): %w", err)
		}
		revenue[lotID] = total
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("ReservationRepository.RevenueByLot (rows error): %w", err)
	}
	return revenue, nil
}

func (r *pgReservationRepository) UsageByLocation(ctx context.Context, userID int) ([]domain.UsageEntry, error) {
	query := `SELECT COALESCE(l.prime_location_name, $2) AS location, COUNT(*)
	           FROM reservations r
	           LEFT JOIN parking_lots l ON l.id = r.lot_id
	           WHERE r.user_id = $1
	           GROUP BY location
	           ORDER BY location`
	rows, err := r.db.QueryContext(ctx, query, userID, repository.DeletedLotName)
	if err != nil {
		return nil, fmt.Errorf("ReservationRepository.UsageByLocation: %w", err)
	}
	defer rows.Close()

	var usage []domain.UsageEntry
	for rows.Next() {
		var entry domain.UsageEntry
		if err := rows.Scan(&entry.LocationName, &entry.Count); err != nil {
			return nil, fmt.Errorf("ReservationRepository.UsageByLocation (scanning row): %w", err)
		}
		usage = append(usage, entry)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("ReservationRepository.UsageByLocation (rows error): %w", err)
	}
	return usage, nil
}
