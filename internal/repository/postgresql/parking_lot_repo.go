package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"vehicle_parking/internal/domain"
	"vehicle_parking/internal/repository"
)

type pgParkingLotRepository struct {
	db *sql.DB
}

func NewPgParkingLotRepository(db *sql.DB) repository.ParkingLotRepository {
	return &pgParkingLotRepository{db: db}
}

const lotColumns = `id, prime_location_name, price, address, pincode, maximum_no_of_spots, created_at, updated_at`

func scanLot(row rowScanner) (*domain.ParkingLot, error) {
	lot := &domain.ParkingLot{}
	err := row.Scan(&lot.ID, &lot.Name, &lot.PricePerHour, &lot.Address, &lot.PostalCode, &lot.Capacity,
		&lot.CreatedAt, &lot.UpdatedAt)
	if err != nil {
		return nil, err
	}
	lot.CreatedAt = lot.CreatedAt.In(time.UTC)
	lot.UpdatedAt = lot.UpdatedAt.In(time.UTC)
	return lot, nil
}

func (r *pgParkingLotRepository) Create(ctx context.Context, lot *domain.ParkingLot) (*domain.ParkingLot, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("ParkingLotRepository.Create (begin): %w", err)
	}
	defer tx.Rollback()

	query := `INSERT INTO parking_lots (prime_location_name, price, address, pincode, maximum_no_of_spots)
	           VALUES ($1, $2, $3, $4, $5) RETURNING id, created_at, updated_at`
	err = tx.QueryRowContext(ctx, query, lot.Name, lot.PricePerHour, lot.Address, lot.PostalCode, lot.Capacity).
		Scan(&lot.ID, &lot.CreatedAt, &lot.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("ParkingLotRepository.Create: %w", err)
	}

	// generate_series yields ascending ids, which is the booking scan order.
	spotsQuery := `INSERT INTO parking_spots (lot_id, status)
	                SELECT $1, $2 FROM generate_series(1, $3)`
	if _, err = tx.ExecContext(ctx, spotsQuery, lot.ID, domain.SpotAvailable, lot.Capacity); err != nil {
		return nil, fmt.Errorf("ParkingLotRepository.Create (spots): %w", err)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("ParkingLotRepository.Create (commit): %w", err)
	}
	lot.CreatedAt = lot.CreatedAt.In(time.UTC)
	lot.UpdatedAt = lot.UpdatedAt.In(time.UTC)
	return lot, nil
}

func (r *pgParkingLotRepository) FindByID(ctx context.Context, id int) (*domain.ParkingLot, error) {
	query := `SELECT ` + lotColumns + ` FROM parking_lots WHERE id = $1`
	lot, err := scanLot(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("ParkingLotRepository.FindByID: %w", err)
	}
	return lot, nil
}

func (r *pgParkingLotRepository) FindAll(ctx context.Context) ([]domain.ParkingLot, error) {
	return r.Search(ctx, domain.LotSearchFilter{})
}

func (r *pgParkingLotRepository) Search(ctx context.Context, filter domain.LotSearchFilter) ([]domain.ParkingLot, error) {
	baseQuery := `SELECT ` + lotColumns + ` FROM parking_lots`

	var conditions []string
	var args []interface{}
	argID := 1

	if filter.PostalCode != nil {
		conditions = append(conditions, fmt.Sprintf("pincode = $%d", argID))
		args = append(args, *filter.PostalCode)
		argID++
	}
	if filter.NameContains != "" {
		conditions = append(conditions, fmt.Sprintf("prime_location_name ILIKE '%%' || $%d || '%%'", argID))
		args = append(args, escapeLike(filter.NameContains))
		argID++
	}

	query := baseQuery
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY id"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ParkingLotRepository.Search: %w", err)
	}
	defer rows.Close()

	var lots []domain.ParkingLot
	for rows.Next() {
		lot, err := scanLot(rows)
		if err != nil {
			return nil, fmt.Errorf("ParkingLotRepository.Search (scanning row): %w", err)
		}
		lots = append(lots, *lot)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("ParkingLotRepository.Search (rows error): %w", err)
	}
	return lots, nil
}

func (r *pgParkingLotRepository) Update(ctx context.Context, lot *domain.ParkingLot) (*domain.ParkingLot, error) {
	query := `UPDATE parking_lots
	           SET prime_location_name = $1, price = $2, address = $3, pincode = $4, updated_at = CURRENT_TIMESTAMP
	           WHERE id = $5
	           RETURNING ` + lotColumns
	updated, err := scanLot(r.db.QueryRowContext(ctx, query, lot.Name, lot.PricePerHour, lot.Address, lot.PostalCode, lot.ID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("ParkingLotRepository.Update: %w", err)
	}
	return updated, nil
}

func (r *pgParkingLotRepository) DeleteWithSpots(ctx context.Context, id int) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("ParkingLotRepository.DeleteWithSpots (begin): %w", err)
	}
	defer tx.Rollback()

	var lotID int
	err = tx.QueryRowContext(ctx, `SELECT id FROM parking_lots WHERE id = $1 FOR UPDATE`, id).Scan(&lotID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return repository.ErrNotFound
		}
		return fmt.Errorf("ParkingLotRepository.DeleteWithSpots (lock lot): %w", err)
	}

	// Lock every spot so a concurrent booking cannot flip one while we check.
	rows, err := tx.QueryContext(ctx, `SELECT status FROM parking_spots WHERE lot_id = $1 FOR UPDATE`, id)
	if err != nil {
		return fmt.Errorf("ParkingLotRepository.DeleteWithSpots (lock spots): %w", err)
	}
	occupied := 0
	for rows.Next() {
		var status domain.SpotStatus
		if err := rows.Scan(&status); err != nil {
			rows.Close()
			return fmt.Errorf("ParkingLotRepository.DeleteWithSpots (scanning row): %w", err)
		}
		if status == domain.SpotOccupied {
			occupied++
		}
	}
	rows.Close()
	if err = rows.Err(); err != nil {
		return fmt.Errorf("ParkingLotRepository.DeleteWithSpots (rows error): %w", err)
	}
	if occupied > 0 {
		return fmt.Errorf("%w: %d occupied", repository.ErrLotHasOccupiedSpots, occupied)
	}

	if _, err = tx.ExecContext(ctx, `DELETE FROM parking_spots WHERE lot_id = $1`, id); err != nil {
		return fmt.Errorf("ParkingLotRepository.DeleteWithSpots (spots): %w", err)
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM parking_lots WHERE id = $1`, id); err != nil {
		return fmt.Errorf("ParkingLotRepository.DeleteWithSpots (lot): %w", err)
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("ParkingLotRepository.DeleteWithSpots (commit): %w", err)
	}
	return nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
