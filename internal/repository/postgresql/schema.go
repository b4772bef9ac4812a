package postgresql

import (
	"context"
	"database/sql"
	"fmt"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id            SERIAL PRIMARY KEY,
	username      VARCHAR(50)  NOT NULL,
	password_hash VARCHAR(100) NOT NULL,
	full_name     VARCHAR(50)  NOT NULL,
	address       VARCHAR(200) NOT NULL,
	postal_code   INTEGER      NOT NULL,
	is_admin      BOOLEAN      NOT NULL DEFAULT FALSE,
	created_at    TIMESTAMPTZ  NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at    TIMESTAMPTZ  NOT NULL DEFAULT CURRENT_TIMESTAMP,
	CONSTRAINT users_username_key UNIQUE (username)
);

CREATE TABLE IF NOT EXISTS parking_lots (
	id                  SERIAL PRIMARY KEY,
	prime_location_name VARCHAR(200)     NOT NULL,
	price               DOUBLE PRECISION NOT NULL CHECK (price >= 0),
	address             VARCHAR(200)     NOT NULL,
	pincode             INTEGER          NOT NULL,
	maximum_no_of_spots INTEGER          NOT NULL CHECK (maximum_no_of_spots >= 0),
	created_at          TIMESTAMPTZ      NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at          TIMESTAMPTZ      NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS parking_spots (
	id         SERIAL PRIMARY KEY,
	lot_id     INTEGER     NOT NULL REFERENCES parking_lots (id),
	status     VARCHAR(16) NOT NULL DEFAULT 'available' CHECK (status IN ('available', 'occupied')),
	created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS parking_spots_lot_status_idx ON parking_spots (lot_id, status, id);

CREATE TABLE IF NOT EXISTS reservations (
	id           SERIAL PRIMARY KEY,
	user_id      INTEGER          NOT NULL REFERENCES users (id),
	spot_id      INTEGER          REFERENCES parking_spots (id) ON DELETE SET NULL,
	lot_id       INTEGER          REFERENCES parking_lots (id) ON DELETE SET NULL,
	vehicle_no   VARCHAR(12)      NOT NULL,
	start_time   TIMESTAMPTZ      NOT NULL,
	end_time     TIMESTAMPTZ,
	parking_cost DOUBLE PRECISION,
	created_at   TIMESTAMPTZ      NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at   TIMESTAMPTZ      NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE UNIQUE INDEX IF NOT EXISTS reservations_open_spot_key ON reservations (spot_id) WHERE end_time IS NULL;
CREATE INDEX IF NOT EXISTS reservations_user_idx ON reservations (user_id, start_time DESC);
`

// Migrate creates the tables if they do not exist yet.
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("postgresql.Migrate: %w", err)
	}
	return nil
}
