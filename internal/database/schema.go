package database

import (
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Schema statements are idempotent so startup can run them every time.
// The partial unique index on bookings is the backbone of seat
// exclusivity: only PENDING and CONFIRMED rows occupy a seat, so a seat
// frees up the moment its booking expires or is cancelled.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS customers (
		id UUID PRIMARY KEY,
		name TEXT NOT NULL,
		phone TEXT NOT NULL UNIQUE,
		email TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS trips (
		id UUID PRIMARY KEY,
		zone_from TEXT NOT NULL,
		zone_to TEXT NOT NULL,
		start_time TIMESTAMPTZ NOT NULL,
		status TEXT NOT NULL DEFAULT 'OPEN',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (zone_from, zone_to, start_time)
	)`,
	`CREATE TABLE IF NOT EXISTS vehicles (
		id UUID PRIMARY KEY,
		vehicle_number INT NOT NULL UNIQUE,
		status TEXT NOT NULL DEFAULT 'active',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS seats (
		id UUID PRIMARY KEY,
		vehicle_id UUID NOT NULL REFERENCES vehicles(id),
		seat_number INT NOT NULL,
		position TEXT NOT NULL,
		price BIGINT NOT NULL,
		UNIQUE (vehicle_id, seat_number)
	)`,
	`CREATE TABLE IF NOT EXISTS vehicle_reservations (
		id UUID PRIMARY KEY,
		trip_id UUID NOT NULL REFERENCES trips(id),
		vehicle_id UUID NOT NULL REFERENCES vehicles(id),
		reserved_from TIMESTAMPTZ NOT NULL,
		reserved_to TIMESTAMPTZ NOT NULL,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS bookings (
		id UUID PRIMARY KEY,
		customer_id UUID NOT NULL REFERENCES customers(id),
		reservation_id UUID NOT NULL REFERENCES vehicle_reservations(id),
		seat_number INT NOT NULL CHECK (seat_number BETWEEN 1 AND 9),
		price BIGINT NOT NULL,
		pickup TEXT NOT NULL DEFAULT '',
		dropoff TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'PENDING',
		otp_code TEXT,
		expires_at TIMESTAMPTZ NOT NULL,
		confirmed_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_bookings_active_seat
		ON bookings (reservation_id, seat_number)
		WHERE status IN ('PENDING', 'CONFIRMED')`,
	`CREATE INDEX IF NOT EXISTS idx_bookings_pending_expiry
		ON bookings (expires_at)
		WHERE status = 'PENDING'`,
	`CREATE INDEX IF NOT EXISTS idx_trips_open_start
		ON trips (start_time)
		WHERE status = 'OPEN'`,
	`CREATE INDEX IF NOT EXISTS idx_reservations_vehicle_window
		ON vehicle_reservations (vehicle_id, reserved_from, reserved_to)
		WHERE is_active = TRUE`,
}

// EnsureSchema creates the tables and indexes if they do not exist.
func EnsureSchema(db *sqlx.DB) error {
	for _, stmt := range schemaStatements {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to apply schema statement: %w", err)
		}
	}
	return nil
}
