package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/NoobButNotNewbie/Limousine-s-managed/internal/models"
)

// TripRepository handles trip database operations
type TripRepository struct {
	db *sqlx.DB
}

// NewTripRepository creates a new TripRepository
func NewTripRepository(db *sqlx.DB) *TripRepository {
	return &TripRepository{db: db}
}

const tripColumns = `id, zone_from, zone_to, start_time, status, created_at, updated_at`

// The identity key (zone_from, zone_to, start_time) carries a unique
// constraint; the no-op DO UPDATE turns the insert into a get-or-create
// that always returns the row.
const upsertTripQuery = `
	INSERT INTO trips (id, zone_from, zone_to, start_time, status)
	VALUES ($1, $2, $3, $4, 'OPEN')
	ON CONFLICT (zone_from, zone_to, start_time)
	DO UPDATE SET start_time = EXCLUDED.start_time
	RETURNING ` + tripColumns

// UpsertTx finds or creates the trip for a key inside the booking
// transaction. The returned trip may be in any status; callers decide
// whether a non-OPEN trip is acceptable.
func (r *TripRepository) UpsertTx(tx *sqlx.Tx, key models.TripKey) (*models.Trip, error) {
	var trip models.Trip
	err := tx.Get(&trip, upsertTripQuery, uuid.New().String(), key.ZoneFrom, key.ZoneTo, key.StartTime)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert trip: %w", err)
	}
	return &trip, nil
}

// Upsert is the out-of-transaction variant used by trip search.
func (r *TripRepository) Upsert(key models.TripKey) (*models.Trip, error) {
	var trip models.Trip
	err := r.db.Get(&trip, upsertTripQuery, uuid.New().String(), key.ZoneFrom, key.ZoneTo, key.StartTime)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert trip: %w", err)
	}
	return &trip, nil
}

// GetByID retrieves a trip by ID; returns (nil, nil) when absent.
func (r *TripRepository) GetByID(id string) (*models.Trip, error) {
	var trip models.Trip
	err := r.db.Get(&trip, `SELECT `+tripColumns+` FROM trips WHERE id = $1`, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get trip: %w", err)
	}
	return &trip, nil
}

// UpdateStatus transitions a trip; returns (nil, nil) when the trip is gone.
func (r *TripRepository) UpdateStatus(id string, status models.TripStatus) (*models.Trip, error) {
	var trip models.Trip
	err := r.db.Get(&trip,
		`UPDATE trips SET status = $1, updated_at = NOW() WHERE id = $2 RETURNING `+tripColumns,
		status, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update trip status: %w", err)
	}
	return &trip, nil
}

// FindForFinalize returns OPEN trips departing within the notice window and
// not yet past. The status predicate is what makes overlapping sweep runs
// harmless: a trip finalized by one run no longer matches the next.
func (r *TripRepository) FindForFinalize(now time.Time, notice time.Duration) ([]models.Trip, error) {
	var trips []models.Trip
	err := r.db.Select(&trips,
		`SELECT `+tripColumns+` FROM trips
		 WHERE status = 'OPEN' AND start_time > $1 AND start_time <= $2
		 ORDER BY start_time`,
		now, now.Add(notice))
	if err != nil {
		return nil, fmt.Errorf("failed to find trips for finalize: %w", err)
	}
	return trips, nil
}

// FindAlternatives returns other OPEN trips on the same route and day.
func (r *TripRepository) FindAlternatives(zoneFrom, zoneTo string, day time.Time, excludeTripID string) ([]models.Trip, error) {
	var trips []models.Trip
	err := r.db.Select(&trips,
		`SELECT `+tripColumns+` FROM trips
		 WHERE zone_from = $1 AND zone_to = $2
		   AND start_time >= $3 AND start_time < $4
		   AND status = 'OPEN' AND id != $5
		 ORDER BY start_time`,
		zoneFrom, zoneTo, startOfDay(day), startOfDay(day).AddDate(0, 0, 1), excludeTripID)
	if err != nil {
		return nil, fmt.Errorf("failed to find alternative trips: %w", err)
	}
	return trips, nil
}

// Search returns OPEN trips for a route on a given day.
func (r *TripRepository) Search(zoneFrom, zoneTo string, day time.Time) ([]models.Trip, error) {
	var trips []models.Trip
	err := r.db.Select(&trips,
		`SELECT `+tripColumns+` FROM trips
		 WHERE zone_from = $1 AND zone_to = $2
		   AND start_time >= $3 AND start_time < $4
		   AND status = 'OPEN'
		 ORDER BY start_time`,
		zoneFrom, zoneTo, startOfDay(day), startOfDay(day).AddDate(0, 0, 1))
	if err != nil {
		return nil, fmt.Errorf("failed to search trips: %w", err)
	}
	return trips, nil
}

func startOfDay(t time.Time) time.Time {
	year, month, dayOfMonth := t.Date()
	return time.Date(year, month, dayOfMonth, 0, 0, 0, 0, t.Location())
}
