package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/NoobButNotNewbie/Limousine-s-managed/internal/models"
)

// VehicleRepository handles vehicles, their seats and the time-windowed
// reservations that bind a vehicle to a trip.
type VehicleRepository struct {
	db *sqlx.DB
}

// NewVehicleRepository creates a new VehicleRepository
func NewVehicleRepository(db *sqlx.DB) *VehicleRepository {
	return &VehicleRepository{db: db}
}

const vehicleColumns = `id, vehicle_number, status, created_at`
const reservationColumns = `id, trip_id, vehicle_id, reserved_from, reserved_to, is_active, created_at`

// CreateWithSeatsTx creates a vehicle together with its nine seats as one
// unit. Seat prices come from the position tier, not the caller.
func (r *VehicleRepository) CreateWithSeatsTx(tx *sqlx.Tx) (*models.Vehicle, error) {
	var number int
	if err := tx.Get(&number, `SELECT COALESCE(MAX(vehicle_number), 0) + 1 FROM vehicles`); err != nil {
		return nil, fmt.Errorf("failed to assign vehicle number: %w", err)
	}

	var vehicle models.Vehicle
	err := tx.Get(&vehicle,
		`INSERT INTO vehicles (id, vehicle_number, status)
		 VALUES ($1, $2, 'active')
		 RETURNING `+vehicleColumns,
		uuid.New().String(), number)
	if err != nil {
		return nil, fmt.Errorf("failed to create vehicle: %w", err)
	}

	for seat := 1; seat <= models.SeatCount; seat++ {
		_, err := tx.Exec(
			`INSERT INTO seats (id, vehicle_id, seat_number, position, price)
			 VALUES ($1, $2, $3, $4, $5)`,
			uuid.New().String(), vehicle.ID, seat, models.SeatPositionFor(seat), models.SeatPriceFor(seat))
		if err != nil {
			return nil, fmt.Errorf("failed to create seat %d: %w", seat, err)
		}
	}

	return &vehicle, nil
}

// FindFreeVehicleTx returns an active vehicle with no active reservation
// overlapping [from, to). Half-open semantics: a reservation ending exactly
// at `from` does not overlap. Returns "" when no vehicle clears the check.
func (r *VehicleRepository) FindFreeVehicleTx(tx *sqlx.Tx, from, to time.Time) (string, error) {
	var vehicleID string
	err := tx.Get(&vehicleID,
		`SELECT v.id
		 FROM vehicles v
		 WHERE v.status = 'active'
		   AND NOT EXISTS (
			SELECT 1 FROM vehicle_reservations vr
			WHERE vr.vehicle_id = v.id
			  AND vr.is_active = TRUE
			  AND vr.reserved_from < $2
			  AND vr.reserved_to > $1
		   )
		 ORDER BY v.vehicle_number
		 LIMIT 1`,
		from, to)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to find free vehicle: %w", err)
	}
	return vehicleID, nil
}

// CountVehiclesTx returns the current fleet size.
func (r *VehicleRepository) CountVehiclesTx(tx *sqlx.Tx) (int, error) {
	var count int
	if err := tx.Get(&count, `SELECT COUNT(*) FROM vehicles WHERE status = 'active'`); err != nil {
		return 0, fmt.Errorf("failed to count vehicles: %w", err)
	}
	return count, nil
}

// CreateReservationTx claims a vehicle for a trip over [from, to).
func (r *VehicleRepository) CreateReservationTx(tx *sqlx.Tx, tripID, vehicleID string, from, to time.Time) (*models.VehicleReservation, error) {
	var reservation models.VehicleReservation
	err := tx.Get(&reservation,
		`INSERT INTO vehicle_reservations (id, trip_id, vehicle_id, reserved_from, reserved_to, is_active)
		 VALUES ($1, $2, $3, $4, $5, TRUE)
		 RETURNING `+reservationColumns,
		uuid.New().String(), tripID, vehicleID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to create vehicle reservation: %w", err)
	}
	return &reservation, nil
}

// DeactivateReservationsByTrip frees the vehicle windows of a cancelled
// trip. Reservations are never mutated otherwise.
func (r *VehicleRepository) DeactivateReservationsByTrip(tripID string) (int64, error) {
	result, err := r.db.Exec(
		`UPDATE vehicle_reservations SET is_active = FALSE WHERE trip_id = $1 AND is_active = TRUE`,
		tripID)
	if err != nil {
		return 0, fmt.Errorf("failed to deactivate reservations: %w", err)
	}
	count, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return count, nil
}

// FindByTripWithSeats returns the trip's reserved vehicles with per-seat
// occupancy, for availability listings. A seat counts as booked while a
// PENDING or CONFIRMED booking holds its number on that reservation.
func (r *VehicleRepository) FindByTripWithSeats(tripID string) ([]models.VehicleAvailability, error) {
	type row struct {
		models.Vehicle
		ReservationID string              `db:"reservation_id"`
		SeatID        string              `db:"seat_id"`
		SeatNumber    int                 `db:"seat_number"`
		Position      models.SeatPosition `db:"position"`
		Price         int64               `db:"price"`
		IsBooked      bool                `db:"is_booked"`
	}

	var rows []row
	err := r.db.Select(&rows,
		`SELECT v.id, v.vehicle_number, v.status, v.created_at,
		        vr.id AS reservation_id,
		        s.id AS seat_id, s.seat_number, s.position, s.price,
		        EXISTS (
			SELECT 1 FROM bookings b
			WHERE b.reservation_id = vr.id
			  AND b.seat_number = s.seat_number
			  AND b.status IN ('PENDING', 'CONFIRMED')
		        ) AS is_booked
		 FROM vehicle_reservations vr
		 JOIN vehicles v ON v.id = vr.vehicle_id
		 JOIN seats s ON s.vehicle_id = v.id
		 WHERE vr.trip_id = $1 AND vr.is_active = TRUE
		 ORDER BY v.vehicle_number, s.seat_number`,
		tripID)
	if err != nil {
		return nil, fmt.Errorf("failed to list vehicles with seats: %w", err)
	}

	var result []models.VehicleAvailability
	index := make(map[string]int)
	for _, rw := range rows {
		i, ok := index[rw.Vehicle.ID]
		if !ok {
			result = append(result, models.VehicleAvailability{Vehicle: rw.Vehicle})
			i = len(result) - 1
			index[rw.Vehicle.ID] = i
		}
		result[i].Seats = append(result[i].Seats, models.Seat{
			ID:         rw.SeatID,
			VehicleID:  rw.Vehicle.ID,
			SeatNumber: rw.SeatNumber,
			Position:   rw.Position,
			Price:      rw.Price,
			IsBooked:   rw.IsBooked,
		})
		if !rw.IsBooked {
			result[i].AvailableSeats++
		}
	}
	return result, nil
}
