package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/NoobButNotNewbie/Limousine-s-managed/internal/apperrors"
	"github.com/NoobButNotNewbie/Limousine-s-managed/internal/models"
)

// BookingRepository handles booking database operations. The bookings table
// carries a partial unique index on (reservation_id, seat_number) over
// PENDING and CONFIRMED rows; that constraint, not the repository, is the
// final arbiter of seat exclusivity.
type BookingRepository struct {
	db *sqlx.DB
}

// NewBookingRepository creates a new BookingRepository
func NewBookingRepository(db *sqlx.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

const bookingColumns = `id, customer_id, reservation_id, seat_number, price, pickup, dropoff,
	status, otp_code, expires_at, confirmed_at, created_at`

const findSpareReservationQuery = `
	SELECT vr.id
	FROM vehicle_reservations vr
	LEFT JOIN bookings b
		ON b.reservation_id = vr.id
		AND b.status IN ('PENDING', 'CONFIRMED')
	WHERE vr.trip_id = $1 AND vr.is_active = TRUE
	GROUP BY vr.id
	HAVING COUNT(b.id) < $2
	ORDER BY COUNT(b.id) ASC
	LIMIT 1`

// FindReservationWithSpareTx returns the trip's emptiest reservation that
// still has a free seat, or "" when every reservation is full.
func (r *BookingRepository) FindReservationWithSpareTx(tx *sqlx.Tx, tripID string) (string, error) {
	var reservationID string
	err := tx.Get(&reservationID, findSpareReservationQuery, tripID, models.SeatCount)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to find reservation with spare capacity: %w", err)
	}
	return reservationID, nil
}

// HasSpareCapacity reports whether any reservation of the trip still has a
// free seat. The availability path uses it to decide whether the fleet
// needs to grow before listing the trip.
func (r *BookingRepository) HasSpareCapacity(tripID string) (bool, error) {
	var reservationID string
	err := r.db.Get(&reservationID, findSpareReservationQuery, tripID, models.SeatCount)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check spare capacity: %w", err)
	}
	return true, nil
}

// FindOccupiedSeatsTx returns the seat numbers held by PENDING or CONFIRMED
// bookings on a reservation. This is a point-in-time snapshot; the insert's
// uniqueness constraint closes the window it leaves open.
func (r *BookingRepository) FindOccupiedSeatsTx(tx *sqlx.Tx, reservationID string) ([]int, error) {
	var seats pq.Int64Array
	err := tx.Get(&seats,
		`SELECT COALESCE(array_agg(seat_number), '{}')
		 FROM bookings
		 WHERE reservation_id = $1 AND status IN ('PENDING', 'CONFIRMED')`,
		reservationID)
	if err != nil {
		return nil, fmt.Errorf("failed to find occupied seats: %w", err)
	}
	occupied := make([]int, len(seats))
	for i, s := range seats {
		occupied[i] = int(s)
	}
	return occupied, nil
}

// InsertPendingTx inserts a PENDING booking row. A unique-constraint
// violation comes back as a CONFLICT domain error; the retry loop treats
// it as a lost seat race and tries again.
func (r *BookingRepository) InsertPendingTx(tx *sqlx.Tx, booking *models.Booking) error {
	booking.ID = uuid.New().String()
	booking.Status = models.BookingStatusPending
	err := tx.Get(booking,
		`INSERT INTO bookings (id, customer_id, reservation_id, seat_number, price,
			pickup, dropoff, status, otp_code, expires_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, 'PENDING', $8, $9)
		 RETURNING `+bookingColumns,
		booking.ID, booking.CustomerID, booking.ReservationID, booking.SeatNumber, booking.Price,
		booking.Pickup, booking.Dropoff, booking.OtpCode, booking.ExpiresAt)
	return apperrors.MapDBError(err)
}

// GetByID retrieves a booking; returns (nil, nil) when absent.
func (r *BookingRepository) GetByID(id string) (*models.Booking, error) {
	var booking models.Booking
	err := r.db.Get(&booking, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return &booking, nil
}

const bookingDetailsQuery = `
	SELECT b.id, b.customer_id, b.reservation_id, b.seat_number, b.price, b.pickup, b.dropoff,
	       b.status, b.otp_code, b.expires_at, b.confirmed_at, b.created_at,
	       t.id AS "trip.id", t.zone_from AS "trip.zone_from", t.zone_to AS "trip.zone_to",
	       t.start_time AS "trip.start_time", t.status AS "trip.status",
	       t.created_at AS "trip.created_at", t.updated_at AS "trip.updated_at",
	       v.id AS "vehicle.id", v.vehicle_number AS "vehicle.vehicle_number",
	       v.status AS "vehicle.status", v.created_at AS "vehicle.created_at",
	       c.name AS customer_name, c.phone AS customer_phone, c.email AS customer_email
	FROM bookings b
	JOIN vehicle_reservations vr ON vr.id = b.reservation_id
	JOIN trips t ON t.id = vr.trip_id
	JOIN vehicles v ON v.id = vr.vehicle_id
	JOIN customers c ON c.id = b.customer_id`

// GetDetails retrieves a booking joined with its trip, vehicle and
// customer; returns (nil, nil) when absent.
func (r *BookingRepository) GetDetails(id string) (*models.BookingDetails, error) {
	var details models.BookingDetails
	err := r.db.Get(&details, bookingDetailsQuery+` WHERE b.id = $1`, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get booking details: %w", err)
	}
	details.SeatPosition = models.SeatPositionFor(details.SeatNumber)
	return &details, nil
}

// Confirm moves a PENDING booking to CONFIRMED and clears its stored OTP.
// Returns (nil, nil) when the booking is not PENDING anymore, so callers
// can distinguish a lost race from success.
func (r *BookingRepository) Confirm(id string) (*models.Booking, error) {
	var booking models.Booking
	err := r.db.Get(&booking,
		`UPDATE bookings
		 SET status = 'CONFIRMED', confirmed_at = NOW(), otp_code = NULL
		 WHERE id = $1 AND status = 'PENDING'
		 RETURNING `+bookingColumns,
		id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to confirm booking: %w", err)
	}
	return &booking, nil
}

// Cancel transitions a booking to CANCELLED. Explicit customer
// cancellation is allowed even from CONFIRMED.
func (r *BookingRepository) Cancel(id string) (*models.Booking, error) {
	var booking models.Booking
	err := r.db.Get(&booking,
		`UPDATE bookings SET status = 'CANCELLED', otp_code = NULL
		 WHERE id = $1
		 RETURNING `+bookingColumns,
		id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to cancel booking: %w", err)
	}
	return &booking, nil
}

// Expire transitions a PENDING booking to EXPIRED. The status predicate
// makes re-running the sweeper against an already-expired booking a no-op.
func (r *BookingRepository) Expire(id string) (bool, error) {
	result, err := r.db.Exec(
		`UPDATE bookings SET status = 'EXPIRED', otp_code = NULL
		 WHERE id = $1 AND status = 'PENDING'`,
		id)
	if err != nil {
		return false, fmt.Errorf("failed to expire booking: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return affected > 0, nil
}

// SetOtpCode stores a reissued code on the booking row.
func (r *BookingRepository) SetOtpCode(id, code string) error {
	_, err := r.db.Exec(`UPDATE bookings SET otp_code = $1 WHERE id = $2`, code, id)
	if err != nil {
		return fmt.Errorf("failed to store OTP code: %w", err)
	}
	return nil
}

// FindExpiredPending returns PENDING bookings whose hold deadline passed.
func (r *BookingRepository) FindExpiredPending(now time.Time) ([]models.Booking, error) {
	var bookings []models.Booking
	err := r.db.Select(&bookings,
		`SELECT `+bookingColumns+` FROM bookings
		 WHERE status = 'PENDING' AND expires_at < $1`,
		now)
	if err != nil {
		return nil, fmt.Errorf("failed to find expired pending bookings: %w", err)
	}
	return bookings, nil
}

// CountConfirmedByTrip counts CONFIRMED passengers across the trip's
// reservations.
func (r *BookingRepository) CountConfirmedByTrip(tripID string) (int, error) {
	var count int
	err := r.db.Get(&count,
		`SELECT COUNT(*)
		 FROM bookings b
		 JOIN vehicle_reservations vr ON vr.id = b.reservation_id
		 WHERE vr.trip_id = $1 AND b.status = 'CONFIRMED'`,
		tripID)
	if err != nil {
		return 0, fmt.Errorf("failed to count confirmed bookings: %w", err)
	}
	return count, nil
}

// FindConfirmedByTrip returns the trip's confirmed bookings with details,
// for reminder and cancellation notifications.
func (r *BookingRepository) FindConfirmedByTrip(tripID string) ([]models.BookingDetails, error) {
	var bookings []models.BookingDetails
	err := r.db.Select(&bookings,
		bookingDetailsQuery+` WHERE vr.trip_id = $1 AND b.status = 'CONFIRMED' ORDER BY b.created_at`,
		tripID)
	if err != nil {
		return nil, fmt.Errorf("failed to find confirmed bookings: %w", err)
	}
	for i := range bookings {
		bookings[i].SeatPosition = models.SeatPositionFor(bookings[i].SeatNumber)
	}
	return bookings, nil
}

// CancelActiveByTrip releases every PENDING or CONFIRMED booking of a
// cancelled trip.
func (r *BookingRepository) CancelActiveByTrip(tripID string) (int64, error) {
	result, err := r.db.Exec(
		`UPDATE bookings SET status = 'CANCELLED', otp_code = NULL
		 WHERE reservation_id IN (SELECT id FROM vehicle_reservations WHERE trip_id = $1)
		   AND status IN ('PENDING', 'CONFIRMED')`,
		tripID)
	if err != nil {
		return 0, fmt.Errorf("failed to cancel trip bookings: %w", err)
	}
	count, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return count, nil
}
