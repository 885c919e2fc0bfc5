package services

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NoobButNotNewbie/Limousine-s-managed/internal/config"
	"github.com/NoobButNotNewbie/Limousine-s-managed/internal/database"
	"github.com/NoobButNotNewbie/Limousine-s-managed/pkg/seatlock"
)

type sweeperFixture struct {
	svc      *SweeperService
	mock     sqlmock.Sqlmock
	lock     *seatlock.Lock
	notifier *fakeNotifier
}

func setupSweeper(t *testing.T) *sweeperFixture {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })
	db := sqlx.NewDb(mockDB, "sqlmock")

	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { client.Close() })

	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	cfg := config.BookingConfig{
		HoldWindow:        5 * time.Minute,
		MaxRetry:          3,
		TripDurationHours: 5,
		MinPassengers:     4,
		PreTripNotice:     3 * time.Hour,
		MaxVehicles:       10,
	}

	bookingRepo := database.NewBookingRepository(db)
	tripRepo := database.NewTripRepository(db)
	vehicleRepo := database.NewVehicleRepository(db)
	lock := seatlock.New(client)
	notifier := &fakeNotifier{}
	vehicleService := NewVehicleService(vehicleRepo, cfg.MaxVehicles)
	tripService := NewTripService(db, tripRepo, vehicleRepo, bookingRepo, vehicleService, cfg.TripDurationHours, logger)

	svc := NewSweeperService(bookingRepo, tripRepo, vehicleRepo, tripService, lock, notifier, cfg, logger)
	return &sweeperFixture{svc: svc, mock: mock, lock: lock, notifier: notifier}
}

func TestExpirePendingBookings(t *testing.T) {
	t.Run("Expires Stale Holds And Frees Locks", func(t *testing.T) {
		f := setupSweeper(t)
		ctx := context.Background()
		bookingID, resID := uuid.New().String(), uuid.New().String()

		held, err := f.lock.Acquire(ctx, resID, 4, "holder", 5*time.Minute)
		require.NoError(t, err)
		require.True(t, held)

		past := time.Now().Add(-time.Minute)
		f.mock.ExpectQuery(`SELECT (.+) FROM bookings`).
			WillReturnRows(sqlmock.NewRows(bookingCols).AddRow(
				bookingID, "cust-1", resID, 4, int64(250000), "", "",
				"PENDING", "123456", past, nil, past.Add(-5*time.Minute)))
		f.mock.ExpectExec(`UPDATE bookings SET status = 'EXPIRED'`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		count, err := f.svc.ExpirePendingBookings(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, count)

		_, heldAfter, err := f.lock.Peek(ctx, resID, 4)
		require.NoError(t, err)
		assert.False(t, heldAfter)

		assert.NoError(t, f.mock.ExpectationsWereMet())
	})

	t.Run("Booking Confirmed Mid Sweep Is Left Alone", func(t *testing.T) {
		f := setupSweeper(t)
		bookingID := uuid.New().String()
		past := time.Now().Add(-time.Minute)

		f.mock.ExpectQuery(`SELECT (.+) FROM bookings`).
			WillReturnRows(sqlmock.NewRows(bookingCols).AddRow(
				bookingID, "cust-1", "res-1", 4, int64(250000), "", "",
				"PENDING", "123456", past, nil, past.Add(-5*time.Minute)))
		// Zero rows affected: the booking moved to CONFIRMED between the
		// scan and the update.
		f.mock.ExpectExec(`UPDATE bookings SET status = 'EXPIRED'`).
			WillReturnResult(sqlmock.NewResult(0, 0))

		count, err := f.svc.ExpirePendingBookings(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 0, count)

		assert.NoError(t, f.mock.ExpectationsWereMet())
	})

	t.Run("Nothing To Expire", func(t *testing.T) {
		f := setupSweeper(t)

		f.mock.ExpectQuery(`SELECT (.+) FROM bookings`).
			WillReturnRows(sqlmock.NewRows(bookingCols))

		count, err := f.svc.ExpirePendingBookings(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 0, count)

		assert.NoError(t, f.mock.ExpectationsWereMet())
	})
}

func TestFinalizeTrips(t *testing.T) {
	now := time.Now()
	departure := now.Add(2 * time.Hour)

	t.Run("Enough Passengers Confirms Trip", func(t *testing.T) {
		f := setupSweeper(t)
		tripID := uuid.New().String()
		bookingID, custID, resID := uuid.New().String(), uuid.New().String(), uuid.New().String()

		f.mock.ExpectQuery(`SELECT (.+) FROM trips`).
			WillReturnRows(sqlmock.NewRows(tripRowCols).AddRow(
				tripID, "Saigon", "Dalat", departure, "OPEN", now, now))
		f.mock.ExpectQuery(`SELECT COUNT\(\*\)`).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(4))
		f.mock.ExpectQuery(`UPDATE trips SET status`).
			WillReturnRows(sqlmock.NewRows(tripRowCols).AddRow(
				tripID, "Saigon", "Dalat", departure, "CONFIRMED", now, now))
		f.mock.ExpectQuery(`SELECT b.id`).
			WillReturnRows(sqlmock.NewRows(detailCols).
				AddRow(detailRow(bookingID, custID, resID, 2, "CONFIRMED", nil, departure, departure)...))

		err := f.svc.FinalizeTrips(context.Background())
		require.NoError(t, err)

		assert.Equal(t, []string{bookingID}, f.notifier.reminders)
		assert.Equal(t, []string{"+84901234567"}, f.notifier.calls)
		assert.Empty(t, f.notifier.cancellations)

		assert.NoError(t, f.mock.ExpectationsWereMet())
	})

	t.Run("Too Few Passengers Cancels Trip", func(t *testing.T) {
		f := setupSweeper(t)
		ctx := context.Background()
		tripID := uuid.New().String()
		bookingID, custID, resID := uuid.New().String(), uuid.New().String(), uuid.New().String()

		held, err := f.lock.Acquire(ctx, resID, 2, "holder", 5*time.Minute)
		require.NoError(t, err)
		require.True(t, held)

		f.mock.ExpectQuery(`SELECT (.+) FROM trips`).
			WillReturnRows(sqlmock.NewRows(tripRowCols).AddRow(
				tripID, "Saigon", "Dalat", departure, "OPEN", now, now))
		f.mock.ExpectQuery(`SELECT COUNT\(\*\)`).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
		// Affected customers and alternatives are collected first.
		f.mock.ExpectQuery(`SELECT b.id`).
			WillReturnRows(sqlmock.NewRows(detailCols).
				AddRow(detailRow(bookingID, custID, resID, 2, "CONFIRMED", nil, departure, departure)...))
		f.mock.ExpectQuery(`SELECT (.+) FROM trips`).
			WillReturnRows(sqlmock.NewRows(tripRowCols).AddRow(
				uuid.New().String(), "Saigon", "Dalat", departure.Add(4*time.Hour), "OPEN", now, now))
		f.mock.ExpectQuery(`UPDATE trips SET status`).
			WillReturnRows(sqlmock.NewRows(tripRowCols).AddRow(
				tripID, "Saigon", "Dalat", departure, "CANCELLED", now, now))
		f.mock.ExpectExec(`UPDATE bookings SET status = 'CANCELLED'`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		f.mock.ExpectExec(`UPDATE vehicle_reservations SET is_active = FALSE`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err = f.svc.FinalizeTrips(ctx)
		require.NoError(t, err)

		assert.Equal(t, []string{bookingID}, f.notifier.cancellations)
		assert.Equal(t, []string{"+84901234567"}, f.notifier.calls)
		assert.Empty(t, f.notifier.reminders)

		_, heldAfter, err := f.lock.Peek(ctx, resID, 2)
		require.NoError(t, err)
		assert.False(t, heldAfter)

		assert.NoError(t, f.mock.ExpectationsWereMet())
	})

	t.Run("No Trips In Window", func(t *testing.T) {
		f := setupSweeper(t)

		f.mock.ExpectQuery(`SELECT (.+) FROM trips`).
			WillReturnRows(sqlmock.NewRows(tripRowCols))

		err := f.svc.FinalizeTrips(context.Background())
		require.NoError(t, err)

		assert.NoError(t, f.mock.ExpectationsWereMet())
	})
}
