package database

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The reserved window is half-open: a reservation ending exactly when the
// new window starts does not block the vehicle. That rule lives in the
// comparators of the overlap predicate, so the expectations below match
// the strict `<` and `>` literally and fail if either is loosened.
const overlapPredicate = `vr\.reserved_from < \$2 AND vr\.reserved_to > \$1`

func TestFindFreeVehicleTx(t *testing.T) {
	db, mock := setupTestDB(t)
	repo := NewVehicleRepository(db)

	from := time.Date(2026, 9, 10, 8, 0, 0, 0, time.UTC)
	to := from.Add(5 * time.Hour)

	t.Run("Returns Lowest Numbered Free Vehicle", func(t *testing.T) {
		vehicleID := uuid.New().String()

		mock.ExpectBegin()
		mock.ExpectQuery(overlapPredicate).
			WithArgs(from, to).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(vehicleID))

		tx, err := db.Beginx()
		require.NoError(t, err)
		defer tx.Rollback()

		got, err := repo.FindFreeVehicleTx(tx, from, to)
		require.NoError(t, err)
		assert.Equal(t, vehicleID, got)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("No Vehicle Clears The Window", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery(overlapPredicate).
			WithArgs(from, to).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		tx, err := db.Beginx()
		require.NoError(t, err)
		defer tx.Rollback()

		got, err := repo.FindFreeVehicleTx(tx, from, to)
		require.NoError(t, err)
		assert.Empty(t, got)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestDeactivateReservationsByTrip(t *testing.T) {
	db, mock := setupTestDB(t)
	repo := NewVehicleRepository(db)

	mock.ExpectExec(`UPDATE vehicle_reservations SET is_active = FALSE`).
		WithArgs("trip-1").
		WillReturnResult(sqlmock.NewResult(0, 2))

	count, err := repo.DeactivateReservationsByTrip("trip-1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	assert.NoError(t, mock.ExpectationsWereMet())
}
