package database

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NoobButNotNewbie/Limousine-s-managed/internal/models"
)

var tripRows = []string{"id", "zone_from", "zone_to", "start_time", "status", "created_at", "updated_at"}

func TestTripUpsertTx(t *testing.T) {
	db, mock := setupTestDB(t)
	repo := NewTripRepository(db)

	t.Run("Creates Or Returns Existing", func(t *testing.T) {
		start := time.Date(2026, 9, 10, 8, 0, 0, 0, time.UTC)
		tripID := uuid.New().String()
		now := time.Now()

		mock.ExpectBegin()
		mock.ExpectQuery(`INSERT INTO trips`).
			WithArgs(sqlmock.AnyArg(), "Saigon", "Dalat", start).
			WillReturnRows(sqlmock.NewRows(tripRows).AddRow(
				tripID, "Saigon", "Dalat", start, "OPEN", now, now,
			))

		tx, err := db.Beginx()
		require.NoError(t, err)
		defer tx.Rollback()

		trip, err := repo.UpsertTx(tx, models.TripKey{ZoneFrom: "Saigon", ZoneTo: "Dalat", StartTime: start})
		require.NoError(t, err)
		assert.Equal(t, tripID, trip.ID)
		assert.Equal(t, models.TripStatusOpen, trip.Status)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestTripUpdateStatus(t *testing.T) {
	db, mock := setupTestDB(t)
	repo := NewTripRepository(db)

	t.Run("Transitions Trip", func(t *testing.T) {
		tripID := uuid.New().String()
		now := time.Now()

		mock.ExpectQuery(`UPDATE trips SET status`).
			WithArgs(models.TripStatusCancelled, tripID).
			WillReturnRows(sqlmock.NewRows(tripRows).AddRow(
				tripID, "Saigon", "Dalat", now.Add(2*time.Hour), "CANCELLED", now, now,
			))

		trip, err := repo.UpdateStatus(tripID, models.TripStatusCancelled)
		require.NoError(t, err)
		require.NotNil(t, trip)
		assert.Equal(t, models.TripStatusCancelled, trip.Status)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Missing Trip Returns Nil", func(t *testing.T) {
		mock.ExpectQuery(`UPDATE trips SET status`).
			WithArgs(models.TripStatusCancelled, "gone").
			WillReturnRows(sqlmock.NewRows(tripRows))

		trip, err := repo.UpdateStatus("gone", models.TripStatusCancelled)
		require.NoError(t, err)
		assert.Nil(t, trip)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestFindForFinalize(t *testing.T) {
	db, mock := setupTestDB(t)
	repo := NewTripRepository(db)

	now := time.Now()
	soon := now.Add(2 * time.Hour)

	mock.ExpectQuery(`SELECT (.+) FROM trips`).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(tripRows).AddRow(
			uuid.New().String(), "Saigon", "Dalat", soon, "OPEN", now, now,
		))

	trips, err := repo.FindForFinalize(now, 3*time.Hour)
	require.NoError(t, err)
	require.Len(t, trips, 1)
	assert.Equal(t, models.TripStatusOpen, trips[0].Status)

	assert.NoError(t, mock.ExpectationsWereMet())
}
