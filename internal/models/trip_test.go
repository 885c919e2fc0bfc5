package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTripKeyValidate(t *testing.T) {
	day := func(hour int) time.Time {
		return time.Date(2026, 9, 10, hour, 0, 0, 0, time.UTC)
	}

	t.Run("Valid Key", func(t *testing.T) {
		key := TripKey{ZoneFrom: "Saigon", ZoneTo: "Dalat", StartTime: day(8)}
		assert.NoError(t, key.Validate())
	})

	t.Run("Boundary Hours", func(t *testing.T) {
		assert.NoError(t, TripKey{ZoneFrom: "A", ZoneTo: "B", StartTime: day(4)}.Validate())
		assert.Error(t, TripKey{ZoneFrom: "A", ZoneTo: "B", StartTime: day(3)}.Validate())
		assert.Error(t, TripKey{ZoneFrom: "A", ZoneTo: "B", StartTime: day(22)}.Validate())
		assert.NoError(t, TripKey{ZoneFrom: "A", ZoneTo: "B", StartTime: day(21)}.Validate())
	})

	t.Run("Missing Zones", func(t *testing.T) {
		assert.Error(t, TripKey{ZoneTo: "Dalat", StartTime: day(8)}.Validate())
		assert.Error(t, TripKey{ZoneFrom: "Saigon", StartTime: day(8)}.Validate())
	})

	t.Run("Same Zone", func(t *testing.T) {
		assert.Error(t, TripKey{ZoneFrom: "Saigon", ZoneTo: "Saigon", StartTime: day(8)}.Validate())
	})

	t.Run("Zero Time", func(t *testing.T) {
		assert.Error(t, TripKey{ZoneFrom: "Saigon", ZoneTo: "Dalat"}.Validate())
	})
}

func TestTripKeyNormalize(t *testing.T) {
	key := TripKey{ZoneFrom: "  Saigon ", ZoneTo: " Dalat", StartTime: time.Now()}
	norm := key.Normalize()
	assert.Equal(t, "Saigon", norm.ZoneFrom)
	assert.Equal(t, "Dalat", norm.ZoneTo)
}

func TestBookingStatus(t *testing.T) {
	assert.True(t, BookingStatusPending.Active())
	assert.True(t, BookingStatusConfirmed.Active())
	assert.False(t, BookingStatusExpired.Active())
	assert.False(t, BookingStatusCancelled.Active())

	assert.True(t, BookingStatusExpired.IsTerminal())
	assert.True(t, BookingStatusCancelled.IsTerminal())
	assert.False(t, BookingStatusPending.IsTerminal())
	assert.False(t, BookingStatusConfirmed.IsTerminal())
}

func TestBookingIsExpired(t *testing.T) {
	pending := Booking{Status: BookingStatusPending, ExpiresAt: time.Now().Add(-time.Second)}
	assert.True(t, pending.IsExpired())

	fresh := Booking{Status: BookingStatusPending, ExpiresAt: time.Now().Add(time.Minute)}
	assert.False(t, fresh.IsExpired())

	// Confirmed bookings never expire regardless of the old deadline.
	confirmed := Booking{Status: BookingStatusConfirmed, ExpiresAt: time.Now().Add(-time.Hour)}
	assert.False(t, confirmed.IsExpired())
}
