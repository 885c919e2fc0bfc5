package models

import (
	"fmt"
	"strings"
	"time"
)

// TripStatus is the lifecycle state of a scheduled trip.
type TripStatus string

const (
	TripStatusOpen      TripStatus = "OPEN"
	TripStatusConfirmed TripStatus = "CONFIRMED"
	TripStatusCancelled TripStatus = "CANCELLED"
	TripStatusCompleted TripStatus = "COMPLETED"
)

// Bookable departure hours. Trips may only start between 04:00 and 22:00.
const (
	TripEarliestHour = 4
	TripLatestHour   = 22
)

// Trip is a scheduled departure for a fixed route and time. Its identity
// key is (zone_from, zone_to, start_time); the first search for a key
// creates the trip.
type Trip struct {
	ID        string     `db:"id" json:"id"`
	ZoneFrom  string     `db:"zone_from" json:"zone_from"`
	ZoneTo    string     `db:"zone_to" json:"zone_to"`
	StartTime time.Time  `db:"start_time" json:"start_time"`
	Status    TripStatus `db:"status" json:"status"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt time.Time  `db:"updated_at" json:"updated_at"`
}

// IsOpen reports whether the trip still accepts bookings.
func (t *Trip) IsOpen() bool {
	return t.Status == TripStatusOpen
}

// TripKey identifies a trip by route and departure time.
type TripKey struct {
	ZoneFrom  string    `json:"zone_from"`
	ZoneTo    string    `json:"zone_to"`
	StartTime time.Time `json:"start_time"`
}

// Normalize trims zone names so equivalent keys hash to the same trip.
func (k TripKey) Normalize() TripKey {
	return TripKey{
		ZoneFrom:  strings.TrimSpace(k.ZoneFrom),
		ZoneTo:    strings.TrimSpace(k.ZoneTo),
		StartTime: k.StartTime,
	}
}

// Validate checks the key is complete and the departure falls inside the
// bookable time range.
func (k TripKey) Validate() error {
	if k.ZoneFrom == "" || k.ZoneTo == "" {
		return fmt.Errorf("both zone_from and zone_to are required")
	}
	if k.ZoneFrom == k.ZoneTo {
		return fmt.Errorf("zone_from and zone_to must differ")
	}
	if k.StartTime.IsZero() {
		return fmt.Errorf("start_time is required")
	}
	hour := k.StartTime.Hour()
	if hour < TripEarliestHour || hour >= TripLatestHour {
		return fmt.Errorf("start_time must be between %02d:00 and %02d:00", TripEarliestHour, TripLatestHour)
	}
	return nil
}

// VehicleAvailability is a per-vehicle seat map used by trip search.
type VehicleAvailability struct {
	Vehicle        Vehicle `json:"vehicle"`
	AvailableSeats int     `json:"available_seats"`
	Seats          []Seat  `json:"seats"`
}

// AvailableTrip is a search result: an open trip with its vehicles and
// current seat occupancy.
type AvailableTrip struct {
	Trip     Trip                  `json:"trip"`
	Vehicles []VehicleAvailability `json:"vehicles"`
}
