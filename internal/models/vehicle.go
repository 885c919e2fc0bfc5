package models

import "time"

// VehicleStatus marks whether a vehicle can take new reservations.
type VehicleStatus string

const (
	VehicleStatusActive   VehicleStatus = "active"
	VehicleStatusInactive VehicleStatus = "inactive"
)

// Vehicle is a fixed-capacity physical resource. It is created together
// with its nine seats as one unit whenever a trip needs more capacity.
type Vehicle struct {
	ID            string        `db:"id" json:"id"`
	VehicleNumber int           `db:"vehicle_number" json:"vehicle_number"`
	Status        VehicleStatus `db:"status" json:"status"`
	CreatedAt     time.Time     `db:"created_at" json:"created_at"`
}

// VehicleReservation binds one vehicle to one trip for the half-open
// interval [ReservedFrom, ReservedTo). For a given vehicle no two active
// reservations may overlap; the allocator enforces this with an
// end-exclusive range check.
type VehicleReservation struct {
	ID           string    `db:"id" json:"id"`
	TripID       string    `db:"trip_id" json:"trip_id"`
	VehicleID    string    `db:"vehicle_id" json:"vehicle_id"`
	ReservedFrom time.Time `db:"reserved_from" json:"reserved_from"`
	ReservedTo   time.Time `db:"reserved_to" json:"reserved_to"`
	IsActive     bool      `db:"is_active" json:"is_active"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}
