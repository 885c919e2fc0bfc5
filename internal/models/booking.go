package models

import (
	"database/sql"
	"time"
)

// BookingStatus is the lifecycle state of a single seat claim.
// PENDING is the only non-terminal state besides CONFIRMED; EXPIRED and
// CANCELLED are final.
type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "PENDING"
	BookingStatusConfirmed BookingStatus = "CONFIRMED"
	BookingStatusCancelled BookingStatus = "CANCELLED"
	BookingStatusExpired   BookingStatus = "EXPIRED"
)

// IsTerminal reports whether no further transition may leave the state.
// CONFIRMED is terminal for the sweepers but may still be cancelled
// explicitly by the customer.
func (s BookingStatus) IsTerminal() bool {
	return s == BookingStatusCancelled || s == BookingStatusExpired
}

// Active reports whether the booking still occupies its seat. Within one
// reservation at most one active booking may hold a given seat number;
// the bookings table enforces this with a partial unique index.
func (s BookingStatus) Active() bool {
	return s == BookingStatusPending || s == BookingStatusConfirmed
}

// Booking is one passenger's claim on a seat of a vehicle reservation.
type Booking struct {
	ID            string         `db:"id" json:"id"`
	CustomerID    string         `db:"customer_id" json:"customer_id"`
	ReservationID string         `db:"reservation_id" json:"reservation_id"`
	SeatNumber    int            `db:"seat_number" json:"seat_number"`
	Price         int64          `db:"price" json:"price"`
	Pickup        string         `db:"pickup" json:"pickup"`
	Dropoff       string         `db:"dropoff" json:"dropoff"`
	Status        BookingStatus  `db:"status" json:"status"`
	OtpCode       sql.NullString `db:"otp_code" json:"-"`
	ExpiresAt     time.Time      `db:"expires_at" json:"expires_at"`
	ConfirmedAt   sql.NullTime   `db:"confirmed_at" json:"confirmed_at,omitempty"`
	CreatedAt     time.Time      `db:"created_at" json:"created_at"`
}

// IsExpired reports whether the hold window has lapsed for a still-pending
// booking.
func (b *Booking) IsExpired() bool {
	return b.Status == BookingStatusPending && time.Now().After(b.ExpiresAt)
}

// BookingDetails is a booking joined with its trip, vehicle and customer,
// as returned to callers and handed to the notification collaborator.
type BookingDetails struct {
	Booking
	Trip          Trip         `db:"trip" json:"trip"`
	Vehicle       Vehicle      `db:"vehicle" json:"vehicle"`
	SeatPosition  SeatPosition `db:"-" json:"seat_position"`
	CustomerName  string       `db:"customer_name" json:"customer_name"`
	CustomerPhone string       `db:"customer_phone" json:"customer_phone"`
	CustomerEmail string       `db:"customer_email" json:"customer_email"`
}

// SeatPreference is the requested position tier, or empty for no
// restriction. Anything outside the known tiers means "no preference".
type SeatPreference string

// InitiateBookingRequest starts the booking flow for a route and time.
// Either a position preference or an explicit seat number may be given.
type InitiateBookingRequest struct {
	ZoneFrom       string         `json:"zone_from" binding:"required"`
	ZoneTo         string         `json:"zone_to" binding:"required"`
	StartTime      time.Time      `json:"start_time" binding:"required"`
	SeatPreference SeatPreference `json:"seat_preference"`
	SeatNumber     int            `json:"seat_number"` // 0 means no explicit seat
	Customer       CustomerInput  `json:"customer" binding:"required"`
	Pickup         string         `json:"pickup"`
	Dropoff        string         `json:"dropoff"`
}

// InitiateBookingResponse returns the pending booking and how long the
// customer has to verify the one-time code.
type InitiateBookingResponse struct {
	Booking         *Booking `json:"booking"`
	OtpExpiresInSec int      `json:"otp_expires_in"`
}

// VerifyOtpRequest confirms a pending booking.
type VerifyOtpRequest struct {
	Otp string `json:"otp" binding:"required"`
}

// ResendOtpResponse returns the fresh code's validity window.
type ResendOtpResponse struct {
	OtpExpiresInSec int `json:"otp_expires_in"`
}
