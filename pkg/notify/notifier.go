// Package notify is the outbound notification collaborator of the booking
// engine. The engine fires and forgets: delivery failure is logged by the
// implementation and never aborts a state transition that already
// committed.
package notify

import (
	"time"

	"github.com/NoobButNotNewbie/Limousine-s-managed/internal/models"
)

// Notifier is the abstract notification capability the engine calls.
type Notifier interface {
	// SendOtp delivers a one-time verification code to the customer.
	SendOtp(phone, code string, validFor time.Duration) error
	// SendConfirmation tells the customer their booking is confirmed.
	SendConfirmation(booking *models.BookingDetails) error
	// SendReminder tells the customer their trip departs soon.
	SendReminder(booking *models.BookingDetails) error
	// SendCancellation tells the customer their trip was cancelled and
	// offers alternative departures on the same route and day.
	SendCancellation(booking *models.BookingDetails, alternatives []models.Trip) error
	// CallCustomer places an automated voice call.
	CallCustomer(phone, message string) error
}
