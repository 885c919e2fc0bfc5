package models

import (
	"fmt"
	"strings"
	"time"
)

// Customer identity is keyed by phone number. Name and email may be
// refreshed on later bookings; the phone is the stable key.
type Customer struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Phone     string    `db:"phone" json:"phone"`
	Email     string    `db:"email" json:"email"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// CustomerInput is the contact block submitted with a booking request.
type CustomerInput struct {
	Name  string `json:"name" binding:"required"`
	Phone string `json:"phone" binding:"required"`
	Email string `json:"email"`
}

// Validate checks the minimum contact data needed to reach the customer.
func (c CustomerInput) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("customer name is required")
	}
	phone := strings.TrimSpace(c.Phone)
	if len(phone) < 9 {
		return fmt.Errorf("customer phone is required")
	}
	for _, r := range phone {
		if (r < '0' || r > '9') && r != '+' {
			return fmt.Errorf("customer phone contains invalid characters")
		}
	}
	return nil
}
