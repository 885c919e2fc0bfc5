package apperrors

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/lib/pq"
)

// AppError is a domain error carrying a stable machine code and the HTTP
// status the thin transport layer should map it to. Expected conditions
// (seat race, lock miss, no capacity) are modeled as values so callers can
// branch on them with errors.As instead of string matching.
type AppError struct {
	Code       string
	StatusCode int
	Message    string
	Err        error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is match two AppErrors by code.
func (e *AppError) Is(target error) bool {
	var t *AppError
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

func New(code string, status int, message string) *AppError {
	return &AppError{Code: code, StatusCode: status, Message: message}
}

// Error kinds used across the booking engine. Matching is by Code, so these
// can be used both as sentinels (errors.Is) and as templates for wrapping.
var (
	ErrValidation      = New("VALIDATION_ERROR", http.StatusBadRequest, "invalid input")
	ErrNotFound        = New("NOT_FOUND", http.StatusNotFound, "resource not found")
	ErrConflict        = New("CONFLICT", http.StatusConflict, "resource already exists")
	ErrSeatLocked      = New("SEAT_LOCKED", http.StatusLocked, "seat is currently locked")
	ErrOtp             = New("OTP_ERROR", http.StatusUnauthorized, "invalid or expired OTP")
	ErrTripUnavailable = New("TRIP_UNAVAILABLE", http.StatusBadRequest, "trip is not available for booking")
	ErrNoVehicle       = New("NO_VEHICLE", http.StatusServiceUnavailable, "no vehicle available for this time window")
	ErrNoSeat          = New("NO_SEAT", http.StatusUnprocessableEntity, "no seat available")
	ErrBookingExpired  = New("BOOKING_EXPIRED", http.StatusGone, "booking has expired")
)

// NotFound returns a NOT_FOUND error naming the missing resource.
func NotFound(resource string) *AppError {
	return New(ErrNotFound.Code, ErrNotFound.StatusCode, resource+" not found")
}

// Validation returns a VALIDATION_ERROR with a specific message.
func Validation(message string) *AppError {
	return New(ErrValidation.Code, ErrValidation.StatusCode, message)
}

// Wrap attaches an underlying cause to a copy of the given kind.
func Wrap(kind *AppError, err error) *AppError {
	return &AppError{Code: kind.Code, StatusCode: kind.StatusCode, Message: kind.Message, Err: err}
}

// Postgres error codes we translate at the repository boundary.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
)

// IsUniqueViolation reports whether err is a Postgres unique-constraint
// violation. The booking retry loop treats this as an expected, retryable
// event (a concurrent committer won the seat), never as a fatal error.
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && string(pqErr.Code) == pgUniqueViolation
}

// MapDBError translates low-level Postgres errors into domain kinds.
// Anything unrecognized is returned unchanged so it propagates as-is.
func MapDBError(err error) error {
	if err == nil {
		return nil
	}
	if IsUniqueViolation(err) {
		return Wrap(ErrConflict, err)
	}
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}
	switch string(pqErr.Code) {
	case pgForeignKeyViolation:
		return Wrap(Validation("referenced resource does not exist"), err)
	case pgCheckViolation:
		return Wrap(Validation("data validation failed"), err)
	}
	return err
}

// StatusFor resolves the HTTP status for an arbitrary error, defaulting to 500.
func StatusFor(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}
	return http.StatusInternalServerError
}

// CodeFor resolves the machine code for an arbitrary error.
func CodeFor(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return "INTERNAL_ERROR"
}
