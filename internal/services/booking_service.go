package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"

	"github.com/NoobButNotNewbie/Limousine-s-managed/internal/apperrors"
	"github.com/NoobButNotNewbie/Limousine-s-managed/internal/config"
	"github.com/NoobButNotNewbie/Limousine-s-managed/internal/database"
	"github.com/NoobButNotNewbie/Limousine-s-managed/internal/models"
	"github.com/NoobButNotNewbie/Limousine-s-managed/pkg/notify"
	"github.com/NoobButNotNewbie/Limousine-s-managed/pkg/seatlock"
)

// BookingService drives the booking lifecycle: seat allocation under
// contention, the OTP verification gate, and explicit cancellation.
//
// Allocation runs as a bounded sequence of single-transaction attempts.
// Each attempt snapshots occupancy, picks a seat, takes the distributed
// seat lock and inserts the PENDING row; a unique-constraint violation or
// a lock miss means a concurrent request won that seat, and the next
// attempt simply looks again. Correctness never depends on the lock:
// the partial unique index on active bookings is the final arbiter.
type BookingService struct {
	db             *sqlx.DB
	bookingRepo    *database.BookingRepository
	customerRepo   *database.CustomerRepository
	tripService    *TripService
	vehicleService *VehicleService
	seatLock       *seatlock.Lock
	otpService     *OTPService
	notifier       notify.Notifier
	cfg            config.BookingConfig
	logger         *logrus.Logger
}

// NewBookingService creates a new BookingService
func NewBookingService(
	db *sqlx.DB,
	bookingRepo *database.BookingRepository,
	customerRepo *database.CustomerRepository,
	tripService *TripService,
	vehicleService *VehicleService,
	seatLock *seatlock.Lock,
	otpService *OTPService,
	notifier notify.Notifier,
	cfg config.BookingConfig,
	logger *logrus.Logger,
) *BookingService {
	return &BookingService{
		db:             db,
		bookingRepo:    bookingRepo,
		customerRepo:   customerRepo,
		tripService:    tripService,
		vehicleService: vehicleService,
		seatLock:       seatLock,
		otpService:     otpService,
		notifier:       notifier,
		cfg:            cfg,
		logger:         logger,
	}
}

// Initiate allocates a seat and creates a PENDING booking guarded by a
// one-time code. The returned booking must be confirmed within the hold
// window or the expiry sweeper reclaims the seat.
func (s *BookingService) Initiate(ctx context.Context, req models.InitiateBookingRequest) (*models.InitiateBookingResponse, error) {
	if err := req.Customer.Validate(); err != nil {
		return nil, apperrors.Validation(err.Error())
	}
	if req.SeatNumber != 0 && (req.SeatNumber < 1 || req.SeatNumber > models.SeatCount) {
		return nil, apperrors.Validation(fmt.Sprintf("seat_number must be between 1 and %d", models.SeatCount))
	}

	code, err := s.otpService.Issue(ctx, req.Customer.Phone)
	if err != nil {
		return nil, fmt.Errorf("failed to issue OTP: %w", err)
	}

	// Seats we lost to a concurrent holder, per reservation. Remembering
	// them keeps retries from hammering the same locked seat.
	lost := make(map[string]map[int]bool)

	for attempt := 0; attempt < s.cfg.MaxRetry; attempt++ {
		booking, retry, err := s.tryAllocate(ctx, req, code, lost)
		if err != nil {
			return nil, err
		}
		if retry {
			s.logger.WithFields(logrus.Fields{
				"attempt":   attempt + 1,
				"zone_from": req.ZoneFrom,
				"zone_to":   req.ZoneTo,
			}).Debug("Seat allocation attempt lost a race, retrying")
			continue
		}

		if err := s.notifier.SendOtp(req.Customer.Phone, code, s.otpService.TTL()); err != nil {
			s.logger.WithError(err).WithField("booking_id", booking.ID).Warn("Failed to deliver OTP message")
		}

		s.logger.WithFields(logrus.Fields{
			"booking_id":     booking.ID,
			"reservation_id": booking.ReservationID,
			"seat_number":    booking.SeatNumber,
			"phone":          req.Customer.Phone,
		}).Info("Booking initiated")

		return &models.InitiateBookingResponse{
			Booking:         booking,
			OtpExpiresInSec: int(s.otpService.TTL().Seconds()),
		}, nil
	}

	return nil, apperrors.ErrNoSeat
}

// tryAllocate runs one allocation attempt in its own transaction. A true
// retry return means the attempt lost a seat race; the caller decides
// whether budget remains for another look.
func (s *BookingService) tryAllocate(ctx context.Context, req models.InitiateBookingRequest, otpCode string, lost map[string]map[int]bool) (*models.Booking, bool, error) {
	tx, err := s.db.Beginx()
	if err != nil {
		return nil, false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	customer, err := s.customerRepo.UpsertTx(tx, req.Customer)
	if err != nil {
		return nil, false, err
	}

	trip, err := s.tripService.ResolveTx(tx, models.TripKey{
		ZoneFrom:  req.ZoneFrom,
		ZoneTo:    req.ZoneTo,
		StartTime: req.StartTime,
	})
	if err != nil {
		return nil, false, err
	}

	reservationID, err := s.bookingRepo.FindReservationWithSpareTx(tx, trip.ID)
	if err != nil {
		return nil, false, err
	}
	if reservationID == "" {
		reservation, err := s.vehicleService.FindOrReserveTx(tx, trip.ID, trip.StartTime, s.cfg.TripDurationHours)
		if err != nil {
			return nil, false, err
		}
		reservationID = reservation.ID
	}

	occupied, err := s.bookingRepo.FindOccupiedSeatsTx(tx, reservationID)
	if err != nil {
		return nil, false, err
	}
	for seat := range lost[reservationID] {
		occupied = append(occupied, seat)
	}

	seat, err := s.chooseSeat(req, occupied)
	if err != nil {
		return nil, false, err
	}
	if seat == 0 {
		// Every free seat of the emptiest reservation is held by a
		// concurrent request; look again.
		return nil, true, nil
	}

	acquired, err := s.seatLock.Acquire(ctx, reservationID, seat, customer.Phone, s.cfg.HoldWindow)
	if err != nil {
		return nil, false, fmt.Errorf("failed to acquire seat lock: %w", err)
	}
	if !acquired {
		if req.SeatNumber != 0 {
			return nil, false, apperrors.ErrSeatLocked
		}
		markLost(lost, reservationID, seat)
		return nil, true, nil
	}

	booking := &models.Booking{
		CustomerID:    customer.ID,
		ReservationID: reservationID,
		SeatNumber:    seat,
		Price:         models.SeatPriceFor(seat),
		Pickup:        req.Pickup,
		Dropoff:       req.Dropoff,
		OtpCode:       sql.NullString{String: otpCode, Valid: true},
		ExpiresAt:     time.Now().Add(s.cfg.HoldWindow),
	}
	if err := s.bookingRepo.InsertPendingTx(tx, booking); err != nil {
		s.releaseLock(ctx, reservationID, seat)
		if errors.Is(err, apperrors.ErrConflict) {
			if req.SeatNumber != 0 {
				return nil, false, apperrors.New(apperrors.ErrConflict.Code, apperrors.ErrConflict.StatusCode, "seat is already booked")
			}
			markLost(lost, reservationID, seat)
			return nil, true, nil
		}
		return nil, false, fmt.Errorf("failed to create booking: %w", err)
	}

	if err := tx.Commit(); err != nil {
		s.releaseLock(ctx, reservationID, seat)
		return nil, false, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return booking, false, nil
}

// chooseSeat applies the explicit-seat and preference rules against an
// occupancy snapshot. A zero seat with nil error means nothing usable in
// this reservation right now.
func (s *BookingService) chooseSeat(req models.InitiateBookingRequest, occupied []int) (int, error) {
	if req.SeatNumber != 0 {
		for _, taken := range occupied {
			if taken == req.SeatNumber {
				return 0, apperrors.New(apperrors.ErrConflict.Code, apperrors.ErrConflict.StatusCode, "seat is already booked")
			}
		}
		return req.SeatNumber, nil
	}
	seat, ok := PickSeat(occupied, req.SeatPreference)
	if !ok {
		return 0, nil
	}
	return seat, nil
}

func markLost(lost map[string]map[int]bool, reservationID string, seat int) {
	if lost[reservationID] == nil {
		lost[reservationID] = make(map[int]bool)
	}
	lost[reservationID][seat] = true
}

func (s *BookingService) releaseLock(ctx context.Context, reservationID string, seat int) {
	if err := s.seatLock.Release(ctx, reservationID, seat); err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"reservation_id": reservationID,
			"seat_number":    seat,
		}).Warn("Failed to release seat lock")
	}
}

// VerifyAndConfirm checks the one-time code and moves the booking to
// CONFIRMED. Verifying an already-confirmed booking succeeds without
// consuming anything.
func (s *BookingService) VerifyAndConfirm(ctx context.Context, bookingID, code string) (*models.BookingDetails, error) {
	details, err := s.bookingRepo.GetDetails(bookingID)
	if err != nil {
		return nil, err
	}
	if details == nil {
		return nil, apperrors.NotFound("booking")
	}

	if details.Status == models.BookingStatusConfirmed {
		return details, nil
	}
	if details.Status.IsTerminal() || details.IsExpired() {
		return nil, apperrors.ErrBookingExpired
	}

	valid, err := s.otpService.Verify(ctx, details.CustomerPhone, code)
	if err != nil {
		return nil, fmt.Errorf("failed to verify OTP: %w", err)
	}
	if !valid {
		return nil, apperrors.ErrOtp
	}

	confirmed, err := s.bookingRepo.Confirm(bookingID)
	if err != nil {
		return nil, err
	}
	if confirmed == nil {
		// The expiry sweeper (or a cancel) got here first.
		return nil, apperrors.ErrBookingExpired
	}

	s.releaseLock(ctx, details.ReservationID, details.SeatNumber)

	details.Booking = *confirmed
	if err := s.notifier.SendConfirmation(details); err != nil {
		s.logger.WithError(err).WithField("booking_id", bookingID).Warn("Failed to send confirmation notification")
	}

	s.logger.WithFields(logrus.Fields{
		"booking_id":  bookingID,
		"seat_number": details.SeatNumber,
		"trip_id":     details.Trip.ID,
	}).Info("Booking confirmed")
	return details, nil
}

// ResendOTP reissues the one-time code for a still-pending booking. The
// fresh code replaces the old one; at most one code per phone is live.
func (s *BookingService) ResendOTP(ctx context.Context, bookingID string) (*models.ResendOtpResponse, error) {
	details, err := s.bookingRepo.GetDetails(bookingID)
	if err != nil {
		return nil, err
	}
	if details == nil {
		return nil, apperrors.NotFound("booking")
	}
	if details.Status != models.BookingStatusPending {
		return nil, apperrors.New(apperrors.ErrOtp.Code, apperrors.ErrOtp.StatusCode, "booking is not awaiting verification")
	}
	if details.IsExpired() {
		return nil, apperrors.ErrBookingExpired
	}

	code, err := s.otpService.Issue(ctx, details.CustomerPhone)
	if err != nil {
		return nil, fmt.Errorf("failed to reissue OTP: %w", err)
	}
	if err := s.bookingRepo.SetOtpCode(bookingID, code); err != nil {
		return nil, err
	}

	if err := s.notifier.SendOtp(details.CustomerPhone, code, s.otpService.TTL()); err != nil {
		s.logger.WithError(err).WithField("booking_id", bookingID).Warn("Failed to deliver OTP message")
	}

	s.logger.WithField("booking_id", bookingID).Info("OTP reissued")
	return &models.ResendOtpResponse{OtpExpiresInSec: int(s.otpService.TTL().Seconds())}, nil
}

// Cancel releases a booking's seat. Cancelling an already-cancelled
// booking is a no-op; an expired booking cannot be cancelled.
func (s *BookingService) Cancel(ctx context.Context, bookingID string) (*models.Booking, error) {
	booking, err := s.bookingRepo.GetByID(bookingID)
	if err != nil {
		return nil, err
	}
	if booking == nil {
		return nil, apperrors.NotFound("booking")
	}
	if booking.Status == models.BookingStatusCancelled {
		return booking, nil
	}
	if booking.Status == models.BookingStatusExpired {
		return nil, apperrors.ErrBookingExpired
	}

	cancelled, err := s.bookingRepo.Cancel(bookingID)
	if err != nil {
		return nil, err
	}
	if cancelled == nil {
		return nil, apperrors.NotFound("booking")
	}

	s.releaseLock(ctx, booking.ReservationID, booking.SeatNumber)

	s.logger.WithFields(logrus.Fields{
		"booking_id":  bookingID,
		"seat_number": booking.SeatNumber,
		"from_status": booking.Status,
	}).Info("Booking cancelled")
	return cancelled, nil
}

// Get retrieves a booking with its trip, vehicle and customer details.
func (s *BookingService) Get(bookingID string) (*models.BookingDetails, error) {
	details, err := s.bookingRepo.GetDetails(bookingID)
	if err != nil {
		return nil, err
	}
	if details == nil {
		return nil, apperrors.NotFound("booking")
	}
	return details, nil
}
