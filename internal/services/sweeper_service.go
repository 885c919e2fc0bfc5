package services

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/NoobButNotNewbie/Limousine-s-managed/internal/config"
	"github.com/NoobButNotNewbie/Limousine-s-managed/internal/database"
	"github.com/NoobButNotNewbie/Limousine-s-managed/internal/models"
	"github.com/NoobButNotNewbie/Limousine-s-managed/pkg/notify"
	"github.com/NoobButNotNewbie/Limousine-s-managed/pkg/seatlock"
)

// SweeperService runs the two background reconciliation passes: expiring
// stale PENDING bookings and finalizing trips near departure. Both passes
// are idempotent per item, so overlapping or repeated runs are harmless.
type SweeperService struct {
	bookingRepo *database.BookingRepository
	tripRepo    *database.TripRepository
	vehicleRepo *database.VehicleRepository
	tripService *TripService
	seatLock    *seatlock.Lock
	notifier    notify.Notifier
	cfg         config.BookingConfig
	logger      *logrus.Logger
}

// NewSweeperService creates a new SweeperService
func NewSweeperService(
	bookingRepo *database.BookingRepository,
	tripRepo *database.TripRepository,
	vehicleRepo *database.VehicleRepository,
	tripService *TripService,
	seatLock *seatlock.Lock,
	notifier notify.Notifier,
	cfg config.BookingConfig,
	logger *logrus.Logger,
) *SweeperService {
	return &SweeperService{
		bookingRepo: bookingRepo,
		tripRepo:    tripRepo,
		vehicleRepo: vehicleRepo,
		tripService: tripService,
		seatLock:    seatLock,
		notifier:    notifier,
		cfg:         cfg,
		logger:      logger,
	}
}

// ExpirePendingBookings moves PENDING bookings past their hold deadline to
// EXPIRED and drops their seat locks. Returns how many were expired. A
// booking confirmed between the scan and the update is left alone: the
// UPDATE's status predicate makes the transition a no-op.
func (s *SweeperService) ExpirePendingBookings(ctx context.Context) (int, error) {
	stale, err := s.bookingRepo.FindExpiredPending(time.Now())
	if err != nil {
		return 0, err
	}

	expired := 0
	for _, booking := range stale {
		ok, err := s.bookingRepo.Expire(booking.ID)
		if err != nil {
			s.logger.WithError(err).WithField("booking_id", booking.ID).Error("Failed to expire booking")
			continue
		}
		if !ok {
			continue
		}
		if err := s.seatLock.Release(ctx, booking.ReservationID, booking.SeatNumber); err != nil {
			s.logger.WithError(err).WithFields(logrus.Fields{
				"booking_id":  booking.ID,
				"seat_number": booking.SeatNumber,
			}).Warn("Failed to release seat lock for expired booking")
		}
		expired++
	}

	if expired > 0 {
		s.logger.WithField("count", expired).Info("Expired stale pending bookings")
	}
	return expired, nil
}

// FinalizeTrips settles every OPEN trip inside the pre-departure notice
// window: enough confirmed passengers confirms the trip, too few cancels
// it and releases everything it held.
func (s *SweeperService) FinalizeTrips(ctx context.Context) error {
	trips, err := s.tripRepo.FindForFinalize(time.Now(), s.cfg.PreTripNotice)
	if err != nil {
		return err
	}

	for _, trip := range trips {
		count, err := s.bookingRepo.CountConfirmedByTrip(trip.ID)
		if err != nil {
			s.logger.WithError(err).WithField("trip_id", trip.ID).Error("Failed to count confirmed passengers")
			continue
		}
		if count >= s.cfg.MinPassengers {
			s.confirmTrip(trip, count)
		} else {
			s.cancelTrip(ctx, trip, count)
		}
	}
	return nil
}

func (s *SweeperService) confirmTrip(trip models.Trip, passengers int) {
	if _, err := s.tripRepo.UpdateStatus(trip.ID, models.TripStatusConfirmed); err != nil {
		s.logger.WithError(err).WithField("trip_id", trip.ID).Error("Failed to confirm trip")
		return
	}

	bookings, err := s.bookingRepo.FindConfirmedByTrip(trip.ID)
	if err != nil {
		s.logger.WithError(err).WithField("trip_id", trip.ID).Error("Failed to load bookings for reminders")
		return
	}
	for i := range bookings {
		if err := s.notifier.SendReminder(&bookings[i]); err != nil {
			s.logger.WithError(err).WithField("booking_id", bookings[i].ID).Warn("Failed to send reminder")
		}
		if err := s.notifier.CallCustomer(bookings[i].CustomerPhone, reminderCallScript(&trip)); err != nil {
			s.logger.WithError(err).WithField("booking_id", bookings[i].ID).Warn("Failed to place reminder call")
		}
	}

	s.logger.WithFields(logrus.Fields{
		"trip_id":    trip.ID,
		"zone_from":  trip.ZoneFrom,
		"zone_to":    trip.ZoneTo,
		"passengers": passengers,
	}).Info("Trip confirmed")
}

func (s *SweeperService) cancelTrip(ctx context.Context, trip models.Trip, passengers int) {
	// Collect the affected customers before touching any state; after the
	// bulk cancel the bookings are no longer CONFIRMED.
	bookings, err := s.bookingRepo.FindConfirmedByTrip(trip.ID)
	if err != nil {
		s.logger.WithError(err).WithField("trip_id", trip.ID).Error("Failed to load bookings for cancellation")
		return
	}
	alternatives, err := s.tripService.Alternatives(&trip)
	if err != nil {
		s.logger.WithError(err).WithField("trip_id", trip.ID).Warn("Failed to load alternative trips")
		alternatives = nil
	}

	if _, err := s.tripRepo.UpdateStatus(trip.ID, models.TripStatusCancelled); err != nil {
		s.logger.WithError(err).WithField("trip_id", trip.ID).Error("Failed to cancel trip")
		return
	}
	cancelled, err := s.bookingRepo.CancelActiveByTrip(trip.ID)
	if err != nil {
		s.logger.WithError(err).WithField("trip_id", trip.ID).Error("Failed to cancel trip bookings")
	}
	if _, err := s.vehicleRepo.DeactivateReservationsByTrip(trip.ID); err != nil {
		s.logger.WithError(err).WithField("trip_id", trip.ID).Error("Failed to release trip vehicles")
	}

	for i := range bookings {
		if err := s.seatLock.Release(ctx, bookings[i].ReservationID, bookings[i].SeatNumber); err != nil {
			s.logger.WithError(err).WithField("booking_id", bookings[i].ID).Warn("Failed to release seat lock")
		}
		if err := s.notifier.SendCancellation(&bookings[i], alternatives); err != nil {
			s.logger.WithError(err).WithField("booking_id", bookings[i].ID).Warn("Failed to send cancellation notice")
		}
		if err := s.notifier.CallCustomer(bookings[i].CustomerPhone, cancellationCallScript(&trip)); err != nil {
			s.logger.WithError(err).WithField("booking_id", bookings[i].ID).Warn("Failed to place cancellation call")
		}
	}

	s.logger.WithFields(logrus.Fields{
		"trip_id":            trip.ID,
		"zone_from":          trip.ZoneFrom,
		"zone_to":            trip.ZoneTo,
		"passengers":         passengers,
		"min_passengers":     s.cfg.MinPassengers,
		"bookings_cancelled": cancelled,
	}).Info("Trip cancelled, below minimum passengers")
}

func reminderCallScript(trip *models.Trip) string {
	return "Your limousine from " + trip.ZoneFrom + " to " + trip.ZoneTo +
		" departs at " + trip.StartTime.Format("15:04 on January 2") + ". See you on board."
}

func cancellationCallScript(trip *models.Trip) string {
	return "Your limousine from " + trip.ZoneFrom + " to " + trip.ZoneTo +
		" was cancelled because not enough passengers confirmed. An agent will assist with rebooking."
}
