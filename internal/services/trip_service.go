package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"

	"github.com/NoobButNotNewbie/Limousine-s-managed/internal/apperrors"
	"github.com/NoobButNotNewbie/Limousine-s-managed/internal/database"
	"github.com/NoobButNotNewbie/Limousine-s-managed/internal/models"
)

// TripService resolves trip identity keys into persistent trips and
// answers availability queries. Trips and their vehicle reservations
// outlive individual bookings: once created for a key, a trip stays in
// place whether or not any booking on it survives.
type TripService struct {
	db             *sqlx.DB
	tripRepo       *database.TripRepository
	vehicleRepo    *database.VehicleRepository
	bookingRepo    *database.BookingRepository
	vehicleService *VehicleService
	tripDuration   int
	logger         *logrus.Logger
}

// NewTripService creates a new TripService
func NewTripService(
	db *sqlx.DB,
	tripRepo *database.TripRepository,
	vehicleRepo *database.VehicleRepository,
	bookingRepo *database.BookingRepository,
	vehicleService *VehicleService,
	tripDurationHours int,
	logger *logrus.Logger,
) *TripService {
	return &TripService{
		db:             db,
		tripRepo:       tripRepo,
		vehicleRepo:    vehicleRepo,
		bookingRepo:    bookingRepo,
		vehicleService: vehicleService,
		tripDuration:   tripDurationHours,
		logger:         logger,
	}
}

// ResolveTx finds or creates the trip for a key inside a booking
// transaction. Only an OPEN trip is usable for new bookings.
func (s *TripService) ResolveTx(tx *sqlx.Tx, key models.TripKey) (*models.Trip, error) {
	key = key.Normalize()
	if err := key.Validate(); err != nil {
		return nil, apperrors.Validation(err.Error())
	}

	trip, err := s.tripRepo.UpsertTx(tx, key)
	if err != nil {
		return nil, err
	}
	if !trip.IsOpen() {
		return nil, apperrors.ErrTripUnavailable
	}
	return trip, nil
}

// ResolveOrCreate is the search-path variant: it materializes the trip
// for a key and guarantees at least one vehicle with a free seat is
// reserved for it, in its own short transaction. The trip persists
// regardless of what the caller does next.
func (s *TripService) ResolveOrCreate(key models.TripKey) (*models.AvailableTrip, error) {
	key = key.Normalize()
	if err := key.Validate(); err != nil {
		return nil, apperrors.Validation(err.Error())
	}

	trip, err := s.tripRepo.Upsert(key)
	if err != nil {
		return nil, err
	}
	if !trip.IsOpen() {
		return nil, apperrors.ErrTripUnavailable
	}

	vehicles, err := s.vehicleRepo.FindByTripWithSeats(trip.ID)
	if err != nil {
		return nil, err
	}

	grow := len(vehicles) == 0
	if !grow {
		spare, err := s.bookingRepo.HasSpareCapacity(trip.ID)
		if err != nil {
			return nil, err
		}
		grow = !spare
	}
	if grow {
		if err := s.ensureCapacity(trip); err != nil {
			// A fleet at its cap is not an error for a listing; the
			// caller still sees the fully booked vehicles.
			if len(vehicles) == 0 || !errors.Is(err, apperrors.ErrNoVehicle) {
				return nil, err
			}
		} else {
			vehicles, err = s.vehicleRepo.FindByTripWithSeats(trip.ID)
			if err != nil {
				return nil, err
			}
		}
	}

	return &models.AvailableTrip{Trip: *trip, Vehicles: vehicles}, nil
}

// ensureCapacity reserves an additional vehicle for a trip.
func (s *TripService) ensureCapacity(trip *models.Trip) error {
	tx, err := s.db.Beginx()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := s.vehicleService.FindOrReserveTx(tx, trip.ID, trip.StartTime, s.tripDuration); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"trip_id":   trip.ID,
		"zone_from": trip.ZoneFrom,
		"zone_to":   trip.ZoneTo,
	}).Info("Reserved vehicle for trip")
	return nil
}

// Search lists OPEN trips for a route on a given day, each with its
// vehicles and live seat occupancy.
func (s *TripService) Search(zoneFrom, zoneTo string, day time.Time) ([]models.AvailableTrip, error) {
	if zoneFrom == "" || zoneTo == "" {
		return nil, apperrors.Validation("both zone_from and zone_to are required")
	}

	trips, err := s.tripRepo.Search(zoneFrom, zoneTo, day)
	if err != nil {
		return nil, err
	}

	results := make([]models.AvailableTrip, 0, len(trips))
	for _, trip := range trips {
		vehicles, err := s.vehicleRepo.FindByTripWithSeats(trip.ID)
		if err != nil {
			return nil, err
		}
		results = append(results, models.AvailableTrip{Trip: trip, Vehicles: vehicles})
	}
	return results, nil
}

// Alternatives returns other OPEN trips on the same route and day,
// offered to customers when a trip is cancelled.
func (s *TripService) Alternatives(trip *models.Trip) ([]models.Trip, error) {
	return s.tripRepo.FindAlternatives(trip.ZoneFrom, trip.ZoneTo, trip.StartTime, trip.ID)
}

// GetByID retrieves a trip or a NOT_FOUND error.
func (s *TripService) GetByID(id string) (*models.Trip, error) {
	trip, err := s.tripRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if trip == nil {
		return nil, apperrors.NotFound("trip")
	}
	return trip, nil
}
