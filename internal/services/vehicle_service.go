package services

import (
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/NoobButNotNewbie/Limousine-s-managed/internal/apperrors"
	"github.com/NoobButNotNewbie/Limousine-s-managed/internal/database"
	"github.com/NoobButNotNewbie/Limousine-s-managed/internal/models"
)

// VehicleService allocates vehicles to trips over half-open time windows.
type VehicleService struct {
	vehicleRepo *database.VehicleRepository
	maxVehicles int
}

// NewVehicleService creates a new VehicleService
func NewVehicleService(vehicleRepo *database.VehicleRepository, maxVehicles int) *VehicleService {
	return &VehicleService{
		vehicleRepo: vehicleRepo,
		maxVehicles: maxVehicles,
	}
}

// FindOrReserveTx finds a vehicle whose active reservations do not overlap
// [startTime, startTime+duration) and claims it for the trip. When every
// vehicle is busy in the window it grows the fleet by one vehicle-with-
// seats unit, up to the configured cap; past the cap the caller gets
// NO_VEHICLE, which is retryable at the request level but not here.
func (s *VehicleService) FindOrReserveTx(tx *sqlx.Tx, tripID string, startTime time.Time, durationHours int) (*models.VehicleReservation, error) {
	reservedTo := startTime.Add(time.Duration(durationHours) * time.Hour)

	vehicleID, err := s.vehicleRepo.FindFreeVehicleTx(tx, startTime, reservedTo)
	if err != nil {
		return nil, err
	}

	if vehicleID == "" {
		count, err := s.vehicleRepo.CountVehiclesTx(tx)
		if err != nil {
			return nil, err
		}
		if count >= s.maxVehicles {
			return nil, apperrors.ErrNoVehicle
		}
		vehicle, err := s.vehicleRepo.CreateWithSeatsTx(tx)
		if err != nil {
			return nil, fmt.Errorf("failed to grow fleet: %w", err)
		}
		vehicleID = vehicle.ID
	}

	return s.vehicleRepo.CreateReservationTx(tx, tripID, vehicleID, startTime, reservedTo)
}
