package services

import (
	"context"
	"time"

	"fleetops/internal/models"
	"fleetops/internal/repositories/interfaces"
	"fleetops/internal/utils"
	"fleetops/pkg/logger"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// GeoStore mirrors last-known positions in a geo index for cheap
// nearest-vehicle lookups. *cache.RedisCache satisfies it.
type GeoStore interface {
	GeoSet(ctx context.Context, key, member string, longitude, latitude float64) error
	GeoPos(ctx context.Context, key, member string) (longitude, latitude float64, err error)
}

const driverGeoKey = "fleetops:drivers:positions"

// TrackingService ingests fire-and-forget position telemetry during transit.
// Acceptance is authoritative only for the state checks; a persistence
// failure is logged and swallowed, never surfaced to the reporting client.
type TrackingService interface {
	ReportPosition(ctx context.Context, caller *Caller, movementID primitive.ObjectID, latitude, longitude, accuracy float64) error
	GetRoute(ctx context.Context, movementID primitive.ObjectID) ([]*models.PositionReport, error)
}

type trackingService struct {
	movementRepo interfaces.MovementRepository
	positionRepo interfaces.PositionRepository
	geo          GeoStore
	logger       *logger.Logger
}

// NewTrackingService wires the tracker. geo may be nil when no geo-capable
// store is configured.
func NewTrackingService(
	movementRepo interfaces.MovementRepository,
	positionRepo interfaces.PositionRepository,
	geo GeoStore,
	log *logger.Logger,
) TrackingService {
	return &trackingService{
		movementRepo: movementRepo,
		positionRepo: positionRepo,
		geo:          geo,
		logger:       log,
	}
}

func (s *trackingService) ReportPosition(ctx context.Context, caller *Caller, movementID primitive.ObjectID, latitude, longitude, accuracy float64) error {
	movement, err := s.movementRepo.GetByID(ctx, movementID)
	if err != nil {
		return err
	}

	if movement.Status != models.MovementStatusInProgress {
		return &InvalidStateError{Entity: "movement", Status: string(movement.Status), Action: "report position for"}
	}
	if movement.DriverID == nil || *movement.DriverID != caller.UserID {
		return &PermissionDeniedError{Action: "report position for movement"}
	}

	report := &models.PositionReport{
		MovementID: movementID,
		DriverID:   caller.UserID,
		Latitude:   latitude,
		Longitude:  longitude,
		Accuracy:   accuracy,
		ReportedAt: time.Now(),
	}

	if err := s.positionRepo.Record(ctx, report); err != nil {
		s.logger.WithError(err).WithMovementID(movementID).Warn("position persist failed, dropping report")
	}

	if s.geo != nil {
		if err := s.geo.GeoSet(ctx, driverGeoKey, caller.UserID.Hex(), longitude, latitude); err != nil {
			s.logger.WithError(err).Warn("geo index update failed")
		}
	}

	return nil
}

func (s *trackingService) GetRoute(ctx context.Context, movementID primitive.ObjectID) ([]*models.PositionReport, error) {
	if _, err := s.movementRepo.GetByID(ctx, movementID); err != nil {
		return nil, err
	}
	return s.positionRepo.GetByMovement(ctx, movementID, utils.PositionHistoryLimit)
}
