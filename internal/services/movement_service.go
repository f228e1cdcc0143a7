package services

import (
	"context"
	"fmt"
	"time"

	"fleetops/internal/models"
	"fleetops/internal/repositories/interfaces"
	"fleetops/internal/utils"
	"fleetops/internal/validators"
	"fleetops/pkg/logger"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Caller is the authenticated identity performing a workflow operation, as
// resolved by the auth middleware.
type Caller struct {
	UserID primitive.ObjectID
	Role   models.UserType
}

func (c *Caller) IsAdmin() bool {
	return c.Role == models.UserTypeAdmin
}

// CanManage reports whether the caller holds an operator role.
func (c *Caller) CanManage() bool {
	return c.Role == models.UserTypeAdmin || c.Role == models.UserTypeTeamLeader
}

type MovementSearchResult struct {
	Movements []*models.Movement `json:"movements"`
	Total     int64              `json:"total"`
}

// MovementService owns the movement state machine: driver assignment, the
// pre-departure and arrival photo gates, transit, completion. Transitions
// are only accepted here; callers request them by name and adopt the
// returned entity wholesale.
type MovementService interface {
	CreateMovement(ctx context.Context, request *validators.MovementCreateRequest) (*models.Movement, error)
	GetMovement(ctx context.Context, id primitive.ObjectID) (*models.Movement, error)
	SearchByPlate(ctx context.Context, plate string, params *utils.PaginationParams) (*MovementSearchResult, error)

	AssignDriver(ctx context.Context, caller *Caller, movementID, driverID primitive.ObjectID) (*models.Movement, error)
	PrepareMovement(ctx context.Context, caller *Caller, movementID primitive.ObjectID) (*models.Movement, error)
	StartMovement(ctx context.Context, caller *Caller, movementID primitive.ObjectID) (*models.Movement, error)
	CompleteMovement(ctx context.Context, caller *Caller, movementID primitive.ObjectID, notes string) (*models.Movement, error)
	CancelMovement(ctx context.Context, caller *Caller, movementID primitive.ObjectID, reason string) (*models.Movement, error)
	DeleteMovement(ctx context.Context, caller *Caller, movementID primitive.ObjectID) error

	UploadPhotos(ctx context.Context, caller *Caller, movementID primitive.ObjectID, kind models.PhotoKind, files []FileUpload) (*models.Movement, error)
}

type movementService struct {
	movementRepo interfaces.MovementRepository
	userRepo     interfaces.UserRepository
	uploads      UploadService
	cache        CacheService
	logger       *logger.Logger
}

func NewMovementService(
	movementRepo interfaces.MovementRepository,
	userRepo interfaces.UserRepository,
	uploads UploadService,
	cache CacheService,
	log *logger.Logger,
) MovementService {
	return &movementService{
		movementRepo: movementRepo,
		userRepo:     userRepo,
		uploads:      uploads,
		cache:        cache,
		logger:       log,
	}
}

func (s *movementService) CreateMovement(ctx context.Context, request *validators.MovementCreateRequest) (*models.Movement, error) {
	if errs := validators.ValidateMovementCreate(request); len(errs) > 0 {
		return nil, errs
	}

	movement := &models.Movement{
		LicensePlate: request.LicensePlate,
		VehicleModel: request.VehicleModel,
		Status:       models.MovementStatusPending,
		DepartureLocation: models.Location{
			Name:      request.DepartureLocation.Name,
			Latitude:  request.DepartureLocation.Latitude,
			Longitude: request.DepartureLocation.Longitude,
		},
		ArrivalLocation: models.Location{
			Name:      request.ArrivalLocation.Name,
			Latitude:  request.ArrivalLocation.Latitude,
			Longitude: request.ArrivalLocation.Longitude,
		},
		Deadline: request.Deadline,
		Notes:    request.Notes,
		Photos:   []models.Photo{},
	}

	if request.DriverID != nil {
		driver, err := s.userRepo.GetByID(ctx, *request.DriverID)
		if err != nil {
			return nil, err
		}
		if driver.UserType != models.UserTypeDriver {
			return nil, &ValidationError{Field: "driver_id", Message: "user is not a driver"}
		}
		movement.DriverID = request.DriverID
		movement.Status = models.MovementStatusAssigned
	}

	if err := s.movementRepo.Create(ctx, movement); err != nil {
		return nil, err
	}

	s.cache.InvalidateMovement(ctx, movement.ID)
	s.logger.LogWorkflowEvent("movement", movement.ID, "created", map[string]interface{}{
		"license_plate": movement.LicensePlate,
		"status":        movement.Status,
	})

	return movement, nil
}

func (s *movementService) GetMovement(ctx context.Context, id primitive.ObjectID) (*models.Movement, error) {
	if movement, ok := s.cache.GetMovement(ctx, id); ok {
		return movement, nil
	}

	movement, err := s.movementRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	s.cache.SetMovement(ctx, movement)
	return movement, nil
}

func (s *movementService) SearchByPlate(ctx context.Context, plate string, params *utils.PaginationParams) (*MovementSearchResult, error) {
	key := MovementSearchKey(plate, params.Page, params.PageSize)

	var cached MovementSearchResult
	if s.cache.GetSearch(ctx, key, &cached) {
		return &cached, nil
	}

	movements, total, err := s.movementRepo.SearchByPlate(ctx, plate, params)
	if err != nil {
		return nil, err
	}

	result := &MovementSearchResult{Movements: movements, Total: total}
	s.cache.SetSearch(ctx, key, result)

	return result, nil
}

func (s *movementService) AssignDriver(ctx context.Context, caller *Caller, movementID, driverID primitive.ObjectID) (*models.Movement, error) {
	movement, err := s.movementRepo.GetByID(ctx, movementID)
	if err != nil {
		return nil, err
	}

	// Assignment is mutable only before departure.
	if !movement.IsPreTransit() {
		return nil, &InvalidStateError{Entity: "movement", Status: string(movement.Status), Action: "assign driver to"}
	}

	driver, err := s.userRepo.GetByID(ctx, driverID)
	if err != nil {
		return nil, err
	}
	if driver.UserType != models.UserTypeDriver {
		return nil, &ValidationError{Field: "driver_id", Message: "user is not a driver"}
	}

	updated, err := s.movementRepo.Update(ctx, movementID, map[string]interface{}{
		"driver_id": driverID,
		"status":    models.MovementStatusAssigned,
	})
	if err != nil {
		return nil, err
	}

	s.cache.InvalidateMovement(ctx, movementID)
	s.logger.LogWorkflowEvent("movement", movementID, "driver_assigned", map[string]interface{}{
		"driver_id": driverID.Hex(),
	})

	return updated, nil
}

func (s *movementService) PrepareMovement(ctx context.Context, caller *Caller, movementID primitive.ObjectID) (*models.Movement, error) {
	movement, err := s.movementRepo.GetByID(ctx, movementID)
	if err != nil {
		return nil, err
	}

	if err := s.authorizeDriverAction(caller, movement, "prepare"); err != nil {
		return nil, err
	}

	if !movement.CanTransition(models.MovementStatusPreparing) {
		return nil, &InvalidStateError{Entity: "movement", Status: string(movement.Status), Action: "prepare"}
	}

	updated, err := s.movementRepo.Update(ctx, movementID, map[string]interface{}{
		"status": models.MovementStatusPreparing,
	})
	if err != nil {
		return nil, err
	}

	s.cache.InvalidateMovement(ctx, movementID)
	s.logger.LogWorkflowEvent("movement", movementID, "preparing", nil)

	return updated, nil
}

// StartMovement moves preparing to in_progress behind the departure photo
// gate. The gate is always re-validated here against persisted state;
// client-reported completeness is never trusted.
func (s *movementService) StartMovement(ctx context.Context, caller *Caller, movementID primitive.ObjectID) (*models.Movement, error) {
	movement, err := s.movementRepo.GetByID(ctx, movementID)
	if err != nil {
		return nil, err
	}

	if err := s.authorizeDriverAction(caller, movement, "start"); err != nil {
		return nil, err
	}

	if !movement.CanTransition(models.MovementStatusInProgress) {
		return nil, &InvalidStateError{Entity: "movement", Status: string(movement.Status), Action: "start"}
	}

	if missing := movement.MissingSlots(models.PhotoKindDeparture); len(missing) > 0 {
		return nil, gateError("movement", models.PhotoKindDeparture, missing)
	}

	now := time.Now()
	updated, err := s.movementRepo.Update(ctx, movementID, map[string]interface{}{
		"status":         models.MovementStatusInProgress,
		"departure_time": now,
	})
	if err != nil {
		return nil, err
	}

	s.cache.InvalidateMovement(ctx, movementID)
	s.logger.LogWorkflowEvent("movement", movementID, "started", nil)

	return updated, nil
}

func (s *movementService) CompleteMovement(ctx context.Context, caller *Caller, movementID primitive.ObjectID, notes string) (*models.Movement, error) {
	movement, err := s.movementRepo.GetByID(ctx, movementID)
	if err != nil {
		return nil, err
	}

	if err := s.authorizeDriverAction(caller, movement, "complete"); err != nil {
		return nil, err
	}

	if !movement.CanTransition(models.MovementStatusCompleted) {
		return nil, &InvalidStateError{Entity: "movement", Status: string(movement.Status), Action: "complete"}
	}

	// The arrival gate is independent of departure state.
	if missing := movement.MissingSlots(models.PhotoKindArrival); len(missing) > 0 {
		return nil, gateError("movement", models.PhotoKindArrival, missing)
	}

	now := time.Now()
	updates := map[string]interface{}{
		"status":       models.MovementStatusCompleted,
		"arrival_time": now,
	}
	if notes != "" {
		updates["notes"] = notes
	}

	updated, err := s.movementRepo.Update(ctx, movementID, updates)
	if err != nil {
		return nil, err
	}

	s.cache.InvalidateMovement(ctx, movementID)
	s.logger.LogWorkflowEvent("movement", movementID, "completed", nil)

	return updated, nil
}

func (s *movementService) CancelMovement(ctx context.Context, caller *Caller, movementID primitive.ObjectID, reason string) (*models.Movement, error) {
	if !caller.IsAdmin() {
		return nil, &PermissionDeniedError{Action: "cancel movement"}
	}

	movement, err := s.movementRepo.GetByID(ctx, movementID)
	if err != nil {
		return nil, err
	}

	if !movement.CanTransition(models.MovementStatusCancelled) {
		return nil, &InvalidStateError{Entity: "movement", Status: string(movement.Status), Action: "cancel"}
	}

	updated, err := s.movementRepo.Update(ctx, movementID, map[string]interface{}{
		"status":        models.MovementStatusCancelled,
		"cancel_reason": reason,
	})
	if err != nil {
		return nil, err
	}

	s.cache.InvalidateMovement(ctx, movementID)
	s.logger.LogWorkflowEvent("movement", movementID, "cancelled", map[string]interface{}{
		"reason": reason,
	})

	return updated, nil
}

func (s *movementService) DeleteMovement(ctx context.Context, caller *Caller, movementID primitive.ObjectID) error {
	if !caller.CanManage() {
		return &PermissionDeniedError{Action: "delete movement"}
	}

	movement, err := s.movementRepo.GetByID(ctx, movementID)
	if err != nil {
		return err
	}

	if !movement.IsPreTransit() {
		return &InvalidStateError{Entity: "movement", Status: string(movement.Status), Action: "delete"}
	}

	if err := s.movementRepo.Delete(ctx, movementID); err != nil {
		return err
	}

	s.cache.InvalidateMovement(ctx, movementID)
	s.logger.LogWorkflowEvent("movement", movementID, "deleted", nil)

	return nil
}

// UploadPhotos runs the batch protocol for movement evidence: parallel
// uploads, one barrier, one persistence call, full entity back. Departure
// photos are captured before transit, arrival photos during transit.
func (s *movementService) UploadPhotos(ctx context.Context, caller *Caller, movementID primitive.ObjectID, kind models.PhotoKind, files []FileUpload) (*models.Movement, error) {
	movement, err := s.movementRepo.GetByID(ctx, movementID)
	if err != nil {
		return nil, err
	}

	if movement.IsTerminal() {
		return nil, &InvalidStateError{Entity: "movement", Status: string(movement.Status), Action: "upload photos for"}
	}

	switch kind {
	case models.PhotoKindDeparture:
		if movement.Status == models.MovementStatusInProgress {
			return nil, &InvalidStateError{Entity: "movement", Status: string(movement.Status), Action: "upload departure photos for"}
		}
	case models.PhotoKindArrival:
		if movement.Status != models.MovementStatusInProgress {
			return nil, &InvalidStateError{Entity: "movement", Status: string(movement.Status), Action: "upload arrival photos for"}
		}
	}

	selected := SelectedUploads(files)
	slots := make([]models.PhotoSlot, 0, len(selected))
	for _, f := range selected {
		slots = append(slots, f.Slot)
	}
	if errs := validators.ValidateMovementPhotoBatch(kind, slots); len(errs) > 0 {
		return nil, errs
	}

	for i := range selected {
		selected[i].Kind = kind
	}

	photos, err := s.uploads.UploadBatch(ctx, fmt.Sprintf("movements/%s/%s", movementID.Hex(), kind), selected)
	if err != nil {
		return nil, err
	}

	updated, err := s.movementRepo.AddPhotos(ctx, movementID, photos)
	if err != nil {
		return nil, err
	}

	s.cache.InvalidateMovement(ctx, movementID)
	s.cache.SetMovement(ctx, updated)
	s.logger.LogWorkflowEvent("movement", movementID, "photos_recorded", map[string]interface{}{
		"kind":  kind,
		"count": len(photos),
	})

	return updated, nil
}

// authorizeDriverAction lets the assigned driver or an operator drive the
// workflow forward.
func (s *movementService) authorizeDriverAction(caller *Caller, movement *models.Movement, action string) error {
	if caller.CanManage() {
		return nil
	}
	if movement.DriverID != nil && *movement.DriverID == caller.UserID {
		return nil
	}
	return &PermissionDeniedError{Action: action + " movement"}
}

func gateError(entity string, kind models.PhotoKind, missing []models.PhotoSlot) error {
	names := make([]string, len(missing))
	for i, slot := range missing {
		names[i] = fmt.Sprintf("%s:%s", kind, slot)
	}
	return &GateNotSatisfiedError{Entity: entity, Missing: names}
}
