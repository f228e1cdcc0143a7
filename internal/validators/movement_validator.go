package validators

import (
	"time"

	"fleetops/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type MovementCreateRequest struct {
	LicensePlate      string              `json:"license_plate" validate:"required,license_plate"`
	VehicleModel      string              `json:"vehicle_model" validate:"omitempty,max=100"`
	DriverID          *primitive.ObjectID `json:"driver_id" validate:"omitempty,object_id"`
	DepartureLocation LocationRequest     `json:"departure_location" validate:"required"`
	ArrivalLocation   LocationRequest     `json:"arrival_location" validate:"required"`
	Deadline          *time.Time          `json:"deadline" validate:"omitempty"`
	Notes             string              `json:"notes" validate:"omitempty,max=2000"`
}

type LocationRequest struct {
	Name      string   `json:"name" validate:"required,min=2,max=255"`
	Latitude  *float64 `json:"latitude" validate:"omitempty,min=-90,max=90"`
	Longitude *float64 `json:"longitude" validate:"omitempty,min=-180,max=180"`
}

type AssignDriverRequest struct {
	DriverID primitive.ObjectID `json:"driver_id" validate:"required,object_id"`
}

type MovementCompleteRequest struct {
	Notes string `json:"notes" validate:"omitempty,max=2000"`
}

type MovementCancelRequest struct {
	Reason string `json:"reason" validate:"required,max=255"`
}

type PositionReportRequest struct {
	Latitude  float64 `json:"latitude" validate:"required,min=-90,max=90"`
	Longitude float64 `json:"longitude" validate:"required,min=-180,max=180"`
	Accuracy  float64 `json:"accuracy" validate:"omitempty,min=0"`
}

func ValidateMovementCreate(req *MovementCreateRequest) ValidationErrors {
	errors := ValidateStruct(req)

	if req.Deadline != nil && req.Deadline.Before(time.Now()) {
		errors = append(errors, ValidationError{
			Field:   "deadline",
			Message: "deadline must be in the future",
		})
	}

	return errors
}

// ValidateMovementPhotoBatch checks a batch before any upload starts: every
// selected slot must come from the closed vocabulary and appear at most
// once. Empty slots were already filtered out by the caller.
func ValidateMovementPhotoBatch(kind models.PhotoKind, slots []models.PhotoSlot) ValidationErrors {
	var errors ValidationErrors

	if kind != models.PhotoKindDeparture && kind != models.PhotoKindArrival {
		errors = append(errors, ValidationError{
			Field:   "kind",
			Message: "photo kind must be departure or arrival",
		})
	}

	if len(slots) == 0 {
		errors = append(errors, ValidationError{
			Field:   "photos",
			Message: "at least one photo must be selected",
		})
	}

	seen := make(map[models.PhotoSlot]bool, len(slots))
	for _, slot := range slots {
		if !models.IsValidMovementSlot(slot) {
			errors = append(errors, ValidationError{
				Field:   string(slot),
				Message: "unknown photo slot",
			})
			continue
		}
		if seen[slot] {
			errors = append(errors, ValidationError{
				Field:   string(slot),
				Message: "duplicate photo slot in batch",
			})
		}
		seen[slot] = true
	}

	return errors
}
