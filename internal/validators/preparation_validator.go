package validators

import (
	"fmt"

	"fleetops/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type PreparationCreateRequest struct {
	LicensePlate string             `json:"license_plate" validate:"required,license_plate"`
	VehicleModel string             `json:"vehicle_model" validate:"omitempty,max=100"`
	PreparatorID primitive.ObjectID `json:"preparator_id" validate:"required,object_id"`
	Notes        string             `json:"notes" validate:"omitempty,max=2000"`
}

type TaskStartRequest struct {
	Notes string `json:"notes" validate:"omitempty,max=2000"`
}

type TaskCompleteRequest struct {
	Notes  string   `json:"notes" validate:"omitempty,max=2000"`
	Amount *float64 `json:"amount" validate:"omitempty,gt=0"`
}

type PreparationCompleteRequest struct {
	Notes string `json:"notes" validate:"omitempty,max=2000"`
}

// ValidateTaskCompletion enforces the slot-specific evidence gate before any
// network call: wrong photo counts and missing refuel amounts never leave
// the client.
func ValidateTaskCompletion(taskType models.TaskType, photoCount int, amount *float64) ValidationErrors {
	var errors ValidationErrors

	if !models.IsValidTaskType(taskType) {
		errors = append(errors, ValidationError{
			Field:   "task_type",
			Message: fmt.Sprintf("unknown task type %q", taskType),
		})
		return errors
	}

	required := models.RequiredAfterPhotos(taskType)
	if photoCount != required {
		errors = append(errors, ValidationError{
			Field:   "photos",
			Message: fmt.Sprintf("%s requires exactly %d photos, got %d", taskType, required, photoCount),
		})
	}

	if taskType == models.TaskTypeRefueling {
		if amount == nil {
			errors = append(errors, ValidationError{
				Field:   "amount",
				Message: "refueling requires the fuel amount in liters",
			})
		} else if *amount <= 0 {
			errors = append(errors, ValidationError{
				Field:   "amount",
				Message: "fuel amount must be positive",
			})
		}
	}

	return errors
}
