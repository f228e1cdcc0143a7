package interfaces

import (
	"context"

	"fleetops/internal/models"
	"fleetops/internal/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type PreparationRepository interface {
	Create(ctx context.Context, preparation *models.Preparation) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Preparation, error)
	Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) (*models.Preparation, error)
	Delete(ctx context.Context, id primitive.ObjectID) error

	// UpdateTask sets fields of one task sub-document and returns the full
	// updated preparation. Keys are relative to the task, e.g. "status".
	UpdateTask(ctx context.Context, id primitive.ObjectID, taskType models.TaskType, updates map[string]interface{}) (*models.Preparation, error)

	// PushTaskPhotos appends photos to one evidence bundle ("before",
	// "after" or "additional") of a task and returns the full preparation.
	PushTaskPhotos(ctx context.Context, id primitive.ObjectID, taskType models.TaskType, bundle string, photos []models.Photo) (*models.Preparation, error)

	SearchByPlate(ctx context.Context, plate string, params *utils.PaginationParams) ([]*models.Preparation, int64, error)
	GetByPreparator(ctx context.Context, preparatorID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Preparation, int64, error)
	GetByStatus(ctx context.Context, status models.PreparationStatus, params *utils.PaginationParams) ([]*models.Preparation, int64, error)
}
