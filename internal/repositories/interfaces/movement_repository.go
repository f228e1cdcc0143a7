package interfaces

import (
	"context"

	"fleetops/internal/models"
	"fleetops/internal/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type MovementRepository interface {
	Create(ctx context.Context, movement *models.Movement) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Movement, error)
	Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) (*models.Movement, error)
	Delete(ctx context.Context, id primitive.ObjectID) error

	// AddPhotos applies union-with-supersede for the given photos and returns
	// the full updated movement. At most one photo stays current per
	// (slot, kind) pair.
	AddPhotos(ctx context.Context, id primitive.ObjectID, photos []models.Photo) (*models.Movement, error)

	SearchByPlate(ctx context.Context, plate string, params *utils.PaginationParams) ([]*models.Movement, int64, error)
	GetByDriver(ctx context.Context, driverID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Movement, int64, error)
	GetByStatus(ctx context.Context, status models.MovementStatus, params *utils.PaginationParams) ([]*models.Movement, int64, error)
}
