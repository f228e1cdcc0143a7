package interfaces

import (
	"context"

	"fleetops/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type PositionRepository interface {
	Record(ctx context.Context, report *models.PositionReport) error
	GetByMovement(ctx context.Context, movementID primitive.ObjectID, limit int) ([]*models.PositionReport, error)
}
