package mongodb

import (
	"context"
	"fmt"
	"time"

	"fleetops/internal/models"
	"fleetops/internal/repositories/interfaces"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type positionRepository struct {
	collection *mongo.Collection
}

func NewPositionRepository(db *mongo.Database) interfaces.PositionRepository {
	return &positionRepository{
		collection: db.Collection("positions"),
	}
}

func (r *positionRepository) Record(ctx context.Context, report *models.PositionReport) error {
	report.ID = primitive.NewObjectID()
	if report.ReportedAt.IsZero() {
		report.ReportedAt = time.Now()
	}

	_, err := r.collection.InsertOne(ctx, report)
	if err != nil {
		return fmt.Errorf("failed to record position: %w", err)
	}

	return nil
}

func (r *positionRepository) GetByMovement(ctx context.Context, movementID primitive.ObjectID, limit int) ([]*models.PositionReport, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "reported_at", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := r.collection.Find(ctx, bson.M{"movement_id": movementID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find positions: %w", err)
	}
	defer cursor.Close(ctx)

	var reports []*models.PositionReport
	if err := cursor.All(ctx, &reports); err != nil {
		return nil, fmt.Errorf("failed to decode positions: %w", err)
	}

	return reports, nil
}
