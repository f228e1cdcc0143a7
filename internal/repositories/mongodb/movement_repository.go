package mongodb

import (
	"context"
	"fmt"
	"time"

	"fleetops/internal/models"
	"fleetops/internal/repositories/interfaces"
	"fleetops/internal/services"
	"fleetops/internal/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type movementRepository struct {
	collection *mongo.Collection
}

func NewMovementRepository(db *mongo.Database) interfaces.MovementRepository {
	return &movementRepository{
		collection: db.Collection("movements"),
	}
}

func (r *movementRepository) Create(ctx context.Context, movement *models.Movement) error {
	movement.ID = primitive.NewObjectID()
	movement.CreatedAt = time.Now()
	movement.UpdatedAt = movement.CreatedAt
	if movement.Status == "" {
		movement.Status = models.MovementStatusPending
	}

	_, err := r.collection.InsertOne(ctx, movement)
	if err != nil {
		return fmt.Errorf("failed to create movement: %w", err)
	}

	return nil
}

func (r *movementRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Movement, error) {
	var movement models.Movement
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&movement)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, &services.NotFoundError{Resource: "movement", ID: id.Hex()}
		}
		return nil, fmt.Errorf("failed to get movement: %w", err)
	}

	return &movement, nil
}

// Update applies the delta and returns the full updated document. The
// return-full-entity contract is load-bearing: callers adopt it wholesale
// instead of merging locally.
func (r *movementRepository) Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) (*models.Movement, error) {
	updates["updated_at"] = time.Now()

	var movement models.Movement
	err := r.collection.FindOneAndUpdate(
		ctx,
		bson.M{"_id": id},
		bson.M{"$set": updates},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&movement)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, &services.NotFoundError{Resource: "movement", ID: id.Hex()}
		}
		return nil, fmt.Errorf("failed to update movement: %w", err)
	}

	return &movement, nil
}

func (r *movementRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete movement: %w", err)
	}
	if result.DeletedCount == 0 {
		return &services.NotFoundError{Resource: "movement", ID: id.Hex()}
	}

	return nil
}

func (r *movementRepository) AddPhotos(ctx context.Context, id primitive.ObjectID, photos []models.Photo) (*models.Movement, error) {
	movement, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	// The supersede rule is resolved here, against current persisted state.
	movement.MergePhotos(photos)

	var updated models.Movement
	err = r.collection.FindOneAndUpdate(
		ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"photos": movement.Photos, "updated_at": time.Now()}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&updated)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, &services.NotFoundError{Resource: "movement", ID: id.Hex()}
		}
		return nil, fmt.Errorf("failed to record movement photos: %w", err)
	}

	return &updated, nil
}

func (r *movementRepository) SearchByPlate(ctx context.Context, plate string, params *utils.PaginationParams) ([]*models.Movement, int64, error) {
	filter := bson.M{"license_plate": bson.M{"$regex": plate, "$options": "i"}}
	return r.find(ctx, filter, params)
}

func (r *movementRepository) GetByDriver(ctx context.Context, driverID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Movement, int64, error) {
	return r.find(ctx, bson.M{"driver_id": driverID}, params)
}

func (r *movementRepository) GetByStatus(ctx context.Context, status models.MovementStatus, params *utils.PaginationParams) ([]*models.Movement, int64, error) {
	return r.find(ctx, bson.M{"status": status}, params)
}

func (r *movementRepository) find(ctx context.Context, filter bson.M, params *utils.PaginationParams) ([]*models.Movement, int64, error) {
	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count movements: %w", err)
	}

	cursor, err := r.collection.Find(ctx, filter, params.GetSortOptions())
	if err != nil {
		return nil, 0, fmt.Errorf("failed to find movements: %w", err)
	}
	defer cursor.Close(ctx)

	var movements []*models.Movement
	if err := cursor.All(ctx, &movements); err != nil {
		return nil, 0, fmt.Errorf("failed to decode movements: %w", err)
	}

	return movements, total, nil
}
