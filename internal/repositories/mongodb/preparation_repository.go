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

type preparationRepository struct {
	collection *mongo.Collection
}

func NewPreparationRepository(db *mongo.Database) interfaces.PreparationRepository {
	return &preparationRepository{
		collection: db.Collection("preparations"),
	}
}

func (r *preparationRepository) Create(ctx context.Context, preparation *models.Preparation) error {
	preparation.ID = primitive.NewObjectID()
	preparation.CreatedAt = time.Now()
	preparation.UpdatedAt = preparation.CreatedAt
	if preparation.Status == "" {
		preparation.Status = models.PreparationStatusPending
	}
	if preparation.Tasks == nil {
		preparation.Tasks = models.NewPreparationTasks()
	}

	_, err := r.collection.InsertOne(ctx, preparation)
	if err != nil {
		return fmt.Errorf("failed to create preparation: %w", err)
	}

	return nil
}

func (r *preparationRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Preparation, error) {
	var preparation models.Preparation
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&preparation)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, &services.NotFoundError{Resource: "preparation", ID: id.Hex()}
		}
		return nil, fmt.Errorf("failed to get preparation: %w", err)
	}

	return &preparation, nil
}

func (r *preparationRepository) Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) (*models.Preparation, error) {
	updates["updated_at"] = time.Now()

	var preparation models.Preparation
	err := r.collection.FindOneAndUpdate(
		ctx,
		bson.M{"_id": id},
		bson.M{"$set": updates},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&preparation)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, &services.NotFoundError{Resource: "preparation", ID: id.Hex()}
		}
		return nil, fmt.Errorf("failed to update preparation: %w", err)
	}

	return &preparation, nil
}

func (r *preparationRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete preparation: %w", err)
	}
	if result.DeletedCount == 0 {
		return &services.NotFoundError{Resource: "preparation", ID: id.Hex()}
	}

	return nil
}

func (r *preparationRepository) UpdateTask(ctx context.Context, id primitive.ObjectID, taskType models.TaskType, updates map[string]interface{}) (*models.Preparation, error) {
	set := bson.M{"updated_at": time.Now()}
	for key, value := range updates {
		set[fmt.Sprintf("tasks.%s.%s", taskType, key)] = value
	}

	var preparation models.Preparation
	err := r.collection.FindOneAndUpdate(
		ctx,
		bson.M{"_id": id},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&preparation)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, &services.NotFoundError{Resource: "preparation", ID: id.Hex()}
		}
		return nil, fmt.Errorf("failed to update preparation task: %w", err)
	}

	return &preparation, nil
}

func (r *preparationRepository) PushTaskPhotos(ctx context.Context, id primitive.ObjectID, taskType models.TaskType, bundle string, photos []models.Photo) (*models.Preparation, error) {
	field := fmt.Sprintf("tasks.%s.%s", taskType, bundle)

	var preparation models.Preparation
	err := r.collection.FindOneAndUpdate(
		ctx,
		bson.M{"_id": id},
		bson.M{
			"$push": bson.M{field: bson.M{"$each": photos}},
			"$set":  bson.M{"updated_at": time.Now()},
		},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&preparation)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, &services.NotFoundError{Resource: "preparation", ID: id.Hex()}
		}
		return nil, fmt.Errorf("failed to record task photos: %w", err)
	}

	return &preparation, nil
}

func (r *preparationRepository) SearchByPlate(ctx context.Context, plate string, params *utils.PaginationParams) ([]*models.Preparation, int64, error) {
	filter := bson.M{"license_plate": bson.M{"$regex": plate, "$options": "i"}}
	return r.find(ctx, filter, params)
}

func (r *preparationRepository) GetByPreparator(ctx context.Context, preparatorID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Preparation, int64, error) {
	return r.find(ctx, bson.M{"preparator_id": preparatorID}, params)
}

func (r *preparationRepository) GetByStatus(ctx context.Context, status models.PreparationStatus, params *utils.PaginationParams) ([]*models.Preparation, int64, error) {
	return r.find(ctx, bson.M{"status": status}, params)
}

func (r *preparationRepository) find(ctx context.Context, filter bson.M, params *utils.PaginationParams) ([]*models.Preparation, int64, error) {
	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count preparations: %w", err)
	}

	cursor, err := r.collection.Find(ctx, filter, params.GetSortOptions())
	if err != nil {
		return nil, 0, fmt.Errorf("failed to find preparations: %w", err)
	}
	defer cursor.Close(ctx)

	var preparations []*models.Preparation
	if err := cursor.All(ctx, &preparations); err != nil {
		return nil, 0, fmt.Errorf("failed to decode preparations: %w", err)
	}

	return preparations, total, nil
}
