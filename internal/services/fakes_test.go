package services

import (
	"context"
	"fmt"
	"mime/multipart"
	"sync"
	"time"

	"fleetops/internal/models"
	"fleetops/internal/utils"
	"fleetops/pkg/storage"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// In-memory repository fakes. They apply the same update-map semantics the
// mongo implementations do, so the services can be driven end to end
// without a database.

type fakeMovementRepo struct {
	mu        sync.Mutex
	movements map[primitive.ObjectID]*models.Movement

	updateCalls    int
	addPhotosCalls int
}

func newFakeMovementRepo() *fakeMovementRepo {
	return &fakeMovementRepo{movements: make(map[primitive.ObjectID]*models.Movement)}
}

func (r *fakeMovementRepo) Create(ctx context.Context, movement *models.Movement) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if movement.ID.IsZero() {
		movement.ID = primitive.NewObjectID()
	}
	movement.CreatedAt = time.Now()
	movement.UpdatedAt = movement.CreatedAt
	r.movements[movement.ID] = cloneMovement(movement)
	return nil
}

func (r *fakeMovementRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Movement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	movement, ok := r.movements[id]
	if !ok {
		return nil, &NotFoundError{Resource: "movement", ID: id.Hex()}
	}
	return cloneMovement(movement), nil
}

func (r *fakeMovementRepo) Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) (*models.Movement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updateCalls++

	movement, ok := r.movements[id]
	if !ok {
		return nil, &NotFoundError{Resource: "movement", ID: id.Hex()}
	}

	for key, value := range updates {
		switch key {
		case "status":
			movement.Status = value.(models.MovementStatus)
		case "driver_id":
			driverID := value.(primitive.ObjectID)
			movement.DriverID = &driverID
		case "departure_time":
			t := value.(time.Time)
			movement.DepartureTime = &t
		case "arrival_time":
			t := value.(time.Time)
			movement.ArrivalTime = &t
		case "notes":
			movement.Notes = value.(string)
		case "cancel_reason":
			movement.CancelReason = value.(string)
		default:
			return nil, fmt.Errorf("fake repo: unexpected update key %q", key)
		}
	}
	movement.UpdatedAt = time.Now()

	return cloneMovement(movement), nil
}

func (r *fakeMovementRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.movements[id]; !ok {
		return &NotFoundError{Resource: "movement", ID: id.Hex()}
	}
	delete(r.movements, id)
	return nil
}

func (r *fakeMovementRepo) AddPhotos(ctx context.Context, id primitive.ObjectID, photos []models.Photo) (*models.Movement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.addPhotosCalls++

	movement, ok := r.movements[id]
	if !ok {
		return nil, &NotFoundError{Resource: "movement", ID: id.Hex()}
	}
	movement.MergePhotos(photos)
	movement.UpdatedAt = time.Now()
	return cloneMovement(movement), nil
}

func (r *fakeMovementRepo) SearchByPlate(ctx context.Context, plate string, params *utils.PaginationParams) ([]*models.Movement, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var matches []*models.Movement
	for _, movement := range r.movements {
		if movement.LicensePlate == plate {
			matches = append(matches, cloneMovement(movement))
		}
	}
	return matches, int64(len(matches)), nil
}

func (r *fakeMovementRepo) GetByDriver(ctx context.Context, driverID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Movement, int64, error) {
	return nil, 0, nil
}

func (r *fakeMovementRepo) GetByStatus(ctx context.Context, status models.MovementStatus, params *utils.PaginationParams) ([]*models.Movement, int64, error) {
	return nil, 0, nil
}

func cloneMovement(m *models.Movement) *models.Movement {
	clone := *m
	clone.Photos = append([]models.Photo(nil), m.Photos...)
	return &clone
}

type fakePreparationRepo struct {
	mu           sync.Mutex
	preparations map[primitive.ObjectID]*models.Preparation
}

func newFakePreparationRepo() *fakePreparationRepo {
	return &fakePreparationRepo{preparations: make(map[primitive.ObjectID]*models.Preparation)}
}

func (r *fakePreparationRepo) Create(ctx context.Context, preparation *models.Preparation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if preparation.ID.IsZero() {
		preparation.ID = primitive.NewObjectID()
	}
	preparation.CreatedAt = time.Now()
	preparation.UpdatedAt = preparation.CreatedAt
	r.preparations[preparation.ID] = clonePreparation(preparation)
	return nil
}

func (r *fakePreparationRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Preparation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	preparation, ok := r.preparations[id]
	if !ok {
		return nil, &NotFoundError{Resource: "preparation", ID: id.Hex()}
	}
	return clonePreparation(preparation), nil
}

func (r *fakePreparationRepo) Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) (*models.Preparation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	preparation, ok := r.preparations[id]
	if !ok {
		return nil, &NotFoundError{Resource: "preparation", ID: id.Hex()}
	}

	for key, value := range updates {
		switch key {
		case "status":
			preparation.Status = value.(models.PreparationStatus)
		case "end_time":
			t := value.(time.Time)
			preparation.EndTime = &t
		case "notes":
			preparation.Notes = value.(string)
		default:
			return nil, fmt.Errorf("fake repo: unexpected update key %q", key)
		}
	}
	preparation.UpdatedAt = time.Now()

	return clonePreparation(preparation), nil
}

func (r *fakePreparationRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.preparations, id)
	return nil
}

func (r *fakePreparationRepo) UpdateTask(ctx context.Context, id primitive.ObjectID, taskType models.TaskType, updates map[string]interface{}) (*models.Preparation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	preparation, ok := r.preparations[id]
	if !ok {
		return nil, &NotFoundError{Resource: "preparation", ID: id.Hex()}
	}
	task := preparation.Task(taskType)
	if task == nil {
		return nil, &NotFoundError{Resource: "task", ID: string(taskType)}
	}

	for key, value := range updates {
		switch key {
		case "status":
			task.Status = value.(models.TaskStatus)
		case "started_at":
			t := value.(time.Time)
			task.StartedAt = &t
		case "completed_at":
			t := value.(time.Time)
			task.CompletedAt = &t
		case "notes":
			task.Notes = value.(string)
		case "amount":
			amount := value.(float64)
			task.Amount = &amount
		default:
			return nil, fmt.Errorf("fake repo: unexpected task update key %q", key)
		}
	}
	preparation.UpdatedAt = time.Now()

	return clonePreparation(preparation), nil
}

func (r *fakePreparationRepo) PushTaskPhotos(ctx context.Context, id primitive.ObjectID, taskType models.TaskType, bundle string, photos []models.Photo) (*models.Preparation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	preparation, ok := r.preparations[id]
	if !ok {
		return nil, &NotFoundError{Resource: "preparation", ID: id.Hex()}
	}
	task := preparation.Task(taskType)
	if task == nil {
		return nil, &NotFoundError{Resource: "task", ID: string(taskType)}
	}

	switch bundle {
	case "before":
		task.Before = append(task.Before, photos...)
	case "after":
		task.After = append(task.After, photos...)
	case "additional":
		task.Additional = append(task.Additional, photos...)
	default:
		return nil, fmt.Errorf("fake repo: unexpected bundle %q", bundle)
	}
	preparation.UpdatedAt = time.Now()

	return clonePreparation(preparation), nil
}

func (r *fakePreparationRepo) SearchByPlate(ctx context.Context, plate string, params *utils.PaginationParams) ([]*models.Preparation, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var matches []*models.Preparation
	for _, preparation := range r.preparations {
		if preparation.LicensePlate == plate {
			matches = append(matches, clonePreparation(preparation))
		}
	}
	return matches, int64(len(matches)), nil
}

func (r *fakePreparationRepo) GetByPreparator(ctx context.Context, preparatorID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Preparation, int64, error) {
	return nil, 0, nil
}

func (r *fakePreparationRepo) GetByStatus(ctx context.Context, status models.PreparationStatus, params *utils.PaginationParams) ([]*models.Preparation, int64, error) {
	return nil, 0, nil
}

func clonePreparation(p *models.Preparation) *models.Preparation {
	clone := *p
	clone.Tasks = make(map[models.TaskType]*models.PreparationTask, len(p.Tasks))
	for taskType, task := range p.Tasks {
		taskClone := *task
		taskClone.Before = append([]models.Photo(nil), task.Before...)
		taskClone.After = append([]models.Photo(nil), task.After...)
		taskClone.Additional = append([]models.Photo(nil), task.Additional...)
		clone.Tasks[taskType] = &taskClone
	}
	return &clone
}

type fakeUserRepo struct {
	users map[primitive.ObjectID]*models.User
}

func newFakeUserRepo(users ...*models.User) *fakeUserRepo {
	repo := &fakeUserRepo{users: make(map[primitive.ObjectID]*models.User)}
	for _, user := range users {
		repo.users[user.ID] = user
	}
	return repo
}

func (r *fakeUserRepo) Create(ctx context.Context, user *models.User) error {
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	user, ok := r.users[id]
	if !ok {
		return nil, &NotFoundError{Resource: "user", ID: id.Hex()}
	}
	return user, nil
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, user := range r.users {
		if user.Email == email {
			return user, nil
		}
	}
	return nil, &NotFoundError{Resource: "user", ID: email}
}

func (r *fakeUserRepo) GetByType(ctx context.Context, userType models.UserType, params *utils.PaginationParams) ([]*models.User, int64, error) {
	return nil, 0, nil
}

func (r *fakeUserRepo) Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error {
	return nil
}

// fakeUploadService counts batches and can be primed to fail, standing in
// for the storage round-trip.
type fakeUploadService struct {
	mu         sync.Mutex
	batchCalls int
	failNext   bool
}

func (u *fakeUploadService) UploadBatch(ctx context.Context, keyPrefix string, files []FileUpload) ([]models.Photo, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.batchCalls++

	selected := SelectedUploads(files)
	if len(selected) == 0 {
		return nil, nil
	}
	if u.failNext {
		u.failNext = false
		return nil, &TransportError{Op: "upload photo", Err: fmt.Errorf("connection reset")}
	}

	photos := make([]models.Photo, len(selected))
	for i, f := range selected {
		photos[i] = models.Photo{
			Slot:        f.Slot,
			Kind:        f.Kind,
			URL:         fmt.Sprintf("https://cdn.example.com/%s/%d_%d.jpg", keyPrefix, u.batchCalls, i),
			Description: f.Description,
			Timestamp:   time.Now(),
		}
	}
	return photos, nil
}

func (u *fakeUploadService) RelayUpload(ctx context.Context, keyPrefix string, header *multipart.FileHeader) (*storage.UploadResponse, error) {
	return nil, nil
}

func (u *fakeUploadService) RequestGrant(ctx context.Context, request *UploadGrantRequest) (*storage.PresignedUpload, error) {
	return &storage.PresignedUpload{UploadURL: "https://store.example.com/put", FileURL: "https://cdn.example.com/f.jpg"}, nil
}
