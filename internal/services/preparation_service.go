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

type PreparationSearchResult struct {
	Preparations []*models.Preparation `json:"preparations"`
	Total        int64                 `json:"total"`
}

// PreparationService owns the preparation workflow: four independent task
// sub-machines under one parent, each completing behind its own photo gate.
type PreparationService interface {
	CreatePreparation(ctx context.Context, request *validators.PreparationCreateRequest) (*models.Preparation, error)
	GetPreparation(ctx context.Context, id primitive.ObjectID) (*models.Preparation, error)
	SearchByPlate(ctx context.Context, plate string, params *utils.PaginationParams) (*PreparationSearchResult, error)

	StartTask(ctx context.Context, caller *Caller, id primitive.ObjectID, taskType models.TaskType, notes string) (*models.Preparation, error)
	CompleteTask(ctx context.Context, caller *Caller, id primitive.ObjectID, taskType models.TaskType, request *validators.TaskCompleteRequest, files []FileUpload) (*models.Preparation, error)
	AddTaskPhoto(ctx context.Context, caller *Caller, id primitive.ObjectID, taskType models.TaskType, file FileUpload) (*models.Preparation, error)
	CompletePreparation(ctx context.Context, caller *Caller, id primitive.ObjectID, notes string) (*models.Preparation, error)
}

type preparationService struct {
	preparationRepo interfaces.PreparationRepository
	userRepo        interfaces.UserRepository
	uploads         UploadService
	cache           CacheService
	logger          *logger.Logger
}

func NewPreparationService(
	preparationRepo interfaces.PreparationRepository,
	userRepo interfaces.UserRepository,
	uploads UploadService,
	cache CacheService,
	log *logger.Logger,
) PreparationService {
	return &preparationService{
		preparationRepo: preparationRepo,
		userRepo:        userRepo,
		uploads:         uploads,
		cache:           cache,
		logger:          log,
	}
}

func (s *preparationService) CreatePreparation(ctx context.Context, request *validators.PreparationCreateRequest) (*models.Preparation, error) {
	if errs := validators.ValidateStruct(request); len(errs) > 0 {
		return nil, errs
	}

	preparator, err := s.userRepo.GetByID(ctx, request.PreparatorID)
	if err != nil {
		return nil, err
	}
	if preparator.UserType != models.UserTypePreparator {
		return nil, &ValidationError{Field: "preparator_id", Message: "user is not a preparator"}
	}

	preparation := &models.Preparation{
		LicensePlate: request.LicensePlate,
		VehicleModel: request.VehicleModel,
		Status:       models.PreparationStatusPending,
		PreparatorID: request.PreparatorID,
		Notes:        request.Notes,
		Tasks:        models.NewPreparationTasks(),
		StartTime:    time.Now(),
	}

	if err := s.preparationRepo.Create(ctx, preparation); err != nil {
		return nil, err
	}

	s.cache.InvalidatePreparation(ctx, preparation.ID)
	s.logger.LogWorkflowEvent("preparation", preparation.ID, "created", map[string]interface{}{
		"license_plate": preparation.LicensePlate,
	})

	return preparation, nil
}

func (s *preparationService) GetPreparation(ctx context.Context, id primitive.ObjectID) (*models.Preparation, error) {
	if preparation, ok := s.cache.GetPreparation(ctx, id); ok {
		return preparation, nil
	}

	preparation, err := s.preparationRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	s.cache.SetPreparation(ctx, preparation)
	return preparation, nil
}

func (s *preparationService) SearchByPlate(ctx context.Context, plate string, params *utils.PaginationParams) (*PreparationSearchResult, error) {
	key := PreparationSearchKey(plate, params.Page, params.PageSize)

	var cached PreparationSearchResult
	if s.cache.GetSearch(ctx, key, &cached) {
		return &cached, nil
	}

	preparations, total, err := s.preparationRepo.SearchByPlate(ctx, plate, params)
	if err != nil {
		return nil, err
	}

	result := &PreparationSearchResult{Preparations: preparations, Total: total}
	s.cache.SetSearch(ctx, key, result)

	return result, nil
}

// StartTask moves one task not_started -> in_progress. Parking never passes
// through in_progress: it validates and completes in one call, so starting
// it is rejected outright.
func (s *preparationService) StartTask(ctx context.Context, caller *Caller, id primitive.ObjectID, taskType models.TaskType, notes string) (*models.Preparation, error) {
	if !models.IsValidTaskType(taskType) {
		return nil, &ValidationError{Field: "task_type", Message: fmt.Sprintf("unknown task type %q", taskType)}
	}
	if taskType == models.TaskTypeParking {
		return nil, &ValidationError{Field: "task_type", Message: "parking completes atomically and cannot be started"}
	}

	preparation, err := s.preparationRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.authorizePreparatorAction(caller, preparation, "start task on"); err != nil {
		return nil, err
	}
	if preparation.IsTerminal() {
		return nil, &InvalidStateError{Entity: "preparation", Status: string(preparation.Status), Action: "start task on"}
	}

	task := preparation.Task(taskType)
	if task == nil || task.Status != models.TaskStatusNotStarted {
		status := "missing"
		if task != nil {
			status = string(task.Status)
		}
		return nil, &InvalidStateError{Entity: string(taskType), Status: status, Action: "start"}
	}

	now := time.Now()
	updates := map[string]interface{}{
		"status":     models.TaskStatusInProgress,
		"started_at": now,
	}
	if notes != "" {
		updates["notes"] = notes
	}

	updated, err := s.preparationRepo.UpdateTask(ctx, id, taskType, updates)
	if err != nil {
		return nil, err
	}

	// First task activity promotes the parent.
	if updated.Status == models.PreparationStatusPending {
		updated, err = s.preparationRepo.Update(ctx, id, map[string]interface{}{
			"status": models.PreparationStatusInProgress,
		})
		if err != nil {
			return nil, err
		}
	}

	s.cache.InvalidatePreparation(ctx, id)
	s.cache.SetPreparation(ctx, updated)
	s.logger.LogWorkflowEvent("preparation", id, "task_started", map[string]interface{}{
		"task": taskType,
	})

	return updated, nil
}

// CompleteTask runs the per-task evidence gate. Validation happens before a
// single byte is uploaded: a wrong photo count or a missing refuel amount
// means zero storage calls. On success the after-photos land in one batch
// and the task flips to completed in the same operation.
func (s *preparationService) CompleteTask(ctx context.Context, caller *Caller, id primitive.ObjectID, taskType models.TaskType, request *validators.TaskCompleteRequest, files []FileUpload) (*models.Preparation, error) {
	selected := SelectedUploads(files)
	if errs := validators.ValidateTaskCompletion(taskType, len(selected), request.Amount); len(errs) > 0 {
		return nil, errs
	}

	preparation, err := s.preparationRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.authorizePreparatorAction(caller, preparation, "complete task on"); err != nil {
		return nil, err
	}
	if preparation.IsTerminal() {
		return nil, &InvalidStateError{Entity: "preparation", Status: string(preparation.Status), Action: "complete task on"}
	}

	task := preparation.Task(taskType)
	if task == nil {
		return nil, &NotFoundError{Resource: "task", ID: string(taskType)}
	}

	// Parking completes straight from not_started; every other task must
	// have been started first.
	switch {
	case taskType == models.TaskTypeParking:
		if task.Status != models.TaskStatusNotStarted {
			return nil, &InvalidStateError{Entity: string(taskType), Status: string(task.Status), Action: "complete"}
		}
	default:
		if task.Status != models.TaskStatusInProgress {
			return nil, &InvalidStateError{Entity: string(taskType), Status: string(task.Status), Action: "complete"}
		}
	}

	for i := range selected {
		selected[i].Kind = models.PhotoKindAfter
	}

	photos, err := s.uploads.UploadBatch(ctx, fmt.Sprintf("preparations/%s/%s", id.Hex(), taskType), selected)
	if err != nil {
		return nil, err
	}

	// Re-check against what was actually uploaded before persisting.
	if len(photos) != models.RequiredAfterPhotos(taskType) {
		return nil, gateTaskError(taskType, models.RequiredAfterPhotos(taskType), len(photos))
	}

	if _, err := s.preparationRepo.PushTaskPhotos(ctx, id, taskType, "after", photos); err != nil {
		return nil, err
	}

	now := time.Now()
	updates := map[string]interface{}{
		"status":       models.TaskStatusCompleted,
		"completed_at": now,
	}
	if request.Notes != "" {
		updates["notes"] = request.Notes
	}
	if taskType == models.TaskTypeRefueling {
		updates["amount"] = *request.Amount
	}
	if taskType == models.TaskTypeParking {
		updates["started_at"] = now
	}

	updated, err := s.preparationRepo.UpdateTask(ctx, id, taskType, updates)
	if err != nil {
		return nil, err
	}

	if updated.Status == models.PreparationStatusPending {
		updated, err = s.preparationRepo.Update(ctx, id, map[string]interface{}{
			"status": models.PreparationStatusInProgress,
		})
		if err != nil {
			return nil, err
		}
	}

	s.cache.InvalidatePreparation(ctx, id)
	s.cache.SetPreparation(ctx, updated)
	s.logger.LogWorkflowEvent("preparation", id, "task_completed", map[string]interface{}{
		"task":   taskType,
		"photos": len(photos),
	})

	return updated, nil
}

// AddTaskPhoto attaches supplemental evidence to a running or finished task.
// It never advances any state.
func (s *preparationService) AddTaskPhoto(ctx context.Context, caller *Caller, id primitive.ObjectID, taskType models.TaskType, file FileUpload) (*models.Preparation, error) {
	if !models.IsValidTaskType(taskType) {
		return nil, &ValidationError{Field: "task_type", Message: fmt.Sprintf("unknown task type %q", taskType)}
	}

	preparation, err := s.preparationRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.authorizePreparatorAction(caller, preparation, "add photo to"); err != nil {
		return nil, err
	}
	if preparation.IsTerminal() {
		return nil, &InvalidStateError{Entity: "preparation", Status: string(preparation.Status), Action: "add photo to"}
	}

	task := preparation.Task(taskType)
	if task == nil || task.Status == models.TaskStatusNotStarted {
		status := "missing"
		if task != nil {
			status = string(task.Status)
		}
		return nil, &InvalidStateError{Entity: string(taskType), Status: status, Action: "add photo to"}
	}

	file.Kind = models.PhotoKindAdditional
	photos, err := s.uploads.UploadBatch(ctx, fmt.Sprintf("preparations/%s/%s", id.Hex(), taskType), []FileUpload{file})
	if err != nil {
		return nil, err
	}

	updated, err := s.preparationRepo.PushTaskPhotos(ctx, id, taskType, "additional", photos)
	if err != nil {
		return nil, err
	}

	s.cache.InvalidatePreparation(ctx, id)
	s.cache.SetPreparation(ctx, updated)
	s.logger.LogWorkflowEvent("preparation", id, "photo_added", map[string]interface{}{
		"task": taskType,
	})

	return updated, nil
}

// CompletePreparation closes the parent once at least one task has finished.
// The gate names every task still open so the caller can show exactly what
// is missing.
func (s *preparationService) CompletePreparation(ctx context.Context, caller *Caller, id primitive.ObjectID, notes string) (*models.Preparation, error) {
	preparation, err := s.preparationRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.authorizePreparatorAction(caller, preparation, "complete"); err != nil {
		return nil, err
	}
	if preparation.IsTerminal() {
		return nil, &InvalidStateError{Entity: "preparation", Status: string(preparation.Status), Action: "complete"}
	}

	if !preparation.CanComplete() {
		missing := make([]string, 0, len(models.TaskTypes))
		for _, t := range models.TaskTypes {
			if task := preparation.Task(t); task == nil || task.Status != models.TaskStatusCompleted {
				missing = append(missing, string(t))
			}
		}
		return nil, &GateNotSatisfiedError{Entity: "preparation", Missing: missing}
	}

	now := time.Now()
	updates := map[string]interface{}{
		"status":   models.PreparationStatusCompleted,
		"end_time": now,
	}
	if notes != "" {
		updates["notes"] = notes
	}

	updated, err := s.preparationRepo.Update(ctx, id, updates)
	if err != nil {
		return nil, err
	}

	s.cache.InvalidatePreparation(ctx, id)
	s.cache.SetPreparation(ctx, updated)
	s.logger.LogWorkflowEvent("preparation", id, "completed", map[string]interface{}{
		"completed_tasks": updated.CompletedTaskCount(),
	})

	return updated, nil
}

func (s *preparationService) authorizePreparatorAction(caller *Caller, preparation *models.Preparation, action string) error {
	if caller.CanManage() {
		return nil
	}
	if preparation.PreparatorID == caller.UserID {
		return nil
	}
	return &PermissionDeniedError{Action: action + " preparation"}
}

func gateTaskError(taskType models.TaskType, required, got int) error {
	return &GateNotSatisfiedError{
		Entity:  string(taskType),
		Missing: []string{fmt.Sprintf("after photos: need %d, have %d", required, got)},
	}
}
