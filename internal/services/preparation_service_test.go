package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"fleetops/internal/models"
	"fleetops/internal/validators"
	"fleetops/pkg/cache"
	"fleetops/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type preparationFixture struct {
	service      PreparationService
	repo         *fakePreparationRepo
	uploads      *fakeUploadService
	preparator   *Caller
	preparatorID primitive.ObjectID
}

func newPreparationFixture(t *testing.T) *preparationFixture {
	t.Helper()

	preparatorID := primitive.NewObjectID()
	users := newFakeUserRepo(
		&models.User{ID: preparatorID, UserType: models.UserTypePreparator, Email: "prep@example.com"},
	)
	repo := newFakePreparationRepo()
	uploads := &fakeUploadService{}
	cacheService := NewCacheService(cache.NewMemoryCache(), logger.NewNop(), time.Minute)

	return &preparationFixture{
		service:      NewPreparationService(repo, users, uploads, cacheService, logger.NewNop()),
		repo:         repo,
		uploads:      uploads,
		preparator:   &Caller{UserID: preparatorID, Role: models.UserTypePreparator},
		preparatorID: preparatorID,
	}
}

func (f *preparationFixture) seedPreparation(t *testing.T) *models.Preparation {
	t.Helper()
	preparation := &models.Preparation{
		LicensePlate: "EF-456-GH",
		Status:       models.PreparationStatusPending,
		PreparatorID: f.preparatorID,
		Tasks:        models.NewPreparationTasks(),
		StartTime:    time.Now(),
	}
	require.NoError(t, f.repo.Create(context.Background(), preparation))
	return preparation
}

func taskPhotos(n int) []FileUpload {
	files := make([]FileUpload, n)
	for i := range files {
		files[i] = FileUpload{
			Filename:    "after.jpg",
			ContentType: "image/jpeg",
			Size:        2048,
			Reader:      strings.NewReader("jpeg-bytes"),
		}
	}
	return files
}

func floatPtr(v float64) *float64 { return &v }

func TestCompleteTaskWrongPhotoCountNeverTouchesStorage(t *testing.T) {
	f := newPreparationFixture(t)
	preparation := f.seedPreparation(t)
	ctx := context.Background()

	_, err := f.service.StartTask(ctx, f.preparator, preparation.ID, models.TaskTypeExteriorWashing, "")
	require.NoError(t, err)
	f.uploads.batchCalls = 0

	// Exterior washing needs exactly 2 after-photos.
	for _, count := range []int{0, 1, 3} {
		_, err := f.service.CompleteTask(ctx, f.preparator, preparation.ID, models.TaskTypeExteriorWashing,
			&validators.TaskCompleteRequest{}, taskPhotos(count))
		var validationErrs validators.ValidationErrors
		require.ErrorAs(t, err, &validationErrs, "count %d", count)
	}
	assert.Equal(t, 0, f.uploads.batchCalls, "failed validation must cost zero uploads")
}

func TestCompleteTaskExteriorWashing(t *testing.T) {
	f := newPreparationFixture(t)
	preparation := f.seedPreparation(t)
	ctx := context.Background()

	started, err := f.service.StartTask(ctx, f.preparator, preparation.ID, models.TaskTypeExteriorWashing, "dirty rims")
	require.NoError(t, err)
	assert.Equal(t, models.PreparationStatusInProgress, started.Status, "first task promotes the parent")

	updated, err := f.service.CompleteTask(ctx, f.preparator, preparation.ID, models.TaskTypeExteriorWashing,
		&validators.TaskCompleteRequest{Notes: "done"}, taskPhotos(2))
	require.NoError(t, err)

	task := updated.Task(models.TaskTypeExteriorWashing)
	require.NotNil(t, task)
	assert.Equal(t, models.TaskStatusCompleted, task.Status)
	assert.Len(t, task.After, 2)
	require.NotNil(t, task.CompletedAt)
}

func TestCompleteRefuelingRequiresPositiveAmount(t *testing.T) {
	f := newPreparationFixture(t)
	preparation := f.seedPreparation(t)
	ctx := context.Background()

	_, err := f.service.StartTask(ctx, f.preparator, preparation.ID, models.TaskTypeRefueling, "")
	require.NoError(t, err)
	f.uploads.batchCalls = 0

	_, err = f.service.CompleteTask(ctx, f.preparator, preparation.ID, models.TaskTypeRefueling,
		&validators.TaskCompleteRequest{}, taskPhotos(1))
	var validationErrs validators.ValidationErrors
	require.ErrorAs(t, err, &validationErrs, "missing amount")

	_, err = f.service.CompleteTask(ctx, f.preparator, preparation.ID, models.TaskTypeRefueling,
		&validators.TaskCompleteRequest{Amount: floatPtr(-4)}, taskPhotos(1))
	require.ErrorAs(t, err, &validationErrs, "negative amount")
	assert.Equal(t, 0, f.uploads.batchCalls)

	updated, err := f.service.CompleteTask(ctx, f.preparator, preparation.ID, models.TaskTypeRefueling,
		&validators.TaskCompleteRequest{Amount: floatPtr(42.5)}, taskPhotos(1))
	require.NoError(t, err)

	task := updated.Task(models.TaskTypeRefueling)
	require.NotNil(t, task.Amount)
	assert.Equal(t, 42.5, *task.Amount)
}

func TestParkingCompletesAtomicallyFromNotStarted(t *testing.T) {
	f := newPreparationFixture(t)
	preparation := f.seedPreparation(t)
	ctx := context.Background()

	// Parking cannot be started like the other tasks.
	_, err := f.service.StartTask(ctx, f.preparator, preparation.ID, models.TaskTypeParking, "")
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)

	updated, err := f.service.CompleteTask(ctx, f.preparator, preparation.ID, models.TaskTypeParking,
		&validators.TaskCompleteRequest{Notes: "bay 7"}, taskPhotos(1))
	require.NoError(t, err)

	task := updated.Task(models.TaskTypeParking)
	assert.Equal(t, models.TaskStatusCompleted, task.Status)

	// Re-completing a finished task is a state conflict.
	_, err = f.service.CompleteTask(ctx, f.preparator, preparation.ID, models.TaskTypeParking,
		&validators.TaskCompleteRequest{}, taskPhotos(1))
	var stateErr *InvalidStateError
	require.ErrorAs(t, err, &stateErr)
}

func TestCompleteTaskRequiresStartFirst(t *testing.T) {
	f := newPreparationFixture(t)
	preparation := f.seedPreparation(t)

	_, err := f.service.CompleteTask(context.Background(), f.preparator, preparation.ID, models.TaskTypeInteriorCleaning,
		&validators.TaskCompleteRequest{}, taskPhotos(3))
	var stateErr *InvalidStateError
	require.ErrorAs(t, err, &stateErr)
}

func TestCompletePreparationWithSingleTask(t *testing.T) {
	f := newPreparationFixture(t)
	preparation := f.seedPreparation(t)
	ctx := context.Background()

	// Only parking done; the other three stay untouched.
	_, err := f.service.CompleteTask(ctx, f.preparator, preparation.ID, models.TaskTypeParking,
		&validators.TaskCompleteRequest{}, taskPhotos(1))
	require.NoError(t, err)

	completed, err := f.service.CompletePreparation(ctx, f.preparator, preparation.ID, "ready")
	require.NoError(t, err)
	assert.Equal(t, models.PreparationStatusCompleted, completed.Status)
	require.NotNil(t, completed.EndTime)
	assert.Equal(t, "ready", completed.Notes)
}

func TestCompletePreparationWithNoCompletedTaskListsThemAll(t *testing.T) {
	f := newPreparationFixture(t)
	preparation := f.seedPreparation(t)

	_, err := f.service.CompletePreparation(context.Background(), f.preparator, preparation.ID, "")
	var gateErr *GateNotSatisfiedError
	require.ErrorAs(t, err, &gateErr)
	assert.Len(t, gateErr.Missing, 4)
	assert.Contains(t, gateErr.Missing, string(models.TaskTypeParking))
}

func TestCompletedPreparationIsFrozen(t *testing.T) {
	f := newPreparationFixture(t)
	preparation := f.seedPreparation(t)
	ctx := context.Background()

	_, err := f.service.CompleteTask(ctx, f.preparator, preparation.ID, models.TaskTypeParking,
		&validators.TaskCompleteRequest{}, taskPhotos(1))
	require.NoError(t, err)
	_, err = f.service.CompletePreparation(ctx, f.preparator, preparation.ID, "")
	require.NoError(t, err)

	var stateErr *InvalidStateError

	_, err = f.service.StartTask(ctx, f.preparator, preparation.ID, models.TaskTypeRefueling, "")
	require.ErrorAs(t, err, &stateErr)

	_, err = f.service.CompletePreparation(ctx, f.preparator, preparation.ID, "")
	require.ErrorAs(t, err, &stateErr)

	file := taskPhotos(1)[0]
	_, err = f.service.AddTaskPhoto(ctx, f.preparator, preparation.ID, models.TaskTypeParking, file)
	require.ErrorAs(t, err, &stateErr)
}

func TestAddTaskPhotoNeverChangesTaskState(t *testing.T) {
	f := newPreparationFixture(t)
	preparation := f.seedPreparation(t)
	ctx := context.Background()

	_, err := f.service.StartTask(ctx, f.preparator, preparation.ID, models.TaskTypeInteriorCleaning, "")
	require.NoError(t, err)

	updated, err := f.service.AddTaskPhoto(ctx, f.preparator, preparation.ID, models.TaskTypeInteriorCleaning, taskPhotos(1)[0])
	require.NoError(t, err)

	task := updated.Task(models.TaskTypeInteriorCleaning)
	assert.Equal(t, models.TaskStatusInProgress, task.Status, "additional photos never advance the task")
	assert.Len(t, task.Additional, 1)
	assert.Empty(t, task.After)
}

func TestAddTaskPhotoRejectsNotStartedTask(t *testing.T) {
	f := newPreparationFixture(t)
	preparation := f.seedPreparation(t)

	_, err := f.service.AddTaskPhoto(context.Background(), f.preparator, preparation.ID, models.TaskTypeRefueling, taskPhotos(1)[0])
	var stateErr *InvalidStateError
	require.ErrorAs(t, err, &stateErr)
}

func TestCreatePreparationRequiresPreparatorRole(t *testing.T) {
	f := newPreparationFixture(t)

	otherID := primitive.NewObjectID()

	_, err := f.service.CreatePreparation(context.Background(), &validators.PreparationCreateRequest{
		LicensePlate: "EF-456-GH",
		PreparatorID: otherID,
	})
	var notFoundErr *NotFoundError
	require.ErrorAs(t, err, &notFoundErr, "unknown user")

	created, err := f.service.CreatePreparation(context.Background(), &validators.PreparationCreateRequest{
		LicensePlate: "EF-456-GH",
		PreparatorID: f.preparatorID,
	})
	require.NoError(t, err)
	assert.Equal(t, models.PreparationStatusPending, created.Status)
	assert.Len(t, created.Tasks, 4)
}
