package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"fleetops/internal/models"
	"fleetops/pkg/cache"
	"fleetops/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type movementFixture struct {
	service  MovementService
	repo     *fakeMovementRepo
	users    *fakeUserRepo
	uploads  *fakeUploadService
	cache    CacheService
	admin    *Caller
	driver   *Caller
	driverID primitive.ObjectID
}

func newMovementFixture(t *testing.T) *movementFixture {
	t.Helper()

	driverID := primitive.NewObjectID()
	adminID := primitive.NewObjectID()

	users := newFakeUserRepo(
		&models.User{ID: driverID, UserType: models.UserTypeDriver, Email: "driver@example.com"},
		&models.User{ID: adminID, UserType: models.UserTypeAdmin, Email: "admin@example.com"},
	)
	repo := newFakeMovementRepo()
	uploads := &fakeUploadService{}
	cacheService := NewCacheService(cache.NewMemoryCache(), logger.NewNop(), time.Minute)

	return &movementFixture{
		service:  NewMovementService(repo, users, uploads, cacheService, logger.NewNop()),
		repo:     repo,
		users:    users,
		uploads:  uploads,
		cache:    cacheService,
		admin:    &Caller{UserID: adminID, Role: models.UserTypeAdmin},
		driver:   &Caller{UserID: driverID, Role: models.UserTypeDriver},
		driverID: driverID,
	}
}

func (f *movementFixture) seedMovement(t *testing.T, status models.MovementStatus) *models.Movement {
	t.Helper()
	movement := &models.Movement{
		LicensePlate: "AB-123-CD",
		Status:       status,
		DriverID:     &f.driverID,
		DepartureLocation: models.Location{Name: "Depot North"},
		ArrivalLocation:   models.Location{Name: "Garage South"},
	}
	require.NoError(t, f.repo.Create(context.Background(), movement))
	return movement
}

func departureBatch(slots ...models.PhotoSlot) []FileUpload {
	files := make([]FileUpload, len(slots))
	for i, slot := range slots {
		files[i] = FileUpload{
			Slot:        slot,
			Filename:    string(slot) + ".jpg",
			ContentType: "image/jpeg",
			Size:        1024,
			Reader:      strings.NewReader("jpeg-bytes"),
		}
	}
	return files
}

func TestStartMovementRequiresAllDepartureSlots(t *testing.T) {
	f := newMovementFixture(t)
	movement := f.seedMovement(t, models.MovementStatusPreparing)
	ctx := context.Background()

	// Upload six of the seven slots.
	_, err := f.service.UploadPhotos(ctx, f.driver, movement.ID, models.PhotoKindDeparture,
		departureBatch(models.MovementPhotoSlots[:6]...))
	require.NoError(t, err)

	_, err = f.service.StartMovement(ctx, f.driver, movement.ID)
	var gateErr *GateNotSatisfiedError
	require.ErrorAs(t, err, &gateErr)
	assert.Equal(t, []string{"departure:meter"}, gateErr.Missing)

	// The last slot closes the gate.
	_, err = f.service.UploadPhotos(ctx, f.driver, movement.ID, models.PhotoKindDeparture,
		departureBatch(models.PhotoSlotMeter))
	require.NoError(t, err)

	started, err := f.service.StartMovement(ctx, f.driver, movement.ID)
	require.NoError(t, err)
	assert.Equal(t, models.MovementStatusInProgress, started.Status)
	require.NotNil(t, started.DepartureTime)
}

func TestStartMovementUploadOrderIrrelevant(t *testing.T) {
	f := newMovementFixture(t)
	movement := f.seedMovement(t, models.MovementStatusPreparing)
	ctx := context.Background()

	// One slot per batch, reverse vocabulary order.
	for i := len(models.MovementPhotoSlots) - 1; i >= 0; i-- {
		_, err := f.service.UploadPhotos(ctx, f.driver, movement.ID, models.PhotoKindDeparture,
			departureBatch(models.MovementPhotoSlots[i]))
		require.NoError(t, err)
	}

	started, err := f.service.StartMovement(ctx, f.driver, movement.ID)
	require.NoError(t, err)
	assert.Equal(t, models.MovementStatusInProgress, started.Status)
}

func TestCompleteMovementGateEnumeratesEveryMissingSlot(t *testing.T) {
	f := newMovementFixture(t)
	movement := f.seedMovement(t, models.MovementStatusInProgress)

	_, err := f.service.CompleteMovement(context.Background(), f.driver, movement.ID, "")
	var gateErr *GateNotSatisfiedError
	require.ErrorAs(t, err, &gateErr)
	assert.Len(t, gateErr.Missing, len(models.MovementPhotoSlots))
	assert.Equal(t, "arrival:front", gateErr.Missing[0])
}

func TestCompleteMovementTwiceIsStateConflict(t *testing.T) {
	f := newMovementFixture(t)
	movement := f.seedMovement(t, models.MovementStatusInProgress)
	ctx := context.Background()

	_, err := f.service.UploadPhotos(ctx, f.driver, movement.ID, models.PhotoKindArrival,
		departureBatch(models.MovementPhotoSlots...))
	require.NoError(t, err)

	completed, err := f.service.CompleteMovement(ctx, f.driver, movement.ID, "delivered")
	require.NoError(t, err)
	assert.Equal(t, models.MovementStatusCompleted, completed.Status)
	assert.Equal(t, "delivered", completed.Notes)

	_, err = f.service.CompleteMovement(ctx, f.driver, movement.ID, "")
	var stateErr *InvalidStateError
	require.ErrorAs(t, err, &stateErr)
	assert.Equal(t, string(models.MovementStatusCompleted), stateErr.Status)
}

func TestUploadBatchFailureLeavesMovementUnchanged(t *testing.T) {
	f := newMovementFixture(t)
	movement := f.seedMovement(t, models.MovementStatusPreparing)
	ctx := context.Background()

	f.uploads.failNext = true
	_, err := f.service.UploadPhotos(ctx, f.driver, movement.ID, models.PhotoKindDeparture,
		departureBatch(models.PhotoSlotFront, models.PhotoSlotRear))

	var transportErr *TransportError
	require.ErrorAs(t, err, &transportErr)

	// No photos recorded, no persistence call.
	assert.Equal(t, 0, f.repo.addPhotosCalls)
	current, getErr := f.service.GetMovement(ctx, movement.ID)
	require.NoError(t, getErr)
	assert.Empty(t, current.Photos)
}

func TestUploadPhotosArrivalOnlyDuringTransit(t *testing.T) {
	f := newMovementFixture(t)
	movement := f.seedMovement(t, models.MovementStatusPreparing)

	_, err := f.service.UploadPhotos(context.Background(), f.driver, movement.ID, models.PhotoKindArrival,
		departureBatch(models.PhotoSlotFront))
	var stateErr *InvalidStateError
	require.ErrorAs(t, err, &stateErr)
}

func TestUploadPhotosDepartureFrozenInTransit(t *testing.T) {
	f := newMovementFixture(t)
	movement := f.seedMovement(t, models.MovementStatusInProgress)

	_, err := f.service.UploadPhotos(context.Background(), f.driver, movement.ID, models.PhotoKindDeparture,
		departureBatch(models.PhotoSlotFront))
	var stateErr *InvalidStateError
	require.ErrorAs(t, err, &stateErr)
}

func TestUploadPhotosTerminalMovementImmutable(t *testing.T) {
	f := newMovementFixture(t)
	movement := f.seedMovement(t, models.MovementStatusCancelled)

	_, err := f.service.UploadPhotos(context.Background(), f.driver, movement.ID, models.PhotoKindDeparture,
		departureBatch(models.PhotoSlotFront))
	var stateErr *InvalidStateError
	require.ErrorAs(t, err, &stateErr)
	assert.Equal(t, 0, f.uploads.batchCalls)
}

func TestUploadPhotosSupersedesSlot(t *testing.T) {
	f := newMovementFixture(t)
	movement := f.seedMovement(t, models.MovementStatusPreparing)
	ctx := context.Background()

	first, err := f.service.UploadPhotos(ctx, f.driver, movement.ID, models.PhotoKindDeparture,
		departureBatch(models.PhotoSlotFront))
	require.NoError(t, err)
	require.Len(t, first.Photos, 1)

	second, err := f.service.UploadPhotos(ctx, f.driver, movement.ID, models.PhotoKindDeparture,
		departureBatch(models.PhotoSlotFront))
	require.NoError(t, err)
	assert.Len(t, second.Photos, 1, "re-upload replaces, never duplicates")
	assert.NotEqual(t, first.Photos[0].URL, second.Photos[0].URL)
}

func TestGetMovementNeverServesStaleStateAfterMutation(t *testing.T) {
	f := newMovementFixture(t)
	movement := f.seedMovement(t, models.MovementStatusPending)
	ctx := context.Background()

	// Prime the cache.
	cached, err := f.service.GetMovement(ctx, movement.ID)
	require.NoError(t, err)
	assert.Equal(t, models.MovementStatusPending, cached.Status)

	_, err = f.service.PrepareMovement(ctx, f.admin, movement.ID)
	require.NoError(t, err)

	fresh, err := f.service.GetMovement(ctx, movement.ID)
	require.NoError(t, err)
	assert.Equal(t, models.MovementStatusPreparing, fresh.Status)
}

func TestCancelMovementAdminOnlyAndPreTransit(t *testing.T) {
	f := newMovementFixture(t)
	ctx := context.Background()

	movement := f.seedMovement(t, models.MovementStatusAssigned)

	_, err := f.service.CancelMovement(ctx, f.driver, movement.ID, "vehicle sold")
	var permErr *PermissionDeniedError
	require.ErrorAs(t, err, &permErr)

	cancelled, err := f.service.CancelMovement(ctx, f.admin, movement.ID, "vehicle sold")
	require.NoError(t, err)
	assert.Equal(t, models.MovementStatusCancelled, cancelled.Status)
	assert.Equal(t, "vehicle sold", cancelled.CancelReason)

	inTransit := f.seedMovement(t, models.MovementStatusInProgress)
	_, err = f.service.CancelMovement(ctx, f.admin, inTransit.ID, "too late")
	var stateErr *InvalidStateError
	require.ErrorAs(t, err, &stateErr)
}

func TestAssignDriverRejectsNonDriverAndTransit(t *testing.T) {
	f := newMovementFixture(t)
	ctx := context.Background()
	movement := f.seedMovement(t, models.MovementStatusPending)

	_, err := f.service.AssignDriver(ctx, f.admin, movement.ID, f.admin.UserID)
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)

	assigned, err := f.service.AssignDriver(ctx, f.admin, movement.ID, f.driverID)
	require.NoError(t, err)
	assert.Equal(t, models.MovementStatusAssigned, assigned.Status)

	inTransit := f.seedMovement(t, models.MovementStatusInProgress)
	_, err = f.service.AssignDriver(ctx, f.admin, inTransit.ID, f.driverID)
	var stateErr *InvalidStateError
	require.ErrorAs(t, err, &stateErr)
}

func TestDeleteMovementOnlyBeforeTransit(t *testing.T) {
	f := newMovementFixture(t)
	ctx := context.Background()

	movement := f.seedMovement(t, models.MovementStatusPending)
	require.NoError(t, f.service.DeleteMovement(ctx, f.admin, movement.ID))

	err := f.service.DeleteMovement(ctx, f.driver, f.seedMovement(t, models.MovementStatusPending).ID)
	var permErr *PermissionDeniedError
	require.ErrorAs(t, err, &permErr)

	inTransit := f.seedMovement(t, models.MovementStatusInProgress)
	err = f.service.DeleteMovement(ctx, f.admin, inTransit.ID)
	var stateErr *InvalidStateError
	require.ErrorAs(t, err, &stateErr)
}

func TestUploadPhotosSkipsUnselectedSlots(t *testing.T) {
	f := newMovementFixture(t)
	movement := f.seedMovement(t, models.MovementStatusPreparing)

	files := departureBatch(models.PhotoSlotFront)
	files = append(files, FileUpload{Slot: models.PhotoSlotRear}) // no reader, never selected

	updated, err := f.service.UploadPhotos(context.Background(), f.driver, movement.ID, models.PhotoKindDeparture, files)
	require.NoError(t, err)
	assert.Len(t, updated.Photos, 1)
	assert.Equal(t, models.PhotoSlotFront, updated.Photos[0].Slot)
}
