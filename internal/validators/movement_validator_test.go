package validators

import (
	"testing"
	"time"

	"fleetops/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validCreateRequest() *MovementCreateRequest {
	return &MovementCreateRequest{
		LicensePlate:      "AB-123-CD",
		VehicleModel:      "Transit",
		DepartureLocation: LocationRequest{Name: "Depot North"},
		ArrivalLocation:   LocationRequest{Name: "Garage South"},
	}
}

func TestValidateMovementCreate(t *testing.T) {
	assert.Empty(t, ValidateMovementCreate(validCreateRequest()))
}

func TestValidateMovementCreateRejectsPastDeadline(t *testing.T) {
	req := validCreateRequest()
	past := time.Now().Add(-time.Hour)
	req.Deadline = &past

	errs := ValidateMovementCreate(req)
	require.Len(t, errs, 1)
	assert.Equal(t, "deadline", errs[0].Field)
}

func TestValidateMovementCreateRejectsBadPlate(t *testing.T) {
	req := validCreateRequest()
	req.LicensePlate = "!"

	errs := ValidateMovementCreate(req)
	require.NotEmpty(t, errs)
	assert.Contains(t, errs.ToMap(), "licenseplate")
}

func TestValidateMovementPhotoBatch(t *testing.T) {
	errs := ValidateMovementPhotoBatch(models.PhotoKindDeparture,
		[]models.PhotoSlot{models.PhotoSlotFront, models.PhotoSlotMeter})
	assert.Empty(t, errs)
}

func TestValidateMovementPhotoBatchRejectsBadKind(t *testing.T) {
	errs := ValidateMovementPhotoBatch("before", []models.PhotoSlot{models.PhotoSlotFront})
	require.Len(t, errs, 1)
	assert.Equal(t, "kind", errs[0].Field)
}

func TestValidateMovementPhotoBatchRejectsEmpty(t *testing.T) {
	errs := ValidateMovementPhotoBatch(models.PhotoKindArrival, nil)
	require.Len(t, errs, 1)
	assert.Equal(t, "photos", errs[0].Field)
}

func TestValidateMovementPhotoBatchRejectsUnknownSlot(t *testing.T) {
	errs := ValidateMovementPhotoBatch(models.PhotoKindDeparture, []models.PhotoSlot{"trunk"})
	require.Len(t, errs, 1)
	assert.Equal(t, "trunk", errs[0].Field)
}

func TestValidateMovementPhotoBatchRejectsDuplicates(t *testing.T) {
	errs := ValidateMovementPhotoBatch(models.PhotoKindDeparture,
		[]models.PhotoSlot{models.PhotoSlotRoof, models.PhotoSlotRoof})
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Message, "duplicate")
}
