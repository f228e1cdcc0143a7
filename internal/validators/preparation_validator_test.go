package validators

import (
	"testing"

	"fleetops/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func amount(v float64) *float64 { return &v }

func TestValidateTaskCompletionPhotoCounts(t *testing.T) {
	tests := []struct {
		taskType models.TaskType
		count    int
		ok       bool
	}{
		{models.TaskTypeExteriorWashing, 2, true},
		{models.TaskTypeExteriorWashing, 1, false},
		{models.TaskTypeExteriorWashing, 3, false},
		{models.TaskTypeInteriorCleaning, 3, true},
		{models.TaskTypeInteriorCleaning, 2, false},
		{models.TaskTypeParking, 1, true},
		{models.TaskTypeParking, 0, false},
	}

	for _, tt := range tests {
		errs := ValidateTaskCompletion(tt.taskType, tt.count, nil)
		if tt.ok {
			assert.Empty(t, errs, "%s with %d photos", tt.taskType, tt.count)
		} else {
			assert.NotEmpty(t, errs, "%s with %d photos", tt.taskType, tt.count)
		}
	}
}

func TestValidateTaskCompletionRefuelingAmount(t *testing.T) {
	assert.Empty(t, ValidateTaskCompletion(models.TaskTypeRefueling, 1, amount(40)))

	errs := ValidateTaskCompletion(models.TaskTypeRefueling, 1, nil)
	require.Len(t, errs, 1)
	assert.Equal(t, "amount", errs[0].Field)

	errs = ValidateTaskCompletion(models.TaskTypeRefueling, 1, amount(0))
	require.Len(t, errs, 1)
	assert.Equal(t, "amount", errs[0].Field)

	errs = ValidateTaskCompletion(models.TaskTypeRefueling, 1, amount(-3))
	require.Len(t, errs, 1)
}

func TestValidateTaskCompletionUnknownTask(t *testing.T) {
	errs := ValidateTaskCompletion("tire_rotation", 1, nil)
	require.Len(t, errs, 1)
	assert.Equal(t, "task_type", errs[0].Field)
}

func TestValidateTaskCompletionCollectsAllErrors(t *testing.T) {
	// Wrong count and missing amount report together.
	errs := ValidateTaskCompletion(models.TaskTypeRefueling, 0, nil)
	assert.Len(t, errs, 2)
}
