package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewPreparationTasks(t *testing.T) {
	tasks := NewPreparationTasks()

	assert.Len(t, tasks, 4)
	for _, taskType := range TaskTypes {
		task := tasks[taskType]
		assert.NotNil(t, task)
		assert.Equal(t, TaskStatusNotStarted, task.Status)
	}
}

func TestRequiredAfterPhotos(t *testing.T) {
	assert.Equal(t, 2, RequiredAfterPhotos(TaskTypeExteriorWashing))
	assert.Equal(t, 3, RequiredAfterPhotos(TaskTypeInteriorCleaning))
	assert.Equal(t, 1, RequiredAfterPhotos(TaskTypeRefueling))
	assert.Equal(t, 1, RequiredAfterPhotos(TaskTypeParking))
}

func TestIsValidTaskType(t *testing.T) {
	for _, taskType := range TaskTypes {
		assert.True(t, IsValidTaskType(taskType))
	}
	assert.False(t, IsValidTaskType("tire_rotation"))
}

func TestPreparationCanComplete(t *testing.T) {
	p := &Preparation{
		Status: PreparationStatusInProgress,
		Tasks:  NewPreparationTasks(),
	}
	assert.False(t, p.CanComplete(), "no task completed yet")

	p.Tasks[TaskTypeParking].Status = TaskStatusCompleted
	assert.True(t, p.CanComplete(), "one completed task is enough")

	p.Status = PreparationStatusCompleted
	assert.False(t, p.CanComplete(), "already completed")
}

func TestCompletedTaskCount(t *testing.T) {
	p := &Preparation{Tasks: NewPreparationTasks()}
	assert.Equal(t, 0, p.CompletedTaskCount())

	p.Tasks[TaskTypeRefueling].Status = TaskStatusCompleted
	p.Tasks[TaskTypeExteriorWashing].Status = TaskStatusInProgress
	assert.Equal(t, 1, p.CompletedTaskCount())

	p.Tasks[TaskTypeExteriorWashing].Status = TaskStatusCompleted
	assert.Equal(t, 2, p.CompletedTaskCount())
}

func TestTaskLookup(t *testing.T) {
	p := &Preparation{}
	assert.Nil(t, p.Task(TaskTypeParking), "nil task map")

	p.Tasks = NewPreparationTasks()
	assert.NotNil(t, p.Task(TaskTypeParking))
	assert.Nil(t, p.Task("tire_rotation"))
}
