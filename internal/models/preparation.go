package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type PreparationStatus string
type TaskType string
type TaskStatus string

const (
	PreparationStatusPending    PreparationStatus = "pending"
	PreparationStatusInProgress PreparationStatus = "in_progress"
	PreparationStatusCompleted  PreparationStatus = "completed"

	TaskTypeExteriorWashing  TaskType = "exterior_washing"
	TaskTypeInteriorCleaning TaskType = "interior_cleaning"
	TaskTypeRefueling        TaskType = "refueling"
	TaskTypeParking          TaskType = "parking"

	TaskStatusNotStarted TaskStatus = "not_started"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusCompleted  TaskStatus = "completed"
)

// TaskTypes is the fixed set of preparation tasks. Every preparation carries
// all four; each runs its own independent sub-machine.
var TaskTypes = []TaskType{
	TaskTypeExteriorWashing,
	TaskTypeInteriorCleaning,
	TaskTypeRefueling,
	TaskTypeParking,
}

// requiredAfterPhotos is the per-task evidence gate: the exact number of
// after-photos a task needs before it may complete.
var requiredAfterPhotos = map[TaskType]int{
	TaskTypeExteriorWashing:  2,
	TaskTypeInteriorCleaning: 3,
	TaskTypeRefueling:        1,
	TaskTypeParking:          1,
}

func IsValidTaskType(t TaskType) bool {
	_, ok := requiredAfterPhotos[t]
	return ok
}

func RequiredAfterPhotos(t TaskType) int {
	return requiredAfterPhotos[t]
}

type PreparationTask struct {
	Status      TaskStatus `json:"status" bson:"status" default:"not_started"`
	StartedAt   *time.Time `json:"started_at,omitempty" bson:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty" bson:"completed_at,omitempty"`
	Notes       string     `json:"notes,omitempty" bson:"notes,omitempty"`
	Before      []Photo    `json:"before,omitempty" bson:"before,omitempty"`
	After       []Photo    `json:"after" bson:"after"`
	Additional  []Photo    `json:"additional,omitempty" bson:"additional,omitempty"`
	Amount      *float64   `json:"amount,omitempty" bson:"amount,omitempty"` // refueling only, liters
}

type Preparation struct {
	ID           primitive.ObjectID            `json:"id" bson:"_id,omitempty"`
	LicensePlate string                        `json:"license_plate" bson:"license_plate" validate:"required"`
	VehicleModel string                        `json:"vehicle_model,omitempty" bson:"vehicle_model,omitempty"`
	Status       PreparationStatus             `json:"status" bson:"status" default:"pending"`
	PreparatorID primitive.ObjectID            `json:"preparator_id" bson:"preparator_id" validate:"required"`
	Notes        string                        `json:"notes,omitempty" bson:"notes,omitempty"`
	Tasks        map[TaskType]*PreparationTask `json:"tasks" bson:"tasks"`
	StartTime    time.Time                     `json:"start_time" bson:"start_time"`
	EndTime      *time.Time                    `json:"end_time,omitempty" bson:"end_time,omitempty"`
	CreatedAt    time.Time                     `json:"created_at" bson:"created_at"`
	UpdatedAt    time.Time                     `json:"updated_at" bson:"updated_at"`
}

// NewPreparationTasks returns the initial task map: all four tasks present,
// none started.
func NewPreparationTasks() map[TaskType]*PreparationTask {
	tasks := make(map[TaskType]*PreparationTask, len(TaskTypes))
	for _, t := range TaskTypes {
		tasks[t] = &PreparationTask{Status: TaskStatusNotStarted}
	}
	return tasks
}

func (p *Preparation) Task(t TaskType) *PreparationTask {
	if p.Tasks == nil {
		return nil
	}
	return p.Tasks[t]
}

func (p *Preparation) CompletedTaskCount() int {
	count := 0
	for _, task := range p.Tasks {
		if task != nil && task.Status == TaskStatusCompleted {
			count++
		}
	}
	return count
}

// CanComplete is the preparation-level gate: at least one task finished.
// All four are not required.
func (p *Preparation) CanComplete() bool {
	return p.Status != PreparationStatusCompleted && p.CompletedTaskCount() > 0
}

func (p *Preparation) IsTerminal() bool {
	return p.Status == PreparationStatusCompleted
}
