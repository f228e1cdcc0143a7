package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Location is a named endpoint of a movement. Coordinates are optional:
// operators often create movements before the exact pickup point is geocoded.
type Location struct {
	Name      string   `json:"name" bson:"name" validate:"required"`
	Latitude  *float64 `json:"latitude,omitempty" bson:"latitude,omitempty" validate:"omitempty,min=-90,max=90"`
	Longitude *float64 `json:"longitude,omitempty" bson:"longitude,omitempty" validate:"omitempty,min=-180,max=180"`
}

func (l Location) HasCoordinates() bool {
	return l.Latitude != nil && l.Longitude != nil
}

// PositionReport is a best-effort telemetry sample from the driver's device
// while a movement is in transit. It is observability, not workflow state:
// losing one never fails a transition.
type PositionReport struct {
	ID         primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	MovementID primitive.ObjectID `json:"movement_id" bson:"movement_id"`
	DriverID   primitive.ObjectID `json:"driver_id" bson:"driver_id"`
	Latitude   float64            `json:"latitude" bson:"latitude" validate:"required,min=-90,max=90"`
	Longitude  float64            `json:"longitude" bson:"longitude" validate:"required,min=-180,max=180"`
	Accuracy   float64            `json:"accuracy,omitempty" bson:"accuracy,omitempty"`
	ReportedAt time.Time          `json:"reported_at" bson:"reported_at"`
}
