package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type MovementStatus string

const (
	MovementStatusPending    MovementStatus = "pending"
	MovementStatusAssigned   MovementStatus = "assigned"
	MovementStatusPreparing  MovementStatus = "preparing"
	MovementStatusInProgress MovementStatus = "in_progress"
	MovementStatusCompleted  MovementStatus = "completed"
	MovementStatusCancelled  MovementStatus = "cancelled"
)

// movementTransitions is the authoritative transition table. Callers request
// a transition by name and get a typed error back; nobody outside this table
// decides whether a transition is legal.
var movementTransitions = map[MovementStatus][]MovementStatus{
	MovementStatusPending:    {MovementStatusAssigned, MovementStatusPreparing, MovementStatusCancelled},
	MovementStatusAssigned:   {MovementStatusAssigned, MovementStatusPreparing, MovementStatusCancelled},
	MovementStatusPreparing:  {MovementStatusInProgress},
	MovementStatusInProgress: {MovementStatusCompleted},
}

type Movement struct {
	ID                primitive.ObjectID  `json:"id" bson:"_id,omitempty"`
	LicensePlate      string              `json:"license_plate" bson:"license_plate" validate:"required"`
	VehicleModel      string              `json:"vehicle_model,omitempty" bson:"vehicle_model,omitempty"`
	Status            MovementStatus      `json:"status" bson:"status" default:"pending"`
	DriverID          *primitive.ObjectID `json:"driver_id,omitempty" bson:"driver_id,omitempty"`
	DepartureLocation Location            `json:"departure_location" bson:"departure_location" validate:"required"`
	ArrivalLocation   Location            `json:"arrival_location" bson:"arrival_location" validate:"required"`
	Deadline          *time.Time          `json:"deadline,omitempty" bson:"deadline,omitempty"`
	Notes             string              `json:"notes,omitempty" bson:"notes,omitempty"`
	Photos            []Photo             `json:"photos" bson:"photos"`
	DepartureTime     *time.Time          `json:"departure_time,omitempty" bson:"departure_time,omitempty"`
	ArrivalTime       *time.Time          `json:"arrival_time,omitempty" bson:"arrival_time,omitempty"`
	CancelReason      string              `json:"cancel_reason,omitempty" bson:"cancel_reason,omitempty"`
	CreatedAt         time.Time           `json:"created_at" bson:"created_at"`
	UpdatedAt         time.Time           `json:"updated_at" bson:"updated_at"`
}

func (m *Movement) CanTransition(to MovementStatus) bool {
	for _, next := range movementTransitions[m.Status] {
		if next == to {
			return true
		}
	}
	return false
}

// IsPreTransit reports whether the movement has not left yet. Driver
// assignment, deletion and cancellation are only legal in this window.
func (m *Movement) IsPreTransit() bool {
	return m.Status == MovementStatusPending || m.Status == MovementStatusAssigned
}

func (m *Movement) IsTerminal() bool {
	return m.Status == MovementStatusCompleted || m.Status == MovementStatusCancelled
}

// PhotoForSlot returns the current photo for a (slot, kind) pair. At most one
// photo is current per pair; a newer upload supersedes the older one.
func (m *Movement) PhotoForSlot(slot PhotoSlot, kind PhotoKind) *Photo {
	for i := range m.Photos {
		if m.Photos[i].Slot == slot && m.Photos[i].Kind == kind {
			return &m.Photos[i]
		}
	}
	return nil
}

// MissingSlots lists every slot of the closed vocabulary that has no current
// photo of the given kind, in vocabulary order. An empty result means the
// gate for that kind is satisfied. The check is order-independent: it only
// looks at which slots exist, never at when they were uploaded.
func (m *Movement) MissingSlots(kind PhotoKind) []PhotoSlot {
	var missing []PhotoSlot
	for _, slot := range MovementPhotoSlots {
		if m.PhotoForSlot(slot, kind) == nil {
			missing = append(missing, slot)
		}
	}
	return missing
}

// MergePhotos applies the union-with-supersede rule: photos for a (slot,
// kind) pair that is being re-uploaded are replaced, everything else is
// appended. Only the backend authority calls this; clients never splice
// photo records into local state.
func (m *Movement) MergePhotos(photos []Photo) {
	for _, p := range photos {
		replaced := false
		for i := range m.Photos {
			if m.Photos[i].Slot == p.Slot && m.Photos[i].Kind == p.Kind {
				m.Photos[i] = p
				replaced = true
				break
			}
		}
		if !replaced {
			m.Photos = append(m.Photos, p)
		}
	}
}
