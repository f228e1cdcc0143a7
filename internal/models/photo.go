package models

import (
	"time"
)

type PhotoSlot string
type PhotoKind string

const (
	PhotoSlotFront      PhotoSlot = "front"
	PhotoSlotPassenger  PhotoSlot = "passenger"
	PhotoSlotDriver     PhotoSlot = "driver"
	PhotoSlotRear       PhotoSlot = "rear"
	PhotoSlotWindshield PhotoSlot = "windshield"
	PhotoSlotRoof       PhotoSlot = "roof"
	PhotoSlotMeter      PhotoSlot = "meter"

	PhotoKindDeparture  PhotoKind = "departure"
	PhotoKindArrival    PhotoKind = "arrival"
	PhotoKindBefore     PhotoKind = "before"
	PhotoKindAfter      PhotoKind = "after"
	PhotoKindAdditional PhotoKind = "additional"
)

// MovementPhotoSlots is the closed slot vocabulary for movement evidence.
// Every departure and arrival gate requires one current photo per slot.
var MovementPhotoSlots = []PhotoSlot{
	PhotoSlotFront,
	PhotoSlotPassenger,
	PhotoSlotDriver,
	PhotoSlotRear,
	PhotoSlotWindshield,
	PhotoSlotRoof,
	PhotoSlotMeter,
}

type Photo struct {
	Slot        PhotoSlot `json:"slot,omitempty" bson:"slot,omitempty"`
	Kind        PhotoKind `json:"kind" bson:"kind" validate:"required"`
	URL         string    `json:"url" bson:"url" validate:"required,url"`
	Description string    `json:"description,omitempty" bson:"description,omitempty"`
	Timestamp   time.Time `json:"timestamp" bson:"timestamp"`
}

func IsValidMovementSlot(slot PhotoSlot) bool {
	for _, s := range MovementPhotoSlots {
		if s == slot {
			return true
		}
	}
	return false
}
