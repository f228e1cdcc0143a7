package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type UserStatus string
type UserType string

const (
	UserStatusActive    UserStatus = "active"
	UserStatusInactive  UserStatus = "inactive"
	UserStatusSuspended UserStatus = "suspended"

	UserTypeAdmin      UserType = "admin"
	UserTypeTeamLeader UserType = "team_leader"
	UserTypeDriver     UserType = "driver"
	UserTypePreparator UserType = "preparator"
)

type User struct {
	ID             primitive.ObjectID  `json:"id" bson:"_id,omitempty"`
	FirstName      string              `json:"first_name" bson:"first_name" validate:"required,min=2,max=50"`
	LastName       string              `json:"last_name" bson:"last_name" validate:"required,min=2,max=50"`
	Email          string              `json:"email" bson:"email" validate:"required,email"`
	Phone          string              `json:"phone" bson:"phone"`
	ProfilePicture string              `json:"profile_picture,omitempty" bson:"profile_picture,omitempty"`
	UserType       UserType            `json:"user_type" bson:"user_type" validate:"required"`
	Status         UserStatus          `json:"status" bson:"status" default:"active"`
	AgencyID       *primitive.ObjectID `json:"agency_id,omitempty" bson:"agency_id,omitempty"`
	LastActiveAt   *time.Time          `json:"last_active_at,omitempty" bson:"last_active_at,omitempty"`
	CreatedAt      time.Time           `json:"created_at" bson:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at" bson:"updated_at"`
}

// CanManageMovements reports whether the user may perform operator actions
// (delete, cancel, reassign) on movements.
func (u *User) CanManageMovements() bool {
	return u.UserType == UserTypeAdmin || u.UserType == UserTypeTeamLeader
}
