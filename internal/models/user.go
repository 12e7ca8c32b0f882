package models

import (
	"time"
)

type Role string

const (
	RoleVehicleDriver   Role = "vehicle_driver"
	RoleAmbulanceDriver Role = "ambulance_driver"
	RoleHospitalAdmin   Role = "hospital_admin"
)

func (r Role) IsValid() bool {
	switch r {
	case RoleVehicleDriver, RoleAmbulanceDriver, RoleHospitalAdmin:
		return true
	}
	return false
}

// Actor is the authenticated caller of a dispatch operation.
type Actor struct {
	ID   string `json:"id"`
	Role Role   `json:"role"`
}

func (a *Actor) Is(role Role) bool {
	return a != nil && a.ID != "" && a.Role == role
}

// User is the profile document owned by the identity collaborator. The
// dispatch core only reads ID and Role from it.
type User struct {
	ID          string     `json:"id" bson:"_id"`
	Name        string     `json:"name" bson:"name"`
	Email       string     `json:"email" bson:"email"`
	PhoneNumber string     `json:"phone_number" bson:"phone_number"`
	Role        Role       `json:"role" bson:"role"`
	CreatedAt   time.Time  `json:"created_at" bson:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty" bson:"updated_at,omitempty"`
}
