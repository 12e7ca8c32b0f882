package models

import (
	"time"
)

// AmbulanceDriver is keyed by the identity user id. HospitalID is the home
// affiliation and is unrelated to per-accident routing.
type AmbulanceDriver struct {
	UserID        string     `json:"user_id" bson:"_id"`
	Name          string     `json:"name" bson:"name"`
	VehicleNumber string     `json:"vehicle_number" bson:"vehicle_number"`
	HospitalID    string     `json:"hospital_id,omitempty" bson:"hospital_id,omitempty"`
	CreatedAt     time.Time  `json:"created_at" bson:"created_at"`
	UpdatedAt     *time.Time `json:"updated_at,omitempty" bson:"updated_at,omitempty"`
}
