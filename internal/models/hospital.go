package models

import (
	"time"
)

type Hospital struct {
	ID          string     `json:"id" bson:"_id"`
	Name        string     `json:"name" bson:"name"`
	Address     string     `json:"address" bson:"address"`
	Location    Coordinate `json:"location" bson:"location"`
	PhoneNumber string     `json:"phone_number" bson:"phone_number"`
	AdminUserID string     `json:"admin_user_id" bson:"admin_user_id"`
	CreatedAt   time.Time  `json:"created_at" bson:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty" bson:"updated_at,omitempty"`
}

func (h *Hospital) GetID() string {
	return h.ID
}

func (h *Hospital) GetLocation() Coordinate {
	return h.Location
}
