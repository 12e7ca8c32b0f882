package models

import (
	"time"

	"ambulance-dispatch/internal/utils"
)

type TriggerType string
type AccidentStatus string

const (
	TriggerTypeManual TriggerType = "manual"
	TriggerTypeSensor TriggerType = "sensor"

	AccidentStatusPending           AccidentStatus = "pending"
	AccidentStatusAmbulanceAssigned AccidentStatus = "ambulance_assigned"
	AccidentStatusCompleted         AccidentStatus = "completed"
	AccidentStatusCancelled         AccidentStatus = "cancelled"
)

func (t TriggerType) IsValid() bool {
	return t == TriggerTypeManual || t == TriggerTypeSensor
}

// accidentTransitions lists the legal next states. ambulance_assigned may
// fall back to pending when its assignment is cancelled so the accident
// re-enters the dispatch pool.
var accidentTransitions = map[AccidentStatus][]AccidentStatus{
	AccidentStatusPending: {
		AccidentStatusAmbulanceAssigned,
		AccidentStatusCancelled,
	},
	AccidentStatusAmbulanceAssigned: {
		AccidentStatusCompleted,
		AccidentStatusCancelled,
		AccidentStatusPending,
	},
}

func (s AccidentStatus) IsValid() bool {
	switch s {
	case AccidentStatusPending, AccidentStatusAmbulanceAssigned, AccidentStatusCompleted, AccidentStatusCancelled:
		return true
	}
	return false
}

func (s AccidentStatus) IsTerminal() bool {
	return s == AccidentStatusCompleted || s == AccidentStatusCancelled
}

func (s AccidentStatus) CanTransitionTo(next AccidentStatus) bool {
	for _, allowed := range accidentTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Accident is an incident report filed by a vehicle driver. Only dispatch
// operations change Status; the other identity fields never change after
// creation.
type Accident struct {
	ID                 string         `json:"id" bson:"_id"`
	VehicleDriverID    string         `json:"vehicle_driver_id" bson:"vehicle_driver_id"`
	Location           Coordinate     `json:"location" bson:"location"`
	Timestamp          time.Time      `json:"timestamp" bson:"timestamp"`
	TriggerType        TriggerType    `json:"trigger_type" bson:"trigger_type"`
	Status             AccidentStatus `json:"status" bson:"status"`
	ActiveAssignmentID string         `json:"active_assignment_id,omitempty" bson:"active_assignment_id,omitempty"`
	CreatedAt          time.Time      `json:"created_at" bson:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at" bson:"updated_at"`
}

// CheckTransition validates a move to next without mutating the record.
func (a *Accident) CheckTransition(next AccidentStatus) error {
	if !a.Status.CanTransitionTo(next) {
		return utils.NewInvalidTransitionError("accident", string(a.Status), string(next))
	}
	return nil
}

// NewAccident builds a pending report. ID and timestamps are assigned by the
// record store.
func NewAccident(vehicleDriverID string, location Coordinate, trigger TriggerType) *Accident {
	return &Accident{
		VehicleDriverID: vehicleDriverID,
		Location:        location,
		TriggerType:     trigger,
		Status:          AccidentStatusPending,
	}
}
