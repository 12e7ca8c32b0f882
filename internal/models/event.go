package models

import (
	"time"
)

type EventKind string

const (
	EventAccidentReported        EventKind = "accident_reported"
	EventAccidentCancelled       EventKind = "accident_cancelled"
	EventAccidentCompleted       EventKind = "accident_completed"
	EventAssignmentCreated       EventKind = "assignment_created"
	EventAssignmentStatusChanged EventKind = "assignment_status_changed"
	EventAssignmentReassigned    EventKind = "assignment_reassigned"
	EventHospitalIntakeConfirmed EventKind = "hospital_intake_confirmed"
)

// DispatchEvent is the payload handed to the notification sink after a
// dispatch write commits.
type DispatchEvent struct {
	Kind              EventKind   `json:"kind"`
	AccidentID        string      `json:"accident_id"`
	AssignmentID      string      `json:"assignment_id,omitempty"`
	VehicleDriverID   string      `json:"vehicle_driver_id,omitempty"`
	AmbulanceDriverID string      `json:"ambulance_driver_id,omitempty"`
	HospitalID        string      `json:"hospital_id,omitempty"`
	Status            string      `json:"status,omitempty"`
	Reason            string      `json:"reason,omitempty"`
	Location          *Coordinate `json:"location,omitempty"`
	OccurredAt        time.Time   `json:"occurred_at"`
}

// Data flattens the event into string pairs for push and websocket payloads.
func (e *DispatchEvent) Data() map[string]string {
	data := map[string]string{
		"kind":        string(e.Kind),
		"accident_id": e.AccidentID,
		"occurred_at": e.OccurredAt.UTC().Format(time.RFC3339),
	}
	optional := map[string]string{
		"assignment_id":       e.AssignmentID,
		"vehicle_driver_id":   e.VehicleDriverID,
		"ambulance_driver_id": e.AmbulanceDriverID,
		"hospital_id":         e.HospitalID,
		"status":              e.Status,
		"reason":              e.Reason,
	}
	for k, v := range optional {
		if v != "" {
			data[k] = v
		}
	}
	if e.Location != nil {
		data["location"] = e.Location.String()
	}
	return data
}
