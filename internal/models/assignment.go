package models

import (
	"strings"
	"time"

	"ambulance-dispatch/internal/utils"
)

type AssignmentStatus string

const (
	AssignmentStatusPending    AssignmentStatus = "pending"
	AssignmentStatusEnRoute    AssignmentStatus = "en_route"
	AssignmentStatusCompleted  AssignmentStatus = "completed"
	AssignmentStatusCancelled  AssignmentStatus = "cancelled"
	AssignmentStatusReassigned AssignmentStatus = "reassigned"
)

var assignmentTransitions = map[AssignmentStatus][]AssignmentStatus{
	AssignmentStatusPending: {
		AssignmentStatusEnRoute,
		AssignmentStatusCancelled,
		AssignmentStatusReassigned,
	},
	AssignmentStatusEnRoute: {
		AssignmentStatusCompleted,
		AssignmentStatusCancelled,
		AssignmentStatusReassigned,
	},
}

// ActiveAssignmentStatuses are the non-terminal states. At most one
// assignment per accident may be in one of them.
var ActiveAssignmentStatuses = []AssignmentStatus{
	AssignmentStatusPending,
	AssignmentStatusEnRoute,
}

func (s AssignmentStatus) IsValid() bool {
	switch s {
	case AssignmentStatusPending, AssignmentStatusEnRoute, AssignmentStatusCompleted,
		AssignmentStatusCancelled, AssignmentStatusReassigned:
		return true
	}
	return false
}

func (s AssignmentStatus) IsActive() bool {
	return s == AssignmentStatusPending || s == AssignmentStatusEnRoute
}

func (s AssignmentStatus) RequiresReason() bool {
	return s == AssignmentStatusCancelled || s == AssignmentStatusReassigned
}

func (s AssignmentStatus) CanTransitionTo(next AssignmentStatus) bool {
	for _, allowed := range assignmentTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Assignment binds one ambulance driver to one accident and routes it to a
// hospital. A reassignment closes this row and spawns a new one for the same
// accident with ReassignmentCount+1.
type Assignment struct {
	ID                 string           `json:"id" bson:"_id"`
	AccidentID         string           `json:"accident_id" bson:"accident_id"`
	AmbulanceDriverID  string           `json:"ambulance_driver_id" bson:"ambulance_driver_id"`
	HospitalID         string           `json:"hospital_id,omitempty" bson:"hospital_id,omitempty"`
	AcceptedAt         time.Time        `json:"accepted_at" bson:"accepted_at"`
	HospitalAcceptedAt *time.Time       `json:"hospital_accepted_at,omitempty" bson:"hospital_accepted_at,omitempty"`
	Status             AssignmentStatus `json:"status" bson:"status"`
	CancellationReason string           `json:"cancellation_reason,omitempty" bson:"cancellation_reason,omitempty"`
	ReassignmentCount  int              `json:"reassignment_count" bson:"reassignment_count"`
	PreviousID         string           `json:"previous_assignment_id,omitempty" bson:"previous_assignment_id,omitempty"`
	Active             bool             `json:"-" bson:"active"`
	CreatedAt          time.Time        `json:"created_at" bson:"created_at"`
	UpdatedAt          time.Time        `json:"updated_at" bson:"updated_at"`
}

func NewAssignment(accidentID, ambulanceDriverID, hospitalID string) *Assignment {
	return &Assignment{
		AccidentID:        accidentID,
		AmbulanceDriverID: ambulanceDriverID,
		HospitalID:        hospitalID,
		Status:            AssignmentStatusPending,
		Active:            true,
	}
}

// Successor builds the replacement row spawned by a reassignment.
func (a *Assignment) Successor(ambulanceDriverID string) *Assignment {
	next := NewAssignment(a.AccidentID, ambulanceDriverID, a.HospitalID)
	next.ReassignmentCount = a.ReassignmentCount + 1
	next.PreviousID = a.ID
	return next
}

// CheckTransition validates a move to next, including the reason required
// for cancel and reassign. It never mutates the record.
func (a *Assignment) CheckTransition(next AssignmentStatus, reason string) error {
	if !next.IsValid() {
		return utils.NewValidationError("status", "unknown assignment status "+string(next))
	}
	if !a.Status.CanTransitionTo(next) {
		return utils.NewInvalidTransitionError("assignment", string(a.Status), string(next))
	}
	if next.RequiresReason() && strings.TrimSpace(reason) == "" {
		return utils.NewValidationError("cancellation_reason", "a reason is required to "+reasonVerb(next)+" an assignment")
	}
	return nil
}

func reasonVerb(s AssignmentStatus) string {
	if s == AssignmentStatusReassigned {
		return "reassign"
	}
	return "cancel"
}
