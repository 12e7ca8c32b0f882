package models

import (
	"testing"

	"ambulance-dispatch/internal/utils"

	"github.com/stretchr/testify/assert"
)

func TestAccidentStatus_CanTransitionTo(t *testing.T) {
	cases := []struct {
		from, to AccidentStatus
		ok       bool
	}{
		{AccidentStatusPending, AccidentStatusAmbulanceAssigned, true},
		{AccidentStatusPending, AccidentStatusCancelled, true},
		{AccidentStatusPending, AccidentStatusCompleted, false},
		{AccidentStatusAmbulanceAssigned, AccidentStatusCompleted, true},
		{AccidentStatusAmbulanceAssigned, AccidentStatusCancelled, true},
		{AccidentStatusAmbulanceAssigned, AccidentStatusPending, true},
		{AccidentStatusAmbulanceAssigned, AccidentStatusAmbulanceAssigned, false},
		{AccidentStatusCompleted, AccidentStatusPending, false},
		{AccidentStatusCompleted, AccidentStatusCancelled, false},
		{AccidentStatusCancelled, AccidentStatusPending, false},
		{AccidentStatusCancelled, AccidentStatusAmbulanceAssigned, false},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.ok, tc.from.CanTransitionTo(tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestAccident_CheckTransitionDoesNotMutate(t *testing.T) {
	accident := NewAccident("driver-1", Coordinate{Latitude: 28.6139, Longitude: 77.2090}, TriggerTypeManual)
	accident.Status = AccidentStatusCompleted

	err := accident.CheckTransition(AccidentStatusPending)

	assert.ErrorIs(t, err, utils.ErrInvalidTransition)
	appErr, ok := utils.AsAppError(err)
	assert.True(t, ok)
	assert.Equal(t, "completed", appErr.Current)
	assert.Equal(t, "pending", appErr.Requested)
	assert.Equal(t, AccidentStatusCompleted, accident.Status)
}

func TestNewAccident(t *testing.T) {
	accident := NewAccident("driver-1", Coordinate{Latitude: 1, Longitude: 2}, TriggerTypeSensor)

	assert.Equal(t, AccidentStatusPending, accident.Status)
	assert.Equal(t, TriggerTypeSensor, accident.TriggerType)
	assert.Empty(t, accident.ID)
	assert.True(t, accident.CreatedAt.IsZero())
}

func TestTerminalStatusesHaveNoExits(t *testing.T) {
	all := []AccidentStatus{AccidentStatusPending, AccidentStatusAmbulanceAssigned, AccidentStatusCompleted, AccidentStatusCancelled}
	for _, from := range all {
		if !from.IsTerminal() {
			continue
		}
		for _, to := range all {
			assert.False(t, from.CanTransitionTo(to), "%s -> %s", from, to)
		}
	}
}
