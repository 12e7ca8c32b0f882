package mongodb

import (
	"testing"
	"time"

	"ambulance-dispatch/internal/models"
	"ambulance-dispatch/internal/repositories/interfaces"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func TestAccidentStatusUpdate_StampsUpdatedAtFromClock(t *testing.T) {
	assignmentID := "as-1"
	doc := accidentStatusUpdate(models.AccidentStatusAmbulanceAssigned, &assignmentID, fixedNow)

	require.NotContains(t, doc, "$currentDate")
	set, ok := doc["$set"].(bson.M)
	require.True(t, ok)
	assert.Equal(t, fixedNow, set["updated_at"])
	assert.Equal(t, models.AccidentStatusAmbulanceAssigned, set["status"])
	assert.Equal(t, "as-1", set["active_assignment_id"])
	assert.NotContains(t, doc, "$unset")

	cleared := ""
	doc = accidentStatusUpdate(models.AccidentStatusPending, &cleared, fixedNow)
	assert.Equal(t, bson.M{"active_assignment_id": ""}, doc["$unset"])
	assert.NotContains(t, doc["$set"], "active_assignment_id")
}

func TestAssignmentUpdateDoc_StampsUpdatedAtFromClock(t *testing.T) {
	ack := fixedNow.Add(-time.Minute)
	doc := assignmentUpdateDoc(interfaces.AssignmentUpdate{HospitalAcceptedAt: &ack}, fixedNow)

	require.NotContains(t, doc, "$currentDate")
	assert.Equal(t, bson.M{"updated_at": fixedNow, "hospital_accepted_at": ack}, doc["$set"])

	status := models.AssignmentStatusCancelled
	reason := "vehicle breakdown"
	doc = assignmentUpdateDoc(interfaces.AssignmentUpdate{Status: &status, CancellationReason: &reason}, fixedNow)
	assert.Equal(t, bson.M{
		"updated_at":          fixedNow,
		"status":              status,
		"active":              false,
		"cancellation_reason": reason,
	}, doc["$set"])
}
