package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateDistance(t *testing.T) {
	tests := []struct {
		name                   string
		lat1, lon1, lat2, lon2 float64
		want                   float64
		delta                  float64
	}{
		{"same point", 28.6139, 77.2090, 28.6139, 77.2090, 0, 1e-9},
		{"delhi to mumbai", 28.6139, 77.2090, 19.0760, 72.8777, 1148.09, 0.5},
		{"short hop", 28.6139, 77.2090, 28.62, 77.21, 0.685, 0.01},
		{"antipodal", 0, 0, 0, 180, 20015.09, 0.5},
		{"across the antimeridian", 0, 179.5, 0, -179.5, 111.19, 0.5},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := CalculateDistance(tc.lat1, tc.lon1, tc.lat2, tc.lon2)
			assert.InDelta(t, tc.want, got, tc.delta)
			assert.InDelta(t, got, CalculateDistance(tc.lat2, tc.lon2, tc.lat1, tc.lon1), 1e-9)
		})
	}

	assert.False(t, IsValidCoordinates(91, 0))
	assert.False(t, IsValidCoordinates(0, -180.5))
	assert.True(t, IsValidCoordinates(-90, 180))
}

func TestAppErrorMatching(t *testing.T) {
	cause := errors.New("connection refused")
	err := fmt.Errorf("report: %w", NewDependencyError("store unavailable", cause))

	assert.ErrorIs(t, err, ErrDependency)
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, ErrConflict)

	appErr, ok := AsAppError(err)
	require.True(t, ok)
	assert.True(t, appErr.Retryable())
	assert.Equal(t, "store unavailable: connection refused", appErr.Error())

	transition := NewInvalidTransitionError("accident", "completed", "pending")
	assert.Equal(t, "completed", transition.Current)
	assert.Equal(t, "pending", transition.Requested)
	assert.False(t, transition.Retryable())

	_, ok = AsAppError(errors.New("plain"))
	assert.False(t, ok)
}

func TestHandleError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name    string
		err     error
		status  int
		code    string
		message string
		details map[string]string
	}{
		{"auth", NewAuthError(MsgInvalidToken, nil), http.StatusUnauthorized, "AUTH_ERROR", MsgInvalidToken, nil},
		{"unauthorized", NewUnauthorizedError("not yours"), http.StatusForbidden, "UNAUTHORIZED", "not yours", nil},
		{"validation", NewValidationError("location", "bad"), http.StatusBadRequest, "VALIDATION_ERROR", "bad", map[string]string{"field": "location"}},
		{"not found", NewNotFoundError("accident", "a1"), http.StatusNotFound, "NOT_FOUND", "accident a1 not found", nil},
		{"transition", NewInvalidTransitionError("assignment", "completed", "en_route"), http.StatusUnprocessableEntity, "INVALID_STATE_TRANSITION",
			"assignment cannot move from completed to en_route", map[string]string{"current": "completed", "requested": "en_route"}},
		{"conflict", NewConflictError("accident already taken", nil), http.StatusConflict, "CONFLICT", "accident already taken", nil},
		{"dependency", NewDependencyError("mongo down", errors.New("dial tcp")), http.StatusServiceUnavailable, "DEPENDENCY_ERROR", MsgServiceDegraded, nil},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, "INTERNAL_ERROR", MsgInternalServer, nil},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			HandleError(c, tc.err)

			assert.Equal(t, tc.status, w.Code)
			var body APIResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, StatusError, body.Status)
			require.NotNil(t, body.Error)
			assert.Equal(t, tc.code, body.Error.Code)
			assert.Equal(t, tc.message, body.Error.Message)
			assert.Equal(t, tc.details, body.Error.Details)
			assert.Equal(t, tc.status == http.StatusServiceUnavailable, body.Error.Retryable)
		})
	}
}
