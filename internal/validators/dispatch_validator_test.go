package validators

import (
	"strings"
	"testing"

	"ambulance-dispatch/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(f float64) *float64 { return &f }

func TestValidateReportAccident(t *testing.T) {
	ok := &ReportAccidentRequest{
		Location:    &LocationRequest{Latitude: ptr(28.6139), Longitude: ptr(77.2090)},
		TriggerType: "manual",
	}
	assert.Empty(t, ValidateReportAccident(ok))

	equator := &ReportAccidentRequest{Location: &LocationRequest{Latitude: ptr(0), Longitude: ptr(0)}}
	assert.Empty(t, ValidateReportAccident(equator), "zero coordinates are a real place")

	errs := ValidateReportAccident(&ReportAccidentRequest{})
	require.Len(t, errs, 1)
	assert.Equal(t, "location", errs[0].Field)
	assert.Equal(t, "required", errs[0].Tag)

	errs = ValidateReportAccident(&ReportAccidentRequest{Location: &LocationRequest{Latitude: ptr(1)}})
	require.Len(t, errs, 1)
	assert.Equal(t, "location.longitude", errs[0].Field)

	errs = ValidateReportAccident(&ReportAccidentRequest{Location: &LocationRequest{Latitude: ptr(95), Longitude: ptr(0)}})
	require.Len(t, errs, 1)
	assert.Equal(t, "location", errs[0].Field)

	errs = ValidateReportAccident(&ReportAccidentRequest{
		Location:    &LocationRequest{Latitude: ptr(1), Longitude: ptr(1)},
		TriggerType: "psychic",
	})
	require.Len(t, errs, 1)
	assert.Equal(t, "trigger_type", errs[0].Field)

	appErr := errs.AppError()
	assert.ErrorIs(t, appErr, utils.ErrValidation)
	assert.Equal(t, "trigger_type", appErr.Field)
}

func TestValidateUpdateAssignmentStatus(t *testing.T) {
	assert.Empty(t, ValidateUpdateAssignmentStatus(&UpdateAssignmentStatusRequest{Status: "en_route"}))
	assert.Empty(t, ValidateUpdateAssignmentStatus(&UpdateAssignmentStatusRequest{Status: "cancelled", Reason: "vehicle breakdown"}))
	assert.Empty(t, ValidateUpdateAssignmentStatus(&UpdateAssignmentStatusRequest{
		Status: "reassigned", Reason: "flat tyre", TargetAmbulanceDriverID: "amb-2",
	}))

	errs := ValidateUpdateAssignmentStatus(&UpdateAssignmentStatusRequest{Status: "pending"})
	require.Len(t, errs, 1)
	assert.Equal(t, "status", errs[0].Field)

	errs = ValidateUpdateAssignmentStatus(&UpdateAssignmentStatusRequest{})
	require.NotEmpty(t, errs)
	assert.Equal(t, "status", errs[0].Field)

	req := &UpdateAssignmentStatusRequest{Status: "cancelled", Reason: " <b></b> "}
	errs = ValidateUpdateAssignmentStatus(req)
	require.Len(t, errs, 1)
	assert.Equal(t, "cancellation_reason", errs[0].Field)
	assert.Empty(t, req.Reason)

	errs = ValidateUpdateAssignmentStatus(&UpdateAssignmentStatusRequest{Status: "cancelled", Reason: strings.Repeat("r", 256)})
	require.Len(t, errs, 1)
	assert.Equal(t, "reason", errs[0].Field)
	assert.Contains(t, errs[0].Message, "at most 255 characters")

	errs = ValidateUpdateAssignmentStatus(&UpdateAssignmentStatusRequest{Status: "en_route", TargetAmbulanceDriverID: "amb-2"})
	require.Len(t, errs, 1)
	assert.Equal(t, "target_ambulance_driver_id", errs[0].Field)

	errs = ValidateUpdateAssignmentStatus(&UpdateAssignmentStatusRequest{
		Status: "reassigned", Reason: "x", TargetAmbulanceDriverID: "amb 2;drop",
	})
	require.Len(t, errs, 1)
	assert.Equal(t, "record_id", errs[0].Tag)
}

func TestValidateNearbyHospitals(t *testing.T) {
	assert.Empty(t, ValidateNearbyHospitals(&NearbyHospitalsQuery{Latitude: ptr(28.6), Longitude: ptr(77.2)}))

	errs := ValidateNearbyHospitals(&NearbyHospitalsQuery{Latitude: ptr(28.6)})
	require.Len(t, errs, 1)
	assert.Equal(t, "lng", errs[0].Field)

	errs = ValidateNearbyHospitals(&NearbyHospitalsQuery{Latitude: ptr(28.6), Longitude: ptr(77.2), RadiusKM: -1})
	require.Len(t, errs, 1)
	assert.Equal(t, "radius_km", errs[0].Field)

	errs = ValidateNearbyHospitals(&NearbyHospitalsQuery{Latitude: ptr(128.6), Longitude: ptr(77.2), RadiusKM: 900, Limit: 80})
	assert.Equal(t, map[string]string{
		"location":  "lat/lng must be a valid coordinate",
		"radius_km": "radius_km is too large",
		"limit":     "limit is too large",
	}, errs.Details())
}

func TestCancelAndHelpers(t *testing.T) {
	req := &CancelAccidentRequest{Reason: "  <script>x</script>false alarm "}
	assert.Empty(t, ValidateCancelAccident(req))
	assert.Equal(t, "xfalse alarm", req.Reason)

	assert.True(t, IsValidRecordID("65f1c2a9e4b0a1b2c3d4e5f6"))
	assert.True(t, IsValidRecordID("8b0e6f7c-3a7e-4a53-9f39-1b2c3d4e5f60"))
	assert.False(t, IsValidRecordID(""))
	assert.False(t, IsValidRecordID("../etc/passwd"))

	var none ValidationErrors
	assert.Nil(t, none.AppError())
	assert.Equal(t, "a: x; b: y", ValidationErrors{{Field: "a", Message: "x"}, {Field: "b", Message: "y"}}.Error())
}
