package validators

import (
	"strings"

	"ambulance-dispatch/internal/models"
	"ambulance-dispatch/internal/utils"
)

type LocationRequest struct {
	Latitude  *float64 `json:"latitude" validate:"required"`
	Longitude *float64 `json:"longitude" validate:"required"`
}

// Coordinate returns the zero coordinate for missing parts; callers
// validate first.
func (l *LocationRequest) Coordinate() models.Coordinate {
	var c models.Coordinate
	if l == nil {
		return c
	}
	if l.Latitude != nil {
		c.Latitude = *l.Latitude
	}
	if l.Longitude != nil {
		c.Longitude = *l.Longitude
	}
	return c
}

type ReportAccidentRequest struct {
	Location    *LocationRequest `json:"location" validate:"required"`
	TriggerType string           `json:"trigger_type" validate:"omitempty,trigger_type"`
}

type CancelAccidentRequest struct {
	Reason string `json:"reason" validate:"omitempty,max=255"`
}

type UpdateAssignmentStatusRequest struct {
	Status                  string `json:"status" validate:"required,assignment_status"`
	Reason                  string `json:"reason" validate:"omitempty,max=255"`
	TargetAmbulanceDriverID string `json:"target_ambulance_driver_id" validate:"omitempty,record_id"`
}

type NearbyHospitalsQuery struct {
	Latitude  *float64 `form:"lat" validate:"required"`
	Longitude *float64 `form:"lng" validate:"required"`
	RadiusKM  float64  `form:"radius_km" validate:"gte=0"`
	Limit     int      `form:"limit" validate:"gte=0"`
}

func ValidateReportAccident(req *ReportAccidentRequest) ValidationErrors {
	errs := ValidateStruct(req)
	if len(errs) == 0 && !req.Location.Coordinate().IsValid() {
		errs = append(errs, ValidationError{
			Field:   "location",
			Message: "location must be a valid latitude/longitude pair",
		})
	}
	return errs
}

func ValidateCancelAccident(req *CancelAccidentRequest) ValidationErrors {
	req.Reason = SanitizeInput(req.Reason)
	return ValidateStruct(req)
}

func ValidateUpdateAssignmentStatus(req *UpdateAssignmentStatusRequest) ValidationErrors {
	req.Reason = SanitizeInput(req.Reason)
	req.TargetAmbulanceDriverID = strings.TrimSpace(req.TargetAmbulanceDriverID)
	errs := ValidateStruct(req)

	status := models.AssignmentStatus(req.Status)
	if status.RequiresReason() && req.Reason == "" {
		errs = append(errs, ValidationError{
			Field:   "cancellation_reason",
			Tag:     "required",
			Message: "a reason is required to " + string(status) + " an assignment",
		})
	}
	if req.TargetAmbulanceDriverID != "" && status != models.AssignmentStatusReassigned {
		errs = append(errs, ValidationError{
			Field:   "target_ambulance_driver_id",
			Message: "target_ambulance_driver_id is only valid when reassigning",
		})
	}
	return errs
}

func ValidateNearbyHospitals(q *NearbyHospitalsQuery) ValidationErrors {
	errs := ValidateStruct(q)
	if len(errs) > 0 {
		return errs
	}
	origin := models.Coordinate{Latitude: *q.Latitude, Longitude: *q.Longitude}
	if !origin.IsValid() {
		errs = append(errs, ValidationError{Field: "location", Message: "lat/lng must be a valid coordinate"})
	}
	if q.RadiusKM > utils.MaxSearchRadiusKM {
		errs = append(errs, ValidationError{Field: "radius_km", Message: "radius_km is too large"})
	}
	if q.Limit > utils.MaxShortlistLimit {
		errs = append(errs, ValidationError{Field: "limit", Message: "limit is too large"})
	}
	return errs
}
