package handlers

import (
	"net/http"

	"ambulance-dispatch/internal/middleware"
	"ambulance-dispatch/internal/models"
	"ambulance-dispatch/internal/services"
	"ambulance-dispatch/internal/utils"
	"ambulance-dispatch/internal/validators"

	"github.com/gin-gonic/gin"
)

const IdempotencyKeyHeader = "Idempotency-Key"

type DispatchHandler struct {
	dispatchService services.DispatchService
}

func NewDispatchHandler(dispatchService services.DispatchService) *DispatchHandler {
	return &DispatchHandler{
		dispatchService: dispatchService,
	}
}

// ReportAccident files a new accident for the calling vehicle driver
func (h *DispatchHandler) ReportAccident(c *gin.Context) {
	var request validators.ReportAccidentRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}
	if errs := validators.ValidateReportAccident(&request); len(errs) > 0 {
		utils.ValidationErrorResponse(c, errs.Details())
		return
	}

	result, err := h.dispatchService.ReportAccident(c.Request.Context(), middleware.CurrentActor(c), &services.ReportAccidentRequest{
		Location:       request.Location.Coordinate(),
		TriggerType:    models.TriggerType(request.TriggerType),
		IdempotencyKey: c.GetHeader(IdempotencyKeyHeader),
	})
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	if result.Replayed {
		utils.SuccessResponse(c, "Accident already reported", result)
		return
	}
	utils.CreatedResponse(c, "Accident reported successfully", result)
}

func (h *DispatchHandler) ListAccidents(c *gin.Context) {
	accidents, err := h.dispatchService.ListAccidents(c.Request.Context(), middleware.CurrentActor(c))
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponseWithMeta(c, "Accidents retrieved successfully", gin.H{
		"accidents": accidents,
	}, &utils.Meta{Count: len(accidents)})
}

func (h *DispatchHandler) GetAccident(c *gin.Context) {
	accidentID, ok := recordID(c, "id")
	if !ok {
		return
	}

	view, err := h.dispatchService.GetAccident(c.Request.Context(), middleware.CurrentActor(c), accidentID)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, "Accident retrieved successfully", view)
}

// CancelAccident withdraws the caller's own report. The body is optional.
func (h *DispatchHandler) CancelAccident(c *gin.Context) {
	accidentID, ok := recordID(c, "id")
	if !ok {
		return
	}

	var request validators.CancelAccidentRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&request); err != nil {
			utils.BadRequestResponse(c, "Invalid request: "+err.Error())
			return
		}
	}
	if errs := validators.ValidateCancelAccident(&request); len(errs) > 0 {
		utils.ValidationErrorResponse(c, errs.Details())
		return
	}

	accident, err := h.dispatchService.CancelAccident(c.Request.Context(), middleware.CurrentActor(c), accidentID, request.Reason)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, "Accident cancelled successfully", accident)
}

// AcceptAccident claims a pending accident for the calling ambulance driver
func (h *DispatchHandler) AcceptAccident(c *gin.Context) {
	accidentID, ok := recordID(c, "id")
	if !ok {
		return
	}

	result, err := h.dispatchService.AcceptAccident(c.Request.Context(), middleware.CurrentActor(c), accidentID, c.GetHeader(IdempotencyKeyHeader))
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	if result.Replayed {
		utils.SuccessResponse(c, "Accident already accepted", result)
		return
	}
	utils.CreatedResponse(c, "Accident accepted successfully", result)
}

func (h *DispatchHandler) ListAssignments(c *gin.Context) {
	assignments, err := h.dispatchService.ListAssignments(c.Request.Context(), middleware.CurrentActor(c))
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponseWithMeta(c, "Assignments retrieved successfully", gin.H{
		"assignments": assignments,
	}, &utils.Meta{Count: len(assignments)})
}

func (h *DispatchHandler) UpdateAssignmentStatus(c *gin.Context) {
	assignmentID, ok := recordID(c, "id")
	if !ok {
		return
	}

	var request validators.UpdateAssignmentStatusRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}
	if errs := validators.ValidateUpdateAssignmentStatus(&request); len(errs) > 0 {
		utils.ValidationErrorResponse(c, errs.Details())
		return
	}

	result, err := h.dispatchService.UpdateAssignmentStatus(c.Request.Context(), middleware.CurrentActor(c), assignmentID, &services.UpdateAssignmentStatusRequest{
		Status:                  models.AssignmentStatus(request.Status),
		Reason:                  request.Reason,
		TargetAmbulanceDriverID: request.TargetAmbulanceDriverID,
	})
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, "Assignment updated successfully", result)
}

func (h *DispatchHandler) ConfirmHospitalIntake(c *gin.Context) {
	assignmentID, ok := recordID(c, "id")
	if !ok {
		return
	}

	assignment, err := h.dispatchService.ConfirmHospitalIntake(c.Request.Context(), middleware.CurrentActor(c), assignmentID)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, "Hospital intake confirmed", assignment)
}

func (h *DispatchHandler) ListHospitalAmbulanceDrivers(c *gin.Context) {
	drivers, err := h.dispatchService.ListHospitalAmbulanceDrivers(c.Request.Context(), middleware.CurrentActor(c))
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponseWithMeta(c, "Ambulance drivers retrieved successfully", gin.H{
		"ambulance_drivers": drivers,
	}, &utils.Meta{Count: len(drivers)})
}

// GetNearbyHospitals is public so the reporting screen can show options
// before the driver signs in.
func (h *DispatchHandler) GetNearbyHospitals(c *gin.Context) {
	var query validators.NearbyHospitalsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		utils.BadRequestResponse(c, "Invalid query: "+err.Error())
		return
	}
	if errs := validators.ValidateNearbyHospitals(&query); len(errs) > 0 {
		utils.ValidationErrorResponse(c, errs.Details())
		return
	}

	origin := models.Coordinate{Latitude: *query.Latitude, Longitude: *query.Longitude}
	hospitals, err := h.dispatchService.GetNearbyHospitals(c.Request.Context(), origin, query.RadiusKM, query.Limit)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponseWithMeta(c, "Nearby hospitals retrieved successfully", gin.H{
		"hospitals": hospitals,
	}, &utils.Meta{Count: len(hospitals)})
}

func recordID(c *gin.Context, param string) (string, bool) {
	id := c.Param(param)
	if !validators.IsValidRecordID(id) {
		utils.ErrorResponseWithDetails(c, http.StatusBadRequest, string(utils.KindValidation), "Invalid ID", map[string]string{
			"field": param,
		})
		return "", false
	}
	return id, true
}
