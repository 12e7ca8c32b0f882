package routes

import (
	"ambulance-dispatch/internal/handlers"
	"ambulance-dispatch/internal/middleware"
	"ambulance-dispatch/internal/models"
	"ambulance-dispatch/internal/services"

	"github.com/gin-gonic/gin"
)

// SetupDispatchRoutes sets up the accident, assignment and hospital routes
func SetupDispatchRoutes(r *gin.RouterGroup, h *handlers.DispatchHandler, identity services.IdentityService) {
	auth := middleware.AuthRequired(identity)

	// Public routes (no auth required)
	r.GET("/hospitals/nearby", h.GetNearbyHospitals)

	accidents := r.Group("/accidents")
	accidents.Use(auth)
	{
		accidents.GET("", h.ListAccidents)
		accidents.GET("/:id", h.GetAccident)

		// Vehicle driver
		accidents.POST("", middleware.VehicleDriverRequired(), h.ReportAccident)
		accidents.POST("/:id/cancel", middleware.VehicleDriverRequired(), h.CancelAccident)

		// Ambulance driver
		accidents.POST("/:id/accept", middleware.AmbulanceDriverRequired(), h.AcceptAccident)
	}

	assignments := r.Group("/assignments")
	assignments.Use(auth)
	{
		assignments.GET("", middleware.RoleRequired(models.RoleAmbulanceDriver, models.RoleHospitalAdmin), h.ListAssignments)
		assignments.PUT("/:id/status", middleware.AmbulanceDriverRequired(), h.UpdateAssignmentStatus)
		assignments.POST("/:id/hospital-accept", middleware.HospitalAdminRequired(), h.ConfirmHospitalIntake)
	}

	hospital := r.Group("/hospital")
	hospital.Use(auth, middleware.HospitalAdminRequired())
	{
		hospital.GET("/ambulance-drivers", h.ListHospitalAmbulanceDrivers)
	}
}

// SetupRealtimeRoutes mounts the websocket endpoint behind auth.
func SetupRealtimeRoutes(r gin.IRouter, path string, ws gin.HandlerFunc, identity services.IdentityService) {
	r.GET(path, middleware.AuthRequired(identity), ws)
}
