package utils

import "time"

// Application Constants
const (
	AppName    = "AmbulanceDispatch"
	AppVersion = "1.0.0"

	// Dispatch
	DefaultHospitalRadiusKM = 50.0
	MaxSearchRadiusKM       = 500.0
	DefaultShortlistLimit   = 5
	MaxShortlistLimit       = 50
	MaxCancellationReason   = 255
	DefaultIdempotencyTTL   = 24 * time.Hour
	NotificationTimeout     = 5 * time.Second
	HospitalCacheTTL        = 5 * time.Minute
)

// HTTP Status Messages
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Error Messages
const (
	MsgInvalidToken     = "invalid token"
	MsgInternalServer   = "internal server error"
	MsgUnauthorized     = "unauthorized"
	MsgValidationFailed = "validation failed"
	MsgAlreadyTaken     = "already taken"
	MsgServiceDegraded  = "service temporarily unavailable, retry later"
)

// Cache Keys
const (
	CacheHospitalsKey     = "hospitals:all"
	CacheIdempotencyScope = "idempotency:"
)

// Geographic Constants
const (
	EarthRadiusKM = 6371.0
)
