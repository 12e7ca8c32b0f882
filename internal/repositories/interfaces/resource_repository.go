package interfaces

import (
	"context"

	"ambulance-dispatch/internal/models"
)

// Hospitals, ambulance drivers and users are owned outside the dispatch
// core, so these repositories are read-only.

type HospitalRepository interface {
	GetByID(ctx context.Context, id string) (*models.Hospital, error)
	GetByAdminUserID(ctx context.Context, adminUserID string) (*models.Hospital, error)
	// List returns the bounded candidate set used for nearest-hospital ranking.
	List(ctx context.Context) ([]*models.Hospital, error)
}

type AmbulanceDriverRepository interface {
	GetByUserID(ctx context.Context, userID string) (*models.AmbulanceDriver, error)
	GetByHospital(ctx context.Context, hospitalID string) ([]*models.AmbulanceDriver, error)
}

type UserRepository interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
}
