package interfaces

import (
	"context"
	"time"

	"ambulance-dispatch/internal/models"
)

// AssignmentUpdate is the patch applied by a conditional assignment update.
// Nil fields are left untouched.
type AssignmentUpdate struct {
	Status             *models.AssignmentStatus
	CancellationReason *string
	HospitalAcceptedAt *time.Time
}

type AssignmentRepository interface {
	// Create assigns ID, AcceptedAt, CreatedAt and UpdatedAt. It fails with
	// ErrDuplicate when the accident already has an active assignment.
	Create(ctx context.Context, assignment *models.Assignment) error
	GetByID(ctx context.Context, id string) (*models.Assignment, error)

	// Update applies the patch only while the stored status equals expected
	// (and, when requireNoHospitalAck is set, hospital_accepted_at is unset).
	Update(ctx context.Context, id string, expected models.AssignmentStatus, update AssignmentUpdate, requireNoHospitalAck bool) (*models.Assignment, error)

	GetActiveByAccident(ctx context.Context, accidentID string) (*models.Assignment, error)
	GetByAccident(ctx context.Context, accidentID string) ([]*models.Assignment, error)
	GetByAmbulanceDriver(ctx context.Context, ambulanceDriverID string) ([]*models.Assignment, error)
	GetActiveByAmbulanceDriver(ctx context.Context, ambulanceDriverID string) ([]*models.Assignment, error)
	GetByHospital(ctx context.Context, hospitalID string) ([]*models.Assignment, error)
}
