package interfaces

import (
	"context"

	"ambulance-dispatch/internal/models"
)

type AccidentRepository interface {
	// Create assigns ID, Timestamp, CreatedAt and UpdatedAt.
	Create(ctx context.Context, accident *models.Accident) error
	GetByID(ctx context.Context, id string) (*models.Accident, error)
	GetByIDs(ctx context.Context, ids []string) ([]*models.Accident, error)

	// UpdateStatus writes status only if the stored status is still expected,
	// returning the updated record or ErrPreconditionFailed. A nil
	// activeAssignmentID leaves the binding alone; an empty one clears it.
	UpdateStatus(ctx context.Context, id string, expected, status models.AccidentStatus, activeAssignmentID *string) (*models.Accident, error)

	GetByVehicleDriver(ctx context.Context, vehicleDriverID string) ([]*models.Accident, error)
	GetByStatus(ctx context.Context, status models.AccidentStatus) ([]*models.Accident, error)
}
