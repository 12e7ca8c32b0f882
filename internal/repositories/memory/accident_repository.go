package memory

import (
	"context"
	"sort"

	"ambulance-dispatch/internal/models"
	"ambulance-dispatch/internal/repositories/interfaces"
)

type accidentRepository struct {
	store *Store
}

func (r *accidentRepository) Create(ctx context.Context, accident *models.Accident) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s := r.store
	defer s.lockWrites(ctx)()
	s.mu.Lock()
	defer s.mu.Unlock()

	ts := s.now()
	accident.ID = s.newID()
	accident.Timestamp = ts
	accident.CreatedAt = ts
	accident.UpdatedAt = ts

	s.accidents[accident.ID] = copyAccident(accident)
	return nil
}

func (r *accidentRepository) GetByID(ctx context.Context, id string) (*models.Accident, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.accidents[id]
	if !ok {
		return nil, interfaces.ErrNotFound
	}
	return copyAccident(a), nil
}

func (r *accidentRepository) GetByIDs(ctx context.Context, ids []string) ([]*models.Accident, error) {
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	return r.filter(ctx, func(a *models.Accident) bool { return want[a.ID] })
}

func (r *accidentRepository) UpdateStatus(ctx context.Context, id string, expected, status models.AccidentStatus, activeAssignmentID *string) (*models.Accident, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s := r.store
	defer s.lockWrites(ctx)()
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.accidents[id]
	if !ok {
		return nil, interfaces.ErrNotFound
	}
	if a.Status != expected {
		return nil, interfaces.ErrPreconditionFailed
	}

	a.Status = status
	if activeAssignmentID != nil {
		a.ActiveAssignmentID = *activeAssignmentID
	}
	a.UpdatedAt = s.now()

	return copyAccident(a), nil
}

func (r *accidentRepository) GetByVehicleDriver(ctx context.Context, vehicleDriverID string) ([]*models.Accident, error) {
	return r.filter(ctx, func(a *models.Accident) bool { return a.VehicleDriverID == vehicleDriverID })
}

func (r *accidentRepository) GetByStatus(ctx context.Context, status models.AccidentStatus) ([]*models.Accident, error) {
	return r.filter(ctx, func(a *models.Accident) bool { return a.Status == status })
}

// filter returns matching accidents newest first.
func (r *accidentRepository) filter(ctx context.Context, match func(*models.Accident) bool) ([]*models.Accident, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Accident, 0)
	for _, a := range s.accidents {
		if match(a) {
			out = append(out, copyAccident(a))
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].Timestamp.After(out[j].Timestamp)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}
