package memory

import (
	"context"
	"sort"

	"ambulance-dispatch/internal/models"
	"ambulance-dispatch/internal/repositories/interfaces"
)

type assignmentRepository struct {
	store *Store
}

func (r *assignmentRepository) Create(ctx context.Context, assignment *models.Assignment) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s := r.store
	defer s.lockWrites(ctx)()
	s.mu.Lock()
	defer s.mu.Unlock()

	active := assignment.Status.IsActive()
	if active {
		for _, existing := range s.assignments {
			if existing.AccidentID == assignment.AccidentID && existing.Active {
				return interfaces.ErrDuplicate
			}
		}
	}

	ts := s.now()
	assignment.ID = s.newID()
	assignment.AcceptedAt = ts
	assignment.CreatedAt = ts
	assignment.UpdatedAt = ts
	assignment.Active = active

	s.assignments[assignment.ID] = copyAssignment(assignment)
	return nil
}

func (r *assignmentRepository) GetByID(ctx context.Context, id string) (*models.Assignment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.assignments[id]
	if !ok {
		return nil, interfaces.ErrNotFound
	}
	return copyAssignment(a), nil
}

func (r *assignmentRepository) Update(ctx context.Context, id string, expected models.AssignmentStatus, update interfaces.AssignmentUpdate, requireNoHospitalAck bool) (*models.Assignment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s := r.store
	defer s.lockWrites(ctx)()
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.assignments[id]
	if !ok {
		return nil, interfaces.ErrNotFound
	}
	if a.Status != expected || (requireNoHospitalAck && a.HospitalAcceptedAt != nil) {
		return nil, interfaces.ErrPreconditionFailed
	}

	if update.Status != nil {
		a.Status = *update.Status
		a.Active = a.Status.IsActive()
	}
	if update.CancellationReason != nil {
		a.CancellationReason = *update.CancellationReason
	}
	if update.HospitalAcceptedAt != nil {
		t := *update.HospitalAcceptedAt
		a.HospitalAcceptedAt = &t
	}
	a.UpdatedAt = s.now()

	return copyAssignment(a), nil
}

func (r *assignmentRepository) GetActiveByAccident(ctx context.Context, accidentID string) (*models.Assignment, error) {
	found, err := r.filter(ctx, func(a *models.Assignment) bool {
		return a.AccidentID == accidentID && a.Active
	}, true)
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, interfaces.ErrNotFound
	}
	return found[0], nil
}

func (r *assignmentRepository) GetByAccident(ctx context.Context, accidentID string) ([]*models.Assignment, error) {
	return r.filter(ctx, func(a *models.Assignment) bool { return a.AccidentID == accidentID }, true)
}

func (r *assignmentRepository) GetByAmbulanceDriver(ctx context.Context, ambulanceDriverID string) ([]*models.Assignment, error) {
	return r.filter(ctx, func(a *models.Assignment) bool { return a.AmbulanceDriverID == ambulanceDriverID }, false)
}

func (r *assignmentRepository) GetActiveByAmbulanceDriver(ctx context.Context, ambulanceDriverID string) ([]*models.Assignment, error) {
	return r.filter(ctx, func(a *models.Assignment) bool {
		return a.AmbulanceDriverID == ambulanceDriverID && a.Active
	}, false)
}

func (r *assignmentRepository) GetByHospital(ctx context.Context, hospitalID string) ([]*models.Assignment, error) {
	return r.filter(ctx, func(a *models.Assignment) bool { return a.HospitalID == hospitalID }, false)
}

func (r *assignmentRepository) filter(ctx context.Context, match func(*models.Assignment) bool, oldestFirst bool) ([]*models.Assignment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Assignment, 0)
	for _, a := range s.assignments {
		if match(a) {
			out = append(out, copyAssignment(a))
		}
	}

	sort.Slice(out, func(i, j int) bool {
		ai, aj := out[i].AcceptedAt, out[j].AcceptedAt
		if !ai.Equal(aj) {
			if oldestFirst {
				return ai.Before(aj)
			}
			return ai.After(aj)
		}
		// same instant: a successor always has the higher reassignment count
		if out[i].ReassignmentCount != out[j].ReassignmentCount {
			if oldestFirst {
				return out[i].ReassignmentCount < out[j].ReassignmentCount
			}
			return out[i].ReassignmentCount > out[j].ReassignmentCount
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}
