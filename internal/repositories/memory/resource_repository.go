package memory

import (
	"context"
	"sort"

	"ambulance-dispatch/internal/models"
	"ambulance-dispatch/internal/repositories/interfaces"
)

type hospitalRepository struct {
	store *Store
}

func (r *hospitalRepository) GetByID(ctx context.Context, id string) (*models.Hospital, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	h, ok := s.hospitals[id]
	if !ok {
		return nil, interfaces.ErrNotFound
	}
	c := *h
	return &c, nil
}

func (r *hospitalRepository) GetByAdminUserID(ctx context.Context, adminUserID string) (*models.Hospital, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, h := range s.hospitals {
		if h.AdminUserID != "" && h.AdminUserID == adminUserID {
			c := *h
			return &c, nil
		}
	}
	return nil, interfaces.ErrNotFound
}

func (r *hospitalRepository) List(ctx context.Context) ([]*models.Hospital, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Hospital, 0, len(s.hospitals))
	for _, h := range s.hospitals {
		c := *h
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type ambulanceDriverRepository struct {
	store *Store
}

func (r *ambulanceDriverRepository) GetByUserID(ctx context.Context, userID string) (*models.AmbulanceDriver, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.drivers[userID]
	if !ok {
		return nil, interfaces.ErrNotFound
	}
	c := *d
	return &c, nil
}

func (r *ambulanceDriverRepository) GetByHospital(ctx context.Context, hospitalID string) ([]*models.AmbulanceDriver, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.AmbulanceDriver, 0)
	for _, d := range s.drivers {
		if d.HospitalID == hospitalID {
			c := *d
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].UserID < out[j].UserID
	})
	return out, nil
}

type userRepository struct {
	store *Store
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, interfaces.ErrNotFound
	}
	c := *u
	return &c, nil
}
