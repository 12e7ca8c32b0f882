package memory

import (
	"encoding/json"
	"fmt"
	"os"

	"ambulance-dispatch/internal/models"
)

// Seed is the document loaded by LoadSeedFile.
type Seed struct {
	Users            []*models.User            `json:"users"`
	Hospitals        []*models.Hospital        `json:"hospitals"`
	AmbulanceDrivers []*models.AmbulanceDriver `json:"ambulance_drivers"`
}

func (s *Store) SeedUser(u *models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *u
	if c.CreatedAt.IsZero() {
		c.CreatedAt = s.now()
	}
	s.users[c.ID] = &c
}

func (s *Store) SeedHospital(h *models.Hospital) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *h
	if c.CreatedAt.IsZero() {
		c.CreatedAt = s.now()
	}
	s.hospitals[c.ID] = &c
}

func (s *Store) SeedAmbulanceDriver(d *models.AmbulanceDriver) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *d
	if c.CreatedAt.IsZero() {
		c.CreatedAt = s.now()
	}
	s.drivers[c.UserID] = &c
}

func (s *Store) Apply(seed *Seed) {
	for _, u := range seed.Users {
		s.SeedUser(u)
	}
	for _, h := range seed.Hospitals {
		s.SeedHospital(h)
	}
	for _, d := range seed.AmbulanceDrivers {
		s.SeedAmbulanceDriver(d)
	}
}

func (s *Store) LoadSeedFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read seed file: %w", err)
	}

	var seed Seed
	if err := json.Unmarshal(data, &seed); err != nil {
		return fmt.Errorf("failed to parse seed file: %w", err)
	}

	for _, h := range seed.Hospitals {
		if !h.Location.IsValid() {
			return fmt.Errorf("hospital %s has invalid location %s", h.ID, h.Location)
		}
	}

	s.Apply(&seed)
	return nil
}
