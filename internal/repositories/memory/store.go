// Package memory is an in-process record store used in tests and for local
// development without MongoDB. It honours the same conditional-update and
// one-active-assignment rules as the mongodb package.
package memory

import (
	"context"
	"sync"
	"time"

	"ambulance-dispatch/internal/models"
	"ambulance-dispatch/internal/repositories/interfaces"

	"github.com/google/uuid"
)

type Store struct {
	mu   sync.RWMutex
	txMu sync.Mutex

	accidents   map[string]*models.Accident
	assignments map[string]*models.Assignment
	hospitals   map[string]*models.Hospital
	drivers     map[string]*models.AmbulanceDriver
	users       map[string]*models.User

	now   func() time.Time
	newID func() string
}

func NewStore() *Store {
	return &Store{
		accidents:   make(map[string]*models.Accident),
		assignments: make(map[string]*models.Assignment),
		hospitals:   make(map[string]*models.Hospital),
		drivers:     make(map[string]*models.AmbulanceDriver),
		users:       make(map[string]*models.User),
		now:         func() time.Time { return time.Now().UTC() },
		newID:       uuid.NewString,
	}
}

// SetClock replaces the time source used for server timestamps.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *Store) Accidents() interfaces.AccidentRepository {
	return &accidentRepository{store: s}
}

func (s *Store) Assignments() interfaces.AssignmentRepository {
	return &assignmentRepository{store: s}
}

func (s *Store) Hospitals() interfaces.HospitalRepository {
	return &hospitalRepository{store: s}
}

func (s *Store) AmbulanceDrivers() interfaces.AmbulanceDriverRepository {
	return &ambulanceDriverRepository{store: s}
}

func (s *Store) Users() interfaces.UserRepository {
	return &userRepository{store: s}
}

func (s *Store) TransactionManager() interfaces.TransactionManager {
	return &transactionManager{store: s}
}

type snapshot struct {
	accidents   map[string]*models.Accident
	assignments map[string]*models.Assignment
}

func (s *Store) snapshot() snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := snapshot{
		accidents:   make(map[string]*models.Accident, len(s.accidents)),
		assignments: make(map[string]*models.Assignment, len(s.assignments)),
	}
	for id, a := range s.accidents {
		snap.accidents[id] = copyAccident(a)
	}
	for id, a := range s.assignments {
		snap.assignments[id] = copyAssignment(a)
	}
	return snap
}

func (s *Store) restore(snap snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accidents = snap.accidents
	s.assignments = snap.assignments
}

type txKey struct{}

func (s *Store) inTransaction(ctx context.Context) bool {
	owner, _ := ctx.Value(txKey{}).(*Store)
	return owner == s
}

// lockWrites holds txMu for a write made outside a transaction, so a
// rollback can never discard it. Writes inside a transaction already own it.
func (s *Store) lockWrites(ctx context.Context) func() {
	if s.inTransaction(ctx) {
		return func() {}
	}
	s.txMu.Lock()
	return s.txMu.Unlock
}

type transactionManager struct {
	store *Store
}

// WithTransaction serializes transactions and rolls back accident and
// assignment writes when fn fails. Writes outside a transaction wait for the
// running one to finish. Nested calls join the outer transaction.
func (t *transactionManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if t.store.inTransaction(ctx) {
		return fn(ctx)
	}

	t.store.txMu.Lock()
	defer t.store.txMu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	snap := t.store.snapshot()
	if err := fn(context.WithValue(ctx, txKey{}, t.store)); err != nil {
		t.store.restore(snap)
		return err
	}
	return nil
}

func copyAccident(a *models.Accident) *models.Accident {
	c := *a
	return &c
}

func copyAssignment(a *models.Assignment) *models.Assignment {
	c := *a
	if a.HospitalAcceptedAt != nil {
		t := *a.HospitalAcceptedAt
		c.HospitalAcceptedAt = &t
	}
	return &c
}
