package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"ambulance-dispatch/internal/models"
	"ambulance-dispatch/internal/repositories/interfaces"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newReportedAccident(t *testing.T, s *Store) *models.Accident {
	t.Helper()
	a := models.NewAccident("vd-1", models.Coordinate{Latitude: 28.6, Longitude: 77.2}, models.TriggerTypeManual)
	require.NoError(t, s.Accidents().Create(context.Background(), a))
	return a
}

func TestAccidentCreateAssignsServerFields(t *testing.T) {
	s := NewStore()
	fixed := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	s.SetClock(func() time.Time { return fixed })

	a := newReportedAccident(t, s)
	assert.NotEmpty(t, a.ID)
	assert.Equal(t, fixed, a.Timestamp)

	got, err := s.Accidents().GetByID(context.Background(), a.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AccidentStatusPending, got.Status)

	// returned records are copies
	got.Status = models.AccidentStatusCancelled
	again, err := s.Accidents().GetByID(context.Background(), a.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AccidentStatusPending, again.Status)
}

func TestAccidentUpdateStatusPrecondition(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	a := newReportedAccident(t, s)
	repo := s.Accidents()

	bind := "as-1"
	updated, err := repo.UpdateStatus(ctx, a.ID, models.AccidentStatusPending, models.AccidentStatusAmbulanceAssigned, &bind)
	require.NoError(t, err)
	assert.Equal(t, models.AccidentStatusAmbulanceAssigned, updated.Status)
	assert.Equal(t, "as-1", updated.ActiveAssignmentID)

	_, err = repo.UpdateStatus(ctx, a.ID, models.AccidentStatusPending, models.AccidentStatusCancelled, nil)
	assert.ErrorIs(t, err, interfaces.ErrPreconditionFailed)

	clear := ""
	updated, err = repo.UpdateStatus(ctx, a.ID, models.AccidentStatusAmbulanceAssigned, models.AccidentStatusPending, &clear)
	require.NoError(t, err)
	assert.Empty(t, updated.ActiveAssignmentID)

	_, err = repo.UpdateStatus(ctx, "missing", models.AccidentStatusPending, models.AccidentStatusCancelled, nil)
	assert.ErrorIs(t, err, interfaces.ErrNotFound)
}

func TestAccidentListingsNewestFirst(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	tick := 0
	s.SetClock(func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	})

	first := newReportedAccident(t, s)
	second := newReportedAccident(t, s)

	list, err := s.Accidents().GetByVehicleDriver(ctx, "vd-1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)
	assert.Equal(t, first.ID, list[1].ID)

	byIDs, err := s.Accidents().GetByIDs(ctx, []string{first.ID, "nope"})
	require.NoError(t, err)
	require.Len(t, byIDs, 1)

	none, err := s.Accidents().GetByVehicleDriver(ctx, "vd-2")
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestAssignmentOneActivePerAccident(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	repo := s.Assignments()

	first := models.NewAssignment("acc-1", "amb-1", "")
	require.NoError(t, repo.Create(ctx, first))

	second := models.NewAssignment("acc-1", "amb-2", "")
	assert.ErrorIs(t, repo.Create(ctx, second), interfaces.ErrDuplicate)

	other := models.NewAssignment("acc-2", "amb-2", "")
	require.NoError(t, repo.Create(ctx, other))

	cancelled := models.AssignmentStatusCancelled
	reason := "flat tyre"
	_, err := repo.Update(ctx, first.ID, models.AssignmentStatusPending, interfaces.AssignmentUpdate{
		Status:             &cancelled,
		CancellationReason: &reason,
	}, false)
	require.NoError(t, err)

	_, err = repo.GetActiveByAccident(ctx, "acc-1")
	assert.ErrorIs(t, err, interfaces.ErrNotFound)

	require.NoError(t, repo.Create(ctx, models.NewAssignment("acc-1", "amb-3", "")))
	active, err := repo.GetActiveByAccident(ctx, "acc-1")
	require.NoError(t, err)
	assert.Equal(t, "amb-3", active.AmbulanceDriverID)
}

func TestAssignmentUpdateHospitalAckGuard(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	repo := s.Assignments()

	a := models.NewAssignment("acc-1", "amb-1", "h-1")
	require.NoError(t, repo.Create(ctx, a))

	now := time.Now()
	_, err := repo.Update(ctx, a.ID, models.AssignmentStatusPending, interfaces.AssignmentUpdate{HospitalAcceptedAt: &now}, true)
	require.NoError(t, err)

	later := now.Add(time.Minute)
	_, err = repo.Update(ctx, a.ID, models.AssignmentStatusPending, interfaces.AssignmentUpdate{HospitalAcceptedAt: &later}, true)
	assert.ErrorIs(t, err, interfaces.ErrPreconditionFailed)

	got, err := repo.GetByID(ctx, a.ID)
	require.NoError(t, err)
	require.NotNil(t, got.HospitalAcceptedAt)
	assert.True(t, got.HospitalAcceptedAt.Equal(now))
}

func TestTransactionRollsBack(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	a := newReportedAccident(t, s)
	boom := errors.New("boom")

	err := s.TransactionManager().WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.Assignments().Create(ctx, models.NewAssignment(a.ID, "amb-1", "")); err != nil {
			return err
		}
		if _, err := s.Accidents().UpdateStatus(ctx, a.ID, models.AccidentStatusPending, models.AccidentStatusAmbulanceAssigned, nil); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := s.Accidents().GetByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AccidentStatusPending, got.Status)

	list, err := s.Assignments().GetByAccident(ctx, a.ID)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestRollbackKeepsWritesMadeOutsideTheTransaction(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	a := newReportedAccident(t, s)
	boom := errors.New("boom")

	reported := models.NewAccident("vd-2", models.Coordinate{Latitude: 19.07, Longitude: 72.87}, models.TriggerTypeSensor)
	done := make(chan error, 1)

	err := s.TransactionManager().WithTransaction(ctx, func(txCtx context.Context) error {
		go func() { done <- s.Accidents().Create(ctx, reported) }()

		// the outside write must wait for this transaction to finish
		select {
		case err := <-done:
			done <- err
		case <-time.After(50 * time.Millisecond):
		}

		if _, err := s.Accidents().UpdateStatus(txCtx, a.ID, models.AccidentStatusPending, models.AccidentStatusAmbulanceAssigned, nil); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("write outside the transaction never completed")
	}

	got, err := s.Accidents().GetByID(ctx, reported.ID)
	require.NoError(t, err)
	assert.Equal(t, "vd-2", got.VehicleDriverID)

	rolledBack, err := s.Accidents().GetByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AccidentStatusPending, rolledBack.Status)
}

func TestNestedTransactionJoinsOuter(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	a := newReportedAccident(t, s)
	tx := s.TransactionManager()
	boom := errors.New("boom")

	err := tx.WithTransaction(ctx, func(outer context.Context) error {
		require.NoError(t, tx.WithTransaction(outer, func(inner context.Context) error {
			_, err := s.Accidents().UpdateStatus(inner, a.ID, models.AccidentStatusPending, models.AccidentStatusCancelled, nil)
			return err
		}))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := s.Accidents().GetByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AccidentStatusPending, got.Status)
}

func TestConcurrentCreatesKeepOneActive(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	repo := s.Assignments()

	var wg sync.WaitGroup
	var mu sync.Mutex
	wins := 0
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			err := repo.Create(ctx, models.NewAssignment("acc-1", fmt.Sprintf("amb-%d", i), ""))
			if err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, wins)
}

func TestResourcesAndSeed(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	s.Apply(&Seed{
		Users: []*models.User{{ID: "u-admin", Role: models.RoleHospitalAdmin}},
		Hospitals: []*models.Hospital{{
			ID: "h-1", Name: "City", AdminUserID: "u-admin",
			Location: models.Coordinate{Latitude: 28.6, Longitude: 77.2},
		}},
		AmbulanceDrivers: []*models.AmbulanceDriver{
			{UserID: "amb-2", Name: "Zed", HospitalID: "h-1"},
			{UserID: "amb-1", Name: "Ann", HospitalID: "h-1"},
			{UserID: "amb-3", Name: "Bob"},
		},
	})

	h, err := s.Hospitals().GetByAdminUserID(ctx, "u-admin")
	require.NoError(t, err)
	assert.Equal(t, "h-1", h.ID)

	_, err = s.Hospitals().GetByAdminUserID(ctx, "")
	assert.ErrorIs(t, err, interfaces.ErrNotFound)

	drivers, err := s.AmbulanceDrivers().GetByHospital(ctx, "h-1")
	require.NoError(t, err)
	require.Len(t, drivers, 2)
	assert.Equal(t, "Ann", drivers[0].Name)

	u, err := s.Users().GetByID(ctx, "u-admin")
	require.NoError(t, err)
	assert.Equal(t, models.RoleHospitalAdmin, u.Role)
}

func TestIdempotencyStore(t *testing.T) {
	ctx := context.Background()
	s := NewIdempotencyStore()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	id, reserved, err := s.Reserve(ctx, "k", time.Hour)
	require.NoError(t, err)
	assert.True(t, reserved)
	assert.Empty(t, id)

	_, reserved, err = s.Reserve(ctx, "k", time.Hour)
	require.NoError(t, err)
	assert.False(t, reserved)

	require.NoError(t, s.Complete(ctx, "k", "rec-1", time.Hour))
	id, reserved, err = s.Reserve(ctx, "k", time.Hour)
	require.NoError(t, err)
	assert.False(t, reserved)
	assert.Equal(t, "rec-1", id)

	now = now.Add(2 * time.Hour)
	_, reserved, err = s.Reserve(ctx, "k", time.Hour)
	require.NoError(t, err)
	assert.True(t, reserved)

	require.NoError(t, s.Release(ctx, "k"))
	_, reserved, err = s.Reserve(ctx, "k", time.Hour)
	require.NoError(t, err)
	assert.True(t, reserved)
}
