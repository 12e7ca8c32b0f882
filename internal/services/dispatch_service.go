package services

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"ambulance-dispatch/internal/config"
	"ambulance-dispatch/internal/models"
	"ambulance-dispatch/internal/repositories/interfaces"
	"ambulance-dispatch/internal/utils"
	"ambulance-dispatch/pkg/logger"
)

type DispatchService interface {
	// Vehicle driver
	ReportAccident(ctx context.Context, actor *models.Actor, request *ReportAccidentRequest) (*ReportAccidentResult, error)
	CancelAccident(ctx context.Context, actor *models.Actor, accidentID, reason string) (*models.Accident, error)

	// Role-scoped views
	GetAccident(ctx context.Context, actor *models.Actor, accidentID string) (*AccidentView, error)
	ListAccidents(ctx context.Context, actor *models.Actor) ([]*models.Accident, error)
	ListAssignments(ctx context.Context, actor *models.Actor) ([]*models.Assignment, error)

	// Ambulance driver
	AcceptAccident(ctx context.Context, actor *models.Actor, accidentID, idempotencyKey string) (*AcceptAccidentResult, error)
	UpdateAssignmentStatus(ctx context.Context, actor *models.Actor, assignmentID string, request *UpdateAssignmentStatusRequest) (*AssignmentUpdateResult, error)

	// Hospital admin
	ConfirmHospitalIntake(ctx context.Context, actor *models.Actor, assignmentID string) (*models.Assignment, error)
	ListHospitalAmbulanceDrivers(ctx context.Context, actor *models.Actor) ([]*models.AmbulanceDriver, error)

	// Public
	GetNearbyHospitals(ctx context.Context, origin models.Coordinate, radiusKM float64, limit int) ([]*NearbyHospital, error)
}

type ReportAccidentRequest struct {
	Location       models.Coordinate  `json:"location"`
	TriggerType    models.TriggerType `json:"trigger_type"`
	IdempotencyKey string             `json:"-"`
}

type ReportAccidentResult struct {
	Accident        *models.Accident  `json:"accident"`
	NearbyHospitals []*NearbyHospital `json:"nearby_hospitals"`
	Replayed        bool              `json:"replayed,omitempty"`
}

type NearbyHospital struct {
	Hospital   *models.Hospital `json:"hospital"`
	DistanceKM float64          `json:"distance_km"`
}

type AccidentView struct {
	Accident    *models.Accident     `json:"accident"`
	Assignments []*models.Assignment `json:"assignments"`
}

type AcceptAccidentResult struct {
	Accident   *models.Accident   `json:"accident"`
	Assignment *models.Assignment `json:"assignment"`
	Replayed   bool               `json:"replayed,omitempty"`
}

type UpdateAssignmentStatusRequest struct {
	Status models.AssignmentStatus `json:"status"`
	Reason string                  `json:"reason,omitempty"`
	// TargetAmbulanceDriverID picks the successor driver on reassign. When
	// empty a free driver affiliated with the routed hospital is chosen.
	TargetAmbulanceDriverID string `json:"target_ambulance_driver_id,omitempty"`
}

type AssignmentUpdateResult struct {
	Assignment *models.Assignment `json:"assignment"`
	Accident   *models.Accident   `json:"accident"`
	// Successor is set only when the assignment was reassigned.
	Successor *models.Assignment `json:"successor,omitempty"`
}

const defaultReporterCancelReason = "cancelled by reporter"

type DispatchDependencies struct {
	Accidents        interfaces.AccidentRepository
	Assignments      interfaces.AssignmentRepository
	Hospitals        interfaces.HospitalRepository
	AmbulanceDrivers interfaces.AmbulanceDriverRepository
	Transactions     interfaces.TransactionManager
	Idempotency      IdempotencyService
	Notifier         NotificationSink
}

type dispatchService struct {
	accidentRepo   interfaces.AccidentRepository
	assignmentRepo interfaces.AssignmentRepository
	hospitalRepo   interfaces.HospitalRepository
	driverRepo     interfaces.AmbulanceDriverRepository
	tx             interfaces.TransactionManager
	idempotency    IdempotencyService
	notifier       NotificationSink
	config         *config.DispatchConfig
	logger         *logger.Logger
	now            func() time.Time
}

func NewDispatchService(deps DispatchDependencies, cfg *config.DispatchConfig, log *logger.Logger) DispatchService {
	if cfg == nil {
		cfg = config.DefaultDispatchConfig()
	}
	if log == nil {
		log = logger.Default()
	}
	idem := deps.Idempotency
	if idem == nil {
		idem = NewIdempotencyService(nil, cfg.IdempotencyTTL, log)
	}
	return &dispatchService{
		accidentRepo:   deps.Accidents,
		assignmentRepo: deps.Assignments,
		hospitalRepo:   deps.Hospitals,
		driverRepo:     deps.AmbulanceDrivers,
		tx:             deps.Transactions,
		idempotency:    idem,
		notifier:       deps.Notifier,
		config:         cfg,
		logger:         log,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

// ReportAccident files a pending accident for a vehicle driver and returns
// the hospitals nearest to it.
func (s *dispatchService) ReportAccident(ctx context.Context, actor *models.Actor, request *ReportAccidentRequest) (*ReportAccidentResult, error) {
	if err := requireRole(actor, models.RoleVehicleDriver); err != nil {
		return nil, err
	}
	if request == nil || !request.Location.IsValid() {
		return nil, utils.NewValidationError("location", "location must be a valid latitude/longitude pair")
	}
	trigger := request.TriggerType
	if trigger == "" {
		trigger = models.TriggerTypeManual
	}
	if !trigger.IsValid() {
		return nil, utils.NewValidationError("trigger_type", "trigger_type must be manual or sensor")
	}

	// Fetch candidates first so a store outage fails before anything is written.
	hospitals, err := s.hospitalRepo.List(ctx)
	if err != nil {
		return nil, storeError(err, "hospital", "")
	}
	shortlist := rankHospitals(request.Location, hospitals, s.config.HospitalRadiusKM, s.config.ShortlistLimit)

	replayID, finish, err := s.idempotency.Begin(ctx, "report", actor.ID, request.IdempotencyKey)
	if err != nil {
		return nil, err
	}
	if replayID != "" {
		accident, err := s.accidentRepo.GetByID(ctx, replayID)
		if err != nil {
			return nil, storeError(err, "accident", replayID)
		}
		return &ReportAccidentResult{
			Accident:        accident,
			NearbyHospitals: rankHospitals(accident.Location, hospitals, s.config.HospitalRadiusKM, s.config.ShortlistLimit),
			Replayed:        true,
		}, nil
	}

	accident := models.NewAccident(actor.ID, request.Location, trigger)
	if err := s.accidentRepo.Create(ctx, accident); err != nil {
		finish("", err)
		return nil, storeError(err, "accident", "")
	}
	finish(accident.ID, nil)

	s.logger.WithContext(ctx).LogDispatchEvent(accident.ID, string(models.EventAccidentReported), logger.Fields{
		"actor_id":     actor.ID,
		"trigger_type": trigger,
		"candidates":   len(shortlist),
	})
	loc := accident.Location
	s.notify(ctx, &models.DispatchEvent{
		Kind:            models.EventAccidentReported,
		AccidentID:      accident.ID,
		VehicleDriverID: accident.VehicleDriverID,
		Status:          string(accident.Status),
		Location:        &loc,
		OccurredAt:      accident.Timestamp,
	})

	return &ReportAccidentResult{Accident: accident, NearbyHospitals: shortlist}, nil
}

// CancelAccident lets the reporter withdraw an accident. An active assignment
// is cancelled along with it.
func (s *dispatchService) CancelAccident(ctx context.Context, actor *models.Actor, accidentID, reason string) (*models.Accident, error) {
	if err := requireRole(actor, models.RoleVehicleDriver); err != nil {
		return nil, err
	}
	reason = strings.TrimSpace(reason)
	if len(reason) > utils.MaxCancellationReason {
		return nil, utils.NewValidationError("reason", "reason is too long")
	}
	if reason == "" {
		reason = defaultReporterCancelReason
	}

	var (
		cancelled          *models.Accident
		cascaded           *models.Assignment
		previousAssignment string
	)
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		cascaded, previousAssignment = nil, ""

		accident, err := s.accidentRepo.GetByID(ctx, accidentID)
		if err != nil {
			return storeError(err, "accident", accidentID)
		}
		if accident.VehicleDriverID != actor.ID {
			return utils.NewUnauthorizedError("only the reporting driver may cancel this accident")
		}
		if err := accident.CheckTransition(models.AccidentStatusCancelled); err != nil {
			return err
		}

		if accident.Status == models.AccidentStatusAmbulanceAssigned {
			active, err := s.assignmentRepo.GetActiveByAccident(ctx, accident.ID)
			if err != nil && !errors.Is(err, interfaces.ErrNotFound) {
				return storeError(err, "assignment", "")
			}
			if active != nil {
				status := models.AssignmentStatusCancelled
				cascaded, err = s.assignmentRepo.Update(ctx, active.ID, active.Status, interfaces.AssignmentUpdate{
					Status:             &status,
					CancellationReason: &reason,
				}, false)
				if err != nil {
					return storeError(err, "assignment", active.ID)
				}
				previousAssignment = active.ID
			}
		}

		unbind := ""
		cancelled, err = s.accidentRepo.UpdateStatus(ctx, accident.ID, accident.Status, models.AccidentStatusCancelled, &unbind)
		return storeError(err, "accident", accident.ID)
	})
	if err != nil {
		return nil, asAppError(err)
	}

	s.logger.WithContext(ctx).LogDispatchEvent(cancelled.ID, string(models.EventAccidentCancelled), logger.Fields{
		"actor_id":      actor.ID,
		"assignment_id": previousAssignment,
		"reason":        reason,
	})
	event := &models.DispatchEvent{
		Kind:            models.EventAccidentCancelled,
		AccidentID:      cancelled.ID,
		VehicleDriverID: cancelled.VehicleDriverID,
		Status:          string(cancelled.Status),
		Reason:          reason,
		OccurredAt:      cancelled.UpdatedAt,
	}
	if cascaded != nil {
		event.AssignmentID = cascaded.ID
		event.AmbulanceDriverID = cascaded.AmbulanceDriverID
		event.HospitalID = cascaded.HospitalID
	}
	s.notify(ctx, event)

	return cancelled, nil
}

func (s *dispatchService) GetAccident(ctx context.Context, actor *models.Actor, accidentID string) (*AccidentView, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}

	accident, err := s.accidentRepo.GetByID(ctx, accidentID)
	if err != nil {
		return nil, storeError(err, "accident", accidentID)
	}
	assignments, err := s.assignmentRepo.GetByAccident(ctx, accidentID)
	if err != nil {
		return nil, storeError(err, "assignment", "")
	}

	visible := false
	switch actor.Role {
	case models.RoleVehicleDriver:
		visible = accident.VehicleDriverID == actor.ID
	case models.RoleAmbulanceDriver:
		visible = accident.Status == models.AccidentStatusPending
		for _, a := range assignments {
			if a.AmbulanceDriverID == actor.ID {
				visible = true
			}
		}
	case models.RoleHospitalAdmin:
		hospital, err := s.adminHospital(ctx, actor)
		if err != nil {
			return nil, err
		}
		for _, a := range assignments {
			if a.HospitalID != "" && a.HospitalID == hospital.ID {
				visible = true
			}
		}
	}
	if !visible {
		return nil, utils.NewUnauthorizedError("accident is not visible to this actor")
	}

	return &AccidentView{Accident: accident, Assignments: assignments}, nil
}

// ListAccidents returns, newest first: a vehicle driver's own reports; for an
// ambulance driver the pending queue plus accidents they are actively
// serving; for a hospital admin every accident routed to their hospital.
func (s *dispatchService) ListAccidents(ctx context.Context, actor *models.Actor) ([]*models.Accident, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}

	switch actor.Role {
	case models.RoleVehicleDriver:
		accidents, err := s.accidentRepo.GetByVehicleDriver(ctx, actor.ID)
		return accidents, storeError(err, "accident", "")

	case models.RoleAmbulanceDriver:
		pending, err := s.accidentRepo.GetByStatus(ctx, models.AccidentStatusPending)
		if err != nil {
			return nil, storeError(err, "accident", "")
		}
		active, err := s.assignmentRepo.GetActiveByAmbulanceDriver(ctx, actor.ID)
		if err != nil {
			return nil, storeError(err, "assignment", "")
		}
		own, err := s.accidentRepo.GetByIDs(ctx, accidentIDs(active))
		if err != nil {
			return nil, storeError(err, "accident", "")
		}
		return mergeAccidents(pending, own), nil

	case models.RoleHospitalAdmin:
		hospital, err := s.adminHospital(ctx, actor)
		if err != nil {
			return nil, err
		}
		routed, err := s.assignmentRepo.GetByHospital(ctx, hospital.ID)
		if err != nil {
			return nil, storeError(err, "assignment", "")
		}
		accidents, err := s.accidentRepo.GetByIDs(ctx, accidentIDs(routed))
		if err != nil {
			return nil, storeError(err, "accident", "")
		}
		return mergeAccidents(accidents), nil
	}

	return nil, utils.NewUnauthorizedError(utils.MsgUnauthorized)
}

func (s *dispatchService) ListAssignments(ctx context.Context, actor *models.Actor) ([]*models.Assignment, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}

	switch actor.Role {
	case models.RoleAmbulanceDriver:
		assignments, err := s.assignmentRepo.GetByAmbulanceDriver(ctx, actor.ID)
		return assignments, storeError(err, "assignment", "")
	case models.RoleHospitalAdmin:
		hospital, err := s.adminHospital(ctx, actor)
		if err != nil {
			return nil, err
		}
		assignments, err := s.assignmentRepo.GetByHospital(ctx, hospital.ID)
		return assignments, storeError(err, "assignment", "")
	}

	return nil, utils.NewUnauthorizedError("assignments are visible to ambulance drivers and hospital admins only")
}

// AcceptAccident binds the calling ambulance driver to a pending accident and
// routes it to the nearest hospital in range. Losing a race to another driver
// yields a ConflictError and leaves no trace.
func (s *dispatchService) AcceptAccident(ctx context.Context, actor *models.Actor, accidentID, idempotencyKey string) (*AcceptAccidentResult, error) {
	if err := requireRole(actor, models.RoleAmbulanceDriver); err != nil {
		return nil, err
	}

	replayID, finish, err := s.idempotency.Begin(ctx, "accept:"+accidentID, actor.ID, idempotencyKey)
	if err != nil {
		return nil, err
	}
	if replayID != "" {
		return s.replayAccept(ctx, replayID)
	}

	result, err := s.acceptAccident(ctx, actor, accidentID)
	if err != nil {
		finish("", err)
		return nil, err
	}
	finish(result.Assignment.ID, nil)
	return result, nil
}

func (s *dispatchService) acceptAccident(ctx context.Context, actor *models.Actor, accidentID string) (*AcceptAccidentResult, error) {
	accident, err := s.accidentRepo.GetByID(ctx, accidentID)
	if err != nil {
		return nil, storeError(err, "accident", accidentID)
	}
	if err := checkAcceptable(accident); err != nil {
		return nil, err
	}

	hospitals, err := s.hospitalRepo.List(ctx)
	if err != nil {
		return nil, storeError(err, "hospital", "")
	}
	hospitalID := ""
	if nearest := rankHospitals(accident.Location, hospitals, s.config.HospitalRadiusKM, 1); len(nearest) > 0 {
		hospitalID = nearest[0].Hospital.ID
	}

	var result AcceptAccidentResult
	err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		current, err := s.accidentRepo.GetByID(ctx, accidentID)
		if err != nil {
			return storeError(err, "accident", accidentID)
		}
		if err := checkAcceptable(current); err != nil {
			return err
		}

		// The status predicate is the race guard: only one accept can move
		// the accident out of pending.
		if _, err := s.accidentRepo.UpdateStatus(ctx, accidentID, models.AccidentStatusPending, models.AccidentStatusAmbulanceAssigned, nil); err != nil {
			return acceptConflict(err, accidentID)
		}

		assignment := models.NewAssignment(accidentID, actor.ID, hospitalID)
		if err := s.assignmentRepo.Create(ctx, assignment); err != nil {
			return acceptConflict(err, accidentID)
		}

		bound, err := s.accidentRepo.UpdateStatus(ctx, accidentID, models.AccidentStatusAmbulanceAssigned, models.AccidentStatusAmbulanceAssigned, &assignment.ID)
		if err != nil {
			return acceptConflict(err, accidentID)
		}

		result = AcceptAccidentResult{Accident: bound, Assignment: assignment}
		return nil
	})
	if err != nil {
		return nil, asAppError(err)
	}

	s.logger.WithContext(ctx).LogDispatchEvent(accidentID, string(models.EventAssignmentCreated), logger.Fields{
		"actor_id":      actor.ID,
		"assignment_id": result.Assignment.ID,
		"hospital_id":   hospitalID,
	})
	s.notify(ctx, &models.DispatchEvent{
		Kind:              models.EventAssignmentCreated,
		AccidentID:        accidentID,
		AssignmentID:      result.Assignment.ID,
		VehicleDriverID:   result.Accident.VehicleDriverID,
		AmbulanceDriverID: actor.ID,
		HospitalID:        hospitalID,
		Status:            string(result.Assignment.Status),
		OccurredAt:        result.Assignment.AcceptedAt,
	})

	return &result, nil
}

func (s *dispatchService) replayAccept(ctx context.Context, assignmentID string) (*AcceptAccidentResult, error) {
	assignment, err := s.assignmentRepo.GetByID(ctx, assignmentID)
	if err != nil {
		return nil, storeError(err, "assignment", assignmentID)
	}
	accident, err := s.accidentRepo.GetByID(ctx, assignment.AccidentID)
	if err != nil {
		return nil, storeError(err, "accident", assignment.AccidentID)
	}
	return &AcceptAccidentResult{Accident: accident, Assignment: assignment, Replayed: true}, nil
}

// UpdateAssignmentStatus progresses an assignment on behalf of its ambulance
// driver and cascades to the accident: completed completes it, cancelled
// returns it to the pending pool, reassigned hands it to a successor row.
func (s *dispatchService) UpdateAssignmentStatus(ctx context.Context, actor *models.Actor, assignmentID string, request *UpdateAssignmentStatusRequest) (*AssignmentUpdateResult, error) {
	if err := requireRole(actor, models.RoleAmbulanceDriver); err != nil {
		return nil, err
	}
	if request == nil || request.Status == "" {
		return nil, utils.NewValidationError("status", "status is required")
	}
	reason := strings.TrimSpace(request.Reason)
	if len(reason) > utils.MaxCancellationReason {
		return nil, utils.NewValidationError("cancellation_reason", "reason is too long")
	}

	// Validate against the current record before opening a transaction so
	// bad requests never touch the store for writing.
	existing, err := s.assignmentRepo.GetByID(ctx, assignmentID)
	if err != nil {
		return nil, storeError(err, "assignment", assignmentID)
	}
	if existing.AmbulanceDriverID != actor.ID {
		return nil, utils.NewUnauthorizedError("only the assigned ambulance driver may update this assignment")
	}
	if err := existing.CheckTransition(request.Status, reason); err != nil {
		return nil, err
	}

	var target *models.AmbulanceDriver
	if request.Status == models.AssignmentStatusReassigned {
		target, err = s.pickSuccessorDriver(ctx, existing, request.TargetAmbulanceDriverID)
		if err != nil {
			return nil, err
		}
	}

	var result AssignmentUpdateResult
	err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		result = AssignmentUpdateResult{}

		current, err := s.assignmentRepo.GetByID(ctx, assignmentID)
		if err != nil {
			return storeError(err, "assignment", assignmentID)
		}
		if err := current.CheckTransition(request.Status, reason); err != nil {
			return err
		}

		next := request.Status
		update := interfaces.AssignmentUpdate{Status: &next}
		if next.RequiresReason() {
			update.CancellationReason = &reason
		}
		updated, err := s.assignmentRepo.Update(ctx, current.ID, current.Status, update, false)
		if err != nil {
			return storeError(err, "assignment", current.ID)
		}
		result.Assignment = updated

		var accident *models.Accident
		switch next {
		case models.AssignmentStatusEnRoute:
			accident, err = s.accidentRepo.GetByID(ctx, current.AccidentID)

		case models.AssignmentStatusCompleted:
			accident, err = s.accidentRepo.UpdateStatus(ctx, current.AccidentID,
				models.AccidentStatusAmbulanceAssigned, models.AccidentStatusCompleted, nil)

		case models.AssignmentStatusCancelled:
			unbind := ""
			accident, err = s.accidentRepo.UpdateStatus(ctx, current.AccidentID,
				models.AccidentStatusAmbulanceAssigned, models.AccidentStatusPending, &unbind)

		case models.AssignmentStatusReassigned:
			successor := current.Successor(target.UserID)
			if err := s.assignmentRepo.Create(ctx, successor); err != nil {
				return storeError(err, "assignment", "")
			}
			result.Successor = successor
			accident, err = s.accidentRepo.UpdateStatus(ctx, current.AccidentID,
				models.AccidentStatusAmbulanceAssigned, models.AccidentStatusAmbulanceAssigned, &successor.ID)
		}
		if err != nil {
			return storeError(err, "accident", current.AccidentID)
		}
		result.Accident = accident
		return nil
	})
	if err != nil {
		return nil, asAppError(err)
	}

	s.announceAssignmentUpdate(ctx, actor, &result, reason)
	return &result, nil
}

func (s *dispatchService) announceAssignmentUpdate(ctx context.Context, actor *models.Actor, result *AssignmentUpdateResult, reason string) {
	a := result.Assignment
	s.logger.WithContext(ctx).LogDispatchEvent(a.AccidentID, string(models.EventAssignmentStatusChanged), logger.Fields{
		"actor_id":        actor.ID,
		"assignment_id":   a.ID,
		"status":          a.Status,
		"accident_status": result.Accident.Status,
	})

	base := models.DispatchEvent{
		AccidentID:        a.AccidentID,
		AssignmentID:      a.ID,
		VehicleDriverID:   result.Accident.VehicleDriverID,
		AmbulanceDriverID: a.AmbulanceDriverID,
		HospitalID:        a.HospitalID,
		Status:            string(a.Status),
		Reason:            reason,
		OccurredAt:        a.UpdatedAt,
	}

	changed := base
	changed.Kind = models.EventAssignmentStatusChanged
	s.notify(ctx, &changed)

	switch a.Status {
	case models.AssignmentStatusCompleted:
		done := base
		done.Kind = models.EventAccidentCompleted
		done.Status = string(result.Accident.Status)
		s.notify(ctx, &done)

	case models.AssignmentStatusReassigned:
		next := result.Successor
		s.logger.WithContext(ctx).LogDispatchEvent(a.AccidentID, string(models.EventAssignmentReassigned), logger.Fields{
			"assignment_id":      next.ID,
			"previous_id":        a.ID,
			"reassignment_count": next.ReassignmentCount,
			"ambulance_driver":   next.AmbulanceDriverID,
		})
		reassigned := base
		reassigned.Kind = models.EventAssignmentReassigned
		reassigned.AssignmentID = next.ID
		reassigned.AmbulanceDriverID = next.AmbulanceDriverID
		reassigned.Status = string(next.Status)
		reassigned.OccurredAt = next.AcceptedAt
		s.notify(ctx, &reassigned)
	}
}

// pickSuccessorDriver resolves who takes over a reassigned accident.
func (s *dispatchService) pickSuccessorDriver(ctx context.Context, current *models.Assignment, targetID string) (*models.AmbulanceDriver, error) {
	if targetID != "" {
		if targetID == current.AmbulanceDriverID {
			return nil, utils.NewValidationError("target_ambulance_driver_id", "cannot reassign to the current ambulance driver")
		}
		driver, err := s.driverRepo.GetByUserID(ctx, targetID)
		if err != nil {
			if errors.Is(err, interfaces.ErrNotFound) {
				return nil, utils.NewValidationError("target_ambulance_driver_id", "unknown ambulance driver "+targetID)
			}
			return nil, storeError(err, "ambulance driver", targetID)
		}
		busy, err := s.assignmentRepo.GetActiveByAmbulanceDriver(ctx, driver.UserID)
		if err != nil {
			return nil, storeError(err, "assignment", "")
		}
		if len(busy) > 0 {
			return nil, utils.NewConflictError("target ambulance driver already has an active assignment", nil)
		}
		return driver, nil
	}

	hospitalID := current.HospitalID
	if hospitalID == "" {
		home, err := s.driverRepo.GetByUserID(ctx, current.AmbulanceDriverID)
		if err != nil && !errors.Is(err, interfaces.ErrNotFound) {
			return nil, storeError(err, "ambulance driver", current.AmbulanceDriverID)
		}
		if home != nil {
			hospitalID = home.HospitalID
		}
	}
	if hospitalID == "" {
		return nil, utils.NewConflictError("no ambulance driver available for reassignment", nil)
	}

	candidates, err := s.driverRepo.GetByHospital(ctx, hospitalID)
	if err != nil {
		return nil, storeError(err, "ambulance driver", "")
	}
	for _, d := range candidates {
		if d.UserID == current.AmbulanceDriverID {
			continue
		}
		busy, err := s.assignmentRepo.GetActiveByAmbulanceDriver(ctx, d.UserID)
		if err != nil {
			return nil, storeError(err, "assignment", "")
		}
		if len(busy) == 0 {
			return d, nil
		}
	}

	return nil, utils.NewConflictError("no ambulance driver available for reassignment", nil)
}

// ConfirmHospitalIntake records that the routed hospital is ready to receive
// the patient. It can be set once, while the assignment is active.
func (s *dispatchService) ConfirmHospitalIntake(ctx context.Context, actor *models.Actor, assignmentID string) (*models.Assignment, error) {
	if err := requireRole(actor, models.RoleHospitalAdmin); err != nil {
		return nil, err
	}
	hospital, err := s.adminHospital(ctx, actor)
	if err != nil {
		return nil, err
	}

	assignment, err := s.assignmentRepo.GetByID(ctx, assignmentID)
	if err != nil {
		return nil, storeError(err, "assignment", assignmentID)
	}
	if assignment.HospitalID == "" || assignment.HospitalID != hospital.ID {
		return nil, utils.NewUnauthorizedError("assignment is not routed to this hospital")
	}
	if !assignment.Status.IsActive() {
		return nil, utils.NewInvalidTransitionError("assignment", string(assignment.Status), "hospital_accepted")
	}
	if assignment.HospitalAcceptedAt != nil {
		return nil, utils.NewConflictError("hospital intake already confirmed", nil)
	}

	now := s.now()
	updated, err := s.assignmentRepo.Update(ctx, assignment.ID, assignment.Status,
		interfaces.AssignmentUpdate{HospitalAcceptedAt: &now}, true)
	if err != nil {
		return nil, storeError(err, "assignment", assignment.ID)
	}

	s.logger.WithContext(ctx).LogDispatchEvent(updated.AccidentID, string(models.EventHospitalIntakeConfirmed), logger.Fields{
		"actor_id":      actor.ID,
		"assignment_id": updated.ID,
		"hospital_id":   hospital.ID,
	})
	s.notify(ctx, &models.DispatchEvent{
		Kind:              models.EventHospitalIntakeConfirmed,
		AccidentID:        updated.AccidentID,
		AssignmentID:      updated.ID,
		AmbulanceDriverID: updated.AmbulanceDriverID,
		HospitalID:        hospital.ID,
		Status:            string(updated.Status),
		OccurredAt:        now,
	})

	return updated, nil
}

func (s *dispatchService) ListHospitalAmbulanceDrivers(ctx context.Context, actor *models.Actor) ([]*models.AmbulanceDriver, error) {
	if err := requireRole(actor, models.RoleHospitalAdmin); err != nil {
		return nil, err
	}
	hospital, err := s.adminHospital(ctx, actor)
	if err != nil {
		return nil, err
	}

	drivers, err := s.driverRepo.GetByHospital(ctx, hospital.ID)
	return drivers, storeError(err, "ambulance driver", "")
}

func (s *dispatchService) GetNearbyHospitals(ctx context.Context, origin models.Coordinate, radiusKM float64, limit int) ([]*NearbyHospital, error) {
	if !origin.IsValid() {
		return nil, utils.NewValidationError("location", "location must be a valid latitude/longitude pair")
	}
	if radiusKM <= 0 {
		radiusKM = s.config.HospitalRadiusKM
	}
	if radiusKM > utils.MaxSearchRadiusKM {
		return nil, utils.NewValidationError("radius_km", "radius_km is too large")
	}
	if limit <= 0 {
		limit = s.config.ShortlistLimit
	}
	if limit > utils.MaxShortlistLimit {
		return nil, utils.NewValidationError("limit", "limit is too large")
	}

	hospitals, err := s.hospitalRepo.List(ctx)
	if err != nil {
		return nil, storeError(err, "hospital", "")
	}
	return rankHospitals(origin, hospitals, radiusKM, limit), nil
}

func (s *dispatchService) adminHospital(ctx context.Context, actor *models.Actor) (*models.Hospital, error) {
	hospital, err := s.hospitalRepo.GetByAdminUserID(ctx, actor.ID)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, utils.NewUnauthorizedError("actor does not administer a hospital")
		}
		return nil, storeError(err, "hospital", "")
	}
	return hospital, nil
}

func (s *dispatchService) notify(ctx context.Context, event *models.DispatchEvent) {
	if s.notifier == nil {
		return
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = s.now()
	}
	s.notifier.Notify(ctx, event)
}

func requireActor(actor *models.Actor) error {
	if actor == nil || actor.ID == "" || !actor.Role.IsValid() {
		return utils.NewUnauthorizedError("actor could not be resolved")
	}
	return nil
}

func requireRole(actor *models.Actor, role models.Role) error {
	if err := requireActor(actor); err != nil {
		return err
	}
	if actor.Role != role {
		return utils.NewUnauthorizedError("operation requires role " + string(role))
	}
	return nil
}

func checkAcceptable(accident *models.Accident) error {
	if accident.Status == models.AccidentStatusAmbulanceAssigned {
		return utils.NewConflictError("accident "+utils.MsgAlreadyTaken, nil)
	}
	return accident.CheckTransition(models.AccidentStatusAmbulanceAssigned)
}

func acceptConflict(err error, accidentID string) error {
	if errors.Is(err, interfaces.ErrPreconditionFailed) || errors.Is(err, interfaces.ErrDuplicate) {
		return utils.NewConflictError("accident "+utils.MsgAlreadyTaken, err)
	}
	return storeError(err, "accident", accidentID)
}

// storeError maps record store failures onto the dispatch error taxonomy.
// It passes nil through so callers can return it directly.
func storeError(err error, resource, id string) error {
	if err == nil {
		return nil
	}
	if _, ok := utils.AsAppError(err); ok {
		return err
	}
	switch {
	case errors.Is(err, interfaces.ErrNotFound):
		return utils.NewNotFoundError(resource, id)
	case errors.Is(err, interfaces.ErrPreconditionFailed):
		return utils.NewConflictError(resource+" was modified concurrently", err)
	case errors.Is(err, interfaces.ErrDuplicate):
		return utils.NewConflictError(resource+" "+utils.MsgAlreadyTaken, err)
	}
	return utils.NewDependencyError("record store unavailable", err)
}

// asAppError makes sure nothing untyped escapes a transaction.
func asAppError(err error) error {
	if _, ok := utils.AsAppError(err); ok {
		return err
	}
	return utils.NewDependencyError("record store unavailable", err)
}

func rankHospitals(origin models.Coordinate, hospitals []*models.Hospital, radiusKM float64, limit int) []*NearbyHospital {
	ranked := Nearby(origin, hospitals, radiusKM, limit)
	out := make([]*NearbyHospital, len(ranked))
	for i, r := range ranked {
		out[i] = &NearbyHospital{Hospital: r.Item, DistanceKM: r.DistanceKM}
	}
	return out
}

func accidentIDs(assignments []*models.Assignment) []string {
	seen := make(map[string]bool, len(assignments))
	ids := make([]string, 0, len(assignments))
	for _, a := range assignments {
		if !seen[a.AccidentID] {
			seen[a.AccidentID] = true
			ids = append(ids, a.AccidentID)
		}
	}
	return ids
}

// mergeAccidents de-duplicates by ID and orders newest first.
func mergeAccidents(lists ...[]*models.Accident) []*models.Accident {
	seen := make(map[string]bool)
	out := make([]*models.Accident, 0)
	for _, list := range lists {
		for _, a := range list {
			if !seen[a.ID] {
				seen[a.ID] = true
				out = append(out, a)
			}
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].Timestamp.After(out[j].Timestamp)
		}
		return out[i].ID < out[j].ID
	})
	return out
}
