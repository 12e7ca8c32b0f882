package mongodb

import (
	"context"
	"fmt"
	"time"

	"ambulance-dispatch/internal/models"
	"ambulance-dispatch/internal/repositories/interfaces"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

const assignmentsCollection = "assignments"

type assignmentRepository struct {
	collection *mongo.Collection
}

func NewAssignmentRepository(db *mongo.Database) interfaces.AssignmentRepository {
	return &assignmentRepository{
		collection: db.Collection(assignmentsCollection),
	}
}

// Create relies on the partial unique index over accident_id where
// active=true to reject a second active assignment.
func (r *assignmentRepository) Create(ctx context.Context, assignment *models.Assignment) error {
	ts := now()
	assignment.ID = newID()
	assignment.AcceptedAt = ts
	assignment.CreatedAt = ts
	assignment.UpdatedAt = ts
	assignment.Active = assignment.Status.IsActive()

	_, err := r.collection.InsertOne(ctx, assignment)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return interfaces.ErrDuplicate
		}
		return fmt.Errorf("failed to create assignment: %w", err)
	}

	return nil
}

func (r *assignmentRepository) GetByID(ctx context.Context, id string) (*models.Assignment, error) {
	return findOne[models.Assignment](ctx, r.collection, bson.M{"_id": id}, "assignment")
}

func (r *assignmentRepository) Update(ctx context.Context, id string, expected models.AssignmentStatus, update interfaces.AssignmentUpdate, requireNoHospitalAck bool) (*models.Assignment, error) {
	filter := bson.M{"_id": id, "status": expected}
	if requireNoHospitalAck {
		// matches both a null and a missing field
		filter["hospital_accepted_at"] = nil
	}

	doc := assignmentUpdateDoc(update, now())
	return conditionalUpdate[models.Assignment](ctx, r.collection, id, filter, doc, "assignment")
}

func assignmentUpdateDoc(update interfaces.AssignmentUpdate, ts time.Time) bson.M {
	set := bson.M{"updated_at": ts}
	if update.Status != nil {
		set["status"] = *update.Status
		set["active"] = update.Status.IsActive()
	}
	if update.CancellationReason != nil {
		set["cancellation_reason"] = *update.CancellationReason
	}
	if update.HospitalAcceptedAt != nil {
		set["hospital_accepted_at"] = *update.HospitalAcceptedAt
	}
	return bson.M{"$set": set}
}

func (r *assignmentRepository) GetActiveByAccident(ctx context.Context, accidentID string) (*models.Assignment, error) {
	filter := bson.M{"accident_id": accidentID, "active": true}
	return findOne[models.Assignment](ctx, r.collection, filter, "active assignment")
}

func (r *assignmentRepository) GetByAccident(ctx context.Context, accidentID string) ([]*models.Assignment, error) {
	filter := bson.M{"accident_id": accidentID}
	return findAll[models.Assignment](ctx, r.collection, filter, oldestAcceptedFirst, "assignments by accident")
}

func (r *assignmentRepository) GetByAmbulanceDriver(ctx context.Context, ambulanceDriverID string) ([]*models.Assignment, error) {
	filter := bson.M{"ambulance_driver_id": ambulanceDriverID}
	return findAll[models.Assignment](ctx, r.collection, filter, newestAcceptedFirst, "assignments by ambulance driver")
}

func (r *assignmentRepository) GetActiveByAmbulanceDriver(ctx context.Context, ambulanceDriverID string) ([]*models.Assignment, error) {
	filter := bson.M{"ambulance_driver_id": ambulanceDriverID, "active": true}
	return findAll[models.Assignment](ctx, r.collection, filter, newestAcceptedFirst, "active assignments by ambulance driver")
}

func (r *assignmentRepository) GetByHospital(ctx context.Context, hospitalID string) ([]*models.Assignment, error) {
	filter := bson.M{"hospital_id": hospitalID}
	return findAll[models.Assignment](ctx, r.collection, filter, newestAcceptedFirst, "assignments by hospital")
}

var (
	oldestAcceptedFirst = bson.D{{Key: "accepted_at", Value: 1}, {Key: "_id", Value: 1}}
	newestAcceptedFirst = bson.D{{Key: "accepted_at", Value: -1}, {Key: "_id", Value: 1}}
)
