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

const accidentsCollection = "accidents"

type accidentRepository struct {
	collection *mongo.Collection
}

func NewAccidentRepository(db *mongo.Database) interfaces.AccidentRepository {
	return &accidentRepository{
		collection: db.Collection(accidentsCollection),
	}
}

func (r *accidentRepository) Create(ctx context.Context, accident *models.Accident) error {
	ts := now()
	accident.ID = newID()
	accident.Timestamp = ts
	accident.CreatedAt = ts
	accident.UpdatedAt = ts

	_, err := r.collection.InsertOne(ctx, accident)
	if err != nil {
		return fmt.Errorf("failed to create accident: %w", err)
	}

	return nil
}

func (r *accidentRepository) GetByID(ctx context.Context, id string) (*models.Accident, error) {
	return findOne[models.Accident](ctx, r.collection, bson.M{"_id": id}, "accident")
}

func (r *accidentRepository) GetByIDs(ctx context.Context, ids []string) ([]*models.Accident, error) {
	if len(ids) == 0 {
		return []*models.Accident{}, nil
	}
	filter := bson.M{"_id": bson.M{"$in": ids}}
	return findAll[models.Accident](ctx, r.collection, filter, newestFirst, "accidents")
}

func (r *accidentRepository) UpdateStatus(ctx context.Context, id string, expected, status models.AccidentStatus, activeAssignmentID *string) (*models.Accident, error) {
	filter := bson.M{"_id": id, "status": expected}
	update := accidentStatusUpdate(status, activeAssignmentID, now())
	return conditionalUpdate[models.Accident](ctx, r.collection, id, filter, update, "accident")
}

func accidentStatusUpdate(status models.AccidentStatus, activeAssignmentID *string, ts time.Time) bson.M {
	set := bson.M{"status": status, "updated_at": ts}
	update := bson.M{"$set": set}
	if activeAssignmentID != nil {
		if *activeAssignmentID == "" {
			update["$unset"] = bson.M{"active_assignment_id": ""}
		} else {
			set["active_assignment_id"] = *activeAssignmentID
		}
	}
	return update
}

func (r *accidentRepository) GetByVehicleDriver(ctx context.Context, vehicleDriverID string) ([]*models.Accident, error) {
	filter := bson.M{"vehicle_driver_id": vehicleDriverID}
	return findAll[models.Accident](ctx, r.collection, filter, newestFirst, "accidents by vehicle driver")
}

func (r *accidentRepository) GetByStatus(ctx context.Context, status models.AccidentStatus) ([]*models.Accident, error) {
	filter := bson.M{"status": status}
	return findAll[models.Accident](ctx, r.collection, filter, newestFirst, "accidents by status")
}

var newestFirst = bson.D{{Key: "timestamp", Value: -1}}
