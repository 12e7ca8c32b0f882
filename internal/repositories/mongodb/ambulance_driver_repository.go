package mongodb

import (
	"context"

	"ambulance-dispatch/internal/models"
	"ambulance-dispatch/internal/repositories/interfaces"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type ambulanceDriverRepository struct {
	collection *mongo.Collection
}

func NewAmbulanceDriverRepository(db *mongo.Database) interfaces.AmbulanceDriverRepository {
	return &ambulanceDriverRepository{
		collection: db.Collection("ambulance_drivers"),
	}
}

func (r *ambulanceDriverRepository) GetByUserID(ctx context.Context, userID string) (*models.AmbulanceDriver, error) {
	return findOne[models.AmbulanceDriver](ctx, r.collection, bson.M{"_id": userID}, "ambulance driver")
}

func (r *ambulanceDriverRepository) GetByHospital(ctx context.Context, hospitalID string) ([]*models.AmbulanceDriver, error) {
	filter := bson.M{"hospital_id": hospitalID}
	sort := bson.D{{Key: "name", Value: 1}, {Key: "_id", Value: 1}}
	return findAll[models.AmbulanceDriver](ctx, r.collection, filter, sort, "ambulance drivers by hospital")
}
