package mongodb

import (
	"context"
	"time"

	"ambulance-dispatch/internal/models"
	"ambulance-dispatch/internal/repositories/interfaces"
	"ambulance-dispatch/internal/utils"
	"ambulance-dispatch/pkg/logger"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type hospitalRepository struct {
	collection *mongo.Collection
	cache      CacheService
	cacheTTL   time.Duration
}

// NewHospitalRepository caches the full hospital list for cacheTTL. The list
// is small and changes rarely, and every accept ranks against it.
func NewHospitalRepository(db *mongo.Database, cache CacheService, cacheTTL time.Duration) interfaces.HospitalRepository {
	if cacheTTL <= 0 {
		cacheTTL = utils.HospitalCacheTTL
	}
	return &hospitalRepository{
		collection: db.Collection("hospitals"),
		cache:      cache,
		cacheTTL:   cacheTTL,
	}
}

func (r *hospitalRepository) GetByID(ctx context.Context, id string) (*models.Hospital, error) {
	return findOne[models.Hospital](ctx, r.collection, bson.M{"_id": id}, "hospital")
}

func (r *hospitalRepository) GetByAdminUserID(ctx context.Context, adminUserID string) (*models.Hospital, error) {
	return findOne[models.Hospital](ctx, r.collection, bson.M{"admin_user_id": adminUserID}, "hospital by admin")
}

func (r *hospitalRepository) List(ctx context.Context) ([]*models.Hospital, error) {
	if hospitals := r.getHospitalsFromCache(ctx); hospitals != nil {
		return hospitals, nil
	}

	sort := bson.D{{Key: "_id", Value: 1}}
	hospitals, err := findAll[models.Hospital](ctx, r.collection, bson.M{}, sort, "hospitals")
	if err != nil {
		return nil, err
	}

	r.cacheHospitals(ctx, hospitals)

	return hospitals, nil
}

func (r *hospitalRepository) cacheHospitals(ctx context.Context, hospitals []*models.Hospital) {
	if r.cache == nil {
		return
	}
	if err := r.cache.Set(ctx, utils.CacheHospitalsKey, hospitals, r.cacheTTL); err != nil {
		logger.WithContext(ctx).WithError(err).WithField("key", utils.CacheHospitalsKey).Warn("Failed to cache hospitals")
	}
}

func (r *hospitalRepository) getHospitalsFromCache(ctx context.Context) []*models.Hospital {
	if r.cache == nil {
		return nil
	}

	var hospitals []*models.Hospital
	if err := r.cache.Get(ctx, utils.CacheHospitalsKey, &hospitals); err != nil {
		return nil
	}

	return hospitals
}
