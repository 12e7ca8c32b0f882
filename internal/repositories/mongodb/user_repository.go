package mongodb

import (
	"context"
	"fmt"
	"time"

	"ambulance-dispatch/internal/models"
	"ambulance-dispatch/internal/repositories/interfaces"
	"ambulance-dispatch/pkg/logger"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

const userCacheTTL = 15 * time.Minute

type userRepository struct {
	collection *mongo.Collection
	cache      CacheService
}

func NewUserRepository(db *mongo.Database, cache CacheService) interfaces.UserRepository {
	return &userRepository{
		collection: db.Collection("users"),
		cache:      cache,
	}
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	// Try cache first
	if user := r.getUserFromCache(ctx, id); user != nil {
		return user, nil
	}

	user, err := findOne[models.User](ctx, r.collection, bson.M{"_id": id}, "user")
	if err != nil {
		return nil, err
	}

	r.cacheUser(ctx, user)

	return user, nil
}

// Cache operations
func (r *userRepository) cacheUser(ctx context.Context, user *models.User) {
	if r.cache == nil {
		return
	}
	cacheKey := fmt.Sprintf("user:%s", user.ID)
	if err := r.cache.Set(ctx, cacheKey, user, userCacheTTL); err != nil {
		logger.WithContext(ctx).WithError(err).WithField("key", cacheKey).Warn("Failed to cache user")
	}
}

func (r *userRepository) getUserFromCache(ctx context.Context, userID string) *models.User {
	if r.cache == nil {
		return nil
	}

	cacheKey := fmt.Sprintf("user:%s", userID)
	var user models.User
	err := r.cache.Get(ctx, cacheKey, &user)
	if err != nil {
		return nil
	}

	return &user
}
