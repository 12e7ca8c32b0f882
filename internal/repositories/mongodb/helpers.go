package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ambulance-dispatch/internal/repositories/interfaces"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func newID() string {
	return primitive.NewObjectID().Hex()
}

// now stamps every created_at, updated_at and accepted_at this package writes.
var now = func() time.Time {
	return time.Now().UTC()
}

func findAll[T any](ctx context.Context, collection *mongo.Collection, filter bson.M, sort bson.D, what string) ([]*T, error) {
	opts := options.Find()
	if len(sort) > 0 {
		opts.SetSort(sort)
	}

	cursor, err := collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find %s: %w", what, err)
	}
	defer cursor.Close(ctx)

	results := make([]*T, 0)
	for cursor.Next(ctx) {
		var item T
		if err := cursor.Decode(&item); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", what, err)
		}
		results = append(results, &item)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate %s: %w", what, err)
	}

	return results, nil
}

func findOne[T any](ctx context.Context, collection *mongo.Collection, filter bson.M, what string) (*T, error) {
	var item T
	err := collection.FindOne(ctx, filter).Decode(&item)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, interfaces.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get %s: %w", what, err)
	}
	return &item, nil
}

// conditionalUpdate applies update to the document matching filter and returns
// it. When nothing matches it tells a missing record apart from one whose
// precondition no longer holds.
func conditionalUpdate[T any](ctx context.Context, collection *mongo.Collection, id string, filter, update bson.M, what string) (*T, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var item T
	err := collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&item)
	if err == nil {
		return &item, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("failed to update %s: %w", what, err)
	}

	count, err := collection.CountDocuments(ctx, bson.M{"_id": id})
	if err != nil {
		return nil, fmt.Errorf("failed to check %s: %w", what, err)
	}
	if count == 0 {
		return nil, interfaces.ErrNotFound
	}
	return nil, interfaces.ErrPreconditionFailed
}
