package mongodb

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Now returns the current time in UTC, truncated to the millisecond
// precision MongoDB stores.
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

// NotDeleted is the filter fragment excluding soft-deleted documents
func NotDeleted() bson.E {
	return bson.E{Key: "deletedAt", Value: bson.M{"$exists": false}}
}

// SortAscending creates an ascending sort option
func SortAscending(field string) bson.D {
	return bson.D{{Key: field, Value: 1}}
}

// IsDuplicateKey reports whether err is a unique index violation
func IsDuplicateKey(err error) bool {
	return mongo.IsDuplicateKeyError(err)
}

// FindOne decodes a single document into out. It returns (false, nil) when
// nothing matches.
func FindOne(ctx context.Context, coll *mongo.Collection, filter interface{}, out interface{}) (bool, error) {
	err := coll.FindOne(ctx, filter).Decode(out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// FindAll decodes all matching documents into a slice of T pointers
func FindAll[T any](ctx context.Context, coll *mongo.Collection, filter interface{}, sort bson.D) ([]*T, error) {
	opts := options.Find()
	if len(sort) > 0 {
		opts.SetSort(sort)
	}
	cursor, err := coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var out []*T
	for cursor.Next(ctx) {
		var doc T
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, &doc)
	}
	return out, cursor.Err()
}
