package topo

import (
	"context"
	"slices"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/schambon/mongo-dumper/errors"
)

// ListCollectionNames returns the user collections of a database.
func ListCollectionNames(ctx context.Context, m *mongo.Client, dbName string) ([]string, error) {
	//nolint:wrapcheck
	return m.Database(dbName).ListCollectionNames(ctx,
		bson.D{{Key: "name", Value: bson.D{{Key: "$not", Value: bson.D{{Key: "$regex", Value: "^system\\."}}}}}})
}

// CollectionExists reports whether db.coll exists.
func CollectionExists(ctx context.Context, m *mongo.Client, dbName, collName string) (bool, error) {
	names, err := ListCollectionNames(ctx, m, dbName)
	if err != nil {
		return false, errors.Wrap(err, "list collections")
	}

	return slices.Contains(names, collName), nil
}

// EstimatedDocumentCount returns the collection count from metadata.
func EstimatedDocumentCount(ctx context.Context, m *mongo.Client, dbName, collName string) (int64, error) {
	n, err := m.Database(dbName).Collection(collName).EstimatedDocumentCount(ctx)

	return n, errors.Wrap(err, "estimated document count")
}
