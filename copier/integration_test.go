package copier_test

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/docker/go-connections/nat"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/schambon/mongo-dumper/config"
	"github.com/schambon/mongo-dumper/copier"
	"github.com/schambon/mongo-dumper/topo"
)

func startMongo(t *testing.T) *mongo.Client {
	t.Helper()

	if testing.Short() {
		t.Skip("integration test requires docker")
	}

	ctx := context.Background()

	mongoC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "mongo:7",
			ExposedPorts: []string{"27017/tcp"},
			WaitingFor:   wait.ForListeningPort(nat.Port("27017/tcp")),
		},
		Started: true,
	})
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = mongoC.Terminate(context.Background())
	})

	host, err := mongoC.Host(ctx)
	require.NoError(t, err)

	port, err := mongoC.MappedPort(ctx, "27017")
	require.NoError(t, err)

	uri := fmt.Sprintf("mongodb://%s:%s/?directConnection=true", host, port.Port())

	client, err := topo.Connect(ctx, uri, &config.Config{})
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = topo.Disconnect(context.Background(), config.DisconnectTimeout, client)
	})

	return client
}

func seed(t *testing.T, coll *mongo.Collection, from, n int) {
	t.Helper()

	if n == 0 {
		return
	}

	docs := make([]any, n)
	for i := range n {
		docs[i] = bson.D{{Key: "_id", Value: int64(from + i)}, {Key: "v", Value: fmt.Sprintf("doc-%d", from+i)}}
	}

	_, err := coll.InsertMany(t.Context(), docs)
	require.NoError(t, err)
}

func copyCollection(
	t *testing.T,
	client *mongo.Client,
	db, coll string,
	sink copier.Sink,
) copier.Stats {
	t.Helper()

	src, err := copier.OpenCollectionSource(t.Context(), client, db, coll, copier.SourceOptions{})
	require.NoError(t, err)
	defer src.Close(t.Context()) //nolint:errcheck

	stats, err := copier.New(copier.Options{BatchSize: 100}).Run(t.Context(), src, sink)
	require.NoError(t, err)

	return stats
}

func TestIntegrationCopy(t *testing.T) {
	t.Parallel()

	client := startMongo(t)
	source := client.Database("app").Collection("users")
	seed(t, source, 0, 250)

	t.Run("file round trip", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "users.bson")

		sink, err := copier.NewFileSink(path, 4096)
		require.NoError(t, err)

		stats := copyCollection(t, client, "app", "users", sink)
		assert.Equal(t, int64(250), stats.Count)
		assert.Equal(t, 2, stats.Ticks)

		src, err := copier.OpenFileSource(path, 4096)
		require.NoError(t, err)
		defer src.Close(t.Context()) //nolint:errcheck

		res, err := copier.Inspect(t.Context(), src)
		require.NoError(t, err)
		assert.Equal(t, int64(250), res.Count)
		assert.Equal(t, stats.Bytes, res.Bytes)
	})

	t.Run("clear replaces destination", func(t *testing.T) {
		target := client.Database("archive").Collection("users_clear")
		seed(t, target, 10_000, 10)

		sink, err := copier.NewCollectionSink(t.Context(), copier.NewMongoCollection(target),
			copier.CollectionSinkOptions{Clear: true, BatchSize: 100})
		require.NoError(t, err)

		stats := copyCollection(t, client, "app", "users", sink)
		assert.Equal(t, int64(250), stats.Count)

		n, err := target.CountDocuments(t.Context(), bson.D{})
		require.NoError(t, err)
		assert.Equal(t, int64(250), n)
	})

	t.Run("append keeps destination", func(t *testing.T) {
		target := client.Database("archive").Collection("users_append")
		seed(t, target, 10_000, 10)

		sink, err := copier.NewCollectionSink(t.Context(), copier.NewMongoCollection(target),
			copier.CollectionSinkOptions{BatchSize: 100})
		require.NoError(t, err)

		copyCollection(t, client, "app", "users", sink)

		n, err := target.CountDocuments(t.Context(), bson.D{})
		require.NoError(t, err)
		assert.Equal(t, int64(260), n)
	})

	t.Run("duplicate keys report partial insert", func(t *testing.T) {
		target := client.Database("archive").Collection("users_dup")
		seed(t, target, 0, 3)

		sink, err := copier.NewCollectionSink(t.Context(), copier.NewMongoCollection(target),
			copier.CollectionSinkOptions{BatchSize: 100})
		require.NoError(t, err)

		src, err := copier.OpenCollectionSource(t.Context(), client, "app", "users", copier.SourceOptions{})
		require.NoError(t, err)
		defer src.Close(t.Context()) //nolint:errcheck

		_, err = copier.New(copier.Options{BatchSize: 100}).Run(t.Context(), src, sink)

		var insertErr *copier.InsertError
		require.ErrorAs(t, err, &insertErr)
		assert.Equal(t, 100, insertErr.Attempted)
		assert.Equal(t, 97, insertErr.Inserted)

		n, err := target.CountDocuments(t.Context(), bson.D{})
		require.NoError(t, err)
		assert.Equal(t, int64(100), n)
	})

	t.Run("restore from file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "users.bson")

		sink, err := copier.NewFileSink(path, 4096)
		require.NoError(t, err)
		copyCollection(t, client, "app", "users", sink)

		target := client.Database("restored").Collection("users")
		dst, err := copier.NewCollectionSink(t.Context(), copier.NewMongoCollection(target),
			copier.CollectionSinkOptions{Clear: true, BatchSize: 100})
		require.NoError(t, err)

		src, err := copier.OpenFileSource(path, 4096)
		require.NoError(t, err)
		defer src.Close(t.Context()) //nolint:errcheck

		stats, err := copier.New(copier.Options{BatchSize: 100}).Run(t.Context(), src, dst)
		require.NoError(t, err)
		assert.Equal(t, int64(250), stats.Count)

		var doc bson.M
		require.NoError(t, target.FindOne(t.Context(), bson.D{{Key: "_id", Value: int64(42)}}).Decode(&doc))
		assert.Equal(t, "doc-42", doc["v"])
	})
}
