package copier

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/schambon/mongo-dumper/errors"
	"github.com/schambon/mongo-dumper/log"
	"github.com/schambon/mongo-dumper/metrics"
)

// Inserter is the part of a collection used by [CollectionSink].
type Inserter interface {
	// InsertMany inserts docs and returns how many were committed, also on error.
	InsertMany(ctx context.Context, docs []any) (int, error)
	Drop(ctx context.Context) error
}

// InsertError reports a failed bulk insert. Documents inserted before the failure stay committed.
type InsertError struct {
	Attempted int
	Inserted  int
	Err       error
}

func (e *InsertError) Error() string {
	return fmt.Sprintf("insert %d documents (%d inserted, %d failed): %v",
		e.Attempted, e.Inserted, e.Failed(), e.Err)
}

func (e *InsertError) Unwrap() error {
	return e.Err
}

// Failed is the number of documents not inserted.
func (e *InsertError) Failed() int {
	return e.Attempted - e.Inserted
}

// CollectionSinkOptions configures a [CollectionSink].
type CollectionSinkOptions struct {
	// Clear drops the destination collection before the first write.
	Clear bool
	// BatchSize is the expected number of documents per flush.
	BatchSize int
}

// CollectionSink buffers documents and inserts them with one unordered bulk insert per flush.
type CollectionSink struct {
	target Inserter
	batch  []any
	closed bool
}

var _ Sink = (*CollectionSink)(nil)

// NewCollectionSink returns a sink writing to target. When opts.Clear is set the target is dropped
// first; a failed drop yields no sink.
func NewCollectionSink(
	ctx context.Context,
	target Inserter,
	opts CollectionSinkOptions,
) (*CollectionSink, error) {
	if opts.Clear {
		err := target.Drop(ctx)
		if err != nil {
			return nil, errors.Wrap(err, "drop")
		}

		log.Ctx(ctx).Info("Dropped destination collection")
	}

	return &CollectionSink{
		target: target,
		batch:  make([]any, 0, max(opts.BatchSize, 1)),
	}, nil
}

// Write stages a copy of doc. It does no I/O.
func (s *CollectionSink) Write(_ context.Context, doc Document) error {
	if s.closed {
		return ErrSinkClosed
	}

	s.batch = append(s.batch, doc.Clone().Raw())

	return nil
}

// Flush inserts the staged documents. An empty batch is not sent.
func (s *CollectionSink) Flush(ctx context.Context) error {
	if s.closed {
		return ErrSinkClosed
	}

	if len(s.batch) == 0 {
		return nil
	}

	startedAt := time.Now()
	attempted := len(s.batch)

	inserted, err := s.target.InsertMany(ctx, s.batch)
	metrics.AddCopyWrittenDocumentCount(inserted)

	if err != nil {
		metrics.AddCopyInsertErrors(attempted - inserted)

		return &InsertError{Attempted: attempted, Inserted: inserted, Err: err}
	}

	metrics.ObserveFlush("collection", attempted, time.Since(startedAt))
	log.Ctx(ctx).Tracef("Inserted %d documents", inserted)

	clear(s.batch)
	s.batch = s.batch[:0]

	return nil
}

// Close discards any staged documents.
func (s *CollectionSink) Close(context.Context) error {
	if s.closed {
		return ErrSinkClosed
	}

	s.closed = true
	s.batch = nil

	return nil
}

//nolint:gochecknoglobals
var insertManyOptions = options.InsertMany().SetOrdered(false)

// MongoCollection adapts a [mongo.Collection] to [Inserter].
type MongoCollection struct {
	coll *mongo.Collection
}

var _ Inserter = (*MongoCollection)(nil)

func NewMongoCollection(coll *mongo.Collection) *MongoCollection {
	return &MongoCollection{coll: coll}
}

func (c *MongoCollection) InsertMany(ctx context.Context, docs []any) (int, error) {
	res, err := c.coll.InsertMany(ctx, docs, insertManyOptions)
	if err != nil {
		return insertedCount(len(docs), err), errors.Wrap(err, "insert many")
	}

	return len(res.InsertedIDs), nil
}

func (c *MongoCollection) Drop(ctx context.Context) error {
	return errors.Wrap(c.coll.Drop(ctx), "drop collection")
}

// insertedCount derives the number of committed documents from an unordered insert error. Each
// write error stands for one rejected document. Any other failure is counted as nothing inserted.
func insertedCount(attempted int, err error) int {
	var bwe mongo.BulkWriteException
	if !errors.As(err, &bwe) {
		return 0
	}

	return max(attempted-len(bwe.WriteErrors), 0)
}
