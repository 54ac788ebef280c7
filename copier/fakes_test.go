package copier_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/schambon/mongo-dumper/copier"
)

func makeDocs(t *testing.T, n int) []copier.Document {
	t.Helper()

	docs := make([]copier.Document, n)
	for i := range n {
		raw, err := bson.Marshal(bson.D{
			{Key: "_id", Value: int64(i)},
			{Key: "name", Value: fmt.Sprintf("user-%04d", i)},
			{Key: "tags", Value: bson.A{"a", i % 7}},
		})
		require.NoError(t, err)

		docs[i] = copier.Document(raw)
	}

	return docs
}

// sliceSource serves docs from memory. When failAt is positive, Next fails once that many
// documents were served.
type sliceSource struct {
	docs   []copier.Document
	pos    int
	failAt int
	err    error
	closed bool
}

func (s *sliceSource) Next(context.Context) bool {
	if s.failAt > 0 && s.pos == s.failAt {
		s.err = errFakeCursor

		return false
	}

	if s.pos == len(s.docs) {
		return false
	}

	s.pos++

	return true
}

func (s *sliceSource) Document() copier.Document {
	return s.docs[s.pos-1]
}

func (s *sliceSource) Err() error {
	return s.err
}

func (s *sliceSource) Close(context.Context) error {
	s.closed = true

	return nil
}

// fakeCollection records calls made by a CollectionSink.
type fakeCollection struct {
	docs    []bson.Raw
	calls   []string
	batches []int

	dropErr error
	// failCall makes the n-th InsertMany call (1-based) reject rejected documents.
	failCall int
	rejected int
}

func (c *fakeCollection) InsertMany(_ context.Context, docs []any) (int, error) {
	c.calls = append(c.calls, "insert")
	c.batches = append(c.batches, len(docs))

	inserted := len(docs)
	if len(c.batches) == c.failCall {
		inserted -= c.rejected
	}

	for _, d := range docs[:inserted] {
		c.docs = append(c.docs, d.(bson.Raw)) //nolint:forcetypeassert
	}

	if inserted != len(docs) {
		return inserted, errFakeInsert
	}

	return inserted, nil
}

func (c *fakeCollection) Drop(context.Context) error {
	c.calls = append(c.calls, "drop")
	if c.dropErr != nil {
		return c.dropErr
	}

	c.docs = nil

	return nil
}

// recordingSink records the sequence of sink calls.
type recordingSink struct {
	calls    []string
	flushErr error
}

func (s *recordingSink) Write(context.Context, copier.Document) error {
	s.calls = append(s.calls, "write")

	return nil
}

func (s *recordingSink) Flush(context.Context) error {
	s.calls = append(s.calls, "flush")

	return s.flushErr
}

func (s *recordingSink) Close(context.Context) error {
	s.calls = append(s.calls, "close")

	return nil
}

func (s *recordingSink) count(call string) int {
	n := 0
	for _, c := range s.calls {
		if c == call {
			n++
		}
	}

	return n
}
