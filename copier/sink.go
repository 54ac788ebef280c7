package copier

import (
	"context"

	"github.com/schambon/mongo-dumper/errors"
)

// ErrSinkClosed is returned by every [Sink] method called after Close.
var ErrSinkClosed = errors.New("sink closed")

// Sink is a destination for documents.
//
// A sink is open from construction until Close. Write stages a document, Flush commits everything
// staged so far and Close releases resources without flushing.
type Sink interface {
	Write(ctx context.Context, doc Document) error
	Flush(ctx context.Context) error
	Close(ctx context.Context) error
}
