package copier

import (
	"context"
	"time"

	"github.com/schambon/mongo-dumper/errors"
	"github.com/schambon/mongo-dumper/log"
	"github.com/schambon/mongo-dumper/metrics"
)

// DefaultBatchSize is used when [Options.BatchSize] is not positive.
const DefaultBatchSize = 100

// Options configures a [Copier].
type Options struct {
	// BatchSize is the number of documents between two flushes.
	BatchSize int
	// OnProgress is called after every flush triggered by BatchSize with the running count.
	OnProgress func(count int64)
}

// Stats describes a copy run.
type Stats struct {
	Count   int64         // documents written
	Bytes   uint64        // total encoded size
	Flushes int           // Flush calls, including the final one
	Ticks   int           // progress ticks emitted
	Elapsed time.Duration // wall time of the run
}

// Copier drives documents from a [Source] into a [Sink].
type Copier struct {
	batchSize  int
	onProgress func(int64)
}

func New(opts Options) *Copier {
	c := &Copier{
		batchSize:  opts.BatchSize,
		onProgress: opts.OnProgress,
	}

	if c.batchSize <= 0 {
		c.batchSize = DefaultBatchSize
	}

	if c.onProgress == nil {
		c.onProgress = func(int64) {}
	}

	return c
}

// Run copies every document of src into dst and returns once src is exhausted.
//
// dst is flushed after every BatchSize documents and once more at the end, then closed. Run owns
// dst: it is closed exactly once, also on failure, in which case staged documents are not flushed.
// The caller keeps ownership of src.
func (c *Copier) Run(ctx context.Context, src Source, dst Sink) (Stats, error) {
	var stats Stats

	lg := log.New("copy")
	startedAt := time.Now()
	closed := false

	defer func() {
		if !closed {
			err := dst.Close(ctx)
			if err != nil {
				lg.Error(err, "Close sink")
			}
		}
	}()

	for src.Next(ctx) {
		doc := src.Document()

		err := dst.Write(ctx, doc)
		if err != nil {
			stats.Elapsed = time.Since(startedAt)

			return stats, errors.Wrapf(err, "write document #%d", stats.Count+1)
		}

		stats.Count++
		stats.Bytes += uint64(doc.Len()) //nolint:gosec
		metrics.AddCopyReadDocument(doc.Len())

		if stats.Count%int64(c.batchSize) != 0 {
			continue
		}

		err = dst.Flush(ctx)
		if err != nil {
			stats.Elapsed = time.Since(startedAt)

			return stats, errors.Wrap(err, "flush")
		}

		stats.Flushes++
		stats.Ticks++
		c.onProgress(stats.Count)
	}

	err := src.Err()
	if err != nil {
		stats.Elapsed = time.Since(startedAt)

		return stats, errors.Wrap(err, "read")
	}

	err = dst.Flush(ctx)
	if err != nil {
		stats.Elapsed = time.Since(startedAt)

		return stats, errors.Wrap(err, "final flush")
	}

	stats.Flushes++

	closed = true

	err = dst.Close(ctx)
	stats.Elapsed = time.Since(startedAt)

	if err != nil {
		return stats, errors.Wrap(err, "close sink")
	}

	lg.With(log.Count(stats.Count), log.Size(stats.Bytes), log.Elapsed(stats.Elapsed)).
		Info("Copy completed")

	return stats, nil
}
