package copier

import (
	"context"

	"github.com/schambon/mongo-dumper/errors"
)

// InspectResult summarizes the documents of a source.
type InspectResult struct {
	Count   int64
	Bytes   uint64
	MinSize int
	MaxSize int
}

// Inspect reads src to the end and validates every document. It stops at the first invalid
// document; the result then covers the documents before it.
func Inspect(ctx context.Context, src Source) (InspectResult, error) {
	var res InspectResult

	for src.Next(ctx) {
		doc := src.Document()

		err := doc.Validate()
		if err != nil {
			return res, errors.Wrapf(err, "document #%d", res.Count+1)
		}

		size := doc.Len()
		if res.Count == 0 || size < res.MinSize {
			res.MinSize = size
		}

		if size > res.MaxSize {
			res.MaxSize = size
		}

		res.Count++
		res.Bytes += uint64(size) //nolint:gosec
	}

	return res, errors.Wrap(src.Err(), "read")
}
