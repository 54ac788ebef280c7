package copier

import (
	"bufio"
	"context"
	"os"
	"time"

	"github.com/schambon/mongo-dumper/errors"
	"github.com/schambon/mongo-dumper/log"
	"github.com/schambon/mongo-dumper/metrics"
)

// FileSink appends raw documents to a file, with no framing between them.
type FileSink struct {
	file   *os.File
	w      *bufio.Writer
	staged int
	closed bool
}

var _ Sink = (*FileSink)(nil)

// NewFileSink creates or truncates path. Writes go through a buffer of bufferSize bytes.
func NewFileSink(path string, bufferSize int) (*FileSink, error) {
	file, err := os.Create(path)
	if err != nil {
		return nil, errors.Wrap(err, "create")
	}

	return &FileSink{
		file: file,
		w:    bufio.NewWriterSize(file, bufferSize),
	}, nil
}

func (s *FileSink) Write(_ context.Context, doc Document) error {
	if s.closed {
		return ErrSinkClosed
	}

	_, err := s.w.Write(doc)
	if err != nil {
		return errors.Wrap(err, "write")
	}

	s.staged++

	return nil
}

func (s *FileSink) Flush(ctx context.Context) error {
	if s.closed {
		return ErrSinkClosed
	}

	startedAt := time.Now()

	err := s.w.Flush()
	if err != nil {
		return errors.Wrap(err, "flush")
	}

	metrics.ObserveFlush("file", s.staged, time.Since(startedAt))
	metrics.AddCopyWrittenDocumentCount(s.staged)
	log.Ctx(ctx).Tracef("Flushed %d documents to %s", s.staged, s.file.Name())

	s.staged = 0

	return nil
}

// Close closes the file. Buffered bytes that were not flushed are discarded.
func (s *FileSink) Close(context.Context) error {
	if s.closed {
		return ErrSinkClosed
	}

	s.closed = true

	return errors.Wrap(s.file.Close(), "close")
}
