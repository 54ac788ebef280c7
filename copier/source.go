package copier

import (
	"bufio"
	"context"
	"encoding/binary"
	"io"
	"os"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"

	"github.com/schambon/mongo-dumper/errors"
)

// Source is a finite, forward-only sequence of documents.
type Source interface {
	// Next advances to the next document. It returns false when the sequence is exhausted or
	// an error occurred; check Err.
	Next(ctx context.Context) bool
	// Document returns the current document. It is valid until the next call to Next.
	Document() Document
	Err() error
	Close(ctx context.Context) error
}

// SourceOptions configures a [CollectionSource].
type SourceOptions struct {
	// CursorBatchSize is the number of documents per getMore. 0 lets the server decide.
	CursorBatchSize int32
}

// CollectionSource reads every document of a collection in server order.
type CollectionSource struct {
	cur *mongo.Cursor
}

var _ Source = (*CollectionSource)(nil)

// OpenCollectionSource runs an unfiltered find on db.coll. Reads prefer secondaries.
func OpenCollectionSource(
	ctx context.Context,
	m *mongo.Client,
	db string,
	coll string,
	opts SourceOptions,
) (*CollectionSource, error) {
	collOpts := options.Collection().SetReadPreference(readpref.SecondaryPreferred())

	findOpts := options.Find()
	if opts.CursorBatchSize > 0 {
		findOpts.SetBatchSize(opts.CursorBatchSize)
	}

	cur, err := m.Database(db).Collection(coll, collOpts).Find(ctx, bson.D{}, findOpts)
	if err != nil {
		return nil, errors.Wrap(err, "find")
	}

	return &CollectionSource{cur: cur}, nil
}

func (s *CollectionSource) Next(ctx context.Context) bool {
	return s.cur.Next(ctx)
}

func (s *CollectionSource) Document() Document {
	return Document(s.cur.Current)
}

func (s *CollectionSource) Err() error {
	return errors.Wrap(s.cur.Err(), "cursor")
}

func (s *CollectionSource) Close(ctx context.Context) error {
	return errors.Wrap(s.cur.Close(ctx), "close cursor")
}

// MaxDocumentSize bounds the length prefix accepted from a dump file: the server's 16 MiB document
// limit plus the headroom it allows for internal fields.
const MaxDocumentSize = 16*1024*1024 + 16*1024

// minDocumentSize is the encoding of an empty document: length prefix and terminating null.
const minDocumentSize = 5

// ErrInvalidLength means a record's length prefix is out of range.
var ErrInvalidLength = errors.New("invalid length")

var errMissingNull = errors.New("missing terminating null byte")

// FileSource reads consecutive BSON documents from a dump file.
type FileSource struct {
	r      io.Reader
	closer io.Closer
	doc    Document
	err    error
	n      int64
}

var _ Source = (*FileSource)(nil)

// OpenFileSource opens path for reading through a buffer of bufSize bytes.
func OpenFileSource(path string, bufSize int) (*FileSource, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open")
	}

	src := NewFileSource(bufio.NewReaderSize(file, bufSize))
	src.closer = file

	return src, nil
}

// NewFileSource reads documents from r. Closing the source does not close r.
func NewFileSource(r io.Reader) *FileSource {
	return &FileSource{r: r}
}

func (s *FileSource) Next(ctx context.Context) bool {
	if s.err != nil {
		return false
	}

	err := ctx.Err()
	if err != nil {
		s.err = err

		return false
	}

	doc, err := s.readDocument()
	if err != nil {
		s.doc = nil
		if !errors.Is(err, io.EOF) {
			s.err = errors.Wrapf(err, "read document #%d", s.n+1)
		}

		return false
	}

	s.doc = doc
	s.n++

	return true
}

// readDocument returns io.EOF only at a record boundary.
func (s *FileSource) readDocument() (Document, error) {
	var prefix [4]byte

	_, err := io.ReadFull(s.r, prefix[:])
	if err != nil {
		return nil, err //nolint:wrapcheck
	}

	length := int32(binary.LittleEndian.Uint32(prefix[:])) //nolint:gosec
	if length < minDocumentSize || length > MaxDocumentSize {
		return nil, errors.Errorf("%w %d", ErrInvalidLength, length)
	}

	buf := make([]byte, length)
	copy(buf, prefix[:])

	_, err = io.ReadFull(s.r, buf[4:])
	if err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}

		return nil, err //nolint:wrapcheck
	}

	if buf[length-1] != 0 {
		return nil, errMissingNull
	}

	return Document(buf), nil
}

func (s *FileSource) Document() Document {
	return s.doc
}

func (s *FileSource) Err() error {
	return s.err
}

func (s *FileSource) Close(context.Context) error {
	if s.closer == nil {
		return nil
	}

	err := s.closer.Close()
	s.closer = nil

	return errors.Wrap(err, "close")
}
