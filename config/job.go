package config

import (
	"github.com/schambon/mongo-dumper/errors"
	"github.com/schambon/mongo-dumper/validate"
)

var (
	// ErrNoDestination means neither --out nor --to-uri was given.
	ErrNoDestination = errors.New("one of --out or --to-uri is required")
	// ErrAmbiguousDestination means both --out and --to-uri were given.
	ErrAmbiguousDestination = errors.New("--out and --to-uri are mutually exclusive")
	// ErrSameCollection means the destination collection is the source collection.
	ErrSameCollection = errors.New("source and destination are the same collection")
)

// UsageError is a configuration error detected before any I/O. The CLI prints the usage message
// for it.
type UsageError struct {
	Reason string
	Err    error
}

func (e *UsageError) Error() string {
	if e.Err == nil {
		return e.Reason
	}

	if e.Reason == "" {
		return e.Err.Error()
	}

	return e.Reason + ": " + e.Err.Error()
}

func (e *UsageError) Unwrap() error {
	return e.Err
}

func usageErrorf(reason string) error {
	return &UsageError{Reason: reason}
}

// Namespace is a database and collection pair.
type Namespace struct {
	Database   string
	Collection string
}

func (ns Namespace) String() string {
	return ns.Database + "." + ns.Collection
}

// DestinationKind tells where documents go.
type DestinationKind int

const (
	DestinationFile DestinationKind = iota + 1
	DestinationCollection
)

func (k DestinationKind) String() string {
	switch k {
	case DestinationFile:
		return "file"
	case DestinationCollection:
		return "collection"
	default:
		return "unknown"
	}
}

// Job is a validated copy configuration. It cannot be modified after construction.
type Job struct {
	sourceURI string
	source    Namespace
	inputFile string

	dest      DestinationKind
	outFile   string
	targetURI string
	target    Namespace
	clear     bool

	batchSize       int
	fileBufferSize  int
	cursorBatchSize int32
	metricsFile     string
}

// NewJob validates cfg for a collection copy (to a file or to a collection). All checks run before
// any connection is attempted.
func NewJob(cfg *Config) (*Job, error) {
	switch {
	case cfg.URI == "":
		return nil, usageErrorf("required flag --uri not set")
	case cfg.Database == "":
		return nil, usageErrorf("required flag --database not set")
	case cfg.Collection == "":
		return nil, usageErrorf("required flag --collection not set")
	case cfg.Out == "" && cfg.ToURI == "":
		return nil, &UsageError{Err: ErrNoDestination}
	case cfg.Out != "" && cfg.ToURI != "":
		return nil, &UsageError{Err: ErrAmbiguousDestination}
	}

	job, err := newJob(cfg)
	if err != nil {
		return nil, err
	}

	job.sourceURI = cfg.URI
	job.source = Namespace{Database: cfg.Database, Collection: cfg.Collection}

	if cfg.Out != "" {
		job.dest = DestinationFile
		job.outFile = cfg.Out

		return job, nil
	}

	job.dest = DestinationCollection
	job.targetURI = cfg.ToURI
	job.target = Namespace{Database: cfg.ToDB, Collection: cfg.ToColl}

	if job.target.Database == "" {
		job.target.Database = cfg.Database
	}

	if job.target.Collection == "" {
		job.target.Collection = cfg.Collection
	}

	if job.targetURI == job.sourceURI && job.target == job.source {
		return nil, &UsageError{Err: ErrSameCollection}
	}

	return job, nil
}

// NewRestoreJob validates cfg for loading a dump file into a collection.
func NewRestoreJob(cfg *Config) (*Job, error) {
	switch {
	case cfg.File == "":
		return nil, usageErrorf("required flag --file not set")
	case cfg.ToURI == "":
		return nil, usageErrorf("required flag --to-uri not set")
	case cfg.ToDB == "":
		return nil, usageErrorf("required flag --to-db not set")
	case cfg.ToColl == "":
		return nil, usageErrorf("required flag --to-coll not set")
	}

	job, err := newJob(cfg)
	if err != nil {
		return nil, err
	}

	job.inputFile = cfg.File
	job.dest = DestinationCollection
	job.targetURI = cfg.ToURI
	job.target = Namespace{Database: cfg.ToDB, Collection: cfg.ToColl}

	return job, nil
}

func newJob(cfg *Config) (*Job, error) {
	err := validate.Struct(cfg.Copy)
	if err != nil {
		return nil, &UsageError{Reason: "invalid option", Err: err}
	}

	bufSize, err := ParseFileBufferSize(cfg.Copy.FileBufferSize)
	if err != nil {
		return nil, &UsageError{Err: err}
	}

	return &Job{
		clear:           cfg.Clear,
		batchSize:       cfg.Copy.BatchSize,
		fileBufferSize:  bufSize,
		cursorBatchSize: cfg.Copy.CursorBatchSize,
		metricsFile:     cfg.Copy.MetricsFile,
	}, nil
}

// SourceURI is the connection string of the source deployment.
func (j *Job) SourceURI() string { return j.sourceURI }

// Source is the source collection.
func (j *Job) Source() Namespace { return j.source }

// InputFile is the dump file read by a restore job.
func (j *Job) InputFile() string { return j.inputFile }

// Destination tells whether the job writes a file or a collection.
func (j *Job) Destination() DestinationKind { return j.dest }

// OutFile is the dump file path for [DestinationFile].
func (j *Job) OutFile() string { return j.outFile }

// TargetURI is the connection string of the destination deployment for [DestinationCollection].
func (j *Job) TargetURI() string { return j.targetURI }

// Target is the destination collection for [DestinationCollection].
func (j *Job) Target() Namespace { return j.target }

// Clear tells whether the destination collection is dropped before the first write.
func (j *Job) Clear() bool { return j.clear }

func (j *Job) BatchSize() int { return j.batchSize }

func (j *Job) FileBufferSize() int { return j.fileBufferSize }

func (j *Job) CursorBatchSize() int32 { return j.cursorBatchSize }

func (j *Job) MetricsFile() string { return j.metricsFile }
