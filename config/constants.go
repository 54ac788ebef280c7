package config

import (
	"time"

	"github.com/schambon/mongo-dumper/copier"
)

const (
	// DefaultBatchSize is the --batch-size default. The copier owns the value.
	DefaultBatchSize = copier.DefaultBatchSize

	// DefaultFileBufferSize is the size of the buffered writer in front of a dump file.
	DefaultFileBufferSize = "4MiB"

	// MinFileBufferSize is the smallest accepted --file-buffer-size.
	MinFileBufferSize = "4KiB"

	// MaxFileBufferSize is the largest accepted --file-buffer-size.
	MaxFileBufferSize = "1GiB"

	// DefaultMongoDBOperationTimeout bounds connect and ping.
	DefaultMongoDBOperationTimeout = 5 * time.Minute

	// DisconnectTimeout bounds client disconnect on exit.
	DisconnectTimeout = 10 * time.Second

	// AppName is reported to the server in the client handshake.
	AppName = "mongo-dumper"
)
