package log

import (
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"
)

// Attr attaches a field to a logger context.
type Attr func(zerolog.Context) zerolog.Context

// NS is the "db.collection" namespace.
func NS(db, coll string) Attr {
	return func(c zerolog.Context) zerolog.Context {
		return c.Str("ns", db+"."+coll)
	}
}

// Count is a number of documents.
func Count(n int64) Attr {
	return func(c zerolog.Context) zerolog.Context {
		return c.Int64("count", n)
	}
}

// Size is a humanized number of bytes.
func Size(n uint64) Attr {
	return func(c zerolog.Context) zerolog.Context {
		return c.Str("size", humanize.Bytes(n))
	}
}

func Elapsed(d time.Duration) Attr {
	return func(c zerolog.Context) zerolog.Context {
		return c.Str("elapsed", d.Round(time.Millisecond).String())
	}
}

// Field is an arbitrary key/value pair.
func Field(key string, val any) Attr {
	return func(c zerolog.Context) zerolog.Context {
		return c.Interface(key, val)
	}
}
