package copier

import (
	"bytes"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/schambon/mongo-dumper/errors"
)

// Document is a single BSON document in its wire encoding, length prefix included.
//
// A Document returned by a [Source] may share memory with the source's read buffer and is only
// valid until the next call to Next. Use [Document.Clone] to retain it.
type Document bson.Raw

// Bytes returns the raw encoding.
func (d Document) Bytes() []byte {
	return d
}

// Len returns the encoded size in bytes.
func (d Document) Len() int {
	return len(d)
}

// Raw returns d as a [bson.Raw] so the driver inserts it verbatim.
func (d Document) Raw() bson.Raw {
	return bson.Raw(d)
}

// Clone returns a copy that does not share memory with d.
func (d Document) Clone() Document {
	return Document(bytes.Clone(d))
}

// Validate checks the length prefix, element structure and terminating null byte.
func (d Document) Validate() error {
	return errors.Wrap(bson.Raw(d).Validate(), "invalid document")
}
