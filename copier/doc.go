// Package copier streams raw BSON documents from a [Source] into a [Sink].
//
// Documents are never decoded: the bytes read from the source cursor (or a dump file) are the
// bytes written to the destination. A [Copier] pulls documents one at a time, asks the sink to
// flush every BatchSize documents and reports one progress tick per flush.
package copier
