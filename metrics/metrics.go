package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/schambon/mongo-dumper/errors"
)

const metricNamespace = "mongo_dumper"

// Counters.
var (
	//nolint:gochecknoglobals
	copyReadDocumentTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name:      "copy_read_document_total",
		Help:      "Total count of the documents read from the source.",
		Namespace: metricNamespace,
	})

	//nolint:gochecknoglobals
	copyReadSizeBytesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name:      "copy_read_size_bytes_total",
		Help:      "Total size of the read documents in bytes.",
		Namespace: metricNamespace,
	})

	//nolint:gochecknoglobals
	copyWrittenDocumentTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name:      "copy_written_document_total",
		Help:      "Total count of the documents committed to the destination.",
		Namespace: metricNamespace,
	})

	//nolint:gochecknoglobals
	copyFlushesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:      "copy_flushes_total",
		Help:      "Total number of sink flushes.",
		Namespace: metricNamespace,
	}, []string{"sink"})

	//nolint:gochecknoglobals
	copyInsertErrorsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name:      "copy_insert_errors_total",
		Help:      "Total number of documents rejected by a bulk insert.",
		Namespace: metricNamespace,
	})
)

// Flush metrics.
var (
	//nolint:gochecknoglobals
	copyFlushBatchSize = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:      "copy_flush_batch_size",
		Help:      "Number of documents per flush.",
		Namespace: metricNamespace,
		Buckets:   []float64{1, 10, 50, 100, 250, 500, 1000, 5000},
	}, []string{"sink"})

	//nolint:gochecknoglobals
	copyFlushDurationSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:      "copy_flush_duration_seconds",
		Help:      "Duration of flushes in seconds.",
		Namespace: metricNamespace,
		Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
	}, []string{"sink"})
)

// Gauges.
var (
	//nolint:gochecknoglobals
	estimatedDocumentCount = prometheus.NewGauge(prometheus.GaugeOpts{
		Name:      "estimated_document_count",
		Help:      "Estimated number of documents in the source collection.",
		Namespace: metricNamespace,
	})

	//nolint:gochecknoglobals
	copyDurationSeconds = prometheus.NewGauge(prometheus.GaugeOpts{
		Name:      "copy_duration_seconds",
		Help:      "Duration of the last copy run in seconds.",
		Namespace: metricNamespace,
	})

	//nolint:gochecknoglobals
	copySuccess = prometheus.NewGauge(prometheus.GaugeOpts{
		Name:      "copy_success",
		Help:      "1 if the last copy run completed, 0 otherwise.",
		Namespace: metricNamespace,
	})
)

// Init initializes and registers the metrics.
func Init(reg prometheus.Registerer) {
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{
		Namespace: metricNamespace,
	}))

	reg.MustRegister(
		copyReadDocumentTotal,
		copyReadSizeBytesTotal,
		copyWrittenDocumentTotal,
		copyFlushesTotal,
		copyInsertErrorsTotal,
		copyFlushBatchSize,
		copyFlushDurationSeconds,
		estimatedDocumentCount,
		copyDurationSeconds,
		copySuccess,
	)
}

// WriteTextfile writes the metrics gathered by g to path in the Prometheus text format, suitable
// for a node_exporter textfile collector.
func WriteTextfile(path string, g prometheus.Gatherer) error {
	return errors.Wrap(prometheus.WriteToTextfile(path, g), "write metrics textfile")
}

// AddCopyReadDocument increments the read document and read bytes counters.
func AddCopyReadDocument(size int) {
	copyReadDocumentTotal.Inc()
	copyReadSizeBytesTotal.Add(float64(size))
}

// AddCopyWrittenDocumentCount increments the count of documents committed to the destination.
func AddCopyWrittenDocumentCount(v int) {
	copyWrittenDocumentTotal.Add(float64(v))
}

// AddCopyInsertErrors increments the count of rejected documents.
func AddCopyInsertErrors(v int) {
	copyInsertErrorsTotal.Add(float64(v))
}

// ObserveFlush records one flush of n documents by the named sink.
func ObserveFlush(sink string, n int, d time.Duration) {
	copyFlushesTotal.WithLabelValues(sink).Inc()
	copyFlushBatchSize.WithLabelValues(sink).Observe(float64(n))
	copyFlushDurationSeconds.WithLabelValues(sink).Observe(d.Seconds())
}

// SetEstimatedDocumentCount sets the estimated source document count gauge.
func SetEstimatedDocumentCount(v int64) {
	estimatedDocumentCount.Set(float64(v))
}

// SetCopyResult records the outcome and duration of a run.
func SetCopyResult(ok bool, dur time.Duration) {
	copyDurationSeconds.Set(dur.Seconds())

	if ok {
		copySuccess.Set(1)
	} else {
		copySuccess.Set(0)
	}
}
