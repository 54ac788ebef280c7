package metrics_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schambon/mongo-dumper/metrics"
)

func TestWriteTextfile(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	metrics.Init(reg)

	metrics.AddCopyReadDocument(128)
	metrics.ObserveFlush("file", 100, 3*time.Millisecond)
	metrics.SetCopyResult(true, 2*time.Second)

	path := filepath.Join(t.TempDir(), "mongo_dumper.prom")
	require.NoError(t, metrics.WriteTextfile(path, reg))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	text := string(data)
	assert.Contains(t, text, "mongo_dumper_copy_read_document_total")
	assert.Contains(t, text, `mongo_dumper_copy_flushes_total{sink="file"}`)
	assert.Contains(t, text, "mongo_dumper_copy_success 1")
	assert.Contains(t, text, "mongo_dumper_copy_duration_seconds 2")
}

func TestWriteTextfileBadPath(t *testing.T) {
	t.Parallel()

	err := metrics.WriteTextfile(filepath.Join(t.TempDir(), "missing", "x.prom"), prometheus.NewRegistry())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "write metrics textfile")
}
