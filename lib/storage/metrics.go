package storage

import (
	"github.com/VictoriaMetrics/metrics"
)

// --------------------------------------------------------------------------
// Metrics (exported through metrics.WritePrometheus)
// --------------------------------------------------------------------------

var (
	readSessions   = metrics.NewCounter(`bkv_sessions_opened_total{kind="read"}`)
	writeSessions  = metrics.NewCounter(`bkv_sessions_opened_total{kind="write"}`)
	deleteSessions = metrics.NewCounter(`bkv_sessions_opened_total{kind="delete"}`)

	readEntries       = metrics.NewCounter("bkv_read_entries_total")
	readBufferRetries = metrics.NewCounter("bkv_read_buffer_retries_total")
	nativeFailures    = metrics.NewCounter("bkv_native_failures_total")
	valuesWritten     = metrics.NewCounter("bkv_values_written_total")
	keysRemoved       = metrics.NewCounter("bkv_keys_removed_total")
)
