package storage

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

//nolint:gochecknoglobals // Prometheus metrics
var (
	RecordsWrittenTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "suidash_storage_records_written_total",
		Help: "Fetch audit records written to storage",
	})

	RecordWriteErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "suidash_storage_record_write_errors_total",
		Help: "Fetch audit records that failed to write",
	})

	RecordsDroppedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "suidash_storage_records_dropped_total",
		Help: "Fetch audit records dropped because the recorder buffer was full",
	})
)
