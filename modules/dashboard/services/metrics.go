package services

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/plantboard/plantboard/pkg/csvimport"
)

var (
	importRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "plantboard",
		Subsystem: "csv_import",
		Name:      "runs_total",
		Help:      "Total number of CSV import runs broken down by kind and outcome.",
	}, []string{"kind", "outcome"})

	importRecords = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "plantboard",
		Subsystem: "csv_import",
		Name:      "records_total",
		Help:      "Total number of records written by CSV imports.",
	}, []string{"kind"})

	importRowErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "plantboard",
		Subsystem: "csv_import",
		Name:      "row_errors_total",
		Help:      "Total number of row errors reported by CSV imports.",
	}, []string{"kind"})

	importDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "plantboard",
		Subsystem: "csv_import",
		Name:      "duration_seconds",
		Help:      "Duration distribution of CSV import runs.",
		Buckets: []float64{
			0.005, 0.01, 0.02, 0.05,
			0.1, 0.2, 0.5, 1,
			2, 5, 10, 30,
		},
	}, []string{"kind"})

	exportRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "plantboard",
		Subsystem: "export",
		Name:      "runs_total",
		Help:      "Total number of data exports broken down by kind and format.",
	}, []string{"kind", "format"})
)

func recordImportMetrics(kind csvimport.Kind, result csvimport.Result, elapsed time.Duration) {
	outcome := "failed"
	if result.Success {
		outcome = "succeeded"
	}
	importRuns.With(prometheus.Labels{"kind": string(kind), "outcome": outcome}).Inc()
	importRecords.With(prometheus.Labels{"kind": string(kind)}).Add(float64(result.RecordsProcessed))
	importRowErrors.With(prometheus.Labels{"kind": string(kind)}).Add(float64(len(result.Errors)))
	importDuration.With(prometheus.Labels{"kind": string(kind)}).Observe(elapsed.Seconds())
}

func recordExportMetrics(kind, format string) {
	exportRuns.With(prometheus.Labels{"kind": kind, "format": format}).Inc()
}
