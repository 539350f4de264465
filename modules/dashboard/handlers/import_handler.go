package handlers

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sirupsen/logrus"

	"github.com/plantboard/plantboard/modules/dashboard/services"
	"github.com/plantboard/plantboard/pkg/application"
	"github.com/plantboard/plantboard/pkg/configuration"
)

var (
	lastImportTimestamp = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "plantboard",
		Subsystem: "csv_import",
		Name:      "last_run_timestamp_seconds",
		Help:      "Unix timestamp of the most recent CSV import per kind.",
	}, []string{"kind"})

	lastImportSuccess = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "plantboard",
		Subsystem: "csv_import",
		Name:      "last_run_success",
		Help:      "Whether the most recent CSV import per kind succeeded (1) or not (0).",
	}, []string{"kind"})
)

type ImportEventsHandler struct {
	app    application.Application
	logger *logrus.Logger
}

func RegisterImportEventHandlers(app application.Application) {
	handler := &ImportEventsHandler{
		app:    app,
		logger: configuration.Use().Logger(),
	}
	app.EventPublisher().Subscribe(handler.onImportCompleted)
}

func (h *ImportEventsHandler) onImportCompleted(event *services.ImportCompletedEvent) {
	labels := prometheus.Labels{"kind": string(event.Kind)}
	lastImportTimestamp.With(labels).Set(float64(time.Now().Unix()))

	success := 0.0
	if event.Result.Success {
		success = 1.0
	}
	lastImportSuccess.With(labels).Set(success)

	if !event.Result.Success {
		h.logger.WithFields(logrus.Fields{
			"kind":              string(event.Kind),
			"records_processed": event.Result.RecordsProcessed,
			"row_errors":        len(event.Result.Errors),
		}).Warn("csv import finished with errors")
	}
}
