package controllers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/plantboard/plantboard/modules/dashboard/services"
	"github.com/plantboard/plantboard/pkg/application"
	"github.com/plantboard/plantboard/pkg/configuration"
	"github.com/plantboard/plantboard/pkg/csvimport"
)

// CSVUploadRequest is the upload envelope. Type selects the ingestion kind
// and Data carries the raw CSV text.
type CSVUploadRequest struct {
	Type string `json:"type"`
	Data string `json:"data"`
}

// CSVUploadController accepts CSV payloads for ingestion. It registers
// without the transaction middleware: rows must commit one at a time so a
// failed row cannot roll back earlier ones.
type CSVUploadController struct {
	app      application.Application
	imports  *services.CSVImportService
	basePath string
	maxBytes int64
}

func NewCSVUploadController(app application.Application) application.Controller {
	return &CSVUploadController{
		app:      app,
		imports:  app.Service(services.CSVImportService{}).(*services.CSVImportService),
		basePath: "/api/dashboard/upload-csv",
		maxBytes: configuration.Use().CSVMaxUploadSize,
	}
}

func (c *CSVUploadController) Key() string {
	return c.basePath
}

func (c *CSVUploadController) Register(r *mux.Router) {
	router := r.PathPrefix(c.basePath).Subrouter()
	router.HandleFunc("", c.Upload).Methods(http.MethodPost)
}

func (c *CSVUploadController) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, c.maxBytes)

	var req CSVUploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeAPIError(w, r, http.StatusRequestEntityTooLarge, "DASHBOARD_PAYLOAD_TOO_LARGE", "request body too large")
			return
		}
		writeAPIError(w, r, http.StatusBadRequest, "DASHBOARD_INVALID_JSON", "invalid json")
		return
	}

	// Row and kind problems are reported inside the result body, not as
	// HTTP errors.
	result := c.imports.Import(r.Context(), csvimport.Kind(req.Type), req.Data)
	writeJSON(w, http.StatusOK, result)
}
