package controllers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/plantboard/plantboard/modules/dashboard/services"
	"github.com/plantboard/plantboard/pkg/application"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ExportController serves spreadsheet snapshots of dashboard data.
type ExportController struct {
	app      application.Application
	exports  *services.ExcelExportService
	basePath string
}

func NewExportController(app application.Application) application.Controller {
	return &ExportController{
		app:      app,
		exports:  app.Service(services.ExcelExportService{}).(*services.ExcelExportService),
		basePath: "/api/dashboard/export",
	}
}

func (c *ExportController) Key() string {
	return c.basePath
}

func (c *ExportController) Register(r *mux.Router) {
	router := r.PathPrefix(c.basePath).Subrouter()
	router.HandleFunc("/kpi", c.ExportKPI).Methods(http.MethodGet)
	router.HandleFunc("/staff", c.ExportStaff).Methods(http.MethodGet)
}

func (c *ExportController) ExportKPI(w http.ResponseWriter, r *http.Request) {
	from, to, ok := dateRangeQuery(w, r)
	if !ok {
		return
	}
	format, ok := formatQuery(w, r)
	if !ok {
		return
	}

	data, filename, err := c.exports.ExportKPIData(r.Context(), format, from, to)
	if err != nil {
		writeAPIError(w, r, http.StatusInternalServerError, "DASHBOARD_EXPORT_FAILED", "failed to export kpi data")
		return
	}
	writeAttachment(w, format, filename, data)
}

func (c *ExportController) ExportStaff(w http.ResponseWriter, r *http.Request) {
	format, ok := formatQuery(w, r)
	if !ok {
		return
	}
	department := strings.TrimSpace(r.URL.Query().Get("department"))

	data, filename, err := c.exports.ExportStaff(r.Context(), format, department)
	if err != nil {
		writeAPIError(w, r, http.StatusInternalServerError, "DASHBOARD_EXPORT_FAILED", "failed to export staff data")
		return
	}
	writeAttachment(w, format, filename, data)
}

func formatQuery(w http.ResponseWriter, r *http.Request) (services.ExportFormat, bool) {
	raw := strings.TrimSpace(r.URL.Query().Get("format"))
	if raw == "" {
		return services.FormatXLSX, true
	}
	format := services.ExportFormat(raw)
	if !format.IsValid() {
		writeAPIError(w, r, http.StatusBadRequest, "DASHBOARD_INVALID_FORMAT", "format must be 'xlsx' or 'csv'")
		return "", false
	}
	return format, true
}

func writeAttachment(w http.ResponseWriter, format services.ExportFormat, filename string, data []byte) {
	contentType := xlsxContentType
	if format == services.FormatCSV {
		contentType = "text/csv"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
