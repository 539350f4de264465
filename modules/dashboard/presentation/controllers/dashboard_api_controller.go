package controllers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/plantboard/plantboard/modules/dashboard/domain/aggregates/kpi"
	"github.com/plantboard/plantboard/modules/dashboard/domain/aggregates/staff"
	"github.com/plantboard/plantboard/modules/dashboard/presentation/mappers"
	"github.com/plantboard/plantboard/modules/dashboard/services"
	"github.com/plantboard/plantboard/pkg/application"
	"github.com/plantboard/plantboard/pkg/configuration"
	"github.com/plantboard/plantboard/pkg/middleware"
)

type DashboardAPIController struct {
	app      application.Application
	kpis     *services.KPIService
	staff    *services.StaffService
	basePath string
}

func NewDashboardAPIController(app application.Application) application.Controller {
	return &DashboardAPIController{
		app:      app,
		kpis:     app.Service(services.KPIService{}).(*services.KPIService),
		staff:    app.Service(services.StaffService{}).(*services.StaffService),
		basePath: "/api/dashboard",
	}
}

func (c *DashboardAPIController) Key() string {
	return c.basePath
}

func (c *DashboardAPIController) Register(r *mux.Router) {
	router := r.PathPrefix(c.basePath).Subrouter()
	router.HandleFunc("/kpi", c.ListKPI).Methods(http.MethodGet)
	router.HandleFunc("/kpi/summary", c.KPISummary).Methods(http.MethodGet)
	router.HandleFunc("/kpi/{id:[0-9]+}", c.GetKPI).Methods(http.MethodGet)
	router.HandleFunc("/staff", c.ListStaff).Methods(http.MethodGet)
	router.HandleFunc("/staff/departments", c.ListDepartments).Methods(http.MethodGet)
	router.HandleFunc("/staff/{id:[0-9]+}", c.GetStaff).Methods(http.MethodGet)

	writeRouter := r.PathPrefix(c.basePath).Subrouter()
	writeRouter.Use(middleware.WithTransaction())
	writeRouter.HandleFunc("/kpi", c.CreateKPI).Methods(http.MethodPost)
	writeRouter.HandleFunc("/kpi/{id:[0-9]+}", c.UpdateKPI).Methods(http.MethodPatch)
	writeRouter.HandleFunc("/kpi/{id:[0-9]+}", c.DeleteKPI).Methods(http.MethodDelete)
	writeRouter.HandleFunc("/staff", c.CreateStaff).Methods(http.MethodPost)
	writeRouter.HandleFunc("/staff/{id:[0-9]+}", c.UpdateStaff).Methods(http.MethodPatch)
	writeRouter.HandleFunc("/staff/{id:[0-9]+}", c.DeleteStaff).Methods(http.MethodDelete)
}

func (c *DashboardAPIController) ListKPI(w http.ResponseWriter, r *http.Request) {
	from, to, ok := dateRangeQuery(w, r)
	if !ok {
		return
	}
	limit, offset := limitOffsetQuery(r)
	ascending := strings.EqualFold(strings.TrimSpace(r.URL.Query().Get("order")), "asc")

	params := &kpi.FindParams{
		From:      from,
		To:        to,
		Limit:     limit,
		Offset:    offset,
		Ascending: ascending,
	}

	items, err := c.kpis.GetPaginated(r.Context(), params)
	if err != nil {
		writeAPIError(w, r, http.StatusInternalServerError, "DASHBOARD_INTERNAL", "internal error")
		return
	}
	total, err := c.kpis.Count(r.Context(), &kpi.FindParams{From: from, To: to})
	if err != nil {
		writeAPIError(w, r, http.StatusInternalServerError, "DASHBOARD_INTERNAL", "internal error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"items": mappers.KPIListToViewModels(items),
		"total": total,
	})
}

func (c *DashboardAPIController) KPISummary(w http.ResponseWriter, r *http.Request) {
	from, to, ok := dateRangeQuery(w, r)
	if !ok {
		return
	}

	summary, err := c.kpis.Summary(r.Context(), from, to)
	if err != nil {
		writeAPIError(w, r, http.StatusInternalServerError, "DASHBOARD_INTERNAL", "internal error")
		return
	}
	writeJSON(w, http.StatusOK, mappers.SummaryToViewModel(summary))
}

func (c *DashboardAPIController) GetKPI(w http.ResponseWriter, r *http.Request) {
	id, ok := idVar(w, r)
	if !ok {
		return
	}

	sample, err := c.kpis.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, kpi.ErrNotFound) {
			writeAPIError(w, r, http.StatusNotFound, "DASHBOARD_NOT_FOUND", "kpi sample not found")
			return
		}
		writeAPIError(w, r, http.StatusInternalServerError, "DASHBOARD_INTERNAL", "internal error")
		return
	}
	writeJSON(w, http.StatusOK, mappers.KPIToViewModel(sample))
}

func (c *DashboardAPIController) CreateKPI(w http.ResponseWriter, r *http.Request) {
	var dto kpi.CreateDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeAPIError(w, r, http.StatusBadRequest, "DASHBOARD_INVALID_JSON", "invalid json")
		return
	}

	if errs, ok := dto.Ok(r.Context()); !ok {
		message := firstMessage(errs, "WeekDate", "Efficiency", "ProductionRate", "DefectsPPM")
		writeAPIError(w, r, http.StatusUnprocessableEntity, "DASHBOARD_VALIDATION_FAILED", message)
		return
	}

	created, err := c.kpis.Create(r.Context(), &dto)
	if err != nil {
		if errors.Is(err, kpi.ErrWeekDateTaken) {
			writeAPIError(w, r, http.StatusConflict, "DASHBOARD_WEEK_CONFLICT", "kpi sample already exists for week date")
			return
		}
		writeAPIError(w, r, http.StatusInternalServerError, "DASHBOARD_INTERNAL", "internal error")
		return
	}
	writeJSON(w, http.StatusCreated, mappers.KPIToViewModel(created))
}

func (c *DashboardAPIController) UpdateKPI(w http.ResponseWriter, r *http.Request) {
	id, ok := idVar(w, r)
	if !ok {
		return
	}

	var dto kpi.UpdateDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeAPIError(w, r, http.StatusBadRequest, "DASHBOARD_INVALID_JSON", "invalid json")
		return
	}
	if dto.IsEmpty() {
		writeAPIError(w, r, http.StatusUnprocessableEntity, "DASHBOARD_VALIDATION_FAILED", "no fields to update")
		return
	}
	if errs, ok := dto.Ok(r.Context()); !ok {
		message := firstMessage(errs, "Efficiency", "ProductionRate", "DefectsPPM")
		writeAPIError(w, r, http.StatusUnprocessableEntity, "DASHBOARD_VALIDATION_FAILED", message)
		return
	}

	updated, err := c.kpis.Update(r.Context(), id, &dto)
	if err != nil {
		if errors.Is(err, kpi.ErrNotFound) {
			writeAPIError(w, r, http.StatusNotFound, "DASHBOARD_NOT_FOUND", "kpi sample not found")
			return
		}
		writeAPIError(w, r, http.StatusInternalServerError, "DASHBOARD_INTERNAL", "internal error")
		return
	}
	writeJSON(w, http.StatusOK, mappers.KPIToViewModel(updated))
}

func (c *DashboardAPIController) DeleteKPI(w http.ResponseWriter, r *http.Request) {
	id, ok := idVar(w, r)
	if !ok {
		return
	}

	deleted, err := c.kpis.Delete(r.Context(), id)
	if err != nil {
		if errors.Is(err, kpi.ErrNotFound) {
			writeAPIError(w, r, http.StatusNotFound, "DASHBOARD_NOT_FOUND", "kpi sample not found")
			return
		}
		writeAPIError(w, r, http.StatusInternalServerError, "DASHBOARD_INTERNAL", "internal error")
		return
	}
	writeJSON(w, http.StatusOK, mappers.KPIToViewModel(deleted))
}

func (c *DashboardAPIController) ListStaff(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	status := staff.Status(strings.TrimSpace(query.Get("status")))
	if status != "" && !status.IsValid() {
		writeAPIError(w, r, http.StatusBadRequest, "DASHBOARD_INVALID_STATUS", "status must be 'active' or 'on_vacation'")
		return
	}

	limit, offset := limitOffsetQuery(r)
	params := &staff.FindParams{
		Department: strings.TrimSpace(query.Get("department")),
		Search:     strings.TrimSpace(query.Get("search")),
		Status:     status,
		Limit:      limit,
		Offset:     offset,
	}

	items, err := c.staff.GetPaginated(r.Context(), params)
	if err != nil {
		writeAPIError(w, r, http.StatusInternalServerError, "DASHBOARD_INTERNAL", "internal error")
		return
	}
	total, err := c.staff.Count(r.Context(), &staff.FindParams{
		Department: params.Department,
		Search:     params.Search,
		Status:     params.Status,
	})
	if err != nil {
		writeAPIError(w, r, http.StatusInternalServerError, "DASHBOARD_INTERNAL", "internal error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"items": mappers.StaffListToViewModels(items),
		"total": total,
	})
}

func (c *DashboardAPIController) ListDepartments(w http.ResponseWriter, r *http.Request) {
	departments, err := c.staff.Departments(r.Context())
	if err != nil {
		writeAPIError(w, r, http.StatusInternalServerError, "DASHBOARD_INTERNAL", "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"items": departments,
	})
}

func (c *DashboardAPIController) GetStaff(w http.ResponseWriter, r *http.Request) {
	id, ok := idVar(w, r)
	if !ok {
		return
	}

	member, err := c.staff.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, staff.ErrNotFound) {
			writeAPIError(w, r, http.StatusNotFound, "DASHBOARD_NOT_FOUND", "staff member not found")
			return
		}
		writeAPIError(w, r, http.StatusInternalServerError, "DASHBOARD_INTERNAL", "internal error")
		return
	}
	writeJSON(w, http.StatusOK, mappers.StaffToViewModel(member))
}

func (c *DashboardAPIController) CreateStaff(w http.ResponseWriter, r *http.Request) {
	var dto staff.CreateDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeAPIError(w, r, http.StatusBadRequest, "DASHBOARD_INVALID_JSON", "invalid json")
		return
	}

	if errs, ok := dto.Ok(r.Context()); !ok {
		message := firstMessage(errs, "Name", "Position", "Department", "Status")
		writeAPIError(w, r, http.StatusUnprocessableEntity, "DASHBOARD_VALIDATION_FAILED", message)
		return
	}

	created, err := c.staff.Create(r.Context(), &dto)
	if err != nil {
		if errors.Is(err, staff.ErrAlreadyExists) {
			writeAPIError(w, r, http.StatusConflict, "DASHBOARD_STAFF_CONFLICT", "staff member already exists in department")
			return
		}
		writeAPIError(w, r, http.StatusInternalServerError, "DASHBOARD_INTERNAL", "internal error")
		return
	}
	writeJSON(w, http.StatusCreated, mappers.StaffToViewModel(created))
}

func (c *DashboardAPIController) UpdateStaff(w http.ResponseWriter, r *http.Request) {
	id, ok := idVar(w, r)
	if !ok {
		return
	}

	var dto staff.UpdateDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeAPIError(w, r, http.StatusBadRequest, "DASHBOARD_INVALID_JSON", "invalid json")
		return
	}
	if dto.IsEmpty() {
		writeAPIError(w, r, http.StatusUnprocessableEntity, "DASHBOARD_VALIDATION_FAILED", "no fields to update")
		return
	}
	if errs, ok := dto.Ok(r.Context()); !ok {
		message := firstMessage(errs, "Position", "Status")
		writeAPIError(w, r, http.StatusUnprocessableEntity, "DASHBOARD_VALIDATION_FAILED", message)
		return
	}

	updated, err := c.staff.Update(r.Context(), id, &dto)
	if err != nil {
		if errors.Is(err, staff.ErrNotFound) {
			writeAPIError(w, r, http.StatusNotFound, "DASHBOARD_NOT_FOUND", "staff member not found")
			return
		}
		writeAPIError(w, r, http.StatusInternalServerError, "DASHBOARD_INTERNAL", "internal error")
		return
	}
	writeJSON(w, http.StatusOK, mappers.StaffToViewModel(updated))
}

func (c *DashboardAPIController) DeleteStaff(w http.ResponseWriter, r *http.Request) {
	id, ok := idVar(w, r)
	if !ok {
		return
	}

	deleted, err := c.staff.Delete(r.Context(), id)
	if err != nil {
		if errors.Is(err, staff.ErrNotFound) {
			writeAPIError(w, r, http.StatusNotFound, "DASHBOARD_NOT_FOUND", "staff member not found")
			return
		}
		writeAPIError(w, r, http.StatusInternalServerError, "DASHBOARD_INTERNAL", "internal error")
		return
	}
	writeJSON(w, http.StatusOK, mappers.StaffToViewModel(deleted))
}

func idVar(w http.ResponseWriter, r *http.Request) (uint, bool) {
	raw := mux.Vars(r)["id"]
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		writeAPIError(w, r, http.StatusBadRequest, "DASHBOARD_INVALID_ID", "id must be a positive integer")
		return 0, false
	}
	return uint(id), true
}

func dateRangeQuery(w http.ResponseWriter, r *http.Request) (time.Time, time.Time, bool) {
	var from, to time.Time
	query := r.URL.Query()

	if v := strings.TrimSpace(query.Get("from")); v != "" {
		parsed, err := time.Parse(time.DateOnly, v)
		if err != nil {
			writeAPIError(w, r, http.StatusBadRequest, "DASHBOARD_INVALID_DATE", "from must be formatted as YYYY-MM-DD")
			return from, to, false
		}
		from = parsed
	}
	if v := strings.TrimSpace(query.Get("to")); v != "" {
		parsed, err := time.Parse(time.DateOnly, v)
		if err != nil {
			writeAPIError(w, r, http.StatusBadRequest, "DASHBOARD_INVALID_DATE", "to must be formatted as YYYY-MM-DD")
			return from, to, false
		}
		to = parsed
	}
	return from, to, true
}

func limitOffsetQuery(r *http.Request) (int, int) {
	conf := configuration.Use()
	limit := conf.PageSize
	offset := 0

	if v := strings.TrimSpace(r.URL.Query().Get("limit")); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 && parsed <= conf.MaxPageSize {
			limit = parsed
		}
	}
	if v := strings.TrimSpace(r.URL.Query().Get("offset")); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed >= 0 {
			offset = parsed
		}
	}
	return limit, offset
}

func firstMessage(errs map[string]string, order ...string) string {
	for _, field := range order {
		if v := strings.TrimSpace(errs[field]); v != "" {
			return v
		}
	}
	for _, v := range errs {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return "validation failed"
}
