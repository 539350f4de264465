package controllers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/require"

	"github.com/plantboard/plantboard/modules/dashboard/presentation/viewmodels"
	"github.com/plantboard/plantboard/modules/dashboard/services"
	"github.com/plantboard/plantboard/modules/dashboard/testutils"
	"github.com/plantboard/plantboard/pkg/httpapi"
)

func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "controllers-test")
	if err != nil {
		panic(err)
	}
	_ = os.Setenv("LOG_PATH", filepath.Join(dir, "app.log"))
	code := m.Run()
	_ = os.RemoveAll(dir)
	os.Exit(code)
}

func newDashboardController() (*DashboardAPIController, *testutils.FakeKPIRepository, *testutils.FakeStaffRepository) {
	kpiRepo := testutils.NewFakeKPIRepository()
	staffRepo := testutils.NewFakeStaffRepository()
	publisher := testutils.QuietPublisher()
	c := &DashboardAPIController{
		kpis:     services.NewKPIService(kpiRepo, publisher),
		staff:    services.NewStaffService(staffRepo, publisher),
		basePath: "/api/dashboard",
	}
	return c, kpiRepo, staffRepo
}

func newDashboardRequest(t *testing.T, method, target string, payload any) *http.Request {
	t.Helper()
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, target, body)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", "req-dashboard-test")
	return req.WithContext(testutils.TxContext())
}

func decodeEnvelope(t *testing.T, rr *httptest.ResponseRecorder) httpapi.ErrorEnvelope {
	t.Helper()
	var envelope httpapi.ErrorEnvelope
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &envelope))
	return envelope
}

func createKPISample(t *testing.T, c *DashboardAPIController, weekDate string, efficiency, rate, ppm float64) viewmodels.KPISample {
	t.Helper()
	req := newDashboardRequest(t, http.MethodPost, "/api/dashboard/kpi", map[string]any{
		"week_date":       weekDate,
		"efficiency":      efficiency,
		"production_rate": rate,
		"defects_ppm":     ppm,
	})
	rr := httptest.NewRecorder()
	c.CreateKPI(rr, req)
	require.Equal(t, http.StatusCreated, rr.Code, strings.TrimSpace(rr.Body.String()))

	var vm viewmodels.KPISample
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &vm))
	return vm
}

func createStaffMember(t *testing.T, c *DashboardAPIController, name, position, department, status string) viewmodels.StaffMember {
	t.Helper()
	req := newDashboardRequest(t, http.MethodPost, "/api/dashboard/staff", map[string]any{
		"name":       name,
		"position":   position,
		"department": department,
		"status":     status,
	})
	rr := httptest.NewRecorder()
	c.CreateStaff(rr, req)
	require.Equal(t, http.StatusCreated, rr.Code, strings.TrimSpace(rr.Body.String()))

	var vm viewmodels.StaffMember
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &vm))
	return vm
}

func TestDashboardAPIController_CreateKPI(t *testing.T) {
	c, kpiRepo, _ := newDashboardController()

	vm := createKPISample(t, c, "2024-01-01", 95.5, 120.3, 175.2)
	require.Equal(t, uint(1), vm.ID)
	require.Equal(t, "2024-01-01", vm.WeekDate)
	require.Equal(t, 95.5, vm.Efficiency)
	require.Equal(t, 120.3, vm.ProductionRate)
	require.Equal(t, 175.2, vm.DefectsPPM)
	require.Len(t, kpiRepo.Samples, 1)
}

func TestDashboardAPIController_CreateKPI_DuplicateWeek(t *testing.T) {
	c, _, _ := newDashboardController()
	createKPISample(t, c, "2024-01-01", 95.5, 120.3, 175.2)

	req := newDashboardRequest(t, http.MethodPost, "/api/dashboard/kpi", map[string]any{
		"week_date":       "2024-01-01",
		"efficiency":      90.0,
		"production_rate": 100.0,
		"defects_ppm":     200.0,
	})
	rr := httptest.NewRecorder()
	c.CreateKPI(rr, req)

	require.Equal(t, http.StatusConflict, rr.Code)
	envelope := decodeEnvelope(t, rr)
	require.Equal(t, "DASHBOARD_WEEK_CONFLICT", envelope.Code)
	require.Equal(t, "req-dashboard-test", envelope.Meta["request_id"])
}

func TestDashboardAPIController_CreateKPI_ValidationFailed(t *testing.T) {
	c, kpiRepo, _ := newDashboardController()

	req := newDashboardRequest(t, http.MethodPost, "/api/dashboard/kpi", map[string]any{
		"week_date":       "2024-01-01",
		"efficiency":      105.5,
		"production_rate": 120.0,
		"defects_ppm":     10.0,
	})
	rr := httptest.NewRecorder()
	c.CreateKPI(rr, req)

	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	envelope := decodeEnvelope(t, rr)
	require.Equal(t, "DASHBOARD_VALIDATION_FAILED", envelope.Code)
	require.Equal(t, "efficiency must be at most 100", envelope.Message)
	require.Empty(t, kpiRepo.Samples)
}

func TestDashboardAPIController_CreateKPI_InvalidJSON(t *testing.T) {
	c, _, _ := newDashboardController()

	req := httptest.NewRequest(http.MethodPost, "/api/dashboard/kpi", strings.NewReader("{not json"))
	req = req.WithContext(testutils.TxContext())
	rr := httptest.NewRecorder()
	c.CreateKPI(rr, req)

	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Equal(t, "DASHBOARD_INVALID_JSON", decodeEnvelope(t, rr).Code)
}

func TestDashboardAPIController_GetKPI(t *testing.T) {
	c, _, _ := newDashboardController()
	created := createKPISample(t, c, "2024-01-01", 95.5, 120.3, 175.2)

	req := newDashboardRequest(t, http.MethodGet, "/api/dashboard/kpi/1", nil)
	req = mux.SetURLVars(req, map[string]string{"id": "1"})
	rr := httptest.NewRecorder()
	c.GetKPI(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var vm viewmodels.KPISample
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &vm))
	require.Equal(t, created.ID, vm.ID)
	require.Equal(t, "2024-01-01", vm.WeekDate)
}

func TestDashboardAPIController_GetKPI_NotFound(t *testing.T) {
	c, _, _ := newDashboardController()

	req := newDashboardRequest(t, http.MethodGet, "/api/dashboard/kpi/42", nil)
	req = mux.SetURLVars(req, map[string]string{"id": "42"})
	rr := httptest.NewRecorder()
	c.GetKPI(rr, req)

	require.Equal(t, http.StatusNotFound, rr.Code)
	require.Equal(t, "DASHBOARD_NOT_FOUND", decodeEnvelope(t, rr).Code)
}

func TestDashboardAPIController_GetKPI_InvalidID(t *testing.T) {
	c, _, _ := newDashboardController()

	req := newDashboardRequest(t, http.MethodGet, "/api/dashboard/kpi/0", nil)
	req = mux.SetURLVars(req, map[string]string{"id": "0"})
	rr := httptest.NewRecorder()
	c.GetKPI(rr, req)

	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Equal(t, "DASHBOARD_INVALID_ID", decodeEnvelope(t, rr).Code)
}

func TestDashboardAPIController_ListKPI(t *testing.T) {
	c, _, _ := newDashboardController()
	createKPISample(t, c, "2024-01-01", 95.5, 120.3, 175.2)
	createKPISample(t, c, "2024-01-08", 92.1, 118.0, 200.0)
	createKPISample(t, c, "2024-01-15", 88.0, 110.0, 250.0)

	req := newDashboardRequest(t, http.MethodGet, "/api/dashboard/kpi?from=2024-01-08", nil)
	rr := httptest.NewRecorder()
	c.ListKPI(rr, req)

	require.Equal(t, http.StatusOK, rr.Code, strings.TrimSpace(rr.Body.String()))
	var listing struct {
		Items []viewmodels.KPISample `json:"items"`
		Total int64                  `json:"total"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &listing))
	require.Equal(t, int64(2), listing.Total)
	require.Len(t, listing.Items, 2)
	// Newest week first unless order=asc is requested.
	require.Equal(t, "2024-01-15", listing.Items[0].WeekDate)
	require.Equal(t, "2024-01-08", listing.Items[1].WeekDate)

	req = newDashboardRequest(t, http.MethodGet, "/api/dashboard/kpi?order=asc", nil)
	rr = httptest.NewRecorder()
	c.ListKPI(rr, req)
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &listing))
	require.Equal(t, int64(3), listing.Total)
	require.Equal(t, "2024-01-01", listing.Items[0].WeekDate)
}

func TestDashboardAPIController_ListKPI_InvalidDate(t *testing.T) {
	c, _, _ := newDashboardController()

	req := newDashboardRequest(t, http.MethodGet, "/api/dashboard/kpi?from=01-01-2024", nil)
	rr := httptest.NewRecorder()
	c.ListKPI(rr, req)

	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Equal(t, "DASHBOARD_INVALID_DATE", decodeEnvelope(t, rr).Code)
}

func TestDashboardAPIController_KPISummary(t *testing.T) {
	c, _, _ := newDashboardController()
	createKPISample(t, c, "2024-01-01", 90.0, 100.0, 100.0)
	createKPISample(t, c, "2024-01-08", 94.0, 120.0, 200.0)

	req := newDashboardRequest(t, http.MethodGet, "/api/dashboard/kpi/summary", nil)
	rr := httptest.NewRecorder()
	c.KPISummary(rr, req)

	require.Equal(t, http.StatusOK, rr.Code, strings.TrimSpace(rr.Body.String()))
	var summary viewmodels.KPISummary
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &summary))
	require.Equal(t, int64(2), summary.Samples)
	require.InDelta(t, 92.0, summary.AvgEfficiency, 0.0001)
	require.InDelta(t, 110.0, summary.AvgProductionRate, 0.0001)
	require.InDelta(t, 150.0, summary.AvgDefectsPPM, 0.0001)
	require.Equal(t, "2024-01-08", summary.LatestWeek)
}

func TestDashboardAPIController_UpdateKPI(t *testing.T) {
	c, _, _ := newDashboardController()
	createKPISample(t, c, "2024-01-01", 95.5, 120.3, 175.2)

	req := newDashboardRequest(t, http.MethodPatch, "/api/dashboard/kpi/1", map[string]any{
		"efficiency": 97.5,
	})
	req = mux.SetURLVars(req, map[string]string{"id": "1"})
	rr := httptest.NewRecorder()
	c.UpdateKPI(rr, req)

	require.Equal(t, http.StatusOK, rr.Code, strings.TrimSpace(rr.Body.String()))
	var vm viewmodels.KPISample
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &vm))
	require.Equal(t, 97.5, vm.Efficiency)
	// Fields omitted from the patch keep their values.
	require.Equal(t, 120.3, vm.ProductionRate)
	require.Equal(t, 175.2, vm.DefectsPPM)
}

func TestDashboardAPIController_UpdateKPI_NoFields(t *testing.T) {
	c, _, _ := newDashboardController()
	createKPISample(t, c, "2024-01-01", 95.5, 120.3, 175.2)

	req := newDashboardRequest(t, http.MethodPatch, "/api/dashboard/kpi/1", map[string]any{})
	req = mux.SetURLVars(req, map[string]string{"id": "1"})
	rr := httptest.NewRecorder()
	c.UpdateKPI(rr, req)

	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	envelope := decodeEnvelope(t, rr)
	require.Equal(t, "DASHBOARD_VALIDATION_FAILED", envelope.Code)
	require.Equal(t, "no fields to update", envelope.Message)
}

func TestDashboardAPIController_DeleteKPI(t *testing.T) {
	c, kpiRepo, _ := newDashboardController()
	createKPISample(t, c, "2024-01-01", 95.5, 120.3, 175.2)

	req := newDashboardRequest(t, http.MethodDelete, "/api/dashboard/kpi/1", nil)
	req = mux.SetURLVars(req, map[string]string{"id": "1"})
	rr := httptest.NewRecorder()
	c.DeleteKPI(rr, req)

	require.Equal(t, http.StatusOK, rr.Code, strings.TrimSpace(rr.Body.String()))
	var vm viewmodels.KPISample
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &vm))
	require.Equal(t, "2024-01-01", vm.WeekDate)
	require.Empty(t, kpiRepo.Samples)

	rr = httptest.NewRecorder()
	req = newDashboardRequest(t, http.MethodDelete, "/api/dashboard/kpi/1", nil)
	req = mux.SetURLVars(req, map[string]string{"id": "1"})
	c.DeleteKPI(rr, req)
	require.Equal(t, http.StatusNotFound, rr.Code)
}

func TestDashboardAPIController_CreateStaff(t *testing.T) {
	c, _, staffRepo := newDashboardController()

	vm := createStaffMember(t, c, "John Smith", "Engineer", "Production", "active")
	require.Equal(t, uint(1), vm.ID)
	require.Equal(t, "John Smith", vm.Name)
	require.Equal(t, "active", vm.Status)
	require.Len(t, staffRepo.Members, 1)
}

func TestDashboardAPIController_CreateStaff_Duplicate(t *testing.T) {
	c, _, _ := newDashboardController()
	createStaffMember(t, c, "John Smith", "Engineer", "Production", "active")

	req := newDashboardRequest(t, http.MethodPost, "/api/dashboard/staff", map[string]any{
		"name":       "John Smith",
		"position":   "Supervisor",
		"department": "Production",
		"status":     "active",
	})
	rr := httptest.NewRecorder()
	c.CreateStaff(rr, req)

	require.Equal(t, http.StatusConflict, rr.Code)
	require.Equal(t, "DASHBOARD_STAFF_CONFLICT", decodeEnvelope(t, rr).Code)
}

func TestDashboardAPIController_CreateStaff_InvalidStatus(t *testing.T) {
	c, _, staffRepo := newDashboardController()

	req := newDashboardRequest(t, http.MethodPost, "/api/dashboard/staff", map[string]any{
		"name":       "John Smith",
		"position":   "Engineer",
		"department": "Production",
		"status":     "Active",
	})
	rr := httptest.NewRecorder()
	c.CreateStaff(rr, req)

	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	envelope := decodeEnvelope(t, rr)
	require.Equal(t, "DASHBOARD_VALIDATION_FAILED", envelope.Code)
	require.Equal(t, "status must be one of: active on_vacation", envelope.Message)
	require.Empty(t, staffRepo.Members)
}

func TestDashboardAPIController_ListStaff_Filters(t *testing.T) {
	c, _, _ := newDashboardController()
	createStaffMember(t, c, "John Smith", "Engineer", "Production", "active")
	createStaffMember(t, c, "Maria Garcia", "Supervisor", "Quality", "on_vacation")
	createStaffMember(t, c, "Chen Wei", "Inspector", "Quality", "active")

	req := newDashboardRequest(t, http.MethodGet, "/api/dashboard/staff?department=Quality", nil)
	rr := httptest.NewRecorder()
	c.ListStaff(rr, req)

	require.Equal(t, http.StatusOK, rr.Code, strings.TrimSpace(rr.Body.String()))
	var listing struct {
		Items []viewmodels.StaffMember `json:"items"`
		Total int64                    `json:"total"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &listing))
	require.Equal(t, int64(2), listing.Total)
	require.Len(t, listing.Items, 2)

	req = newDashboardRequest(t, http.MethodGet, "/api/dashboard/staff?department=Quality&status=active", nil)
	rr = httptest.NewRecorder()
	c.ListStaff(rr, req)
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &listing))
	require.Equal(t, int64(1), listing.Total)
	require.Equal(t, "Chen Wei", listing.Items[0].Name)
}

func TestDashboardAPIController_ListStaff_InvalidStatus(t *testing.T) {
	c, _, _ := newDashboardController()

	req := newDashboardRequest(t, http.MethodGet, "/api/dashboard/staff?status=retired", nil)
	rr := httptest.NewRecorder()
	c.ListStaff(rr, req)

	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Equal(t, "DASHBOARD_INVALID_STATUS", decodeEnvelope(t, rr).Code)
}

func TestDashboardAPIController_ListDepartments(t *testing.T) {
	c, _, _ := newDashboardController()
	createStaffMember(t, c, "John Smith", "Engineer", "Production", "active")
	createStaffMember(t, c, "Maria Garcia", "Supervisor", "Quality", "on_vacation")

	req := newDashboardRequest(t, http.MethodGet, "/api/dashboard/staff/departments", nil)
	rr := httptest.NewRecorder()
	c.ListDepartments(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var listing struct {
		Items []string `json:"items"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &listing))
	require.Equal(t, []string{"Production", "Quality"}, listing.Items)
}

func TestDashboardAPIController_UpdateStaff(t *testing.T) {
	c, _, _ := newDashboardController()
	createStaffMember(t, c, "John Smith", "Engineer", "Production", "active")

	req := newDashboardRequest(t, http.MethodPatch, "/api/dashboard/staff/1", map[string]any{
		"status": "on_vacation",
	})
	req = mux.SetURLVars(req, map[string]string{"id": "1"})
	rr := httptest.NewRecorder()
	c.UpdateStaff(rr, req)

	require.Equal(t, http.StatusOK, rr.Code, strings.TrimSpace(rr.Body.String()))
	var vm viewmodels.StaffMember
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &vm))
	require.Equal(t, "on_vacation", vm.Status)
	require.Equal(t, "Engineer", vm.Position)
}

func TestDashboardAPIController_DeleteStaff_NotFound(t *testing.T) {
	c, _, _ := newDashboardController()

	req := newDashboardRequest(t, http.MethodDelete, "/api/dashboard/staff/7", nil)
	req = mux.SetURLVars(req, map[string]string{"id": "7"})
	rr := httptest.NewRecorder()
	c.DeleteStaff(rr, req)

	require.Equal(t, http.StatusNotFound, rr.Code)
	require.Equal(t, "DASHBOARD_NOT_FOUND", decodeEnvelope(t, rr).Code)
}
