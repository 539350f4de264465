package controllers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/plantboard/plantboard/pkg/application"
)

type healthStatus string

const (
	healthStatusHealthy  healthStatus = "healthy"
	healthStatusDegraded healthStatus = "degraded"
	healthStatusDown     healthStatus = "down"
)

type healthResponse struct {
	Status    healthStatus   `json:"status"`
	Timestamp string         `json:"timestamp"`
	Checks    map[string]any `json:"checks,omitempty"`
}

type componentHealth struct {
	Status       healthStatus   `json:"status"`
	ResponseTime string         `json:"responseTime,omitempty"`
	Error        string         `json:"error,omitempty"`
	Details      map[string]any `json:"details,omitempty"`
}

const dbDegradedLatency = 100 * time.Millisecond

// OpsHealthController serves the liveness probe at /health and a readiness
// probe that verifies the database and the dashboard tables.
type OpsHealthController struct {
	app      application.Application
	basePath string
}

func NewOpsHealthController(app application.Application) application.Controller {
	return &OpsHealthController{
		app:      app,
		basePath: "/api/dashboard/ops",
	}
}

func (c *OpsHealthController) Key() string {
	return c.basePath
}

func (c *OpsHealthController) Register(r *mux.Router) {
	r.HandleFunc("/health", c.Liveness).Methods(http.MethodGet)
	r.HandleFunc(c.basePath+"/health", c.Readiness).Methods(http.MethodGet)
}

func (c *OpsHealthController) Liveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:    healthStatusHealthy,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

func (c *OpsHealthController) Readiness(w http.ResponseWriter, r *http.Request) {
	response := c.performHealthChecks(r.Context())

	var status int
	switch response.Status {
	case healthStatusHealthy, healthStatusDegraded:
		status = http.StatusOK
	default:
		status = http.StatusServiceUnavailable
	}

	writeJSON(w, status, response)
}

func (c *OpsHealthController) performHealthChecks(ctx context.Context) healthResponse {
	checks := make(map[string]any)
	overall := healthStatusHealthy

	dbHealth := c.checkDatabase(ctx)
	checks["database"] = dbHealth
	overall = mergeHealthStatus(overall, dbHealth.Status)

	schemaHealth := c.checkSchema(ctx)
	checks["schema"] = schemaHealth
	overall = mergeHealthStatus(overall, schemaHealth.Status)

	return healthResponse{
		Status:    overall,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    checks,
	}
}

func mergeHealthStatus(current, next healthStatus) healthStatus {
	if next == healthStatusDown {
		return healthStatusDown
	}
	if next == healthStatusDegraded && current == healthStatusHealthy {
		return healthStatusDegraded
	}
	return current
}

func (c *OpsHealthController) checkDatabase(ctx context.Context) componentHealth {
	start := time.Now()

	timeoutCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	db := c.app.DB()
	if db == nil {
		return componentHealth{
			Status:       healthStatusDown,
			ResponseTime: time.Since(start).String(),
			Error:        "database connection pool not available",
		}
	}

	var result int
	err := db.QueryRow(timeoutCtx, "SELECT 1").Scan(&result)
	responseTime := time.Since(start)
	if err != nil {
		return componentHealth{
			Status:       healthStatusDown,
			ResponseTime: responseTime.String(),
			Error:        fmt.Sprintf("database query failed: %v", err),
		}
	}

	status := healthStatusHealthy
	if responseTime > dbDegradedLatency {
		status = healthStatusDegraded
	}

	return componentHealth{
		Status:       status,
		ResponseTime: responseTime.String(),
	}
}

func (c *OpsHealthController) checkSchema(ctx context.Context) componentHealth {
	start := time.Now()

	timeoutCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	db := c.app.DB()
	if db == nil {
		return componentHealth{
			Status:       healthStatusDown,
			ResponseTime: time.Since(start).String(),
			Error:        "database connection pool not available",
		}
	}

	missing := make([]string, 0, 2)
	for _, table := range []string{"kpi_data", "staff_members"} {
		var reg *string
		if err := db.QueryRow(timeoutCtx, "SELECT to_regclass($1)", "public."+table).Scan(&reg); err != nil {
			return componentHealth{
				Status:       healthStatusDown,
				ResponseTime: time.Since(start).String(),
				Error:        fmt.Sprintf("schema query failed: %v", err),
			}
		}
		if reg == nil {
			missing = append(missing, table)
		}
	}

	if len(missing) > 0 {
		return componentHealth{
			Status:       healthStatusDown,
			ResponseTime: time.Since(start).String(),
			Error:        "dashboard tables are missing",
			Details: map[string]any{
				"missing": missing,
			},
		}
	}

	return componentHealth{
		Status:       healthStatusHealthy,
		ResponseTime: time.Since(start).String(),
	}
}
