package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
)

type target struct {
	Endpoint string
	Method   string
	Path     string
	Weight   int
	Body     func(opts *runOptions) ([]byte, error)
}

type profile struct {
	Name         string
	VUs          int
	Duration     time.Duration
	DefaultP99MS int
	Targets      []target
}

func readTargets() []target {
	return []target{
		{Endpoint: "kpi_list", Method: http.MethodGet, Path: "/api/dashboard/kpi?limit=25", Weight: 40},
		{Endpoint: "kpi_summary", Method: http.MethodGet, Path: "/api/dashboard/kpi/summary", Weight: 25},
		{Endpoint: "staff_list", Method: http.MethodGet, Path: "/api/dashboard/staff?limit=25", Weight: 25},
		{Endpoint: "staff_departments", Method: http.MethodGet, Path: "/api/dashboard/staff/departments", Weight: 10},
	}
}

func builtinProfile(name string) (profile, error) {
	switch name {
	case "dashboard_read":
		return profile{
			Name:         name,
			VUs:          8,
			Duration:     60 * time.Second,
			DefaultP99MS: 300,
			Targets:      readTargets(),
		}, nil
	case "dashboard_read_heavy":
		return profile{
			Name:         name,
			VUs:          32,
			Duration:     120 * time.Second,
			DefaultP99MS: 500,
			Targets:      readTargets(),
		}, nil
	case "dashboard_mix_read_write":
		targets := append(readTargets(), target{
			Endpoint: "staff_upload",
			Method:   http.MethodPost,
			Path:     "/api/dashboard/upload-csv",
			Weight:   10,
			Body:     buildStaffUploadBody,
		})
		return profile{
			Name:         name,
			VUs:          16,
			Duration:     120 * time.Second,
			DefaultP99MS: 800,
			Targets:      targets,
		}, nil
	default:
		return profile{}, fmt.Errorf("unknown profile %q", name)
	}
}

// buildStaffUploadBody generates a unique member name per request so repeated
// uploads insert rather than collide on the (name, department) key.
func buildStaffUploadBody(_ *runOptions) ([]byte, error) {
	name := "load_" + uuid.NewString()[:8]
	csvData := "name,position,department,status\n" + name + ",Load Tester,LoadTest,active\n"
	payload := map[string]any{
		"type": "staff",
		"data": csvData,
	}
	return json.Marshal(payload)
}
