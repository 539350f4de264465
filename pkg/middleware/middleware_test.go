package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/plantboard/plantboard/pkg/composables"
	"github.com/plantboard/plantboard/pkg/constants"
	"github.com/plantboard/plantboard/pkg/logging"
)

func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "middleware-test")
	if err != nil {
		panic(err)
	}
	_ = os.Setenv("LOG_PATH", filepath.Join(dir, "app.log"))
	code := m.Run()
	_ = os.RemoveAll(dir)
	os.Exit(code)
}

func TestProvide(t *testing.T) {
	var got any
	handler := Provide(constants.PoolKey, "the-pool")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Context().Value(constants.PoolKey)
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, "the-pool", got)
}

func TestRequestParams(t *testing.T) {
	var params *composables.Params
	handler := RequestParams()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := composables.UseParams(r.Context())
		require.True(t, ok)
		params = p
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/dashboard/kpi", nil)
	req.Header.Set("X-Real-IP", "203.0.113.7")
	req.Header.Set("User-Agent", "plantboard-test")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	require.NotNil(t, params)
	require.Equal(t, "203.0.113.7", params.IP)
	require.Equal(t, "plantboard-test", params.UserAgent)
}

func TestWithLogger_SetsRequestID(t *testing.T) {
	logger := logging.ConsoleLogger(logrus.ErrorLevel)
	handler := WithLogger(logger, DefaultLoggerOptions())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log := composables.UseLogger(r.Context())
		require.NotNil(t, log)
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("generated when absent", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/dashboard/kpi", nil))
		require.NotEmpty(t, rec.Header().Get("X-Request-Id"))
	})

	t.Run("propagated from header", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/dashboard/kpi", nil)
		req.Header.Set("X-Request-ID", "req-42")
		handler.ServeHTTP(rec, req)
		require.Equal(t, "req-42", rec.Header().Get("X-Request-Id"))
	})
}

func TestWithLogger_PanicRecovery(t *testing.T) {
	logger := logging.ConsoleLogger(logrus.FatalLevel)
	handler := WithLogger(logger, DefaultLoggerOptions())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("handler exploded")
	}))

	t.Run("api paths get the json envelope", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/dashboard/kpi", nil)
		req.Header.Set("X-Request-ID", "req-panic")
		handler.ServeHTTP(rec, req)

		require.Equal(t, http.StatusInternalServerError, rec.Code)
		require.Equal(t, "application/json", rec.Header().Get("Content-Type"))

		var payload struct {
			Code    string            `json:"code"`
			Message string            `json:"message"`
			Meta    map[string]string `json:"meta"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
		require.Equal(t, "INTERNAL_SERVER_ERROR", payload.Code)
		require.Equal(t, "req-panic", payload.Meta["request_id"])
	})

	t.Run("non-api paths get plain text", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

		require.Equal(t, http.StatusInternalServerError, rec.Code)
		require.Contains(t, rec.Body.String(), "Internal Server Error")
	})
}

func TestRateLimit(t *testing.T) {
	handler := RateLimit(RateLimitConfig{
		RequestsPerPeriod: 1,
		Period:            time.Minute,
	})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	newReq := func() *http.Request {
		req := httptest.NewRequest(http.MethodGet, "/api/dashboard/kpi", nil)
		req.RemoteAddr = "192.0.2.1:53211"
		return req
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, newReq())
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, newReq())
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestCors_Preflight(t *testing.T) {
	handler := Cors("http://localhost:3000")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodOptions, "/api/dashboard/kpi", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
}
