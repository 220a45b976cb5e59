package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deppfellow/testtable-service/internal/errs"
)

func pingOK(context.Context) error { return nil }

func failing(msg string) func(context.Context) error {
	return func(context.Context) error { return errors.New(msg) }
}

func checkHealth(t *testing.T, checks ...dependencyCheck) (int, map[string]any) {
	t.Helper()
	h := &HealthHandler{Handler: NewHandler(newTestServer()), checks: checks}

	rec := httptest.NewRecorder()
	c := echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/status", nil), rec)
	require.NoError(t, h.CheckHealth(c))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec.Code, body
}

func TestCheckHealth_Healthy(t *testing.T) {
	code, body := checkHealth(t,
		dependencyCheck{name: "database", ping: pingOK},
		dependencyCheck{name: "redis", optional: true, ping: pingOK},
	)

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "local", body["environment"])

	checks := body["checks"].(map[string]any)
	assert.Equal(t, "healthy", checks["database"].(map[string]any)["status"])
	assert.Equal(t, "healthy", checks["redis"].(map[string]any)["status"])
}

func TestCheckHealth_DatabaseDown(t *testing.T) {
	code, body := checkHealth(t, dependencyCheck{name: "database", ping: failing("connection refused")})

	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "unhealthy", body["status"])

	db := body["checks"].(map[string]any)["database"].(map[string]any)
	assert.Equal(t, "unhealthy", db["status"])
	assert.Equal(t, "connection refused", db["error"])
}

func TestCheckHealth_OptionalRedisDown(t *testing.T) {
	code, body := checkHealth(t,
		dependencyCheck{name: "database", ping: pingOK},
		dependencyCheck{name: "redis", optional: true, ping: failing("i/o timeout")},
	)

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "unhealthy", body["checks"].(map[string]any)["redis"].(map[string]any)["status"])
}

func TestServeOpenAPIUI(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "openapi.html"), []byte("<html>docs</html>"), 0o644))

	h := &OpenAPIHandler{Handler: NewHandler(newTestServer()), dir: dir}

	rec := httptest.NewRecorder()
	c := echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/docs", nil), rec)
	require.NoError(t, h.ServeOpenAPIUI(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "no-cache", rec.Header().Get("Cache-Control"))
	assert.Equal(t, "<html>docs</html>", rec.Body.String())
}

func TestServeOpenAPIUI_Missing(t *testing.T) {
	h := &OpenAPIHandler{Handler: NewHandler(newTestServer()), dir: t.TempDir()}

	c := echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/docs", nil), httptest.NewRecorder())
	err := h.ServeOpenAPIUI(c)

	var httpErr *errs.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusNotFound, httpErr.Status)
}
