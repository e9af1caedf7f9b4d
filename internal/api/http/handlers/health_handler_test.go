package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDependency struct {
	name    string
	enabled bool
	err     error
}

func (d fakeDependency) Name() string               { return d.name }
func (d fakeDependency) Enabled() bool              { return d.enabled }
func (d fakeDependency) Ping(context.Context) error { return d.err }

func readiness(t *testing.T, h *HealthHandler) (int, map[string]any) {
	t.Helper()
	app := fiber.New()
	app.Get("/ready", h.Ready)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/ready", nil))
	require.NoError(t, err)
	defer resp.Body.Close()
	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return resp.StatusCode, body
}

func TestHealthHandler_Ready(t *testing.T) {
	status, body := readiness(t, NewHealthHandler("academic-erp", "test",
		fakeDependency{name: "postgres", enabled: true},
		fakeDependency{name: "redis"},
	))
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, map[string]any{"postgres": "ok", "redis": "disabled"}, body["dependencies"])

	status, body = readiness(t, NewHealthHandler("academic-erp", "test",
		fakeDependency{name: "postgres", enabled: true, err: errors.New("refused")},
		fakeDependency{name: "redis", enabled: true},
	))
	assert.Equal(t, http.StatusServiceUnavailable, status)
	details := body["error"].(map[string]any)["details"].(map[string]any)
	assert.Equal(t, "unreachable", details["postgres"])
	assert.Equal(t, "ok", details["redis"])
}
