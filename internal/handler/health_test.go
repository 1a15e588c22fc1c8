package handler_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sakif/linkup/internal/handler"
)

func TestHealthHandler(t *testing.T) {
	ok := func(context.Context) error { return nil }
	down := func(context.Context) error { return errors.New("database is locked") }

	t.Run("health", func(t *testing.T) {
		h := handler.NewHealthHandler(ok, discardLogger())
		rr := httptest.NewRecorder()
		h.HandleHealth(rr, httptest.NewRequest(http.MethodGet, "/api/health", nil))

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), `"status":"ok"`)
		assert.Contains(t, rr.Body.String(), `"time":`)
	})

	t.Run("ping", func(t *testing.T) {
		h := handler.NewHealthHandler(ok, discardLogger())
		rr := httptest.NewRecorder()
		h.HandlePing(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

		assert.JSONEq(t, `{"ok":true}`, rr.Body.String())
	})

	t.Run("ready", func(t *testing.T) {
		h := handler.NewHealthHandler(ok, discardLogger())
		rr := httptest.NewRecorder()
		h.HandleReady(rr, httptest.NewRequest(http.MethodGet, "/api/health/ready", nil))

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), `"status":"ready"`)
	})

	t.Run("not ready", func(t *testing.T) {
		h := handler.NewHealthHandler(down, discardLogger())
		rr := httptest.NewRecorder()
		h.HandleReady(rr, httptest.NewRequest(http.MethodGet, "/api/health/ready", nil))

		assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
		assert.NotContains(t, rr.Body.String(), "locked")
	})
}
