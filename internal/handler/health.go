package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// readyTimeout bounds the store ping behind /api/health/ready.
const readyTimeout = 2 * time.Second

// ReadyCheck reports whether the store is reachable.
type ReadyCheck func(ctx context.Context) error

// HealthHandler serves liveness and readiness probes.
type HealthHandler struct {
	ready  ReadyCheck
	logger *slog.Logger
	now    func() time.Time
}

func NewHealthHandler(ready ReadyCheck, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{ready: ready, logger: logger, now: time.Now}
}

type healthResponse struct {
	Status string    `json:"status"`
	Time   time.Time `json:"time"`
}

// HandleHealth is the liveness probe.
//
// HTTP: GET /api/health
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Time: h.now().UTC()})
}

// HandlePing is the bare liveness probe kept for older load balancers.
//
// HTTP: GET /health
func (h *HealthHandler) HandlePing(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, okResponse{OK: true})
}

// HandleReady pings the store.
//
// HTTP: GET /api/health/ready
// RESPONSE: 200 {"status": "ready"} or 503 {"status": "unavailable"}
func (h *HealthHandler) HandleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	if err := h.ready(ctx); err != nil {
		h.logger.Warn("readiness check failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "unavailable", Time: h.now().UTC()})
		return
	}
	writeJSON(w, http.StatusOK, healthResponse{Status: "ready", Time: h.now().UTC()})
}
