package handlers

import (
	"context"
	"net/http"
	"time"
)

// Pinger reports whether a backing dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler serves liveness and readiness checks.
type HealthHandler struct {
	registry Pinger
}

// NewHealthHandler creates a health handler. registry may be nil when no
// pingable registry backend is configured.
func NewHealthHandler(registry Pinger) *HealthHandler {
	return &HealthHandler{registry: registry}
}

// Register mounts the health routes on mux.
func (h *HealthHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", h.HandleHealth)
}

// HealthStatus is the health endpoint's payload.
type HealthStatus struct {
	Status   string `json:"status"`
	Registry string `json:"registry,omitempty"`
}

// HandleHealth reports process liveness and registry reachability.
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	status := HealthStatus{Status: "ok"}

	if h.registry != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.registry.Ping(ctx); err != nil {
			status.Status = "degraded"
			status.Registry = err.Error()
			WriteJSON(w, http.StatusServiceUnavailable, Response{
				Success:   false,
				Data:      status,
				Timestamp: time.Now(),
			})
			return
		}
		status.Registry = "ok"
	}
	WriteSuccess(w, status)
}
