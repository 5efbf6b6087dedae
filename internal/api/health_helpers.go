package api

import (
	"context"
	"net/http"
	"time"
)

type componentStatus struct {
	Component string `json:"component"`
	Status    string `json:"status"`
	Error     string `json:"error,omitempty"`
}

type pinger interface {
	Ping(ctx context.Context) error
}

// Health serves /healthz with per-component status for the datastore and the
// view counter.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	overall := "ok"
	statusCode := http.StatusOK
	record := func(component string, err error) componentStatus {
		status := "ok"
		message := ""
		if err != nil {
			status = "degraded"
			message = err.Error()
			overall = "degraded"
			statusCode = http.StatusServiceUnavailable
		}
		return componentStatus{Component: component, Status: status, Error: message}
	}

	components := make([]componentStatus, 0, 2)
	if h.Store != nil {
		components = append(components, record("datastore", h.Store.Ping(ctx)))
	}
	if p, ok := h.Views.(pinger); ok {
		components = append(components, record("view_counter", p.Ping(ctx)))
	}

	writeJSON(w, statusCode, map[string]interface{}{
		"status":     overall,
		"components": components,
	})
}
