package api

import (
	"net/http"

	"clipstream/internal/auth"
	"clipstream/internal/observability/metrics"
	"clipstream/internal/storage"
	"clipstream/internal/views"
)

// Handler carries the dependencies shared by all API endpoints.
type Handler struct {
	Store               storage.Repository
	Sessions            *auth.SessionManager
	Objects             storage.ObjectStorage
	Views               views.Counter
	Metrics             *metrics.Recorder
	SessionCookiePolicy SessionCookiePolicy
	AllowSelfSignup     bool
}

// NewHandler wires a Handler with sensible defaults: self-signup enabled, a
// noop object store, and an in-memory view counter.
func NewHandler(store storage.Repository, sessions *auth.SessionManager) *Handler {
	return &Handler{
		Store:           store,
		Sessions:        sessions,
		Objects:         storage.NewObjectStorage(storage.ObjectStorageConfig{}),
		Views:           views.NewMemoryCounter(),
		Metrics:         metrics.Default(),
		AllowSelfSignup: true,
	}
}

func (h *Handler) metrics() *metrics.Recorder {
	if h.Metrics == nil {
		h.Metrics = metrics.Default()
	}
	return h.Metrics
}

func (h *Handler) methodNotAllowed(w http.ResponseWriter, r *http.Request, allowed string) {
	w.Header().Set("Allow", allowed)
	writeError(w, http.StatusMethodNotAllowed, errMethodNotAllowed(r.Method))
}
