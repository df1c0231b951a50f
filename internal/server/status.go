package server

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/desertthunder/tracklink/internal/metrics"
	"github.com/desertthunder/tracklink/internal/shared"
)

// StatusHandler exposes health and metrics endpoints for long-running
// resolution jobs. Implements the Handler interface.
type StatusHandler struct {
	collector *metrics.Collector
	db        *sql.DB
	started   time.Time
}

// NewStatusHandler creates a status handler backed by the given metrics
// collector. The database handle is optional; when present /health
// reports its reachability.
func NewStatusHandler(collector *metrics.Collector, db *sql.DB) *StatusHandler {
	if collector == nil {
		collector = metrics.Default()
	}
	return &StatusHandler{
		collector: collector,
		db:        db,
		started:   time.Now(),
	}
}

// Routes returns the HTTP routes this handler serves.
func (h *StatusHandler) Routes() []string {
	return []string{"/health", "/metrics"}
}

func (h *StatusHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/health":
		h.health(w, r)
	case "/metrics":
		h.metrics(w, r)
	default:
		http.NotFound(w, r)
	}
}

func (h *StatusHandler) health(w http.ResponseWriter, _ *http.Request) {
	status := map[string]any{
		"status":         "ok",
		"uptime_seconds": int(time.Since(h.started).Seconds()),
	}

	code := http.StatusOK
	if h.db != nil {
		if err := h.db.Ping(); err != nil {
			status["status"] = "degraded"
			status["database"] = err.Error()
			code = http.StatusServiceUnavailable
		} else {
			status["database"] = "ok"
		}
	}

	writeJSON(w, code, status)
}

func (h *StatusHandler) metrics(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.collector.Snapshot())
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	data, err := shared.MarshalJSON(v, true)
	if err != nil {
		http.Error(w, "Failed to serialize response", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(data)
}
