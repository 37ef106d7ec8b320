package handlers

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/isdelr/smarttodo-be/internal/monitoring"
	"github.com/rs/zerolog/log"
)

// HostStatsProvider returns the latest host snapshot.
type HostStatsProvider interface {
	Latest() monitoring.HostStats
}

// HealthHandler reports whether the API can reach its database.
type HealthHandler struct {
	db    *sql.DB
	stats HostStatsProvider
}

// NewHealthHandler creates a new HealthHandler. stats may be nil.
func NewHealthHandler(db *sql.DB, stats HostStatsProvider) *HealthHandler {
	return &HealthHandler{db: db, stats: stats}
}

// HealthResponse is the body of the health endpoint.
type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	monitoring.HostStats
}

// Get answers 200 when the database responds and 503 otherwise.
func (h *HealthHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	resp := HealthResponse{Status: "ok", Database: "ok"}
	if h.stats != nil {
		resp.HostStats = h.stats.Latest()
	}

	status := http.StatusOK
	if err := h.db.PingContext(ctx); err != nil {
		log.Error().Err(err).Msg("Health check: database unreachable")
		resp.Status = "unavailable"
		resp.Database = "unreachable"
		status = http.StatusServiceUnavailable
	}
	respondJSON(w, status, resp)
}
