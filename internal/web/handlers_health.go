package web

import (
	"context"
	"net/http"
	"time"

	"github.com/JonMunkholm/claims/internal/core"
	"github.com/JonMunkholm/claims/internal/logging"
)

// healthPingTimeout bounds the store check so a hung database cannot hang
// the health endpoint.
const healthPingTimeout = 2 * time.Second

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status    string                   `json:"status"`
	Timestamp time.Time                `json:"timestamp"`
	Service   string                   `json:"service"`
	Version   string                   `json:"version"`
	Database  string                   `json:"database"`
	Imports   core.ImportLimiterStatus `json:"imports"`
}

// handleHealth reports liveness and store reachability. An unreachable
// store answers 503 with status "degraded".
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:    "healthy",
		Timestamp: s.now().UTC(),
		Service:   ServiceName,
		Version:   Version,
		Database:  "ok",
		Imports:   s.service.ImportStatus(),
	}

	ctx, cancel := context.WithTimeout(r.Context(), healthPingTimeout)
	defer cancel()

	status := http.StatusOK
	if err := s.service.Ping(ctx); err != nil {
		logging.FromContext(r.Context()).Error("health check: store unreachable", "error", err)
		resp.Status = "degraded"
		resp.Database = "unreachable"
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp)
}
