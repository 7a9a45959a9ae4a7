// Package server provides HTTP server setup for the hrevents service.
package server

import (
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hr-events/hr-events/common/middleware"
	"github.com/hr-events/hr-events/hrevents/internal/handlers"
)

// Authenticator wraps handlers that require a bearer token.
type Authenticator interface {
	RequireAuth(next http.Handler) http.Handler
}

// NewRouter constructs a ServeMux with hrevents routes registered.
// Probe and metrics endpoints are public; /api/v1 routes go through auth.
func NewRouter(h *handlers.Handler, auth Authenticator, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()

	// Health check endpoints
	mux.HandleFunc("/healthz", h.HealthCheck)
	mux.HandleFunc("/readyz", h.ReadyCheck)
	mux.Handle("/metrics", promhttp.Handler())

	api := http.NewServeMux()
	api.HandleFunc("/api/v1/sync", h.TriggerSync)
	api.HandleFunc("/api/v1/reminders", h.TriggerReminders)
	api.HandleFunc("/api/v1/slack-users", h.ListSlackUsers)
	api.HandleFunc("/api/v1/slack-users/", h.GetSlackUser)
	mux.Handle("/api/v1/", auth.RequireAuth(api))

	return middleware.RequestID(middleware.AccessLog(logger)(mux))
}
