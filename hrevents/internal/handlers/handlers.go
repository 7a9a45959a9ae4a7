// Package handlers provides HTTP request handlers for the hrevents service.
package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/hr-events/hr-events/common/httputil"
	"github.com/hr-events/hr-events/common/logging"
	"github.com/hr-events/hr-events/hrevents/internal/jobs"
	"github.com/hr-events/hr-events/hrevents/internal/models"
)

// IdentityReader is the read side of the identity store.
type IdentityReader interface {
	LookupSlackUserID(ctx context.Context, email string) (string, bool, error)
	List(ctx context.Context) ([]*models.IdentityMapping, error)
}

// ReadinessCheck reports whether a dependency is usable.
type ReadinessCheck func(ctx context.Context) error

// Handler provides HTTP handlers for the hrevents service
type Handler struct {
	queue      jobs.Queue
	identities IdentityReader
	checks     map[string]ReadinessCheck
	logger     *slog.Logger
}

// NewHandler creates a new Handler instance
func NewHandler(queue jobs.Queue, identities IdentityReader, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		queue:      queue,
		identities: identities,
		checks:     make(map[string]ReadinessCheck),
		logger:     logger,
	}
}

// WithReadinessCheck registers a dependency probed by /readyz.
func (h *Handler) WithReadinessCheck(name string, check ReadinessCheck) *Handler {
	h.checks[name] = check
	return h
}

// HealthResponse is the body of the probe endpoints.
type HealthResponse struct {
	Status  string            `json:"status"`
	Service string            `json:"service"`
	Checks  map[string]string `json:"checks,omitempty"`
}

// SlackUserAttributes is the JSON:API attribute set of a slack-user resource.
type SlackUserAttributes struct {
	Email         string     `json:"email"`
	SlackUserID   string     `json:"slack_user_id"`
	SlackUsername string     `json:"slack_username,omitempty"`
	UpdatedAt     *time.Time `json:"updated_at,omitempty"`
}

// =============================================================================
// Health Check Handlers
// =============================================================================

// HealthCheck handles GET /healthz
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSONAPI(w, http.StatusOK, HealthResponse{
		Status:  "ok",
		Service: "hrevents",
	})
}

// ReadyCheck handles GET /readyz
func (h *Handler) ReadyCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	status := http.StatusOK
	resp := HealthResponse{Status: "ready", Service: "hrevents", Checks: make(map[string]string, len(names))}
	for _, name := range names {
		if err := h.checks[name](ctx); err != nil {
			h.logger.WarnContext(ctx, "readiness check failed", slog.String("check", name), logging.Error(err))
			resp.Checks[name] = err.Error()
			resp.Status = "not_ready"
			status = http.StatusServiceUnavailable
			continue
		}
		resp.Checks[name] = "ok"
	}

	httputil.WriteJSONAPI(w, status, resp)
}

// =============================================================================
// Job Trigger Handlers
// =============================================================================

// TriggerSync handles POST /api/v1/sync. The sync runs in the background.
func (h *Handler) TriggerSync(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.WriteJSONAPIMethodNotAllowed(w)
		return
	}

	job, ok := h.enqueue(w, r, jobs.NameSync)
	if !ok {
		return
	}

	httputil.WriteJSONAPIResource(w, http.StatusAccepted, "job", job.ID, job, map[string]interface{}{
		"title":   jobs.SyncStartedTitle,
		"message": jobs.SyncStartedMessage,
	})
}

// TriggerReminders handles POST /api/v1/reminders.
func (h *Handler) TriggerReminders(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.WriteJSONAPIMethodNotAllowed(w)
		return
	}

	job, ok := h.enqueue(w, r, jobs.NameReminders)
	if !ok {
		return
	}

	httputil.WriteJSONAPIResource(w, http.StatusAccepted, "job", job.ID, job, map[string]interface{}{
		"message": "Sending birthday and work anniversary reminders in the background.",
	})
}

func (h *Handler) enqueue(w http.ResponseWriter, r *http.Request, name string) (*jobs.Job, bool) {
	job, err := h.queue.Enqueue(r.Context(), name)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to enqueue job", logging.Job(name), logging.Error(err))
		if errors.Is(err, jobs.ErrQueueFull) || errors.Is(err, jobs.ErrQueueStopped) {
			httputil.WriteJSONAPIServiceUnavailable(w, "Job queue is unavailable")
			return nil, false
		}
		httputil.WriteJSONAPIInternalError(w, "Failed to enqueue job")
		return nil, false
	}

	h.logger.InfoContext(r.Context(), "job enqueued", logging.Job(name), logging.JobID(job.ID))
	return job, true
}

// =============================================================================
// Slack User Handlers
// =============================================================================

// ListSlackUsers handles GET /api/v1/slack-users
func (h *Handler) ListSlackUsers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.WriteJSONAPIMethodNotAllowed(w)
		return
	}

	mappings, err := h.identities.List(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to list slack users", logging.Error(err))
		httputil.WriteJSONAPIInternalError(w, "Failed to list Slack users")
		return
	}

	resources := make([]httputil.JSONAPIResource, 0, len(mappings))
	for _, m := range mappings {
		updated := m.UpdatedAt
		resources = append(resources, httputil.JSONAPIResource{
			Type: "slack-user",
			ID:   m.User,
			Attributes: SlackUserAttributes{
				Email:         m.User,
				SlackUserID:   m.SlackUserID,
				SlackUsername: m.SlackUsername,
				UpdatedAt:     &updated,
			},
		})
	}

	httputil.WriteJSONAPICollection(w, http.StatusOK, resources)
}

// GetSlackUser handles GET /api/v1/slack-users/{email}
func (h *Handler) GetSlackUser(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.WriteJSONAPIMethodNotAllowed(w)
		return
	}

	email := extractIDFromPath(r.URL.Path, "/api/v1/slack-users")
	if email == "" {
		httputil.WriteJSONAPIValidationError(w, "Email required")
		return
	}

	id, found, err := h.identities.LookupSlackUserID(r.Context(), email)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to look up slack user", logging.Email(email), logging.Error(err))
		httputil.WriteJSONAPIInternalError(w, "Failed to look up Slack user")
		return
	}
	if !found {
		httputil.WriteJSONAPINotFoundError(w, "slack-user", email)
		return
	}

	httputil.WriteJSONAPIResource(w, http.StatusOK, "slack-user", email, SlackUserAttributes{
		Email:       email,
		SlackUserID: id,
	}, nil)
}

// extractIDFromPath extracts an ID from a URL path like /api/v1/slack-users/{id}
func extractIDFromPath(path, prefix string) string {
	remaining := strings.TrimPrefix(path, prefix)
	remaining = strings.TrimPrefix(remaining, "/")

	parts := strings.Split(remaining, "/")
	if len(parts) > 0 {
		return parts[0]
	}
	return ""
}
