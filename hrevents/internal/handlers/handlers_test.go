package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hr-events/hr-events/common/logging"
	"github.com/hr-events/hr-events/hrevents/internal/jobs"
	"github.com/hr-events/hr-events/hrevents/internal/models"
)

// ============================================================================
// Test Setup
// ============================================================================

type mockQueue struct {
	enqueued []string
	err      error
}

func (q *mockQueue) Enqueue(ctx context.Context, name string) (*jobs.Job, error) {
	if q.err != nil {
		return nil, q.err
	}
	q.enqueued = append(q.enqueued, name)
	return jobs.New(name)
}

type mockIdentities struct {
	mappings map[string]*models.IdentityMapping
	err      error
}

func (m *mockIdentities) LookupSlackUserID(ctx context.Context, email string) (string, bool, error) {
	if m.err != nil {
		return "", false, m.err
	}
	mapping, ok := m.mappings[email]
	if !ok {
		return "", false, nil
	}
	return mapping.SlackUserID, true, nil
}

func (m *mockIdentities) List(ctx context.Context) ([]*models.IdentityMapping, error) {
	if m.err != nil {
		return nil, m.err
	}
	out := make([]*models.IdentityMapping, 0, len(m.mappings))
	for _, mapping := range m.mappings {
		out = append(out, mapping)
	}
	return out, nil
}

func newTestHandler() (*Handler, *mockQueue, *mockIdentities) {
	q := &mockQueue{}
	ids := &mockIdentities{mappings: map[string]*models.IdentityMapping{
		"a@co.com": {User: "a@co.com", SlackUserID: "U1", SlackUsername: "alice", UpdatedAt: time.Now()},
	}}
	return NewHandler(q, ids, logging.Discard()), q, ids
}

type jsonAPIBody struct {
	Data   json.RawMessage        `json:"data"`
	Meta   map[string]interface{} `json:"meta"`
	Errors []struct {
		Status int    `json:"status"`
		Code   string `json:"code"`
	} `json:"errors"`
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) jsonAPIBody {
	t.Helper()
	var body jsonAPIBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

// ============================================================================
// Trigger Tests
// ============================================================================

func TestTriggerSync(t *testing.T) {
	h, q, _ := newTestHandler()

	w := httptest.NewRecorder()
	h.TriggerSync(w, httptest.NewRequest(http.MethodPost, "/api/v1/sync", nil))

	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, []string{jobs.NameSync}, q.enqueued)

	body := decodeBody(t, w)
	assert.Equal(t, jobs.SyncStartedTitle, body.Meta["title"])
	assert.Equal(t, jobs.SyncStartedMessage, body.Meta["message"])

	var resource struct {
		Type       string   `json:"type"`
		ID         string   `json:"id"`
		Attributes jobs.Job `json:"attributes"`
	}
	require.NoError(t, json.Unmarshal(body.Data, &resource))
	assert.Equal(t, "job", resource.Type)
	assert.NotEmpty(t, resource.ID)
	assert.Equal(t, jobs.NameSync, resource.Attributes.Name)
}

func TestTriggerReminders(t *testing.T) {
	h, q, _ := newTestHandler()

	w := httptest.NewRecorder()
	h.TriggerReminders(w, httptest.NewRequest(http.MethodPost, "/api/v1/reminders", nil))

	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, []string{jobs.NameReminders}, q.enqueued)
}

func TestTrigger_Errors(t *testing.T) {
	tests := []struct {
		name     string
		method   string
		queueErr error
		status   int
	}{
		{name: "wrong method", method: http.MethodGet, status: http.StatusMethodNotAllowed},
		{name: "queue full", method: http.MethodPost, queueErr: jobs.ErrQueueFull, status: http.StatusServiceUnavailable},
		{name: "queue stopped", method: http.MethodPost, queueErr: jobs.ErrQueueStopped, status: http.StatusServiceUnavailable},
		{name: "broker error", method: http.MethodPost, queueErr: errors.New("nats: timeout"), status: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, q, _ := newTestHandler()
			q.err = tt.queueErr

			w := httptest.NewRecorder()
			h.TriggerSync(w, httptest.NewRequest(tt.method, "/api/v1/sync", nil))

			assert.Equal(t, tt.status, w.Code)
			assert.Empty(t, q.enqueued)
		})
	}
}

// ============================================================================
// Slack User Tests
// ============================================================================

func TestGetSlackUser(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		status int
		id     string
	}{
		{name: "mapped", path: "/api/v1/slack-users/a@co.com", status: http.StatusOK, id: "U1"},
		{name: "unmapped", path: "/api/v1/slack-users/x@co.com", status: http.StatusNotFound},
		{name: "missing email", path: "/api/v1/slack-users/", status: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, _, _ := newTestHandler()

			w := httptest.NewRecorder()
			h.GetSlackUser(w, httptest.NewRequest(http.MethodGet, tt.path, nil))

			assert.Equal(t, tt.status, w.Code)
			if tt.status != http.StatusOK {
				return
			}

			var resource struct {
				ID         string              `json:"id"`
				Attributes SlackUserAttributes `json:"attributes"`
			}
			require.NoError(t, json.Unmarshal(decodeBody(t, w).Data, &resource))
			assert.Equal(t, "a@co.com", resource.ID)
			assert.Equal(t, tt.id, resource.Attributes.SlackUserID)
		})
	}
}

func TestGetSlackUser_StoreError(t *testing.T) {
	h, _, ids := newTestHandler()
	ids.err = errors.New("connection refused")

	w := httptest.NewRecorder()
	h.GetSlackUser(w, httptest.NewRequest(http.MethodGet, "/api/v1/slack-users/a@co.com", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestListSlackUsers(t *testing.T) {
	h, _, _ := newTestHandler()

	w := httptest.NewRecorder()
	h.ListSlackUsers(w, httptest.NewRequest(http.MethodGet, "/api/v1/slack-users", nil))

	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.EqualValues(t, 1, body.Meta["total"])

	var resources []struct {
		Type       string              `json:"type"`
		Attributes SlackUserAttributes `json:"attributes"`
	}
	require.NoError(t, json.Unmarshal(body.Data, &resources))
	require.Len(t, resources, 1)
	assert.Equal(t, "slack-user", resources[0].Type)
	assert.Equal(t, "alice", resources[0].Attributes.SlackUsername)
}

// ============================================================================
// Health Tests
// ============================================================================

func TestReadyCheck(t *testing.T) {
	tests := []struct {
		name   string
		dbErr  error
		status int
	}{
		{name: "all ready", status: http.StatusOK},
		{name: "database down", dbErr: errors.New("dial tcp: refused"), status: http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, _, _ := newTestHandler()
			h.WithReadinessCheck("database", func(ctx context.Context) error { return tt.dbErr }).
				WithReadinessCheck("nats", func(ctx context.Context) error { return nil })

			w := httptest.NewRecorder()
			h.ReadyCheck(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))

			assert.Equal(t, tt.status, w.Code)
			var resp HealthResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, "ok", resp.Checks["nats"])
			if tt.dbErr != nil {
				assert.Equal(t, "not_ready", resp.Status)
				assert.Equal(t, tt.dbErr.Error(), resp.Checks["database"])
			} else {
				assert.Equal(t, "ready", resp.Status)
			}
		})
	}
}

func TestHealthCheck(t *testing.T) {
	h, _, _ := newTestHandler()

	w := httptest.NewRecorder()
	h.HealthCheck(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
}
