package httputil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteJSON(t *testing.T) {
	w := httptest.NewRecorder()
	WriteJSON(w, http.StatusCreated, map[string]string{"message": "ok"})

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"message":"ok"}`, w.Body.String())
}

func TestWriteJSONAPIResource(t *testing.T) {
	tests := []struct {
		name     string
		meta     map[string]interface{}
		wantMeta bool
	}{
		{name: "without meta"},
		{name: "with meta", meta: map[string]interface{}{"message": "queued"}, wantMeta: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			WriteJSONAPIResource(w, http.StatusAccepted, "job", "j-1", map[string]string{"name": "sync"}, tt.meta)

			assert.Equal(t, http.StatusAccepted, w.Code)
			assert.Equal(t, ContentTypeJSONAPI, w.Header().Get("Content-Type"))

			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			data := body["data"].(map[string]interface{})
			assert.Equal(t, "job", data["type"])
			assert.Equal(t, "j-1", data["id"])
			_, hasMeta := body["meta"]
			assert.Equal(t, tt.wantMeta, hasMeta)
		})
	}
}

func TestWriteJSONAPICollection_Empty(t *testing.T) {
	w := httptest.NewRecorder()
	WriteJSONAPICollection(w, http.StatusOK, nil)

	assert.JSONEq(t, `{"data":[],"meta":{"total":0}}`, w.Body.String())
}

func TestWriteJSONAPIErrors(t *testing.T) {
	tests := []struct {
		name       string
		write      func(w http.ResponseWriter)
		wantStatus int
		wantCode   string
	}{
		{"validation", func(w http.ResponseWriter) { WriteJSONAPIValidationError(w, "bad") }, http.StatusBadRequest, "validation_failed"},
		{"not found", func(w http.ResponseWriter) { WriteJSONAPINotFoundError(w, "slack user", "x@co.com") }, http.StatusNotFound, "not_found"},
		{"unauthorized", func(w http.ResponseWriter) { WriteJSONAPIUnauthorizedError(w, "no token") }, http.StatusUnauthorized, "unauthorized"},
		{"method", WriteJSONAPIMethodNotAllowed, http.StatusMethodNotAllowed, "method_not_allowed"},
		{"internal", func(w http.ResponseWriter) { WriteJSONAPIInternalError(w, "boom") }, http.StatusInternalServerError, "internal_error"},
		{"unavailable", func(w http.ResponseWriter) { WriteJSONAPIServiceUnavailable(w, "down") }, http.StatusServiceUnavailable, "service_unavailable"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			tt.write(w)

			assert.Equal(t, tt.wantStatus, w.Code)
			var body struct {
				Errors []JSONAPIErrorObject `json:"errors"`
			}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			require.Len(t, body.Errors, 1)
			assert.Equal(t, tt.wantCode, body.Errors[0].Code)
			assert.Equal(t, tt.wantStatus, body.Errors[0].Status)
		})
	}
}
