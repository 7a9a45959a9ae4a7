package httputil

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// ContentTypeJSONAPI is the JSON:API media type.
const ContentTypeJSONAPI = "application/vnd.api+json"

// WriteJSON writes a JSON response with the given status code and data.
// Encoding errors are logged, the status line is already sent by then.
func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
	}
}

// WriteJSONAPI writes a JSON:API response with the application/vnd.api+json content type.
func WriteJSONAPI(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", ContentTypeJSONAPI)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode JSON:API response", slog.String("error", err.Error()))
	}
}

// WriteJSONAPIError writes a JSON:API compliant error response with a single error object.
func WriteJSONAPIError(w http.ResponseWriter, status int, code, title, detail string) {
	WriteJSONAPIErrorResponse(w, status, []JSONAPIErrorObject{NewJSONAPIError(status, code, title, detail)})
}
