package httputil

import (
	"net/http"
)

// JSONAPIResource represents a single JSON:API resource.
type JSONAPIResource struct {
	Type       string      `json:"type"`
	ID         string      `json:"id"`
	Attributes interface{} `json:"attributes"`
}

// JSONAPIErrorObject represents a single JSON:API error.
type JSONAPIErrorObject struct {
	Status int    `json:"status,omitempty"`
	Code   string `json:"code,omitempty"`
	Title  string `json:"title,omitempty"`
	Detail string `json:"detail,omitempty"`
}

// NewJSONAPIError creates a single JSON:API error object.
func NewJSONAPIError(status int, code, title, detail string) JSONAPIErrorObject {
	return JSONAPIErrorObject{
		Status: status,
		Code:   code,
		Title:  title,
		Detail: detail,
	}
}

// WriteJSONAPIResource writes a single JSON:API resource response.
// meta is optional and omitted when nil.
//
// Example:
//
//	httputil.WriteJSONAPIResource(w, http.StatusAccepted, "job", job.ID, job, map[string]interface{}{"message": "queued"})
func WriteJSONAPIResource(w http.ResponseWriter, status int, resourceType, id string, attributes interface{}, meta map[string]interface{}) {
	response := map[string]interface{}{
		"data": JSONAPIResource{
			Type:       resourceType,
			ID:         id,
			Attributes: attributes,
		},
	}
	if meta != nil {
		response["meta"] = meta
	}
	WriteJSONAPI(w, status, response)
}

// WriteJSONAPICollection writes a JSON:API collection response with a total count in meta.
func WriteJSONAPICollection(w http.ResponseWriter, status int, resources []JSONAPIResource) {
	if resources == nil {
		resources = []JSONAPIResource{}
	}
	WriteJSONAPI(w, status, map[string]interface{}{
		"data": resources,
		"meta": map[string]interface{}{"total": len(resources)},
	})
}

// WriteJSONAPIErrorResponse writes a JSON:API compliant error response with multiple errors.
func WriteJSONAPIErrorResponse(w http.ResponseWriter, status int, errors []JSONAPIErrorObject) {
	WriteJSONAPI(w, status, map[string]interface{}{
		"errors": errors,
	})
}

// WriteJSONAPIValidationError writes a 400 validation error response.
func WriteJSONAPIValidationError(w http.ResponseWriter, detail string) {
	WriteJSONAPIError(w, http.StatusBadRequest, "validation_failed", "Validation Failed", detail)
}

// WriteJSONAPINotFoundError writes a 404 not found error response.
func WriteJSONAPINotFoundError(w http.ResponseWriter, resourceType, id string) {
	WriteJSONAPIError(w, http.StatusNotFound, "not_found", "Resource Not Found",
		"The requested "+resourceType+" with ID '"+id+"' was not found")
}

// WriteJSONAPIUnauthorizedError writes a 401 unauthorized error response.
func WriteJSONAPIUnauthorizedError(w http.ResponseWriter, detail string) {
	WriteJSONAPIError(w, http.StatusUnauthorized, "unauthorized", "Unauthorized", detail)
}

// WriteJSONAPIMethodNotAllowed writes a 405 error response.
func WriteJSONAPIMethodNotAllowed(w http.ResponseWriter) {
	WriteJSONAPIError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Method Not Allowed", "")
}

// WriteJSONAPIInternalError writes a 500 internal server error response.
// Log the underlying error with context before calling this.
func WriteJSONAPIInternalError(w http.ResponseWriter, detail string) {
	WriteJSONAPIError(w, http.StatusInternalServerError, "internal_error", "Internal Server Error", detail)
}

// WriteJSONAPIServiceUnavailable writes a 503 error response.
func WriteJSONAPIServiceUnavailable(w http.ResponseWriter, detail string) {
	WriteJSONAPIError(w, http.StatusServiceUnavailable, "service_unavailable", "Service Unavailable", detail)
}
