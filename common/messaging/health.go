package messaging

import "context"

// HealthStatus represents the health state of a messaging connection.
type HealthStatus struct {
	// Connected indicates if the client is connected.
	Connected bool `json:"connected"`

	// Error contains any error message if unhealthy.
	Error string `json:"error,omitempty"`
}

// CheckPublisherHealth reports whether a Publisher is usable.
func CheckPublisherHealth(_ context.Context, p Publisher) HealthStatus {
	if p == nil {
		return HealthStatus{Error: "publisher is nil"}
	}
	if !p.IsConnected() {
		return HealthStatus{Error: "not connected to message broker"}
	}
	return HealthStatus{Connected: true}
}
