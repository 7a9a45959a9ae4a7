package logging

import "log/slog"

// Common field names for consistent logging across the service.
const (
	FieldService     = "service"
	FieldComponent   = "component"
	FieldRequestID   = "request_id"
	FieldJobID       = "job_id"
	FieldJob         = "job"
	FieldTitle       = "title"
	FieldEmail       = "email"
	FieldSlackUserID = "slack_user_id"
	FieldEmployee    = "employee"
	FieldCount       = "count"
	FieldMethod      = "method"
	FieldPath        = "path"
	FieldStatus      = "status"
	FieldDuration    = "duration_ms"
	FieldError       = "error"
)

// Service returns a slog attribute for the service name.
func Service(name string) slog.Attr {
	return slog.String(FieldService, name)
}

// Component returns a slog attribute naming the package that logs.
func Component(name string) slog.Attr {
	return slog.String(FieldComponent, name)
}

// Title returns the error-report label attached to failure log lines.
func Title(title string) slog.Attr {
	return slog.String(FieldTitle, title)
}

// Email returns a slog attribute for an internal user email.
func Email(email string) slog.Attr {
	return slog.String(FieldEmail, email)
}

// SlackUserID returns a slog attribute for a Slack member id.
func SlackUserID(id string) slog.Attr {
	return slog.String(FieldSlackUserID, id)
}

// Employee returns a slog attribute for an employee display name.
func Employee(name string) slog.Attr {
	return slog.String(FieldEmployee, name)
}

// Count returns a slog attribute for a counter value.
func Count(n int) slog.Attr {
	return slog.Int(FieldCount, n)
}

// JobID returns a slog attribute for a queued job id.
func JobID(id string) slog.Attr {
	return slog.String(FieldJobID, id)
}

// Job returns a slog attribute for a job name.
func Job(name string) slog.Attr {
	return slog.String(FieldJob, name)
}

// Method returns a slog attribute for the HTTP method.
func Method(method string) slog.Attr {
	return slog.String(FieldMethod, method)
}

// Path returns a slog attribute for the HTTP path.
func Path(path string) slog.Attr {
	return slog.String(FieldPath, path)
}

// Status returns a slog attribute for the HTTP status code.
func Status(code int) slog.Attr {
	return slog.Int(FieldStatus, code)
}

// Duration returns a slog attribute for duration in milliseconds.
func Duration(ms int64) slog.Attr {
	return slog.Int64(FieldDuration, ms)
}

// Error returns a slog attribute for an error.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(FieldError, "")
	}
	return slog.String(FieldError, err.Error())
}
