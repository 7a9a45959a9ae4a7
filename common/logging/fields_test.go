package logging

import (
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFieldHelpers(t *testing.T) {
	tests := []struct {
		name string
		attr slog.Attr
		key  string
		want any
	}{
		{"service", Service("hrevents"), FieldService, "hrevents"},
		{"component", Component("sync"), FieldComponent, "sync"},
		{"title", Title("HR Events Sync Failed"), FieldTitle, "HR Events Sync Failed"},
		{"email", Email("a@co.com"), FieldEmail, "a@co.com"},
		{"slack user", SlackUserID("U1"), FieldSlackUserID, "U1"},
		{"employee", Employee("Alice"), FieldEmployee, "Alice"},
		{"job", Job("sync-slack-hr-events"), FieldJob, "sync-slack-hr-events"},
		{"job id", JobID("j-1"), FieldJobID, "j-1"},
		{"count", Count(3), FieldCount, int64(3)},
		{"status", Status(202), FieldStatus, int64(202)},
		{"duration", Duration(15), FieldDuration, int64(15)},
		{"error", Error(errors.New("boom")), FieldError, "boom"},
		{"nil error", Error(nil), FieldError, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.key, tt.attr.Key)
			assert.Equal(t, tt.want, tt.attr.Value.Any())
		})
	}
}
