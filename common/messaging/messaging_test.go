package messaging

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

type stubPublisher struct {
	connected bool
}

func (s *stubPublisher) PublishMsg(ctx context.Context, msg *Message) error { return nil }
func (s *stubPublisher) IsConnected() bool                                  { return s.connected }

func TestJobSubject(t *testing.T) {
	assert.Equal(t, SubjectJobsSync, JobSubject("sync"))
	assert.Equal(t, SubjectJobsReminders, JobSubject("reminders"))
}

func TestCheckPublisherHealth(t *testing.T) {
	tests := []struct {
		name      string
		pub       Publisher
		connected bool
		wantErr   string
	}{
		{name: "nil publisher", pub: nil, wantErr: "publisher is nil"},
		{name: "disconnected", pub: &stubPublisher{}, wantErr: "not connected to message broker"},
		{name: "connected", pub: &stubPublisher{connected: true}, connected: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status := CheckPublisherHealth(context.Background(), tt.pub)
			assert.Equal(t, tt.connected, status.Connected)
			assert.Equal(t, tt.wantErr, status.Error)
		})
	}
}
