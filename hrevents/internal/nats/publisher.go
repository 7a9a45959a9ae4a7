// Package nats provides NATS JetStream job queue integration for the hrevents service.
package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/hr-events/hr-events/common/logging"
	"github.com/hr-events/hr-events/common/messaging"
	natsclient "github.com/hr-events/hr-events/common/messaging/nats"
	"github.com/hr-events/hr-events/hrevents/internal/jobs"
	"github.com/hr-events/hr-events/hrevents/internal/metrics"
)

// ConsumerName is the durable consumer shared by all hrevents workers.
const ConsumerName = "hrevents-" + messaging.QueueShort

// Provisioner creates the stream and consumer used by the job queue.
type Provisioner interface {
	CreateOrUpdateStream(ctx context.Context, cfg natsclient.StreamConfig) error
	CreateOrUpdateConsumer(ctx context.Context, streamName string, cfg natsclient.ConsumerConfig) error
}

// Provision ensures the jobs stream and its single-delivery consumer exist.
// MaxAckPending 1 keeps job runs serialized across workers.
func Provision(ctx context.Context, p Provisioner, ackWait time.Duration) error {
	if err := p.CreateOrUpdateStream(ctx, natsclient.JobsStream); err != nil {
		return err
	}
	return p.CreateOrUpdateConsumer(ctx, natsclient.JobsStream.Name, natsclient.ConsumerConfig{
		Name:          ConsumerName,
		FilterSubject: messaging.SubjectJobsPrefix + ".>",
		AckWait:       ackWait,
		MaxDeliver:    1,
		MaxAckPending: 1,
	})
}

// Publisher enqueues jobs on the JetStream work queue.
type Publisher struct {
	publisher messaging.Publisher
	logger    *slog.Logger
}

// NewPublisher creates a job publisher.
func NewPublisher(publisher messaging.Publisher, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{publisher: publisher, logger: logger}
}

// Enqueue publishes a new job and returns once the broker has stored it.
func (p *Publisher) Enqueue(ctx context.Context, name string) (*jobs.Job, error) {
	job, err := jobs.New(name)
	if err != nil {
		return nil, err
	}
	kind, err := jobs.Kind(name)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(job)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal job: %w", err)
	}

	msg := &messaging.Message{
		Subject: messaging.JobSubject(kind),
		Data:    data,
		Metadata: map[string]string{
			messaging.HeaderJobID:   job.ID,
			messaging.HeaderJobName: job.Name,
			messaging.HeaderQueue:   job.Queue,
		},
	}
	if err := p.publisher.PublishMsg(ctx, msg); err != nil {
		return nil, fmt.Errorf("failed to enqueue %s: %w", name, err)
	}

	metrics.JobsEnqueued.WithLabelValues(job.Name).Inc()
	p.logger.InfoContext(ctx, "Job enqueued",
		logging.JobID(job.ID), logging.Job(job.Name), slog.String("subject", msg.Subject))
	return job, nil
}
