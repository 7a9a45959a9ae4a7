package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/hr-events/hr-events/common/logging"
	"github.com/hr-events/hr-events/common/messaging"
	natsclient "github.com/hr-events/hr-events/common/messaging/nats"
	"github.com/hr-events/hr-events/hrevents/internal/jobs"
)

// Consumer delivers messages from a durable JetStream consumer.
type Consumer interface {
	ConsumeMessages(ctx context.Context, streamName, consumerName string, handler messaging.MessageHandler) (func(), error)
}

// Handler runs jobs received from the work queue.
type Handler struct {
	consumer Consumer
	runner   *jobs.Runner
	logger   *slog.Logger
	mu       sync.Mutex
	stop     func()
}

// NewHandler creates a job handler.
func NewHandler(consumer Consumer, runner *jobs.Runner, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{consumer: consumer, runner: runner, logger: logger}
}

// Start begins consuming jobs.
func (h *Handler) Start(ctx context.Context) error {
	stop, err := h.consumer.ConsumeMessages(ctx, natsclient.JobsStream.Name, ConsumerName, h.handleJob)
	if err != nil {
		return fmt.Errorf("failed to consume jobs: %w", err)
	}

	h.mu.Lock()
	h.stop = stop
	h.mu.Unlock()

	h.logger.Info("NATS job handler started",
		slog.String("stream", natsclient.JobsStream.Name),
		slog.String("consumer", ConsumerName),
	)
	return nil
}

// Stop stops consuming jobs.
func (h *Handler) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.stop != nil {
		h.stop()
		h.stop = nil
	}
	h.logger.Info("NATS job handler stopped")
}

// handleJob decodes and runs one job. Malformed or unknown jobs return an
// error so the message is terminated rather than redelivered.
func (h *Handler) handleJob(ctx context.Context, msg *messaging.Message) error {
	var job jobs.Job
	if err := json.Unmarshal(msg.Data, &job); err != nil {
		h.logger.ErrorContext(ctx, "Failed to decode job message",
			slog.String("subject", msg.Subject), logging.Error(err))
		return err
	}

	if job.ID == "" {
		job.ID = msg.Metadata[messaging.HeaderJobID]
	}

	if err := h.runner.Run(ctx, &job); err != nil {
		h.logger.ErrorContext(ctx, "Failed to run job",
			logging.JobID(job.ID), logging.Job(job.Name), logging.Error(err))
		return err
	}
	return nil
}
