// Package jobs defines the background jobs and an in-process queue that runs them.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hr-events/hr-events/common/logging"
	"github.com/hr-events/hr-events/common/messaging"
	"github.com/hr-events/hr-events/hrevents/internal/metrics"
)

// Job names.
const (
	NameSync      = "sync-slack-hr-events"
	NameReminders = "send-event-reminders"
)

// Acknowledgment returned to callers that enqueue a sync.
const (
	SyncStartedTitle   = "Syncing Started"
	SyncStartedMessage = "Syncing Slack users in the background. This may take a few minutes."
)

var (
	ErrUnknownJob   = errors.New("unknown job")
	ErrQueueStopped = errors.New("job queue is stopped")
	ErrQueueFull    = errors.New("job queue is full")
)

// kinds maps job names to subject suffixes.
var kinds = map[string]string{
	NameSync:      "sync",
	NameReminders: "reminders",
}

// Kind returns the subject suffix for a job name.
func Kind(name string) (string, error) {
	k, ok := kinds[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownJob, name)
	}
	return k, nil
}

// NameForKind is the inverse of Kind.
func NameForKind(kind string) (string, error) {
	for name, k := range kinds {
		if k == kind {
			return name, nil
		}
	}
	return "", fmt.Errorf("%w: kind %s", ErrUnknownJob, kind)
}

// Job is one queued run of a named job.
type Job struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Queue      string    `json:"queue"`
	EnqueuedAt time.Time `json:"enqueued_at"`
}

// New creates a job on the short queue.
func New(name string) (*Job, error) {
	if _, err := Kind(name); err != nil {
		return nil, err
	}
	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate job id: %w", err)
	}
	return &Job{
		ID:         id.String(),
		Name:       name,
		Queue:      messaging.QueueShort,
		EnqueuedAt: time.Now().UTC(),
	}, nil
}

// Queue accepts jobs for asynchronous execution.
type Queue interface {
	Enqueue(ctx context.Context, name string) (*Job, error)
}

// Func runs a job and returns a summary for the log.
type Func func(ctx context.Context) any

// Runner dispatches jobs to registered functions.
type Runner struct {
	mu     sync.RWMutex
	funcs  map[string]Func
	logger *slog.Logger
}

// NewRunner creates an empty runner.
func NewRunner(logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{funcs: make(map[string]Func), logger: logger}
}

// Register binds name to fn.
func (r *Runner) Register(name string, fn Func) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.funcs[name] = fn
}

// Run executes job synchronously. Only an unknown job name is an error; job
// outcomes are reported through logs and metrics.
func (r *Runner) Run(ctx context.Context, job *Job) error {
	r.mu.RLock()
	fn, ok := r.funcs[job.Name]
	r.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownJob, job.Name)
	}

	ctx = logging.ContextWithJobID(ctx, job.ID)
	logger := r.logger.With(logging.JobID(job.ID), logging.Job(job.Name))

	logger.InfoContext(ctx, "Job started", slog.String("queue", job.Queue))
	start := time.Now()
	result := fn(ctx)
	elapsed := time.Since(start)
	metrics.JobDuration.WithLabelValues(job.Name).Observe(elapsed.Seconds())

	logger.InfoContext(ctx, "Job finished",
		logging.Duration(elapsed.Milliseconds()),
		slog.Any("result", result),
	)
	return nil
}

// LocalQueue runs jobs one at a time on a background goroutine.
// It is used when no broker is configured.
type LocalQueue struct {
	runner  *Runner
	jobs    chan *Job
	logger  *slog.Logger
	mu      sync.RWMutex
	running bool
	stop    chan struct{}
	wg      sync.WaitGroup
}

// NewLocalQueue creates a queue holding up to size pending jobs.
func NewLocalQueue(runner *Runner, size int, logger *slog.Logger) *LocalQueue {
	if size <= 0 {
		size = 16
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &LocalQueue{
		runner: runner,
		jobs:   make(chan *Job, size),
		logger: logger,
	}
}

// Start launches the worker.
func (q *LocalQueue) Start(ctx context.Context) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.running {
		return
	}
	q.running = true
	q.stop = make(chan struct{})

	q.wg.Add(1)
	go q.work(ctx)
}

// Stop stops accepting jobs and waits for the current one to finish.
// Pending jobs are dropped.
func (q *LocalQueue) Stop() {
	q.mu.Lock()
	if !q.running {
		q.mu.Unlock()
		return
	}
	q.running = false
	close(q.stop)
	q.mu.Unlock()

	q.wg.Wait()
}

// Enqueue adds a job without waiting for it to run.
func (q *LocalQueue) Enqueue(ctx context.Context, name string) (*Job, error) {
	job, err := New(name)
	if err != nil {
		return nil, err
	}

	q.mu.RLock()
	defer q.mu.RUnlock()
	if !q.running {
		return nil, ErrQueueStopped
	}

	select {
	case q.jobs <- job:
		metrics.JobsEnqueued.WithLabelValues(job.Name).Inc()
		q.logger.InfoContext(ctx, "Job enqueued", logging.JobID(job.ID), logging.Job(job.Name))
		return job, nil
	default:
		return nil, ErrQueueFull
	}
}

func (q *LocalQueue) work(ctx context.Context) {
	defer q.wg.Done()
	for {
		select {
		case job := <-q.jobs:
			if err := q.runner.Run(ctx, job); err != nil {
				q.logger.ErrorContext(ctx, "Job failed", logging.JobID(job.ID), logging.Job(job.Name), logging.Error(err))
			}
		case <-q.stop:
			return
		case <-ctx.Done():
			return
		}
	}
}
