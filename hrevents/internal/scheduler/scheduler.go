// Package scheduler enqueues the daily jobs at fixed wall-clock times.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/hr-events/hr-events/common/logging"
	"github.com/hr-events/hr-events/hrevents/internal/jobs"
)

// Entry is a job enqueued once a day at At (offset from local midnight).
type Entry struct {
	Job string
	At  time.Duration
}

// Scheduler enqueues daily jobs. It only enqueues; the queue runs them.
type Scheduler struct {
	queue    jobs.Queue
	location *time.Location
	entries  []Entry
	logger   *slog.Logger
	now      func() time.Time
	after    func(time.Duration) <-chan time.Time
	stop     chan struct{}
	stopped  chan struct{}
}

// NewScheduler creates a scheduler evaluating wall-clock times in loc.
func NewScheduler(queue jobs.Queue, loc *time.Location, logger *slog.Logger) *Scheduler {
	if loc == nil {
		loc = time.Local
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		queue:    queue,
		location: loc,
		logger:   logger,
		now:      time.Now,
		after:    time.After,
		stop:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}
}

// Add registers a daily job.
func (s *Scheduler) Add(job string, at time.Duration) {
	s.entries = append(s.entries, Entry{Job: job, At: at})
}

// Start runs the scheduler loop until Stop or ctx is done. Call it in a goroutine.
func (s *Scheduler) Start(ctx context.Context) {
	defer close(s.stopped)

	s.logger.Info("Daily scheduler started",
		slog.String("timezone", s.location.String()),
		logging.Count(len(s.entries)),
	)

	var last time.Time
	for {
		now := s.now()
		if !now.After(last) {
			now = last
		}

		next, due := s.nextRun(now)
		if len(due) == 0 {
			select {
			case <-s.stop:
			case <-ctx.Done():
			}
			return
		}

		s.logger.Debug("Next scheduled run", slog.Time("at", next), slog.Any("jobs", due))

		select {
		case <-s.after(next.Sub(now)):
			for _, job := range due {
				s.enqueue(ctx, job)
			}
			last = next
		case <-s.stop:
			s.logger.Info("Daily scheduler stopped")
			return
		case <-ctx.Done():
			s.logger.Info("Daily scheduler context cancelled")
			return
		}
	}
}

// Stop signals the scheduler to stop and waits for it to finish.
func (s *Scheduler) Stop() {
	close(s.stop)
	<-s.stopped
}

// nextRun returns the earliest upcoming run time and every job due at it.
func (s *Scheduler) nextRun(now time.Time) (time.Time, []string) {
	var next time.Time
	var due []string
	for _, e := range s.entries {
		t := NextRun(now, e.At, s.location)
		switch {
		case next.IsZero() || t.Before(next):
			next = t
			due = []string{e.Job}
		case t.Equal(next):
			due = append(due, e.Job)
		}
	}
	return next, due
}

func (s *Scheduler) enqueue(ctx context.Context, name string) {
	job, err := s.queue.Enqueue(ctx, name)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to enqueue scheduled job",
			logging.Job(name), logging.Error(err))
		return
	}
	s.logger.InfoContext(ctx, "Scheduled job enqueued",
		logging.JobID(job.ID), logging.Job(job.Name))
}

// NextRun returns the first time strictly after now whose wall clock in loc
// equals at past midnight.
func NextRun(now time.Time, at time.Duration, loc *time.Location) time.Time {
	hour := int(at / time.Hour)
	minute := int((at % time.Hour) / time.Minute)

	local := now.In(loc)
	y, m, d := local.Date()
	candidate := time.Date(y, m, d, hour, minute, 0, 0, loc)
	if !candidate.After(now) {
		candidate = time.Date(y, m, d+1, hour, minute, 0, 0, loc)
	}
	return candidate
}
