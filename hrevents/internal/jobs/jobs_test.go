package jobs

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hr-events/hr-events/common/logging"
	"github.com/hr-events/hr-events/common/messaging"
)

func TestNew(t *testing.T) {
	job, err := New(NameSync)
	require.NoError(t, err)

	parsed, err := uuid.Parse(job.ID)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), parsed.Version())
	assert.Equal(t, NameSync, job.Name)
	assert.Equal(t, messaging.QueueShort, job.Queue)

	_, err = New("unknown")
	assert.ErrorIs(t, err, ErrUnknownJob)
}

func TestKind(t *testing.T) {
	k, err := Kind(NameReminders)
	require.NoError(t, err)
	assert.Equal(t, "reminders", k)

	name, err := NameForKind("sync")
	require.NoError(t, err)
	assert.Equal(t, NameSync, name)

	_, err = NameForKind("bogus")
	assert.ErrorIs(t, err, ErrUnknownJob)
}

func TestRunner_Run(t *testing.T) {
	r := NewRunner(logging.Discard())

	var gotJobID string
	r.Register(NameSync, func(ctx context.Context) any {
		gotJobID = logging.JobIDFromContext(ctx)
		return "ok"
	})

	job, err := New(NameSync)
	require.NoError(t, err)
	require.NoError(t, r.Run(context.Background(), job))
	assert.Equal(t, job.ID, gotJobID)

	other, err := New(NameReminders)
	require.NoError(t, err)
	assert.ErrorIs(t, r.Run(context.Background(), other), ErrUnknownJob)
}

func TestLocalQueue_RunsJobsSerially(t *testing.T) {
	r := NewRunner(logging.Discard())

	var mu sync.Mutex
	var order []string
	active, maxActive := 0, 0
	done := make(chan struct{}, 3)

	record := func(name string) Func {
		return func(ctx context.Context) any {
			mu.Lock()
			active++
			if active > maxActive {
				maxActive = active
			}
			mu.Unlock()

			time.Sleep(10 * time.Millisecond)

			mu.Lock()
			active--
			order = append(order, name)
			mu.Unlock()
			done <- struct{}{}
			return nil
		}
	}
	r.Register(NameSync, record(NameSync))
	r.Register(NameReminders, record(NameReminders))

	q := NewLocalQueue(r, 8, logging.Discard())
	q.Start(context.Background())
	defer q.Stop()

	ctx := context.Background()
	for _, name := range []string{NameSync, NameReminders, NameSync} {
		_, err := q.Enqueue(ctx, name)
		require.NoError(t, err)
	}

	for i := 0; i < 3; i++ {
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for jobs")
		}
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{NameSync, NameReminders, NameSync}, order)
	assert.Equal(t, 1, maxActive)
}

func TestLocalQueue_EnqueueReturnsImmediately(t *testing.T) {
	r := NewRunner(logging.Discard())
	release := make(chan struct{})
	r.Register(NameSync, func(ctx context.Context) any {
		<-release
		return nil
	})

	q := NewLocalQueue(r, 4, logging.Discard())
	q.Start(context.Background())

	start := time.Now()
	job, err := q.Enqueue(context.Background(), NameSync)
	require.NoError(t, err)
	assert.NotEmpty(t, job.ID)
	assert.Less(t, time.Since(start), time.Second)

	close(release)
	q.Stop()
}

func TestLocalQueue_Errors(t *testing.T) {
	r := NewRunner(logging.Discard())
	q := NewLocalQueue(r, 1, logging.Discard())

	_, err := q.Enqueue(context.Background(), NameSync)
	assert.ErrorIs(t, err, ErrQueueStopped)

	_, err = q.Enqueue(context.Background(), "bogus")
	assert.ErrorIs(t, err, ErrUnknownJob)
}
