package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueRejectsBeforeStart(t *testing.T) {
	q := NewQueue("test", func(context.Context, Job) error { return nil }, QueueConfig{})
	require.Error(t, q.Enqueue(Job{ID: "1"}))
}

func TestQueueProcessesAndRetries(t *testing.T) {
	var calls int32
	done := make(chan struct{})
	q := NewQueue("test", func(ctx context.Context, job Job) error {
		if atomic.AddInt32(&calls, 1) == 1 {
			return errors.New("transient")
		}
		close(done)
		return nil
	}, QueueConfig{RetryDelay: 10 * time.Millisecond})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{ID: "1", Type: "refresh"}))
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("job was not retried")
	}
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestQueueCoalescesWaitingKeys(t *testing.T) {
	block := make(chan struct{})
	q := NewQueue("test", func(ctx context.Context, job Job) error {
		<-block
		return nil
	}, QueueConfig{Workers: 1, BufferSize: 4})
	q.Start(context.Background())
	defer func() {
		close(block)
		q.Stop()
	}()

	// first job is picked up by the worker, the second waits in the buffer
	require.NoError(t, q.Enqueue(Job{ID: "a", Key: "other"}))
	time.Sleep(20 * time.Millisecond)
	require.NoError(t, q.Enqueue(Job{ID: "b", Key: "league-1"}))
	assert.ErrorIs(t, q.Enqueue(Job{ID: "c", Key: "league-1"}), ErrDuplicate)
}

func TestQueueNeverRunsSameKeyConcurrently(t *testing.T) {
	var inFlight, maxInFlight, calls int32
	started := make(chan string, 4)
	block := make(chan struct{})
	q := NewQueue("test", func(ctx context.Context, job Job) error {
		n := atomic.AddInt32(&inFlight, 1)
		for {
			peak := atomic.LoadInt32(&maxInFlight)
			if n <= peak || atomic.CompareAndSwapInt32(&maxInFlight, peak, n) {
				break
			}
		}
		started <- job.ID
		if job.ID == "first" {
			<-block
		}
		atomic.AddInt32(&inFlight, -1)
		atomic.AddInt32(&calls, 1)
		return nil
	}, QueueConfig{Workers: 4, BufferSize: 8})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{ID: "first", Key: "season:s1"}))
	select {
	case id := <-started:
		require.Equal(t, "first", id)
	case <-time.After(2 * time.Second):
		t.Fatal("first rebuild never started")
	}

	// a request during the rebuild is held, not run alongside it
	require.NoError(t, q.Enqueue(Job{ID: "second", Key: "season:s1"}))
	assert.ErrorIs(t, q.Enqueue(Job{ID: "third", Key: "season:s1"}), ErrDuplicate)
	select {
	case id := <-started:
		t.Fatalf("%s started while first was running", id)
	case <-time.After(50 * time.Millisecond):
	}

	close(block)
	select {
	case id := <-started:
		assert.Equal(t, "second", id)
	case <-time.After(2 * time.Second):
		t.Fatal("held rebuild never ran")
	}
	require.Eventually(t, func() bool { return atomic.LoadInt32(&calls) == 2 }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, int32(1), atomic.LoadInt32(&maxInFlight))
}
