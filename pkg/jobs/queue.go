package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ErrDuplicate is returned when a job with the same key is already waiting.
var ErrDuplicate = errors.New("job already queued")

// Job represents a queued background task. Jobs sharing a non-empty Key never
// run concurrently. While one is waiting, further ones are coalesced into it.
// While one is running, a single follow-up is held and queued once it returns.
type Job struct {
	ID       string
	Type     string
	Key      string
	Payload  interface{}
	Attempt  int
	Enqueued time.Time
}

// Handler processes a job.
type Handler func(context.Context, Job) error

// QueueConfig configures worker pool behaviour.
type QueueConfig struct {
	Workers    int
	BufferSize int
	MaxRetries int
	RetryDelay time.Duration
	Logger     *zap.Logger
}

// Queue is a lightweight in-memory job dispatcher backed by goroutines.
type Queue struct {
	name    string
	handler Handler

	workers    int
	maxRetries int
	retryDelay time.Duration
	logger     *zap.Logger

	jobs    chan Job
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.Mutex
	started bool
	waiting map[string]struct{}
	running map[string]struct{}
	pending map[string]Job
}

// NewQueue builds a new queue with the provided handler.
func NewQueue(name string, handler Handler, cfg QueueConfig) *Queue {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = cfg.Workers * 16
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	return &Queue{
		name:       name,
		handler:    handler,
		workers:    cfg.Workers,
		maxRetries: cfg.MaxRetries,
		retryDelay: cfg.RetryDelay,
		logger:     cfg.Logger,
		jobs:       make(chan Job, cfg.BufferSize),
		waiting:    make(map[string]struct{}),
		running:    make(map[string]struct{}),
		pending:    make(map[string]Job),
	}
}

// Start begins worker consumption. Safe to call once.
func (q *Queue) Start(ctx context.Context) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.started {
		return
	}
	q.ctx, q.cancel = context.WithCancel(ctx)
	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.worker()
	}
	q.started = true
	q.logger.Info("queue started", zap.String("queue", q.name), zap.Int("workers", q.workers))
}

// Stop cancels workers and waits for them to exit.
func (q *Queue) Stop() {
	q.mu.Lock()
	if !q.started {
		q.mu.Unlock()
		return
	}
	q.cancel()
	q.mu.Unlock()
	q.wg.Wait()
	q.logger.Info("queue stopped", zap.String("queue", q.name))
}

// Enqueue pushes a job onto the queue without blocking when the buffer is full.
func (q *Queue) Enqueue(job Job) error {
	q.mu.Lock()
	if !q.started {
		q.mu.Unlock()
		return fmt.Errorf("queue %s not started", q.name)
	}
	ctx := q.ctx
	if job.Enqueued.IsZero() {
		job.Enqueued = time.Now().UTC()
	}
	if job.Key != "" {
		if _, exists := q.waiting[job.Key]; exists {
			q.mu.Unlock()
			return ErrDuplicate
		}
		if _, busy := q.running[job.Key]; busy {
			defer q.mu.Unlock()
			if _, held := q.pending[job.Key]; held {
				return ErrDuplicate
			}
			q.pending[job.Key] = job
			return nil
		}
		q.waiting[job.Key] = struct{}{}
	}
	q.mu.Unlock()
	return q.push(ctx, job)
}

func (q *Queue) push(ctx context.Context, job Job) error {
	select {
	case <-ctx.Done():
		q.release(job.Key)
		return fmt.Errorf("queue %s stopped: %w", q.name, ctx.Err())
	case q.jobs <- job:
		return nil
	default:
		q.release(job.Key)
		return fmt.Errorf("queue %s full", q.name)
	}
}

func (q *Queue) release(key string) {
	if key == "" {
		return
	}
	q.mu.Lock()
	delete(q.waiting, key)
	q.mu.Unlock()
}

func (q *Queue) worker() {
	defer q.wg.Done()
	for {
		select {
		case <-q.ctx.Done():
			return
		case job := <-q.jobs:
			q.claim(job.Key)
			err := q.handler(q.ctx, job)
			q.finish(job.Key)
			if err != nil {
				q.handleFailure(job, err)
			}
		}
	}
}

// claim moves a dequeued key from waiting to running.
func (q *Queue) claim(key string) {
	if key == "" {
		return
	}
	q.mu.Lock()
	delete(q.waiting, key)
	q.running[key] = struct{}{}
	q.mu.Unlock()
}

// finish frees a key after its handler returns and queues the follow-up held
// while it ran, if any.
func (q *Queue) finish(key string) {
	if key == "" {
		return
	}
	q.mu.Lock()
	delete(q.running, key)
	next, held := q.pending[key]
	if held {
		delete(q.pending, key)
		q.waiting[key] = struct{}{}
	}
	ctx := q.ctx
	q.mu.Unlock()
	if !held {
		return
	}
	if err := q.push(ctx, next); err != nil {
		q.logger.Warn("dropped follow-up job", zap.String("queue", q.name), zap.String("job_id", next.ID), zap.String("key", key), zap.Error(err))
	}
}

func (q *Queue) handleFailure(job Job, err error) {
	job.Attempt++
	if job.Attempt > q.maxRetries {
		q.logger.Error("job exceeded retries", zap.String("queue", q.name), zap.String("job_id", job.ID), zap.String("type", job.Type), zap.Error(err))
		return
	}
	q.logger.Warn("job failed, retrying", zap.String("queue", q.name), zap.String("job_id", job.ID), zap.String("type", job.Type), zap.Int("attempt", job.Attempt), zap.Error(err))

	go func(j Job) {
		timer := time.NewTimer(q.retryDelay)
		defer timer.Stop()
		select {
		case <-q.ctx.Done():
			return
		case <-timer.C:
			if err := q.Enqueue(j); err != nil && !errors.Is(err, ErrDuplicate) {
				q.logger.Error("failed to requeue job", zap.String("queue", q.name), zap.String("job_id", j.ID), zap.Error(err))
			}
		}
	}(job)
}
