package queue

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// ChannelQueue runs tasks on an in-process worker pool.
type ChannelQueue struct {
	handler Handler
	logger  *logrus.Logger

	workers     int
	size        int
	taskTimeout time.Duration

	tasks    chan Task
	wg       sync.WaitGroup
	mu       sync.RWMutex
	closed   bool
	stopOnce sync.Once
}

type Option func(*ChannelQueue)

func WithWorkers(n int) Option {
	return func(q *ChannelQueue) {
		if n > 0 {
			q.workers = n
		}
	}
}

func WithQueueSize(n int) Option {
	return func(q *ChannelQueue) {
		if n > 0 {
			q.size = n
		}
	}
}

// WithTaskTimeout bounds a single task run.
func WithTaskTimeout(d time.Duration) Option {
	return func(q *ChannelQueue) {
		if d > 0 {
			q.taskTimeout = d
		}
	}
}

func NewChannelQueue(h Handler, l *logrus.Logger, opts ...Option) *ChannelQueue {
	q := &ChannelQueue{
		handler:     h,
		logger:      l,
		workers:     4,
		size:        100,
		taskTimeout: 5 * time.Minute,
	}
	for _, opt := range opts {
		opt(q)
	}
	if q.logger == nil {
		q.logger = logrus.New()
	}
	q.tasks = make(chan Task, q.size)
	return q
}

// Start launches the workers. They exit when ctx is cancelled or after
// Shutdown drains the queue.
func (q *ChannelQueue) Start(ctx context.Context) {
	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.run(ctx, i+1)
	}
}

// Enqueue never blocks: a full or closed queue is reported as ErrUnavailable.
func (q *ChannelQueue) Enqueue(_ context.Context, t Task) error {
	if t.EnqueuedAt.IsZero() {
		t.EnqueuedAt = time.Now().UTC()
	}
	if err := t.Validate(); err != nil {
		return err
	}

	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return fmt.Errorf("%w: queue is shut down", ErrUnavailable)
	}
	select {
	case q.tasks <- t:
		return nil
	default:
		return fmt.Errorf("%w: queue is full", ErrUnavailable)
	}
}

// Shutdown stops accepting tasks and waits for queued ones to finish or ctx
// to expire. Tasks still queued at expiry are passed to the handler's
// Abandon when it has one.
func (q *ChannelQueue) Shutdown(ctx context.Context) error {
	q.stopOnce.Do(func() {
		q.mu.Lock()
		q.closed = true
		close(q.tasks)
		q.mu.Unlock()
	})

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		q.abandonQueued()
		return ctx.Err()
	}
}

func (q *ChannelQueue) abandonQueued() {
	a, ok := q.handler.(Abandoner)
	for t := range q.tasks {
		log := q.logger.WithFields(logrus.Fields{
			"task":         t.Kind,
			"candidate_id": t.CandidateID,
		})
		if !ok {
			log.Warn("queued task dropped at shutdown")
			continue
		}
		actx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := a.Abandon(actx, t)
		cancel()
		if err != nil {
			log.WithError(err).Error("failed to abandon queued task")
			continue
		}
		log.Warn("queued task abandoned at shutdown")
	}
}

func (q *ChannelQueue) run(ctx context.Context, id int) {
	defer q.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case t, ok := <-q.tasks:
			if !ok {
				return
			}
			q.process(ctx, id, t)
		}
	}
}

func (q *ChannelQueue) process(ctx context.Context, worker int, t Task) {
	log := q.logger.WithFields(logrus.Fields{
		"worker":       worker,
		"task":         t.Kind,
		"candidate_id": t.CandidateID,
	})

	ctx, cancel := context.WithTimeout(ctx, q.taskTimeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			log.WithField("panic", fmt.Sprint(r)).Error("task panicked")
		}
	}()

	start := time.Now()
	if err := q.handler.Handle(ctx, t); err != nil {
		log.WithError(err).Error("task failed")
		return
	}
	log.WithField("latency_ms", time.Since(start).Milliseconds()).Debug("task done")
}
