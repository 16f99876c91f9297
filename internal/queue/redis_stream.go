package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	DefaultStream = "hirebuddy:tasks"
	DefaultGroup  = "hirebuddy-workers"
)

// RedisStream appends tasks to a Redis stream read by workers.PipelineWorkerPool.
type RedisStream struct {
	rdb    *redis.Client
	stream string
	maxLen int64
}

// NewRedisStream trims the stream to about maxLen entries; zero keeps
// everything.
func NewRedisStream(rdb *redis.Client, stream string, maxLen int64) *RedisStream {
	if stream == "" {
		stream = DefaultStream
	}
	return &RedisStream{rdb: rdb, stream: stream, maxLen: maxLen}
}

func (q *RedisStream) Stream() string { return q.stream }

func (q *RedisStream) Enqueue(ctx context.Context, t Task) error {
	if t.EnqueuedAt.IsZero() {
		t.EnqueuedAt = time.Now().UTC()
	}
	if err := t.Validate(); err != nil {
		return err
	}

	args := &redis.XAddArgs{
		Stream: q.stream,
		Values: t.Values(),
	}
	if q.maxLen > 0 {
		args.MaxLen = q.maxLen
		args.Approx = true
	}
	if err := q.rdb.XAdd(ctx, args).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}
