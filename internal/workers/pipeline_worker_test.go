package workers

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/debanirmalya/hirebuddy/config"
	"github.com/debanirmalya/hirebuddy/internal/logger"
	"github.com/debanirmalya/hirebuddy/internal/queue"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// openTestRedis connects to HIREBUDDY_TEST_REDIS_URL and skips otherwise.
func openTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	url := os.Getenv("HIREBUDDY_TEST_REDIS_URL")
	if url == "" || testing.Short() {
		t.Skip("HIREBUDDY_TEST_REDIS_URL not set")
	}
	rdb, err := config.NewRedis(context.Background(), url)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

type recorder struct {
	mu   sync.Mutex
	seen []queue.Task
	done chan struct{}
	want int
}

func (r *recorder) Handle(_ context.Context, t queue.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seen = append(r.seen, t)
	if len(r.seen) == r.want {
		close(r.done)
	}
	if t.CandidateID == "boom" {
		panic("handler blew up")
	}
	if t.CandidateID == "fail" {
		return errors.New("handler failed")
	}
	return nil
}

func TestPipelineWorkerPool_ConsumesAndAcks(t *testing.T) {
	rdb := openTestRedis(t)
	stream := "hirebuddy:test:" + uuid.NewString()
	group := "g-" + uuid.NewString()[:8]
	t.Cleanup(func() { _ = rdb.Del(context.Background(), stream).Err() })

	rec := &recorder{done: make(chan struct{}), want: 3}
	ctx, cancel := context.WithCancel(context.Background())
	pool := &PipelineWorkerPool{
		Redis:       rdb,
		Handler:     rec,
		NumWorkers:  2,
		Logger:      logger.Discard(),
		Stream:      stream,
		Group:       group,
		TaskTimeout: 5 * time.Second,
	}
	require.NoError(t, pool.Start(ctx))

	producer := queue.NewRedisStream(rdb, stream, 0)
	for _, id := range []string{"boom", "fail", "ok"} {
		require.NoError(t, producer.Enqueue(ctx, queue.Task{Kind: queue.KindDocumentRequest, CandidateID: id}))
	}

	select {
	case <-rec.done:
	case <-time.After(15 * time.Second):
		t.Fatal("tasks were not consumed")
	}

	require.Eventually(t, func() bool {
		pending, err := rdb.XPending(context.Background(), stream, group).Result()
		return err == nil && pending.Count == 0
	}, 10*time.Second, 100*time.Millisecond)

	cancel()
	pool.Wait()

	rec.mu.Lock()
	defer rec.mu.Unlock()
	ids := make([]string, 0, len(rec.seen))
	for _, task := range rec.seen {
		assert.Equal(t, queue.KindDocumentRequest, task.Kind)
		ids = append(ids, task.CandidateID)
	}
	assert.ElementsMatch(t, []string{"boom", "fail", "ok"}, ids)
}

type abandonRecorder struct {
	mu        sync.Mutex
	abandoned []queue.Task
}

func (r *abandonRecorder) Handle(context.Context, queue.Task) error {
	return errors.New("reclaimed tasks must not run")
}

func (r *abandonRecorder) Abandon(_ context.Context, t queue.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.abandoned = append(r.abandoned, t)
	return nil
}

func TestPipelineWorkerPool_ReclaimAbandonsStaleMessages(t *testing.T) {
	rdb := openTestRedis(t)
	ctx := context.Background()
	stream := "hirebuddy:test:" + uuid.NewString()
	group := "g-" + uuid.NewString()[:8]
	t.Cleanup(func() { _ = rdb.Del(context.Background(), stream).Err() })
	require.NoError(t, rdb.XGroupCreateMkStream(ctx, stream, group, "0").Err())

	producer := queue.NewRedisStream(rdb, stream, 0)
	require.NoError(t, producer.Enqueue(ctx, queue.Task{Kind: queue.KindProcessResume, CandidateID: "c-1", ResumePath: "uploads/resumes/c-1.pdf"}))

	// a consumer that reads and then dies before acking
	_, err := rdb.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    group,
		Consumer: "dead-1",
		Streams:  []string{stream, ">"},
		Count:    1,
	}).Result()
	require.NoError(t, err)
	time.Sleep(30 * time.Millisecond)

	rec := &abandonRecorder{}
	pool := &PipelineWorkerPool{
		Redis:          rdb,
		Handler:        rec,
		Logger:         logger.Discard(),
		Stream:         stream,
		Group:          group,
		ConsumerPrefix: "live",
		ClaimIdle:      10 * time.Millisecond,
	}
	assert.Equal(t, 1, pool.reclaimOnce(ctx))

	require.Len(t, rec.abandoned, 1)
	assert.Equal(t, queue.KindProcessResume, rec.abandoned[0].Kind)
	assert.Equal(t, "c-1", rec.abandoned[0].CandidateID)

	pending, err := rdb.XPending(ctx, stream, group).Result()
	require.NoError(t, err)
	assert.Zero(t, pending.Count)
}

func TestPipelineWorkerPool_StartRequiresDeps(t *testing.T) {
	p := &PipelineWorkerPool{}
	assert.Error(t, p.Start(context.Background()))
}

func TestIsBusyGroup(t *testing.T) {
	assert.True(t, isBusyGroup(errors.New("BUSYGROUP Consumer Group name already exists")))
	assert.False(t, isBusyGroup(errors.New("ERR something else")))
	assert.False(t, isBusyGroup(nil))
}
