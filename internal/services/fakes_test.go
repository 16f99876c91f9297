package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/debanirmalya/hirebuddy/internal/models"
	"github.com/debanirmalya/hirebuddy/internal/providers/llm"
	"github.com/debanirmalya/hirebuddy/internal/queue"
	"github.com/debanirmalya/hirebuddy/internal/repositories"
)

type fakeQueue struct {
	mu    sync.Mutex
	tasks []queue.Task
	err   error
}

func (q *fakeQueue) Enqueue(_ context.Context, t queue.Task) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return fmt.Errorf("%w: %v", queue.ErrUnavailable, q.err)
	}
	q.tasks = append(q.tasks, t)
	return nil
}

func (q *fakeQueue) Tasks() []queue.Task {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]queue.Task(nil), q.tasks...)
}

// failOnceRepo rejects the first Update and passes later ones through.
type failOnceRepo struct {
	repositories.CandidateRepository
	mu     sync.Mutex
	failed bool
}

func (r *failOnceRepo) Update(ctx context.Context, id string, fn repositories.MutateFunc) (*models.Candidate, error) {
	r.mu.Lock()
	first := !r.failed
	r.failed = true
	r.mu.Unlock()
	if first {
		return nil, errors.New("connection reset by peer")
	}
	return r.CandidateRepository.Update(ctx, id, fn)
}

type fakeText struct {
	text string
	err  error
}

func (f fakeText) Extract(context.Context, string) (string, error) {
	return f.text, f.err
}

// downModel behaves like an unreachable language model server.
type downModel struct{}

func (downModel) Generate(context.Context, string, llm.Options) (string, error) {
	return "", errors.New("dial tcp 127.0.0.1:11434: connect: connection refused")
}

func (downModel) Close() error { return nil }

type fakeAudits struct {
	mu     sync.Mutex
	stored []models.ExtractionAudit
	err    error
}

func (f *fakeAudits) Insert(_ context.Context, a *models.ExtractionAudit) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.stored = append(f.stored, *a)
	return nil
}

func (f *fakeAudits) ListByCandidate(_ context.Context, id string, limit int64) ([]models.ExtractionAudit, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.ExtractionAudit
	for _, a := range f.stored {
		if a.CandidateID == id && int64(len(out)) < limit {
			out = append(out, a)
		}
	}
	return out, nil
}

// clock returns successive instants one second apart.
func clock(start time.Time) func() time.Time {
	var mu sync.Mutex
	cur := start.Add(-time.Second)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		cur = cur.Add(time.Second)
		return cur
	}
}
