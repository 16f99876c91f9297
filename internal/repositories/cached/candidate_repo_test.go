package cached

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/debanirmalya/hirebuddy/internal/cache"
	"github.com/debanirmalya/hirebuddy/internal/logger"
	"github.com/debanirmalya/hirebuddy/internal/models"
	"github.com/debanirmalya/hirebuddy/internal/repositories"
	"github.com/debanirmalya/hirebuddy/internal/repositories/memory"
	"github.com/debanirmalya/hirebuddy/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingRepo struct {
	repositories.CandidateRepository
	gets int
}

func (r *countingRepo) Get(ctx context.Context, id string) (*models.Candidate, error) {
	r.gets++
	return r.CandidateRepository.Get(ctx, id)
}

func setup(t *testing.T) (repositories.CandidateRepository, *countingRepo, *cache.MemoryCache) {
	t.Helper()
	inner := &countingRepo{CandidateRepository: memory.NewCandidateRepo()}
	c := cache.NewMemoryCache()
	repo := NewCandidateRepo(inner, c, time.Minute, logger.Discard())

	cand := models.NewCandidate("a", "Asha", "asha@x.io", "Acme", "a.pdf", "uploads/resumes/a.pdf", time.Now())
	require.NoError(t, repo.Save(context.Background(), cand))
	return repo, inner, c
}

func TestCachedRepo_ReadThrough(t *testing.T) {
	repo, inner, c := setup(t)
	ctx := context.Background()

	first, err := repo.Get(ctx, "a")
	require.NoError(t, err)
	second, err := repo.Get(ctx, "a")
	require.NoError(t, err)

	assert.Equal(t, 1, inner.gets)
	assert.Equal(t, first.Email, second.Email)
	assert.Equal(t, first.Status, second.Status)

	var raw models.Candidate
	hit, err := c.GetJSON(ctx, Key("a"), &raw)
	require.NoError(t, err)
	assert.True(t, hit)
}

func TestCachedRepo_UpdateInvalidates(t *testing.T) {
	repo, inner, _ := setup(t)
	ctx := context.Background()

	_, err := repo.Get(ctx, "a")
	require.NoError(t, err)

	_, err = repo.Update(ctx, "a", func(c *models.Candidate) error {
		c.Status = models.StatusPendingDocuments
		return nil
	})
	require.NoError(t, err)

	got, err := repo.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, models.StatusPendingDocuments, got.Status)
	assert.Equal(t, 2, inner.gets)
}

func TestCachedRepo_MissesAreNotCached(t *testing.T) {
	repo, inner, _ := setup(t)

	_, err := repo.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, utils.ErrNotFound)
	_, err = repo.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, utils.ErrNotFound)
	assert.Equal(t, 2, inner.gets)
}

func TestNewCandidateRepo_Disabled(t *testing.T) {
	inner := memory.NewCandidateRepo()
	assert.Same(t, inner, NewCandidateRepo(inner, nil, time.Minute, nil))
	assert.Same(t, inner, NewCandidateRepo(inner, cache.NewMemoryCache(), 0, nil))
}

// pausingRepo holds its first Get after the row was read until released.
type pausingRepo struct {
	repositories.CandidateRepository
	read    chan struct{}
	release chan struct{}
	once    sync.Once
}

func (r *pausingRepo) Get(ctx context.Context, id string) (*models.Candidate, error) {
	c, err := r.CandidateRepository.Get(ctx, id)
	r.once.Do(func() {
		close(r.read)
		<-r.release
	})
	return c, err
}

func TestCachedRepo_ReadRacingUpdateIsNotCached(t *testing.T) {
	ctx := context.Background()
	inner := &pausingRepo{
		CandidateRepository: memory.NewCandidateRepo(),
		read:                make(chan struct{}),
		release:             make(chan struct{}),
	}
	repo := NewCandidateRepo(inner, cache.NewMemoryCache(), time.Minute, logger.Discard())
	cand := models.NewCandidate("a", "Asha", "asha@x.io", "Acme", "a.pdf", "uploads/resumes/a.pdf", time.Now())
	require.NoError(t, repo.Save(ctx, cand))

	type result struct {
		c   *models.Candidate
		err error
	}
	slow := make(chan result, 1)
	go func() {
		c, err := repo.Get(ctx, "a")
		slow <- result{c, err}
	}()

	<-inner.read
	_, err := repo.Update(ctx, "a", func(c *models.Candidate) error {
		c.Status = models.StatusPendingDocuments
		return nil
	})
	require.NoError(t, err)
	close(inner.release)

	r := <-slow
	require.NoError(t, r.err)
	assert.Equal(t, models.StatusParsingResume, r.c.Status)

	got, err := repo.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, models.StatusPendingDocuments, got.Status)

	again, err := repo.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, models.StatusPendingDocuments, again.Status)
}
