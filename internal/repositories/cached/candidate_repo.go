// Package cached decorates a candidate repository with a read-through cache
// for single-candidate lookups.
package cached

import (
	"context"
	"time"

	"github.com/debanirmalya/hirebuddy/internal/cache"
	"github.com/debanirmalya/hirebuddy/internal/models"
	"github.com/debanirmalya/hirebuddy/internal/repositories"
	"github.com/sirupsen/logrus"
)

const (
	keyPrefix = "candidate:"
	leaseTTL  = 10 * time.Second
)

type candidateRepo struct {
	next   repositories.CandidateRepository
	cache  cache.Cache
	ttl    time.Duration
	logger *logrus.Logger
}

// NewCandidateRepo returns next unchanged when c is nil or ttl is not
// positive.
func NewCandidateRepo(next repositories.CandidateRepository, c cache.Cache, ttl time.Duration, l *logrus.Logger) repositories.CandidateRepository {
	if c == nil || ttl <= 0 {
		return next
	}
	if l == nil {
		l = logrus.New()
	}
	return &candidateRepo{next: next, cache: c, ttl: ttl, logger: l}
}

func Key(id string) string { return keyPrefix + id }

func (r *candidateRepo) Save(ctx context.Context, c *models.Candidate) error {
	if err := r.next.Save(ctx, c); err != nil {
		return err
	}
	r.invalidate(ctx, c.ID)
	return nil
}

// Get fills the cache only under a lease taken before the read. Save and
// Update delete the lease, so a row read before a write is never cached.
func (r *candidateRepo) Get(ctx context.Context, id string) (*models.Candidate, error) {
	log := r.logger.WithField("candidate_id", id)

	var hit models.Candidate
	ok, err := r.cache.GetJSON(ctx, Key(id), &hit)
	if err != nil {
		log.WithError(err).Warn("candidate cache read failed")
	}
	if ok {
		return &hit, nil
	}

	token, leased, err := r.cache.Lease(ctx, Key(id), leaseTTL)
	if err != nil {
		log.WithError(err).Warn("candidate cache lease failed")
	}

	c, err := r.next.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !leased {
		return c, nil
	}
	if _, err := r.cache.FillJSON(ctx, Key(id), token, c, r.ttl); err != nil {
		log.WithError(err).Warn("candidate cache write failed")
	}
	return c, nil
}

func (r *candidateRepo) Update(ctx context.Context, id string, fn repositories.MutateFunc) (*models.Candidate, error) {
	c, err := r.next.Update(ctx, id, fn)
	if err != nil {
		return nil, err
	}
	r.invalidate(ctx, id)
	return c, nil
}

func (r *candidateRepo) List(ctx context.Context, q repositories.ListQuery) (*repositories.Page, error) {
	return r.next.List(ctx, q)
}

func (r *candidateRepo) invalidate(ctx context.Context, id string) {
	if err := r.cache.Del(ctx, Key(id)); err != nil {
		r.logger.WithError(err).WithField("candidate_id", id).Warn("candidate cache invalidation failed")
	}
}
