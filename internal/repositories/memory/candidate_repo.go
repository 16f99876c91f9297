// Package memory holds a process-local candidate store used by tests and
// single-process deployments.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/debanirmalya/hirebuddy/internal/models"
	"github.com/debanirmalya/hirebuddy/internal/repositories"
	"github.com/debanirmalya/hirebuddy/internal/utils"
)

type CandidateRepo struct {
	mu    sync.Mutex
	rows  map[string]*models.Candidate
	locks map[string]*sync.Mutex
	now   func() time.Time
}

func NewCandidateRepo() *CandidateRepo {
	return &CandidateRepo{
		rows:  make(map[string]*models.Candidate),
		locks: make(map[string]*sync.Mutex),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

var _ repositories.CandidateRepository = (*CandidateRepo)(nil)

func (r *CandidateRepo) Save(_ context.Context, c *models.Candidate) error {
	now := r.now()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.UpdatedAt = now
	c.SyncSkills()

	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows[c.ID] = c.Clone()
	if _, ok := r.locks[c.ID]; !ok {
		r.locks[c.ID] = &sync.Mutex{}
	}
	return nil
}

func (r *CandidateRepo) Get(_ context.Context, id string) (*models.Candidate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[id]
	if !ok {
		return nil, utils.ErrNotFound
	}
	return row.Clone(), nil
}

// Update holds the per-id lock while fn runs so concurrent updates of the
// same candidate serialise without blocking other ids.
func (r *CandidateRepo) Update(ctx context.Context, id string, fn repositories.MutateFunc) (*models.Candidate, error) {
	r.mu.Lock()
	lock, ok := r.locks[id]
	r.mu.Unlock()
	if !ok {
		return nil, utils.ErrNotFound
	}

	lock.Lock()
	defer lock.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cur, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	orig := cur.Clone()
	if err := fn(cur); err != nil {
		return nil, err
	}
	cur.KeepIdentity(orig)
	cur.UpdatedAt = r.now()
	cur.SyncSkills()

	r.mu.Lock()
	r.rows[id] = cur.Clone()
	r.mu.Unlock()
	return cur, nil
}

func (r *CandidateRepo) List(_ context.Context, q repositories.ListQuery) (*repositories.Page, error) {
	r.mu.Lock()
	var matched []models.Candidate
	for _, row := range r.rows {
		if q.Status != "" && row.Status != q.Status {
			continue
		}
		if q.Skill != "" && !hasSkill(row.Skills, q.Skill) {
			continue
		}
		matched = append(matched, *row.Clone())
	}
	r.mu.Unlock()

	sort.SliceStable(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID > matched[j].ID
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := int64(len(matched))
	start := q.Offset()
	if start > len(matched) {
		start = len(matched)
	}
	end := len(matched)
	if q.PerPage > 0 && start+q.PerPage < end {
		end = start + q.PerPage
	}

	return &repositories.Page{
		Items:   matched[start:end],
		Page:    q.Page,
		PerPage: q.PerPage,
		Total:   total,
		Pages:   repositories.PageCount(total, q.PerPage),
	}, nil
}

func hasSkill(skills []string, want string) bool {
	want = strings.TrimSpace(want)
	for _, s := range skills {
		if strings.EqualFold(s, want) {
			return true
		}
	}
	return false
}
