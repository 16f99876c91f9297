// Package repositories defines the candidate record store contract shared by
// the postgres, in-memory and cached implementations.
package repositories

import (
	"context"

	"github.com/debanirmalya/hirebuddy/internal/models"
)

// MutateFunc edits a candidate in place. Returning an error aborts the
// update and leaves the stored record untouched.
type MutateFunc func(c *models.Candidate) error

type CandidateRepository interface {
	Save(ctx context.Context, c *models.Candidate) error
	// Get returns utils.ErrNotFound for unknown ids.
	Get(ctx context.Context, id string) (*models.Candidate, error)
	// Update applies fn to the current record atomically with respect to
	// other updates of the same id and returns the stored result.
	Update(ctx context.Context, id string, fn MutateFunc) (*models.Candidate, error)
	List(ctx context.Context, q ListQuery) (*Page, error)
}

type ListQuery struct {
	Page    int
	PerPage int
	Status  models.Status // optional
	Skill   string        // optional, case-insensitive exact skill match
}

type Page struct {
	Items   []models.Candidate
	Page    int
	PerPage int
	Total   int64
	Pages   int
}

// PageCount returns max(1, ceil(total/perPage)).
func PageCount(total int64, perPage int) int {
	if perPage <= 0 || total <= 0 {
		return 1
	}
	return int((total + int64(perPage) - 1) / int64(perPage))
}

// Offset returns the row offset for a 1-based page.
func (q ListQuery) Offset() int {
	if q.Page <= 1 {
		return 0
	}
	return (q.Page - 1) * q.PerPage
}
