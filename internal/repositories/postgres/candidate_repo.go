package postgres

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/debanirmalya/hirebuddy/internal/models"
	"github.com/debanirmalya/hirebuddy/internal/repositories"
	"github.com/debanirmalya/hirebuddy/internal/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type candidateRepo struct {
	db *gorm.DB
}

func NewCandidateRepo(db *gorm.DB) repositories.CandidateRepository {
	return &candidateRepo{db: db}
}

func (r *candidateRepo) Save(ctx context.Context, c *models.Candidate) error {
	now := time.Now().UTC()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.UpdatedAt = now
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *candidateRepo) Get(ctx context.Context, id string) (*models.Candidate, error) {
	var row models.Candidate
	err := r.db.WithContext(ctx).Where("id = ?", id).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// Update locks the row with SELECT ... FOR UPDATE for the duration of fn.
func (r *candidateRepo) Update(ctx context.Context, id string, fn repositories.MutateFunc) (*models.Candidate, error) {
	var out models.Candidate
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row models.Candidate
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", id).
			Take(&row).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.ErrNotFound
		}
		if err != nil {
			return err
		}

		orig := row.Clone()
		if err := fn(&row); err != nil {
			return err
		}
		row.KeepIdentity(orig)
		row.UpdatedAt = time.Now().UTC()

		if err := tx.Save(&row).Error; err != nil {
			return err
		}
		out = row
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *candidateRepo) List(ctx context.Context, q repositories.ListQuery) (*repositories.Page, error) {
	base := r.db.WithContext(ctx).Model(&models.Candidate{})
	if q.Status != "" {
		base = base.Where("status = ?", string(q.Status))
	}
	if s := strings.TrimSpace(q.Skill); s != "" {
		base = base.Where("EXISTS (SELECT 1 FROM unnest(skills) AS s WHERE lower(s) = lower(?))", s)
	}

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, err
	}

	var rows []models.Candidate
	err := base.Session(&gorm.Session{}).
		Order("created_at DESC, id DESC").
		Limit(q.PerPage).
		Offset(q.Offset()).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	return &repositories.Page{
		Items:   rows,
		Page:    q.Page,
		PerPage: q.PerPage,
		Total:   total,
		Pages:   repositories.PageCount(total, q.PerPage),
	}, nil
}

// Migrate creates or updates the candidates table.
func Migrate(ctx context.Context, db *gorm.DB) error {
	return db.WithContext(ctx).AutoMigrate(&models.Candidate{})
}
