package services

import (
	"context"

	"github.com/debanirmalya/hirebuddy/internal/models"
	"github.com/debanirmalya/hirebuddy/internal/repositories"
	mongorepo "github.com/debanirmalya/hirebuddy/internal/repositories/mongo"
	"github.com/debanirmalya/hirebuddy/internal/utils"
)

type AuditService interface {
	ListForCandidate(ctx context.Context, candidateID string, limit int64) ([]models.ExtractionAudit, error)
}

type auditService struct {
	candidates repositories.CandidateRepository
	audits     mongorepo.AuditRepository
}

func NewAuditService(candidates repositories.CandidateRepository, audits mongorepo.AuditRepository) AuditService {
	return &auditService{candidates: candidates, audits: audits}
}

func (s *auditService) ListForCandidate(ctx context.Context, candidateID string, limit int64) ([]models.ExtractionAudit, error) {
	const op = "AuditService.ListForCandidate"

	if s.audits == nil {
		return nil, utils.E(utils.CodeUnavailable, op, "extraction audits are not enabled", nil)
	}
	if _, err := s.candidates.Get(ctx, candidateID); err != nil {
		return nil, storeErr(op, err, "failed to load candidate")
	}
	switch {
	case limit <= 0:
		limit = 20
	case limit > 100:
		limit = 100
	}

	out, err := s.audits.ListByCandidate(ctx, candidateID, limit)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list extraction audits", err)
	}
	if out == nil {
		out = []models.ExtractionAudit{}
	}
	return out, nil
}
