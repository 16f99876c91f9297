package services

import (
	"context"
	"testing"

	"github.com/debanirmalya/hirebuddy/internal/models"
	"github.com/debanirmalya/hirebuddy/internal/repositories/memory"
	"github.com/debanirmalya/hirebuddy/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuditService_ListForCandidate(t *testing.T) {
	repo := memory.NewCandidateRepo()
	require.NoError(t, repo.Save(context.Background(), models.NewCandidate("c-1", "Asha", "a@x.io", "Acme", "r.pdf", "p", t0)))

	audits := &fakeAudits{}
	for i := 0; i < 3; i++ {
		require.NoError(t, audits.Insert(context.Background(), &models.ExtractionAudit{CandidateID: "c-1"}))
	}
	svc := NewAuditService(repo, audits)

	out, err := svc.ListForCandidate(context.Background(), "c-1", 2)
	require.NoError(t, err)
	assert.Len(t, out, 2)

	out, err = svc.ListForCandidate(context.Background(), "c-1", 0)
	require.NoError(t, err)
	assert.Len(t, out, 3)

	_, err = svc.ListForCandidate(context.Background(), "nope", 10)
	assert.True(t, utils.IsCode(err, utils.CodeNotFound))
}

func TestAuditService_NoCandidateAudits(t *testing.T) {
	repo := memory.NewCandidateRepo()
	require.NoError(t, repo.Save(context.Background(), models.NewCandidate("c-1", "Asha", "a@x.io", "Acme", "r.pdf", "p", t0)))

	out, err := NewAuditService(repo, &fakeAudits{}).ListForCandidate(context.Background(), "c-1", 5)
	require.NoError(t, err)
	assert.NotNil(t, out)
	assert.Empty(t, out)
}

func TestAuditService_Disabled(t *testing.T) {
	_, err := NewAuditService(memory.NewCandidateRepo(), nil).ListForCandidate(context.Background(), "c-1", 5)
	assert.True(t, utils.IsCode(err, utils.CodeUnavailable))
}
