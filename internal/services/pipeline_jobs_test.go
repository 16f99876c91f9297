package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/debanirmalya/hirebuddy/internal/extraction"
	"github.com/debanirmalya/hirebuddy/internal/logger"
	"github.com/debanirmalya/hirebuddy/internal/messaging"
	"github.com/debanirmalya/hirebuddy/internal/models"
	"github.com/debanirmalya/hirebuddy/internal/providers/textextract"
	"github.com/debanirmalya/hirebuddy/internal/queue"
	"github.com/debanirmalya/hirebuddy/internal/repositories/memory"
	"github.com/debanirmalya/hirebuddy/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const resumeText = "Contact: a@b.com, Ph: 9876543210. Skills: Python, AWS."

type jobsFixture struct {
	jobs   *PipelineJobs
	repo   *memory.CandidateRepo
	audits *fakeAudits
}

func newJobsFixture(t *testing.T, text textextract.Extractor) *jobsFixture {
	t.Helper()
	l := logger.Discard()
	f := &jobsFixture{repo: memory.NewCandidateRepo(), audits: &fakeAudits{}}
	f.jobs = NewPipelineJobs(PipelineDeps{
		Repo:     f.repo,
		Text:     text,
		Fields:   extraction.NewEngine(downModel{}, extraction.DefaultConfig(), l),
		Messages: messaging.NewGenerator(downModel{}, messaging.Config{}, l),
		Audits:   f.audits,
		Logger:   l,
	})
	f.jobs.now = clock(t0)
	return f
}

func (f *jobsFixture) seed(t *testing.T, status models.Status, parsed map[string]any) *models.Candidate {
	t.Helper()
	c := models.NewCandidate("c-1", "Intake Name", "intake@x.io", "Acme", "r.pdf", "uploads/resumes/r.pdf", t0)
	c.Status = status
	if parsed != nil {
		c.SetParsed(models.ParsedResume{Fields: parsed, Confidence: map[string]float64{}})
	}
	require.NoError(t, f.repo.Save(context.Background(), c))
	return c
}

func (f *jobsFixture) get(t *testing.T) *models.Candidate {
	t.Helper()
	c, err := f.repo.Get(context.Background(), "c-1")
	require.NoError(t, err)
	return c
}

func TestProcessResume_ModelDownUsesHeuristics(t *testing.T) {
	f := newJobsFixture(t, fakeText{text: resumeText})
	f.seed(t, models.StatusParsingResume, nil)

	require.NoError(t, f.jobs.ProcessResume(context.Background(), "c-1", "uploads/resumes/r.pdf"))

	c := f.get(t)
	assert.Equal(t, models.StatusPendingDocuments, c.Status)
	p := c.Parsed()
	assert.Equal(t, []string{"Python", "AWS"}, p.Skills())
	assert.Equal(t, "a@b.com", p.String(models.FieldEmail))
	assert.Equal(t, "9876543210", p.String(models.FieldPhone))
	for _, field := range []string{models.FieldEmail, models.FieldPhone, models.FieldSkills} {
		assert.Equal(t, 0.4, p.Confidence[field], field)
	}
	assert.Empty(t, p.Error)
	assert.ElementsMatch(t, []string{"Python", "AWS"}, []string(c.Skills))

	require.Len(t, f.audits.stored, 1)
	audit := f.audits.stored[0]
	assert.Equal(t, "c-1", audit.CandidateID)
	assert.Contains(t, audit.ModelError, "connection refused")
	assert.Equal(t, len(resumeText), audit.TextLength)
}

func TestProcessResume_ExtractionErrorsAreStored(t *testing.T) {
	tests := []struct {
		name    string
		text    fakeText
		wantMsg string
	}{
		{name: "too little text", text: fakeText{text: "  short  "}, wantMsg: "Could not extract sufficient text from resume"},
		{name: "unreadable file", text: fakeText{err: textextract.ErrExtractionFailure}, wantMsg: "Internal parsing error"},
		{name: "unsupported format", text: fakeText{err: textextract.ErrUnsupportedFormat}, wantMsg: "Internal parsing error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newJobsFixture(t, tt.text)
			f.seed(t, models.StatusParsingResume, nil)

			require.NoError(t, f.jobs.ProcessResume(context.Background(), "c-1", "uploads/resumes/r.pdf"))

			c := f.get(t)
			assert.Equal(t, models.StatusPendingDocuments, c.Status)
			assert.Equal(t, tt.wantMsg, c.Parsed().Error)
			assert.Empty(t, c.Parsed().Fields)
		})
	}
}

func TestProcessResume_ShortResumeCanStillBeAskedForDocuments(t *testing.T) {
	f := newJobsFixture(t, fakeText{text: "scan"})
	f.seed(t, models.StatusParsingResume, nil)
	require.NoError(t, f.jobs.ProcessResume(context.Background(), "c-1", "uploads/resumes/r.pdf"))

	store, err := storage.NewLocalStore(t.TempDir())
	require.NoError(t, err)
	tasks := &fakeQueue{}
	svc := NewCandidateService(f.repo, store, tasks, logger.Discard())

	c, err := svc.RequestDocuments(context.Background(), "c-1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusDocumentRequestPending, c.Status)
	require.Len(t, tasks.Tasks(), 1)

	require.NoError(t, f.jobs.GenerateDocumentRequest(context.Background(), "c-1"))
	c = f.get(t)
	assert.Equal(t, models.StatusDocumentRequested, c.Status)
	require.Len(t, c.Requests(), 1)
	assert.True(t, strings.HasPrefix(c.Requests()[0].Message, "Dear Intake Name,"))
}

func TestProcessResume_StoreFailureMarksParseFailed(t *testing.T) {
	f := newJobsFixture(t, fakeText{text: resumeText})
	f.seed(t, models.StatusParsingResume, nil)
	f.jobs.repo = &failOnceRepo{CandidateRepository: f.repo}

	require.NoError(t, f.jobs.ProcessResume(context.Background(), "c-1", "uploads/resumes/r.pdf"))
	assert.Equal(t, models.StatusParseFailed, f.get(t).Status)
}

func TestProcessResume_OnlyLeavesParsingResume(t *testing.T) {
	f := newJobsFixture(t, fakeText{text: resumeText})
	f.seed(t, models.StatusCompleted, nil)

	require.NoError(t, f.jobs.ProcessResume(context.Background(), "c-1", "uploads/resumes/r.pdf"))
	assert.Equal(t, models.StatusCompleted, f.get(t).Status)
}

func TestProcessResume_UnknownCandidate(t *testing.T) {
	f := newJobsFixture(t, fakeText{text: resumeText})
	assert.NoError(t, f.jobs.ProcessResume(context.Background(), "c-1", "uploads/resumes/r.pdf"))
}

func TestProcessResume_AuditFailureIsIgnored(t *testing.T) {
	f := newJobsFixture(t, fakeText{text: resumeText})
	f.audits.err = errors.New("mongo down")
	f.seed(t, models.StatusParsingResume, nil)

	require.NoError(t, f.jobs.ProcessResume(context.Background(), "c-1", "uploads/resumes/r.pdf"))
	assert.Equal(t, models.StatusPendingDocuments, f.get(t).Status)
}

func TestGenerateDocumentRequest_FallbackMessage(t *testing.T) {
	f := newJobsFixture(t, fakeText{})
	f.seed(t, models.StatusDocumentRequestPending, map[string]any{"name": "Asha"})
	before := len(f.get(t).Requests())

	require.NoError(t, f.jobs.GenerateDocumentRequest(context.Background(), "c-1"))

	c := f.get(t)
	assert.Equal(t, models.StatusDocumentRequested, c.Status)
	require.Len(t, c.Requests(), before+1)

	entry := c.Requests()[before]
	assert.True(t, strings.HasPrefix(entry.Message, "Dear Asha,"))
	assert.True(t, strings.HasSuffix(entry.Message, "HR Team"))
	assert.Equal(t, models.RequestStatusSent, entry.Status)
	assert.True(t, entry.Timestamp.Equal(t0))
}

func TestGenerateDocumentRequest_KeepsCollectingStatus(t *testing.T) {
	f := newJobsFixture(t, fakeText{})
	f.seed(t, models.StatusPartiallyCompleted, nil)

	require.NoError(t, f.jobs.GenerateDocumentRequest(context.Background(), "c-1"))

	c := f.get(t)
	assert.Equal(t, models.StatusPartiallyCompleted, c.Status)
	require.Len(t, c.Requests(), 1)
	assert.True(t, strings.HasPrefix(c.Requests()[0].Message, "Dear Intake Name,"))
}

func TestSendFollowup(t *testing.T) {
	f := newJobsFixture(t, fakeText{})
	c := f.seed(t, models.StatusDocumentRequested, map[string]any{"name": "Ravi"})
	_, err := f.repo.Update(context.Background(), c.ID, func(c *models.Candidate) error {
		c.SetDoc(models.DocumentPAN, &models.Document{Filename: "p.pdf", UploadedAt: t0})
		return nil
	})
	require.NoError(t, err)

	require.NoError(t, f.jobs.SendFollowup(context.Background(), "c-1"))

	got := f.get(t)
	assert.Equal(t, models.StatusDocumentRequested, got.Status)
	require.Len(t, got.Requests(), 1)
	assert.Contains(t, got.Requests()[0].Message, "haven't received your AADHAAR yet")
	assert.True(t, strings.HasPrefix(got.Requests()[0].Message, "Dear Ravi,"))
}

type panickingWriter struct{}

func (panickingWriter) DocumentRequest(context.Context, messaging.Recipient) string { panic("boom") }

func (panickingWriter) Followup(context.Context, messaging.Recipient, []models.DocumentType) string {
	panic("boom")
}

func TestHandle(t *testing.T) {
	t.Run("dispatches by kind", func(t *testing.T) {
		f := newJobsFixture(t, fakeText{text: resumeText})
		f.seed(t, models.StatusParsingResume, nil)

		err := f.jobs.Handle(context.Background(), queue.Task{Kind: queue.KindProcessResume, CandidateID: "c-1", ResumePath: "uploads/resumes/r.pdf"})
		require.NoError(t, err)
		assert.Equal(t, models.StatusPendingDocuments, f.get(t).Status)
	})

	t.Run("unknown kind", func(t *testing.T) {
		f := newJobsFixture(t, fakeText{})
		assert.Error(t, f.jobs.Handle(context.Background(), queue.Task{Kind: "archive", CandidateID: "c-1"}))
	})

	t.Run("panic marks the step failed", func(t *testing.T) {
		f := newJobsFixture(t, fakeText{})
		f.jobs.messages = panickingWriter{}
		f.seed(t, models.StatusDocumentRequestPending, nil)

		require.NoError(t, f.jobs.Handle(context.Background(), queue.Task{Kind: queue.KindDocumentRequest, CandidateID: "c-1"}))

		c := f.get(t)
		assert.Equal(t, models.StatusDocumentRequestFailed, c.Status)
		assert.Empty(t, c.Requests())
	})
}

func TestAbandon(t *testing.T) {
	tests := []struct {
		kind queue.Kind
		from models.Status
		want models.Status
	}{
		{kind: queue.KindProcessResume, from: models.StatusParsingResume, want: models.StatusParseFailed},
		{kind: queue.KindDocumentRequest, from: models.StatusDocumentRequestPending, want: models.StatusDocumentRequestFailed},
		{kind: queue.KindDocumentRequest, from: models.StatusCompleted, want: models.StatusCompleted},
		{kind: queue.KindFollowup, from: models.StatusDocumentRequested, want: models.StatusDocumentRequested},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind)+"/"+string(tt.from), func(t *testing.T) {
			f := newJobsFixture(t, fakeText{})
			f.seed(t, tt.from, nil)

			require.NoError(t, f.jobs.Abandon(context.Background(), queue.Task{Kind: tt.kind, CandidateID: "c-1"}))
			assert.Equal(t, tt.want, f.get(t).Status)
		})
	}
}
