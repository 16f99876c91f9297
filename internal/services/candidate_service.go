package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/debanirmalya/hirebuddy/internal/models"
	"github.com/debanirmalya/hirebuddy/internal/queue"
	"github.com/debanirmalya/hirebuddy/internal/repositories"
	"github.com/debanirmalya/hirebuddy/internal/storage"
	"github.com/debanirmalya/hirebuddy/internal/utils"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	DefaultPerPage = 10
	MaxPerPage     = 100
)

var (
	ResumeExtensions   = []string{"pdf", "docx", "doc"}
	DocumentExtensions = []string{"pdf", "jpg", "jpeg", "png"}
)

type CreateCandidateInput struct {
	Name        string
	Email       string
	CurrCompany string

	Filename    string
	ContentType string
	Body        io.Reader
}

type DocumentUpload struct {
	Type        string
	Filename    string
	ContentType string
	Body        io.Reader
}

type UploadedDocument struct {
	Type     models.DocumentType `json:"type"`
	Filename string              `json:"filename"`
}

type SubmitResult struct {
	Candidate *models.Candidate
	Uploaded  []UploadedDocument
}

type ListCandidatesInput struct {
	Page    int
	PerPage int
	Status  string
	Skill   string
}

type CandidateService interface {
	Create(ctx context.Context, in CreateCandidateInput) (*models.Candidate, error)
	Get(ctx context.Context, id string) (*models.Candidate, error)
	List(ctx context.Context, in ListCandidatesInput) (*repositories.Page, error)
	RequestDocuments(ctx context.Context, id string) (*models.Candidate, error)
	RequestFollowup(ctx context.Context, id string) (*models.Candidate, error)
	SubmitDocuments(ctx context.Context, id string, uploads []DocumentUpload) (*SubmitResult, error)
	Reparse(ctx context.Context, id string) (*models.Candidate, error)
}

type candidateService struct {
	repo   repositories.CandidateRepository
	files  storage.Uploader
	tasks  queue.Enqueuer
	logger *logrus.Logger
	now    func() time.Time
}

func NewCandidateService(repo repositories.CandidateRepository, files storage.Uploader, tasks queue.Enqueuer, l *logrus.Logger) CandidateService {
	if l == nil {
		l = logrus.New()
	}
	return &candidateService{
		repo:   repo,
		files:  files,
		tasks:  tasks,
		logger: l,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (s *candidateService) Create(ctx context.Context, in CreateCandidateInput) (*models.Candidate, error) {
	const op = "CandidateService.Create"

	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	in.CurrCompany = strings.TrimSpace(in.CurrCompany)
	if in.Name == "" || in.Email == "" || in.CurrCompany == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "name, email and curr_company are required", nil)
	}
	if in.Body == nil {
		return nil, utils.E(utils.CodeInvalidArgument, op, "resume file is required", nil)
	}
	ext := utils.Ext(in.Filename)
	if !oneOf(ext, ResumeExtensions) {
		return nil, utils.E(utils.CodeInvalidArgument, op, "resume must be a pdf, docx or doc file", nil)
	}

	id := uuid.NewString()
	now := s.now()
	filename := fmt.Sprintf("%s_%s_%s", id, utils.Stamp(now), storedFilename(in.Filename, "resume."+ext))

	path, err := s.files.Upload(ctx, storage.ResumeObject(filename), in.ContentType, in.Body)
	if err != nil {
		return nil, uploadErr(op, "failed to store resume", err)
	}

	c := models.NewCandidate(id, in.Name, in.Email, in.CurrCompany, filename, path, now)
	if err := s.repo.Save(ctx, c); err != nil {
		s.discard(ctx, id, path)
		return nil, utils.E(utils.CodeInternal, op, "failed to save candidate", err)
	}

	task := queue.Task{Kind: queue.KindProcessResume, CandidateID: id, ResumePath: path}
	if err := s.tasks.Enqueue(ctx, task); err != nil {
		s.failStep(ctx, id, models.StatusParsingResume, models.StatusParseFailed)
		return nil, utils.E(utils.CodeUnavailable, op, "resume processing could not be queued", err)
	}

	s.logger.WithFields(logrus.Fields{"candidate_id": id, "resume": filename}).Info("candidate created")
	return c, nil
}

func (s *candidateService) Get(ctx context.Context, id string) (*models.Candidate, error) {
	const op = "CandidateService.Get"

	if strings.TrimSpace(id) == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "candidate id is required", nil)
	}
	c, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, storeErr(op, err, "failed to load candidate")
	}
	return c, nil
}

func (s *candidateService) List(ctx context.Context, in ListCandidatesInput) (*repositories.Page, error) {
	const op = "CandidateService.List"

	q := repositories.ListQuery{
		Page:    in.Page,
		PerPage: in.PerPage,
		Skill:   strings.TrimSpace(in.Skill),
	}
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PerPage <= 0 {
		q.PerPage = DefaultPerPage
	}
	if q.PerPage > MaxPerPage {
		q.PerPage = MaxPerPage
	}
	if st := strings.TrimSpace(in.Status); st != "" {
		q.Status = models.Status(st)
		if !q.Status.Valid() {
			return nil, utils.E(utils.CodeInvalidArgument, op, "unknown status filter", nil)
		}
	}

	page, err := s.repo.List(ctx, q)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list candidates", err)
	}
	return page, nil
}

func (s *candidateService) RequestDocuments(ctx context.Context, id string) (*models.Candidate, error) {
	const op = "CandidateService.RequestDocuments"

	c, err := s.repo.Update(ctx, id, func(c *models.Candidate) error {
		switch {
		case c.Status == models.StatusParsingResume:
			return utils.E(utils.CodeConflict, op, "resume is still being parsed", nil)
		case c.Status == models.StatusParseFailed:
			return utils.E(utils.CodeConflict, op, "resume parsing failed, reparse before requesting documents", nil)
		case c.Status == models.StatusDocumentRequestPending:
			return utils.E(utils.CodeConflict, op, "a document request is already in progress", nil)
		case c.Status.AcceptsDocumentRequest():
			c.Status = models.StatusDocumentRequestPending
		}
		return nil
	})
	if err != nil {
		return nil, storeErr(op, err, "failed to update candidate")
	}

	if err := s.tasks.Enqueue(ctx, queue.Task{Kind: queue.KindDocumentRequest, CandidateID: id}); err != nil {
		s.failStep(ctx, id, models.StatusDocumentRequestPending, models.StatusDocumentRequestFailed)
		return nil, utils.E(utils.CodeUnavailable, op, "document request could not be queued", err)
	}

	s.logger.WithFields(logrus.Fields{"candidate_id": id, "status": c.Status}).Info("document request queued")
	return c, nil
}

func (s *candidateService) RequestFollowup(ctx context.Context, id string) (*models.Candidate, error) {
	const op = "CandidateService.RequestFollowup"

	c, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !c.Status.Parsed() {
		return nil, utils.E(utils.CodeConflict, op, "resume has not been parsed", nil)
	}
	if len(c.Docs().Missing()) == 0 {
		return nil, utils.E(utils.CodeInvalidArgument, op, "all documents have already been submitted", nil)
	}

	if err := s.tasks.Enqueue(ctx, queue.Task{Kind: queue.KindFollowup, CandidateID: id}); err != nil {
		return nil, utils.E(utils.CodeUnavailable, op, "follow-up could not be queued", err)
	}
	return c, nil
}

func (s *candidateService) SubmitDocuments(ctx context.Context, id string, uploads []DocumentUpload) (*SubmitResult, error) {
	const op = "CandidateService.SubmitDocuments"

	if len(uploads) == 0 {
		return nil, utils.E(utils.CodeInvalidArgument, op, "no documents provided", nil)
	}
	types := make([]models.DocumentType, len(uploads))
	last := make(map[models.DocumentType]int, len(uploads))
	for i, u := range uploads {
		t, ok := models.ParseDocumentType(strings.ToLower(strings.TrimSpace(u.Type)))
		if !ok {
			return nil, utils.E(utils.CodeInvalidArgument, op, fmt.Sprintf("invalid document type %q", u.Type), nil)
		}
		if !oneOf(utils.Ext(u.Filename), DocumentExtensions) {
			return nil, utils.E(utils.CodeInvalidArgument, op, fmt.Sprintf("invalid file type for %s, allowed: pdf, jpg, jpeg, png", t), nil)
		}
		if u.Body == nil {
			return nil, utils.E(utils.CodeInvalidArgument, op, fmt.Sprintf("missing file for %s", t), nil)
		}
		types[i] = t
		last[t] = i
	}

	cur, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if cur.Status == models.StatusParsingResume {
		return nil, utils.E(utils.CodeConflict, op, "resume is still being parsed", nil)
	}

	now := s.now()
	docs := make(map[models.DocumentType]*models.Document, len(uploads))
	uploaded := make([]UploadedDocument, 0, len(uploads))
	var paths []string
	for i, u := range uploads {
		t := types[i]
		if last[t] != i {
			// a later upload in the same request replaces this one
			continue
		}
		filename := fmt.Sprintf("%s_%s_%s_%s", id, t, utils.Stamp(now), storedFilename(u.Filename, string(t)+"."+utils.Ext(u.Filename)))

		path, err := s.files.Upload(ctx, storage.DocumentObject(string(t), filename), u.ContentType, u.Body)
		if errors.Is(err, storage.ErrExists) {
			s.discard(ctx, id, paths...)
			return nil, utils.E(utils.CodeConflict, op, fmt.Sprintf("%s was just uploaded, retry in a moment", t), err)
		}
		if err != nil {
			s.discard(ctx, id, paths...)
			return nil, uploadErr(op, fmt.Sprintf("failed to store %s", t), err)
		}
		paths = append(paths, path)
		docs[t] = &models.Document{Filename: filename, Path: path, UploadedAt: now}
		uploaded = append(uploaded, UploadedDocument{Type: t, Filename: filename})
	}

	c, err := s.repo.Update(ctx, id, func(c *models.Candidate) error {
		if c.Status == models.StatusParsingResume {
			return utils.E(utils.CodeConflict, op, "resume is still being parsed", nil)
		}
		for t, d := range docs {
			c.SetDoc(t, d)
		}
		if c.Docs().Complete() {
			c.Status = models.StatusCompleted
		} else {
			c.Status = models.StatusPartiallyCompleted
		}
		return nil
	})
	if err != nil {
		s.discard(ctx, id, paths...)
		return nil, storeErr(op, err, "failed to record documents")
	}

	s.logger.WithFields(logrus.Fields{"candidate_id": id, "status": c.Status, "documents": len(uploaded)}).Info("documents submitted")
	return &SubmitResult{Candidate: c, Uploaded: uploaded}, nil
}

func (s *candidateService) Reparse(ctx context.Context, id string) (*models.Candidate, error) {
	const op = "CandidateService.Reparse"

	c, err := s.repo.Update(ctx, id, func(c *models.Candidate) error {
		retryable := c.Status == models.StatusParseFailed ||
			(c.Status == models.StatusPendingDocuments && c.Parsed().Error != "")
		if !retryable {
			return utils.E(utils.CodeConflict, op, "only candidates whose parsing failed can be reparsed", nil)
		}
		c.Status = models.StatusParsingResume
		return nil
	})
	if err != nil {
		return nil, storeErr(op, err, "failed to update candidate")
	}

	task := queue.Task{Kind: queue.KindProcessResume, CandidateID: id, ResumePath: c.ResumePath}
	if err := s.tasks.Enqueue(ctx, task); err != nil {
		s.failStep(ctx, id, models.StatusParsingResume, models.StatusParseFailed)
		return nil, utils.E(utils.CodeUnavailable, op, "resume processing could not be queued", err)
	}
	return c, nil
}

// discard removes files written for a request that was then rejected.
func (s *candidateService) discard(ctx context.Context, id string, paths ...string) {
	ctx, cancel := detached(ctx)
	defer cancel()
	for _, p := range paths {
		if err := s.files.Delete(ctx, p); err != nil {
			s.logger.WithError(err).WithFields(logrus.Fields{"candidate_id": id, "path": p}).Warn("orphaned upload not removed")
		}
	}
}

// failStep moves a candidate from an in-flight status to its failure
// status after the step could not be queued.
func (s *candidateService) failStep(ctx context.Context, id string, from, to models.Status) {
	ctx, cancel := detached(ctx)
	defer cancel()

	_, err := s.repo.Update(ctx, id, func(c *models.Candidate) error {
		if c.Status == from {
			c.Status = to
		}
		return nil
	})
	if err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{"candidate_id": id, "status": to}).Error("failed to record failure status")
	}
}

func storedFilename(name, fallback string) string {
	if n := utils.SecureFilename(name); n != "" && utils.Ext(n) == utils.Ext(name) {
		return n
	}
	return fallback
}

func oneOf(v string, set []string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}
