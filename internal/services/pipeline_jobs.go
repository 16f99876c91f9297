package services

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/debanirmalya/hirebuddy/internal/extraction"
	"github.com/debanirmalya/hirebuddy/internal/messaging"
	"github.com/debanirmalya/hirebuddy/internal/models"
	"github.com/debanirmalya/hirebuddy/internal/providers/textextract"
	"github.com/debanirmalya/hirebuddy/internal/queue"
	"github.com/debanirmalya/hirebuddy/internal/repositories"
	mongorepo "github.com/debanirmalya/hirebuddy/internal/repositories/mongo"
	"github.com/debanirmalya/hirebuddy/internal/utils"
	"github.com/sirupsen/logrus"
)

type ResumeExtractor interface {
	Extract(ctx context.Context, text string) extraction.Result
}

type MessageWriter interface {
	DocumentRequest(ctx context.Context, r messaging.Recipient) string
	Followup(ctx context.Context, r messaging.Recipient, missing []models.DocumentType) string
}

type PipelineDeps struct {
	Repo     repositories.CandidateRepository
	Text     textextract.Extractor
	Fields   ResumeExtractor
	Messages MessageWriter
	// Audits is optional.
	Audits mongorepo.AuditRepository
	Logger *logrus.Logger
}

// PipelineJobs runs the background steps of the candidate pipeline. Each
// step records its own outcome on the candidate; only a failure to write
// that outcome is returned.
type PipelineJobs struct {
	repo     repositories.CandidateRepository
	text     textextract.Extractor
	fields   ResumeExtractor
	messages MessageWriter
	audits   mongorepo.AuditRepository
	logger   *logrus.Logger
	now      func() time.Time
}

func NewPipelineJobs(d PipelineDeps) *PipelineJobs {
	if d.Logger == nil {
		d.Logger = logrus.New()
	}
	return &PipelineJobs{
		repo:     d.Repo,
		text:     d.Text,
		fields:   d.Fields,
		messages: d.Messages,
		audits:   d.Audits,
		logger:   d.Logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

var _ queue.Handler = (*PipelineJobs)(nil)

func (j *PipelineJobs) Handle(ctx context.Context, t queue.Task) (err error) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		j.logger.WithFields(logrus.Fields{
			"task":         t.Kind,
			"candidate_id": t.CandidateID,
			"panic":        fmt.Sprint(r),
		}).Error("pipeline job panicked")

		err = j.Abandon(ctx, t)
	}()

	switch t.Kind {
	case queue.KindProcessResume:
		return j.ProcessResume(ctx, t.CandidateID, t.ResumePath)
	case queue.KindDocumentRequest:
		return j.GenerateDocumentRequest(ctx, t.CandidateID)
	case queue.KindFollowup:
		return j.SendFollowup(ctx, t.CandidateID)
	}
	return fmt.Errorf("unknown task kind %q", t.Kind)
}

// ProcessResume extracts fields from the stored resume and moves the
// candidate out of StatusParsingResume.
func (j *PipelineJobs) ProcessResume(ctx context.Context, id, resumePath string) error {
	log := j.logger.WithFields(logrus.Fields{"candidate_id": id, "task": queue.KindProcessResume})

	var res extraction.Result
	text, err := j.text.Extract(ctx, resumePath)
	if err != nil {
		log.WithError(err).Error("resume text extraction failed")
		res = extraction.Failed(extraction.ErrExtractionFailure)
		res.Trace.ModelError = err.Error()
	} else {
		res = j.fields.Extract(ctx, text)
	}
	j.audit(ctx, id, text, res)

	// An extraction error is stored with the empty result; only a failure of
	// the job itself ends in StatusParseFailed.
	parsed := models.ParsedResume{Fields: res.Fields, Confidence: res.Confidence}
	next := models.StatusPendingDocuments
	if res.Err != "" {
		parsed.Error = res.Err.Message()
	}

	wctx, cancel := detached(ctx)
	defer cancel()
	_, err = j.repo.Update(wctx, id, func(c *models.Candidate) error {
		c.SetParsed(parsed)
		if c.Status == models.StatusParsingResume {
			c.Status = next
		}
		return nil
	})
	if errors.Is(err, utils.ErrNotFound) {
		log.Warn("candidate disappeared before parse result was stored")
		return nil
	}
	if err != nil {
		log.WithError(err).Error("failed to store parse result")
		return j.fail(ctx, id, models.StatusParsingResume, models.StatusParseFailed)
	}

	entry := log.WithFields(logrus.Fields{"status": next, "fields": len(parsed.Fields)})
	if parsed.Error != "" {
		entry.WithField("parse_error", parsed.Error).Warn("resume processed without fields")
		return nil
	}
	entry.Info("resume processed")
	return nil
}

// GenerateDocumentRequest writes and logs a document request message.
func (j *PipelineJobs) GenerateDocumentRequest(ctx context.Context, id string) error {
	log := j.logger.WithFields(logrus.Fields{"candidate_id": id, "task": queue.KindDocumentRequest})

	c, err := j.repo.Get(ctx, id)
	if errors.Is(err, utils.ErrNotFound) {
		log.Warn("candidate not found for document request")
		return nil
	}
	if err != nil {
		log.WithError(err).Error("failed to load candidate")
		return j.fail(ctx, id, models.StatusDocumentRequestPending, models.StatusDocumentRequestFailed)
	}

	msg := j.messages.DocumentRequest(ctx, messaging.RecipientFor(c))

	wctx, cancel := detached(ctx)
	defer cancel()
	updated, err := j.repo.Update(wctx, id, func(c *models.Candidate) error {
		c.AppendRequest(models.DocumentRequest{
			Timestamp: j.now(),
			Message:   msg,
			Status:    models.RequestStatusSent,
		})
		if c.Status == models.StatusDocumentRequestPending {
			c.Status = models.StatusDocumentRequested
		}
		return nil
	})
	if err != nil {
		log.WithError(err).Error("failed to store document request")
		return j.fail(ctx, id, models.StatusDocumentRequestPending, models.StatusDocumentRequestFailed)
	}

	log.WithFields(logrus.Fields{"status": updated.Status, "requests": len(updated.Requests())}).Info("document request sent")
	return nil
}

// SendFollowup logs a reminder for the documents still missing. Status is
// left as it is.
func (j *PipelineJobs) SendFollowup(ctx context.Context, id string) error {
	log := j.logger.WithFields(logrus.Fields{"candidate_id": id, "task": queue.KindFollowup})

	c, err := j.repo.Get(ctx, id)
	if errors.Is(err, utils.ErrNotFound) {
		log.Warn("candidate not found for follow-up")
		return nil
	}
	if err != nil {
		return err
	}

	missing := c.Docs().Missing()
	if len(missing) == 0 {
		log.Info("no documents missing, follow-up skipped")
		return nil
	}
	msg := j.messages.Followup(ctx, messaging.RecipientFor(c), missing)

	wctx, cancel := detached(ctx)
	defer cancel()
	_, err = j.repo.Update(wctx, id, func(c *models.Candidate) error {
		c.AppendRequest(models.DocumentRequest{
			Timestamp: j.now(),
			Message:   msg,
			Status:    models.RequestStatusSent,
		})
		return nil
	})
	if err != nil {
		return err
	}
	log.WithField("missing", missing).Info("follow-up sent")
	return nil
}

var _ queue.Abandoner = (*PipelineJobs)(nil)

// Abandon moves the candidate of a task that will not complete to the
// failure status of its step. Follow-ups have no step status.
func (j *PipelineJobs) Abandon(ctx context.Context, t queue.Task) error {
	switch t.Kind {
	case queue.KindProcessResume:
		return j.fail(ctx, t.CandidateID, models.StatusParsingResume, models.StatusParseFailed)
	case queue.KindDocumentRequest:
		return j.fail(ctx, t.CandidateID, models.StatusDocumentRequestPending, models.StatusDocumentRequestFailed)
	}
	return nil
}

// fail records the failure status of a step still in flight. The store
// error, if any, is returned since there is nothing left to fall back on.
func (j *PipelineJobs) fail(ctx context.Context, id string, from, to models.Status) error {
	wctx, cancel := detached(ctx)
	defer cancel()

	_, err := j.repo.Update(wctx, id, func(c *models.Candidate) error {
		if c.Status == from {
			c.Status = to
		}
		return nil
	})
	if errors.Is(err, utils.ErrNotFound) {
		return nil
	}
	return err
}

func (j *PipelineJobs) audit(ctx context.Context, id, text string, res extraction.Result) {
	if j.audits == nil {
		return
	}
	a := &models.ExtractionAudit{
		CandidateID:     id,
		TextLength:      utf8.RuneCountInString(text),
		ModelResponse:   res.Trace.ModelResponse,
		ModelError:      res.Trace.ModelError,
		ModelFields:     res.Trace.ModelFields,
		ModelConfidence: res.Trace.ModelConfidence,
		HeuristicFields: res.Trace.Heuristic,
		Merged:          models.ParsedResume{Fields: res.Fields, Confidence: res.Confidence},
		Error:           string(res.Err),
		DurationMS:      res.Trace.Duration.Milliseconds(),
		CreatedAt:       j.now(),
	}

	actx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := j.audits.Insert(actx, a); err != nil {
		j.logger.WithError(err).WithField("candidate_id", id).Warn("extraction audit not stored")
	}
}
