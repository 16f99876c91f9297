// Package messaging writes document request and follow-up messages for
// candidates, falling back to fixed templates whenever the language model
// cannot produce one.
package messaging

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/debanirmalya/hirebuddy/internal/models"
	"github.com/debanirmalya/hirebuddy/internal/providers/llm"
	"github.com/sirupsen/logrus"
)

// Recipient is the candidate information a message is personalised with.
type Recipient struct {
	Name        string
	Email       string
	Phone       string
	Designation string
	Company     string
}

func (r Recipient) displayName() string {
	if n := strings.TrimSpace(r.Name); n != "" {
		return n
	}
	return "Candidate"
}

// RecipientFor prefers parsed resume values and falls back to what the
// candidate entered at upload.
func RecipientFor(c *models.Candidate) Recipient {
	p := c.Parsed()
	pick := func(parsed, intake string) string {
		if v := p.String(parsed); v != "" {
			return v
		}
		return strings.TrimSpace(intake)
	}
	return Recipient{
		Name:        pick(models.FieldName, c.Name),
		Email:       pick(models.FieldEmail, c.Email),
		Phone:       p.String(models.FieldPhone),
		Designation: pick(models.FieldDesignation, "Professional"),
		Company:     pick(models.FieldCurrentCompany, c.CurrCompany),
	}
}

type Config struct {
	SenderEmail string
	SenderName  string
	Timeout     time.Duration
}

type Generator struct {
	model  llm.Provider
	cfg    Config
	logger *logrus.Logger
}

// NewGenerator builds a generator. A nil model always uses the templates.
func NewGenerator(model llm.Provider, cfg Config, l *logrus.Logger) *Generator {
	if cfg.SenderEmail == "" {
		cfg.SenderEmail = "hr@hiring.com"
	}
	if cfg.SenderName == "" {
		cfg.SenderName = "Hiring Team"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if l == nil {
		l = logrus.New()
	}
	return &Generator{model: model, cfg: cfg, logger: l}
}

// DocumentRequest asks the candidate for PAN and Aadhaar. The result is
// never empty.
func (g *Generator) DocumentRequest(ctx context.Context, r Recipient) string {
	prompt := render(requestPrompt, map[string]string{
		"NAME":         r.displayName(),
		"EMAIL":        r.Email,
		"PHONE":        r.Phone,
		"DESIGNATION":  r.Designation,
		"COMPANY":      r.Company,
		"SENDER_EMAIL": g.cfg.SenderEmail,
		"SENDER_NAME":  g.cfg.SenderName,
	})
	opts := llm.Options{Temperature: 0.2, TopP: 0.9, MaxTokens: 500}

	if msg, ok := g.generate(ctx, "document_request", prompt, opts); ok {
		return msg
	}
	return RequestTemplate(r)
}

// Followup reminds the candidate of the missing documents. The result is
// never empty.
func (g *Generator) Followup(ctx context.Context, r Recipient, missing []models.DocumentType) string {
	prompt := render(followupPrompt, map[string]string{
		"NAME": r.displayName(),
		"DOCS": missingList(missing),
	})
	opts := llm.Options{Temperature: 0.7, TopP: 0.9}

	if msg, ok := g.generate(ctx, "document_followup", prompt, opts); ok {
		return msg
	}
	return FollowupTemplate(r, missing)
}

func (g *Generator) generate(ctx context.Context, kind, prompt string, opts llm.Options) (msg string, ok bool) {
	if g.model == nil {
		return "", false
	}

	ctx, cancel := context.WithTimeout(ctx, g.cfg.Timeout)
	defer cancel()

	log := g.logger.WithField("message", kind)
	defer func() {
		if r := recover(); r != nil {
			log.WithField("panic", fmt.Sprint(r)).Error("message generation panicked, using template")
			msg, ok = "", false
		}
	}()

	out, err := g.model.Generate(ctx, prompt, opts)
	if err != nil {
		log.WithError(err).Warn("message generation failed, using template")
		return "", false
	}
	out = strings.TrimSpace(out)
	if out == "" {
		log.Warn("message generation returned nothing, using template")
		return "", false
	}
	return out, true
}
