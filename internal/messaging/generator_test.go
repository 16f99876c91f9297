package messaging

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/debanirmalya/hirebuddy/internal/logger"
	"github.com/debanirmalya/hirebuddy/internal/models"
	"github.com/debanirmalya/hirebuddy/internal/providers/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubModel struct {
	reply   string
	err     error
	prompts []string
	opts    []llm.Options
}

func (s *stubModel) Generate(_ context.Context, prompt string, opts llm.Options) (string, error) {
	s.prompts = append(s.prompts, prompt)
	s.opts = append(s.opts, opts)
	return s.reply, s.err
}

func (s *stubModel) Close() error { return nil }

func newGen(m llm.Provider) *Generator {
	return NewGenerator(m, Config{}, logger.Discard())
}

func TestDocumentRequest_FallsBackWhenModelFails(t *testing.T) {
	failures := map[string]llm.Provider{
		"network error":  &stubModel{err: errors.New("dial tcp: connection refused")},
		"timeout":        &stubModel{err: context.DeadlineExceeded},
		"empty response": &stubModel{reply: ""},
		"blank response": &stubModel{reply: " \n\t "},
		"model disabled": nil,
	}

	for name, m := range failures {
		t.Run(name, func(t *testing.T) {
			msg := newGen(m).DocumentRequest(context.Background(), Recipient{Name: "Asha"})

			assert.True(t, strings.HasPrefix(msg, "Dear Asha,"))
			assert.True(t, strings.HasSuffix(msg, "HR Team"))
			assert.Contains(t, msg, "1. PAN Card (Permanent Account Number)")
			assert.Contains(t, msg, "2. Aadhaar Card")
			assert.Equal(t, RequestTemplate(Recipient{Name: "Asha"}), msg)
		})
	}
}

func TestDocumentRequest_ReturnsTrimmedModelOutput(t *testing.T) {
	m := &stubModel{reply: "\n  Dear Asha, please send your PAN and Aadhaar.\nBest regards,\nHiring Team  \n"}
	g := NewGenerator(m, Config{SenderEmail: "talent@acme.io", SenderName: "Acme Talent"}, logger.Discard())

	msg := g.DocumentRequest(context.Background(), Recipient{Name: "Asha", Designation: "Engineer", Company: "Acme"})

	assert.Equal(t, "Dear Asha, please send your PAN and Aadhaar.\nBest regards,\nHiring Team", msg)
	require.Len(t, m.prompts, 1)
	assert.Contains(t, m.prompts[0], "- Name: Asha")
	assert.Contains(t, m.prompts[0], "- Current Role: Engineer")
	assert.Contains(t, m.prompts[0], "send these documents to talent@acme.io")
	assert.Contains(t, m.prompts[0], `"Acme Talent"`)
	assert.Equal(t, llm.Options{Temperature: 0.2, TopP: 0.9, MaxTokens: 500}, m.opts[0])
}

func TestFollowup(t *testing.T) {
	missing := []models.DocumentType{models.DocumentPAN, models.DocumentAadhaar}

	t.Run("fallback", func(t *testing.T) {
		msg := newGen(&stubModel{err: errors.New("down")}).Followup(context.Background(), Recipient{}, missing)

		assert.True(t, strings.HasPrefix(msg, "Dear Candidate,"))
		assert.Contains(t, msg, "haven't received your PAN AND AADHAAR yet")
		assert.True(t, strings.HasSuffix(msg, "HR Team"))
	})

	t.Run("model", func(t *testing.T) {
		m := &stubModel{reply: "Hi Ravi, just a reminder about your AADHAAR."}
		msg := newGen(m).Followup(context.Background(), Recipient{Name: "Ravi"}, missing[1:])

		assert.Equal(t, "Hi Ravi, just a reminder about your AADHAAR.", msg)
		assert.Contains(t, m.prompts[0], "Missing Documents: AADHAAR")
		assert.Equal(t, 0.7, m.opts[0].Temperature)
		assert.Zero(t, m.opts[0].MaxTokens)
	})
}

func TestNeverEmpty(t *testing.T) {
	g := NewGenerator(&stubModel{err: errors.New("down")}, Config{Timeout: time.Millisecond}, logger.Discard())
	recipients := []Recipient{{}, {Name: "  "}, {Name: "Meera"}}

	for _, r := range recipients {
		assert.NotEmpty(t, strings.TrimSpace(g.DocumentRequest(context.Background(), r)))
		assert.NotEmpty(t, strings.TrimSpace(g.Followup(context.Background(), r, []models.DocumentType{models.DocumentPAN})))
		assert.NotEmpty(t, strings.TrimSpace(g.Followup(context.Background(), r, nil)))
	}
}

func TestRecipientFor(t *testing.T) {
	c := models.NewCandidate("id-1", "Asha Intake", "asha@intake.io", "Intake Corp", "r.pdf", "uploads/r.pdf", time.Now())

	r := RecipientFor(c)
	assert.Equal(t, Recipient{Name: "Asha Intake", Email: "asha@intake.io", Designation: "Professional", Company: "Intake Corp"}, r)

	c.SetParsed(models.ParsedResume{Fields: map[string]any{
		"name":        "Asha Rao",
		"phone":       "12345",
		"designation": "Staff Engineer",
	}})
	r = RecipientFor(c)
	assert.Equal(t, "Asha Rao", r.Name)
	assert.Equal(t, "asha@intake.io", r.Email)
	assert.Equal(t, "12345", r.Phone)
	assert.Equal(t, "Staff Engineer", r.Designation)
}
