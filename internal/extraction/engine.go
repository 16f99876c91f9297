// Package extraction turns raw resume text into a confidence-annotated set
// of candidate fields, combining a language model with pattern heuristics.
package extraction

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/debanirmalya/hirebuddy/internal/providers/llm"
	"github.com/sirupsen/logrus"
)

// ErrorKind classifies an extraction that produced no usable result.
type ErrorKind string

const (
	ErrInsufficientText  ErrorKind = "insufficient_text"
	ErrExtractionFailure ErrorKind = "extraction_failure"
)

// Message is the text stored with a failed parse.
func (k ErrorKind) Message() string {
	switch k {
	case ErrInsufficientText:
		return "Could not extract sufficient text from resume"
	case ErrExtractionFailure:
		return "Internal parsing error"
	}
	return ""
}

type Config struct {
	MinTextLength       int
	PromptTextLimit     int
	HeuristicConfidence float64
	DefaultConfidence   float64
	Timeout             time.Duration
	Temperature         float64
	TopP                float64
}

func DefaultConfig() Config {
	return Config{
		MinTextLength:       50,
		PromptTextLimit:     4000,
		HeuristicConfidence: 0.4,
		DefaultConfidence:   0.5,
		Timeout:             90 * time.Second,
		Temperature:         0.1,
		TopP:                0.9,
	}
}

// Trace keeps the per-strategy results behind a Result for auditing.
type Trace struct {
	ModelResponse   string
	ModelError      string
	ModelFields     map[string]any
	ModelConfidence map[string]float64
	Heuristic       map[string]any
	Duration        time.Duration
}

type Result struct {
	Fields     map[string]any
	Confidence map[string]float64
	Err        ErrorKind
	Trace      Trace
}

// Failed returns an empty result carrying kind.
func Failed(kind ErrorKind) Result {
	return Result{Fields: map[string]any{}, Confidence: map[string]float64{}, Err: kind}
}

type Engine struct {
	model  llm.Provider
	cfg    Config
	logger *logrus.Logger
}

// NewEngine builds an engine. A nil model leaves only the heuristic
// strategy.
func NewEngine(model llm.Provider, cfg Config, l *logrus.Logger) *Engine {
	def := DefaultConfig()
	if cfg.MinTextLength <= 0 {
		cfg.MinTextLength = def.MinTextLength
	}
	if cfg.PromptTextLimit <= 0 {
		cfg.PromptTextLimit = def.PromptTextLimit
	}
	if cfg.HeuristicConfidence <= 0 {
		cfg.HeuristicConfidence = def.HeuristicConfidence
	}
	if cfg.DefaultConfidence <= 0 {
		cfg.DefaultConfidence = def.DefaultConfidence
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.Temperature <= 0 {
		cfg.Temperature = def.Temperature
	}
	if cfg.TopP <= 0 {
		cfg.TopP = def.TopP
	}
	if l == nil {
		l = logrus.New()
	}
	return &Engine{model: model, cfg: cfg, logger: l}
}

// Extract never returns an error: failures are reported through Result.Err.
func (e *Engine) Extract(ctx context.Context, text string) (res Result) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			e.logger.WithField("panic", fmt.Sprint(r)).Error("resume extraction panicked")
			res = Failed(ErrExtractionFailure)
		}
		res.Trace.Duration = time.Since(start)
	}()

	if utf8.RuneCountInString(strings.TrimSpace(text)) < e.cfg.MinTextLength {
		return Failed(ErrInsufficientText)
	}

	var tr Trace
	tr.ModelFields, tr.ModelConfidence, tr.ModelResponse, tr.ModelError = e.fromModel(ctx, text)
	tr.Heuristic = Heuristic(text)

	fields, conf := Merge(tr.ModelFields, tr.ModelConfidence, tr.Heuristic, e.cfg.HeuristicConfidence, e.cfg.DefaultConfidence)
	return Result{Fields: fields, Confidence: conf, Trace: tr}
}

// fromModel returns empty maps on any failure; the reason is reported as
// the last value.
func (e *Engine) fromModel(ctx context.Context, text string) (map[string]any, map[string]float64, string, string) {
	if e.model == nil {
		return map[string]any{}, map[string]float64{}, "", "model disabled"
	}

	ctx, cancel := context.WithTimeout(ctx, e.cfg.Timeout)
	defer cancel()

	raw, err := e.model.Generate(ctx, buildPrompt(text, e.cfg.PromptTextLimit), llm.Options{
		Temperature: e.cfg.Temperature,
		TopP:        e.cfg.TopP,
	})
	if err != nil {
		e.logger.WithError(err).Warn("model extraction unavailable, using heuristics")
		return map[string]any{}, map[string]float64{}, "", err.Error()
	}

	fields, conf, err := parseModelFields(raw)
	if err != nil {
		e.logger.WithError(err).Warn("model extraction returned no usable JSON")
		return map[string]any{}, map[string]float64{}, raw, err.Error()
	}
	return fields, conf, raw, ""
}
