// Package queue carries pipeline tasks from request handlers to background
// workers.
package queue

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Kind identifies which background job a task runs.
type Kind string

const (
	KindProcessResume   Kind = "process_resume"
	KindDocumentRequest Kind = "document_request"
	KindFollowup        Kind = "document_followup"
)

func (k Kind) Valid() bool {
	switch k {
	case KindProcessResume, KindDocumentRequest, KindFollowup:
		return true
	}
	return false
}

type Task struct {
	Kind        Kind
	CandidateID string
	// ResumePath is set for KindProcessResume.
	ResumePath string
	EnqueuedAt time.Time
}

func (t Task) Validate() error {
	if !t.Kind.Valid() {
		return fmt.Errorf("unknown task kind %q", t.Kind)
	}
	if t.CandidateID == "" {
		return errors.New("task candidate_id is required")
	}
	if t.Kind == KindProcessResume && t.ResumePath == "" {
		return errors.New("process_resume task requires resume_path")
	}
	return nil
}

// ErrUnavailable reports that a task could not be handed to the queue.
var ErrUnavailable = errors.New("task queue unavailable")

type Enqueuer interface {
	// Enqueue hands the task over once. Failures wrap ErrUnavailable.
	Enqueue(ctx context.Context, t Task) error
}

type Handler interface {
	Handle(ctx context.Context, t Task) error
}

// Abandoner is implemented by handlers that can record a task as given up
// when it will never run.
type Abandoner interface {
	Abandon(ctx context.Context, t Task) error
}

type HandlerFunc func(ctx context.Context, t Task) error

func (f HandlerFunc) Handle(ctx context.Context, t Task) error { return f(ctx, t) }

// Values encodes a task as stream message fields.
func (t Task) Values() map[string]any {
	v := map[string]any{
		"kind":         string(t.Kind),
		"candidate_id": t.CandidateID,
		"enqueued_at":  t.EnqueuedAt.UTC().Format(time.RFC3339Nano),
	}
	if t.ResumePath != "" {
		v["resume_path"] = t.ResumePath
	}
	return v
}

// TaskFromValues decodes stream message fields written by Values.
func TaskFromValues(values map[string]any) (Task, error) {
	get := func(k string) string {
		s, _ := values[k].(string)
		return s
	}

	t := Task{
		Kind:        Kind(get("kind")),
		CandidateID: get("candidate_id"),
		ResumePath:  get("resume_path"),
	}
	if ts := get("enqueued_at"); ts != "" {
		if at, err := time.Parse(time.RFC3339Nano, ts); err == nil {
			t.EnqueuedAt = at
		}
	}
	return t, t.Validate()
}
