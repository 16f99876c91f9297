package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ExtractionAudit records how one resume parse arrived at its result.
type ExtractionAudit struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CandidateID string             `bson:"candidate_id" json:"candidate_id"`

	TextLength    int    `bson:"text_length" json:"text_length"`
	ModelResponse string `bson:"model_response,omitempty" json:"model_response,omitempty"`
	ModelError    string `bson:"model_error,omitempty" json:"model_error,omitempty"`

	ModelFields     map[string]any     `bson:"model_fields,omitempty" json:"model_fields,omitempty"`
	ModelConfidence map[string]float64 `bson:"model_confidence,omitempty" json:"model_confidence,omitempty"`
	HeuristicFields map[string]any     `bson:"heuristic_fields,omitempty" json:"heuristic_fields,omitempty"`

	Merged ParsedResume `bson:"merged" json:"merged"`
	Error  string       `bson:"error,omitempty" json:"error,omitempty"` // insufficient_text|extraction_failure

	DurationMS int64     `bson:"duration_ms" json:"duration_ms"`
	CreatedAt  time.Time `bson:"created_at" json:"created_at"`

	ExpiresAt time.Time `bson:"expires_at" json:"expires_at"` // for TTL index
}
