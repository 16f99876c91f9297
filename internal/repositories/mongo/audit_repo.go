package mongo

import (
	"context"
	"time"

	"github.com/debanirmalya/hirebuddy/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const AuditCollection = "extraction_audits"

type AuditRepository interface {
	Insert(ctx context.Context, a *models.ExtractionAudit) error
	ListByCandidate(ctx context.Context, candidateID string, limit int64) ([]models.ExtractionAudit, error)
}

type auditRepo struct {
	col       *mongo.Collection
	retention time.Duration
}

// NewAuditRepo stores audits that expire retention after creation. A zero
// retention keeps them for 30 days.
func NewAuditRepo(db *mongo.Database, retention time.Duration) AuditRepository {
	if retention <= 0 {
		retention = 30 * 24 * time.Hour
	}
	return &auditRepo{col: db.Collection(AuditCollection), retention: retention}
}

func (r *auditRepo) Insert(ctx context.Context, a *models.ExtractionAudit) error {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	if a.ExpiresAt.IsZero() {
		a.ExpiresAt = a.CreatedAt.Add(r.retention)
	}
	_, err := r.col.InsertOne(ctx, a)
	return err
}

func (r *auditRepo) ListByCandidate(ctx context.Context, candidateID string, limit int64) ([]models.ExtractionAudit, error) {
	if limit <= 0 {
		limit = 20
	}

	cur, err := r.col.Find(ctx,
		bson.M{"candidate_id": candidateID},
		options.Find().
			SetSort(bson.D{{Key: "created_at", Value: -1}}).
			SetLimit(limit),
	)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.ExtractionAudit
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
