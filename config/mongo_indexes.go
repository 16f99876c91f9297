package config

import (
	"context"
	"time"

	mongorepo "github.com/debanirmalya/hirebuddy/internal/repositories/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func EnsureMongoIndexes(ctx context.Context, db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	audits := db.Collection(mongorepo.AuditCollection)
	_, err := audits.Indexes().CreateMany(ctx, []mongo.IndexModel{
		// TTL index: expire at expires_at (must be Date)
		{
			Keys: bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().
				SetName("ttl_expires_at").
				SetExpireAfterSeconds(0),
		},
		{
			Keys:    bson.D{{Key: "candidate_id", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("by_candidate_created"),
		},
	})
	return err
}
