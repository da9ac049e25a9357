package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates the indexes the repositories rely on. It is idempotent.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	specs := map[string][]mongo.IndexModel{
		"accounts": {
			{Keys: bson.D{{Key: "nameKey", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		"admin_users": {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		"round_history": {
			{Keys: bson.D{{Key: "finishedAt", Value: -1}}},
			{Keys: bson.D{{Key: "roundNumber", Value: -1}}},
			{Keys: bson.D{{Key: "winner.accountId", Value: 1}}},
		},
		"bet_history": {
			{Keys: bson.D{{Key: "roundId", Value: 1}, {Key: "outcome", Value: 1}}},
			{Keys: bson.D{{Key: "accountId", Value: 1}, {Key: "createdAt", Value: -1}}},
		},
		"ledger_entries": {
			{Keys: bson.D{{Key: "reference", Value: 1}, {Key: "createdAt", Value: 1}}},
			{Keys: bson.D{{Key: "accountId", Value: 1}, {Key: "createdAt", Value: -1}}},
		},
		"rounds": {
			{Keys: bson.D{{Key: "number", Value: -1}}},
		},
	}
	for collection, indexes := range specs {
		if _, err := db.Collection(collection).Indexes().CreateMany(ctx, indexes); err != nil {
			return fmt.Errorf("create indexes on %s: %w", collection, err)
		}
	}
	return nil
}
