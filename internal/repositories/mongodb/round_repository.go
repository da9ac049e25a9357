package mongodb

import (
	"context"
	"time"

	"github.com/ArowuTest/jackpot-backend/internal/models"
	"github.com/ArowuTest/jackpot-backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var _ repositories.RoundRepository = (*RoundRepository)(nil)

// RoundRepository keeps the live round, with its bet slots, in the rounds collection.
// Finished rounds are removed once archived into history.
type RoundRepository struct {
	collection *mongo.Collection
}

func NewRoundRepository(db *mongo.Database) *RoundRepository {
	return &RoundRepository{
		collection: db.Collection("rounds"),
	}
}

// SaveCurrent upserts the round document by id
func (r *RoundRepository) SaveCurrent(ctx context.Context, round *models.Round) error {
	round.UpdatedAt = time.Now()
	opts := options.Replace().SetUpsert(true)
	_, err := r.collection.ReplaceOne(ctx, bson.M{"_id": round.ID}, round, opts)
	return translate("save round", err)
}

// FindCurrent returns the highest-numbered round still stored
func (r *RoundRepository) FindCurrent(ctx context.Context) (*models.Round, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "number", Value: -1}})
	var round models.Round
	if err := r.collection.FindOne(ctx, bson.M{}, opts).Decode(&round); err != nil {
		return nil, translate("find current round", err)
	}
	return &round, nil
}

func (r *RoundRepository) DeleteCurrent(ctx context.Context, id string) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	return translate("delete round", err)
}
