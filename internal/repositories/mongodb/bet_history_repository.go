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

var _ repositories.BetHistoryRepository = (*BetHistoryRepository)(nil)

// BetHistoryRepository handles MongoDB operations for BetHistory
type BetHistoryRepository struct {
	collection *mongo.Collection
}

func NewBetHistoryRepository(db *mongo.Database) *BetHistoryRepository {
	return &BetHistoryRepository{
		collection: db.Collection("bet_history"),
	}
}

func (r *BetHistoryRepository) Create(ctx context.Context, bet *models.BetHistory) error {
	_, err := r.collection.InsertOne(ctx, bet)
	return translate("create bet history", err)
}

func (r *BetHistoryRepository) FindByAccountID(ctx context.Context, accountID string, limit int) ([]*models.BetHistory, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cursor, err := r.collection.Find(ctx, bson.M{"accountId": accountID}, opts)
	if err != nil {
		return nil, translate("find bet history", err)
	}
	defer cursor.Close(ctx)

	var bets []*models.BetHistory
	if err = cursor.All(ctx, &bets); err != nil {
		return nil, translate("decode bet history", err)
	}
	if bets == nil {
		bets = []*models.BetHistory{}
	}
	return bets, nil
}

func (r *BetHistoryRepository) SettleRound(ctx context.Context, roundID, winnerID string, at time.Time) error {
	pending := bson.M{"roundId": roundID, "outcome": models.BetOutcomePending}

	won := bson.M{"roundId": roundID, "outcome": models.BetOutcomePending, "accountId": winnerID}
	if _, err := r.collection.UpdateMany(ctx, won, bson.M{"$set": bson.M{"outcome": models.BetOutcomeWon, "settledAt": at}}); err != nil {
		return translate("mark won bets", err)
	}
	_, err := r.collection.UpdateMany(ctx, pending, bson.M{"$set": bson.M{"outcome": models.BetOutcomeLost, "settledAt": at}})
	return translate("mark lost bets", err)
}

func (r *BetHistoryRepository) RefundRound(ctx context.Context, roundID string, at time.Time) error {
	filter := bson.M{"roundId": roundID, "outcome": models.BetOutcomePending}
	_, err := r.collection.UpdateMany(ctx, filter, bson.M{"$set": bson.M{"outcome": models.BetOutcomeRefunded, "settledAt": at}})
	return translate("mark refunded bets", err)
}
