package mongodb

import (
	"context"

	"github.com/ArowuTest/jackpot-backend/internal/models"
	"github.com/ArowuTest/jackpot-backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var _ repositories.HistoryRepository = (*HistoryRepository)(nil)

// HistoryRepository stores one document per finished round keyed by round id,
// so the primary key doubles as the write-once guard.
type HistoryRepository struct {
	collection *mongo.Collection
}

func NewHistoryRepository(db *mongo.Database) *HistoryRepository {
	return &HistoryRepository{
		collection: db.Collection("round_history"),
	}
}

func (r *HistoryRepository) Append(ctx context.Context, record *models.HistoryRecord) error {
	_, err := r.collection.InsertOne(ctx, record)
	return translate("append history", err)
}

func (r *HistoryRepository) FindByRoundID(ctx context.Context, roundID string) (*models.HistoryRecord, error) {
	var record models.HistoryRecord
	if err := r.collection.FindOne(ctx, bson.M{"_id": roundID}).Decode(&record); err != nil {
		return nil, translate("find history", err)
	}
	return &record, nil
}

// FindRecent returns the newest records first
func (r *HistoryRepository) FindRecent(ctx context.Context, limit int) ([]*models.HistoryRecord, error) {
	opts := options.Find().SetSort(bson.D{{Key: "finishedAt", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, translate("find recent history", err)
	}
	defer cursor.Close(ctx)

	var records []*models.HistoryRecord
	if err = cursor.All(ctx, &records); err != nil {
		return nil, translate("decode history", err)
	}
	if records == nil {
		records = []*models.HistoryRecord{}
	}
	return records, nil
}

func (r *HistoryRepository) CountWins(ctx context.Context, accountID string) (int64, error) {
	n, err := r.collection.CountDocuments(ctx, bson.M{"winner.accountId": accountID})
	return n, translate("count wins", err)
}

func (r *HistoryRepository) LastRoundNumber(ctx context.Context) (int64, error) {
	opts := options.FindOne().
		SetSort(bson.D{{Key: "roundNumber", Value: -1}}).
		SetProjection(bson.M{"roundNumber": 1})
	var last struct {
		RoundNumber int64 `bson:"roundNumber"`
	}
	err := r.collection.FindOne(ctx, bson.M{}, opts).Decode(&last)
	if err == mongo.ErrNoDocuments {
		return 0, nil
	}
	if err != nil {
		return 0, translate("last round number", err)
	}
	return last.RoundNumber, nil
}
