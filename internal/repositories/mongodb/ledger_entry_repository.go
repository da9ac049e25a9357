package mongodb

import (
	"context"

	"github.com/ArowuTest/jackpot-backend/internal/models"
	"github.com/ArowuTest/jackpot-backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Compile-time check to ensure LedgerEntryRepository implements the interface
var _ repositories.LedgerEntryRepository = (*LedgerEntryRepository)(nil)

// LedgerEntryRepository handles MongoDB operations for LedgerEntry
type LedgerEntryRepository struct {
	collection *mongo.Collection
}

// NewLedgerEntryRepository creates a new LedgerEntryRepository
func NewLedgerEntryRepository(db *mongo.Database) *LedgerEntryRepository {
	return &LedgerEntryRepository{
		collection: db.Collection("ledger_entries"),
	}
}

// Create inserts a new journal entry
func (r *LedgerEntryRepository) Create(ctx context.Context, entry *models.LedgerEntry) error {
	_, err := r.collection.InsertOne(ctx, entry)
	return translate("create ledger entry", err)
}

// FindByAccountID finds the latest journal entries for an account
func (r *LedgerEntryRepository) FindByAccountID(ctx context.Context, accountID string, limit int) ([]*models.LedgerEntry, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	if limit > 0 {
		findOptions.SetLimit(int64(limit))
	}
	return r.find(ctx, bson.M{"accountId": accountID}, findOptions)
}

// FindByReference returns every entry for a round id or promo code in insertion order
func (r *LedgerEntryRepository) FindByReference(ctx context.Context, reference string) ([]*models.LedgerEntry, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})
	return r.find(ctx, bson.M{"reference": reference}, findOptions)
}

func (r *LedgerEntryRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*models.LedgerEntry, error) {
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, translate("find ledger entries", err)
	}
	defer cursor.Close(ctx)

	var entries []*models.LedgerEntry
	if err = cursor.All(ctx, &entries); err != nil {
		return nil, translate("decode ledger entries", err)
	}
	// Return empty slice instead of nil if no documents found
	if entries == nil {
		entries = []*models.LedgerEntry{}
	}
	return entries, nil
}
