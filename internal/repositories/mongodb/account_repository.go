package mongodb

import (
	"context"
	"errors"
	"time"

	"github.com/ArowuTest/jackpot-backend/internal/models"
	"github.com/ArowuTest/jackpot-backend/internal/repositories"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Compile-time check to ensure AccountRepository implements the interface
var _ repositories.AccountRepository = (*AccountRepository)(nil)

// AccountRepository handles MongoDB operations for Account.
// Every balance change is a single FindOneAndUpdate so concurrent writers never lose updates.
type AccountRepository struct {
	collection *mongo.Collection
}

// NewAccountRepository creates a new AccountRepository
func NewAccountRepository(db *mongo.Database) *AccountRepository {
	return &AccountRepository{
		collection: db.Collection("accounts"),
	}
}

// Create inserts a new account; a taken id or name key yields ErrDuplicate.
func (r *AccountRepository) Create(ctx context.Context, account *models.Account) error {
	now := time.Now()
	if account.JoinedAt.IsZero() {
		account.JoinedAt = now
	}
	account.UpdatedAt = now
	_, err := r.collection.InsertOne(ctx, account)
	return translate("create account", err)
}

// FindByID finds an account by ID
func (r *AccountRepository) FindByID(ctx context.Context, id string) (*models.Account, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

// FindByNameKey finds an account by its lower-cased display name
func (r *AccountRepository) FindByNameKey(ctx context.Context, nameKey string) (*models.Account, error) {
	return r.findOne(ctx, bson.M{"nameKey": nameKey})
}

// FindAll retrieves accounts page by page, oldest first
func (r *AccountRepository) FindAll(ctx context.Context, page, limit int) ([]*models.Account, error) {
	opts := options.Find().SetSort(bson.D{{Key: "joinedAt", Value: 1}})
	if page > 0 && limit > 0 {
		opts.SetSkip(int64((page - 1) * limit))
		opts.SetLimit(int64(limit))
	}

	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, translate("find accounts", err)
	}
	defer cursor.Close(ctx)

	var accounts []*models.Account
	if err = cursor.All(ctx, &accounts); err != nil {
		return nil, translate("decode accounts", err)
	}
	if accounts == nil {
		accounts = []*models.Account{}
	}
	return accounts, nil
}

// Count returns the number of accounts
func (r *AccountRepository) Count(ctx context.Context) (int64, error) {
	n, err := r.collection.CountDocuments(ctx, bson.M{})
	return n, translate("count accounts", err)
}

func (r *AccountRepository) UpdateProfile(ctx context.Context, id, displayName, nameKey, avatar string) (*models.Account, error) {
	update := bson.M{"$set": bson.M{
		"displayName": displayName,
		"nameKey":     nameKey,
		"avatar":      avatar,
		"updatedAt":   time.Now(),
	}}
	return r.findOneAndUpdate(ctx, "update profile", bson.M{"_id": id}, update)
}

func (r *AccountRepository) SetActive(ctx context.Context, id string, active bool) (*models.Account, error) {
	update := bson.M{"$set": bson.M{"active": active, "updatedAt": time.Now()}}
	return r.findOneAndUpdate(ctx, "set active", bson.M{"_id": id}, update)
}

// Debit atomically subtracts amount when the account is active and covers it.
func (r *AccountRepository) Debit(ctx context.Context, id string, amount decimal.Decimal) (*models.Account, error) {
	filter := bson.M{
		"_id":     id,
		"active":  true,
		"balance": bson.M{"$gte": amount},
	}
	update := bson.M{
		"$inc": bson.M{"balance": amount.Neg(), "totalBets": 1},
		"$set": bson.M{"updatedAt": time.Now()},
	}
	acc, err := r.findOneAndUpdate(ctx, "debit", filter, update)
	if !errors.Is(err, repositories.ErrNotFound) {
		return acc, err
	}

	// The guard did not match: work out which condition failed.
	current, findErr := r.FindByID(ctx, id)
	if findErr != nil {
		return nil, findErr
	}
	if !current.Active {
		return nil, repositories.ErrInactive
	}
	return nil, repositories.ErrInsufficientBalance
}

func (r *AccountRepository) Credit(ctx context.Context, id string, amount decimal.Decimal) (*models.Account, error) {
	update := bson.M{
		"$inc": bson.M{"balance": amount},
		"$set": bson.M{"updatedAt": time.Now()},
	}
	return r.findOneAndUpdate(ctx, "credit", bson.M{"_id": id}, update)
}

// Payout credits a round's pot once. The round id is pushed onto paidRounds in
// the same update that moves the balance, so a replayed payout matches nothing.
func (r *AccountRepository) Payout(ctx context.Context, id string, amount decimal.Decimal, roundID string) (*models.Account, bool, error) {
	filter := bson.M{
		"_id":        id,
		"paidRounds": bson.M{"$ne": roundID},
	}
	push := bson.M{"$each": bson.A{roundID}, "$slice": -models.PaidRoundsKept}
	update := bson.M{
		"$inc":  bson.M{"balance": amount, "totalWins": 1},
		"$set":  bson.M{"updatedAt": time.Now()},
		"$push": bson.M{"paidRounds": push},
	}
	acc, err := r.findOneAndUpdate(ctx, "payout", filter, update)
	if !errors.Is(err, repositories.ErrNotFound) {
		return acc, err == nil, err
	}

	// Either the account is gone or this round was already paid to it.
	current, findErr := r.FindByID(ctx, id)
	if findErr != nil {
		return nil, false, findErr
	}
	return current, false, nil
}

// Adjust applies delta server-side and clamps at zero within the same update.
func (r *AccountRepository) Adjust(ctx context.Context, id string, delta decimal.Decimal) (*models.Account, error) {
	update := mongo.Pipeline{
		{{Key: "$set", Value: bson.D{
			{Key: "balance", Value: bson.D{{Key: "$max", Value: bson.A{
				decimal.Zero,
				bson.D{{Key: "$add", Value: bson.A{"$balance", delta}}},
			}}}},
			{Key: "updatedAt", Value: time.Now()},
		}}},
	}
	return r.findOneAndUpdate(ctx, "adjust", bson.M{"_id": id}, update)
}

func (r *AccountRepository) findOne(ctx context.Context, filter bson.M) (*models.Account, error) {
	var account models.Account
	if err := r.collection.FindOne(ctx, filter).Decode(&account); err != nil {
		return nil, translate("find account", err)
	}
	return &account, nil
}

func (r *AccountRepository) findOneAndUpdate(ctx context.Context, op string, filter bson.M, update interface{}) (*models.Account, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var account models.Account
	if err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&account); err != nil {
		return nil, translate(op, err)
	}
	return &account, nil
}
