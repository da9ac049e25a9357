package mongodb

import (
	"context"
	"errors"
	"time"

	"github.com/ArowuTest/jackpot-backend/internal/models"
	"github.com/ArowuTest/jackpot-backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var _ repositories.PromoCodeRepository = (*PromoCodeRepository)(nil)

// PromoCodeRepository handles MongoDB operations for PromoCode
type PromoCodeRepository struct {
	collection *mongo.Collection
}

func NewPromoCodeRepository(db *mongo.Database) *PromoCodeRepository {
	return &PromoCodeRepository{
		collection: db.Collection("promo_codes"),
	}
}

func (r *PromoCodeRepository) Create(ctx context.Context, promo *models.PromoCode) error {
	if promo.UsedBy == nil {
		promo.UsedBy = []string{}
	}
	_, err := r.collection.InsertOne(ctx, promo)
	return translate("create promo", err)
}

func (r *PromoCodeRepository) FindByCode(ctx context.Context, code string) (*models.PromoCode, error) {
	var promo models.PromoCode
	if err := r.collection.FindOne(ctx, bson.M{"_id": code}).Decode(&promo); err != nil {
		return nil, translate("find promo", err)
	}
	return &promo, nil
}

func (r *PromoCodeRepository) FindAll(ctx context.Context) ([]*models.PromoCode, error) {
	cursor, err := r.collection.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, translate("find promos", err)
	}
	defer cursor.Close(ctx)

	var promos []*models.PromoCode
	if err = cursor.All(ctx, &promos); err != nil {
		return nil, translate("decode promos", err)
	}
	if promos == nil {
		promos = []*models.PromoCode{}
	}
	return promos, nil
}

func (r *PromoCodeRepository) SetActive(ctx context.Context, code string, active bool) (*models.PromoCode, error) {
	update := bson.M{"$set": bson.M{"active": active, "updatedAt": time.Now()}}
	return r.findOneAndUpdate(ctx, "toggle promo", bson.M{"_id": code}, update)
}

// ClaimUse performs the whole redemption guard in one conditional update.
func (r *PromoCodeRepository) ClaimUse(ctx context.Context, code, accountID string) (*models.PromoCode, error) {
	filter := bson.M{
		"_id":    code,
		"active": true,
		"usedBy": bson.M{"$ne": accountID},
		"$expr":  bson.M{"$lt": bson.A{bson.M{"$size": "$usedBy"}, "$maxUses"}},
	}
	update := bson.M{
		"$push": bson.M{"usedBy": accountID},
		"$set":  bson.M{"updatedAt": time.Now()},
	}
	promo, err := r.findOneAndUpdate(ctx, "claim promo", filter, update)
	if !errors.Is(err, repositories.ErrNotFound) {
		return promo, err
	}
	if _, findErr := r.FindByCode(ctx, code); findErr != nil {
		return nil, findErr
	}
	return nil, repositories.ErrConflict
}

func (r *PromoCodeRepository) ReleaseUse(ctx context.Context, code, accountID string) error {
	update := bson.M{"$pull": bson.M{"usedBy": accountID}, "$set": bson.M{"updatedAt": time.Now()}}
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": code}, update)
	if err != nil {
		return translate("release promo", err)
	}
	if res.MatchedCount == 0 {
		return repositories.ErrNotFound
	}
	return nil
}

func (r *PromoCodeRepository) findOneAndUpdate(ctx context.Context, op string, filter, update bson.M) (*models.PromoCode, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var promo models.PromoCode
	if err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&promo); err != nil {
		return nil, translate(op, err)
	}
	return &promo, nil
}
