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

var _ repositories.SettingRepository = (*SettingRepository)(nil)

// SettingRepository implements repositories.SettingRepository
type SettingRepository struct {
	collection *mongo.Collection
}

// NewSettingRepository creates a new SettingRepository
func NewSettingRepository(db *mongo.Database) *SettingRepository {
	return &SettingRepository{
		collection: db.Collection("system_settings"),
	}
}

func (r *SettingRepository) Get(ctx context.Context, key string) (*models.Setting, error) {
	var setting models.Setting
	if err := r.collection.FindOne(ctx, bson.M{"_id": key}).Decode(&setting); err != nil {
		return nil, translate("get setting", err)
	}
	return &setting, nil
}

func (r *SettingRepository) Upsert(ctx context.Context, setting *models.Setting) error {
	setting.UpdatedAt = time.Now()
	_, err := r.collection.ReplaceOne(ctx, bson.M{"_id": setting.Key}, setting, options.Replace().SetUpsert(true))
	return translate("upsert setting", err)
}

func (r *SettingRepository) Delete(ctx context.Context, key string) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": key})
	return translate("delete setting", err)
}
