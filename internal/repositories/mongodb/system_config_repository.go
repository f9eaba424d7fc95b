package mongodb

import (
	"context"
	"time"

	"github.com/skillvest/referral-backend/internal/models"
	"github.com/skillvest/referral-backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Compile-time check to ensure SystemConfigRepository implements the interface
var _ repositories.SystemConfigRepository = (*SystemConfigRepository)(nil)

// SystemConfigRepository handles MongoDB operations for SystemConfig
type SystemConfigRepository struct {
	collection *mongo.Collection
}

// NewSystemConfigRepository creates a new SystemConfigRepository
func NewSystemConfigRepository(db *mongo.Database) *SystemConfigRepository {
	return &SystemConfigRepository{
		collection: db.Collection("system_config"),
	}
}

// FindByKey finds a system configuration entry by key. The Value field
// is interface{}, so the caller performs type assertion.
func (r *SystemConfigRepository) FindByKey(ctx context.Context, key string) (*models.SystemConfig, error) {
	var config models.SystemConfig
	err := r.collection.FindOne(ctx, bson.M{"key": key}).Decode(&config)
	if err != nil {
		return nil, err
	}
	return &config, nil
}

// UpsertByKey creates or replaces the value stored under key
func (r *SystemConfigRepository) UpsertByKey(ctx context.Context, key string, value interface{}) error {
	filter := bson.M{"key": key}
	update := bson.M{"$set": bson.M{"value": value, "updatedAt": time.Now()}}
	opts := options.Update().SetUpsert(true)
	_, err := r.collection.UpdateOne(ctx, filter, update, opts)
	return err
}
