package mongodb

import (
	"context"
	"time"

	"github.com/skillvest/referral-backend/internal/models"
	"github.com/skillvest/referral-backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Compile-time check to ensure BonusRepository implements the interface
var _ repositories.BonusRepository = (*BonusRepository)(nil)

// BonusRepository handles MongoDB operations for ReferralBonus
type BonusRepository struct {
	collection *mongo.Collection
}

// NewBonusRepository creates a new BonusRepository
func NewBonusRepository(db *mongo.Database) *BonusRepository {
	return &BonusRepository{
		collection: db.Collection("referral_bonuses"),
	}
}

// EnsureIndexes creates the period lookup index backing the re-run guard.
func (r *BonusRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "userId", Value: 1},
				{Key: "bonusType", Value: 1},
				{Key: "month", Value: 1},
				{Key: "year", Value: 1},
				{Key: "sourceUserId", Value: 1},
			},
		},
		{
			Keys: bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}},
		},
	})
	return err
}

// Create inserts a new bonus record
func (r *BonusRepository) Create(ctx context.Context, bonus *models.ReferralBonus) error {
	bonus.ID = primitive.NewObjectID()
	bonus.CreatedAt = time.Now()
	bonus.UpdatedAt = time.Now()
	_, err := r.collection.InsertOne(ctx, bonus)
	return err
}

// FindByUserID retrieves all bonus records for a user, newest first
func (r *BonusRepository) FindByUserID(ctx context.Context, userID primitive.ObjectID) ([]*models.ReferralBonus, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	return r.find(ctx, bson.M{"userId": userID}, opts)
}

// FindByUserAndPeriod retrieves bonus records for a user in a given period
func (r *BonusRepository) FindByUserAndPeriod(ctx context.Context, userID primitive.ObjectID, month, year int) ([]*models.ReferralBonus, error) {
	filter := bson.M{"userId": userID, "month": month, "year": year}
	return r.find(ctx, filter, options.Find())
}

// ExistsForPeriod reports whether a bonus was already recorded for the
// identity tuple. Pending records count too: a crashed cycle must not
// double-pay on replay. The level is not part of the tuple so a level
// change between sweep and replay cannot re-qualify a settled bonus.
func (r *BonusRepository) ExistsForPeriod(ctx context.Context, userID primitive.ObjectID, bonusType string, month, year int, sourceUserID primitive.ObjectID) (bool, error) {
	filter := bson.M{
		"userId":       userID,
		"bonusType":    bonusType,
		"month":        month,
		"year":         year,
		"sourceUserId": sourceUserID,
	}
	count, err := r.collection.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *BonusRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*models.ReferralBonus, error) {
	var bonuses []*models.ReferralBonus
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &bonuses); err != nil {
		return nil, err
	}
	if bonuses == nil {
		bonuses = []*models.ReferralBonus{}
	}
	return bonuses, nil
}
