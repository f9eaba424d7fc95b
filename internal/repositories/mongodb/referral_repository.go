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

// Compile-time check to ensure ReferralRepository implements the interface
var _ repositories.ReferralRepository = (*ReferralRepository)(nil)

// ReferralRepository handles MongoDB operations for ReferralEdge
type ReferralRepository struct {
	collection *mongo.Collection
}

// NewReferralRepository creates a new ReferralRepository
func NewReferralRepository(db *mongo.Database) *ReferralRepository {
	return &ReferralRepository{
		collection: db.Collection("referrals"),
	}
}

// EnsureIndexes creates the compound indexes used by graph queries and
// the uniqueness guard on one ancestor per level per referee.
func (r *ReferralRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "referrer", Value: 1}, {Key: "level", Value: 1}},
		},
		{
			Keys:    bson.D{{Key: "referee", Value: 1}, {Key: "level", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	})
	return err
}

// Create inserts a new referral edge
func (r *ReferralRepository) Create(ctx context.Context, edge *models.ReferralEdge) error {
	edge.ID = primitive.NewObjectID()
	edge.CreatedAt = time.Now()
	edge.UpdatedAt = time.Now()
	_, err := r.collection.InsertOne(ctx, edge)
	return err
}

// FindByReferee retrieves all ancestor edges of a user
func (r *ReferralRepository) FindByReferee(ctx context.Context, refereeID primitive.ObjectID) ([]*models.ReferralEdge, error) {
	return r.find(ctx, bson.M{"referee": refereeID})
}

// FindByReferrer retrieves all downline edges of a user
func (r *ReferralRepository) FindByReferrer(ctx context.Context, referrerID primitive.ObjectID) ([]*models.ReferralEdge, error) {
	return r.find(ctx, bson.M{"referrer": referrerID})
}

// FindByReferrerAndLevel retrieves downline edges at a specific level
func (r *ReferralRepository) FindByReferrerAndLevel(ctx context.Context, referrerID primitive.ObjectID, level int) ([]*models.ReferralEdge, error) {
	return r.find(ctx, bson.M{"referrer": referrerID, "level": level})
}

// CountByReferrerAndLevel counts downline edges at a specific level
func (r *ReferralRepository) CountByReferrerAndLevel(ctx context.Context, referrerID primitive.ObjectID, level int) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{"referrer": referrerID, "level": level})
}

// IncrementVolume atomically adds amount to an edge's volume counter
func (r *ReferralRepository) IncrementVolume(ctx context.Context, id primitive.ObjectID, amount float64) error {
	filter := bson.M{"_id": id}
	update := bson.M{
		"$inc": bson.M{"totalVolume": amount},
		"$set": bson.M{"updatedAt": time.Now()},
	}
	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

func (r *ReferralRepository) find(ctx context.Context, filter bson.M) ([]*models.ReferralEdge, error) {
	var edges []*models.ReferralEdge
	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &edges); err != nil {
		return nil, err
	}
	if edges == nil {
		edges = []*models.ReferralEdge{}
	}
	return edges, nil
}
