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

// Compile-time check to ensure UserRepository implements the interface
var _ repositories.UserRepository = (*UserRepository)(nil)

// UserRepository handles MongoDB operations for User
type UserRepository struct {
	collection *mongo.Collection
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{
		collection: db.Collection("users"),
	}
}

// EnsureIndexes creates the unique account indexes. referralCode is
// sparse because users only get a code on first issue.
func (r *UserRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "username", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "referralCode", Value: 1}},
			Options: options.Index().SetUnique(true).SetSparse(true),
		},
	})
	return err
}

// Create inserts a new user
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	user.ID = primitive.NewObjectID()
	user.CreatedAt = time.Now()
	user.UpdatedAt = time.Now()
	_, err := r.collection.InsertOne(ctx, user)
	return err
}

// FindByID finds a user by ID
func (r *UserRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var user models.User
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&user)
	if err != nil {
		return nil, err // Includes mongo.ErrNoDocuments
	}
	return &user, nil
}

// FindByEmail finds a user by email
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.collection.FindOne(ctx, bson.M{"email": email}).Decode(&user)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByUsername finds a user by username
func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	err := r.collection.FindOne(ctx, bson.M{"username": username}).Decode(&user)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByReferralCode finds a user by their referral code
func (r *UserRepository) FindByReferralCode(ctx context.Context, code string) (*models.User, error) {
	var user models.User
	err := r.collection.FindOne(ctx, bson.M{"referralCode": code}).Decode(&user)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Update updates an existing user
func (r *UserRepository) Update(ctx context.Context, user *models.User) error {
	user.UpdatedAt = time.Now()
	filter := bson.M{"_id": user.ID}
	update := bson.M{"$set": user}
	_, err := r.collection.UpdateOne(ctx, filter, update)
	return err
}

// Count returns the total number of users
func (r *UserRepository) Count(ctx context.Context) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{})
}

// SetReferralCode assigns a referral code only if the user has none yet
func (r *UserRepository) SetReferralCode(ctx context.Context, id primitive.ObjectID, code string) error {
	filter := bson.M{"_id": id, "referralCode": bson.M{"$in": bson.A{nil, ""}}}
	update := bson.M{"$set": bson.M{"referralCode": code, "updatedAt": time.Now()}}
	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// SetReferredBy records the direct referrer only if none is set
func (r *UserRepository) SetReferredBy(ctx context.Context, id, referrerID primitive.ObjectID) error {
	filter := bson.M{"_id": id, "referredBy": nil}
	update := bson.M{"$set": bson.M{"referredBy": referrerID, "updatedAt": time.Now()}}
	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// IncrementDirectTeamCount atomically bumps the direct referee counter
func (r *UserRepository) IncrementDirectTeamCount(ctx context.Context, id primitive.ObjectID) error {
	filter := bson.M{"_id": id}
	update := bson.M{
		"$inc": bson.M{"directTeamCount": 1},
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

// ApplyInvestment atomically adds to totalInvestment and recomputes
// rewardsCap from the new total in a single pipeline update.
func (r *UserRepository) ApplyInvestment(ctx context.Context, id primitive.ObjectID, amount, capMultiplier float64) error {
	filter := bson.M{"_id": id}
	pipeline := bson.A{
		bson.M{"$set": bson.M{
			"totalInvestment": bson.M{"$add": bson.A{"$totalInvestment", amount}},
		}},
		bson.M{"$set": bson.M{
			"rewardsCap": bson.M{"$multiply": bson.A{"$totalInvestment", capMultiplier}},
			"updatedAt":  time.Now(),
		}},
	}
	result, err := r.collection.UpdateOne(ctx, filter, pipeline)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// CreditEarnings credits walletBalance and totalEarnings with an
// optimistic check on the earnings value read by the caller. A false
// return means another writer got there first and the caller should
// re-read and retry.
func (r *UserRepository) CreditEarnings(ctx context.Context, id primitive.ObjectID, expectedEarnings, amount float64) (bool, error) {
	filter := bson.M{"_id": id, "totalEarnings": expectedEarnings}
	update := bson.M{
		"$inc": bson.M{"walletBalance": amount, "totalEarnings": amount},
		"$set": bson.M{"updatedAt": time.Now()},
	}
	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, err
	}
	return result.MatchedCount > 0, nil
}

// AddLegVolume atomically adds amount to the leg accumulator selected by leg
func (r *UserRepository) AddLegVolume(ctx context.Context, id primitive.ObjectID, leg models.LegType, amount float64) error {
	field := "otherLegsVolume"
	switch leg {
	case models.LegPower1:
		field = "powerLeg1Volume"
	case models.LegPower2:
		field = "powerLeg2Volume"
	}
	filter := bson.M{"_id": id}
	update := bson.M{
		"$inc": bson.M{field: amount},
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

// AddMonthlyDirectBusiness atomically adds amount to monthlyDirectBusiness
func (r *UserRepository) AddMonthlyDirectBusiness(ctx context.Context, id primitive.ObjectID, amount float64) error {
	filter := bson.M{"_id": id}
	update := bson.M{
		"$inc": bson.M{"monthlyDirectBusiness": amount},
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

// SetCurrentLevel sets the derived level for a user
func (r *UserRepository) SetCurrentLevel(ctx context.Context, id primitive.ObjectID, level int) error {
	filter := bson.M{"_id": id}
	update := bson.M{"$set": bson.M{"currentLevel": level, "updatedAt": time.Now()}}
	_, err := r.collection.UpdateOne(ctx, filter, update)
	return err
}

// FindWithLevelAbove retrieves users whose currentLevel exceeds min
func (r *UserRepository) FindWithLevelAbove(ctx context.Context, min int) ([]*models.User, error) {
	var users []*models.User
	cursor, err := r.collection.Find(ctx, bson.M{"currentLevel": bson.M{"$gt": min}})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &users); err != nil {
		return nil, err
	}
	if users == nil {
		users = []*models.User{}
	}
	return users, nil
}

// ResetMonthlyDirectBusiness zeroes monthlyDirectBusiness for all users
func (r *UserRepository) ResetMonthlyDirectBusiness(ctx context.Context) error {
	update := bson.M{"$set": bson.M{"monthlyDirectBusiness": 0.0, "updatedAt": time.Now()}}
	_, err := r.collection.UpdateMany(ctx, bson.M{}, update)
	return err
}
