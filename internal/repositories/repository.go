package repositories

import (
	"context"

	"github.com/skillvest/referral-backend/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserRepository defines the interface for user data operations.
// Financial mutations are exposed as narrow atomic operations rather
// than whole-document writes so that concurrent investments and bonus
// credits cannot overwrite each other.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	FindByReferralCode(ctx context.Context, code string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	Count(ctx context.Context) (int64, error)

	// SetReferralCode assigns a code only if the user has none yet.
	SetReferralCode(ctx context.Context, id primitive.ObjectID, code string) error
	// SetReferredBy records the direct referrer only if none is set.
	SetReferredBy(ctx context.Context, id, referrerID primitive.ObjectID) error
	IncrementDirectTeamCount(ctx context.Context, id primitive.ObjectID) error

	// ApplyInvestment atomically adds amount to totalInvestment and
	// recomputes rewardsCap from the new total in the same update.
	ApplyInvestment(ctx context.Context, id primitive.ObjectID, amount, capMultiplier float64) error
	// CreditEarnings adds amount to walletBalance and totalEarnings only
	// if totalEarnings still equals expectedEarnings (optimistic check).
	// Returns false without error when the check fails.
	CreditEarnings(ctx context.Context, id primitive.ObjectID, expectedEarnings, amount float64) (bool, error)
	AddLegVolume(ctx context.Context, id primitive.ObjectID, leg models.LegType, amount float64) error
	AddMonthlyDirectBusiness(ctx context.Context, id primitive.ObjectID, amount float64) error
	SetCurrentLevel(ctx context.Context, id primitive.ObjectID, level int) error

	// FindWithLevelAbove returns users whose currentLevel exceeds min.
	FindWithLevelAbove(ctx context.Context, min int) ([]*models.User, error)
	// ResetMonthlyDirectBusiness zeroes monthlyDirectBusiness for all users.
	ResetMonthlyDirectBusiness(ctx context.Context) error
}

// ReferralRepository defines the interface for referral graph operations.
// Edges are append-only; the only mutable field is the volume counter.
type ReferralRepository interface {
	Create(ctx context.Context, edge *models.ReferralEdge) error
	FindByReferee(ctx context.Context, refereeID primitive.ObjectID) ([]*models.ReferralEdge, error)
	FindByReferrer(ctx context.Context, referrerID primitive.ObjectID) ([]*models.ReferralEdge, error)
	FindByReferrerAndLevel(ctx context.Context, referrerID primitive.ObjectID, level int) ([]*models.ReferralEdge, error)
	CountByReferrerAndLevel(ctx context.Context, referrerID primitive.ObjectID, level int) (int64, error)
	IncrementVolume(ctx context.Context, id primitive.ObjectID, amount float64) error
}

// BonusRepository defines the interface for bonus record operations.
type BonusRepository interface {
	Create(ctx context.Context, bonus *models.ReferralBonus) error
	FindByUserID(ctx context.Context, userID primitive.ObjectID) ([]*models.ReferralBonus, error)
	FindByUserAndPeriod(ctx context.Context, userID primitive.ObjectID, month, year int) ([]*models.ReferralBonus, error)
	// ExistsForPeriod reports whether a paid or capped bonus already
	// exists for the given identity tuple, making the monthly cycle
	// safe to re-run. The tuple deliberately excludes the level: a
	// level change between a sweep and its replay must not re-qualify
	// an already-settled (user, type, period, source) combination.
	ExistsForPeriod(ctx context.Context, userID primitive.ObjectID, bonusType string, month, year int, sourceUserID primitive.ObjectID) (bool, error)
}

// TransactionRepository defines the interface for the append-only ledger.
type TransactionRepository interface {
	Create(ctx context.Context, tx *models.Transaction) error
	FindByUserID(ctx context.Context, userID primitive.ObjectID, page, limit int) ([]*models.Transaction, error)
}

// SystemConfigRepository defines the interface for operational key/value state.
type SystemConfigRepository interface {
	FindByKey(ctx context.Context, key string) (*models.SystemConfig, error)
	UpsertByKey(ctx context.Context, key string, value interface{}) error
}
