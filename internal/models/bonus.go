package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Bonus types
const (
	BonusOneTimeReferral = "one_time_referral"
	BonusMonthlyLevel    = "monthly_level"
	BonusDirectBusiness  = "direct_business"
)

// Bonus statuses. Transitions are one-way: pending -> paid on success,
// pending -> capped when the rewards cap leaves no room, pending ->
// cancelled on administrative reversal. Paid records are immutable.
const (
	BonusStatusPending   = "pending"
	BonusStatusPaid      = "paid"
	BonusStatusCapped    = "capped"
	BonusStatusCancelled = "cancelled"
)

// ReferralBonus is an immutable record of a computed bonus. BonusAmount
// holds the post-cap credited amount (zero when status is "capped");
// BaseAmount and Percentage preserve the inputs of the computation.
type ReferralBonus struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	UserID       primitive.ObjectID `bson:"userId" json:"userId"`
	BonusType    string             `bson:"bonusType" json:"bonusType"`
	Level        int                `bson:"level" json:"level,omitempty"`
	Percentage   float64            `bson:"percentage" json:"percentage"`
	BaseAmount   float64            `bson:"baseAmount" json:"baseAmount"`
	BonusAmount  float64            `bson:"bonusAmount" json:"bonusAmount"`
	SourceUserID primitive.ObjectID `bson:"sourceUserId" json:"sourceUserId"`
	Status       string             `bson:"status" json:"status"`
	Month        int                `bson:"month" json:"month"`
	Year         int                `bson:"year" json:"year"`
	LegType      LegType            `bson:"legType" json:"legType"`
	Notes        string             `bson:"notes,omitempty" json:"notes,omitempty"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updatedAt"`
}
