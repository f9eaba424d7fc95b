package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// LegType classifies which structural leg of a referrer's downline a
// referee occupies. Leg weights feed the monthly level bonus split.
type LegType string

const (
	LegPower1 LegType = "power1"
	LegPower2 LegType = "power2"
	LegOther  LegType = "other"
	// LegDirect is used on bonus records that are not tied to a leg
	// (one-time referral and direct business bonuses).
	LegDirect LegType = "direct"
)

// ReferralEdge is a materialized referrer->referee relationship.
// A user has exactly one ancestor edge per level 1..5; edges are created
// at signup and never deleted. TotalVolume accumulates every investment
// made by the referee.
type ReferralEdge struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Referrer    primitive.ObjectID `bson:"referrer" json:"referrer"`
	Referee     primitive.ObjectID `bson:"referee" json:"referee"`
	Level       int                `bson:"level" json:"level"`
	LegType     LegType            `bson:"legType" json:"legType"`
	IsActive    bool               `bson:"isActive" json:"isActive"`
	TotalVolume float64            `bson:"totalVolume" json:"totalVolume"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}
