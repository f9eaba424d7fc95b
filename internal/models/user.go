package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User represents a platform member and their referral/ledger state.
// Financial fields are owned by the investment and bonus services and
// must not be written directly by handlers.
type User struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Username string             `bson:"username" json:"username"`
	Email    string             `bson:"email" json:"email"`
	Password string             `bson:"password" json:"-"`
	Role     string             `bson:"role" json:"role"`

	WalletBalance float64 `bson:"walletBalance" json:"walletBalance"`

	ReferralCode string              `bson:"referralCode,omitempty" json:"referralCode,omitempty"`
	ReferredBy   *primitive.ObjectID `bson:"referredBy,omitempty" json:"referredBy,omitempty"`

	TotalInvestment       float64 `bson:"totalInvestment" json:"totalInvestment"`
	TotalEarnings         float64 `bson:"totalEarnings" json:"totalEarnings"`
	RewardsCap            float64 `bson:"rewardsCap" json:"rewardsCap"`
	DirectTeamCount       int     `bson:"directTeamCount" json:"directTeamCount"`
	CurrentLevel          int     `bson:"currentLevel" json:"currentLevel"`
	PowerLeg1Volume       float64 `bson:"powerLeg1Volume" json:"powerLeg1Volume"`
	PowerLeg2Volume       float64 `bson:"powerLeg2Volume" json:"powerLeg2Volume"`
	OtherLegsVolume       float64 `bson:"otherLegsVolume" json:"otherLegsVolume"`
	MonthlyDirectBusiness float64 `bson:"monthlyDirectBusiness" json:"monthlyDirectBusiness"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// User roles
const (
	RoleMember = "member"
	RoleAdmin  = "admin"
)

// TotalLegVolume returns the combined volume across all legs.
func (u *User) TotalLegVolume() float64 {
	return u.PowerLeg1Volume + u.PowerLeg2Volume + u.OtherLegsVolume
}

// RemainingCap returns the earnings room left under the rewards cap.
func (u *User) RemainingCap() float64 {
	return u.RewardsCap - u.TotalEarnings
}
