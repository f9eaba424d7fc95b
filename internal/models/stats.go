package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// ReferralSummary is the account-level slice of the stats response.
type ReferralSummary struct {
	ReferralCode    string  `json:"referralCode"`
	CurrentLevel    int     `json:"currentLevel"`
	DirectTeamCount int     `json:"directTeamCount"`
	TotalEarnings   float64 `json:"totalEarnings"`
	RewardsCap      float64 `json:"rewardsCap"`
	RemainingCap    float64 `json:"remainingCap"`
}

// RefereeSummary is the public projection of a downline member.
type RefereeSummary struct {
	ID              primitive.ObjectID `json:"id"`
	Username        string             `json:"username"`
	Email           string             `json:"email"`
	TotalInvestment float64            `json:"totalInvestment"`
}

// ReferralEntry pairs a graph edge with its referee's summary.
type ReferralEntry struct {
	Edge    *ReferralEdge   `json:"edge"`
	Referee *RefereeSummary `json:"referee,omitempty"`
}

// ProgressMetric reports progress towards a single level requirement.
type ProgressMetric struct {
	Current    float64 `json:"current"`
	Required   float64 `json:"required"`
	Percentage float64 `json:"percentage"`
}

// LevelProgress reports progress towards the next level. Nil when the
// user already holds the top level.
type LevelProgress struct {
	NextLevel  int            `json:"nextLevel"`
	DirectTeam ProgressMetric `json:"directTeamProgress"`
	Volume     ProgressMetric `json:"volumeProgress"`
}

// ReferralStats is the full stats payload for a user.
type ReferralStats struct {
	User            ReferralSummary  `json:"user"`
	DirectReferrals []*ReferralEntry `json:"directReferrals"`
	AllReferrals    []*ReferralEntry `json:"allReferrals"`
	Bonuses         []*ReferralBonus `json:"bonuses"`
	LevelProgress   *LevelProgress   `json:"levelProgress,omitempty"`
}

// MonthlyCycleSummary reports the outcome of one monthly bonus sweep.
type MonthlyCycleSummary struct {
	Month         int `json:"month"`
	Year          int `json:"year"`
	Accounts      int `json:"accounts"`
	BonusesPaid   int `json:"bonusesPaid"`
	BonusesCapped int `json:"bonusesCapped"`
	Skipped       int `json:"skipped"`
	Failures      int `json:"failures"`
}
