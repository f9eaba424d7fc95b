package services

import "github.com/skillvest/referral-backend/internal/models"

// Referral program constants. Percentages are expressed 0-100.
const (
	// MaxReferralDepth bounds the upline walk and edge fan-out.
	MaxReferralDepth = 5
	// RewardsCapMultiplier sets the lifetime earnings ceiling relative
	// to lifetime investment.
	RewardsCapMultiplier = 2.5
	// OneTimeReferralPercent is the direct referrer's cut of each
	// investment by a referee.
	OneTimeReferralPercent = 5.0
	// CodeGenerationAttempts bounds referral code collision retries.
	CodeGenerationAttempts = 10
)

// LevelRequirement holds the qualification thresholds and monthly bonus
// percentage for one level.
type LevelRequirement struct {
	DirectTeam int
	Volume     float64
	Bonus      float64
}

// LevelRequirements maps level 1..5 to its thresholds. A user qualifies
// for the highest level whose directTeam and total leg volume
// requirements are both met.
var LevelRequirements = map[int]LevelRequirement{
	1: {DirectTeam: 5, Volume: 1000, Bonus: 10},
	2: {DirectTeam: 10, Volume: 5000, Bonus: 8},
	3: {DirectTeam: 15, Volume: 10000, Bonus: 5},
	4: {DirectTeam: 20, Volume: 15000, Bonus: 3},
	5: {DirectTeam: 25, Volume: 25000, Bonus: 1},
}

// DirectBusinessTier is one band of the monthly direct business bonus.
type DirectBusinessTier struct {
	Min   float64
	Max   float64 // 0 means unbounded
	Bonus float64
}

// DirectBusinessTiers lists the monthly direct business bands. Volume
// below the first band pays nothing.
var DirectBusinessTiers = []DirectBusinessTier{
	{Min: 10000, Max: 25000, Bonus: 5},
	{Min: 25000, Max: 50000, Bonus: 7},
	{Min: 50000, Max: 0, Bonus: 10},
}

// LegWeights splits the monthly level bonus across legs, in percent.
var LegWeights = map[models.LegType]float64{
	models.LegPower1: 40,
	models.LegPower2: 30,
	models.LegOther:  30,
}

// levelFor returns the highest level whose requirements are met by the
// given direct team size and total leg volume, or 0.
func levelFor(directTeam int, totalVolume float64) int {
	for level := MaxReferralDepth; level >= 1; level-- {
		req := LevelRequirements[level]
		if directTeam >= req.DirectTeam && totalVolume >= req.Volume {
			return level
		}
	}
	return 0
}

// directBusinessPercent returns the bonus percentage for a monthly
// direct business volume, or 0 when no tier applies.
func directBusinessPercent(volume float64) float64 {
	for _, tier := range DirectBusinessTiers {
		if volume >= tier.Min && (tier.Max == 0 || volume < tier.Max) {
			return tier.Bonus
		}
	}
	return 0
}
