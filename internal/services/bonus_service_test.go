package services

import (
	"context"
	"testing"

	"github.com/skillvest/referral-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// With totalEarnings 90 and rewardsCap 100, a computed bonus of 20 must
// credit exactly 10; a second identical bonus finds no room and is
// recorded capped with amount 0 and no ledger entry.
func TestPayOneTimeReferralBonus_ClampsToRemainingCap(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	a := f.addUser("alice")
	b := f.addUser("bob")

	f.users.users[a.ID].TotalEarnings = 90
	f.users.users[a.ID].RewardsCap = 100

	credited, err := f.bonus.PayOneTimeReferralBonus(ctx, a.ID, b.ID, 400) // 5% = 20
	require.NoError(t, err)
	assert.Equal(t, float64(10), credited)

	got, err := f.users.FindByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, float64(100), got.TotalEarnings)
	assert.Equal(t, float64(10), got.WalletBalance)

	credited, err = f.bonus.PayOneTimeReferralBonus(ctx, a.ID, b.ID, 400)
	require.NoError(t, err)
	assert.Zero(t, credited)

	bonuses, err := f.bonuses.FindByUserID(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, bonuses, 2)
	// FindByUserID returns newest first.
	assert.Equal(t, models.BonusStatusCapped, bonuses[0].Status)
	assert.Zero(t, bonuses[0].BonusAmount)
	assert.Equal(t, models.BonusStatusPaid, bonuses[1].Status)
	assert.Equal(t, float64(10), bonuses[1].BonusAmount)

	txs, err := f.txs.FindByUserID(ctx, a.ID, 1, 10)
	require.NoError(t, err)
	assert.Len(t, txs, 1)

	got, err = f.users.FindByID(ctx, a.ID)
	require.NoError(t, err)
	assert.LessOrEqual(t, got.TotalEarnings, got.RewardsCap)
}

func TestPayOneTimeReferralBonus_CreditConflictSurfaces(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	a := f.addUser("alice")
	b := f.addUser("bob")
	f.users.users[a.ID].RewardsCap = 1000
	f.users.conflictOn[a.ID] = true

	_, err := f.bonus.PayOneTimeReferralBonus(ctx, a.ID, b.ID, 100)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "credit conflict")
}

func TestRunMonthlyCycle_RejectsInvalidMonth(t *testing.T) {
	f := newFixture()
	for _, month := range []int{0, 13, -1} {
		_, err := f.bonus.RunMonthlyCycle(context.Background(), month, 2025)
		assert.Error(t, err, "month %d", month)
	}
}

func TestRunMonthlyCycle_PaysLegWeightedLevelBonus(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	a := f.addUser("alice")
	b := f.addUser("bob")
	require.NoError(t, f.refer(a, b)) // b is a's first direct: power1 leg

	f.users.users[a.ID].CurrentLevel = 1
	f.users.users[a.ID].RewardsCap = 100000
	f.users.users[b.ID].MonthlyDirectBusiness = 10000

	summary, err := f.bonus.RunMonthlyCycle(ctx, 3, 2025)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Accounts)
	assert.Equal(t, 1, summary.BonusesPaid)
	assert.Zero(t, summary.Failures)

	// 10000 base x 10% level-1 bonus x 40 power1 weight / 10000 = 400.
	got, err := f.users.FindByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, float64(400), got.TotalEarnings)

	bonuses, err := f.bonuses.FindByUserID(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, bonuses, 1)
	assert.Equal(t, models.BonusMonthlyLevel, bonuses[0].BonusType)
	assert.Equal(t, 1, bonuses[0].Level)
	assert.Equal(t, models.LegPower1, bonuses[0].LegType)
	assert.Equal(t, b.ID, bonuses[0].SourceUserID)
	assert.Equal(t, float64(10000), bonuses[0].BaseAmount)
	assert.Equal(t, float64(400), bonuses[0].BonusAmount)

	// The sweep resets monthly counters for everyone.
	bGot, err := f.users.FindByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Zero(t, bGot.MonthlyDirectBusiness)
}

func TestRunMonthlyCycle_PaysTieredDirectBusinessBonus(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	a := f.addUser("alice")
	f.users.users[a.ID].CurrentLevel = 1
	f.users.users[a.ID].RewardsCap = 100000
	f.users.users[a.ID].MonthlyDirectBusiness = 25000 // 7% tier

	summary, err := f.bonus.RunMonthlyCycle(ctx, 4, 2025)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.BonusesPaid)

	got, err := f.users.FindByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, float64(1750), got.TotalEarnings)

	bonuses, err := f.bonuses.FindByUserID(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, bonuses, 1)
	assert.Equal(t, models.BonusDirectBusiness, bonuses[0].BonusType)
	assert.Equal(t, float64(7), bonuses[0].Percentage)
	assert.Equal(t, a.ID, bonuses[0].SourceUserID)
}

func TestRunMonthlyCycle_SkipsAccountsBelowDirectBusinessFloor(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	a := f.addUser("alice")
	f.users.users[a.ID].CurrentLevel = 1
	f.users.users[a.ID].RewardsCap = 100000
	f.users.users[a.ID].MonthlyDirectBusiness = 9999

	summary, err := f.bonus.RunMonthlyCycle(ctx, 4, 2025)
	require.NoError(t, err)
	assert.Zero(t, summary.BonusesPaid)

	bonuses, err := f.bonuses.FindByUserID(ctx, a.ID)
	require.NoError(t, err)
	assert.Empty(t, bonuses)
}

// Re-running the same period must not double-pay: the uniqueness guard
// skips bonuses already recorded for the tuple.
func TestRunMonthlyCycle_RerunDoesNotDoublePay(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	a := f.addUser("alice")
	b := f.addUser("bob")
	require.NoError(t, f.refer(a, b))

	f.users.users[a.ID].CurrentLevel = 1
	f.users.users[a.ID].RewardsCap = 100000
	f.users.users[b.ID].MonthlyDirectBusiness = 10000

	_, err := f.bonus.RunMonthlyCycle(ctx, 3, 2025)
	require.NoError(t, err)

	// Restore the counter the first sweep reset, as if the same period
	// were replayed after a partial failure.
	f.users.users[b.ID].MonthlyDirectBusiness = 10000

	summary, err := f.bonus.RunMonthlyCycle(ctx, 3, 2025)
	require.NoError(t, err)
	assert.Zero(t, summary.BonusesPaid)
	assert.Equal(t, 1, summary.Skipped)

	got, err := f.users.FindByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, float64(400), got.TotalEarnings, "earnings unchanged on re-run")

	bonuses, err := f.bonuses.FindByUserID(ctx, a.ID)
	require.NoError(t, err)
	assert.Len(t, bonuses, 1)
}

func TestRunMonthlyCycle_CapsBonusWithoutRoom(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	a := f.addUser("alice")
	b := f.addUser("bob")
	require.NoError(t, f.refer(a, b))

	f.users.users[a.ID].CurrentLevel = 1
	// RewardsCap stays 0: no room at all.
	f.users.users[b.ID].MonthlyDirectBusiness = 10000

	summary, err := f.bonus.RunMonthlyCycle(ctx, 5, 2025)
	require.NoError(t, err)
	assert.Zero(t, summary.BonusesPaid)
	assert.Equal(t, 1, summary.BonusesCapped)

	got, err := f.users.FindByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Zero(t, got.TotalEarnings)

	bonuses, err := f.bonuses.FindByUserID(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, bonuses, 1)
	assert.Equal(t, models.BonusStatusCapped, bonuses[0].Status)

	txs, err := f.txs.FindByUserID(ctx, a.ID, 1, 10)
	require.NoError(t, err)
	assert.Empty(t, txs)
}

// A sweep with failures must keep the monthly direct business counters
// so a replay of the same period can still pay from the real base.
func TestRunMonthlyCycle_ReplayAfterFailurePays(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	a := f.addUser("alice")
	b := f.addUser("bob")
	require.NoError(t, f.refer(a, b))

	f.users.users[a.ID].CurrentLevel = 1
	f.users.users[a.ID].RewardsCap = 100000
	f.users.users[b.ID].MonthlyDirectBusiness = 10000
	f.users.conflictOn[a.ID] = true

	summary, err := f.bonus.RunMonthlyCycle(ctx, 3, 2025)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Failures)

	bGot, err := f.users.FindByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, float64(10000), bGot.MonthlyDirectBusiness, "counter must survive a failed sweep")

	// Contention clears; the same period is replayed.
	delete(f.users.conflictOn, a.ID)

	summary, err = f.bonus.RunMonthlyCycle(ctx, 3, 2025)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.BonusesPaid)
	assert.Zero(t, summary.Failures)

	got, err := f.users.FindByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, float64(400), got.TotalEarnings)

	// The clean replay finishes the period and resets the counters.
	bGot, err = f.users.FindByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Zero(t, bGot.MonthlyDirectBusiness)
}

// A level change between a sweep and its replay must not re-qualify an
// already-settled (user, type, period, source) bonus at the new level.
func TestRunMonthlyCycle_LevelChangeDoesNotDoublePay(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	a := f.addUser("alice")
	b := f.addUser("bob")
	require.NoError(t, f.refer(a, b))

	f.users.users[a.ID].CurrentLevel = 1
	f.users.users[a.ID].RewardsCap = 100000
	f.users.users[b.ID].MonthlyDirectBusiness = 10000

	_, err := f.bonus.RunMonthlyCycle(ctx, 3, 2025)
	require.NoError(t, err)

	f.users.users[a.ID].CurrentLevel = 2
	f.users.users[b.ID].MonthlyDirectBusiness = 10000

	summary, err := f.bonus.RunMonthlyCycle(ctx, 3, 2025)
	require.NoError(t, err)
	assert.Zero(t, summary.BonusesPaid)
	assert.Equal(t, 1, summary.Skipped)

	got, err := f.users.FindByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, float64(400), got.TotalEarnings)
}

// One account's failure must not abort the sweep for the others.
func TestRunMonthlyCycle_IsolatesPerAccountFailures(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	broken := f.addUser("broken")
	healthy := f.addUser("healthy")
	b1 := f.addUser("refa")
	b2 := f.addUser("refb")
	require.NoError(t, f.refer(broken, b1))
	require.NoError(t, f.refer(healthy, b2))

	for _, id := range []*models.User{broken, healthy} {
		f.users.users[id.ID].CurrentLevel = 1
		f.users.users[id.ID].RewardsCap = 100000
	}
	f.users.users[b1.ID].MonthlyDirectBusiness = 10000
	f.users.users[b2.ID].MonthlyDirectBusiness = 10000
	f.users.conflictOn[broken.ID] = true

	summary, err := f.bonus.RunMonthlyCycle(ctx, 6, 2025)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Accounts)
	assert.Equal(t, 1, summary.BonusesPaid)
	assert.Equal(t, 1, summary.Failures)

	got, err := f.users.FindByID(ctx, healthy.ID)
	require.NoError(t, err)
	assert.Equal(t, float64(400), got.TotalEarnings)
}

func TestLastMonthlyCycle(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	cfg, err := f.bonus.LastMonthlyCycle(ctx)
	require.NoError(t, err)
	assert.Nil(t, cfg)

	_, err = f.bonus.RunMonthlyCycle(ctx, 7, 2025)
	require.NoError(t, err)

	cfg, err = f.bonus.LastMonthlyCycle(ctx)
	require.NoError(t, err)
	require.NotNil(t, cfg)
	summary, ok := cfg.Value.(*models.MonthlyCycleSummary)
	require.True(t, ok)
	assert.Equal(t, 7, summary.Month)
	assert.Equal(t, 2025, summary.Year)
}
