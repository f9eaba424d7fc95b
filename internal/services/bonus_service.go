package services

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/skillvest/referral-backend/internal/models"
	"github.com/skillvest/referral-backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/exp/slog"
)

// creditRetries bounds the optimistic-concurrency loop around a single
// earnings credit.
const creditRetries = 3

// lastMonthlyCycleKey is the system_config key recording the most
// recently completed monthly sweep.
const lastMonthlyCycleKey = "last_monthly_cycle"

// BonusService owns all bonus credits. Every payout funnels through
// award, which enforces the rewards cap before any ledger write.
type BonusService struct {
	userRepo   repositories.UserRepository
	refRepo    repositories.ReferralRepository
	bonusRepo  repositories.BonusRepository
	txRepo     repositories.TransactionRepository
	configRepo repositories.SystemConfigRepository
}

// NewBonusService creates a new BonusService
func NewBonusService(
	userRepo repositories.UserRepository,
	refRepo repositories.ReferralRepository,
	bonusRepo repositories.BonusRepository,
	txRepo repositories.TransactionRepository,
	configRepo repositories.SystemConfigRepository,
) *BonusService {
	return &BonusService{
		userRepo:   userRepo,
		refRepo:    refRepo,
		bonusRepo:  bonusRepo,
		txRepo:     txRepo,
		configRepo: configRepo,
	}
}

// award credits bonus.BonusAmount to bonus.UserID, clamped to the
// recipient's remaining cap. The credit is applied with an optimistic
// check on totalEarnings and retried on conflict, so the invariant
// totalEarnings <= rewardsCap holds under concurrent writers. When no
// room remains the record is stored with status "capped", amount 0,
// and no ledger entry is written.
func (s *BonusService) award(ctx context.Context, bonus *models.ReferralBonus, description string) (float64, error) {
	computed := bonus.BonusAmount

	for attempt := 0; attempt < creditRetries; attempt++ {
		user, err := s.userRepo.FindByID(ctx, bonus.UserID)
		if err != nil {
			if err == mongo.ErrNoDocuments {
				return 0, ErrAccountNotFound
			}
			return 0, fmt.Errorf("failed to load bonus recipient: %w", err)
		}

		credited := math.Min(computed, user.RemainingCap())
		if credited <= 0 {
			bonus.BonusAmount = 0
			bonus.Status = models.BonusStatusCapped
			if err := s.bonusRepo.Create(ctx, bonus); err != nil {
				return 0, fmt.Errorf("failed to record capped bonus: %w", err)
			}
			slog.Info("bonus capped", "userId", bonus.UserID.Hex(),
				"bonusType", bonus.BonusType, "computed", computed)
			return 0, nil
		}

		ok, err := s.userRepo.CreditEarnings(ctx, user.ID, user.TotalEarnings, credited)
		if err != nil {
			return 0, fmt.Errorf("failed to credit earnings: %w", err)
		}
		if !ok {
			continue // earnings moved underneath us, re-read and re-clamp
		}

		bonus.BonusAmount = credited
		bonus.Status = models.BonusStatusPaid
		if err := s.bonusRepo.Create(ctx, bonus); err != nil {
			return credited, fmt.Errorf("failed to record paid bonus: %w", err)
		}
		tx := &models.Transaction{
			UserID:      bonus.UserID,
			Type:        models.TransactionCredit,
			Amount:      credited,
			Description: description,
			RefID:       bonus.ID.Hex(),
		}
		if err := s.txRepo.Create(ctx, tx); err != nil {
			return credited, fmt.Errorf("failed to append ledger entry: %w", err)
		}
		return credited, nil
	}

	return 0, fmt.Errorf("credit conflict persisted after %d attempts for user %s", creditRetries, bonus.UserID.Hex())
}

// PayOneTimeReferralBonus pays the direct referrer their one-time cut
// of a referee's investment, subject to the cap rule.
func (s *BonusService) PayOneTimeReferralBonus(ctx context.Context, referrerID, sourceUserID primitive.ObjectID, amount float64) (float64, error) {
	now := time.Now()
	bonus := &models.ReferralBonus{
		UserID:       referrerID,
		BonusType:    models.BonusOneTimeReferral,
		Percentage:   OneTimeReferralPercent,
		BaseAmount:   amount,
		BonusAmount:  amount * OneTimeReferralPercent / 100,
		SourceUserID: sourceUserID,
		Status:       models.BonusStatusPending,
		Month:        int(now.Month()),
		Year:         now.Year(),
		LegType:      models.LegDirect,
	}
	return s.award(ctx, bonus, "One-time referral bonus")
}

// RunMonthlyCycle sweeps every account above level 0 and pays monthly
// level bonuses and direct business bonuses for the given period.
// Re-running the same period is safe: bonuses already recorded for the
// (user, type, period, source) tuple are skipped. One account's failure
// never aborts the sweep for the others. The monthly direct business
// counters are reset only after a fully clean sweep; a sweep with
// failures keeps them so a replay can still pay from the real base.
func (s *BonusService) RunMonthlyCycle(ctx context.Context, month, year int) (*models.MonthlyCycleSummary, error) {
	if month < 1 || month > 12 {
		return nil, fmt.Errorf("invalid month %d", month)
	}

	eligible, err := s.userRepo.FindWithLevelAbove(ctx, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to load eligible accounts: %w", err)
	}

	summary := &models.MonthlyCycleSummary{Month: month, Year: year, Accounts: len(eligible)}
	for _, user := range eligible {
		if err := s.payMonthlyLevelBonuses(ctx, user, month, year, summary); err != nil {
			summary.Failures++
			slog.Error("monthly level bonus sweep failed for account",
				"error", err, "userId", user.ID.Hex())
		}
		if err := s.payDirectBusinessBonus(ctx, user, month, year, summary); err != nil {
			summary.Failures++
			slog.Error("direct business bonus failed for account",
				"error", err, "userId", user.ID.Hex())
		}
	}

	if summary.Failures == 0 {
		if err := s.userRepo.ResetMonthlyDirectBusiness(ctx); err != nil {
			return summary, fmt.Errorf("failed to reset monthly direct business: %w", err)
		}
	} else {
		slog.Warn("monthly direct business counters kept for replay",
			"month", month, "year", year, "failures", summary.Failures)
	}
	if err := s.configRepo.UpsertByKey(ctx, lastMonthlyCycleKey, summary); err != nil {
		slog.Error("failed to record monthly cycle", "error", err, "month", month, "year", year)
	}

	slog.Info("monthly bonus cycle completed", "month", month, "year", year,
		"accounts", summary.Accounts, "paid", summary.BonusesPaid,
		"capped", summary.BonusesCapped, "skipped", summary.Skipped, "failures", summary.Failures)
	return summary, nil
}

// payMonthlyLevelBonuses pays the leg-weighted level bonus for every
// downline edge of user, based on each referee's monthly direct business.
func (s *BonusService) payMonthlyLevelBonuses(ctx context.Context, user *models.User, month, year int, summary *models.MonthlyCycleSummary) error {
	req, ok := LevelRequirements[user.CurrentLevel]
	if !ok {
		return nil
	}

	edges, err := s.refRepo.FindByReferrer(ctx, user.ID)
	if err != nil {
		return fmt.Errorf("failed to load downline edges: %w", err)
	}

	for _, edge := range edges {
		referee, err := s.userRepo.FindByID(ctx, edge.Referee)
		if err != nil {
			if err == mongo.ErrNoDocuments {
				continue
			}
			return fmt.Errorf("failed to load referee %s: %w", edge.Referee.Hex(), err)
		}

		legWeight := LegWeights[edge.LegType]
		base := referee.MonthlyDirectBusiness
		amount := base * req.Bonus * legWeight / 10000
		if amount <= 0 {
			continue
		}

		exists, err := s.bonusRepo.ExistsForPeriod(ctx, user.ID, models.BonusMonthlyLevel, month, year, referee.ID)
		if err != nil {
			return fmt.Errorf("failed to check bonus uniqueness: %w", err)
		}
		if exists {
			summary.Skipped++
			continue
		}

		bonus := &models.ReferralBonus{
			UserID:       user.ID,
			BonusType:    models.BonusMonthlyLevel,
			Level:        user.CurrentLevel,
			Percentage:   req.Bonus,
			BaseAmount:   base,
			BonusAmount:  amount,
			SourceUserID: referee.ID,
			Status:       models.BonusStatusPending,
			Month:        month,
			Year:         year,
			LegType:      edge.LegType,
		}
		credited, err := s.award(ctx, bonus, fmt.Sprintf("Level %d monthly bonus", user.CurrentLevel))
		if err != nil {
			return err
		}
		if credited > 0 {
			summary.BonusesPaid++
		} else {
			summary.BonusesCapped++
		}
	}
	return nil
}

// payDirectBusinessBonus pays the tiered bonus on the account's own
// monthly direct business volume.
func (s *BonusService) payDirectBusinessBonus(ctx context.Context, user *models.User, month, year int, summary *models.MonthlyCycleSummary) error {
	percent := directBusinessPercent(user.MonthlyDirectBusiness)
	if percent == 0 {
		return nil
	}

	exists, err := s.bonusRepo.ExistsForPeriod(ctx, user.ID, models.BonusDirectBusiness, month, year, user.ID)
	if err != nil {
		return fmt.Errorf("failed to check bonus uniqueness: %w", err)
	}
	if exists {
		summary.Skipped++
		return nil
	}

	bonus := &models.ReferralBonus{
		UserID:       user.ID,
		BonusType:    models.BonusDirectBusiness,
		Percentage:   percent,
		BaseAmount:   user.MonthlyDirectBusiness,
		BonusAmount:  user.MonthlyDirectBusiness * percent / 100,
		SourceUserID: user.ID,
		Status:       models.BonusStatusPending,
		Month:        month,
		Year:         year,
		LegType:      models.LegDirect,
	}
	credited, err := s.award(ctx, bonus, "Direct business monthly bonus")
	if err != nil {
		return err
	}
	if credited > 0 {
		summary.BonusesPaid++
	} else {
		summary.BonusesCapped++
	}
	return nil
}

// LastMonthlyCycle returns the record of the most recent completed
// sweep, or nil when none has run yet.
func (s *BonusService) LastMonthlyCycle(ctx context.Context) (*models.SystemConfig, error) {
	cfg, err := s.configRepo.FindByKey(ctx, lastMonthlyCycleKey)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load last cycle record: %w", err)
	}
	return cfg, nil
}
