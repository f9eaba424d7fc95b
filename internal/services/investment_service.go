package services

import (
	"context"
	"fmt"
	"math"

	"github.com/skillvest/referral-backend/internal/models"
	"github.com/skillvest/referral-backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/exp/slog"
)

// InvestmentService turns investment events into ledger updates, the
// direct referrer's one-time bonus, volume propagation up the graph
// and level recalculation for the affected ancestors.
type InvestmentService struct {
	userRepo     repositories.UserRepository
	referralRepo repositories.ReferralRepository
	txRepo       repositories.TransactionRepository
	bonusService *BonusService
}

// NewInvestmentService creates a new InvestmentService
func NewInvestmentService(
	userRepo repositories.UserRepository,
	referralRepo repositories.ReferralRepository,
	txRepo repositories.TransactionRepository,
	bonusService *BonusService,
) *InvestmentService {
	return &InvestmentService{
		userRepo:     userRepo,
		referralRepo: referralRepo,
		txRepo:       txRepo,
		bonusService: bonusService,
	}
}

// RecordInvestment applies one investment event. Validation happens
// before any write. The investor's own ledger update and the direct
// referrer's bonus run first; the ancestor fan-out (edge volumes, leg
// accumulators, level recalculation) tolerates partial completion and
// is reconciled by later events rather than rolled back.
func (s *InvestmentService) RecordInvestment(ctx context.Context, userID primitive.ObjectID, amount float64) error {
	if amount <= 0 || math.IsNaN(amount) || math.IsInf(amount, 0) {
		return ErrInvalidAmount
	}

	investor, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return ErrAccountNotFound
		}
		return fmt.Errorf("failed to load investor: %w", err)
	}

	if err := s.userRepo.ApplyInvestment(ctx, userID, amount, RewardsCapMultiplier); err != nil {
		return fmt.Errorf("failed to apply investment: %w", err)
	}

	entry := &models.Transaction{
		UserID:      userID,
		Type:        models.TransactionCredit,
		Amount:      amount,
		Description: "Investment",
	}
	if err := s.txRepo.Create(ctx, entry); err != nil {
		return fmt.Errorf("investment applied but ledger entry failed: %w", err)
	}

	if investor.ReferredBy != nil {
		if _, err := s.bonusService.PayOneTimeReferralBonus(ctx, *investor.ReferredBy, userID, amount); err != nil {
			// The investment is recorded; surface the failed bonus pair
			// rather than leaving it silently half-applied.
			return fmt.Errorf("investment recorded but referral bonus failed: %w", err)
		}
		if err := s.userRepo.AddMonthlyDirectBusiness(ctx, *investor.ReferredBy, amount); err != nil {
			slog.Error("failed to accrue monthly direct business",
				"error", err, "referrer", investor.ReferredBy.Hex())
		}
	}

	s.propagateVolume(ctx, userID, amount)
	return nil
}

// propagateVolume adds amount to every ancestor edge's volume counter
// and to the owning referrer's leg accumulator, then recomputes each
// ancestor's level. Failures are logged per ancestor and do not stop
// the remaining propagation.
func (s *InvestmentService) propagateVolume(ctx context.Context, investorID primitive.ObjectID, amount float64) {
	edges, err := s.referralRepo.FindByReferee(ctx, investorID)
	if err != nil {
		slog.Error("failed to load ancestor edges", "error", err, "investor", investorID.Hex())
		return
	}

	for _, edge := range edges {
		if err := s.referralRepo.IncrementVolume(ctx, edge.ID, amount); err != nil {
			slog.Error("failed to increment edge volume", "error", err, "edge", edge.ID.Hex())
			continue
		}
		if err := s.userRepo.AddLegVolume(ctx, edge.Referrer, edge.LegType, amount); err != nil {
			slog.Error("failed to accrue leg volume", "error", err, "referrer", edge.Referrer.Hex())
			continue
		}
		if err := s.recalculateLevel(ctx, edge.Referrer); err != nil {
			slog.Error("failed to recalculate level", "error", err, "referrer", edge.Referrer.Hex())
		}
	}
}

// recalculateLevel derives the referrer's level from their direct team
// size and total leg volume and persists it when it changed.
func (s *InvestmentService) recalculateLevel(ctx context.Context, userID primitive.ObjectID) error {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return err
	}

	level := levelFor(user.DirectTeamCount, user.TotalLegVolume())
	if level == user.CurrentLevel {
		return nil
	}
	if err := s.userRepo.SetCurrentLevel(ctx, userID, level); err != nil {
		return err
	}
	slog.Info("user level changed", "userId", userID.Hex(), "from", user.CurrentLevel, "to", level)
	return nil
}
