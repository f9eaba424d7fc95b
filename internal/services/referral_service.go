package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math"
	"strings"

	"github.com/skillvest/referral-backend/internal/models"
	"github.com/skillvest/referral-backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/exp/slog"
)

// ReferralService owns the referral graph: code issuing, signup
// attribution, upline edge materialization and stats.
type ReferralService struct {
	userRepo     repositories.UserRepository
	referralRepo repositories.ReferralRepository
	bonusRepo    repositories.BonusRepository
}

// NewReferralService creates a new ReferralService
func NewReferralService(
	userRepo repositories.UserRepository,
	referralRepo repositories.ReferralRepository,
	bonusRepo repositories.BonusRepository,
) *ReferralService {
	return &ReferralService{
		userRepo:     userRepo,
		referralRepo: referralRepo,
		bonusRepo:    bonusRepo,
	}
}

// IssueReferralCode returns the user's referral code, generating and
// persisting one on first call. Idempotent: repeat calls return the
// same code without mutation.
func (s *ReferralService) IssueReferralCode(ctx context.Context, userID primitive.ObjectID) (string, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return "", ErrAccountNotFound
		}
		return "", fmt.Errorf("failed to load user: %w", err)
	}

	if user.ReferralCode != "" {
		return user.ReferralCode, nil
	}

	for attempt := 0; attempt < CodeGenerationAttempts; attempt++ {
		code, err := generateReferralCode(user.Username)
		if err != nil {
			return "", fmt.Errorf("failed to generate referral code: %w", err)
		}

		_, err = s.userRepo.FindByReferralCode(ctx, code)
		if err == nil {
			continue // collision, try again
		}
		if err != mongo.ErrNoDocuments {
			return "", fmt.Errorf("failed to check referral code uniqueness: %w", err)
		}

		if err := s.userRepo.SetReferralCode(ctx, userID, code); err != nil {
			if err == mongo.ErrNoDocuments {
				// Lost a race with another issue call; the stored code wins.
				fresh, ferr := s.userRepo.FindByID(ctx, userID)
				if ferr != nil {
					return "", fmt.Errorf("failed to reload user after code race: %w", ferr)
				}
				return fresh.ReferralCode, nil
			}
			if mongo.IsDuplicateKeyError(err) {
				continue // another user claimed the code between check and write
			}
			return "", fmt.Errorf("failed to store referral code: %w", err)
		}
		return code, nil
	}

	slog.Warn("referral code generation exhausted retries", "userId", userID.Hex())
	return "", ErrCodeGenerationExhausted
}

// ResolveReferralCode returns the owner of a referral code.
func (s *ReferralService) ResolveReferralCode(ctx context.Context, code string) (*models.User, error) {
	if code == "" {
		return nil, ErrInvalidReferralCode
	}
	referrer, err := s.userRepo.FindByReferralCode(ctx, code)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrInvalidReferralCode
		}
		return nil, fmt.Errorf("failed to resolve referral code: %w", err)
	}
	return referrer, nil
}

// CompleteSignup attaches a new user to the owner of referralCode:
// sets referredBy, bumps the referrer's direct team count, creates the
// level-1 edge and materializes one ancestor edge per level up to 5.
// The level-1 leg is assigned by placement order (first referee ->
// power1, second -> power2, later -> other); upline edges are "other".
func (s *ReferralService) CompleteSignup(ctx context.Context, newUserID primitive.ObjectID, referralCode string) error {
	referrer, err := s.ResolveReferralCode(ctx, referralCode)
	if err != nil {
		return err
	}

	newUser, err := s.userRepo.FindByID(ctx, newUserID)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return ErrAccountNotFound
		}
		return fmt.Errorf("failed to load new user: %w", err)
	}
	if newUser.ReferredBy != nil {
		return ErrAlreadyReferred
	}
	if referrer.ID == newUserID {
		return ErrCircularReferral
	}

	// Walk the referrer's own upline before mutating anything: the walk
	// both detects cycles and yields the ancestors for levels 2..5.
	ancestors, err := s.collectUpline(ctx, referrer)
	if err != nil {
		return err
	}
	for _, ancestor := range ancestors {
		if ancestor.ID == newUserID {
			return ErrCircularReferral
		}
	}

	if err := s.userRepo.SetReferredBy(ctx, newUserID, referrer.ID); err != nil {
		if err == mongo.ErrNoDocuments {
			return ErrAlreadyReferred
		}
		return fmt.Errorf("failed to set referrer: %w", err)
	}
	if err := s.userRepo.IncrementDirectTeamCount(ctx, referrer.ID); err != nil {
		return fmt.Errorf("failed to increment direct team count: %w", err)
	}

	edge := &models.ReferralEdge{
		Referrer: referrer.ID,
		Referee:  newUserID,
		Level:    1,
		LegType:  placeLeg(referrer.DirectTeamCount),
		IsActive: true,
	}
	if err := s.referralRepo.Create(ctx, edge); err != nil {
		return fmt.Errorf("failed to create direct referral edge: %w", err)
	}

	for i, ancestor := range ancestors {
		level := i + 2
		upEdge := &models.ReferralEdge{
			Referrer: ancestor.ID,
			Referee:  newUserID,
			Level:    level,
			LegType:  models.LegOther,
			IsActive: true,
		}
		if err := s.referralRepo.Create(ctx, upEdge); err != nil {
			// Edge fan-out tolerates partial completion; the direct
			// relationship is already recorded.
			slog.Error("failed to create upline referral edge",
				"error", err, "referee", newUserID.Hex(), "level", level)
		}
	}

	slog.Info("referral signup completed",
		"referee", newUserID.Hex(), "referrer", referrer.ID.Hex(), "uplineDepth", len(ancestors)+1)
	return nil
}

// collectUpline returns the chain of ancestors above start, bounded so
// that start plus the result never exceeds MaxReferralDepth levels.
func (s *ReferralService) collectUpline(ctx context.Context, start *models.User) ([]*models.User, error) {
	var ancestors []*models.User
	current := start
	for level := 2; level <= MaxReferralDepth; level++ {
		if current.ReferredBy == nil {
			break
		}
		parent, err := s.userRepo.FindByID(ctx, *current.ReferredBy)
		if err != nil {
			if err == mongo.ErrNoDocuments {
				break // dangling reference, stop the walk
			}
			return nil, fmt.Errorf("failed to walk upline: %w", err)
		}
		ancestors = append(ancestors, parent)
		current = parent
	}
	return ancestors, nil
}

// GetStats returns the account summary, referral lists, bonus history
// and progress towards the next level.
func (s *ReferralService) GetStats(ctx context.Context, userID primitive.ObjectID) (*models.ReferralStats, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	edges, err := s.referralRepo.FindByReferrer(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load referral edges: %w", err)
	}

	all := make([]*models.ReferralEntry, 0, len(edges))
	direct := make([]*models.ReferralEntry, 0)
	for _, edge := range edges {
		entry := &models.ReferralEntry{Edge: edge}
		referee, err := s.userRepo.FindByID(ctx, edge.Referee)
		if err == nil {
			entry.Referee = &models.RefereeSummary{
				ID:              referee.ID,
				Username:        referee.Username,
				Email:           referee.Email,
				TotalInvestment: referee.TotalInvestment,
			}
		}
		all = append(all, entry)
		if edge.Level == 1 {
			direct = append(direct, entry)
		}
	}

	bonuses, err := s.bonusRepo.FindByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load bonus history: %w", err)
	}

	return &models.ReferralStats{
		User: models.ReferralSummary{
			ReferralCode:    user.ReferralCode,
			CurrentLevel:    user.CurrentLevel,
			DirectTeamCount: user.DirectTeamCount,
			TotalEarnings:   user.TotalEarnings,
			RewardsCap:      user.RewardsCap,
			RemainingCap:    user.RemainingCap(),
		},
		DirectReferrals: direct,
		AllReferrals:    all,
		Bonuses:         bonuses,
		LevelProgress:   levelProgress(user),
	}, nil
}

// GetNetwork lists every downline edge of a user across levels 1..5.
func (s *ReferralService) GetNetwork(ctx context.Context, userID primitive.ObjectID) ([]*models.ReferralEdge, error) {
	edges, err := s.referralRepo.FindByReferrer(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load referral network: %w", err)
	}
	return edges, nil
}

// levelProgress computes progress towards the next level, or nil at top.
func levelProgress(user *models.User) *models.LevelProgress {
	next := user.CurrentLevel + 1
	if next > MaxReferralDepth {
		return nil
	}
	req := LevelRequirements[next]
	volume := user.TotalLegVolume()
	return &models.LevelProgress{
		NextLevel: next,
		DirectTeam: models.ProgressMetric{
			Current:    float64(user.DirectTeamCount),
			Required:   float64(req.DirectTeam),
			Percentage: math.Min(100, float64(user.DirectTeamCount)/float64(req.DirectTeam)*100),
		},
		Volume: models.ProgressMetric{
			Current:    volume,
			Required:   req.Volume,
			Percentage: math.Min(100, volume/req.Volume*100),
		},
	}
}

// placeLeg assigns the leg for a referrer's next direct referee based
// on how many they already have: the first two referees anchor the
// power legs, the rest land in "other".
func placeLeg(existingDirects int) models.LegType {
	switch existingDirects {
	case 0:
		return models.LegPower1
	case 1:
		return models.LegPower2
	default:
		return models.LegOther
	}
}

// generateReferralCode builds a candidate code from a username prefix
// and a random hex suffix.
func generateReferralCode(username string) (string, error) {
	suffix := make([]byte, 3)
	if _, err := rand.Read(suffix); err != nil {
		return "", err
	}
	// Truncate by runes so multi-byte usernames never yield a broken code.
	prefix := []rune(strings.ToUpper(username))
	if len(prefix) > 4 {
		prefix = prefix[:4]
	}
	return string(prefix) + strings.ToUpper(hex.EncodeToString(suffix)), nil
}
