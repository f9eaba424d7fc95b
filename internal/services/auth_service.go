package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/skillvest/referral-backend/internal/config"
	"github.com/skillvest/referral-backend/internal/models"
	"github.com/skillvest/referral-backend/internal/repositories"
	"github.com/skillvest/referral-backend/internal/utils"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/exp/slog"
)

// ErrInvalidCredentials is returned on any login failure. The message
// deliberately does not distinguish unknown email from wrong password.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ErrUserExists is returned when registering a taken email or username.
var ErrUserExists = errors.New("user already exists")

// AuthService handles registration and login.
type AuthService struct {
	userRepo        repositories.UserRepository
	referralService *ReferralService
	cfg             *config.Config
}

// NewAuthService creates a new AuthService
func NewAuthService(userRepo repositories.UserRepository, referralService *ReferralService, cfg *config.Config) *AuthService {
	return &AuthService{
		userRepo:        userRepo,
		referralService: referralService,
		cfg:             cfg,
	}
}

// Register creates a new member account. When a referral code is
// supplied it is resolved before the account is created (fail fast, no
// partial state) and the signup is attached to the code owner's
// downline afterwards.
func (s *AuthService) Register(ctx context.Context, req *models.RegisterRequest) (*models.User, error) {
	if _, err := s.userRepo.FindByEmail(ctx, req.Email); err == nil {
		return nil, ErrUserExists
	} else if err != mongo.ErrNoDocuments {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if _, err := s.userRepo.FindByUsername(ctx, req.Username); err == nil {
		return nil, ErrUserExists
	} else if err != mongo.ErrNoDocuments {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}

	if req.ReferralCode != "" {
		if _, err := s.referralService.ResolveReferralCode(ctx, req.ReferralCode); err != nil {
			return nil, err
		}
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Username: req.Username,
		Email:    req.Email,
		Password: string(hashed),
		Role:     models.RoleMember,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		// The unique email/username indexes close the race the
		// check-then-insert above leaves open.
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrUserExists
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	if req.ReferralCode != "" {
		if err := s.referralService.CompleteSignup(ctx, user.ID, req.ReferralCode); err != nil {
			// The account exists either way; the missed attribution is
			// worth surfacing in logs, not failing the registration.
			slog.Error("referral attribution failed during registration",
				"error", err, "userId", user.ID.Hex())
		}
	}

	user.Password = ""
	return user, nil
}

// Login verifies credentials and returns a signed JWT with the user.
func (s *AuthService) Login(ctx context.Context, req *models.LoginRequest) (*models.AuthResponse, error) {
	user, err := s.userRepo.FindByEmail(ctx, req.Email)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, err := utils.GenerateJWT(user.ID.Hex(), user.Role, s.cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	user.Password = ""
	return &models.AuthResponse{Token: token, User: user}, nil
}
