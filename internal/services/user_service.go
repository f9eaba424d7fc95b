package services

import (
	"context"
	"fmt"

	"github.com/skillvest/referral-backend/internal/models"
	"github.com/skillvest/referral-backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// UserService handles profile and wallet reads.
type UserService struct {
	userRepo repositories.UserRepository
	txRepo   repositories.TransactionRepository
}

// NewUserService creates a new UserService
func NewUserService(userRepo repositories.UserRepository, txRepo repositories.TransactionRepository) *UserService {
	return &UserService{
		userRepo: userRepo,
		txRepo:   txRepo,
	}
}

// GetUserByID retrieves a user by ID
func (s *UserService) GetUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	user.Password = ""
	return user, nil
}

// GetTransactions retrieves a page of a user's ledger entries
func (s *UserService) GetTransactions(ctx context.Context, userID primitive.ObjectID, page, limit int) ([]*models.Transaction, error) {
	return s.txRepo.FindByUserID(ctx, userID, page, limit)
}

// GetUserCount gets the total number of users
func (s *UserService) GetUserCount(ctx context.Context) (int64, error) {
	return s.userRepo.Count(ctx)
}
