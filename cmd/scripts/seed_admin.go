package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/skillvest/referral-backend/internal/config"
	"github.com/skillvest/referral-backend/internal/models"
	mongorepo "github.com/skillvest/referral-backend/internal/repositories/mongodb"
	"github.com/skillvest/referral-backend/pkg/mongodb"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"
)

// Seeds an admin account for the monthly-cycle trigger endpoint.
// Usage: go run ./cmd/scripts -email admin@example.com -password secret
func main() {
	email := flag.String("email", "", "admin email (required)")
	username := flag.String("username", "admin", "admin username")
	password := flag.String("password", "", "admin password (required)")
	flag.Parse()

	if *email == "" || *password == "" {
		log.Fatal("both -email and -password are required")
	}

	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	client, err := mongodb.NewClient(ctx, cfg.MongoDB.URI)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer client.Disconnect(context.Background())

	userRepo := mongorepo.NewUserRepository(client.Database(cfg.MongoDB.Database))

	if _, err := userRepo.FindByEmail(ctx, *email); err == nil {
		log.Fatalf("User with email %s already exists", *email)
	} else if err != mongo.ErrNoDocuments {
		log.Fatalf("Failed to check existing user: %v", err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(*password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("Failed to hash password: %v", err)
	}

	admin := &models.User{
		Username: *username,
		Email:    *email,
		Password: string(hashed),
		Role:     models.RoleAdmin,
	}
	if err := userRepo.Create(ctx, admin); err != nil {
		log.Fatalf("Failed to create admin user: %v", err)
	}

	log.Printf("Admin user %s created with id %s", *email, admin.ID.Hex())
}
