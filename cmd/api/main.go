package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/skillvest/referral-backend/api/routes"
	"github.com/skillvest/referral-backend/internal/config"
	"github.com/skillvest/referral-backend/internal/handlers"
	"github.com/skillvest/referral-backend/internal/repositories"
	mongorepo "github.com/skillvest/referral-backend/internal/repositories/mongodb"
	"github.com/skillvest/referral-backend/internal/services"
	"github.com/skillvest/referral-backend/pkg/jobs"
	"github.com/skillvest/referral-backend/pkg/mongodb"
)

func main() {
	// .env is optional; real deployments set env vars directly
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	connectCtx, connectCancel := context.WithTimeout(context.Background(), 10*time.Second)
	mongoClient, err := mongodb.NewClient(connectCtx, cfg.MongoDB.URI)
	connectCancel()
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer func() {
		if err := mongoClient.Disconnect(context.Background()); err != nil {
			log.Printf("Error disconnecting from MongoDB: %v", err)
		}
	}()

	db := mongoClient.Database(cfg.MongoDB.Database)

	// Repositories
	userRepoImpl := mongorepo.NewUserRepository(db)
	referralRepoImpl := mongorepo.NewReferralRepository(db)
	bonusRepoImpl := mongorepo.NewBonusRepository(db)

	var userRepo repositories.UserRepository = userRepoImpl
	var referralRepo repositories.ReferralRepository = referralRepoImpl
	var bonusRepo repositories.BonusRepository = bonusRepoImpl
	var txRepo repositories.TransactionRepository = mongorepo.NewTransactionRepository(db)
	var configRepo repositories.SystemConfigRepository = mongorepo.NewSystemConfigRepository(db)

	indexCtx, indexCancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := userRepoImpl.EnsureIndexes(indexCtx); err != nil {
		log.Fatalf("Failed to create user indexes: %v", err)
	}
	if err := referralRepoImpl.EnsureIndexes(indexCtx); err != nil {
		log.Fatalf("Failed to create referral indexes: %v", err)
	}
	if err := bonusRepoImpl.EnsureIndexes(indexCtx); err != nil {
		log.Fatalf("Failed to create bonus indexes: %v", err)
	}
	indexCancel()

	// Services
	referralService := services.NewReferralService(userRepo, referralRepo, bonusRepo)
	bonusService := services.NewBonusService(userRepo, referralRepo, bonusRepo, txRepo, configRepo)
	investmentService := services.NewInvestmentService(userRepo, referralRepo, txRepo, bonusService)
	authService := services.NewAuthService(userRepo, referralService, cfg)
	userService := services.NewUserService(userRepo, txRepo)

	// Handlers
	handlerDeps := routes.HandlerDependencies{
		AuthHandler:       handlers.NewAuthHandler(authService),
		UserHandler:       handlers.NewUserHandler(userService),
		ReferralHandler:   handlers.NewReferralHandler(referralService),
		InvestmentHandler: handlers.NewInvestmentHandler(investmentService),
		BonusHandler:      handlers.NewBonusHandler(bonusService),
	}

	router := routes.SetupRouter(cfg, handlerDeps)

	// Scheduled jobs
	cronManager := jobs.NewCronManager(bonusService, cfg)
	if err := cronManager.SetupJobs(); err != nil {
		log.Fatalf("Failed to set up scheduled jobs: %v", err)
	}
	cronManager.Start()

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	log.Printf("Server starting on port %s", cfg.Server.Port)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	<-cronManager.Stop().Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown: ", err)
	}

	log.Println("Server exiting")
}
