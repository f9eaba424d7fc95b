package routes

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/skillvest/referral-backend/internal/config"
	"github.com/skillvest/referral-backend/internal/handlers"
	"github.com/skillvest/referral-backend/internal/middleware"
)

// HandlerDependencies groups the handlers wired in main
type HandlerDependencies struct {
	AuthHandler       *handlers.AuthHandler
	UserHandler       *handlers.UserHandler
	ReferralHandler   *handlers.ReferralHandler
	InvestmentHandler *handlers.InvestmentHandler
	BonusHandler      *handlers.BonusHandler
}

// SetupRouter sets up the router
func SetupRouter(cfg *config.Config, deps HandlerDependencies) *gin.Engine {
	router := gin.Default()

	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.AllowedHosts,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
		AllowCredentials: true,
	}))
	router.Use(middleware.RequestIDMiddleware())

	// Public routes
	public := router.Group("/api/v1")
	{
		public.GET("/health", func(c *gin.Context) {
			c.JSON(200, gin.H{"status": "ok"})
		})

		auth := public.Group("/auth")
		{
			auth.POST("/register", deps.AuthHandler.Register)
			auth.POST("/login", deps.AuthHandler.Login)
		}

		public.GET("/referrals/validate/:code", deps.ReferralHandler.ValidateCode)
		public.POST("/referrals/signup", deps.ReferralHandler.Signup)
	}

	// Protected routes
	protected := router.Group("/api/v1")
	protected.Use(middleware.JWTAuthMiddleware(cfg))
	{
		users := protected.Group("/users")
		{
			users.GET("/me", deps.UserHandler.GetMe)
			users.GET("/me/transactions", deps.UserHandler.GetTransactions)
		}

		referrals := protected.Group("/referrals")
		{
			referrals.POST("/code", deps.ReferralHandler.IssueCode)
			referrals.GET("/stats", deps.ReferralHandler.GetStats)
			referrals.GET("/tree", deps.ReferralHandler.GetNetwork)
		}

		protected.POST("/investments", deps.InvestmentHandler.Create)
	}

	// Admin routes
	admin := router.Group("/api/v1/admin")
	admin.Use(middleware.JWTAuthMiddleware(cfg), middleware.RequireAdmin())
	{
		admin.POST("/bonuses/run-monthly", deps.BonusHandler.RunMonthlyCycle)
		admin.GET("/bonuses/last-cycle", deps.BonusHandler.GetLastCycle)
	}

	return router
}
