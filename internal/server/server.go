// Package server assembles the HTTP router from configuration, a database
// handle and the notifier used for payment notices.
package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	"kyatflow/internal/config"
	_ "kyatflow/internal/docs" // swagger docs
	"kyatflow/internal/handlers"
	"kyatflow/internal/middleware"
	"kyatflow/internal/services"
	"kyatflow/internal/validator"
)

// NewRouter wires services, handlers and middleware into a gin engine.
func NewRouter(cfg *config.Config, db *gorm.DB, notifier services.Notifier) (*gin.Engine, error) {
	validator.Register()

	authLimiter, err := middleware.NewRateLimiter(cfg.RateLimit)
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT %q: %w", cfg.RateLimit, err)
	}

	// Services
	userService := services.NewUserService(db, cfg.AdminEmails)
	partyService := services.NewPartyService(db)
	transactionService := services.NewTransactionService(db, partyService)
	subscriptionService := services.NewSubscriptionService(db, notifier, cfg.TrialDays, cfg.ProDays)
	budgetService := services.NewBudgetService(db)
	analyticsService := services.NewAnalyticsService(db)
	auditService := services.NewAuditService(db)

	// Handlers
	authHandler := handlers.NewAuthHandler(userService, subscriptionService)
	partyHandler := handlers.NewPartyHandler(partyService, auditService)
	transactionHandler := handlers.NewTransactionHandler(transactionService, auditService)
	subscriptionHandler := handlers.NewSubscriptionHandler(subscriptionService, auditService)
	adminHandler := handlers.NewAdminHandler(subscriptionService, partyService, auditService)
	budgetHandler := handlers.NewBudgetHandler(budgetService, auditService)
	analyticsHandler := handlers.NewAnalyticsHandler(analyticsService)
	internalHandler := handlers.NewInternalHandler(subscriptionService)

	router := gin.New()
	router.Use(middleware.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())
	router.Use(cors.New(corsConfig(cfg.CORSAllowedOrigins)))

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api")
	limited := middleware.RateLimit(authLimiter)
	authenticated := middleware.AuthMiddleware()
	admin := middleware.RequireAdmin()
	subscribed := middleware.RequireActiveSubscription(subscriptionService)

	// Public auth routes
	auth := api.Group("/auth")
	auth.POST("/register", limited, authHandler.Register)
	auth.POST("/login", limited, authHandler.Login)

	// Account and plan routes
	account := auth.Group("", authenticated)
	account.GET("/me", authHandler.Me)
	account.GET("/subscription", subscriptionHandler.GetSubscription)
	account.POST("/start-trial", subscriptionHandler.StartTrial)
	account.POST("/verify-code", limited, subscriptionHandler.VerifyCode)
	account.POST("/payment-notify", subscriptionHandler.PaymentNotify)
	account.POST("/generate-code", admin, adminHandler.GenerateCode)
	account.POST("/admin/update-status", admin, adminHandler.UpdateStatus)

	protected := api.Group("", authenticated)

	parties := protected.Group("/parties")
	parties.POST("", partyHandler.CreateParty)
	parties.GET("", partyHandler.GetUserParties)
	parties.GET("/:id", partyHandler.GetPartyByID)
	parties.PUT("/:id", partyHandler.UpdateParty)
	parties.DELETE("/:id", partyHandler.DeleteParty)

	transactions := protected.Group("/transactions")
	transactions.POST("", transactionHandler.CreateTransaction)
	transactions.GET("", transactionHandler.GetUserTransactions)
	transactions.GET("/:id", transactionHandler.GetTransactionByID)
	transactions.PUT("/:id", transactionHandler.UpdateTransaction)
	transactions.DELETE("/:id", transactionHandler.DeleteTransaction)

	// Paid features
	budgets := protected.Group("/budgets", subscribed)
	budgets.POST("", budgetHandler.CreateBudget)
	budgets.GET("", budgetHandler.GetBudgets)
	budgets.GET("/:id", budgetHandler.GetBudget)
	budgets.PUT("/:id", budgetHandler.UpdateBudget)
	budgets.DELETE("/:id", budgetHandler.DeleteBudget)
	budgets.GET("/:id/progress", budgetHandler.GetBudgetProgress)

	analytics := protected.Group("/analytics", subscribed)
	analytics.GET("/summary", analyticsHandler.GetSummary)
	analytics.GET("/categories", analyticsHandler.GetCategoryBreakdown)
	analytics.GET("/trend", analyticsHandler.GetMonthlyTrend)
	analytics.GET("/parties", analyticsHandler.GetPartyTotals)

	adminRoutes := protected.Group("/admin", admin)
	adminRoutes.GET("/codes", adminHandler.ListCodes)
	adminRoutes.POST("/parties/:id/recalculate", adminHandler.RecalculatePartyBalance)

	internal := api.Group("/internal", middleware.InternalAPIKeyMiddleware(cfg.InternalAPIKey))
	internal.POST("/subscriptions/expire", internalHandler.ExpireSubscriptions)

	return router, nil
}

// corsConfig allows the configured origins with credentials, or any origin
// without credentials when none are configured.
func corsConfig(origins []string) cors.Config {
	c := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Authorization", "Content-Type", "X-Request-ID"},
		ExposeHeaders: []string{"Content-Length", "X-Request-ID", "X-RateLimit-Remaining"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 {
		c.AllowAllOrigins = true
		return c
	}
	c.AllowOrigins = origins
	c.AllowCredentials = true
	return c
}
