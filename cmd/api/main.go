package main

import (
	"fmt"
	"os"

	"kyatflow/internal/config"
	"kyatflow/internal/database"
	"kyatflow/internal/logger"
	"kyatflow/internal/server"
	"kyatflow/internal/services"
)

// @title           KyatFlow API
// @version         1.0
// @description     KyatFlow is a bookkeeping backend for small businesses: income and expense ledger, customer and supplier balances, budgets and subscription plans.
// @termsOfService  http://swagger.io/terms/

// @host      localhost:8080
// @BasePath  /api

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Initialize logger (use ENV var if available, default to development)
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	log := logger.Get()

	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	dbManager, err := database.NewManager(database.NewConfig(appConfig))
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}
	defer func() {
		if err := dbManager.Close(); err != nil {
			log.Warnf("failed to close database: %v", err)
		}
	}()

	if err := dbManager.RunMigrations(os.Getenv("MIGRATIONS_PATH")); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	notifier := services.NewNotifier(services.SMTPConfig{
		Host:     appConfig.SMTPHost,
		Port:     appConfig.SMTPPort,
		Username: appConfig.SMTPUser,
		Password: appConfig.SMTPPassword,
		From:     appConfig.SMTPFrom,
		To:       appConfig.AdminNotifyEmail,
	})

	router, err := server.NewRouter(appConfig, dbManager.DB(), notifier)
	if err != nil {
		return err
	}

	log.Infof("Starting KyatFlow backend server on port %s", appConfig.Port)
	log.Infof("Swagger documentation available at http://localhost:%s/swagger/index.html", appConfig.Port)
	return router.Run(":" + appConfig.Port)
}
