package main

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/jafarshop/shopapi/internal/api"
	"github.com/jafarshop/shopapi/internal/config"
	"github.com/jafarshop/shopapi/internal/gateway"
	"github.com/jafarshop/shopapi/internal/repository/postgres"
	"github.com/jafarshop/shopapi/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	var logger *zap.Logger
	if cfg.Environment == "development" {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	db, err := postgres.NewConnection(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	repos := postgres.NewRepositories(db, logger)

	var tokenCache gateway.TokenCache
	if cfg.Redis.Addr != "" {
		tokenCache = gateway.NewRedisTokenCache(cfg.Redis.Addr)
	}

	authProvider := gateway.NewAuthProvider(cfg.Gateway, tokenCache, logger)
	gatewayClient := gateway.NewClient(cfg.Gateway, authProvider, logger)

	payments := service.NewPaymentService(repos, gatewayClient, cfg.PublicBaseURL, logger)
	checkout := service.NewCheckoutService(repos, payments, logger)
	fulfillment := service.NewFulfillmentService(repos, logger)

	router := api.NewRouter(cfg, repos, api.Services{
		Checkout:    checkout,
		Payments:    payments,
		Fulfillment: fulfillment,
		Auth:        authProvider,
	}, logger)

	logger.Info("Starting server",
		zap.String("port", cfg.Port),
		zap.String("environment", cfg.Environment),
	)

	if err := router.Run(":" + cfg.Port); err != nil {
		logger.Fatal("Server stopped", zap.Error(err))
	}
}
