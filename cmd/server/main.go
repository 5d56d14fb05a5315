package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ksaito/hatchobori-lunch-backend/config"
	"github.com/ksaito/hatchobori-lunch-backend/internal/app/controller"
	"github.com/ksaito/hatchobori-lunch-backend/internal/app/repository"
	"github.com/ksaito/hatchobori-lunch-backend/internal/app/service"
	"github.com/ksaito/hatchobori-lunch-backend/internal/cache"
	"github.com/ksaito/hatchobori-lunch-backend/internal/db"
	"github.com/ksaito/hatchobori-lunch-backend/internal/middleware"
	"github.com/ksaito/hatchobori-lunch-backend/internal/router"
	"github.com/ksaito/hatchobori-lunch-backend/internal/scheduler"
	"github.com/ksaito/hatchobori-lunch-backend/internal/storage"
	"github.com/ksaito/hatchobori-lunch-backend/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", err)
	}

	// Initialize logger
	logLevel := "info"
	if cfg.Server.Environment == "development" {
		logLevel = "debug"
	}
	logger.Initialize(logger.Config{
		Level:       logLevel,
		Format:      "console", // Use "json" for production
		EnableColor: true,
	})

	logger.Info("Starting Hatchobori Lunch Backend Server", map[string]interface{}{
		"environment": cfg.Server.Environment,
		"port":        cfg.Server.Port,
		"log_level":   logLevel,
	})

	// Initialize database
	if err := db.Initialize(&cfg.Database); err != nil {
		logger.Fatal("Failed to initialize database", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("Failed to close database connection", err)
		}
	}()

	// Run migrations
	if err := db.Migrate(); err != nil {
		logger.Fatal("Failed to run migrations", err)
	}

	// Seed default categories (no-op when categories already exist)
	if err := db.Seed(); err != nil {
		logger.Warn("Failed to seed database", map[string]interface{}{
			"error": err.Error(),
		})
	}

	// Initialize cache store. Redis が無効または接続不可でもサーバーは起動する
	cacheStore := cache.NewNoop()
	if cfg.Redis.Enabled {
		redisStore, err := cache.NewRedis(&cfg.Redis)
		if err != nil {
			logger.Warn("Redis unavailable, running without cache", map[string]interface{}{
				"error": err.Error(),
			})
		} else {
			cacheStore = redisStore
			defer func() {
				if err := cache.Close(cacheStore); err != nil {
					logger.Error("Failed to close cache connection", err)
				}
			}()
		}
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(db.GetDB())
	categoryRepo := repository.NewCategoryRepository(db.GetDB())
	restaurantRepo := repository.NewRestaurantRepository(db.GetDB())
	favoriteRepo := repository.NewFavoriteRepository(db.GetDB())

	// Initialize services
	authService := service.NewAuthService(
		userRepo,
		cfg.JWT.Secret,
		cfg.JWT.AccessTokenExpiry,
		cfg.JWT.RefreshTokenExpiry,
	)
	categoryService := service.NewCategoryService(categoryRepo, cacheStore)
	restaurantService := service.NewRestaurantService(restaurantRepo, cacheStore)
	favoriteService := service.NewFavoriteService(favoriteRepo, restaurantRepo)
	aiService := service.NewAIService(&cfg.OpenAI, restaurantService)
	extractService := service.NewExtractService(&cfg.OpenAI, categoryRepo)

	// Initialize storage
	s3Storage := storage.NewS3Storage(&cfg.S3)

	// Initialize controllers
	authController := controller.NewAuthController(authService)
	categoryController := controller.NewCategoryController(categoryService)
	restaurantController := controller.NewRestaurantController(restaurantService, favoriteService)
	favoriteController := controller.NewFavoriteController(favoriteService)
	chatController := controller.NewChatController(aiService)
	extractController := controller.NewExtractController(extractService)
	uploadController := controller.NewUploadController(s3Storage)

	// Initialize middleware
	authMiddleware := middleware.NewAuthMiddleware(cfg.JWT.Secret, userRepo)

	// Start the daily cache flush scheduler
	cacheFlushScheduler := scheduler.NewCacheFlushScheduler(cacheStore)
	if err := cacheFlushScheduler.Start(); err != nil {
		logger.Warn("Failed to start cache flush scheduler", map[string]interface{}{
			"error": err.Error(),
		})
	}
	defer cacheFlushScheduler.Stop()

	// Setup router
	r := router.NewRouter(
		authController,
		categoryController,
		restaurantController,
		favoriteController,
		chatController,
		extractController,
		uploadController,
		authMiddleware,
		cfg,
	)
	engine := r.Setup()

	// Start server in a goroutine
	go func() {
		addr := fmt.Sprintf(":%s", cfg.Server.Port)
		logger.Info("Server started successfully", map[string]interface{}{
			"address": addr,
			"pid":     os.Getpid(),
		})
		if err := engine.Run(addr); err != nil {
			logger.Fatal("Failed to start server", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server gracefully...")
	logger.Info("Server stopped successfully")
}
