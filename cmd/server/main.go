package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/brandlift/w9-backend/config"
	"github.com/brandlift/w9-backend/internal/app/controller"
	"github.com/brandlift/w9-backend/internal/app/repository"
	"github.com/brandlift/w9-backend/internal/app/service"
	"github.com/brandlift/w9-backend/internal/db"
	"github.com/brandlift/w9-backend/internal/middleware"
	"github.com/brandlift/w9-backend/internal/router"
	"github.com/brandlift/w9-backend/internal/scheduler"
	"github.com/brandlift/w9-backend/internal/storage"
	"github.com/brandlift/w9-backend/internal/websocket"
	"github.com/brandlift/w9-backend/pkg/crypto"
	"github.com/brandlift/w9-backend/pkg/logger"
	"github.com/brandlift/w9-backend/pkg/mailer"
	"github.com/brandlift/w9-backend/pkg/redis"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", err)
	}

	logLevel := "info"
	logFormat := "json"
	if cfg.Server.Environment == "development" {
		logLevel = "debug"
		logFormat = "console"
	}
	logger.Initialize(logger.Config{
		Level:       logLevel,
		Format:      logFormat,
		EnableColor: cfg.Server.Environment == "development",
	})

	logger.Info("Starting W9 compliance server", map[string]interface{}{
		"environment": cfg.Server.Environment,
		"port":        cfg.Server.Port,
	})

	codec, err := crypto.NewCodec(cfg.Crypto.EncryptionKey)
	if err != nil {
		logger.Fatal("Failed to initialize taxpayer-id codec", err)
	}

	if err := db.Initialize(&cfg.Database); err != nil {
		logger.Fatal("Failed to initialize database", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("Failed to close database connection", err)
		}
	}()

	if err := db.Migrate(); err != nil {
		logger.Fatal("Failed to run migrations", err)
	}

	// Redis backs the token blacklist; the server runs without it, logout
	// then falls back to client-side token disposal only
	if err := redis.Init(&cfg.Redis); err != nil {
		logger.Warn("Redis unavailable, token revocation disabled", map[string]interface{}{
			"error": err.Error(),
		})
	} else {
		defer redis.Close()
	}

	// Repositories
	userRepo := repository.NewUserRepository(db.GetDB())
	formRepo := repository.NewTaxFormRepository(db.GetDB())
	submissionRepo := repository.NewSubmissionRepository(db.GetDB())
	verificationRepo := repository.NewVerificationRepository(db.GetDB())
	notificationRepo := repository.NewNotificationRepository(db.GetDB())

	// Notification channels
	hub := websocket.NewHub()
	go hub.Run()
	sender := mailer.NewSMTPSender(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.From, cfg.SMTP.Password)

	s3Storage := storage.NewS3Storage(
		cfg.S3.Region,
		cfg.S3.Bucket,
		cfg.S3.AccessKeyID,
		cfg.S3.SecretAccessKey,
		cfg.S3.BaseURL,
	)

	// Services
	authService := service.NewAuthService(userRepo, cfg.JWT)
	notificationService := service.NewNotificationService(notificationRepo, userRepo, sender, hub)
	verificationService := service.NewVerificationService(verificationRepo, formRepo, codec, nil)
	formService := service.NewW9FormService(formRepo, codec, verificationService, notificationService)
	reportingService := service.NewReportingService(submissionRepo, formRepo, codec, notificationService)
	documentService := service.NewDocumentService(formRepo, codec, s3Storage)

	// Controllers
	authController := controller.NewAuthController(authService)
	formController := controller.NewW9FormController(formService, reportingService, documentService, s3Storage)
	adminController := controller.NewAdminController(formService, verificationService, reportingService, documentService)
	notificationController := controller.NewNotificationController(notificationService, hub)

	authMiddleware := middleware.NewAuthMiddleware(cfg.JWT.Secret)

	r := router.NewRouter(
		authController,
		formController,
		adminController,
		notificationController,
		authMiddleware,
		cfg,
	)
	engine := r.Setup()

	w9Scheduler := scheduler.NewW9Scheduler(formService, reportingService)
	if err := w9Scheduler.Start(); err != nil {
		logger.Fatal("Failed to start scheduler", err)
	}
	defer w9Scheduler.Stop()

	go func() {
		addr := fmt.Sprintf(":%s", cfg.Server.Port)
		logger.Info("Server started", map[string]interface{}{
			"address": addr,
			"pid":     os.Getpid(),
		})
		if err := engine.Run(addr); err != nil {
			logger.Fatal("Failed to start server", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server gracefully...")
}
