package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/mossaberrahal02/CNN-Disease-Classification/internal/adapter/classifier"
	"github.com/mossaberrahal02/CNN-Disease-Classification/internal/adapter/http/router"
	"github.com/mossaberrahal02/CNN-Disease-Classification/internal/adapter/repository/postgres"
	"github.com/mossaberrahal02/CNN-Disease-Classification/internal/domain/repository"
	"github.com/mossaberrahal02/CNN-Disease-Classification/internal/domain/service"
	"github.com/mossaberrahal02/CNN-Disease-Classification/internal/infrastructure/config"
	"github.com/mossaberrahal02/CNN-Disease-Classification/internal/infrastructure/database"
	"github.com/mossaberrahal02/CNN-Disease-Classification/internal/infrastructure/logger"
	"github.com/mossaberrahal02/CNN-Disease-Classification/internal/usecase"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize logger
	log, err := logger.NewLogger(&cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	// Set Gin mode
	gin.SetMode(cfg.Server.Mode)

	// Load the model. Failure leaves the service up but unavailable.
	var model service.Classifier
	onnxModel, err := classifier.NewONNXClassifier(&cfg.Model)
	if err != nil {
		log.Error("Failed to load model, serving in unavailable state",
			zap.String("path", cfg.Model.Path),
			zap.String("fallback_path", cfg.Model.FallbackPath),
			zap.Error(err),
		)
	} else {
		defer onnxModel.Close()
		model = onnxModel
		log.Info("Model loaded",
			zap.String("path", onnxModel.ModelPath),
			zap.Int64s("input_shape", onnxModel.Metadata.InputShape),
			zap.Strings("classes", onnxModel.Metadata.Classes),
			zap.String("runtime", onnxModel.RuntimeVersion()),
		)
	}

	// Initialize database (optional)
	var db *gorm.DB
	var records repository.PredictionRecordRepository
	if cfg.Database.Enabled {
		db, err = database.NewPostgresDB(&cfg.Database)
		if err != nil {
			log.Error("Failed to connect to database", zap.Error(err))
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		log.Info("Connected to database")

		if err := database.AutoMigrate(db); err != nil {
			log.Error("Failed to run migrations", zap.Error(err))
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		log.Info("Database migrations completed")

		records = postgres.NewPredictionRecordRepository(db)
	} else {
		log.Info("Prediction history disabled")
	}

	inferenceUC := usecase.NewInferenceUsecase(model, records, log)

	// Setup router
	r := router.Setup(inferenceUC, db, log, router.Options{
		MaxUploadBytes: cfg.Server.MaxUploadBytes,
	})

	// Create HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("Starting server", zap.String("address", addr), zap.Bool("model_loaded", model != nil))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Wait for interrupt signal or a listener failure
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-serverErr:
		log.Error("Server failed", zap.Error(err))
		return fmt.Errorf("server failed: %w", err)
	}

	log.Info("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	// Close database connection
	if db != nil {
		if sqlDB, err := db.DB(); err == nil && sqlDB != nil {
			_ = sqlDB.Close()
		}
	}

	log.Info("Server exited")
	return nil
}
