package router

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/mossaberrahal02/CNN-Disease-Classification/internal/adapter/http/handler"
	"github.com/mossaberrahal02/CNN-Disease-Classification/internal/adapter/http/middleware"
	"github.com/mossaberrahal02/CNN-Disease-Classification/internal/usecase"
)

// Options tunes the router
type Options struct {
	MaxUploadBytes int64
}

// Setup creates and configures the Gin router. db may be nil when the
// prediction history is disabled.
func Setup(inferenceUC usecase.InferenceUsecase, db *gorm.DB, logger *zap.Logger, opts Options) *gin.Engine {
	router := gin.New()
	if opts.MaxUploadBytes > 0 {
		router.MaxMultipartMemory = opts.MaxUploadBytes
	}

	// Middleware
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(logger))
	router.Use(middleware.Recovery(logger))
	router.Use(middleware.CORS())
	router.Use(middleware.Metrics())
	router.Use(middleware.BodyLimit(opts.MaxUploadBytes))

	// Initialize handlers
	healthHandler := handler.NewHealthHandler(inferenceUC, db)
	predictionHandler := handler.NewPredictionHandler(inferenceUC)

	router.GET("/", healthHandler.Root)
	router.GET("/ready", healthHandler.Ready)

	// Prometheus metrics
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// The same API is served at the root and under /api
	for _, group := range []*gin.RouterGroup{&router.RouterGroup, router.Group("/api")} {
		group.GET("/ping", healthHandler.Ping)
		group.GET("/health", healthHandler.Health)
		group.GET("/classes", predictionHandler.ListClasses)

		predict := group.Group("/predict")
		{
			predict.POST("", predictionHandler.Predict)
			predict.POST("/batch", predictionHandler.PredictBatch)
		}

		predictions := group.Group("/predictions")
		{
			predictions.GET("", predictionHandler.ListPredictions)
			predictions.GET("/stats", predictionHandler.PredictionStats)
			predictions.GET("/:id", predictionHandler.GetPrediction)
		}
	}

	return router
}
