package routes

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	handler "subprocess-review-backend/internal/handlers"
	"subprocess-review-backend/internal/repository"
	service "subprocess-review-backend/internal/services/review"
)

func RegisterRoutes(r *gin.Engine, db *gorm.DB, cfg service.Config) {
	subprocessRepo := repository.NewSubprocessRepository(db)
	statusRepo := repository.NewStatusRepository(db)
	historyRepo := repository.NewHistoryRepository(db)
	userRepo := repository.NewUserRepository(db)

	reviewService := service.NewService(
		subprocessRepo,
		statusRepo,
		historyRepo,
		userRepo,
		cfg,
	)

	reviewHandler := handler.NewReviewHandler(reviewService)

	api := r.Group("/api")

	// Health check
	api.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Identity
	api.POST("/auth/login", reviewHandler.Login)

	// Spreadsheet import (admin only)
	api.POST("/import", reviewHandler.Import)

	// Dashboard pages
	api.GET("/pages", reviewHandler.GetPage)

	// Batch lifecycle
	batches := api.Group("/batches")
	batches.GET("/:id/status", reviewHandler.GetBatchStatus)
	batches.POST("/:id/start", reviewHandler.StartBatch)
	batches.POST("/:id/release", reviewHandler.ReleaseBatch)
	batches.POST("/:id/finish", reviewHandler.FinishBatch)

	// Completion history
	api.GET("/history", reviewHandler.GetHistory)
}
