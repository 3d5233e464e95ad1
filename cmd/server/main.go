package main

import (
	"log"
	"time"

	"subprocess-review-backend/internal/config"
	"subprocess-review-backend/internal/models"
	"subprocess-review-backend/internal/routes"
	service "subprocess-review-backend/internal/services/review"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on system env")
	}

	db := config.InitDB()

	db.AutoMigrate(
		&models.Subprocess{},
		&models.BatchStatus{},
		&models.HistoryEntry{},
		&models.User{},
	)

	cfg := service.Config{
		ChunkSize:      config.GetInt("BATCH_CHUNK_SIZE", 8),
		PageSize:       config.GetInt("PAGE_SIZE", 8),
		AllowedActions: config.GetList("ALLOWED_ACTIONS", []string{"ASSINAR OD", "ASSINAR CH"}),
		DeniedTerms:    config.GetList("DENIED_TERMS", []string{"cancelado", "enviado aci"}),
	}

	r := gin.Default()
	// CORS config
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE"},
		AllowHeaders:     []string{"Origin", "Content-Type", "X-User"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	routes.RegisterRoutes(r, db, cfg)

	r.Run(config.GetString("ADDR", ":8080"))
}
