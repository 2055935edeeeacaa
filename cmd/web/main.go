// cmd/web/main.go
package main

import (
	"context"
	"log"

	"cloud.google.com/go/firestore"
	"github.com/DennisMbugua/collectflow/internal/api/handlers"
	"github.com/DennisMbugua/collectflow/internal/api/middleware"
	"github.com/DennisMbugua/collectflow/internal/api/responses"
	"github.com/DennisMbugua/collectflow/internal/config"
	"github.com/DennisMbugua/collectflow/internal/core/auth"
	"github.com/DennisMbugua/collectflow/internal/core/dashboard"
	"github.com/DennisMbugua/collectflow/internal/core/dues"
	"github.com/DennisMbugua/collectflow/internal/core/reconcile"
	"github.com/DennisMbugua/collectflow/internal/core/risk"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func initFirestoreClient(ctx context.Context, cfg config.Config) *firestore.Client {
	client, err := firestore.NewClientWithDatabase(ctx, cfg.FirestoreProjectID, cfg.FirestoreDatabaseID)
	if err != nil {
		log.Fatalf("failed to initialize Firestore client for database '%s': %v", cfg.FirestoreDatabaseID, err)
	}
	responses.Logger().Info("connected to Firestore", zap.String("database", cfg.FirestoreDatabaseID))
	return client
}

func main() {
	responses.InitLogger()
	cfg := config.Load()
	if len(cfg.JWTSecret) == 0 {
		log.Fatal("JWT_SECRET must be set")
	}

	ctx := context.Background()
	firestoreClient := initFirestoreClient(ctx, cfg)
	defer firestoreClient.Close()

	authService := auth.NewService(firestoreClient, cfg.JWTSecret)
	reportHandler := handlers.NewReportHandler(
		reconcile.NewService(),
		risk.NewService(),
		dues.NewService(),
		dashboard.NewService(),
	)
	authHandler := handlers.NewAuthHandler(authService)

	router := gin.Default()
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.RateLimitMiddleware(cfg.RateLimitRPS, cfg.RateLimitBurst))

	apiV1 := router.Group("/api/v1")
	{
		apiV1.POST("/login", authHandler.Login)
		protected := apiV1.Group("/")
		protected.Use(middleware.AuthMiddleware(cfg.JWTSecret))
		{
			protected.POST("/loans/arrears-collected", reportHandler.HandleArrearsCollected)
			protected.POST("/loans/risk-analysis", reportHandler.HandleRiskAnalysis)
			protected.POST("/loans/arrange-dues", reportHandler.HandleArrangeDues)
			protected.POST("/loans/executive-dashboard", reportHandler.HandleExecutiveDashboard)
		}
	}
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "UP"})
	})

	responses.Logger().Info("server listening", zap.String("port", cfg.Port))
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatal("failed to start server: ", err)
	}
}
