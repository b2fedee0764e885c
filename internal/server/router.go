package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/intentlab/intent-backend/internal/handlers"
	"github.com/intentlab/intent-backend/internal/middleware"
)

type RouterConfig struct {
	ServiceName        string
	AllowOrigins       []string
	AuthHandler        *handlers.AuthHandler
	AuthMiddleware     *middleware.AuthMiddleware
	IntentHandler      *handlers.IntentHandler
	AIHandler          *handlers.AIHandler
	MarketplaceHandler *handlers.MarketplaceHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	origins := cfg.AllowOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000", "http://localhost:5173"}
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))
	router.Use(otelgin.Middleware(cfg.ServiceName))

	// Public
	router.GET("/healthcheck", handlers.HealthCheck)
	api := router.Group("/api")
	api.POST("/auth/register", cfg.AuthHandler.Register)
	api.POST("/auth/login", cfg.AuthHandler.Login)

	// Protected
	protected := api.Group("/")
	protected.Use(cfg.AuthMiddleware.RequireAuth())
	// Intents
	protected.POST("/intents/create", cfg.IntentHandler.Create)
	protected.GET("/intents/list", cfg.IntentHandler.List)
	protected.GET("/intents/:id", cfg.IntentHandler.Get)
	protected.DELETE("/intents/:id", cfg.IntentHandler.Delete)
	protected.POST("/intents/:id/verify", cfg.IntentHandler.Verify)
	protected.POST("/intents/:id/track", cfg.IntentHandler.Track)
	protected.PATCH("/intents/:id/status", cfg.IntentHandler.UpdateStatus)
	// AI chat
	protected.POST("/ai/chat/:intentId", cfg.AIHandler.Chat)
	// Marketplace
	protected.POST("/marketplace/publish/:intentId", cfg.MarketplaceHandler.Publish)
	protected.GET("/marketplace/browse", cfg.MarketplaceHandler.Browse)
	protected.POST("/marketplace/purchase/:id", cfg.MarketplaceHandler.Purchase)

	return router
}
