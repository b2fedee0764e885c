package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/intentlab/intent-backend/internal/clients/redis"
	"github.com/intentlab/intent-backend/internal/db"
	"github.com/intentlab/intent-backend/internal/handlers"
	"github.com/intentlab/intent-backend/internal/logger"
	"github.com/intentlab/intent-backend/internal/middleware"
	"github.com/intentlab/intent-backend/internal/observability"
	"github.com/intentlab/intent-backend/internal/repos"
	"github.com/intentlab/intent-backend/internal/server"
	"github.com/intentlab/intent-backend/internal/services"
	"github.com/intentlab/intent-backend/internal/utils"
)

func main() {
	ctx := context.Background()

	// Logger
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Env
	log.Info("Loading environment variables from main...")
	jwtSecretKey := utils.GetEnv("JWT_SECRET_KEY", "defaultsecret", log)
	port := utils.GetEnv("PORT", "8080", log)
	allowOrigins := utils.GetEnv("CORS_ALLOW_ORIGINS", "", log)

	// Tracing
	otelShutdown := observability.InitOTel(ctx, log, observability.OtelConfig{
		ServiceName: "intent-backend",
		Environment: utils.GetEnv("APP_ENV", "development", log),
		Version:     utils.GetEnv("APP_VERSION", "dev", log),
	})
	if otelShutdown != nil {
		defer func() {
			_ = otelShutdown(context.Background())
		}()
	}

	// Postgres
	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Fatal("Postgres init failed", "error", err)
	}
	if err = postgresService.AutoMigrateAll(); err != nil {
		log.Fatal("Postgres auto migration failed", "error", err)
	}
	thePG := postgresService.DB()

	// Repos
	log.Info("Setting up Repos from main...")
	userRepo := repos.NewUserRepo(thePG, log)
	intentRepo := repos.NewIntentRepo(thePG, log)
	stageRepo := repos.NewIntentStageRepo(thePG, log)
	recordRepo := repos.NewVerificationRecordRepo(thePG, log)
	convoRepo := repos.NewAIConversationRepo(thePG, log)
	progressRepo := repos.NewIntentProgressRepo(thePG, log)
	marketplaceRepo := repos.NewMarketplaceRepo(thePG, log)
	callLogRepo := repos.NewArkCallLogRepo(thePG, log)

	// Redis (optional)
	cache, err := redis.NewCacheFromEnv(ctx, log)
	if err != nil {
		log.Warn("Redis init failed, continuing without cache", "error", err)
		cache = nil
	}
	if cache != nil {
		defer func() {
			_ = cache.Close()
		}()
	}

	// Services
	log.Info("Setting up Services from main...")
	arkClient, err := services.NewArkClientFromEnv(log, callLogRepo)
	if err != nil {
		log.Error("Could not init ArkClient", "error", err)
		os.Exit(1)
	}
	minerService := services.NewIntentMinerService(log, arkClient)
	plannerService := services.NewStagePlannerService(log, arkClient)
	verificationService := services.NewVerificationService(thePG, log, arkClient, intentRepo, recordRepo, convoRepo, progressRepo)
	evolutionService := services.NewEvolutionService(thePG, log, arkClient, intentRepo, stageRepo, progressRepo)
	chatService := services.NewChatService(thePG, log, arkClient, intentRepo, convoRepo)
	authService := services.NewAuthService(thePG, log, jwtSecretKey, userRepo)
	intentService := services.NewIntentService(
		thePG, log,
		minerService, plannerService, verificationService, evolutionService,
		intentRepo, stageRepo, recordRepo, convoRepo, progressRepo, marketplaceRepo,
	)
	marketplaceService := services.NewMarketplaceService(thePG, log, cache, intentRepo, stageRepo, marketplaceRepo)

	// Handlers
	log.Info("Setting up Handlers from main...")
	authHandler := handlers.NewAuthHandler(authService)
	intentHandler := handlers.NewIntentHandler(intentService)
	aiHandler := handlers.NewAIHandler(intentService, chatService)
	marketplaceHandler := handlers.NewMarketplaceHandler(marketplaceService)
	authMiddleware := middleware.NewAuthMiddleware(log, authService)

	// Router
	var origins []string
	if allowOrigins != "" {
		for _, o := range strings.Split(allowOrigins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
	}
	router := server.NewRouter(server.RouterConfig{
		ServiceName:        "intent-backend",
		AllowOrigins:       origins,
		AuthHandler:        authHandler,
		AuthMiddleware:     authMiddleware,
		IntentHandler:      intentHandler,
		AIHandler:          aiHandler,
		MarketplaceHandler: marketplaceHandler,
	})

	log.Info("Starting server", "port", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatal("Server exited", "error", err)
	}
}
