// internal/app/server.go
package app

import (
	"context"
	"fmt"
	"log"

	"dukani-service/internal/config"
	"dukani-service/internal/db"
	authHandler "dukani-service/internal/handlers/auth"
	customerHandler "dukani-service/internal/handlers/customer"
	planHandler "dukani-service/internal/handlers/plan"
	subscriptionHandler "dukani-service/internal/handlers/subscription"
	"dukani-service/internal/middleware"
	"dukani-service/internal/pkg/jwt"
	"dukani-service/internal/repository/postgres"
	authUsecase "dukani-service/internal/service/auth"
	customerUsecase "dukani-service/internal/service/customer"
	planUsecase "dukani-service/internal/service/plan"
	subscriptionUsecase "dukani-service/internal/service/subscription"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Server struct {
	cfg    config.AppConfig
	engine *gin.Engine
	logger *zap.Logger
}

func NewServer() *Server {
	cfg := config.Load()
	engine := gin.New()
	return &Server{cfg: cfg, engine: engine}
}

func (s *Server) Start() error {
	ctx := context.Background()

	// ----- Logger -----
	logger, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer logger.Sync()
	s.logger = logger

	// ----- PostgreSQL -----
	pool, err := db.ConnectDB(ctx, s.cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}

	// ----- Redis -----
	redisClient, err := db.NewRedisClient(db.RedisConfig{
		Addr:     s.cfg.RedisAddr,
		Password: s.cfg.RedisPass,
		DB:       0,
		PoolSize: 10,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}
	logger.Info("redis connected", zap.String("addr", s.cfg.RedisAddr))

	// ----- JWT Manager -----
	jwtManager, err := jwt.NewManager(s.cfg.JWT)
	if err != nil {
		return fmt.Errorf("failed to build JWT manager: %w", err)
	}

	// ----- Repositories -----
	dbWrapper := postgres.NewDB(pool)
	planRepo := postgres.NewPlanRepository(pool)
	orderRepo := postgres.NewPlanOrderRepository(dbWrapper)
	sellerRepo := postgres.NewSellerRepository(pool)
	customerRepo := postgres.NewCustomerRepository(pool)

	// ----- Services -----
	validityCache := subscriptionUsecase.NewValidityCache(redisClient)
	subscriptionService := subscriptionUsecase.NewSubscriptionService(
		planRepo,
		orderRepo,
		sellerRepo,
		validityCache,
		logger,
	)
	authService := authUsecase.NewAuthService(sellerRepo, jwtManager, logger)
	planService := planUsecase.NewPlanService(planRepo, logger)
	customerService := customerUsecase.NewCustomerService(customerRepo, subscriptionService, logger)

	// ----- Bootstrap Admin -----
	if s.cfg.AdminEmail != "" && s.cfg.AdminPassword != "" {
		if err := authService.EnsureAdminExists(ctx, s.cfg.AdminEmail, s.cfg.AdminPassword, s.cfg.AdminName); err != nil {
			logger.Error("failed to ensure admin account", zap.Error(err))
		}
	}

	// ----- Handlers -----
	authHandlerInst := authHandler.NewAuthHandler(authService, logger)
	planHandlerInst := planHandler.NewPlanHandler(planService)
	subscriptionHandlerInst := subscriptionHandler.NewSubscriptionHandler(subscriptionService)
	watchHandlerInst := subscriptionHandler.NewWatchHandler(subscriptionService, logger)
	customerHandlerInst := customerHandler.NewCustomerHandler(customerService)

	// ----- Middlewares -----
	authMiddleware := middleware.NewAuthMiddleware(authService)
	subscriptionGuard := middleware.NewSubscriptionGuard(subscriptionService, validityCache, logger)

	s.engine.Use(
		middleware.RecoveryMiddleware(logger),
		middleware.LoggingMiddleware(logger),
		middleware.CORSMiddleware(),
	)

	// ----- Router -----
	handlers := &Handlers{
		AuthHandler:         authHandlerInst,
		PlanHandler:         planHandlerInst,
		SubscriptionHandler: subscriptionHandlerInst,
		WatchHandler:        watchHandlerInst,
		CustomerHandler:     customerHandlerInst,
		AuthMiddleware:      authMiddleware,
		SubscriptionGuard:   subscriptionGuard,
		DB:                  dbWrapper,
	}
	SetupRouter(s.engine, logger, handlers)

	// ----- Start HTTP -----
	log.Printf("server running on %s", s.cfg.HTTPAddr)
	return s.engine.Run(s.cfg.HTTPAddr)
}
