package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"civic_reporter/internal/analysis"
	"civic_reporter/internal/config"
	"civic_reporter/internal/geo"
	"civic_reporter/internal/handler"
	"civic_reporter/internal/metrics"
	"civic_reporter/internal/middleware"
	"civic_reporter/internal/repository"
	"civic_reporter/internal/service"
	"civic_reporter/internal/session"
	"civic_reporter/internal/storage"
	"civic_reporter/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found or error loading, relying on environment variables")
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	// --- Configuration ---
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}
	dbCfg, err := config.LoadDBConfig()
	if err != nil {
		logger.Fatal("failed to load DB config", zap.Error(err))
	}
	jurisdictions, err := config.LoadJurisdictions(cfg.JurisdictionsFile)
	if err != nil {
		logger.Fatal("failed to load jurisdictions", zap.Error(err))
	}

	// Ensure uploads directory exists
	if err := os.MkdirAll(cfg.UploadsDir, os.ModePerm); err != nil {
		logger.Fatal("failed to create uploads directory", zap.String("dir", cfg.UploadsDir), zap.Error(err))
	}

	ctx := context.Background()

	// --- Database Connection ---
	dbPool, err := config.ConnectDB(ctx, dbCfg, logger)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer dbPool.Close()

	// --- Auto Migration ---
	if err := config.AutoMigrate(ctx, dbPool, logger); err != nil {
		logger.Fatal("failed to auto-migrate database", zap.Error(err))
	}

	// --- Redis ---
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPass,
		DB:       cfg.RedisDB,
		PoolSize: 10,
	})
	defer redisClient.Close()
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	err = redisClient.Ping(pingCtx).Err()
	cancel()
	if err != nil {
		logger.Fatal("failed to connect to redis", zap.String("addr", cfg.RedisAddr), zap.Error(err))
	}
	logger.Info("connected to redis", zap.String("addr", cfg.RedisAddr))

	// --- Initialize Utilities ---
	jwtUtil := utils.NewJWTUtil(cfg.JWTSecret, cfg.SessionTTL)
	m := metrics.New()
	images := storage.NewLocalImageStore(cfg.UploadsDir)

	// --- Initialize Repositories ---
	citizenRepo := repository.NewCitizenRepository(dbPool, cfg.BackendTimeout)
	staffRepo := repository.NewStaffRepository(dbPool, cfg.BackendTimeout)
	issueRepo := repository.NewIssueRepository(dbPool, cfg.BackendTimeout)

	// --- Initialize Services ---
	sessions := session.NewManager(session.NewRedisStore(redisClient), jwtUtil, cfg.BackendTimeout)
	authService := service.NewAuthService(citizenRepo, staffRepo, sessions, session.NewRateLimiter(redisClient), cfg.SessionTTL, m, logger)
	issueService := service.NewIssueService(service.IssueServiceDeps{
		Repo:     issueRepo,
		Images:   images,
		Analyzer: analysis.NewKeywordAnalyzer(),
		Resolver: geo.NewResolver(jurisdictions),
		Geocoder: geo.CoordinateGeocoder{Region: "Jharkhand, India"},
		Metrics:  m,
		Logger:   logger,
		Timeout:  cfg.BackendTimeout,
	})

	// --- Initialize Handlers ---
	authHandler := handler.NewAuthHandler(authService, logger)
	issueHandler := handler.NewIssueHandler(issueService, images, logger)

	// --- Setup Gin Router ---
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.MaxMultipartMemory = int64(storage.MaxImages+1) * storage.MaxImageSize
	router.Use(
		middleware.RecoveryMiddleware(logger),
		middleware.LoggingMiddleware(logger),
		m.Middleware(),
		middleware.CORSMiddleware(),
	)

	// --- Register Routes ---
	apiGroup := router.Group("/api/v1") // Base path for API
	apiGroup.Use(middleware.SessionMiddleware(authService, logger))
	authHandler.RegisterAuthRoutes(apiGroup, middleware.AdminMiddleware())
	issueHandler.RegisterIssueRoutes(apiGroup,
		middleware.CitizenMiddleware(),
		middleware.AdminMiddleware(),
		middleware.MunicipalityMiddleware(),
	)
	issueHandler.RegisterImageRoutes(router)

	router.GET("/metrics", gin.WrapH(m.Handler()))
	router.GET("/health", func(c *gin.Context) {
		hctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		dbStatus, redisStatus := "healthy", "healthy"
		if err := dbPool.Ping(hctx); err != nil {
			dbStatus = "unhealthy"
		}
		if err := redisClient.Ping(hctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
		status := http.StatusOK
		if dbStatus != "healthy" || redisStatus != "healthy" {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{"db": dbStatus, "redis": redisStatus})
	})

	// --- Start Server ---
	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server starting", zap.String("port", cfg.ServerPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("listen", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}

	logger.Info("server exiting")
}
