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

	"whatstrumps/config"
	"whatstrumps/handlers"
	"whatstrumps/jobs"
	"whatstrumps/middleware"
	"whatstrumps/models"
	"whatstrumps/routes"
	"whatstrumps/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg := config.Load()

	logger, err := config.InitLogger(cfg)
	if err != nil {
		log.Fatal("Failed to initialize logger:", err)
	}
	defer logger.Sync()

	// Initialize database
	db, err := config.InitDB(cfg, logger)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}

	// Auto-migrate database models
	err = db.AutoMigrate(
		&models.User{},
		&models.SessionToken{},
		&models.Player{},
		&models.Game{},
		&models.GamePlayer{},
		&models.GameRound{},
		&models.GamePlayerGameRound{},
	)
	if err != nil {
		logger.Fatal("failed to migrate database", zap.Error(err))
	}

	// Initialize Redis
	redisClient, err := config.InitRedis(cfg, logger)
	if err != nil {
		logger.Warn("continuing without standings cache", zap.Error(err))
		redisClient = nil
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	stats, err := services.NewPlayerStats(db)
	if err != nil {
		logger.Fatal("failed to set up player statistics", zap.Error(err))
	}

	// Initialize services
	authService := services.NewAuthService(db, cfg.JWTSecret, cfg.TokenTTL, logger)
	playerService := services.NewPlayerService(db, stats)
	gameService := services.NewGameService(db, services.NewStandingsCache(redisClient, logger), logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize WebSocket hub
	hub := services.NewHub(gameService, logger)
	go hub.Run(ctx)

	cleaner, err := jobs.NewCleaner(authService, logger)
	if err != nil {
		logger.Fatal("failed to schedule cleanup jobs", zap.Error(err))
	}
	cleaner.Start()
	defer cleaner.Stop()

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService)
	playerHandler := handlers.NewPlayerHandler(playerService)
	gameHandler := handlers.NewGameHandler(gameService, hub, cfg.CORSOrigins)

	if !cfg.Development() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(logger))
	router.Use(middleware.CORS(cfg.CORSOrigins))

	routes.SetupRoutes(router, authHandler, playerHandler, gameHandler, authService, logger)

	srv := &http.Server{
		Addr:    cfg.Addr(),
		Handler: router,
	}

	go func() {
		logger.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.AppEnv))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("failed to start server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", zap.Error(err))
	}
}
