// Package main runs the visitor management HTTP server with graceful shutdown.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/lobbypass/backend/config"
	"github.com/lobbypass/backend/internal/auth"
	"github.com/lobbypass/backend/internal/badges"
	"github.com/lobbypass/backend/internal/checkin"
	"github.com/lobbypass/backend/internal/middleware"
	"github.com/lobbypass/backend/internal/models"
	"github.com/lobbypass/backend/internal/notifications"
	"github.com/lobbypass/backend/internal/reports"
	"github.com/lobbypass/backend/internal/tenants"
	"github.com/lobbypass/backend/internal/visitors"
	"github.com/lobbypass/backend/internal/worker"
	"github.com/lobbypass/backend/pkg/database"
	"github.com/lobbypass/backend/pkg/queue"
	"github.com/lobbypass/backend/pkg/redis"
	"github.com/lobbypass/backend/pkg/response"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}

	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpireHours)

	// Auth / staff users
	authRepo := auth.NewRepository(pool)
	authHandler := auth.NewHandler(authRepo, jwtService, logger)

	// Tenants
	tenantRepo := tenants.NewRepository(pool)
	tenantHandler := tenants.NewHandler(tenantRepo, authRepo, logger)

	// Visitors
	visitorRepo := visitors.NewRepository(pool)
	visitorHandler := visitors.NewHandler(visitorRepo, authRepo, tenantRepo, logger)

	// Badge inventory
	badgeRepo := badges.NewRepository(pool)
	statsTTL := time.Duration(cfg.Badges.StatsCacheTTLSeconds) * time.Second
	badgeHandler := badges.NewHandler(badgeRepo, rdb.Client, statsTTL, logger)

	// Check-in/check-out coordinator
	coordinator := checkin.NewCoordinator(visitorRepo, badgeRepo, logger)
	var jobQueue *queue.Queue
	if cfg.Notify.Enabled {
		jobQueue = queue.NewQueue(rdb.Client, logger)
	}
	checkinHandler := checkin.NewHandler(coordinator, jobQueue, logger)

	// Notifications audit trail
	notificationRepo := notifications.NewRepository(pool)
	notificationHandler := notifications.NewHandler(notificationRepo)
	notificationProcessor := worker.NewNotificationProcessor(notificationRepo, worker.LogSender{Logger: logger}, jobQueue, logger)

	// On-site roster / occupancy
	reportHandler := reports.NewHandler(visitorRepo, logger)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))

	// Health
	router.GET("/health", func(c *gin.Context) { response.OK(c, gin.H{"status": "ok"}) })

	// Public: self-service lookup by visitor_code or guest_code
	router.GET("/visitors/code/:code", visitorHandler.GetByCode)

	// Auth (public)
	router.POST("/auth/login", authHandler.Login)

	reception := []string{string(models.RoleReception), string(models.RoleAdmin), string(models.RoleSuperAdmin)}
	security := []string{string(models.RoleSecurity), string(models.RoleAdmin), string(models.RoleSuperAdmin)}
	admin := []string{string(models.RoleAdmin), string(models.RoleSuperAdmin)}

	// Protected API (JWT required)
	api := router.Group("")
	api.Use(middleware.JWT(jwtService))
	{
		// Staff management (admin only)
		api.POST("/auth/register", middleware.RequireRole(admin...), authHandler.Register)
		api.GET("/users", middleware.RequireRole(admin...), authHandler.List)

		// Tenants
		api.GET("/tenants", tenantHandler.List)
		api.POST("/tenants", middleware.RequireRole(admin...), tenantHandler.Create)
		api.GET("/tenants/:id/hosts", tenantHandler.ListHosts)

		// Visitors
		api.POST("/visitors", middleware.RequireRole(reception...), visitorHandler.Create)
		api.GET("/visitors", visitorHandler.List)
		api.GET("/visitors/onsite", reportHandler.Onsite)
		api.GET("/visitors/:id", visitorHandler.GetByID)
		api.PATCH("/visitors/:id", middleware.RequireRole(reception...), visitorHandler.Update)
		api.GET("/visitors/:id/notifications", notificationHandler.ListByVisitor)

		// Check-in / check-out / cancel
		api.POST("/visitors/:id/checkin", middleware.RequireRole(reception...), checkinHandler.CheckIn)
		api.POST("/visitors/:id/checkout", middleware.RequireRole(append(security, string(models.RoleReception))...), checkinHandler.CheckOut)
		api.POST("/visitors/:id/cancel", middleware.RequireRole(reception...), checkinHandler.Cancel)

		// Badge inventory
		api.GET("/badges", middleware.RequireRole(security...), badgeHandler.List)
		api.POST("/badges", middleware.RequireRole(admin...), badgeHandler.Provision)
		api.PATCH("/badges/:id/status", middleware.RequireRole(security...), badgeHandler.SetStatus)
		api.GET("/badges/stats", badgeHandler.Stats)
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Background worker (host notifications)
	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()
	if jobQueue != nil {
		go notificationProcessor.Run(workerCtx)
		logger.Info("notification worker started")
	}

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	workerCancel()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
