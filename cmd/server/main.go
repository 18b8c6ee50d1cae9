// Package main runs the marketplace HTTP API with graceful shutdown.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/gigstage/backend/config"
	"github.com/gigstage/backend/internal/admin"
	"github.com/gigstage/backend/internal/auth"
	"github.com/gigstage/backend/internal/emaillogs"
	"github.com/gigstage/backend/internal/media"
	"github.com/gigstage/backend/internal/middleware"
	"github.com/gigstage/backend/internal/models"
	"github.com/gigstage/backend/internal/musicians"
	"github.com/gigstage/backend/internal/organizers"
	"github.com/gigstage/backend/internal/worker"
	"github.com/gigstage/backend/pkg/database"
	"github.com/gigstage/backend/pkg/queue"
	"github.com/gigstage/backend/pkg/redis"
	"github.com/gigstage/backend/pkg/response"
	"github.com/gigstage/backend/pkg/storage"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), database.PoolOptions{
		MaxConns:        int32(cfg.Database.MaxConns),
		MaxConnIdleTime: time.Duration(cfg.Database.MaxConnIdleMinutes) * time.Minute,
	}, logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool, logger); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}

	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	files, err := newFileStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("storage", zap.Error(err))
	}

	jobQueue := queue.NewQueue(rdb.Client, logger)
	cleaner := media.NewCleaner(files, jobQueue, logger)
	intake := media.NewIntake(cleaner)

	// Auth
	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpireHours)
	resetStore := auth.NewResetStore(rdb.Client, time.Duration(cfg.Reset.TokenTTLMinutes)*time.Minute)
	userRepo := auth.NewRepository(pool)
	authService := auth.NewService(userRepo, jwtService, resetStore, jobQueue, cleaner, cfg.Reset.FrontendURL, logger)
	authHandler := auth.NewHandler(authService, intake, logger)

	// Profiles
	musicianService := musicians.NewService(musicians.NewRepository(pool), cleaner, logger)
	musicianHandler := musicians.NewHandler(musicianService, intake, logger)
	organizerService := organizers.NewService(organizers.NewRepository(pool), cleaner, logger)
	organizerHandler := organizers.NewHandler(organizerService, intake, logger)

	// Admin
	adminService := admin.NewService(authService, userRepo, cleaner, logger, musicianService, organizerService)
	adminHandler := admin.NewHandler(adminService, intake, logger)
	emailLogRepo := emaillogs.NewRepository(pool)
	emailLogHandler := emaillogs.NewHandler(emailLogRepo, logger)

	response.UseJSONFieldNames()
	authenticate := middleware.Authenticate(jwtService, authService, logger)

	router := gin.New()
	router.Use(middleware.Recovery(logger))
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))
	router.Use(middleware.Metrics())
	router.MaxMultipartMemory = 32 << 20

	router.GET("/health", func(c *gin.Context) { response.OK(c, gin.H{"status": "ok"}) })
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	if local, ok := files.(*storage.Local); ok {
		router.Static("/"+storage.LocalMountPath, local.Root())
	}

	api := router.Group("/api")

	authGroup := api.Group("/auth")
	{
		authGroup.POST("/register", authHandler.Register)
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/forgot-password", authHandler.ForgotPassword)
		authGroup.POST("/reset-password/:token", authHandler.ResetPassword)
		authGroup.GET("/me", authenticate, authHandler.Me)
		authGroup.PUT("/profile/:id", authenticate, authHandler.UpdateProfile)
	}

	musicianHandler.Register(api.Group("/musicians"), authenticate)
	organizerHandler.Register(api.Group("/organizers"), authenticate)
	adminGroup := api.Group("/admin", authenticate, middleware.RequireRole(models.RoleAdmin))
	adminHandler.Register(adminGroup.Group("/users"))
	adminGroup.GET("/email-logs", emailLogHandler.List)

	router.NoRoute(func(c *gin.Context) { response.NotFound(c, "Route not found") })

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Background worker (emails, deferred file deletion)
	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()
	if cfg.Worker.Inline {
		processor := worker.NewProcessor(jobQueue, worker.NewMailer(cfg.Email, logger), files, logger)
		processor.RecordEmails(emailLogRepo)
		go processor.Run(workerCtx)
		logger.Info("inline worker started")
	}

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port), zap.String("storage", cfg.Storage.Driver))
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

func newFileStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (storage.FileStore, error) {
	if cfg.Storage.Driver == "s3" {
		return storage.NewS3(ctx, storage.S3Config{
			Region:          cfg.AWS.Region,
			AccessKeyID:     cfg.AWS.AccessKeyID,
			SecretAccessKey: cfg.AWS.SecretAccessKey,
			Bucket:          cfg.AWS.MediaBucket,
			Endpoint:        cfg.AWS.Endpoint,
		}, logger)
	}
	return storage.NewLocal(cfg.Storage.UploadDir, cfg.Storage.PublicBaseURL, logger)
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
