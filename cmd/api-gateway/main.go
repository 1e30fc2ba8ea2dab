package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/music-lessons-api/api/swagger"
	"github.com/noah-isme/music-lessons-api/internal/handler"
	internalmiddleware "github.com/noah-isme/music-lessons-api/internal/middleware"
	"github.com/noah-isme/music-lessons-api/internal/repository"
	"github.com/noah-isme/music-lessons-api/internal/service"
	"github.com/noah-isme/music-lessons-api/pkg/cache"
	"github.com/noah-isme/music-lessons-api/pkg/config"
	"github.com/noah-isme/music-lessons-api/pkg/database"
	"github.com/noah-isme/music-lessons-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/music-lessons-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/music-lessons-api/pkg/middleware/requestid"
	"github.com/noah-isme/music-lessons-api/pkg/storage"
)

// @title Music Lessons API
// @version 1.0.0
// @description Lesson scheduling, booking and reporting for admins, teachers and students.
// @BasePath /api
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
		if cfg.JWT.Secret == "" {
			logr.Fatal("JWT_SECRET must be set in production")
		}
	}

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(ctx, db.DB); err != nil {
			logr.Fatal("failed to apply migrations", zap.Error(err))
		}
		logr.Info("database migrations applied")
	}

	var redisClient *redis.Client
	if cfg.Analytics.CacheEnabled {
		redisClient, err = cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, analytics cache disabled", zap.Error(err))
			redisClient = nil
		}
	}

	fileStore, err := newFileStore(ctx, cfg)
	if err != nil {
		logr.Fatal("failed to init sheet music storage", zap.Error(err))
	}

	accountRepo := repository.NewAccountRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	teacherRepo := repository.NewTeacherRepository(db)
	lessonRepo := repository.NewLessonRepository(db)
	analyticsRepo := repository.NewAnalyticsRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, "music_lessons")
	defer cacheRepo.Close() //nolint:errcheck

	validate := service.NewValidator()
	tokens := service.NewTokenService(service.TokenConfig{
		Secret: cfg.JWT.Secret,
		Expiry: cfg.JWT.Expiration,
		Issuer: cfg.JWT.Issuer,
	})
	authService := service.NewAuthService(accountRepo, tokens, logr, service.AuthConfig{AdminSignupPIN: cfg.Auth.AdminSignupPIN})
	sheetMusic := service.NewSheetMusicService(fileStore, logr, service.SheetMusicConfig{
		MaxBytes:          cfg.Uploads.MaxFileSizeBytes,
		AllowedExtensions: cfg.Uploads.AllowedExtensions,
	})
	metricsService := service.NewMetricsService()
	cacheService := service.NewCacheService(cacheRepo, metricsService, cfg.Analytics.CacheTTL, logr, redisClient != nil)
	studentService := service.NewStudentService(studentRepo, sheetMusic, cacheService, validate, logr)
	teacherService := service.NewTeacherService(teacherRepo, sheetMusic, cacheService, validate, logr)
	adminService := service.NewAdminService(accountRepo, studentService, teacherService, cacheService, validate, logr)
	lessonService := service.NewLessonService(lessonRepo, studentRepo, teacherRepo, sheetMusic, cacheService, metricsService, validate, logr)
	analyticsService := service.NewAnalyticsService(analyticsRepo, cacheService, metricsService, logr)
	exportService := service.NewExportService(analyticsService, logr)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metricsService))

	checks := map[string]handler.Pinger{"database": db}
	if redisClient != nil {
		checks["redis"] = handler.PingFunc(cacheRepo.Ping)
	}
	handler.RegisterOps(r, handler.NewMetricsHandler(metricsService.Handler(), checks))

	handler.RegisterRoutes(r.Group(cfg.APIPrefix), authService, handler.Handlers{
		Auth:      handler.NewAuthHandler(authService),
		Student:   handler.NewStudentHandler(studentService, lessonService),
		Teacher:   handler.NewTeacherHandler(teacherService, lessonService),
		Admin:     handler.NewAdminHandler(adminService),
		Analytics: handler.NewAnalyticsHandler(analyticsService, exportService),
	}, handler.RouteOptions{LegacyTeacherRoutes: cfg.Legacy.TeacherRoutesEnabled})

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}

func newFileStore(ctx context.Context, cfg *config.Config) (storage.FileStore, error) {
	switch cfg.Uploads.Driver {
	case config.UploadsDriverS3:
		return storage.NewS3Storage(ctx, cfg.S3, cfg.Uploads.Dir)
	default:
		return storage.NewLocalStorage(cfg.Uploads.Dir)
	}
}
