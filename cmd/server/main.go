package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fleetops/internal/config"
	"fleetops/internal/handlers"
	"fleetops/internal/middleware"
	"fleetops/internal/repositories/mongodb"
	"fleetops/internal/services"
	"fleetops/pkg/cache"
	"fleetops/pkg/database"
	"fleetops/pkg/logger"
	"fleetops/pkg/storage"
	"fleetops/routes"

	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.NewLogger(&logger.Config{
		Level:  logger.LogLevel(cfg.App.LogLevel),
		Format: "json",
		Output: "stdout",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}

	// Mongo is the source of truth; refuse to start without it.
	db, err := database.NewMongoDB(&database.DatabaseConfig{
		URI:            cfg.Database.URI,
		Database:       cfg.Database.Database,
		MaxPoolSize:    cfg.Database.MaxPoolSize,
		MinPoolSize:    cfg.Database.MinPoolSize,
		ConnectTimeout: cfg.Database.ConnectTimeout,
		SocketTimeout:  cfg.Database.SocketTimeout,
	})
	if err != nil {
		log.Fatalf("failed to connect to mongodb: %v", err)
	}
	defer db.Close()

	if err := database.NewMigrator(db.Database).Up(); err != nil {
		log.Fatalf("migrations failed: %v", err)
	}

	// Redis is the cache tier. A dead Redis degrades to an in-process
	// cache instead of blocking startup.
	var store cache.Store
	var geo services.GeoStore
	redisCache, err := cache.NewRedisCache(&cache.RedisConfig{
		Host:         cfg.Redis.Host,
		Port:         cfg.Redis.Port,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
		DialTimeout:  cfg.Redis.DialTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
	})
	if err != nil {
		log.WithError(err).Warn("redis unavailable, falling back to in-memory cache")
		store = cache.NewMemoryCache()
	} else {
		store = redisCache
		geo = redisCache
		defer redisCache.Close()
	}

	provider, err := buildStorageProvider(cfg.Storage)
	if err != nil {
		log.Fatalf("failed to init storage: %v", err)
	}

	// Repositories
	movementRepo := mongodb.NewMovementRepository(db.Database)
	preparationRepo := mongodb.NewPreparationRepository(db.Database)
	userRepo := mongodb.NewUserRepository(db.Database)
	positionRepo := mongodb.NewPositionRepository(db.Database)

	// Services
	cacheService := services.NewCacheService(store, log, cfg.Workflow.CacheTTL)
	uploadService := services.NewUploadService(provider, log)
	movementService := services.NewMovementService(movementRepo, userRepo, uploadService, cacheService, log)
	preparationService := services.NewPreparationService(preparationRepo, userRepo, uploadService, cacheService, log)
	trackingService := services.NewTrackingService(movementRepo, positionRepo, geo, log)

	// Handlers
	movementHandler := handlers.NewMovementHandler(movementService, trackingService)
	preparationHandler := handlers.NewPreparationHandler(preparationService)
	uploadHandler := handlers.NewUploadHandler(uploadService)

	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggingMiddleware(log))

	v1 := router.Group("/api/v1")
	{
		routes.SetupMovementRoutes(v1, movementHandler, cfg.Security.JWTSecret)
		routes.SetupPreparationRoutes(v1, preparationHandler, cfg.Security.JWTSecret)
		routes.SetupUploadRoutes(v1, uploadHandler, cfg.Security.JWTSecret)
	}

	router.GET("/health", func(c *gin.Context) {
		status := "healthy"
		code := http.StatusOK

		if err := db.Ping(); err != nil {
			status = "degraded"
			code = http.StatusServiceUnavailable
		}
		cacheStatus := "ok"
		if err := cacheService.Ping(c.Request.Context()); err != nil {
			cacheStatus = "unavailable"
		}

		c.JSON(code, gin.H{
			"status":  status,
			"cache":   cacheStatus,
			"version": cfg.App.Version,
		})
	})

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.App.Port),
		Handler: router,
	}

	go func() {
		log.Infof("server listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Errorf("forced shutdown: %v", err)
	}
}

func buildStorageProvider(cfg *config.StorageConfig) (storage.Provider, error) {
	switch cfg.Provider {
	case "s3", "aws":
		return storage.NewAWSS3Storage(cfg.AWS.Region, cfg.AWS.Bucket, cfg.AWS.CDNDomain)
	case "gcs", "gcp":
		return storage.NewGCPStorage(cfg.GCP.ProjectID, cfg.GCP.Bucket, cfg.GCP.CredentialsFile, cfg.GCP.CDNDomain)
	default:
		return storage.NewLocalStorage(cfg.Local.BasePath, cfg.Local.BaseURL)
	}
}
