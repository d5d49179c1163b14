package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/anillosguillen/catalog_api/internal/cache"
	"github.com/anillosguillen/catalog_api/internal/config"
	"github.com/anillosguillen/catalog_api/internal/database"
	"github.com/anillosguillen/catalog_api/internal/handler"
	"github.com/anillosguillen/catalog_api/internal/middleware"
	"github.com/anillosguillen/catalog_api/internal/repository"
	"github.com/anillosguillen/catalog_api/internal/service"
	"github.com/anillosguillen/catalog_api/internal/sse"
	"github.com/anillosguillen/catalog_api/internal/worker"
)

// main is the entrypoint of the ring catalog API.
func main() {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// 2. Setup logger
	setupLogger(cfg.Env)
	log.Info().Str("env", cfg.Env).Msg("starting catalog api")

	// 3. Connect database
	db, err := database.Connect(&cfg.DB)
	if err != nil {
		log.Error().Err(err).Msg("database connection failed")
		fmt.Fprintf(os.Stderr, "database connection failed: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	// 3a. Run migrations
	if err := runMigrations(db.DB); err != nil {
		log.Error().Err(err).Msg("migration failed")
		fmt.Fprintf(os.Stderr, "migration failed: %v\n", err)
		os.Exit(1)
	}
	log.Info().Msg("migrations completed successfully")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 3b. Connect to Redis. The catalog is served straight from Postgres
	// when the cache is unreachable.
	var (
		catalogCache service.CatalogCacher
		invalidator  service.CacheInvalidator
		redisPinger  handler.Pinger
	)
	redisClient, err := cache.NewRedisClient(&cfg.Redis)
	if err != nil {
		log.Warn().Err(err).Msg("redis unavailable - catalog cache disabled")
	} else {
		defer redisClient.Close()
		cc := cache.NewCatalogCache(redisClient, cfg.CatalogCacheTTL)
		catalogCache, invalidator, redisPinger = cc, cc, redisClient
		log.Info().Msg("redis connected successfully")
	}

	// 4. Repositories
	ringRepo := repository.NewRingRepository(db)

	// 5. Object storage is optional for the API: image and import endpoints
	// answer 503 without it.
	var (
		images service.ImageStore
		runner service.ImportRunner
	)
	s3Svc, err := service.NewS3Service(ctx, &cfg.S3)
	switch {
	case errors.Is(err, config.ErrUnconfigured):
		log.Warn().Err(err).Msg("object storage not configured - image upload and import disabled")
	case err != nil:
		log.Error().Err(err).Msg("object storage initialization failed")
		os.Exit(1)
	default:
		images = s3Svc
		wp, err := service.NewWordPressImporter(&cfg.Import, ringRepo, s3Svc)
		if err != nil {
			log.Error().Err(err).Msg("importer initialization failed")
			os.Exit(1)
		}
		runner = wp
	}

	// 6. Services
	adminAuthSvc, err := service.NewAdminAuthService(&cfg.Admin)
	if err != nil {
		log.Error().Err(err).Msg("admin auth initialization failed")
		os.Exit(1)
	}
	hub := sse.NewHub()
	ringSvc := service.NewRingService(ringRepo, images, invalidator)
	catalogSvc := service.NewCatalogService(ringRepo, catalogCache)
	importSvc := service.NewImportService(runner, hub, invalidator)

	// 7. Middleware
	loginLimiter := middleware.NewLoginRateLimiter(12*time.Second, 5)
	go loginLimiter.Cleanup(30*time.Minute, ctx.Done())
	sessionMw := middleware.NewSessionMiddleware(adminAuthSvc)

	// 8. Handlers
	handlers := &Handlers{
		Health:  handler.NewHealthHandler(ringRepo, redisPinger),
		Catalog: handler.NewCatalogHandler(catalogSvc),
		Auth:    handler.NewAuthHandler(adminAuthSvc, loginLimiter, cfg.Env == "production"),
		Ring:    handler.NewRingHandler(ringSvc),
		Image:   handler.NewImageHandler(ringSvc),
		Import:  handler.NewImportHandler(importSvc, hub),
	}

	// 8a. Scheduled re-import
	if runner != nil && cfg.Import.Interval > 0 {
		go worker.NewImportWorker(importSvc, cfg.Import.Interval).Start(ctx)
	}

	// 9. Setup router
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))
	router.Use(middleware.LoggingMiddleware())
	setupRoutes(router, handlers, sessionMw, loginLimiter)

	// 10. Start HTTP server
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// 11. Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")
	cancel()

	// 12. Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited")
}

// Handlers groups all HTTP handlers used by the server.
type Handlers struct {
	Health  *handler.HealthHandler
	Catalog *handler.CatalogHandler
	Auth    *handler.AuthHandler
	Ring    *handler.RingHandler
	Image   *handler.ImageHandler
	Import  *handler.ImportHandler
}

// setupRoutes registers all routes.
func setupRoutes(router *gin.Engine, handlers *Handlers, sessionMw *middleware.SessionMiddleware, loginLimiter *middleware.LoginRateLimiter) {
	router.GET("/v1/health", handlers.Health.GetHealth)

	// Public storefront
	router.GET("/v1/catalog", handlers.Catalog.List)
	router.GET("/v1/catalog/:slug", handlers.Catalog.Get)

	// Admin session
	router.POST("/v1/admin/auth/login", loginLimiter.Handle(), handlers.Auth.Login)
	router.POST("/v1/admin/auth/logout", handlers.Auth.Logout)

	admin := router.Group("/v1/admin")
	admin.Use(sessionMw.Handle())
	{
		admin.GET("/auth/me", handlers.Auth.Me)

		admin.GET("/rings", handlers.Ring.List)
		admin.POST("/rings", handlers.Ring.Create)
		admin.PUT("/rings/order", handlers.Ring.Reorder)
		admin.GET("/rings/:id", handlers.Ring.Get)
		admin.PUT("/rings/:id", handlers.Ring.Update)
		admin.DELETE("/rings/:id", handlers.Ring.Delete)
		admin.PATCH("/rings/:id/active", handlers.Ring.ToggleActive)

		admin.POST("/images", handlers.Image.Upload)
		admin.DELETE("/images", handlers.Image.Delete)

		admin.POST("/import/wordpress", handlers.Import.Run)
		admin.GET("/import/events", handlers.Import.Events)
	}
}

// runMigrations runs database migrations using golang-migrate.
func runMigrations(db *sql.DB) error {
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		"file://migrations",
		"postgres", driver)
	if err != nil {
		return fmt.Errorf("could not create migration instance: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("could not run migrations: %w", err)
	}

	return nil
}

func setupLogger(env string) {
	if env == "production" {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
}
