package main

import (
	"context"
	"fmt"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/shevett/claimit/internal/api"
	"github.com/shevett/claimit/internal/auth"
	"github.com/shevett/claimit/internal/cache"
	"github.com/shevett/claimit/internal/config"
	"github.com/shevett/claimit/internal/db"
	"github.com/shevett/claimit/internal/marketplace"
	"github.com/shevett/claimit/internal/notify"
	"github.com/shevett/claimit/internal/observ"
	"github.com/shevett/claimit/internal/repository/postgres"
	"github.com/shevett/claimit/internal/storage"
	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := observ.NewLogger(cfg.Env, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer logger.Sync()

	// Startup has no request deadline; Background is the right root here.
	ctx := context.Background()

	database, err := db.New(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer database.Close()

	if err := database.Migrate(ctx); err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}

	readCache, err := cache.NewRedis(ctx, cfg.RedisURL, logger)
	if err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}
	defer readCache.Close()

	objects, err := storage.NewDisk(cfg.StorageDir, cfg.PublicURL, cfg.StorageSecret)
	if err != nil {
		return fmt.Errorf("open object storage: %w", err)
	}

	pool := database.Pool()
	itemRepo := postgres.NewItemStore(pool)
	claimRepo := postgres.NewClaimStore(pool)
	communityRepo := postgres.NewCommunityStore(pool)
	userRepo := postgres.NewUserStore(pool)

	dispatcher := notify.NewDispatcher(userRepo,
		notify.NewSMTPTransport(cfg.SMTPAddr, cfg.SMTPFrom), logger)
	defer dispatcher.Wait()

	svc := marketplace.NewService(
		itemRepo, claimRepo, communityRepo, userRepo,
		objects, readCache, cfg.CacheTTL, dispatcher, logger,
	)

	// The dev provider only understands synthetic codes; a production
	// deployment swaps in a real OAuth implementation here.
	var provider auth.IdentityProvider = auth.NewDevProvider()

	srv := gin.New()
	srv.Use(gin.Logger(), gin.Recovery())

	api.RegisterRoutes(srv, api.Handlers{
		Auth:      api.NewAuthHandler(provider, userRepo, cfg.JWTSecret, cfg.SessionTTL, logger),
		User:      api.NewUserHandler(userRepo, svc, logger),
		Item:      api.NewItemHandler(svc, logger),
		Claim:     api.NewClaimHandler(svc, logger),
		Community: api.NewCommunityHandler(svc, logger),
		Image:     api.NewImageHandler(objects, logger),
	}, cfg.JWTSecret)

	logger.Info("starting claimit",
		zap.String("port", cfg.Port),
		zap.String("env", cfg.Env),
		zap.Duration("cache_ttl", cfg.CacheTTL),
	)

	return srv.Run(":" + cfg.Port)
}
