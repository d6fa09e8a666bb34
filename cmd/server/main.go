package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"strings"
	"syscall"

	_ "recipeshop/docs" // swagger docs

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"recipeshop/internal/auth"
	"recipeshop/internal/cache"
	"recipeshop/internal/config"
	"recipeshop/internal/db"
	"recipeshop/internal/handler"
	"recipeshop/internal/logger"
	"recipeshop/internal/repository"
	"recipeshop/internal/router"
	"recipeshop/internal/service"
	"recipeshop/internal/storage"
)

// @title Recipe Shop API
// @version 1.0
// @description Users, a product catalog with orders, and recipes with tags and ingredients.
// @host localhost:8080
// @BasePath /api
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	cfg := config.MustLoad()

	log, err := logger.Init(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	gormDB, err := db.Open(cfg.DBDriver, cfg.DatabaseDSN)
	if err != nil {
		log.Fatal("database init", zap.Error(err))
	}

	// Drop tables if RESET_DB environment variable is set
	if cfg.ResetDB {
		log.Warn("RESET_DB=true detected, dropping all tables")
		db.Reset(gormDB)
	}

	// Run migrations for all models
	if err := db.Migrate(gormDB); err != nil {
		log.Fatal("auto-migrate", zap.Error(err))
	}

	store := newCache(ctx, cfg, log)

	disk, err := storage.New(ctx, cfg)
	if err != nil {
		log.Fatal("storage init", zap.Error(err))
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(gormDB)
	productRepo := repository.NewProductRepository(gormDB)
	orderRepo := repository.NewOrderRepository(gormDB)
	recipeRepo := repository.NewRecipeRepository(gormDB)
	tagRepo := repository.NewTagRepository(gormDB)
	ingredientRepo := repository.NewIngredientRepository(gormDB)

	// Initialize auth components
	jwtService := auth.NewJWTService(cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	tokenStore := auth.NewTokenStore(strictStore(store))

	// Initialize services
	authService := service.NewAuthService(userRepo, jwtService, tokenStore)
	userService := service.NewUserService(userRepo)
	productService := service.NewProductService(productRepo, store, cfg.ProductCacheTTL)
	orderService := service.NewOrderService(orderRepo, productRepo)
	recipeService := service.NewRecipeService(recipeRepo, disk)
	tagService := service.NewTagService(tagRepo)
	ingredientService := service.NewIngredientService(ingredientRepo)

	e := echo.New()
	router.Register(e, cfg, jwtService, disk, router.Handlers{
		Auth:       handler.NewAuthHandler(authService),
		User:       handler.NewUserHandler(userService),
		Product:    handler.NewProductHandler(productService),
		Order:      handler.NewOrderHandler(orderService),
		Recipe:     handler.NewRecipeHandler(recipeService, disk),
		Tag:        handler.NewTagHandler(tagService),
		Ingredient: handler.NewIngredientHandler(ingredientService),
	})

	log.Info("swagger documentation available", zap.String("url", swaggerURL(cfg)))

	go func() {
		addr := ":" + cfg.ServerPort
		log.Info("server starting", zap.String("addr", addr), zap.String("env", cfg.AppEnv))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server start", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown", zap.Error(err))
	}
	if closer, ok := store.(*cache.Client); ok {
		_ = closer.Close()
	}
	if sqlDB, err := gormDB.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

// newCache selects the cache backend. An unreachable redis is logged and kept:
// product list reads then degrade to the database, while token issue and
// revocation fail with 503 until it is back.
func newCache(ctx context.Context, cfg *config.Config, log *zap.Logger) cache.Store {
	if cfg.CacheDriver == "memory" {
		log.Info("using in-memory cache")
		return cache.NewMemory()
	}
	client := cache.New(cache.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPass,
		DB:       cfg.RedisDB,
		Timeout:  cfg.CacheTimeout,
	})
	if err := client.Ping(ctx); err != nil {
		log.Warn("redis unreachable, product lists uncached and token endpoints unavailable", zap.String("addr", cfg.RedisAddr), zap.Error(err))
	}
	return client
}

// strictStore returns the redis client in its error-reporting mode. Refresh
// tokens must not be reported as stored or revoked when redis dropped the write.
func strictStore(store cache.Store) cache.Store {
	if client, ok := store.(*cache.Client); ok {
		return client.Strict()
	}
	return store
}

func swaggerURL(cfg *config.Config) string {
	host := cfg.SwaggerHost
	if host == "" {
		host = "localhost:" + cfg.ServerPort
	}
	if !strings.HasPrefix(host, "http://") && !strings.HasPrefix(host, "https://") {
		host = "http://" + host
	}
	return host + "/swagger/index.html"
}
