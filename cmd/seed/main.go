package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"recipeshop/internal/cache"
	"recipeshop/internal/config"
	"recipeshop/internal/db"
	"recipeshop/internal/logger"
	"recipeshop/internal/repository"
	"recipeshop/internal/service"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "seed",
	Short:         "Seed the recipeshop database",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var (
	superuserEmail    string
	superuserPassword string
)

var superuserCmd = &cobra.Command{
	Use:   "superuser",
	Short: "Create an active staff user",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := setup()
		if err != nil {
			return err
		}
		defer env.close()

		users := service.NewUserService(repository.NewUserRepository(env.db))
		user, err := users.CreateSuperuser(cmd.Context(), superuserEmail, superuserPassword)
		if err != nil {
			return fmt.Errorf("create superuser: %w", err)
		}
		logger.L().Info("superuser created", zap.Uint("id", user.ID), zap.String("email", user.Email))
		return nil
	},
}

func init() {
	superuserCmd.Flags().StringVar(&superuserEmail, "email", "", "superuser email")
	superuserCmd.Flags().StringVar(&superuserPassword, "password", "", "superuser password")
	_ = superuserCmd.MarkFlagRequired("email")
	_ = superuserCmd.MarkFlagRequired("password")

	productsCmd.Flags().StringVar(&productsFile, "file", "", "path to a JSON product list")
	productsCmd.Flags().StringVar(&productsURL, "url", "", "URL serving a JSON product list")
	productsCmd.MarkFlagsMutuallyExclusive("file", "url")
	productsCmd.MarkFlagsOneRequired("file", "url")

	rootCmd.AddCommand(superuserCmd)
	rootCmd.AddCommand(productsCmd)
}

type seedEnv struct {
	db    *gorm.DB
	store cache.Store
}

// setup loads configuration, connects and migrates the database, and opens
// the cache so seeded writes invalidate cached product lists.
func setup() (*seedEnv, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if _, err := logger.Init(cfg.LogLevel, cfg.LogFormat); err != nil {
		return nil, err
	}

	gormDB, err := db.Open(cfg.DBDriver, cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if err := db.Migrate(gormDB); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}

	var store cache.Store = cache.NewMemory()
	if cfg.CacheDriver != "memory" {
		store = cache.New(cache.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPass,
			DB:       cfg.RedisDB,
			Timeout:  cfg.CacheTimeout,
		})
	}
	return &seedEnv{db: gormDB, store: store}, nil
}

func (e *seedEnv) close() {
	if client, ok := e.store.(*cache.Client); ok {
		_ = client.Close()
	}
	if sqlDB, err := e.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	logger.Sync()
}
