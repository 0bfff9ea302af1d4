package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"supplysync-backend/internal/config"
	"supplysync-backend/internal/database"
	"supplysync-backend/internal/logging"
	"supplysync-backend/internal/server"
	"supplysync-backend/internal/storage"
	"supplysync-backend/internal/workspace"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", slog.Any("error", err))
		os.Exit(1)
	}
	log := logging.New(cfg)

	db, err := database.Open(cfg, log)
	if err != nil {
		log.Error("database unavailable", slog.Any("error", err))
		os.Exit(1)
	}

	store, closeStore, err := openStore(cfg, db)
	if err != nil {
		log.Error("document store unavailable", slog.Any("error", err))
		os.Exit(1)
	}
	defer closeStore()

	reg := workspace.NewRegistry(storage.NewAdapter(store, log), log)
	app := server.New(server.Deps{
		Config:   cfg,
		DB:       db,
		Registry: reg,
		Log:      log,
	})

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		log.Info("shutting down")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Error("shutdown", slog.Any("error", err))
		}
	}()

	log.Info("server listening", slog.String("port", cfg.HTTPPort), slog.String("storage", cfg.StorageBackend))
	if err := app.Listen(":" + cfg.HTTPPort); err != nil {
		log.Error("server stopped", slog.Any("error", err))
		os.Exit(1)
	}
}

// openStore picks the document store for saved workspaces.
func openStore(cfg *config.Config, db *gorm.DB) (storage.Store, func(), error) {
	if cfg.StorageBackend != "redis" {
		return storage.NewGormStore(db), func() {}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("ping redis %s: %w", cfg.RedisAddr, err)
	}
	return storage.NewRedisStore(client, "supplysync:"), func() { _ = client.Close() }, nil
}
