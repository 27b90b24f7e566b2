package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/avolkov/vitrine/internal/catalog"
	"github.com/avolkov/vitrine/internal/config"
	"github.com/avolkov/vitrine/internal/photos"
	"github.com/avolkov/vitrine/internal/server"
	"github.com/avolkov/vitrine/internal/store"
	"github.com/avolkov/vitrine/internal/version"
)

func main() {
	configPath := flag.String("config", "", "path to configuration file")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.Info())
		return
	}

	// Initialize logger
	logger, err := zap.NewProduction()
	if err != nil {
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Vitrine server starting", zap.String("version", version.Short()))

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	// Open storage and apply migrations
	db, err := store.New(cfg.GetString("storage.path"))
	if err != nil {
		logger.Fatal("failed to open database", zap.Error(err))
	}
	defer db.Close()

	ctx := context.Background()
	if err := db.Migrate(ctx, "catalog", catalog.Migrations()); err != nil {
		logger.Fatal("failed to run migrations", zap.Error(err))
	}

	// Wire components
	repo := catalog.NewSQLiteProductRepository(db.DB())

	uploadsDir := cfg.GetString("uploads.dir")
	photoMgr, err := photos.NewManager(uploadsDir, repo, logger)
	if err != nil {
		logger.Fatal("failed to prepare uploads directory", zap.Error(err))
	}

	handler := catalog.NewHandler(repo, photoMgr, logger)

	addr := cfg.GetString("server.host") + ":" + cfg.GetString("server.port")
	srv := server.New(addr, logger, server.Options{
		UploadsDir: uploadsDir,
		RateLimit:  cfg.GetFloat64("server.rate_limit"),
		RateBurst:  cfg.GetInt("server.rate_burst"),
	}, handler)

	// Start server in background
	go func() {
		if err := srv.Start(); err != nil {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	logger.Info("Vitrine server ready", zap.String("addr", addr))

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh

	logger.Info("received shutdown signal", zap.String("signal", sig.String()))

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(),
		cfg.GetDuration("server.shutdown_timeout"))
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
	}

	logger.Info("Vitrine server stopped")
}
