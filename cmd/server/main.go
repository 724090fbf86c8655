package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/TFMV/OrganMatchPro/internal/matcher"
	"github.com/TFMV/OrganMatchPro/internal/store"
	"github.com/TFMV/OrganMatchPro/pkg/api"
	"github.com/TFMV/OrganMatchPro/pkg/config"
	"github.com/TFMV/OrganMatchPro/pkg/db"
	"github.com/TFMV/OrganMatchPro/pkg/utils"
)

func main() {
	configPath := flag.String("config", "", "path to config.yaml (defaults to $CONFIG_PATH)")
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		utils.NewLogger("info", "json").Error("Failed to load config", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}

	logger := utils.NewLogger(cfg.Log.Level, cfg.Log.Format)
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Create the database connection pool
	var source api.RecordSource
	if cfg.DBCreds.Configured() {
		pool, err := db.NewConnection(ctx, cfg.DBCreds)
		if err != nil {
			logger.Error("Failed to create database connection pool", map[string]interface{}{"error": err.Error()})
			os.Exit(1)
		}
		defer pool.Close()
		source = store.New(pool, logger)
		logger.Info("Database connection pool created", map[string]interface{}{"host": cfg.DBCreds.Host})
	} else {
		logger.Warn("Database is not configured; record endpoints are disabled", nil)
	}

	// A missing model is not fatal: scoring falls back until one is trained.
	scorer := matcher.NewScorer(logger)
	_ = scorer.Load(cfg.Model.ArtifactDir)
	m := matcher.NewMatcher(scorer, logger)

	gin.SetMode(cfg.Server.Mode)
	router := gin.New()
	router.Use(gin.Recovery())
	api.SetupRoutes(router, api.NewHandler(source, m, cfg, logger), logger)

	server := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting server", map[string]interface{}{"addr": server.Addr})
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	for {
		select {
		case sig := <-sigCh:
			if sig == syscall.SIGHUP {
				logger.Info("Reloading model", map[string]interface{}{"dir": cfg.Model.ArtifactDir})
				_ = scorer.Load(cfg.Model.ArtifactDir)
				continue
			}
			logger.Info("Received shutdown signal", map[string]interface{}{"signal": sig.String()})
			shutdownCtx, stop := context.WithTimeout(ctx, 10*time.Second)
			if err := server.Shutdown(shutdownCtx); err != nil {
				logger.Error("Server shutdown failed", map[string]interface{}{"error": err.Error()})
			}
			stop()
			logger.Info("Server stopped", nil)
			return
		case err, ok := <-errCh:
			if ok && err != nil {
				logger.Error("Server failed", map[string]interface{}{"error": err.Error()})
				logger.Sync()
				os.Exit(1)
			}
			return
		}
	}
}
