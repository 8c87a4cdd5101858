package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"microwallet/internal/app"
	"microwallet/internal/config"
	"microwallet/internal/db"
	httpServer "microwallet/internal/http"
	"microwallet/internal/logger"
	"microwallet/internal/repository/memory"

	"github.com/gin-gonic/gin"
)

func main() {
	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.LogJSON)

	var stores app.Stores
	switch cfg.StorageDriver {
	case config.StorageMemory:
		logger.Warn("using in-memory storage; data is lost on restart")
		stores = app.MemoryStores(memory.New())
	default:
		pool := db.Connect(cfg.DatabaseURL, cfg.StatementTimeout)
		defer pool.Close()
		stores = app.PostgresStores(pool)
	}

	rdb := app.ConnectRedis(context.Background(), cfg, logger.Warn)
	if rdb != nil {
		defer rdb.Close()
	}

	wallet := app.New(cfg, stores, rdb, nil)

	gin.SetMode(gin.ReleaseMode)
	r, err := httpServer.NewEngine(cfg.TrustedProxies)
	if err != nil {
		logger.Fatal("invalid TRUSTED_PROXIES", "error", err)
	}
	httpServer.RegisterRoutes(r, wallet.RouteDeps(cfg))

	srv := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server started", "port", cfg.AppPort, "storage", cfg.StorageDriver, "redis", rdb != nil)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("listen failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}

	logger.Info("server exited")
}
