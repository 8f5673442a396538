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

	"storybook/backend/internal/bootstrap"
	"storybook/backend/internal/chathub"
	"storybook/backend/internal/config"
	"storybook/backend/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/samber/do"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	inj := bootstrap.BuildContainer(cfg)
	logger := do.MustInvoke[*zap.Logger](inj)
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting Storybook backend...", zap.Int("port", cfg.Server.Port), zap.String("mode", cfg.Server.Mode))

	db, err := do.Invoke[*gorm.DB](inj)
	if err != nil {
		logger.Fatal("Failed to connect PostgreSQL", zap.Error(err))
	}
	rdb, err := do.Invoke[*redis.Client](inj)
	if err != nil {
		logger.Fatal("Failed to connect Redis", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	busCtx, cancelBus := context.WithCancel(context.Background())
	defer cancelBus()
	bus := do.MustInvoke[*chathub.Bus](inj)
	if bus != nil {
		if err := bus.Start(busCtx); err != nil {
			logger.Fatal("Failed to subscribe to the event bus", zap.Error(err))
		}
	} else {
		logger.Info("Redis not configured, delivering events locally only")
	}

	router, err := do.Invoke[*gin.Engine](inj)
	if err != nil {
		logger.Fatal("Failed to build the HTTP router", zap.Error(err))
	}
	hub := do.MustInvoke[*chathub.ManagerService](inj)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()
	logger.Info("HTTP server listening", zap.String("addr", server.Addr))

	<-ctx.Done()
	logger.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP shutdown did not complete", zap.Error(err))
	}

	cancelBus()
	hub.Shutdown()

	if err := storage.Close(db); err != nil {
		logger.Error("Failed to close the database", zap.Error(err))
	}
	if rdb != nil {
		if err := rdb.Close(); err != nil {
			logger.Error("Failed to close Redis", zap.Error(err))
		}
	}
	logger.Info("Shutdown complete")
}
