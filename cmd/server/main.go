package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/ujjwalshri/CodeColab/internal/calls"
	"github.com/ujjwalshri/CodeColab/internal/config"
	"github.com/ujjwalshri/CodeColab/internal/handlers"
	"github.com/ujjwalshri/CodeColab/internal/hub"
	"github.com/ujjwalshri/CodeColab/internal/presence"
	"github.com/ujjwalshri/CodeColab/internal/registry"
	"github.com/ujjwalshri/CodeColab/internal/rooms"
	"github.com/ujjwalshri/CodeColab/internal/routers"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer logger.Sync()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg := config.Load()

	var pub presence.Publisher = presence.NopPublisher{}
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		pub = presence.NewRedisPublisher(rdb, uuid.NewString())
		logger.Info("presence events enabled", zap.String("redisAddr", cfg.RedisAddr))
	}

	reg := registry.New()
	dir := rooms.NewDirectory(reg)
	roster := calls.NewRoster()

	h := hub.New(logger, reg, dir, roster, pub)
	go h.Run(ctx)

	hs := handlers.New(logger, h, dir, cfg)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: routers.New(hs, cfg.ClientURL),
	}

	go func() {
		logger.Info("codecolab server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("forced shutdown", zap.Error(err))
	}
}
