package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"careerplan/internal/util"
	"careerplan/services/career/internal/app"
	"careerplan/services/career/internal/config"
	"careerplan/services/career/internal/server"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load(config.ConfigPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := util.InitLogger(cfg.LogLevel)

	appCore, err := app.New(app.Config{
		StorageBackend: cfg.StorageBackend,
		DataDir:        cfg.DataDir,
		RedisAddr:      cfg.RedisAddr,
		RedisPassword:  cfg.RedisPassword,
		RedisPrefix:    cfg.RedisPrefix,
		DatabaseURL:    cfg.DatabaseURL,
		S3Endpoint:     cfg.S3Endpoint,
		S3AccessKey:    cfg.S3AccessKey,
		S3SecretKey:    cfg.S3SecretKey,
		S3Bucket:       cfg.S3Bucket,
		S3UseSSL:       cfg.S3UseSSL,
	})
	if err != nil {
		log.Fatalf("failed to init app: %v", err)
	}
	defer appCore.Close()

	httpServer, err := server.New(server.Config{
		App:                     appCore,
		RedisAddr:               cfg.RedisAddr,
		RedisPassword:           cfg.RedisPassword,
		WriteRateLimitPerMinute: cfg.WriteRateLimitPerMinute,
		TrustedProxyCIDRs:       cfg.TrustedProxyCIDRs,
	})
	if err != nil {
		log.Fatalf("failed to init server: %v", err)
	}
	defer httpServer.Close()

	addr := ":" + cfg.Port
	srv := &http.Server{
		Addr:         addr,
		Handler:      httpServer.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("server listening", "addr", addr, "storage", cfg.StorageBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	if err := g.Wait(); err != nil {
		logger.Error("server error", "err", err)
	}
	slog.Info("server stopped")
}
