// Package main запускает HTTP-сервер сервиса оформления заказа.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mmeshcher/storefront-checkout/internal/cache"
	"github.com/mmeshcher/storefront-checkout/internal/checkout"
	"github.com/mmeshcher/storefront-checkout/internal/config"
	"github.com/mmeshcher/storefront-checkout/internal/handler"
	"github.com/mmeshcher/storefront-checkout/internal/middleware"
	"github.com/mmeshcher/storefront-checkout/internal/receipt"
	"github.com/mmeshcher/storefront-checkout/internal/repository"
	"github.com/mmeshcher/storefront-checkout/internal/session"
	"github.com/mmeshcher/storefront-checkout/internal/storefront"
)

const sessionCleanupInterval = 10 * time.Minute

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, fmt.Errorf("parse log level: %w", err)
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = lvl
	return cfg.Build()
}

func main() {
	cfg, err := config.Parse()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger initialization error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	sugar := logger.Sugar()

	repo, err := repository.NewPostgresRepository(cfg.DatabaseURI)
	if err != nil {
		sugar.Fatalw("database initialization error", "error", err.Error())
	}
	defer repo.Close()

	client := storefront.NewClient(cfg.StorefrontAddress, logger)

	var sf checkout.Storefront = client
	if cfg.RedisAddress != "" {
		rdb := cache.New(cfg.RedisAddress)
		defer rdb.Close()

		pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		if err := rdb.Ping(pingCtx); err != nil {
			sugar.Warnw("redis is unavailable, cities will be cached on recovery", "addr", cfg.RedisAddress, "error", err.Error())
		}
		cancel()

		sf = storefront.NewCachedClient(client, rdb, cfg.CitiesCacheTTL)
	}

	sessions := session.NewManager(repo, client, cfg.SessionTTL, logger)
	sessions.SweepReceipts(repo, cfg.ReceiptTTL)
	svc := checkout.NewService(sf, receipt.NewRenderer(), repo, sessions, logger)

	authMiddleware := middleware.NewAuthMiddleware(cfg.SessionSecret, sessions, cfg.SessionTTL)
	h := handler.NewHandler(svc, sessions, repo, logger, authMiddleware)

	server := &http.Server{
		Addr:              cfg.RunAddress,
		Handler:           h.SetupRouter(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	// Фоновое удаление просроченных сессий и нескачанных чеков
	sessions.StartCleanup(ctx, sessionCleanupInterval)

	// Запуск HTTP-сервера
	g.Go(func() error {
		sugar.Infow("starting checkout server", "addr", cfg.RunAddress, "storefront", cfg.StorefrontAddress)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// Graceful shutdown при отмене контекста (сигнал или ошибка в другой горутине)
	g.Go(func() error {
		<-ctx.Done()
		sugar.Info("shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
		sugar.Info("server stopped gracefully")
		return nil
	})

	if err := g.Wait(); err != nil {
		sugar.Fatalw("application terminated with error", "error", err)
	}
}
