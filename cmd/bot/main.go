package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/David-Schmidt02/gastos-bot/pkg/config"
	"github.com/David-Schmidt02/gastos-bot/pkg/conversation"
	"github.com/David-Schmidt02/gastos-bot/pkg/handlers"
	"github.com/David-Schmidt02/gastos-bot/pkg/ingest"
	"github.com/David-Schmidt02/gastos-bot/pkg/logging"
	"github.com/David-Schmidt02/gastos-bot/pkg/metrics"
	"github.com/David-Schmidt02/gastos-bot/pkg/telegram"
	"github.com/David-Schmidt02/gastos-bot/pkg/wizard"
)

const (
	shutdownTimeout = 10 * time.Second
	readTimeout     = 5 * time.Second
)

func main() {
	// Load configuration (.env, config.yaml, environment)
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	logger, _, err := logging.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("unable to build logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("bot stopped with error", zap.Error(err))
	}
	logger.Info("bot stopped")
}

func run(ctx context.Context, cfg config.Config, logger *zap.Logger) error {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(registry)

	// 1. Storage
	store, closeStore, err := openStorage(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	// 2. Forwarding
	queue, closeQueue, err := openQueue(ctx, cfg, m, logger)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := closeQueue(shutdownCtx); err != nil {
			logger.Warn("forward queue did not drain before shutdown", zap.Error(err))
		}
	}()

	// 3. Telegram transport and conversation
	tg, err := telegram.New(cfg.TelegramToken, cfg.PollTimeout(), logger)
	if err != nil {
		return err
	}

	machine := wizard.New(wizard.Config{
		Categories:      cfg.CategoryList(),
		DefaultCurrency: cfg.DefaultCurrency,
		SkipToken:       cfg.SkipToken,
	})
	router := conversation.New(store, machine, tg, queue, m, conversation.Config{
		Categories:   cfg.CategoryList(),
		Location:     cfg.Location(),
		PayeeDefault: cfg.PayeeDefault,
		ExportPath:   cfg.ExportPath,
	}, logger)

	// 4. Ops API
	if cfg.HTTPAddr != "" {
		server := &http.Server{
			Addr:              cfg.HTTPAddr,
			Handler:           handlers.NewRouter(store, registry, logger),
			ReadHeaderTimeout: readTimeout,
		}
		go func() {
			logger.Info("starting ops server", zap.String("addr", cfg.HTTPAddr))
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("ops server failed", zap.Error(err))
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				logger.Warn("ops server shutdown failed", zap.Error(err))
			}
		}()
	}

	logger.Info("bot started",
		zap.String("storage_backend", cfg.Storage.Backend),
		zap.String("forward_queue", cfg.Forward.Queue),
		zap.Bool("budget_enabled", cfg.Budget.Enabled()),
		zap.String("default_currency", cfg.DefaultCurrency),
		zap.Int("categories", len(cfg.Categories)),
		zap.Duration("poll_timeout", cfg.PollTimeout()),
	)

	// 5. Poll until SIGINT/SIGTERM
	loop := ingest.New(tg, router, store, ingest.Options{PollTimeout: cfg.PollTimeout()}, m, logger)
	return loop.Run(ctx)
}
