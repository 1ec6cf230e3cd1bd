package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"paytrack/internal/api"
	"paytrack/internal/cachestore"
	"paytrack/internal/config"
	applog "paytrack/internal/log"
	"paytrack/internal/notify"
	"paytrack/internal/poller"
)

func main() {
	// Load .env file for local development (ignore errors in production)
	_ = godotenv.Load()

	logger := applog.New(applog.Config{Level: slog.LevelInfo, Component: applog.ComponentPoller})
	applog.SetDefault(logger)

	logger.Info("starting paytrack-poller")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("configuration validation failed", applog.FieldError, err.Error())
		os.Exit(1)
	}

	store, err := cachestore.Open(cfg.CacheDBPath)
	if err != nil {
		logger.Error("failed to open cache store", applog.FieldError, err.Error())
		os.Exit(1)
	}
	defer store.Close()

	client, err := api.NewClient(api.Config{
		BaseURL:     cfg.ServerURL,
		Token:       cfg.APIToken,
		Timeout:     cfg.RequestTimeout,
		LongTimeout: cfg.LongRequestTimeout,
		Logger:      logger.WithComponent(applog.ComponentGateway),
	})
	if err != nil {
		logger.Error("failed to build gateway client", applog.FieldError, err.Error())
		os.Exit(1)
	}

	var notifiers []poller.Notifier
	if cfg.AMQPURL != "" {
		publisher, err := notify.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue,
			logger.WithComponent(applog.ComponentNotify))
		if err != nil {
			logger.Error("failed to connect to AMQP broker", applog.FieldError, err.Error())
			os.Exit(1)
		}
		defer publisher.Close()
		notifiers = append(notifiers, publisher)
		logger.Info("AMQP notifications enabled", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	} else {
		notifiers = append(notifiers, notify.NewLogNotifier(logger.WithComponent(applog.ComponentNotify)))
		logger.Info("AMQP disabled, alerts go to the log")
	}

	p := poller.New(client, store, poller.Config{Interval: cfg.PollInterval}, logger, notifiers...)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := p.Start(ctx); err != nil {
		logger.Error("failed to start poller", applog.FieldError, err.Error())
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("shutting down", applog.FieldOperation, applog.OpShutdown)

	stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := p.Stop(stopCtx); err != nil {
		logger.Error("poller did not stop cleanly", applog.FieldError, err.Error())
		os.Exit(1)
	}
}
