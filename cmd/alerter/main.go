package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"bybitalert/config"
	"bybitalert/internal/bybit/notify"
	"bybitalert/internal/bybit/scheduler"
	"bybitalert/internal/bybit/stream"
	"bybitalert/logger"
	"bybitalert/pkg/bybit"
	"bybitalert/pkg/storage/postgres"

	"go.uber.org/zap"
)

func main() {
	// viper config
	cfg := config.Load()

	// zap logger
	log, err := logger.New(cfg.Log)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	symbols := bybit.TrackedSymbols()

	restClient := bybit.NewRESTClient(cfg.Bybit.REST.BaseURL, cfg.Bybit.REST.TickersPath, cfg.Bybit.REST.Timeout,
		log.Named("rest"))

	wsClient := bybit.NewWSClient(cfg.Bybit.WS.URL, symbols, bybit.WSOptions{
		HandshakeTimeout: cfg.Bybit.WS.Timeout,
		ReconnectDelay:   cfg.Bybit.WS.ReconnectDelay,
		PingInterval:     cfg.Bybit.WS.PingInterval,
	}, log.Named("stream"))
	wsClient.SetMessageHandler(stream.NewHandler(log.Named("stream")).Handle)

	mailer := notify.NewMailer(cfg.SMTP, cfg.Email.Recipient, cfg.Log.Environment, log.Named("notify"))

	sched := scheduler.New(restClient, mailer, wsClient, symbols, scheduler.DefaultOptions(), log.Named("scheduler"))

	// optional alert log
	if cfg.Postgres.Enabled {
		pg, err := postgres.InitializeAndMigrateAlertRecord(cfg.Postgres, cfg.Log.Environment, true)
		if err != nil {
			log.Fatal("failed to initialize alert log", zap.Error(err))
		}
		defer pg.Close()
		sched.SetRecorder(pg)
	}

	log.Info("alerter started",
		zap.Strings("symbols", symbols.Symbols()),
		zap.String("rest", cfg.Bybit.REST.BaseURL+cfg.Bybit.REST.TickersPath),
		zap.String("ws", cfg.Bybit.WS.URL),
	)

	if err := sched.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("scheduler stopped", zap.Error(err))
	}
	log.Info("alerter stopped")
}
