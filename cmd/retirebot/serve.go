package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"retirebot/internal/bus"
	"retirebot/internal/channel"
	"retirebot/internal/orchestrator"

	"github.com/spf13/cobra"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start all enabled channels (web, websocket, telegram)",
		Long:  "Starts every channel enabled in the config and blocks until interrupted.",
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	if err := setupLogger(cfg); err != nil {
		return err
	}

	if !cfg.Channels.Web.Enabled && !cfg.Channels.WebSocket.Enabled && !cfg.Channels.Telegram.Enabled {
		return fmt.Errorf("no channels enabled; enable channels.web, channels.websocket, or channels.telegram in the config")
	}
	if cfg.Channels.Telegram.Enabled && cfg.Channels.Telegram.Token == "" {
		return fmt.Errorf("channels.telegram.token is required when the telegram channel is enabled")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	orch, sessionStore, err := buildAssistant(ctx, cfg)
	if err != nil {
		return err
	}
	defer sessionStore.Close()

	messageBus := bus.New(64, logger)

	loop := orchestrator.NewLoop(orchestrator.LoopConfig{
		Orchestrator: orch,
		Bus:          messageBus,
		Logger:       logger,
		Concurrency:  cfg.General.MaxConcurrentMessages,
	})
	go loop.Run(ctx)

	if cfg.Channels.Web.Enabled {
		web := channel.NewWeb(channel.WebChannelConfig{
			Host:         cfg.Channels.Web.Host,
			Port:         cfg.Channels.Web.Port,
			Assistant:    orch,
			Logger:       logger,
			ServeMetrics: cfg.Metrics.Enabled,
			MetricsPath:  cfg.Metrics.Endpoint,
		})
		go func() {
			if err := web.Start(ctx, messageBus); err != nil {
				logger.Error("web channel error", "err", err)
			}
		}()
	}

	if cfg.Channels.WebSocket.Enabled {
		ws := channel.NewWebSocketChannel(channel.WSConfig{
			Port:   cfg.Channels.WebSocket.Port,
			Path:   cfg.Channels.WebSocket.Path,
			Logger: logger,
		})
		go func() {
			if err := ws.Start(ctx, messageBus); err != nil {
				logger.Error("websocket channel error", "err", err)
			}
		}()
	}

	if cfg.Channels.Telegram.Enabled {
		tg := channel.NewTelegram(channel.TelegramChannelConfig{
			Token:     cfg.Channels.Telegram.Token,
			AllowFrom: cfg.Channels.Telegram.AllowFrom,
			ParseMode: cfg.Channels.Telegram.ParseMode,
			Logger:    logger,
		})
		go func() {
			if err := tg.Start(ctx, messageBus); err != nil {
				logger.Error("telegram channel error", "err", err)
			}
		}()
	}

	logger.Info("retirebot serving; press Ctrl+C to stop")
	<-ctx.Done()
	logger.Info("shutting down")

	// Channels stop when the context cancels; give in-flight turns a
	// moment before the bus closes under them.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		messageBus.Close()
	}()

	select {
	case <-done:
		logger.Info("shutdown complete")
		return nil
	case <-shutdownCtx.Done():
		logger.Warn("shutdown timed out, forcing exit")
		return fmt.Errorf("shutdown timed out")
	}
}
