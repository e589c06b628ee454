package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/guildpulse/guildpulse-go/internal/config"
	"github.com/guildpulse/guildpulse-go/internal/monitor"
	"github.com/guildpulse/guildpulse-go/internal/pkg/logger"
	"github.com/guildpulse/guildpulse-go/internal/storage/redis"
)

const version = "0.3.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("❌ Failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Server.Env, cfg.Server.LogDir, "monitor"); err != nil {
		fmt.Printf("❌ Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("🚀 Starting GuildPulse monitor",
		zap.String("version", version),
		zap.String("services_config", cfg.Monitor.ServicesConfigPath))

	redisClient := redis.GetInstance()
	if err := redisClient.Connect(&cfg.Redis); err != nil {
		logger.Fatal("❌ Failed to connect to Redis", zap.Error(err))
	}
	defer redisClient.Disconnect()

	services, err := monitor.LoadServices(cfg.Monitor.ServicesConfigPath)
	if err != nil {
		logger.Fatal("❌ Failed to load service list", zap.Error(err))
	}
	if len(services) == 0 {
		logger.Fatal("❌ Service list is empty")
	}

	var alerter monitor.Alerter
	if cfg.Monitor.AlertWebhookURL != "" {
		alerter = monitor.NewWebhookAlerter(cfg.Monitor.AlertWebhookURL)
	} else {
		logger.Warn("No alert webhook configured, transitions are log-only")
	}

	m := monitor.New(redisClient, cfg.Monitor, services, alerter)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		m.Run(ctx)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("🛑 Shutting down monitor...")
	cancel()
	<-done

	logger.Info("👋 Monitor exited")
}
