package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/guildpulse/guildpulse-go/internal/aggregator"
	"github.com/guildpulse/guildpulse-go/internal/bot"
	"github.com/guildpulse/guildpulse-go/internal/config"
	"github.com/guildpulse/guildpulse-go/internal/pkg/logger"
	"github.com/guildpulse/guildpulse-go/internal/presence"
	"github.com/guildpulse/guildpulse-go/internal/storage/redis"
	"github.com/guildpulse/guildpulse-go/internal/tap"
)

const version = "0.3.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("❌ Failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Server.Env, cfg.Server.LogDir, "bot"); err != nil {
		fmt.Printf("❌ Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("🚀 Starting GuildPulse bot",
		zap.String("version", version),
		zap.String("env", cfg.Server.Env))

	redisClient := redis.GetInstance()
	if err := redisClient.Connect(&cfg.Redis); err != nil {
		logger.Fatal("❌ Failed to connect to Redis", zap.Error(err))
	}
	defer redisClient.Disconnect()

	if err := cfg.RequireDiscordToken(); err != nil {
		logger.Fatal("❌ Discord token missing", zap.Error(err))
	}
	session, err := discordgo.New("Bot " + cfg.Discord.Token)
	if err != nil {
		logger.Fatal("❌ Failed to create Discord session", zap.Error(err))
	}
	session.Identify.Intents = discordgo.IntentGuilds |
		discordgo.IntentGuildMessages |
		discordgo.IntentGuildVoiceStates |
		discordgo.IntentGuildMembers |
		discordgo.IntentGuildPresences |
		discordgo.IntentGuildModeration |
		discordgo.IntentMessageContent
	session.StateEnabled = true

	retention := time.Duration(cfg.Stats.RetentionDays) * 24 * time.Hour
	writer := aggregator.New(redisClient, cfg.Stats.QueueCapacity, cfg.Stats.BatchMax, cfg.Stats.BatchMaxWait, retention)
	ingest := tap.New(redisClient, writer, cfg.Stats)
	commands := bot.New(redisClient, ingest, cfg.Discord.CommandPrefix, cfg.Stats)
	sampler := presence.New(redisClient, session)
	poster := bot.NewStatusPoster(redisClient, session)

	session.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		logger.Info("✅ Gateway ready",
			zap.String("user", r.User.Username),
			zap.Int("guilds", len(r.Guilds)))
		if err := commands.RegisterSlash(s); err != nil {
			logger.Error("❌ Slash command registration failed", zap.Error(err))
		}
	})
	session.AddHandler(commands.Handle)
	session.AddHandler(commands.HandleInteraction)
	session.AddHandler(ingest.HandleMessage)
	session.AddHandler(ingest.HandleVoiceState)
	session.AddHandler(ingest.HandleAuditLog)
	session.AddHandler(ingest.HandleMemberAdd)
	session.AddHandler(ingest.HandleMemberRemove)

	// One cancellation scope for every background task; shutdown cancels
	// and waits for all of them.
	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	for _, task := range []func(context.Context){
		writer.Run,
		ingest.RunMaintenance,
		sampler.Run,
		poster.Run,
	} {
		wg.Add(1)
		go func(run func(context.Context)) {
			defer wg.Done()
			run(ctx)
		}(task)
	}

	if err := session.Open(); err != nil {
		cancel()
		logger.Fatal("❌ Failed to open gateway connection", zap.Error(err))
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("🛑 Shutting down bot...")

	if err := session.Close(); err != nil {
		logger.Error("❌ Gateway close failed", zap.Error(err))
	}
	cancel()
	wg.Wait()

	logger.Info("👋 Bot exited")
}
