package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/guildpulse/guildpulse-go/internal/backfill"
	"github.com/guildpulse/guildpulse-go/internal/config"
	"github.com/guildpulse/guildpulse-go/internal/handlers"
	"github.com/guildpulse/guildpulse-go/internal/middleware"
	"github.com/guildpulse/guildpulse-go/internal/pkg/logger"
	"github.com/guildpulse/guildpulse-go/internal/storage/redis"
	"github.com/guildpulse/guildpulse-go/pkg/types"
)

const (
	version = "0.3.0"

	healthCheckTimeout = 3 * time.Second
	shutdownTimeout    = 30 * time.Second
	readTimeout        = 30 * time.Second
	writeTimeout       = 60 * time.Second
	idleTimeout        = 120 * time.Second
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("❌ Failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Server.Env, cfg.Server.LogDir, "dashboard"); err != nil {
		fmt.Printf("❌ Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("🚀 Starting GuildPulse dashboard",
		zap.String("version", version),
		zap.String("env", cfg.Server.Env),
		zap.Int("port", cfg.Server.Port))

	redisClient := redis.GetInstance()
	if err := redisClient.Connect(&cfg.Redis); err != nil {
		logger.Fatal("❌ Failed to connect to Redis", zap.Error(err))
	}
	defer redisClient.Disconnect()

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(ginLogger())
	router.Use(middleware.CORS())

	router.GET("/health", healthHandler(redisClient))
	router.GET("/version", versionHandler())

	auth := middleware.NewAuthMiddleware(redisClient, cfg.Dashboard.SessionSecret)
	statsHandler := handlers.NewStatsHandler(redisClient)
	authHandler := handlers.NewAuthHandler(redisClient, auth, cfg.Dashboard, nil)
	backfillHandler := handlers.NewBackfillHandler(redisClient, backfillRunner(cfg))

	api := router.Group("/api")
	{
		api.POST("/auth/request-otp", authHandler.RequestOTP)
		api.POST("/auth/verify-otp", authHandler.VerifyOTP)
		api.POST("/auth/identity", authHandler.LoginIdentity)

		authed := api.Group("")
		authed.Use(auth.Authenticate())
		{
			authed.GET("/auth/me", authHandler.Me)
			authed.POST("/auth/logout", authHandler.Logout)

			authed.GET("/channel-stats", statsHandler.ChannelStats)
			authed.GET("/leaderboard", statsHandler.Leaderboard)
			authed.GET("/comparisons", statsHandler.Comparisons)
			authed.GET("/voice-stats", statsHandler.VoiceStats)
			authed.GET("/command-stats", statsHandler.CommandStats)
			authed.GET("/traffic-stats", statsHandler.TrafficStats)
			authed.GET("/security-score", statsHandler.SecurityScore)
			authed.GET("/peak-stats", statsHandler.PeakStats)
			authed.GET("/extended-stats", statsHandler.ExtendedStats)
			authed.GET("/predictions-data", statsHandler.PredictionsData)
			authed.GET("/export/:type", statsHandler.Export)
			authed.GET("/status", statsHandler.Status)
			authed.GET("/backfill-status", backfillHandler.Status)

			admin := authed.Group("")
			admin.Use(middleware.RequireAdmin())
			{
				admin.POST("/trigger-backfill", backfillHandler.Trigger)
			}
		}
	}

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  idleTimeout,
	}

	go func() {
		logger.Info("🌐 Server listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("❌ Server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("🛑 Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("❌ Server forced to shutdown", zap.Error(err))
	}

	logger.Info("👋 Server exited")
}

// backfillRunner builds the history-rebuild entry point when a bot token is
// configured. The dashboard opens its own REST-only Discord session; no
// gateway connection is needed for paging history.
func backfillRunner(cfg *config.Config) handlers.BackfillRunner {
	if cfg.Discord.Token == "" {
		return nil
	}
	return func(ctx context.Context, guildID string) error {
		session, err := discordgo.New("Bot " + cfg.Discord.Token)
		if err != nil {
			return err
		}
		source := backfill.NewDiscordSource(session)
		orch := backfill.New(redis.GetInstance(), source, cfg.Stats, cfg.Discord.VerifyLogChannel)
		return orch.Run(ctx, guildID)
	}
}

func ginLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		logger.Info("HTTP Request",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("ip", c.ClientIP()))
	}
}

func healthHandler(redisClient *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
		defer cancel()

		redisOK := redisClient.Health(ctx) == nil

		status := "healthy"
		httpStatus := http.StatusOK
		if !redisOK {
			status = "unhealthy"
			httpStatus = http.StatusServiceUnavailable
		}

		c.JSON(httpStatus, &types.HealthResponse{
			Status:    status,
			Service:   "guildpulse-dashboard",
			Version:   version,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Components: map[string]bool{
				"redis": redisOK,
			},
		})
	}
}

func versionHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, &types.VersionResponse{
			Service: "guildpulse-dashboard",
			Version: version,
			Go:      runtime.Version(),
		})
	}
}
