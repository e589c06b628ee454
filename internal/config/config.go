package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config is the root configuration shared by the bot, dashboard and monitor
// binaries. Every service loads the full struct; unused sections are cheap.
type Config struct {
	Server    ServerConfig
	Redis     RedisConfig
	Discord   DiscordConfig
	Stats     StatsConfig
	Dashboard DashboardConfig
	Monitor   MonitorConfig
}

type ServerConfig struct {
	Port   int
	Host   string
	Env    string
	LogDir string
}

type RedisConfig struct {
	Host           string
	Port           int
	Password       string
	DB             int
	ConnectTimeout time.Duration
	CommandTimeout time.Duration
	MaxRetries     int
	EnableTLS      bool
}

type DiscordConfig struct {
	Token         string
	CommandPrefix string
	// VerifyLogChannel is the channel the backfill verification phase parses.
	VerifyLogChannel string
}

// StatsConfig carries the ingestion and retention tunables.
type StatsConfig struct {
	RetentionDays   int           // DAU HLL retention window
	UserCooldown    time.Duration // per-user DAU cooldown
	VoiceMinMinutes int           // voice sessions shorter than this are ignored
	QueueCapacity   int           // DAU enqueue buffer
	BatchMax        int           // max DAU items per pipeline flush
	BatchMaxWait    time.Duration // max wait before a partial flush
	TopK            int           // heavy-hitter slots per sketch
	XPMin           int           // XP grant lower bound
	XPMax           int           // XP grant upper bound
	BackfillBatch   int           // messages per backfill flush
}

type DashboardConfig struct {
	SessionSecret string
	SessionTTL    time.Duration
	OTPTTL        time.Duration
	OTPMaxSends   int
	OTPSendWindow time.Duration
	OTPMaxTries   int
}

type MonitorConfig struct {
	CheckInterval      time.Duration
	StrikeLimit        int
	RecoveryLimit      int
	AlertCooldown      time.Duration
	HTTPTimeout        time.Duration
	TCPTimeout         time.Duration
	HeartbeatStale     time.Duration
	AlertWebhookURL    string
	HistoryMaxSamples  int
	ServicesConfigPath string
}

// Cfg is the process-wide configuration instance set by Load.
var Cfg *Config

// Load reads .env (if present) and the environment into Cfg.
func Load() (*Config, error) {
	envPaths := []string{".env", "../.env"}
	for _, p := range envPaths {
		if _, err := os.Stat(p); err == nil {
			if err := godotenv.Load(p); err == nil {
				break
			}
		}
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:   getEnvInt("PORT", 8090),
			Host:   getEnv("HOST", "0.0.0.0"),
			Env:    getEnv("APP_ENV", "development"),
			LogDir: getEnv("LOG_DIR", "logs"),
		},
		Redis: RedisConfig{
			Host:           getEnv("REDIS_HOST", "127.0.0.1"),
			Port:           getEnvInt("REDIS_PORT", 6379),
			Password:       getEnv("REDIS_PASSWORD", ""),
			DB:             getEnvInt("REDIS_DB", 0),
			ConnectTimeout: time.Duration(getEnvInt("REDIS_CONNECT_TIMEOUT", 10000)) * time.Millisecond,
			CommandTimeout: time.Duration(getEnvInt("REDIS_COMMAND_TIMEOUT", 5000)) * time.Millisecond,
			MaxRetries:     getEnvInt("REDIS_MAX_RETRIES", 3),
			EnableTLS:      getEnvBool("REDIS_ENABLE_TLS", false),
		},
		Discord: DiscordConfig{
			Token:            getEnv("DISCORD_TOKEN", ""),
			CommandPrefix:    getEnv("COMMAND_PREFIX", "!"),
			VerifyLogChannel: getEnv("VERIFY_LOG_CHANNEL", ""),
		},
		Stats: StatsConfig{
			RetentionDays:   getEnvInt("RETENTION_DAYS", 40),
			UserCooldown:    time.Duration(getEnvInt("USER_COOLDOWN_SEC", 60)) * time.Second,
			VoiceMinMinutes: getEnvInt("VOICE_MIN_MINUTES", 5),
			QueueCapacity:   getEnvInt("DAU_QUEUE_CAPACITY", 50000),
			BatchMax:        getEnvInt("DAU_BATCH_MAX", 500),
			BatchMaxWait:    time.Duration(getEnvInt("DAU_BATCH_MAX_WAIT_MS", 50)) * time.Millisecond,
			TopK:            getEnvInt("HEAVY_HITTER_K", 32),
			XPMin:           getEnvInt("XP_MIN", 15),
			XPMax:           getEnvInt("XP_MAX", 25),
			BackfillBatch:   getEnvInt("BACKFILL_BATCH_SIZE", 500),
		},
		Dashboard: DashboardConfig{
			SessionSecret: getEnv("SESSION_SECRET", ""),
			SessionTTL:    time.Duration(getEnvInt("SESSION_TTL_HOURS", 24)) * time.Hour,
			OTPTTL:        time.Duration(getEnvInt("OTP_TTL_SEC", 300)) * time.Second,
			OTPMaxSends:   getEnvInt("OTP_MAX_SENDS", 3),
			OTPSendWindow: time.Duration(getEnvInt("OTP_SEND_WINDOW_SEC", 600)) * time.Second,
			OTPMaxTries:   getEnvInt("OTP_MAX_TRIES", 5),
		},
		Monitor: MonitorConfig{
			CheckInterval:      time.Duration(getEnvInt("CHECK_INTERVAL_SEC", 60)) * time.Second,
			StrikeLimit:        getEnvInt("STRIKE_LIMIT", 5),
			RecoveryLimit:      getEnvInt("RECOVERY_LIMIT", 3),
			AlertCooldown:      time.Duration(getEnvInt("ALERT_COOLDOWN_SEC", 1800)) * time.Second,
			HTTPTimeout:        time.Duration(getEnvInt("MONITOR_HTTP_TIMEOUT_SEC", 10)) * time.Second,
			TCPTimeout:         time.Duration(getEnvInt("MONITOR_TCP_TIMEOUT_SEC", 10)) * time.Second,
			HeartbeatStale:     time.Duration(getEnvInt("HEARTBEAT_STALE_SEC", 180)) * time.Second,
			AlertWebhookURL:    getEnv("ALERT_WEBHOOK_URL", ""),
			HistoryMaxSamples:  getEnvInt("MONITOR_HISTORY_MAX", 1440),
			ServicesConfigPath: getEnv("MONITOR_SERVICES_FILE", "services.json"),
		},
	}

	if cfg.Stats.XPMax < cfg.Stats.XPMin {
		return nil, fmt.Errorf("XP_MAX (%d) must be >= XP_MIN (%d)", cfg.Stats.XPMax, cfg.Stats.XPMin)
	}
	if cfg.Stats.RetentionDays < 1 {
		return nil, fmt.Errorf("RETENTION_DAYS must be positive, got %d", cfg.Stats.RetentionDays)
	}

	Cfg = cfg
	return cfg, nil
}

// RequireDiscordToken validates the token for binaries that speak to the
// gateway; the monitor and dashboard can run without one.
func (c *Config) RequireDiscordToken() error {
	if strings.TrimSpace(c.Discord.Token) == "" {
		return fmt.Errorf("DISCORD_TOKEN is required")
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		return val == "true" || val == "1"
	}
	return defaultVal
}
