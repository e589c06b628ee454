package config

import (
	"os"
	"testing"
	"time"
)

func TestGetEnv(t *testing.T) {
	tests := []struct {
		name        string
		key         string
		defaultVal  string
		envVal      string
		setEnv      bool
		expectedVal string
	}{
		{
			name:        "env var present",
			key:         "TEST_KEY",
			defaultVal:  "default",
			envVal:      "custom",
			setEnv:      true,
			expectedVal: "custom",
		},
		{
			name:        "env var absent",
			key:         "TEST_KEY_NOT_EXISTS",
			defaultVal:  "default",
			setEnv:      false,
			expectedVal: "default",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.setEnv {
				os.Setenv(tt.key, tt.envVal)
				defer os.Unsetenv(tt.key)
			}

			result := getEnv(tt.key, tt.defaultVal)
			if result != tt.expectedVal {
				t.Errorf("getEnv() = %v, want %v", result, tt.expectedVal)
			}
		})
	}
}

func TestGetEnvInt(t *testing.T) {
	tests := []struct {
		name        string
		key         string
		defaultVal  int
		envVal      string
		setEnv      bool
		expectedVal int
	}{
		{
			name:        "valid integer",
			key:         "TEST_INT",
			defaultVal:  10,
			envVal:      "42",
			setEnv:      true,
			expectedVal: 42,
		},
		{
			name:        "invalid integer falls back",
			key:         "TEST_INT_BAD",
			defaultVal:  10,
			envVal:      "not-a-number",
			setEnv:      true,
			expectedVal: 10,
		},
		{
			name:        "absent falls back",
			key:         "TEST_INT_ABSENT",
			defaultVal:  7,
			setEnv:      false,
			expectedVal: 7,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.setEnv {
				os.Setenv(tt.key, tt.envVal)
				defer os.Unsetenv(tt.key)
			}

			result := getEnvInt(tt.key, tt.defaultVal)
			if result != tt.expectedVal {
				t.Errorf("getEnvInt() = %v, want %v", result, tt.expectedVal)
			}
		})
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Stats.RetentionDays != 40 {
		t.Errorf("RetentionDays = %d, want 40", cfg.Stats.RetentionDays)
	}
	if cfg.Stats.UserCooldown != 60*time.Second {
		t.Errorf("UserCooldown = %v, want 60s", cfg.Stats.UserCooldown)
	}
	if cfg.Stats.QueueCapacity != 50000 {
		t.Errorf("QueueCapacity = %d, want 50000", cfg.Stats.QueueCapacity)
	}
	if cfg.Monitor.StrikeLimit != 5 {
		t.Errorf("StrikeLimit = %d, want 5", cfg.Monitor.StrikeLimit)
	}
	if cfg.Monitor.RecoveryLimit != 3 {
		t.Errorf("RecoveryLimit = %d, want 3", cfg.Monitor.RecoveryLimit)
	}
	if cfg.Monitor.AlertCooldown != 1800*time.Second {
		t.Errorf("AlertCooldown = %v, want 30m", cfg.Monitor.AlertCooldown)
	}
}

func TestRequireDiscordToken(t *testing.T) {
	var cfg Config
	if err := cfg.RequireDiscordToken(); err == nil {
		t.Error("RequireDiscordToken() accepted an empty token")
	}

	cfg.Discord.Token = "   "
	if err := cfg.RequireDiscordToken(); err == nil {
		t.Error("RequireDiscordToken() accepted a blank token")
	}

	cfg.Discord.Token = "bot-token"
	if err := cfg.RequireDiscordToken(); err != nil {
		t.Errorf("RequireDiscordToken() error = %v", err)
	}
}

func TestLoadRejectsBadXPRange(t *testing.T) {
	os.Setenv("XP_MIN", "30")
	os.Setenv("XP_MAX", "20")
	defer os.Unsetenv("XP_MIN")
	defer os.Unsetenv("XP_MAX")

	if _, err := Load(); err == nil {
		t.Error("Load() accepted XP_MAX < XP_MIN")
	}
}
