package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for dosetrack
type Config struct {
	Server   ServerConfig   `mapstructure:"server" yaml:"server"`
	Storage  StorageConfig  `mapstructure:"storage" yaml:"storage"`
	Reminder ReminderConfig `mapstructure:"reminder" yaml:"reminder"`
	Notify   NotifyConfig   `mapstructure:"notify" yaml:"notify"`
	Security SecurityConfig `mapstructure:"security" yaml:"security"`
	Sweep    SweepConfig    `mapstructure:"sweep" yaml:"sweep"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Address      string `mapstructure:"address" yaml:"address"`
	Port         int    `mapstructure:"port" yaml:"port"`
	ReadTimeout  int    `mapstructure:"read_timeout" yaml:"read_timeout"`
	WriteTimeout int    `mapstructure:"write_timeout" yaml:"write_timeout"`
}

// StorageConfig holds database settings
type StorageConfig struct {
	DataDir    string `mapstructure:"data_dir" yaml:"data_dir"`
	SQLitePath string `mapstructure:"sqlite_path" yaml:"sqlite_path"`
	BadgerPath string `mapstructure:"badger_path" yaml:"badger_path"`
}

// ReminderConfig holds scheduling engine tunables
type ReminderConfig struct {
	HorizonDays          int    `mapstructure:"horizon_days" yaml:"horizon_days"`
	GraceMinutes         int    `mapstructure:"grace_minutes" yaml:"grace_minutes"`
	DefaultSnoozeMinutes int    `mapstructure:"default_snooze_minutes" yaml:"default_snooze_minutes"`
	WindowStart          string `mapstructure:"window_start" yaml:"window_start"`
	WindowEnd            string `mapstructure:"window_end" yaml:"window_end"`
	IntakeLogCap         int    `mapstructure:"intake_log_cap" yaml:"intake_log_cap"`
}

// NotifyConfig holds alert channel settings
type NotifyConfig struct {
	Telegram TelegramConfig `mapstructure:"telegram" yaml:"telegram"`
	Discord  DiscordConfig  `mapstructure:"discord" yaml:"discord"`
	// SendsPerMinute rate-limits outbound alerts across all channels
	SendsPerMinute int `mapstructure:"sends_per_minute" yaml:"sends_per_minute"`
}

// TelegramConfig holds Telegram alert channel settings
type TelegramConfig struct {
	Enabled  bool   `mapstructure:"enabled" yaml:"enabled"`
	BotToken string `mapstructure:"bot_token" yaml:"bot_token"`
	ChatID   int64  `mapstructure:"chat_id" yaml:"chat_id"`
}

// DiscordConfig holds Discord alert channel settings
type DiscordConfig struct {
	Enabled   bool   `mapstructure:"enabled" yaml:"enabled"`
	Token     string `mapstructure:"token" yaml:"token"`
	ChannelID string `mapstructure:"channel_id" yaml:"channel_id"`
}

// SecurityConfig holds API auth settings
type SecurityConfig struct {
	JWTSecret     string   `mapstructure:"jwt_secret" yaml:"jwt_secret"`
	AdminPassword string   `mapstructure:"admin_password" yaml:"admin_password"`
	AllowOrigins  []string `mapstructure:"allow_origins" yaml:"allow_origins"`
}

// SweepConfig holds the maintenance sweep settings
type SweepConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Spec    string `mapstructure:"spec" yaml:"spec"` // cron spec
}

// Load loads configuration from file, env, and defaults
func Load(configPath, dataDir string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if dataDir == "" {
		dataDir = getDefaultDataDir()
	}

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	v.Set("storage.data_dir", dataDir)
	v.SetDefault("storage.sqlite_path", filepath.Join(dataDir, "dosetrack.db"))
	v.SetDefault("storage.badger_path", filepath.Join(dataDir, "badger"))

	if configPath == "" {
		configPath = filepath.Join(dataDir, "dosetrack.yaml")
	}

	if _, err := os.Stat(configPath); err == nil {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	// Environment variables (DOSETRACK_SERVER_PORT, DOSETRACK_NOTIFY_TELEGRAM_BOT_TOKEN, etc.)
	v.SetEnvPrefix("DOSETRACK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	loadEnvOverrides(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Watch re-reads the config file on change and hands the fresh Config to fn.
// Only reminder tunables are expected to change at runtime; callers decide
// what to pick up.
func Watch(configPath string, fn func(*Config)) error {
	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(configPath)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read config: %w", err)
	}

	v.OnConfigChange(func(_ fsnotify.Event) {
		var cfg Config
		if err := v.Unmarshal(&cfg); err != nil {
			return
		}
		if err := validate(&cfg); err != nil {
			return
		}
		fn(&cfg)
	})
	v.WatchConfig()
	return nil
}

// WriteStarter writes a commented starter config file if none exists.
func WriteStarter(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	cfg := Config{
		Server:   ServerConfig{Address: "0.0.0.0", Port: 8080, ReadTimeout: 30, WriteTimeout: 30},
		Reminder: ReminderConfig{HorizonDays: 30, GraceMinutes: 60, DefaultSnoozeMinutes: 10, WindowStart: "08:00", WindowEnd: "20:00", IntakeLogCap: 2000},
		Notify:   NotifyConfig{SendsPerMinute: 20},
		Security: SecurityConfig{AllowOrigins: []string{"*"}},
		Sweep:    SweepConfig{Enabled: true, Spec: "@every 1m"},
	}

	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal starter config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.address", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 30)
	v.SetDefault("server.write_timeout", 30)

	// Reminder engine defaults
	v.SetDefault("reminder.horizon_days", 30)
	v.SetDefault("reminder.grace_minutes", 60)
	v.SetDefault("reminder.default_snooze_minutes", 10)
	v.SetDefault("reminder.window_start", "08:00")
	v.SetDefault("reminder.window_end", "20:00")
	v.SetDefault("reminder.intake_log_cap", 2000)

	// Notify defaults
	v.SetDefault("notify.sends_per_minute", 20)

	// Security defaults
	v.SetDefault("security.allow_origins", []string{"*"})

	// Sweep defaults
	v.SetDefault("sweep.enabled", true)
	v.SetDefault("sweep.spec", "@every 1m")
}

func getDefaultDataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "dosetrack")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "./data"
	}

	return filepath.Join(home, ".local", "share", "dosetrack")
}

// loadEnvOverrides loads specific env vars that Viper doesn't handle well
func loadEnvOverrides(cfg *Config) {
	getEnv := func(key, fallback string) string {
		if val := os.Getenv(key); val != "" {
			return val
		}
		return fallback
	}

	cfg.Server.Address = getEnv("DOSETRACK_SERVER_ADDRESS", cfg.Server.Address)
	if port := os.Getenv("DOSETRACK_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.Server.Port = p
		}
	}

	cfg.Storage.DataDir = getEnv("DOSETRACK_STORAGE_DATA_DIR", cfg.Storage.DataDir)

	cfg.Security.JWTSecret = getEnv("DOSETRACK_SECURITY_JWT_SECRET", cfg.Security.JWTSecret)
	cfg.Security.AdminPassword = getEnv("DOSETRACK_SECURITY_ADMIN_PASSWORD", cfg.Security.AdminPassword)

	cfg.Notify.Telegram.BotToken = getEnv("DOSETRACK_NOTIFY_TELEGRAM_BOT_TOKEN", cfg.Notify.Telegram.BotToken)
	if chat := os.Getenv("DOSETRACK_NOTIFY_TELEGRAM_CHAT_ID"); chat != "" {
		if id, err := strconv.ParseInt(chat, 10, 64); err == nil {
			cfg.Notify.Telegram.ChatID = id
		}
	}
	cfg.Notify.Discord.Token = getEnv("DOSETRACK_NOTIFY_DISCORD_TOKEN", cfg.Notify.Discord.Token)
	cfg.Notify.Discord.ChannelID = getEnv("DOSETRACK_NOTIFY_DISCORD_CHANNEL_ID", cfg.Notify.Discord.ChannelID)
}

func validate(cfg *Config) error {
	if cfg.Reminder.HorizonDays < 1 {
		return fmt.Errorf("reminder.horizon_days must be at least 1")
	}
	if cfg.Reminder.GraceMinutes < 0 {
		return fmt.Errorf("reminder.grace_minutes must not be negative")
	}
	if cfg.Reminder.IntakeLogCap < 1 {
		return fmt.Errorf("reminder.intake_log_cap must be at least 1")
	}
	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server.port must be 1-65535")
	}
	if cfg.Notify.Telegram.Enabled && cfg.Notify.Telegram.BotToken == "" {
		return fmt.Errorf("notify.telegram.bot_token is required when telegram is enabled")
	}
	if cfg.Notify.Discord.Enabled && cfg.Notify.Discord.Token == "" {
		return fmt.Errorf("notify.discord.token is required when discord is enabled")
	}
	return nil
}
