package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
// Values are loaded by Viper from a config file and/or environment variables.
type Config struct {
	NexusAPIKey      string `mapstructure:"NEXUS_API_KEY"`
	GameDomain       string `mapstructure:"GAME_DOMAIN"`
	TelegramBotToken string `mapstructure:"TELEGRAM_BOT_TOKEN"`
	TelegramChatID   string `mapstructure:"TELEGRAM_CHAT_ID"`
	TelegramTopicID  string `mapstructure:"TELEGRAM_TOPIC_ID"`
	UserAgent        string `mapstructure:"USERAGENT"`
	StateDir         string `mapstructure:"STATE_DIR"`
	HideAdultContent bool   `mapstructure:"HIDE_ADULT_CONTENT"`
	APICacheTTL      int    `mapstructure:"API_CACHE_TTL"` // seconds, 0 disables the call cache
}

// LoadConfig reads configuration from file and environment variables.
func LoadConfig(path string) (config Config, err error) {
	viper.AddConfigPath(path)   // Path to look for the config file in
	viper.SetConfigName(".env") // Name of config file (without extension)
	viper.SetConfigType("env")  // REQUIRED if the config file does not have the extension in the name

	vipErr := viper.ReadInConfig()
	if _, ok := vipErr.(viper.ConfigFileNotFoundError); ok {
		slog.Info("Config file (.env) not found, relying on environment variables.")
	} else if vipErr != nil {
		return Config{}, fmt.Errorf("fatal error config file: %w", vipErr)
	}

	// Bind environment variables automatically.
	// Viper will check for an environment variable matching the key name (e.g., NEXUS_API_KEY)
	viper.AutomaticEnv()

	for _, key := range []string{
		"NEXUS_API_KEY",
		"GAME_DOMAIN",
		"TELEGRAM_BOT_TOKEN",
		"TELEGRAM_CHAT_ID",
		"TELEGRAM_TOPIC_ID",
		"USERAGENT",
		"STATE_DIR",
		"HIDE_ADULT_CONTENT",
		"API_CACHE_TTL",
	} {
		if bindErr := viper.BindEnv(key); bindErr != nil {
			slog.Warn("Unable to bind env var", "key", key, "error", bindErr)
		}
	}

	if vipErr := viper.Unmarshal(&config); vipErr != nil {
		return Config{}, fmt.Errorf("unable to decode into struct, %w", vipErr)
	}

	processConfigDefaults(&config)

	if err := validateAndEnsureStateDir(&config); err != nil {
		return Config{}, err
	}

	return config, nil
}

// processConfigDefaults fills in defaults for optional settings.
func processConfigDefaults(cfg *Config) {
	if cfg.UserAgent == "" {
		cfg.UserAgent = "nexus-mods-notifier/dev (unknown-user)"
		slog.Warn("USERAGENT not set in config or environment, using default.")
	}
	if cfg.StateDir == "" {
		cfg.StateDir = "."
	}
	if cfg.APICacheTTL < 0 {
		slog.Warn("API_CACHE_TTL is negative, disabling the call cache")
		cfg.APICacheTTL = 0
	}
}

// validateAndEnsureStateDir makes sure the state directory exists so snapshot
// writes cannot fail on a missing parent.
func validateAndEnsureStateDir(cfg *Config) error {
	if _, err := os.Stat(cfg.StateDir); os.IsNotExist(err) {
		slog.Info("State directory does not exist, creating it", "path", cfg.StateDir)
		if err := os.MkdirAll(cfg.StateDir, 0755); err != nil {
			return fmt.Errorf("failed to create state directory %q: %w", cfg.StateDir, err)
		}
	} else if err != nil {
		return fmt.Errorf("failed to check state directory %q: %w", cfg.StateDir, err)
	}
	return nil
}

// SeenModsPath returns the addition tracker's snapshot file path.
func (c Config) SeenModsPath() string {
	return filepath.Join(c.StateDir, "seen_mods.json")
}

// UpdateCachePath returns the update tracker's snapshot file path.
func (c Config) UpdateCachePath() string {
	return filepath.Join(c.StateDir, "update_cache.json")
}
