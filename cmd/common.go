package cmd

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"nexus-mods-notifier/config"
	"nexus-mods-notifier/logger"
	"nexus-mods-notifier/nexus"
	"nexus-mods-notifier/telegram"
)

// bootstrap handles shared initialization logic for the polling commands.
func bootstrap(cmd *cobra.Command) (config.Config, nexus.API, *telegram.Client) {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		logger.Log.Fatalw("Failed to load configuration", zap.Error(err))
	}
	applyFlagOverrides(cmd, &cfg)

	if cfg.NexusAPIKey == "" {
		logger.Log.Fatal("Error: NEXUS_API_KEY or --api-key must be set.")
	}
	if cfg.GameDomain == "" {
		logger.Log.Fatal("Error: GAME_DOMAIN or --game-name must be set.")
	}

	client, err := nexus.NewClient(cfg)
	if err != nil {
		logger.Log.Fatalw("Failed to create Nexus Mods client", zap.Error(err))
	}
	api := nexus.NewCachedClient(client, time.Duration(cfg.APICacheTTL)*time.Second)

	notifier, err := telegram.NewClient(cfg)
	if err != nil {
		logger.Log.Fatalw("Failed to create Telegram client", zap.Error(err))
	}

	return cfg, api, notifier
}

// applyFlagOverrides lets command-line flags win over config file and
// environment values.
func applyFlagOverrides(cmd *cobra.Command, cfg *config.Config) {
	if v, _ := cmd.Flags().GetString("api-key"); v != "" {
		cfg.NexusAPIKey = v
	}
	if v, _ := cmd.Flags().GetString("game-name"); v != "" {
		cfg.GameDomain = v
	}
	if v, _ := cmd.Flags().GetString("chat-id"); v != "" {
		cfg.TelegramChatID = v
	}
	if v, _ := cmd.Flags().GetString("tg-token"); v != "" {
		cfg.TelegramBotToken = v
	}
	if v, _ := cmd.Flags().GetString("topic-id"); v != "" {
		cfg.TelegramTopicID = v
	}
	if cmd.Flags().Changed("hide-adult-content") {
		v, _ := cmd.Flags().GetBool("hide-adult-content")
		cfg.HideAdultContent = v
	}
}

// resolveFrequency picks the poll interval: explicit flag value, otherwise
// the mode-specific default.
func resolveFrequency(cmd *cobra.Command, fallback time.Duration) time.Duration {
	seconds, _ := cmd.Flags().GetInt("frequency")
	if seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	return fallback
}

// interruptContext returns a context cancelled by SIGINT or SIGTERM, so a
// cycle in flight finishes its state write and the loop exits cleanly.
func interruptContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

// sleepOrDone blocks for d and reports false if the context was cancelled
// before the interval elapsed.
func sleepOrDone(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}
