package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd is the base command; the run modes are mutually exclusive
// subcommands.
var rootCmd = &cobra.Command{
	Use:   "nexus-mods-notifier",
	Short: "Watches Nexus Mods for new and updated mods and notifies Telegram",
	Long: `Polls the Nexus Mods API on an interval and sends a Telegram message
for every newly published mod (additions) or new version of a tracked mod
(updates). State is persisted between runs so nothing is reported twice.`,
}

// Execute runs the CLI.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringP("api-key", "k", "", "API key for Nexus Mods (overrides NEXUS_API_KEY)")
	pf.StringP("game-name", "g", "", "Game domain name, e.g. 'starfield' (overrides GAME_DOMAIN)")
	pf.StringP("chat-id", "c", "", "Telegram chat ID (overrides TELEGRAM_CHAT_ID)")
	pf.StringP("tg-token", "t", "", "Telegram bot token (overrides TELEGRAM_BOT_TOKEN)")
	pf.StringP("topic-id", "o", "", "Telegram group topic ID (overrides TELEGRAM_TOPIC_ID)")
	pf.BoolP("hide-adult-content", "a", false, "Hide adult content")
	pf.BoolP("no-loop", "l", false, "Run a single cycle instead of looping forever")
	pf.IntP("frequency", "f", 0, "Seconds between checks (defaults: 300 additions, 3600 updates)")
}
