package cmd

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"nexus-mods-notifier/logger"
	"nexus-mods-notifier/state"
	"nexus-mods-notifier/tracker"
	"nexus-mods-notifier/ui"
)

const defaultAdditionsInterval = 300 * time.Second

// additionsCmd represents the additions command
var additionsCmd = &cobra.Command{
	Use:   "additions",
	Short: "Watch for newly published mods",
	Long: `Polls the latest-added listing for the configured game and sends a
Telegram message for every mod that has not been reported before.`,
	Run: func(cmd *cobra.Command, _ []string) {
		runAdditions(cmd)
	},
}

func init() {
	rootCmd.AddCommand(additionsCmd)
}

func runAdditions(cmd *cobra.Command) {
	cfg, api, notifier := bootstrap(cmd)

	store := state.NewStore(cfg.SeenModsPath())
	tr, err := tracker.NewAdditionTracker(api, notifier, store, cfg.GameDomain, cfg.HideAdultContent, logger.Log)
	if err != nil {
		logger.Log.Fatalw("Failed to initialize addition tracker", zap.Error(err))
	}

	ctx, stop := interruptContext()
	defer stop()

	interval := resolveFrequency(cmd, defaultAdditionsInterval)
	loop, _ := cmd.Flags().GetBool("no-loop")
	loop = !loop

	for {
		logger.Log.Info("Starting new mod check...")
		additions, err := tr.RunOnce(ctx)
		if err != nil {
			if ctx.Err() != nil {
				logger.Log.Info("Exiting...")
				return
			}
			// No per-cycle recovery in this mode: a fetch failure ends the run.
			logger.Log.Fatalw("Mod check failed", zap.Error(err))
		}

		if len(additions) > 0 {
			logger.Log.Infof("New mods found: %d", len(additions))
			fmt.Println(renderAdditionsTable(additions))
		} else {
			logger.Log.Info("No new mods found.")
		}

		if !loop {
			return
		}
		logger.Log.Infof("Sleeping for %s...", interval)
		if !sleepOrDone(ctx, interval) {
			logger.Log.Info("Exiting...")
			return
		}
	}
}

func renderAdditionsTable(additions []tracker.Addition) string {
	rows := make([][]string, 0, len(additions))
	for _, a := range additions {
		rows = append(rows, []string{strconv.Itoa(a.ModID), a.Author, a.Name, a.Link})
	}
	return ui.Table([]string{"ID", "Author", "Name", "Link"}, rows)
}
