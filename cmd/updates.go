package cmd

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"nexus-mods-notifier/logger"
	"nexus-mods-notifier/nexus"
	"nexus-mods-notifier/state"
	"nexus-mods-notifier/tracker"
	"nexus-mods-notifier/ui"
)

const defaultUpdatesInterval = 3600 * time.Second

// updatesCmd represents the updates command
var updatesCmd = &cobra.Command{
	Use:   "updates",
	Short: "Watch tracked mods for new versions",
	Long: `Polls the recently-updated listing for the configured game, compares
tracked mods against the persisted version cache and sends a Telegram message
with the new changelog entries for every confirmed version change.`,
	Run: func(cmd *cobra.Command, _ []string) {
		runUpdates(cmd)
	},
}

func init() {
	updatesCmd.Flags().StringP("period", "p", "1w", "Updated-mods window: 1d, 1w or 1m")
	rootCmd.AddCommand(updatesCmd)
}

func runUpdates(cmd *cobra.Command) {
	cfg, api, notifier := bootstrap(cmd)

	periodFlag, _ := cmd.Flags().GetString("period")
	period, err := nexus.ParsePeriod(periodFlag)
	if err != nil {
		logger.Log.Fatalw("Invalid --period", zap.Error(err))
	}

	store := state.NewStore(cfg.UpdateCachePath())
	tr, err := tracker.NewUpdateTracker(api, notifier, store, cfg.GameDomain, period, cfg.HideAdultContent, logger.Log)
	if err != nil {
		logger.Log.Fatalw("Failed to initialize update tracker", zap.Error(err))
	}

	ctx, stop := interruptContext()
	defer stop()

	// Baseline seeding happens once, before the loop; without it the first
	// cycle would report every tracked mod. A bootstrap failure is fatal:
	// polling against an empty cache is meaningless.
	if err := tr.Bootstrap(ctx); err != nil {
		if ctx.Err() != nil {
			logger.Log.Info("Exiting...")
			return
		}
		logger.Log.Fatalw("Failed to seed tracked mod cache", zap.Error(err))
	}

	interval := resolveFrequency(cmd, defaultUpdatesInterval)
	loop, _ := cmd.Flags().GetBool("no-loop")
	loop = !loop

	for {
		logger.Log.Info("Starting update check...")
		rows, err := tr.RunOnce(ctx)
		if err != nil {
			if ctx.Err() != nil {
				logger.Log.Info("Exiting...")
				return
			}
			// Transient failures must not kill a long poll run; the next
			// cycle retries from the persisted cache.
			logger.Log.Errorw("Update check failed", zap.Error(err))
		}

		if len(rows) > 0 {
			logger.Log.Infof("Updated mods: %d", len(rows))
			fmt.Println(renderUpdatesTable(rows))
		} else {
			logger.Log.Info("No updated mods found.")
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

func renderUpdatesTable(rows []tracker.UpdateRow) string {
	tableRows := make([][]string, 0, len(rows))
	for _, r := range rows {
		old := r.OldVersion
		if old == "" {
			old = "N/A"
		}
		tableRows = append(tableRows, []string{strconv.Itoa(r.ModID), r.Author, r.Name, r.Link, old, r.NewVersion})
	}
	return ui.Table([]string{"ID", "Author", "Name", "Link", "Old Version", "New Version"}, tableRows)
}
