package tracker

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"nexus-mods-notifier/nexus"
	"nexus-mods-notifier/state"
)

// UpdateRow is one report row for a newly surfaced changelog version.
type UpdateRow struct {
	ModID      int
	Author     string
	Name       string
	Link       string
	OldVersion string
	NewVersion string
}

// NewEntriesSince returns the changelog entries that are new relative to
// oldVersion: everything strictly after its position in the chronological
// history. When oldVersion is absent from the history (pruned changelog, or
// a version recorded that never had notes) the entries from the
// second-to-last one onward are reported. That fallback is a permissive
// heuristic and may over- or under-report.
func NewEntriesSince(logs nexus.Changelogs, oldVersion string) []nexus.ChangelogEntry {
	start := 0
	if idx := logs.IndexOf(oldVersion); idx >= 0 {
		start = idx + 1
	} else if len(logs) >= 2 {
		start = len(logs) - 2
	}
	return logs[start:]
}

// formatChangelog renders the bundled notification body for the new entries.
func formatChangelog(entries []nexus.ChangelogEntry) string {
	parts := make([]string, 0, len(entries))
	for _, entry := range entries {
		parts = append(parts, fmt.Sprintf("<b>%s</b>\n- %s", entry.Version, strings.Join(entry.Notes, "\n- ")))
	}
	return strings.Join(parts, "\n")
}

// UpdateTracker maintains the tracked-mod cache and detects version changes.
type UpdateTracker struct {
	api      nexus.API
	notifier Notifier
	store    *state.Store
	game     string
	period   nexus.Period

	hideAdult bool
	cache     state.TrackedModCache
	log       *zap.SugaredLogger
}

// NewUpdateTracker loads the persisted cache and returns a ready tracker.
func NewUpdateTracker(api nexus.API, notifier Notifier, store *state.Store, game string, period nexus.Period, hideAdult bool, log *zap.SugaredLogger) (*UpdateTracker, error) {
	cache := state.NewTrackedModCache()
	if err := store.Load(&cache); err != nil {
		return nil, fmt.Errorf("failed to load update cache: %w", err)
	}
	return &UpdateTracker{
		api:       api,
		notifier:  notifier,
		store:     store,
		game:      game,
		period:    period,
		hideAdult: hideAdult,
		cache:     cache,
		log:       log,
	}, nil
}

// Cache exposes the in-memory tracked-mod cache.
func (t *UpdateTracker) Cache() state.TrackedModCache {
	return t.cache
}

// Bootstrap seeds one cache entry per tracked mod so the next cycle's diff
// has a baseline instead of reporting every tracked mod as changed. It runs
// only when the persisted cache is empty and is a no-op otherwise.
func (t *UpdateTracker) Bootstrap(ctx context.Context) error {
	if len(t.cache) > 0 {
		return nil
	}
	t.log.Info("Fetching initial list of tracked mods...")

	updatedAt, err := t.fetchUpdatedMap(ctx)
	if err != nil {
		return err
	}
	tracked, err := t.api.TrackedMods(ctx, t.game)
	if err != nil {
		return err
	}

	for _, tm := range tracked {
		details, err := t.api.Mod(ctx, t.game, tm.ModID)
		if err != nil {
			return err
		}
		entry := state.CacheEntry{
			Version: details.Version,
			IsAdult: details.ContainsAdultContent,
		}
		if ts, ok := updatedAt[tm.ModID]; ok {
			entry.LatestFileUpdate = &ts
		}
		t.cache[tm.ModID] = entry
	}

	if err := t.store.Save(t.cache); err != nil {
		return fmt.Errorf("failed to persist update cache: %w", err)
	}
	t.log.Infow("Initial population of tracked mods complete", zap.Int("tracked", len(tracked)))
	return nil
}

// RunOnce performs one steady-state cycle. The caller decides what to do
// with a returned error; by contract the updates loop logs it and keeps
// polling. The cache is persisted once after the full cycle; a crash
// mid-cycle costs at most a missed detection, because the next cycle's
// timestamp comparison simply finds no change.
func (t *UpdateTracker) RunOnce(ctx context.Context) ([]UpdateRow, error) {
	updatedAt, err := t.fetchUpdatedMap(ctx)
	if err != nil {
		return nil, err
	}
	tracked, err := t.api.TrackedMods(ctx, t.game)
	if err != nil {
		return nil, err
	}

	// Ascending ID order; entries are mutually independent but stable
	// processing keeps report output deterministic.
	ids := make([]int, 0, len(tracked))
	for _, tm := range tracked {
		ids = append(ids, tm.ModID)
	}
	sort.Ints(ids)

	var rows []UpdateRow
	for _, modID := range ids {
		entry, cached := t.cache[modID]

		// The tracked-mods listing carries no content flags, so the policy
		// filter works off the cached flag. Stale by at most one confirmed
		// update; uncached mods are seeded below and filtered from the next
		// cycle on.
		if t.hideAdult && cached && entry.IsAdult {
			continue
		}

		if !cached {
			t.log.Infow("Tracking new mod, fetching", zap.Int("mod_id", modID))
			if err := t.seedEntry(ctx, modID, updatedAt); err != nil {
				return rows, err
			}
			continue
		}

		// No file update, or none recorded remotely: no version change is
		// possible, skip without a detail fetch.
		newTS, updated := updatedAt[modID]
		if !updated || (entry.LatestFileUpdate != nil && *entry.LatestFileUpdate == newTS) {
			continue
		}

		modRows, err := t.confirmUpdate(ctx, modID, entry, newTS)
		if err != nil {
			return rows, err
		}
		rows = append(rows, modRows...)
	}

	if err := t.store.Save(t.cache); err != nil {
		return rows, fmt.Errorf("failed to persist update cache: %w", err)
	}
	return rows, nil
}

// confirmUpdate fetches authoritative mod details, reconciles the changelog
// against the cached version and overwrites the cache entry.
func (t *UpdateTracker) confirmUpdate(ctx context.Context, modID int, entry state.CacheEntry, newTS int64) ([]UpdateRow, error) {
	details, err := t.api.Mod(ctx, t.game, modID)
	if err != nil {
		return nil, err
	}

	oldVersion := entry.Version
	newVersion := details.Version

	var rows []UpdateRow
	if oldVersion != "" && newVersion != "" && oldVersion != newVersion {
		t.log.Infow("Mod has been updated",
			zap.Int("mod_id", modID),
			zap.String("old_version", oldVersion),
			zap.String("new_version", newVersion),
		)

		logs, err := t.api.Changelogs(ctx, t.game, modID)
		if err != nil {
			return nil, err
		}
		newEntries := NewEntriesSince(logs, oldVersion)

		text := fmt.Sprintf("<b>%s</b>\n%s - Version %s -> %s\nLink: %s\nChangelog:\n%s",
			details.Name, details.Author, oldVersion, newVersion, details.PageURL(), formatChangelog(newEntries))
		if err := t.notifier.Send(ctx, text); err != nil {
			t.log.Warnw("Failed to send notification", zap.Int("mod_id", modID), zap.Error(err))
		}

		for _, e := range newEntries {
			rows = append(rows, UpdateRow{
				ModID:      modID,
				Author:     details.Author,
				Name:       details.Name,
				Link:       details.PageURL(),
				OldVersion: oldVersion,
				NewVersion: e.Version,
			})
		}
	}

	t.cache[modID] = state.CacheEntry{
		Version:          newVersion,
		IsAdult:          details.ContainsAdultContent,
		LatestFileUpdate: &newTS,
	}
	return rows, nil
}

// seedEntry records a first observation of a tracked mod. First observation
// is silent: no notification until a later cycle confirms a change.
func (t *UpdateTracker) seedEntry(ctx context.Context, modID int, updatedAt map[int]int64) error {
	details, err := t.api.Mod(ctx, t.game, modID)
	if err != nil {
		return err
	}
	entry := state.CacheEntry{
		Version: details.Version,
		IsAdult: details.ContainsAdultContent,
	}
	if ts, ok := updatedAt[modID]; ok {
		entry.LatestFileUpdate = &ts
	}
	t.cache[modID] = entry
	return nil
}

func (t *UpdateTracker) fetchUpdatedMap(ctx context.Context) (map[int]int64, error) {
	updates, err := t.api.UpdatedMods(ctx, t.game, t.period)
	if err != nil {
		return nil, err
	}
	updatedAt := make(map[int]int64, len(updates))
	for _, u := range updates {
		updatedAt[u.ModID] = u.LatestFileUpdate
	}
	return updatedAt, nil
}
