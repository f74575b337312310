package tracker

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"nexus-mods-notifier/nexus"
	"nexus-mods-notifier/state"
)

// Addition is one report row for a newly published mod.
type Addition struct {
	ModID   int
	Author  string
	Name    string
	Version string
	Link    string
}

// Message formats the Telegram notification for a new mod.
func (a Addition) Message() string {
	return fmt.Sprintf("<b>%s</b>\n%s - Version %s\nLink: %s", a.Name, a.Author, a.Version, a.Link)
}

// DetectAdditions diffs the latest-added snapshot against the seen set and
// returns report rows for mods to notify about. Mods are processed in
// ascending ID order for stable output.
//
// The seen set is mutated in place. Unavailable mods are skipped without
// being marked seen, so they are re-evaluated next cycle once published for
// real. Adult mods under an active filter are marked seen but produce no
// row: one shot per identifier, even if the policy changes later.
func DetectAdditions(mods []nexus.Mod, seen state.SeenSet, hideAdult bool, log *zap.SugaredLogger) []Addition {
	sorted := make([]nexus.Mod, len(mods))
	copy(sorted, mods)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ModID < sorted[j].ModID })

	var additions []Addition
	for _, mod := range sorted {
		if seen.Contains(mod.ModID) {
			continue
		}
		if !mod.Available {
			log.Infow("Mod not available yet, skipping", zap.Int("mod_id", mod.ModID))
			continue
		}

		seen.Add(mod.ModID)

		if hideAdult && mod.ContainsAdultContent {
			log.Infow("Mod contains adult content, skipping", zap.Int("mod_id", mod.ModID))
			continue
		}

		name := mod.Name
		if name == "" {
			name = "N/A"
		}
		additions = append(additions, Addition{
			ModID:   mod.ModID,
			Author:  mod.Author,
			Name:    name,
			Version: mod.Version,
			Link:    mod.PageURL(),
		})
	}
	return additions
}

// AdditionTracker runs the addition-detection cycle against the live API and
// the persisted seen set.
type AdditionTracker struct {
	api      nexus.API
	notifier Notifier
	store    *state.Store
	game     string

	hideAdult bool
	seen      state.SeenSet
	log       *zap.SugaredLogger
}

// NewAdditionTracker loads the persisted seen set and returns a ready tracker.
func NewAdditionTracker(api nexus.API, notifier Notifier, store *state.Store, game string, hideAdult bool, log *zap.SugaredLogger) (*AdditionTracker, error) {
	seen := state.NewSeenSet()
	if err := store.Load(&seen); err != nil {
		return nil, fmt.Errorf("failed to load seen set: %w", err)
	}
	return &AdditionTracker{
		api:       api,
		notifier:  notifier,
		store:     store,
		game:      game,
		hideAdult: hideAdult,
		seen:      seen,
		log:       log,
	}, nil
}

// Seen exposes the in-memory seen set.
func (t *AdditionTracker) Seen() state.SeenSet {
	return t.seen
}

// RunOnce performs one poll cycle: fetch, diff, notify, persist. A fetch
// failure is returned to the caller; this tracker has no per-cycle recovery.
// The seen set is persisted once after the full cycle, so a crash mid-cycle
// may re-notify mods already handled in that same cycle.
func (t *AdditionTracker) RunOnce(ctx context.Context) ([]Addition, error) {
	mods, err := t.api.LatestAdded(ctx, t.game)
	if err != nil {
		return nil, err
	}

	additions := DetectAdditions(mods, t.seen, t.hideAdult, t.log)

	for _, a := range additions {
		if err := t.notifier.Send(ctx, a.Message()); err != nil {
			// Fire-and-forget messaging: log and keep going.
			t.log.Warnw("Failed to send notification", zap.Int("mod_id", a.ModID), zap.Error(err))
		}
	}

	if err := t.store.Save(t.seen); err != nil {
		return additions, fmt.Errorf("failed to persist seen set: %w", err)
	}
	return additions, nil
}
