package tracker

import (
	"context"
	"fmt"

	"nexus-mods-notifier/nexus"
)

// fakeAPI implements nexus.API against fixture data and counts the per-mod
// calls so tests can assert which fetches a cycle performed.
type fakeAPI struct {
	latest     []nexus.Mod
	tracked    []nexus.TrackedMod
	mods       map[int]nexus.Mod
	updates    []nexus.ModUpdate
	changelogs map[int]nexus.Changelogs

	latestErr error

	modCalls       int
	changelogCalls int
	updatedCalls   int
	trackedCalls   int
}

func (f *fakeAPI) LatestAdded(_ context.Context, _ string) ([]nexus.Mod, error) {
	if f.latestErr != nil {
		return nil, f.latestErr
	}
	return f.latest, nil
}

func (f *fakeAPI) TrackedMods(_ context.Context, _ string) ([]nexus.TrackedMod, error) {
	f.trackedCalls++
	return f.tracked, nil
}

func (f *fakeAPI) Mod(_ context.Context, _ string, modID int) (*nexus.Mod, error) {
	f.modCalls++
	mod, ok := f.mods[modID]
	if !ok {
		return nil, fmt.Errorf("no fixture for mod %d", modID)
	}
	return &mod, nil
}

func (f *fakeAPI) UpdatedMods(_ context.Context, _ string, _ nexus.Period) ([]nexus.ModUpdate, error) {
	f.updatedCalls++
	return f.updates, nil
}

func (f *fakeAPI) Changelogs(_ context.Context, _ string, modID int) (nexus.Changelogs, error) {
	f.changelogCalls++
	return f.changelogs[modID], nil
}

// fakeNotifier records every sent message.
type fakeNotifier struct {
	sent    []string
	sendErr error
}

func (f *fakeNotifier) Send(_ context.Context, text string) error {
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, text)
	return nil
}
