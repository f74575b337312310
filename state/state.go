// Package state persists the trackers' snapshots as flat JSON files.
// Each tracker owns one document which is read once at startup and
// rewritten wholesale at the end of every cycle.
package state

import (
	"encoding/json"
	"sort"
)

// SeenSet holds the mod IDs the addition tracker has already reported.
// It only ever grows. On disk it is a JSON array of integers; order is
// insignificant on reload but kept sorted for stable diffs of the file.
type SeenSet map[int]struct{}

// NewSeenSet returns an empty set.
func NewSeenSet() SeenSet {
	return make(SeenSet)
}

// Contains reports whether modID was already seen.
func (s SeenSet) Contains(modID int) bool {
	_, ok := s[modID]
	return ok
}

// Add marks modID as seen.
func (s SeenSet) Add(modID int) {
	s[modID] = struct{}{}
}

// Len returns the number of seen mods.
func (s SeenSet) Len() int {
	return len(s)
}

// IDs returns the members in ascending order.
func (s SeenSet) IDs() []int {
	ids := make([]int, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// MarshalJSON encodes the set as a sorted array of IDs.
func (s SeenSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.IDs())
}

// UnmarshalJSON decodes a JSON array of IDs.
func (s *SeenSet) UnmarshalJSON(data []byte) error {
	var ids []int
	if err := json.Unmarshal(data, &ids); err != nil {
		return err
	}
	set := make(SeenSet, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	*s = set
	return nil
}

// CacheEntry is the update tracker's last-known record for one tracked mod.
// LatestFileUpdate is nil until the mod has appeared in the recently-updated
// listing at least once.
type CacheEntry struct {
	Version          string `json:"version"`
	IsAdult          bool   `json:"is_adult"`
	LatestFileUpdate *int64 `json:"latest_file_update"`
}

// TrackedModCache maps mod ID to its cache entry. Entries are created when a
// mod is first observed as tracked and overwritten on confirmed changes;
// they are never deleted, even if the mod is later untracked upstream.
// encoding/json string-encodes the integer keys, matching the on-disk format.
type TrackedModCache map[int]CacheEntry

// NewTrackedModCache returns an empty cache.
func NewTrackedModCache() TrackedModCache {
	return make(TrackedModCache)
}

// IDs returns the cached mod IDs in ascending order.
func (c TrackedModCache) IDs() []int {
	ids := make([]int, 0, len(c))
	for id := range c {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}
