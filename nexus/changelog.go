package nexus

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ChangelogEntry is one version's change notes.
type ChangelogEntry struct {
	Version string
	Notes   []string
}

// Changelogs is a mod's version history, oldest entry first. The API returns
// a JSON object whose key order encodes chronology, so decoding must walk the
// object token by token; a plain map would throw the ordering away.
type Changelogs []ChangelogEntry

// UnmarshalJSON decodes the changelog object preserving key order.
func (c *Changelogs) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("failed to read changelog object: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("changelog payload is not a JSON object")
	}

	entries := Changelogs{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("failed to read changelog version key: %w", err)
		}
		version, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("changelog version key is not a string")
		}

		var notes []string
		if err := dec.Decode(&notes); err != nil {
			return fmt.Errorf("failed to decode notes for version %q: %w", version, err)
		}
		entries = append(entries, ChangelogEntry{Version: version, Notes: notes})
	}

	// Consume the closing brace so trailing garbage surfaces as an error.
	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("failed to read end of changelog object: %w", err)
	}

	*c = entries
	return nil
}

// MarshalJSON re-encodes the history as an object in entry order, so a
// decode/encode round trip reproduces the API payload.
func (c Changelogs) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, entry := range c {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(entry.Version)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		notes, err := json.Marshal(entry.Notes)
		if err != nil {
			return nil, err
		}
		buf.Write(notes)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// IndexOf returns the position of version within the history, or -1.
func (c Changelogs) IndexOf(version string) int {
	for i, entry := range c {
		if entry.Version == version {
			return i
		}
	}
	return -1
}
