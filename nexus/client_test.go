package nexus

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"nexus-mods-notifier/config"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(config.Config{NexusAPIKey: "test-key", UserAgent: "test-agent"})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	client.BaseURL = server.URL
	return client, server
}

func TestNewClientValidation(t *testing.T) {
	if _, err := NewClient(config.Config{UserAgent: "ua"}); err == nil {
		t.Error("expected error for missing API key")
	}
	if _, err := NewClient(config.Config{NexusAPIKey: "key"}); err == nil {
		t.Error("expected error for missing user agent")
	}
}

func TestClientHeaders(t *testing.T) {
	var gotAPIKey, gotUserAgent string
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAPIKey = r.Header.Get("apikey")
		gotUserAgent = r.Header.Get("User-Agent")
		w.Write([]byte(`[]`))
	}))

	if _, err := client.LatestAdded(context.Background(), "starfield"); err != nil {
		t.Fatalf("LatestAdded: %v", err)
	}
	if gotAPIKey != "test-key" {
		t.Errorf("apikey header = %q, want test-key", gotAPIKey)
	}
	if gotUserAgent != "test-agent" {
		t.Errorf("User-Agent header = %q, want test-agent", gotUserAgent)
	}
}

func TestLatestAdded(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/games/starfield/mods/latest_added.json" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		w.Write([]byte(`[{"mod_id":1,"name":"One","author":"a","version":"1.0","domain_name":"starfield","available":true,"contains_adult_content":false}]`))
	}))

	mods, err := client.LatestAdded(context.Background(), "starfield")
	if err != nil {
		t.Fatalf("LatestAdded: %v", err)
	}
	if len(mods) != 1 || mods[0].ModID != 1 || !mods[0].Available {
		t.Errorf("unexpected mods: %+v", mods)
	}
}

func TestTrackedModsGameFilter(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/user/tracked_mods.json" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		w.Write([]byte(`[{"mod_id":1,"domain_name":"starfield"},{"mod_id":2,"domain_name":"skyrim"},{"mod_id":3,"domain_name":"starfield"}]`))
	}))

	t.Run("filters by game domain", func(t *testing.T) {
		tracked, err := client.TrackedMods(context.Background(), "starfield")
		if err != nil {
			t.Fatalf("TrackedMods: %v", err)
		}
		if len(tracked) != 2 {
			t.Fatalf("expected 2 tracked mods, got %d", len(tracked))
		}
		for _, tm := range tracked {
			if tm.DomainName != "starfield" {
				t.Errorf("foreign domain leaked through filter: %+v", tm)
			}
		}
	})

	t.Run("empty game returns everything", func(t *testing.T) {
		tracked, err := client.TrackedMods(context.Background(), "")
		if err != nil {
			t.Fatalf("TrackedMods: %v", err)
		}
		if len(tracked) != 3 {
			t.Errorf("expected 3 tracked mods, got %d", len(tracked))
		}
	})
}

func TestUpdatedModsPeriodParam(t *testing.T) {
	var gotPeriod string
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPeriod = r.URL.Query().Get("period")
		w.Write([]byte(`[{"mod_id":9,"latest_file_update":1700000000}]`))
	}))

	updates, err := client.UpdatedMods(context.Background(), "starfield", PeriodMonth)
	if err != nil {
		t.Fatalf("UpdatedMods: %v", err)
	}
	if gotPeriod != "1m" {
		t.Errorf("period param = %q, want 1m", gotPeriod)
	}
	if len(updates) != 1 || updates[0].LatestFileUpdate != 1700000000 {
		t.Errorf("unexpected updates: %+v", updates)
	}
}

func TestModAndChangelogs(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/games/starfield/mods/7.json":
			w.Write([]byte(`{"mod_id":7,"name":"Seven","version":"2.0","domain_name":"starfield"}`))
		case "/games/starfield/mods/7/changelogs.json":
			w.Write([]byte(`{"1.0":["initial"],"2.0":["rework"]}`))
		default:
			t.Errorf("unexpected path %q", r.URL.Path)
			http.NotFound(w, r)
		}
	}))

	mod, err := client.Mod(context.Background(), "starfield", 7)
	if err != nil {
		t.Fatalf("Mod: %v", err)
	}
	if mod.Version != "2.0" {
		t.Errorf("mod version = %q, want 2.0", mod.Version)
	}
	if mod.PageURL() != "https://nexusmods.com/starfield/mods/7" {
		t.Errorf("unexpected page URL %q", mod.PageURL())
	}

	logs, err := client.Changelogs(context.Background(), "starfield", 7)
	if err != nil {
		t.Fatalf("Changelogs: %v", err)
	}
	if len(logs) != 2 || logs[1].Version != "2.0" {
		t.Errorf("unexpected changelogs: %+v", logs)
	}
}

func TestClientErrorStatus(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"message":"quota exhausted"}`, http.StatusTooManyRequests)
	}))

	if _, err := client.LatestAdded(context.Background(), "starfield"); err == nil {
		t.Error("expected error for non-2xx status")
	}
}

func TestParsePeriod(t *testing.T) {
	tests := []struct {
		input   string
		want    Period
		wantErr bool
	}{
		{"1d", PeriodDay, false},
		{"1w", PeriodWeek, false},
		{"1m", PeriodMonth, false},
		{"2w", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParsePeriod(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParsePeriod(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParsePeriod(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
