package nexus

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"nexus-mods-notifier/config"
)

const (
	nexusAPIURL    = "https://api.nexusmods.com/v1"
	defaultTimeout = 15 * time.Second

	// The hourly API allowance is shared across every endpoint, so requests
	// are paced client-side instead of burning the quota on bootstrap.
	requestsPerSecond = 2
	requestBurst      = 5
)

// Client handles communication with the Nexus Mods API.
type Client struct {
	BaseURL    string
	APIKey     string
	UserAgent  string
	HTTPClient *http.Client

	limiter *rate.Limiter
}

// NewClient creates a new Nexus Mods API client using the provided configuration.
func NewClient(cfg config.Config) (*Client, error) {
	if cfg.NexusAPIKey == "" {
		return nil, fmt.Errorf("NEXUS_API_KEY is not configured")
	}
	if cfg.UserAgent == "" {
		// Should be handled by LoadConfig default, but double-check
		return nil, fmt.Errorf("USERAGENT is not configured")
	}

	return &Client{
		BaseURL:   nexusAPIURL,
		APIKey:    cfg.NexusAPIKey,
		UserAgent: cfg.UserAgent,
		HTTPClient: &http.Client{
			Timeout: defaultTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), requestBurst),
	}, nil
}

func (c *Client) makeRequest(ctx context.Context, path string, queryParams url.Values, target interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter interrupted: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	if queryParams != nil {
		req.URL.RawQuery = queryParams.Encode()
	}

	req.Header.Set("User-Agent", c.UserAgent)
	req.Header.Set("apikey", c.APIKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Try to read body for more error info, but don't fail if it's unreadable
		bodyBytes, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("api request failed: status %d, body: %s", resp.StatusCode, string(bodyBytes))
	}

	if target != nil {
		if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
			return fmt.Errorf("failed to decode json response: %w", err)
		}
	}

	return nil
}

// LatestAdded retrieves the most recently published mods for a game.
func (c *Client) LatestAdded(ctx context.Context, game string) ([]Mod, error) {
	var mods []Mod
	err := c.makeRequest(ctx, fmt.Sprintf("/games/%s/mods/latest_added.json", game), nil, &mods)
	if err != nil {
		return nil, fmt.Errorf("failed to get latest added mods for %q: %w", game, err)
	}
	return mods, nil
}

// TrackedMods retrieves the mods tracked by the account owning the API key,
// optionally filtered to a single game domain.
func (c *Client) TrackedMods(ctx context.Context, game string) ([]TrackedMod, error) {
	var tracked []TrackedMod
	err := c.makeRequest(ctx, "/user/tracked_mods.json", nil, &tracked)
	if err != nil {
		return nil, fmt.Errorf("failed to get tracked mods: %w", err)
	}
	if game == "" {
		return tracked, nil
	}
	filtered := tracked[:0]
	for _, tm := range tracked {
		if tm.DomainName == game {
			filtered = append(filtered, tm)
		}
	}
	return filtered, nil
}

// Mod retrieves full details for a single mod.
func (c *Client) Mod(ctx context.Context, game string, modID int) (*Mod, error) {
	var mod Mod
	err := c.makeRequest(ctx, fmt.Sprintf("/games/%s/mods/%d.json", game, modID), nil, &mod)
	if err != nil {
		return nil, fmt.Errorf("failed to get mod %d: %w", modID, err)
	}
	return &mod, nil
}

// UpdatedMods retrieves the mods updated within the given period.
func (c *Client) UpdatedMods(ctx context.Context, game string, period Period) ([]ModUpdate, error) {
	params := url.Values{}
	params.Add("period", string(period))

	var updates []ModUpdate
	err := c.makeRequest(ctx, fmt.Sprintf("/games/%s/mods/updated.json", game), params, &updates)
	if err != nil {
		return nil, fmt.Errorf("failed to get updated mods for %q: %w", game, err)
	}
	return updates, nil
}

// Changelogs retrieves the version history for a mod, oldest entry first.
func (c *Client) Changelogs(ctx context.Context, game string, modID int) (Changelogs, error) {
	var logs Changelogs
	err := c.makeRequest(ctx, fmt.Sprintf("/games/%s/mods/%d/changelogs.json", game, modID), nil, &logs)
	if err != nil {
		return nil, fmt.Errorf("failed to get changelogs for mod %d: %w", modID, err)
	}
	return logs, nil
}

// --- Structs for API responses ---

// Mod represents a Nexus Mods mod summary as returned by the mod endpoints.
type Mod struct {
	ModID                int    `json:"mod_id"`
	Name                 string `json:"name"`
	Author               string `json:"author"`
	Version              string `json:"version"`
	DomainName           string `json:"domain_name"`
	Available            bool   `json:"available"`
	ContainsAdultContent bool   `json:"contains_adult_content"`
}

// PageURL returns the public mod page for notification links.
func (m Mod) PageURL() string {
	return fmt.Sprintf("https://nexusmods.com/%s/mods/%d", m.DomainName, m.ModID)
}

// TrackedMod is one entry of the account's tracking list. The endpoint only
// carries identity, no availability or content flags.
type TrackedMod struct {
	ModID      int    `json:"mod_id"`
	DomainName string `json:"domain_name"`
}

// ModUpdate is one entry of the recently-updated listing.
type ModUpdate struct {
	ModID            int   `json:"mod_id"`
	LatestFileUpdate int64 `json:"latest_file_update"`
}

// Period restricts the updated-mods listing window.
type Period string

const (
	PeriodDay   Period = "1d"
	PeriodWeek  Period = "1w"
	PeriodMonth Period = "1m"
)

// ParsePeriod validates a period flag value.
func ParsePeriod(s string) (Period, error) {
	switch Period(s) {
	case PeriodDay, PeriodWeek, PeriodMonth:
		return Period(s), nil
	}
	return "", fmt.Errorf("invalid period %q (expected 1d, 1w or 1m)", s)
}
