package minecraft

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

const (
	// VersionManifestURL is the Mojang API endpoint for the version manifest.
	VersionManifestURL = "https://launchermeta.mojang.com/mc/game/version_manifest.json"

	// DefaultTimeout is the default HTTP client timeout.
	DefaultTimeout = 30 * time.Second

	// UserAgent is the user agent string sent with manifest requests.
	UserAgent = "vtinstaller (https://github.com/featherpanel-com/MinecraftDatapackInstaller)"
)

// VersionManifest is the Mojang version manifest response.
type VersionManifest struct {
	Latest struct {
		Release  string `json:"release"`
		Snapshot string `json:"snapshot"`
	} `json:"latest"`
	Versions []VersionInfo `json:"versions"`
}

// VersionInfo is a single Minecraft version entry.
type VersionInfo struct {
	ID          string `json:"id"`
	Type        string `json:"type"` // "release" or "snapshot"
	URL         string `json:"url"`
	Time        string `json:"time"`
	ReleaseTime string `json:"releaseTime"`
}

// Client fetches the version manifest.
type Client struct {
	httpClient  *http.Client
	manifestURL string
	userAgent   string
}

// Config holds client configuration.
type Config struct {
	ManifestURL string
	Timeout     time.Duration
	UserAgent   string
}

// NewClient creates a version manifest client. A nil config uses defaults.
func NewClient(config *Config) *Client {
	cfg := Config{}
	if config != nil {
		cfg = *config
	}
	if cfg.ManifestURL == "" {
		cfg.ManifestURL = VersionManifestURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = UserAgent
	}

	return &Client{
		httpClient:  &http.Client{Timeout: cfg.Timeout},
		manifestURL: cfg.ManifestURL,
		userAgent:   cfg.UserAgent,
	}
}

// GetVersionManifest fetches the version manifest.
func (c *Client) GetVersionManifest(ctx context.Context) (*VersionManifest, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.manifestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	slog.Debug("fetching Minecraft version manifest", "url", c.manifestURL)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var manifest VersionManifest
	if err := json.NewDecoder(resp.Body).Decode(&manifest); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	slog.Debug("fetched version manifest",
		"total_versions", len(manifest.Versions),
		"latest_release", manifest.Latest.Release)

	return &manifest, nil
}

// ReleaseLines returns the distinct MAJOR.MINOR lines of the release
// versions, in manifest order (newest first). Vanilla Tweaks publishes one
// catalog per line. If limit is positive, at most limit lines are returned.
func ReleaseLines(versions []VersionInfo, limit int) []string {
	lines := make([]string, 0)
	seen := make(map[string]bool)

	for _, v := range versions {
		if v.Type != "release" {
			continue
		}
		m := versionPrefix.FindStringSubmatch(v.ID)
		if m == nil {
			continue
		}

		line := m[1] + "." + m[2]
		if seen[line] {
			continue
		}
		seen[line] = true
		lines = append(lines, line)

		if limit > 0 && len(lines) >= limit {
			break
		}
	}

	return lines
}
