// Package vanillatweaks is a client for the public Vanilla Tweaks catalog:
// pack listings, pack icons and generated pack archives.
package vanillatweaks

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/docker/go-units"

	"github.com/featherpanel-com/MinecraftDatapackInstaller/internal/apperr"
)

const (
	// DefaultBaseURL is the Vanilla Tweaks site root.
	DefaultBaseURL = "https://vanillatweaks.net"

	// DefaultConnectTimeout bounds TCP connection setup.
	DefaultConnectTimeout = 10 * time.Second

	// DefaultTimeout bounds a whole request including the body.
	DefaultTimeout = 30 * time.Second

	// UserAgent mimics a desktop browser; the upstream rejects requests that
	// do not look like they come from its own picker page.
	UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

	// maxCatalogSize caps catalog and image bodies.
	maxCatalogSize = 8 << 20
)

var versionChars = regexp.MustCompile(`^[0-9A-Za-z.\-]+$`)

// Config holds client configuration. The client keeps its own copy.
type Config struct {
	BaseURL        string
	UserAgent      string
	ConnectTimeout time.Duration
	Timeout        time.Duration
}

func (c Config) withDefaults() Config {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	if c.UserAgent == "" {
		c.UserAgent = UserAgent
	}
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = DefaultConnectTimeout
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	return c
}

// Client talks to the Vanilla Tweaks site.
type Client struct {
	config     Config
	httpClient *http.Client
}

// NewClient creates a new Vanilla Tweaks client.
func NewClient(config Config) *Client {
	config = config.withDefaults()

	slog.Debug("creating Vanilla Tweaks client",
		"base_url", config.BaseURL,
		"connect_timeout", config.ConnectTimeout,
		"timeout", config.Timeout)

	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   config.ConnectTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout: config.ConnectTimeout,
		MaxIdleConns:        10,
		IdleConnTimeout:     90 * time.Second,
	}

	return &Client{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout, Transport: transport},
	}
}

// Config returns the client's configuration.
func (c *Client) Config() Config {
	return c.config
}

// ValidateVersion checks that version looks like a Minecraft release
// (e.g. "1.21" or "1.20.4") and is safe to embed in a URL path.
func ValidateVersion(version string) error {
	if version == "" {
		return fmt.Errorf("%w: version cannot be empty", ErrInvalidVersion)
	}
	if !versionChars.MatchString(version) {
		return fmt.Errorf("%w: %q", ErrInvalidVersion, version)
	}
	if _, err := semver.NewVersion(version); err != nil {
		return fmt.Errorf("%w: %q: %v", ErrInvalidVersion, version, err)
	}
	return nil
}

// pickerURL is the page of the upstream site that normally issues requests
// for the given pack type.
func (c *Client) pickerURL(packType PackType) string {
	return c.config.BaseURL + "/picker/" + packType.PathSegment() + "/"
}

// doRequest performs an HTTP request carrying browser-like headers.
func (c *Client) doRequest(ctx context.Context, method, rawURL string, packType PackType, body io.Reader, contentType, accept string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", c.config.UserAgent)
	req.Header.Set("Accept", accept)
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Origin", c.config.BaseURL)
	req.Header.Set("Referer", c.pickerURL(packType))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	slog.Debug("vanilla tweaks request",
		"method", method,
		"url", rawURL)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	return resp, nil
}

// checkResponse returns an *APIError for any status other than 200.
// The body is closed on error.
func checkResponse(resp *http.Response) error {
	if resp.StatusCode == http.StatusOK {
		return nil
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return NewAPIError(resp.StatusCode, strings.TrimSpace(string(body)))
}

// CatalogURL returns the location of the catalog JSON.
func (c *Client) CatalogURL(version string, packType PackType) string {
	return fmt.Sprintf("%s/assets/resources/json/%s/%scategories.json",
		c.config.BaseURL, url.PathEscape(version), packType.Prefix())
}

// FetchCatalogRaw fetches the catalog JSON for a version and pack type.
// The body is returned verbatim after checking it is valid JSON.
func (c *Client) FetchCatalogRaw(ctx context.Context, version string, packType PackType) ([]byte, error) {
	const op = "fetch catalog"

	if err := ValidateVersion(version); err != nil {
		return nil, apperr.InvalidRequest(op, "%v", err)
	}

	resp, err := c.doRequest(ctx, http.MethodGet, c.CatalogURL(version, packType), packType, nil, "", "application/json")
	if err != nil {
		return nil, apperr.Upstream(op, err.Error(), err)
	}
	if err := checkResponse(resp); err != nil {
		return nil, apperr.Upstream(op, err.Error(), err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxCatalogSize))
	if err != nil {
		return nil, apperr.Upstream(op, fmt.Sprintf("read response: %v", err), err)
	}
	if !json.Valid(data) {
		return nil, apperr.Upstream(op, "catalog response is not valid JSON", nil)
	}

	slog.Debug("catalog fetched",
		"version", version,
		"type", packType,
		"size", units.HumanSize(float64(len(data))))

	return data, nil
}

// FetchCatalog fetches and decodes the catalog.
func (c *Client) FetchCatalog(ctx context.Context, version string, packType PackType) (*PackCatalog, error) {
	data, err := c.FetchCatalogRaw(ctx, version, packType)
	if err != nil {
		return nil, err
	}
	return DecodeCatalog(data)
}

// DecodeCatalog decodes catalog JSON. Unknown fields are ignored.
func DecodeCatalog(data []byte) (*PackCatalog, error) {
	var catalog PackCatalog
	if err := json.Unmarshal(data, &catalog); err != nil {
		return nil, apperr.Upstream("decode catalog", fmt.Sprintf("decode catalog: %v", err), err)
	}
	return &catalog, nil
}
