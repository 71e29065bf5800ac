// Package wings is a client for the file endpoints of the Wings daemon that
// runs next to each game server.
package wings

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"
)

const (
	// DefaultConnectTimeout bounds TCP connection setup.
	DefaultConnectTimeout = 10 * time.Second

	// DefaultTimeout bounds a whole request.
	DefaultTimeout = 30 * time.Second

	// UserAgent is sent with daemon requests.
	UserAgent = "featherpanel-vanillatweaks/dev"
)

// Config holds client configuration for one node.
type Config struct {
	BaseURL        string
	Token          string
	ConnectTimeout time.Duration
	Timeout        time.Duration
	UserAgent      string
}

// Client talks to the Wings daemon of one node.
type Client struct {
	baseURL    string
	token      string
	userAgent  string
	httpClient *http.Client
}

// NewClient creates a new Wings client.
func NewClient(config Config) *Client {
	if config.ConnectTimeout <= 0 {
		config.ConnectTimeout = DefaultConnectTimeout
	}
	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeout
	}
	if config.UserAgent == "" {
		config.UserAgent = UserAgent
	}

	slog.Debug("creating Wings client",
		"base_url", config.BaseURL,
		"timeout", config.Timeout)

	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   config.ConnectTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout: config.ConnectTimeout,
		MaxIdleConnsPerHost: 4,
		IdleConnTimeout:     90 * time.Second,
	}

	return &Client{
		baseURL:    strings.TrimRight(config.BaseURL, "/"),
		token:      config.Token,
		userAgent:  config.UserAgent,
		httpClient: &http.Client{Timeout: config.Timeout, Transport: transport},
	}
}

// Server returns a handle for the files of one server.
func (c *Client) Server(uuid string) *ServerFS {
	return &ServerFS{client: c, uuid: uuid}
}

// FileEntry is one item of a directory listing.
type FileEntry struct {
	Name      string    `json:"name"`
	Created   time.Time `json:"created"`
	Modified  time.Time `json:"modified"`
	Mode      string    `json:"mode"`
	ModeBits  string    `json:"mode_bits"`
	Size      int64     `json:"size"`
	Directory bool      `json:"directory"`
	File      bool      `json:"file"`
	Symlink   bool      `json:"symlink"`
	Mime      string    `json:"mime"`
}

// IsRegular reports whether the entry is a plain file.
func (e FileEntry) IsRegular() bool {
	if e.Directory {
		return false
	}
	if e.File {
		return true
	}
	return e.Mime != "inode/directory"
}

// ServerFS performs file operations on one server.
type ServerFS struct {
	client *Client
	uuid   string
}

// UUID returns the server identifier.
func (s *ServerFS) UUID() string {
	return s.uuid
}

// absPath returns p as a rooted, cleaned path.
func absPath(p string) string {
	return path.Clean("/" + p)
}

func (s *ServerFS) endpoint(action string, query url.Values) string {
	u := fmt.Sprintf("%s/api/servers/%s/files/%s", s.client.baseURL, url.PathEscape(s.uuid), action)
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

func (s *ServerFS) do(ctx context.Context, method, rawURL string, body io.Reader, contentType string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", s.client.userAgent)
	req.Header.Set("Accept", "application/json")
	if s.client.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.client.token)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	slog.Debug("wings request",
		"method", method,
		"url", rawURL)

	resp, err := s.client.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, parseErrorResponse(resp)
	}
	return resp, nil
}

// ListDirectory lists the entries of dir.
func (s *ServerFS) ListDirectory(ctx context.Context, dir string) ([]FileEntry, error) {
	resp, err := s.do(ctx, http.MethodGet, s.endpoint("list-directory", url.Values{"directory": {absPath(dir)}}), nil, "")
	if err != nil {
		return nil, fmt.Errorf("list directory %s: %w", absPath(dir), err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	var entries []FileEntry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return nil, fmt.Errorf("decode directory listing: %w", err)
	}
	return entries, nil
}

// CreateDirectory creates a single directory called name inside parent.
func (s *ServerFS) CreateDirectory(ctx context.Context, name, parent string) error {
	body, err := json.Marshal(map[string]string{
		"name": name,
		"path": absPath(parent),
	})
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	resp, err := s.do(ctx, http.MethodPost, s.endpoint("create-directory", nil), bytes.NewReader(body), "application/json")
	if err != nil {
		return fmt.Errorf("create directory %s: %w", path.Join(absPath(parent), name), err)
	}
	_ = resp.Body.Close()
	return nil
}

// WriteFile replaces the contents of the file at p.
func (s *ServerFS) WriteFile(ctx context.Context, p string, data []byte) error {
	resp, err := s.do(ctx, http.MethodPost, s.endpoint("write", url.Values{"file": {absPath(p)}}), bytes.NewReader(data), "application/octet-stream")
	if err != nil {
		return fmt.Errorf("write file %s: %w", absPath(p), err)
	}
	_ = resp.Body.Close()
	return nil
}
