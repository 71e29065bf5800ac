package vanillatweaks

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/docker/go-units"

	"github.com/featherpanel-com/MinecraftDatapackInstaller/internal/apperr"
)

// ArchiveEndpoint returns the URL of the archive generation endpoint.
func (c *Client) ArchiveEndpoint(packType PackType) string {
	return c.config.BaseURL + "/assets/server/zip" + packType.PathSegment() + ".php"
}

// RequestArchive asks the upstream to build an archive containing the
// selected packs and returns its absolute download URL.
//
// The body is form encoded: "version" holds the Minecraft version and
// "packs" a JSON object keyed by category slug.
func (c *Client) RequestArchive(ctx context.Context, version string, packType PackType, selection Selection) (string, error) {
	const op = "request archive"

	if err := ValidateVersion(version); err != nil {
		return "", apperr.InvalidRequest(op, "%v", err)
	}
	if selection.Empty() {
		return "", apperr.InvalidRequest(op, "no packs selected")
	}

	packsJSON, err := json.Marshal(selection.Slugged())
	if err != nil {
		return "", apperr.Internal(op, fmt.Errorf("marshal packs: %w", err))
	}

	form := url.Values{}
	form.Set("version", version)
	form.Set("packs", string(packsJSON))

	slog.Debug("requesting archive",
		"version", version,
		"type", packType,
		"packs", string(packsJSON))

	resp, err := c.doRequest(ctx, http.MethodPost, c.ArchiveEndpoint(packType), packType,
		strings.NewReader(form.Encode()), "application/x-www-form-urlencoded; charset=UTF-8", "application/json")
	if err != nil {
		return "", apperr.Upstream(op, err.Error(), err)
	}
	if err := checkResponse(resp); err != nil {
		return "", apperr.Upstream(op, err.Error(), err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	var archive ArchiveResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxCatalogSize)).Decode(&archive); err != nil {
		return "", apperr.Upstream(op, fmt.Sprintf("decode response: %v", err), err)
	}

	if archive.Status != "success" {
		msg := archive.Message
		if msg == "" {
			msg = fmt.Sprintf("archive request failed with status %q", archive.Status)
		}
		return "", apperr.Upstream(op, msg, nil)
	}
	if archive.Link == "" {
		return "", apperr.Upstream(op, "archive response did not include a download link", nil)
	}

	link, err := c.resolveLink(archive.Link)
	if err != nil {
		return "", apperr.Upstream(op, fmt.Sprintf("invalid download link %q", archive.Link), err)
	}

	slog.Debug("archive generated", "link", link)
	return link, nil
}

// resolveLink makes a possibly relative upstream link absolute.
func (c *Client) resolveLink(link string) (string, error) {
	base, err := url.Parse(c.config.BaseURL + "/")
	if err != nil {
		return "", err
	}
	ref, err := url.Parse(link)
	if err != nil {
		return "", err
	}
	return base.ResolveReference(ref).String(), nil
}

// Download streams the archive at rawURL into w and returns the number of
// bytes written. A positive limit caps the archive size.
func (c *Client) Download(ctx context.Context, rawURL string, packType PackType, w io.Writer, limit int64) (int64, error) {
	const op = "download archive"

	resp, err := c.doRequest(ctx, http.MethodGet, rawURL, packType, nil, "", "application/zip, application/octet-stream, */*")
	if err != nil {
		return 0, apperr.Upstream(op, err.Error(), err)
	}
	if err := checkResponse(resp); err != nil {
		return 0, apperr.Upstream(op, err.Error(), err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	var body io.Reader = resp.Body
	if limit > 0 {
		body = io.LimitReader(resp.Body, limit+1)
	}

	n, err := io.Copy(w, body)
	if err != nil {
		return n, apperr.Upstream(op, fmt.Sprintf("read archive: %v", err), err)
	}
	if limit > 0 && n > limit {
		return n, apperr.Upstream(op, fmt.Sprintf("archive exceeds maximum size of %s", units.HumanSize(float64(limit))), nil)
	}

	slog.Debug("archive downloaded",
		"url", rawURL,
		"size", units.HumanSize(float64(n)))

	return n, nil
}
