package vanillatweaks

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"image"
	"image/png"
	"io"
	"net/http"
	"net/url"

	"github.com/featherpanel-com/MinecraftDatapackInstaller/internal/apperr"
)

// placeholderPNG is a 1x1 fully transparent PNG.
var placeholderPNG = func() []byte {
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewNRGBA(image.Rect(0, 0, 1, 1))); err != nil {
		panic(err)
	}
	return buf.Bytes()
}()

// PlaceholderPNG returns a copy of the transparent pixel served in place of
// a missing icon.
func PlaceholderPNG() []byte {
	return bytes.Clone(placeholderPNG)
}

// ResolveImageURL returns the icon location of a pack.
func (c *Client) ResolveImageURL(packName, version string, packType PackType) string {
	return fmt.Sprintf("%s/assets/resources/icons/%s/%s/%s.png",
		c.config.BaseURL, packType.PathSegment(), url.PathEscape(version), url.PathEscape(packName))
}

// ImageTag is the entity tag of an icon: a quoted hash of its resolved URL.
func ImageTag(imageURL string) string {
	sum := sha1.Sum([]byte(imageURL))
	return `"` + hex.EncodeToString(sum[:]) + `"`
}

// FetchImage downloads an icon. A 404 yields ErrImageNotFound.
func (c *Client) FetchImage(ctx context.Context, imageURL string, packType PackType) ([]byte, error) {
	const op = "fetch image"

	resp, err := c.doRequest(ctx, http.MethodGet, imageURL, packType, nil, "", "image/png,image/*;q=0.8,*/*;q=0.5")
	if err != nil {
		return nil, apperr.Upstream(op, err.Error(), err)
	}
	if resp.StatusCode == http.StatusNotFound {
		_ = resp.Body.Close()
		return nil, ErrImageNotFound
	}
	if err := checkResponse(resp); err != nil {
		return nil, apperr.Upstream(op, err.Error(), err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxCatalogSize))
	if err != nil {
		return nil, apperr.Upstream(op, fmt.Sprintf("read image: %v", err), err)
	}
	if len(data) == 0 {
		return nil, ErrImageNotFound
	}
	return data, nil
}
