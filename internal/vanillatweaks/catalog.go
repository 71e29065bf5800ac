package vanillatweaks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/featherpanel-com/MinecraftDatapackInstaller/internal/cache"
)

const (
	// CatalogTTL is how long catalog JSON is cached.
	CatalogTTL = 60 * time.Minute

	// ImageTTL is how long a genuine icon is cached.
	ImageTTL = 24 * time.Hour

	// PlaceholderTTL is how long a placeholder icon may be reused.
	PlaceholderTTL = time.Hour
)

// Image is an icon ready to be served.
type Image struct {
	Data        []byte
	ETag        string
	MaxAge      time.Duration
	Placeholder bool
}

// CatalogOptions configures a Catalog.
type CatalogOptions struct {
	// CacheSize bounds the number of cached catalogs and images each.
	CacheSize int
	// Clock overrides the cache time source; used by tests.
	Clock func() time.Time
}

// Catalog serves catalog JSON and icons through a response cache. The cache
// is an optimization only: results are the same cold or warm.
type Catalog struct {
	client   *Client
	catalogs *cache.Cache[[]byte]
	images   *cache.Cache[Image]
}

// NewCatalog wraps client with a response cache.
func NewCatalog(client *Client, opts CatalogOptions) *Catalog {
	var cacheOpts []cache.Option
	if opts.Clock != nil {
		cacheOpts = append(cacheOpts, cache.WithClock(opts.Clock))
	}
	return &Catalog{
		client:   client,
		catalogs: cache.New[[]byte](opts.CacheSize, cacheOpts...),
		images:   cache.New[Image](opts.CacheSize, cacheOpts...),
	}
}

// Client returns the underlying uncached client.
func (c *Catalog) Client() *Client {
	return c.client
}

func catalogKey(version string, packType PackType) string {
	return fmt.Sprintf("packs:%s:%s", version, packType)
}

// Packs returns the raw catalog JSON.
func (c *Catalog) Packs(ctx context.Context, version string, packType PackType) ([]byte, error) {
	key := catalogKey(version, packType)
	if data, ok := c.catalogs.Get(key); ok {
		slog.Debug("catalog cache hit", "key", key)
		return data, nil
	}

	slog.Debug("catalog cache miss", "key", key)
	data, err := c.client.FetchCatalogRaw(ctx, version, packType)
	if err != nil {
		return nil, err
	}

	c.catalogs.Set(key, data, CatalogTTL)
	return data, nil
}

// Catalog returns the decoded catalog.
func (c *Catalog) Catalog(ctx context.Context, version string, packType PackType) (*PackCatalog, error) {
	data, err := c.Packs(ctx, version, packType)
	if err != nil {
		return nil, err
	}
	return DecodeCatalog(data)
}

// ImageTag returns the entity tag for a pack icon without fetching it.
func (c *Catalog) ImageTag(packName, version string, packType PackType) string {
	return ImageTag(c.client.ResolveImageURL(packName, version, packType))
}

// Image returns a pack icon. It never fails: any problem, including an
// upstream 404, degrades to the transparent placeholder with a short
// lifetime.
func (c *Catalog) Image(ctx context.Context, packName, version string, packType PackType) Image {
	imageURL := c.client.ResolveImageURL(packName, version, packType)
	etag := ImageTag(imageURL)
	key := "image:" + etag[1:len(etag)-1]

	if img, ok := c.images.Get(key); ok {
		slog.Debug("image cache hit", "pack", packName, "placeholder", img.Placeholder)
		return img
	}

	var data []byte
	err := ValidateVersion(version)
	if err == nil && packName == "" {
		err = errors.New("pack name cannot be empty")
	}
	if err == nil {
		data, err = c.client.FetchImage(ctx, imageURL, packType)
	}

	if err != nil {
		if errors.Is(err, ErrImageNotFound) {
			slog.Debug("pack image not found, serving placeholder", "pack", packName, "url", imageURL)
		} else {
			slog.Warn("pack image fetch failed, serving placeholder", "pack", packName, "url", imageURL, "error", err)
		}
		img := Image{
			Data:        PlaceholderPNG(),
			ETag:        etag,
			MaxAge:      PlaceholderTTL,
			Placeholder: true,
		}
		if ctx.Err() == nil {
			c.images.Set(key, img, PlaceholderTTL)
		}
		return img
	}

	img := Image{
		Data:   data,
		ETag:   etag,
		MaxAge: ImageTTL,
	}
	c.images.Set(key, img, ImageTTL)
	return img
}
