package cmdutil

import (
	"fmt"

	"github.com/featherpanel-com/MinecraftDatapackInstaller/internal/activity"
	"github.com/featherpanel-com/MinecraftDatapackInstaller/internal/api"
	"github.com/featherpanel-com/MinecraftDatapackInstaller/internal/config"
	"github.com/featherpanel-com/MinecraftDatapackInstaller/internal/installer"
	"github.com/featherpanel-com/MinecraftDatapackInstaller/internal/vanillatweaks"
)

// App holds the collaborators built from a Config.
type App struct {
	Config    *config.Config
	Client    *vanillatweaks.Client
	Catalog   *vanillatweaks.Catalog
	Installer *installer.Installer
	Resolver  *api.ConfigResolver

	store *activity.Store
}

// NewApp wires the catalog, installer, resolver and activity sink. Without
// an activity database, installs are recorded to the log only.
func NewApp(cfg *config.Config) (*App, error) {
	maxArchive, err := cfg.MaxArchiveBytes()
	if err != nil {
		return nil, err
	}

	client := vanillatweaks.NewClient(vanillatweaks.Config{
		BaseURL:        cfg.Catalog.BaseURL,
		UserAgent:      cfg.Catalog.UserAgent,
		ConnectTimeout: cfg.Catalog.ConnectTimeout,
		Timeout:        cfg.Catalog.Timeout,
	})

	a := &App{
		Config:   cfg,
		Client:   client,
		Catalog:  vanillatweaks.NewCatalog(client, vanillatweaks.CatalogOptions{CacheSize: cfg.Catalog.CacheSize}),
		Resolver: api.NewConfigResolver(cfg),
	}

	var sink activity.Sink = activity.LogSink{}
	if cfg.Activity.Database != "" {
		store, err := activity.Open(cfg.Activity.Database)
		if err != nil {
			return nil, fmt.Errorf("open activity database: %w", err)
		}
		a.store = store
		sink = store
	}

	a.Installer = installer.New(client, installer.Options{
		MinPause:       cfg.Catalog.MinPause,
		MaxPause:       cfg.Catalog.MaxPause,
		MaxArchiveSize: maxArchive,
		TempDir:        cfg.Catalog.TempDir,
		Sink:           sink,
	})

	return a, nil
}

// ActivityLister returns the activity store, or nil when none is
// configured.
func (a *App) ActivityLister() activity.Lister {
	if a.store == nil {
		return nil
	}
	return a.store
}

func (a *App) Close() error {
	if a.store == nil {
		return nil
	}
	return a.store.Close()
}

// WithApp runs fn with an App built from the loaded config.
func WithApp(fn func(a *App) error) error {
	a, err := NewApp(Config())
	if err != nil {
		return err
	}
	defer func() {
		_ = a.Close()
	}()
	return fn(a)
}
