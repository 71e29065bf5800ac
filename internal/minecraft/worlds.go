// Package minecraft inspects Minecraft server layouts through the remote
// file daemon and queries Mojang's version manifest.
package minecraft

import (
	"context"
	"log/slog"
	"path"
	"regexp"
	"sort"

	"github.com/featherpanel-com/MinecraftDatapackInstaller/internal/apperr"
	"github.com/featherpanel-com/MinecraftDatapackInstaller/internal/wings"
)

const (
	// DefaultWorld is the world name vanilla servers create.
	DefaultWorld = "world"

	// VersionsDir holds one directory per installed server version.
	VersionsDir = "versions"

	levelFile = "level.dat"
)

var versionPrefix = regexp.MustCompile(`^(\d+)\.(\d+)`)

// Lister lists remote directories. *wings.ServerFS implements it.
type Lister interface {
	ListDirectory(ctx context.Context, dir string) ([]wings.FileEntry, error)
}

// World is a world directory on the server.
type World struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

// ListWorlds returns the directories below root that contain a level.dat
// file. The default world comes first and the rest are sorted by name.
// Subdirectories that cannot be listed are skipped.
func ListWorlds(ctx context.Context, lister Lister, root string) ([]World, error) {
	const op = "list worlds"

	entries, err := lister.ListDirectory(ctx, root)
	if err != nil {
		if wings.IsNotFound(err) {
			return nil, apperr.NotFound(op, "directory %q not found", root)
		}
		return nil, apperr.RemoteWrite(op, wings.Message(err), err)
	}

	worlds := []World{}
	for _, entry := range entries {
		if !entry.Directory {
			continue
		}

		dir := path.Join(root, entry.Name)
		children, err := lister.ListDirectory(ctx, dir)
		if err != nil {
			slog.Debug("skipping unreadable directory", "path", dir, "error", err)
			continue
		}
		if hasLevelFile(children) {
			worlds = append(worlds, World{Name: entry.Name, Path: dir})
		}
	}

	sort.SliceStable(worlds, func(i, j int) bool {
		a, b := worlds[i].Name, worlds[j].Name
		if (a == DefaultWorld) != (b == DefaultWorld) {
			return a == DefaultWorld
		}
		return a < b
	})

	slog.Debug("discovered worlds", "root", root, "count", len(worlds))
	return worlds, nil
}

func hasLevelFile(entries []wings.FileEntry) bool {
	for _, e := range entries {
		if e.Name == levelFile && e.IsRegular() {
			return true
		}
	}
	return false
}

// DetectVersion returns MAJOR.MINOR of the first directory in dir whose
// name starts with a version number. It reports false if dir is missing,
// cannot be listed or has no such entry.
func DetectVersion(ctx context.Context, lister Lister, dir string) (string, bool) {
	entries, err := lister.ListDirectory(ctx, dir)
	if err != nil {
		slog.Debug("version directory not readable", "path", dir, "error", err)
		return "", false
	}

	for _, entry := range entries {
		if !entry.Directory {
			continue
		}
		if m := versionPrefix.FindStringSubmatch(entry.Name); m != nil {
			return m[1] + "." + m[2], true
		}
	}
	return "", false
}
