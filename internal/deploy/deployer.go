// Package deploy recreates local files on a game server through the remote
// file daemon, one directory component and one file at a time.
package deploy

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/docker/go-units"

	"github.com/featherpanel-com/MinecraftDatapackInstaller/internal/apperr"
	"github.com/featherpanel-com/MinecraftDatapackInstaller/internal/wings"
)

// FileSystem is the subset of the remote file daemon used for deployment.
// *wings.ServerFS implements it.
type FileSystem interface {
	CreateDirectory(ctx context.Context, name, parent string) error
	WriteFile(ctx context.Context, path string, data []byte) error
}

// Deployer writes files to a remote server.
type Deployer struct {
	fs FileSystem
}

// New creates a Deployer for fs.
func New(fs FileSystem) *Deployer {
	return &Deployer{fs: fs}
}

// EnsureDirectory creates remoteRoot/segments[0]/.../segments[n-1], one
// component at a time. A component that already exists is not an error.
// Other failures are logged and collected; later components are still
// attempted and the collected error is returned.
func (d *Deployer) EnsureDirectory(ctx context.Context, remoteRoot string, segments []string) error {
	return d.ensureDirectory(ctx, remoteRoot, segments, nil)
}

// ensureDirectory skips components recorded in known and records the ones
// it creates. known may be nil.
func (d *Deployer) ensureDirectory(ctx context.Context, remoteRoot string, segments []string, known map[string]bool) error {
	var errs []error

	parent := remoteRoot
	for _, segment := range segments {
		if segment == "" || segment == "." {
			continue
		}
		if segment == ".." || strings.ContainsAny(segment, `/\`) {
			return apperr.InvalidRequest("ensure directory", "invalid path component %q", segment)
		}

		dir := path.Join(parent, segment)
		if known[dir] {
			parent = dir
			continue
		}

		err := d.fs.CreateDirectory(ctx, segment, parent)
		switch {
		case err == nil:
			slog.Debug("created remote directory", "path", dir)
		case wings.IsAlreadyExists(err):
			slog.Debug("remote directory already exists", "path", dir)
		default:
			slog.Warn("failed to create remote directory", "path", dir, "error", err)
			errs = append(errs, fmt.Errorf("create directory %s: %s", dir, wings.Message(err)))
		}

		if err == nil || wings.IsAlreadyExists(err) {
			if known != nil {
				known[dir] = true
			}
		}
		parent = dir
	}

	return errors.Join(errs...)
}

// WriteFile writes data to remotePath. A daemon failure is returned as a
// remote write error carrying the daemon's message.
func (d *Deployer) WriteFile(ctx context.Context, remotePath string, data []byte) error {
	if err := d.fs.WriteFile(ctx, remotePath, data); err != nil {
		return apperr.RemoteWrite("write file", fmt.Sprintf("%s: %s", remotePath, wings.Message(err)), err)
	}

	slog.Debug("wrote remote file",
		"path", remotePath,
		"size", units.HumanSize(float64(len(data))))
	return nil
}

// DeployFile writes data to remoteRoot/relPath, creating every directory
// component of relPath first.
func (d *Deployer) DeployFile(ctx context.Context, remoteRoot, relPath string, data []byte) error {
	return d.deployFile(ctx, remoteRoot, relPath, data, nil)
}

func (d *Deployer) deployFile(ctx context.Context, remoteRoot, relPath string, data []byte, known map[string]bool) error {
	relPath = strings.TrimPrefix(path.Clean("/"+filepath.ToSlash(relPath)), "/")
	if relPath == "" {
		return apperr.InvalidRequest("deploy file", "file path cannot be empty")
	}

	dir, _ := path.Split(relPath)
	var segments []string
	if dir != "" {
		segments = strings.Split(strings.TrimSuffix(dir, "/"), "/")
	}

	dirErr := d.ensureDirectory(ctx, remoteRoot, segments, known)
	if apperr.KindOf(dirErr) == apperr.KindInvalidRequest {
		return dirErr
	}

	remotePath := path.Join(remoteRoot, relPath)
	err := d.WriteFile(ctx, remotePath, data)
	if err != nil && dirErr != nil {
		return apperr.RemoteWrite("deploy file",
			fmt.Sprintf("%s (after directory errors: %v)", apperr.Message(err), dirErr), err)
	}
	return err
}

// DeployTree deploys every regular file below localRoot to the same
// relative path below remoteRoot/prefix and returns the number of files
// written. prefix may be empty. Directories of prefix are created like any
// other component, at most once per tree. The first failed write aborts
// the walk.
func (d *Deployer) DeployTree(ctx context.Context, localRoot, remoteRoot, prefix string) (int, error) {
	known := make(map[string]bool)
	written := 0

	err := filepath.WalkDir(localRoot, func(p string, entry fs.DirEntry, err error) error {
		if err != nil {
			return apperr.Internal("walk extracted files", err)
		}
		if !entry.Type().IsRegular() {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return apperr.Internal("deploy tree", err)
		}

		rel, err := filepath.Rel(localRoot, p)
		if err != nil {
			return apperr.Internal("deploy tree", err)
		}

		data, err := os.ReadFile(p)
		if err != nil {
			return apperr.Internal("read extracted file", err)
		}

		if err := d.deployFile(ctx, remoteRoot, path.Join(prefix, filepath.ToSlash(rel)), data, known); err != nil {
			return err
		}
		written++
		return nil
	})

	return written, err
}
