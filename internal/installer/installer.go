// Package installer downloads Vanilla Tweaks archives and deploys their
// contents into a world on a remote game server.
package installer

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"net/url"
	"os"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/docker/go-units"

	"github.com/featherpanel-com/MinecraftDatapackInstaller/internal/activity"
	"github.com/featherpanel-com/MinecraftDatapackInstaller/internal/apperr"
	"github.com/featherpanel-com/MinecraftDatapackInstaller/internal/deploy"
	"github.com/featherpanel-com/MinecraftDatapackInstaller/internal/vanillatweaks"
)

const (
	// DefaultMinPause and DefaultMaxPause bound the pause between the
	// archive request and the download.
	DefaultMinPause = 500 * time.Millisecond
	DefaultMaxPause = 1500 * time.Millisecond

	// DefaultMaxArchiveSize caps downloaded archives.
	DefaultMaxArchiveSize = 64 * units.MiB

	datapacksDir = "datapacks"
)

var unsafeVersionChars = regexp.MustCompile(`[^A-Za-z0-9._-]`)

// Archives is the part of the catalog client used to obtain archives.
// *vanillatweaks.Client implements it.
type Archives interface {
	RequestArchive(ctx context.Context, version string, packType vanillatweaks.PackType, selection vanillatweaks.Selection) (string, error)
	Download(ctx context.Context, rawURL string, packType vanillatweaks.PackType, w io.Writer, limit int64) (int64, error)
}

// Options configures an Installer. A zero MaxPause disables the pause.
type Options struct {
	MinPause       time.Duration
	MaxPause       time.Duration
	MaxArchiveSize int64
	// TempDir holds downloads and extracted files. Empty means os.TempDir.
	TempDir string
	// Sink receives a record for every successful install. May be nil.
	Sink activity.Sink
}

// DefaultOptions returns the production options.
func DefaultOptions() Options {
	return Options{
		MinPause:       DefaultMinPause,
		MaxPause:       DefaultMaxPause,
		MaxArchiveSize: DefaultMaxArchiveSize,
	}
}

// Job describes one install.
type Job struct {
	ServerUUID string
	User       string
	MCVersion  string
	PackType   vanillatweaks.PackType
	Selection  vanillatweaks.Selection
	// World is the world directory relative to the server root.
	World string
}

// Result summarizes a successful install.
type Result struct {
	PackType     vanillatweaks.PackType `json:"pack_type"`
	World        string                 `json:"world"`
	PacksCount   int                    `json:"packs_count"`
	FilesWritten int                    `json:"files_written"`
}

// Installer runs install jobs.
type Installer struct {
	archives Archives
	opts     Options
	sleep    func(ctx context.Context, d time.Duration) error
}

// New creates an Installer.
func New(archives Archives, opts Options) *Installer {
	return &Installer{
		archives: archives,
		opts:     opts,
		sleep:    sleepContext,
	}
}

// Install requests the archive for job, downloads it and deploys its
// contents to <world>/datapacks on fs.
//
// Crafting tweaks arrive as a single datapack zip and are written as-is.
// Other pack types are extracted and every regular file is written to the
// same relative path.
func (i *Installer) Install(ctx context.Context, fs deploy.FileSystem, job Job) (*Result, error) {
	start := time.Now()

	result, err := i.install(ctx, fs, job)
	if err != nil {
		slog.Error("install failed",
			"op", "install",
			"server", job.ServerUUID,
			"world", job.World,
			"type", job.PackType,
			"error", err)
		return nil, err
	}

	slog.Info("packs installed",
		"server", job.ServerUUID,
		"world", result.World,
		"type", result.PackType,
		"packs", result.PacksCount,
		"files", result.FilesWritten,
		"duration", time.Since(start))

	i.record(ctx, job, result)
	return result, nil
}

func (i *Installer) install(ctx context.Context, fs deploy.FileSystem, job Job) (*Result, error) {
	const op = "install"

	job, err := validate(job)
	if err != nil {
		return nil, err
	}

	link, err := i.archives.RequestArchive(ctx, job.MCVersion, job.PackType, job.Selection)
	if err != nil {
		return nil, err
	}

	if err := i.pause(ctx); err != nil {
		return nil, apperr.Internal(op, err)
	}

	tmp, err := os.CreateTemp(i.opts.TempDir, "vanillatweaks-*.zip")
	if err != nil {
		return nil, apperr.Internal(op, fmt.Errorf("create temp file: %w", err))
	}
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
	}()

	size, err := i.archives.Download(ctx, link, job.PackType, tmp, i.opts.MaxArchiveSize)
	if err != nil {
		return nil, err
	}

	d := deploy.New(fs)

	// Files are deployed relative to the world so datapacks is created again
	// per file; a failure here is not fatal.
	if err := d.EnsureDirectory(ctx, job.World, []string{datapacksDir}); err != nil {
		slog.Warn("could not pre-create datapacks directory", "world", job.World, "error", err)
	}

	var written int
	if job.PackType.SingleArchive() {
		written, err = i.deploySingle(ctx, d, tmp, job.World, link, job.MCVersion)
	} else {
		written, err = i.deployExtracted(ctx, d, tmp, size, job.World)
	}
	if err != nil {
		return nil, err
	}

	return &Result{
		PackType:     job.PackType,
		World:        job.World,
		PacksCount:   job.Selection.Count(),
		FilesWritten: written,
	}, nil
}

func (i *Installer) deploySingle(ctx context.Context, d *deploy.Deployer, tmp *os.File, world, link, version string) (int, error) {
	data, err := os.ReadFile(tmp.Name())
	if err != nil {
		return 0, apperr.Internal("read archive", err)
	}
	if len(data) == 0 {
		return 0, apperr.Upstream("install", "downloaded archive is empty", nil)
	}

	if err := d.DeployFile(ctx, world, path.Join(datapacksDir, archiveFilename(link, version)), data); err != nil {
		return 0, err
	}
	return 1, nil
}

func (i *Installer) deployExtracted(ctx context.Context, d *deploy.Deployer, tmp *os.File, size int64, world string) (int, error) {
	const op = "extract archive"

	// Unsafe entry names are checked during extraction.
	r, err := zip.NewReader(tmp, size)
	if err != nil && !(errors.Is(err, zip.ErrInsecurePath) && r != nil) {
		return 0, apperr.Upstream(op, "downloaded file is not a valid zip archive", err)
	}

	dir, err := os.MkdirTemp(i.opts.TempDir, "vanillatweaks-extract-*")
	if err != nil {
		return 0, apperr.Internal(op, fmt.Errorf("create temp directory: %w", err))
	}
	defer func() {
		_ = os.RemoveAll(dir)
	}()

	files, err := extractZip(ctx, r, dir)
	if err != nil {
		var unsafe *unsafeEntryError
		if errors.As(err, &unsafe) {
			return 0, apperr.Upstream(op, unsafe.Error(), err)
		}
		return 0, apperr.Internal(op, err)
	}
	if files == 0 {
		return 0, apperr.Upstream(op, "archive contains no files", nil)
	}

	slog.Debug("archive extracted", "files", files, "size", units.HumanSize(float64(size)))

	return d.DeployTree(ctx, dir, world, datapacksDir)
}

func (i *Installer) record(ctx context.Context, job Job, result *Result) {
	if i.opts.Sink == nil {
		return
	}

	err := i.opts.Sink.Record(ctx, activity.Record{
		Event:        activity.EventDatapacksInstalled,
		ServerUUID:   job.ServerUUID,
		User:         job.User,
		World:        result.World,
		PackType:     result.PackType.String(),
		MCVersion:    job.MCVersion,
		PacksCount:   result.PacksCount,
		FilesWritten: result.FilesWritten,
	})
	if err != nil {
		slog.Warn("failed to record activity", "server", job.ServerUUID, "error", err)
	}
}

// pause waits a random duration in [MinPause, MaxPause].
func (i *Installer) pause(ctx context.Context) error {
	lo, hi := i.opts.MinPause, i.opts.MaxPause
	if hi <= 0 {
		return nil
	}
	if lo < 0 || lo > hi {
		lo = 0
	}

	d := lo
	if hi > lo {
		d += rand.N(hi - lo + 1)
	}
	return i.sleep(ctx, d)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// validate normalizes job and rejects incomplete requests.
func validate(job Job) (Job, error) {
	const op = "install"

	job.MCVersion = strings.TrimSpace(job.MCVersion)
	if job.MCVersion == "" {
		return job, apperr.InvalidRequest(op, "mcVersion is required")
	}
	if err := vanillatweaks.ValidateVersion(job.MCVersion); err != nil {
		return job, apperr.InvalidRequest(op, "%v", err)
	}

	if job.PackType == "" {
		job.PackType = vanillatweaks.DefaultPackType
	}
	packType, err := vanillatweaks.ParsePackType(string(job.PackType))
	if err != nil {
		return job, apperr.InvalidRequest(op, "%v", err)
	}
	job.PackType = packType

	job.Selection = job.Selection.Normalize()
	if job.Selection.Empty() {
		return job, apperr.InvalidRequest(op, "no packs selected")
	}

	world, err := cleanWorld(job.World)
	if err != nil {
		return job, err
	}
	job.World = world

	return job, nil
}

func cleanWorld(world string) (string, error) {
	world = strings.Trim(strings.TrimSpace(strings.ReplaceAll(world, `\`, "/")), "/")
	if world == "" {
		return "", apperr.InvalidRequest("install", "world is required")
	}
	for _, segment := range strings.Split(world, "/") {
		if segment == ".." {
			return "", apperr.InvalidRequest("install", "invalid world %q", world)
		}
	}
	return path.Clean(world), nil
}

// archiveFilename names a crafting tweaks archive after its download URL,
// falling back to a name derived from the version.
func archiveFilename(link, version string) string {
	if u, err := url.Parse(link); err == nil {
		if name := path.Base(u.Path); strings.HasSuffix(strings.ToLower(name), ".zip") {
			return name
		}
	}
	return "vanillatweaks-craftingtweaks-" + unsafeVersionChars.ReplaceAllString(version, "_") + ".zip"
}
