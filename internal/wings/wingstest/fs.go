// Package wingstest provides an in-memory stand-in for a server's files on
// the Wings daemon.
package wingstest

import (
	"bytes"
	"context"
	"net/http"
	"path"
	"slices"
	"strings"
	"sync"

	"github.com/featherpanel-com/MinecraftDatapackInstaller/internal/wings"
)

// Op names a recorded call.
type Op string

const (
	OpList  Op = "list"
	OpMkdir Op = "mkdir"
	OpWrite Op = "write"
)

const existsText = "A file or folder already exists at that path."

// Call is one recorded daemon call. Path is the target as the caller sent
// it, before cleaning.
type Call struct {
	Op   Op
	Path string
	Data []byte
}

// FS is an in-memory server filesystem. Like the real daemon, directories
// must be created one component at a time and files can only be written
// into existing directories. Listings preserve insertion order.
type FS struct {
	mu    sync.Mutex
	order []string
	dirs  map[string]bool
	files map[string][]byte
	calls []Call

	// Fail* inject errors keyed by the cleaned absolute path of the target.
	FailList   map[string]error
	FailCreate map[string]error
	FailWrite  map[string]error
}

// New returns an FS containing only the root directory.
func New() *FS {
	return &FS{
		dirs:       map[string]bool{"/": true},
		files:      make(map[string][]byte),
		FailList:   make(map[string]error),
		FailCreate: make(map[string]error),
		FailWrite:  make(map[string]error),
	}
}

func clean(p string) string {
	return path.Clean("/" + p)
}

// AddDir creates p and any missing parents without recording calls.
func (f *FS) AddDir(p string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.addDir(clean(p))
}

func (f *FS) addDir(p string) {
	if f.dirs[p] {
		return
	}
	if parent := path.Dir(p); parent != p {
		f.addDir(parent)
	}
	f.dirs[p] = true
	f.order = append(f.order, p)
}

// AddFile stores data at p, creating parents, without recording calls.
func (f *FS) AddFile(p string, data []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p = clean(p)
	f.addDir(path.Dir(p))
	if _, ok := f.files[p]; !ok {
		f.order = append(f.order, p)
	}
	f.files[p] = bytes.Clone(data)
}

// ListDirectory implements the daemon's list-directory call.
func (f *FS) ListDirectory(_ context.Context, dir string) ([]wings.FileEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, Call{Op: OpList, Path: dir})
	dir = clean(dir)

	if err := f.FailList[dir]; err != nil {
		return nil, err
	}
	if !f.dirs[dir] {
		return nil, notFound()
	}

	var entries []wings.FileEntry
	for _, p := range f.order {
		if p == dir || path.Dir(p) != dir {
			continue
		}
		if f.dirs[p] {
			entries = append(entries, wings.FileEntry{Name: path.Base(p), Directory: true, Mime: "inode/directory"})
			continue
		}
		entries = append(entries, wings.FileEntry{
			Name: path.Base(p),
			File: true,
			Size: int64(len(f.files[p])),
			Mime: "application/octet-stream",
		})
	}
	return entries, nil
}

// CreateDirectory implements the daemon's create-directory call.
func (f *FS) CreateDirectory(_ context.Context, name, parent string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, Call{Op: OpMkdir, Path: path.Join(parent, name)})
	parent = clean(parent)
	p := clean(path.Join(parent, name))

	if err := f.FailCreate[p]; err != nil {
		return err
	}
	if strings.Contains(name, "/") || name == "" {
		return &wings.RequestError{StatusCode: http.StatusBadRequest, Message: "invalid directory name"}
	}
	if !f.dirs[parent] {
		return notFound()
	}
	if _, isFile := f.files[p]; isFile || f.dirs[p] {
		return &wings.RequestError{StatusCode: http.StatusBadRequest, Message: existsText}
	}

	f.dirs[p] = true
	f.order = append(f.order, p)
	return nil
}

// WriteFile implements the daemon's write call.
func (f *FS) WriteFile(_ context.Context, p string, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, Call{Op: OpWrite, Path: p, Data: bytes.Clone(data)})
	p = clean(p)

	if err := f.FailWrite[p]; err != nil {
		return err
	}
	if !f.dirs[path.Dir(p)] {
		return notFound()
	}
	if f.dirs[p] {
		return &wings.RequestError{StatusCode: http.StatusBadRequest, Message: "cannot write to a directory"}
	}

	if _, ok := f.files[p]; !ok {
		f.order = append(f.order, p)
	}
	f.files[p] = bytes.Clone(data)
	return nil
}

// Calls returns the recorded calls of the given ops, or all calls if none
// are given.
func (f *FS) Calls(ops ...Op) []Call {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []Call
	for _, c := range f.calls {
		if len(ops) == 0 || slices.Contains(ops, c.Op) {
			out = append(out, c)
		}
	}
	return out
}

// Writes returns the recorded write calls.
func (f *FS) Writes() []Call {
	return f.Calls(OpWrite)
}

// File returns the contents stored at p.
func (f *FS) File(p string) ([]byte, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.files[clean(p)]
	return data, ok
}

// IsDir reports whether p is a directory.
func (f *FS) IsDir(p string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.dirs[clean(p)]
}

func notFound() error {
	return &wings.RequestError{StatusCode: http.StatusNotFound, Message: "The requested resource was not found on the system."}
}
