package installer

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// extractZip extracts the archive read from r into destDir and returns the
// number of regular files written. Entries resolving outside destDir are
// rejected. Symlinks and other special entries are skipped.
func extractZip(ctx context.Context, r *zip.Reader, destDir string) (int, error) {
	root := filepath.Clean(destDir)
	files := 0

	for _, f := range r.File {
		if err := ctx.Err(); err != nil {
			return files, err
		}

		target, err := entryTarget(root, f.Name)
		if err != nil {
			return files, err
		}

		mode := f.Mode()
		switch {
		case mode.IsDir():
			if err := os.MkdirAll(target, 0755); err != nil {
				return files, fmt.Errorf("create directory %s: %w", f.Name, err)
			}

		case mode.IsRegular():
			if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
				return files, fmt.Errorf("create parent directory for %s: %w", f.Name, err)
			}
			if err := extractFile(f, target); err != nil {
				return files, err
			}
			files++

		default:
			continue
		}
	}

	return files, nil
}

// entryTarget maps a zip entry name to a path below root.
func entryTarget(root, name string) (string, error) {
	name = strings.ReplaceAll(name, `\`, "/")
	if name == "" || strings.HasPrefix(name, "/") || filepath.IsAbs(name) {
		return "", &unsafeEntryError{name: name}
	}

	target := filepath.Join(root, filepath.FromSlash(name))
	rel, err := filepath.Rel(root, target)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", &unsafeEntryError{name: name}
	}
	return target, nil
}

func extractFile(f *zip.File, target string) error {
	in, err := f.Open()
	if err != nil {
		return fmt.Errorf("open %s: %w", f.Name, err)
	}
	defer func() {
		_ = in.Close()
	}()

	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("create file %s: %w", f.Name, err)
	}

	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return fmt.Errorf("write file %s: %w", f.Name, err)
	}

	if err := out.Close(); err != nil {
		return fmt.Errorf("close file %s: %w", f.Name, err)
	}
	return nil
}

type unsafeEntryError struct {
	name string
}

func (e *unsafeEntryError) Error() string {
	return fmt.Sprintf("archive entry %q escapes the extraction directory", e.name)
}
