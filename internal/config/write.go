package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

const (
	fileMode = 0600
	dirMode  = 0700

	backupSuffix = ".bak"
)

// writeFile replaces the config file at path with data. The new contents
// are staged next to path and renamed into place; the previous file, if
// any, is kept as path.bak. Both are readable only by the owner since the
// file may hold node tokens.
func writeFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, dirMode); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	staged, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("failed to stage config: %w", err)
	}
	stagedPath := staged.Name()
	defer func() {
		_ = staged.Close()
		_ = os.Remove(stagedPath)
	}()

	if err := staged.Chmod(fileMode); err != nil {
		return fmt.Errorf("failed to restrict staged config: %w", err)
	}
	if _, err := staged.Write(data); err != nil {
		return fmt.Errorf("failed to write staged config: %w", err)
	}
	if err := staged.Sync(); err != nil {
		return fmt.Errorf("failed to sync staged config: %w", err)
	}
	if err := staged.Close(); err != nil {
		return fmt.Errorf("failed to close staged config: %w", err)
	}

	if err := backup(path); err != nil {
		return err
	}

	if err := os.Rename(stagedPath, path); err != nil {
		return fmt.Errorf("failed to replace config: %w", err)
	}
	return nil
}

// backup copies the current config at path to path.bak.
func backup(path string) error {
	previous, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read previous config: %w", err)
	}

	bak := path + backupSuffix
	if err := os.WriteFile(bak, previous, fileMode); err != nil {
		return fmt.Errorf("failed to back up config: %w", err)
	}
	// WriteFile keeps the mode of an existing file.
	if err := os.Chmod(bak, fileMode); err != nil {
		return fmt.Errorf("failed to restrict config backup: %w", err)
	}
	return nil
}
