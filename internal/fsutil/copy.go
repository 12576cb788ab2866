// Package fsutil copies files and directory trees on an afero filesystem.
package fsutil

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// CopyStats counts what a copy wrote.
type CopyStats struct {
	Files int
	Dirs  int
	Bytes int64
}

// CopyFile copies a file from src to dst, creating parent directories and
// overwriting dst if it exists.
func CopyFile(fs afero.Fs, src, dst string, mode os.FileMode) (int64, error) {
	srcFile, err := fs.Open(src)
	if err != nil {
		return 0, fmt.Errorf("failed to open source file: %w", err)
	}
	defer func() { _ = srcFile.Close() }()

	dir := filepath.Dir(dst)
	if dir != "" && dir != "." {
		if err := fs.MkdirAll(dir, 0755); err != nil {
			return 0, fmt.Errorf("failed to create parent directory: %w", err)
		}
	}

	dstFile, err := fs.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return 0, fmt.Errorf("failed to create destination file: %w", err)
	}

	n, err := io.Copy(dstFile, srcFile)
	closeErr := dstFile.Close()
	if err != nil {
		return n, fmt.Errorf("failed to copy file content: %w", err)
	}
	if closeErr != nil {
		return n, fmt.Errorf("failed to close destination file: %w", closeErr)
	}
	return n, nil
}

// CopyDir recursively copies the contents of src into dst. Existing files in
// dst are overwritten; files only present in dst are left alone.
func CopyDir(fs afero.Fs, src, dst string) (CopyStats, error) {
	var stats CopyStats

	srcInfo, err := fs.Stat(src)
	if err != nil {
		return stats, fmt.Errorf("failed to stat source directory %q: %w", src, err)
	}
	if !srcInfo.IsDir() {
		return stats, fmt.Errorf("source %q is not a directory", src)
	}

	err = afero.Walk(fs, src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)

		if info.IsDir() {
			if err := fs.MkdirAll(target, 0755); err != nil {
				return fmt.Errorf("failed to create directory %q: %w", target, err)
			}
			if rel != "." {
				stats.Dirs++
			}
			return nil
		}

		n, err := CopyFile(fs, path, target, info.Mode().Perm())
		if err != nil {
			return fmt.Errorf("failed to copy %q to %q: %w", path, target, err)
		}
		stats.Files++
		stats.Bytes += n
		return nil
	})
	return stats, err
}
