package manifest

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/tacogips/addonsync/internal/logging"
)

// Writer appends to and removes the generated files.
type Writer interface {
	// Append appends content to a file, creating it and its parent directory.
	Append(path string, content []byte) error

	// Remove deletes a file. It reports whether the file existed.
	Remove(path string) (bool, error)

	// Exists checks if a file or directory exists at the given path.
	Exists(path string) bool
}

// FileWriter implements Writer on an afero filesystem.
type FileWriter struct {
	fs afero.Fs
}

// NewFileWriter creates a new FileWriter.
func NewFileWriter(fs afero.Fs) Writer {
	return &FileWriter{fs: fs}
}

// Append appends content to path. Each call opens and closes the file so the
// content is on disk when Append returns.
func (w *FileWriter) Append(path string, content []byte) error {
	logging.Debug().Str("file", path).Int("bytes", len(content)).Msg("[manifest] appending")

	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := w.fs.MkdirAll(dir, 0755); err != nil {
			return newManifestError(ManifestWriteFailed, "failed to create parent directory", path, err)
		}
	}

	f, err := w.fs.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
	if err != nil {
		return newManifestError(ManifestWriteFailed, "failed to open file for append", path, err)
	}

	_, err = f.Write(content)
	closeErr := f.Close()

	if err != nil {
		return newManifestError(ManifestWriteFailed, "failed to write file content", path, err)
	}
	if closeErr != nil {
		return newManifestError(ManifestWriteFailed, "failed to close file", path, closeErr)
	}
	return nil
}

// Remove deletes path if it exists.
func (w *FileWriter) Remove(path string) (bool, error) {
	if err := w.fs.Remove(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, newManifestError(ManifestResetFailed, "failed to remove file", path, err)
	}
	logging.Debug().Str("file", path).Msg("[manifest] removed")
	return true, nil
}

// Exists checks if a file or directory exists at the given path.
func (w *FileWriter) Exists(path string) bool {
	_, err := w.fs.Stat(path)
	return err == nil
}
