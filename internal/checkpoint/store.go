// Package checkpoint reads the persisted "last synchronized" epoch.
//
// The checkpoint is maintained out of band; nothing in addonsync writes it.
package checkpoint

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/afero"
)

// ErrMissingState is matched by errors.Is for every required local file that
// is absent or unreadable.
var ErrMissingState = errors.New("missing required state")

// MissingStateError reports a required local state file that could not be used.
type MissingStateError struct {
	// Path is the file that was expected.
	Path string
	// Reason describes what was wrong with it.
	Reason string
	// Cause is the underlying error, if any.
	Cause error
}

// Error implements the error interface.
func (e *MissingStateError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("missing required state %s: %s: %v", e.Path, e.Reason, e.Cause)
	}
	return fmt.Sprintf("missing required state %s: %s", e.Path, e.Reason)
}

// Unwrap returns the underlying cause.
func (e *MissingStateError) Unwrap() error {
	return e.Cause
}

// Is makes errors.Is(err, ErrMissingState) hold for every MissingStateError.
func (e *MissingStateError) Is(target error) bool {
	return target == ErrMissingState
}

// NewMissingStateError creates a new MissingStateError.
func NewMissingStateError(path, reason string, cause error) *MissingStateError {
	return &MissingStateError{Path: path, Reason: reason, Cause: cause}
}

// Store loads the checkpoint from a file.
type Store struct {
	fs   afero.Fs
	path string
}

// NewStoreWithFS creates a Store on the given filesystem.
func NewStoreWithFS(fs afero.Fs, path string) *Store {
	return &Store{fs: fs, path: path}
}

// Path returns the checkpoint file path.
func (s *Store) Path() string {
	return s.path
}

// Load returns the epoch on the first line of the checkpoint file. A missing
// file or a first line that is not an integer is a *MissingStateError.
func (s *Store) Load() (int64, error) {
	content, err := afero.ReadFile(s.fs, s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, NewMissingStateError(s.path, "checkpoint file not found", err)
		}
		return 0, NewMissingStateError(s.path, "checkpoint file unreadable", err)
	}

	scanner := bufio.NewScanner(bytes.NewReader(content))
	line := ""
	if scanner.Scan() {
		line = strings.TrimSpace(scanner.Text())
	}

	value, err := strconv.ParseInt(line, 10, 64)
	if err != nil {
		return 0, NewMissingStateError(s.path, fmt.Sprintf("checkpoint %q is not an integer", line), err)
	}
	return value, nil
}
