package manifest

import "fmt"

// ManifestErrorType categorizes manifest errors.
type ManifestErrorType int

const (
	// ManifestWriteFailed indicates appending to the manifest or pending list failed.
	ManifestWriteFailed ManifestErrorType = iota
	// ManifestResetFailed indicates a stale file could not be removed.
	ManifestResetFailed
	// ManifestReadFailed indicates the pending list could not be read.
	ManifestReadFailed
)

// ManifestError represents manifest and pending-list file errors.
type ManifestError struct {
	// Type categorizes the error.
	Type ManifestErrorType
	// Message is the error message.
	Message string
	// File is the file path related to the error (if applicable).
	File string
	// Cause is the underlying error (if any).
	Cause error
}

// Error implements the error interface.
func (e *ManifestError) Error() string {
	if e.File != "" {
		if e.Cause != nil {
			return fmt.Sprintf("%s (file: %s): %v", e.Message, e.File, e.Cause)
		}
		return fmt.Sprintf("%s (file: %s)", e.Message, e.File)
	}

	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}

	return e.Message
}

// Unwrap returns the underlying cause error for error unwrapping.
func (e *ManifestError) Unwrap() error {
	return e.Cause
}

// newManifestError creates a new ManifestError.
func newManifestError(typ ManifestErrorType, message, file string, cause error) *ManifestError {
	return &ManifestError{
		Type:    typ,
		Message: message,
		File:    file,
		Cause:   cause,
	}
}
