package app

import "fmt"

// AppErrorType represents the type of application error.
type AppErrorType int

const (
	// CheckpointLoadFailed indicates the checkpoint could not be loaded.
	CheckpointLoadFailed AppErrorType = iota
	// PendingLoadFailed indicates the pending list could not be read.
	PendingLoadFailed
	// ManifestWriteFailed indicates the manifest or pending list could not be written.
	ManifestWriteFailed
	// CopyFailed indicates copying into the server tree failed.
	CopyFailed
	// ConfigInvalid indicates a configuration value was unusable at run time.
	ConfigInvalid
)

// String returns the name of the error type.
func (t AppErrorType) String() string {
	switch t {
	case CheckpointLoadFailed:
		return "CheckpointLoadFailed"
	case PendingLoadFailed:
		return "PendingLoadFailed"
	case ManifestWriteFailed:
		return "ManifestWriteFailed"
	case CopyFailed:
		return "CopyFailed"
	case ConfigInvalid:
		return "ConfigInvalid"
	default:
		return "Unknown"
	}
}

// AppError represents an application-layer error.
type AppError struct {
	// Type is the error type.
	Type AppErrorType
	// Message is the error message.
	Message string
	// Cause is the underlying error.
	Cause error
}

// Error returns the error message.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *AppError) Unwrap() error {
	return e.Cause
}

// NewAppError creates a new AppError.
func NewAppError(errType AppErrorType, message string, cause error) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
		Cause:   cause,
	}
}

// NewCheckpointLoadError creates a checkpoint load error.
func NewCheckpointLoadError(message string, cause error) *AppError {
	return NewAppError(CheckpointLoadFailed, message, cause)
}

// NewPendingLoadError creates a pending list load error.
func NewPendingLoadError(message string, cause error) *AppError {
	return NewAppError(PendingLoadFailed, message, cause)
}

// NewManifestWriteError creates a manifest write error.
func NewManifestWriteError(message string, cause error) *AppError {
	return NewAppError(ManifestWriteFailed, message, cause)
}

// NewCopyError creates a copy error.
func NewCopyError(message string, cause error) *AppError {
	return NewAppError(CopyFailed, message, cause)
}

// NewConfigError creates a run-time configuration error.
func NewConfigError(message string, cause error) *AppError {
	return NewAppError(ConfigInvalid, message, cause)
}
