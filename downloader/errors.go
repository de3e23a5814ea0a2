package downloader

import (
	"errors"
	"fmt"
)

var (
	// ErrNoTarget is returned when no working file could be resolved for the item
	ErrNoTarget = errors.New("no target file")
	// ErrTransferStopped is returned by transfers that noticed the cancellation flag
	ErrTransferStopped = errors.New("transfer stopped")
)

// ErrorType represents different categories of download errors
type ErrorType int

const (
	ErrorTransfer ErrorType = iota
	ErrorFileSystem
	ErrorPersistence
	ErrorPodcastNotFound
	ErrorInvalidURL
	ErrorCancelled
	ErrorUnknown
)

// String returns the string representation of the error type
func (et ErrorType) String() string {
	switch et {
	case ErrorTransfer:
		return "transfer"
	case ErrorFileSystem:
		return "filesystem_error"
	case ErrorPersistence:
		return "persistence"
	case ErrorPodcastNotFound:
		return "podcast_not_found"
	case ErrorInvalidURL:
		return "invalid_url"
	case ErrorCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// DownloadError represents a structured error that occurred during download
type DownloadError struct {
	Type    ErrorType      `json:"type"`
	Message string         `json:"message"`
	Cause   error          `json:"cause,omitempty"`
	Context map[string]any `json:"context,omitempty"`
}

// Error implements the error interface
func (de *DownloadError) Error() string {
	if de.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", de.Type.String(), de.Message, de.Cause)
	}
	return fmt.Sprintf("%s: %s", de.Type.String(), de.Message)
}

// Unwrap returns the underlying cause error
func (de *DownloadError) Unwrap() error {
	return de.Cause
}

// NewDownloadError creates a new DownloadError with the specified type and message
func NewDownloadError(errorType ErrorType, message string) *DownloadError {
	return &DownloadError{
		Type:    errorType,
		Message: message,
		Context: make(map[string]any),
	}
}

// NewDownloadErrorWithCause creates a new DownloadError with a cause
func NewDownloadErrorWithCause(errorType ErrorType, message string, cause error) *DownloadError {
	de := NewDownloadError(errorType, message)
	de.Cause = cause
	return de
}

// WithContext adds context information to the error
func (de *DownloadError) WithContext(key string, value any) *DownloadError {
	if de.Context == nil {
		de.Context = make(map[string]any)
	}
	de.Context[key] = value
	return de
}

// IsType checks if the error is of a specific type
func (de *DownloadError) IsType(errorType ErrorType) bool {
	return de.Type == errorType
}

// IsDownloadError checks if an error chain holds a DownloadError, optionally of one of the given types
func IsDownloadError(err error, errorType ...ErrorType) bool {
	var de *DownloadError
	if !errors.As(err, &de) {
		return false
	}
	if len(errorType) == 0 {
		return true
	}
	for _, et := range errorType {
		if de.Type == et {
			return true
		}
	}
	return false
}
