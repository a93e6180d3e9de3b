// Package core holds the shared error taxonomy for the voxnote engine.
package core

import (
	"errors"
	"fmt"
)

// Error is a categorized engine error.
type Error struct {
	Type    ErrorType `json:"type"`
	Message string    `json:"message"`
	Wrapped error     `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error for error wrapping.
func (e *Error) Unwrap() error {
	return e.Wrapped
}

// ErrorType categorizes errors.
type ErrorType string

const (
	// ErrPermissionDenied means the audio source could not be acquired.
	ErrPermissionDenied ErrorType = "permission_denied"
	// ErrTransport means the streaming channel broke mid-session.
	ErrTransport ErrorType = "transport_error"
	// ErrTranscriptionFailed means the transcription backend rejected or failed a request.
	ErrTranscriptionFailed ErrorType = "transcription_failed"
	// ErrFormattingFailed means the note formatting backend rejected or failed a request.
	ErrFormattingFailed ErrorType = "formatting_failed"
	// ErrUnsupportedFile means an uploaded file is not audio.
	ErrUnsupportedFile ErrorType = "unsupported_file"
)

// NewPermissionDeniedError creates a permission denied error.
func NewPermissionDeniedError(message string) *Error {
	return &Error{Type: ErrPermissionDenied, Message: message}
}

// NewTransportError wraps a broken streaming channel error.
func NewTransportError(underlying error) *Error {
	return &Error{
		Type:    ErrTransport,
		Message: underlying.Error(),
		Wrapped: underlying,
	}
}

// NewTranscriptionError wraps a failed transcription call.
func NewTranscriptionError(underlying error) *Error {
	return &Error{
		Type:    ErrTranscriptionFailed,
		Message: underlying.Error(),
		Wrapped: underlying,
	}
}

// NewFormattingError wraps a failed formatting call.
func NewFormattingError(underlying error) *Error {
	return &Error{
		Type:    ErrFormattingFailed,
		Message: underlying.Error(),
		Wrapped: underlying,
	}
}

// NewUnsupportedFileError creates an unsupported file error.
func NewUnsupportedFileError(name, mimeType string) *Error {
	return &Error{
		Type:    ErrUnsupportedFile,
		Message: fmt.Sprintf("%s: unsupported media type %q", name, mimeType),
	}
}

// TypeOf returns the ErrorType of err if it is (or wraps) an *Error,
// and "" otherwise.
func TypeOf(err error) ErrorType {
	var e *Error
	if errors.As(err, &e) {
		return e.Type
	}
	return ""
}
