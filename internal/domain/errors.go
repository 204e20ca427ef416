package domain

import (
	"errors"
	"fmt"
	"unicode/utf8"
)

var (
	ErrNoSource        = errors.New("no file selected")
	ErrEmptySelection  = errors.New("no files selected")
	ErrNotImage        = errors.New("only images can be processed with this tool")
	ErrNotPDF          = errors.New("text can only be extracted from PDF files")
	ErrFileTooLarge    = errors.New("file too large")
	ErrUnsupportedType = errors.New("unsupported file type")
	ErrInvalidParams   = errors.New("invalid operation parameters")
	ErrBusy            = errors.New("an upload is already in progress")
	ErrFileNotFound    = errors.New("file not found in catalog")
	ErrDeclined        = errors.New("action not confirmed")
)

const snippetLimit = 100

// TransportError means the request never produced a response.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ProtocolError means a response arrived in an unexpected shape.
type ProtocolError struct {
	Status  int
	Snippet string
}

func NewProtocolError(status int, body []byte) *ProtocolError {
	return &ProtocolError{Status: status, Snippet: truncate(string(body), snippetLimit)}
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("Server returned %d: %s", e.Status, e.Snippet)
}

// ApplicationError is a well-formed envelope reporting failure.
type ApplicationError struct {
	Status  int
	Code    string
	Message string
}

func (e *ApplicationError) Error() string {
	return e.Message
}

// ValidationError is a precondition rejected before any request.
type ValidationError struct {
	Reason error
	Detail string
}

func NewValidationError(reason error, detail string) *ValidationError {
	return &ValidationError{Reason: reason, Detail: detail}
}

func (e *ValidationError) Error() string {
	if e.Detail == "" {
		return e.Reason.Error()
	}
	return fmt.Sprintf("%s: %s", e.Reason, e.Detail)
}

func (e *ValidationError) Unwrap() error {
	return e.Reason
}

// StatusText renders err as user-facing text. Application messages pass
// through verbatim; transport failures are prefixed with fallback.
func StatusText(err error, fallback string) string {
	if err == nil {
		return ""
	}

	var appErr *ApplicationError
	if errors.As(err, &appErr) {
		if appErr.Message != "" {
			return appErr.Message
		}
		return fallback
	}

	var protoErr *ProtocolError
	if errors.As(err, &protoErr) {
		return protoErr.Error()
	}

	var valErr *ValidationError
	if errors.As(err, &valErr) {
		return valErr.Error()
	}

	var transportErr *TransportError
	if errors.As(err, &transportErr) {
		return fmt.Sprintf("%s: %v", fallback, transportErr.Err)
	}

	return fallback
}

// Retryable reports whether repeating the call could succeed.
func Retryable(err error) bool {
	var transportErr *TransportError
	if errors.As(err, &transportErr) {
		return true
	}
	var protoErr *ProtocolError
	return errors.As(err, &protoErr) && protoErr.Status >= 500
}

func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit])
}
