package domain

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProtocolErrorTruncatesBody(t *testing.T) {
	body := "<html>" + strings.Repeat("x", 300) + "</html>"

	err := NewProtocolError(502, []byte(body))

	assert.Equal(t, 502, err.Status)
	assert.Len(t, err.Snippet, 100)
	assert.True(t, strings.HasPrefix(err.Error(), "Server returned 502: <html>xxx"))
}

func TestStatusText(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"application", &ApplicationError{Status: 400, Message: "File type not allowed"}, "File type not allowed"},
		{"application without message", &ApplicationError{Status: 500}, "Upload failed"},
		{"wrapped application", fmt.Errorf("ctx: %w", &ApplicationError{Message: "boom"}), "boom"},
		{"protocol", NewProtocolError(500, []byte("oops")), "Server returned 500: oops"},
		{"validation", NewValidationError(ErrNotPDF, "image/png"), "text can only be extracted from PDF files: image/png"},
		{"transport", &TransportError{Op: "POST /api/files/upload", Err: errors.New("connection refused")}, "Upload failed: connection refused"},
		{"other", errors.New("x"), "Upload failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusText(tt.err, "Upload failed"))
		})
	}
}

func TestValidationErrorUnwraps(t *testing.T) {
	err := NewValidationError(ErrFileTooLarge, "big.png")
	assert.ErrorIs(t, err, ErrFileTooLarge)
}

func TestRetryable(t *testing.T) {
	assert.True(t, Retryable(&TransportError{Op: "GET", Err: errors.New("reset")}))
	assert.True(t, Retryable(NewProtocolError(503, nil)))
	assert.False(t, Retryable(NewProtocolError(200, nil)))
	assert.False(t, Retryable(&ApplicationError{Status: 500, Message: "no"}))
	assert.False(t, Retryable(NewValidationError(ErrNotImage, "")))
}
