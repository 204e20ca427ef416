package domain

import (
	"bytes"
	"io"
	"os"
	"strings"
)

const (
	MimePDF   = "application/pdf"
	MimeText  = "text/plain"
	mimeImage = "image/"

	DefaultMaxUploadSize = 10 << 20
)

// UploadSource is a local file pending upload.
type UploadSource struct {
	Name     string
	Size     int64
	MimeType string
	Open     func() (io.ReadCloser, error)
}

// SourceFromBytes builds an in-memory source.
func SourceFromBytes(name, mimeType string, data []byte) UploadSource {
	return UploadSource{
		Name:     name,
		Size:     int64(len(data)),
		MimeType: mimeType,
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		},
	}
}

// SourceFromFile builds a source that reopens path on every attempt.
func SourceFromFile(path, name, mimeType string, size int64) UploadSource {
	return UploadSource{
		Name:     name,
		Size:     size,
		MimeType: mimeType,
		Open: func() (io.ReadCloser, error) {
			return os.Open(path)
		},
	}
}

// Accepted reports whether the backend takes this kind of file.
func Accepted(mimeType string) bool {
	base := strings.TrimSpace(strings.SplitN(mimeType, ";", 2)[0])
	return strings.HasPrefix(base, mimeImage) || base == MimePDF || base == MimeText
}

type ProgressPhase int

const (
	PhaseNotStarted ProgressPhase = iota
	PhaseInProgress
	PhaseSucceeded
	PhaseFailed
)

const (
	ProgressSucceeded = 100
	ProgressFailed    = -1
)

// Progress is the per-item state of an upload run.
type Progress struct {
	Phase   ProgressPhase
	Percent int
}

func NotStarted() Progress { return Progress{Phase: PhaseNotStarted} }

func InProgress(percent int) Progress {
	if percent < 0 {
		percent = 0
	}
	if percent > 99 {
		percent = 99
	}
	return Progress{Phase: PhaseInProgress, Percent: percent}
}

func Succeeded() Progress { return Progress{Phase: PhaseSucceeded, Percent: ProgressSucceeded} }

func Failed() Progress { return Progress{Phase: PhaseFailed, Percent: ProgressFailed} }

// Value is the rendered number: 0..99 while running, 100 on success, -1 on failure.
func (p Progress) Value() int {
	switch p.Phase {
	case PhaseSucceeded:
		return ProgressSucceeded
	case PhaseFailed:
		return ProgressFailed
	default:
		return p.Percent
	}
}

func (p Progress) Terminal() bool {
	return p.Phase == PhaseSucceeded || p.Phase == PhaseFailed
}

// Advance returns next if it does not move the item backwards.
func (p Progress) Advance(next Progress) Progress {
	if p.Terminal() {
		return p
	}
	if next.Phase < p.Phase {
		return p
	}
	if next.Phase == p.Phase && next.Percent < p.Percent {
		return p
	}
	return next
}

type UploadState string

const (
	UploadIdle      UploadState = "idle"
	UploadUploading UploadState = "uploading"
	UploadSuccess   UploadState = "success"
	UploadError     UploadState = "error"
)

type UploadMode string

const (
	ModeSingle UploadMode = "single"
	ModeBatch  UploadMode = "batch"
)
